package main

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/craterdog-bali/go-hsm-proxy/pkg/hsmproxy"
)

var digestCmd = &cobra.Command{
	Use:   "digest [file]",
	Short: "Compute the digest of bytes read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runDigest,
}

func runDigest(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	data, err := readInput(args)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	proxy := hsmproxy.New(cfg, cfg.NewLogger())

	digest, err := proxy.DigestBytes(cmd.Context(), data)
	if err != nil {
		return err
	}

	fmt.Println(hex.EncodeToString(digest))
	return nil
}

// readInput reads args[0] if present, otherwise stdin.
func readInput(args []string) ([]byte, error) {
	if len(args) == 1 {
		return os.ReadFile(args[0])
	}
	return io.ReadAll(os.Stdin)
}
