package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/craterdog-bali/go-hsm-proxy/pkg/hsmproxy"
)

var verifyCmd = &cobra.Command{
	Use:   "verify <public-key-hex> <signature-hex> [file]",
	Short: "Verify a signature over bytes read from a file or stdin",
	Args:  cobra.RangeArgs(2, 3),
	RunE:  runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}

	publicKey, err := hex.DecodeString(args[0])
	if err != nil {
		return fmt.Errorf("invalid public key hex: %w", err)
	}
	signature, err := hex.DecodeString(args[1])
	if err != nil {
		return fmt.Errorf("invalid signature hex: %w", err)
	}

	data, err := readInput(args[2:])
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	proxy := hsmproxy.New(cfg, cfg.NewLogger())

	ok, err := proxy.ValidSignature(cmd.Context(), publicKey, signature, data)
	if err != nil {
		return err
	}

	if ok {
		printOK(cmd, "signature valid")
		return nil
	}

	fmt.Fprintln(os.Stderr, "signature invalid")
	os.Exit(1)
	return nil
}
