package main

import (
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craterdog-bali/go-hsm-proxy/pkg/hsmproxy"
)

var signCmd = &cobra.Command{
	Use:   "sign [file]",
	Short: "Sign bytes read from a file or stdin with the current proxy key",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSign,
}

func runSign(cmd *cobra.Command, args []string) error {
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

	sig, err := proxy.SignBytes(cmd.Context(), data)
	if err != nil {
		return err
	}

	fmt.Println(hex.EncodeToString(sig))
	return nil
}
