package main

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/craterdog-bali/go-hsm-proxy/pkg/hsmproxy"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate the proxy's first key pair",
	RunE:  runGenerate,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	proxy := hsmproxy.New(cfg, cfg.NewLogger())

	pub, err := proxy.GenerateKeys(cmd.Context())
	if err != nil {
		return err
	}

	printOK(cmd, "generated key pair, public key %s", hex.EncodeToString(pub))
	return nil
}
