package main

import (
	"encoding/hex"

	"github.com/spf13/cobra"

	"github.com/craterdog-bali/go-hsm-proxy/pkg/hsmproxy"
)

var rotateCmd = &cobra.Command{
	Use:   "rotate",
	Short: "Rotate the proxy's key pair",
	Long: `Rotate generates a new key pair and retains the previous one for
exactly one subsequent sign operation, after which it is discarded.`,
	RunE: runRotate,
}

func runRotate(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	proxy := hsmproxy.New(cfg, cfg.NewLogger())

	pub, err := proxy.RotateKeys(cmd.Context())
	if err != nil {
		return err
	}

	printOK(cmd, "rotated key pair, new public key %s", hex.EncodeToString(pub))
	return nil
}
