package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craterdog-bali/go-hsm-proxy/pkg/hsmproxy"
)

var eraseCmd = &cobra.Command{
	Use:   "erase",
	Short: "Erase all keys from the HSM and forget the persisted record",
	RunE:  runErase,
}

func runErase(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	proxy := hsmproxy.New(cfg, cfg.NewLogger())

	ok, err := proxy.EraseKeys(cmd.Context())
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("HSM reported erase as unsuccessful")
	}

	printOK(cmd, "erased keys")
	return nil
}
