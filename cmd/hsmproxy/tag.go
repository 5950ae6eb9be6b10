package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craterdog-bali/go-hsm-proxy/pkg/hsmproxy"
)

var tagCmd = &cobra.Command{
	Use:   "tag",
	Short: "Print the proxy's identifying tag and protocol version",
	RunE:  runTag,
}

func runTag(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	cmd.SilenceUsage = true

	proxy := hsmproxy.New(cfg, cfg.NewLogger())

	tag, err := proxy.GetTag(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Printf("tag:      %s\n", tag.String())
	fmt.Printf("protocol: %s\n", proxy.GetProtocol())
	return nil
}
