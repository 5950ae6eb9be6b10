package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/craterdog-bali/go-hsm-proxy/pkg/config"
)

// buildConfig assembles a config.Config from the persistent flags shared
// by every subcommand, falling back to New()'s defaults for anything unset.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.New()

	logLevelStr, _ := cmd.Flags().GetString("log-level")
	if logLevelStr != "" {
		switch logLevelStr {
		case "debug":
			cfg.DebugLevel = 2
		case "info":
			cfg.DebugLevel = 1
		case "warn":
			cfg.DebugLevel = 0
		case "error":
			cfg.DebugLevel = 0
		default:
			return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", logLevelStr)
		}
	}

	if device, _ := cmd.Flags().GetString("device"); device != "" {
		cfg.DeviceName = device
	}
	if dir, _ := cmd.Flags().GetString("directory"); dir != "" {
		cfg.Directory = dir
	}
	if attempts, _ := cmd.Flags().GetInt("max-attempts"); attempts > 0 {
		cfg.MaxAttempts = attempts
	}

	return cfg, nil
}
