// Package config holds the proxy-wide configuration described in
// spec §6 and the logger construction the rest of the module builds on.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
)

// Config holds application configuration for the HSM proxy. Defaults
// are applied via struct tags (github.com/mcuadros/go-defaults).
type Config struct {
	Directory      string        `default:""`
	DebugLevel     int           `default:"0"`
	DeviceName     string        `default:"ArmorD"`
	ScanTimeoutMs  int           `default:"1000"`
	MaxAttempts    int           `default:"3"`
	ConnectTimeout time.Duration `default:"10s"`
	NotifyTimeout  time.Duration `default:"5s"`
	OutputFormat   string        `default:"table"`
}

// New returns a Config with spec §6 defaults applied. Directory
// defaults to $HOME/.bali.
func New() *Config {
	c := &Config{}
	defaults.SetDefaults(c)
	if c.Directory == "" {
		c.Directory = defaultDirectory()
	}
	return c
}

func defaultDirectory() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".bali")
}

// ScanTimeout returns ScanTimeoutMs as a time.Duration.
func (c *Config) ScanTimeout() time.Duration {
	return time.Duration(c.ScanTimeoutMs) * time.Millisecond
}

// NewLogger creates a configured logger instance, honoring DebugLevel.
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()

	switch {
	case c.DebugLevel >= 3:
		logger.SetLevel(logrus.TraceLevel)
	case c.DebugLevel == 2:
		logger.SetLevel(logrus.DebugLevel)
	case c.DebugLevel == 1:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}

	// Use structured logging format
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})

	return logger
}
