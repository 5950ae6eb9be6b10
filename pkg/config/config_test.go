package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func TestNew_Defaults(t *testing.T) {
	cfg := New()

	assert.NotNil(t, cfg)
	assert.Equal(t, "ArmorD", cfg.DeviceName)
	assert.Equal(t, 1000, cfg.ScanTimeoutMs)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 10*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "table", cfg.OutputFormat)

	home, err := os.UserHomeDir()
	if err == nil {
		assert.Equal(t, filepath.Join(home, ".bali"), cfg.Directory)
	}
}

func TestConfig_ScanTimeout(t *testing.T) {
	cfg := &Config{ScanTimeoutMs: 2500}
	assert.Equal(t, 2500*time.Millisecond, cfg.ScanTimeout())
}

func TestConfig_NewLogger(t *testing.T) {
	tests := []struct {
		name       string
		debugLevel int
		want       logrus.Level
	}{
		{"default is warn", 0, logrus.WarnLevel},
		{"level 1 is info", 1, logrus.InfoLevel},
		{"level 2 is debug", 2, logrus.DebugLevel},
		{"level 3+ is trace", 3, logrus.TraceLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{DebugLevel: tt.debugLevel}
			logger := cfg.NewLogger()

			assert.NotNil(t, logger)
			assert.Equal(t, tt.want, logger.GetLevel())

			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			assert.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}
