package utilities

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestLevelFromString(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, levelFromString("debug"))
	assert.Equal(t, zapcore.WarnLevel, levelFromString("warning"))
	assert.Equal(t, zapcore.ErrorLevel, levelFromString("error"))
	assert.Equal(t, zapcore.InfoLevel, levelFromString("verbose"))
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("LOG_DEV", "1")
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("LOG_FILE", "/var/log/retail.log")
	t.Setenv("LOG_MAX_AGE_DAYS", "3")

	cfg := ConfigFromEnv()
	assert.Equal(t, Config{Level: "debug", Dev: true, File: "/var/log/retail.log", MaxAge: 72 * time.Hour}, cfg)
}

func TestInitWritesRotatedFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "retail.log")
	logger, err := Init(Config{Level: "info", File: file})
	require.NoError(t, err)

	logger.Debug("hidden")
	logger.Info("order created")
	_ = logger.Sync()

	b, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"order created"`)
	assert.NotContains(t, string(b), "hidden")
}
