// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/seekwell-dev/seekwell/internal/config"
)

func initTestLogger(t *testing.T, cfg config.LoggerConfig) *bytes.Buffer {
	t.Helper()
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf bytes.Buffer
	Initialize(cfg, zapcore.AddSync(&buf))
	return &buf
}

func TestInitializeJSONOutput(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "seekwell"})

	GetLogger().Warn("binding repaired", zap.String("binding", "LIST_ITEM"))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "log output must be valid JSON")
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "seekwell", entry["logger"])
	assert.Equal(t, "binding repaired", entry["msg"])
	assert.Equal(t, "LIST_ITEM", entry["binding"])
}

func TestInitializeHonorsLevel(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{Level: "info", Format: "json"})

	GetLogger().Debug("suppressed")
	assert.Empty(t, buf.Bytes(), "debug entries must be filtered at info level")

	GetLogger().Info("emitted")
	assert.Contains(t, buf.String(), "emitted")
}

func TestInitializeOnlyOnce(t *testing.T) {
	buf := initTestLogger(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})

	// A second initialization must be ignored until the once is re-armed.
	var second bytes.Buffer
	Initialize(config.LoggerConfig{Level: "debug", Format: "json", ServiceName: "second"}, zapcore.AddSync(&second))

	GetLogger().Info("routed")
	assert.Contains(t, buf.String(), `"first"`)
	assert.Empty(t, second.Bytes())
}

func TestResetForTestRearmsInitialization(t *testing.T) {
	initTestLogger(t, config.LoggerConfig{Level: "info", Format: "json", ServiceName: "first"})

	ResetForTest()
	var buf bytes.Buffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json", ServiceName: "second"}, zapcore.AddSync(&buf))

	GetLogger().Info("routed")
	assert.Contains(t, buf.String(), `"second"`, "a reset must let the next Initialize take effect")
}

func TestGetLoggerFallback(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger, "uninitialized GetLogger must return a usable fallback")
}
