package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LogLevelDebug, ParseLevel("debug"))
	assert.Equal(t, LogLevelWarn, ParseLevel("warn"))
	assert.Equal(t, LogLevelError, ParseLevel("error"))
	assert.Equal(t, LogLevelInfo, ParseLevel("info"))
	assert.Equal(t, LogLevelInfo, ParseLevel("garbage"))
}

func TestDebateLoggerAttachesContext(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.WithComponent("pipeline").WithChat(42, "run-1").Info("step done role=%s", "optimist")

	entry := decodeLine(t, &buf)
	assert.Equal(t, "step done role=optimist", entry["msg"])
	assert.Equal(t, "pipeline", entry["component"])
	assert.Equal(t, float64(42), entry["chat_id"])
	assert.Equal(t, "run-1", entry["run_id"])
}

func TestDebateLoggerLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelWarn, Format: "json", Output: &buf})

	logger.Info("hidden")
	assert.Zero(t, buf.Len())

	logger.Warn("visible")
	assert.NotZero(t, buf.Len())
}

func TestLogModelCall(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.LogModelCall("optimist", "gpt-4o-mini", 120, 250*time.Millisecond, nil)

	entry := decodeLine(t, &buf)
	assert.Equal(t, "Model call completed", entry["msg"])
	assert.Equal(t, "optimist", entry["role"])
	assert.Equal(t, float64(120), entry["token_count"])
	assert.Equal(t, true, entry["success"])
}

func TestLogPipelineRunFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&LoggerConfig{Level: LogLevelInfo, Format: "json", Output: &buf})

	logger.LogPipelineRun(2, time.Second, errors.New("model down"))

	entry := decodeLine(t, &buf)
	assert.Equal(t, "Pipeline run failed", entry["msg"])
	assert.Equal(t, float64(2), entry["step_count"])
	assert.Equal(t, false, entry["success"])
	assert.Equal(t, "model down", entry["error"])
}

func TestDebateLoggerImplementsMetricsLogger(t *testing.T) {
	var logger Logger = NewLogger(nil)
	_, ok := logger.(MetricsLogger)
	assert.True(t, ok)
}
