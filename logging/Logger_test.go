package logging_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/samuelfneumann/helpinghands/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]logging.LogLevel{
		"debug": logging.LevelDebug,
		"INFO":  logging.LevelInfo,
		"Warn":  logging.LevelWarn,
		"error": logging.LevelError,
	} {
		l, err := logging.ParseLevel(in)
		require.NoError(t, err)
		assert.Equal(t, want, l)
	}

	_, err := logging.ParseLevel("verbose")
	assert.Error(t, err)
}

func TestJSONLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewSlogLoggerTo(&buf, logging.LevelInfo, "json")
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("reset", "episode", 3)

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "reset", record["msg"])
	assert.Equal(t, float64(3), record["episode"])
}

func TestTextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := logging.NewSlogLoggerTo(&buf, logging.LevelDebug, "text")
	require.NoError(t, err)

	logger.Debug("retry", "attempt", 2)
	assert.Contains(t, buf.String(), "attempt=2")

	_, err = logging.NewSlogLoggerTo(&buf, logging.LevelDebug, "xml")
	assert.Error(t, err)
}

func TestNoOp(t *testing.T) {
	var logger logging.Logger = logging.NoOp{}
	assert.NotPanics(t, func() {
		logger.Error("ignored", "key", "value")
	})
}
