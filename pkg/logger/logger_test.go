package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dailyfeed/feedsync.go/pkg/logger"
)

func TestZerologAdapterWritesStructuredFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(buf)

	require.Zero(t, buf.Len())
	log.Info("page appended", "key", "feed/home", "edges", 7)

	var line struct {
		Level string `json:"level"`
		Msg   string `json:"message"`
		Key   string `json:"key"`
		Edges int    `json:"edges"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Equal(t, "info", line.Level)
	require.Equal(t, "page appended", line.Msg)
	require.Equal(t, "feed/home", line.Key)
	require.Equal(t, 7, line.Edges)
}

func TestZerologAdapterLevels(t *testing.T) {
	for _, level := range []string{"error", "warn", "info", "debug"} {
		buf := &bytes.Buffer{}
		log := logger.New(buf)

		switch level {
		case "error":
			log.Error("boom")
		case "warn":
			log.Warn("boom")
		case "info":
			log.Info("boom")
		case "debug":
			log.Debug("boom")
		}

		var line struct {
			Level string `json:"level"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
		require.Equal(t, level, line.Level)
	}
}

func TestZerologAdapterToleratesOddArgs(t *testing.T) {
	buf := &bytes.Buffer{}
	log := logger.New(buf)

	// A trailing key without a value must still appear, not be dropped.
	log.Warn("odd", "dangling")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	require.Contains(t, line, "dangling")
}
