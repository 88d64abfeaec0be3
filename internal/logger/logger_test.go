package logger_test

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/alertmail/internal/logger"
)

func TestNew_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "alertmail.log")

	log, closer, err := logger.New(logger.Options{Level: slog.LevelInfo, File: path})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("alert dispatched", slog.Int("count", 3))
	require.NoError(t, closer.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(data, &entry))
	assert.Equal(t, "alert dispatched", entry["msg"])
	assert.Equal(t, "INFO", entry["level"])
	assert.EqualValues(t, 3, entry["count"])
	assert.NotContains(t, string(data), "hidden")
}

func TestNew_Stderr(t *testing.T) {
	log, closer, err := logger.New(logger.Options{Level: slog.LevelDebug})
	require.NoError(t, err)
	require.NotNil(t, log)

	assert.True(t, log.Enabled(t.Context(), slog.LevelDebug))
	assert.NoError(t, closer.Close())
}
