// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{in: "", want: slog.LevelInfo},
		{in: "info", want: slog.LevelInfo},
		{in: "DEBUG", want: slog.LevelDebug},
		{in: "warning", want: slog.LevelWarn},
		{in: " error ", want: slog.LevelError},
		{in: "verbose", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOpenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")

	for _, msg := range []string{"first run", "second run"} {
		log, c, err := Open(path, "info")
		require.NoError(t, err)
		log.Info(msg)
		log.Debug("hidden")
		require.NoError(t, c.Close())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `msg="first run"`)
	assert.Contains(t, lines[1], `msg="second run"`)
	assert.Contains(t, lines[0], "level=INFO")
	assert.Contains(t, lines[0], "time=")
}

func TestOpenErrors(t *testing.T) {
	_, _, err := Open(filepath.Join(t.TempDir(), "app.log"), "loud")
	assert.Error(t, err)

	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))
	_, _, err = Open(filepath.Join(blocker, "app.log"), "info")
	assert.Error(t, err)
}
