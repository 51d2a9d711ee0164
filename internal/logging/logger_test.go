// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"console format", Options{Level: "debug", Format: "console", Console: &bytes.Buffer{}}, false},
		{"invalid level", Options{Level: "loud", Format: "json"}, true},
		{"invalid format", Options{Level: "info", Format: "xml", Console: &bytes.Buffer{}}, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			log, err := New(tc.opts)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, log)
		})
	}
}

func TestNew_ConsoleWriter(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Options{Level: "info", Format: "json", Console: &buf})
	require.NoError(t, err)

	log.Debug("hidden")
	log.Info("exchange completed", zap.String("model", "m"), zap.Int("chunks", 3))
	require.NoError(t, log.Sync())

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1, "debug is below the configured level")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "exchange completed", entry["msg"])
	assert.Equal(t, "m", entry["model"])
	assert.EqualValues(t, 3, entry["chunks"])
}

func TestNew_RotatingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "askai.log")
	opts := DefaultOptions()
	opts.File = path

	log, err := New(opts)
	require.NoError(t, err)
	log.Warn("stream stalled")
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "stream stalled")
}

func TestGlobal(t *testing.T) {
	defer SetGlobal(nil)

	assert.NotNil(t, L())

	var buf bytes.Buffer
	_, err := InitGlobal(Options{Level: "info", Console: &buf})
	require.NoError(t, err)

	L().Info("hello")
	assert.Contains(t, buf.String(), "hello")

	SetGlobal(nil)
	L().Info("dropped")
	assert.NotContains(t, buf.String(), "dropped")
}
