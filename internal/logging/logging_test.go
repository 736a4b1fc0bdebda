package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_ConsoleLevels(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "quiet", verbose: false, wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			l, err := New(Options{Verbose: tt.verbose, NoColor: true, Console: &buf, RunID: "run-1"})
			require.NoError(t, err)
			defer l.Close()

			l.Debug().Msg("debug line")
			l.Warn().Msg("warn line")

			out := buf.String()
			assert.Contains(t, out, "warn line")
			assert.Contains(t, out, "run-1")
			assert.Equal(t, tt.wantDebug, strings.Contains(out, "debug line"))
		})
	}
}

func TestNew_File(t *testing.T) {
	var console bytes.Buffer
	path := filepath.Join(t.TempDir(), "rohan.log")

	l, err := New(Options{Level: "debug", File: path, Console: &console, NoColor: true})
	require.NoError(t, err)
	assert.NotEmpty(t, l.RunID)

	l.Debug().Str("item", "op_1").Msg("item completed")
	require.NoError(t, l.Close())

	assert.NotContains(t, console.String(), "item completed", "console stays at warn")

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &event))
	assert.Equal(t, "debug", event["level"])
	assert.Equal(t, "item completed", event["message"])
	assert.Equal(t, "op_1", event["item"])
	assert.Equal(t, l.RunID, event["run_id"])
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestLogger_CloseWithoutFile(t *testing.T) {
	l, err := New(Options{Console: &bytes.Buffer{}})
	require.NoError(t, err)
	assert.NoError(t, l.Close())
}
