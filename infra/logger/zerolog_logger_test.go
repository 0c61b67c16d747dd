package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestZerologLoggerMethods(t *testing.T) {
	assert.NoError(t, os.Setenv("APP_ENV", "dev"))
	defer func() { assert.NoError(t, os.Unsetenv("APP_ENV")) }()
	l := NewZerologLogger("test")
	if l == nil {
		t.Fatalf("nil logger")
	}
	l.Debugf("debug %d", 1)
	l.Debugw("debug", map[string]any{"k": 1})
	l.Infof("info %s", "test")
	l.Warnf("warn")
	l.Errorf("error")
}

func TestZerologLoggerWithFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter("orchestrator", &buf).With("instance", "a.json")
	l.Infof("solved in %d ms", 12)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "orchestrator", entry["component"])
	assert.Equal(t, "a.json", entry["instance"])
	assert.Equal(t, "solved in 12 ms", entry["message"])
	assert.Equal(t, "info", entry["level"])
}

func TestNopLoggerWith(t *testing.T) {
	var l Logger = NopLogger{}
	assert.Equal(t, NopLogger{}, l.With("k", 1))
}
