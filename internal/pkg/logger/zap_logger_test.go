package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.log")
	l := NewIsolatedLogger(path)

	l.Info("AUDIT", "turn completed", map[string]interface{}{"session_id": "abc"})
	l.Debug("AUDIT", "below file level", nil)
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"message":"turn completed"`)
	assert.Contains(t, string(data), `"module":"AUDIT"`)
	assert.Contains(t, string(data), `"session_id":"abc"`)
	assert.NotContains(t, string(data), "below file level")
}

func TestNopLogger(t *testing.T) {
	var l ILogger = NewNopLogger()
	l.Error("X", "ignored", map[string]interface{}{"error": "boom"})
	assert.NoError(t, l.Sync())
}
