package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInitLoggersWritesFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")

	InitLoggers(dir)
	t.Cleanup(func() {
		ErrorLogger, AuditLogger, RequestLogger = zap.NewNop(), zap.NewNop(), zap.NewNop()
		SecurityLogger, SystemLogger, ContextLogger = zap.NewNop(), zap.NewNop(), zap.NewNop()
	})

	AuditLogger.Info("task created", zap.String("task_key", "BUG-1"))
	SyncLoggers()

	data, err := os.ReadFile(filepath.Join(dir, "audit.log"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"task_key":"BUG-1"`)
	assert.Contains(t, string(data), `"timestamp"`)

	for _, name := range []string{"errors.log", "request.log", "security.log", "system.log", "context.log"} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}
