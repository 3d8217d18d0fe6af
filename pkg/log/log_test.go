package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestInitLoggerWithWriteSyncer(t *testing.T) {
	buf := &bytes.Buffer{}
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "warn"}, zapcore.AddSync(buf))
	require.NoError(t, err)

	lg.Info("hidden")
	lg.Warn("shown", zap.String("key", "akey"))
	require.NoError(t, lg.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "akey")
	assert.Equal(t, zapcore.WarnLevel, props.Level.Level())
}

func TestInitLoggerJSON(t *testing.T) {
	buf := &bytes.Buffer{}
	lg, _, err := InitLoggerWithWriteSyncer(&Config{Level: "debug", Format: FormatJSON}, zapcore.AddSync(buf))
	require.NoError(t, err)
	lg.Debug("json line", zap.Int("n", 3))
	assert.Contains(t, buf.String(), `"msg":"json line"`)
	assert.Contains(t, buf.String(), `"n":3`)
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	_, _, err := InitLoggerWithWriteSyncer(&Config{Level: "loud"}, zapcore.AddSync(&bytes.Buffer{}))
	assert.Error(t, err)
}

func TestInitLoggerFile(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "ttlstore.log")
	lg, _, err := InitLogger(&Config{Level: "info", File: FileLogConfig{Filename: filename}})
	require.NoError(t, err)
	lg.Info("to file")
	require.NoError(t, lg.Sync())

	data, err := os.ReadFile(filename)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")

	_, _, err = InitLogger(&Config{File: FileLogConfig{Filename: dir}})
	assert.Error(t, err)
}

func TestReplaceGlobals(t *testing.T) {
	oldL, oldP := L(), Props()
	defer ReplaceGlobals(oldL, oldP)

	buf := &bytes.Buffer{}
	lg, props, err := InitLoggerWithWriteSyncer(&Config{Level: "info"}, zapcore.AddSync(buf), zap.AddCallerSkip(1))
	require.NoError(t, err)
	ReplaceGlobals(lg, props)

	Debug("not yet")
	Info("info line")
	SetLevel(zapcore.DebugLevel)
	Debug("now visible")
	With(zap.String("component", "test")).Warn("with fields")
	S().Errorf("sugared %d", 7)

	out := buf.String()
	assert.NotContains(t, out, "not yet")
	assert.Contains(t, out, "info line")
	assert.Contains(t, out, "now visible")
	assert.Contains(t, out, "with fields")
	assert.Contains(t, out, "component")
	assert.Contains(t, out, "sugared 7")
}
