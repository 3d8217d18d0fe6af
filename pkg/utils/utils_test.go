package utils

import (
	"bytes"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/ashpect/ttlstore/pkg/log"
)

func captureLogs(t *testing.T, level string) *bytes.Buffer {
	buf := &bytes.Buffer{}
	prevL, prevP := log.L(), log.Props()
	lg, props, err := log.InitLoggerWithWriteSyncer(&log.Config{Level: level, Format: log.FormatJSON}, zapcore.AddSync(buf))
	require.NoError(t, err)
	log.ReplaceGlobals(lg, props)
	t.Cleanup(func() { log.ReplaceGlobals(prevL, prevP) })
	return buf
}

func TestPrintRequest(t *testing.T) {
	buf := captureLogs(t, "debug")

	req := httptest.NewRequest("GET", "http://example.com/a?b=c", nil)
	req.Header.Set("Accept", "text/plain")
	PrintRequest(req, "incoming")

	out := buf.String()
	assert.Contains(t, out, `"msg":"incoming"`)
	assert.Contains(t, out, `"method":"GET"`)
	assert.Contains(t, out, `"Accept":["text/plain"]`)
}

func TestPrintRequestWithMetadata(t *testing.T) {
	buf := captureLogs(t, "debug")

	req := httptest.NewRequest("GET", "/a", nil)
	upstream, _ := url.Parse("http://upstream:9000/api")
	PrintRequestWithMetadata(req, "outgoing", upstream, true)

	out := buf.String()
	assert.Contains(t, out, `"upstream":"http://upstream:9000/api"`)
	assert.Contains(t, out, `"preserveOriginalHost":true`)
}

func TestPrintRequest_QuietAboveDebug(t *testing.T) {
	buf := captureLogs(t, "info")
	PrintRequest(httptest.NewRequest("GET", "/a", nil), "incoming")
	assert.Empty(t, buf.String())
}

func TestLog(t *testing.T) {
	buf := captureLogs(t, "info")
	Log("demo upstream listening on %s", ":9000")
	assert.Contains(t, buf.String(), `"msg":"demo upstream listening on :9000"`)

	buf = captureLogs(t, "warn")
	Log("dropped")
	assert.Empty(t, buf.String())
}
