package utils

import (
	"net/http"
	"net/url"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ashpect/ttlstore/pkg/log"
)

type headerFields http.Header

func (h headerFields) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	for key, values := range h {
		zap.Strings(key, values).AddTo(enc)
	}
	return nil
}

func requestFields(req *http.Request) []zap.Field {
	return []zap.Field{
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.String("host", req.Host),
		zap.Object("headers", headerFields(req.Header)),
	}
}

// PrintRequest logs a request at debug level under title.
func PrintRequest(req *http.Request, title string) {
	if !log.L().Core().Enabled(zap.DebugLevel) {
		return
	}
	log.Debug(title, requestFields(req)...)
}

// PrintRequestWithMetadata is PrintRequest plus the upstream the request is
// routed to.
func PrintRequestWithMetadata(req *http.Request, title string, upstream *url.URL, preserveOriginalHost bool) {
	if !log.L().Core().Enabled(zap.DebugLevel) {
		return
	}
	fields := append(requestFields(req), zap.Bool("preserveOriginalHost", preserveOriginalHost))
	if upstream != nil {
		fields = append(fields, zap.Stringer("upstream", upstream))
	}
	log.Debug(title, fields...)
}
