package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONLoggerAddsRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Component: ComponentWorker, Output: &buf})

	ctx := WithRequestID(context.Background(), "req_42")
	logger.InfoContext(ctx, "hello", "n", 1)
	logger.DebugContext(ctx, "hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)
	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "hello", rec["msg"])
	assert.Equal(t, "req_42", rec[FieldRequestID])
	assert.Equal(t, ComponentWorker, rec[FieldComponent])
	assert.Equal(t, float64(1), rec["n"])
}

func TestTextLoggerWithoutRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelDebug, Output: &buf}).With("k", "v")

	logger.Debug("plain")
	out := buf.String()
	assert.Contains(t, out, "msg=plain")
	assert.Contains(t, out, "component=app")
	assert.Contains(t, out, "k=v")
	assert.NotContains(t, out, FieldRequestID)
}

func TestMiddlewareStoresLogger(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger := New(Config{Output: &bytes.Buffer{}})

	var got *Logger
	r := gin.New()
	r.Use(Middleware(logger), ComponentMiddleware(ComponentHTTP))
	r.GET("/", func(c *gin.Context) {
		got = FromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	require.NotNil(t, got)
	assert.Equal(t, ComponentHTTP, got.Component())
	assert.Equal(t, "unknown", FromContext(context.Background()).Component())
}

func TestLogFields(t *testing.T) {
	fields := NewFields().
		WithComponent(ComponentHTTP).
		WithError(errors.New("boom")).
		WithError(nil).
		WithHTTPResponse(404, 3, false)
	assert.Equal(t, "boom", fields[FieldError])
	assert.Len(t, fields.ToSlice(), 2*len(fields))
}
