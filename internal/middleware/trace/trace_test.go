package trace

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	applog "teamfin/internal/log"
)

func newRouter(m *Middleware, seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(m.Handler())
	r.GET("/ping", func(c *gin.Context) {
		*seen = applog.RequestID(c.Request.Context())
		c.String(http.StatusOK, "pong")
	})
	return r
}

func TestHandlerGeneratesRequestID(t *testing.T) {
	m := NewMiddleware()
	var seen string
	r := newRouter(m, &seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ping", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(seen, "req_"))
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))
	assert.Equal(t, int64(1), m.GetMetrics().TotalRequests)
}

func TestHandlerKeepsIncomingRequestID(t *testing.T) {
	m := NewMiddleware()
	var seen string
	r := newRouter(m, &seen)

	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.Header.Set(HeaderRequestID, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "abc-123", seen)
	assert.Equal(t, "abc-123", w.Header().Get(HeaderRequestID))
}

func TestGenerateRequestIDIsUnique(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	assert.NotEqual(t, a, b)
	assert.Len(t, a, len("req_")+16)
}
