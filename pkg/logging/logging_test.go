package logging

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	var buf bytes.Buffer
	logger := New("debug", "json", &buf)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())

	logger.Info("hello")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	assert.Equal(t, logrus.InfoLevel, New("loud", "text", &buf).GetLevel())
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(Middleware(logger))
	r.GET("/ok", func(c *gin.Context) {
		FromContext(c).Info("inside handler")
		c.Status(http.StatusNoContent)
	})
	r.GET("/missing", func(c *gin.Context) {
		c.Status(http.StatusNotFound)
	})

	req := httptest.NewRequest(http.MethodGet, "/ok", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get(RequestIDHeader))
	entries := hook.AllEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "inside handler", entries[0].Message)
	assert.Equal(t, "req-123", entries[0].Data["request_id"])
	assert.Equal(t, http.StatusNoContent, entries[1].Data["status"])

	hook.Reset()
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestFromContext_Fallback(t *testing.T) {
	assert.NotNil(t, FromContext(nil))
}
