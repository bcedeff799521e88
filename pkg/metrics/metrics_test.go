package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrument_UsesRouteLabel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Instrument())
	r.GET("/items/:id", func(c *gin.Context) { c.Status(http.StatusTeapot) })
	r.GET("/metrics", Handler())

	before := testutil.ToFloat64(httpRequests.WithLabelValues("/items/:id", "4xx"))
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/items/42", nil))
	after := testutil.ToFloat64(httpRequests.WithLabelValues("/items/:id", "4xx"))
	assert.Equal(t, before+1, after)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "overlap_http_requests_total"))
}

func TestResultLabel(t *testing.T) {
	assert.Equal(t, "2xx", resultLabel(201))
	assert.Equal(t, "3xx", resultLabel(304))
	assert.Equal(t, "5xx", resultLabel(503))
	assert.Equal(t, "100", resultLabel(100))
}
