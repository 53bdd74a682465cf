package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/wb-go/wbf/ginext"

	"github.com/yokitheyo/hordegen/internal/infrastructure/metrics"
)

func newEngine() *ginext.Engine {
	engine := ginext.New("api")
	engine.Use(ErrorHandlerMiddleware(), LoggerMiddleware(), CORSMiddleware())
	return engine
}

func TestPanicBecomes500(t *testing.T) {
	engine := newEngine()
	engine.GET("/boom", func(c *ginext.Context) {
		panic("kaboom")
	})

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/boom", "500")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set("X-Request-ID", "req-1")
	engine.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "internal_error")
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestLoggerAssignsRequestID(t *testing.T) {
	engine := newEngine()
	engine.GET("/ok", func(c *ginext.Context) {
		c.JSON(http.StatusOK, ginext.H{"request_id": c.GetString(requestIDKey)})
	})

	counter := metrics.HTTPRequests.WithLabelValues(http.MethodGet, "/ok", "200")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	id := w.Header().Get("X-Request-ID")
	assert.NotEmpty(t, id)
	assert.Contains(t, w.Body.String(), id)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))
}

func TestCORSPreflight(t *testing.T) {
	engine := newEngine()
	engine.POST("/txt2img", func(c *ginext.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodOptions, "/txt2img", nil))

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Methods"), "DELETE")
}
