package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func ok(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"message": "success"}) }

func request(router *gin.Engine, method, path, remote string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	if remote != "" {
		req.RemoteAddr = remote
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestCORS(t *testing.T) {
	router := setupTestRouter()
	router.Use(CORS(DefaultCORSConfig()))
	router.GET("/test", ok)

	tests := []struct {
		name           string
		method         string
		origin         string
		wantStatus     int
		wantCORSHeader bool
	}{
		{"simple GET with origin", "GET", "chrome-extension://abc", http.StatusOK, true},
		{"preflight", "OPTIONS", "http://localhost:3000", http.StatusNoContent, true},
		{"no origin header", "GET", "", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/test", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
				req.Header.Set("Access-Control-Request-Method", "GET")
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantCORSHeader {
				assert.NotEmpty(t, w.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}

func TestDefaultCORSConfig(t *testing.T) {
	cfg := DefaultCORSConfig()

	assert.Contains(t, cfg.AllowOrigins, "*")
	assert.Contains(t, cfg.AllowMethods, "PUT")
	assert.Contains(t, cfg.AllowMethods, "DELETE")
	assert.False(t, cfg.AllowCredentials)
	assert.Equal(t, 12*time.Hour, cfg.MaxAge)
}

func TestRateLimit(t *testing.T) {
	router := setupTestRouter()
	router.Use(RateLimit(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	router.GET("/test", ok)

	for i := 0; i < 2; i++ {
		assert.Equal(t, http.StatusOK, request(router, "GET", "/test", "192.168.1.1:1234").Code, "request %d", i+1)
	}
	w := request(router, "GET", "/test", "192.168.1.1:1234")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "rate limit exceeded")

	// Another client has its own bucket.
	assert.Equal(t, http.StatusOK, request(router, "GET", "/test", "192.168.1.2:1234").Code)
}

func TestRateLimitRefillsAndEvicts(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := newLimiters(RateLimitConfig{RequestsPerSecond: 1, Burst: 1, Idle: time.Minute}, func() time.Time { return now })

	assert.True(t, l.allow("a"))
	assert.False(t, l.allow("a"))

	now = now.Add(time.Second)
	assert.True(t, l.allow("a"))
	assert.True(t, l.allow("b"))
	assert.Equal(t, 2, l.size())

	now = now.Add(2 * time.Minute)
	assert.True(t, l.allow("b"))
	assert.Equal(t, 1, l.size(), "idle client a should be dropped")
}

func TestDefaultRateLimitConfig(t *testing.T) {
	cfg := DefaultRateLimitConfig()

	assert.Equal(t, 20, cfg.RequestsPerSecond)
	assert.Equal(t, 40, cfg.Burst)
	assert.Equal(t, DefaultIdle, cfg.Idle)
}

func TestRequestLogLevels(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	router := setupTestRouter()
	router.Use(RequestLog(zap.New(core)))
	router.GET("/ok", ok)
	router.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })

	request(router, "GET", "/ok", "")
	request(router, "GET", "/missing", "")
	request(router, "GET", "/boom", "")

	entries := logs.All()
	if assert.Len(t, entries, 3) {
		assert.Equal(t, "request", entries[0].Message)
		assert.Equal(t, "request rejected", entries[1].Message)
		assert.Equal(t, "request failed", entries[2].Message)
		assert.Equal(t, int64(http.StatusNotFound), entries[1].ContextMap()["status"])
	}
}
