package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/resilience"
)

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.MinWait = time.Millisecond
	cfg.MaxWait = 5 * time.Millisecond
	return cfg
}

func TestGetRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "AgentBrowser/1.0", r.Header.Get("User-Agent"))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<p>ok</p>"))
	}))
	defer srv.Close()

	c := New(testConfig(), nil)
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Equal(t, "<p>ok</p>", resp.String())
	assert.Equal(t, int32(3), calls.Load())
}

func TestGetPassesThroughClientErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	resp, err := New(testConfig(), nil).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode())
	assert.Equal(t, int32(1), calls.Load(), "401 is not retried")
}

func TestGetReturnsLastResponseAfterRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRetries = 1
	resp, err := New(cfg, nil).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode())
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	c := New(testConfig(), nil)
	assert.Equal(t, resilience.StateClosed, c.BreakerState())

	for i := 0; i < 10; i++ {
		_, _ = c.ExecuteWithBreaker(func() (*resty.Response, error) {
			return nil, errors.New("failure")
		})
	}
	assert.Equal(t, resilience.StateOpen, c.BreakerState())
	assert.Equal(t, uint32(10), c.BreakerCounts().ConsecutiveFailures)

	_, err := c.ExecuteWithBreaker(func() (*resty.Response, error) { return nil, nil })
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)

	req, err := c.Request(context.Background())
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Nil(t, req)
}

func TestBreakerIgnoresCallerErrors(t *testing.T) {
	errRejected := errors.New("rejected")
	cfg := testConfig()
	cfg.IsSuccessful = func(err error) bool { return err == nil || errors.Is(err, errRejected) }
	c := New(cfg, nil)

	for i := 0; i < 20; i++ {
		_, err := c.ExecuteWithBreaker(func() (*resty.Response, error) { return nil, errRejected })
		assert.ErrorIs(t, err, errRejected)
	}
	assert.Equal(t, resilience.StateClosed, c.BreakerState())
}

func TestRateLimitHonoursContext(t *testing.T) {
	c := New(testConfig(), nil)
	c.SetRateLimit(1)

	_, err := c.Request(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, err := c.Request(ctx)
	assert.Error(t, err)
	assert.Nil(t, req)
}
