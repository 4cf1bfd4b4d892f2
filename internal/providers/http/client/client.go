package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-retryablehttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/resilience"
)

// Config tunes a Client.
type Config struct {
	Name           string
	Timeout        time.Duration // zero means no timeout
	MaxRetries     int
	MinWait        time.Duration
	MaxWait        time.Duration
	RequestsPerSec float64 // zero means unlimited
	UserAgent      string
	// IsSuccessful classifies errors for the breaker; see resilience.Settings.
	IsSuccessful func(error) bool
}

// DefaultConfig returns the settings used for external APIs.
func DefaultConfig() Config {
	return Config{
		Name:       "http-external",
		MaxRetries: 3,
		MinWait:    time.Second,
		MaxWait:    30 * time.Second,
		UserAgent:  "AgentBrowser/1.0",
	}
}

// Client wraps resty with rate limiting, circuit breaker, and retries
type Client struct {
	Resty   *resty.Client
	Limiter *rate.Limiter
	Breaker *resilience.Breaker
	Mu      sync.RWMutex
}

// New creates an HTTP client with circuit breaker
func New(cfg Config, logger *zap.Logger) *Client {
	log := logging.OrNop(logger)

	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.MinWait
	retryClient.RetryWaitMax = cfg.MaxWait
	retryClient.Logger = leveled{log.Sugar()}
	retryClient.ErrorHandler = retryablehttp.PassthroughErrorHandler

	restyClient := resty.NewWithClient(retryClient.StandardClient())
	restyClient.JSONMarshal = sonic.Marshal
	restyClient.JSONUnmarshal = sonic.Unmarshal
	restyClient.SetTimeout(cfg.Timeout)
	if cfg.UserAgent != "" {
		restyClient.SetHeader("User-Agent", cfg.UserAgent)
	}

	name := cfg.Name
	if name == "" {
		name = "http-external"
	}
	breaker := resilience.New(name, resilience.Settings{
		MaxRequests: 5,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			// Trip if 10+ consecutive failures OR >70% failure rate with 20+ requests
			return counts.ConsecutiveFailures >= 10 ||
				(counts.Requests >= 20 && float64(counts.TotalFailures)/float64(counts.Requests) > 0.7)
		},
		IsSuccessful: cfg.IsSuccessful,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	c := &Client{Resty: restyClient, Breaker: breaker}
	c.SetRateLimit(cfg.RequestsPerSec)
	return c
}

// SetHeader adds default header
func (c *Client) SetHeader(key, value string) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetHeader(key, value)
}

// SetTimeout configures request timeout
func (c *Client) SetTimeout(duration time.Duration) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	c.Resty.SetTimeout(duration)
}

// SetRateLimit configures rate limiting (requests per second)
func (c *Client) SetRateLimit(rps float64) {
	c.Mu.Lock()
	defer c.Mu.Unlock()
	if rps <= 0 {
		c.Limiter = rate.NewLimiter(rate.Inf, 0)
	} else {
		c.Limiter = rate.NewLimiter(rate.Limit(rps), max(1, int(rps)))
	}
}

// Request creates new request with rate limiting and circuit breaker protection
func (c *Client) Request(ctx context.Context) (*resty.Request, error) {
	if err := c.Breaker.Allow(); err != nil {
		return nil, err
	}

	c.Mu.RLock()
	limiter := c.Limiter
	c.Mu.RUnlock()
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit error: %w", err)
	}

	c.Mu.RLock()
	defer c.Mu.RUnlock()
	return c.Resty.R().SetContext(ctx), nil
}

// ExecuteWithBreaker executes an HTTP operation with circuit breaker protection
func (c *Client) ExecuteWithBreaker(fn func() (*resty.Response, error)) (*resty.Response, error) {
	return resilience.Do(c.Breaker, fn)
}

// Get fetches url and returns the response whatever its status.
func (c *Client) Get(ctx context.Context, url string) (*resty.Response, error) {
	req, err := c.Request(ctx)
	if err != nil {
		return nil, err
	}
	return c.ExecuteWithBreaker(func() (*resty.Response, error) {
		return req.Get(url)
	})
}

// BreakerState returns the current circuit breaker state
func (c *Client) BreakerState() resilience.State {
	return c.Breaker.State()
}

// BreakerCounts returns circuit breaker statistics
func (c *Client) BreakerCounts() resilience.Counts {
	return c.Breaker.Counts()
}

// leveled adapts zap to retryablehttp's logger.
type leveled struct{ s *zap.SugaredLogger }

func (l leveled) Error(msg string, kv ...interface{}) { l.s.Errorw(msg, kv...) }
func (l leveled) Info(msg string, kv ...interface{})  { l.s.Debugw(msg, kv...) }
func (l leveled) Debug(msg string, kv ...interface{}) { l.s.Debugw(msg, kv...) }
func (l leveled) Warn(msg string, kv ...interface{})  { l.s.Warnw(msg, kv...) }
