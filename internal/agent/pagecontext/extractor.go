// Package pagecontext snapshots the active document into a page.Context and
// caches the result per URL.
package pagecontext

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/page"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/browser/scripts"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/scraper"
)

const (
	DefaultTTL       = 30 * time.Second
	DefaultHistory   = 10
	DefaultCacheSize = 64
)

type entry struct {
	ctx *page.Context
	at  time.Time
}

// Extractor reads the active page. At most one extraction runs at a time;
// a caller arriving while one is in flight gets the last cached context for
// the current URL, stale or not, instead of waiting.
type Extractor struct {
	page    page.Automation
	cache   *lru.Cache[string, entry]
	ttl     time.Duration
	limits  scraper.Limits
	now     func() time.Time
	logger  *zap.Logger
	metrics *monitoring.Metrics

	inflight atomic.Bool

	mu         sync.Mutex
	lastURL    string
	history    []*page.Context
	maxHistory int
}

// Option configures an Extractor.
type Option func(*Extractor)

func WithTTL(d time.Duration) Option        { return func(e *Extractor) { e.ttl = d } }
func WithHistory(n int) Option              { return func(e *Extractor) { e.maxHistory = n } }
func WithClock(now func() time.Time) Option { return func(e *Extractor) { e.now = now } }
func WithLimits(l scraper.Limits) Option    { return func(e *Extractor) { e.limits = l } }

func WithMetrics(m *monitoring.Metrics) Option {
	return func(e *Extractor) { e.metrics = m }
}

// New creates an extractor with a cache of cacheSize URLs.
func New(p page.Automation, logger *zap.Logger, cacheSize int, opts ...Option) (*Extractor, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, entry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("context cache: %w", err)
	}
	e := &Extractor{
		page:       p,
		cache:      cache,
		ttl:        DefaultTTL,
		limits:     scraper.DefaultLimits,
		now:        time.Now,
		logger:     logging.OrNop(logger),
		maxHistory: DefaultHistory,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Extract returns the context of the active document. The page is never
// mutated. A document that cannot be parsed yields an empty context; an
// error means the page itself could not be reached.
func (e *Extractor) Extract(ctx context.Context) (*page.Context, error) {
	if !e.inflight.CompareAndSwap(false, true) {
		e.metrics.RecordContextLookup("busy")
		return e.Last(), nil
	}
	defer e.inflight.Store(false)

	var url string
	if err := e.page.RunScript(ctx, scripts.MustBuild(scripts.Location, nil), &url); err != nil {
		return nil, fmt.Errorf("read location: %w", err)
	}

	now := e.now()
	if ent, ok := e.cache.Get(url); ok && now.Sub(ent.at) < e.ttl {
		e.metrics.RecordContextLookup("hit")
		e.setLast(url)
		return ent.ctx, nil
	}
	e.metrics.RecordContextLookup("miss")

	var snap page.Snapshot
	if err := e.page.RunScript(ctx, scripts.MustBuild(scripts.Context, nil), &snap); err != nil {
		return nil, fmt.Errorf("snapshot document: %w", err)
	}

	pc, err := scraper.ParseContext(snap, e.limits, now)
	if err != nil {
		e.logger.Warn("context parse failed, using empty context",
			zap.String("url", url),
			zap.Error(err),
		)
		pc = page.Empty(url, snap.Title)
		pc.ExtractedAt = now
	}
	// the cache key is the location we looked up, not what the snapshot reports
	pc.URL = url

	e.cache.Add(url, entry{ctx: pc, at: now})
	e.mu.Lock()
	e.lastURL = url
	e.history = append(e.history, pc)
	if over := len(e.history) - e.maxHistory; over > 0 {
		e.history = append([]*page.Context(nil), e.history[over:]...)
	}
	e.mu.Unlock()

	e.logger.Debug("context extracted",
		zap.String("url", url),
		zap.Int("links", len(pc.Links)),
		zap.Int("buttons", len(pc.Buttons)),
		zap.Int("forms", len(pc.Forms)),
	)
	return pc, nil
}

// Last returns the cached context of the most recently extracted URL, or nil.
func (e *Extractor) Last() *page.Context {
	e.mu.Lock()
	url := e.lastURL
	e.mu.Unlock()
	if url == "" {
		return nil
	}
	if ent, ok := e.cache.Peek(url); ok {
		return ent.ctx
	}
	return nil
}

// History returns recent extractions, oldest first.
func (e *Extractor) History() []*page.Context {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]*page.Context(nil), e.history...)
}

// Clear drops every cached context. History is kept.
func (e *Extractor) Clear() {
	e.cache.Purge()
	e.logger.Debug("context cache cleared")
}

// Invalidate drops the cached context for one URL.
func (e *Extractor) Invalidate(url string) {
	e.cache.Remove(url)
}

func (e *Extractor) setLast(url string) {
	e.mu.Lock()
	e.lastURL = url
	e.mu.Unlock()
}
