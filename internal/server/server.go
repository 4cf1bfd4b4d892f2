package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apihttp "github.com/GriffinCanCode/AgentBrowser/internal/api/http"
	"github.com/GriffinCanCode/AgentBrowser/internal/api/middleware"
	"github.com/GriffinCanCode/AgentBrowser/internal/api/ws"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
)

// ShutdownTimeout bounds graceful shutdown of in-flight requests.
const ShutdownTimeout = 10 * time.Second

// Server wraps the HTTP server and its runtime.
type Server struct {
	rt     *Runtime
	router *gin.Engine
	logger *zap.Logger
}

// New builds the router for rt.
func New(rt *Runtime) *Server {
	cfg := rt.Config
	logger := rt.Logger.Component("server")

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.RequestLog(rt.Logger.Component("http")))
	router.Use(monitoring.Middleware(rt.Metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := apihttp.NewHandlers(rt.Agent, rt.Settings, rt.Models, rt.Metrics, rt.Logger.Component("api"))
	handlers.Register(router)

	wsHandler := ws.NewHandler(rt.Agent, rt.Models, rt.Logger.Component("api"), ws.WithMetrics(rt.Metrics))
	router.GET("/ws", wsHandler.HandleConnection)

	return &Server{rt: rt, router: router, logger: logger}
}

// Router exposes the handler for tests and embedding.
func (s *Server) Router() http.Handler { return s.router }

// Run serves until ctx is cancelled, then drains in-flight requests.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.rt.Config.Addr(),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("Starting HTTP server", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ShutdownTimeout)
	defer cancel()
	if wf := s.rt.Agent.Workflows; wf != nil {
		if cur := wf.Current(); cur != nil && !cur.Status.Final() {
			_ = wf.Cancel()
		}
	}
	return srv.Shutdown(shutdownCtx)
}
