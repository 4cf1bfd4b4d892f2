// Package http exposes the agent over a JSON HTTP API.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/settings"
)

// Version is reported by the health endpoint.
const Version = "1.0.0"

// Handlers contains all HTTP handlers.
type Handlers struct {
	agent    *agent.Agent
	settings *settings.Store
	models   *llm.Manager
	metrics  *monitoring.Metrics
	logger   *zap.Logger
}

// NewHandlers creates a new handler set. models and metrics may be nil.
func NewHandlers(a *agent.Agent, store *settings.Store, models *llm.Manager, metrics *monitoring.Metrics, logger *zap.Logger) *Handlers {
	return &Handlers{
		agent:    a,
		settings: store,
		models:   models,
		metrics:  metrics,
		logger:   logging.OrNop(logger),
	}
}

// Register mounts every route on r.
func (h *Handlers) Register(r gin.IRouter) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)

	r.POST("/commands", h.ExecuteCommand)
	r.POST("/intents", h.ParseIntent)
	r.GET("/intents/memory", h.IntentMemory)
	r.POST("/actions", h.ExecuteAction)

	r.POST("/workflows", h.StartWorkflow)
	r.GET("/workflows/current", h.CurrentWorkflow)
	r.DELETE("/workflows/current", h.CancelWorkflow)

	r.GET("/context", h.PageContext)
	r.DELETE("/context", h.ClearContext)

	r.GET("/settings", h.ListSettings)
	r.PUT("/settings/:key", h.UpdateSetting)
	r.DELETE("/settings/:key", h.ResetSetting)

	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics.Handler()))
	}
}

// Root identifies the service.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "AgentBrowser",
		"version": Version,
	})
}

// Health reports model configuration and workflow state.
func (h *Handlers) Health(c *gin.Context) {
	body := gin.H{"status": "healthy", "version": Version}
	if h.models != nil {
		body["llm"] = h.models.Status()
	}
	if h.agent.Workflows != nil {
		wf := gin.H{"enabled": h.settings.WorkflowEnabled(), "active": false}
		if w := h.agent.Workflows.Current(); w != nil {
			wf["active"] = !w.Status.Final()
			wf["status"] = w.Status
		}
		body["workflow"] = wf
	}
	c.JSON(http.StatusOK, body)
}

// errorResponse writes a JSON error and records it on the context.
func errorResponse(c *gin.Context, status int, err error) {
	_ = c.Error(err)
	c.JSON(status, gin.H{"error": err.Error()})
}

// bind decodes the JSON body into dst, answering 400 on failure.
func bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		errorResponse(c, http.StatusBadRequest, errors.New("invalid request body: "+err.Error()))
		return false
	}
	return true
}
