package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/validate"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/action"
)

// CommandRequest carries one natural-language command.
type CommandRequest struct {
	Command string `json:"command" binding:"required"`
}

// ExecuteCommand parses a command and runs the actions it expands to. A
// command that was not understood is still a 200; the result says so.
func (h *Handlers) ExecuteCommand(c *gin.Context) {
	var req CommandRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.agent.ExecuteCommand(c.Request.Context(), req.Command))
}

// ParseIntent classifies a command without acting on it.
func (h *Handlers) ParseIntent(c *gin.Context) {
	var req CommandRequest
	if !bind(c, &req) {
		return
	}
	c.JSON(http.StatusOK, h.agent.Interpret(c.Request.Context(), strings.TrimSpace(req.Command)))
}

// IntentMemory lists recent command exchanges, oldest first.
func (h *Handlers) IntentMemory(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"memory": h.agent.Parser.Memory()})
}

// ExecuteAction validates and dispatches one action blueprint. Blueprints
// that fail validation are answered with 422 and never reach the page.
func (h *Handlers) ExecuteAction(c *gin.Context) {
	var bp action.Blueprint
	if !bind(c, &bp) {
		return
	}
	if err := validate.Check(bp); err != nil {
		_ = c.Error(err)
		c.JSON(http.StatusUnprocessableEntity, action.Failed(err.Error()))
		return
	}
	c.JSON(http.StatusOK, h.agent.Execute(c.Request.Context(), bp))
}

// PageContext returns the structured snapshot of the active page.
func (h *Handlers) PageContext(c *gin.Context) {
	if h.agent.Extractor == nil {
		errorResponse(c, http.StatusServiceUnavailable, errNoBrowser)
		return
	}
	if c.Query("fresh") == "true" {
		h.agent.Extractor.Clear()
	}
	pc, err := h.agent.Extractor.Extract(c.Request.Context())
	if err != nil {
		errorResponse(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, pc)
}

// ClearContext drops every cached page context.
func (h *Handlers) ClearContext(c *gin.Context) {
	if h.agent.Extractor != nil {
		h.agent.Extractor.Clear()
	}
	c.Status(http.StatusNoContent)
}
