package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent/planner"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/workflow"
)

var (
	errNoBrowser   = errors.New("no page automation attached")
	errNoWorkflows = errors.New("workflow engine not configured")
)

// WorkflowRequest carries a goal to plan and execute.
type WorkflowRequest struct {
	Goal string `json:"goal" binding:"required"`
}

// StartWorkflow plans the goal and executes it in the background. The
// response is the snapshot taken after planning; progress is pushed over
// the websocket.
func (h *Handlers) StartWorkflow(c *gin.Context) {
	if h.agent.Workflows == nil {
		errorResponse(c, http.StatusServiceUnavailable, errNoWorkflows)
		return
	}
	var req WorkflowRequest
	if !bind(c, &req) {
		return
	}

	w, err := h.agent.Workflows.Start(c.Request.Context(), req.Goal)
	if err != nil {
		h.logger.Warn("workflow not started", zap.String("goal", req.Goal), zap.Error(err))
		errorResponse(c, workflowStatus(err), err)
		return
	}
	c.JSON(http.StatusAccepted, w)
}

// CurrentWorkflow returns the latest workflow, finished or not.
func (h *Handlers) CurrentWorkflow(c *gin.Context) {
	if h.agent.Workflows == nil {
		errorResponse(c, http.StatusServiceUnavailable, errNoWorkflows)
		return
	}
	w := h.agent.Workflows.Current()
	if w == nil {
		errorResponse(c, http.StatusNotFound, workflow.ErrNoWorkflow)
		return
	}
	c.JSON(http.StatusOK, w)
}

// CancelWorkflow fails the running workflow.
func (h *Handlers) CancelWorkflow(c *gin.Context) {
	if h.agent.Workflows == nil {
		errorResponse(c, http.StatusServiceUnavailable, errNoWorkflows)
		return
	}
	if err := h.agent.Workflows.Cancel(); err != nil {
		errorResponse(c, workflowStatus(err), err)
		return
	}
	c.JSON(http.StatusOK, h.agent.Workflows.Current())
}

func workflowStatus(err error) int {
	switch {
	case errors.Is(err, workflow.ErrWorkflowActive), errors.Is(err, workflow.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrWorkflowDisabled):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrNoWorkflow):
		return http.StatusNotFound
	case errors.Is(err, planner.ErrNoValidSteps):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
