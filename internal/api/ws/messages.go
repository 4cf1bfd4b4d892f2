package ws

import (
	"github.com/GriffinCanCode/AgentBrowser/internal/agent"
	"github.com/GriffinCanCode/AgentBrowser/internal/domain/workflow"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
)

// Message types. Workflow and step pushes reuse the executor's event types.
const (
	TypeSystem         = "system"
	TypePing           = "ping"
	TypePong           = "pong"
	TypeChat           = "chat"
	TypeToken          = "token"
	TypeComplete       = "complete"
	TypeCommand        = "command"
	TypeCommandResult  = "command_result"
	TypeWorkflowStart  = "workflow_start"
	TypeWorkflowCancel = "workflow_cancel"
	TypeWorkflow       = "workflow"
	TypeStep           = "step"
	TypeError          = "error"
)

// Inbound is a message from the peer. Message carries the chat text, the
// command or the workflow goal depending on Type.
type Inbound struct {
	Type      string        `json:"type"`
	RequestID string        `json:"requestId,omitempty"`
	Message   string        `json:"message,omitempty"`
	History   []llm.Message `json:"history,omitempty"`
}

// Outbound is a message to the peer.
type Outbound struct {
	Type       string               `json:"type"`
	RequestID  string               `json:"requestId,omitempty"`
	ClientID   string               `json:"clientId,omitempty"`
	Message    string               `json:"message,omitempty"`
	Content    string               `json:"content,omitempty"`
	Result     *agent.CommandResult `json:"result,omitempty"`
	WorkflowID string               `json:"workflowId,omitempty"`
	Workflow   *workflow.Workflow   `json:"workflow,omitempty"`
	Step       *workflow.Step       `json:"step,omitempty"`
	Timestamp  int64                `json:"timestamp"`
}
