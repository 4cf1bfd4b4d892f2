package ws

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/agent"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/dispatcher"
	"github.com/GriffinCanCode/AgentBrowser/internal/agent/executor"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/llm"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxMessageSize = 64 * 1024

	// DefaultChatTimeout bounds one streamed chat reply.
	DefaultChatTimeout = 2 * time.Minute
)

const chatSystemPrompt = "You are a browsing assistant embedded in the user's browser. " +
	"Answer conversationally and use the current page when it is relevant."

// Handler serves the /ws endpoint.
type Handler struct {
	agent       *agent.Agent
	models      llm.Streamer
	metrics     *monitoring.Metrics
	logger      *zap.Logger
	upgrader    websocket.Upgrader
	chatTimeout time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

func WithMetrics(m *monitoring.Metrics) Option { return func(h *Handler) { h.metrics = m } }
func WithChatTimeout(d time.Duration) Option   { return func(h *Handler) { h.chatTimeout = d } }

// NewHandler creates a websocket handler. models streams chat replies;
// a nil models answers chat with an error.
func NewHandler(a *agent.Agent, models llm.Streamer, logger *zap.Logger, opts ...Option) *Handler {
	h := &Handler{
		agent:  a,
		models: models,
		logger: logging.OrNop(logger).Named("ws"),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// The API is bound to loopback; extension pages connect from
			// their own origin.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		chatTimeout: DefaultChatTimeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// client is one websocket connection. Writes are serialised by writeMu;
// requests run one at a time so the read loop keeps answering pings.
type client struct {
	id      string
	conn    *websocket.Conn
	writeMu sync.Mutex
	busy    chan struct{}
	h       *Handler
	log     *zap.Logger
}

// HandleConnection upgrades the request and serves the connection until
// the peer goes away.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	cl := &client{
		id:   uuid.NewString(),
		conn: conn,
		busy: make(chan struct{}, 1),
		h:    h,
	}
	cl.log = h.logger.With(zap.String("client_id", cl.id))

	h.metrics.IncWSConnections()
	defer h.metrics.DecWSConnections()

	ctx, cancel := context.WithCancel(context.WithoutCancel(c.Request.Context()))
	defer func() {
		cancel()
		_ = conn.Close()
		cl.log.Debug("websocket closed")
	}()
	cl.log.Debug("websocket connected")

	_ = cl.send(Outbound{Type: TypeSystem, ClientID: cl.id, Message: "connected"})

	if wf := h.agent.Workflows; wf != nil {
		events, unsubscribe := wf.Subscribe()
		defer unsubscribe()
		if cur := wf.Current(); cur != nil {
			_ = cl.send(Outbound{Type: TypeWorkflow, WorkflowID: cur.ID, Workflow: cur})
		}
		go cl.forward(ctx, events)
	}
	go cl.keepalive(ctx)

	cl.readLoop(ctx)
}

func (cl *client) readLoop(ctx context.Context) {
	cl.conn.SetReadLimit(maxMessageSize)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Inbound
		if err := cl.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				cl.log.Warn("websocket read error", zap.Error(err))
			}
			return
		}
		_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
		cl.h.metrics.RecordWSMessage("in", msg.Type)

		switch msg.Type {
		case TypePing:
			_ = cl.send(Outbound{Type: TypePong})
		case TypeChat, TypeCommand, TypeWorkflowStart:
			cl.run(ctx, msg)
		case TypeWorkflowCancel:
			cl.cancelWorkflow()
		default:
			_ = cl.sendError(msg.RequestID, "unknown message type: "+msg.Type)
		}
	}
}

// run starts msg in the background unless another request is in flight.
func (cl *client) run(ctx context.Context, msg Inbound) {
	select {
	case cl.busy <- struct{}{}:
	default:
		_ = cl.sendError(msg.RequestID, "another request is still running")
		return
	}
	go func() {
		defer func() { <-cl.busy }()
		switch msg.Type {
		case TypeChat:
			cl.chat(ctx, msg)
		case TypeCommand:
			cl.command(ctx, msg)
		case TypeWorkflowStart:
			cl.startWorkflow(ctx, msg)
		}
	}()
}

func (cl *client) chat(ctx context.Context, msg Inbound) {
	if cl.h.models == nil {
		_ = cl.sendError(msg.RequestID, llm.ErrNotConfigured.Error())
		return
	}
	ctx, cancel := context.WithTimeout(ctx, cl.h.chatTimeout)
	defer cancel()

	system := chatSystemPrompt
	if pc := cl.h.agent.Context(ctx); pc != nil {
		system += "\n\nCurrent page:\n" + dispatcher.DescribePage(pc)
	}
	messages := []llm.Message{{Role: llm.RoleSystem, Content: system}}
	for _, m := range msg.History {
		if m.Role == llm.RoleUser || m.Role == llm.RoleAssistant {
			messages = append(messages, m)
		}
	}

	stream, err := cl.h.models.CompleteStream(ctx, msg.Message, messages)
	if err != nil {
		_ = cl.sendError(msg.RequestID, err.Error())
		return
	}
	for d := range stream {
		if d.Err != nil {
			_ = cl.sendError(msg.RequestID, d.Err.Error())
			return
		}
		if err := cl.send(Outbound{Type: TypeToken, RequestID: msg.RequestID, Content: d.Text}); err != nil {
			cancel()
			for range stream {
			}
			return
		}
	}
	_ = cl.send(Outbound{Type: TypeComplete, RequestID: msg.RequestID})
}

func (cl *client) command(ctx context.Context, msg Inbound) {
	res := cl.h.agent.ExecuteCommand(ctx, msg.Message)
	_ = cl.send(Outbound{Type: TypeCommandResult, RequestID: msg.RequestID, Result: res})
}

func (cl *client) startWorkflow(ctx context.Context, msg Inbound) {
	if cl.h.agent.Workflows == nil {
		_ = cl.sendError(msg.RequestID, "workflow engine not configured")
		return
	}
	// Progress arrives through the event subscription.
	if _, err := cl.h.agent.Workflows.Start(ctx, msg.Message); err != nil {
		_ = cl.sendError(msg.RequestID, err.Error())
	}
}

func (cl *client) cancelWorkflow() {
	if cl.h.agent.Workflows == nil {
		return
	}
	if err := cl.h.agent.Workflows.Cancel(); err != nil {
		_ = cl.sendError("", err.Error())
	}
}

// forward pushes every executor transition to the peer.
func (cl *client) forward(ctx context.Context, events <-chan executor.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			out := Outbound{Type: string(ev.Type), WorkflowID: ev.WorkflowID, Workflow: ev.Workflow, Step: ev.Step}
			if ev.Workflow != nil {
				out.WorkflowID = ev.Workflow.ID
			}
			if err := cl.send(out); err != nil {
				return
			}
		}
	}
}

func (cl *client) keepalive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cl.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		}
	}
}

func (cl *client) send(out Outbound) error {
	out.Timestamp = time.Now().Unix()
	cl.writeMu.Lock()
	defer cl.writeMu.Unlock()
	_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := cl.conn.WriteJSON(out); err != nil {
		cl.log.Debug("websocket write failed", zap.String("type", out.Type), zap.Error(err))
		return err
	}
	cl.h.metrics.RecordWSMessage("out", out.Type)
	return nil
}

func (cl *client) sendError(requestID, message string) error {
	return cl.send(Outbound{Type: TypeError, RequestID: requestID, Message: message})
}
