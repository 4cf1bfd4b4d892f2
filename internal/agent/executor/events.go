package executor

import (
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/domain/workflow"
)

// EventType distinguishes workflow and step transitions.
type EventType string

const (
	EventWorkflow EventType = "workflow"
	EventStep     EventType = "step"
)

// subscriberBuffer is the per-subscriber backlog; a subscriber that falls
// further behind misses events.
const subscriberBuffer = 64

// Event is a snapshot taken at a transition.
type Event struct {
	Type       EventType          `json:"type"`
	WorkflowID string             `json:"workflowId,omitempty"`
	Workflow   *workflow.Workflow `json:"workflow,omitempty"`
	Step       *workflow.Step     `json:"step,omitempty"`
}

type fanout struct {
	mu     sync.RWMutex
	subs   map[uint64]chan Event
	next   uint64
	logger *zap.Logger
}

func newFanout(logger *zap.Logger) *fanout {
	return &fanout{subs: make(map[uint64]chan Event), logger: logger}
}

// Subscribe returns a channel of transition events and a function that
// unsubscribes and closes it.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	return c.events.subscribe()
}

func (f *fanout) subscribe() (<-chan Event, func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.next
	f.next++
	ch := make(chan Event, subscriberBuffer)
	f.subs[id] = ch

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.subs, id)
			f.mu.Unlock()
			close(ch)
		})
	}
}

func (f *fanout) publish(ev Event) {
	if ev.WorkflowID == "" && ev.Workflow != nil {
		ev.WorkflowID = ev.Workflow.ID
	}
	f.mu.RLock()
	defer f.mu.RUnlock()
	for id, ch := range f.subs {
		select {
		case ch <- ev:
		default:
			f.logger.Debug("subscriber behind, event dropped", zap.Uint64("subscriber", id), zap.String("type", string(ev.Type)))
		}
	}
}
