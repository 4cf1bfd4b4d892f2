// Package llm talks to chat-completion endpoints on behalf of the agent.
//
// Two wire dialects are supported: OpenAI-compatible /chat/completions
// (which also covers local gateways) and Anthropic /v1/messages. The
// Manager picks the provider named in the settings store and deactivates it
// when the endpoint rejects its credential.
package llm

import (
	"context"
	"errors"
)

var (
	// ErrNotConfigured means no provider is active or it has no key.
	ErrNotConfigured = errors.New("no language model provider configured")
	// ErrInvalidCredential means the endpoint answered 401; the provider
	// has been deactivated and must be reconfigured.
	ErrInvalidCredential = errors.New("language model credential rejected")
)

// Role of a chat message.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Delta is one streamed fragment. A non-nil Err ends the stream.
type Delta struct {
	Text string
	Err  error
}

// Completer returns the model's full reply to prompt, given prior messages.
type Completer interface {
	Complete(ctx context.Context, prompt string, messages []Message) (string, error)
}

// Streamer returns the reply as a stream of deltas. The channel is closed
// when the reply ends.
type Streamer interface {
	CompleteStream(ctx context.Context, prompt string, messages []Message) (<-chan Delta, error)
}

// Provider is one configured endpoint.
type Provider interface {
	Completer
	Streamer
	ID() string
}

// Unusable reports whether err means the model cannot be used at all until
// the user reconfigures it, as opposed to a transient failure.
func Unusable(err error) bool {
	return errors.Is(err, ErrNotConfigured) || errors.Is(err, ErrInvalidCredential)
}

// Conversation appends prompt as the final user turn.
func Conversation(prompt string, messages []Message) []Message {
	out := make([]Message, 0, len(messages)+1)
	out = append(out, messages...)
	if prompt != "" {
		out = append(out, Message{Role: RoleUser, Content: prompt})
	}
	return out
}
