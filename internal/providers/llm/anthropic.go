package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/bytedance/sonic"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentBrowser/internal/providers/http/client"
)

const anthropicVersion = "2023-06-01"

// Anthropic speaks the /v1/messages dialect.
type Anthropic struct {
	endpoint
}

type anthropicRequest struct {
	Model     string    `json:"model"`
	System    string    `json:"system,omitempty"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens"`
	Stream    bool      `json:"stream,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

type anthropicEvent struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// NewAnthropic creates an Anthropic provider.
func NewAnthropic(id string, http *client.Client, opts Options, logger *zap.Logger) *Anthropic {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 2048
	}
	return &Anthropic{endpoint{id: id, opts: opts, http: http, logger: logging.OrNop(logger)}}
}

func (p *Anthropic) ID() string { return p.id }

// request moves system turns into the top-level system field.
func (p *Anthropic) request(prompt string, messages []Message, stream bool) anthropicRequest {
	var system []string
	turns := make([]Message, 0, len(messages)+1)
	for _, m := range Conversation(prompt, messages) {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	return anthropicRequest{
		Model:     p.opts.Model,
		System:    strings.Join(system, "\n\n"),
		Messages:  turns,
		MaxTokens: p.opts.MaxTokens,
		Stream:    stream,
	}
}

func (p *Anthropic) headers() map[string]string {
	return map[string]string{
		"x-api-key":         p.opts.APIKey,
		"anthropic-version": anthropicVersion,
	}
}

// Complete implements Completer.
func (p *Anthropic) Complete(ctx context.Context, prompt string, messages []Message) (string, error) {
	resp, err := p.post(ctx, "/v1/messages", p.headers(), p.request(prompt, messages, false), false)
	if err != nil {
		return "", err
	}
	var out anthropicResponse
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("%s: decode reply: %w", p.id, err)
	}
	var b strings.Builder
	for _, block := range out.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(b.String()) == "" {
		return "", fmt.Errorf("%s: %w", p.id, ErrEmptyReply)
	}
	return b.String(), nil
}

// CompleteStream implements Streamer.
func (p *Anthropic) CompleteStream(ctx context.Context, prompt string, messages []Message) (<-chan Delta, error) {
	resp, err := p.post(ctx, "/v1/messages", p.headers(), p.request(prompt, messages, true), true)
	if err != nil {
		return nil, err
	}
	return stream(ctx, resp.RawBody(), p.decode), nil
}

func (p *Anthropic) decode(ev event) (string, bool, error) {
	var msg anthropicEvent
	if err := sonic.UnmarshalString(ev.data, &msg); err != nil {
		p.logger.Debug("skipping undecodable event", zap.String("provider", p.id), zap.Error(err))
		return "", false, nil
	}
	switch msg.Type {
	case "content_block_delta":
		if msg.Delta.Type == "text_delta" {
			return msg.Delta.Text, false, nil
		}
	case "message_stop":
		return "", true, nil
	case "error":
		if msg.Error != nil {
			return "", true, fmt.Errorf("%s: %s: %s", p.id, msg.Error.Type, msg.Error.Message)
		}
		return "", true, fmt.Errorf("%s: stream error", p.id)
	}
	return "", false, nil
}
