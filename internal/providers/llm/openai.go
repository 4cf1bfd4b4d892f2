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

// OpenAI speaks the /chat/completions dialect.
type OpenAI struct {
	endpoint
}

type openAIRequest struct {
	Model     string    `json:"model"`
	Messages  []Message `json:"messages"`
	MaxTokens int       `json:"max_tokens,omitempty"`
	Stream    bool      `json:"stream,omitempty"`
}

type openAIResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type openAIChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(id string, http *client.Client, opts Options, logger *zap.Logger) *OpenAI {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &OpenAI{endpoint{id: id, opts: opts, http: http, logger: logging.OrNop(logger)}}
}

func (p *OpenAI) ID() string { return p.id }

func (p *OpenAI) request(prompt string, messages []Message, stream bool) openAIRequest {
	return openAIRequest{
		Model:     p.opts.Model,
		Messages:  Conversation(prompt, messages),
		MaxTokens: p.opts.MaxTokens,
		Stream:    stream,
	}
}

func (p *OpenAI) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.opts.APIKey}
}

// Complete implements Completer.
func (p *OpenAI) Complete(ctx context.Context, prompt string, messages []Message) (string, error) {
	resp, err := p.post(ctx, "/chat/completions", p.headers(), p.request(prompt, messages, false), false)
	if err != nil {
		return "", err
	}
	var out openAIResponse
	if err := sonic.Unmarshal(resp.Body(), &out); err != nil {
		return "", fmt.Errorf("%s: decode reply: %w", p.id, err)
	}
	if len(out.Choices) == 0 || strings.TrimSpace(out.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("%s: %w", p.id, ErrEmptyReply)
	}
	return out.Choices[0].Message.Content, nil
}

// CompleteStream implements Streamer.
func (p *OpenAI) CompleteStream(ctx context.Context, prompt string, messages []Message) (<-chan Delta, error) {
	resp, err := p.post(ctx, "/chat/completions", p.headers(), p.request(prompt, messages, true), true)
	if err != nil {
		return nil, err
	}
	return stream(ctx, resp.RawBody(), p.decode), nil
}

func (p *OpenAI) decode(ev event) (string, bool, error) {
	if ev.data == "[DONE]" {
		return "", true, nil
	}
	var chunk openAIChunk
	if err := sonic.UnmarshalString(ev.data, &chunk); err != nil {
		p.logger.Debug("skipping undecodable chunk", zap.String("provider", p.id), zap.Error(err))
		return "", false, nil
	}
	if chunk.Error != nil {
		return "", true, fmt.Errorf("%s: %s", p.id, chunk.Error.Message)
	}
	var b strings.Builder
	for _, c := range chunk.Choices {
		b.WriteString(c.Delta.Content)
	}
	return b.String(), false, nil
}
