package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/providers/http/client"
)

// ErrEmptyReply means the endpoint answered without any text.
var ErrEmptyReply = errors.New("language model returned an empty reply")

// StatusError is a non-2xx answer other than a credential rejection.
type StatusError struct {
	Provider string
	Status   int
	Body     string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: HTTP %d: %s", e.Provider, e.Status, e.Body)
}

// Transient reports whether retrying later may succeed.
func (e *StatusError) Transient() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Options configures one provider.
type Options struct {
	BaseURL   string
	APIKey    string
	Model     string
	MaxTokens int
}

// endpoint is the transport shared by both dialects.
type endpoint struct {
	id     string
	opts   Options
	http   *client.Client
	logger *zap.Logger
}

// post sends body to path. When raw is set the response body is left open
// for streaming and the caller must close resp.RawBody().
func (e *endpoint) post(ctx context.Context, path string, headers map[string]string, body any, raw bool) (*resty.Response, error) {
	req, err := e.http.Request(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.id, err)
	}
	return e.http.ExecuteWithBreaker(func() (*resty.Response, error) {
		r := req.SetHeaders(headers).
			SetHeader("Content-Type", "application/json").
			SetBody(body).
			SetDoNotParseResponse(raw)
		resp, err := r.Post(e.opts.BaseURL + path)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.id, err)
		}
		if resp.IsSuccess() {
			return resp, nil
		}

		text := resp.String()
		if raw {
			data, _ := io.ReadAll(io.LimitReader(resp.RawBody(), 4096))
			resp.RawBody().Close()
			text = string(data)
		}
		e.logger.Warn("language model request failed",
			zap.String("provider", e.id),
			zap.Int("status", resp.StatusCode()),
		)
		if resp.StatusCode() == http.StatusUnauthorized || resp.StatusCode() == http.StatusForbidden {
			return nil, fmt.Errorf("%s: %w", e.id, ErrInvalidCredential)
		}
		return nil, &StatusError{Provider: e.id, Status: resp.StatusCode(), Body: truncate(text, 512)}
	})
}

// isSuccessful keeps caller mistakes and credential problems from tripping
// the breaker.
func isSuccessful(err error) bool {
	if err == nil || Unusable(err) {
		return true
	}
	var se *StatusError
	if errors.As(err, &se) {
		return !se.Transient()
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
