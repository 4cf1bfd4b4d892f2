package llm

import (
	"bufio"
	"context"
	"io"
	"strings"
)

const maxEventSize = 2 * 1024 * 1024

// event is one server-sent event.
type event struct {
	name string
	data string
}

// decodeFunc turns one event into text. done ends the stream cleanly.
type decodeFunc func(ev event) (text string, done bool, err error)

// readEvents splits body into events. Multi-line data fields are joined
// with newlines. fn returning false stops the scan.
func readEvents(body io.Reader, fn func(event) bool) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxEventSize)

	var cur event
	var data []string
	flush := func() bool {
		if len(data) == 0 {
			cur = event{}
			return true
		}
		cur.data = strings.Join(data, "\n")
		ok := fn(cur)
		cur, data = event{}, data[:0]
		return ok
	}

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		switch {
		case line == "":
			if !flush() {
				return nil
			}
		case strings.HasPrefix(line, ":"):
		case strings.HasPrefix(line, "event:"):
			cur.name = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimSpace(strings.TrimPrefix(line, "data:")))
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}
	flush()
	return nil
}

// stream decodes body on a goroutine and closes the channel when the reply
// ends, the context is cancelled, or decoding fails.
func stream(ctx context.Context, body io.ReadCloser, decode decodeFunc) <-chan Delta {
	out := make(chan Delta, 16)
	go func() {
		defer close(out)
		defer body.Close()

		send := func(d Delta) bool {
			select {
			case out <- d:
				return true
			case <-ctx.Done():
				return false
			}
		}

		var finished bool
		err := readEvents(body, func(ev event) bool {
			text, done, err := decode(ev)
			if err != nil {
				send(Delta{Err: err})
				finished = true
				return false
			}
			if text != "" && !send(Delta{Text: text}) {
				finished = true
				return false
			}
			if done {
				finished = true
			}
			return !done
		})
		if finished {
			return
		}
		if err == nil {
			err = ctx.Err()
		}
		if err != nil {
			send(Delta{Err: err})
		}
	}()
	return out
}

// Collect drains a stream into one string.
func Collect(ch <-chan Delta) (string, error) {
	var b strings.Builder
	for d := range ch {
		if d.Err != nil {
			return b.String(), d.Err
		}
		b.WriteString(d.Text)
	}
	return b.String(), nil
}
