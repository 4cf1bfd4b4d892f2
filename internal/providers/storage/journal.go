// Package storage persists workflow outcomes.
//
// The journal is an append-only file of zstd frames, one frame per record,
// each frame holding one JSON line. Concatenated frames form a valid zstd
// stream, so the whole file decodes with a single reader.
package storage

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentBrowser/internal/infrastructure/logging"
)

// Record kinds
const (
	KindStep     = "step"
	KindWorkflow = "workflow"
)

// ErrClosed is returned by Append after Close.
var ErrClosed = errors.New("journal closed")

// Record is one journal entry.
type Record struct {
	Kind        string    `json:"kind"`
	WorkflowID  string    `json:"workflowId"`
	StepID      string    `json:"stepId,omitempty"`
	Goal        string    `json:"goal,omitempty"`
	Action      string    `json:"action,omitempty"`
	Description string    `json:"description,omitempty"`
	Status      string    `json:"status"`
	Success     bool      `json:"success"`
	Message     string    `json:"message,omitempty"`
	Time        time.Time `json:"time"`
}

// Journal appends records to a file. A Journal with no file discards
// everything.
type Journal struct {
	mu     sync.Mutex
	file   *os.File
	enc    *zstd.Encoder
	closed bool
	logger *zap.Logger
}

// Open opens path for appending, creating it and its directory as needed.
// An empty path returns a discarding journal.
func Open(path string, logger *zap.Logger) (*Journal, error) {
	j := &Journal{logger: logging.OrNop(logger)}
	if path == "" {
		return j, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("journal dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("journal encoder: %w", err)
	}
	j.file, j.enc = f, enc
	return j, nil
}

// Append writes rec as its own frame.
func (j *Journal) Append(rec Record) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return ErrClosed
	}
	if j.file == nil {
		return nil
	}
	line, err := sonic.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	frame := j.enc.EncodeAll(append(line, '\n'), nil)
	if _, err := j.file.Write(frame); err != nil {
		j.logger.Error("journal write failed", zap.Error(err))
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (j *Journal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.closed {
		return nil
	}
	j.closed = true
	if j.file == nil {
		return nil
	}
	j.enc.Close()
	return j.file.Close()
}

// Read decodes every record in the journal at path. A missing file yields
// no records.
func Read(path string) ([]Record, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode reads records from a journal stream.
func Decode(r io.Reader) ([]Record, error) {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("journal decoder: %w", err)
	}
	defer dec.Close()

	var out []Record
	scanner := bufio.NewScanner(dec)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}
		var rec Record
		if err := sonic.Unmarshal(scanner.Bytes(), &rec); err != nil {
			return out, fmt.Errorf("decode record %d: %w", len(out)+1, err)
		}
		out = append(out, rec)
	}
	if err := scanner.Err(); err != nil {
		return out, fmt.Errorf("read journal: %w", err)
	}
	return out, nil
}
