package emit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Sink delivers a batch to whoever renders it
type Sink interface {
	Write(ctx context.Context, b *Batch) error
}

// JSONSink writes the batch as indented JSON to a writer or a file
type JSONSink struct {
	w    io.Writer
	path string
}

// NewJSONSink creates a sink writing to w (typically stdout)
func NewJSONSink(w io.Writer) *JSONSink {
	return &JSONSink{w: w}
}

// NewFileSink creates a sink that replaces the file at path on every write
func NewFileSink(path string) *JSONSink {
	return &JSONSink{path: path}
}

// Write encodes b
func (s *JSONSink) Write(ctx context.Context, b *Batch) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode batch: %w", err)
	}
	data = append(data, '\n')

	if s.path == "" {
		if _, err := s.w.Write(data); err != nil {
			return fmt.Errorf("failed to write batch: %w", err)
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write batch: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to move batch into place: %w", err)
	}
	return nil
}
