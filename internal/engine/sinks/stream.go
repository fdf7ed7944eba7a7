package sinks

import (
	"context"
	"fmt"
	"io"

	"github.com/pkgtool/pkgtool/internal/engine"
)

// StreamSink pipes archive bytes to w. The archive name is only used in errors,
// and w is never closed.
type StreamSink struct {
	w io.Writer
}

func NewStreamSink(w io.Writer) engine.Sink {
	return &StreamSink{w: w}
}

func (s *StreamSink) Name() string {
	return "stream"
}

func (s *StreamSink) Kind() string {
	return "stream"
}

func (s *StreamSink) Write(ctx context.Context, name string, archive io.Reader) error {
	n, err := io.Copy(s.w, archive)
	if err != nil {
		return fmt.Errorf("failed to stream %s after %d bytes: %w", name, n, err)
	}
	return nil
}

func (s *StreamSink) Close(ctx context.Context) error {
	return nil
}
