package mjpegavi

import (
	"context"
	"io"
	"net"
)

// ContextSink is the destination driven by a ContextWriter. Implementations
// may block in either call, must honor cancellation at operation boundaries,
// and must apply completed writes in the order they were issued.
type ContextSink interface {
	// WriteContext writes all of p at the current position, advancing it.
	WriteContext(ctx context.Context, p []byte) error
	// SeekContext moves the write position. The writer only ever seeks
	// relative to io.SeekStart.
	SeekContext(ctx context.Context, offset int64, whence int) (int64, error)
}

// NewContextSink adapts a synchronous io.WriteSeeker into a ContextSink. The
// context is checked before each operation; the operation itself does not
// unblock on cancellation.
func NewContextSink(ws io.WriteSeeker) ContextSink {
	return &wsContextSink{ws: ws}
}

type wsContextSink struct {
	ws io.WriteSeeker
}

func (s *wsContextSink) WriteContext(ctx context.Context, p []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := s.ws.Write(p)
	return err
}

func (s *wsContextSink) SeekContext(ctx context.Context, offset int64, whence int) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return s.ws.Seek(offset, whence)
}

// sink is the internal write target the writer core drives. The two
// implementations decide whether operations may block on a context.
type sink interface {
	write(ctx context.Context, p []byte) error
	writev(ctx context.Context, bufs net.Buffers) error
	seek(ctx context.Context, offset int64) error
}

// seekSink backs the synchronous writer. The context is ignored; operations
// run to completion on the calling goroutine.
type seekSink struct {
	ws io.WriteSeeker
}

func (s *seekSink) write(_ context.Context, p []byte) error {
	_, err := s.ws.Write(p)
	return err
}

// writev hands the buffer list to the destination in one gathered write
// where it supports that, and falls back to sequential writes otherwise.
// The byte stream is identical either way.
func (s *seekSink) writev(_ context.Context, bufs net.Buffers) error {
	_, err := bufs.WriteTo(s.ws)
	return err
}

func (s *seekSink) seek(_ context.Context, offset int64) error {
	_, err := s.ws.Seek(offset, io.SeekStart)
	return err
}

// ctxSink backs the context-aware writer.
type ctxSink struct {
	cs ContextSink
}

func (s *ctxSink) write(ctx context.Context, p []byte) error {
	return s.cs.WriteContext(ctx, p)
}

func (s *ctxSink) writev(ctx context.Context, bufs net.Buffers) error {
	for _, b := range bufs {
		if err := s.cs.WriteContext(ctx, b); err != nil {
			return err
		}
	}
	return nil
}

func (s *ctxSink) seek(ctx context.Context, offset int64) error {
	_, err := s.cs.SeekContext(ctx, offset, io.SeekStart)
	return err
}
