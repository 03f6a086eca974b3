package mjpegavi

import (
	"context"
	"sync"
)

// ContextWriter writes the same format as Writer over a ContextSink whose
// operations may block, threading a context through every sink call. All
// container bookkeeping runs to completion between sink calls; cancellation
// is only observed at sink boundaries, so an abandoned operation can leave a
// partially written chunk behind (the writer does not roll back).
type ContextWriter struct {
	mu   sync.Mutex
	core writer
}

// NewContextWriter returns a writer that streams an MJPEG AVI file to s,
// which must be positioned at the start of the file. The container header is
// written before NewContextWriter returns.
func NewContextWriter(ctx context.Context, s ContextSink, opts *WriterOptions) (*ContextWriter, error) {
	w := &ContextWriter{
		core: writer{
			s:   &ctxSink{cs: s},
			buf: make([]byte, 16),
		},
	}
	if err := w.core.writeHeader(ctx, opts.Width, opts.Height, opts.FPS); err != nil {
		return nil, err
	}
	return w, nil
}

// WriteFrame appends one JPEG-encoded frame.
func (w *ContextWriter) WriteFrame(ctx context.Context, frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.appendFrame(ctx, frame)
}

// WriteFrameBuffers appends one frame supplied as an ordered list of
// fragments, written as a single chunk without concatenating them first.
func (w *ContextWriter) WriteFrameBuffers(ctx context.Context, buffers ...[]byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.appendFrame(ctx, buffers...)
}

// Close writes the frame index and patches the header totals. Afterward all
// operations on the writer fail with ErrWriterClosed. Close does not close
// the underlying sink.
func (w *ContextWriter) Close(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.finish(ctx)
}

// FrameCount returns the number of frames appended so far.
func (w *ContextWriter) FrameCount() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.frameCount()
}

// EstimatedSize returns the running size projection used for admission
// checks: the bytes written so far plus the index entries Close would add.
func (w *ContextWriter) EstimatedSize() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.estimated
}
