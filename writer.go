package mjpegavi

import (
	"context"
	"fmt"
	"io"
	"math"
	"net"
	"sync"
)

var zeroPad = []byte{0}

// writer is the core shared by Writer and ContextWriter. It owns all
// container bookkeeping; the sink decides whether operations may block on a
// context. Methods are not safe for concurrent use, the public wrappers
// serialize access.
type writer struct {
	s sink

	// frameSizes holds the padded payload size of every accepted frame, in
	// append order. It becomes the idx1 size column at close.
	frameSizes []uint32
	// payload is the sum of padded frame payloads written so far.
	payload uint64
	// estimated projects the final file size, counting the index entries
	// the accepted frames will need. It is a fail-fast bound; the totals
	// patched at close are recomputed from scratch.
	estimated uint64

	buf    []byte
	closed bool
}

func (w *writer) writeHeader(ctx context.Context, width, height, fps uint32) error {
	if fps == 0 {
		return ErrInvalidFrameSize
	}
	header := makeHeader(width, height, fps)
	if err := w.s.write(ctx, header[:]); err != nil {
		return fmt.Errorf("failed to write container header: %w", err)
	}
	w.estimated = headerSize
	return nil
}

// appendFrame writes one frame chunk: an 8-byte header, the payload
// fragments in order, and a padding byte when the payload length is odd. The
// fragments and the header go to the sink as a single gathered write.
func (w *writer) appendFrame(ctx context.Context, bufs ...[]byte) error {
	if w.closed {
		return ErrWriterClosed
	}
	var size uint64
	for _, b := range bufs {
		size += uint64(len(b))
	}
	if size == 0 {
		return ErrInvalidFrameSize
	}
	if err := checkFrameLimits(len(w.frameSizes), w.estimated, size); err != nil {
		return err
	}
	padded := size + size&1

	putFourCC(w.buf, FourCCFrame)
	putUint32(w.buf[4:], uint32(padded))
	parts := make(net.Buffers, 0, len(bufs)+2)
	parts = append(parts, w.buf[:8])
	parts = append(parts, bufs...)
	if padded != size {
		parts = append(parts, zeroPad)
	}
	if err := w.s.writev(ctx, parts); err != nil {
		return fmt.Errorf("failed to write frame chunk: %w", err)
	}

	w.frameSizes = append(w.frameSizes, uint32(padded))
	w.payload += padded
	w.estimated += 8 + padded + 16
	return nil
}

// finish writes the idx1 chunk and patches the header fields that were not
// known until now. A failed patch leaves the header partially updated; the
// writer is unusable either way.
func (w *writer) finish(ctx context.Context) error {
	if w.closed {
		return ErrWriterClosed
	}
	w.closed = true

	sizes, err := computeFileSizes(len(w.frameSizes), w.payload)
	if err != nil {
		return err
	}

	putFourCC(w.buf, FourCCIdx1)
	putUint32(w.buf[4:], sizes.index)
	if err := w.s.write(ctx, w.buf[:8]); err != nil {
		return fmt.Errorf("failed to write index header: %w", err)
	}

	offset := uint32(4)
	for _, size := range w.frameSizes {
		putFourCC(w.buf, FourCCFrame)
		putUint32(w.buf[4:], IndexKeyFrame)
		putUint32(w.buf[8:], offset)
		putUint32(w.buf[12:], size)
		if err := w.s.write(ctx, w.buf[:16]); err != nil {
			return fmt.Errorf("failed to write index entry: %w", err)
		}
		next := uint64(offset) + 8 + uint64(size)
		if next > math.MaxUint32 {
			return ErrFileSizeExceeded
		}
		offset = uint32(next)
	}

	count := uint32(len(w.frameSizes))
	patches := []struct {
		off int64
		val uint32
	}{
		{offRIFFSize, sizes.file},
		{offTotalFrames, count},
		{offStreamLength, count},
		{offOdmlTotalFrames, count},
		{offMoviSize, sizes.movi},
	}
	for _, p := range patches {
		if err := w.s.seek(ctx, p.off); err != nil {
			return fmt.Errorf("failed to seek to header field at %d: %w", p.off, err)
		}
		putUint32(w.buf, p.val)
		if err := w.s.write(ctx, w.buf[:4]); err != nil {
			return fmt.Errorf("failed to patch header field at %d: %w", p.off, err)
		}
	}
	return nil
}

func (w *writer) frameCount() uint32 {
	return uint32(len(w.frameSizes))
}

// WriterOptions configure a Writer or ContextWriter.
type WriterOptions struct {
	// Width of every frame, in pixels.
	Width uint32
	// Height of every frame, in pixels.
	Height uint32
	// FPS is the frame rate. It must be nonzero.
	FPS uint32
}

// Writer incrementally writes an MJPEG AVI file to an io.WriteSeeker. Frames
// are appended with WriteFrame or WriteFrameBuffers and the container is
// completed by Close. A Writer is safe for use by multiple goroutines;
// operations are serialized.
type Writer struct {
	mu   sync.Mutex
	core writer
}

// NewWriter returns a writer that streams an MJPEG AVI file to ws, which
// must be positioned at the start of the file. The 256-byte container header
// is written before NewWriter returns.
func NewWriter(ws io.WriteSeeker, opts *WriterOptions) (*Writer, error) {
	w := &Writer{
		core: writer{
			s:   &seekSink{ws: ws},
			buf: make([]byte, 16),
		},
	}
	if err := w.core.writeHeader(context.Background(), opts.Width, opts.Height, opts.FPS); err != nil {
		return nil, err
	}
	return w, nil
}

// WriteFrame appends one JPEG-encoded frame.
func (w *Writer) WriteFrame(frame []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.appendFrame(context.Background(), frame)
}

// WriteFrameBuffers appends one frame supplied as an ordered list of
// fragments, written as a single chunk without concatenating them first.
func (w *Writer) WriteFrameBuffers(buffers ...[]byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.appendFrame(context.Background(), buffers...)
}

// Close writes the frame index and patches the header totals. Afterward all
// operations on the writer fail with ErrWriterClosed. Close does not close
// the underlying sink.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.finish(context.Background())
}

// FrameCount returns the number of frames appended so far.
func (w *Writer) FrameCount() uint32 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.frameCount()
}

// EstimatedSize returns the running size projection used for admission
// checks: the bytes written so far plus the index entries Close would add.
func (w *Writer) EstimatedSize() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.core.estimated
}
