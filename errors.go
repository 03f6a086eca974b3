package mjpegavi

import (
	"errors"
	"fmt"
	"io"
)

// ErrInvalidFrameSize is returned for a zero-length frame, or at
// construction when the frame rate is zero.
var ErrInvalidFrameSize = errors.New("invalid frame size")

// ErrFrameCountExceeded is returned when a file would exceed MaxFrameCount
// frames.
var ErrFrameCountExceeded = errors.New("frame count exceeds maximum")

// ErrFrameSizeExceeded is returned when a single frame's length does not fit
// in 32 bits.
var ErrFrameSizeExceeded = errors.New("frame size exceeds 32 bits")

// ErrFileSizeExceeded is returned when the file would grow past MaxFileSize,
// or any size computation overflows its field.
var ErrFileSizeExceeded = errors.New("file size exceeds AVI limit")

// ErrWriterClosed is returned when an operation is attempted on a writer
// after Close.
var ErrWriterClosed = errors.New("writer is closed")

var ErrMissingHeader = errors.New("missing avih header")
var ErrMissingMovi = errors.New("missing movi list")
var ErrLengthOutOfRange = errors.New("length out of int32 range")

// ErrBadMagic indicates the input does not begin with a RIFF/AVI prologue.
type ErrBadMagic struct {
	expected FourCC
	actual   []byte
}

func (e *ErrBadMagic) Error() string {
	return fmt.Sprintf("invalid magic, expected %q and found: %q", e.expected, e.actual)
}

func (e *ErrBadMagic) Is(err error) bool {
	_, ok := err.(*ErrBadMagic)
	return ok
}

// ErrTruncatedChunk indicates a chunk declared more content than the input
// holds.
type ErrTruncatedChunk struct {
	id          FourCC
	expectedLen uint32
	actualLen   int
}

func (e *ErrTruncatedChunk) Error() string {
	return fmt.Sprintf(
		"chunk %q truncated: declared %d bytes, data ended after %d",
		e.id,
		e.expectedLen,
		e.actualLen,
	)
}

func (e *ErrTruncatedChunk) Unwrap() error {
	return io.ErrUnexpectedEOF
}
