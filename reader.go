package mjpegavi

import (
	"errors"
	"fmt"
	"io"
)

// Reader reads the structure and frames of an MJPEG AVI file.
type Reader struct {
	rs   io.ReadSeeker
	info *Info
}

// NewReader returns a reader over rs. The RIFF prologue is validated before
// NewReader returns.
func NewReader(rs io.ReadSeeker) (*Reader, error) {
	if _, err := rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to file start: %w", err)
	}
	if _, err := NewLexer(rs); err != nil {
		return nil, err
	}
	return &Reader{rs: rs}, nil
}

// Info scans the file structure and returns a summary. The scan skips frame
// payloads, so it is cheap even for large files. The result is cached.
func (r *Reader) Info() (*Info, error) {
	if r.info != nil {
		return r.info, nil
	}
	if _, err := r.rs.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to file start: %w", err)
	}
	lexer, err := NewLexer(r.rs, &LexerOptions{SkipFrameData: true})
	if err != nil {
		return nil, err
	}
	info := &Info{}
	buf := make([]byte, 1024)
	for {
		token, data, err := lexer.Next(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if cap(data) > len(buf) {
			buf = data[:cap(data)]
		}
		switch token.Type {
		case TokenRIFF:
			info.RIFFSize = token.Size
		case TokenList:
			if token.ListType == FourCCMovi {
				info.MoviOffset = token.Offset
				info.MoviSize = token.Size
			}
		case TokenChunk:
			switch token.ID {
			case FourCCAvih:
				if info.Main, err = ParseMainHeader(data); err != nil {
					return nil, err
				}
			case FourCCStrh:
				if info.Stream == nil {
					if info.Stream, err = ParseStreamHeader(data); err != nil {
						return nil, err
					}
				}
			case FourCCStrf:
				if info.Format == nil {
					if info.Format, err = ParseBitmapInfo(data); err != nil {
						return nil, err
					}
				}
			case FourCCDmlh:
				total, err := ParseExtendedHeader(data)
				if err != nil {
					return nil, err
				}
				info.ODMLTotalFrames = total
			case FourCCFrame:
				info.FrameCount++
			case FourCCIdx1:
				if info.Index, err = ParseIndex(data); err != nil {
					return nil, err
				}
			}
		}
	}
	if info.Main == nil {
		return nil, ErrMissingHeader
	}
	r.info = info
	return info, nil
}

// Frame is one frame chunk from the movi list.
type Frame struct {
	// Offset is relative to the start of the movi list data, matching the
	// convention of the idx1 entries: the first frame is at offset 4.
	Offset int64
	// Size is the declared chunk size, even for every frame this package
	// writes.
	Size uint32
	// Data is the frame payload, including the padding byte for odd
	// payloads. It is only valid until the next call to Next.
	Data []byte
}

// FrameIterator iterates over the frame chunks of the movi list in file
// order.
type FrameIterator struct {
	lexer *Lexer
}

// Frames returns an iterator over the frame chunks of the movi list. The
// iterator reads from the same underlying source as the Reader, so only one
// of them may be used at a time.
func (r *Reader) Frames() (*FrameIterator, error) {
	info, err := r.Info()
	if err != nil {
		return nil, err
	}
	if info.MoviOffset == 0 {
		return nil, ErrMissingMovi
	}
	if _, err := r.rs.Seek(info.MoviOffset+12, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to seek to frame data: %w", err)
	}
	lexer, err := NewLexer(io.LimitReader(r.rs, int64(info.MoviSize)-4), &LexerOptions{SkipMagic: true})
	if err != nil {
		return nil, err
	}
	return &FrameIterator{lexer: lexer}, nil
}

// Next returns the next frame. The frame data is sliced out of the provided
// buffer p if it has adequate space. At the end of the movi list Next
// returns io.EOF.
func (it *FrameIterator) Next(p []byte) (*Frame, error) {
	for {
		token, data, err := it.lexer.Next(p)
		if err != nil {
			return nil, err
		}
		if token.Type != TokenChunk || token.ID != FourCCFrame {
			continue
		}
		return &Frame{Offset: token.Offset + 4, Size: token.Size, Data: data}, nil
	}
}
