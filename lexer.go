package mjpegavi

import (
	"errors"
	"fmt"
	"io"
)

type countingReader struct {
	r   io.Reader
	pos int64
}

func (cr *countingReader) Read(p []byte) (int, error) {
	n, err := cr.r.Read(p)
	cr.pos += int64(n)
	return n, err
}

const (
	// TokenRIFF is the 12-byte file prologue, emitted once at the start.
	TokenRIFF TokenType = iota
	// TokenList is a LIST header. The lexer descends into the list, so the
	// tokens that follow are its contents.
	TokenList
	// TokenChunk is a plain chunk together with its data.
	TokenChunk
	// TokenError indicates the lexer could not produce a token.
	TokenError
)

// TokenType encodes the kind of element the lexer produced.
type TokenType int

// String converts a token type to its string representation.
func (t TokenType) String() string {
	switch t {
	case TokenRIFF:
		return "riff"
	case TokenList:
		return "list"
	case TokenChunk:
		return "chunk"
	case TokenError:
		return "error"
	default:
		return "unknown"
	}
}

// Token is one RIFF element. For lists, ListType carries the form and Size
// the declared list size including the 4-byte form. For chunks, Size is the
// declared data size, excluding the padding byte the lexer consumes for
// odd-sized chunks.
type Token struct {
	Type     TokenType
	ID       FourCC
	ListType FourCC
	Size     uint32
	// Offset is the absolute file offset of the element's header.
	Offset int64
}

// Lexer is a low-level sequential reader for RIFF-structured files. It emits
// one token per element, descending into lists rather than skipping them.
type Lexer struct {
	reader        *countingReader
	buf           []byte
	riff          Token
	emittedRIFF   bool
	skipFrameData bool
	maxChunkSize  int
}

// LexerOptions holds options for the lexer.
type LexerOptions struct {
	// SkipMagic instructs the lexer not to expect the RIFF prologue, for
	// lexing chunk sequences from the middle of a file.
	SkipMagic bool
	// SkipFrameData instructs the lexer to discard frame chunk payloads
	// instead of returning them, for structure-only passes.
	SkipFrameData bool
	// MaxChunkSize caps the chunk size the lexer will materialize. Chunks
	// larger than this result in an error.
	MaxChunkSize int
}

// NewLexer returns a lexer for the given reader. Unless SkipMagic is set,
// the RIFF/AVI prologue is read and validated before NewLexer returns.
func NewLexer(r io.Reader, opts ...*LexerOptions) (*Lexer, error) {
	var options LexerOptions
	if len(opts) > 0 && opts[0] != nil {
		options = *opts[0]
	}
	lexer := &Lexer{
		reader:        &countingReader{r: r},
		buf:           make([]byte, 12),
		skipFrameData: options.SkipFrameData,
		maxChunkSize:  options.MaxChunkSize,
	}
	if options.SkipMagic {
		lexer.emittedRIFF = true
		return lexer, nil
	}
	readLength, err := io.ReadFull(lexer.reader, lexer.buf[:12])
	if err != nil {
		return nil, &ErrBadMagic{expected: FourCCRIFF, actual: lexer.buf[:readLength]}
	}
	id, _, _ := getFourCC(lexer.buf, 0)
	if id != FourCCRIFF {
		return nil, &ErrBadMagic{expected: FourCCRIFF, actual: lexer.buf[:4]}
	}
	size, _, _ := getUint32(lexer.buf, 4)
	form, _, _ := getFourCC(lexer.buf, 8)
	if form != FourCCAVI {
		return nil, &ErrBadMagic{expected: FourCCAVI, actual: lexer.buf[8:12]}
	}
	lexer.riff = Token{Type: TokenRIFF, ID: id, ListType: form, Size: size}
	return lexer, nil
}

// Next returns the next token from the lexer. Chunk data is sliced out of
// the provided buffer p if it has adequate space, otherwise a new buffer is
// allocated for the result. At the end of the input Next returns io.EOF.
func (l *Lexer) Next(p []byte) (Token, []byte, error) {
	if !l.emittedRIFF {
		l.emittedRIFF = true
		return l.riff, nil, nil
	}

	offset := l.reader.pos
	readLength, err := io.ReadFull(l.reader, l.buf[:8])
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Token{Type: TokenError}, nil, io.EOF
		}
		id := FourCC{}
		if readLength >= 4 {
			id, _, _ = getFourCC(l.buf, 0)
		}
		return Token{Type: TokenError}, nil, &ErrTruncatedChunk{id: id, actualLen: readLength}
	}
	id, _, _ := getFourCC(l.buf, 0)
	size, _, _ := getUint32(l.buf, 4)

	if id == FourCCList {
		listType, err := l.readListType()
		if err != nil {
			return Token{Type: TokenError}, nil, err
		}
		return Token{Type: TokenList, ID: id, ListType: listType, Size: size, Offset: offset}, nil, nil
	}

	token := Token{Type: TokenChunk, ID: id, Size: size, Offset: offset}
	if l.maxChunkSize > 0 && size > uint32(l.maxChunkSize) {
		return Token{Type: TokenError}, nil, fmt.Errorf("chunk %q exceeds configured maximum size: %d", id, size)
	}
	padded := int64(size) + int64(size&1)
	if l.skipFrameData && id == FourCCFrame {
		if err := l.discard(token, padded); err != nil {
			return Token{Type: TokenError}, nil, err
		}
		return token, nil, nil
	}

	if uint64(size) > uint64(len(p)) {
		p, err = makeSafe(uint64(size))
		if err != nil {
			return Token{Type: TokenError}, nil, fmt.Errorf("failed to allocate %d bytes for chunk %q: %w", size, id, err)
		}
	}
	data := p[:size]
	readLength, err = io.ReadFull(l.reader, data)
	if err != nil {
		return Token{Type: TokenError}, nil, &ErrTruncatedChunk{id: id, expectedLen: size, actualLen: readLength}
	}
	if size&1 == 1 {
		// a missing padding byte on the final chunk is tolerated
		if _, err := io.ReadFull(l.reader, l.buf[:1]); err != nil && !errors.Is(err, io.EOF) {
			return Token{Type: TokenError}, nil, err
		}
	}
	return token, data, nil
}

func (l *Lexer) readListType() (FourCC, error) {
	readLength, err := io.ReadFull(l.reader, l.buf[:4])
	if err != nil {
		return FourCC{}, &ErrTruncatedChunk{id: FourCCList, expectedLen: 4, actualLen: readLength}
	}
	listType, _, _ := getFourCC(l.buf, 0)
	return listType, nil
}

func (l *Lexer) discard(token Token, n int64) error {
	written, err := io.CopyN(io.Discard, l.reader, n)
	if err != nil {
		if errors.Is(err, io.EOF) && written >= int64(token.Size) {
			// a missing padding byte on the final chunk is tolerated
			return nil
		}
		if errors.Is(err, io.EOF) {
			return &ErrTruncatedChunk{id: token.ID, expectedLen: token.Size, actualLen: int(written)}
		}
		return err
	}
	return nil
}
