package mjpegavi

import (
	"encoding/binary"
	"errors"
	"io"
)

// writeSeekBuffer is an in-memory io.WriteSeeker for tests.
type writeSeekBuffer struct {
	buf []byte
	pos int
}

func (b *writeSeekBuffer) Write(p []byte) (int, error) {
	need := b.pos + len(p)
	if need > cap(b.buf) {
		newCap := 2 * cap(b.buf)
		if newCap < need {
			newCap = need
		}
		grown := make([]byte, len(b.buf), newCap)
		copy(grown, b.buf)
		b.buf = grown
	}
	if need > len(b.buf) {
		b.buf = b.buf[:need]
	}
	copy(b.buf[b.pos:], p)
	b.pos = need
	return len(p), nil
}

func (b *writeSeekBuffer) Seek(offset int64, whence int) (int64, error) {
	var pos int64
	switch whence {
	case io.SeekStart:
		pos = offset
	case io.SeekCurrent:
		pos = int64(b.pos) + offset
	case io.SeekEnd:
		pos = int64(len(b.buf)) + offset
	default:
		return 0, errors.New("unknown whence")
	}
	if pos < 0 {
		return 0, errors.New("negative position")
	}
	b.pos = int(pos)
	return pos, nil
}

func (b *writeSeekBuffer) Bytes() []byte {
	return b.buf
}

// discardSeeker swallows writes while honoring the io.WriteSeeker contract,
// for tests that push multi-gigabyte streams through the writer.
type discardSeeker struct {
	pos int64
}

func (d *discardSeeker) Write(p []byte) (int, error) {
	d.pos += int64(len(p))
	return len(p), nil
}

func (d *discardSeeker) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
		d.pos = offset
	case io.SeekCurrent:
		d.pos += offset
	}
	return d.pos, nil
}

// failingWriteSeeker fails every operation after the first n writes.
type failingWriteSeeker struct {
	writes int
	n      int
}

var errSinkFailed = errors.New("sink failed")

func (f *failingWriteSeeker) Write(p []byte) (int, error) {
	if f.writes >= f.n {
		return 0, errSinkFailed
	}
	f.writes++
	return len(p), nil
}

func (f *failingWriteSeeker) Seek(int64, int) (int64, error) {
	if f.writes >= f.n {
		return 0, errSinkFailed
	}
	return 0, nil
}

func u32At(buf []byte, offset int) uint32 {
	x, _, _ := getUint32(buf, offset)
	return x
}

func encodedUint16(x uint16) []byte {
	buf := make([]byte, 2)
	binary.LittleEndian.PutUint16(buf, x)
	return buf
}

func encodedUint32(x uint32) []byte {
	buf := make([]byte, 4)
	binary.LittleEndian.PutUint32(buf, x)
	return buf
}

func flatten(slices ...[]byte) []byte {
	var flattened []byte
	for _, s := range slices {
		flattened = append(flattened, s...)
	}
	return flattened
}

// rawChunk encodes a chunk header and body, without the padding byte the
// format requires after odd bodies.
func rawChunk(id string, body []byte) []byte {
	buf := make([]byte, 8+len(body))
	copy(buf, id)
	binary.LittleEndian.PutUint32(buf[4:], uint32(len(body)))
	copy(buf[8:], body)
	return buf
}

func listHeader(form string, size uint32) []byte {
	buf := make([]byte, 12)
	copy(buf, "LIST")
	binary.LittleEndian.PutUint32(buf[4:], size)
	copy(buf[8:], form)
	return buf
}

func riffPrologue(size uint32) []byte {
	buf := make([]byte, 12)
	copy(buf, "RIFF")
	binary.LittleEndian.PutUint32(buf[4:], size)
	copy(buf[8:], "AVI ")
	return buf
}
