package mjpegavi

import (
	"encoding/binary"
	"io"
	"math"
)

func getUint16(buf []byte, offset int) (x uint16, newoffset int, err error) {
	if offset > len(buf)-2 {
		return 0, 0, io.ErrShortBuffer
	}
	return binary.LittleEndian.Uint16(buf[offset:]), offset + 2, nil
}

func getUint32(buf []byte, offset int) (x uint32, newoffset int, err error) {
	if offset > len(buf)-4 {
		return 0, 0, io.ErrShortBuffer
	}
	return binary.LittleEndian.Uint32(buf[offset:]), offset + 4, nil
}

func getFourCC(buf []byte, offset int) (f FourCC, newoffset int, err error) {
	if offset > len(buf)-4 {
		return FourCC{}, 0, io.ErrShortBuffer
	}
	copy(f[:], buf[offset:])
	return f, offset + 4, nil
}

func putUint32(buf []byte, i uint32) int {
	binary.LittleEndian.PutUint32(buf, i)
	return 4
}

func putFourCC(buf []byte, f FourCC) int {
	return copy(buf, f[:])
}

func makeSafe(n uint64) ([]byte, error) {
	if n < math.MaxInt32 {
		return make([]byte, n), nil
	}
	return nil, ErrLengthOutOfRange
}
