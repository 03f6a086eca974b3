package mjpegavi

import "math"

const (
	// MaxFileSize is the largest file the writer will produce, the 2 GiB
	// RIFF addressing limit.
	MaxFileSize = 1<<31 - 1
	// MaxFrameCount bounds the number of frames in a single file.
	MaxFrameCount = 1_000_000
)

// fileSizes holds the totals patched into the header at close.
type fileSizes struct {
	file  uint32 // RIFF size field: everything after the first 8 bytes
	movi  uint32 // movi list size: form type plus all frame chunks
	index uint32 // idx1 content size
}

// checkFrameLimits is the admission check run before a frame touches the
// sink. estimated is the projected file size so far, including the index
// entries that will eventually be written for the accepted frames.
func checkFrameLimits(frameCount int, estimated uint64, payloadLen uint64) error {
	if frameCount >= MaxFrameCount {
		return ErrFrameCountExceeded
	}
	if payloadLen > math.MaxUint32 {
		return ErrFrameSizeExceeded
	}
	padded := payloadLen + payloadLen&1
	if estimated+8+padded+16 > MaxFileSize {
		return ErrFileSizeExceeded
	}
	return nil
}

// computeFileSizes computes the authoritative totals for a finished file
// from the frame count and the sum of padded frame payloads. Each total is
// range-checked against its 32-bit header field.
func computeFileSizes(frameCount int, paddedTotal uint64) (fileSizes, error) {
	if uint64(frameCount) > math.MaxUint32 {
		return fileSizes{}, ErrFrameCountExceeded
	}
	if paddedTotal > math.MaxUint32 {
		return fileSizes{}, ErrFileSizeExceeded
	}
	count := uint64(frameCount)
	index := count * 16
	if index > math.MaxUint32 {
		return fileSizes{}, ErrFileSizeExceeded
	}
	file := headerSize + paddedTotal + count*(8+16)
	if file > math.MaxUint32 {
		return fileSizes{}, ErrFileSizeExceeded
	}
	movi := 4 + paddedTotal + count*8
	if movi > math.MaxUint32 {
		return fileSizes{}, ErrFileSizeExceeded
	}
	return fileSizes{
		file:  uint32(file),
		movi:  uint32(movi),
		index: uint32(index),
	}, nil
}
