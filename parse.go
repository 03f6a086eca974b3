package mjpegavi

import (
	"fmt"
)

// ParseMainHeader parses an avih chunk body.
func ParseMainHeader(buf []byte) (*MainHeader, error) {
	microSecPerFrame, offset, err := getUint32(buf, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame interval: %w", err)
	}
	maxBytesPerSec, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read max bytes per second: %w", err)
	}
	paddingGranularity, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read padding granularity: %w", err)
	}
	flags, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}
	totalFrames, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read total frames: %w", err)
	}
	initialFrames, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read initial frames: %w", err)
	}
	streams, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream count: %w", err)
	}
	suggestedBufferSize, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read suggested buffer size: %w", err)
	}
	width, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read width: %w", err)
	}
	height, _, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read height: %w", err)
	}
	return &MainHeader{
		MicroSecPerFrame:    microSecPerFrame,
		MaxBytesPerSec:      maxBytesPerSec,
		PaddingGranularity:  paddingGranularity,
		Flags:               flags,
		TotalFrames:         totalFrames,
		InitialFrames:       initialFrames,
		Streams:             streams,
		SuggestedBufferSize: suggestedBufferSize,
		Width:               width,
		Height:              height,
	}, nil
}

// ParseStreamHeader parses a strh chunk body.
func ParseStreamHeader(buf []byte) (*StreamHeader, error) {
	streamType, offset, err := getFourCC(buf, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read stream type: %w", err)
	}
	handler, offset, err := getFourCC(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read handler: %w", err)
	}
	flags, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read flags: %w", err)
	}
	priority, offset, err := getUint16(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read priority: %w", err)
	}
	language, offset, err := getUint16(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read language: %w", err)
	}
	initialFrames, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read initial frames: %w", err)
	}
	scale, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read scale: %w", err)
	}
	rate, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read rate: %w", err)
	}
	start, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read start: %w", err)
	}
	length, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read length: %w", err)
	}
	suggestedBufferSize, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read suggested buffer size: %w", err)
	}
	quality, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read quality: %w", err)
	}
	sampleSize, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read sample size: %w", err)
	}
	left, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame left: %w", err)
	}
	top, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame top: %w", err)
	}
	right, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame right: %w", err)
	}
	bottom, _, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read frame bottom: %w", err)
	}
	return &StreamHeader{
		Type:                streamType,
		Handler:             handler,
		Flags:               flags,
		Priority:            priority,
		Language:            language,
		InitialFrames:       initialFrames,
		Scale:               scale,
		Rate:                rate,
		Start:               start,
		Length:              length,
		SuggestedBufferSize: suggestedBufferSize,
		Quality:             quality,
		SampleSize:          sampleSize,
		Frame:               Rect{Left: left, Top: top, Right: right, Bottom: bottom},
	}, nil
}

// ParseBitmapInfo parses a strf chunk body of a video stream.
func ParseBitmapInfo(buf []byte) (*BitmapInfo, error) {
	size, offset, err := getUint32(buf, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to read size: %w", err)
	}
	width, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read width: %w", err)
	}
	height, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read height: %w", err)
	}
	planes, offset, err := getUint16(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read planes: %w", err)
	}
	bitCount, offset, err := getUint16(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read bit count: %w", err)
	}
	compression, offset, err := getFourCC(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read compression: %w", err)
	}
	sizeImage, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read image size: %w", err)
	}
	xPelsPerMeter, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read horizontal resolution: %w", err)
	}
	yPelsPerMeter, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read vertical resolution: %w", err)
	}
	clrUsed, offset, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read colors used: %w", err)
	}
	clrImportant, _, err := getUint32(buf, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read important colors: %w", err)
	}
	return &BitmapInfo{
		Size:          size,
		Width:         width,
		Height:        height,
		Planes:        planes,
		BitCount:      bitCount,
		Compression:   compression,
		SizeImage:     sizeImage,
		XPelsPerMeter: xPelsPerMeter,
		YPelsPerMeter: yPelsPerMeter,
		ClrUsed:       clrUsed,
		ClrImportant:  clrImportant,
	}, nil
}

// ParseExtendedHeader parses a dmlh chunk body, returning the extended frame
// total.
func ParseExtendedHeader(buf []byte) (uint32, error) {
	total, _, err := getUint32(buf, 0)
	if err != nil {
		return 0, fmt.Errorf("failed to read extended frame total: %w", err)
	}
	return total, nil
}

// ParseIndex parses an idx1 chunk body into its entries.
func ParseIndex(buf []byte) ([]IndexEntry, error) {
	if len(buf)%16 != 0 {
		return nil, fmt.Errorf("index size %d is not a multiple of 16", len(buf))
	}
	entries := make([]IndexEntry, 0, len(buf)/16)
	for offset := 0; offset < len(buf); {
		var entry IndexEntry
		var err error
		entry.ChunkID, offset, err = getFourCC(buf, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to read chunk ID: %w", err)
		}
		entry.Flags, offset, err = getUint32(buf, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to read flags: %w", err)
		}
		entry.Offset, offset, err = getUint32(buf, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to read offset: %w", err)
		}
		entry.Size, offset, err = getUint32(buf, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to read size: %w", err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
