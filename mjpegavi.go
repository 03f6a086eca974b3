// Package mjpegavi implements an incremental writer and reader for
// motion-JPEG AVI files. Frames are appended one at a time and the
// container is completed by a single finalize step, so a recording can
// stream to disk (or any seekable sink) without buffering the video in
// memory.
package mjpegavi

import (
	"time"
)

// FourCC is a four-character RIFF code identifying a chunk, list form, or
// codec.
type FourCC [4]byte

// String converts a FourCC to a string for display.
func (f FourCC) String() string {
	return string(f[:])
}

var (
	// FourCCRIFF identifies the outer RIFF container.
	FourCCRIFF = FourCC{'R', 'I', 'F', 'F'}
	// FourCCAVI is the RIFF form type of an AVI file.
	FourCCAVI = FourCC{'A', 'V', 'I', ' '}
	// FourCCList identifies a LIST element.
	FourCCList = FourCC{'L', 'I', 'S', 'T'}
	// FourCCHdrl is the header list form.
	FourCCHdrl = FourCC{'h', 'd', 'r', 'l'}
	// FourCCAvih is the main AVI header chunk.
	FourCCAvih = FourCC{'a', 'v', 'i', 'h'}
	// FourCCStrl is the stream list form.
	FourCCStrl = FourCC{'s', 't', 'r', 'l'}
	// FourCCStrh is the stream header chunk.
	FourCCStrh = FourCC{'s', 't', 'r', 'h'}
	// FourCCStrf is the stream format chunk.
	FourCCStrf = FourCC{'s', 't', 'r', 'f'}
	// FourCCOdml is the OpenDML extension list form.
	FourCCOdml = FourCC{'o', 'd', 'm', 'l'}
	// FourCCDmlh is the OpenDML extended header chunk.
	FourCCDmlh = FourCC{'d', 'm', 'l', 'h'}
	// FourCCMovi is the payload list form holding the frame chunks.
	FourCCMovi = FourCC{'m', 'o', 'v', 'i'}
	// FourCCIdx1 is the legacy index chunk written at the end of the file.
	FourCCIdx1 = FourCC{'i', 'd', 'x', '1'}
	// FourCCVids marks a video stream.
	FourCCVids = FourCC{'v', 'i', 'd', 's'}
	// FourCCMJPG is the motion-JPEG codec.
	FourCCMJPG = FourCC{'M', 'J', 'P', 'G'}
	// FourCCFrame is the chunk ID of every frame in stream zero.
	FourCCFrame = FourCC{'0', '0', 'd', 'c'}
)

const (
	// MainFlagHasIndex marks a file carrying an idx1 chunk.
	MainFlagHasIndex = 0x10
	// IndexKeyFrame marks an index entry as a key frame. Every MJPEG frame
	// decodes independently, so the writer sets it on all entries.
	IndexKeyFrame = 0x10
)

// MainHeader is the avih chunk of the header list.
type MainHeader struct {
	MicroSecPerFrame    uint32
	MaxBytesPerSec      uint32
	PaddingGranularity  uint32
	Flags               uint32
	TotalFrames         uint32
	InitialFrames       uint32
	Streams             uint32
	SuggestedBufferSize uint32
	Width               uint32
	Height              uint32
}

// Rect is the display rectangle of a video stream, stored as four 32-bit
// fields in this container.
type Rect struct {
	Left   uint32
	Top    uint32
	Right  uint32
	Bottom uint32
}

// StreamHeader is the strh chunk of a stream list. The writer stores the
// frame rate in Scale (with Rate zero) and mirrors it in the main header's
// MicroSecPerFrame.
type StreamHeader struct {
	Type                FourCC
	Handler             FourCC
	Flags               uint32
	Priority            uint16
	Language            uint16
	InitialFrames       uint32
	Scale               uint32
	Rate                uint32
	Start               uint32
	Length              uint32
	SuggestedBufferSize uint32
	Quality             uint32
	SampleSize          uint32
	Frame               Rect
}

// BitmapInfo is the strf chunk of a video stream list.
type BitmapInfo struct {
	Size          uint32
	Width         uint32
	Height        uint32
	Planes        uint16
	BitCount      uint16
	Compression   FourCC
	SizeImage     uint32
	XPelsPerMeter uint32
	YPelsPerMeter uint32
	ClrUsed       uint32
	ClrImportant  uint32
}

// IndexEntry is one record of the idx1 chunk. Offset is relative to the
// start of the movi list data, so the first frame is at offset 4.
type IndexEntry struct {
	ChunkID FourCC
	Flags   uint32
	Offset  uint32
	Size    uint32
}

// Info summarizes the structure of an AVI file.
type Info struct {
	Main   *MainHeader
	Stream *StreamHeader
	Format *BitmapInfo
	// RIFFSize is the declared file size, excluding the 8-byte RIFF header.
	RIFFSize uint32
	// MoviOffset is the absolute offset of the movi list header.
	MoviOffset int64
	// MoviSize is the declared size of the movi list.
	MoviSize uint32
	// FrameCount is the number of frame chunks found in the movi list.
	FrameCount uint32
	// ODMLTotalFrames is the frame total recorded in the OpenDML dmlh
	// chunk.
	ODMLTotalFrames uint32
	// Index holds the idx1 entries, or nil if the file has no index.
	Index []IndexEntry
}

// FPS returns the frame rate recorded in the main header, or zero if the
// header is missing or carries no frame interval.
func (i *Info) FPS() uint32 {
	if i.Main == nil || i.Main.MicroSecPerFrame == 0 {
		return 0
	}
	return 1_000_000 / i.Main.MicroSecPerFrame
}

// Duration returns the playback duration implied by the frame count and
// frame interval.
func (i *Info) Duration() time.Duration {
	if i.Main == nil {
		return 0
	}
	return time.Duration(i.FrameCount) * time.Duration(i.Main.MicroSecPerFrame) * time.Microsecond
}
