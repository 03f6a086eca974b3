package mjpegavi

// headerSize is the fixed length of everything before the first frame chunk:
// RIFF prologue, hdrl list, odml list, and the movi list header.
const headerSize = 256

// Offsets of the header fields patched after the template is stamped out.
// The first group is filled at construction, the second at Close.
const (
	offMicroSecPerFrame = 32
	offWidth            = 64
	offHeight           = 68
	offStreamScale      = 128
	offStreamWidth      = 164
	offStreamHeight     = 168
	offBitmapWidth      = 184
	offBitmapHeight     = 188
	offBitmapSizeImage  = 200

	offRIFFSize        = 4
	offTotalFrames     = 48
	offStreamLength    = 140
	offOdmlTotalFrames = 240
	offMoviSize        = 248
)

// headerTemplate is the complete 256-byte header of a single-stream MJPG
// file. Static fields are baked in; dynamic fields stay zero until patched.
var headerTemplate = [headerSize]byte{
	// RIFF prologue
	'R', 'I', 'F', 'F',
	0, 0, 0, 0, // file size, patched at close
	'A', 'V', 'I', ' ',

	// hdrl LIST
	'L', 'I', 'S', 'T',
	224, 0, 0, 0,
	'h', 'd', 'r', 'l',

	// avih chunk
	'a', 'v', 'i', 'h',
	56, 0, 0, 0,
	0, 0, 0, 0, // microseconds per frame, patched
	88, 27, 0, 0, // max bytes per second (7000)
	0, 0, 0, 0, // padding granularity
	16, 0, 0, 0, // flags: has index
	0, 0, 0, 0, // total frames, patched at close
	0, 0, 0, 0, // initial frames
	1, 0, 0, 0, // streams
	0, 0, 0, 0, // suggested buffer size
	0, 0, 0, 0, // width, patched
	0, 0, 0, 0, // height, patched
	0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, // reserved

	// strl LIST
	'L', 'I', 'S', 'T',
	148, 0, 0, 0,
	's', 't', 'r', 'l',

	// strh chunk
	's', 't', 'r', 'h',
	64, 0, 0, 0,
	'v', 'i', 'd', 's',
	'M', 'J', 'P', 'G',
	0, 0, 0, 0, // flags
	0, 0, // priority
	0, 0, // language
	0, 0, 0, 0, // initial frames
	0, 0, 0, 0, // scale: frames per second, patched
	0, 0, 0, 0, // rate
	0, 0, 0, 0, // start
	0, 0, 0, 0, // length, patched at close
	0, 0, 0, 0, // suggested buffer size
	0, 0, 0, 0, // quality
	0, 0, 0, 0, // sample size
	0, 0, 0, 0, // frame left
	0, 0, 0, 0, // frame top
	0, 0, 0, 0, // frame width, patched
	0, 0, 0, 0, // frame height, patched

	// strf chunk
	's', 't', 'r', 'f',
	40, 0, 0, 0,
	40, 0, 0, 0, // biSize
	0, 0, 0, 0, // biWidth, patched
	0, 0, 0, 0, // biHeight, patched
	1, 0, // biPlanes
	24, 0, // biBitCount
	'M', 'J', 'P', 'G',
	0, 0, 0, 0, // biSizeImage, patched
	0, 0, 0, 0, // biXPelsPerMeter
	0, 0, 0, 0, // biYPelsPerMeter
	0, 0, 0, 0, // biClrUsed
	0, 0, 0, 0, // biClrImportant

	// odml LIST
	'L', 'I', 'S', 'T',
	16, 0, 0, 0,
	'o', 'd', 'm', 'l',
	'd', 'm', 'l', 'h',
	4, 0, 0, 0,
	0, 0, 0, 0, // total frames, patched at close

	// movi LIST
	'L', 'I', 'S', 'T',
	0, 0, 0, 0, // movi size, patched at close
	'm', 'o', 'v', 'i',
}

// makeHeader stamps out the header template for the given video parameters.
// fps must be nonzero.
func makeHeader(width, height, fps uint32) [headerSize]byte {
	microsec := 1_000_000 / fps
	rowBytes := (width*24/8 + 3) &^ 3
	sizeImage := rowBytes * height

	h := headerTemplate
	putUint32(h[offMicroSecPerFrame:], microsec)
	putUint32(h[offWidth:], width)
	putUint32(h[offHeight:], height)
	putUint32(h[offStreamScale:], fps)
	putUint32(h[offStreamWidth:], width)
	putUint32(h[offStreamHeight:], height)
	putUint32(h[offBitmapWidth:], width)
	putUint32(h[offBitmapHeight:], height)
	putUint32(h[offBitmapSizeImage:], sizeImage)
	return h
}
