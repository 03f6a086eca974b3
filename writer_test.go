package mjpegavi

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterHeader(t *testing.T) {
	cases := []struct {
		assertion string
		width     uint32
		height    uint32
		fps       uint32
	}{
		{"qvga at 30fps", 320, 240, 30},
		{"hd at 60fps", 1280, 720, 60},
		{"odd dimensions", 641, 481, 7},
		{"single pixel", 1, 1, 1},
	}
	for _, c := range cases {
		t.Run(c.assertion, func(t *testing.T) {
			buf := &writeSeekBuffer{}
			w, err := NewWriter(buf, &WriterOptions{Width: c.width, Height: c.height, FPS: c.fps})
			require.NoError(t, err)
			require.NoError(t, w.Close())

			output := buf.Bytes()
			assert.Equal(t, []byte("RIFF"), output[0:4])
			assert.Equal(t, []byte("AVI "), output[8:12])
			assert.Equal(t, 1_000_000/c.fps, u32At(output, offMicroSecPerFrame))
			assert.Equal(t, c.fps, u32At(output, offStreamScale))
			for _, offset := range []int{offWidth, offStreamWidth, offBitmapWidth} {
				assert.Equal(t, c.width, u32At(output, offset))
			}
			for _, offset := range []int{offHeight, offStreamHeight, offBitmapHeight} {
				assert.Equal(t, c.height, u32At(output, offset))
			}
			rowBytes := (c.width*24/8 + 3) &^ 3
			assert.Equal(t, rowBytes*c.height, u32At(output, offBitmapSizeImage))
		})
	}
}

func TestWriterStaticHeaderFields(t *testing.T) {
	buf := &writeSeekBuffer{}
	w, err := NewWriter(buf, &WriterOptions{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	output := buf.Bytes()
	assert.Equal(t, []byte("LIST"), output[12:16])
	assert.Equal(t, uint32(224), u32At(output, 16))
	assert.Equal(t, []byte("hdrl"), output[20:24])
	assert.Equal(t, uint32(56), u32At(output, 28))
	assert.Equal(t, uint32(7000), u32At(output, 36))
	assert.Equal(t, uint32(MainFlagHasIndex), u32At(output, 44))
	assert.Equal(t, uint32(1), u32At(output, 56))
	assert.Equal(t, []byte("strl"), output[96:100])
	assert.Equal(t, uint32(148), u32At(output, 92))
	assert.Equal(t, []byte("vids"), output[108:112])
	assert.Equal(t, []byte("MJPG"), output[112:116])
	assert.Equal(t, []byte("strf"), output[172:176])
	assert.Equal(t, uint32(40), u32At(output, 180))
	assert.Equal(t, []byte{1, 0, 24, 0}, output[192:196])
	assert.Equal(t, []byte("MJPG"), output[196:200])
	assert.Equal(t, []byte("odml"), output[228:232])
	assert.Equal(t, []byte("dmlh"), output[232:236])
	assert.Equal(t, []byte("movi"), output[252:256])
}

func TestWriterInvalidFrameRate(t *testing.T) {
	buf := &writeSeekBuffer{}
	w, err := NewWriter(buf, &WriterOptions{Width: 320, Height: 240, FPS: 0})
	assert.ErrorIs(t, err, ErrInvalidFrameSize)
	assert.Nil(t, w)
	assert.Empty(t, buf.Bytes())
}

func TestWriterEmptyFrame(t *testing.T) {
	buf := &writeSeekBuffer{}
	w, err := NewWriter(buf, &WriterOptions{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	assert.ErrorIs(t, w.WriteFrame(nil), ErrInvalidFrameSize)
	assert.ErrorIs(t, w.WriteFrame([]byte{}), ErrInvalidFrameSize)
	assert.ErrorIs(t, w.WriteFrameBuffers([]byte{}, nil), ErrInvalidFrameSize)
	assert.Equal(t, uint32(0), w.FrameCount())
	assert.Equal(t, headerSize, len(buf.Bytes()))
}

func TestWriterSingleEvenFrame(t *testing.T) {
	frame := make([]byte, 100)
	for i := range frame {
		frame[i] = byte(i)
	}
	buf := &writeSeekBuffer{}
	w, err := NewWriter(buf, &WriterOptions{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(frame))
	require.NoError(t, w.Close())

	output := buf.Bytes()
	require.Equal(t, 388, len(output))
	assert.Equal(t, uint32(380), u32At(output, offRIFFSize))
	assert.Equal(t, uint32(1), u32At(output, offTotalFrames))
	assert.Equal(t, uint32(1), u32At(output, offStreamLength))
	assert.Equal(t, uint32(1), u32At(output, offOdmlTotalFrames))
	assert.Equal(t, uint32(112), u32At(output, offMoviSize))

	assert.Equal(t, []byte("00dc"), output[256:260])
	assert.Equal(t, uint32(100), u32At(output, 260))
	assert.Equal(t, frame, output[264:364])

	assert.Equal(t, []byte("idx1"), output[364:368])
	assert.Equal(t, uint32(16), u32At(output, 368))
	assert.Equal(t, []byte("00dc"), output[372:376])
	assert.Equal(t, uint32(IndexKeyFrame), u32At(output, 376))
	assert.Equal(t, uint32(4), u32At(output, 380))
	assert.Equal(t, uint32(100), u32At(output, 384))
}

func TestWriterOddFramePadding(t *testing.T) {
	frame := bytes.Repeat([]byte{0xAB}, 101)
	buf := &writeSeekBuffer{}
	w, err := NewWriter(buf, &WriterOptions{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(frame))
	require.NoError(t, w.Close())

	output := buf.Bytes()
	require.Equal(t, 390, len(output))
	assert.Equal(t, uint32(102), u32At(output, 260), "chunk declares the padded size")
	assert.Equal(t, frame, output[264:365])
	assert.Equal(t, byte(0), output[365], "padding byte is zero")
	assert.Equal(t, uint32(382), u32At(output, offRIFFSize))
	assert.Equal(t, uint32(114), u32At(output, offMoviSize))
	assert.Equal(t, uint32(102), u32At(output, 386), "index records the padded size")
}

func TestWriterVectoredEquivalence(t *testing.T) {
	frames := [][]byte{
		bytes.Repeat([]byte{0x11}, 100),
		bytes.Repeat([]byte{0x22}, 101),
		bytes.Repeat([]byte{0x33}, 1),
		bytes.Repeat([]byte{0x44}, 4096),
	}

	single := &writeSeekBuffer{}
	w, err := NewWriter(single, &WriterOptions{Width: 64, Height: 64, FPS: 24})
	require.NoError(t, err)
	for _, frame := range frames {
		require.NoError(t, w.WriteFrame(frame))
	}
	require.NoError(t, w.Close())

	vectored := &writeSeekBuffer{}
	w, err = NewWriter(vectored, &WriterOptions{Width: 64, Height: 64, FPS: 24})
	require.NoError(t, err)
	for _, frame := range frames {
		mid := len(frame) / 2
		require.NoError(t, w.WriteFrameBuffers(frame[:mid], frame[mid:]))
	}
	require.NoError(t, w.Close())

	assert.Equal(t, single.Bytes(), vectored.Bytes())
}

func TestWriterIndexOffsets(t *testing.T) {
	lengths := []int{100, 101, 50, 3, 4096}
	buf := &writeSeekBuffer{}
	w, err := NewWriter(buf, &WriterOptions{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	for _, n := range lengths {
		require.NoError(t, w.WriteFrame(make([]byte, n)))
	}
	require.NoError(t, w.Close())

	output := buf.Bytes()
	padded := make([]uint32, len(lengths))
	for i, n := range lengths {
		padded[i] = uint32(n + n&1)
	}

	var moviContent uint32
	for _, p := range padded {
		moviContent += 8 + p
	}
	indexStart := headerSize + int(moviContent)
	assert.Equal(t, []byte("idx1"), output[indexStart:indexStart+4])
	assert.Equal(t, uint32(16*len(lengths)), u32At(output, indexStart+4))

	expectedOffset := uint32(4)
	for i, p := range padded {
		entry := indexStart + 8 + 16*i
		assert.Equal(t, []byte("00dc"), output[entry:entry+4])
		assert.Equal(t, uint32(IndexKeyFrame), u32At(output, entry+4))
		assert.Equal(t, expectedOffset, u32At(output, entry+8))
		assert.Equal(t, p, u32At(output, entry+12))
		expectedOffset += 8 + p
	}
	assert.Equal(t, uint32(len(lengths)), u32At(output, offTotalFrames))
	assert.Equal(t, 4+moviContent, u32At(output, offMoviSize))
}

func TestWriterClosed(t *testing.T) {
	buf := &writeSeekBuffer{}
	w, err := NewWriter(buf, &WriterOptions{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	require.NoError(t, w.WriteFrame(make([]byte, 100)))
	require.NoError(t, w.Close())

	written := len(buf.Bytes())
	assert.ErrorIs(t, w.WriteFrame(make([]byte, 100)), ErrWriterClosed)
	assert.ErrorIs(t, w.WriteFrameBuffers(make([]byte, 100)), ErrWriterClosed)
	assert.ErrorIs(t, w.Close(), ErrWriterClosed)
	assert.Equal(t, written, len(buf.Bytes()), "no bytes written after close")
	assert.Equal(t, uint32(1), w.FrameCount())
}

func TestWriterFrameCountLimit(t *testing.T) {
	w, err := NewWriter(&discardSeeker{}, &WriterOptions{Width: 16, Height: 16, FPS: 30})
	require.NoError(t, err)
	frame := []byte{0xFF, 0xD8}
	for i := 0; i < MaxFrameCount; i++ {
		require.NoError(t, w.WriteFrame(frame))
	}
	assert.ErrorIs(t, w.WriteFrame(frame), ErrFrameCountExceeded)
	assert.Equal(t, uint32(MaxFrameCount), w.FrameCount())
	require.NoError(t, w.Close())
}

func TestWriterFileSizeLimit(t *testing.T) {
	w, err := NewWriter(&discardSeeker{}, &WriterOptions{Width: 1920, Height: 1080, FPS: 30})
	require.NoError(t, err)
	frame := make([]byte, 64*1024*1024)
	perFrame := uint64(len(frame)) + 8 + 16
	appended := 0
	for {
		err := w.WriteFrame(frame)
		if err != nil {
			assert.ErrorIs(t, err, ErrFileSizeExceeded)
			break
		}
		appended++
	}
	assert.Equal(t, (MaxFileSize-headerSize)/perFrame, uint64(appended))
	assert.LessOrEqual(t, w.EstimatedSize(), uint64(MaxFileSize))
	require.NoError(t, w.Close())
	assert.Equal(t, uint32(appended), w.FrameCount())
}

func TestWriterSinkErrors(t *testing.T) {
	t.Run("header write failure", func(t *testing.T) {
		w, err := NewWriter(&failingWriteSeeker{}, &WriterOptions{Width: 320, Height: 240, FPS: 30})
		assert.ErrorIs(t, err, errSinkFailed)
		assert.Nil(t, w)
	})
	t.Run("frame write failure", func(t *testing.T) {
		w, err := NewWriter(&failingWriteSeeker{n: 1}, &WriterOptions{Width: 320, Height: 240, FPS: 30})
		require.NoError(t, err)
		err = w.WriteFrame(make([]byte, 100))
		assert.ErrorIs(t, err, errSinkFailed)
		assert.Equal(t, uint32(0), w.FrameCount(), "failed append is not recorded")
	})
	t.Run("finalize failure", func(t *testing.T) {
		w, err := NewWriter(&failingWriteSeeker{n: 3}, &WriterOptions{Width: 320, Height: 240, FPS: 30})
		require.NoError(t, err)
		require.NoError(t, w.WriteFrame(make([]byte, 10)))
		assert.ErrorIs(t, w.Close(), errSinkFailed)
		assert.ErrorIs(t, w.Close(), ErrWriterClosed, "a failed close is still terminal")
	})
}

func TestWriterEstimatedSize(t *testing.T) {
	buf := &writeSeekBuffer{}
	w, err := NewWriter(buf, &WriterOptions{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	assert.Equal(t, uint64(headerSize), w.EstimatedSize())
	require.NoError(t, w.WriteFrame(make([]byte, 100)))
	assert.Equal(t, uint64(headerSize+8+100+16), w.EstimatedSize())
	require.NoError(t, w.WriteFrame(make([]byte, 101)))
	assert.Equal(t, uint64(headerSize+124+8+102+16), w.EstimatedSize())
}

func TestWriterEmptyFile(t *testing.T) {
	buf := &writeSeekBuffer{}
	w, err := NewWriter(buf, &WriterOptions{Width: 320, Height: 240, FPS: 30})
	require.NoError(t, err)
	require.NoError(t, w.Close())

	output := buf.Bytes()
	require.Equal(t, headerSize+8, len(output))
	assert.Equal(t, uint32(headerSize), u32At(output, offRIFFSize))
	assert.Equal(t, uint32(0), u32At(output, offTotalFrames))
	assert.Equal(t, uint32(4), u32At(output, offMoviSize))
	assert.Equal(t, []byte("idx1"), output[256:260])
	assert.Equal(t, uint32(0), u32At(output, 260))
}

func BenchmarkWriteFrame(b *testing.B) {
	frame := make([]byte, 64*1024)
	opts := &WriterOptions{Width: 1280, Height: 720, FPS: 30}
	// rotate writers as they fill so long benchmark runs never hit the
	// 2 GiB ceiling
	write := func(b *testing.B, w *Writer, append func(w *Writer) error) *Writer {
		err := append(w)
		if errors.Is(err, ErrFileSizeExceeded) {
			w, err = NewWriter(&discardSeeker{}, opts)
			if err == nil {
				err = append(w)
			}
		}
		if err != nil {
			b.Fatal(err)
		}
		return w
	}
	b.Run("single buffer", func(b *testing.B) {
		w, err := NewWriter(&discardSeeker{}, opts)
		if err != nil {
			b.Fatal(err)
		}
		b.SetBytes(int64(len(frame)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			w = write(b, w, func(w *Writer) error {
				return w.WriteFrame(frame)
			})
		}
	})
	b.Run("vectored", func(b *testing.B) {
		w, err := NewWriter(&discardSeeker{}, opts)
		if err != nil {
			b.Fatal(err)
		}
		b.SetBytes(int64(len(frame)))
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			w = write(b, w, func(w *Writer) error {
				return w.WriteFrameBuffers(frame[:16384], frame[16384:])
			})
		}
	})
}
