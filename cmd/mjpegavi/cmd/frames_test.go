package cmd

import (
	"bytes"
	"os"
	"testing"

	"github.com/nodamushi/mjpegavi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintFrames(t *testing.T) {
	path := writeTestAVI(t, jpegFrame(100), jpegFrame(101))
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	reader, err := mjpegavi.NewReader(f)
	require.NoError(t, err)
	info, err := reader.Info()
	require.NoError(t, err)

	w := new(bytes.Buffer)
	printFrames(w, info)
	out := w.String()
	assert.Contains(t, out, "chunk id")
	assert.Contains(t, out, "00dc")
	// the second frame sits after the first frame's 108-byte chunk
	assert.Contains(t, out, "112")
	assert.Contains(t, out, "true")
}
