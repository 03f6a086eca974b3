package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimPadding(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		out  []byte
	}{
		{"even frame untouched", []byte{0xFF, 0xD8, 0xFF, 0xD9}, []byte{0xFF, 0xD8, 0xFF, 0xD9}},
		{"padding after EOI trimmed", []byte{0xFF, 0xD8, 0x00, 0xFF, 0xD9, 0x00}, []byte{0xFF, 0xD8, 0x00, 0xFF, 0xD9}},
		{"trailing zero inside the stream kept", []byte{0xFF, 0xD8, 0x00}, []byte{0xFF, 0xD8, 0x00}},
		{"short data kept", []byte{0x00}, []byte{0x00}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.out, trimPadding(c.in))
		})
	}
}

func TestExtractFrames(t *testing.T) {
	frames := [][]byte{jpegFrame(100), jpegFrame(101)}
	path := writeTestAVI(t, frames...)

	outDir := t.TempDir()
	require.NoError(t, extractFrames(context.Background(), path, outDir))
	for i, want := range frames {
		got, err := os.ReadFile(filepath.Join(outDir, fmt.Sprintf("frame-%06d.jpg", i)))
		require.NoError(t, err)
		// the odd frame's padding byte is trimmed back off
		assert.Equal(t, want, got, "frame %d", i)
	}
}
