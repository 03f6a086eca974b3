package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/nodamushi/mjpegavi"
	"github.com/nodamushi/mjpegavi/cmd/mjpegavi/utils"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// trimPadding drops the final zero byte the container adds to odd payloads,
// but only when the bytes before it end the JPEG stream.
func trimPadding(data []byte) []byte {
	n := len(data)
	if n >= 3 && data[n-1] == 0 && data[n-3] == 0xFF && data[n-2] == 0xD9 {
		return data[:n-1]
	}
	return data
}

func extractFrames(ctx context.Context, filename, outDir string) error {
	return utils.WithReader(ctx, filename, func(_ bool, rs io.ReadSeeker) error {
		reader, err := mjpegavi.NewReader(rs)
		if err != nil {
			return fmt.Errorf("failed to get reader: %w", err)
		}
		info, err := reader.Info()
		if err != nil {
			return fmt.Errorf("failed to get info: %w", err)
		}
		frames, err := reader.Frames()
		if err != nil {
			return fmt.Errorf("failed to open frame iterator: %w", err)
		}

		bar := progressbar.Default(int64(info.FrameCount), "extracting frames")
		buf := make([]byte, 1024*1024)
		for i := 0; ; i++ {
			frame, err := frames.Next(buf)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return fmt.Errorf("failed to read frame %d: %w", i, err)
			}
			if cap(frame.Data) > len(buf) {
				buf = frame.Data[:cap(frame.Data)]
			}
			name := filepath.Join(outDir, fmt.Sprintf("frame-%06d.jpg", i))
			if err := os.WriteFile(name, trimPadding(frame.Data), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", name, err)
			}
			_ = bar.Add(1)
		}
		return bar.Finish()
	})
}

var extractCmd = &cobra.Command{
	Use:   "extract <file> <output-dir>",
	Short: "Extract the frames of an MJPEG AVI file as JPEG images",
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		if len(args) != 2 {
			die("Unexpected number of args")
		}
		filename, outDir := args[0], args[1]
		if err := os.MkdirAll(outDir, 0755); err != nil {
			die("failed to create output directory: %s", err)
		}
		if err := extractFrames(ctx, filename, outDir); err != nil {
			die("Failed to extract frames: %s", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
}
