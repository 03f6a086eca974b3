package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/nodamushi/mjpegavi"
	"github.com/nodamushi/mjpegavi/cmd/mjpegavi/utils"
	"github.com/spf13/cobra"
)

func printFrames(w io.Writer, info *mjpegavi.Info) {
	rows := make([][]string, 0, len(info.Index)+1)
	rows = append(rows, []string{
		"frame",
		"chunk id",
		"offset",
		"absolute offset",
		"size",
		"keyframe",
	})
	for i, entry := range info.Index {
		row := []string{
			fmt.Sprintf("%d", i),
			entry.ChunkID.String(),
			fmt.Sprintf("%d", entry.Offset),
			fmt.Sprintf("%d", info.MoviOffset+8+int64(entry.Offset)),
			fmt.Sprintf("%d", entry.Size),
			fmt.Sprintf("%v", entry.Flags&mjpegavi.IndexKeyFrame != 0),
		}
		rows = append(rows, row)
	}
	utils.FormatTable(w, rows)
}

// framesCmd represents the frames command
var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "List frame index entries in an MJPEG AVI file",
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		if len(args) != 1 {
			die("Unexpected number of args")
		}
		filename := args[0]
		err := utils.WithReader(ctx, filename, func(_ bool, rs io.ReadSeeker) error {
			reader, err := mjpegavi.NewReader(rs)
			if err != nil {
				return fmt.Errorf("failed to get reader: %w", err)
			}
			info, err := reader.Info()
			if err != nil {
				return fmt.Errorf("failed to get info: %w", err)
			}
			if info.Index == nil {
				return fmt.Errorf("file has no index")
			}
			printFrames(os.Stdout, info)
			return nil
		})
		if err != nil {
			die("Failed to list frames: %s", err)
		}
	},
}

func init() {
	listCmd.AddCommand(framesCmd)
}
