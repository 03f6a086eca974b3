package cmd

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"os"
	"strings"

	"github.com/nodamushi/mjpegavi"
	"github.com/nodamushi/mjpegavi/cmd/mjpegavi/utils"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

func humanBytes(numBytes uint64) string {
	value := float64(numBytes)
	for _, unit := range []string{"B", "KiB", "MiB"} {
		if value <= 1024 {
			return fmt.Sprintf("%.2f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.2f GiB", value)
}

func printInfo(w io.Writer, info *mjpegavi.Info) error {
	buf := &bytes.Buffer{}

	rows := [][]string{
		{"duration:", info.Duration().String()},
		{"frames:", fmt.Sprintf("%d", info.FrameCount)},
	}
	if fps := info.FPS(); fps > 0 {
		rows = append(rows, []string{"fps:", fmt.Sprintf("%d", fps)})
	}
	if info.Main != nil {
		rows = append(rows, []string{"dimensions:", fmt.Sprintf("%dx%d", info.Main.Width, info.Main.Height)})
	}
	if info.Stream != nil {
		rows = append(rows, []string{"stream:", fmt.Sprintf("%s/%s", info.Stream.Type, info.Stream.Handler)})
	}
	if info.Format != nil {
		rows = append(rows, []string{"format:", fmt.Sprintf("%s %d-bit", info.Format.Compression, info.Format.BitCount)})
	}
	rows = append(rows,
		[]string{"size:", humanBytes(uint64(info.RIFFSize) + 8)},
		[]string{"movi:", fmt.Sprintf("%s at offset %d", humanBytes(uint64(info.MoviSize)), info.MoviOffset)},
	)
	if info.Index != nil {
		rows = append(rows, []string{"index:", fmt.Sprintf("%d entries", len(info.Index))})
	} else {
		rows = append(rows, []string{"index:", "none"})
	}
	if err := printSummaryRows(buf, rows); err != nil {
		return err
	}
	if len(info.Index) > 0 {
		var largest, total uint64
		smallest := uint64(math.MaxUint64)
		for _, entry := range info.Index {
			total += uint64(entry.Size)
			if uint64(entry.Size) > largest {
				largest = uint64(entry.Size)
			}
			if uint64(entry.Size) < smallest {
				smallest = uint64(entry.Size)
			}
		}
		fmt.Fprintf(buf, "frame sizes:\n")
		fmt.Fprintf(buf, "\tsmallest: %s\n", humanBytes(smallest))
		fmt.Fprintf(buf, "\tlargest: %s\n", humanBytes(largest))
		fmt.Fprintf(buf, "\taverage: %s\n", humanBytes(total/uint64(len(info.Index))))
	}
	_, err := buf.WriteTo(w)
	return err
}

// printSummaryRows renders field/value pairs as a borderless two-column
// table, aligned but without headers.
func printSummaryRows(w io.Writer, rows [][]string) error {
	buf := &bytes.Buffer{}
	tw := tablewriter.NewWriter(buf)
	tw.SetBorder(false)
	tw.SetAutoWrapText(false)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetColumnSeparator("")
	tw.AppendBulk(rows)
	tw.Render()
	// tablewriter indents every rendered line with one space; strip it.
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if _, err := fmt.Fprintln(w, strings.TrimPrefix(line, " ")); err != nil {
			return err
		}
	}
	return nil
}

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Report statistics about an MJPEG AVI file",
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
			err = printInfo(os.Stdout, info)
			if err != nil {
				return fmt.Errorf("failed to print info: %w", err)
			}
			return nil
		})
		if err != nil {
			die("Failed to read file %s: %v", filename, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(infoCmd)
}
