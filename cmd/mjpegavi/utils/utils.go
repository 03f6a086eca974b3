package utils

import (
	"context"
	"io"
	"strings"

	"github.com/nodamushi/mjpegavi/cmd/mjpegavi/utils/readers"
	"github.com/olekukonko/tablewriter"
)

// GetScheme splits a remote object URL into scheme, bucket, and key.
// Anything that does not look like scheme://bucket/key comes back as a
// plain local path with an empty scheme.
func GetScheme(filename string) (string, string, string) {
	scheme, rest, ok := strings.Cut(filename, "://")
	if !ok || scheme == "" {
		return "", "", filename
	}
	bucket, key, ok := strings.Cut(rest, "/")
	if !ok || bucket == "" {
		return "", "", filename
	}
	return scheme, bucket, key
}

// WithReader runs f with a ReadSeeker over the named file, which may be a
// local path or a gs:// or s3:// URL.
func WithReader(ctx context.Context, filename string, f func(remote bool, rs io.ReadSeeker) error) error {
	scheme, bucket, path := GetScheme(filename)
	return readers.WithReader(ctx, scheme, bucket, path, f)
}

// FormatTable renders rows as a borderless table. The first row is the
// header.
func FormatTable(w io.Writer, rows [][]string) {
	tw := tablewriter.NewWriter(w)
	tw.SetBorder(false)
	tw.SetAutoWrapText(false)
	tw.SetAutoFormatHeaders(false)
	tw.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	tw.SetAlignment(tablewriter.ALIGN_LEFT)
	tw.SetHeaderLine(false)
	tw.SetColumnSeparator("")
	tw.SetHeader(rows[0])
	tw.AppendBulk(rows[1:])
	tw.Render()
}
