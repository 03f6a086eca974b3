package cmd

import (
	"archive/tar"
	"bytes"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/nodamushi/mjpegavi"
	"github.com/pierrec/lz4/v4"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	createFPS    uint32
	createWidth  uint32
	createHeight uint32
)

// aviBuilder defers writer construction until the first frame, so dimensions
// can default from the frame's own JPEG markers.
type aviBuilder struct {
	out    io.WriteSeeker
	writer *mjpegavi.Writer

	fps    uint32
	width  uint32
	height uint32
}

func (b *aviBuilder) add(frame []byte) error {
	if b.writer == nil {
		width, height := b.width, b.height
		if width == 0 || height == 0 {
			config, err := jpeg.DecodeConfig(bytes.NewReader(frame))
			if err != nil {
				return fmt.Errorf("failed to decode frame dimensions: %w", err)
			}
			if width == 0 {
				width = uint32(config.Width)
			}
			if height == 0 {
				height = uint32(config.Height)
			}
		}
		writer, err := mjpegavi.NewWriter(b.out, &mjpegavi.WriterOptions{
			Width:  width,
			Height: height,
			FPS:    b.fps,
		})
		if err != nil {
			return err
		}
		b.writer = writer
	}
	return b.writer.WriteFrame(frame)
}

func (b *aviBuilder) finish() error {
	if b.writer == nil {
		return errors.New("no JPEG frames found in input")
	}
	return b.writer.Close()
}

func isJPEGName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".jpg", ".jpeg":
		return true
	}
	return false
}

func createFromDir(builder *aviBuilder, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read input directory: %w", err)
	}
	frames := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Type().IsRegular() && isJPEGName(entry.Name()) {
			frames = append(frames, entry.Name())
		}
	}
	bar := progressbar.Default(int64(len(frames)), "writing frames")
	for _, name := range frames {
		frame, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return fmt.Errorf("failed to read frame %s: %w", name, err)
		}
		if err := builder.add(frame); err != nil {
			return fmt.Errorf("failed to append frame %s: %w", name, err)
		}
		_ = bar.Add(1)
	}
	return bar.Finish()
}

// openArchive wraps f in the decompressor the archive name calls for.
func openArchive(f *os.File, name string) (io.Reader, func() error, error) {
	noop := func() error { return nil }
	switch {
	case strings.HasSuffix(name, ".tar"):
		return f, noop, nil
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		zr, err := gzip.NewReader(f)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open gzip archive: %w", err)
		}
		return zr, zr.Close, nil
	case strings.HasSuffix(name, ".tar.zst"):
		zr, err := zstd.NewReader(f)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to open zstd archive: %w", err)
		}
		return zr, func() error { zr.Close(); return nil }, nil
	case strings.HasSuffix(name, ".tar.lz4"):
		return lz4.NewReader(f), noop, nil
	}
	return nil, noop, fmt.Errorf("unsupported input %s: expected a directory or a .tar[.gz|.zst|.lz4] archive", name)
}

func createFromArchive(builder *aviBuilder, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open archive: %w", err)
	}
	defer f.Close()
	archive, closeArchive, err := openArchive(f, path)
	if err != nil {
		return err
	}
	defer func() {
		_ = closeArchive()
	}()

	bar := progressbar.Default(-1, "writing frames")
	tr := tar.NewReader(archive)
	for {
		header, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read archive entry: %w", err)
		}
		if header.Typeflag != tar.TypeReg || !isJPEGName(header.Name) {
			continue
		}
		frame, err := io.ReadAll(tr)
		if err != nil {
			return fmt.Errorf("failed to read frame %s: %w", header.Name, err)
		}
		if err := builder.add(frame); err != nil {
			return fmt.Errorf("failed to append frame %s: %w", header.Name, err)
		}
		_ = bar.Add(1)
	}
	return bar.Finish()
}

var createCmd = &cobra.Command{
	Use:   "create <input> <output.avi>",
	Short: "Create an MJPEG AVI file from JPEG frames",
	Long: `Create an MJPEG AVI file from JPEG frames. The input may be a directory
of .jpg/.jpeg files (appended in name order) or a tar archive, optionally
compressed: .tar, .tar.gz, .tgz, .tar.zst, or .tar.lz4.`,
	Run: func(_ *cobra.Command, args []string) {
		if len(args) != 2 {
			die("Unexpected number of args")
		}
		input, output := args[0], args[1]
		if createFPS == 0 {
			die("fps must be nonzero")
		}

		out, err := os.Create(output)
		if err != nil {
			die("failed to create output file: %s", err)
		}
		builder := &aviBuilder{
			out:    out,
			fps:    createFPS,
			width:  createWidth,
			height: createHeight,
		}

		stat, err := os.Stat(input)
		if err != nil {
			die("failed to stat input: %s", err)
		}
		if stat.IsDir() {
			err = createFromDir(builder, input)
		} else {
			err = createFromArchive(builder, input)
		}
		if err == nil {
			err = builder.finish()
		}
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			die("failed to create %s: %s", output, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(createCmd)
	createCmd.PersistentFlags().Uint32VarP(&createFPS, "fps", "", 30, "frame rate of the output")
	createCmd.PersistentFlags().Uint32VarP(&createWidth, "width", "", 0, "frame width (defaults to the first frame's width)")
	createCmd.PersistentFlags().Uint32VarP(&createHeight, "height", "", 0, "frame height (defaults to the first frame's height)")
}
