package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image/jpeg"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/nodamushi/mjpegavi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	recordFPS      uint32
	recordWidth    uint32
	recordHeight   uint32
	recordFrames   uint32
	recordDuration time.Duration
)

// streamRecorder appends frames from a live stream, deferring writer
// construction until the first frame so dimensions can default from its JPEG
// markers.
type streamRecorder struct {
	out    io.WriteSeeker
	writer *mjpegavi.ContextWriter

	fps    uint32
	width  uint32
	height uint32
}

func (r *streamRecorder) add(ctx context.Context, fragments ...[]byte) error {
	if r.writer == nil {
		width, height := r.width, r.height
		if width == 0 || height == 0 {
			readers := make([]io.Reader, len(fragments))
			for i, fragment := range fragments {
				readers[i] = bytes.NewReader(fragment)
			}
			config, err := jpeg.DecodeConfig(io.MultiReader(readers...))
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
		writer, err := mjpegavi.NewContextWriter(ctx, mjpegavi.NewContextSink(r.out), &mjpegavi.WriterOptions{
			Width:  width,
			Height: height,
			FPS:    r.fps,
		})
		if err != nil {
			return err
		}
		r.writer = writer
	}
	return r.writer.WriteFrameBuffers(ctx, fragments...)
}

// finish completes the container on a fresh context, so the interrupt that
// stopped the capture does not also abort the finalize.
func (r *streamRecorder) finish() error {
	if r.writer == nil {
		return errors.New("no frames received from stream")
	}
	return r.writer.Close(context.Background())
}

// readFragments reads r to EOF as a list of fixed-size fragments, so a frame
// can be handed to the writer without concatenating it first.
func readFragments(r io.Reader) ([][]byte, error) {
	var fragments [][]byte
	for {
		buf := make([]byte, 64*1024)
		n, err := io.ReadFull(r, buf)
		if n > 0 {
			fragments = append(fragments, buf[:n])
		}
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return fragments, nil
		}
		if err != nil {
			return nil, err
		}
	}
}

func recordStream(ctx context.Context, recorder *streamRecorder, url string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to connect to stream: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("stream returned status %s", resp.Status)
	}
	mediaType, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		return fmt.Errorf("failed to parse stream content type: %w", err)
	}
	if mediaType != "multipart/x-mixed-replace" {
		return fmt.Errorf("expected a multipart/x-mixed-replace stream, got %s", mediaType)
	}
	boundary := params["boundary"]
	if boundary == "" {
		return errors.New("stream content type is missing a boundary")
	}

	bar := progressbar.Default(-1, "recording frames")
	parts := multipart.NewReader(resp.Body, boundary)
	var frames uint32
	for {
		part, err := parts.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			// Cancellation surfaces as a read error on the response body.
			if ctx.Err() != nil {
				break
			}
			if frames > 0 {
				color.Yellow("stream ended: %s", err)
				break
			}
			return fmt.Errorf("failed to read stream part: %w", err)
		}
		if contentType := part.Header.Get("Content-Type"); contentType != "" && contentType != "image/jpeg" {
			continue
		}
		fragments, err := readFragments(part)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("failed to read frame: %w", err)
		}
		if len(fragments) == 0 {
			continue
		}
		if err := recorder.add(ctx, fragments...); err != nil {
			if ctx.Err() != nil {
				break
			}
			return fmt.Errorf("failed to append frame: %w", err)
		}
		frames++
		_ = bar.Add(1)
		if recordFrames > 0 && frames >= recordFrames {
			break
		}
	}
	return bar.Finish()
}

var recordCmd = &cobra.Command{
	Use:   "record <url> <output.avi>",
	Short: "Record an HTTP MJPEG stream to an AVI file",
	Long: `Record a live multipart/x-mixed-replace MJPEG stream, the format served
by most IP cameras, into an MJPEG AVI file. Recording runs until the
stream ends, --duration elapses, or the process is interrupted; the
frames captured up to that point are finalized into a playable file.`,
	Run: func(_ *cobra.Command, args []string) {
		if len(args) != 2 {
			die("Unexpected number of args")
		}
		url, output := args[0], args[1]
		if recordFPS == 0 {
			die("fps must be nonzero")
		}

		ctx := context.Background()
		var cancel context.CancelFunc
		if recordDuration > 0 {
			ctx, cancel = context.WithTimeout(ctx, recordDuration)
		} else {
			ctx, cancel = context.WithCancel(ctx)
		}
		defer cancel()
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			<-sigs
			color.Yellow("interrupted, finalizing %s", output)
			cancel()
		}()

		out, err := os.Create(output)
		if err != nil {
			die("failed to create output file: %s", err)
		}
		recorder := &streamRecorder{
			out:    out,
			fps:    recordFPS,
			width:  recordWidth,
			height: recordHeight,
		}
		err = recordStream(ctx, recorder, url)
		if err == nil {
			err = recorder.finish()
		}
		if closeErr := out.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			die("failed to record %s: %s", output, err)
		}
		fmt.Printf("recorded %d frames to %s\n", recorder.writer.FrameCount(), output)
	},
}

func init() {
	rootCmd.AddCommand(recordCmd)
	recordCmd.PersistentFlags().Uint32VarP(&recordFPS, "fps", "", 30, "frame rate to declare in the output")
	recordCmd.PersistentFlags().Uint32VarP(&recordWidth, "width", "", 0, "frame width (defaults to the first frame's width)")
	recordCmd.PersistentFlags().Uint32VarP(&recordHeight, "height", "", 0, "frame height (defaults to the first frame's height)")
	recordCmd.PersistentFlags().Uint32VarP(&recordFrames, "frames", "", 0, "stop after this many frames (0 records until interrupted)")
	recordCmd.PersistentFlags().DurationVarP(&recordDuration, "duration", "", 0, "stop after this long (0 records until interrupted)")
}
