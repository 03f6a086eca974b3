package cmd

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	"github.com/nodamushi/mjpegavi"
	"github.com/spf13/cobra"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	generateFrames uint32
	generateFPS    uint32
	generateWidth  uint32
	generateHeight uint32
)

// drawTestFrame paints a red circle on a white background with the frame
// number stamped in the corner.
func drawTestFrame(img *image.RGBA, circleX, frameIndex int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	centerY := height / 2
	const radius = 20

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx := x - circleX
			dy := y - centerY
			if dx*dx+dy*dy <= radius*radius {
				img.SetRGBA(x, y, color.RGBA{255, 0, 0, 255})
			} else {
				img.SetRGBA(x, y, color.RGBA{255, 255, 255, 255})
			}
		}
	}

	drawer := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(8, height-8),
	}
	drawer.DrawString(fmt.Sprintf("%06d", frameIndex))
}

var generateCmd = &cobra.Command{
	Use:   "generate <output.avi>",
	Short: "Generate a synthetic MJPEG AVI test clip",
	Long: `Generate a synthetic MJPEG AVI test clip: a red circle moving left to
right over a white background, with a frame counter stamped in the corner.`,
	Run: func(_ *cobra.Command, args []string) {
		if len(args) != 1 {
			die("Unexpected number of args")
		}
		if generateFrames == 0 {
			die("frames must be nonzero")
		}
		output := args[0]

		out, err := os.Create(output)
		if err != nil {
			die("failed to create output file: %s", err)
		}
		writer, err := mjpegavi.NewWriter(out, &mjpegavi.WriterOptions{
			Width:  generateWidth,
			Height: generateHeight,
			FPS:    generateFPS,
		})
		if err != nil {
			die("failed to create writer: %s", err)
		}

		width, height := int(generateWidth), int(generateHeight)
		img := image.NewRGBA(image.Rect(0, 0, width, height))
		encoded := &bytes.Buffer{}
		frames := int(generateFrames)
		for i := 0; i < frames; i++ {
			circleX := 0
			if frames > 1 {
				circleX = i * (width - 40) / (frames - 1)
			}
			drawTestFrame(img, circleX, i)
			encoded.Reset()
			if err := jpeg.Encode(encoded, img, &jpeg.Options{Quality: 95}); err != nil {
				die("failed to encode frame %d: %s", i, err)
			}
			if err := writer.WriteFrame(encoded.Bytes()); err != nil {
				die("failed to append frame %d: %s", i, err)
			}
		}
		if err := writer.Close(); err != nil {
			die("failed to finalize %s: %s", output, err)
		}
		if err := out.Close(); err != nil {
			die("failed to close %s: %s", output, err)
		}
	},
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.PersistentFlags().Uint32VarP(&generateFrames, "frames", "n", 120, "number of frames to generate")
	generateCmd.PersistentFlags().Uint32VarP(&generateFPS, "fps", "", 30, "frame rate of the output")
	generateCmd.PersistentFlags().Uint32VarP(&generateWidth, "width", "", 320, "frame width")
	generateCmd.PersistentFlags().Uint32VarP(&generateHeight, "height", "", 240, "frame height")
}
