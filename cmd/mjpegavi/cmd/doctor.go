package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/fatih/color"
	"github.com/nodamushi/mjpegavi"
	"github.com/nodamushi/mjpegavi/cmd/mjpegavi/utils"
	"github.com/spf13/cobra"
)

type scannedFrame struct {
	// offset relative to the start of the movi list data, the idx1 convention
	offset uint32
	size   uint32
}

type aviDoctor struct {
	reader io.ReadSeeker

	main   *mjpegavi.MainHeader
	stream *mjpegavi.StreamHeader
	format *mjpegavi.BitmapInfo

	errorCount int
	warnCount  int
}

func (doctor *aviDoctor) warn(format string, v ...any) {
	doctor.warnCount++
	color.Yellow(format, v...)
}

func (doctor *aviDoctor) error(format string, v ...any) {
	doctor.errorCount++
	color.Red(format, v...)
}

func (doctor *aviDoctor) Examine() error {
	fileSize, err := doctor.reader.Seek(0, io.SeekEnd)
	if err != nil {
		return fmt.Errorf("failed to measure file size: %w", err)
	}
	if _, err := doctor.reader.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to file start: %w", err)
	}
	lexer, err := mjpegavi.NewLexer(doctor.reader)
	if err != nil {
		return err
	}

	var riffSize uint32
	var moviOffset int64
	var moviSize uint32
	var moviSeen bool
	var moviContent uint64
	var dmlhTotal uint32
	var dmlhSeen bool
	var index []mjpegavi.IndexEntry
	var indexSeen bool
	var frames []scannedFrame

	buf := make([]byte, 1024)
	for {
		token, data, err := lexer.Next(buf)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var truncated *mjpegavi.ErrTruncatedChunk
			if errors.As(err, &truncated) {
				doctor.error("File is truncated: %s", err)
				break
			}
			return fmt.Errorf("failed to read element: %w", err)
		}
		if cap(data) > len(buf) {
			buf = data[:cap(data)]
		}
		switch token.Type {
		case mjpegavi.TokenRIFF:
			riffSize = token.Size
		case mjpegavi.TokenList:
			switch token.ListType {
			case mjpegavi.FourCCMovi:
				if moviSeen {
					doctor.error("Multiple movi lists found")
				}
				moviSeen = true
				moviOffset = token.Offset
				moviSize = token.Size
			case mjpegavi.FourCCStrl:
				if doctor.stream != nil {
					doctor.warn("Multiple streams found, only the first is checked")
				}
			}
		case mjpegavi.TokenChunk:
			switch token.ID {
			case mjpegavi.FourCCAvih:
				if doctor.main != nil {
					doctor.error("Multiple avih chunks found")
				}
				main, err := mjpegavi.ParseMainHeader(data)
				if err != nil {
					doctor.error("Failed to parse avih: %s", err)
					continue
				}
				doctor.main = main
			case mjpegavi.FourCCStrh:
				if doctor.stream != nil {
					continue
				}
				stream, err := mjpegavi.ParseStreamHeader(data)
				if err != nil {
					doctor.error("Failed to parse strh: %s", err)
					continue
				}
				doctor.stream = stream
			case mjpegavi.FourCCStrf:
				if doctor.format != nil {
					continue
				}
				format, err := mjpegavi.ParseBitmapInfo(data)
				if err != nil {
					doctor.error("Failed to parse strf: %s", err)
					continue
				}
				doctor.format = format
			case mjpegavi.FourCCDmlh:
				total, err := mjpegavi.ParseExtendedHeader(data)
				if err != nil {
					doctor.error("Failed to parse dmlh: %s", err)
					continue
				}
				dmlhSeen = true
				dmlhTotal = total
			case mjpegavi.FourCCFrame:
				if !moviSeen {
					doctor.error("Frame chunk at offset %d outside the movi list", token.Offset)
					continue
				}
				if token.Size%2 != 0 {
					doctor.warn("Frame %d declares an odd size %d", len(frames), token.Size)
				}
				if len(data) < 2 || data[0] != 0xFF || data[1] != 0xD8 {
					doctor.warn("Frame %d does not begin with a JPEG SOI marker", len(frames))
				}
				frames = append(frames, scannedFrame{
					offset: uint32(token.Offset - (moviOffset + 8)),
					size:   token.Size,
				})
				moviContent += 8 + uint64(token.Size) + uint64(token.Size%2)
			case mjpegavi.FourCCIdx1:
				if indexSeen {
					doctor.error("Multiple idx1 chunks found")
				}
				indexSeen = true
				index, err = mjpegavi.ParseIndex(data)
				if err != nil {
					doctor.error("Failed to parse idx1: %s", err)
				}
			}
		}
	}

	doctor.checkHeaders(dmlhSeen, dmlhTotal, uint32(len(frames)))
	doctor.checkSizes(fileSize, riffSize, moviSeen, moviSize, moviContent)
	doctor.checkIndex(indexSeen, index, frames)

	if doctor.errorCount > 0 {
		return fmt.Errorf("encountered %d errors", doctor.errorCount)
	}
	return nil
}

func (doctor *aviDoctor) checkHeaders(dmlhSeen bool, dmlhTotal, frameCount uint32) {
	if doctor.main == nil {
		doctor.error("Missing avih header")
		return
	}
	if doctor.stream == nil {
		doctor.error("Missing strh header")
	} else {
		if doctor.stream.Type != mjpegavi.FourCCVids {
			doctor.error("Stream type is %q, expected %q", doctor.stream.Type, mjpegavi.FourCCVids)
		}
		if doctor.stream.Handler != mjpegavi.FourCCMJPG {
			doctor.error("Stream handler is %q, expected %q", doctor.stream.Handler, mjpegavi.FourCCMJPG)
		}
		switch {
		case doctor.stream.Scale == 0:
			doctor.warn("Stream scale is zero, frame rate is undefined")
		case doctor.main.MicroSecPerFrame != 1_000_000/doctor.stream.Scale:
			doctor.error("avih declares %d microseconds per frame but the stream scale %d implies %d",
				doctor.main.MicroSecPerFrame, doctor.stream.Scale, 1_000_000/doctor.stream.Scale)
		}
		if doctor.stream.Length != frameCount {
			doctor.error("strh declares %d frames but the movi list holds %d", doctor.stream.Length, frameCount)
		}
	}
	if doctor.format == nil {
		doctor.error("Missing strf header")
	} else {
		if doctor.format.Compression != mjpegavi.FourCCMJPG {
			doctor.error("Bitmap compression is %q, expected %q", doctor.format.Compression, mjpegavi.FourCCMJPG)
		}
		if doctor.format.Width != doctor.main.Width || doctor.format.Height != doctor.main.Height {
			doctor.error("avih dimensions %dx%d do not match strf dimensions %dx%d",
				doctor.main.Width, doctor.main.Height, doctor.format.Width, doctor.format.Height)
		}
	}
	if doctor.main.TotalFrames != frameCount {
		doctor.error("avih declares %d frames but the movi list holds %d", doctor.main.TotalFrames, frameCount)
	}
	if dmlhSeen && dmlhTotal != frameCount {
		doctor.error("dmlh declares %d frames but the movi list holds %d", dmlhTotal, frameCount)
	}
}

func (doctor *aviDoctor) checkSizes(fileSize int64, riffSize uint32, moviSeen bool, moviSize uint32, moviContent uint64) {
	if int64(riffSize)+8 != fileSize {
		doctor.error("RIFF declares %d bytes but the file holds %d", int64(riffSize)+8, fileSize)
	}
	if !moviSeen {
		doctor.error("Missing movi list")
		return
	}
	if uint64(moviSize) != 4+moviContent {
		doctor.error("movi list declares %d bytes but its chunks span %d", moviSize, 4+moviContent)
	}
}

func (doctor *aviDoctor) checkIndex(indexSeen bool, index []mjpegavi.IndexEntry, frames []scannedFrame) {
	hasIndexFlag := doctor.main != nil && doctor.main.Flags&mjpegavi.MainFlagHasIndex != 0
	if !indexSeen {
		if hasIndexFlag {
			doctor.error("avih flags promise an index but no idx1 chunk was found")
		} else {
			doctor.warn("File has no idx1 index")
		}
		return
	}
	if !hasIndexFlag {
		doctor.warn("idx1 chunk present but the avih has-index flag is unset")
	}
	if len(index) != len(frames) {
		doctor.error("idx1 holds %d entries but the movi list holds %d frames", len(index), len(frames))
		return
	}
	for i, entry := range index {
		if entry.ChunkID != mjpegavi.FourCCFrame {
			doctor.error("Index entry %d names chunk %q, expected %q", i, entry.ChunkID, mjpegavi.FourCCFrame)
		}
		if entry.Flags&mjpegavi.IndexKeyFrame == 0 {
			doctor.warn("Index entry %d is not marked as a key frame", i)
		}
		if entry.Offset != frames[i].offset {
			doctor.error("Index entry %d points at offset %d but frame %d is at offset %d",
				i, entry.Offset, i, frames[i].offset)
		}
		if entry.Size != frames[i].size {
			doctor.error("Index entry %d declares %d bytes but frame %d declares %d",
				i, entry.Size, i, frames[i].size)
		}
	}
}

func newAVIDoctor(reader io.ReadSeeker) *aviDoctor {
	return &aviDoctor{reader: reader}
}

var doctorCommand = &cobra.Command{
	Use:   "doctor <file>",
	Short: "Check an MJPEG AVI file structure",
	Run: func(_ *cobra.Command, args []string) {
		ctx := context.Background()
		if len(args) != 1 {
			die("An AVI file argument is required.")
		}
		filename := args[0]
		err := utils.WithReader(ctx, filename, func(remote bool, rs io.ReadSeeker) error {
			doctor := newAVIDoctor(rs)
			if remote {
				doctor.warn("Will read full remote file")
			}
			fmt.Printf("Examining %s\n", filename)
			return doctor.Examine()
		})
		if err != nil {
			log.Fatalf("Doctor command failed: %s", err)
		}
	},
}

func init() {
	rootCmd.AddCommand(doctorCommand)
}
