package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/gen2brain/mpeg2"
)

// Info prints the sequence parameters of the input and counts its frames by type.
func Info(name string, cfg mpeg2.Config, stdout io.Writer) error {
	var seq mpeg2.Sequence
	var gop mpeg2.GOP
	counts := make(map[mpeg2.PictureType]int)
	total := 0

	err := decodeFrames(name, cfg, func(v *mpeg2.Video, f *mpeg2.Frame) error {
		if total == 0 {
			seq = v.Sequence()
		}
		gop = v.GOP()
		counts[f.Type]++
		total++
		return nil
	})
	if err != nil {
		return err
	}

	standard := "MPEG-1"
	if seq.MPEG2 {
		standard = "MPEG-2"
	}

	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Format\t%s\n", standard)
	fmt.Fprintf(tw, "Size\t%dx%d\n", seq.Width, seq.Height)
	if seq.DisplayWidth > 0 {
		fmt.Fprintf(tw, "Display size\t%dx%d\n", seq.DisplayWidth, seq.DisplayHeight)
	}
	fmt.Fprintf(tw, "Frame rate\t%.3f\n", seq.FrameRate())
	fmt.Fprintf(tw, "Aspect ratio\t%.4f\n", seq.AspectRatio())
	fmt.Fprintf(tw, "Bit rate\t%d\n", seq.BitRate*400)
	if seq.MPEG2 {
		fmt.Fprintf(tw, "Profile/level\t0x%02x\n", seq.ProfileLevel)
		fmt.Fprintf(tw, "Progressive\t%t\n", seq.Progressive)
	}
	fmt.Fprintf(tw, "Last GOP\t%02d:%02d:%02d.%02d closed=%t\n", gop.Hours, gop.Minutes, gop.Seconds, gop.Pictures, gop.Closed)
	fmt.Fprintf(tw, "Frames\t%d (I %d, P %d, B %d, D %d)\n", total,
		counts[mpeg2.PictureI], counts[mpeg2.PictureP], counts[mpeg2.PictureB], counts[mpeg2.PictureD])

	return tw.Flush()
}
