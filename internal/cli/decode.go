package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/gen2brain/mpeg2"
)

// DecodeOptions configures the decode command.
type DecodeOptions struct {
	Input  string
	Output string

	// Image selects per-frame image files; when empty a raw file in Format is written.
	Image string

	Config mpeg2.Config
	Limit  int
}

// Decode decodes opts.Input and stores the frames.
func Decode(opts DecodeOptions, stdout io.Writer) error {
	cfg := opts.Config
	if opts.Image == "" && cfg.Format == mpeg2.FormatNative {
		cfg.Format = mpeg2.FormatYUV420P
	}

	var w frameWriter
	var err error
	if opts.Image != "" {
		w, err = newImageWriter(opts.Output, opts.Image)
	} else {
		w, err = newRawWriter(opts.Output)
	}
	if err != nil {
		return err
	}
	defer w.Close()

	n := 0
	start := time.Now()
	err = decodeFrames(opts.Input, cfg, func(v *mpeg2.Video, f *mpeg2.Frame) error {
		if err := w.WriteFrame(n, f); err != nil {
			return err
		}
		n++
		if opts.Limit > 0 && n >= opts.Limit {
			return errStop
		}
		return nil
	})
	if err != nil {
		return err
	}

	elapsed := time.Since(start)
	fps := 0.0
	if s := elapsed.Seconds(); s > 0 {
		fps = float64(n) / s
	}
	fmt.Fprintf(stdout, "%d frames in %s (%.1f fps)\n", n, elapsed.Round(time.Millisecond), fps)

	return nil
}

var errStop = errors.New("stop")

// decodeFrames runs the decoder over the input and calls fn for every frame.
// Recoverable stream errors are logged and decoding continues.
func decodeFrames(name string, cfg mpeg2.Config, fn func(v *mpeg2.Video, f *mpeg2.Frame) error) error {
	r, err := Open(name)
	if err != nil {
		return err
	}
	defer r.Close()

	buf, err := mpeg2.NewBuffer(r)
	if err != nil {
		return err
	}
	v := mpeg2.NewVideo(buf, cfg)
	if !v.HasHeader() {
		return mpeg2.ErrInvalidMPEG
	}

	for {
		f, err := v.Decode()
		switch {
		case f != nil:
			if err := fn(v, f); err != nil {
				if err == errStop {
					return nil
				}
				return err
			}
		case err == io.EOF:
			return nil
		case errors.Is(err, mpeg2.ErrResolutionChanged):
			log.Info(err)
		case mpeg2.IsFatal(err):
			return err
		case err != nil:
			log.Warning(err)
		default:
			// A reader-backed buffer only asks for more data once the source ended.
			if buf.HasEnded() {
				return nil
			}
		}
	}
}
