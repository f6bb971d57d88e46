package cli

import (
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"

	"github.com/gen2brain/mpeg2"
)

type encodeFunc func(w io.Writer, img image.Image) error

var encoders = map[string]encodeFunc{
	"png":  png.Encode,
	"jpg":  encodeJPEG,
	"bmp":  bmp.Encode,
	"tiff": encodeTIFF,
}

func encodeJPEG(w io.Writer, img image.Image) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: 90})
}

func encodeTIFF(w io.Writer, img image.Image) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate})
}

// ImageFormats lists the image formats accepted by the decode command.
func ImageFormats() []string {
	return []string{"png", "jpg", "bmp", "tiff"}
}

// frameWriter stores decoded frames.
type frameWriter interface {
	WriteFrame(n int, f *mpeg2.Frame) error
	Close() error
}

// imageWriter writes one image file per frame into a directory.
type imageWriter struct {
	dir    string
	ext    string
	encode encodeFunc
}

func newImageWriter(dir, ext string) (*imageWriter, error) {
	ext = strings.ToLower(ext)
	if ext == "jpeg" {
		ext = "jpg"
	}
	enc, ok := encoders[ext]
	if !ok {
		return nil, errors.Errorf("unknown image format %q", ext)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, "create output directory")
	}

	return &imageWriter{dir: dir, ext: ext, encode: enc}, nil
}

func (w *imageWriter) WriteFrame(n int, f *mpeg2.Frame) error {
	name := filepath.Join(w.dir, fmt.Sprintf("frame-%05d-%s.%s", n, f.Type, w.ext))
	out, err := os.Create(name)
	if err != nil {
		return errors.Wrap(err, "create frame file")
	}

	var img image.Image = f.YCbCr()
	if w.ext == "bmp" {
		img = f.RGBA()
	}
	if err := w.encode(out, img); err != nil {
		out.Close()
		return errors.Wrapf(err, "encode %s", name)
	}

	return out.Close()
}

func (w *imageWriter) Close() error {
	return nil
}

// rawWriter appends the converted bytes of every frame to one file.
type rawWriter struct {
	out io.WriteCloser
}

func newRawWriter(name string) (*rawWriter, error) {
	if name == "-" {
		return &rawWriter{out: os.Stdout}, nil
	}

	out, err := os.Create(name)
	if err != nil {
		return nil, errors.Wrap(err, "create output")
	}

	return &rawWriter{out: out}, nil
}

func (w *rawWriter) WriteFrame(n int, f *mpeg2.Frame) error {
	data := f.Out
	if f.Format == mpeg2.FormatNative {
		return errors.New("raw output needs a conversion format")
	}
	_, err := w.out.Write(data)

	return errors.Wrap(err, "write frame")
}

func (w *rawWriter) Close() error {
	if w.out == os.Stdout {
		return nil
	}

	return w.out.Close()
}
