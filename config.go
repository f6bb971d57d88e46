package mpeg2

import (
	"strings"

	"github.com/pkg/errors"
)

const (
	// MaxThreads is the upper bound for Config.Threads.
	MaxThreads = 16

	// DefaultMaxWidth and DefaultMaxHeight bound the picture size when Config leaves them zero.
	DefaultMaxWidth  = 1920
	DefaultMaxHeight = 1088
)

// Format is the layout of Frame.Out.
type Format int

const (
	// FormatNative leaves the decoded planes as they are; Frame.Out stays empty.
	FormatNative Format = iota
	// FormatYUV420P is a planar Y, U, V copy cropped to the display size.
	FormatYUV420P
	// FormatYUV420SPUV is a Y plane followed by interleaved U/V (NV12).
	FormatYUV420SPUV
	// FormatYUV420SPVU is a Y plane followed by interleaved V/U (NV21).
	FormatYUV420SPVU
	// FormatYUV422ILE is packed Y0 U Y1 V (YUYV).
	FormatYUV422ILE
)

var formatNames = map[Format]string{
	FormatNative:     "native",
	FormatYUV420P:    "yuv420p",
	FormatYUV420SPUV: "nv12",
	FormatYUV420SPVU: "nv21",
	FormatYUV422ILE:  "yuyv",
}

func (f Format) String() string {
	if s, ok := formatNames[f]; ok {
		return s
	}

	return "unknown"
}

// ParseFormat returns the format for a name as printed by Format.String.
func ParseFormat(s string) (Format, error) {
	for f, name := range formatNames {
		if strings.EqualFold(s, name) {
			return f, nil
		}
	}

	return FormatNative, errors.Errorf("mpeg2: unknown format %q", s)
}

// Size returns the byte size of one converted picture of w x h pixels.
func (f Format) Size(w, h int) int {
	cw, ch := (w+1)>>1, (h+1)>>1
	switch f {
	case FormatYUV420P, FormatYUV420SPUV, FormatYUV420SPVU:
		return w*h + 2*cw*ch
	case FormatYUV422ILE:
		return 2 * cw * 2 * h
	}

	return 0
}

// Config holds the decoder creation parameters. The zero value is usable.
type Config struct {
	// Threads is the number of goroutines decoding one picture, the caller's included.
	Threads int

	// MaxWidth and MaxHeight bound the sequence size; larger sequences fail with *DimensionError.
	MaxWidth  int
	MaxHeight int

	// Format selects the conversion applied to displayed frames.
	Format Format
}

func (c Config) withDefaults() Config {
	if c.Threads < 1 {
		c.Threads = 1
	}
	if c.Threads > MaxThreads {
		c.Threads = MaxThreads
	}
	if c.MaxWidth <= 0 {
		c.MaxWidth = DefaultMaxWidth
	}
	if c.MaxHeight <= 0 {
		c.MaxHeight = DefaultMaxHeight
	}

	return c
}
