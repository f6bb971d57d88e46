package mpeg2

import (
	"fmt"

	"github.com/pkg/errors"
)

// Stream-format errors. The decoder resynchronizes on the next start code and continues.
var (
	ErrInvalidPictureType      = errors.New("mpeg2: invalid picture type")
	ErrInvalidPictureStructure = errors.New("mpeg2: invalid picture structure")
	ErrInvalidVertSize         = errors.New("mpeg2: invalid slice vertical position")
	ErrStartCode               = errors.New("mpeg2: mismatched start code")
	ErrMacroblockAddress       = errors.New("mpeg2: macroblock address out of range")
	ErrInvalidCode             = errors.New("mpeg2: invalid variable length code")
	ErrCoefficientOverflow     = errors.New("mpeg2: more than 64 coefficients in block")
	ErrBufferExceeded          = errors.New("mpeg2: read past end of buffer")
	ErrNoSequenceHeader        = errors.New("mpeg2: picture before sequence header")
)

// Unsupported-feature errors. Decoding of the stream cannot continue.
var (
	ErrProfileLevel          = errors.New("mpeg2: profile and level not supported")
	ErrChromaFormat          = errors.New("mpeg2: chroma format not supported")
	ErrScalability           = errors.New("mpeg2: scalable extensions not supported")
	ErrUnsupportedDimensions = errors.New("mpeg2: unsupported dimensions")
)

// ErrResolutionChanged is matched by *ResolutionChange.
var ErrResolutionChanged = errors.New("mpeg2: resolution changed")

// ErrInvalidMPEG is returned by New when the input does not start with a sequence header.
var ErrInvalidMPEG = errors.New("mpeg2: invalid MPEG video stream")

// DimensionError reports a picture size above the configured maximum.
type DimensionError struct {
	Width  int
	Height int
}

func (e *DimensionError) Error() string {
	return fmt.Sprintf("mpeg2: unsupported dimensions %dx%d", e.Width, e.Height)
}

// Is reports whether target is ErrUnsupportedDimensions.
func (e *DimensionError) Is(target error) bool {
	return target == ErrUnsupportedDimensions
}

// ResolutionChange signals a new valid sequence size. It is not a failure: the
// decoder has already reinitialized itself for the new size when it is returned.
type ResolutionChange struct {
	Width  int
	Height int
}

func (e *ResolutionChange) Error() string {
	return fmt.Sprintf("mpeg2: resolution changed to %dx%d", e.Width, e.Height)
}

// Is reports whether target is ErrResolutionChanged.
func (e *ResolutionChange) Is(target error) bool {
	return target == ErrResolutionChanged
}

// IsFatal reports whether err stops decoding of the current stream.
func IsFatal(err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, ErrProfileLevel),
		errors.Is(err, ErrChromaFormat),
		errors.Is(err, ErrScalability),
		errors.Is(err, ErrUnsupportedDimensions),
		errors.Is(err, ErrInvalidMPEG):
		return true
	}

	return false
}

// IsStreamError reports whether err is a recoverable stream-format error.
func IsStreamError(err error) bool {
	return err != nil && !IsFatal(err) && !errors.Is(err, ErrResolutionChanged)
}
