// Package mpeg2 implements an MPEG-1 and MPEG-2 (ISO/IEC 13818-2) video decoder.
//
// The decoder reads a video elementary stream and returns frames in display
// order. Slices of a picture are decoded in parallel by a pool of goroutines
// (Config.Threads), which also convert displayed frames to the output Format.
//
// A high-level MPEG API wraps the decoder in an easy-to-use interface.
//
// With the high-level interface you have two options to decode video:
//
// 1. Decode() and just hand over the delta time since the last call.
// It will decode everything needed and call your callback (specified through
// SetVideoCallback()) any number of times.
//
// 2. Use DecodeVideo() to decode exactly one frame at a time.
//
// Video data is decoded into a struct with all 3 planes (Y, Cb, Cr) stored in separate buffers,
// you can get image.YCbCr via YCbCr() function. You can either convert to image.RGBA on the CPU (slow)
// via the RGBA() function or do it on the GPU with the following matrix:
//
//	mat4 bt601 = mat4(
//	    1.16438,  0.00000,  1.59603, -0.87079,
//	    1.16438, -0.39176, -0.81297,  0.52959,
//	    1.16438,  2.01723,  0.00000, -1.08139,
//	    0, 0, 0, 1
//	);
//
//	gl_FragColor = vec4(y, cb, cr, 1.0) * bt601;
//
// If you get the elementary stream from a different source, such as a
// demuxer, write it to a Buffer and use Video directly.
package mpeg2

import (
	"io"
	"time"

	"github.com/pkg/errors"
)

// VideoFunc callback function.
type VideoFunc func(mpeg *MPEG, frame *Frame)

// MPEG is high-level interface implementation.
type MPEG struct {
	buf   *Buffer
	video *Video
	time  float64

	loop     bool
	hasEnded bool

	done chan bool
	err  error

	videoCallback VideoFunc
}

// New creates a new MPEG instance reading a video elementary stream from r.
func New(r io.Reader, cfg Config) (*MPEG, error) {
	m := &MPEG{}

	buf, err := NewBuffer(r)
	if err != nil {
		return nil, err
	}

	if !buf.load() || buf.Remaining() < 4 {
		return nil, ErrInvalidMPEG
	}
	b := buf.Bytes()
	if b[0] != 0x00 || b[1] != 0x00 || b[2] != 0x01 || b[3] != startSequence {
		return nil, ErrInvalidMPEG
	}

	m.buf = buf
	m.video = NewVideo(buf, cfg)
	m.done = make(chan bool, 1)

	return m, nil
}

// HasHeaders checks whether the sequence header has been read, and we can report
// video dimensions and framerate.
func (m *MPEG) HasHeaders() bool {
	return m.video.HasHeader()
}

// Probe loads up to probeSize bytes looking for a sequence header.
// Returns true if a sequence header was found within the probe size.
func (m *MPEG) Probe(probeSize int) bool {
	if !m.buf.hasSequenceHeader(probeSize) {
		return false
	}

	return m.video.HasHeader()
}

// Done returns done channel.
func (m *MPEG) Done() chan bool {
	return m.done
}

// Video returns video decoder.
func (m *MPEG) Video() *Video {
	return m.video
}

// Err returns the last error reported by the decoder, if any.
func (m *MPEG) Err() error {
	return m.err
}

// SetVideoCallback sets a video callback.
func (m *MPEG) SetVideoCallback(callback VideoFunc) {
	m.videoCallback = callback
}

// Width returns the display width of the video stream.
func (m *MPEG) Width() int {
	return m.video.Width()
}

// Height returns the display height of the video stream.
func (m *MPEG) Height() int {
	return m.video.Height()
}

// Framerate returns the framerate of the video stream in frames per second.
func (m *MPEG) Framerate() float64 {
	return m.video.Framerate()
}

// Time returns the current internal time in seconds.
func (m *MPEG) Time() time.Duration {
	return time.Duration(m.time * float64(time.Second))
}

// Duration returns an estimate of the video duration from the stream size and
// the bit rate of the sequence header. It is zero when either is unknown.
func (m *MPEG) Duration() time.Duration {
	if !m.video.HasHeader() || !m.buf.Seekable() {
		return 0
	}

	rate := m.video.seq.BitRate * 400
	if rate <= 0 || m.video.seq.BitRate == 0x3ffff {
		return 0
	}

	return time.Duration(float64(m.buf.Size()) * 8 / float64(rate) * float64(time.Second))
}

// Rewind rewinds the buffer back to the beginning.
func (m *MPEG) Rewind() {
	m.video.Rewind()
	m.time = 0
	m.hasEnded = false
}

// Loop returns looping.
func (m *MPEG) Loop() bool {
	return m.loop
}

// SetLoop sets looping.
func (m *MPEG) SetLoop(loop bool) {
	m.loop = loop
}

// HasEnded checks whether the file has ended.
// If looping is enabled, this will always return false.
func (m *MPEG) HasEnded() bool {
	return m.hasEnded
}

// Decode advances the internal timer by tick and decodes video up to this time.
// This will call the video callback any number of times.
// A frame-skip is not implemented, i.e. everything up to current time will be decoded.
func (m *MPEG) Decode(tick time.Duration) {
	if m.videoCallback == nil || !m.video.HasHeader() {
		return
	}

	target := m.time + tick.Seconds()
	for m.video.Time() < target {
		frame := m.DecodeVideo()
		if frame == nil {
			break
		}
		m.videoCallback(m, frame)
	}

	if m.hasEnded {
		return
	}

	m.time += tick.Seconds()
}

// DecodeVideo decodes and returns one video frame. Returns nil if no frame could be decoded
// (either because the source ended, more data is needed or the stream is unsupported).
// Recoverable stream errors are logged and skipped. The returned Frame is valid until
// the next call to DecodeVideo().
func (m *MPEG) DecodeVideo() *Frame {
	for {
		frame, err := m.video.Decode()
		switch {
		case frame != nil:
			m.time = frame.Time
			return frame
		case err == io.EOF:
			m.handleEnd()
			return nil
		case errors.Is(err, ErrResolutionChanged):
			m.err = err
			continue
		case IsFatal(err):
			m.err = err
			m.handleEnd()
			return nil
		case err != nil:
			m.err = err
			continue
		default:
			return nil
		}
	}
}

func (m *MPEG) handleEnd() {
	if m.loop && !IsFatal(m.err) {
		m.Rewind()
	} else {
		m.hasEnded = true
		select {
		case m.done <- true:
		default:
		}
	}
}
