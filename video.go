package mpeg2

import (
	"io"

	"github.com/pkg/errors"
)

// probeSize bounds how much data HasHeader loads looking for a sequence header.
const probeSize = 1 << 20

// Video decodes MPEG-1 and MPEG-2 video elementary streams into YCbCr frames.
type Video struct {
	cfg Config
	buf *Buffer

	seq       Sequence
	gop       GOP
	copyright Copyright
	pic       Picture
	quant     QuantMatrices
	quantizer quantizer

	hasSequence bool

	pool  *framePool
	queue *jobQueue

	// refs holds the forward (older) and backward (newer) reference frames.
	refs [2]*Frame

	cur *Frame
	fwd *Frame
	bwd *Frame

	// firstField is the frame whose first field was decoded last.
	firstField  *Frame
	secondField bool

	pending    *Frame   // displayable, converted during the next picture
	converting *Frame   // pending frame being converted by the current picture
	ready      []*Frame // converted frames not yet returned
	shown      *Frame   // last returned frame

	time          float64
	framesDecoded int

	noDelay bool
	flushed bool
}

// NewVideo creates a video decoder with buffer as a source.
func NewVideo(buf *Buffer, cfg Config) *Video {
	return &Video{
		cfg:   cfg.withDefaults(),
		buf:   buf,
		quant: defaultQuantMatrices(),
		queue: newJobQueue(),
	}
}

// Buffer returns video buffer.
func (v *Video) Buffer() *Buffer {
	return v.buf
}

// HasHeader checks whether a sequence header was found, and we can accurately report on
// dimensions and framerate.
func (v *Video) HasHeader() bool {
	if v.hasSequence {
		return true
	}

	if !v.buf.hasSequenceHeader(probeSize) {
		return false
	}

	br := newBitReader(v.buf.Bytes())
	if !br.nextCode(startCodePrefix<<8 | startSequence) {
		return false
	}
	if err := v.sequence(br); err != nil {
		log.Warningf("sequence header: %v", err)
		v.hasSequence = false
		return false
	}

	return v.hasSequence
}

// Sequence returns the parameters of the current sequence.
func (v *Video) Sequence() Sequence {
	return v.seq
}

// GOP returns the last group of pictures header.
func (v *Video) GOP() GOP {
	return v.gop
}

// Copyright returns the last copyright extension.
func (v *Video) Copyright() Copyright {
	return v.copyright
}

// Framerate returns the framerate in frames per second.
func (v *Video) Framerate() float64 {
	if v.HasHeader() {
		return v.seq.FrameRate()
	}

	return 0
}

// Width returns the display width.
func (v *Video) Width() int {
	if v.HasHeader() {
		return v.seq.Width
	}

	return 0
}

// Height returns the display height.
func (v *Video) Height() int {
	if v.HasHeader() {
		return v.seq.Height
	}

	return 0
}

// SetNoDelay sets "no delay" mode. When enabled, the decoder assumes that the video does
// *not* contain any B-Frames and returns reference frames as soon as they are decoded.
func (v *Video) SetNoDelay(noDelay bool) {
	v.noDelay = noDelay
}

// Time returns the current internal time in seconds.
func (v *Video) Time() float64 {
	return v.time
}

// SetTime sets the current internal time in seconds. This is only useful when you
// manipulate the underlying video buffer and want to enforce a correct timestamps.
func (v *Video) SetTime(time float64) {
	v.framesDecoded = int(v.seq.FrameRate() * time)
	v.time = time
}

// Rewind rewinds the internal buffer and drops all decoder state but the sequence.
func (v *Video) Rewind() {
	v.buf.Rewind()
	v.time = 0
	v.framesDecoded = 0
	v.dropPictures()
	for _, f := range v.ready {
		f.disp = false
	}
	v.ready = v.ready[:0]
	if v.shown != nil {
		v.shown.disp = false
		v.shown = nil
	}
	v.flushed = false
}

// HasEnded checks whether the file has ended. This will be cleared on rewind.
func (v *Video) HasEnded() bool {
	return v.flushed && len(v.ready) == 0
}

// Decode decodes and returns the next frame in display order and advances the
// internal time by 1/framerate seconds.
//
// It returns (nil, nil) when more input is needed and (nil, io.EOF) after the
// last frame. A *ResolutionChange error means the decoder has reset itself for
// a new sequence size; calling Decode again continues with the new size. Other
// stream errors are recoverable: the picture is concealed and decoding goes on
// with the next call.
func (v *Video) Decode() (*Frame, error) {
	if v.shown != nil {
		v.shown.disp = false
		v.shown = nil
	}

	for {
		if f := v.nextReady(); f != nil {
			return f, nil
		}
		if v.flushed {
			return nil, io.EOF
		}

		unit, ok := v.buf.nextAccessUnit()
		if !ok {
			if v.buf.HasEnded() {
				v.flush()
				continue
			}
			return nil, nil
		}

		err := v.decodeUnit(newBitReader(unit))

		var rc *ResolutionChange
		if errors.As(err, &rc) {
			log.Infof("resolution change to %dx%d", rc.Width, rc.Height)
			v.resetSequence()
			return nil, rc
		}

		v.buf.consume(len(unit))

		switch {
		case err == nil:
		case err == errNoPicture:
		case IsFatal(err):
			return nil, err
		default:
			log.Warningf("picture %d: %v", v.pic.TemporalReference, err)
			return nil, err
		}
	}
}

func (v *Video) nextReady() *Frame {
	if len(v.ready) == 0 {
		return nil
	}

	f := v.ready[0]
	copy(v.ready, v.ready[1:])
	v.ready = v.ready[:len(v.ready)-1]
	v.shown = f

	return f
}

// allocate sizes the frame pool for the current sequence.
func (v *Video) allocate() {
	mbWidth := (v.seq.Width + 15) >> 4
	lumaHeight := ((v.seq.Height + 31) >> 5) << 5

	v.pool = newFramePool(v.seq.Width, v.seq.Height, mbWidth<<4, lumaHeight)
}

// startPicture selects the frame and references of the current picture.
func (v *Video) startPicture() error {
	if v.pool == nil {
		v.allocate()
	}

	p := &v.pic
	parity := int(p.Structure) - 1
	v.secondField = p.Structure != StructureFrame && v.firstField != nil && parity != v.firstParity()
	if !v.secondField && v.firstField != nil {
		log.Warning("unpaired field")
		v.completeFrame(v.firstField)
		v.firstField = nil
	}

	v.converting = v.pending
	v.pending = nil

	if v.secondField {
		v.cur = v.firstField
	} else {
		f := v.pool.get()
		f.Type = p.Type
		f.TemporalReference = p.TemporalReference
		f.TopFieldFirst = p.TopFieldFirst
		f.RepeatFirstField = p.RepeatFirstField
		f.ProgressiveFrame = p.ProgressiveFrame
		if p.Structure != StructureFrame {
			f.TopFieldFirst = p.Structure == StructureTopField
		}
		v.cur = f
	}

	v.fwd, v.bwd = nil, nil
	switch p.Type {
	case PictureP:
		v.fwd = v.refs[1]
	case PictureB:
		v.fwd, v.bwd = v.refs[0], v.refs[1]
	}

	// Streams starting with P or B pictures, and open GOPs after a seek, lack
	// references. Predict from the nearest frame available.
	if p.Type == PictureP || p.Type == PictureB {
		if v.fwd == nil {
			v.fwd = v.bwd
		}
		if v.bwd == nil {
			v.bwd = v.fwd
		}
		if v.fwd == nil {
			v.fwd, v.bwd = v.cur, v.cur
		}
	}

	return nil
}

func (v *Video) firstParity() int {
	if v.firstField.TopFieldFirst {
		return 0
	}

	return 1
}

// finishPicture updates references and display state after the slices of the
// current picture have been decoded.
func (v *Video) finishPicture() {
	if f := v.converting; f != nil {
		v.ready = append(v.ready, f)
		v.converting = nil
	}

	if v.pic.Structure != StructureFrame && !v.secondField {
		v.firstField = v.cur
		return
	}

	v.firstField = nil
	v.completeFrame(v.cur)
}

// completeFrame handles a frame whose pictures are all decoded.
func (v *Video) completeFrame(f *Frame) {
	if f.Type == PictureB {
		v.display(f)
		return
	}

	if v.noDelay {
		v.display(f)
	} else if v.refs[1] != nil {
		v.display(v.refs[1])
	}

	if v.refs[0] != nil {
		v.refs[0].ref = false
	}
	v.refs[0], v.refs[1] = v.refs[1], f
	f.ref = true
}

// display queues f for output. It is converted while the next picture decodes.
func (v *Video) display(f *Frame) {
	if v.pending != nil {
		v.convert(v.pending)
		v.ready = append(v.ready, v.pending)
	}

	f.disp = true
	f.Time = v.time
	v.framesDecoded++
	if rate := v.seq.FrameRate(); rate > 0 {
		v.time = float64(v.framesDecoded) / rate
	}
	v.pending = f
}

// convert converts f in the calling goroutine.
func (v *Video) convert(f *Frame) {
	f.prepareOut(v.cfg.Format)
	if v.cfg.Format != FormatNative {
		f.convertRows(0, f.Height)
	}
}

// flush outputs the frames still held at the end of the stream.
func (v *Video) flush() {
	if v.flushed {
		return
	}
	v.flushed = true

	v.drain()
}

// drain moves every frame waiting for display to the ready queue.
func (v *Video) drain() {
	if v.firstField != nil {
		v.completeFrame(v.firstField)
		v.firstField = nil
	}
	if f := v.refs[1]; f != nil && !v.noDelay && !f.disp {
		v.display(f)
	}
	if f := v.pending; f != nil {
		v.convert(f)
		v.ready = append(v.ready, f)
		v.pending = nil
	}
}

// dropPictures forgets references and frames waiting for display.
func (v *Video) dropPictures() {
	for _, f := range v.refs {
		if f != nil {
			f.ref = false
		}
	}
	v.refs = [2]*Frame{}
	v.cur, v.fwd, v.bwd = nil, nil, nil
	v.firstField = nil
	v.secondField = false
	if v.pending != nil {
		v.pending.disp = false
		v.pending = nil
	}
	v.converting = nil
}

// resetSequence prepares the decoder for a sequence of a new size. Frames
// of the old sequence waiting for display are kept for output.
func (v *Video) resetSequence() {
	v.drain()
	v.dropPictures()
	v.pool = nil
	v.hasSequence = false
	v.quant = defaultQuantMatrices()
}
