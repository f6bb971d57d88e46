package mpeg2

import (
	"image"
	"image/color"
	"image/draw"
	"unsafe"
)

// PictureType is the coding type of a picture.
type PictureType int

const (
	PictureI PictureType = pictureTypeIntra
	PictureP PictureType = pictureTypePredictive
	PictureB PictureType = pictureTypeB
	PictureD PictureType = pictureTypeD
)

func (t PictureType) String() string {
	switch t {
	case PictureI:
		return "I"
	case PictureP:
		return "P"
	case PictureB:
		return "B"
	case PictureD:
		return "D"
	}

	return "?"
}

// Frame represents decoded video frame.
type Frame struct {
	Time float64

	Width  int
	Height int

	Type              PictureType
	TemporalReference int
	TopFieldFirst     bool
	RepeatFirstField  bool
	ProgressiveFrame  bool

	Y  Plane
	Cb Plane
	Cr Plane

	// Out holds the frame converted to Format. It is empty for FormatNative.
	Out    []byte
	Format Format

	imYCbCr image.YCbCr
	imRGBA  image.RGBA

	ref  bool
	disp bool
}

// YCbCr returns frame as image.YCbCr.
func (f *Frame) YCbCr() *image.YCbCr {
	return &f.imYCbCr
}

// RGBA returns frame as image.RGBA.
func (f *Frame) RGBA() *image.RGBA {
	if f.imRGBA.Pix == nil {
		f.imRGBA = image.RGBA{
			Pix:    make([]byte, f.Width*f.Height*4),
			Stride: 4 * f.Width,
			Rect:   image.Rect(0, 0, f.Width, f.Height),
		}
	}

	b := f.imYCbCr.Bounds()
	draw.Draw(&f.imRGBA, b, &f.imYCbCr, b.Min, draw.Src)

	return &f.imRGBA
}

// Pixels returns frame as slice of color.RGBA.
func (f *Frame) Pixels() []color.RGBA {
	img := f.RGBA()
	return unsafe.Slice((*color.RGBA)(unsafe.Pointer(&img.Pix[0])), len(img.Pix)/4)
}

// Plane represents decoded video plane.
// The sizes of planes are rounded up to whole macroblocks (and to macroblock
// pairs vertically, so field pictures fit), so they do not denote the displayed size.
type Plane struct {
	Width  int
	Height int
	Data   []byte
}

// planeView addresses a whole plane or one of its two fields.
type planeView struct {
	data   []byte
	offset int
	stride int
	width  int
	height int
}

// view returns the frame (field < 0), top field (0) or bottom field (1) of p.
func (p *Plane) view(field int) planeView {
	if field < 0 {
		return planeView{data: p.Data, stride: p.Width, width: p.Width, height: p.Height}
	}

	return planeView{data: p.Data, offset: field * p.Width, stride: p.Width << 1, width: p.Width, height: p.Height >> 1}
}

func newFrame(width, height, lumaWidth, lumaHeight int) *Frame {
	chromaWidth := lumaWidth >> 1
	chromaHeight := lumaHeight >> 1

	lumaSize := lumaWidth * lumaHeight
	chromaSize := chromaWidth * chromaHeight
	frameSize := lumaSize + 2*chromaSize

	base := make([]byte, frameSize)

	frame := &Frame{Width: width, Height: height}

	frame.Y = Plane{lumaWidth, lumaHeight, base[0:lumaSize:lumaSize]}
	frame.Cb = Plane{chromaWidth, chromaHeight, base[lumaSize : lumaSize+chromaSize : lumaSize+chromaSize]}
	frame.Cr = Plane{chromaWidth, chromaHeight, base[lumaSize+chromaSize : frameSize : frameSize]}

	frame.imYCbCr = image.YCbCr{
		Y:              frame.Y.Data,
		Cb:             frame.Cb.Data,
		Cr:             frame.Cr.Data,
		SubsampleRatio: image.YCbCrSubsampleRatio420,
		YStride:        lumaWidth,
		CStride:        chromaWidth,
		Rect:           image.Rect(0, 0, width, height),
	}

	return frame
}

// framePool recycles frames of one sequence size. A frame is free when it is
// neither a reference nor waiting for display.
type framePool struct {
	frames []*Frame

	width      int
	height     int
	lumaWidth  int
	lumaHeight int
}

func newFramePool(width, height, lumaWidth, lumaHeight int) *framePool {
	return &framePool{width: width, height: height, lumaWidth: lumaWidth, lumaHeight: lumaHeight}
}

func (p *framePool) get() *Frame {
	for _, f := range p.frames {
		if !f.ref && !f.disp {
			return f
		}
	}

	f := newFrame(p.width, p.height, p.lumaWidth, p.lumaHeight)
	p.frames = append(p.frames, f)

	if log.IsEnabledFor(debugLevel) {
		log.Debugf("frame pool grew to %d frames", len(p.frames))
	}

	return f
}
