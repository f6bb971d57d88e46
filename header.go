package mpeg2

import (
	"github.com/pkg/errors"
)

// PictureStructure is the picture_structure of MPEG-2 picture coding extension.
type PictureStructure int

const (
	StructureTopField    PictureStructure = 1
	StructureBottomField PictureStructure = 2
	StructureFrame       PictureStructure = 3
)

// Sequence holds the sequence header and its extensions.
type Sequence struct {
	Width  int
	Height int

	AspectRatioCode       int
	FrameRateCode         int
	FrameRateExtN         int
	FrameRateExtD         int
	BitRate               int
	VBVBufferSize         int
	ConstrainedParameters bool

	MPEG2        bool
	ProfileLevel int
	Progressive  bool
	ChromaFormat int
	LowDelay     bool

	SequenceDisplay
}

// SequenceDisplay holds the sequence display extension.
type SequenceDisplay struct {
	VideoFormat             int
	ColourDescription       bool
	ColourPrimaries         int
	TransferCharacteristics int
	MatrixCoefficients      int
	DisplayWidth            int
	DisplayHeight           int
}

// FrameRate returns the frame rate in frames per second.
func (s *Sequence) FrameRate() float64 {
	r := frameRates[s.FrameRateCode&15]
	if r[0] == 0 {
		return 0
	}

	return float64(r[0]*(s.FrameRateExtN+1)) / float64(r[1]*(s.FrameRateExtD+1))
}

// sliceRowExtension reports whether slices carry slice_vertical_position_extension.
func (s *Sequence) sliceRowExtension() bool {
	return s.MPEG2 && s.Height > 2800
}

// AspectRatio returns the pel aspect ratio for MPEG-1 and the display aspect ratio for MPEG-2.
func (s *Sequence) AspectRatio() float64 {
	if s.MPEG2 {
		return mpeg2AspectRatio[s.AspectRatioCode&15]
	}

	return mpeg1AspectRatio[s.AspectRatioCode&15]
}

// GOP holds the group of pictures header.
type GOP struct {
	DropFrame  bool
	Hours      int
	Minutes    int
	Seconds    int
	Pictures   int
	Closed     bool
	BrokenLink bool
}

// Copyright holds the copyright extension.
type Copyright struct {
	Flag       bool
	Identifier int
	Original   bool
	Number     uint64
}

// Picture holds the picture header and picture coding extension.
type Picture struct {
	TemporalReference int
	Type              PictureType
	VBVDelay          int

	FullPelForward  bool
	FullPelBackward bool

	// FCode is indexed by direction (forward, backward) and component (horizontal, vertical).
	FCode [2][2]int

	IntraDCPrecision         int
	Structure                PictureStructure
	TopFieldFirst            bool
	FramePredFrameDCT        bool
	ConcealmentMotionVectors bool
	QScaleType               bool
	IntraVLCFormat           bool
	AlternateScan            bool
	RepeatFirstField         bool
	Chroma420Type            bool
	ProgressiveFrame         bool
	CompositeDisplay         bool

	FrameCentreOffsets    [3][2]int
	NumFrameCentreOffsets int
}

// QuantMatrices holds the weighting matrices in raster order.
type QuantMatrices struct {
	Intra          []byte
	NonIntra       []byte
	ChromaIntra    []byte
	ChromaNonIntra []byte
}

func defaultQuantMatrices() QuantMatrices {
	intra := defaultIntraMatrix[:]
	nonIntra := defaultNonIntraMatrix[:]

	return QuantMatrices{
		Intra:          append([]byte(nil), intra...),
		NonIntra:       append([]byte(nil), nonIntra...),
		ChromaIntra:    append([]byte(nil), intra...),
		ChromaNonIntra: append([]byte(nil), nonIntra...),
	}
}

var errNoPicture = errors.New("mpeg2: access unit without picture")

// decodeUnit walks the start codes of one access unit, parsing headers until
// a picture header, and then decodes that picture.
func (v *Video) decodeUnit(br *bitReader) error {
	for {
		br.nextStartCode()
		if br.exhausted() {
			return errNoPicture
		}

		switch br.startCode() {
		case startSequence:
			if err := v.sequence(br); err != nil {
				return err
			}

		case startGOP:
			v.gopHeader(br)
			if err := v.extensionAndUserData(br); err != nil {
				return err
			}

		case startPicture:
			if !v.hasSequence {
				br.flush(32)
				return ErrNoSequenceHeader
			}

			p, err := v.pictureHeader(br)
			if err != nil {
				return err
			}
			if v.seq.MPEG2 {
				br.nextStartCode()
				if extensionID(br) != extPictureCoding {
					return errors.Wrap(ErrStartCode, "picture coding extension missing")
				}
				if err := pictureCodingExtension(br, &p); err != nil {
					return err
				}
			}
			v.pic = p

			if err := v.extensionAndUserData(br); err != nil {
				return err
			}

			return v.decodePicture(br)

		default:
			// Sequence end, stray slices and reserved codes.
			br.flush(32)
		}
	}
}

// sequence parses a sequence header with its extensions and user data. The
// size, including the extension bits, is checked before any state is written.
func (v *Video) sequence(br *bitReader) error {
	seq, q, err := sequenceHeader(br)
	if err != nil {
		return err
	}

	br.nextStartCode()
	if extensionID(br) == extSequence {
		if err := sequenceExtension(br, &seq); err != nil {
			return err
		}
	} else {
		seq.Progressive = true
		seq.ChromaFormat = 1
	}

	if seq.Width == 0 || seq.Height == 0 {
		return &DimensionError{Width: seq.Width, Height: seq.Height}
	}
	if err := v.checkDimensions(seq.Width, seq.Height); err != nil {
		return err
	}

	if v.hasSequence {
		seq.SequenceDisplay = v.seq.SequenceDisplay
	} else {
		log.Infof("sequence %dx%d", seq.Width, seq.Height)
	}
	v.seq = seq
	v.quant = q
	v.quantizer = quantMPEG1
	if seq.MPEG2 {
		v.quantizer = quantMPEG2
	}
	v.hasSequence = true

	return v.extensionAndUserData(br)
}

// extensionID returns the extension_start_code_identifier under the cursor, or -1.
func extensionID(br *bitReader) int {
	if br.startCode() != startExtension {
		return -1
	}

	save := br.offset
	br.flush(32)
	id := br.get(4)
	br.offset = save

	return id
}

func sequenceHeader(br *bitReader) (Sequence, QuantMatrices, error) {
	br.flush(32)

	seq := Sequence{
		Width:           br.get(12),
		Height:          br.get(12),
		AspectRatioCode: br.get(4),
		FrameRateCode:   br.get(4),
		BitRate:         br.get(18),
	}
	br.flush(1) // marker
	seq.VBVBufferSize = br.get(10)
	seq.ConstrainedParameters = br.get1() == 1

	q := defaultQuantMatrices()
	if br.get1() == 1 {
		q.Intra = loadMatrix(br)
		q.ChromaIntra = q.Intra
	}
	if br.get1() == 1 {
		q.NonIntra = loadMatrix(br)
		q.ChromaNonIntra = q.NonIntra
	}

	if br.overrun() {
		return seq, q, ErrBufferExceeded
	}

	return seq, q, nil
}

// checkDimensions applies the size policy to a parsed size.
func (v *Video) checkDimensions(width, height int) error {
	if width > v.cfg.MaxWidth || height > v.cfg.MaxHeight {
		return &DimensionError{Width: width, Height: height}
	}

	if v.hasSequence && (width != v.seq.Width || height != v.seq.Height) {
		return &ResolutionChange{Width: width, Height: height}
	}

	return nil
}

func loadMatrix(br *bitReader) []byte {
	m := make([]byte, 64)
	for i := 0; i < 64; i++ {
		m[scanZigZag[i]] = byte(br.get(8))
	}

	return m
}

// sequenceExtension completes seq with the sequence extension. The size
// extension bits become bits 12 and 13 of the width and height.
func sequenceExtension(br *bitReader, seq *Sequence) error {
	br.flush(32 + 4)

	profileLevel := br.get(8)
	progressive := br.get1() == 1
	chroma := br.get(2)
	hext := br.get(2)
	vext := br.get(2)
	bitRateExt := br.get(12)
	br.flush(1) // marker
	vbvExt := br.get(8)
	lowDelay := br.get1() == 1
	rateN := br.get(2)
	rateD := br.get(5)

	if br.overrun() {
		return ErrBufferExceeded
	}
	if profileLevel&0x80 != 0 {
		return errors.Wrapf(ErrProfileLevel, "profile_and_level_indication 0x%02x", profileLevel)
	}
	if chroma != 1 {
		return errors.Wrapf(ErrChromaFormat, "chroma_format %d", chroma)
	}

	seq.Width |= hext << 12
	seq.Height |= vext << 12
	seq.MPEG2 = true
	seq.ProfileLevel = profileLevel
	seq.Progressive = progressive
	seq.ChromaFormat = chroma
	seq.BitRate |= bitRateExt << 18
	seq.VBVBufferSize |= vbvExt << 10
	seq.LowDelay = lowDelay
	seq.FrameRateExtN = rateN
	seq.FrameRateExtD = rateD

	return nil
}

// extensionAndUserData consumes extension and user data start codes until any other start code.
func (v *Video) extensionAndUserData(br *bitReader) error {
	for {
		br.nextStartCode()

		switch br.startCode() {
		case startExtension:
			switch id := extensionID(br); id {
			case extSequenceDisplay:
				v.sequenceDisplayExtension(br)
			case extQuantMatrix:
				v.quantMatrixExtension(br)
			case extCopyright:
				v.copyrightExtension(br)
			case extPictureDisplay:
				v.pictureDisplayExtension(br)
			case extSequenceScalable, extSpatialScalable, extTemporalScalable:
				return errors.Wrapf(ErrScalability, "extension %d", id)
			default:
				// Camera parameters, ITU-T and reserved identifiers.
				log.Debugf("skipping extension %d", id)
				br.flush(32 + 4)
			}

		case startUserData:
			br.flush(32)

		default:
			return nil
		}
	}
}

func (v *Video) sequenceDisplayExtension(br *bitReader) {
	br.flush(32 + 4)

	v.seq.VideoFormat = br.get(3)
	v.seq.ColourDescription = br.get1() == 1
	if v.seq.ColourDescription {
		v.seq.ColourPrimaries = br.get(8)
		v.seq.TransferCharacteristics = br.get(8)
		v.seq.MatrixCoefficients = br.get(8)
	}
	v.seq.DisplayWidth = br.get(14)
	br.flush(1) // marker
	v.seq.DisplayHeight = br.get(14)
}

func (v *Video) quantMatrixExtension(br *bitReader) {
	br.flush(32 + 4)

	if br.get1() == 1 {
		v.quant.Intra = loadMatrix(br)
		v.quant.ChromaIntra = v.quant.Intra
	}
	if br.get1() == 1 {
		v.quant.NonIntra = loadMatrix(br)
		v.quant.ChromaNonIntra = v.quant.NonIntra
	}
	if br.get1() == 1 {
		v.quant.ChromaIntra = loadMatrix(br)
	}
	if br.get1() == 1 {
		v.quant.ChromaNonIntra = loadMatrix(br)
	}
}

func (v *Video) copyrightExtension(br *bitReader) {
	br.flush(32 + 4)

	v.copyright.Flag = br.get1() == 1
	v.copyright.Identifier = br.get(8)
	v.copyright.Original = br.get1() == 1
	br.flush(7 + 1) // reserved, marker
	n1 := uint64(br.get(20))
	br.flush(1)
	n2 := uint64(br.get(22))
	br.flush(1)
	n3 := uint64(br.get(22))
	v.copyright.Number = n1<<44 | n2<<22 | n3
}

func (v *Video) pictureDisplayExtension(br *bitReader) {
	br.flush(32 + 4)

	n := 1
	switch {
	case v.seq.Progressive:
		if v.pic.RepeatFirstField {
			n = 2
			if v.pic.TopFieldFirst {
				n = 3
			}
		}
	case v.pic.Structure == StructureFrame:
		n = 2
		if v.pic.RepeatFirstField {
			n = 3
		}
	}

	for i := 0; i < n; i++ {
		v.pic.FrameCentreOffsets[i][0] = int(int16(br.get(16)))
		br.flush(1)
		v.pic.FrameCentreOffsets[i][1] = int(int16(br.get(16)))
		br.flush(1)
	}
	v.pic.NumFrameCentreOffsets = n
}

func (v *Video) gopHeader(br *bitReader) {
	br.flush(32)

	v.gop.DropFrame = br.get1() == 1
	v.gop.Hours = br.get(5)
	v.gop.Minutes = br.get(6)
	br.flush(1) // marker
	v.gop.Seconds = br.get(6)
	v.gop.Pictures = br.get(6)
	v.gop.Closed = br.get1() == 1
	v.gop.BrokenLink = br.get1() == 1
}

func (v *Video) pictureHeader(br *bitReader) (Picture, error) {
	br.flush(32)

	p := Picture{
		Structure:         StructureFrame,
		FramePredFrameDCT: true,
		ProgressiveFrame:  true,
	}
	p.TemporalReference = br.get(10)
	p.Type = PictureType(br.get(3))
	p.VBVDelay = br.get(16)

	if p.Type < PictureI || p.Type > PictureD {
		return p, errors.Wrapf(ErrInvalidPictureType, "picture_coding_type %d", int(p.Type))
	}

	if p.Type == PictureP || p.Type == PictureB {
		p.FullPelForward = br.get1() == 1
		fc := br.get(3)
		p.FCode[0] = [2]int{fc, fc}
	}
	if p.Type == PictureB {
		p.FullPelBackward = br.get1() == 1
		fc := br.get(3)
		p.FCode[1] = [2]int{fc, fc}
	}

	// extra_information_picture
	for br.get1() == 1 {
		br.flush(8)
	}

	if !v.seq.MPEG2 && (p.Type == PictureP && p.FCode[0][0] == 0 || p.Type == PictureB && (p.FCode[0][0] == 0 || p.FCode[1][0] == 0)) {
		return p, errors.Wrap(ErrInvalidPictureType, "zero f_code")
	}

	return p, nil
}

func pictureCodingExtension(br *bitReader, p *Picture) error {
	br.flush(32 + 4)

	p.FCode[0][0] = br.get(4)
	p.FCode[0][1] = br.get(4)
	p.FCode[1][0] = br.get(4)
	p.FCode[1][1] = br.get(4)
	p.IntraDCPrecision = br.get(2)
	p.Structure = PictureStructure(br.get(2))
	p.TopFieldFirst = br.get1() == 1
	p.FramePredFrameDCT = br.get1() == 1
	p.ConcealmentMotionVectors = br.get1() == 1
	p.QScaleType = br.get1() == 1
	p.IntraVLCFormat = br.get1() == 1
	p.AlternateScan = br.get1() == 1
	p.RepeatFirstField = br.get1() == 1
	p.Chroma420Type = br.get1() == 1
	p.ProgressiveFrame = br.get1() == 1
	p.CompositeDisplay = br.get1() == 1
	if p.CompositeDisplay {
		// v_axis, field_sequence, sub_carrier, burst_amplitude, sub_carrier_phase
		br.flush(1 + 3 + 1 + 7 + 8)
	}

	if p.Structure == 0 {
		return errors.Wrap(ErrInvalidPictureStructure, "reserved picture_structure")
	}
	if p.Structure != StructureFrame {
		p.FramePredFrameDCT = false
	}

	return nil
}
