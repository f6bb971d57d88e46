package mpeg2

import (
	"github.com/pkg/errors"
)

const (
	mbIncrementStuffing = 34
	mbIncrementEscape   = 35
)

// decodeMacroblock decodes one macroblock including the macroblocks skipped
// before it.
func (d *sliceDecoder) decodeMacroblock() error {
	br := &d.br

	increment := 0
	t := br.readVlc(vlcMBAddrIncrement)
	for t == mbIncrementStuffing || t == mbIncrementEscape {
		if t == mbIncrementEscape {
			increment += 33
		}
		if br.overrun() {
			return ErrBufferExceeded
		}
		t = br.readVlc(vlcMBAddrIncrement)
	}
	if t == 0 {
		return errors.Wrap(ErrInvalidCode, "macroblock_address_increment")
	}
	increment += t

	limit := d.endRow * d.mbWidth
	if d.mbAddr+increment >= limit {
		return errors.Wrapf(ErrMacroblockAddress, "address %d past row %d", d.mbAddr+increment, d.endRow)
	}

	if d.first {
		d.first = false
		d.mbAddr += increment
	} else {
		if increment > 1 {
			if err := d.skipMacroblocks(increment - 1); err != nil {
				return err
			}
		}
		d.mbAddr++
	}
	d.mbY = d.mbAddr / d.mbWidth
	d.mbX = d.mbAddr % d.mbWidth

	mbType := br.readVlc(vlcMBType[d.pic.Type])
	if mbType == 0 {
		return errors.Wrap(ErrInvalidCode, "macroblock_type")
	}
	if d.pic.Type == PictureD {
		return d.decodeDCMacroblock()
	}

	motionType := motionFrame
	if d.field >= 0 {
		motionType = motionField
	}
	if mbType&(mbForward|mbBackward) != 0 && (d.field >= 0 || !d.pic.FramePredFrameDCT) {
		motionType = br.get(2)
		if motionType == 0 {
			return errors.Wrap(ErrInvalidCode, "motion_type")
		}
	}

	fieldDCT := false
	if d.field < 0 && !d.pic.FramePredFrameDCT && mbType&(mbIntra|mbPattern) != 0 {
		fieldDCT = br.get1() == 1
	}

	if mbType&mbQuant != 0 {
		d.qscale = d.quantScale(br.get(5))
	}

	m := &d.mv
	m.motionType = motionType
	intra := mbType&mbIntra != 0
	if intra {
		if d.pic.ConcealmentMotionVectors {
			d.motionVectors(0)
			br.flush(1) // marker
		} else {
			m.resetPMV()
		}
	} else {
		d.resetDC()
		if mbType&mbForward != 0 {
			d.motionVectors(0)
		} else if d.pic.Type == PictureP {
			// No motion compensation: zero vector from the same parity.
			m.resetPMV()
			m.fieldSelect[0][0] = d.field
			mbType |= mbForward
		}
		if mbType&mbBackward != 0 {
			d.motionVectors(1)
		}
	}
	m.mbType = mbType

	if br.overrun() {
		return ErrBufferExceeded
	}

	if !intra {
		d.formPredictions()
	}

	cbp := 0
	if mbType&mbPattern != 0 {
		cbp = br.readVlc(vlcCodedBlockPattern)
	} else if intra {
		cbp = 0x3f
	}

	for b, mask := 0, 0x20; b < 6; b, mask = b+1, mask>>1 {
		if cbp&mask == 0 {
			continue
		}
		if err := d.decodeBlock(b, intra, fieldDCT); err != nil {
			return err
		}
	}

	d.mbsLeft--

	return nil
}

// skipMacroblocks predicts n skipped macroblocks following the current address.
func (d *sliceDecoder) skipMacroblocks(n int) error {
	if d.pic.Type == PictureI || d.pic.Type == PictureD {
		return errors.Wrapf(ErrMacroblockAddress, "%d skipped macroblocks in %s picture", n, d.pic.Type)
	}

	d.resetDC()

	m := &d.mv
	if d.pic.Type == PictureP {
		m.resetPMV()
		m.mbType = mbForward
		m.motionType = motionFrame
		if d.field >= 0 {
			m.motionType = motionField
			m.fieldSelect[0][0] = d.field
		}
	}

	for i := 0; i < n; i++ {
		d.mbAddr++
		d.mbY = d.mbAddr / d.mbWidth
		d.mbX = d.mbAddr % d.mbWidth
		d.formPredictions()
		d.mbsLeft--
	}

	return nil
}

// decodeBlock decodes block b (0-3 luma, 4 Cb, 5 Cr) of the current macroblock
// and reconstructs it into the current frame.
func (d *sliceDecoder) decodeBlock(b int, intra, fieldDCT bool) error {
	comp := 0
	if b > 3 {
		comp = b - 3
	}

	blk := &d.block
	if err := d.decodeCoefficients(blk, intra, comp); err != nil {
		blk.clear()
		return errors.Wrapf(err, "block %d of macroblock %d", b, d.mbAddr)
	}

	d.quantizer.dequantize(blk, d.weights(intra), d.qscale, intra)

	data, index, stride := d.blockDest(b, fieldDCT)
	reconstruct(blk, &d.idct, data, index, stride, !intra)
	blk.clear()

	return nil
}

// decodeDCMacroblock decodes a macroblock of a D picture: DC coefficients only.
func (d *sliceDecoder) decodeDCMacroblock() error {
	br := &d.br
	blk := &d.block

	for b := 0; b < 6; b++ {
		comp := 0
		if b > 3 {
			comp = b - 3
		}
		d.dcPred[comp] += br.readDCDiff(comp)
		blk.data[0] = clip12(int32(d.dcPred[comp] << 3))
		blk.cols, blk.rows = 1, 1

		data, index, stride := d.blockDest(b, false)
		reconstruct(blk, &d.idct, data, index, stride, false)
		blk.clear()
	}

	br.flush(1) // end_of_macroblock
	d.mbsLeft--

	return nil
}

// weights returns the weighting matrix for a block. 4:2:0 chroma blocks use
// the luma matrices.
func (d *sliceDecoder) weights(intra bool) *[64]byte {
	if intra {
		return (*[64]byte)(d.quant.Intra)
	}

	return (*[64]byte)(d.quant.NonIntra)
}

// blockDest returns the plane data, start index and line stride of block b of
// the current macroblock.
func (d *sliceDecoder) blockDest(b int, fieldDCT bool) ([]byte, int, int) {
	if b < 4 {
		p := &d.cur.Y
		w := p.Width
		x := (d.mbX << 4) + ((b & 1) << 3)
		y := d.mbY << 4

		switch {
		case d.field >= 0:
			line := y + ((b >> 1) << 3)
			return p.Data, (2*line+d.field)*w + x, w << 1
		case fieldDCT:
			return p.Data, (y+(b>>1))*w + x, w << 1
		default:
			return p.Data, (y+((b>>1)<<3))*w + x, w
		}
	}

	p := &d.cur.Cb
	if b == 5 {
		p = &d.cur.Cr
	}
	w := p.Width
	x := d.mbX << 3
	y := d.mbY << 3

	if d.field >= 0 {
		return p.Data, (2*y+d.field)*w + x, w << 1
	}

	return p.Data, y*w + x, w
}
