package mpeg2

import (
	"github.com/pkg/errors"
)

// sliceDecoder is the decode context of one worker. It is built per picture from
// the decoder state and owns copies of everything a worker reads while decoding.
type sliceDecoder struct {
	br bitReader

	pic       Picture
	quant     QuantMatrices
	quantizer quantizer
	scan      *[64]uint8
	mpeg2     bool

	mbWidth      int
	numVertMB    int
	rowExtension bool

	field       int // -1 for frame pictures, otherwise the parity of the field
	secondField bool

	cur *Frame
	fwd *Frame
	bwd *Frame

	conv   *Frame
	format Format

	startRow int
	endRow   int
	mbAddr   int
	mbX      int
	mbY      int
	mbsLeft  int
	first    bool

	qscale int
	dcPred [3]int
	mv     motionState

	block coeffBlock
	idct  [64]int

	err error
}

// quantScale maps quantiser_scale_code to quantiser_scale.
func (d *sliceDecoder) quantScale(code int) int {
	if d.pic.QScaleType {
		return nonLinearQuantScale[code&31]
	}

	return code << 1
}

func (d *sliceDecoder) resetDC() {
	v := 128 << uint(d.pic.IntraDCPrecision)
	d.dcPred = [3]int{v, v, v}
}

// sliceRow reads the slice vertical position after the start code prefix and
// returns the zero based macroblock row.
func (d *sliceDecoder) sliceRow() (int, error) {
	br := &d.br
	br.flush(24)

	row := br.get(8)
	if d.rowExtension {
		row += br.get(3) << 7
	}
	if row == 0 || row > d.numVertMB {
		return 0, errors.Wrapf(ErrInvalidVertSize, "slice row %d of %d", row, d.numVertMB)
	}

	return row - 1, nil
}

// decodeSlice decodes the slice starting at the cursor, which must be on its start code.
func (d *sliceDecoder) decodeSlice() error {
	br := &d.br

	row, err := d.sliceRow()
	if err != nil {
		return err
	}
	if row < d.startRow || row >= d.endRow {
		return errors.Wrapf(ErrInvalidVertSize, "slice row %d outside rows %d-%d", row, d.startRow, d.endRow)
	}
	if row != d.mbY {
		d.mbX = 0
		d.mbY = row
	}
	d.mbAddr = row*d.mbWidth - 1

	d.qscale = d.quantScale(br.get(5))

	// intra_slice_flag, intra_slice, reserved bits and extra_information_slice
	for br.show(1) == 1 {
		br.flush(9)
	}
	br.flush(1)

	d.resetDC()
	d.mv.resetPMV()
	d.first = true

	for {
		if err := d.decodeMacroblock(); err != nil {
			return err
		}
		if br.overrun() {
			return ErrBufferExceeded
		}
		if d.mbsLeft <= 0 || br.show(23) == 0 {
			break
		}
	}

	if d.mbY < d.numVertMB {
		br.nextStartCode()
	}

	return nil
}

// decodeRows decodes slices from the cursor while they start inside [startRow, endRow).
func (d *sliceDecoder) decodeRows() {
	br := &d.br
	for {
		if err := d.decodeSlice(); err != nil {
			if d.err == nil {
				d.err = err
			}
			log.Warningf("slice at row %d: %v", d.mbY, err)
			d.block.clear()
			br.nextStartCode()
		}

		if d.mbsLeft <= 0 || br.exhausted() {
			return
		}

		c := br.startCode()
		if !startIsSlice(c) {
			return
		}
		save := br.offset
		row, err := d.sliceRow()
		br.offset = save
		if err != nil || row < d.startRow || row >= d.endRow {
			return
		}
	}
}
