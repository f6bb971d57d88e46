package mpeg2

import (
	"math/bits"
)

// coeffBlock holds one block between VLD, inverse quantization and IDCT.
type coeffBlock struct {
	data [64]int32 // dequantized coefficients, raster order

	pos   [64]uint8 // raster positions in decode order
	level [64]int32 // signed levels as read from the stream
	n     int

	dc    int32 // intra DC after prediction and precision shift
	intra bool

	cols uint8 // bit i set when column i has a non-zero coefficient
	rows uint8 // bit i set when row i has a non-zero coefficient
}

func (b *coeffBlock) add(pos uint8, level int32) {
	b.pos[b.n] = pos
	b.level[b.n] = level
	b.n++
	b.cols |= 1 << (pos & 7)
	b.rows |= 1 << (pos >> 3)
}

// clear zeroes the coefficients touched by the last block.
func (b *coeffBlock) clear() {
	for i := 0; i < b.n; i++ {
		b.data[b.pos[i]] = 0
	}
	b.data[0] = 0
	b.data[63] = 0
	b.n = 0
	b.dc = 0
	b.cols, b.rows = 0, 0
}

const (
	coeffInvalid = iota
	coeffSymbol
	coeffEnd
	coeffEsc
	coeffLong
)

// coeffEntry is one slot of the fast coefficient table. length includes the sign bit.
type coeffEntry struct {
	kind   uint8
	length uint8
	value  uint16
	level  int16
}

const (
	coeffShortBits = 9
	coeffPeekBits  = 17
	coeffMinZeros  = 6
	coeffMaxZeros  = 11
)

// coeffTable decodes a coefficient code from a 17 bit window. Codes of up to 9
// bits (sign included) resolve in short; longer codes all start with at least
// six zeros and resolve in long, selected by the leading zero count.
type coeffTable struct {
	short [1 << coeffShortBits]coeffEntry
	long  [coeffMaxZeros - coeffMinZeros + 1][]coeffEntry
}

var fastCoeff [2]*coeffTable

func init() {
	for i, t := range vlcCoeff {
		fastCoeff[i] = newCoeffTable(t)
	}
}

func newCoeffTable(tree []vlcUint) *coeffTable {
	t := &coeffTable{}
	for z := coeffMinZeros; z <= coeffMaxZeros; z++ {
		t.long[z-coeffMinZeros] = make([]coeffEntry, 1<<(coeffPeekBits-z-1))
	}
	for i := 0; i < 1<<(coeffShortBits-coeffMinZeros); i++ {
		t.short[i].kind = coeffLong
	}

	var walk func(state int, code uint32, n int)
	walk = func(state int, code uint32, n int) {
		for bit := 0; bit < 2; bit++ {
			e := tree[state+bit]
			c := code<<1 | uint32(bit)
			switch {
			case e.Index > 0:
				walk(int(e.Index), c, n+1)
			case e.Index < 0:
			case e.Value == coeffEOB:
				t.place(c, n+1, coeffEntry{kind: coeffEnd, length: uint8(n + 1), value: e.Value})
			case e.Value == coeffEscape:
				t.place(c, n+1, coeffEntry{kind: coeffEsc, length: uint8(n + 1), value: e.Value})
			default:
				level := int16(e.Value & 0xff)
				t.place(c<<1, n+2, coeffEntry{kind: coeffSymbol, length: uint8(n + 2), value: e.Value, level: level})
				t.place(c<<1|1, n+2, coeffEntry{kind: coeffSymbol, length: uint8(n + 2), value: e.Value, level: -level})
			}
		}
	}
	walk(0, 0, 0)

	return t
}

func (t *coeffTable) place(code uint32, n int, e coeffEntry) {
	if n <= coeffShortBits {
		shift := coeffShortBits - n
		base := int(code) << shift
		for i := 0; i < 1<<shift; i++ {
			t.short[base+i] = e
		}
		return
	}

	zeros := n - bits.Len32(code)
	if zeros < coeffMinZeros || zeros > coeffMaxZeros {
		panic("mpeg2: coefficient code outside the long table")
	}
	width := coeffPeekBits - zeros - 1
	rest := n - zeros - 1
	shift := width - rest
	long := t.long[zeros-coeffMinZeros]
	base := int(code&(1<<uint(rest)-1)) << shift
	for i := 0; i < 1<<shift; i++ {
		long[base+i] = e
	}
}

// readCoeffFast decodes one coefficient code with the lookup tables. It returns
// the table value and the signed level; value is 0 for an invalid code.
func (br *bitReader) readCoeffFast(t *coeffTable) (uint16, int) {
	w := br.show(coeffPeekBits)
	e := t.short[w>>(coeffPeekBits-coeffShortBits)]
	if e.kind == coeffLong {
		zeros := bits.LeadingZeros32(w << (32 - coeffPeekBits))
		if zeros > coeffMaxZeros {
			return 0, 0
		}
		width := coeffPeekBits - zeros - 1
		e = t.long[zeros-coeffMinZeros][w&(1<<uint(width)-1)]
	}
	if e.kind == coeffInvalid {
		return 0, 0
	}
	br.flush(int(e.length))

	return e.value, int(e.level)
}

// readCoeffTree decodes one coefficient code a bit at a time.
func (br *bitReader) readCoeffTree(table []vlcUint) (uint16, int) {
	v := br.readVlcUint(table)
	if v == 0 || v == coeffEOB || v == coeffEscape {
		return v, 0
	}

	level := int(v & 0xff)
	if br.get1() != 0 {
		level = -level
	}

	return v, level
}

// readEscape reads the fixed length run and level after an escape code.
func (br *bitReader) readEscape(mpeg2 bool) (int, int) {
	if mpeg2 {
		v := br.get(18)
		level := v & 0xfff
		if level&0x800 != 0 {
			level -= 0x1000
		}

		return v >> 12, level
	}

	run := br.get(6)
	first := br.get(8)
	if first&0x7f != 0 {
		return run, first - ((first & 0x80) << 1)
	}

	return run, br.get(8) - (first << 1)
}

// readDCDiff reads dct_dc_size and dct_dc_differential for component comp.
func (br *bitReader) readDCDiff(comp int) int {
	size := br.readVlc(vlcDCSize[comp])
	if size == 0 {
		return 0
	}

	diff := br.get(size)
	if diff&(1<<uint(size-1)) == 0 {
		diff -= 1<<uint(size) - 1
	}

	return diff
}

// decodeCoefficients reads the coefficients of one block into b. Intra blocks
// update the DC predictor of component comp.
func (d *sliceDecoder) decodeCoefficients(b *coeffBlock, intra bool, comp int) error {
	br := &d.br
	b.intra = intra

	i := 0
	table := 0
	if intra {
		diff := br.readDCDiff(comp)
		d.dcPred[comp] += diff
		b.dc = clip12(int32(d.dcPred[comp] << uint(3-d.pic.IntraDCPrecision)))
		b.cols, b.rows = 1, 1
		if d.pic.IntraVLCFormat {
			table = 1
		}
		i = 1
	} else if br.show(1) == 1 {
		// First coefficient of a non-intra block: "1s" is run 0, level 1.
		br.flush(1)
		level := int32(1)
		if br.get1() != 0 {
			level = -1
		}
		b.add(d.scan[0], level)
		i = 1
	}

	ft := fastCoeff[table]
	for {
		v, level := br.readCoeffFast(ft)
		run := int(v >> 8)
		switch v {
		case 0:
			return ErrInvalidCode
		case coeffEOB:
			if br.overrun() {
				return ErrBufferExceeded
			}
			return nil
		case coeffEscape:
			run, level = br.readEscape(d.mpeg2)
		}

		i += run
		if i >= 64 {
			return ErrCoefficientOverflow
		}
		b.add(d.scan[i], int32(level))
		i++

		if br.overrun() {
			return ErrBufferExceeded
		}
	}
}

func clip12(v int32) int32 {
	if v > 2047 {
		return 2047
	} else if v < -2048 {
		return -2048
	}

	return v
}
