package mpeg2

import (
	"math/bits"
	"strings"
)

// bitWriter builds MSB-first bitstreams for tests.
type bitWriter struct {
	data []byte
	n    int
}

func (w *bitWriter) put(v, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.n&7 == 0 {
			w.data = append(w.data, 0)
		}
		if (v>>uint(i))&1 == 1 {
			w.data[len(w.data)-1] |= 0x80 >> uint(w.n&7)
		}
		w.n++
	}
}

// bits writes a string of 0 and 1, ignoring spaces.
func (w *bitWriter) bits(s string) {
	for _, c := range strings.ReplaceAll(s, " ", "") {
		if c == '1' {
			w.put(1, 1)
		} else {
			w.put(0, 1)
		}
	}
}

func (w *bitWriter) align() {
	for w.n&7 != 0 {
		w.put(0, 1)
	}
}

func (w *bitWriter) startCode(code byte) {
	w.align()
	w.put(0x000001, 24)
	w.put(int(code), 8)
}

func (w *bitWriter) bytes() []byte {
	w.align()
	return w.data
}

// streamWriter writes the syntax elements of a video elementary stream with
// the fixed parameters the tests use.
type streamWriter struct {
	bitWriter
	mpeg2 bool
}

func newStreamWriter(mpeg2 bool) *streamWriter {
	return &streamWriter{mpeg2: mpeg2}
}

func (w *streamWriter) sequence(width, height int) {
	w.startCode(startSequence)
	w.put(width, 12)
	w.put(height, 12)
	w.put(1, 4)     // aspect ratio
	w.put(3, 4)     // 25 fps
	w.put(2500, 18) // bit rate
	w.put(1, 1)
	w.put(112, 10) // vbv buffer size
	w.put(0, 1)
	w.put(0, 1) // load_intra_quantiser_matrix
	w.put(0, 1) // load_non_intra_quantiser_matrix

	if w.mpeg2 {
		w.sequenceExtension(0x48, 1, width>>12, height>>12)
	}
}

// sequenceExtension writes a sequence extension. hext and vext are the size
// extension bits, so sequence writes sizes of 4096 and more through them.
func (w *streamWriter) sequenceExtension(profileLevel, chroma, hext, vext int) {
	w.startCode(startExtension)
	w.put(extSequence, 4)
	w.put(profileLevel, 8)
	w.put(1, 1) // progressive_sequence
	w.put(chroma, 2)
	w.put(hext, 2)
	w.put(vext, 2)
	w.put(0, 12)
	w.put(1, 1)
	w.put(0, 8)
	w.put(0, 1)
	w.put(0, 2)
	w.put(0, 5)
}

func (w *streamWriter) gop() {
	w.startCode(startGOP)
	w.put(0, 1)
	w.put(1, 5)
	w.put(2, 6)
	w.put(1, 1)
	w.put(3, 6)
	w.put(4, 6)
	w.put(1, 1)
	w.put(0, 1)
}

func (w *streamWriter) picture(typ PictureType, tr int, structure PictureStructure) {
	w.startCode(startPicture)
	w.put(tr, 10)
	w.put(int(typ), 3)
	w.put(0xffff, 16)
	if typ == PictureP || typ == PictureB {
		w.put(0, 1)
		w.put(1, 3)
	}
	if typ == PictureB {
		w.put(0, 1)
		w.put(1, 3)
	}
	w.put(0, 1)

	if !w.mpeg2 {
		return
	}

	w.startCode(startExtension)
	w.put(extPictureCoding, 4)
	for i := 0; i < 4; i++ {
		w.put(1, 4) // f_code
	}
	w.put(0, 2) // intra_dc_precision
	w.put(int(structure), 2)
	w.put(1, 1) // top_field_first
	if structure == StructureFrame {
		w.put(1, 1) // frame_pred_frame_dct
	} else {
		w.put(0, 1)
	}
	w.put(0, 1)
	w.put(0, 1)
	w.put(0, 1)
	w.put(0, 1)
	w.put(0, 1)
	w.put(1, 1)
	w.put(1, 1)
	w.put(0, 1)
}

func (w *streamWriter) slice(row int) {
	w.startCode(byte(row + 1))
	w.put(1, 5)
	w.put(0, 1)
}

// dcBlock writes an intra block holding only a DC differential.
func (w *streamWriter) dcBlock(comp, diff int) {
	a := diff
	if a < 0 {
		a = -a
	}
	size := bits.Len(uint(a))

	luma := []string{"100", "00", "01", "101", "110", "1110"}
	chroma := []string{"00", "01", "10", "110", "1110", "1111 0"}
	if comp == 0 {
		w.bits(luma[size])
	} else {
		w.bits(chroma[size])
	}
	if size > 0 {
		if diff < 0 {
			diff += 1<<uint(size) - 1
		}
		w.put(diff, size)
	}
}

// intraMacroblock writes an intra macroblock whose blocks carry the DC
// differentials diff (Y0, Y1, Y2, Y3, Cb, Cr).
func (w *streamWriter) intraMacroblock(increment string, diff [6]int) {
	w.bits(increment)
	w.bits("1") // intra
	for b := 0; b < 6; b++ {
		comp := 0
		if b > 3 {
			comp = b - 3
		}
		w.dcBlock(comp, diff[b])
		w.bits("10") // end of block
	}
}

// forwardMacroblock writes a non-coded forward predicted macroblock with a zero vector.
func (w *streamWriter) forwardMacroblock(increment string, typ PictureType) {
	w.bits(increment)
	if typ == PictureP {
		w.bits("001")
	} else {
		w.bits("0010")
	}
	w.bits("1 1")
}

func (w *streamWriter) end() []byte {
	w.startCode(startSequenceEnd)
	return w.bytes()
}

// firstDiff makes the first macroblock of a slice raise all components from
// 128 to 133. Later macroblocks keep the prediction.
var (
	firstDiff = [6]int{5, 0, 0, 0, 5, 5}
	keepDiff  = [6]int{}
)

// intraPicture writes an I picture of mbWidth x mbHeight macroblocks, one slice per row.
func (w *streamWriter) intraPicture(tr, mbWidth, mbHeight int) {
	w.picture(PictureI, tr, StructureFrame)
	for row := 0; row < mbHeight; row++ {
		w.slice(row)
		for x := 0; x < mbWidth; x++ {
			diff := keepDiff
			if x == 0 {
				diff = firstDiff
			}
			w.intraMacroblock("1", diff)
		}
	}
}

// forwardPicture writes a P or B picture copying its forward reference. The
// middle macroblocks of each row are skipped.
func (w *streamWriter) forwardPicture(typ PictureType, tr, mbWidth, mbHeight int) {
	w.picture(typ, tr, StructureFrame)
	for row := 0; row < mbHeight; row++ {
		w.slice(row)
		w.forwardMacroblock("1", typ)
		if mbWidth > 1 {
			w.forwardMacroblock(incrementCode(mbWidth-1), typ)
		}
	}
}

func incrementCode(n int) string {
	codes := []string{"", "1", "011", "010", "0011", "0010", "0001 1", "0001 0"}
	return codes[n]
}

// testStream returns a sequence of I pictures whose pixels are all 133.
func testStream(mpeg2 bool, width, height, pictures int) []byte {
	w := newStreamWriter(mpeg2)
	w.sequence(width, height)
	w.gop()
	for i := 0; i < pictures; i++ {
		w.intraPicture(i, (width+15)>>4, (height+15)>>4)
	}

	return w.end()
}
