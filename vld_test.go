package mpeg2

import (
	"encoding/binary"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestSliceDecoder(data []byte, mpeg2 bool) *sliceDecoder {
	d := &sliceDecoder{scan: &scanZigZag, mpeg2: mpeg2, field: -1}
	if mpeg2 {
		d.quantizer = quantMPEG2
	}
	d.resetDC()
	d.br.init(data, 0)

	return d
}

func TestReadDCDiff(t *testing.T) {
	tests := []struct {
		comp int
		code string
		want int
	}{
		{0, "100", 0},
		{0, "101 101", 5},
		{0, "101 010", -5},
		{0, "00 1", 1},
		{0, "01 00", -3},
		{1, "00", 0},
		{1, "01 0", -1},
		{2, "110 111", 7},
		{2, "1111 0 00000", -31},
	}

	for _, tt := range tests {
		w := &bitWriter{}
		w.bits(tt.code)
		require.Equal(t, tt.want, newBitReader(w.bytes()).readDCDiff(tt.comp), tt.code)
	}
}

func TestFastCoeffMatchesTree(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 8)

	for table := range vlcCoeff {
		for i := 0; i < 50000; i++ {
			binary.BigEndian.PutUint64(data, rng.Uint64()>>uint(rng.Intn(18)))

			fast := newBitReader(data)
			tree := newBitReader(data)
			v1, l1 := fast.readCoeffFast(fastCoeff[table])
			v2, l2 := tree.readCoeffTree(vlcCoeff[table])

			require.Equal(t, v2, v1, "table %d, bits %x", table, data)
			if v2 != 0 {
				require.Equal(t, l2, l1, "table %d, bits %x", table, data)
				require.Equal(t, tree.offset, fast.offset, "table %d, bits %x", table, data)
			}
		}
	}
}

func TestDecodeCoefficientsIntra(t *testing.T) {
	w := &bitWriter{}
	w.bits("101 101") // dc +5
	w.bits("11 0")    // run 0, level 1
	w.bits("011 0")   // run 1, level 1
	w.bits("10")

	d := newTestSliceDecoder(w.bytes(), true)
	b := &d.block
	require.NoError(t, d.decodeCoefficients(b, true, 0))

	require.Equal(t, 133, d.dcPred[0])
	require.Equal(t, int32(1064), b.dc)
	require.Equal(t, 2, b.n)
	require.Equal(t, scanZigZag[1], b.pos[0])
	require.Equal(t, scanZigZag[3], b.pos[1])
	require.Equal(t, int32(1), b.level[0])
	require.Equal(t, int32(1), b.level[1])
	require.Equal(t, uint8(0x03), b.cols)
	require.Equal(t, uint8(0x05), b.rows)
}

func TestDecodeCoefficientsIntraVLCFormat(t *testing.T) {
	w := &bitWriter{}
	w.bits("100")  // dc size 0
	w.bits("10 1") // run 0, level -1
	w.bits("0110") // end of block

	d := newTestSliceDecoder(w.bytes(), true)
	d.pic.IntraVLCFormat = true
	b := &d.block
	require.NoError(t, d.decodeCoefficients(b, true, 0))

	require.Equal(t, 128, d.dcPred[0])
	require.Equal(t, 1, b.n)
	require.Equal(t, int32(-1), b.level[0])
	require.Equal(t, 10, d.br.offset)
}

func TestDecodeCoefficientsNonIntraFirst(t *testing.T) {
	w := &bitWriter{}
	w.bits("1 1")
	w.bits("10")

	d := newTestSliceDecoder(w.bytes(), true)
	b := &d.block
	require.NoError(t, d.decodeCoefficients(b, false, 0))

	require.Equal(t, 1, b.n)
	require.Equal(t, uint8(0), b.pos[0])
	require.Equal(t, int32(-1), b.level[0])
	require.Equal(t, [3]int{128, 128, 128}, d.dcPred)
}

func TestDecodeCoefficientsEscape(t *testing.T) {
	t.Run("mpeg2", func(t *testing.T) {
		w := &bitWriter{}
		w.bits("0000 01")
		w.put(3, 6)
		w.put(0x1000-100, 12)
		w.bits("10")

		d := newTestSliceDecoder(w.bytes(), true)
		b := &d.block
		require.NoError(t, d.decodeCoefficients(b, false, 0))
		require.Equal(t, 1, b.n)
		require.Equal(t, scanZigZag[3], b.pos[0])
		require.Equal(t, int32(-100), b.level[0])
	})

	t.Run("mpeg1", func(t *testing.T) {
		w := &bitWriter{}
		w.bits("0000 01")
		w.put(3, 6)
		w.put(0x80, 8)
		w.put(56, 8)
		w.bits("0000 01")
		w.put(0, 6)
		w.put(0x00, 8)
		w.put(200, 8)
		w.bits("0000 01")
		w.put(0, 6)
		w.put(0x05, 8)
		w.bits("10")

		d := newTestSliceDecoder(w.bytes(), false)
		b := &d.block
		require.NoError(t, d.decodeCoefficients(b, false, 0))
		require.Equal(t, 3, b.n)
		require.Equal(t, []int32{-200, 200, 5}, b.level[:3])
		require.Equal(t, []uint8{scanZigZag[3], scanZigZag[4], scanZigZag[5]}, b.pos[:3])
	})
}

func TestDecodeCoefficientsOverflow(t *testing.T) {
	w := &bitWriter{}
	w.bits("0000 01")
	w.put(63, 6)
	w.put(1, 12)
	w.bits("0000 01")
	w.put(0, 6)
	w.put(1, 12)
	w.bits("10")

	d := newTestSliceDecoder(w.bytes(), true)
	require.ErrorIs(t, d.decodeCoefficients(&d.block, false, 0), ErrCoefficientOverflow)
}

func TestDecodeCoefficientsInvalid(t *testing.T) {
	d := newTestSliceDecoder([]byte{0, 0, 0, 0}, true)
	require.ErrorIs(t, d.decodeCoefficients(&d.block, false, 0), ErrInvalidCode)
}

func TestDecodeCoefficientsTruncated(t *testing.T) {
	w := &bitWriter{}
	w.bits("1 0 10")

	d := newTestSliceDecoder(w.bytes(), true)
	d.br.max = 3
	require.ErrorIs(t, d.decodeCoefficients(&d.block, false, 0), ErrBufferExceeded)
}

func TestCoeffBlockClear(t *testing.T) {
	var b coeffBlock
	b.add(10, 3)
	b.data[10] = 42
	b.data[0] = 7
	b.data[63] = 1
	b.dc = 5

	b.clear()
	require.Equal(t, [64]int32{}, b.data)
	require.Zero(t, b.n)
	require.Zero(t, b.cols)
	require.Zero(t, b.rows)
}

func BenchmarkReadCoeff(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	data := make([]byte, 1<<16)
	for i := range data {
		data[i] = byte(rng.Intn(256))
	}

	b.Run("fast", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			br := newBitReader(data)
			for !br.exhausted() {
				if v, _ := br.readCoeffFast(fastCoeff[0]); v == 0 {
					br.flush(1)
				}
			}
		}
	})

	b.Run("tree", func(b *testing.B) {
		b.ReportAllocs()
		for i := 0; i < b.N; i++ {
			br := newBitReader(data)
			for !br.exhausted() {
				if v, _ := br.readCoeffTree(vlcCoeff[0]); v == 0 {
					br.flush(1)
				}
			}
		}
	})
}
