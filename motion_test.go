package mpeg2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeMotionVector(t *testing.T) {
	tests := []struct {
		rSize, code, residual, pred int
		want                        int
	}{
		{0, 0, 0, 5, 5},
		{0, 1, 0, 0, 1},
		{0, 1, 0, 15, -16},
		{0, -1, 0, -16, 15},
		{1, 2, 1, 0, 4},
		{1, -2, 0, 0, -3},
		{1, 1, 1, 30, -32},
		{3, 15, 7, 0, 120},
		{3, 16, 7, 0, -128},
	}

	for _, tt := range tests {
		got := decodeMotionVector(tt.rSize, tt.code, tt.residual, tt.pred)
		require.Equal(t, tt.want, got, "r_size %d code %d residual %d pred %d", tt.rSize, tt.code, tt.residual, tt.pred)
	}
}

func TestDualPrime(t *testing.T) {
	tests := []struct {
		name          string
		mvx, mvy      int
		dmvector      [2]int
		frame         bool
		topFieldFirst bool
		field         int
		want          [2][2]int
	}{
		{"top field", 4, 6, [2]int{1, -1}, false, false, 0, [2][2]int{{3, 1}}},
		{"bottom field", 4, 6, [2]int{1, -1}, false, false, 1, [2][2]int{{3, 3}}},
		{"negative", -3, -3, [2]int{}, false, false, 0, [2][2]int{{-2, -3}}},
		{"frame top first", 4, 6, [2]int{1, -1}, true, true, -1, [2][2]int{{3, 1}, {7, 9}}},
		{"frame bottom first", 4, 6, [2]int{1, -1}, true, false, -1, [2][2]int{{7, 7}, {3, 3}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := dualPrime(tt.mvx, tt.mvy, tt.dmvector, tt.frame, tt.topFieldFirst, tt.field)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRefFrame(t *testing.T) {
	fwd, bwd, cur := &Frame{}, &Frame{}, &Frame{}
	d := &sliceDecoder{fwd: fwd, bwd: bwd, cur: cur, field: 1, secondField: true}
	d.pic.Type = PictureP

	require.Same(t, cur, d.refFrame(0, 0))
	require.Same(t, fwd, d.refFrame(0, 1))
	require.Same(t, bwd, d.refFrame(1, 0))

	d.secondField = false
	require.Same(t, fwd, d.refFrame(0, 0))

	d.secondField = true
	d.pic.Type = PictureB
	require.Same(t, fwd, d.refFrame(0, 0))
}

func motionDecoder(bits string, field int, motionType int) *sliceDecoder {
	w := &bitWriter{}
	w.bits(bits)

	d := &sliceDecoder{field: field}
	d.pic.FCode = [2][2]int{{1, 1}, {1, 1}}
	d.mv.motionType = motionType
	d.br.init(w.bytes(), 0)

	return d
}

func TestMotionVectorsFrame(t *testing.T) {
	d := motionDecoder("010 011", -1, motionFrame)
	d.motionVectors(0)

	require.Equal(t, [2]int{1, -1}, d.mv.pmv[0][0])
	require.Equal(t, [2]int{1, -1}, d.mv.pmv[1][0])
}

func TestMotionVectorsFieldInFrame(t *testing.T) {
	d := motionDecoder("1 010 010 0 011 011", -1, motionField)
	d.motionVectors(1)

	require.Equal(t, 1, d.mv.fieldSelect[0][1])
	require.Equal(t, 0, d.mv.fieldSelect[1][1])
	require.Equal(t, [2]int{1, 2}, d.mv.pmv[0][1])
	require.Equal(t, [2]int{-1, -2}, d.mv.pmv[1][1])
}

func TestMotionVectorsDualPrime(t *testing.T) {
	d := motionDecoder("010 10 010 11", -1, motionDualPrime)
	d.motionVectors(0)

	require.Equal(t, [2]int{1, 2}, d.mv.pmv[0][0])
	require.Equal(t, [2]int{1, 2}, d.mv.pmv[1][0])
	require.Equal(t, [2]int{1, -1}, d.mv.dmvector)
}

func TestMotionVectors16x8(t *testing.T) {
	d := motionDecoder("0 010 1 1 1 011", 0, motion16x8)
	d.motionVectors(0)

	require.Equal(t, 0, d.mv.fieldSelect[0][0])
	require.Equal(t, 1, d.mv.fieldSelect[1][0])
	require.Equal(t, [2]int{1, 0}, d.mv.pmv[0][0])
	require.Equal(t, [2]int{0, -1}, d.mv.pmv[1][0])
}

func gradientFrame() *Frame {
	f := newFrame(32, 32, 32, 32)
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			f.Y.Data[y*32+x] = byte(x + 2*y)
		}
	}
	for i := range f.Cb.Data {
		f.Cb.Data[i] = 50
		f.Cr.Data[i] = 60
	}

	return f
}

func TestPredictFullPel(t *testing.T) {
	ref, dst := gradientFrame(), newFrame(32, 32, 32, 32)

	predictMacroblockPart(dst, ref, -1, -1, 0, 0, 16, 16, 4, 2, false)

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			require.Equal(t, byte(x+2+2*(y+1)), dst.Y.Data[y*32+x], "(%d,%d)", x, y)
		}
	}
	require.Equal(t, byte(50), dst.Cb.Data[0])
	require.Equal(t, byte(60), dst.Cr.Data[7*16+7])
}

func TestPredictHalfPel(t *testing.T) {
	ref, dst := gradientFrame(), newFrame(32, 32, 32, 32)

	predictMacroblockPart(dst, ref, -1, -1, 0, 16, 16, 16, 1, 0, false)
	require.Equal(t, byte(32+1), dst.Y.Data[16*32])

	predictMacroblockPart(dst, ref, -1, -1, 0, 0, 16, 16, 1, 1, false)
	// (a + a+1 + a+2 + a+3 + 2) / 4
	require.Equal(t, byte(2), dst.Y.Data[0])
}

func TestPredictAverage(t *testing.T) {
	ref, dst := gradientFrame(), newFrame(32, 32, 32, 32)
	for i := range dst.Y.Data {
		dst.Y.Data[i] = 100
	}

	predictMacroblockPart(dst, ref, -1, -1, 0, 0, 16, 16, 0, 0, true)
	require.Equal(t, byte((100+0+1)>>1), dst.Y.Data[0])
	require.Equal(t, byte((100+5+2+1)>>1), dst.Y.Data[32+5])
}

func TestPredictClampsToEdge(t *testing.T) {
	ref, dst := gradientFrame(), newFrame(32, 32, 32, 32)

	predictMacroblockPart(dst, ref, -1, -1, 0, 0, 16, 16, -80, 200, false)
	require.Equal(t, ref.Y.Data[16*32], dst.Y.Data[0])
}

func TestPredictField(t *testing.T) {
	ref, dst := gradientFrame(), newFrame(32, 32, 32, 32)

	predictMacroblockPart(dst, ref, 1, 0, 0, 0, 16, 8, 0, 0, false)
	for j := 0; j < 8; j++ {
		require.Equal(t, ref.Y.Data[(2*j)*32+3], dst.Y.Data[(2*j+1)*32+3])
		require.Zero(t, dst.Y.Data[(2*j)*32+3])
	}
}
