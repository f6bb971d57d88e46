package mpeg2

// quantizer selects the inverse quantization rules of the stream.
type quantizer int

const (
	quantMPEG1 quantizer = iota
	quantMPEG2
)

// dequantize turns the levels of b into coefficients in b.data using the
// weighting matrix w (raster order) and quantiser_scale qscale.
func (q quantizer) dequantize(b *coeffBlock, w *[64]byte, qscale int, intra bool) {
	if q == quantMPEG1 {
		dequantizeMPEG1(b, w, qscale, intra)
	} else {
		dequantizeMPEG2(b, w, qscale, intra)
	}
}

func dequantizeMPEG1(b *coeffBlock, w *[64]byte, qscale int, intra bool) {
	var k int32
	if !intra {
		k = 1
	}
	if intra {
		b.data[0] = b.dc
	}

	for i := 0; i < b.n; i++ {
		p := b.pos[i]
		c := b.level[i]
		a := c
		if a < 0 {
			a = -a
		}

		t := ((a*2 + k) * int32(w[p]) * int32(qscale)) >> 5
		// Force odd values toward zero.
		t1 := t | 1
		d := t1 - t
		if d < 0 {
			d = -d
		}
		t -= d
		if t < 0 {
			t = 0
		}
		if c < 0 {
			t = -t
		}
		b.data[p] = clip12(t)
	}
}

func dequantizeMPEG2(b *coeffBlock, w *[64]byte, qscale int, intra bool) {
	var k int32
	if !intra {
		k = 1
	}

	var sum int32
	if intra {
		b.data[0] = b.dc
		sum = b.dc
	}

	for i := 0; i < b.n; i++ {
		p := b.pos[i]
		c := b.level[i]
		a := c
		if a < 0 {
			a = -a
		}

		t := ((a*2 + k) * int32(w[p]) * int32(qscale)) >> 5
		if c < 0 {
			t = -t
		}
		t = clip12(t)
		b.data[p] = t
		sum += t
	}

	// Mismatch control.
	if sum&1 == 0 {
		b.data[63] ^= 1
	}
	if b.data[63] != 0 {
		b.cols |= 0x80
		b.rows |= 0x80
	}
}
