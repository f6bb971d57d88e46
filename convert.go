package mpeg2

// prepareOut sizes f.Out for format and records the format in f.
func (f *Frame) prepareOut(format Format) {
	f.Format = format
	if format == FormatNative {
		f.Out = f.Out[:0]
		return
	}

	n := format.Size(f.Width, f.Height)
	if cap(f.Out) < n {
		f.Out = make([]byte, n)
	}
	f.Out = f.Out[:n]
}

// convertRows converts luma lines [y0, y1) of f, and the chroma lines they
// cover, into f.Out. y0 must be even.
func (f *Frame) convertRows(y0, y1 int) {
	w, h := f.Width, f.Height
	if y1 > h {
		y1 = h
	}
	if y0 >= y1 {
		return
	}

	cw, ch := (w+1)>>1, (h+1)>>1
	cy0, cy1 := y0>>1, (y1+1)>>1
	if cy1 > ch {
		cy1 = ch
	}

	switch f.Format {
	case FormatYUV420P:
		for y := y0; y < y1; y++ {
			copy(f.Out[y*w:y*w+w], f.Y.Data[y*f.Y.Width:])
		}
		u := f.Out[w*h:]
		v := u[cw*ch:]
		for y := cy0; y < cy1; y++ {
			copy(u[y*cw:y*cw+cw], f.Cb.Data[y*f.Cb.Width:])
			copy(v[y*cw:y*cw+cw], f.Cr.Data[y*f.Cr.Width:])
		}

	case FormatYUV420SPUV, FormatYUV420SPVU:
		for y := y0; y < y1; y++ {
			copy(f.Out[y*w:y*w+w], f.Y.Data[y*f.Y.Width:])
		}
		first, second := &f.Cb, &f.Cr
		if f.Format == FormatYUV420SPVU {
			first, second = second, first
		}
		uv := f.Out[w*h:]
		for y := cy0; y < cy1; y++ {
			out := uv[y*cw*2 : (y+1)*cw*2]
			a := first.Data[y*first.Width:]
			b := second.Data[y*second.Width:]
			for x := 0; x < cw; x++ {
				out[2*x] = a[x]
				out[2*x+1] = b[x]
			}
		}

	case FormatYUV422ILE:
		stride := cw * 4
		for y := y0; y < y1; y++ {
			out := f.Out[y*stride : (y+1)*stride]
			luma := f.Y.Data[y*f.Y.Width:]
			cb := f.Cb.Data[(y>>1)*f.Cb.Width:]
			cr := f.Cr.Data[(y>>1)*f.Cr.Width:]
			for x := 0; x < cw; x++ {
				out[4*x] = luma[2*x]
				out[4*x+1] = cb[x]
				out[4*x+2] = luma[2*x+1]
				out[4*x+3] = cr[x]
			}
		}
	}
}
