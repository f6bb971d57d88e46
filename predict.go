package mpeg2

// predictBlock forms the w x h prediction at (x, y) of dst from ref displaced by
// the half-pel vector (mvx, mvy). With avg set the prediction is averaged into
// dst instead of replacing it. Vectors pointing outside ref are clamped to its edge.
func predictBlock(dst, ref planeView, x, y, w, h, mvx, mvy int, avg bool) {
	hx := mvx & 1
	hy := mvy & 1

	sx := x + (mvx >> 1)
	sy := y + (mvy >> 1)
	if sx < 0 {
		sx = 0
	} else if sx > ref.width-w-hx {
		sx = ref.width - w - hx
	}
	if sy < 0 {
		sy = 0
	} else if sy > ref.height-h-hy {
		sy = ref.height - h - hy
	}

	si := ref.offset + sy*ref.stride + sx
	di := dst.offset + y*dst.stride + x
	s := ref.data
	d := dst.data
	next := ref.stride

	switch hx<<1 | hy {
	case 0:
		for j := 0; j < h; j++ {
			src := s[si : si+w]
			out := d[di : di+w]
			if avg {
				for i, v := range src {
					out[i] = byte((int(out[i]) + int(v) + 1) >> 1)
				}
			} else {
				copy(out, src)
			}
			si += ref.stride
			di += dst.stride
		}
	case 1:
		for j := 0; j < h; j++ {
			out := d[di : di+w]
			for i := range out {
				p := (int(s[si+i]) + int(s[si+i+next]) + 1) >> 1
				if avg {
					p = (int(out[i]) + p + 1) >> 1
				}
				out[i] = byte(p)
			}
			si += ref.stride
			di += dst.stride
		}
	case 2:
		for j := 0; j < h; j++ {
			out := d[di : di+w]
			for i := range out {
				p := (int(s[si+i]) + int(s[si+i+1]) + 1) >> 1
				if avg {
					p = (int(out[i]) + p + 1) >> 1
				}
				out[i] = byte(p)
			}
			si += ref.stride
			di += dst.stride
		}
	case 3:
		for j := 0; j < h; j++ {
			out := d[di : di+w]
			for i := range out {
				p := (int(s[si+i]) + int(s[si+i+1]) + int(s[si+i+next]) + int(s[si+i+next+1]) + 2) >> 2
				if avg {
					p = (int(out[i]) + p + 1) >> 1
				}
				out[i] = byte(p)
			}
			si += ref.stride
			di += dst.stride
		}
	}
}

// predictMacroblockPart predicts the luma and both chroma planes of a w x h luma
// area at (x, y). dstField and refField select a field (0, 1) or the frame (-1);
// coordinates and vertical vector components are in units of that field or frame.
func predictMacroblockPart(dst, ref *Frame, dstField, refField, x, y, w, h, mvx, mvy int, avg bool) {
	predictBlock(dst.Y.view(dstField), ref.Y.view(refField), x, y, w, h, mvx, mvy, avg)

	// 4:2:0 chroma vectors are halved, truncating toward zero.
	cx, cy := mvx/2, mvy/2
	predictBlock(dst.Cb.view(dstField), ref.Cb.view(refField), x>>1, y>>1, w>>1, h>>1, cx, cy, avg)
	predictBlock(dst.Cr.view(dstField), ref.Cr.view(refField), x>>1, y>>1, w>>1, h>>1, cx, cy, avg)
}
