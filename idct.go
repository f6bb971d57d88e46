package mpeg2

// reconstruct transforms b and writes it to dst at index (add == false) or adds
// it to the prediction already there. stride is the distance between block lines.
func reconstruct(b *coeffBlock, s *[64]int, dst []byte, index, stride int, add bool) {
	if b.cols == 0 {
		return
	}

	if b.cols == 1 && b.rows == 1 {
		value := (int(b.data[0])*int(idctPremultiplier[0]) + 128) >> 8
		if add {
			addValueToDest(value, dst, index, stride)
		} else {
			copyValueToDest(value, dst, index, stride)
		}
		return
	}

	for i := range s {
		s[i] = int(b.data[i]) * int(idctPremultiplier[i])
	}
	idct(s)
	if add {
		addBlockToDest(s, dst, index, stride)
	} else {
		copyBlockToDest(s, dst, index, stride)
	}
}

func idct(block *[64]int) {
	// See http://vsr.informatik.tu-chemnitz.de/~jan/MPEG/HTML/IDCT.html for more info.

	var b1, b3, b4, b6, b7, tmp1, tmp2, m0,
		x0, x1, x2, x3, x4, y3, y4, y5, y6, y7 int

	// Transform columns
	for i := 0; i < 8; i++ {
		b1 = block[4*8+i]
		b3 = block[2*8+i] + block[6*8+i]
		b4 = block[5*8+i] - block[3*8+i]
		tmp1 = block[1*8+i] + block[7*8+i]
		tmp2 = block[3*8+i] + block[5*8+i]
		b6 = block[1*8+i] - block[7*8+i]
		b7 = tmp1 + tmp2
		m0 = block[0*8+i]
		x4 = ((b6*473 - b4*196 + 128) >> 8) - b7
		x0 = x4 - (((tmp1-tmp2)*362 + 128) >> 8)
		x1 = m0 - b1
		x2 = (((block[2*8+i]-block[6*8+i])*362 + 128) >> 8) - b3
		x3 = m0 + b1
		y3 = x1 + x2
		y4 = x3 + b3
		y5 = x1 - x2
		y6 = x3 - b3
		y7 = -x0 - ((b4*473 + b6*196 + 128) >> 8)
		block[0*8+i] = b7 + y4
		block[1*8+i] = x4 + y3
		block[2*8+i] = y5 - x0
		block[3*8+i] = y6 - y7
		block[4*8+i] = y6 + y7
		block[5*8+i] = x0 + y5
		block[6*8+i] = y3 - x4
		block[7*8+i] = y4 - b7
	}

	// Transform rows
	for i := 0; i < 64; i += 8 {
		b1 = block[4+i]
		b3 = block[2+i] + block[6+i]
		b4 = block[5+i] - block[3+i]
		tmp1 = block[1+i] + block[7+i]
		tmp2 = block[3+i] + block[5+i]
		b6 = block[1+i] - block[7+i]
		b7 = tmp1 + tmp2
		m0 = block[0+i]
		x4 = ((b6*473 - b4*196 + 128) >> 8) - b7
		x0 = x4 - (((tmp1-tmp2)*362 + 128) >> 8)
		x1 = m0 - b1
		x2 = (((block[2+i]-block[6+i])*362 + 128) >> 8) - b3
		x3 = m0 + b1
		y3 = x1 + x2
		y4 = x3 + b3
		y5 = x1 - x2
		y6 = x3 - b3
		y7 = -x0 - ((b4*473 + b6*196 + 128) >> 8)
		block[0+i] = (b7 + y4 + 128) >> 8
		block[1+i] = (x4 + y3 + 128) >> 8
		block[2+i] = (y5 - x0 + 128) >> 8
		block[3+i] = (y6 - y7 + 128) >> 8
		block[4+i] = (y6 + y7 + 128) >> 8
		block[5+i] = (x0 + y5 + 128) >> 8
		block[6+i] = (y3 - x4 + 128) >> 8
		block[7+i] = (y4 - b7 + 128) >> 8
	}
}

func copyBlockToDest(block *[64]int, dest []byte, index, stride int) {
	for n := 0; n < 64; n += 8 {
		row := dest[index : index+8 : index+8]
		for x := range row {
			row[x] = clamp(block[n+x])
		}
		index += stride
	}
}

func addBlockToDest(block *[64]int, dest []byte, index, stride int) {
	for n := 0; n < 64; n += 8 {
		row := dest[index : index+8 : index+8]
		for x := range row {
			row[x] = clamp(int(row[x]) + block[n+x])
		}
		index += stride
	}
}

func copyValueToDest(value int, dest []byte, index, stride int) {
	val := clamp(value)
	for n := 0; n < 8; n++ {
		row := dest[index : index+8 : index+8]
		for x := range row {
			row[x] = val
		}
		index += stride
	}
}

func addValueToDest(value int, dest []byte, index, stride int) {
	for n := 0; n < 8; n++ {
		row := dest[index : index+8 : index+8]
		for x := range row {
			row[x] = clamp(int(row[x]) + value)
		}
		index += stride
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func clamp(n int) byte {
	if n > 255 {
		n = 255
	} else if n < 0 {
		n = 0
	}

	return byte(n)
}
