package mpeg2

// Motion types. Frame pictures use motionField, motionFrame and motionDualPrime;
// field pictures use motionField, motion16x8 and motionDualPrime.
const (
	motionField     = 1
	motionFrame     = 2
	motion16x8      = 2
	motionDualPrime = 3
)

// motionState carries the motion information of the previous macroblock of a slice.
type motionState struct {
	mbType     int
	motionType int

	// fieldSelect and pmv are indexed by vector (first, second) and direction
	// (forward, backward). pmv holds horizontal and vertical components in
	// half-pel frame units.
	fieldSelect [2][2]int
	pmv         [2][2][2]int
	dmvector    [2]int
}

func (m *motionState) resetPMV() {
	m.pmv = [2][2][2]int{}
}

// motionVectors reads the vectors of direction s for the current motion type.
func (d *sliceDecoder) motionVectors(s int) {
	br := &d.br
	m := &d.mv

	count := 1
	fieldFormat := d.field >= 0
	dmv := false
	if d.field < 0 {
		switch m.motionType {
		case motionField:
			count = 2
			fieldFormat = true
		case motionDualPrime:
			fieldFormat = true
			dmv = true
		}
	} else {
		switch m.motionType {
		case motion16x8:
			count = 2
		case motionDualPrime:
			dmv = true
		}
	}

	// Field vectors in frame pictures are predicted from frame vectors.
	scale := fieldFormat && d.field < 0

	if count == 1 {
		if fieldFormat && !dmv {
			m.fieldSelect[0][s] = br.get1()
		}
		d.motionVector(0, s, dmv, scale)
		m.pmv[1][s] = m.pmv[0][s]
		return
	}

	m.fieldSelect[0][s] = br.get1()
	d.motionVector(0, s, false, scale)
	m.fieldSelect[1][s] = br.get1()
	d.motionVector(1, s, false, scale)
}

// motionVector reads one vector (both components) and updates its predictor.
func (d *sliceDecoder) motionVector(r, s int, dmv, scale bool) {
	br := &d.br
	m := &d.mv

	for t := 0; t < 2; t++ {
		rSize := d.pic.FCode[s][t] - 1
		if rSize < 0 {
			rSize = 0
		}

		code := br.readVlc(vlcMotionCode)
		residual := 0
		if rSize > 0 && code != 0 {
			residual = br.get(rSize)
		}

		pred := m.pmv[r][s][t]
		if scale && t == 1 {
			pred >>= 1
		}
		vec := decodeMotionVector(rSize, code, residual, pred)
		if scale && t == 1 {
			vec <<= 1
		}
		m.pmv[r][s][t] = vec

		if dmv {
			m.dmvector[t] = br.readVlc(vlcDualPrime)
		}
	}
}

// decodeMotionVector adds the differential coded by code and residual to the
// predictor and wraps the result into the range of rSize.
func decodeMotionVector(rSize, code, residual, motion int) int {
	fscale := 1 << uint(rSize)

	var d int
	if code != 0 && fscale != 1 {
		d = ((abs(code) - 1) << uint(rSize)) + residual + 1
		if code < 0 {
			d = -d
		}
	} else {
		d = code
	}

	motion += d
	if motion > (fscale<<4)-1 {
		motion -= fscale << 5
	} else if motion < ((-fscale) << 4) {
		motion += fscale << 5
	}

	return motion
}

// dualPrime derives the opposite parity vectors. In frame pictures dmv[0]
// predicts the top field from the bottom field and dmv[1] the bottom field from
// the top field. In field pictures only dmv[0] is used.
func dualPrime(mvx, mvy int, dmvector [2]int, frame, topFieldFirst bool, field int) (dmv [2][2]int) {
	round := func(v, mul int) int {
		r := v * mul
		if v > 0 {
			r++
		}
		return r >> 1
	}

	if !frame {
		dmv[0][0] = round(mvx, 1) + dmvector[0]
		dmv[0][1] = round(mvy, 1) + dmvector[1]
		if field == 0 {
			dmv[0][1]--
		} else {
			dmv[0][1]++
		}
		return dmv
	}

	near, far := 1, 3
	if !topFieldFirst {
		near, far = 3, 1
	}
	dmv[0][0] = round(mvx, near) + dmvector[0]
	dmv[0][1] = round(mvy, near) + dmvector[1] - 1
	dmv[1][0] = round(mvx, far) + dmvector[0]
	dmv[1][1] = round(mvy, far) + dmvector[1] + 1

	return dmv
}

// refFrame returns the frame holding field sel of the reference in direction s.
// The second field of a P frame may predict from the first field of its own frame.
func (d *sliceDecoder) refFrame(s, sel int) *Frame {
	if s == 1 {
		return d.bwd
	}
	if d.secondField && d.pic.Type == PictureP && sel != d.field {
		return d.cur
	}

	return d.fwd
}

// formPredictions writes the motion compensated prediction of the current
// macroblock into the current frame.
func (d *sliceDecoder) formPredictions() {
	m := &d.mv
	fwd := m.mbType&mbForward != 0
	if fwd {
		d.predict(0, false)
	}
	if m.mbType&mbBackward != 0 {
		d.predict(1, fwd)
	}
}

func (d *sliceDecoder) predict(s int, avg bool) {
	m := &d.mv
	x := d.mbX << 4
	y := d.mbY << 4
	pmv := &m.pmv

	if d.field < 0 {
		ref := d.refFrame(s, 0)
		switch m.motionType {
		case motionField:
			for f := 0; f < 2; f++ {
				predictMacroblockPart(d.cur, ref, f, m.fieldSelect[f][s], x, y>>1, 16, 8, pmv[f][s][0], pmv[f][s][1]>>1, avg)
			}
		case motionDualPrime:
			mvx, mvy := pmv[0][s][0], pmv[0][s][1]>>1
			dmv := dualPrime(mvx, mvy, m.dmvector, true, d.pic.TopFieldFirst, -1)
			predictMacroblockPart(d.cur, ref, 0, 0, x, y>>1, 16, 8, mvx, mvy, false)
			predictMacroblockPart(d.cur, ref, 0, 1, x, y>>1, 16, 8, dmv[0][0], dmv[0][1], true)
			predictMacroblockPart(d.cur, ref, 1, 1, x, y>>1, 16, 8, mvx, mvy, false)
			predictMacroblockPart(d.cur, ref, 1, 0, x, y>>1, 16, 8, dmv[1][0], dmv[1][1], true)
		default:
			mvx, mvy := pmv[0][s][0], pmv[0][s][1]
			if s == 0 && d.pic.FullPelForward || s == 1 && d.pic.FullPelBackward {
				mvx <<= 1
				mvy <<= 1
			}
			predictMacroblockPart(d.cur, ref, -1, -1, x, y, 16, 16, mvx, mvy, avg)
		}
		return
	}

	switch m.motionType {
	case motion16x8:
		for r := 0; r < 2; r++ {
			sel := m.fieldSelect[r][s]
			predictMacroblockPart(d.cur, d.refFrame(s, sel), d.field, sel, x, y+r*8, 16, 8, pmv[r][s][0], pmv[r][s][1], avg)
		}
	case motionDualPrime:
		mvx, mvy := pmv[0][s][0], pmv[0][s][1]
		dmv := dualPrime(mvx, mvy, m.dmvector, false, false, d.field)
		opposite := 1 - d.field
		predictMacroblockPart(d.cur, d.fwd, d.field, d.field, x, y, 16, 16, mvx, mvy, false)
		predictMacroblockPart(d.cur, d.refFrame(0, opposite), d.field, opposite, x, y, 16, 16, dmv[0][0], dmv[0][1], true)
	default:
		sel := m.fieldSelect[0][s]
		predictMacroblockPart(d.cur, d.refFrame(s, sel), d.field, sel, x, y, 16, 16, pmv[0][s][0], pmv[0][s][1], avg)
	}
}
