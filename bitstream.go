package mpeg2

// bitReader is a bounded MSB-first cursor over one access unit. Reads past the
// end yield zero bits; callers detect exhaustion with overrun.
type bitReader struct {
	data   []byte
	offset int // bit offset of the cursor
	max    int // bit length of data
}

func newBitReader(data []byte) *bitReader {
	br := &bitReader{}
	br.init(data, 0)

	return br
}

// init points the reader at data, starting at the given byte offset.
func (br *bitReader) init(data []byte, byteOffset int) {
	br.data = data
	br.max = len(data) << 3
	br.offset = byteOffset << 3
	if br.offset > br.max {
		br.offset = br.max
	}
}

// show returns the next n bits (n <= 32) without moving the cursor.
func (br *bitReader) show(n int) uint32 {
	if n == 0 {
		return 0
	}

	pos := br.offset >> 3
	var w uint64
	if pos >= 0 && pos+5 <= len(br.data) {
		d := br.data[pos : pos+5]
		w = uint64(d[0])<<32 | uint64(d[1])<<24 | uint64(d[2])<<16 | uint64(d[3])<<8 | uint64(d[4])
	} else {
		for i := 0; i < 5; i++ {
			w <<= 8
			if p := pos + i; p >= 0 && p < len(br.data) {
				w |= uint64(br.data[p])
			}
		}
	}

	shift := 40 - (br.offset & 7) - n

	return uint32((w >> uint(shift)) & (1<<uint(n) - 1))
}

func (br *bitReader) flush(n int) {
	br.offset += n
}

func (br *bitReader) get(n int) int {
	v := br.show(n)
	br.offset += n

	return int(v)
}

func (br *bitReader) get1() int {
	pos := br.offset >> 3
	v := 0
	if pos < len(br.data) {
		v = int(br.data[pos]>>(7-uint(br.offset&7))) & 1
	}
	br.offset++

	return v
}

func (br *bitReader) align() {
	br.offset = ((br.offset + 7) >> 3) << 3
}

// overrun reports whether the cursor went past the end of the data.
func (br *bitReader) overrun() bool {
	return br.offset > br.max
}

func (br *bitReader) exhausted() bool {
	return br.offset >= br.max
}

func (br *bitReader) byteOffset() int {
	return br.offset >> 3
}

// atStartCode reports whether the next 24 bits are a start code prefix.
func (br *bitReader) atStartCode() bool {
	return br.offset&7 == 0 && br.offset+24 <= br.max && br.show(24) == startCodePrefix
}

// nextStartCode byte-aligns and skips bytes until a start code prefix or the end of data.
// It never fails on garbage; it only stops at the end.
func (br *bitReader) nextStartCode() {
	br.align()
	for br.offset+24 <= br.max && br.show(24) != startCodePrefix {
		br.offset += 8
	}
	if br.offset+24 > br.max {
		br.offset = br.max
	}
}

// nextCode skips to the next start code equal to code (the full 32 bits) and
// reports whether one was found.
func (br *bitReader) nextCode(code uint32) bool {
	for {
		br.nextStartCode()
		if br.exhausted() {
			return false
		}
		if br.show(32) == code {
			return true
		}
		br.offset += 8
	}
}

// startCode returns the start code value under the cursor, or -1.
func (br *bitReader) startCode() int {
	if !br.atStartCode() || br.offset+32 > br.max {
		return -1
	}

	return int(br.show(32) & 0xff)
}

func (br *bitReader) readVlc(table []vlc) int {
	var state vlc

	for {
		state = table[int(state.Index)+br.get1()]
		if state.Index <= 0 {
			break
		}
	}

	return int(state.Value)
}

func (br *bitReader) readVlcUint(table []vlcUint) uint16 {
	var state vlcUint

	for {
		state = table[int(state.Index)+br.get1()]
		if state.Index <= 0 {
			break
		}
	}

	return state.Value
}

type vlc struct {
	Index int16
	Value int16
}

type vlcUint struct {
	Index int16
	Value uint16
}
