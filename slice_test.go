package mpeg2

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSliceRow(t *testing.T) {
	tests := []struct {
		name         string
		mpeg2        bool
		verticalSize int
		numVertMB    int
		code         byte
		ext          int
		want         int
		err          error
	}{
		{"first row", true, 480, 30, 0x01, -1, 0, nil},
		{"row 5", true, 480, 30, 0x05, -1, 4, nil},
		{"last row", true, 480, 30, 30, -1, 29, nil},
		{"row zero", true, 480, 30, 0x00, -1, 0, ErrInvalidVertSize},
		{"past picture", true, 480, 30, 31, -1, 0, ErrInvalidVertSize},
		{"extended", true, 2880, 180, 0x10, 1, 143, nil},
		{"extended past picture", true, 2880, 180, 0x40, 1, 0, ErrInvalidVertSize},
		{"mpeg1 tall", false, 4000, 250, 0x10, -1, 15, nil},
		{"mpeg1 tall last", false, 4000, 250, 0xaf, -1, 174, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := &bitWriter{}
			w.startCode(tt.code)
			if tt.ext >= 0 {
				w.put(tt.ext, 3)
			}

			seq := Sequence{Height: tt.verticalSize, MPEG2: tt.mpeg2}
			d := &sliceDecoder{rowExtension: seq.sliceRowExtension(), numVertMB: tt.numVertMB}
			d.br.init(w.bytes(), 0)

			row, err := d.sliceRow()
			if tt.err != nil {
				require.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, row)
		})
	}
}

func TestScanSlices(t *testing.T) {
	w := &bitWriter{}
	for _, row := range []int{0, 0, 1, 3, 2, 7} {
		w.startCode(byte(row + 1))
		w.put(0xffff, 16)
	}
	w.startCode(startSequenceEnd)

	jobs := scanSlices(*newBitReader(w.bytes()), 5, false)
	require.Equal(t, []job{
		{cmd: jobProcess, start: 0, end: 1, offset: 0},
		{cmd: jobProcess, start: 1, end: 3, offset: 12},
		{cmd: jobProcess, start: 3, end: 5, offset: 18},
	}, jobs)
}

func TestScanSlicesFirstJobStartsAtZero(t *testing.T) {
	w := &bitWriter{}
	w.startCode(3)
	w.put(0xff, 8)
	w.startCode(4)
	w.put(0xff, 8)

	jobs := scanSlices(*newBitReader(w.bytes()), 4, false)
	require.Len(t, jobs, 2)
	require.Equal(t, 0, jobs[0].start)
	require.Equal(t, 3, jobs[0].end)
	require.Equal(t, 3, jobs[1].start)
	require.Equal(t, 4, jobs[1].end)
}

func TestScanSlicesNone(t *testing.T) {
	w := &bitWriter{}
	w.startCode(startSequenceEnd)

	require.Nil(t, scanSlices(*newBitReader(w.bytes()), 4, false))
}

func TestScanSlicesLeavesReaderUntouched(t *testing.T) {
	w := &bitWriter{}
	w.startCode(1)
	w.put(0xff, 8)

	br := newBitReader(w.bytes())
	scanSlices(*br, 1, false)
	require.Equal(t, 0, br.offset)
}

func TestScanSlicesRowExtension(t *testing.T) {
	w := &bitWriter{}
	w.startCode(0x01)
	w.put(0, 3)
	w.put(0xff, 8)
	w.startCode(0x01)
	w.put(1, 3) // row 128
	w.put(0xff, 8)

	jobs := scanSlices(*newBitReader(w.bytes()), 200, true)
	require.Len(t, jobs, 2)
	require.Equal(t, 128, jobs[1].start)
	require.Equal(t, 200, jobs[1].end)

	// Without the extension the second slice is another slice of row 0.
	jobs = scanSlices(*newBitReader(w.bytes()), 200, false)
	require.Len(t, jobs, 1)
	require.Equal(t, 200, jobs[0].end)
}
