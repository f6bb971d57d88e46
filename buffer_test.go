package mpeg2

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAccessUnitEnd(t *testing.T) {
	w := &bitWriter{}
	w.startCode(startSequence)
	w.put(0x1234, 16)
	w.startCode(startGOP)
	w.startCode(startPicture)
	w.put(0, 8)
	w.startCode(1) // slice
	w.put(0xff, 8)
	first := len(w.bytes())
	w.startCode(startPicture)
	w.startCode(1)
	data := w.bytes()

	require.Equal(t, first, accessUnitEnd(data))
	require.Equal(t, 0, accessUnitEnd(data[first:]))
	require.Equal(t, 0, accessUnitEnd(data[:first]))
}

func TestAccessUnitEndAtSequence(t *testing.T) {
	w := &bitWriter{}
	w.startCode(startPicture)
	w.startCode(2)
	n := len(w.bytes())
	w.startCode(startSequence)

	require.Equal(t, n, accessUnitEnd(w.bytes()))
}

func TestNextAccessUnitPush(t *testing.T) {
	w := &bitWriter{}
	w.startCode(startPicture)
	w.startCode(1)
	n := len(w.bytes())
	w.startCode(startPicture)
	w.startCode(1)
	data := w.bytes()

	buf, err := NewBuffer(nil)
	require.NoError(t, err)
	buf.Write(data)

	unit, ok := buf.nextAccessUnit()
	require.True(t, ok)
	require.Equal(t, data[:n], unit)
	buf.consume(len(unit))

	_, ok = buf.nextAccessUnit()
	require.False(t, ok, "last unit before the end of the stream")

	buf.SignalEnd()
	unit, ok = buf.nextAccessUnit()
	require.True(t, ok)
	require.Equal(t, data[n:], unit)
	buf.consume(len(unit))

	require.True(t, buf.HasEnded())
	_, ok = buf.nextAccessUnit()
	require.False(t, ok)
}

func TestBufferReader(t *testing.T) {
	defer func(size int) { BufferSize = size }(BufferSize)
	BufferSize = 16

	w := newStreamWriter(true)
	w.sequence(16, 16)
	w.intraPicture(0, 1, 1)
	w.intraPicture(1, 1, 1)
	data := w.end()

	buf, err := NewBuffer(bytes.NewReader(data))
	require.NoError(t, err)
	require.True(t, buf.Seekable())
	require.Equal(t, len(data), buf.Size())

	var units [][]byte
	for {
		unit, ok := buf.nextAccessUnit()
		if !ok {
			break
		}
		units = append(units, append([]byte(nil), unit...))
		buf.consume(len(unit))
	}

	require.Len(t, units, 2)
	require.Equal(t, data, bytes.Join(units, nil))
	require.True(t, buf.HasEnded())

	buf.Rewind()
	require.False(t, buf.HasEnded())
	require.True(t, buf.hasSequenceHeader(1<<10))
	require.Equal(t, 0, buf.Index())
}

func TestBufferHasSequenceHeaderLimit(t *testing.T) {
	buf, err := NewBuffer(bytes.NewReader(bytes.Repeat([]byte{0xff}, 4096)))
	require.NoError(t, err)

	require.False(t, buf.hasSequenceHeader(1024))
}

func TestBufferRemaining(t *testing.T) {
	buf, err := NewBuffer(nil)
	require.NoError(t, err)

	buf.Write([]byte{1, 2, 3, 4})
	buf.consume(3)
	require.Equal(t, 1, buf.Remaining())
	require.Equal(t, []byte{4}, buf.Bytes())

	buf.Write([]byte{5})
	require.Equal(t, []byte{4, 5}, buf.Bytes())
	require.Equal(t, 0, buf.Index())
}
