package mpeg2

import (
	"io"

	"github.com/pkg/errors"
)

var (
	// BufferSize is the default size for buffer.
	BufferSize = 128 * 1024
)

// LoadFunc callback function.
type LoadFunc func(buffer *Buffer)

// Buffer provides the elementary stream to the decoder. Data is either pushed
// with Write or pulled from an io.Reader through the load callback.
type Buffer struct {
	reader io.Reader
	bytes  []byte

	index     int
	totalSize int

	ended       bool
	discardRead bool

	available    []byte
	loadCallback LoadFunc
}

// NewBuffer creates a buffer instance. A nil reader gives a buffer fed by Write.
func NewBuffer(r io.Reader) (*Buffer, error) {
	buf := &Buffer{}

	if r != nil {
		seeker, ok := r.(io.Seeker)
		if ok {
			cur, err := seeker.Seek(0, io.SeekCurrent)
			if err != nil {
				return nil, errors.Wrap(err, "mpeg2: seek")
			}
			off, err := seeker.Seek(0, io.SeekEnd)
			if err != nil {
				return nil, errors.Wrap(err, "mpeg2: seek")
			}
			buf.totalSize = int(off)
			_, err = seeker.Seek(cur, io.SeekStart)
			if err != nil {
				return nil, errors.Wrap(err, "mpeg2: seek")
			}
		}
		buf.loadCallback = buf.LoadReaderCallback
	}

	buf.reader = r
	buf.bytes = make([]byte, 0, BufferSize)
	buf.available = make([]byte, BufferSize)

	buf.discardRead = true

	return buf, nil
}

// Bytes returns a slice holding the unread portion of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.bytes[b.index:]
}

// Index returns byte index.
func (b *Buffer) Index() int {
	return b.index
}

// Seekable returns true if reader is seekable.
func (b *Buffer) Seekable() bool {
	return b.reader != nil && b.totalSize > 0
}

// Write appends the contents of p to the buffer.
func (b *Buffer) Write(p []byte) int {
	if b.discardRead {
		b.discardReadBytes()
	}

	b.bytes = append(b.bytes, p...)

	b.ended = false

	return len(p)
}

// SignalEnd signals that no more data is expected to be written to the buffer.
// This function should be called just after the last Write().
func (b *Buffer) SignalEnd() {
	b.ended = true
}

// SetLoadCallback sets a callback that is called whenever the buffer needs more data.
func (b *Buffer) SetLoadCallback(callback LoadFunc) {
	b.loadCallback = callback
}

// Rewind the buffer back to the beginning. When loading from io.ReadSeeker,
// this also seeks to the beginning.
func (b *Buffer) Rewind() {
	b.seek(0)
}

// Size returns the total size. For io.ReadSeeker, this returns the total size. For all other
// types it returns the number of bytes currently in the buffer.
func (b *Buffer) Size() int {
	if b.totalSize > 0 {
		return b.totalSize
	}

	return len(b.bytes)
}

// Remaining returns the number of remaining (yet unread) bytes in the buffer.
// This can be useful to throttle writing.
func (b *Buffer) Remaining() int {
	return len(b.bytes) - b.index
}

// HasEnded checks whether the read position of the buffer is at the end and no more data is expected.
func (b *Buffer) HasEnded() bool {
	return b.ended && b.index >= len(b.bytes)
}

// LoadReaderCallback is a callback that is called whenever the buffer needs more data.
func (b *Buffer) LoadReaderCallback(buffer *Buffer) {
	if b.ended {
		return
	}

	p := b.available

	n, err := io.ReadFull(b.reader, p)
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			p = p[:n]
		} else if err == io.EOF {
			b.ended = true

			return
		} else {
			log.Errorf("read: %v", err)
			b.ended = true

			return
		}
	}

	if n == 0 {
		b.ended = true

		return
	}

	b.Write(p)
}

func (b *Buffer) seek(pos int) {
	if b.reader != nil && b.totalSize > 0 {
		b.ended = false
		seeker := b.reader.(io.Seeker)
		_, _ = seeker.Seek(int64(pos), io.SeekStart)
		b.bytes = b.bytes[:0]

		b.index = 0
	} else if b.reader == nil {
		if pos != 0 {
			return
		}

		b.index = 0
		b.discardRead = false
	}
}

func (b *Buffer) discardReadBytes() {
	if b.index == len(b.bytes) {
		b.bytes = b.bytes[:0]

		b.index = 0
	} else if b.index > 0 {
		copy(b.bytes, b.bytes[b.index:])
		b.bytes = b.bytes[:len(b.bytes)-b.index]

		b.index = 0
	}
}

// load asks the callback for more data and reports whether any arrived.
func (b *Buffer) load() bool {
	if b.loadCallback == nil || b.ended {
		return false
	}

	n := len(b.bytes) - b.index
	b.loadCallback(b)

	return len(b.bytes)-b.index > n
}

// consume marks n bytes after the read position as decoded.
func (b *Buffer) consume(n int) {
	b.index += n
	if b.index > len(b.bytes) {
		b.index = len(b.bytes)
	}
}

// nextAccessUnit returns the bytes from the read position up to the first
// picture, sequence or GOP start code that follows a picture start code. When
// no such boundary is buffered it loads more data; once the source has ended
// the rest of the buffer is the last unit. It reports false when more data is
// needed or nothing is left.
func (b *Buffer) nextAccessUnit() ([]byte, bool) {
	for {
		data := b.bytes[b.index:]
		if n := accessUnitEnd(data); n > 0 {
			return data[:n], true
		}
		if b.load() {
			continue
		}
		if b.ended && len(data) > 0 {
			return data, true
		}

		return nil, false
	}
}

func accessUnitEnd(data []byte) int {
	picture := false
	for i := 0; i+3 < len(data); i++ {
		if data[i] != 0 || data[i+1] != 0 || data[i+2] != 1 {
			continue
		}

		switch data[i+3] {
		case startPicture:
			if picture {
				return i
			}
			picture = true
		case startSequence, startGOP:
			if picture {
				return i
			}
		}
		i += 3
	}

	return 0
}

// hasSequenceHeader reports whether the buffered data holds a sequence header,
// loading data as needed up to limit bytes.
func (b *Buffer) hasSequenceHeader(limit int) bool {
	discard := b.discardRead
	b.discardRead = false
	defer func() { b.discardRead = discard }()

	for {
		data := b.bytes[b.index:]
		for i := 0; i+3 < len(data); i++ {
			if data[i] == 0 && data[i+1] == 0 && data[i+2] == 1 && data[i+3] == startSequence {
				return true
			}
		}
		if len(data) >= limit || !b.load() {
			return false
		}
	}
}
