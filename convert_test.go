package mpeg2

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"
)

func patternFrame(width, height int) *Frame {
	f := newFrame(width, height, (width+15)&^15, ((height+31)>>5)<<5)
	for y := 0; y < f.Y.Height; y++ {
		for x := 0; x < f.Y.Width; x++ {
			f.Y.Data[y*f.Y.Width+x] = byte(16*y + x)
		}
	}
	for y := 0; y < f.Cb.Height; y++ {
		for x := 0; x < f.Cb.Width; x++ {
			f.Cb.Data[y*f.Cb.Width+x] = byte(100 + 10*y + x)
			f.Cr.Data[y*f.Cr.Width+x] = byte(200 + 10*y + x)
		}
	}

	return f
}

func convert(f *Frame, format Format) []byte {
	f.prepareOut(format)
	f.convertRows(0, f.Height)

	return f.Out
}

func TestConvertYUV420P(t *testing.T) {
	out := convert(patternFrame(4, 2), FormatYUV420P)

	require.Equal(t, []byte{
		0, 1, 2, 3,
		16, 17, 18, 19,
		100, 101,
		200, 201,
	}, out)
}

func TestConvertNV12(t *testing.T) {
	out := convert(patternFrame(4, 2), FormatYUV420SPUV)

	require.Equal(t, []byte{
		0, 1, 2, 3,
		16, 17, 18, 19,
		100, 200, 101, 201,
	}, out)
}

func TestConvertNV21(t *testing.T) {
	out := convert(patternFrame(4, 2), FormatYUV420SPVU)

	require.Equal(t, []byte{
		0, 1, 2, 3,
		16, 17, 18, 19,
		200, 100, 201, 101,
	}, out)
}

func TestConvertYUYV(t *testing.T) {
	out := convert(patternFrame(4, 2), FormatYUV422ILE)

	require.Equal(t, []byte{
		0, 100, 1, 200, 2, 101, 3, 201,
		16, 100, 17, 200, 18, 101, 19, 201,
	}, out)
}

func TestConvertOddSize(t *testing.T) {
	f := patternFrame(3, 3)

	out := convert(f, FormatYUV420P)
	require.Len(t, out, 9+2*2*2)
	require.Equal(t, []byte{0, 1, 2, 16, 17, 18, 32, 33, 34}, out[:9])
	require.Equal(t, []byte{100, 101, 110, 111}, out[9:13])

	require.Len(t, convert(f, FormatYUV422ILE), 2*4*3)
}

func TestConvertNative(t *testing.T) {
	f := patternFrame(16, 16)
	f.prepareOut(FormatNative)
	f.convertRows(0, f.Height)

	require.Empty(t, f.Out)
	require.Equal(t, FormatNative, f.Format)
}

func TestConvertInBands(t *testing.T) {
	rng := rand.New(rand.NewSource(2))
	f := newFrame(48, 150, 48, 160)
	rng.Read(f.Y.Data)
	rng.Read(f.Cb.Data)
	rng.Read(f.Cr.Data)

	for _, format := range []Format{FormatYUV420P, FormatYUV420SPUV, FormatYUV420SPVU, FormatYUV422ILE} {
		whole := append([]byte(nil), convert(f, format)...)

		f.prepareOut(format)
		for i := range f.Out {
			f.Out[i] = 0
		}
		for i := 0; i < f.Height; i += convertLines {
			f.convertRows((i>>4)<<4, ((i+convertLines)>>4)<<4)
		}
		require.Equal(t, whole, f.Out, format.String())
	}
}

func TestParseFormat(t *testing.T) {
	for f, name := range formatNames {
		got, err := ParseFormat(name)
		require.NoError(t, err)
		require.Equal(t, f, got)
	}

	got, err := ParseFormat("NV12")
	require.NoError(t, err)
	require.Equal(t, FormatYUV420SPUV, got)

	_, err = ParseFormat("rgb")
	require.Error(t, err)
}

func TestFormatSize(t *testing.T) {
	require.Equal(t, 0, FormatNative.Size(16, 16))
	require.Equal(t, 384, FormatYUV420P.Size(16, 16))
	require.Equal(t, 384, FormatYUV420SPVU.Size(16, 16))
	require.Equal(t, 512, FormatYUV422ILE.Size(16, 16))
	require.Equal(t, 9+8, FormatYUV420SPUV.Size(3, 3))
}

func TestConfigDefaults(t *testing.T) {
	c := Config{Threads: 100}.withDefaults()
	require.Equal(t, MaxThreads, c.Threads)
	require.Equal(t, DefaultMaxWidth, c.MaxWidth)
	require.Equal(t, DefaultMaxHeight, c.MaxHeight)

	c = Config{Threads: -1, MaxWidth: 64, MaxHeight: 32}.withDefaults()
	require.Equal(t, 1, c.Threads)
	require.Equal(t, 64, c.MaxWidth)
	require.Equal(t, 32, c.MaxHeight)
}

func BenchmarkConvert(b *testing.B) {
	f := patternFrame(1920, 1080)

	for _, format := range []Format{FormatYUV420P, FormatYUV420SPUV, FormatYUV422ILE} {
		b.Run(format.String(), func(b *testing.B) {
			f.prepareOut(format)
			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				f.convertRows(0, f.Height)
			}
		})
	}
}
