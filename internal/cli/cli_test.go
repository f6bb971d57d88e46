package cli

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

func TestOpenPlain(t *testing.T) {
	name := filepath.Join(t.TempDir(), "in.m2v")
	data := []byte{0x00, 0x00, 0x01, 0xb3, 0x2d, 0x00}
	require.NoError(t, os.WriteFile(name, data, 0644))

	r, err := Open(name)
	require.NoError(t, err)
	defer r.Close()

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, data, got)

	_, ok := r.(*input).Reader.(io.Seeker)
	require.True(t, ok, "plain files stay seekable")
}

func TestOpenZstd(t *testing.T) {
	data := bytes.Repeat([]byte{0x00, 0x00, 0x01, 0xb3, 0x10, 0x20}, 1000)

	var compressed bytes.Buffer
	enc, err := zstd.NewWriter(&compressed)
	require.NoError(t, err)
	_, err = enc.Write(data)
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	name := filepath.Join(t.TempDir(), "in.m2v.zst")
	require.NoError(t, os.WriteFile(name, compressed.Bytes(), 0644))

	r, err := Open(name)
	require.NoError(t, err)

	got, err := io.ReadAll(r)
	require.NoError(t, err)
	require.Equal(t, data, got)
	require.NoError(t, r.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing.m2v"))
	require.Error(t, err)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestImageWriterFormats(t *testing.T) {
	dir := t.TempDir()
	for _, ext := range ImageFormats() {
		w, err := newImageWriter(filepath.Join(dir, ext), ext)
		require.NoError(t, err, ext)
		require.Equal(t, ext, w.ext)
	}

	w, err := newImageWriter(filepath.Join(dir, "jpeg"), "JPEG")
	require.NoError(t, err)
	require.Equal(t, "jpg", w.ext)

	_, err = newImageWriter(filepath.Join(dir, "gif"), "gif")
	require.Error(t, err)
}

func TestVersion(t *testing.T) {
	old := appVersion
	defer func() { appVersion = old }()

	SetVersion("")
	SetVersion("v1.2.3")

	var out bytes.Buffer
	Version(&out)
	require.Equal(t, "m2vdec, v1.2.3\n", out.String())
}
