package cli

import (
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/jfbus/httprs"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
)

type input struct {
	io.Reader
	closers []func() error
}

func (in *input) Close() error {
	var first error
	for i := len(in.closers) - 1; i >= 0; i-- {
		if err := in.closers[i](); err != nil && first == nil {
			first = err
		}
	}

	return first
}

// Open opens a path, "-" for stdin, or an http(s) URL. Names ending in .zst are
// decompressed on the fly.
func Open(name string) (io.ReadCloser, error) {
	in := &input{}

	switch {
	case name == "-":
		in.Reader = os.Stdin

	case strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://"):
		res, err := http.Get(name)
		if err != nil {
			return nil, errors.Wrapf(err, "get %s", name)
		}
		if res.StatusCode != http.StatusOK {
			res.Body.Close()
			return nil, errors.Errorf("get %s: %s", name, res.Status)
		}
		rs := httprs.NewHttpReadSeeker(res)
		in.Reader = rs
		in.closers = append(in.closers, rs.Close)

	default:
		f, err := os.Open(name)
		if err != nil {
			return nil, errors.Wrap(err, "open input")
		}
		in.Reader = f
		in.closers = append(in.closers, f.Close)
	}

	if strings.HasSuffix(strings.ToLower(name), ".zst") {
		dec, err := zstd.NewReader(in.Reader)
		if err != nil {
			in.Close()
			return nil, errors.Wrap(err, "zstd")
		}
		in.Reader = dec
		in.closers = append(in.closers, func() error {
			dec.Close()
			return nil
		})
		log.Debugf("reading zstd compressed %s", name)
	}

	return in, nil
}
