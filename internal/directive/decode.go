package directive

import (
	"errors"
	"slices"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// chunkDecoder turns raw chunks into UTF-8 text. A multi-byte sequence split
// across chunks is held back until the rest arrives and invalid bytes become
// U+FFFD. A byte order mark passes through; the scanner treats it as space.
type chunkDecoder struct {
	t       transform.Transformer
	pending []byte
}

func newChunkDecoder() *chunkDecoder {
	return &chunkDecoder{t: unicode.UTF8.NewDecoder()}
}

// decode appends the decoded form of chunk to dst.
func (d *chunkDecoder) decode(dst, chunk []byte) ([]byte, error) {
	src := chunk
	if len(d.pending) > 0 {
		src = append(d.pending, chunk...)
		d.pending = nil
	}
	for {
		if len(dst) == cap(dst) {
			dst = slices.Grow(dst, len(src)+utf8.UTFMax)
		}
		nDst, nSrc, err := d.t.Transform(dst[len(dst):cap(dst)], src, false)
		dst = dst[:len(dst)+nDst]
		src = src[nSrc:]
		switch {
		case err == nil:
			return dst, nil
		case errors.Is(err, transform.ErrShortDst):
			dst = slices.Grow(dst, len(src)+utf8.UTFMax)
		case errors.Is(err, transform.ErrShortSrc):
			d.pending = append([]byte(nil), src...)
			return dst, nil
		default:
			return dst, err
		}
	}
}
