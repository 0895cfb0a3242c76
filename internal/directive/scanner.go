// Package directive detects a leading module directive such as "use client"
// or "use server" by reading only as much of a source stream as it takes to
// be sure.
package directive

import (
	"context"
	"fmt"
	"io"
	"unicode"
	"unicode/utf8"
)

// DefaultChunkSize is the read size used when none is configured.
const DefaultChunkSize = 4096

type mode uint8

const (
	modeCode mode = iota
	modeLineComment
	modeBlockComment
)

// Scanner classifies streams. It keeps no per-call state, so one Scanner may
// serve concurrent calls on independent streams.
type Scanner struct {
	chunkSize int
}

// NewScanner returns a Scanner reading chunkSize bytes at a time.
// Non-positive sizes select DefaultChunkSize.
func NewScanner(chunkSize int) *Scanner {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &Scanner{chunkSize: chunkSize}
}

var std = NewScanner(DefaultChunkSize)

// Classify runs the default Scanner on rc. See Scanner.Classify.
func Classify(ctx context.Context, rc io.ReadCloser) (Kind, error) {
	return std.Classify(ctx, rc)
}

// ClassifyReader classifies r without closing it.
func ClassifyReader(ctx context.Context, r io.Reader) (Kind, error) {
	return std.Classify(ctx, io.NopCloser(r))
}

// Classify reads rc until the leading directive is decided and returns it.
// rc is closed on every return path. Malformed input is never an error; only
// read failures and context cancellation are.
func (s *Scanner) Classify(ctx context.Context, rc io.ReadCloser) (Kind, error) {
	defer rc.Close()

	st := &scanState{dec: newChunkDecoder()}
	chunk := make([]byte, s.chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return Default, err
		}
		n, rerr := rc.Read(chunk)
		if n > 0 {
			var err error
			st.buf, err = st.dec.decode(st.buf, chunk[:n])
			if err != nil {
				return Default, fmt.Errorf("directive: decode: %w", err)
			}
			if kind, done := st.advance(); done {
				return kind, nil
			}
		}
		if rerr == io.EOF {
			return Default, nil
		}
		if rerr != nil {
			return Default, fmt.Errorf("directive: read: %w", rerr)
		}
	}
}

type scanState struct {
	dec  *chunkDecoder
	mode mode
	buf  []byte
}

// advance consumes as much of buf as can be decided. It returns done once
// the classification is certain; otherwise buf is trimmed to the pending tail.
func (st *scanState) advance() (Kind, bool) {
	b := st.buf
	i := 0
scan:
	for i < len(b) {
		c := b[i]
		switch st.mode {
		case modeBlockComment:
			if c == '*' {
				if i+1 == len(b) {
					break scan
				}
				if b[i+1] == '/' {
					st.mode = modeCode
					i += 2
					continue
				}
			}
			i++
		case modeLineComment:
			if c == '\n' || c == '\r' {
				st.mode = modeCode
			}
			i++
		default:
			switch {
			case c == '/':
				if i+1 == len(b) {
					break scan
				}
				switch b[i+1] {
				case '*':
					st.mode = modeBlockComment
				case '/':
					st.mode = modeLineComment
				default:
					return Default, true
				}
				i += 2
			case c == '"' || c == '\'':
				content, state := literal(b[i+1:], c)
				switch state {
				case literalOpen:
					if !couldMatch(content) {
						return Default, true
					}
					break scan
				case literalBroken:
					return Default, true
				}
				// The first significant token decides either way.
				if kind, ok := table[string(content)]; ok {
					return kind, true
				}
				return Default, true
			case c < utf8.RuneSelf:
				if !isASCIISpace(c) {
					return Default, true
				}
				i++
			default:
				r, size := utf8.DecodeRune(b[i:])
				if !isSpace(r) {
					return Default, true
				}
				i += size
			}
		}
	}
	n := copy(b, b[i:])
	st.buf = b[:n]
	return Default, false
}

type literalState uint8

const (
	literalClosed literalState = iota
	literalOpen
	literalBroken
)

// literal looks for the unescaped closing quote in b, which starts right
// after the opening quote. It returns the raw content up to the closing quote,
// or everything scanned so far when the literal is still open.
func literal(b []byte, quote byte) ([]byte, literalState) {
	for j := 0; j < len(b); j++ {
		switch b[j] {
		case quote:
			return b[:j], literalClosed
		case '\\':
			j++
		case '\n', '\r':
			return b[:j], literalBroken
		}
	}
	return b, literalOpen
}

// isSpace reports whether r is non-ASCII whitespace in the JavaScript sense:
// the Unicode space separators plus BOM, without NEL.
func isSpace(r rune) bool {
	switch r {
	case '\uFEFF':
		return true
	case '\u0085':
		return false
	}
	return unicode.IsSpace(r)
}

func isASCIISpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}
