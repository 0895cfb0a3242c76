package internal

import (
	"bufio"
	"context"
	"errors"
	"io"

	"github.com/gabriel-vasile/mimetype"

	"DirectiveFinder/internal/directive"
)

// sniffLen is how much of a file mimetype gets to look at.
const sniffLen = 512

type bufferedReadCloser struct {
	*bufio.Reader
	io.Closer
}

// classifyReader classifies one stream. With sniff set, content that does not
// look like text is reported as skipped without being classified. rc is
// closed on every path.
func classifyReader(ctx context.Context, rc io.ReadCloser, sc *directive.Scanner, sniff bool) (kind directive.Kind, skipped bool, err error) {
	if !sniff {
		kind, err = sc.Classify(ctx, rc)
		return kind, false, err
	}

	br := bufio.NewReaderSize(rc, sniffLen)
	head, err := br.Peek(sniffLen)
	if err != nil && !errors.Is(err, io.EOF) {
		_ = rc.Close()
		return directive.Default, false, err
	}
	if len(head) > 0 && !isText(mimetype.Detect(head)) {
		_ = rc.Close()
		return directive.Default, true, nil
	}
	kind, err = sc.Classify(ctx, bufferedReadCloser{Reader: br, Closer: rc})
	return kind, false, err
}

// isText walks the MIME ancestry looking for text/plain.
func isText(m *mimetype.MIME) bool {
	for ; m != nil; m = m.Parent() {
		if m.Is("text/plain") {
			return true
		}
	}
	return false
}
