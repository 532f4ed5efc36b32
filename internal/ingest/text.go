package ingest

// text.go normalizes raw text before CSV parsing: the UTF-8 byte order mark
// is dropped and invalid UTF-8 bytes become '?'.

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

var byteOrderMark = []byte{0xEF, 0xBB, 0xBF}

// textReader yields sanitized UTF-8 from an underlying reader.
type textReader struct {
	br *bufio.Reader
	// pending holds the tail of a rune that did not fit the caller's buffer.
	pending []byte
}

// newTextReader wraps r, skipping a leading byte order mark.
func newTextReader(r io.Reader) io.Reader {
	br := bufio.NewReader(r)
	if prefix, err := br.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = br.Discard(len(byteOrderMark))
	}
	return &textReader{br: br}
}

func (t *textReader) Read(p []byte) (int, error) {
	n := copy(p, t.pending)
	t.pending = t.pending[n:]

	var enc [utf8.UTFMax]byte
	for n < len(p) {
		// Hand back what we have rather than block on the source.
		if n > 0 && t.br.Buffered() == 0 {
			break
		}

		r, size, err := t.br.ReadRune()
		if err != nil {
			if n > 0 {
				return n, nil
			}
			return 0, err
		}

		if r == utf8.RuneError && size == 1 {
			p[n] = '?'
			n++
			continue
		}

		w := utf8.EncodeRune(enc[:], r)
		c := copy(p[n:], enc[:w])
		n += c
		if c < w {
			t.pending = append(t.pending, enc[c:w]...)
		}
	}
	return n, nil
}

// limitReader fails with ErrFileTooLarge once more than max bytes are read.
type limitReader struct {
	r    io.Reader
	left int64
}

func newLimitReader(r io.Reader, max int64) io.Reader {
	return &limitReader{r: r, left: max}
}

func (l *limitReader) Read(p []byte) (int, error) {
	if l.left < 0 {
		return 0, ErrFileTooLarge
	}
	if int64(len(p)) > l.left+1 {
		p = p[:l.left+1]
	}
	n, err := l.r.Read(p)
	l.left -= int64(n)
	if l.left < 0 {
		return 0, ErrFileTooLarge
	}
	return n, err
}
