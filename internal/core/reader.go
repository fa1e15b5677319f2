package core

// reader.go provides io.Reader wrappers that clean up instrument files
// before parsing:
//
//   - BOMSkippingReader: Removes a UTF-8 BOM added by Windows editors
//   - UTF8Sanitizer: Replaces invalid UTF-8 bytes with '?' (consoles and
//     exported copies sometimes write Latin-1 unit symbols such as µ)
//   - SizeLimitReader: Fails once more than a configured number of bytes is read
//
// Use NewInputReader to apply BOM skipping and sanitization in order.

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ErrFileTooLarge is returned by SizeLimitReader once the limit is exceeded.
var ErrFileTooLarge = errors.New("file too large")

// BOMSkippingReader wraps an io.Reader and skips a leading UTF-8 BOM.
type BOMSkippingReader struct {
	r       *bufio.Reader
	checked bool
}

// NewBOMSkippingReader creates a new BOM-skipping reader.
func NewBOMSkippingReader(r io.Reader) *BOMSkippingReader {
	return &BOMSkippingReader{r: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (b *BOMSkippingReader) Read(p []byte) (int, error) {
	if !b.checked {
		b.checked = true
		head, err := b.r.Peek(len(utf8BOM))
		if err != nil && err != io.EOF {
			return 0, err
		}
		if bytes.Equal(head, utf8BOM) {
			_, _ = b.r.Discard(len(utf8BOM))
		}
	}
	return b.r.Read(p)
}

// UTF8Sanitizer wraps an io.Reader and replaces each invalid UTF-8 byte
// with '?'. Multi-byte sequences split across reads are carried over.
type UTF8Sanitizer struct {
	r       io.Reader
	pending []byte // incomplete sequence from the previous read
	out     []byte // sanitized bytes not yet returned
	err     error
}

// NewUTF8Sanitizer creates a new sanitizing reader.
func NewUTF8Sanitizer(r io.Reader) *UTF8Sanitizer {
	return &UTF8Sanitizer{r: r}
}

// Read implements io.Reader.
func (s *UTF8Sanitizer) Read(p []byte) (int, error) {
	for len(s.out) == 0 && s.err == nil {
		buf := make([]byte, max(len(p), 512))
		n, err := s.r.Read(buf)
		s.err = err
		data := append(s.pending, buf[:n]...)
		s.pending = nil
		s.out = s.sanitize(data, err != nil)
	}

	if len(s.out) > 0 {
		n := copy(p, s.out)
		s.out = s.out[n:]
		return n, nil
	}
	return 0, s.err
}

// sanitize returns data with invalid bytes replaced. Unless final is set,
// a trailing incomplete sequence is held back in pending.
func (s *UTF8Sanitizer) sanitize(data []byte, final bool) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		r, size := utf8.DecodeRune(data[i:])
		if r == utf8.RuneError && size <= 1 {
			if !final && !utf8.FullRune(data[i:]) {
				s.pending = append(s.pending, data[i:]...)
				break
			}
			out = append(out, '?')
			i++
			continue
		}
		out = append(out, data[i:i+size]...)
		i += size
	}
	return out
}

// SizeLimitReader fails with ErrFileTooLarge once more than Limit bytes
// have been read. A Limit of zero or less disables the check.
type SizeLimitReader struct {
	r         io.Reader
	Limit     int64
	BytesRead int64
}

// NewSizeLimitReader creates a reader that enforces limit.
func NewSizeLimitReader(r io.Reader, limit int64) *SizeLimitReader {
	return &SizeLimitReader{r: r, Limit: limit}
}

// Read implements io.Reader.
func (l *SizeLimitReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.BytesRead += int64(n)
	if l.Limit > 0 && l.BytesRead > l.Limit {
		return n, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, l.Limit)
	}
	return n, err
}

// NewInputReader wraps r with BOM skipping and UTF-8 sanitization.
// The BOM must be stripped before sanitizing, since its bytes are valid UTF-8.
func NewInputReader(r io.Reader) io.Reader {
	return NewUTF8Sanitizer(NewBOMSkippingReader(r))
}
