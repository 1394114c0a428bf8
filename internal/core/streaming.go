package core

// streaming.go provides the readers an import file passes through before CSV
// parsing:
//
//   - DecodeText: drops a byte order mark and decodes to UTF-8. Files that are
//     not valid UTF-8 are read as Windows-1252, which is what spreadsheet tools
//     on Windows write for Spanish exports.
//   - CountingReader: tracks bytes read for size limits and logging.
//
// Use WrapForImport to apply both in the correct order.

import (
	"bufio"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// sniffSize is how much of a file is inspected to choose its encoding.
const sniffSize = 64 * 1024

// DecodeText returns a reader yielding r as UTF-8 with any BOM removed.
// Invalid UTF-8 that survives sniffing is replaced with U+FFFD.
func DecodeText(r io.Reader) io.Reader {
	br := bufio.NewReaderSize(r, sniffSize)
	head, _ := br.Peek(sniffSize)

	if looksUTF8(head, len(head) == sniffSize) {
		return transform.NewReader(br, unicode.BOMOverride(unicode.UTF8.NewDecoder()))
	}
	return transform.NewReader(br, charmap.Windows1252.NewDecoder())
}

// looksUTF8 reports whether head is valid UTF-8. When the sample was cut
// short, a multi-byte sequence split at its end is ignored.
func looksUTF8(head []byte, truncated bool) bool {
	if utf8.Valid(head) {
		return true
	}
	if !truncated {
		return false
	}
	for i := 1; i < utf8.UTFMax && i <= len(head); i++ {
		start := len(head) - i
		if utf8.RuneStart(head[start]) {
			return !utf8.FullRune(head[start:]) && utf8.Valid(head[:start])
		}
	}
	return false
}

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader creates a counting reader.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// WrapForImport counts raw bytes and then decodes them.
//
// The order matters: counting sits below decoding so BytesRead reflects the
// file size, not the size of the decoded text.
func WrapForImport(r io.Reader) (io.Reader, *CountingReader) {
	counter := NewCountingReader(r)
	return DecodeText(counter), counter
}
