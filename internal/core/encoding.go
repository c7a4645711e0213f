package core

// encoding.go prepares raw CSV bytes for parsing.
//
// Files saved by spreadsheet programs on Windows often start with a UTF-8
// byte-order mark, and hand-edited files sometimes contain stray invalid
// bytes. DecodeUTF8 strips the BOM (a UTF-16 BOM switches decoding to
// UTF-16) and replaces invalid sequences with U+FFFD, streaming without
// loading the file into memory.

import (
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CountingReader tracks the number of raw bytes consumed.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// DecodeUTF8 wraps r with BOM removal and invalid-sequence replacement.
func DecodeUTF8(r io.Reader) io.Reader {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return transform.NewReader(r, decoder)
}

// WrapForIngest counts raw bytes and then decodes them. The counter sees
// the bytes as they are on disk, BOM included.
func WrapForIngest(r io.Reader) (io.Reader, *CountingReader) {
	counter := &CountingReader{reader: r}
	return DecodeUTF8(counter), counter
}
