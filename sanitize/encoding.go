package sanitize

import (
	"bytes"
	"io"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

const utf8Name = "utf-8"

var utf8BOM = []byte("\ufeff") //nolint:gochecknoglobals

// UTF8 returns data decoded to UTF-8 together with the name of the charset
// it was decoded from. Valid UTF-8 is returned as is, minus a leading byte
// order mark. Anything else is run through charset detection; when that
// fails the input is returned unchanged and reported as UTF-8, leaving the
// caller's parser to complain.
func UTF8(data []byte) ([]byte, string) {
	if utf8.Valid(data) {
		return bytes.TrimPrefix(data, utf8BOM), utf8Name
	}

	best, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil {
		return data, utf8Name
	}

	reader, err := charset.NewReaderLabel(best.Charset, bytes.NewReader(data))
	if err != nil {
		return data, utf8Name
	}

	decoded, err := io.ReadAll(reader)
	if err != nil || !utf8.Valid(decoded) {
		return data, utf8Name
	}

	// UTF-16 decoders keep the byte order mark as U+FEFF.
	return bytes.TrimPrefix(decoded, utf8BOM), best.Charset
}
