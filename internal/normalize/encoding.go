package normalize

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// decoders lists the supported fallback encodings. A nil decoder means UTF-8.
var decoders = map[string]encoding.Encoding{
	"utf-8":        nil,
	"utf8":         nil,
	"windows-1252": charmap.Windows1252,
	"cp1252":       charmap.Windows1252,
	"iso-8859-1":   charmap.ISO8859_1,
	"latin-1":      charmap.ISO8859_1,
	"latin1":       charmap.ISO8859_1,
	"iso-8859-15":  charmap.ISO8859_15,
}

func checkEncodings(names []string) error {
	if len(names) == 0 {
		return fmt.Errorf("no encodings configured")
	}
	for _, n := range names {
		if _, ok := decoders[strings.ToLower(n)]; !ok {
			return fmt.Errorf("unsupported encoding %q", n)
		}
	}
	return nil
}

// decode converts data to UTF-8 using the first encoding that yields clean
// text. It returns the decoded text and the name of the encoding used.
func decode(file string, data []byte, names []string) (string, string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	for _, name := range names {
		enc := decoders[strings.ToLower(name)]
		if enc == nil {
			if utf8.Valid(data) {
				return string(data), name, nil
			}
			continue
		}
		out, err := enc.NewDecoder().Bytes(data)
		if err != nil {
			continue
		}
		// Unmapped bytes come back as U+FFFD.
		if bytes.ContainsRune(out, utf8.RuneError) {
			continue
		}
		return string(out), name, nil
	}
	return "", "", &EncodingError{File: file, Tried: names}
}
