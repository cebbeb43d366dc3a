package formats

import (
	"bytes"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// attemptedEncodings is the fixed decode order for text-based formats.
// Shift-JIS comes before Latin-1 because the Japanese loggers (Hioki,
// Yokogawa) commonly export Shift-JIS headers that Latin-1 would decode
// to mojibake without ever failing.
var attemptedEncodings = []string{"utf-8", "shift-jis", "latin-1"}

// decodeText decodes raw file bytes, attempting utf-8, Shift-JIS and
// Latin-1 in order and stopping at the first encoding that decodes the
// whole input cleanly. It returns the decoded text and the name of the
// winning encoding.
func decodeText(path string, data []byte) (string, string, error) {
	if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}

	if out, _, err := transform.Bytes(japanese.ShiftJIS.NewDecoder(), data); err == nil {
		// The decoder substitutes U+FFFD for invalid byte sequences
		// instead of failing; treat any substitution as a failed decode.
		if !bytes.ContainsRune(out, utf8.RuneError) {
			return string(out), "shift-jis", nil
		}
	}

	if out, _, err := transform.Bytes(charmap.ISO8859_1.NewDecoder(), data); err == nil {
		return string(out), "latin-1", nil
	}

	return "", "", &EncodingError{Path: path, Attempted: attemptedEncodings}
}
