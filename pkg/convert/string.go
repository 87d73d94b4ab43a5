package convert

import (
	"bytes"
	"strings"
	"unicode/utf8"
)

// ImageFileNameToString decodes a fixed length, NUL padded process name.
// Invalid bytes are replaced rather than rejected.
func ImageFileNameToString(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	if utf8.Valid(b) {
		return string(b)
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}
