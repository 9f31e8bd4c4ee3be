package assuan

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// Decode reverses the percent-encoding clients apply to arguments. Input
// that is malformed or does not decode to valid UTF-8 is returned as is.
func Decode(text string) string {
	if !strings.Contains(text, "%") {
		return text
	}
	decoded, err := url.PathUnescape(text)
	if err != nil || !utf8.ValidString(decoded) {
		return text
	}
	return decoded
}

var dataEscaper = strings.NewReplacer("%", "%25", "\r", "%0D", "\n", "%0A")

// EscapeData applies the escaping required inside D lines.
func EscapeData(text string) string {
	if !strings.ContainsAny(text, "%\r\n") {
		return text
	}
	return dataEscaper.Replace(text)
}
