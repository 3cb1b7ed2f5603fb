// Package escapefmt implements the escape rules that digest-file records use
// to carry filenames and symbolic link targets containing a literal newline
// or backslash, since the digest-file format (spec.md §6) forbids literal
// newlines inside a record line.
package escapefmt

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrInvalidEscape indicates a malformed escape sequence: a backslash
// followed by anything other than 'n' or '\\', including a trailing bare
// backslash with nothing following it.
var ErrInvalidEscape = errors.New("invalid escape sequence")

// Decode reverses Encode's transformation: "\n" becomes a literal line feed
// and "\\" becomes a literal backslash. Any other backslash sequence,
// including one truncated at end of string, is an error.
func Decode(s string) (string, error) {
	if !strings.ContainsRune(s, '\\') {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' {
			b.WriteByte(c)
			continue
		}
		if i+1 >= len(s) {
			return "", ErrInvalidEscape
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case '\\':
			b.WriteByte('\\')
		default:
			return "", ErrInvalidEscape
		}
		i++
	}
	return b.String(), nil
}

// Encode scans s and, if it contains no line feed and no backslash, returns
// it verbatim with needsEscaping=false. Otherwise it returns a transformed
// string with every line feed mapped to the two-byte sequence "\n" and every
// backslash mapped to "\\", with needsEscaping=true. The caller uses the
// returned flag to decide whether to prefix the record with the digest-file
// format's leading '\' marker.
func Encode(s string) (encoded string, needsEscaping bool) {
	if !strings.ContainsAny(s, "\\\n") {
		return s, false
	}

	var b strings.Builder
	b.Grow(len(s) + 8)
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\n':
			b.WriteString(`\n`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteByte(s[i])
		}
	}
	return b.String(), true
}
