// Package charset resolves charset labels, as they appear in Content-Type
// parameters and RFC 2231 extended values, and decodes bytes into UTF-8 text.
// Labels are resolved the way browsers do (WHATWG Encoding Standard), so
// "latin1", "iso-8859-1" and "us-ascii" all map to windows-1252.
package charset

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// Default is used when no charset label is given.
const Default = "utf-8"

var ErrUnknown = errors.New("unknown charset")

// Lookup returns the encoding registered under label. An empty label
// resolves to Default.
func Lookup(label string) (encoding.Encoding, error) {
	label = strings.TrimSpace(label)
	if label == "" {
		label = Default
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknown, label)
	}

	return enc, nil
}

// Decode converts b from the charset named by label into a UTF-8 string.
// Byte sequences invalid in the source charset are replaced with U+FFFD.
func Decode(label string, b []byte) (string, error) {
	if isUTF8(label) && utf8.Valid(b) {
		return string(b), nil
	}

	enc, err := Lookup(label)
	if err != nil {
		return "", err
	}

	decoded, err := enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", label, err)
	}

	return string(decoded), nil
}

func isUTF8(label string) bool {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "", "utf-8", "utf8", "unicode-1-1-utf-8":
		return true
	default:
		return false
	}
}
