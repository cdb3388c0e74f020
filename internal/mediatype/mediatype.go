// Package mediatype parses parameterised header values such as Content-Type
// and Content-Disposition:
//
//	form-data; name="avatar"; filename*=UTF-8''%E2%82%AC.png
//
// Parameter names are lowercased. Quoted values are unescaped, RFC 2231
// extended values are percent-decoded and converted from their declared
// charset, continuations (name*0, name*1*, ...) are joined back together.
package mediatype

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/indigo-web/utils/hex"

	"github.com/indigo-web/multipartparser/internal/charset"
)

var (
	ErrInvalidMediaType   = errors.New("invalid media type")
	ErrInvalidParameter   = errors.New("invalid media type parameter")
	ErrDuplicateParameter = errors.New("duplicate media type parameter")
)

// Parse splits v into its lowercased media type (or disposition) and
// parameters.
func Parse(v string) (mediatype string, params map[string]string, err error) {
	base, rest, _ := strings.Cut(v, ";")
	mediatype = strings.ToLower(strings.TrimSpace(base))
	if !validType(mediatype) {
		return "", nil, fmt.Errorf("%w: %q", ErrInvalidMediaType, mediatype)
	}

	params = make(map[string]string)
	// base parameter name -> full parameter name -> raw value, for names
	// carrying a '*'
	var extended map[string]map[string]string

	for {
		rest = trimSpace(rest)
		if len(rest) == 0 {
			break
		}

		if rest[0] == ';' {
			rest = rest[1:]
			continue
		}

		var key, value string
		key, value, rest, err = consumeParam(rest)
		if err != nil {
			return mediatype, nil, err
		}

		if name, _, ok := strings.Cut(key, "*"); ok {
			if extended == nil {
				extended = make(map[string]map[string]string)
			}

			pieces := extended[name]
			if pieces == nil {
				pieces = make(map[string]string)
				extended[name] = pieces
			}

			if _, dup := pieces[key]; dup {
				return mediatype, nil, fmt.Errorf("%w: %q", ErrDuplicateParameter, key)
			}

			pieces[key] = value
			continue
		}

		if _, dup := params[key]; dup {
			return mediatype, nil, fmt.Errorf("%w: %q", ErrDuplicateParameter, key)
		}

		params[key] = value
	}

	for name, pieces := range extended {
		if value, ok := resolveExtended(name, pieces); ok {
			params[name] = value
		}
	}

	return mediatype, params, nil
}

// consumeParam reads a single `key=value` pair followed by an optional ';'
func consumeParam(v string) (key, value, rest string, err error) {
	key, rest = consumeToken(v)
	if key == "" {
		return "", "", "", fmt.Errorf("%w: expected name at %q", ErrInvalidParameter, v)
	}

	rest = trimSpace(rest)
	if !strings.HasPrefix(rest, "=") {
		return "", "", "", fmt.Errorf("%w: %q has no value", ErrInvalidParameter, key)
	}

	value, rest, ok := consumeValue(trimSpace(rest[1:]))
	if !ok {
		return "", "", "", fmt.Errorf("%w: malformed value of %q", ErrInvalidParameter, key)
	}

	rest = trimSpace(rest)
	switch {
	case len(rest) == 0:
	case rest[0] == ';':
		rest = rest[1:]
	default:
		return "", "", "", fmt.Errorf("%w: unexpected %q after %q", ErrInvalidParameter, rest, key)
	}

	return strings.ToLower(key), value, rest, nil
}

func consumeToken(v string) (token, rest string) {
	i := 0
	for i < len(v) && tokenChars[v[i]] {
		i++
	}

	return v[:i], v[i:]
}

// consumeValue reads either a token or a quoted-string. In the latter,
// a backslash escapes the byte following it.
func consumeValue(v string) (value, rest string, ok bool) {
	if !strings.HasPrefix(v, `"`) {
		value, rest = consumeToken(v)
		return value, rest, value != ""
	}

	var b strings.Builder
	for i := 1; i < len(v); i++ {
		switch c := v[i]; c {
		case '"':
			return b.String(), v[i+1:], true
		case '\\':
			if i+1 == len(v) {
				return "", v, false
			}

			i++
			b.WriteByte(v[i])
		case '\r', '\n':
			return "", v, false
		default:
			b.WriteByte(c)
		}
	}

	return "", v, false
}

// resolveExtended builds the value of the parameter name out of its RFC 2231
// pieces. A single `name*` wins over continuations. Malformed pieces make the
// whole parameter unresolvable, in which case a plain `name` (if any) stays.
func resolveExtended(name string, pieces map[string]string) (string, bool) {
	if v, ok := pieces[name+"*"]; ok {
		return decodeExtended(v)
	}

	var (
		raw   []byte
		label string
	)

	for n := 0; ; n++ {
		key := name + "*" + strconv.Itoa(n)
		if v, ok := pieces[key]; ok {
			raw = append(raw, v...)
			continue
		}

		v, ok := pieces[key+"*"]
		if !ok {
			if n == 0 {
				return "", false
			}

			break
		}

		if n == 0 {
			var valid bool
			if label, v, valid = splitExtended(v); !valid {
				return "", false
			}
		}

		decoded, valid := unescape(v)
		if !valid {
			return "", false
		}

		raw = append(raw, decoded...)
	}

	value, err := charset.Decode(label, raw)
	if err != nil {
		return "", false
	}

	return value, true
}

// decodeExtended decodes a `charset'language'percent-encoded` value
func decodeExtended(v string) (string, bool) {
	label, encoded, ok := splitExtended(v)
	if !ok {
		return "", false
	}

	raw, ok := unescape(encoded)
	if !ok {
		return "", false
	}

	value, err := charset.Decode(label, raw)
	if err != nil {
		return "", false
	}

	return value, true
}

func splitExtended(v string) (label, encoded string, ok bool) {
	parts := strings.SplitN(v, "'", 3)
	if len(parts) != 3 {
		return "", "", false
	}

	return parts[0], parts[2], true
}

// unescape decodes %XX sequences
func unescape(v string) ([]byte, bool) {
	out := make([]byte, 0, len(v))
	for i := 0; i < len(v); i++ {
		if v[i] != '%' {
			out = append(out, v[i])
			continue
		}

		if i+2 >= len(v) || !hex.Is(v[i+1]) || !hex.Is(v[i+2]) {
			return nil, false
		}

		out = append(out, byte(hex.Un(v[i+1]))<<4|byte(hex.Un(v[i+2])))
		i += 2
	}

	return out, true
}

// validType accepts `type` or `type/subtype`, both being non-empty tokens
func validType(v string) bool {
	typ, sub, hasSub := strings.Cut(v, "/")
	if typ == "" || !isToken(typ) {
		return false
	}

	return !hasSub || (sub != "" && isToken(sub))
}

func isToken(v string) bool {
	token, rest := consumeToken(v)
	return token != "" && rest == ""
}

func trimSpace(v string) string {
	return strings.TrimLeft(v, " \t")
}

// tokenChars marks bytes allowed in an RFC 2045 token: visible ASCII except
// tspecials.
var tokenChars = func() (t [256]bool) {
	for c := 0x21; c < 0x7f; c++ {
		t[c] = !strings.ContainsRune(`()<>@,;:\"/[]?=`, rune(c))
	}

	return t
}()
