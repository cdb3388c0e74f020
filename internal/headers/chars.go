package headers

// nameChars marks bytes allowed in a header name (RFC 9110 token).
var nameChars = table("!#$%&'*+-.^_`|~", '0', '9', 'a', 'z', 'A', 'Z')

// valueChars marks bytes allowed in a header value: HTAB, visible ASCII,
// space and obs-text. CR is handled by the state machine itself.
var valueChars = func() (t [256]bool) {
	t['\t'] = true
	for c := 0x20; c < 0x7f; c++ {
		t[c] = true
	}
	for c := 0x80; c <= 0xff; c++ {
		t[c] = true
	}

	return t
}()

// table builds a membership table out of single bytes and inclusive ranges,
// passed as lo, hi pairs.
func table(singles string, ranges ...byte) (t [256]bool) {
	for i := 0; i < len(singles); i++ {
		t[singles[i]] = true
	}

	for i := 0; i+1 < len(ranges); i += 2 {
		for c := int(ranges[i]); c <= int(ranges[i+1]); c++ {
			t[c] = true
		}
	}

	return t
}
