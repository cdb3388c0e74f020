package multipart

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/indigo-web/multipartparser/internal/mediatype"
)

// maxBoundaryLength is the RFC 2046 upper bound
const maxBoundaryLength = 70

// boundaryOf extracts the boundary from the request's Content-Type
func boundaryOf(h http.Header) (string, error) {
	contentType := h.Get("Content-Type")
	if contentType == "" {
		return "", fmt.Errorf("%w: no content type", ErrInvalidBoundary)
	}

	mediaType, params, err := mediatype.Parse(contentType)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidBoundary, err)
	}

	if !strings.HasPrefix(mediaType, "multipart/") {
		return "", fmt.Errorf("%w: %s is not multipart", ErrInvalidBoundary, mediaType)
	}

	boundary := params["boundary"]
	if boundary == "" || len(boundary) > maxBoundaryLength {
		return "", fmt.Errorf("%w: %q", ErrInvalidBoundary, boundary)
	}

	return boundary, nil
}

// delimiter finds a fixed pattern in a stream split at arbitrary offsets. The
// part of the pattern matched at the end of one write is remembered as a
// length only, since those bytes are the pattern's own prefix.
type delimiter struct {
	pattern []byte
	// table[i] is the length of the longest proper prefix of pattern[:i+1]
	// which is also its suffix
	table   []int
	scratch []byte
}

func newDelimiter(pattern string) *delimiter {
	d := &delimiter{
		pattern: []byte(pattern),
		table:   make([]int, len(pattern)),
	}

	for i, k := 1, 0; i < len(d.pattern); i++ {
		for k > 0 && d.pattern[i] != d.pattern[k] {
			k = d.table[k-1]
		}

		if d.pattern[i] == d.pattern[k] {
			k++
		}

		d.table[i] = k
	}

	return d
}

// scan looks for the pattern in data[offset:], given that the first matched
// bytes of it were seen at the end of the previous write. Bytes proven not to
// belong to the pattern are passed to emit in their original order. Returns the
// offset right after the pattern if it was found, otherwise len(data) and the
// length of the partial match data ends with.
func (d *delimiter) scan(data []byte, offset, matched int, emit func([]byte) error) (end, partial int, found bool, err error) {
	for matched > 0 && offset < len(data) {
		if d.pattern[matched] == data[offset] {
			matched++
			offset++
			if matched == len(d.pattern) {
				return offset, 0, true, nil
			}

			continue
		}

		// mismatch: slide the pattern, bytes sliding out are not a part of it
		k := d.table[matched-1]
		d.scratch = append(d.scratch[:0], d.pattern[:matched-k]...)
		if err = emit(d.scratch); err != nil {
			return offset, 0, false, err
		}

		matched = k
	}

	if matched > 0 {
		return len(data), matched, false, nil
	}

	rest := data[offset:]
	if i := bytes.Index(rest, d.pattern); i >= 0 {
		return offset + i + len(d.pattern), 0, true, emit(rest[:i])
	}

	partial = d.suffix(rest)

	return len(data), partial, false, emit(rest[:len(rest)-partial])
}

// suffix returns the length of the longest suffix of data which is a proper
// prefix of the pattern
func (d *delimiter) suffix(data []byte) int {
	if tail := len(d.pattern) - 1; len(data) > tail {
		data = data[len(data)-tail:]
	}

	var matched int
	for _, c := range data {
		for matched > 0 && d.pattern[matched] != c {
			matched = d.table[matched-1]
		}

		if d.pattern[matched] == c {
			matched++
		}
	}

	return matched
}

func discard([]byte) error {
	return nil
}
