package headers

import (
	"bytes"
	"fmt"
	"strings"
)

const (
	DefaultMaxPairs = 100
	DefaultMaxSize  = 16 * 1024
)

// Headers maps lowercased header names to their values. A repeated name keeps
// the value seen last.
type Headers map[string]string

// Parser extracts header pairs out of a stream of bytes terminated by a blank
// line. The stream may be split at any offset, every call resumes exactly
// where the previous one stopped. Name and value bytes are accumulated as raw
// ranges and decoded only once the pair is complete.
type Parser struct {
	state parserState

	maxPairs, maxSize int
	pairs, size       int

	key, value []byte
	headers    Headers
}

// NewParser returns new *Parser. Non-positive limits fall back to
// DefaultMaxPairs and DefaultMaxSize
func NewParser(maxPairs, maxSize int) *Parser {
	if maxPairs <= 0 {
		maxPairs = DefaultMaxPairs
	}

	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}

	p := &Parser{
		maxPairs: maxPairs,
		maxSize:  maxSize,
	}
	p.reset()

	return p
}

// Parse feeds data into the parser. While the header block is incomplete,
// nil headers and a nil error are returned. Once the terminating blank line
// is consumed, the complete headers are returned together with the bytes
// following it. On failure the pairs parsed so far are returned alongside the
// error. Both outcomes reset the parser, so it can be reused for the next
// block.
func (p *Parser) Parse(data []byte) (headers Headers, rest []byte, err error) {
	var offset, start int

	switch p.state {
	case eLineStart:
		goto lineStart
	case eKey:
		goto key
	case eWhitespace:
		goto whitespace
	case eValue:
		goto value
	case eValueCR:
		goto valueCR
	case eBlankCR:
		goto blankCR
	default:
		panic(fmt.Sprintf("BUG: unknown state: %v", p.state))
	}

lineStart:
	if offset >= len(data) {
		return nil, nil, nil
	}

	if data[offset] != '\r' {
		p.state = eKey
		goto key
	}

	if p.overflow() {
		return p.fail(ErrTooLarge)
	}

	offset++
	p.state = eBlankCR
	goto blankCR

key:
	start = offset
	for ; offset < len(data); offset++ {
		if p.overflow() {
			return p.fail(ErrTooLarge)
		}

		switch c := data[offset]; {
		case c == ':':
			p.key = append(p.key, data[start:offset]...)
			if len(p.key) == 0 {
				return p.fail(ErrInvalidName)
			}

			offset++
			p.state = eWhitespace
			goto whitespace
		case !nameChars[c]:
			return p.fail(ErrInvalidName)
		}
	}

	p.key = append(p.key, data[start:]...)

	return nil, nil, nil

whitespace:
	for ; offset < len(data); offset++ {
		if c := data[offset]; c != ' ' && c != '\t' {
			p.state = eValue
			goto value
		}

		if p.overflow() {
			return p.fail(ErrTooLarge)
		}
	}

	return nil, nil, nil

value:
	start = offset
	for ; offset < len(data); offset++ {
		if p.overflow() {
			return p.fail(ErrTooLarge)
		}

		switch c := data[offset]; {
		case c == '\r':
			p.value = append(p.value, data[start:offset]...)
			offset++
			p.state = eValueCR
			goto valueCR
		case !valueChars[c]:
			return p.fail(ErrInvalidValue)
		}
	}

	p.value = append(p.value, data[start:]...)

	return nil, nil, nil

valueCR:
	if offset >= len(data) {
		return nil, nil, nil
	}

	if p.overflow() {
		return p.fail(ErrTooLarge)
	}

	if data[offset] != '\n' {
		return p.fail(ErrInvalidValue)
	}

	if err = p.complete(); err != nil {
		return p.fail(err)
	}

	offset++
	p.state = eLineStart
	goto lineStart

blankCR:
	if offset >= len(data) {
		return nil, nil, nil
	}

	if p.overflow() {
		return p.fail(ErrTooLarge)
	}

	if data[offset] != '\n' {
		return p.fail(ErrInvalidValue)
	}

	headers = p.headers
	p.reset()

	return headers, data[offset+1:], nil
}

// overflow accounts a single consumed byte and reports whether the header
// block grew beyond its limit
func (p *Parser) overflow() bool {
	p.size++
	return p.size > p.maxSize
}

// complete stores the pair being accumulated
func (p *Parser) complete() error {
	if p.pairs >= p.maxPairs {
		return ErrTooManyPairs
	}

	p.pairs++
	p.headers[strings.ToLower(string(p.key))] = string(bytes.TrimRight(p.value, " \t"))
	p.key = p.key[:0]
	p.value = p.value[:0]

	return nil
}

func (p *Parser) fail(err error) (Headers, []byte, error) {
	headers := p.headers
	p.reset()

	return headers, nil, err
}

func (p *Parser) reset() {
	p.state = eLineStart
	p.pairs = 0
	p.size = 0
	p.key = p.key[:0]
	p.value = p.value[:0]
	p.headers = make(Headers)
}
