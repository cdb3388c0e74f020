package headers

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// parseAll feeds chunks one by one. The returned rest also includes the
// chunks that were not fed because the block completed earlier.
func parseAll(t *testing.T, p *Parser, chunks ...string) (Headers, string, error) {
	t.Helper()

	for i, chunk := range chunks {
		headers, rest, err := p.Parse([]byte(chunk))
		if err != nil {
			return headers, "", err
		}

		if headers != nil {
			return headers, string(rest) + strings.Join(chunks[i+1:], ""), nil
		}
	}

	return nil, "", nil
}

func TestParser(t *testing.T) {
	t.Run("single pair", func(t *testing.T) {
		headers, rest, err := parseAll(t, NewParser(0, 0), "Name: value\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, Headers{"name": "value"}, headers)
		assert.Empty(t, rest)
	})

	t.Run("rest is returned", func(t *testing.T) {
		data := "Content-Disposition: form-data; name=\"a\"\r\nContent-Type: text/plain\r\n\r\nhello"
		headers, rest, err := parseAll(t, NewParser(0, 0), data)
		require.NoError(t, err)
		assert.Equal(t, Headers{
			"content-disposition": `form-data; name="a"`,
			"content-type":        "text/plain",
		}, headers)
		assert.Equal(t, "hello", rest)
	})

	t.Run("whitespace around value", func(t *testing.T) {
		for _, data := range []string{
			"a:b\r\n\r\n",
			"a: b\r\n\r\n",
			"a:\t  b\r\n\r\n",
			"a: b \t\r\n\r\n",
		} {
			headers, _, err := parseAll(t, NewParser(0, 0), data)
			require.NoError(t, err, data)
			assert.Equal(t, Headers{"a": "b"}, headers, data)
		}
	})

	t.Run("empty value", func(t *testing.T) {
		headers, _, err := parseAll(t, NewParser(0, 0), "a:\r\nb: \r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, Headers{"a": "", "b": ""}, headers)
	})

	t.Run("empty block", func(t *testing.T) {
		headers, rest, err := parseAll(t, NewParser(0, 0), "\r\nbody")
		require.NoError(t, err)
		require.NotNil(t, headers)
		assert.Empty(t, headers)
		assert.Equal(t, "body", rest)
	})

	t.Run("last value wins", func(t *testing.T) {
		headers, _, err := parseAll(t, NewParser(0, 0), "X-A: 1\r\nx-a: 2\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, Headers{"x-a": "2"}, headers)
	})

	t.Run("obs-text in value", func(t *testing.T) {
		headers, _, err := parseAll(t, NewParser(0, 0), "a: caf\xc3\xa9\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, "café", headers["a"])
	})

	t.Run("continue", func(t *testing.T) {
		p := NewParser(0, 0)
		for _, chunk := range []string{"Na", "me", ":", " ", "val", "ue\r", "\n", "\r"} {
			headers, rest, err := p.Parse([]byte(chunk))
			require.NoError(t, err)
			require.Nil(t, headers)
			require.Nil(t, rest)
		}

		headers, rest, err := p.Parse([]byte("\n"))
		require.NoError(t, err)
		assert.Equal(t, Headers{"name": "value"}, headers)
		assert.Empty(t, rest)
	})

	t.Run("reusable", func(t *testing.T) {
		p := NewParser(0, 0)
		headers, _, err := parseAll(t, p, "A: 1\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, Headers{"a": "1"}, headers)

		headers, _, err = parseAll(t, p, "B: 2\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, Headers{"b": "2"}, headers)

		_, _, err = parseAll(t, p, "B C: 2\r\n\r\n")
		require.ErrorIs(t, err, ErrInvalidName)

		headers, _, err = parseAll(t, p, "C: 3\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, Headers{"c": "3"}, headers)
	})
}

func TestParser_Split(t *testing.T) {
	data := "Content-Disposition: form-data; name=\"file\"; filename=\"a.txt\"\r\n" +
		"Content-Type:\t text/plain; charset=utf-8\r\n" +
		"X-Empty:\r\n\r\nbody"
	want := Headers{
		"content-disposition": `form-data; name="file"; filename="a.txt"`,
		"content-type":        "text/plain; charset=utf-8",
		"x-empty":             "",
	}

	for i := 0; i <= len(data); i++ {
		for j := i; j <= len(data); j++ {
			headers, rest, err := parseAll(t, NewParser(0, 0), data[:i], data[i:j], data[j:])
			require.NoError(t, err, "split at %d, %d", i, j)
			require.Equal(t, want, headers, "split at %d, %d", i, j)
			require.Equal(t, "body", rest, "split at %d, %d", i, j)
		}
	}
}

func TestParser_Failures(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		maxPairs int
		maxSize  int
		err      error
		partial  Headers
	}{
		{
			name: "space in name",
			data: "Bad Name: v\r\n\r\n",
			err:  ErrInvalidName,
		},
		{
			name: "empty name",
			data: ": v\r\n\r\n",
			err:  ErrInvalidName,
		},
		{
			name:    "folded line",
			data:    "A: 1\r\n 2\r\n\r\n",
			err:     ErrInvalidName,
			partial: Headers{"a": "1"},
		},
		{
			name:    "invalid name after valid pair",
			data:    "A: 1\r\nB{: 2\r\n\r\n",
			err:     ErrInvalidName,
			partial: Headers{"a": "1"},
		},
		{
			name: "bare LF in value",
			data: "A: 1\n\r\n",
			err:  ErrInvalidValue,
		},
		{
			name: "CR without LF",
			data: "A: 1\rx\r\n\r\n",
			err:  ErrInvalidValue,
		},
		{
			name:    "CR without LF on blank line",
			data:    "A: 1\r\n\rx",
			err:     ErrInvalidValue,
			partial: Headers{"a": "1"},
		},
		{
			name: "control byte in value",
			data: "A: \x01\r\n\r\n",
			err:  ErrInvalidValue,
		},
		{
			name: "DEL in value",
			data: "A: \x7f\r\n\r\n",
			err:  ErrInvalidValue,
		},
		{
			name:    "too large",
			data:    "Name: value\r\n\r\n",
			maxSize: 14,
			err:     ErrTooLarge,
			partial: Headers{"name": "value"},
		},
		{
			name:    "too large while malformed",
			data:    "AAAA",
			maxSize: 3,
			err:     ErrTooLarge,
		},
		{
			name:     "too many pairs",
			data:     "A: 1\r\nB: 2\r\nC: 3\r\n\r\n",
			maxPairs: 2,
			err:      ErrTooManyPairs,
			partial:  Headers{"a": "1", "b": "2"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			headers, _, err := parseAll(t, NewParser(tc.maxPairs, tc.maxSize), tc.data)
			require.ErrorIs(t, err, tc.err)

			want := tc.partial
			if want == nil {
				want = Headers{}
			}
			assert.Equal(t, want, headers)
		})
	}
}

func TestParser_Limits(t *testing.T) {
	t.Run("exactly max pairs", func(t *testing.T) {
		headers, _, err := parseAll(t, NewParser(2, 0), "A: 1\r\nB: 2\r\n\r\n")
		require.NoError(t, err)
		assert.Len(t, headers, 2)
	})

	t.Run("exactly max size", func(t *testing.T) {
		headers, _, err := parseAll(t, NewParser(0, 15), "Name: value\r\n\r\n")
		require.NoError(t, err)
		assert.Equal(t, Headers{"name": "value"}, headers)
	})

	t.Run("size accumulates across chunks", func(t *testing.T) {
		p := NewParser(0, 10)
		_, _, err := p.Parse([]byte("Name: "))
		require.NoError(t, err)
		_, _, err = p.Parse([]byte("value"))
		require.ErrorIs(t, err, ErrTooLarge)
	})
}

func TestCharTables(t *testing.T) {
	for _, c := range []byte("!#$%&'*+-.^_`|~09azAZ") {
		assert.True(t, nameChars[c], "%q", c)
	}

	for _, c := range []byte("\"(),/:;<=>?@[\\]{} \t\r\n\x00\x7f\x80") {
		assert.False(t, nameChars[c], "%q", c)
	}

	for _, c := range []byte("\t azAZ09\"(),/:;<=>?@[\\]{}~\x80\xff") {
		assert.True(t, valueChars[c], "%q", c)
	}

	for _, c := range []byte("\x00\x01\n\r\x1f\x7f") {
		assert.False(t, valueChars[c], "%q", c)
	}
}
