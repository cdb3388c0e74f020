package multipart

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/indigo-web/multipartparser/internal/headers"
)

func TestNewPartInfo(t *testing.T) {
	t.Run("field", func(t *testing.T) {
		info, err := newPartInfo(headers.Headers{
			"content-disposition": `form-data; name="comment"`,
		})
		require.NoError(t, err)
		assert.Equal(t, "comment", info.Name)
		assert.Empty(t, info.Filename)
		assert.False(t, info.HasFilename())
		assert.False(t, DefaultIsFile(info))
		assert.Equal(t, "text/plain", info.ContentType)
		assert.Equal(t, "form-data", info.ContentDisposition)
	})

	t.Run("file", func(t *testing.T) {
		info, err := newPartInfo(headers.Headers{
			"content-disposition": `Form-Data; Name="avatar"; FILENAME="me.png"`,
			"content-type":        "Image/PNG",
		})
		require.NoError(t, err)
		assert.Equal(t, "avatar", info.Name)
		assert.Equal(t, "me.png", info.Filename)
		assert.True(t, DefaultIsFile(info))
		assert.Equal(t, "image/png", info.ContentType)
	})

	t.Run("empty filename", func(t *testing.T) {
		info, err := newPartInfo(headers.Headers{
			"content-disposition": `form-data; name="f"; filename=""`,
		})
		require.NoError(t, err)
		assert.Empty(t, info.Filename)
		assert.True(t, info.HasFilename())
	})

	t.Run("missing name", func(t *testing.T) {
		info, err := newPartInfo(headers.Headers{"content-disposition": "form-data"})
		require.NoError(t, err)
		assert.Empty(t, info.Name)
	})

	t.Run("extended filename", func(t *testing.T) {
		info, err := newPartInfo(headers.Headers{
			"content-disposition": `form-data; name="f"; filename*=iso-8859-1''caf%E9.txt`,
			"content-type":        `text/csv; charset="windows-1251"; header=present`,
		})
		require.NoError(t, err)
		assert.Equal(t, "café.txt", info.Filename)
		assert.Equal(t, "text/csv", info.ContentType)
		assert.Equal(t, map[string]string{"charset": "windows-1251", "header": "present"}, info.ContentTypeParams)
	})

	t.Run("malformed content type", func(t *testing.T) {
		info, err := newPartInfo(headers.Headers{
			"content-disposition": `form-data; name="a"`,
			"content-type":        " Text/Plain; charset ",
		})
		require.NoError(t, err)
		assert.Equal(t, "text/plain; charset", info.ContentType)
		assert.Empty(t, info.ContentTypeParams)
	})

	for _, disposition := range []string{`attachment; filename="a"`, `form-data; name="a`, ""} {
		t.Run("invalid disposition "+disposition, func(t *testing.T) {
			_, err := newPartInfo(headers.Headers{"content-disposition": disposition})
			require.ErrorIs(t, err, ErrInvalidDisposition)
		})
	}
}

func TestDecodeField(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]string
		value  []byte
		want   string
	}{
		{
			name:  "default",
			value: []byte("привет"),
			want:  "привет",
		},
		{
			name:   "windows-1251",
			params: map[string]string{"charset": "windows-1251"},
			value:  []byte{0xef, 0xf0, 0xe8, 0xe2, 0xe5, 0xf2},
			want:   "привет",
		},
		{
			name:   "latin1",
			params: map[string]string{"charset": "ISO-8859-1"},
			value:  []byte{'c', 'a', 'f', 0xe9},
			want:   "café",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			text, err := DecodeField(PartInfo{ContentTypeParams: tc.params}, tc.value)
			require.NoError(t, err)
			assert.Equal(t, tc.want, text)
		})
	}

	t.Run("unknown charset", func(t *testing.T) {
		_, err := DecodeField(PartInfo{ContentTypeParams: map[string]string{"charset": "klingon"}}, []byte("a"))
		require.ErrorIs(t, err, ErrUnknownCharset)
	})
}
