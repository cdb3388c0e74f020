package multipart

import (
	"errors"
	"fmt"
	"strings"

	"github.com/indigo-web/multipartparser/internal/charset"
	"github.com/indigo-web/multipartparser/internal/headers"
	"github.com/indigo-web/multipartparser/internal/mediatype"
)

const defaultContentType = "text/plain"

// PartInfo describes a single part. It is built once the part's header block
// is complete and must be treated as read-only, maps included.
type PartInfo struct {
	Name     string
	Filename string

	ContentType       string
	ContentTypeParams map[string]string

	ContentDisposition       string
	ContentDispositionParams map[string]string

	// Headers holds every header of the part, keyed by lowercased name.
	Headers map[string]string
}

// HasFilename reports whether the disposition carries a filename parameter,
// even an empty one. Browsers send filename="" for file inputs left empty.
func (p PartInfo) HasFilename() bool {
	_, ok := p.ContentDispositionParams["filename"]
	return ok
}

// Classifier decides whether a part is streamed as a file (true) or buffered
// as a field (false).
type Classifier func(PartInfo) bool

// FileSink receives a file part's body chunk by chunk, in order. The final
// call carries a nil chunk. Chunks are only valid for the duration of the call.
type FileSink func(chunk []byte)

// DefaultIsFile treats a part as a file iff it has a filename.
func DefaultIsFile(info PartInfo) bool {
	return info.HasFilename()
}

// DecodeField converts a field value to text using the charset parameter of
// the part's content type, UTF-8 by default.
func DecodeField(info PartInfo, value []byte) (string, error) {
	text, err := charset.Decode(info.ContentTypeParams["charset"], value)
	if errors.Is(err, charset.ErrUnknown) {
		return "", fmt.Errorf("%w: %q", ErrUnknownCharset, info.ContentTypeParams["charset"])
	}

	return text, err
}

// newPartInfo turns a completed header block into PartInfo
func newPartInfo(h headers.Headers) (PartInfo, error) {
	disposition, ok := h["content-disposition"]
	if !ok {
		return PartInfo{}, fmt.Errorf("%w: missing", ErrInvalidDisposition)
	}

	directive, dispositionParams, err := mediatype.Parse(disposition)
	if err != nil {
		return PartInfo{}, fmt.Errorf("%w: %w", ErrInvalidDisposition, err)
	}

	if directive != "form-data" {
		return PartInfo{}, fmt.Errorf("%w: unexpected %q", ErrInvalidDisposition, directive)
	}

	contentType, contentTypeParams := defaultContentType, map[string]string{}
	if raw, ok := h["content-type"]; ok {
		contentType, contentTypeParams, err = mediatype.Parse(raw)
		if err != nil {
			// malformed content types are kept verbatim, without parameters
			contentType, contentTypeParams = strings.ToLower(strings.TrimSpace(raw)), map[string]string{}
		}
	}

	if strings.HasPrefix(contentType, "multipart/") {
		return PartInfo{}, fmt.Errorf("%w: nested %s is not supported", ErrInvalidDisposition, contentType)
	}

	return PartInfo{
		Name:                     dispositionParams["name"],
		Filename:                 dispositionParams["filename"],
		ContentType:              contentType,
		ContentTypeParams:        contentTypeParams,
		ContentDisposition:       directive,
		ContentDispositionParams: dispositionParams,
		Headers:                  h,
	}, nil
}
