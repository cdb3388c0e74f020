package multipart

import (
	"errors"
	"fmt"

	"github.com/indigo-web/multipartparser/internal/headers"
)

var (
	ErrInvalidBoundary    = errors.New("invalid multipart boundary")
	ErrBadHeaders         = errors.New("bad part headers")
	ErrInvalidDisposition = errors.New("invalid part content disposition")
	ErrReachedLimit       = errors.New("reached limit")
	ErrEndNotReached      = errors.New("end of multipart body not reached")
	ErrInvalidSettings    = errors.New("invalid settings")
	ErrUnknownCharset     = errors.New("unknown charset")
)

// Reasons a header block may be rejected with. They are wrapped by
// *HeadersError.
var (
	ErrTooManyHeaders     = headers.ErrTooManyPairs
	ErrHeadersTooLarge    = headers.ErrTooLarge
	ErrInvalidHeaderName  = headers.ErrInvalidName
	ErrInvalidHeaderValue = headers.ErrInvalidValue
)

// HeadersError is reported when a part's header block is malformed or breaks
// a header limit. It matches ErrBadHeaders and unwraps to the reason.
type HeadersError struct {
	Reason error
	// Headers holds the pairs parsed before the failure.
	Headers map[string]string
}

func (e *HeadersError) Error() string {
	return fmt.Sprintf("%s: %s", ErrBadHeaders, e.Reason)
}

func (e *HeadersError) Is(target error) bool {
	return target == ErrBadHeaders
}

func (e *HeadersError) Unwrap() error {
	return e.Reason
}

// LimitError is reported when one of the configured ceilings is exceeded. It
// matches ErrReachedLimit.
type LimitError struct {
	Limit Limit
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("%s: %s", ErrReachedLimit, e.Limit)
}

func (e *LimitError) Is(target error) bool {
	return target == ErrReachedLimit
}
