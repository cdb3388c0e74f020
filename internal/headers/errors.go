package headers

import "errors"

var (
	ErrTooManyPairs = errors.New("too many header pairs")
	ErrTooLarge     = errors.New("header block is too large")
	ErrInvalidName  = errors.New("invalid header name")
	ErrInvalidValue = errors.New("invalid header value")
)
