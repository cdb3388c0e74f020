package multipart

import (
	"errors"

	"github.com/caarlos0/env/v11"

	"github.com/indigo-web/multipartparser/internal/headers"
)

// Settings is a set of limitations for parser. Zero body ceilings mean no
// limit, zero header limits fall back to the defaults.
type Settings struct {
	MaxParts     int64 `env:"MULTIPART_MAX_PARTS" envDefault:"0"`      // MaxParts caps the number of parts in the body.
	MaxTotalSize int64 `env:"MULTIPART_MAX_TOTAL_SIZE" envDefault:"0"` // MaxTotalSize caps the sum of all part bodies.
	MaxPartSize  int64 `env:"MULTIPART_MAX_PART_SIZE" envDefault:"0"`  // MaxPartSize caps a single part body, field or file.
	MaxFieldSize int64 `env:"MULTIPART_MAX_FIELD_SIZE" envDefault:"0"` // MaxFieldSize caps a single buffered field value.

	MaxHeaderPairs int `env:"MULTIPART_MAX_HEADER_PAIRS" envDefault:"100"`   // MaxHeaderPairs caps the number of headers a part may have.
	MaxHeaderSize  int `env:"MULTIPART_MAX_HEADER_SIZE" envDefault:"16384"` // MaxHeaderSize caps the size in bytes of a part's header block.
}

// DefaultSettings returns prepared Settings instance, filled with default values.
// Default values put no ceiling on the body, so untrusted input should always be
// accompanied by at least MaxTotalSize
func DefaultSettings() Settings {
	return Settings{
		MaxHeaderPairs: headers.DefaultMaxPairs,
		MaxHeaderSize:  headers.DefaultMaxSize,
	}
}

// LoadSettings reads Settings from MULTIPART_* environment variables, taking
// defaults for those unset.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, errors.Join(ErrInvalidSettings, err)
	}

	if s.MaxParts < 0 || s.MaxTotalSize < 0 || s.MaxPartSize < 0 || s.MaxFieldSize < 0 ||
		s.MaxHeaderPairs < 0 || s.MaxHeaderSize < 0 {
		return Settings{}, errors.Join(ErrInvalidSettings, errors.New("limits must not be negative"))
	}

	return s, nil
}
