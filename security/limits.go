// Package security holds the resource limits applied while reading
// untrusted files.
package security

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Limits bounds the work done on one input. A zero field disables that
// check.
type Limits struct {
	// MaxDecompressedSize caps the output of a single stream decode.
	MaxDecompressedSize int64 `validate:"gte=0"`
	// MaxXRefDepth caps how many /Prev sections are followed.
	MaxXRefDepth int `validate:"gte=0"`
	// MaxStringLength caps a literal string token in bytes.
	MaxStringLength int64 `validate:"gte=0"`
	// MaxStreamLength caps the stored bytes of one stream.
	MaxStreamLength int64 `validate:"gte=0"`
	// MaxDecodeTime bounds one stream decode.
	MaxDecodeTime time.Duration `validate:"gte=0"`
	// MaxParseTime bounds a whole parse.
	MaxParseTime time.Duration `validate:"gte=0"`
}

var validate = validator.New()

// Validate rejects negative limits.
func (l Limits) Validate() error {
	if err := validate.Struct(l); err != nil {
		return fmt.Errorf("limits: %w", err)
	}
	return nil
}

// DefaultLimits returns limits suited to files of unknown origin.
func DefaultLimits() Limits {
	return Limits{
		MaxDecompressedSize: 100 << 20,
		MaxXRefDepth:        50,
		MaxStringLength:     10 << 20,
		MaxStreamLength:     50 << 20,
		MaxDecodeTime:       30 * time.Second,
		MaxParseTime:        5 * time.Minute,
	}
}

// Unlimited disables every check. Use it only for trusted input.
func Unlimited() Limits { return Limits{} }
