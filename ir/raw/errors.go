package raw

import (
	"errors"
	"fmt"
)

// Malformed-input sentinels. Match with errors.Is.
var (
	ErrMissingStartXRef     = errors.New("startxref not found")
	ErrBadPrev              = errors.New("unresolvable /Prev offset")
	ErrCircularPrev         = errors.New("circular /Prev chain")
	ErrUnsupportedPredictor = errors.New("unsupported predictor")
	ErrUnsupportedFilter    = errors.New("unsupported filter")
	ErrTruncatedStream      = errors.New("stream exceeds remaining input")
	ErrEncrypted            = errors.New("encrypted documents are not supported")
)

// ParseError reports malformed input. Offset is -1 when the failure is tied to
// an object number rather than a byte position, Object is 0 when unknown.
type ParseError struct {
	Offset int64
	Object int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Err != nil {
		if msg == "" {
			msg = e.Err.Error()
		} else {
			msg += ": " + e.Err.Error()
		}
	}
	switch {
	case e.Object > 0 && e.Offset >= 0:
		return fmt.Sprintf("pdf: object %d at offset %d: %s", e.Object, e.Offset, msg)
	case e.Object > 0:
		return fmt.Sprintf("pdf: object %d: %s", e.Object, msg)
	default:
		return fmt.Sprintf("pdf: offset %d: %s", e.Offset, msg)
	}
}

func (e *ParseError) Unwrap() error { return e.Err }

// AtOffset builds a ParseError positioned at a byte offset.
func AtOffset(off int64, err error, format string, args ...interface{}) *ParseError {
	return &ParseError{Offset: off, Msg: fmt.Sprintf(format, args...), Err: err}
}

// AtObject builds a ParseError tied to an object number.
func AtObject(num int, err error, format string, args ...interface{}) *ParseError {
	return &ParseError{Offset: -1, Object: num, Msg: fmt.Sprintf(format, args...), Err: err}
}

// UnsupportedError is returned by build-path calls that received an argument
// they cannot honour. Nothing has been written when it is returned.
type UnsupportedError struct {
	Feature string
	Value   string
}

func (e *UnsupportedError) Error() string {
	return fmt.Sprintf("pdf: unsupported %s %q", e.Feature, e.Value)
}
