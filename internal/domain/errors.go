package domain

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownProfile = errors.New("unknown asset profile")
	ErrUnknownTheme   = errors.New("unknown theme")
	ErrInvalidRequest = errors.New("invalid request")
	ErrBusy           = errors.New("a run is already in progress")
)

// ParseError reports that a generative backend returned output that does not
// match the expected structured shape. It is never recoverable: downstream
// stages have nothing to consume, so the run aborts.
type ParseError struct {
	Backend string
	Message string
	Err     error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Backend, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Backend, e.Message)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IsParseError reports whether err wraps a backend parse failure.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
