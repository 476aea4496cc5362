package tex

import (
	"errors"
	"fmt"
)

// Sentinel errors for classifying parse failures with errors.Is.
var (
	ErrMissingArgument = errors.New("missing argument")
	ErrUndefinedMacro  = errors.New("undefined control sequence")
	ErrMisplaced       = errors.New("misplaced token")
	ErrRecursion       = errors.New("macro recursion limit exceeded")
)

// ParseError is a fatal error in a single TeX parse.
type ParseError struct {
	Message  string
	Token    string // offending token as written in the source, if any
	Position int    // byte offset into the parsed TeX
	Err      error
}

func (e *ParseError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("%s at %d (%s)", e.Message, e.Position, e.Token)
	}
	return fmt.Sprintf("%s at %d", e.Message, e.Position)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
