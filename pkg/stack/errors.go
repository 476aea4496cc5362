package stack

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// Sentinel errors for errors.Is classification.
var (
	ErrUnterminated    = errors.New("unterminated frame")
	ErrUnexpectedClose = errors.New("unexpected close")
	ErrUnknownKind     = errors.New("unknown item kind")
)

// UnterminatedFrameError reports a frame still open when input ran out.
// Props are the properties the frame was opened with.
type UnterminatedFrameError struct {
	Kind  string
	Props Props
}

func (e *UnterminatedFrameError) Error() string {
	if len(e.Props) == 0 {
		return fmt.Sprintf("unterminated %s frame", e.Kind)
	}
	return fmt.Sprintf("unterminated %s frame (opened with %s)", e.Kind, formatProps(e.Props))
}

func (e *UnterminatedFrameError) Unwrap() error {
	return ErrUnterminated
}

// UnexpectedCloseError reports a closing item the current frame rejects.
type UnexpectedCloseError struct {
	Kind    string // kind of the current frame
	Token   string // kind of the offending closing item
	Message string
}

func (e *UnexpectedCloseError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s (%s inside %s)", e.Message, e.Token, e.Kind)
	}
	return fmt.Sprintf("unexpected %s inside %s", e.Token, e.Kind)
}

func (e *UnexpectedCloseError) Unwrap() error {
	return ErrUnexpectedClose
}

func formatProps(p Props) string {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		v := p[k]
		if n, ok := v.(*mml.Node); ok && n != nil {
			v = n.Kind
		}
		parts = append(parts, fmt.Sprintf("%s=%v", k, v))
	}
	return strings.Join(parts, " ")
}
