package discover

import (
	"errors"
	"fmt"
	"log"

	"github.com/open-cli-collective/mathscan/pkg/dom"
	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// SessionState is the document-level lifecycle state.
type SessionState int

const (
	Uninitialized SessionState = iota
	Discovered
	Rendered
	Removed
)

func (s SessionState) String() string {
	switch s {
	case Uninitialized:
		return "uninitialized"
	case Discovered:
		return "discovered"
	case Rendered:
		return "rendered"
	case Removed:
		return "removed"
	default:
		return "unknown"
	}
}

// ErrNotDiscovered is returned by operations that need a discovered document.
var ErrNotDiscovered = errors.New("document has not been discovered")

// Failure records a match that could not be compiled.
type Failure struct {
	Match *Match
	Err   error
}

// Session owns the discovery state of one document. It is not safe for
// concurrent use.
type Session struct {
	adaptor    dom.Adaptor
	containers []dom.Ref
	sources    []Source
	opts       Options

	state    SessionState
	matches  *MatchList
	failures []Failure
	warnings []string
	searches int
}

// NewSession creates a session over the given containers.
func NewSession(a dom.Adaptor, containers []dom.Ref, sources []Source, opts Options) *Session {
	return &Session{
		adaptor:    a,
		containers: containers,
		sources:    sources,
		opts:       opts,
		matches:    &MatchList{},
	}
}

// State returns the lifecycle state.
func (s *Session) State() SessionState {
	return s.state
}

// Matches returns the current match list.
func (s *Session) Matches() *MatchList {
	return s.matches
}

// Failures returns the matches dropped because they failed to compile.
func (s *Session) Failures() []Failure {
	return s.failures
}

// Warnings returns the warnings collected so far.
func (s *Session) Warnings() []string {
	return s.warnings
}

// Searches returns how many discovery passes have run.
func (s *Session) Searches() int {
	return s.searches
}

// AddWarning logs a warning and stores it on the session.
func (s *Session) AddWarning(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	s.warnings = append(s.warnings, msg)
	log.Printf("WARN: "+format, args...)
}

// Discover finds the math in the document. Once discovered, further calls
// return the existing list until Reset.
func (s *Session) Discover() (*MatchList, error) {
	if s.state != Uninitialized {
		return s.matches, nil
	}
	list, err := Discover(s.adaptor, s.containers, s.sources, s.opts)
	if err != nil {
		return nil, err
	}
	s.searches++
	s.matches = list
	s.state = Discovered
	return s.matches, nil
}

// Compile parses every found match. A match that fails is removed from the
// list and recorded as a failure; the others are unaffected.
func (s *Session) Compile() error {
	if s.state == Uninitialized {
		return ErrNotDiscovered
	}
	var failed []*Match
	for _, m := range s.matches.Items() {
		if m.State() >= Compiled {
			continue
		}
		tree, err := m.Source.Compile(m)
		if err != nil {
			s.failures = append(s.failures, Failure{Match: m, Err: err})
			s.AddWarning("failed to compile %q: %v", m.Original(), err)
			failed = append(failed, m)
			continue
		}
		m.Tree = tree
		m.SetState(Compiled)
	}
	for _, m := range failed {
		s.matches.Remove(m)
	}
	return nil
}

// Typeset builds output subtrees for every compiled match.
func (s *Session) Typeset(r mml.Renderer) error {
	if s.state == Uninitialized {
		return ErrNotDiscovered
	}
	for _, m := range s.matches.Items() {
		if m.State() != Compiled {
			continue
		}
		if m.Escape {
			m.Output = s.adaptor.CreateText(m.Content)
		} else {
			m.Output = r.Render(s.adaptor, m.Tree, m.Display)
		}
		m.SetState(Typeset)
	}
	return nil
}

// Render replaces the math text in the document with the typeset output.
// Matches are processed last to first so that splitting a text node never
// moves a position that is still to be processed.
func (s *Session) Render() error {
	switch s.state {
	case Uninitialized:
		return ErrNotDiscovered
	case Rendered, Removed:
		return nil
	}
	items := s.matches.Items()
	for i := len(items) - 1; i >= 0; i-- {
		m := items[i]
		if m.State() != Typeset {
			continue
		}
		if err := s.insert(m); err != nil {
			s.AddWarning("skipping %q: %v", m.Original(), err)
			continue
		}
		m.SetState(Inserted)
	}
	s.state = Rendered
	return nil
}

func (s *Session) insert(m *Match) error {
	a := s.adaptor
	if !m.Start.Resolved() || !m.End.Resolved() {
		return errors.New("position could not be resolved")
	}

	endNode, endN := m.End.Node, m.End.N
	start, startN := m.Start.Node, m.Start.N
	// A start at the very end of a text node belongs to the next text
	// sibling. Comments and empty elements in between stay in place.
	for start != endNode && startN == len(a.Text(start)) {
		next := a.Next(start)
		for next != dom.Nil && next != endNode && a.Kind(next) != dom.KindText {
			next = a.Next(next)
		}
		if next == dom.Nil {
			break
		}
		start, startN = next, 0
	}

	// Check the range before touching the tree
	for n := start; n != endNode; n = a.Next(n) {
		if n == dom.Nil {
			return errors.New("start and end are not siblings")
		}
	}

	node := start
	if startN > 0 {
		node = s.split(node, startN)
		if endNode == start {
			endNode, endN = node, endN-startN
		}
	}
	for node != endNode {
		next := a.Next(node)
		a.Remove(node)
		node = next
	}
	if endN < len(a.Text(node)) {
		s.split(node, endN)
	}
	a.Replace(node, m.Output)
	return nil
}

// split cuts text node n at offset and returns the new node holding the tail.
func (s *Session) split(n dom.Ref, offset int) dom.Ref {
	a := s.adaptor
	text := a.Text(n)
	a.SetText(n, text[:offset])
	tail := a.CreateText(text[offset:])
	a.InsertAfter(n, tail)
	return tail
}

// Remove takes typeset output back out of the document. With restore the
// original math text is put back; otherwise the output is simply dropped.
// Calling it again before another Render is a no-op.
func (s *Session) Remove(restore bool) {
	if s.state != Rendered {
		return
	}
	for _, m := range s.matches.Items() {
		if m.State() != Inserted {
			continue
		}
		if restore {
			s.adaptor.Replace(m.Output, s.adaptor.CreateText(m.Original()))
		} else {
			s.adaptor.Remove(m.Output)
		}
		m.Rollback(Compiled)
	}
	s.state = Removed
}

// Reset clears the lifecycle flags so that the next Discover searches the
// document again and replaces the match list. Failures and warnings are
// kept until Clear.
func (s *Session) Reset() {
	s.state = Uninitialized
}

// Clear resets the session and drops all matches, failures and warnings.
func (s *Session) Clear() {
	s.Reset()
	s.matches = &MatchList{}
	s.failures = nil
	s.warnings = nil
}
