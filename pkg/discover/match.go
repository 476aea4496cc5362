package discover

import (
	"github.com/open-cli-collective/mathscan/pkg/dom"
	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// RenderState is a match's place in the typesetting lifecycle.
type RenderState int

const (
	Unprocessed RenderState = iota
	Found
	Compiled
	Typeset
	Inserted
)

func (s RenderState) String() string {
	switch s {
	case Unprocessed:
		return "unprocessed"
	case Found:
		return "found"
	case Compiled:
		return "compiled"
	case Typeset:
		return "typeset"
	case Inserted:
		return "inserted"
	default:
		return "unknown"
	}
}

// ProtoMatch is an occurrence located in string space. String-mode sources
// fill Index, Start and End; tree-mode sources fill StartPos and EndPos.
type ProtoMatch struct {
	Index   int // string index within the container
	Start   int // byte offset of the open delimiter
	End     int // byte offset just past the close delimiter
	Open    string
	Close   string
	Display bool
	Content string
	// Escape marks an escaped delimiter (\$) that renders as plain text.
	Escape bool

	StartPos *Position
	EndPos   *Position
}

// Match is a located occurrence with resolved document positions.
type Match struct {
	Content   string
	Source    Source
	Display   bool
	Escape    bool
	Start     Position
	End       Position
	Container int

	Tree   *mml.Node // set once compiled
	Output dom.Ref   // typeset subtree, set once typeset

	state RenderState
	key   orderKey
}

// State returns the match's lifecycle state.
func (m *Match) State() RenderState {
	return m.state
}

// SetState moves the match forward. It never lowers the state.
func (m *Match) SetState(s RenderState) {
	if s > m.state {
		m.state = s
	}
}

// Rollback explicitly lowers the state, dropping outputs that belong to
// the states being undone.
func (m *Match) Rollback(s RenderState) {
	if s >= m.state {
		return
	}
	m.state = s
	if s < Typeset {
		m.Output = dom.Nil
	}
	if s < Compiled {
		m.Tree = nil
	}
}

// Original returns the source text of the match, delimiters included.
func (m *Match) Original() string {
	return m.Start.Delim + m.Content + m.End.Delim
}

// orderKey orders matches by container, node document order, then offset.
type orderKey struct {
	container int
	node      int
	offset    int
}

func (k orderKey) less(o orderKey) bool {
	if k.container != o.container {
		return k.container < o.container
	}
	if k.node != o.node {
		return k.node < o.node
	}
	return k.offset < o.offset
}

// MatchList is the document-ordered list of matches.
type MatchList struct {
	items []*Match
}

// Len returns the number of matches.
func (l *MatchList) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// Items returns the matches in document order.
func (l *MatchList) Items() []*Match {
	if l == nil {
		return nil
	}
	return l.items
}

// Merge combines a document-ordered list into l, keeping document order.
// On equal keys existing matches stay first.
func (l *MatchList) Merge(other []*Match) {
	if len(other) == 0 {
		return
	}
	merged := make([]*Match, 0, len(l.items)+len(other))
	i, j := 0, 0
	for i < len(l.items) && j < len(other) {
		if other[j].key.less(l.items[i].key) {
			merged = append(merged, other[j])
			j++
		} else {
			merged = append(merged, l.items[i])
			i++
		}
	}
	merged = append(merged, l.items[i:]...)
	merged = append(merged, other[j:]...)
	l.items = merged
}

// Remove drops m from the list.
func (l *MatchList) Remove(m *Match) {
	for i, it := range l.items {
		if it == m {
			l.items = append(l.items[:i], l.items[i+1:]...)
			return
		}
	}
}
