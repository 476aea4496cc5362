package discover

import "github.com/open-cli-collective/mathscan/pkg/dom"

// Position is a place in the document: a text node and an offset into it.
// A Nil node marks a position that could not be resolved.
type Position struct {
	Node  dom.Ref
	N     int
	Delim string
}

// Resolved reports whether the position refers to a node.
func (p Position) Resolved() bool {
	return p.Node != dom.Nil
}

// MapPosition resolves a byte offset into string index of cs to a node
// position. The first text run whose length reaches the remaining offset
// holds it. An offset past every run yields the unresolved position.
func MapPosition(cs *ContainerStrings, index, offset int, delim string) Position {
	if cs == nil || index < 0 || index >= len(cs.Runs) {
		return Position{Delim: delim}
	}
	for _, run := range cs.Runs[index] {
		if offset <= run.Len && run.Text {
			return Position{Node: run.Node, N: max(offset, 0), Delim: delim}
		}
		offset -= run.Len
	}
	return Position{Delim: delim}
}

// Offset is the inverse of MapPosition: it returns the offset into string
// index that pos refers to.
func (cs *ContainerStrings) Offset(index int, pos Position) (int, bool) {
	if cs == nil || !pos.Resolved() || index < 0 || index >= len(cs.Runs) {
		return 0, false
	}
	offset := 0
	for _, run := range cs.Runs[index] {
		if run.Node == pos.Node {
			return offset + pos.N, true
		}
		offset += run.Len
	}
	return 0, false
}
