// Package stack implements the stack-of-items engine that grammars plug
// into. Every pushed item is offered to the current top item, whose kind
// decides whether to absorb it, accept it as the new top, or close itself
// and hand a finished subtree to the item below.
package stack

import (
	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// Props holds the mutable named properties of an item.
type Props map[string]any

// clone returns a shallow copy of p.
func (p Props) clone() Props {
	out := make(Props, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}

// Item is a tagged stack entry: a frame, a marker token, or a finished subtree.
// Its behaviour comes from the Kind it was created from.
type Item struct {
	kind   *Kind
	Props  Props
	Nodes  []*mml.Node
	opened Props // properties as they were when the item was created
}

// Kind returns the item's kind name.
func (it *Item) Kind() string {
	return it.kind.Name
}

// Is reports whether the item is of the named kind.
func (it *Item) Is(kind string) bool {
	return it.kind.Name == kind
}

// IsOpen reports whether the item is a frame that collects children.
func (it *Item) IsOpen() bool {
	return it.kind.Open
}

// IsClose reports whether the item is a closing marker.
func (it *Item) IsClose() bool {
	return it.kind.Close
}

// IsFinal reports whether the item carries a finished subtree.
func (it *Item) IsFinal() bool {
	return it.kind.Final
}

// Accepts reports whether a closing item of the given kind closes this item.
func (it *Item) Accepts(kind string) bool {
	for _, k := range it.kind.Closes {
		if k == kind {
			return true
		}
	}
	return false
}

// Opened returns a copy of the properties recorded when the item was created.
func (it *Item) Opened() Props {
	return it.opened.clone()
}

// Set sets a property and returns the item for chaining.
func (it *Item) Set(name string, v any) *Item {
	if it.Props == nil {
		it.Props = make(Props)
	}
	it.Props[name] = v
	return it
}

// Get returns a property value, or nil.
func (it *Item) Get(name string) any {
	return it.Props[name]
}

// Int returns an integer property, or 0.
func (it *Item) Int(name string) int {
	v, _ := it.Props[name].(int)
	return v
}

// Bool returns a boolean property, or false.
func (it *Item) Bool(name string) bool {
	v, _ := it.Props[name].(bool)
	return v
}

// Str returns a string property, or "".
func (it *Item) Str(name string) string {
	v, _ := it.Props[name].(string)
	return v
}

// Node returns a node property, or nil.
func (it *Item) Node(name string) *mml.Node {
	v, _ := it.Props[name].(*mml.Node)
	return v
}

// Push appends finished subtrees to the item's children.
func (it *Item) Push(nodes ...*mml.Node) {
	for _, n := range nodes {
		if n != nil {
			it.Nodes = append(it.Nodes, n)
		}
	}
}

// PopNode removes and returns the last child, or nil.
func (it *Item) PopNode() *mml.Node {
	if len(it.Nodes) == 0 {
		return nil
	}
	n := it.Nodes[len(it.Nodes)-1]
	it.Nodes = it.Nodes[:len(it.Nodes)-1]
	return n
}

// First returns the first child, or nil.
func (it *Item) First() *mml.Node {
	if len(it.Nodes) == 0 {
		return nil
	}
	return it.Nodes[0]
}

// Row groups the item's children into a single node.
func (it *Item) Row() *mml.Node {
	return mml.Row(it.Nodes...)
}

// Finalize synthesizes the item's subtree through its kind. closer is the
// item that closed it, or nil when it is finalized for another reason.
func (it *Item) Finalize(closer *Item) *mml.Node {
	if it.kind.Finalize != nil {
		return it.kind.Finalize(it, closer)
	}
	return it.Row()
}
