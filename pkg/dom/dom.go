// Package dom defines the structural-tree capability set that math discovery
// and typesetting work against. The core never touches a concrete tree type;
// it only holds opaque Ref handles that an Adaptor hands out and validates.
package dom

// Ref is an opaque, non-owning handle to a node owned by an Adaptor.
// The zero value Nil refers to no node.
type Ref int

// Nil is the handle of no node.
const Nil Ref = 0

// Kind names reported for non-element nodes. Elements report their tag name.
const (
	KindText     = "#text"
	KindComment  = "#comment"
	KindDocument = "#document"
	KindDoctype  = "#doctype"
)

// Adaptor is the capability set a structural tree must provide.
type Adaptor interface {
	// Children enumerates the direct children of n in document order.
	Children(n Ref) []Ref
	// Text returns the text of a text node, or the concatenated text of
	// all descendant text nodes for any other node.
	Text(n Ref) string
	// Kind returns the node kind: a tag name, or one of the Kind* constants.
	Kind(n Ref) string
	// Attribute returns the named attribute, or "" if absent.
	Attribute(n Ref, name string) string

	// CreateNode builds a detached element with the given attributes and children.
	CreateNode(kind string, attrs map[string]string, children ...Ref) Ref
	// CreateText builds a detached text node.
	CreateText(text string) Ref
	// Replace puts repl in old's place. old becomes detached.
	Replace(old, repl Ref)
	// Append adds child as the last child of parent.
	Append(parent, child Ref)

	Parent(n Ref) Ref
	Next(n Ref) Ref
	SetText(n Ref, text string)
	InsertAfter(ref, n Ref)
	Remove(n Ref)
	Valid(n Ref) bool
}

// Order returns the pre-order document position of every node under root,
// root included.
func Order(a Adaptor, root Ref) map[Ref]int {
	order := make(map[Ref]int)
	var walk func(n Ref)
	walk = func(n Ref) {
		order[n] = len(order)
		for _, c := range a.Children(n) {
			walk(c)
		}
	}
	if a.Valid(root) {
		walk(root)
	}
	return order
}

// FindAll returns every element of the given kind under root, in document order.
func FindAll(a Adaptor, root Ref, kind string) []Ref {
	var found []Ref
	var walk func(n Ref)
	walk = func(n Ref) {
		if a.Kind(n) == kind {
			found = append(found, n)
		}
		for _, c := range a.Children(n) {
			walk(c)
		}
	}
	if a.Valid(root) {
		walk(root)
	}
	return found
}
