package stack

import (
	"fmt"

	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// Built-in kind names.
const (
	KindStart = "start" // bottom frame, always present
	KindMML   = "mml"   // finished subtree
)

// Verdict is a frame's decision about an offered item.
type Verdict int

const (
	Absorb  Verdict = iota // the offered item was consumed by the frame
	Accept                 // the offered item becomes the new top
	Replace                // the frame pops; replacement items are delivered below it
)

// CheckFunc decides what the current top frame does with an incoming item.
// For Replace it returns the items to deliver to the frame below.
type CheckFunc func(f *Factory, top, x *Item) (Verdict, []*Item, error)

// FinalizeFunc synthesizes a frame's subtree. closer is the closing item,
// or nil.
type FinalizeFunc func(it *Item, closer *Item) *mml.Node

// Kind describes the behaviour shared by all items of one kind.
type Kind struct {
	Name  string
	Open  bool // collects children until closed
	Close bool // closing marker
	Final bool // carries a finished subtree

	// Closes lists the closing item kinds that finalize this frame.
	Closes []string
	// Errors maps closing item kinds this frame rejects to a message.
	Errors map[string]string

	Check    CheckFunc    // nil means Default
	Finalize FinalizeFunc // nil means group the children in a row
}

// Factory creates items from registered kinds.
type Factory struct {
	kinds map[string]*Kind
}

// NewFactory returns a factory with the start and mml kinds registered.
func NewFactory() *Factory {
	f := &Factory{kinds: make(map[string]*Kind)}
	f.Register(Kind{Name: KindStart, Open: true})
	f.Register(Kind{Name: KindMML, Final: true})
	return f
}

// Register adds or replaces a kind.
func (f *Factory) Register(k Kind) {
	kind := k
	f.kinds[k.Name] = &kind
}

// Lookup returns the kind registered under name.
func (f *Factory) Lookup(name string) (*Kind, bool) {
	k, ok := f.kinds[name]
	return k, ok
}

// Create builds an item of the named kind with a copy of props.
func (f *Factory) Create(kind string, props Props) (*Item, error) {
	k, ok := f.kinds[kind]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownKind, kind)
	}
	it := &Item{kind: k, Props: props.clone()}
	it.opened = props.clone()
	return it, nil
}

// MustCreate is Create for kinds known to be registered.
func (f *Factory) MustCreate(kind string, props Props) *Item {
	it, err := f.Create(kind, props)
	if err != nil {
		panic(err)
	}
	return it
}

// Node wraps a finished subtree in an mml item.
func (f *Factory) Node(n *mml.Node) *Item {
	it := f.MustCreate(KindMML, nil)
	it.Push(n)
	return it
}

// Default is the base transition every kind falls back to:
//  1. a closing item this frame accepts finalizes the frame, which pops and
//     delivers its subtree to the frame below;
//  2. a finished subtree is absorbed into the frame's children;
//  3. anything else is pushed as the new top.
//
// A closing item the frame does not accept is an UnexpectedCloseError.
func Default(f *Factory, top, x *Item) (Verdict, []*Item, error) {
	if x.IsClose() {
		if top.Accepts(x.Kind()) {
			return Replace, []*Item{f.Node(top.Finalize(x))}, nil
		}
		return Absorb, nil, &UnexpectedCloseError{
			Kind:    top.Kind(),
			Token:   x.Kind(),
			Message: top.kind.Errors[x.Kind()],
		}
	}
	if x.IsFinal() {
		top.Push(x.Nodes...)
		return Absorb, nil, nil
	}
	return Accept, nil, nil
}
