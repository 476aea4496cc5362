package stack

import (
	"errors"

	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// Stack is the item stack of a single parse. It always holds the bottom
// start frame, which never closes.
type Stack struct {
	factory *Factory
	items   []*Item
}

// New returns a stack holding only the bottom frame.
func New(f *Factory) *Stack {
	return &Stack{
		factory: f,
		items:   []*Item{f.MustCreate(KindStart, nil)},
	}
}

// Factory returns the factory items are created from.
func (s *Stack) Factory() *Factory {
	return s.factory
}

// Top returns the current frame.
func (s *Stack) Top() *Item {
	return s.items[len(s.items)-1]
}

// Depth returns the number of frames above the bottom frame.
func (s *Stack) Depth() int {
	return len(s.items) - 1
}

// Push offers each item to the current top frame in turn.
func (s *Stack) Push(items ...*Item) error {
	for _, x := range items {
		if x == nil {
			continue
		}
		top := s.Top()
		check := top.kind.Check
		if check == nil {
			check = Default
		}
		verdict, repl, err := check(s.factory, top, x)
		if err != nil {
			return err
		}
		switch verdict {
		case Absorb:
		case Accept:
			s.items = append(s.items, x)
		case Replace:
			if len(s.items) == 1 {
				return errors.New("bottom frame cannot close")
			}
			s.items = s.items[:len(s.items)-1]
			if err := s.Push(repl...); err != nil {
				return err
			}
		}
	}
	return nil
}

// PushNodes wraps finished subtrees in mml items and pushes them.
func (s *Stack) PushNodes(nodes ...*mml.Node) error {
	for _, n := range nodes {
		if n == nil {
			continue
		}
		if err := s.Push(s.factory.Node(n)); err != nil {
			return err
		}
	}
	return nil
}

// Finish ends the parse. Any frame left above the bottom one is
// unterminated; otherwise the bottom frame's subtree is returned.
func (s *Stack) Finish() (*mml.Node, error) {
	if len(s.items) > 1 {
		top := s.Top()
		return nil, &UnterminatedFrameError{Kind: top.Kind(), Props: top.Opened()}
	}
	return s.items[0].Finalize(nil), nil
}
