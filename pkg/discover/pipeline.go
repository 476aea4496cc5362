package discover

import (
	"fmt"
	"math"
	"sort"

	"github.com/open-cli-collective/mathscan/pkg/dom"
	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// Mode says what a source searches.
type Mode int

const (
	ModeStrings Mode = iota // searches the extracted container strings
	ModeTree                // searches the container subtree directly
)

// Input is what a source searches. Strings is set for ModeStrings sources.
type Input struct {
	Adaptor   dom.Adaptor
	Container dom.Ref
	Strings   []string
}

// Source is a pluggable notation source.
type Source interface {
	Name() string
	Mode() Mode
	FindMatches(in Input) ([]ProtoMatch, error)
	// Compile parses a match into an expression tree. Escaped matches
	// compile to nil.
	Compile(m *Match) (*mml.Node, error)
}

// Options configure discovery.
type Options struct {
	Policy Policy
}

// DefaultOptions returns options with the default extraction policy.
func DefaultOptions() Options {
	return Options{Policy: DefaultPolicy()}
}

// Discover searches every container with every source and returns the
// matches in document order.
func Discover(a dom.Adaptor, containers []dom.Ref, sources []Source, opts Options) (*MatchList, error) {
	list := &MatchList{}

	needStrings := false
	for _, src := range sources {
		if src.Mode() == ModeStrings {
			needStrings = true
			break
		}
	}

	for ci, container := range containers {
		var cs *ContainerStrings
		if needStrings {
			cs = Extract(a, container, opts.Policy)
		}
		c := &containerScan{index: ci, order: dom.Order(a, container), strings: cs}

		for _, src := range sources {
			in := Input{Adaptor: a, Container: container}
			if src.Mode() == ModeStrings {
				in.Strings = cs.Strings
			}
			protos, err := src.FindMatches(in)
			if err != nil {
				return nil, fmt.Errorf("source %s: %w", src.Name(), err)
			}

			found := make([]*Match, 0, len(protos))
			for _, pm := range protos {
				found = append(found, c.toMatch(src, pm))
			}
			sort.SliceStable(found, func(i, j int) bool {
				return found[i].key.less(found[j].key)
			})
			list.Merge(found)
		}
	}
	return list, nil
}

// containerScan holds what one Discover call knows about one container.
type containerScan struct {
	index   int
	order   map[dom.Ref]int
	strings *ContainerStrings
}

func (c *containerScan) toMatch(src Source, pm ProtoMatch) *Match {
	m := &Match{
		Content:   pm.Content,
		Source:    src,
		Display:   pm.Display,
		Escape:    pm.Escape,
		Container: c.index,
		state:     Found,
	}
	if src.Mode() == ModeTree && pm.StartPos != nil && pm.EndPos != nil {
		m.Start, m.End = *pm.StartPos, *pm.EndPos
		m.key = c.key(m.Start, math.MaxInt, 0)
		return m
	}

	m.Start = MapPosition(c.strings, pm.Index, pm.Start, pm.Open)
	m.End = MapPosition(c.strings, pm.Index, pm.End, pm.Close)

	// An unresolved start sorts just after the last run of its string.
	fallbackNode, fallbackOffset := math.MaxInt, 0
	if c.strings != nil && pm.Index >= 0 && pm.Index < len(c.strings.Runs) {
		if runs := c.strings.Runs[pm.Index]; len(runs) > 0 {
			last := runs[len(runs)-1]
			fallbackNode, fallbackOffset = c.order[last.Node], last.Len+1
		}
	}
	m.key = c.key(m.Start, fallbackNode, fallbackOffset)
	return m
}

func (c *containerScan) key(pos Position, fallbackNode, fallbackOffset int) orderKey {
	if n, ok := c.order[pos.Node]; ok && pos.Resolved() {
		return orderKey{container: c.index, node: n, offset: pos.N}
	}
	return orderKey{container: c.index, node: fallbackNode, offset: fallbackOffset}
}
