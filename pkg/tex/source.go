package tex

import (
	"github.com/open-cli-collective/mathscan/pkg/discover"
	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// SourceName is the name the TeX source reports.
const SourceName = "tex"

// Source finds TeX math in container strings and compiles it with a grammar.
type Source struct {
	finder  *Finder
	grammar *Grammar
}

var _ discover.Source = (*Source)(nil)

// NewSource creates a TeX source.
func NewSource(f *Finder, g *Grammar) *Source {
	return &Source{finder: f, grammar: g}
}

// NewDefaultSource creates a TeX source with the default delimiters and grammar.
func NewDefaultSource() *Source {
	f, err := NewFinder(DefaultFinderOptions())
	if err != nil {
		panic(err) // the default delimiters always compile
	}
	return NewSource(f, Default())
}

func (s *Source) Name() string {
	return SourceName
}

func (s *Source) Mode() discover.Mode {
	return discover.ModeStrings
}

func (s *Source) FindMatches(in discover.Input) ([]discover.ProtoMatch, error) {
	return s.finder.FindAll(in.Strings), nil
}

// Compile parses the match content. Escaped delimiters have no tree.
func (s *Source) Compile(m *discover.Match) (*mml.Node, error) {
	if m.Escape {
		return nil, nil
	}
	node, err := s.grammar.Parse(m.Content)
	if err != nil {
		return nil, err
	}
	return mml.Math(node, m.Display), nil
}

// Finder returns the finder that locates matches.
func (s *Source) Finder() *Finder {
	return s.finder
}

// Grammar returns the grammar matches are compiled with.
func (s *Source) Grammar() *Grammar {
	return s.grammar
}
