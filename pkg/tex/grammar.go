// Package tex implements a TeX math grammar on top of the stack engine,
// the MathJax-style delimiter finder, and the discovery source that ties
// the two together.
package tex

import (
	"github.com/open-cli-collective/mathscan/pkg/mml"
	"github.com/open-cli-collective/mathscan/pkg/stack"
)

// HandlerFunc handles one trigger token. name is the command name or the
// character that triggered it; args are the values given at registration.
type HandlerFunc func(p *Parser, name string, args ...any) error

type handler struct {
	fn   HandlerFunc
	args []any
}

type macro struct {
	template []Token
	nargs    int
}

// Extension configures a grammar: it registers item kinds and handlers.
type Extension func(g *Grammar)

// DefaultMaxExpansions bounds macro substitutions in one parse.
const DefaultMaxExpansions = 10000

// Grammar is a set of item kinds and token handlers. A grammar is not
// modified by parsing and may be shared by concurrent parses once built.
type Grammar struct {
	Factory *stack.Factory

	// MaxExpansions bounds macro substitutions per parse.
	MaxExpansions int

	commands   map[string]handler
	chars      map[string]handler
	fallbacks  map[TokenType]handler
	macros     map[string]macro
	delimiters map[string]string
}

// NewGrammar builds a grammar from extensions, applied in order. Later
// registrations replace earlier ones.
func NewGrammar(exts ...Extension) *Grammar {
	g := &Grammar{
		Factory:       stack.NewFactory(),
		MaxExpansions: DefaultMaxExpansions,
		commands:      make(map[string]handler),
		chars:         make(map[string]handler),
		fallbacks:     make(map[TokenType]handler),
		macros:        make(map[string]macro),
		delimiters:    make(map[string]string),
	}
	for _, ext := range exts {
		ext(g)
	}
	return g
}

// Default returns the base grammar with the bar/bracket notation loaded.
func Default() *Grammar {
	return NewGrammar(Base, Braket)
}

// Command registers a handler for \name.
func (g *Grammar) Command(name string, fn HandlerFunc, args ...any) {
	delete(g.macros, name)
	g.commands[name] = handler{fn: fn, args: args}
}

// Char registers a handler for a single character.
func (g *Grammar) Char(ch string, fn HandlerFunc, args ...any) {
	g.chars[ch] = handler{fn: fn, args: args}
}

// Fallback registers the handler for tokens of a type that have no
// specific handler.
func (g *Grammar) Fallback(typ TokenType, fn HandlerFunc, args ...any) {
	g.fallbacks[typ] = handler{fn: fn, args: args}
}

// Macro registers \name as a substitution of template, taking nargs
// arguments referenced as #1..#9.
func (g *Grammar) Macro(name, template string, nargs int) {
	delete(g.commands, name)
	g.macros[name] = macro{template: Tokenize(template), nargs: nargs}
}

// Delimiter registers a token, written as in source, that may follow
// \left, \middle and \right.
func (g *Grammar) Delimiter(source, glyph string) {
	g.delimiters[source] = glyph
}

// Defined reports whether \name has a handler or macro.
func (g *Grammar) Defined(name string) bool {
	_, cmd := g.commands[name]
	_, mac := g.macros[name]
	return cmd || mac
}

// Parse parses TeX math source into an expression tree.
func (g *Grammar) Parse(input string) (*mml.Node, error) {
	count := 0
	p := &Parser{
		g:          g,
		input:      input,
		tokens:     Tokenize(input),
		stack:      stack.New(g.Factory),
		expansions: &count,
	}
	return p.parse()
}

// ParamCount returns the highest #n used in a macro template.
func ParamCount(template string) int {
	n := 0
	for _, t := range Tokenize(template) {
		if t.Type == TokenParam {
			if k := int(t.Text[0] - '0'); k > n {
				n = k
			}
		}
	}
	return n
}
