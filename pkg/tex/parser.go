package tex

import (
	"errors"
	"fmt"
	"strings"

	"github.com/open-cli-collective/mathscan/pkg/mml"
	"github.com/open-cli-collective/mathscan/pkg/stack"
)

// maxNesting bounds nested argument parses.
const maxNesting = 100

// Parser is the state of one parse: a token cursor over the input and the
// item stack that handlers push onto. Arguments are parsed by sub-parsers
// with their own stacks.
type Parser struct {
	g      *Grammar
	input  string
	tokens []Token
	pos    int
	stack  *stack.Stack

	current    Token // token whose handler is running
	expansions *int  // shared with sub-parsers
	nesting    int
}

func (p *Parser) parse() (*mml.Node, error) {
	for {
		tok, ok := p.Next()
		if !ok {
			break
		}
		if err := p.dispatch(tok); err != nil {
			return nil, err
		}
	}
	node, err := p.stack.Finish()
	if err != nil {
		return nil, p.wrap(err, Token{Position: len(p.input), End: len(p.input)})
	}
	return node, nil
}

func (p *Parser) dispatch(tok Token) error {
	switch tok.Type {
	case TokenSpace:
		return nil
	case TokenBeginGroup:
		return p.pushAt(tok, KindOpen, nil)
	case TokenEndGroup:
		return p.pushAt(tok, KindClose, nil)
	case TokenParam:
		return p.errorAt(tok, ErrMisplaced, "Illegal use of macro parameter character #")
	case TokenCommand:
		if m, ok := p.g.macros[tok.Text]; ok {
			return p.expand(tok, m)
		}
		h, ok := p.g.commands[tok.Text]
		if !ok {
			return p.errorAt(tok, ErrUndefinedMacro, "Undefined control sequence "+tok.Source())
		}
		return p.call(tok, h)
	}

	if h, ok := p.g.chars[tok.Text]; ok {
		return p.call(tok, h)
	}
	if h, ok := p.g.fallbacks[tok.Type]; ok {
		return p.call(tok, h)
	}
	return p.errorAt(tok, ErrMisplaced, "Unexpected character "+tok.Text)
}

func (p *Parser) call(tok Token, h handler) error {
	prev := p.current
	p.current = tok
	defer func() { p.current = prev }()
	if err := h.fn(p, tok.Text, h.args...); err != nil {
		return p.wrap(err, tok)
	}
	return nil
}

func (p *Parser) pushAt(tok Token, kind string, props stack.Props) error {
	it, err := p.Create(kind, props)
	if err == nil {
		err = p.stack.Push(it)
	}
	if err != nil {
		return p.wrap(err, tok)
	}
	return nil
}

// expand substitutes a macro call in place in the token stream.
func (p *Parser) expand(tok Token, m macro) error {
	*p.expansions++
	if *p.expansions > p.g.MaxExpansions {
		return p.errorAt(tok, ErrRecursion, "Maximum macro substitution count exceeded; is there a recursive macro call?")
	}

	prev := p.current
	p.current = tok
	args := make([][]Token, m.nargs)
	for i := range args {
		arg, err := p.GetArgument(tok.Source())
		if err != nil {
			p.current = prev
			return err
		}
		args[i] = arg
	}
	p.current = prev

	var out []Token
	for _, t := range m.template {
		if t.Type == TokenParam {
			if n := int(t.Text[0] - '1'); n < len(args) {
				out = append(out, args[n]...)
			}
			continue
		}
		t.Position, t.End = tok.Position, tok.End
		out = append(out, t)
	}

	rest := p.tokens[p.pos:]
	tokens := make([]Token, 0, len(out)+len(rest))
	tokens = append(tokens, out...)
	tokens = append(tokens, rest...)
	p.tokens, p.pos = tokens, 0
	return nil
}

// wrap attaches the token position to errors that do not carry one yet.
func (p *Parser) wrap(err error, tok Token) error {
	var pe *ParseError
	if errors.As(err, &pe) {
		return err
	}
	return &ParseError{Message: err.Error(), Token: tokenSource(tok), Position: tok.Position, Err: err}
}

func (p *Parser) errorAt(tok Token, kind error, msg string) error {
	return &ParseError{Message: msg, Token: tokenSource(tok), Position: tok.Position, Err: kind}
}

func tokenSource(tok Token) string {
	if tok.Text == "" {
		return ""
	}
	return tok.Source()
}

// Errorf returns a ParseError of the given kind at the current token.
func (p *Parser) Errorf(kind error, format string, args ...any) error {
	return p.errorAt(p.current, kind, fmt.Sprintf(format, args...))
}

// Grammar returns the grammar being parsed with.
func (p *Parser) Grammar() *Grammar {
	return p.g
}

// Top returns the current stack frame.
func (p *Parser) Top() *stack.Item {
	return p.stack.Top()
}

// Create builds an item from the grammar's factory.
func (p *Parser) Create(kind string, props stack.Props) (*stack.Item, error) {
	return p.g.Factory.Create(kind, props)
}

// Push offers items to the stack.
func (p *Parser) Push(items ...*stack.Item) error {
	return p.stack.Push(items...)
}

// PushNodes pushes finished subtrees.
func (p *Parser) PushNodes(nodes ...*mml.Node) error {
	return p.stack.PushNodes(nodes...)
}

// Next consumes and returns the next token.
func (p *Parser) Next() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	tok := p.tokens[p.pos]
	p.pos++
	return tok, true
}

// Peek returns the next token without consuming it.
func (p *Parser) Peek() (Token, bool) {
	if p.pos >= len(p.tokens) {
		return Token{}, false
	}
	return p.tokens[p.pos], true
}

// SkipSpaces consumes space tokens.
func (p *Parser) SkipSpaces() {
	for p.pos < len(p.tokens) && p.tokens[p.pos].Type == TokenSpace {
		p.pos++
	}
}

// PeekNonSpace skips spaces and returns the next token without consuming it.
func (p *Parser) PeekNonSpace() (Token, bool) {
	p.SkipSpaces()
	return p.Peek()
}

// GetArgument consumes the next argument: the tokens of a braced group
// without its braces, or a single token.
func (p *Parser) GetArgument(name string) ([]Token, error) {
	p.SkipSpaces()
	tok, ok := p.Next()
	if !ok || tok.Type == TokenEndGroup {
		return nil, p.Errorf(ErrMissingArgument, "Missing argument for %s", name)
	}
	if tok.Type != TokenBeginGroup {
		return []Token{tok}, nil
	}

	start, depth := p.pos, 1
	for p.pos < len(p.tokens) {
		switch p.tokens[p.pos].Type {
		case TokenBeginGroup:
			depth++
		case TokenEndGroup:
			depth--
			if depth == 0 {
				arg := p.tokens[start:p.pos]
				p.pos++
				return arg, nil
			}
		}
		p.pos++
	}
	return nil, p.Errorf(ErrMissingArgument, "Missing close brace for argument of %s", name)
}

// GetOptional consumes a bracketed optional argument if one follows.
func (p *Parser) GetOptional(name string) ([]Token, bool, error) {
	tok, ok := p.PeekNonSpace()
	if !ok || !tok.Is(TokenOther, "[") {
		return nil, false, nil
	}
	p.pos++

	start, depth := p.pos, 0
	for p.pos < len(p.tokens) {
		t := p.tokens[p.pos]
		switch {
		case t.Type == TokenBeginGroup:
			depth++
		case t.Type == TokenEndGroup:
			depth--
		case depth == 0 && t.Is(TokenOther, "]"):
			arg := p.tokens[start:p.pos]
			p.pos++
			return arg, true, nil
		}
		p.pos++
	}
	return nil, false, p.Errorf(ErrMissingArgument, "Missing close bracket for optional argument of %s", name)
}

// GetText consumes an argument and returns its source text.
func (p *Parser) GetText(name string) (string, error) {
	toks, err := p.GetArgument(name)
	if err != nil {
		return "", err
	}
	return tokensText(toks), nil
}

// GetDelimiter consumes a delimiter token and returns its glyph. A "."
// is the null delimiter and yields "".
func (p *Parser) GetDelimiter(name string) (string, error) {
	p.SkipSpaces()
	tok, ok := p.Next()
	if ok {
		if glyph, found := p.g.delimiters[tok.Source()]; found {
			return glyph, nil
		}
	}
	return "", p.Errorf(ErrMissingArgument, "Missing or unrecognized delimiter for %s", name)
}

// ParseArg consumes an argument and parses it on its own stack.
func (p *Parser) ParseArg(name string) (*mml.Node, error) {
	toks, err := p.GetArgument(name)
	if err != nil {
		return nil, err
	}
	return p.ParseTokens(toks)
}

// ParseTokens parses a token slice on a fresh stack.
func (p *Parser) ParseTokens(toks []Token) (*mml.Node, error) {
	if p.nesting >= maxNesting {
		return nil, p.Errorf(ErrRecursion, "Arguments nested too deeply")
	}
	sub := &Parser{
		g:          p.g,
		input:      p.input,
		tokens:     toks,
		stack:      stack.New(p.g.Factory),
		current:    p.current,
		expansions: p.expansions,
		nesting:    p.nesting + 1,
	}
	return sub.parse()
}

func tokensText(toks []Token) string {
	var sb strings.Builder
	for i, t := range toks {
		switch t.Type {
		case TokenSpace:
			sb.WriteString(t.Text)
		case TokenCommand:
			sb.WriteString(t.Source())
			// keep a control word apart from a following letter
			if isASCIILetter(rune(t.Text[0])) && i+1 < len(toks) && toks[i+1].Type == TokenLetter {
				sb.WriteString(" ")
			}
		default:
			sb.WriteString(t.Source())
		}
	}
	return sb.String()
}
