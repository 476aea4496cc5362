// tokens.go defines the token types produced by the TeX tokenizer.
package tex

// TokenType is the category of a TeX token.
type TokenType int

const (
	TokenLetter     TokenType = iota // a single letter
	TokenDigit                       // a single decimal digit
	TokenCommand                     // \name or \symbol
	TokenOther                       // any other single character
	TokenSpace                       // a run of whitespace
	TokenBeginGroup                  // {
	TokenEndGroup                    // }
	TokenParam                       // #1..#9 inside a macro template
)

// Token is a single TeX token.
type Token struct {
	Type     TokenType
	Text     string // command name without the backslash, or the character
	Position int    // byte offset in the original input
	End      int    // byte offset just past the token
}

// Source returns the token as it is written in TeX source.
func (t Token) Source() string {
	switch t.Type {
	case TokenCommand:
		return `\` + t.Text
	case TokenParam:
		return "#" + t.Text
	case TokenSpace:
		return " "
	default:
		return t.Text
	}
}

// Is reports whether the token has the given type and text.
func (t Token) Is(typ TokenType, text string) bool {
	return t.Type == typ && t.Text == text
}
