// tokenizer.go splits TeX math source into tokens.
package tex

import (
	"unicode"
	"unicode/utf8"
)

// Tokenize scans TeX source and returns its token stream.
//   - \name is a command; whitespace after a letter command is dropped
//   - \x (any single non-letter) is a command named x
//   - % starts a comment that runs to the end of the line
//   - #1..#9 are macro parameters
//
// Everything else is a single-character token.
func Tokenize(input string) []Token {
	var tokens []Token
	pos := 0

	for pos < len(input) {
		r, size := utf8.DecodeRuneInString(input[pos:])
		start := pos

		switch {
		case r == '\\':
			pos += size
			if pos >= len(input) {
				tokens = append(tokens, Token{Type: TokenOther, Text: `\`, Position: start, End: pos})
				continue
			}
			nr, nsize := utf8.DecodeRuneInString(input[pos:])
			if !isASCIILetter(nr) {
				pos += nsize
				tokens = append(tokens, Token{Type: TokenCommand, Text: string(nr), Position: start, End: pos})
				continue
			}
			nameStart := pos
			for pos < len(input) && isASCIILetter(rune(input[pos])) {
				pos++
			}
			tokens = append(tokens, Token{Type: TokenCommand, Text: input[nameStart:pos], Position: start, End: pos})
			// Spaces after a control word are not significant
			for pos < len(input) && isSpace(rune(input[pos])) {
				pos++
			}

		case r == '%':
			for pos < len(input) && input[pos] != '\n' {
				pos++
			}

		case isSpace(r):
			for pos < len(input) && isSpace(rune(input[pos])) {
				pos++
			}
			tokens = append(tokens, Token{Type: TokenSpace, Text: input[start:pos], Position: start, End: pos})

		case r == '{':
			pos += size
			tokens = append(tokens, Token{Type: TokenBeginGroup, Text: "{", Position: start, End: pos})

		case r == '}':
			pos += size
			tokens = append(tokens, Token{Type: TokenEndGroup, Text: "}", Position: start, End: pos})

		case r == '#' && pos+1 < len(input) && input[pos+1] >= '1' && input[pos+1] <= '9':
			pos += 2
			tokens = append(tokens, Token{Type: TokenParam, Text: input[start+1 : pos], Position: start, End: pos})

		case unicode.IsLetter(r):
			pos += size
			tokens = append(tokens, Token{Type: TokenLetter, Text: string(r), Position: start, End: pos})

		case r >= '0' && r <= '9':
			pos += size
			tokens = append(tokens, Token{Type: TokenDigit, Text: string(r), Position: start, End: pos})

		default:
			pos += size
			tokens = append(tokens, Token{Type: TokenOther, Text: string(r), Position: start, End: pos})
		}
	}

	return tokens
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func isSpace(r rune) bool {
	return r == ' ' || r == '\t' || r == '\n' || r == '\r'
}
