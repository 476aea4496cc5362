// Package markdown converts Markdown documents to HTML for math discovery,
// and typeset HTML back to Markdown.
package markdown

import (
	"bytes"
	"strconv"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/util"

	"github.com/open-cli-collective/mathscan/pkg/discover"
)

// mdParser is a pre-configured goldmark instance with GFM table extension.
var mdParser = goldmark.New(
	goldmark.WithExtensions(extension.Table),
)

// Math is swapped for placeholders while goldmark runs, so that \( keeps
// its backslash and a*b*c is not emphasis. No Markdown punctuation here.
const (
	placeholderPrefix = "MSMATH"
	placeholderSuffix = "END"
)

// Finder locates math in a string.
type Finder interface {
	Find(index int, text string) []discover.ProtoMatch
}

// ToHTML converts Markdown to HTML, keeping the math f finds verbatim.
func ToHTML(markdown []byte, f Finder) (string, error) {
	if len(markdown) == 0 {
		return "", nil
	}

	processed, spans := protectMath(string(markdown), f)

	var buf bytes.Buffer
	if err := mdParser.Convert([]byte(processed), &buf); err != nil {
		return "", err
	}

	return restoreMath(buf.String(), spans), nil
}

// protectMath replaces each math span with a numbered placeholder.
func protectMath(text string, f Finder) (string, []string) {
	if f == nil {
		return text, nil
	}
	matches := f.Find(0, text)
	if len(matches) == 0 {
		return text, nil
	}

	var sb strings.Builder
	spans := make([]string, 0, len(matches))
	last := 0
	for _, m := range matches {
		sb.WriteString(text[last:m.Start])
		sb.WriteString(formatPlaceholder(len(spans)))
		spans = append(spans, text[m.Start:m.End])
		last = m.End
	}
	sb.WriteString(text[last:])
	return sb.String(), spans
}

// restoreMath puts the escaped math text back.
func restoreMath(html string, spans []string) string {
	for i, span := range spans {
		escaped := string(util.EscapeHTML([]byte(span)))
		html = strings.Replace(html, formatPlaceholder(i), escaped, 1)
	}
	return html
}

func formatPlaceholder(id int) string {
	return placeholderPrefix + strconv.Itoa(id) + placeholderSuffix
}

// FromHTML converts an HTML document or fragment to Markdown.
func FromHTML(html string) (string, error) {
	if html == "" {
		return "", nil
	}

	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(markdown), nil
}
