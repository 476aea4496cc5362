package discover

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mathscan/pkg/dom"
	"github.com/open-cli-collective/mathscan/pkg/mml"
)

func parseBody(t *testing.T, body string) (*dom.HTMLDocument, dom.Ref) {
	t.Helper()
	doc, err := dom.ParseHTMLString("<html><body>" + body + "</body></html>")
	require.NoError(t, err)
	return doc, doc.Body()
}

func renderNode(t *testing.T, doc *dom.HTMLDocument, n dom.Ref) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, doc.RenderNode(&buf, n))
	return buf.String()
}

// pairSource finds open...close pairs in the extracted strings.
type pairSource struct {
	name        string
	open, close string
	fail        string // content that fails to compile
	calls       int
}

func (s *pairSource) Name() string { return s.name }
func (s *pairSource) Mode() Mode   { return ModeStrings }

func (s *pairSource) FindMatches(in Input) ([]ProtoMatch, error) {
	s.calls++
	var out []ProtoMatch
	for idx, str := range in.Strings {
		pos := 0
		for {
			i := strings.Index(str[pos:], s.open)
			if i < 0 {
				break
			}
			start := pos + i
			j := strings.Index(str[start+len(s.open):], s.close)
			if j < 0 {
				break
			}
			contentEnd := start + len(s.open) + j
			out = append(out, ProtoMatch{
				Index:   idx,
				Start:   start,
				End:     contentEnd + len(s.close),
				Open:    s.open,
				Close:   s.close,
				Content: str[start+len(s.open) : contentEnd],
			})
			pos = contentEnd + len(s.close)
		}
	}
	return out, nil
}

func (s *pairSource) Compile(m *Match) (*mml.Node, error) {
	if s.fail != "" && m.Content == s.fail {
		return nil, errors.New("bad input")
	}
	return mml.Token(mml.KindIdent, m.Content), nil
}

// elementSource reports the text of every element of one kind, positioned
// directly on the element's text node.
type elementSource struct {
	kind  string
	calls int
	saw   [][]string
}

func (s *elementSource) Name() string { return "element" }
func (s *elementSource) Mode() Mode   { return ModeTree }

func (s *elementSource) FindMatches(in Input) ([]ProtoMatch, error) {
	s.calls++
	s.saw = append(s.saw, in.Strings)
	var out []ProtoMatch
	for _, el := range dom.FindAll(in.Adaptor, in.Container, s.kind) {
		children := in.Adaptor.Children(el)
		if len(children) == 0 {
			continue
		}
		text := children[0]
		content := in.Adaptor.Text(text)
		out = append(out, ProtoMatch{
			Content:  content,
			StartPos: &Position{Node: text},
			EndPos:   &Position{Node: text, N: len(content)},
		})
	}
	return out, nil
}

func (s *elementSource) Compile(m *Match) (*mml.Node, error) {
	return mml.Token(mml.KindIdent, m.Content), nil
}

func contents(l *MatchList) []string {
	var out []string
	for _, m := range l.Items() {
		out = append(out, m.Content)
	}
	return out
}
