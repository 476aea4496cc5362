package dom

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseBody(t *testing.T, body string) (*HTMLDocument, Ref) {
	t.Helper()
	doc, err := ParseHTMLString("<html><body>" + body + "</body></html>")
	require.NoError(t, err)
	return doc, doc.Body()
}

func TestHTMLDocument_Kinds(t *testing.T) {
	doc, body := parseBody(t, `<p class="a">Hi <!-- c --><b>there</b></p>`)

	assert.Equal(t, "body", doc.Kind(body))
	children := doc.Children(body)
	require.Len(t, children, 1)
	p := children[0]
	assert.Equal(t, "p", doc.Kind(p))
	assert.Equal(t, "a", doc.Attribute(p, "class"))
	assert.Equal(t, "", doc.Attribute(p, "id"))

	kinds := []string{}
	for _, c := range doc.Children(p) {
		kinds = append(kinds, doc.Kind(c))
	}
	assert.Equal(t, []string{KindText, KindComment, "b"}, kinds)
	assert.Equal(t, "Hi there", doc.Text(p))
}

func TestHTMLDocument_RefsAreStable(t *testing.T) {
	doc, body := parseBody(t, `<p>x</p>`)
	first := doc.Children(body)
	second := doc.Children(body)
	assert.Equal(t, first, second)
	assert.True(t, doc.Valid(first[0]))
	assert.False(t, doc.Valid(Nil))
	assert.False(t, doc.Valid(Ref(10000)))
}

func TestHTMLDocument_CreateAndReplace(t *testing.T) {
	doc, body := parseBody(t, `<p>before</p>`)
	p := doc.Children(body)[0]
	text := doc.Children(p)[0]

	span := doc.CreateNode("span", map[string]string{"class": "m", "data-x": "1"}, doc.CreateText("new"))
	doc.Replace(text, span)

	var sb strings.Builder
	require.NoError(t, doc.RenderNode(&sb, p))
	assert.Equal(t, `<p><span class="m" data-x="1">new</span></p>`, sb.String())
	assert.Equal(t, p, doc.Parent(span))
	assert.Equal(t, Nil, doc.Parent(text))
}

func TestHTMLDocument_SplitHelpers(t *testing.T) {
	doc, body := parseBody(t, `<p>abcdef</p>`)
	p := doc.Children(body)[0]
	text := doc.Children(p)[0]

	doc.SetText(text, "abc")
	tail := doc.CreateText("def")
	doc.InsertAfter(text, tail)
	assert.Equal(t, tail, doc.Next(text))
	assert.Equal(t, "abcdef", doc.Text(p))

	doc.Remove(tail)
	assert.Equal(t, "abc", doc.Text(p))
	assert.Equal(t, Nil, doc.Next(text))

	doc.Append(p, tail)
	assert.Equal(t, "abcdef", doc.Text(p))
}

func TestOrderAndFindAll(t *testing.T) {
	doc, body := parseBody(t, `<div><p>a</p><p>b</p></div><p>c</p>`)
	ps := FindAll(doc, body, "p")
	require.Len(t, ps, 3)

	order := Order(doc, body)
	assert.Equal(t, 0, order[body])
	assert.Less(t, order[ps[0]], order[ps[1]])
	assert.Less(t, order[ps[1]], order[ps[2]])
	assert.Less(t, order[ps[0]], order[doc.Children(ps[0])[0]])
}
