package dom

import (
	"bytes"
	"io"
	"sort"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HTMLDocument adapts a parsed golang.org/x/net/html tree to the Adaptor
// capability set. Refs are indexes into a node table that grows as nodes
// are first seen or created.
type HTMLDocument struct {
	root  *html.Node
	nodes []*html.Node
	refs  map[*html.Node]Ref
}

var _ Adaptor = (*HTMLDocument)(nil)

// ParseHTML parses a full HTML document.
func ParseHTML(r io.Reader) (*HTMLDocument, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, err
	}
	return NewHTMLDocument(root), nil
}

// ParseHTMLString parses a full HTML document from a string.
func ParseHTMLString(s string) (*HTMLDocument, error) {
	return ParseHTML(strings.NewReader(s))
}

// NewHTMLDocument wraps an already parsed tree.
func NewHTMLDocument(root *html.Node) *HTMLDocument {
	d := &HTMLDocument{
		root:  root,
		nodes: []*html.Node{nil}, // index 0 is Nil
		refs:  make(map[*html.Node]Ref),
	}
	return d
}

// Root returns the document node.
func (d *HTMLDocument) Root() Ref {
	return d.ref(d.root)
}

// Body returns the <body> element, or the document node if there is none.
func (d *HTMLDocument) Body() Ref {
	if found := FindAll(d, d.Root(), "body"); len(found) > 0 {
		return found[0]
	}
	return d.Root()
}

// Render writes the document back out as HTML.
func (d *HTMLDocument) Render(w io.Writer) error {
	return html.Render(w, d.root)
}

// RenderNode writes a single node and its subtree as HTML.
func (d *HTMLDocument) RenderNode(w io.Writer, n Ref) error {
	node := d.node(n)
	if node == nil {
		return nil
	}
	return html.Render(w, node)
}

// String renders the document to a string.
func (d *HTMLDocument) String() string {
	var buf bytes.Buffer
	_ = d.Render(&buf)
	return buf.String()
}

func (d *HTMLDocument) ref(n *html.Node) Ref {
	if n == nil {
		return Nil
	}
	if r, ok := d.refs[n]; ok {
		return r
	}
	r := Ref(len(d.nodes))
	d.nodes = append(d.nodes, n)
	d.refs[n] = r
	return r
}

func (d *HTMLDocument) node(r Ref) *html.Node {
	if r <= Nil || int(r) >= len(d.nodes) {
		return nil
	}
	return d.nodes[r]
}

// Valid reports whether r refers to a node known to this document.
func (d *HTMLDocument) Valid(r Ref) bool {
	return d.node(r) != nil
}

func (d *HTMLDocument) Children(r Ref) []Ref {
	n := d.node(r)
	if n == nil {
		return nil
	}
	var out []Ref
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		out = append(out, d.ref(c))
	}
	return out
}

func (d *HTMLDocument) Text(r Ref) string {
	n := d.node(r)
	if n == nil {
		return ""
	}
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				sb.WriteString(c.Data)
			}
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

func (d *HTMLDocument) Kind(r Ref) string {
	n := d.node(r)
	if n == nil {
		return ""
	}
	switch n.Type {
	case html.TextNode:
		return KindText
	case html.CommentNode:
		return KindComment
	case html.DocumentNode:
		return KindDocument
	case html.DoctypeNode:
		return KindDoctype
	default:
		return n.Data
	}
}

func (d *HTMLDocument) Attribute(r Ref, name string) string {
	n := d.node(r)
	if n == nil {
		return ""
	}
	for _, a := range n.Attr {
		if a.Namespace == "" && strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func (d *HTMLDocument) CreateNode(kind string, attrs map[string]string, children ...Ref) Ref {
	n := &html.Node{
		Type:     html.ElementNode,
		Data:     kind,
		DataAtom: atom.Lookup([]byte(kind)),
	}
	// Sorted for stable output
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n.Attr = append(n.Attr, html.Attribute{Key: k, Val: attrs[k]})
	}
	r := d.ref(n)
	for _, c := range children {
		d.Append(r, c)
	}
	return r
}

func (d *HTMLDocument) CreateText(text string) Ref {
	return d.ref(&html.Node{Type: html.TextNode, Data: text})
}

func (d *HTMLDocument) Replace(old, repl Ref) {
	o, n := d.node(old), d.node(repl)
	if o == nil || n == nil || o.Parent == nil || o == n {
		return
	}
	detach(n)
	o.Parent.InsertBefore(n, o)
	o.Parent.RemoveChild(o)
}

func (d *HTMLDocument) Append(parent, child Ref) {
	p, c := d.node(parent), d.node(child)
	if p == nil || c == nil {
		return
	}
	detach(c)
	p.AppendChild(c)
}

func (d *HTMLDocument) Parent(r Ref) Ref {
	n := d.node(r)
	if n == nil {
		return Nil
	}
	return d.ref(n.Parent)
}

func (d *HTMLDocument) Next(r Ref) Ref {
	n := d.node(r)
	if n == nil {
		return Nil
	}
	return d.ref(n.NextSibling)
}

func (d *HTMLDocument) SetText(r Ref, text string) {
	if n := d.node(r); n != nil && n.Type == html.TextNode {
		n.Data = text
	}
}

func (d *HTMLDocument) InsertAfter(ref, r Ref) {
	at, n := d.node(ref), d.node(r)
	if at == nil || n == nil || at.Parent == nil {
		return
	}
	detach(n)
	at.Parent.InsertBefore(n, at.NextSibling)
}

func (d *HTMLDocument) Remove(r Ref) {
	if n := d.node(r); n != nil {
		detach(n)
	}
}

// detach unlinks n from its parent so it can be inserted elsewhere;
// html.Node.InsertBefore and AppendChild panic on attached nodes.
func detach(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}
