// render.go turns expression trees into MathML text, document nodes, or
// plain Unicode text.
package mml

import (
	"sort"
	"strings"

	"github.com/open-cli-collective/mathscan/pkg/dom"
)

// Namespace is the MathML namespace URI.
const Namespace = "http://www.w3.org/1998/Math/MathML"

// MarkerAttr flags typeset output so that discovery does not descend into it.
const MarkerAttr = "data-mscan"

// Serialize renders a tree as a MathML string. A node that is not a math
// node is wrapped in one.
func Serialize(n *Node) string {
	if n == nil {
		return ""
	}
	if n.Kind != KindMath {
		n = Math(n, false)
	}
	var sb strings.Builder
	writeNode(&sb, n)
	return sb.String()
}

func writeNode(sb *strings.Builder, n *Node) {
	tag, attrs := outputTag(n)
	sb.WriteString("<")
	sb.WriteString(tag)

	// Attributes (sorted for consistent output)
	keys := make([]string, 0, len(attrs))
	for k := range attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		sb.WriteString(" ")
		sb.WriteString(k)
		sb.WriteString(`="`)
		sb.WriteString(escapeXML(attrs[k]))
		sb.WriteString(`"`)
	}
	sb.WriteString(">")

	if n.IsToken() {
		sb.WriteString(escapeXML(n.Text))
	} else {
		for _, c := range n.Children {
			writeNode(sb, c)
		}
	}

	sb.WriteString("</")
	sb.WriteString(tag)
	sb.WriteString(">")
}

// outputTag maps internal node kinds onto MathML element names and attributes.
func outputTag(n *Node) (string, map[string]string) {
	attrs := make(map[string]string, len(n.Attrs)+2)
	for k, v := range n.Attrs {
		attrs[k] = v
	}
	tag := n.Kind
	switch n.Kind {
	case KindMath:
		attrs["xmlns"] = Namespace
	case KindTeXAtom:
		tag = KindRow
		attrs["data-mjx-texclass"] = n.Class.String()
	default:
		if n.Kind == KindRow && n.Class != ClassNone {
			attrs["data-mjx-texclass"] = n.Class.String()
		}
	}
	return tag, attrs
}

// escapeXML escapes special XML characters in a string.
func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, "\"", "&quot;")
	return s
}

// Renderer turns a compiled tree into a detached document subtree.
type Renderer interface {
	Render(a dom.Adaptor, n *Node, display bool) dom.Ref
}

// MathMLRenderer builds <math> element subtrees.
type MathMLRenderer struct{}

func (MathMLRenderer) Render(a dom.Adaptor, n *Node, display bool) dom.Ref {
	root := n
	if root == nil || root.Kind != KindMath {
		root = Math(n, display)
	}
	return buildNode(a, root)
}

func buildNode(a dom.Adaptor, n *Node) dom.Ref {
	tag, attrs := outputTag(n)
	if n.Kind == KindMath {
		attrs[MarkerAttr] = "mathml"
	}
	if n.IsToken() {
		return a.CreateNode(tag, attrs, a.CreateText(n.Text))
	}
	children := make([]dom.Ref, 0, len(n.Children))
	for _, c := range n.Children {
		children = append(children, buildNode(a, c))
	}
	return a.CreateNode(tag, attrs, children...)
}

// TextRenderer renders math as linear Unicode text inside a span.
type TextRenderer struct{}

func (TextRenderer) Render(a dom.Adaptor, n *Node, display bool) dom.Ref {
	attrs := map[string]string{
		"class":    "mscan-math",
		MarkerAttr: "text",
	}
	kind := "span"
	if display {
		kind = "div"
	}
	return a.CreateNode(kind, attrs, a.CreateText(Text(n)))
}

// Text linearizes a tree into Unicode text.
func Text(n *Node) string {
	var sb strings.Builder
	writeText(&sb, n)
	return strings.TrimSpace(sb.String())
}

func writeText(sb *strings.Builder, n *Node) {
	if n == nil {
		return
	}
	switch n.Kind {
	case KindIdent:
		sb.WriteString(n.Text)
		if n.Class == ClassOp {
			sb.WriteString(" ")
		}
	case KindNumber, KindText:
		sb.WriteString(n.Text)
	case KindOp:
		switch n.Class {
		case ClassBin, ClassRel:
			sb.WriteString(" " + n.Text + " ")
		case ClassPunct:
			sb.WriteString(n.Text + " ")
		default:
			sb.WriteString(n.Text)
		}
	case KindSpace:
		sb.WriteString(" ")
	case KindSub:
		writeScript(sb, n, "_", 0, 1)
	case KindSup:
		writeScript(sb, n, "^", 0, 1)
	case KindSubSup:
		writeScript(sb, n, "_", 0, 1)
		if len(n.Children) > 2 {
			sb.WriteString("^")
			writeGrouped(sb, n.Children[2])
		}
	case KindFrac:
		if len(n.Children) == 2 {
			writeGrouped(sb, n.Children[0])
			sb.WriteString("/")
			writeGrouped(sb, n.Children[1])
		}
	case KindSqrt:
		sb.WriteString("√")
		writeGrouped(sb, Row(n.Children...))
	case KindRoot:
		if len(n.Children) == 2 {
			writeGrouped(sb, n.Children[1])
			sb.WriteString("√")
			writeGrouped(sb, n.Children[0])
		}
	case KindTable:
		for i, row := range n.Children {
			if i > 0 {
				sb.WriteString("; ")
			}
			for j, cell := range row.Children {
				if j > 0 {
					sb.WriteString(", ")
				}
				sb.WriteString(strings.TrimSpace(Text(cell)))
			}
		}
	default:
		for _, c := range n.Children {
			writeText(sb, c)
		}
	}
}

func writeScript(sb *strings.Builder, n *Node, mark string, base, script int) {
	if len(n.Children) <= script {
		return
	}
	writeText(sb, n.Children[base])
	sb.WriteString(mark)
	writeGrouped(sb, n.Children[script])
}

// writeGrouped writes n, parenthesized when its text is longer than one rune.
func writeGrouped(sb *strings.Builder, n *Node) {
	var inner strings.Builder
	writeText(&inner, n)
	s := strings.TrimSpace(inner.String())
	if len([]rune(s)) <= 1 {
		sb.WriteString(s)
		return
	}
	sb.WriteString("(")
	sb.WriteString(s)
	sb.WriteString(")")
}
