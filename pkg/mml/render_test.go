package mml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mathscan/pkg/dom"
)

func TestRow(t *testing.T) {
	x := Token(KindIdent, "x")
	assert.Same(t, x, Row(x))

	row := Row(x, Token(KindIdent, "y"))
	assert.Equal(t, KindRow, row.Kind)
	assert.True(t, row.Inferred)
	assert.Len(t, row.Children, 2)

	empty := Row()
	assert.Equal(t, KindRow, empty.Kind)
	assert.Empty(t, empty.Children)
}

func TestFenced_SplicesInferredRow(t *testing.T) {
	inner := Row(Token(KindIdent, "a"), Token(KindIdent, "b"))
	f := Fenced("(", inner, ")")

	require.Len(t, f.Children, 4)
	assert.Equal(t, ClassInner, f.Class)
	assert.Equal(t, "(", f.Attr("open"))
	assert.Equal(t, ")", f.Attr("close"))
	assert.Equal(t, "(", f.Children[0].Text)
	assert.Equal(t, ClassOpen, f.Children[0].Class)
	assert.Equal(t, "true", f.Children[0].Attr("stretchy"))
	assert.Equal(t, "a", f.Children[1].Text)
	assert.Equal(t, ")", f.Children[3].Text)
	assert.Equal(t, ClassClose, f.Children[3].Class)
}

func TestSerialize(t *testing.T) {
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{
			name: "single identifier",
			node: Token(KindIdent, "x"),
			want: `<math xmlns="http://www.w3.org/1998/Math/MathML"><mi>x</mi></math>`,
		},
		{
			name: "escapes text",
			node: Token(KindOp, "<"),
			want: `<math xmlns="http://www.w3.org/1998/Math/MathML"><mo>&lt;</mo></math>`,
		},
		{
			name: "display math with atom",
			node: Math(Atom(ClassOrd, Token(KindNumber, "1")), true),
			want: `<math display="block" xmlns="http://www.w3.org/1998/Math/MathML">` +
				`<mrow data-mjx-texclass="ORD"><mn>1</mn></mrow></math>`,
		},
		{
			name: "superscript",
			node: New(KindSup, Token(KindIdent, "x"), Token(KindNumber, "2")),
			want: `<math xmlns="http://www.w3.org/1998/Math/MathML"><msup><mi>x</mi><mn>2</mn></msup></math>`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Serialize(tt.node))
		})
	}
}

func TestText(t *testing.T) {
	plus := Token(KindOp, "+").WithClass(ClassBin)
	tests := []struct {
		name string
		node *Node
		want string
	}{
		{"sum", Row(Token(KindIdent, "a"), plus, Token(KindIdent, "b")), "a + b"},
		{"square", New(KindSup, Token(KindIdent, "x"), Token(KindNumber, "2")), "x^2"},
		{"long script", New(KindSub, Token(KindIdent, "x"), Token(KindNumber, "10")), "x_(10)"},
		{"fraction", New(KindFrac, Token(KindNumber, "1"), Token(KindNumber, "2")), "1/2"},
		{"sqrt", New(KindSqrt, Token(KindIdent, "x")), "√x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.node))
		})
	}
}

func TestRenderers(t *testing.T) {
	doc, err := dom.ParseHTMLString("<html><body><p></p></body></html>")
	require.NoError(t, err)
	p := dom.FindAll(doc, doc.Root(), "p")[0]

	tree := New(KindSup, Token(KindIdent, "x"), Token(KindNumber, "2"))

	mathRef := MathMLRenderer{}.Render(doc, tree, true)
	doc.Append(p, mathRef)
	assert.Equal(t, "math", doc.Kind(mathRef))
	assert.Equal(t, "block", doc.Attribute(mathRef, "display"))
	assert.Equal(t, "mathml", doc.Attribute(mathRef, MarkerAttr))

	textRef := TextRenderer{}.Render(doc, tree, false)
	doc.Append(p, textRef)
	assert.Equal(t, "span", doc.Kind(textRef))
	assert.Equal(t, "x^2", doc.Text(textRef))

	var sb strings.Builder
	require.NoError(t, doc.RenderNode(&sb, p))
	assert.Contains(t, sb.String(), "<msup><mi>x</mi><mn>2</mn></msup>")
}
