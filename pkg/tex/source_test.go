package tex

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mathscan/pkg/discover"
	"github.com/open-cli-collective/mathscan/pkg/dom"
	"github.com/open-cli-collective/mathscan/pkg/mml"
)

func TestSource_Session(t *testing.T) {
	doc, err := dom.ParseHTMLString(`<html><body><p>Let \(x^2\) and \$5</p></body></html>`)
	require.NoError(t, err)
	p := dom.FindAll(doc, doc.Body(), "p")[0]

	s := discover.NewSession(doc, []dom.Ref{doc.Body()}, []discover.Source{NewDefaultSource()}, discover.DefaultOptions())
	list, err := s.Discover()
	require.NoError(t, err)
	require.Equal(t, 2, list.Len())

	require.NoError(t, s.Compile())
	require.NoError(t, s.Typeset(mml.MathMLRenderer{}))
	require.NoError(t, s.Render())
	assert.Empty(t, s.Failures())

	render := func() string {
		var buf bytes.Buffer
		require.NoError(t, doc.RenderNode(&buf, p))
		return buf.String()
	}
	assert.Equal(t,
		`<p>Let <math data-mscan="mathml" xmlns="http://www.w3.org/1998/Math/MathML">`+
			`<msup><mi>x</mi><mn>2</mn></msup></math> and $5</p>`,
		render())

	s.Remove(true)
	assert.Equal(t, `<p>Let \(x^2\) and \$5</p>`, render())
}

func TestSource_CompileFailureIsReported(t *testing.T) {
	doc, err := dom.ParseHTMLString(`<html><body><p>\(\frac{a}\) and \(y\)</p></body></html>`)
	require.NoError(t, err)

	s := discover.NewSession(doc, []dom.Ref{doc.Body()}, []discover.Source{NewDefaultSource()}, discover.DefaultOptions())
	_, err = s.Discover()
	require.NoError(t, err)
	require.NoError(t, s.Compile())

	require.Len(t, s.Failures(), 1)
	assert.ErrorIs(t, s.Failures()[0].Err, ErrMissingArgument)
	assert.Equal(t, 1, s.Matches().Len())
	assert.NotEmpty(t, s.Warnings())
}

func TestSource_Compile(t *testing.T) {
	src := NewDefaultSource()
	assert.Equal(t, SourceName, src.Name())
	assert.Equal(t, discover.ModeStrings, src.Mode())

	node, err := src.Compile(&discover.Match{Content: "a", Display: true})
	require.NoError(t, err)
	assert.Equal(t, mml.KindMath, node.Kind)
	assert.Equal(t, "block", node.Attr("display"))

	node, err = src.Compile(&discover.Match{Content: "$", Escape: true})
	require.NoError(t, err)
	assert.Nil(t, node)
}
