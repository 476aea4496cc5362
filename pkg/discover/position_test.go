package discover

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mathscan/pkg/dom"
)

func TestMapPosition(t *testing.T) {
	doc, body := parseBody(t, `<p>ab<br>cd</p>`)
	cs := Extract(doc, body, DefaultPolicy())
	require.Equal(t, []string{"ab\ncd"}, cs.Strings)
	runs := cs.Runs[0]
	first, last := runs[0].Node, runs[2].Node

	tests := []struct {
		offset int
		node   dom.Ref
		n      int
	}{
		{offset: 0, node: first, n: 0},
		{offset: 1, node: first, n: 1},
		{offset: 2, node: first, n: 2},
		// the <br> run is skipped; its offset lands at the start of the next text
		{offset: 3, node: last, n: 0},
		{offset: 4, node: last, n: 1},
		{offset: 5, node: last, n: 2},
		{offset: 6, node: dom.Nil, n: 0},
	}

	for _, tt := range tests {
		pos := MapPosition(cs, 0, tt.offset, "$")
		assert.Equal(t, tt.node, pos.Node, "offset %d", tt.offset)
		assert.Equal(t, tt.n, pos.N, "offset %d", tt.offset)
		assert.Equal(t, "$", pos.Delim)
	}
}

func TestMapPosition_RoundTrip(t *testing.T) {
	doc, body := parseBody(t, `<p>x<!-- c -->yz<wbr>w</p><div>long text</div>`)
	cs := Extract(doc, body, DefaultPolicy())

	for i, s := range cs.Strings {
		for offset := 0; offset <= len(s); offset++ {
			pos := MapPosition(cs, i, offset, "")
			require.True(t, pos.Resolved(), "string %d offset %d", i, offset)
			got, ok := cs.Offset(i, pos)
			require.True(t, ok)
			assert.Equal(t, offset, got, "string %d offset %d", i, offset)
		}
	}
}

func TestMapPosition_Degenerate(t *testing.T) {
	doc, body := parseBody(t, `<p>one<b>two</b></p>`)
	cs := Extract(doc, body, DefaultPolicy())
	require.Len(t, cs.Strings, 2)

	// the end of a string is the end of its last run
	end := MapPosition(cs, 1, len(cs.Strings[1]), "")
	assert.Equal(t, "two", doc.Text(end.Node))
	assert.Equal(t, 3, end.N)

	past := MapPosition(cs, 1, len(cs.Strings[1])+1, "\\)")
	assert.False(t, past.Resolved())
	assert.Equal(t, "\\)", past.Delim)

	assert.False(t, MapPosition(cs, 5, 0, "").Resolved())
	assert.False(t, MapPosition(nil, 0, 0, "").Resolved())

	_, ok := cs.Offset(0, past)
	assert.False(t, ok)
}

func TestMapPosition_RunBoundary(t *testing.T) {
	doc, body := parseBody(t, `<p>ab<!--c-->cd</p>`)
	cs := Extract(doc, body, DefaultPolicy())
	require.Equal(t, []string{"abcd"}, cs.Strings)

	tests := []struct {
		offset int
		text   string
		n      int
	}{
		{offset: 0, text: "ab", n: 0},
		{offset: 2, text: "ab", n: 2}, // boundary belongs to the earlier run
		{offset: 3, text: "cd", n: 1},
		{offset: 4, text: "cd", n: 2},
	}

	for _, tt := range tests {
		pos := MapPosition(cs, 0, tt.offset, "")
		require.True(t, pos.Resolved(), "offset %d", tt.offset)
		assert.Equal(t, tt.text, doc.Text(pos.Node), "offset %d", tt.offset)
		assert.Equal(t, tt.n, pos.N, "offset %d", tt.offset)
	}

	assert.False(t, MapPosition(cs, 0, len(cs.Strings[0])+1, "").Resolved())
}
