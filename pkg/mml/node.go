// Package mml defines the internal expression tree produced by the TeX
// parser and the renderers that turn it into MathML or plain text.
package mml

// TexClass is the TeX spacing class of a node.
type TexClass int

const (
	ClassNone TexClass = iota
	ClassOrd
	ClassOp
	ClassBin
	ClassRel
	ClassOpen
	ClassClose
	ClassPunct
	ClassInner
)

var classNames = map[TexClass]string{
	ClassOrd:   "ORD",
	ClassOp:    "OP",
	ClassBin:   "BIN",
	ClassRel:   "REL",
	ClassOpen:  "OPEN",
	ClassClose: "CLOSE",
	ClassPunct: "PUNCT",
	ClassInner: "INNER",
}

func (c TexClass) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return "NONE"
}

// Node kinds used by the parser.
const (
	KindMath    = "math"
	KindRow     = "mrow"
	KindIdent   = "mi"
	KindNumber  = "mn"
	KindOp      = "mo"
	KindText    = "mtext"
	KindSpace   = "mspace"
	KindStyle   = "mstyle"
	KindSub     = "msub"
	KindSup     = "msup"
	KindSubSup  = "msubsup"
	KindFrac    = "mfrac"
	KindSqrt    = "msqrt"
	KindRoot    = "mroot"
	KindTeXAtom = "TeXAtom"
	KindTable   = "mtable"
	KindTr      = "mtr"
	KindTd      = "mtd"
)

var tokenKinds = map[string]bool{
	KindIdent:  true,
	KindNumber: true,
	KindOp:     true,
	KindText:   true,
}

// Node is one node of the expression tree.
type Node struct {
	Kind     string
	Attrs    map[string]string
	Text     string // token content (mi, mn, mo, mtext)
	Children []*Node
	Class    TexClass

	// Inferred marks a row created only to group siblings; it is spliced
	// into its parent where the layout allows.
	Inferred bool
}

// New creates a layout node with the given children.
func New(kind string, children ...*Node) *Node {
	return &Node{Kind: kind, Children: children}
}

// Token creates a token node with text content.
func Token(kind, text string) *Node {
	return &Node{Kind: kind, Text: text}
}

// Atom creates a TeXAtom of the given class around children.
// A single inferred row is spliced in.
func Atom(class TexClass, children ...*Node) *Node {
	if len(children) == 1 && children[0].Kind == KindRow && children[0].Inferred {
		children = children[0].Children
	}
	return &Node{Kind: KindTeXAtom, Class: class, Children: children}
}

// IsToken reports whether n holds text rather than children.
func (n *Node) IsToken() bool {
	return tokenKinds[n.Kind]
}

// SetAttr sets an attribute and returns n for chaining.
func (n *Node) SetAttr(key, value string) *Node {
	if n.Attrs == nil {
		n.Attrs = make(map[string]string)
	}
	n.Attrs[key] = value
	return n
}

// Attr returns the named attribute or "".
func (n *Node) Attr(key string) string {
	return n.Attrs[key]
}

// WithClass sets the TeX class and returns n.
func (n *Node) WithClass(c TexClass) *Node {
	n.Class = c
	return n
}

// Append adds children at the end.
func (n *Node) Append(children ...*Node) {
	n.Children = append(n.Children, children...)
}

// Row groups nodes. A single node is returned as is; several nodes are
// wrapped in an inferred mrow.
func Row(nodes ...*Node) *Node {
	if len(nodes) == 1 {
		return nodes[0]
	}
	return &Node{Kind: KindRow, Children: nodes, Inferred: true}
}

// Fenced builds a stretchy fenced group: an INNER mrow holding the open
// delimiter, the inner content and the close delimiter.
func Fenced(open string, inner *Node, close string) *Node {
	row := New(KindRow).WithClass(ClassInner)
	row.SetAttr("open", open)
	row.SetAttr("close", close)

	openNode := Token(KindOp, open).WithClass(ClassOpen)
	openNode.SetAttr("fence", "true")
	openNode.SetAttr("stretchy", "true")
	openNode.SetAttr("symmetric", "true")
	row.Append(openNode)

	if inner != nil {
		if inner.Kind == KindRow && inner.Inferred {
			row.Append(inner.Children...)
		} else {
			row.Append(inner)
		}
	}

	closeNode := Token(KindOp, close).WithClass(ClassClose)
	closeNode.SetAttr("fence", "true")
	closeNode.SetAttr("stretchy", "true")
	closeNode.SetAttr("symmetric", "true")
	row.Append(closeNode)
	return row
}

// Math wraps content in the top-level math node.
func Math(content *Node, display bool) *Node {
	m := New(KindMath)
	if content != nil {
		if content.Kind == KindRow && content.Inferred {
			m.Append(content.Children...)
		} else {
			m.Append(content)
		}
	}
	if display {
		m.SetAttr("display", "block")
	}
	return m
}

// Walk calls fn for n and every descendant in pre-order.
func Walk(n *Node, fn func(*Node)) {
	if n == nil {
		return
	}
	fn(n)
	for _, c := range n.Children {
		Walk(c, fn)
	}
}
