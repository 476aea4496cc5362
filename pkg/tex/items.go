// items.go registers the stack item kinds of the base grammar.
package tex

import (
	"fmt"

	"github.com/open-cli-collective/mathscan/pkg/mml"
	"github.com/open-cli-collective/mathscan/pkg/stack"
)

// Item kinds of the base grammar.
const (
	KindOpen   = "open"   // {
	KindClose  = "close"  // }
	KindLeft   = "left"   // \left
	KindRight  = "right"  // \right
	KindSubsup = "subsup" // ^ and _ waiting for their script
	KindBegin  = "begin"  // \begin{env}
	KindEnd    = "end"    // \end{env}
)

// closeErrors are the messages for closing items a frame does not accept.
var closeErrors = map[string]string{
	KindClose: "Extra close brace or missing open brace",
	KindRight: "Missing \\left or extra \\right",
	KindEnd:   "Missing \\begin or extra \\end",
}

func registerItems(f *stack.Factory) {
	f.Register(stack.Kind{Name: stack.KindStart, Open: true, Errors: closeErrors})

	f.Register(stack.Kind{
		Name:   KindOpen,
		Open:   true,
		Closes: []string{KindClose},
		Errors: closeErrors,
		Finalize: func(it, _ *stack.Item) *mml.Node {
			return mml.Atom(mml.ClassOrd, it.Row())
		},
	})
	f.Register(stack.Kind{Name: KindClose, Close: true})

	f.Register(stack.Kind{
		Name:   KindLeft,
		Open:   true,
		Closes: []string{KindRight},
		Errors: map[string]string{
			KindClose: "Extra close brace or missing open brace",
			KindEnd:   "Missing \\begin or extra \\end",
		},
		Finalize: func(it, closer *stack.Item) *mml.Node {
			right := ""
			if closer != nil {
				right = closer.Str("delim")
			}
			return mml.Fenced(it.Str("delim"), it.Row(), right)
		},
	})
	f.Register(stack.Kind{Name: KindRight, Close: true})

	f.Register(stack.Kind{
		Name:     KindSubsup,
		Open:     true,
		Check:    checkSubsup,
		Finalize: finalizeSubsup,
	})

	f.Register(stack.Kind{
		Name:     KindBegin,
		Open:     true,
		Closes:   []string{KindEnd},
		Errors:   closeErrors,
		Check:    checkBegin,
		Finalize: finalizeBegin,
	})
	f.Register(stack.Kind{Name: KindEnd, Close: true})
}

// checkSubsup waits for the script: the first finished subtree completes
// the frame, and open frames (braces, \left, bracket notation) may nest.
func checkSubsup(f *stack.Factory, top, x *stack.Item) (stack.Verdict, []*stack.Item, error) {
	if x.IsFinal() {
		top.Set(top.Str("position"), mml.Row(x.Nodes...))
		return stack.Replace, []*stack.Item{f.Node(top.Finalize(x))}, nil
	}
	if x.IsOpen() {
		return stack.Accept, nil, nil
	}
	return stack.Absorb, nil, &stack.UnexpectedCloseError{
		Kind:    top.Kind(),
		Token:   x.Kind(),
		Message: "Missing superscript or subscript argument",
	}
}

func finalizeSubsup(it, _ *stack.Item) *mml.Node {
	base, sub, sup := it.Node("base"), it.Node("sub"), it.Node("sup")
	switch {
	case sub != nil && sup != nil:
		return mml.New(mml.KindSubSup, base, sub, sup)
	case sub != nil:
		return mml.New(mml.KindSub, base, sub)
	default:
		return mml.New(mml.KindSup, base, sup)
	}
}

func checkBegin(f *stack.Factory, top, x *stack.Item) (stack.Verdict, []*stack.Item, error) {
	if x.Is(KindEnd) && x.Str("name") != top.Str("name") {
		return stack.Absorb, nil, &stack.UnexpectedCloseError{
			Kind:    top.Kind(),
			Token:   x.Kind(),
			Message: fmt.Sprintf("\\begin{%s} ended with \\end{%s}", top.Str("name"), x.Str("name")),
		}
	}
	return stack.Default(f, top, x)
}

// endCell moves the collected nodes of an environment into a new cell.
func endCell(it *stack.Item) {
	cells, _ := it.Get("cells").([]*mml.Node)
	cells = append(cells, mml.New(mml.KindTd, it.Nodes...))
	it.Nodes = nil
	it.Set("cells", cells)
}

// endRow moves the collected cells of an environment into a new row.
func endRow(it *stack.Item) {
	cells, _ := it.Get("cells").([]*mml.Node)
	rows, _ := it.Get("rows").([]*mml.Node)
	rows = append(rows, mml.New(mml.KindTr, cells...))
	it.Set("cells", []*mml.Node(nil))
	it.Set("rows", rows)
}

func finalizeBegin(it, _ *stack.Item) *mml.Node {
	env := environments[it.Str("name")]
	if !env.table {
		return it.Row()
	}

	cells, _ := it.Get("cells").([]*mml.Node)
	if len(it.Nodes) > 0 || len(cells) > 0 {
		endCell(it)
		endRow(it)
	}
	rows, _ := it.Get("rows").([]*mml.Node)
	table := mml.New(mml.KindTable, rows...)
	if align := it.Str("columnalign"); align != "" {
		table.SetAttr("columnalign", align)
	} else if env.align != "" {
		table.SetAttr("columnalign", env.align)
	}
	if env.open == "" && env.close == "" {
		return table
	}
	return mml.Fenced(env.open, table, env.close)
}
