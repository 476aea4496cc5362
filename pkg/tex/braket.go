// braket.go implements bar/bracket notation: \braket, \set and friends,
// with bars inside the brackets that may stretch with the contents.
package tex

import (
	"github.com/open-cli-collective/mathscan/pkg/mml"
	"github.com/open-cli-collective/mathscan/pkg/stack"
)

// KindBracketed is the frame kind opened by the bracket macros.
const KindBracketed = "bracketed"

// Unlimited is the barMax of brackets that allow any number of bars.
const Unlimited = -1

// BarAttr marks bars that belong to a bracket construct.
const BarAttr = "data-braket-bar"

// Braket registers bar/bracket notation.
func Braket(g *Grammar) {
	g.Factory.Register(stack.Kind{
		Name:     KindBracketed,
		Open:     true,
		Closes:   []string{KindClose},
		Errors:   closeErrors,
		Check:    checkBracketed,
		Finalize: finalizeBracketed,
	})

	g.Command("braket", bracket, "⟨", "⟩", false, Unlimited)
	g.Command("Braket", bracket, "⟨", "⟩", true, Unlimited)
	g.Command("set", bracket, "{", "}", false, 1)
	g.Command("Set", bracket, "{", "}", true, 1)

	g.Macro("bra", `{\langle {#1} \vert}`, 1)
	g.Macro("ket", `{\vert {#1} \rangle}`, 1)
	g.Macro("ketbra", `{\vert {#1} \rangle\langle {#2} \vert}`, 2)
	g.Macro("Bra", `\left\langle {#1} \right\vert`, 1)
	g.Macro("Ket", `\left\vert {#1} \right\rangle`, 1)
	g.Macro("Ketbra", `\left\vert {#1} \middle\rangle\!\middle\langle {#2} \right\vert`, 2)

	g.Char("|", bar, "|")
	g.Command("|", bar, "‖")
}

// bracket opens a bracketed frame. With a braced argument the frame runs
// to the matching close brace; otherwise it holds the single next item.
func bracket(p *Parser, name string, args ...any) error {
	props := stack.Props{
		"open":     args[0].(string),
		"close":    args[1].(string),
		"stretchy": args[2].(bool),
		"barMax":   args[3].(int),
		"barCount": 0,
	}
	tok, ok := p.PeekNonSpace()
	if !ok || tok.Type == TokenEndGroup {
		return p.Errorf(ErrMissingArgument, "Missing argument for \\%s", name)
	}
	if tok.Type == TokenBeginGroup {
		p.pos++
	} else {
		props["single"] = true
	}
	it, err := p.Create(KindBracketed, props)
	if err != nil {
		return err
	}
	return p.Push(it)
}

func checkBracketed(f *stack.Factory, top, x *stack.Item) (stack.Verdict, []*stack.Item, error) {
	if x.IsFinal() && top.Bool("single") {
		top.Push(x.Nodes...)
		return stack.Replace, []*stack.Item{f.Node(top.Finalize(nil))}, nil
	}
	return stack.Default(f, top, x)
}

// finalizeBracketed builds a stretchy fenced group, or a fixed group of
// open glyph, contents and close glyph.
func finalizeBracketed(it, _ *stack.Item) *mml.Node {
	open, close := it.Str("open"), it.Str("close")
	inner := it.Row()
	if it.Bool("stretchy") {
		return mml.Fenced(open, inner, close)
	}

	fence := func(glyph string, class mml.TexClass) *mml.Node {
		mo := mml.Token(mml.KindOp, glyph).WithClass(class)
		mo.SetAttr("fence", "true")
		mo.SetAttr("stretchy", "false")
		mo.SetAttr("symmetric", "true")
		return mo
	}
	row := mml.New(mml.KindRow, fence(open, mml.ClassOpen), inner, fence(close, mml.ClassClose)).WithClass(mml.ClassInner)
	row.SetAttr("open", open)
	row.SetAttr("close", close)
	return row
}

// bar handles | and \| inside brackets. Outside a bracketed frame, or once
// the frame has all the bars it allows, a bar is an ordinary symbol.
func bar(p *Parser, _ string, args ...any) error {
	glyph := args[0].(string)
	top := p.Top()
	if !top.Is(KindBracketed) || barsFull(top) {
		mo := mml.Token(mml.KindOp, glyph).WithClass(mml.ClassOrd)
		mo.SetAttr("stretchy", "false")
		return p.PushNodes(mo)
	}

	if glyph == "|" {
		if tok, ok := p.Peek(); ok && tok.Is(TokenOther, "|") {
			p.pos++
			glyph = "‖"
		}
	}

	if !top.Bool("stretchy") {
		mo := mml.Token(mml.KindOp, glyph)
		mo.SetAttr("stretchy", "false")
		mo.SetAttr(BarAttr, "true")
		return p.PushNodes(mo)
	}

	if err := p.PushNodes(mml.Atom(mml.ClassClose)); err != nil {
		return err
	}
	top.Set("barCount", top.Int("barCount")+1)
	mo := mml.Token(mml.KindOp, glyph)
	mo.SetAttr("stretchy", "true")
	mo.SetAttr(BarAttr, "true")
	return p.PushNodes(mo, mml.Atom(mml.ClassOpen))
}

func barsFull(it *stack.Item) bool {
	limit := it.Int("barMax")
	return limit != Unlimited && it.Int("barCount") >= limit
}
