// base.go defines the base TeX grammar: characters, symbols, fractions,
// roots, fonts, spacing, \left...\right and environments.
package tex

import (
	"fmt"
	"strings"

	"github.com/open-cli-collective/mathscan/pkg/mml"
	"github.com/open-cli-collective/mathscan/pkg/stack"
)

// Base registers the base grammar.
func Base(g *Grammar) {
	registerItems(g.Factory)

	g.Fallback(TokenLetter, variable)
	g.Fallback(TokenDigit, number)
	g.Fallback(TokenOther, operator)

	g.Char("^", script, "sup")
	g.Char("_", script, "sub")
	g.Char("'", prime)
	g.Char("&", separator)
	g.Char("~", space, "\u00a0")
	g.Command(`\`, separator)

	for name, glyph := range identifiers {
		g.Command(name, identifier, glyph)
	}
	for name, sym := range symbols {
		g.Command(name, symbol, sym.glyph, sym.class)
	}
	for _, name := range namedFunctions {
		g.Command(name, namedFunction)
	}
	for name, width := range spaces {
		g.Command(name, space, width)
	}
	for name, variant := range fonts {
		g.Command(name, font, variant)
	}
	for source, glyph := range delimiters {
		g.Delimiter(source, glyph)
	}

	g.Command("frac", frac, "")
	g.Command("dfrac", frac, "true")
	g.Command("tfrac", frac, "false")
	g.Command("binom", binom)
	g.Command("sqrt", sqrt)
	g.Command("text", text, "")
	g.Command("mbox", text, "")
	g.Command("textrm", text, "")
	g.Command("textbf", text, "bold")
	g.Command("textit", text, "italic")
	g.Command("operatorname", operatorName)
	g.Command("left", left)
	g.Command("right", right)
	g.Command("middle", middle)
	g.Command("begin", begin)
	g.Command("end", end)
	g.Command("ref", ref, "%s")
	g.Command("eqref", ref, "(%s)")
	g.Command("displaystyle", ignore)
	g.Command("textstyle", ignore)
}

type symbolDef struct {
	glyph string
	class mml.TexClass
}

// identifiers are commands that produce a single mi.
var identifiers = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ϵ",
	"varepsilon": "ε", "zeta": "ζ", "eta": "η", "theta": "θ", "vartheta": "ϑ",
	"iota": "ι", "kappa": "κ", "lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ",
	"pi": "π", "varpi": "ϖ", "rho": "ρ", "varrho": "ϱ", "sigma": "σ",
	"varsigma": "ς", "tau": "τ", "upsilon": "υ", "phi": "ϕ", "varphi": "φ",
	"chi": "χ", "psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Upsilon": "Υ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
	"infty": "∞", "partial": "∂", "nabla": "∇", "hbar": "ℏ", "ell": "ℓ",
	"emptyset": "∅", "aleph": "ℵ", "prime": "′",
}

// symbols are commands that produce a single mo of a fixed class.
var symbols = map[string]symbolDef{
	// binary operators
	"pm": {"±", mml.ClassBin}, "mp": {"∓", mml.ClassBin}, "times": {"×", mml.ClassBin},
	"div": {"÷", mml.ClassBin}, "cdot": {"⋅", mml.ClassBin}, "ast": {"∗", mml.ClassBin},
	"circ": {"∘", mml.ClassBin}, "bullet": {"∙", mml.ClassBin}, "cup": {"∪", mml.ClassBin},
	"cap": {"∩", mml.ClassBin}, "wedge": {"∧", mml.ClassBin}, "land": {"∧", mml.ClassBin},
	"vee": {"∨", mml.ClassBin}, "lor": {"∨", mml.ClassBin}, "oplus": {"⊕", mml.ClassBin},
	"otimes": {"⊗", mml.ClassBin}, "setminus": {"∖", mml.ClassBin},

	// relations
	"le": {"≤", mml.ClassRel}, "leq": {"≤", mml.ClassRel}, "ge": {"≥", mml.ClassRel},
	"geq": {"≥", mml.ClassRel}, "ne": {"≠", mml.ClassRel}, "neq": {"≠", mml.ClassRel},
	"equiv": {"≡", mml.ClassRel}, "approx": {"≈", mml.ClassRel}, "sim": {"∼", mml.ClassRel},
	"simeq": {"≃", mml.ClassRel}, "cong": {"≅", mml.ClassRel}, "propto": {"∝", mml.ClassRel},
	"in": {"∈", mml.ClassRel}, "notin": {"∉", mml.ClassRel}, "ni": {"∋", mml.ClassRel},
	"subset": {"⊂", mml.ClassRel}, "supset": {"⊃", mml.ClassRel},
	"subseteq": {"⊆", mml.ClassRel}, "supseteq": {"⊇", mml.ClassRel},
	"to": {"→", mml.ClassRel}, "rightarrow": {"→", mml.ClassRel},
	"leftarrow": {"←", mml.ClassRel}, "gets": {"←", mml.ClassRel},
	"Rightarrow": {"⇒", mml.ClassRel}, "Leftarrow": {"⇐", mml.ClassRel},
	"leftrightarrow": {"↔", mml.ClassRel}, "Leftrightarrow": {"⇔", mml.ClassRel},
	"mapsto": {"↦", mml.ClassRel}, "iff": {"⟺", mml.ClassRel}, "implies": {"⟹", mml.ClassRel},
	"mid": {"∣", mml.ClassRel}, "perp": {"⊥", mml.ClassRel}, "ll": {"≪", mml.ClassRel},
	"gg": {"≫", mml.ClassRel},

	// large operators
	"sum": {"∑", mml.ClassOp}, "prod": {"∏", mml.ClassOp}, "coprod": {"∐", mml.ClassOp},
	"int": {"∫", mml.ClassOp}, "iint": {"∬", mml.ClassOp}, "oint": {"∮", mml.ClassOp},
	"bigcup": {"⋃", mml.ClassOp}, "bigcap": {"⋂", mml.ClassOp},

	// ordinary symbols
	"forall": {"∀", mml.ClassOrd}, "exists": {"∃", mml.ClassOrd}, "neg": {"¬", mml.ClassOrd},
	"lnot": {"¬", mml.ClassOrd}, "ldots": {"…", mml.ClassInner}, "cdots": {"⋯", mml.ClassInner},
	"dots": {"…", mml.ClassInner}, "vdots": {"⋮", mml.ClassOrd}, "ddots": {"⋱", mml.ClassInner},
	"angle": {"∠", mml.ClassOrd}, "triangle": {"△", mml.ClassOrd}, "backslash": {"\\", mml.ClassOrd},
	"vert": {"|", mml.ClassOrd}, "|": {"‖", mml.ClassOrd}, "Vert": {"‖", mml.ClassOrd},

	// fences outside \left...\right
	"{": {"{", mml.ClassOpen}, "}": {"}", mml.ClassClose},
	"lbrace": {"{", mml.ClassOpen}, "rbrace": {"}", mml.ClassClose},
	"langle": {"⟨", mml.ClassOpen}, "rangle": {"⟩", mml.ClassClose},
	"lvert": {"|", mml.ClassOpen}, "rvert": {"|", mml.ClassClose},
	"lVert": {"‖", mml.ClassOpen}, "rVert": {"‖", mml.ClassClose},
	"lfloor": {"⌊", mml.ClassOpen}, "rfloor": {"⌋", mml.ClassClose},
	"lceil": {"⌈", mml.ClassOpen}, "rceil": {"⌉", mml.ClassClose},

	// punctuation
	"colon": {":", mml.ClassPunct},
}

// namedFunctions render upright with operator spacing.
var namedFunctions = []string{
	"sin", "cos", "tan", "cot", "sec", "csc", "sinh", "cosh", "tanh",
	"arcsin", "arccos", "arctan", "log", "ln", "lg", "exp",
	"lim", "max", "min", "sup", "inf", "det", "gcd", "arg", "deg", "dim", "ker", "Pr",
}

var spaces = map[string]string{
	",":       "0.167em",
	":":       "0.222em",
	">":       "0.222em",
	";":       "0.278em",
	"!":       "-0.167em",
	" ":       "0.25em",
	"quad":    "1em",
	"qquad":   "2em",
	"enspace": "0.5em",
}

var fonts = map[string]string{
	"mathrm":     "normal",
	"mathbf":     "bold",
	"mathit":     "italic",
	"mathbb":     "double-struck",
	"mathcal":    "script",
	"mathscr":    "script",
	"mathfrak":   "fraktur",
	"mathsf":     "sans-serif",
	"mathtt":     "monospace",
	"boldsymbol": "bold-italic",
}

// delimiters are the tokens allowed after \left, \middle and \right,
// keyed as written in source.
var delimiters = map[string]string{
	"(": "(", ")": ")", "[": "[", "]": "]", "|": "|", "/": "/",
	"<": "⟨", ">": "⟩", ".": "",
	`\{`: "{", `\}`: "}", `\lbrace`: "{", `\rbrace`: "}",
	`\langle`: "⟨", `\rangle`: "⟩",
	`\vert`: "|", `\lvert`: "|", `\rvert`: "|",
	`\|`: "‖", `\Vert`: "‖", `\lVert`: "‖", `\rVert`: "‖",
	`\lfloor`: "⌊", `\rfloor`: "⌋", `\lceil`: "⌈", `\rceil`: "⌉",
	`\backslash`: "\\", `\uparrow`: "↑", `\downarrow`: "↓",
}

// operatorClasses gives the class of single-character operators.
var operatorClasses = map[string]mml.TexClass{
	"+": mml.ClassBin, "-": mml.ClassBin, "*": mml.ClassBin,
	"=": mml.ClassRel, "<": mml.ClassRel, ">": mml.ClassRel, ":": mml.ClassRel,
	",": mml.ClassPunct, ";": mml.ClassPunct,
	"(": mml.ClassOpen, "[": mml.ClassOpen,
	")": mml.ClassClose, "]": mml.ClassClose, "!": mml.ClassClose, "?": mml.ClassClose,
	"|": mml.ClassOrd, "/": mml.ClassOrd, ".": mml.ClassOrd,
}

// operatorGlyphs replaces ASCII operators with their typeset form.
var operatorGlyphs = map[string]string{
	"-": "−",
	"*": "∗",
}

type environment struct {
	table       bool
	open, close string
	align       string // default column alignment
	colspec     bool   // takes a column specification argument
}

var environments = map[string]environment{
	"matrix":      {table: true},
	"smallmatrix": {table: true},
	"pmatrix":     {table: true, open: "(", close: ")"},
	"bmatrix":     {table: true, open: "[", close: "]"},
	"Bmatrix":     {table: true, open: "{", close: "}"},
	"vmatrix":     {table: true, open: "|", close: "|"},
	"Vmatrix":     {table: true, open: "‖", close: "‖"},
	"cases":       {table: true, open: "{", align: "left left"},
	"array":       {table: true, colspec: true},
	"aligned":     {table: true, align: "right left"},
	"align":       {table: true, align: "right left"},
	"align*":      {table: true, align: "right left"},
	"split":       {table: true, align: "right left"},
	"gather":      {table: true},
	"gather*":     {table: true},
	"equation":    {},
	"equation*":   {},
}

func variable(p *Parser, name string, _ ...any) error {
	return p.PushNodes(mml.Token(mml.KindIdent, name))
}

// number collects a run of digits with at most one decimal point. A
// script takes a single digit, as in TeX.
func number(p *Parser, name string, _ ...any) error {
	if p.Top().Is(KindSubsup) {
		return p.PushNodes(mml.Token(mml.KindNumber, name))
	}
	var sb strings.Builder
	sb.WriteString(name)
	point := false
	for {
		tok, ok := p.Peek()
		if !ok {
			break
		}
		if tok.Type == TokenDigit {
			sb.WriteString(tok.Text)
			p.pos++
			continue
		}
		if !point && tok.Is(TokenOther, ".") && p.pos+1 < len(p.tokens) && p.tokens[p.pos+1].Type == TokenDigit {
			point = true
			sb.WriteString(".")
			p.pos++
			continue
		}
		break
	}
	return p.PushNodes(mml.Token(mml.KindNumber, sb.String()))
}

func operator(p *Parser, name string, _ ...any) error {
	glyph := name
	if g, ok := operatorGlyphs[name]; ok {
		glyph = g
	}
	mo := mml.Token(mml.KindOp, glyph).WithClass(operatorClasses[name])
	if mo.Class == mml.ClassOpen || mo.Class == mml.ClassClose || name == "|" {
		mo.SetAttr("stretchy", "false")
	}
	return p.PushNodes(mo)
}

func identifier(p *Parser, _ string, args ...any) error {
	return p.PushNodes(mml.Token(mml.KindIdent, args[0].(string)))
}

func symbol(p *Parser, _ string, args ...any) error {
	mo := mml.Token(mml.KindOp, args[0].(string)).WithClass(args[1].(mml.TexClass))
	if mo.Class == mml.ClassOpen || mo.Class == mml.ClassClose {
		mo.SetAttr("stretchy", "false")
	}
	if mo.Class == mml.ClassOp {
		mo.SetAttr("largeop", "true")
	}
	return p.PushNodes(mo)
}

func namedFunction(p *Parser, name string, _ ...any) error {
	return p.PushNodes(mml.Token(mml.KindIdent, name).WithClass(mml.ClassOp))
}

func operatorName(p *Parser, name string, _ ...any) error {
	text, err := p.GetText(`\` + name)
	if err != nil {
		return err
	}
	mi := mml.Token(mml.KindIdent, strings.TrimSpace(text)).WithClass(mml.ClassOp)
	mi.SetAttr("mathvariant", "normal")
	return p.PushNodes(mi)
}

func space(p *Parser, _ string, args ...any) error {
	width := args[0].(string)
	if width == " " {
		return p.PushNodes(mml.Token(mml.KindText, width))
	}
	return p.PushNodes(mml.New(mml.KindSpace).SetAttr("width", width))
}

func font(p *Parser, name string, args ...any) error {
	arg, err := p.ParseArg(`\` + name)
	if err != nil {
		return err
	}
	variant := args[0].(string)
	mml.Walk(arg, func(n *mml.Node) {
		if n.IsToken() {
			n.SetAttr("mathvariant", variant)
		}
	})
	return p.PushNodes(arg)
}

func text(p *Parser, name string, args ...any) error {
	content, err := p.GetText(`\` + name)
	if err != nil {
		return err
	}
	mt := mml.Token(mml.KindText, content)
	if variant := args[0].(string); variant != "" {
		mt.SetAttr("mathvariant", variant)
	}
	return p.PushNodes(mt)
}

// ref renders a cross-reference label as text.
func ref(p *Parser, name string, args ...any) error {
	label, err := p.GetText(`\` + name)
	if err != nil {
		return err
	}
	return p.PushNodes(mml.Token(mml.KindText, fmt.Sprintf(args[0].(string), strings.TrimSpace(label))))
}

// ignore accepts commands that only affect layout.
func ignore(*Parser, string, ...any) error {
	return nil
}

func frac(p *Parser, name string, args ...any) error {
	num, err := p.ParseArg(`\` + name)
	if err != nil {
		return err
	}
	den, err := p.ParseArg(`\` + name)
	if err != nil {
		return err
	}
	node := mml.New(mml.KindFrac, num, den)
	if display := args[0].(string); display != "" {
		node = mml.New(mml.KindStyle, node).SetAttr("displaystyle", display)
	}
	return p.PushNodes(node)
}

func binom(p *Parser, name string, _ ...any) error {
	n, err := p.ParseArg(`\` + name)
	if err != nil {
		return err
	}
	k, err := p.ParseArg(`\` + name)
	if err != nil {
		return err
	}
	f := mml.New(mml.KindFrac, n, k).SetAttr("linethickness", "0")
	return p.PushNodes(mml.Fenced("(", f, ")"))
}

func sqrt(p *Parser, name string, _ ...any) error {
	index, hasIndex, err := p.GetOptional(`\` + name)
	if err != nil {
		return err
	}
	arg, err := p.ParseArg(`\` + name)
	if err != nil {
		return err
	}
	if !hasIndex {
		return p.PushNodes(mml.New(mml.KindSqrt, arg))
	}
	idx, err := p.ParseTokens(index)
	if err != nil {
		return err
	}
	return p.PushNodes(mml.New(mml.KindRoot, arg, idx))
}

// script starts a superscript or subscript on the last node of the
// current frame. An existing script of the other kind is merged into a
// msubsup; a second script of the same kind is an error.
func script(p *Parser, _ string, args ...any) error {
	position := args[0].(string)
	top := p.Top()
	if top.Is(KindSubsup) {
		return p.Errorf(ErrMissingArgument, "Missing superscript or subscript argument")
	}

	base := top.PopNode()
	if base == nil {
		base = mml.Token(mml.KindIdent, "")
	}
	props := stack.Props{"position": position, "base": base}

	var sub, sup *mml.Node
	switch base.Kind {
	case mml.KindSub:
		sub = base.Children[1]
	case mml.KindSup:
		sup = base.Children[1]
	case mml.KindSubSup:
		sub, sup = base.Children[1], base.Children[2]
	}
	if (position == "sup" && sup != nil) || (position == "sub" && sub != nil) {
		if position == "sup" {
			return p.Errorf(ErrMisplaced, "Double exponent: use braces to clarify")
		}
		return p.Errorf(ErrMisplaced, "Double subscripts: use braces to clarify")
	}
	if sub != nil || sup != nil {
		props["base"] = base.Children[0]
		if sub != nil {
			props["sub"] = sub
		}
		if sup != nil {
			props["sup"] = sup
		}
	}

	it, err := p.Create(KindSubsup, props)
	if err != nil {
		return err
	}
	return p.Push(it)
}

var primes = []string{"′", "″", "‴", "⁗"}

func prime(p *Parser, _ string, _ ...any) error {
	count := 1
	for {
		tok, ok := p.Peek()
		if !ok || !tok.Is(TokenOther, "'") {
			break
		}
		count++
		p.pos++
	}
	glyph := strings.Repeat("′", count)
	if count <= len(primes) {
		glyph = primes[count-1]
	}
	mark := mml.Token(mml.KindOp, glyph)

	top := p.Top()
	base := top.PopNode()
	if base == nil {
		base = mml.Token(mml.KindIdent, "")
	}
	switch base.Kind {
	case mml.KindSup, mml.KindSubSup:
		return p.Errorf(ErrMisplaced, "Prime causes double exponent: use braces to clarify")
	case mml.KindSub:
		return p.PushNodes(mml.New(mml.KindSubSup, base.Children[0], base.Children[1], mark))
	}
	return p.PushNodes(mml.New(mml.KindSup, base, mark))
}

func left(p *Parser, name string, _ ...any) error {
	delim, err := p.GetDelimiter(`\` + name)
	if err != nil {
		return err
	}
	it, err := p.Create(KindLeft, stack.Props{"delim": delim})
	if err != nil {
		return err
	}
	return p.Push(it)
}

func right(p *Parser, name string, _ ...any) error {
	delim, err := p.GetDelimiter(`\` + name)
	if err != nil {
		return err
	}
	it, err := p.Create(KindRight, stack.Props{"delim": delim})
	if err != nil {
		return err
	}
	return p.Push(it)
}

// middle puts a stretchy delimiter between spacers so that the parts on
// either side of it are sized independently.
func middle(p *Parser, name string, _ ...any) error {
	delim, err := p.GetDelimiter(`\` + name)
	if err != nil {
		return err
	}
	if !p.Top().Is(KindLeft) {
		return p.Errorf(ErrMisplaced, "Extra \\middle or missing \\left")
	}
	mo := mml.Token(mml.KindOp, delim)
	mo.SetAttr("stretchy", "true")
	mo.SetAttr("symmetric", "true")
	return p.PushNodes(mml.Atom(mml.ClassClose), mo, mml.Atom(mml.ClassOpen))
}

func begin(p *Parser, name string, _ ...any) error {
	env, err := p.GetText(`\` + name)
	if err != nil {
		return err
	}
	def, ok := environments[env]
	if !ok {
		return p.Errorf(ErrUndefinedMacro, "Unknown environment '%s'", env)
	}
	props := stack.Props{"name": env}
	if def.colspec {
		spec, err := p.GetText(`\begin{` + env + `}`)
		if err != nil {
			return err
		}
		props["columnalign"] = columnAlign(spec)
	}
	it, err := p.Create(KindBegin, props)
	if err != nil {
		return err
	}
	return p.Push(it)
}

func end(p *Parser, name string, _ ...any) error {
	env, err := p.GetText(`\` + name)
	if err != nil {
		return err
	}
	it, err := p.Create(KindEnd, stack.Props{"name": env})
	if err != nil {
		return err
	}
	return p.Push(it)
}

// separator handles & and \\ inside an environment.
func separator(p *Parser, name string, _ ...any) error {
	top := p.Top()
	if !top.Is(KindBegin) || !environments[top.Str("name")].table {
		if name == "&" {
			return p.Errorf(ErrMisplaced, "Misplaced &")
		}
		// a line break outside a table is ignored
		return nil
	}
	endCell(top)
	if name != "&" {
		endRow(top)
	}
	return nil
}

func columnAlign(spec string) string {
	var cols []string
	for _, r := range spec {
		switch r {
		case 'l':
			cols = append(cols, "left")
		case 'c':
			cols = append(cols, "center")
		case 'r':
			cols = append(cols, "right")
		}
	}
	return strings.Join(cols, " ")
}
