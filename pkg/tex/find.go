package tex

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/open-cli-collective/mathscan/pkg/discover"
)

// Delimiters is an open/close delimiter pair.
type Delimiters [2]string

// FinderOptions configure which TeX math is located in text.
type FinderOptions struct {
	InlineMath  []Delimiters
	DisplayMath []Delimiters
	// ProcessEscapes makes \$ produce a literal dollar sign.
	ProcessEscapes bool
	// ProcessEnvironments finds \begin{env}...\end{env} outside delimiters.
	ProcessEnvironments bool
	// ProcessRefs finds \ref{} and \eqref{} outside delimiters.
	ProcessRefs bool
}

// DefaultFinderOptions returns the standard delimiters. Single dollar
// signs are not math by default since they are common in ordinary text.
func DefaultFinderOptions() FinderOptions {
	return FinderOptions{
		InlineMath:          []Delimiters{{`\(`, `\)`}},
		DisplayMath:         []Delimiters{{"$$", "$$"}, {`\[`, `\]`}},
		ProcessEscapes:      true,
		ProcessEnvironments: true,
		ProcessRefs:         true,
	}
}

type endDelim struct {
	close   string
	display bool
	pattern *regexp.Regexp
}

// Finder locates delimited TeX math in strings.
type Finder struct {
	start *regexp.Regexp
	ends  map[string]endDelim
	env   int // submatch index of the environment name, or -1
	sub   int // submatch index of escapes and refs, or -1
}

// NewFinder compiles the search patterns for opts.
func NewFinder(opts FinderOptions) (*Finder, error) {
	f := &Finder{ends: make(map[string]endDelim), env: -1, sub: -1}

	add := func(pairs []Delimiters, display bool) error {
		for _, d := range pairs {
			if d[0] == "" || d[1] == "" {
				return errors.New("math delimiters must not be empty")
			}
			if _, dup := f.ends[d[0]]; dup {
				continue
			}
			f.ends[d[0]] = endDelim{close: d[1], display: display, pattern: endPattern(regexp.QuoteMeta(d[1]))}
		}
		return nil
	}
	if err := add(opts.DisplayMath, true); err != nil {
		return nil, err
	}
	if err := add(opts.InlineMath, false); err != nil {
		return nil, err
	}

	// Longest delimiters first, so that $$ wins over $
	opens := make([]string, 0, len(f.ends))
	for open := range f.ends {
		opens = append(opens, open)
	}
	sort.Slice(opens, func(i, j int) bool {
		if len(opens[i]) != len(opens[j]) {
			return len(opens[i]) > len(opens[j])
		}
		return opens[i] < opens[j]
	})

	var parts []string
	for _, open := range opens {
		parts = append(parts, regexp.QuoteMeta(open))
	}
	if opts.ProcessEnvironments {
		parts = append(parts, `\\begin\s*\{(?P<env>[^}]*)\}`)
	}
	var subs []string
	if opts.ProcessEscapes {
		subs = append(subs, `\\[\\$]`)
	}
	if opts.ProcessRefs {
		subs = append(subs, `\\(?:eq)?ref\s*\{[^}]*\}`)
	}
	if len(subs) > 0 {
		parts = append(parts, `(?P<sub>`+strings.Join(subs, "|")+`)`)
	}
	if len(parts) == 0 {
		return f, nil
	}

	start, err := regexp.Compile(strings.Join(parts, "|"))
	if err != nil {
		return nil, fmt.Errorf("compiling math delimiters: %w", err)
	}
	f.start = start
	f.env = start.SubexpIndex("env")
	f.sub = start.SubexpIndex("sub")
	return f, nil
}

// endPattern matches the close delimiter (as submatch 1), control
// sequences, and braces, so that a close delimiter inside braces or
// after a backslash is skipped.
func endPattern(close string) *regexp.Regexp {
	return regexp.MustCompile(`(` + close + `)|\\[a-zA-Z]+|\\.|[{}]`)
}

// Find returns the math in one string. index is the string's position in
// its container and is copied into every match.
func (f *Finder) Find(index int, text string) []discover.ProtoMatch {
	if f.start == nil {
		return nil
	}

	var matches []discover.ProtoMatch
	pos := 0
	for pos < len(text) {
		loc := f.start.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		start, startEnd := pos+loc[0], pos+loc[1]
		open := text[start:startEnd]

		var (
			m  discover.ProtoMatch
			ok bool
		)
		switch {
		case f.env >= 0 && loc[2*f.env] >= 0:
			name := text[pos+loc[2*f.env] : pos+loc[2*f.env+1]]
			end := endPattern(`\\end\s*\{` + regexp.QuoteMeta(name) + `\}`)
			m, ok = f.findEnd(index, text, start, startEnd, open, end, true)
			if ok {
				m.Content = m.Open + m.Content + m.Close
				m.Open, m.Close = "", ""
			}
		case f.sub >= 0 && loc[2*f.sub] >= 0:
			ok = true
			m = discover.ProtoMatch{Index: index, Start: start, End: startEnd, Content: open}
			if open == `\$` || open == `\\` {
				m.Open, m.Content, m.Escape = `\`, open[1:], true
			}
		default:
			e := f.ends[open]
			m, ok = f.findEnd(index, text, start, startEnd, open, e.pattern, e.display)
		}

		if ok {
			matches = append(matches, m)
			pos = m.End
		} else {
			pos = startEnd
		}
	}
	return matches
}

// FindAll searches every string.
func (f *Finder) FindAll(strs []string) []discover.ProtoMatch {
	var all []discover.ProtoMatch
	for i, s := range strs {
		all = append(all, f.Find(i, s)...)
	}
	return all
}

// findEnd looks for the close delimiter after an open one, skipping
// anything inside braces.
func (f *Finder) findEnd(index int, text string, start, from int, open string, end *regexp.Regexp, display bool) (discover.ProtoMatch, bool) {
	braces := 0
	pos := from
	for pos < len(text) {
		loc := end.FindStringSubmatchIndex(text[pos:])
		if loc == nil {
			break
		}
		s, e := pos+loc[0], pos+loc[1]
		switch token := text[s:e]; {
		case loc[2] >= 0 && braces == 0:
			return discover.ProtoMatch{
				Index:   index,
				Start:   start,
				End:     e,
				Open:    open,
				Close:   token,
				Display: display,
				Content: text[from:s],
			}, true
		case token == "{":
			braces++
		case token == "}" && braces > 0:
			braces--
		}
		pos = e
	}
	return discover.ProtoMatch{}, false
}
