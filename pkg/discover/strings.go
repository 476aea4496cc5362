// Package discover finds math in a document: it extracts per-container
// strings, asks notation sources for matches, maps string offsets back to
// document positions, and keeps the per-document match list.
package discover

import (
	"strings"

	"github.com/open-cli-collective/mathscan/pkg/dom"
	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// Policy controls which parts of a container contribute text.
type Policy struct {
	// Include maps element kinds that extend the current string instead of
	// breaking it to the text they contribute.
	Include map[string]string
	// Skip lists element kinds whose content is never searched.
	Skip []string
	// IgnoreClass marks elements whose text is not collected.
	IgnoreClass string
	// ProcessClass re-enables collection inside skipped or ignored elements.
	ProcessClass string
}

// DefaultPolicy returns the standard extraction policy.
func DefaultPolicy() Policy {
	return Policy{
		Include: map[string]string{
			"br":             "\n",
			"wbr":            "",
			dom.KindComment: "",
		},
		Skip: []string{
			"script", "noscript", "style", "textarea", "pre", "code",
			"annotation", "annotation-xml",
		},
		IgnoreClass:  "mscan-ignore",
		ProcessClass: "mscan-process",
	}
}

func (p Policy) skips(kind string) bool {
	for _, k := range p.Skip {
		if strings.EqualFold(k, kind) {
			return true
		}
	}
	return false
}

// TextRun records the node a piece of a string came from.
type TextRun struct {
	Node dom.Ref
	Len  int
	// Text is false for runs contributed by Include elements; positions
	// never resolve into those.
	Text bool
}

// ContainerStrings holds the coalesced strings of one container and, for
// each string, the runs it was built from.
type ContainerStrings struct {
	Strings []string
	Runs    [][]TextRun
}

// Extract walks container depth-first and coalesces adjacent text into
// strings, breaking at every element that is not in p.Include.
// Whitespace-only strings are dropped.
func Extract(a dom.Adaptor, container dom.Ref, p Policy) *ContainerStrings {
	e := &extractor{a: a, policy: p, out: &ContainerStrings{}}
	e.walk(container, false)
	e.push()
	return e.out
}

type extractor struct {
	a      dom.Adaptor
	policy Policy
	out    *ContainerStrings

	str  strings.Builder
	runs []TextRun
}

func (e *extractor) walk(n dom.Ref, ignore bool) {
	for _, c := range e.a.Children(n) {
		kind := e.a.Kind(c)
		if kind == dom.KindText {
			if !ignore {
				e.extend(c, e.a.Text(c), true)
			}
			continue
		}
		if text, ok := e.policy.Include[kind]; ok {
			if !ignore {
				e.extend(c, text, false)
			}
			continue
		}
		e.container(c, kind, ignore)
	}
}

// container handles an element that breaks the current string.
func (e *extractor) container(n dom.Ref, kind string, ignore bool) {
	e.push()
	if e.a.Attribute(n, mml.MarkerAttr) != "" {
		return // already typeset
	}
	class := e.a.Attribute(n, "class")
	process := hasClass(class, e.policy.ProcessClass)
	if !process && e.policy.skips(kind) {
		return
	}
	e.walk(n, (ignore || hasClass(class, e.policy.IgnoreClass)) && !process)
	e.push()
}

func (e *extractor) extend(n dom.Ref, text string, isText bool) {
	e.runs = append(e.runs, TextRun{Node: n, Len: len(text), Text: isText})
	e.str.WriteString(text)
}

// push finalizes the current string if it has any non-space content.
func (e *extractor) push() {
	s := e.str.String()
	if strings.TrimSpace(s) != "" {
		e.out.Strings = append(e.out.Strings, s)
		e.out.Runs = append(e.out.Runs, e.runs)
	}
	e.str.Reset()
	e.runs = nil
}

func hasClass(classAttr, class string) bool {
	if class == "" {
		return false
	}
	for _, c := range strings.Fields(classAttr) {
		if c == class {
			return true
		}
	}
	return false
}
