// Package input turns configuration and command arguments into the
// documents, sources and renderers the discovery session runs on.
package input

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/open-cli-collective/mathscan/internal/config"
	"github.com/open-cli-collective/mathscan/internal/fetch"
	"github.com/open-cli-collective/mathscan/internal/view"
	"github.com/open-cli-collective/mathscan/pkg/discover"
	"github.com/open-cli-collective/mathscan/pkg/dom"
	"github.com/open-cli-collective/mathscan/pkg/markdown"
	"github.com/open-cli-collective/mathscan/pkg/mml"
	"github.com/open-cli-collective/mathscan/pkg/tex"
)

// Format is a document input format.
type Format string

const (
	FormatAuto     Format = ""
	FormatHTML     Format = "html"
	FormatMarkdown Format = "markdown"
)

// ParseFormat checks a --input-format value.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatAuto, FormatHTML, FormatMarkdown:
		return f, nil
	case "md":
		return FormatMarkdown, nil
	default:
		return "", fmt.Errorf("invalid input format %q: must be html or markdown", s)
	}
}

// LoadConfig loads the config file at path (or the default path) with
// environment overrides, and validates it.
func LoadConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadWithEnv(config.ResolvePath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w (run 'mscan init' to reconfigure)", err)
	}
	return cfg, nil
}

// OutputFormat returns the --output value, or the configured default when
// the flag is empty.
func OutputFormat(flag string, cfg *config.Config) (string, error) {
	if flag == "" {
		flag = cfg.OutputFormat
	}
	if err := view.ValidateFormat(flag); err != nil {
		return "", err
	}
	return flag, nil
}

// FinderOptions converts the configured delimiters.
func FinderOptions(cfg *config.Config) tex.FinderOptions {
	pairs := func(in [][]string) []tex.Delimiters {
		out := make([]tex.Delimiters, 0, len(in))
		for _, p := range in {
			if len(p) == 2 {
				out = append(out, tex.Delimiters{p[0], p[1]})
			}
		}
		return out
	}
	return tex.FinderOptions{
		InlineMath:          pairs(cfg.InlineMath),
		DisplayMath:         pairs(cfg.DisplayMath),
		ProcessEscapes:      cfg.ProcessEscapes,
		ProcessEnvironments: cfg.ProcessEnvironments,
		ProcessRefs:         cfg.ProcessRefs,
	}
}

// Grammar returns the default grammar with the configured macros.
func Grammar(cfg *config.Config) *tex.Grammar {
	g := tex.Default()
	for name, template := range cfg.Macros {
		g.Macro(name, template, tex.ParamCount(template))
	}
	return g
}

// CheckMacros parses each macro called with placeholder arguments, in name
// order, and returns the first failure.
func CheckMacros(g *tex.Grammar, macros map[string]string) error {
	names := make([]string, 0, len(macros))
	for name := range macros {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		call := `\` + name + strings.Repeat("{x}", tex.ParamCount(macros[name]))
		if _, err := g.Parse(call); err != nil {
			return fmt.Errorf("macro \\%s: %w", name, err)
		}
	}
	return nil
}

// Policy returns the extraction policy with the configured overrides.
func Policy(cfg *config.Config) discover.Policy {
	p := discover.DefaultPolicy()
	if len(cfg.SkipTags) > 0 {
		p.Skip = cfg.SkipTags
	}
	if cfg.IgnoreClass != "" {
		p.IgnoreClass = cfg.IgnoreClass
	}
	if cfg.ProcessClass != "" {
		p.ProcessClass = cfg.ProcessClass
	}
	return p
}

// Source builds the TeX source for cfg.
func Source(cfg *config.Config) (*tex.Source, error) {
	f, err := tex.NewFinder(FinderOptions(cfg))
	if err != nil {
		return nil, err
	}
	return tex.NewSource(f, Grammar(cfg)), nil
}

// NewSession creates the discovery session for doc.
func NewSession(cfg *config.Config, doc *Document, src discover.Source) *discover.Session {
	return discover.NewSession(doc.HTML, doc.Containers(), []discover.Source{src}, discover.Options{Policy: Policy(cfg)})
}

// Renderer returns the named renderer.
func Renderer(name string) (mml.Renderer, error) {
	switch name {
	case "", config.RendererMathML:
		return mml.MathMLRenderer{}, nil
	case config.RendererText:
		return mml.TextRenderer{}, nil
	default:
		return nil, fmt.Errorf("invalid renderer %q: must be %s or %s", name, config.RendererMathML, config.RendererText)
	}
}

// Document is a loaded, parsed input document.
type Document struct {
	Name   string
	Format Format
	HTML   *dom.HTMLDocument
}

// Containers returns the roots searched for math.
func (d *Document) Containers() []dom.Ref {
	return []dom.Ref{d.HTML.Body()}
}

// Loader reads documents from files, URLs or stdin.
type Loader struct {
	Client *fetch.Client
	Stdin  io.Reader
	Finder markdown.Finder
}

// Load reads and parses the document named by arg. "-" reads stdin.
func (l *Loader) Load(ctx context.Context, arg string, format Format) (*Document, error) {
	var (
		data        []byte
		contentType string
		err         error
	)
	switch {
	case arg == "-":
		if l.Stdin == nil {
			return nil, fmt.Errorf("no standard input available")
		}
		data, err = io.ReadAll(l.Stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
	case fetch.IsURL(arg):
		client := l.Client
		if client == nil {
			client = fetch.NewClient(0)
		}
		doc, err := client.Get(ctx, arg)
		if err != nil {
			return nil, err
		}
		data, contentType = doc.Body, doc.ContentType
	default:
		data, err = os.ReadFile(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
	}

	if format == FormatAuto {
		format = DetectFormat(arg, contentType)
	}

	text := string(data)
	if format == FormatMarkdown {
		text, err = markdown.ToHTML(data, l.Finder)
		if err != nil {
			return nil, fmt.Errorf("failed to convert markdown: %w", err)
		}
	}

	doc, err := dom.ParseHTMLString(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse document: %w", err)
	}
	return &Document{Name: arg, Format: format, HTML: doc}, nil
}

// DetectFormat picks the format from the content type, then the file
// extension. Anything unrecognized is HTML.
func DetectFormat(name, contentType string) Format {
	if contentType != "" {
		if mediaType, _, err := mime.ParseMediaType(contentType); err == nil {
			switch mediaType {
			case "text/markdown", "text/x-markdown":
				return FormatMarkdown
			case "text/html", "application/xhtml+xml":
				return FormatHTML
			}
		}
	}
	switch strings.ToLower(filepath.Ext(name)) {
	case ".md", ".markdown", ".mdown":
		return FormatMarkdown
	}
	return FormatHTML
}
