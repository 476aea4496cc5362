package input

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mathscan/internal/config"
	"github.com/open-cli-collective/mathscan/internal/fetch"
	"github.com/open-cli-collective/mathscan/pkg/dom"
	"github.com/open-cli-collective/mathscan/pkg/mml"
	"github.com/open-cli-collective/mathscan/pkg/tex"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatAuto, false},
		{"html", FormatHTML, false},
		{"markdown", FormatMarkdown, false},
		{"md", FormatMarkdown, false},
		{"HTML", FormatHTML, false},
		{"pdf", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), "invalid input format")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		name        string
		file        string
		contentType string
		want        Format
	}{
		{"markdown file", "notes.md", "", FormatMarkdown},
		{"uppercase extension", "NOTES.MARKDOWN", "", FormatMarkdown},
		{"html file", "page.html", "", FormatHTML},
		{"no extension", "page", "", FormatHTML},
		{"markdown content type", "https://example.com/page", "text/markdown; charset=utf-8", FormatMarkdown},
		{"html content type wins over extension", "https://example.com/a.md", "text/html", FormatHTML},
		{"unknown content type falls back to extension", "https://example.com/a.md", "text/plain", FormatMarkdown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectFormat(tt.file, tt.contentType))
		})
	}
}

func TestFinderOptions(t *testing.T) {
	cfg := config.Default()
	cfg.InlineMath = append(cfg.InlineMath, []string{"$", "$"}, []string{"bad"})
	cfg.ProcessRefs = false

	opts := FinderOptions(cfg)
	assert.Equal(t, []tex.Delimiters{{`\(`, `\)`}, {"$", "$"}}, opts.InlineMath)
	assert.Equal(t, []tex.Delimiters{{"$$", "$$"}, {`\[`, `\]`}}, opts.DisplayMath)
	assert.True(t, opts.ProcessEscapes)
	assert.False(t, opts.ProcessRefs)
}

func TestGrammar_Macros(t *testing.T) {
	cfg := config.Default()
	cfg.Macros = map[string]string{"R": `\mathbb{R}`, "norm": `\left\| #1 \right\|`}

	g := Grammar(cfg)
	assert.True(t, g.Defined("R"))
	assert.True(t, g.Defined("norm"))

	node, err := g.Parse(`\norm{x}`)
	require.NoError(t, err)
	assert.Equal(t, "‖", node.Attr("open"))
}

func TestPolicy(t *testing.T) {
	cfg := config.Default()
	cfg.SkipTags = []string{"pre"}
	cfg.IgnoreClass = "no-math"

	p := Policy(cfg)
	assert.Equal(t, []string{"pre"}, p.Skip)
	assert.Equal(t, "no-math", p.IgnoreClass)
	assert.Equal(t, "mscan-process", p.ProcessClass)
	assert.Equal(t, "\n", p.Include["br"])
}

func TestRenderer(t *testing.T) {
	r, err := Renderer("")
	require.NoError(t, err)
	assert.IsType(t, mml.MathMLRenderer{}, r)

	r, err = Renderer("text")
	require.NoError(t, err)
	assert.IsType(t, mml.TextRenderer{}, r)

	_, err = Renderer("svg")
	assert.Error(t, err)
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte("renderer: text\n"), 0600))
	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "text", cfg.Renderer)

	bad := filepath.Join(dir, "bad.yml")
	require.NoError(t, os.WriteFile(bad, []byte("renderer: svg\n"), 0600))
	_, err = LoadConfig(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestNewSession(t *testing.T) {
	cfg := config.Default()
	src, err := Source(cfg)
	require.NoError(t, err)

	l := &Loader{Stdin: strings.NewReader(`<p>\(x\)</p><p class="mscan-ignore">\(y\)</p>`)}
	doc, err := l.Load(context.Background(), "-", FormatHTML)
	require.NoError(t, err)

	s := NewSession(cfg, doc, src)
	list, err := s.Discover()
	require.NoError(t, err)
	require.Equal(t, 1, list.Len())
	assert.Equal(t, "x", list.Items()[0].Content)
}

func TestSource_InvalidDelimiters(t *testing.T) {
	cfg := config.Default()
	cfg.InlineMath = [][]string{{"$", ""}}
	_, err := Source(cfg)
	assert.Error(t, err)
}

func bodyHTML(t *testing.T, doc *Document) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, doc.HTML.RenderNode(&sb, doc.HTML.Body()))
	return sb.String()
}

func TestLoader_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.md")
	require.NoError(t, os.WriteFile(path, []byte(`Let \(a*b*c\) hold.`), 0600))

	f, err := tex.NewFinder(tex.DefaultFinderOptions())
	require.NoError(t, err)
	l := &Loader{Finder: f}

	doc, err := l.Load(context.Background(), path, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, doc.Format)
	assert.Contains(t, bodyHTML(t, doc), `<p>Let \(a*b*c\) hold.</p>`)
	assert.Equal(t, []dom.Ref{doc.HTML.Body()}, doc.Containers())
}

func TestLoader_Stdin(t *testing.T) {
	l := &Loader{Stdin: strings.NewReader(`<p>\(x\)</p>`)}

	doc, err := l.Load(context.Background(), "-", FormatHTML)
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, doc.Format)
	assert.Contains(t, bodyHTML(t, doc), `<p>\(x\)</p>`)
}

func TestLoader_URL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/markdown")
		w.Write([]byte("# Title"))
	}))
	defer server.Close()

	l := &Loader{Client: fetch.NewClient(0)}
	doc, err := l.Load(context.Background(), server.URL, FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, FormatMarkdown, doc.Format)
	assert.Contains(t, bodyHTML(t, doc), "<h1>Title</h1>")
}

func TestLoader_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	l := &Loader{}
	_, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.html"), FormatAuto)
	assert.Error(t, err)

	_, err = l.Load(context.Background(), "-", FormatAuto)
	assert.Error(t, err)

	_, err = l.Load(context.Background(), server.URL, FormatAuto)
	var statusErr *fetch.StatusError
	assert.ErrorAs(t, err, &statusErr)
}

func TestOutputFormat(t *testing.T) {
	cfg := config.Default()
	cfg.OutputFormat = "json"

	got, err := OutputFormat("", cfg)
	require.NoError(t, err)
	assert.Equal(t, "json", got)

	got, err = OutputFormat("plain", cfg)
	require.NoError(t, err)
	assert.Equal(t, "plain", got)

	cfg.OutputFormat = "yaml"
	_, err = OutputFormat("", cfg)
	assert.Error(t, err)
}
