package find

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/open-cli-collective/mathscan/internal/fetch"
)

func writeDoc(t *testing.T, name, content string) string {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestRunFind_JSON(t *testing.T) {
	path := writeDoc(t, "doc.html", `<p>Let \(x^2\) and $$y$$ cost \$5</p><pre>\(skipped\)</pre>`)

	var buf bytes.Buffer
	opts := &findOptions{output: "json", noColor: true, out: &buf}
	require.NoError(t, runFind(path, opts, nil))

	var got []matchView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 3)

	assert.Equal(t, matchView{
		Index: 0, Source: "tex", Mode: "inline", Element: "p",
		Start: 4, End: 11, Open: `\(`, Close: `\)`, Content: "x^2",
	}, got[0])
	assert.Equal(t, "display", got[1].Mode)
	assert.Equal(t, "y", got[1].Content)
	assert.Equal(t, "escape", got[2].Mode)
	assert.Equal(t, "$", got[2].Content)
}

func TestRunFind_Table(t *testing.T) {
	path := writeDoc(t, "doc.md", "# Notes\n\nEnergy \\(E=mc^2\\).\n")

	var buf bytes.Buffer
	opts := &findOptions{noColor: true, out: &buf}
	require.NoError(t, runFind(path, opts, nil))

	output := buf.String()
	assert.Contains(t, output, "SOURCE")
	assert.Contains(t, output, `\(E=mc^2\)`)
	assert.Contains(t, output, "inline")
}

func TestRunFind_Limit(t *testing.T) {
	path := writeDoc(t, "doc.html", `<p>\(a\) \(b\) \(c\)</p>`)

	var buf bytes.Buffer
	opts := &findOptions{output: "plain", noColor: true, limit: 2, out: &buf}
	require.NoError(t, runFind(path, opts, nil))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
}

func TestRunFind_NoMath(t *testing.T) {
	path := writeDoc(t, "doc.html", `<p>plain text</p>`)

	var buf bytes.Buffer
	opts := &findOptions{noColor: true, out: &buf}
	require.NoError(t, runFind(path, opts, nil))
	assert.Contains(t, buf.String(), "No math found.")
}

func TestRunFind_Stdin(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var buf bytes.Buffer
	opts := &findOptions{
		output:      "json",
		inputFormat: "markdown",
		noColor:     true,
		stdin:       strings.NewReader(`a \[b\] c`),
		out:         &buf,
	}
	require.NoError(t, runFind("-", opts, nil))

	var got []matchView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "display", got[0].Mode)
}

func TestRunFind_URL(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<div>\(z\)</div>`))
	}))
	defer server.Close()

	var buf bytes.Buffer
	opts := &findOptions{output: "json", noColor: true, out: &buf}
	require.NoError(t, runFind(server.URL, opts, fetch.NewClient(0)))

	var got []matchView
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "div", got[0].Element)
}

func TestRunFind_InvalidOptions(t *testing.T) {
	tests := []struct {
		name   string
		opts   *findOptions
		errMsg string
	}{
		{
			name:   "output format",
			opts:   &findOptions{output: "xml"},
			errMsg: "invalid output format",
		},
		{
			name:   "input format",
			opts:   &findOptions{inputFormat: "pdf"},
			errMsg: "invalid input format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := runFind("doc.html", tt.opts, nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestRunFind_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	opts := &findOptions{noColor: true, out: &bytes.Buffer{}}
	err := runFind(filepath.Join(t.TempDir(), "missing.html"), opts, nil)
	assert.Error(t, err)
}

func TestNewCmdFind(t *testing.T) {
	cmd := NewCmdFind()
	assert.Equal(t, "find <file|url|->", cmd.Use)
	assert.NotNil(t, cmd.Flags().Lookup("input-format"))
	assert.NotNil(t, cmd.Flags().Lookup("limit"))
}
