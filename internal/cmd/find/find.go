// Package find provides the find command.
package find

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mathscan/internal/fetch"
	"github.com/open-cli-collective/mathscan/internal/input"
	"github.com/open-cli-collective/mathscan/internal/view"
	"github.com/open-cli-collective/mathscan/pkg/discover"
)

type findOptions struct {
	configPath  string
	inputFormat string
	output      string
	noColor     bool
	limit       int

	stdin io.Reader
	out   io.Writer
}

// matchView is the JSON shape of a match.
type matchView struct {
	Index     int    `json:"index"`
	Source    string `json:"source"`
	Mode      string `json:"mode"`
	Container int    `json:"container"`
	Element   string `json:"element"`
	Start     int    `json:"start"`
	End       int    `json:"end"`
	Open      string `json:"open"`
	Close     string `json:"close"`
	Content   string `json:"content"`
}

// NewCmdFind creates the find command.
func NewCmdFind() *cobra.Command {
	opts := &findOptions{}

	cmd := &cobra.Command{
		Use:   "find <file|url|->",
		Short: "List the math in a document",
		Long: `Locate delimited TeX math in an HTML or Markdown document and list
each occurrence with its position, in document order.`,
		Example: `  # List math in a page
  mscan find notes.html

  # Markdown from stdin, as JSON
  cat notes.md | mscan find - --input-format markdown -o json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.stdin = cmd.InOrStdin()
			opts.out = cmd.OutOrStdout()
			return runFind(args[0], opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.inputFormat, "input-format", "f", "", "Input format: html or markdown (default: detect)")
	cmd.Flags().IntVarP(&opts.limit, "limit", "l", 0, "Maximum number of matches to list (0 for all)")

	_ = cmd.RegisterFlagCompletionFunc("input-format", cobra.FixedCompletions([]string{"html", "markdown"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runFind(arg string, opts *findOptions, client *fetch.Client) error {
	// Validate output format
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	format, err := input.ParseFormat(opts.inputFormat)
	if err != nil {
		return err
	}
	if opts.out == nil {
		opts.out = os.Stdout
	}

	cfg, err := input.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.output, err = input.OutputFormat(opts.output, cfg); err != nil {
		return err
	}
	src, err := input.Source(cfg)
	if err != nil {
		return fmt.Errorf("invalid delimiters: %w", err)
	}

	loader := &input.Loader{Client: client, Stdin: opts.stdin, Finder: src.Finder()}
	doc, err := loader.Load(context.Background(), arg, format)
	if err != nil {
		return err
	}

	session := input.NewSession(cfg, doc, src)
	list, err := session.Discover()
	if err != nil {
		return fmt.Errorf("failed to search document: %w", err)
	}

	matches := list.Items()
	if opts.limit > 0 && len(matches) > opts.limit {
		matches = matches[:opts.limit]
	}

	views := make([]matchView, 0, len(matches))
	for i, m := range matches {
		views = append(views, newMatchView(doc, i, m))
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	renderer.SetWriter(opts.out)

	if opts.output == "json" {
		return renderer.RenderJSON(views)
	}

	if len(views) == 0 {
		renderer.RenderText("No math found.")
		return nil
	}

	headers := []string{"#", "SOURCE", "MODE", "ELEMENT", "START", "END", "CONTENT"}
	var rows [][]string
	for _, v := range views {
		rows = append(rows, []string{
			strconv.Itoa(v.Index),
			v.Source,
			v.Mode,
			v.Element,
			strconv.Itoa(v.Start),
			strconv.Itoa(v.End),
			view.Truncate(v.Open+v.Content+v.Close, 60),
		})
	}
	renderer.RenderTable(headers, rows)
	return nil
}

func newMatchView(doc *input.Document, i int, m *discover.Match) matchView {
	mode := "inline"
	switch {
	case m.Escape:
		mode = "escape"
	case m.Display:
		mode = "display"
	}

	element := ""
	if m.Start.Resolved() {
		element = doc.HTML.Kind(doc.HTML.Parent(m.Start.Node))
	}

	return matchView{
		Index:     i,
		Source:    m.Source.Name(),
		Mode:      mode,
		Container: m.Container,
		Element:   element,
		Start:     m.Start.N,
		End:       m.End.N,
		Open:      m.Start.Delim,
		Close:     m.End.Delim,
		Content:   m.Content,
	}
}
