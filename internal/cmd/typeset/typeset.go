// Package typeset provides the typeset command.
package typeset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mathscan/internal/config"
	"github.com/open-cli-collective/mathscan/internal/fetch"
	"github.com/open-cli-collective/mathscan/internal/input"
	"github.com/open-cli-collective/mathscan/internal/view"
	"github.com/open-cli-collective/mathscan/pkg/markdown"
)

type typesetOptions struct {
	configPath  string
	inputFormat string
	renderer    string
	format      string
	outFile     string
	restore     bool
	strip       bool
	output      string
	noColor     bool

	stdin  io.Reader
	out    io.Writer
	errOut io.Writer
}

type typesetResult struct {
	Matches  int      `json:"matches"`
	Failures []string `json:"failures"`
	Warnings []string `json:"warnings"`
	Document string   `json:"document"`
}

// NewCmdTypeset creates the typeset command.
func NewCmdTypeset() *cobra.Command {
	opts := &typesetOptions{}

	cmd := &cobra.Command{
		Use:   "typeset <file|url|->",
		Short: "Replace the math in a document with rendered output",
		Long: `Find the math in a document, compile it, and replace each occurrence
with MathML or Unicode text. Expressions that fail to compile are left as
they are and reported as warnings.`,
		Example: `  # Typeset a page to MathML
  mscan typeset notes.html > notes.out.html

  # Markdown in, Markdown out, math as Unicode text
  mscan typeset notes.md --renderer text --format markdown

  # Check that typesetting round-trips
  mscan typeset notes.html --restore`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.stdin = cmd.InOrStdin()
			opts.out = cmd.OutOrStdout()
			opts.errOut = cmd.ErrOrStderr()
			return runTypeset(args[0], opts, nil)
		},
	}

	cmd.Flags().StringVarP(&opts.inputFormat, "input-format", "f", "", "Input format: html or markdown (default: detect)")
	cmd.Flags().StringVarP(&opts.renderer, "renderer", "r", "", "Renderer: mathml or text (default from config)")
	cmd.Flags().StringVar(&opts.format, "format", "html", "Document output format: html or markdown")
	cmd.Flags().StringVarP(&opts.outFile, "write", "w", "", "Write the document to a file instead of stdout")
	cmd.Flags().BoolVar(&opts.restore, "restore", false, "Remove the rendered math again, restoring the original text")
	cmd.Flags().BoolVar(&opts.strip, "strip", false, "Remove the rendered math again, leaving nothing in its place")

	_ = cmd.RegisterFlagCompletionFunc("input-format", cobra.FixedCompletions([]string{"html", "markdown"}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("renderer", cobra.FixedCompletions([]string{config.RendererMathML, config.RendererText}, cobra.ShellCompDirectiveNoFileComp))
	_ = cmd.RegisterFlagCompletionFunc("format", cobra.FixedCompletions([]string{"html", "markdown"}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runTypeset(arg string, opts *typesetOptions, client *fetch.Client) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	format, err := input.ParseFormat(opts.inputFormat)
	if err != nil {
		return err
	}
	if opts.format != "html" && opts.format != "markdown" {
		return fmt.Errorf("invalid document format %q: must be html or markdown", opts.format)
	}
	if opts.restore && opts.strip {
		return errors.New("--restore and --strip cannot be used together")
	}
	if opts.out == nil {
		opts.out = os.Stdout
	}
	if opts.errOut == nil {
		opts.errOut = os.Stderr
	}

	cfg, err := input.LoadConfig(opts.configPath)
	if err != nil {
		return err
	}
	if opts.output, err = input.OutputFormat(opts.output, cfg); err != nil {
		return err
	}
	rendererName := opts.renderer
	if rendererName == "" {
		rendererName = cfg.Renderer
	}
	renderer, err := input.Renderer(rendererName)
	if err != nil {
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
	if err := session.Compile(); err != nil {
		return err
	}
	if err := session.Typeset(renderer); err != nil {
		return err
	}
	if err := session.Render(); err != nil {
		return err
	}
	if opts.restore || opts.strip {
		session.Remove(opts.restore)
	}

	text, err := renderDocument(doc, opts.format)
	if err != nil {
		return err
	}

	result := typesetResult{
		Matches:  list.Len(),
		Failures: make([]string, 0, len(session.Failures())),
		Warnings: session.Warnings(),
		Document: text,
	}
	for _, f := range session.Failures() {
		result.Failures = append(result.Failures, fmt.Sprintf("%s: %v", f.Match.Original(), f.Err))
	}

	v := view.NewRenderer(view.Format(opts.output), opts.noColor)
	if opts.output == "json" {
		v.SetWriter(opts.out)
		return v.RenderJSON(result)
	}

	v.SetWriter(opts.errOut)
	for _, w := range result.Warnings {
		v.Warning(w)
	}

	if opts.outFile != "" {
		if err := os.WriteFile(opts.outFile, []byte(text), 0644); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		v.Success(fmt.Sprintf("Typeset %d expressions to %s", list.Len(), opts.outFile))
		return nil
	}

	_, err = fmt.Fprintln(opts.out, strings.TrimRight(text, "\n"))
	return err
}

// renderDocument writes a Markdown source's body, or a whole HTML document.
func renderDocument(doc *input.Document, format string) (string, error) {
	var buf bytes.Buffer
	if doc.Format == input.FormatMarkdown || format == "markdown" {
		for _, c := range doc.HTML.Children(doc.HTML.Body()) {
			if err := doc.HTML.RenderNode(&buf, c); err != nil {
				return "", err
			}
		}
	} else if err := doc.HTML.Render(&buf); err != nil {
		return "", err
	}

	if format == "markdown" {
		md, err := markdown.FromHTML(buf.String())
		if err != nil {
			return "", fmt.Errorf("failed to convert to markdown: %w", err)
		}
		return md, nil
	}
	return buf.String(), nil
}
