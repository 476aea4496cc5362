// Package parse provides the parse command.
package parse

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mathscan/internal/config"
	"github.com/open-cli-collective/mathscan/internal/input"
	"github.com/open-cli-collective/mathscan/internal/view"
	"github.com/open-cli-collective/mathscan/pkg/mml"
	"github.com/open-cli-collective/mathscan/pkg/tex"
)

type parseOptions struct {
	configPath string
	display    bool
	renderer   string
	output     string
	noColor    bool

	stdin io.Reader
	out   io.Writer
}

type parseResult struct {
	Input   string `json:"input"`
	Display bool   `json:"display"`
	MathML  string `json:"mathml"`
	Text    string `json:"text"`
}

// NewCmdParse creates the parse command.
func NewCmdParse() *cobra.Command {
	opts := &parseOptions{}

	cmd := &cobra.Command{
		Use:   "parse <tex|->",
		Short: "Parse a single TeX expression",
		Long: `Parse one TeX math expression (without delimiters) and print it as
MathML or linear Unicode text.`,
		Example: `  # MathML for an expression
  mscan parse 'x^2 + \frac{1}{2}'

  # Bra-ket notation as text
  mscan parse '\braket{\phi | \psi}' --renderer text

  # Read the expression from stdin
  echo '\Set{x | x > 0}' | mscan parse - --display`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.output, _ = cmd.Flags().GetString("output")
			opts.noColor, _ = cmd.Flags().GetBool("no-color")
			opts.stdin = cmd.InOrStdin()
			opts.out = cmd.OutOrStdout()
			return runParse(args[0], opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.display, "display", "d", false, "Parse as display math")
	cmd.Flags().StringVarP(&opts.renderer, "renderer", "r", "", "Output: mathml or text (default from config)")
	_ = cmd.RegisterFlagCompletionFunc("renderer", cobra.FixedCompletions([]string{config.RendererMathML, config.RendererText}, cobra.ShellCompDirectiveNoFileComp))

	return cmd
}

func runParse(arg string, opts *parseOptions) error {
	if err := view.ValidateFormat(opts.output); err != nil {
		return err
	}
	if opts.out == nil {
		opts.out = os.Stdout
	}

	expr := arg
	if arg == "-" {
		if opts.stdin == nil {
			return fmt.Errorf("no standard input available")
		}
		data, err := io.ReadAll(opts.stdin)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		expr = strings.TrimSpace(string(data))
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
	if _, err := input.Renderer(rendererName); err != nil {
		return err
	}

	node, err := input.Grammar(cfg).Parse(expr)
	if err != nil {
		return describeError(expr, err)
	}
	math := mml.Math(node, opts.display)

	result := parseResult{
		Input:   expr,
		Display: opts.display,
		MathML:  mml.Serialize(math),
		Text:    mml.Text(math),
	}

	renderer := view.NewRenderer(view.Format(opts.output), opts.noColor)
	renderer.SetWriter(opts.out)

	if opts.output == "json" {
		return renderer.RenderJSON(result)
	}
	if rendererName == config.RendererText {
		renderer.RenderText(result.Text)
	} else {
		renderer.RenderText(result.MathML)
	}
	return nil
}

// describeError points at the offending position of expr.
func describeError(expr string, err error) error {
	var pe *tex.ParseError
	if !errors.As(err, &pe) || pe.Position > len(expr) {
		return fmt.Errorf("failed to parse: %w", err)
	}
	return fmt.Errorf("failed to parse: %w\n  %s\n  %s^", err, expr, strings.Repeat(" ", utf8.RuneCountInString(expr[:pe.Position])))
}
