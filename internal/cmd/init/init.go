// Package init provides the init command for mscan.
package init

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mathscan/internal/config"
	"github.com/open-cli-collective/mathscan/internal/input"
)

// Feature keys offered in the form.
const (
	featureEscapes      = "escapes"
	featureEnvironments = "environments"
	featureRefs         = "refs"
)

type initOptions struct {
	configPath    string
	renderer      string
	inlineDollars bool
	noVerify      bool
	yes           bool

	out io.Writer
}

// choices are the answers collected by the form.
type choices struct {
	inlineDollars bool
	renderer      string
	output        string
	features      []string
}

// NewCmdInit creates the init command.
func NewCmdInit() *cobra.Command {
	opts := &initOptions{}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize mscan configuration",
		Long: `Initialize mscan with your preferred math delimiters and renderer.

This command will guide you through choosing which delimiters mark math,
which TeX extras to recognize outside of math, and how typeset math is
rendered. The configuration will be saved to ~/.config/mscan/config.yml.`,
		Example: `  # Interactive setup
  mscan init

  # Accept the defaults, with $...$ as inline math
  mscan init --yes --inline-dollars`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts.configPath, _ = cmd.Flags().GetString("config")
			opts.out = cmd.OutOrStdout()
			return runInit(opts)
		},
	}

	cmd.Flags().StringVar(&opts.renderer, "renderer", "", "Renderer: mathml or text")
	cmd.Flags().BoolVar(&opts.inlineDollars, "inline-dollars", false, "Treat $...$ as inline math")
	cmd.Flags().BoolVar(&opts.noVerify, "no-verify", false, "Skip configuration verification")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "Skip prompts and use flags and defaults")

	return cmd
}

func runInit(opts *initOptions) error {
	if opts.out == nil {
		opts.out = os.Stdout
	}
	configPath := config.ResolvePath(opts.configPath)

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !opts.yes {
		var overwrite bool
		err := huh.NewConfirm().
			Title("Configuration already exists").
			Description(fmt.Sprintf("Overwrite %s?", configPath)).
			Value(&overwrite).
			Run()
		if err != nil {
			return err
		}
		if !overwrite {
			fmt.Fprintln(opts.out, "Initialization cancelled.")
			return nil
		}
	}

	c := choices{
		inlineDollars: opts.inlineDollars,
		renderer:      opts.renderer,
		features:      []string{featureEscapes, featureEnvironments, featureRefs},
	}
	if c.renderer == "" {
		c.renderer = config.RendererMathML
	}

	if !opts.yes {
		if err := newForm(&c).Run(); err != nil {
			return err
		}
	}

	cfg := config.Default()
	c.apply(cfg)

	// Validate
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Verify unless skipped
	if !opts.noVerify {
		fmt.Fprint(opts.out, "Verifying configuration... ")
		if err := verifyConfig(cfg); err != nil {
			fmt.Fprintln(opts.out, "failed!")
			return fmt.Errorf("configuration verification failed: %w", err)
		}
		fmt.Fprintln(opts.out, "success!")
	}

	// Save configuration
	if err := cfg.Save(configPath); err != nil {
		return err
	}

	fmt.Fprintf(opts.out, "\nConfiguration saved to %s\n", configPath)
	fmt.Fprintln(opts.out, "\nYou're all set! Try running:")
	fmt.Fprintln(opts.out, "  mscan parse '\\frac{1}{2}'")
	fmt.Fprintln(opts.out, "  mscan typeset <file>")

	return nil
}

func newForm(c *choices) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Inline dollars").
				Description("Treat $...$ as inline math? Off by default, since prices use dollar signs").
				Value(&c.inlineDollars),

			huh.NewMultiSelect[string]().
				Title("TeX outside of math").
				Description("What to recognize outside of math delimiters").
				Options(
					huh.NewOption(`\$ escapes`, featureEscapes).Selected(true),
					huh.NewOption(`\begin{...}\end{...} environments`, featureEnvironments).Selected(true),
					huh.NewOption(`\ref and \eqref`, featureRefs).Selected(true),
				).
				Value(&c.features),

			huh.NewSelect[string]().
				Title("Renderer").
				Description("How typeset math is written into documents").
				Options(
					huh.NewOption("MathML", config.RendererMathML),
					huh.NewOption("Unicode text", config.RendererText),
				).
				Value(&c.renderer),

			huh.NewSelect[string]().
				Title("Output format").
				Description("Default format for listings").
				Options(
					huh.NewOption("table", ""),
					huh.NewOption("json", "json"),
					huh.NewOption("plain", "plain"),
				).
				Value(&c.output),
		),
	)
}

// apply writes the answers into cfg.
func (c choices) apply(cfg *config.Config) {
	if c.inlineDollars {
		cfg.InlineMath = append(cfg.InlineMath, []string{"$", "$"})
	}
	cfg.ProcessEscapes = false
	cfg.ProcessEnvironments = false
	cfg.ProcessRefs = false
	for _, f := range c.features {
		switch f {
		case featureEscapes:
			cfg.ProcessEscapes = true
		case featureEnvironments:
			cfg.ProcessEnvironments = true
		case featureRefs:
			cfg.ProcessRefs = true
		}
	}
	if c.renderer != "" {
		cfg.Renderer = c.renderer
	}
	cfg.OutputFormat = c.output
}

// verifyConfig checks that the delimiters compile and that every macro,
// called with placeholder arguments, expands to valid TeX.
func verifyConfig(cfg *config.Config) error {
	src, err := input.Source(cfg)
	if err != nil {
		return err
	}
	if _, err := input.Renderer(cfg.Renderer); err != nil {
		return err
	}

	return input.CheckMacros(src.Grammar(), cfg.Macros)
}
