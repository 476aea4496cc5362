package configcmd

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mathscan/internal/config"
	"github.com/open-cli-collective/mathscan/internal/input"
	"github.com/open-cli-collective/mathscan/pkg/mml"
)

// sampleMath is parsed to check the grammar end to end.
const sampleMath = `\Set{x \in \mathbb{R} | \frac{x}{2} < 1}`

// NewCmdTest creates the config test command.
func NewCmdTest() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test",
		Short: "Check the configuration",
		Long: `Check that the current configuration is usable: the delimiters compile,
the renderer exists, and every macro expands to valid TeX.`,
		Example: `  # Test configuration
  mscan config test`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runTest(configPath, noColor, cmd.OutOrStdout(), nil)
		},
	}

	return cmd
}

func runTest(configPath string, noColor bool, out io.Writer, cfg *config.Config) error {
	if noColor {
		color.NoColor = true
	}

	if cfg == nil {
		var err error
		configPath = config.ResolvePath(configPath)
		cfg, err = config.LoadWithEnv(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w (run 'mscan init' to configure)", err)
		}
		fmt.Fprintf(out, "Testing configuration from %s...\n", configPath)
	}

	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	fail := func(step string, err error) error {
		_, _ = red.Fprintf(out, "✗ %s: %v\n", step, err)
		fmt.Fprintln(out, "\nCheck your settings with: mscan config show")
		fmt.Fprintln(out, "Reconfigure with: mscan init")
		return fmt.Errorf("%s: %w", step, err)
	}

	if err := cfg.Validate(); err != nil {
		return fail("invalid config", err)
	}
	_, _ = green.Fprintln(out, "✓ Configuration valid")

	src, err := input.Source(cfg)
	if err != nil {
		return fail("delimiters failed", err)
	}
	_, _ = green.Fprintf(out, "✓ Delimiters compiled (%d inline, %d display)\n", len(cfg.InlineMath), len(cfg.DisplayMath))

	if _, err := input.Renderer(cfg.Renderer); err != nil {
		return fail("renderer unavailable", err)
	}

	node, err := src.Grammar().Parse(sampleMath)
	if err != nil {
		return fail("sample failed to parse", err)
	}
	_, _ = green.Fprintf(out, "✓ Sample parsed: %s\n", mml.Text(mml.Math(node, false)))

	if err := input.CheckMacros(src.Grammar(), cfg.Macros); err != nil {
		return fail("macro failed", err)
	}
	if len(cfg.Macros) > 0 {
		_, _ = green.Fprintf(out, "✓ %d macro(s) verified\n", len(cfg.Macros))
	}

	return nil
}
