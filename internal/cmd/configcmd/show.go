package configcmd

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mathscan/internal/config"
	"github.com/open-cli-collective/mathscan/internal/view"
)

// NewCmdShow creates the config show command.
func NewCmdShow() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Display current configuration",
		Long:  `Display the current mscan configuration with source indicators.`,
		Example: `  # Show current config
  mscan config show`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			output, _ := cmd.Flags().GetString("output")
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runShow(configPath, output, noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

// setting is one displayed configuration value.
type setting struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Source string `json:"source"`
}

func runShow(configPath, output string, noColor bool, out io.Writer) error {
	if err := view.ValidateFormat(output); err != nil {
		return err
	}

	configPath = config.ResolvePath(configPath)

	// Load file config (may not exist)
	fileCfg, fileErr := config.Load(configPath)
	if fileErr != nil {
		fileCfg = config.Default()
	}

	// Load full config with env overrides
	cfg, err := config.LoadWithEnv(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	def := config.Default()

	var settings []setting
	add := func(name, value, fileValue, defValue, envVar string) {
		// Determine source
		source := "default"
		if fileValue != defValue {
			source = "config"
		}
		if envVar != "" && os.Getenv(envVar) != "" && value != fileValue {
			source = envVar
		}
		settings = append(settings, setting{Name: name, Value: value, Source: source})
	}

	add("Inline math", formatPairs(cfg.InlineMath), formatPairs(fileCfg.InlineMath), formatPairs(def.InlineMath), "MSCAN_INLINE_DOLLARS")
	add("Display math", formatPairs(cfg.DisplayMath), formatPairs(fileCfg.DisplayMath), formatPairs(def.DisplayMath), "")
	add("Escapes", strconv.FormatBool(cfg.ProcessEscapes), strconv.FormatBool(fileCfg.ProcessEscapes), strconv.FormatBool(def.ProcessEscapes), "MSCAN_PROCESS_ESCAPES")
	add("Environments", strconv.FormatBool(cfg.ProcessEnvironments), strconv.FormatBool(fileCfg.ProcessEnvironments), strconv.FormatBool(def.ProcessEnvironments), "MSCAN_PROCESS_ENVIRONMENTS")
	add("Refs", strconv.FormatBool(cfg.ProcessRefs), strconv.FormatBool(fileCfg.ProcessRefs), strconv.FormatBool(def.ProcessRefs), "MSCAN_PROCESS_REFS")
	add("Skip tags", strings.Join(cfg.SkipTags, ", "), strings.Join(fileCfg.SkipTags, ", "), "", "")
	add("Ignore class", cfg.IgnoreClass, fileCfg.IgnoreClass, def.IgnoreClass, "")
	add("Process class", cfg.ProcessClass, fileCfg.ProcessClass, def.ProcessClass, "")
	add("Renderer", cfg.Renderer, fileCfg.Renderer, def.Renderer, "MSCAN_RENDERER")
	add("Output", cfg.OutputFormat, fileCfg.OutputFormat, def.OutputFormat, "MSCAN_OUTPUT_FORMAT")
	add("Macros", formatMacros(cfg.Macros), formatMacros(fileCfg.Macros), "", "")

	r := view.NewRenderer(view.Format(output), noColor)
	r.SetWriter(out)

	if output == "json" {
		return r.RenderJSON(settings)
	}

	for _, st := range settings {
		r.RenderKeyValue(st.Name, st.Value, st.Source)
	}

	dim := color.New(color.Faint)
	fmt.Fprintln(out)
	_, _ = dim.Fprintf(out, "Config file: %s\n", configPath)
	if fileErr != nil {
		_, _ = dim.Fprintln(out, "(file not found)")
	}

	return nil
}

// formatPairs renders delimiter pairs as "\( \), $$ $$".
func formatPairs(pairs [][]string) string {
	parts := make([]string, 0, len(pairs))
	for _, p := range pairs {
		parts = append(parts, strings.Join(p, " "))
	}
	return strings.Join(parts, ", ")
}

func formatMacros(macros map[string]string) string {
	names := make([]string, 0, len(macros))
	for name := range macros {
		names = append(names, `\`+name)
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
