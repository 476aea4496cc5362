// Package root provides the root command for the mscan CLI.
package root

import (
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mathscan/internal/cmd/completion"
	"github.com/open-cli-collective/mathscan/internal/cmd/configcmd"
	"github.com/open-cli-collective/mathscan/internal/cmd/find"
	initcmd "github.com/open-cli-collective/mathscan/internal/cmd/init"
	"github.com/open-cli-collective/mathscan/internal/cmd/parse"
	"github.com/open-cli-collective/mathscan/internal/cmd/typeset"
	"github.com/open-cli-collective/mathscan/internal/version"
)

// NewCmdRoot creates the root command for mscan.
func NewCmdRoot() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mscan",
		Short: "Find and typeset TeX math in documents",
		Long: `mscan is a CLI tool for finding TeX math in HTML and Markdown documents.

It locates math between delimiters such as \(...\) and $$...$$, even when
the math spans several text nodes, parses it with a TeX grammar that
includes the braket notation, and typesets it in place as MathML or
Unicode text.

Get started by running: mscan init`,
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version.Version,
	}

	// Global flags
	cmd.PersistentFlags().StringP("config", "c", "", "config file (default: ~/.config/mscan/config.yml)")
	cmd.PersistentFlags().StringP("output", "o", "", "output format: table, json, plain (default: table)")
	cmd.PersistentFlags().Bool("no-color", false, "disable colored output")

	// Set version template
	cmd.SetVersionTemplate("mscan version {{.Version}} (commit: " + version.Commit + ", built: " + version.Date + ")\n")

	// Subcommands
	cmd.AddCommand(initcmd.NewCmdInit())
	cmd.AddCommand(find.NewCmdFind())
	cmd.AddCommand(parse.NewCmdParse())
	cmd.AddCommand(typeset.NewCmdTypeset())
	cmd.AddCommand(configcmd.NewCmdConfig())
	cmd.AddCommand(completion.NewCmdCompletion())

	return cmd
}
