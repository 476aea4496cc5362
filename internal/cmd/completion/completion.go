// Package completion provides shell completion generation commands.
package completion

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// shell describes one supported shell.
type shell struct {
	name    string
	install string
	gen     func(root *cobra.Command, w io.Writer) error
}

var shells = []shell{
	{
		name: "bash",
		install: `  # Current session
  source <(mscan completion bash)

  # Every session (Linux)
  mscan completion bash > /etc/bash_completion.d/mscan`,
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenBashCompletion(w)
		},
	},
	{
		name: "zsh",
		install: `  # Enable completion once, if not already done
  echo "autoload -U compinit; compinit" >> ~/.zshrc

  # Every session
  mscan completion zsh > "${fpath[1]}/_mscan"`,
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenZshCompletion(w)
		},
	},
	{
		name: "fish",
		install: `  # Every session
  mscan completion fish > ~/.config/fish/completions/mscan.fish`,
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenFishCompletion(w, true)
		},
	},
	{
		name: "powershell",
		install: `  # Current session
  mscan completion powershell | Out-String | Invoke-Expression`,
		gen: func(root *cobra.Command, w io.Writer) error {
			return root.GenPowerShellCompletionWithDesc(w)
		},
	},
}

// NewCmdCompletion creates the completion command.
func NewCmdCompletion() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "completion",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for mscan.

Completions cover commands, flags, and the --renderer, --format and
--input-format values. See each sub-command's help for installation.`,
	}

	for _, sh := range shells {
		cmd.AddCommand(newCmdShell(sh))
	}

	return cmd
}

func newCmdShell(sh shell) *cobra.Command {
	return &cobra.Command{
		Use:                   sh.name,
		Short:                 fmt.Sprintf("Generate %s completion script", sh.name),
		Long:                  fmt.Sprintf("Generate the %s completion script for mscan.", sh.name),
		Example:               sh.install,
		Args:                  cobra.NoArgs,
		DisableFlagsInUseLine: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return sh.gen(cmd.Root(), cmd.OutOrStdout())
		},
	}
}
