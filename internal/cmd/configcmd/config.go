// Package configcmd provides config management commands.
package configcmd

import (
	"github.com/spf13/cobra"
)

// envVars lists every environment variable that overrides the config file.
var envVars = []string{
	"MSCAN_RENDERER",
	"MSCAN_OUTPUT_FORMAT",
	"MSCAN_PROCESS_ESCAPES",
	"MSCAN_PROCESS_ENVIRONMENTS",
	"MSCAN_PROCESS_REFS",
	"MSCAN_INLINE_DOLLARS",
}

// NewCmdConfig creates the config command.
func NewCmdConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage mscan configuration",
		Long:  `Commands for viewing, testing, and clearing mscan configuration.`,
	}

	cmd.AddCommand(NewCmdShow())
	cmd.AddCommand(NewCmdTest())
	cmd.AddCommand(NewCmdClear())

	return cmd
}
