package configcmd

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/open-cli-collective/mathscan/internal/config"
)

// NewCmdClear creates the config clear command.
func NewCmdClear() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove stored configuration",
		Long:  `Delete the mscan configuration file. Environment variables will still be used if set.`,
		Example: `  # Clear config
  mscan config clear`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			configPath, _ := cmd.Flags().GetString("config")
			noColor, _ := cmd.Flags().GetBool("no-color")
			return runClear(configPath, noColor, cmd.OutOrStdout())
		},
	}

	return cmd
}

func runClear(configPath string, noColor bool, out io.Writer) error {
	if noColor {
		color.NoColor = true
	}

	configPath = config.ResolvePath(configPath)

	err := os.Remove(configPath)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove config file: %w", err)
	}

	green := color.New(color.FgGreen)
	dim := color.New(color.Faint)

	if os.IsNotExist(err) {
		_, _ = green.Fprintf(out, "✓ No config file to remove\n")
	} else {
		_, _ = green.Fprintf(out, "✓ Configuration cleared from %s\n", configPath)
	}

	// Check if env vars are set
	if active := activeEnvVars(); len(active) > 0 {
		_, _ = dim.Fprintf(out, "\nNote: Environment variables will still be used: %v\n", active)
	}

	return nil
}

func activeEnvVars() []string {
	var active []string
	for _, v := range envVars {
		if os.Getenv(v) != "" {
			active = append(active, v)
		}
	}
	return active
}
