// cmd/coolboard/commands/root.go
package commands

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version = "dev"

	configPath string
)

var rootCmd = &cobra.Command{
	Use:   "coolboard",
	Short: "Duty-cycle agent for environmental sensing boards",
	Long: `coolboard wakes on a schedule, reads the board's sensors, drives its
actuators, reports telemetry to the broker, applies remote configuration
and goes back to sleep.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the CLI. Errors are printed here, once.
func Execute() error {
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	err := rootCmd.Execute()
	if err != nil {
		color.New(color.FgRed, color.Bold).Fprintf(rootCmd.ErrOrStderr(), "error: %v\n", err)
	}
	return err
}

func SetVersionInfo(v, c string) {
	version = v
	rootCmd.Version = fmt.Sprintf("%s (commit: %s)", v, c)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "/etc/coolboard/agent.yaml", "agent config file")
}
