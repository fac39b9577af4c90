// cmd/coolboard/commands/once.go
package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Run a single duty cycle and print its result",
	Long: `Run exactly one duty cycle and print the cycle result as JSON.
Useful from cron or a hardware wake hook where the OS handles the sleep.`,
	RunE: runOnce,
}

func init() {
	rootCmd.AddCommand(onceCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	a, err := buildAgent(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.Close()

	res := a.orch.RunCycle(cmd.Context())

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if err := enc.Encode(res); err != nil {
		return err
	}

	if res.Fatal {
		return fmt.Errorf("fatal hardware error: %w", res.Err)
	}
	return nil
}
