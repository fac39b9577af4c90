// cmd/coolboard/commands/validate.go
package commands

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/tamzrod/coolboard-agent/internal/config"
	"github.com/tamzrod/coolboard-agent/internal/store"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the agent config and the stored board config",
	RunE:  runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

var (
	okMark   = color.New(color.FgGreen).SprintFunc()
	warnMark = color.New(color.FgYellow).SprintFunc()
	failMark = color.New(color.FgRed, color.Bold).SprintFunc()
)

func runValidate(cmd *cobra.Command, args []string) error {
	return validate(cmd.OutOrStdout(), configPath)
}

func validate(out io.Writer, path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(out, "%s agent config %s\n  %v\n", failMark("✗"), path, err)
		return errors.New("invalid agent config")
	}
	fmt.Fprintf(out, "%s agent config %s (board %s, %d sensor(s), %d actuator(s))\n",
		okMark("✓"), path, cfg.Agent.BoardID, len(cfg.Sensors), len(cfg.Actuators))

	return checkStored(out, cfg)
}

func checkStored(out io.Writer, cfg *config.Config) error {
	st := store.New(cfg.Agent.StateDir, cfg.Defaults)

	bc, src, err := st.Load()
	var ce *store.ConfigError
	switch {
	case errors.Is(err, store.ErrNoFallback):
		fmt.Fprintf(out, "%s board config: %v\n", failMark("✗"), err)
		return err
	case errors.As(err, &ce):
		fmt.Fprintf(out, "%s board config: %v\n", warnMark("!"), err)
	case err != nil:
		fmt.Fprintf(out, "%s board config: %v\n", failMark("✗"), err)
		return err
	}

	fmt.Fprintf(out, "%s board config v%d from %s (wake %ds)\n",
		okMark("✓"), bc.Version, src, bc.General.WakeIntervalSec)
	return nil
}
