// cmd/coolboard/commands/run.go
package commands

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run duty cycles until stopped",
	Long: `Run duty cycles forever, sleeping between them. The agent stops on
SIGINT/SIGTERM or when a hardware driver reports a fatal fault.`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	a, err := buildAgent(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if addr := cfg.Metrics.Addr; addr != "" {
		go func() {
			if err := a.recorder.Serve(ctx, addr, a.log); err != nil {
				a.log.WithError(err).Error("metrics server failed")
			}
		}()
	}

	a.log.WithField("fw_version", cfg.Agent.FWVersion).Info("agent started")

	err = a.orch.Run(ctx)
	if errors.Is(err, context.Canceled) {
		a.log.Info("agent stopped")
		return nil
	}
	return err
}
