// cmd/coolboard/commands/agent.go
package commands

import (
	"fmt"
	"io"
	"os"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/coolboard-agent/internal/actuator"
	"github.com/tamzrod/coolboard-agent/internal/board"
	"github.com/tamzrod/coolboard-agent/internal/clock"
	"github.com/tamzrod/coolboard-agent/internal/config"
	"github.com/tamzrod/coolboard-agent/internal/fieldbus"
	"github.com/tamzrod/coolboard-agent/internal/messenger"
	"github.com/tamzrod/coolboard-agent/internal/metrics"
	"github.com/tamzrod/coolboard-agent/internal/outbox"
	"github.com/tamzrod/coolboard-agent/internal/sensor"
	"github.com/tamzrod/coolboard-agent/internal/status"
	"github.com/tamzrod/coolboard-agent/internal/store"
)

// loadConfig is Load -> Validate -> Normalize.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load failed: %w", err)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func setupLogging(lc config.LogConfig, out io.Writer) *log.Entry {
	logger := log.New()
	logger.SetOutput(out)

	if lvl, err := log.ParseLevel(lc.Level); err == nil {
		logger.SetLevel(lvl)
	}
	if lc.Format == "json" {
		logger.SetFormatter(&log.JSONFormatter{})
	} else {
		logger.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}
	return log.NewEntry(logger)
}

// agent is one fully wired board.
type agent struct {
	cfg      *config.Config
	orch     *board.Orchestrator
	recorder *metrics.Recorder
	log      *log.Entry

	closers []func() error
}

func (a *agent) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.WithError(err).Debug("close failed")
		}
	}
}

func buildAgent(cfg *config.Config, console io.Writer) (*agent, error) {
	logger := setupLogging(cfg.Log, os.Stderr).WithField("board", cfg.Agent.BoardID)
	a := &agent{cfg: cfg, log: logger}

	// one Modbus link per endpoint, shared by sensors, relays and status
	pool := fieldbus.NewPool()
	a.closers = append(a.closers, pool.Close)

	sensors, err := sensor.Build(cfg.Sensors, pool)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("sensor build failed: %w", err)
	}

	bank, err := actuator.Build(cfg.Actuators, pool, time.Now())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("actuator build failed: %w", err)
	}

	ind, err := status.Build(cfg.Status, pool, console, logger.WithField("component", "status"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("status build failed: %w", err)
	}

	msg, err := messenger.Build(cfg, logger.WithField("component", "messenger"))
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("messenger build failed: %w", err)
	}
	a.closers = append(a.closers, msg.Close)

	ob, err := outbox.Build(cfg.Outbox, cfg.Agent.BoardID)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("outbox build failed: %w", err)
	}
	if c, ok := ob.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	fw := cfg.Agent.FWVersion
	if fw == "dev" && version != "dev" {
		fw = version
	}

	a.recorder = metrics.New()

	a.orch, err = board.New(board.Deps{
		Store:     store.New(cfg.Agent.StateDir, cfg.Defaults),
		Clock:     clock.Build(cfg.Clock),
		Sensors:   sensors,
		Actuators: bank,
		Messenger: msg,
		Outbox:    ob,
		Status:    ind,
		Observer:  a.recorder,
		Log:       logger,
	}, board.Options{
		BoardID:     cfg.Agent.BoardID,
		FWVersion:   fw,
		Power:       cfg.Power,
		SyncTimeout: syncBudget(cfg.Clock),
		IOTimeout:   ioBudget(cfg),
		Listen:      time.Duration(cfg.Broker.ListenMs) * time.Millisecond,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func syncBudget(c config.ClockConfig) time.Duration {
	return time.Duration(c.TimeoutMs*len(c.Servers)) * time.Millisecond
}

// ioBudget covers every driver timing out in turn.
func ioBudget(cfg *config.Config) time.Duration {
	total := time.Second
	for _, s := range cfg.Sensors {
		total += time.Duration(s.TimeoutMs) * time.Millisecond
	}
	for _, a := range cfg.Actuators {
		total += time.Duration(a.TimeoutMs) * time.Millisecond
	}
	return total
}
