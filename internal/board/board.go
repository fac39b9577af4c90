// internal/board/board.go
package board

import (
	"context"
	"errors"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/coolboard-agent/internal/actuator"
	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
	"github.com/tamzrod/coolboard-agent/internal/config"
	"github.com/tamzrod/coolboard-agent/internal/messenger"
	"github.com/tamzrod/coolboard-agent/internal/outbox"
	"github.com/tamzrod/coolboard-agent/internal/sensor"
	"github.com/tamzrod/coolboard-agent/internal/status"
	"github.com/tamzrod/coolboard-agent/internal/store"
)

// ---- COLLABORATORS ----

type ConfigStore interface {
	Load() (boardcfg.BoardConfig, store.Source, error)
	Persist(c boardcfg.BoardConfig) error
}

type Clock interface {
	Sync(ctx context.Context) error
	Now() time.Time
	Synced() bool
}

type Sensors interface {
	ReadAll(ctx context.Context, cfg boardcfg.BoardConfig, now time.Time) []sensor.Reading
	ReadOne(ctx context.Context, id string) (float64, error)
}

type Actuators interface {
	Evaluate(ctx context.Context, cfg boardcfg.BoardConfig, readings []sensor.Reading, now time.Time) ([]actuator.State, []error)
	Apply(ctx context.Context, cmds map[string]boardcfg.Command, now time.Time) []error
	States(cfg boardcfg.BoardConfig) []actuator.State
}

type Messenger interface {
	Connect(ctx context.Context, cr messenger.Credentials) error
	Publish(ctx context.Context, p messenger.TelemetryPacket) error
	Resend(ctx context.Context, raw []byte) error
	ReportConfig(ctx context.Context, c boardcfg.BoardConfig) error
	FetchConfigUpdates(ctx context.Context) (*boardcfg.Delta, error)
	Connected() bool
	Close() error
}

// Observer receives every finished cycle.
type Observer interface {
	ObserveCycle(r Result)
}

// Sleeper suspends the board between cycles.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

// TimerSleeper waits on a timer; it stands in for the hardware deep sleep.
type TimerSleeper struct{}

func (TimerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ---- CONSTRUCTION ----

type Deps struct {
	Store     ConfigStore
	Clock     Clock
	Sensors   Sensors
	Actuators Actuators
	Messenger Messenger
	Outbox    outbox.Outbox
	Status    status.Indicator
	Observer  Observer
	Sleeper   Sleeper
	Log       *log.Entry
}

type Options struct {
	BoardID   string
	FWVersion string
	Power     config.PowerConfig

	SyncTimeout time.Duration
	IOTimeout   time.Duration // sensing and actuation
	Listen      time.Duration // config listen window
}

const defaultStageTimeout = 30 * time.Second

// Orchestrator runs duty cycles. One instance per process.
type Orchestrator struct {
	d    Deps
	opts Options
	log  *log.Entry

	cfg    boardcfg.BoardConfig
	source store.Source
	loaded bool

	health health
}

func New(d Deps, opts Options) (*Orchestrator, error) {
	if d.Store == nil {
		return nil, errors.New("board: config store required")
	}
	if d.Clock == nil {
		return nil, errors.New("board: clock required")
	}
	if d.Sensors == nil {
		return nil, errors.New("board: sensors required")
	}
	if d.Actuators == nil {
		return nil, errors.New("board: actuators required")
	}
	if d.Messenger == nil {
		return nil, errors.New("board: messenger required")
	}
	if opts.BoardID == "" {
		return nil, errors.New("board: board id required")
	}

	if d.Outbox == nil {
		d.Outbox = outbox.Nop{}
	}
	if d.Status == nil {
		d.Status = status.Nop{}
	}
	if d.Sleeper == nil {
		d.Sleeper = TimerSleeper{}
	}
	if d.Log == nil {
		d.Log = log.NewEntry(log.StandardLogger())
	}

	if opts.SyncTimeout <= 0 {
		opts.SyncTimeout = defaultStageTimeout
	}
	if opts.IOTimeout <= 0 {
		opts.IOTimeout = defaultStageTimeout
	}

	o := &Orchestrator{
		d:    d,
		opts: opts,
		log:  d.Log.WithField("board", opts.BoardID),
	}
	o.health.reset()
	return o, nil
}

// Config returns the record the last cycle ran with.
func (o *Orchestrator) Config() (boardcfg.BoardConfig, bool) {
	return o.cfg, o.loaded
}

// Run loops cycles until ctx ends or a stage reports a fatal hardware
// error.
func (o *Orchestrator) Run(ctx context.Context) error {
	for {
		res := o.RunCycle(ctx)
		if res.Err != nil {
			o.log.WithError(res.Err).Error("fatal hardware error, stopping")
			return res.Err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := o.d.Sleeper.Sleep(ctx, res.NextWake); err != nil {
			return err
		}
	}
}
