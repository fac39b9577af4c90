// internal/board/result.go
package board

import (
	"errors"
	"time"

	"github.com/tamzrod/coolboard-agent/internal/actuator"
	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
	"github.com/tamzrod/coolboard-agent/internal/clock"
	"github.com/tamzrod/coolboard-agent/internal/messenger"
	"github.com/tamzrod/coolboard-agent/internal/sensor"
	"github.com/tamzrod/coolboard-agent/internal/store"
)

// Stage names one step of the duty cycle.
type Stage string

const (
	StageBoot      Stage = "booting"
	StageLoad      Stage = "loading_config"
	StageSync      Stage = "syncing"
	StageConnect   Stage = "connecting"
	StageSense     Stage = "sensing"
	StageActuate   Stage = "actuating"
	StagePublish   Stage = "publishing"
	StageConfigure Stage = "configuring"
)

// stageCodes feed the status block's last-error slot.
var stageCodes = map[Stage]uint16{
	StageBoot:      10,
	StageLoad:      20,
	StageSync:      30,
	StageConnect:   40,
	StageSense:     50,
	StageActuate:   60,
	StagePublish:   70,
	StageConfigure: 80,
}

// Kind classifies an error for telemetry and metrics.
type Kind string

const (
	KindConfig       Kind = "config"
	KindStorage      Kind = "storage"
	KindConnectivity Kind = "connectivity"
	KindSensor       Kind = "sensor"
	KindFault        Kind = "actuator_fault"
	KindClock        Kind = "clock"
	KindPower        Kind = "power"
	KindOther        Kind = "other"
)

type StageError struct {
	Stage   Stage  `json:"stage"`
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`

	Err error `json:"-"`
}

// Result is the outcome of one duty cycle. It is logged and counted,
// never persisted.
type Result struct {
	CycleID    string       `json:"cycle_id"`
	Started    time.Time    `json:"started"`
	Finished   time.Time    `json:"finished"`
	Attempted  []Stage      `json:"attempted"`
	Succeeded  []Stage      `json:"succeeded"`
	Errors     []StageError `json:"errors"`
	Offline    bool         `json:"offline"`
	Delivered  bool         `json:"delivered"`
	Buffered   bool         `json:"buffered"`
	Replayed   int          `json:"replayed"`
	Backlog    int          `json:"offline_backlog"`
	PowerAbort bool         `json:"power_abort"`
	Fatal      bool         `json:"fatal"`

	Readings      []sensor.Reading `json:"readings"`
	Actuators     []actuator.State `json:"actuators"`
	ConfigVersion uint64           `json:"config_version"`
	ConfigSource  string           `json:"config_source"`
	ConfigApplied bool             `json:"config_applied"`
	NextWake      time.Duration    `json:"next_wake"`

	// Err is the fatal hardware error that ended the loop, if any.
	Err error `json:"-"`
}

// Failed reports whether a stage was attempted without succeeding.
func (r Result) Failed() bool {
	return len(r.Attempted) > len(r.Succeeded)
}

func (r *Result) attempt(s Stage) { r.Attempted = append(r.Attempted, s) }

func (r *Result) succeed(s Stage) { r.Succeeded = append(r.Succeeded, s) }

func (r *Result) record(s Stage, err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, StageError{
		Stage:   s,
		Kind:    kindOf(err),
		Message: err.Error(),
		Err:     err,
	})
	if isFatal(err) && r.Err == nil {
		r.Fatal = true
		r.Err = err
	}
}

// ---- CLASSIFICATION ----

func kindOf(err error) Kind {
	var (
		ce   *store.ConfigError
		se   *store.StorageError
		conn *messenger.ConnectivityError
		sens *sensor.SensorError
		fe   *actuator.FaultError
		cs   *clock.SyncError
	)
	switch {
	case errors.Is(err, ErrPowerProbe):
		return KindPower
	case errors.As(err, &ce),
		errors.Is(err, boardcfg.ErrInvalid),
		errors.Is(err, boardcfg.ErrSchema),
		errors.Is(err, boardcfg.ErrUnknownTarget),
		errors.Is(err, messenger.ErrMalformed),
		errors.Is(err, store.ErrNoFallback):
		return KindConfig
	case errors.As(err, &se):
		return KindStorage
	case errors.As(err, &conn):
		return KindConnectivity
	case errors.As(err, &sens):
		return KindSensor
	case errors.As(err, &fe), errors.Is(err, actuator.ErrRefused):
		return KindFault
	case errors.As(err, &cs):
		return KindClock
	}
	return KindOther
}

// isFatal looks for a hardware error that declares itself unrecoverable.
func isFatal(err error) bool {
	var f interface{ Fatal() bool }
	return errors.As(err, &f) && f.Fatal()
}

// errorCode prefers a code carried by the error itself and falls back to
// the stage code.
func errorCode(se StageError) uint16 {
	var c interface{ Code() uint16 }
	if errors.As(se.Err, &c) {
		return c.Code()
	}
	if code, ok := stageCodes[se.Stage]; ok {
		return code
	}
	return 1
}
