// internal/board/health.go
package board

import (
	"time"

	"github.com/tamzrod/coolboard-agent/internal/status"
)

// health is the indicator-facing memory carried across cycles.
// Only the orchestrator touches it.
type health struct {
	snap     status.Snapshot
	errSince time.Time
}

func (h *health) reset() {
	h.snap = status.Snapshot{Health: status.HealthUnknown}
	h.errSince = time.Time{}
}

// settle folds a finished cycle into the snapshot.
func (h *health) settle(r Result, now time.Time) {
	switch {
	case r.PowerAbort:
		h.snap.Health = status.HealthDisabled
	case r.Offline:
		h.snap.Health = status.HealthStale
	case r.Failed() || len(r.Errors) > 0:
		h.snap.Health = status.HealthError
	default:
		h.snap.Health = status.HealthOK
	}

	if h.snap.Health == status.HealthOK {
		// recovery
		h.snap.LastErrorCode = 0
		h.snap.SecondsInError = 0
		h.errSince = time.Time{}
		return
	}

	if n := len(r.Errors); n > 0 {
		h.snap.LastErrorCode = errorCode(r.Errors[n-1])
	}
	if h.errSince.IsZero() {
		h.errSince = r.Started
	}
	secs := now.Sub(h.errSince) / time.Second
	if secs > 65535 {
		secs = 65535
	}
	if secs < 0 {
		secs = 0
	}
	h.snap.SecondsInError = uint16(secs)
}

func alertFor(r *Result) status.Alert {
	switch {
	case r.Offline:
		return status.AlertNetwork
	case len(r.Errors) > 0:
		return status.AlertError
	}
	return status.AlertNone
}

func (o *Orchestrator) show(s status.State, r *Result) {
	o.health.snap.State = s
	o.health.snap.Alert = alertFor(r)
	o.d.Status.Show(o.health.snap)
}
