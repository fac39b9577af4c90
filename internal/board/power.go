// internal/board/power.go
package board

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
)

var ErrPowerProbe = errors.New("battery probe failed")

// powerLow reads the battery probe. The board is parked when the battery
// is below the minimum and the charger is not delivering.
func (o *Orchestrator) powerLow(ctx context.Context) (bool, error) {
	p := o.opts.Power
	if p.BatterySensor == "" {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.IOTimeout)
	defer cancel()

	v, err := o.d.Sensors.ReadOne(ctx, p.BatterySensor)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrPowerProbe, err)
	}
	if v >= p.MinVoltage {
		return false, nil
	}

	if p.ChargingSensor != "" {
		c, err := o.d.Sensors.ReadOne(ctx, p.ChargingSensor)
		if err == nil && c >= p.ChargingVoltage {
			return false, nil
		}
	}
	return true, nil
}

// guard checks the battery before a power hungry stage. On a low battery
// the cycle is cut short and the board sleeps as long as allowed.
func (o *Orchestrator) guard(ctx context.Context, s Stage, r *Result) bool {
	low, err := o.powerLow(ctx)
	if err != nil {
		r.record(s, err)
		return false
	}
	if !low {
		return false
	}

	r.PowerAbort = true
	r.NextWake = o.maxSleep()
	o.log.WithFields(log.Fields{
		"cycle": r.CycleID,
		"stage": s,
	}).Warn("battery low, parking board")
	return true
}

func (o *Orchestrator) maxSleep() time.Duration {
	if o.loaded {
		return o.cfg.General.MaxSleep()
	}
	if c, _, err := o.d.Store.Load(); err == nil || c.General.MaxSleepSec > 0 {
		return c.General.MaxSleep()
	}
	return time.Duration(boardcfg.DefaultMaxSleepSec) * time.Second
}
