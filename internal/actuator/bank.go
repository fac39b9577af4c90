// internal/actuator/bank.go
package actuator

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
	"github.com/tamzrod/coolboard-agent/internal/sensor"
)

// Bank owns every Controller for the life of the process and remembers
// the last valid value per sensor across cycles.
type Bank struct {
	ctrls     map[string]*Controller
	lastValid map[string]float64
}

func NewBank() *Bank {
	return &Bank{
		ctrls:     make(map[string]*Controller),
		lastValid: make(map[string]float64),
	}
}

func (b *Bank) Add(id string, drv Driver, now time.Time) {
	b.ctrls[id] = NewController(id, drv, now)
}

// Evaluate runs every configured actuator once, in config order.
// Returned errors are *FaultError for latched faults and wrapped driver
// errors for transient failures; neither stops the remaining actuators.
func (b *Bank) Evaluate(ctx context.Context, cfg boardcfg.BoardConfig, readings []sensor.Reading, now time.Time) ([]State, []error) {
	eff := b.remember(readings)

	var (
		states []State
		errs   []error
	)

	for _, a := range cfg.Actuators {
		c, ok := b.ctrls[a.ID]
		if !ok {
			if a.Enabled {
				errs = append(errs, fmt.Errorf("actuator %s: no driver configured", a.ID))
			}
			continue
		}

		if err := c.check(ctx, now); err != nil {
			errs = append(errs, err)
		}

		in := input{
			settings: a,
			manual:   cfg.General.Manual,
			gateOpen: sensor.GateOpen(eff, a.Gate),
		}
		if r, ok := sensor.Find(eff, a.Sensor); ok && r.Valid {
			in.value, in.hasValue = r.Value, true
		}

		if err := c.step(ctx, c.decide(in, now), now); err != nil {
			errs = append(errs, err)
		}
		states = append(states, c.State())
	}

	return states, errs
}

// Apply executes remote commands in actuator id order.
func (b *Bank) Apply(ctx context.Context, cmds map[string]boardcfg.Command, now time.Time) []error {
	ids := make([]string, 0, len(cmds))
	for id := range cmds {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var errs []error
	for _, id := range ids {
		c, ok := b.ctrls[id]
		if !ok {
			errs = append(errs, fmt.Errorf("actuator %s: unknown: %w", id, ErrRefused))
			continue
		}
		if err := c.Command(ctx, cmds[id], now); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// States returns the current states of the configured actuators in config order.
func (b *Bank) States(cfg boardcfg.BoardConfig) []State {
	var out []State
	for _, a := range cfg.Actuators {
		if c, ok := b.ctrls[a.ID]; ok {
			out = append(out, c.State())
		}
	}
	return out
}

// remember updates last-valid values and returns readings with invalid
// slots replaced by the last valid value seen for that sensor.
func (b *Bank) remember(readings []sensor.Reading) []sensor.Reading {
	eff := make([]sensor.Reading, len(readings))
	for i, r := range readings {
		if r.Valid {
			b.lastValid[r.SensorID] = r.Value
		} else if v, ok := b.lastValid[r.SensorID]; ok {
			r.Value = v
			r.Valid = true
		}
		eff[i] = r
	}
	return eff
}
