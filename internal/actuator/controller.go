// internal/actuator/controller.go
package actuator

import (
	"context"
	"fmt"
	"time"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
)

// Controller is the idle/active/fault state machine of one output.
//
// Invariants:
//   - the output is never commanded on while in ModeFault
//   - ModeFault is left only through Reset
//   - a transient driver error keeps the mode and re-asserts next time
type Controller struct {
	id    string
	drv   Driver
	state State

	// the hardware may not reflect state.Mode
	pending bool

	// schedule over-limit latch, set at High and cleared at Low
	failsafe bool
}

func NewController(id string, drv Driver, now time.Time) *Controller {
	return &Controller{
		id:  id,
		drv: drv,
		state: State{
			ID:       id,
			Mode:     ModeIdle,
			Since:    now,
			Cause:    "boot",
			Override: OverrideAuto,
		},
		pending: true,
	}
}

func (c *Controller) State() State { return c.state }

// decision is what the automatic logic wants; hold keeps the current mode.
type decision struct {
	hold   bool
	active bool
	cause  string
}

func holdMode() decision { return decision{hold: true} }

// input is everything one evaluation looks at.
type input struct {
	settings boardcfg.ActuatorSettings
	manual   bool
	value    float64 // latest usable governing value
	hasValue bool
	gateOpen bool
}

// decide computes the target for one evaluation.
func (c *Controller) decide(in input, now time.Time) decision {
	switch c.state.Override {
	case OverrideOn:
		return decision{active: true, cause: "remote on"}
	case OverrideOff:
		return decision{active: false, cause: "remote off"}
	}

	a := in.settings
	if !a.Enabled {
		return decision{active: false, cause: "disabled"}
	}
	if in.manual {
		return holdMode()
	}
	if !in.gateOpen {
		return decision{active: false, cause: "gate closed"}
	}

	switch a.Direction {
	case boardcfg.DirectionSchedule:
		return c.schedule(in, now)
	case boardcfg.DirectionCycle:
		return c.cycle(in, now)
	}

	if !in.hasValue {
		return holdMode()
	}

	value := in.value
	idle := c.state.Mode != ModeActive

	switch a.Direction {
	case boardcfg.DirectionFalling:
		if idle && value < a.Low {
			return decision{active: true, cause: fmt.Sprintf("%s %v below %v", a.Sensor, value, a.Low)}
		}
		if !idle && value > a.High {
			return decision{active: false, cause: fmt.Sprintf("%s %v above %v", a.Sensor, value, a.High)}
		}
	default: // rising
		if idle && value > a.High {
			return decision{active: true, cause: fmt.Sprintf("%s %v above %v", a.Sensor, value, a.High)}
		}
		if !idle && value < a.Low {
			return decision{active: false, cause: fmt.Sprintf("%s %v below %v", a.Sensor, value, a.Low)}
		}
	}
	return holdMode()
}

func (c *Controller) schedule(in input, now time.Time) decision {
	a := in.settings
	if a.Sensor == "" {
		c.failsafe = false
	} else if in.hasValue {
		switch {
		case !c.failsafe && in.value >= a.High:
			c.failsafe = true
		case c.failsafe && in.value <= a.Low:
			c.failsafe = false
		}
	}
	if c.failsafe {
		return decision{active: false, cause: fmt.Sprintf("failsafe %s over %v", a.Sensor, a.High)}
	}

	on := a.HourOn*60 + a.MinuteOn
	off := a.HourOff*60 + a.MinuteOff
	if InWindow(now.Hour()*60+now.Minute(), on, off) {
		return decision{
			active: true,
			cause:  fmt.Sprintf("schedule %02d:%02d-%02d:%02d", a.HourOn, a.MinuteOn, a.HourOff, a.MinuteOff),
		}
	}
	return decision{active: false, cause: "outside schedule"}
}

// cycle times the current mode from state.Since. A usable sensor value
// extends the on phase until High and the off phase until below Low.
func (c *Controller) cycle(in input, now time.Time) decision {
	a := in.settings
	elapsed := now.Sub(c.state.Since)
	mixed := a.Sensor != "" && in.hasValue

	if c.state.Mode == ModeActive {
		if elapsed < time.Duration(a.OnSec)*time.Second {
			return holdMode()
		}
		if mixed && in.value < a.High {
			return holdMode()
		}
		return decision{active: false, cause: fmt.Sprintf("on for %ds", a.OnSec)}
	}

	if elapsed < time.Duration(a.OffSec)*time.Second {
		return holdMode()
	}
	if mixed && in.value >= a.Low {
		return holdMode()
	}
	return decision{active: true, cause: fmt.Sprintf("off for %ds", a.OffSec)}
}

// step drives the output toward the decision.
func (c *Controller) step(ctx context.Context, d decision, now time.Time) error {
	if c.state.Mode == ModeFault {
		// keep the output off while latched; retry if that never stuck
		if c.pending {
			if err := c.drv.Set(ctx, false); err == nil {
				c.pending = false
			}
		}
		return nil
	}

	if d.hold {
		if !c.pending {
			return nil
		}
		d = decision{active: c.state.Mode == ModeActive, cause: c.state.Cause}
	}

	target := ModeIdle
	if d.active {
		target = ModeActive
	}
	if target == c.state.Mode && !c.pending {
		return nil
	}

	if err := c.drv.Set(ctx, d.active); err != nil {
		if isFault(err) {
			return c.enterFault(ctx, err, now)
		}
		c.pending = true
		return fmt.Errorf("actuator %s: set %v: %w", c.id, d.active, err)
	}

	c.pending = false
	c.transition(target, d.cause, now)
	return nil
}

// check polls the optional Checker capability.
func (c *Controller) check(ctx context.Context, now time.Time) error {
	chk, ok := c.drv.(Checker)
	if !ok || c.state.Mode == ModeFault {
		return nil
	}
	err := chk.Check(ctx)
	if err == nil {
		return nil
	}
	if isFault(err) {
		return c.enterFault(ctx, err, now)
	}
	return fmt.Errorf("actuator %s: check: %w", c.id, err)
}

func (c *Controller) enterFault(ctx context.Context, cause error, now time.Time) error {
	c.transition(ModeFault, cause.Error(), now)
	c.state.Override = OverrideAuto

	// best effort: drop the output
	c.pending = c.drv.Set(ctx, false) != nil

	return &FaultError{ActuatorID: c.id, Err: cause}
}

// Command applies a remote directive immediately.
func (c *Controller) Command(ctx context.Context, cmd boardcfg.Command, now time.Time) error {
	switch cmd {
	case boardcfg.CommandReset:
		if c.state.Mode != ModeFault {
			c.state.Override = OverrideAuto
			return nil
		}
		c.state.Override = OverrideAuto
		c.transition(ModeIdle, "reset", now)
		c.pending = true
		return c.step(ctx, decision{active: false, cause: "reset"}, now)

	case boardcfg.CommandAuto:
		c.state.Override = OverrideAuto
		return nil

	case boardcfg.CommandOn:
		if c.state.Mode == ModeFault {
			return fmt.Errorf("actuator %s: on while in fault: %w", c.id, ErrRefused)
		}
		c.state.Override = OverrideOn
		return c.step(ctx, decision{active: true, cause: "remote on"}, now)

	case boardcfg.CommandOff:
		c.state.Override = OverrideOff
		if c.state.Mode == ModeFault {
			return nil
		}
		return c.step(ctx, decision{active: false, cause: "remote off"}, now)

	default:
		return fmt.Errorf("actuator %s: unknown command %q: %w", c.id, cmd, ErrRefused)
	}
}

func (c *Controller) transition(m Mode, cause string, now time.Time) {
	if c.state.Mode != m {
		c.state.Since = now
	}
	c.state.Mode = m
	c.state.Cause = cause
}

// InWindow reports whether t lies in [on, off), wrapping at midnight.
// The unit is the caller's (hours or minutes of the day).
func InWindow(t, on, off int) bool {
	if on == off {
		return false
	}
	if on < off {
		return t >= on && t < off
	}
	return t >= on || t < off
}
