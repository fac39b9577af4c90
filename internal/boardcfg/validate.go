// internal/boardcfg/validate.go
package boardcfg

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every Validate failure.
var ErrInvalid = errors.New("invalid board config")

// Validate checks the record's internal consistency.
// It performs declarative validation only and MUST NOT mutate the record.
func (c BoardConfig) Validate() error {
	// ------------------------------------------------------------
	// GENERAL
	// ------------------------------------------------------------

	g := c.General
	if g.WakeIntervalSec < MinWakeIntervalSec {
		return fmt.Errorf(
			"%w: wake_interval_sec %d below minimum %d",
			ErrInvalid,
			g.WakeIntervalSec,
			MinWakeIntervalSec,
		)
	}
	if g.RetryWakeSec <= 0 || g.RetryWakeSec >= g.WakeIntervalSec {
		return fmt.Errorf(
			"%w: retry_wake_sec %d must be in (0, wake_interval_sec=%d)",
			ErrInvalid,
			g.RetryWakeSec,
			g.WakeIntervalSec,
		)
	}
	if g.MaxSleepSec < g.WakeIntervalSec {
		return fmt.Errorf(
			"%w: max_sleep_sec %d below wake_interval_sec %d",
			ErrInvalid,
			g.MaxSleepSec,
			g.WakeIntervalSec,
		)
	}
	if g.LowPowerFactor < 1 {
		return fmt.Errorf("%w: low_power_factor must be >= 1", ErrInvalid)
	}

	// ------------------------------------------------------------
	// CONNECTIVITY
	// ------------------------------------------------------------

	n := c.Connectivity
	if n.ConnectRetries < 1 {
		return fmt.Errorf("%w: connect_retries must be >= 1", ErrInvalid)
	}
	if n.RetryBackoffMs <= 0 || n.TimeoutMs <= 0 {
		return fmt.Errorf("%w: retry_backoff_ms and timeout_ms must be > 0", ErrInvalid)
	}

	// ------------------------------------------------------------
	// SENSORS
	// ------------------------------------------------------------

	sensors := make(map[string]SensorSettings, len(c.Sensors))
	for _, s := range c.Sensors {
		if s.ID == "" {
			return fmt.Errorf("%w: sensor with empty id", ErrInvalid)
		}
		if _, dup := sensors[s.ID]; dup {
			return fmt.Errorf("%w: duplicate sensor id %q", ErrInvalid, s.ID)
		}
		sensors[s.ID] = s

		if !s.Enabled {
			continue
		}
		if !(s.Range.Min < s.Range.Max) {
			return fmt.Errorf(
				"%w: sensor %q: range min %v must be below max %v",
				ErrInvalid,
				s.ID,
				s.Range.Min,
				s.Range.Max,
			)
		}
		if b := s.Band; b != nil {
			if b.Low > b.High || b.Low < s.Range.Min || b.High > s.Range.Max {
				return fmt.Errorf(
					"%w: sensor %q: band [%v, %v] outside range [%v, %v]",
					ErrInvalid,
					s.ID,
					b.Low,
					b.High,
					s.Range.Min,
					s.Range.Max,
				)
			}
		}
	}

	// ------------------------------------------------------------
	// ACTUATORS
	// ------------------------------------------------------------

	seen := make(map[string]struct{}, len(c.Actuators))
	for _, a := range c.Actuators {
		if a.ID == "" {
			return fmt.Errorf("%w: actuator with empty id", ErrInvalid)
		}
		if _, dup := seen[a.ID]; dup {
			return fmt.Errorf("%w: duplicate actuator id %q", ErrInvalid, a.ID)
		}
		seen[a.ID] = struct{}{}

		if a.HourOn < 0 || a.HourOn > 23 || a.HourOff < 0 || a.HourOff > 23 {
			return fmt.Errorf("%w: actuator %q: hours must be in 0..23", ErrInvalid, a.ID)
		}
		if a.MinuteOn < 0 || a.MinuteOn > 59 || a.MinuteOff < 0 || a.MinuteOff > 59 {
			return fmt.Errorf("%w: actuator %q: minutes must be in 0..59", ErrInvalid, a.ID)
		}

		if !a.Enabled {
			continue
		}

		switch a.Direction {
		case DirectionRising, DirectionFalling:
		case DirectionSchedule:
			if a.HourOn == a.HourOff && a.MinuteOn == a.MinuteOff {
				return fmt.Errorf("%w: actuator %q: empty schedule window", ErrInvalid, a.ID)
			}
		case DirectionCycle:
			if a.OnSec <= 0 || a.OffSec <= 0 {
				return fmt.Errorf("%w: actuator %q: on_sec and off_sec must be positive", ErrInvalid, a.ID)
			}
		default:
			return fmt.Errorf("%w: actuator %q: unknown direction %q", ErrInvalid, a.ID, a.Direction)
		}

		// schedule and cycle run on the clock alone when no sensor is named
		timed := a.Direction == DirectionSchedule || a.Direction == DirectionCycle
		if !timed || a.Sensor != "" {
			if err := checkSetpoints(a, sensors); err != nil {
				return err
			}
		}

		if gt := a.Gate; gt != nil {
			gs, ok := sensors[gt.Sensor]
			if !ok || !gs.Enabled {
				return fmt.Errorf(
					"%w: actuator %q: gate sensor %q missing or disabled",
					ErrInvalid,
					a.ID,
					gt.Sensor,
				)
			}
			if gt.Below == nil && gt.Above == nil {
				return fmt.Errorf("%w: actuator %q: gate needs below or above", ErrInvalid, a.ID)
			}
		}
	}

	return nil
}

func checkSetpoints(a ActuatorSettings, sensors map[string]SensorSettings) error {
	s, ok := sensors[a.Sensor]
	if !ok || !s.Enabled {
		return fmt.Errorf(
			"%w: actuator %q: governing sensor %q missing or disabled",
			ErrInvalid,
			a.ID,
			a.Sensor,
		)
	}
	if !(a.Low < a.High) {
		return fmt.Errorf(
			"%w: actuator %q: low %v must be below high %v",
			ErrInvalid,
			a.ID,
			a.Low,
			a.High,
		)
	}
	if a.Low < s.Range.Min || a.High > s.Range.Max {
		return fmt.Errorf(
			"%w: actuator %q: setpoints [%v, %v] outside sensor %q range [%v, %v]",
			ErrInvalid,
			a.ID,
			a.Low,
			a.High,
			s.ID,
			s.Range.Min,
			s.Range.Max,
		)
	}
	return nil
}
