// internal/boardcfg/delta.go
package boardcfg

import (
	"errors"
	"fmt"
	"reflect"
)

// SchemaVersion is the highest delta envelope major version understood.
const SchemaVersion = 1

var (
	ErrSchema        = errors.New("unsupported delta schema")
	ErrUnknownTarget = errors.New("delta references unknown id")
)

// Envelope is the remote configuration message.
// Unknown fields are ignored by the decoder.
type Envelope struct {
	Schema int   `json:"schema"`
	State  Delta `json:"state"`
}

// Check rejects envelopes from a newer major schema.
// A missing schema is read as version 1.
func (e Envelope) Check() error {
	if e.Schema > SchemaVersion {
		return fmt.Errorf("%w: %d > %d", ErrSchema, e.Schema, SchemaVersion)
	}
	return nil
}

// ---- DELTA ----

// Delta is a partial update. Nil fields are left untouched.
type Delta struct {
	General      *GeneralPatch            `json:"general,omitempty"`
	Connectivity *ConnectivityPatch       `json:"connectivity,omitempty"`
	Sensors      map[string]SensorPatch   `json:"sensors,omitempty"`
	Actuators    map[string]ActuatorPatch `json:"actuators,omitempty"`
	Commands     map[string]Command       `json:"commands,omitempty"`
}

type GeneralPatch struct {
	WakeIntervalSec *int  `json:"wake_interval_sec,omitempty"`
	RetryWakeSec    *int  `json:"retry_wake_sec,omitempty"`
	MaxSleepSec     *int  `json:"max_sleep_sec,omitempty"`
	LowPower        *bool `json:"low_power,omitempty"`
	LowPowerFactor  *int  `json:"low_power_factor,omitempty"`
	Manual          *bool `json:"manual,omitempty"`
	DropOffline     *bool `json:"drop_offline,omitempty"`
}

type ConnectivityPatch struct {
	ClientID       *string `json:"client_id,omitempty"`
	Username       *string `json:"username,omitempty"`
	Password       *string `json:"password,omitempty"`
	ConnectRetries *int    `json:"connect_retries,omitempty"`
	RetryBackoffMs *int    `json:"retry_backoff_ms,omitempty"`
	TimeoutMs      *int    `json:"timeout_ms,omitempty"`
}

type SensorPatch struct {
	Enabled *bool  `json:"enabled,omitempty"`
	Range   *Range `json:"range,omitempty"`
	Band    *Band  `json:"band,omitempty"`
}

type ActuatorPatch struct {
	Enabled   *bool      `json:"enabled,omitempty"`
	Sensor    *string    `json:"sensor,omitempty"`
	Direction *Direction `json:"direction,omitempty"`
	Low       *float64   `json:"low,omitempty"`
	High      *float64   `json:"high,omitempty"`
	HourOn    *int       `json:"hour_on,omitempty"`
	HourOff   *int       `json:"hour_off,omitempty"`
	MinuteOn  *int       `json:"minute_on,omitempty"`
	MinuteOff *int       `json:"minute_off,omitempty"`
	OnSec     *int       `json:"on_sec,omitempty"`
	OffSec    *int       `json:"off_sec,omitempty"`
	Gate      *Gate      `json:"gate,omitempty"`
}

// Command is a remote actuator directive.
type Command string

const (
	CommandOn    Command = "on"
	CommandOff   Command = "off"
	CommandAuto  Command = "auto"
	CommandReset Command = "reset"
)

func (c Command) Valid() bool {
	switch c {
	case CommandOn, CommandOff, CommandAuto, CommandReset:
		return true
	}
	return false
}

// Empty reports whether the delta carries nothing at all.
func (d Delta) Empty() bool {
	return d.General == nil &&
		d.Connectivity == nil &&
		len(d.Sensors) == 0 &&
		len(d.Actuators) == 0 &&
		len(d.Commands) == 0
}

// HasConfig reports whether the delta touches the stored record.
func (d Delta) HasConfig() bool {
	return d.General != nil || d.Connectivity != nil || len(d.Sensors) > 0 || len(d.Actuators) > 0
}

// Merge layers next over d field by field; next wins.
// Deltas buffered during a cycle are merged in arrival order.
func (d Delta) Merge(next Delta) Delta {
	out := d

	if next.General != nil {
		g := GeneralPatch{}
		if d.General != nil {
			g = *d.General
		}
		n := next.General
		over(&g.WakeIntervalSec, n.WakeIntervalSec)
		over(&g.RetryWakeSec, n.RetryWakeSec)
		over(&g.MaxSleepSec, n.MaxSleepSec)
		over(&g.LowPower, n.LowPower)
		over(&g.LowPowerFactor, n.LowPowerFactor)
		over(&g.Manual, n.Manual)
		over(&g.DropOffline, n.DropOffline)
		out.General = &g
	}

	if next.Connectivity != nil {
		c := ConnectivityPatch{}
		if d.Connectivity != nil {
			c = *d.Connectivity
		}
		n := next.Connectivity
		over(&c.ClientID, n.ClientID)
		over(&c.Username, n.Username)
		over(&c.Password, n.Password)
		over(&c.ConnectRetries, n.ConnectRetries)
		over(&c.RetryBackoffMs, n.RetryBackoffMs)
		over(&c.TimeoutMs, n.TimeoutMs)
		out.Connectivity = &c
	}

	if len(next.Sensors) > 0 {
		out.Sensors = make(map[string]SensorPatch, len(d.Sensors)+len(next.Sensors))
		for id, p := range d.Sensors {
			out.Sensors[id] = p
		}
		for id, n := range next.Sensors {
			p := out.Sensors[id]
			over(&p.Enabled, n.Enabled)
			over(&p.Range, n.Range)
			over(&p.Band, n.Band)
			out.Sensors[id] = p
		}
	}

	if len(next.Actuators) > 0 {
		out.Actuators = make(map[string]ActuatorPatch, len(d.Actuators)+len(next.Actuators))
		for id, p := range d.Actuators {
			out.Actuators[id] = p
		}
		for id, n := range next.Actuators {
			p := out.Actuators[id]
			over(&p.Enabled, n.Enabled)
			over(&p.Sensor, n.Sensor)
			over(&p.Direction, n.Direction)
			over(&p.Low, n.Low)
			over(&p.High, n.High)
			over(&p.HourOn, n.HourOn)
			over(&p.HourOff, n.HourOff)
			over(&p.MinuteOn, n.MinuteOn)
			over(&p.MinuteOff, n.MinuteOff)
			over(&p.OnSec, n.OnSec)
			over(&p.OffSec, n.OffSec)
			over(&p.Gate, n.Gate)
			out.Actuators[id] = p
		}
	}

	if len(next.Commands) > 0 {
		out.Commands = make(map[string]Command, len(d.Commands)+len(next.Commands))
		for id, c := range d.Commands {
			out.Commands[id] = c
		}
		for id, c := range next.Commands {
			out.Commands[id] = c
		}
	}

	return out
}

func over[T any](dst **T, src *T) {
	if src != nil {
		*dst = src
	}
}

func set[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

// ---- APPLY ----

// Apply returns base with the delta's configuration fields applied.
// Commands are not part of the record and are ignored here.
//
// The result is validated; on any error base is returned untouched.
// When the record changed its Version is base.Version+1.
func Apply(base BoardConfig, d Delta) (BoardConfig, bool, error) {
	out := base.Clone()

	if g := d.General; g != nil {
		set(&out.General.WakeIntervalSec, g.WakeIntervalSec)
		set(&out.General.RetryWakeSec, g.RetryWakeSec)
		set(&out.General.MaxSleepSec, g.MaxSleepSec)
		set(&out.General.LowPower, g.LowPower)
		set(&out.General.LowPowerFactor, g.LowPowerFactor)
		set(&out.General.Manual, g.Manual)
		set(&out.General.DropOffline, g.DropOffline)
	}

	if n := d.Connectivity; n != nil {
		set(&out.Connectivity.ClientID, n.ClientID)
		set(&out.Connectivity.Username, n.Username)
		set(&out.Connectivity.Password, n.Password)
		set(&out.Connectivity.ConnectRetries, n.ConnectRetries)
		set(&out.Connectivity.RetryBackoffMs, n.RetryBackoffMs)
		set(&out.Connectivity.TimeoutMs, n.TimeoutMs)
	}

	for id, p := range d.Sensors {
		i := sensorIndex(out.Sensors, id)
		if i < 0 {
			return base, false, fmt.Errorf("%w: sensor %q", ErrUnknownTarget, id)
		}
		s := &out.Sensors[i]
		set(&s.Enabled, p.Enabled)
		set(&s.Range, p.Range)
		if p.Band != nil {
			b := *p.Band
			s.Band = &b
		}
	}

	for id, p := range d.Actuators {
		i := actuatorIndex(out.Actuators, id)
		if i < 0 {
			return base, false, fmt.Errorf("%w: actuator %q", ErrUnknownTarget, id)
		}
		a := &out.Actuators[i]
		set(&a.Enabled, p.Enabled)
		set(&a.Sensor, p.Sensor)
		set(&a.Direction, p.Direction)
		set(&a.Low, p.Low)
		set(&a.High, p.High)
		set(&a.HourOn, p.HourOn)
		set(&a.HourOff, p.HourOff)
		set(&a.MinuteOn, p.MinuteOn)
		set(&a.MinuteOff, p.MinuteOff)
		set(&a.OnSec, p.OnSec)
		set(&a.OffSec, p.OffSec)
		if p.Gate != nil {
			a.Gate = cloneGate(p.Gate)
		}
	}

	if err := out.Validate(); err != nil {
		return base, false, err
	}

	if reflect.DeepEqual(out, base) {
		return base, false, nil
	}

	out.Version = base.Version + 1
	return out, true, nil
}

func sensorIndex(list []SensorSettings, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}

func actuatorIndex(list []ActuatorSettings, id string) int {
	for i := range list {
		if list[i].ID == id {
			return i
		}
	}
	return -1
}
