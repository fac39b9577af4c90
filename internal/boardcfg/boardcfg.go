// internal/boardcfg/boardcfg.go
package boardcfg

import "time"

// BoardConfig is the versioned operating record of the board.
// It is owned by the config store and handed to every other component
// as an immutable snapshot for the duration of one duty cycle.
type BoardConfig struct {
	Version      uint64             `yaml:"version" json:"version"`
	General      GeneralConfig      `yaml:"general" json:"general"`
	Connectivity ConnectivityConfig `yaml:"connectivity" json:"connectivity"`
	Sensors      []SensorSettings   `yaml:"sensors,omitempty" json:"sensors"`
	Actuators    []ActuatorSettings `yaml:"actuators,omitempty" json:"actuators"`
}

// ---- GENERAL ----

type GeneralConfig struct {
	WakeIntervalSec int  `yaml:"wake_interval_sec" json:"wake_interval_sec"`
	RetryWakeSec    int  `yaml:"retry_wake_sec" json:"retry_wake_sec"`
	MaxSleepSec     int  `yaml:"max_sleep_sec" json:"max_sleep_sec"`
	LowPower        bool `yaml:"low_power" json:"low_power"`
	LowPowerFactor  int  `yaml:"low_power_factor" json:"low_power_factor"`
	Manual          bool `yaml:"manual" json:"manual"`             // actuators follow remote commands only
	DropOffline     bool `yaml:"drop_offline" json:"drop_offline"` // false => buffer undelivered telemetry
}

// ---- CONNECTIVITY ----

type ConnectivityConfig struct {
	ClientID       string `yaml:"client_id" json:"client_id"`
	Username       string `yaml:"username" json:"username"`
	Password       string `yaml:"password" json:"password"`
	ConnectRetries int    `yaml:"connect_retries" json:"connect_retries"`
	RetryBackoffMs int    `yaml:"retry_backoff_ms" json:"retry_backoff_ms"`
	TimeoutMs      int    `yaml:"timeout_ms" json:"timeout_ms"`
}

// ---- SENSORS ----

// Range is the device-valid value range of a sensor.
// Readings outside it are reported invalid.
type Range struct {
	Min float64 `yaml:"min" json:"min"`
	Max float64 `yaml:"max" json:"max"`
}

// Band is a {low, high} threshold band.
type Band struct {
	Low  float64 `yaml:"low" json:"low"`
	High float64 `yaml:"high" json:"high"`
}

type SensorSettings struct {
	ID      string `yaml:"id" json:"id"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
	Range   Range  `yaml:"range" json:"range"`
	Band    *Band  `yaml:"band,omitempty" json:"band,omitempty"`
}

// ---- ACTUATORS ----

type Direction string

const (
	// DirectionRising activates above High and releases below Low (fan, vent).
	DirectionRising Direction = "rising"
	// DirectionFalling activates below Low and releases above High (heater, pump).
	DirectionFalling Direction = "falling"
	// DirectionSchedule follows the [HourOn:MinuteOn, HourOff:MinuteOff)
	// window. With a Sensor, reaching High forces the output off until the
	// value falls back to Low.
	DirectionSchedule Direction = "schedule"
	// DirectionCycle alternates OnSec on and OffSec off. With a Sensor the
	// output stays on past OnSec until High and stays off past OffSec until
	// the value is below Low.
	DirectionCycle Direction = "cycle"
)

// Gate restricts automatic activation to periods where another sensor's
// value is below and/or above a configured level (e.g. only at night).
type Gate struct {
	Sensor string   `yaml:"sensor" json:"sensor"`
	Below  *float64 `yaml:"below,omitempty" json:"below,omitempty"`
	Above  *float64 `yaml:"above,omitempty" json:"above,omitempty"`
}

type ActuatorSettings struct {
	ID        string    `yaml:"id" json:"id"`
	Enabled   bool      `yaml:"enabled" json:"enabled"`
	Sensor    string    `yaml:"sensor" json:"sensor"`
	Direction Direction `yaml:"direction" json:"direction"`
	Low       float64   `yaml:"low" json:"low"`
	High      float64   `yaml:"high" json:"high"`
	HourOn    int       `yaml:"hour_on" json:"hour_on"`
	HourOff   int       `yaml:"hour_off" json:"hour_off"`
	MinuteOn  int       `yaml:"minute_on,omitempty" json:"minute_on,omitempty"`
	MinuteOff int       `yaml:"minute_off,omitempty" json:"minute_off,omitempty"`
	OnSec     int       `yaml:"on_sec,omitempty" json:"on_sec,omitempty"`
	OffSec    int       `yaml:"off_sec,omitempty" json:"off_sec,omitempty"`
	Gate      *Gate     `yaml:"gate,omitempty" json:"gate,omitempty"`
}

// ---- ACCESSORS ----

func (c BoardConfig) Sensor(id string) (SensorSettings, bool) {
	for _, s := range c.Sensors {
		if s.ID == id {
			return s, true
		}
	}
	return SensorSettings{}, false
}

func (c BoardConfig) Actuator(id string) (ActuatorSettings, bool) {
	for _, a := range c.Actuators {
		if a.ID == id {
			return a, true
		}
	}
	return ActuatorSettings{}, false
}

func (g GeneralConfig) WakeInterval() time.Duration {
	return time.Duration(g.WakeIntervalSec) * time.Second
}

func (g GeneralConfig) RetryWake() time.Duration {
	return time.Duration(g.RetryWakeSec) * time.Second
}

func (g GeneralConfig) MaxSleep() time.Duration {
	return time.Duration(g.MaxSleepSec) * time.Second
}

func (c ConnectivityConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

func (c ConnectivityConfig) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// Clone returns a deep copy; slices and pointers are not shared.
func (c BoardConfig) Clone() BoardConfig {
	out := c

	if c.Sensors != nil {
		out.Sensors = make([]SensorSettings, len(c.Sensors))
	}
	for i, s := range c.Sensors {
		if s.Band != nil {
			b := *s.Band
			s.Band = &b
		}
		out.Sensors[i] = s
	}

	if c.Actuators != nil {
		out.Actuators = make([]ActuatorSettings, len(c.Actuators))
	}
	for i, a := range c.Actuators {
		a.Gate = cloneGate(a.Gate)
		out.Actuators[i] = a
	}

	return out
}

func cloneGate(g *Gate) *Gate {
	if g == nil {
		return nil
	}
	c := *g
	c.Below = cloneFloat(g.Below)
	c.Above = cloneFloat(g.Above)
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	x := *v
	return &x
}
