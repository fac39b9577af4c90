// internal/boardcfg/defaults.go
package boardcfg

const (
	DefaultWakeIntervalSec = 300
	DefaultRetryWakeSec    = 60
	DefaultMaxSleepSec     = 3600
	DefaultLowPowerFactor  = 4

	DefaultConnectRetries = 3
	DefaultRetryBackoffMs = 500
	DefaultTimeoutMs      = 5000

	MinWakeIntervalSec = 10
)

// Defaults returns the compiled-in factory record.
// It has no sensors or actuators and always passes Validate.
func Defaults() BoardConfig {
	return BoardConfig{
		General: GeneralConfig{
			WakeIntervalSec: DefaultWakeIntervalSec,
			RetryWakeSec:    DefaultRetryWakeSec,
			MaxSleepSec:     DefaultMaxSleepSec,
			LowPowerFactor:  DefaultLowPowerFactor,
		},
		Connectivity: ConnectivityConfig{
			ConnectRetries: DefaultConnectRetries,
			RetryBackoffMs: DefaultRetryBackoffMs,
			TimeoutMs:      DefaultTimeoutMs,
		},
	}
}

// Normalize fills zero-valued numeric fields with defaults.
// Values that were set explicitly are left for Validate to judge.
func Normalize(c *BoardConfig) {
	if c == nil {
		return
	}

	g := &c.General
	if g.WakeIntervalSec == 0 {
		g.WakeIntervalSec = DefaultWakeIntervalSec
	}
	if g.RetryWakeSec == 0 {
		g.RetryWakeSec = DefaultRetryWakeSec
		// keep retry strictly shorter than a short wake interval
		if g.RetryWakeSec >= g.WakeIntervalSec {
			g.RetryWakeSec = g.WakeIntervalSec / 2
		}
	}
	if g.MaxSleepSec == 0 {
		g.MaxSleepSec = DefaultMaxSleepSec
		if g.MaxSleepSec < g.WakeIntervalSec {
			g.MaxSleepSec = g.WakeIntervalSec
		}
	}
	if g.LowPowerFactor == 0 {
		g.LowPowerFactor = DefaultLowPowerFactor
	}

	n := &c.Connectivity
	if n.ConnectRetries == 0 {
		n.ConnectRetries = DefaultConnectRetries
	}
	if n.RetryBackoffMs == 0 {
		n.RetryBackoffMs = DefaultRetryBackoffMs
	}
	if n.TimeoutMs == 0 {
		n.TimeoutMs = DefaultTimeoutMs
	}

	for i := range c.Actuators {
		if c.Actuators[i].Direction == "" {
			c.Actuators[i].Direction = DirectionRising
		}
	}
}
