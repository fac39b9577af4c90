// internal/config/normalize.go
package config

import (
	"path/filepath"
	"strings"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
)

const (
	DefaultStateDir      = "/var/lib/coolboard"
	DefaultListenMs      = 2000
	DefaultExchange      = "coolboard"
	DefaultNTPServer     = "pool.ntp.org"
	DefaultClockTimeout  = 3000
	DefaultIOTimeoutMs   = 1000
	DefaultBaudRate      = 9600
	DefaultOutboxEntries = 100

	maxDeviceName = 16
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	// ------------------------------------------------------------
	// AGENT
	// ------------------------------------------------------------

	if cfg.Agent.StateDir == "" {
		cfg.Agent.StateDir = DefaultStateDir
	}
	if cfg.Agent.FWVersion == "" {
		cfg.Agent.FWVersion = "dev"
	}

	// ------------------------------------------------------------
	// BROKER
	// ------------------------------------------------------------

	b := &cfg.Broker
	if b.Transport == "" {
		b.Transport = TransportMQTT
	}
	if b.TelemetryTopic == "" {
		b.TelemetryTopic = "coolboard/{board_id}/telemetry"
	}
	if b.ConfigTopic == "" {
		b.ConfigTopic = "coolboard/{board_id}/config"
	}
	b.TelemetryTopic = expand(b.TelemetryTopic, cfg.Agent.BoardID)
	b.ConfigTopic = expand(b.ConfigTopic, cfg.Agent.BoardID)
	if b.ListenMs == 0 {
		b.ListenMs = DefaultListenMs
	}
	if b.Exchange == "" {
		b.Exchange = DefaultExchange
	}

	// ------------------------------------------------------------
	// CLOCK
	// ------------------------------------------------------------

	if len(cfg.Clock.Servers) == 0 {
		cfg.Clock.Servers = []string{DefaultNTPServer}
	}
	if cfg.Clock.TimeoutMs == 0 {
		cfg.Clock.TimeoutMs = DefaultClockTimeout
	}

	// ------------------------------------------------------------
	// DRIVERS
	// ------------------------------------------------------------

	for i := range cfg.Sensors {
		s := &cfg.Sensors[i]
		if s.TimeoutMs == 0 {
			s.TimeoutMs = DefaultIOTimeoutMs
		}
		if s.Driver != DriverModbus {
			continue
		}
		if s.FC == 0 {
			s.FC = 3
		}
		if s.Encoding == "" {
			s.Encoding = "uint16"
		}
		if s.Scale == 0 {
			s.Scale = 1
		}
		if s.BaudRate == 0 {
			s.BaudRate = DefaultBaudRate
		}
	}

	for i := range cfg.Actuators {
		if cfg.Actuators[i].TimeoutMs == 0 {
			cfg.Actuators[i].TimeoutMs = DefaultIOTimeoutMs
		}
	}

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if m := cfg.Status.Modbus; m != nil {
		// ASCII already validated
		if len(m.DeviceName) > maxDeviceName {
			m.DeviceName = m.DeviceName[:maxDeviceName]
		}
		if m.TimeoutMs == 0 {
			m.TimeoutMs = DefaultIOTimeoutMs
		}
	}

	// ------------------------------------------------------------
	// OUTBOX
	// ------------------------------------------------------------

	if cfg.Outbox.Driver == "" {
		cfg.Outbox.Driver = OutboxFile
	}
	if cfg.Outbox.Dir == "" {
		cfg.Outbox.Dir = filepath.Join(cfg.Agent.StateDir, "outbox")
	}
	if cfg.Outbox.MaxEntries == 0 {
		cfg.Outbox.MaxEntries = DefaultOutboxEntries
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}

	boardcfg.Normalize(&cfg.Defaults)
}

func expand(topic, boardID string) string {
	return strings.ReplaceAll(topic, "{board_id}", boardID)
}
