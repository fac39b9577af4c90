// internal/config/validate.go
package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
)

// statusSlotsPerBoard mirrors status.SlotsPerDevice (status imports config).
const statusSlotsPerBoard = 20

const maxStatusBaseSlot = 65536/statusSlotsPerBoard - 1

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ------------------------------------------------------------
	// AGENT
	// ------------------------------------------------------------

	id := cfg.Agent.BoardID
	if id == "" {
		return fmt.Errorf("agent.board_id is required")
	}
	if !isASCII(id) || strings.ContainsAny(id, "/+#: ") {
		return fmt.Errorf("agent.board_id %q must be ASCII without '/', '+', '#', ':' or spaces", id)
	}

	// ------------------------------------------------------------
	// BROKER
	// ------------------------------------------------------------

	switch cfg.Broker.Transport {
	case "", TransportMQTT, TransportAMQP:
	default:
		return fmt.Errorf("broker.transport %q: must be mqtt or amqp", cfg.Broker.Transport)
	}
	if cfg.Broker.URL == "" {
		return fmt.Errorf("broker.url is required")
	}
	if cfg.Broker.QoS > 2 {
		return fmt.Errorf("broker.qos %d: must be 0, 1 or 2", cfg.Broker.QoS)
	}
	if cfg.Broker.ListenMs < 0 {
		return fmt.Errorf("broker.listen_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// SENSOR WIRING
	// ------------------------------------------------------------

	wired := make(map[string]struct{}, len(cfg.Sensors))
	for _, s := range cfg.Sensors {
		if s.ID == "" {
			return fmt.Errorf("sensor with empty id")
		}
		if _, dup := wired[s.ID]; dup {
			return fmt.Errorf("sensor %q: duplicate id", s.ID)
		}
		wired[s.ID] = struct{}{}

		if err := validateSensor(s); err != nil {
			return err
		}
	}

	// ------------------------------------------------------------
	// ACTUATOR WIRING
	// ------------------------------------------------------------

	outputs := make(map[string]struct{}, len(cfg.Actuators))
	// key = endpoint | slave_id | channel
	coils := make(map[string]string)

	for _, a := range cfg.Actuators {
		if a.ID == "" {
			return fmt.Errorf("actuator with empty id")
		}
		if _, dup := outputs[a.ID]; dup {
			return fmt.Errorf("actuator %q: duplicate id", a.ID)
		}
		outputs[a.ID] = struct{}{}

		switch a.Driver {
		case DriverMemory:
		case DriverJetpack:
			if a.Endpoint == "" {
				return fmt.Errorf("actuator %q: jetpack requires endpoint", a.ID)
			}
			if a.Channel > 7 {
				return fmt.Errorf("actuator %q: jetpack channel %d out of range 0..7", a.ID, a.Channel)
			}

			key := fmt.Sprintf("%s|%d|%d", a.Endpoint, a.SlaveID, a.Channel)
			if prev, exists := coils[key]; exists {
				return fmt.Errorf(
					"coil collision: endpoint=%s slave_id=%d channel=%d used by actuators %q and %q",
					a.Endpoint,
					a.SlaveID,
					a.Channel,
					prev,
					a.ID,
				)
			}
			coils[key] = a.ID
		default:
			return fmt.Errorf("actuator %q: unknown driver %q", a.ID, a.Driver)
		}
	}

	// ------------------------------------------------------------
	// STATUS BLOCK (OPT-IN)
	// ------------------------------------------------------------

	if m := cfg.Status.Modbus; m != nil {
		if m.Endpoint == "" {
			return fmt.Errorf("status.modbus.endpoint is required")
		}
		// the whole block must stay inside the 16-bit register space
		if int(m.BaseSlot) > maxStatusBaseSlot {
			return fmt.Errorf("status.modbus.base_slot %d out of range (max %d)", m.BaseSlot, maxStatusBaseSlot)
		}
		// device_name sanity (ASCII only)
		if !isASCII(m.DeviceName) {
			return fmt.Errorf("status.modbus.device_name must contain ASCII characters only")
		}
	}

	// ------------------------------------------------------------
	// OUTBOX
	// ------------------------------------------------------------

	switch cfg.Outbox.Driver {
	case "", OutboxFile, OutboxNone:
	case OutboxRedis:
		if cfg.Outbox.RedisAddr == "" {
			return fmt.Errorf("outbox.redis_addr is required for the redis driver")
		}
	default:
		return fmt.Errorf("outbox.driver %q: must be file, redis or none", cfg.Outbox.Driver)
	}
	if cfg.Outbox.MaxEntries < 0 {
		return fmt.Errorf("outbox.max_entries must be >= 0")
	}

	// ------------------------------------------------------------
	// POWER GUARD (OPT-IN)
	// ------------------------------------------------------------

	if p := cfg.Power; p.BatterySensor != "" {
		if _, ok := wired[p.BatterySensor]; !ok {
			return fmt.Errorf("power.battery_sensor %q is not a configured sensor", p.BatterySensor)
		}
		if p.ChargingSensor != "" {
			if _, ok := wired[p.ChargingSensor]; !ok {
				return fmt.Errorf("power.charging_sensor %q is not a configured sensor", p.ChargingSensor)
			}
		}
		if p.MinVoltage <= 0 {
			return fmt.Errorf("power.min_voltage must be > 0 when battery_sensor is set")
		}
	}

	// ------------------------------------------------------------
	// LOG
	// ------------------------------------------------------------

	if cfg.Log.Level != "" {
		if _, err := logrus.ParseLevel(cfg.Log.Level); err != nil {
			return fmt.Errorf("log.level: %w", err)
		}
	}
	switch cfg.Log.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("log.format %q: must be text or json", cfg.Log.Format)
	}

	// ------------------------------------------------------------
	// FACTORY BOARD CONFIG
	// ------------------------------------------------------------

	// validated in its normalized form; the caller's copy is untouched
	d := cfg.Defaults.Clone()
	boardcfg.Normalize(&d)
	if err := d.Validate(); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for _, s := range d.Sensors {
		if !s.Enabled {
			continue
		}
		if _, ok := wired[s.ID]; !ok {
			return fmt.Errorf("defaults: enabled sensor %q has no driver in sensors[]", s.ID)
		}
	}
	for _, a := range d.Actuators {
		if !a.Enabled {
			continue
		}
		if _, ok := outputs[a.ID]; !ok {
			return fmt.Errorf("defaults: enabled actuator %q has no driver in actuators[]", a.ID)
		}
	}

	return nil
}

func validateSensor(s SensorConfig) error {
	switch s.Driver {
	case DriverModbus:
		if s.Endpoint == "" {
			return fmt.Errorf("sensor %q: modbus requires endpoint", s.ID)
		}
		switch s.FC {
		case 0, 3, 4:
		default:
			return fmt.Errorf("sensor %q: unsupported fc %d (use 3 or 4)", s.ID, s.FC)
		}
		switch s.Encoding {
		case "", "uint16", "int16", "uint32", "float32":
		default:
			return fmt.Errorf("sensor %q: unknown encoding %q", s.ID, s.Encoding)
		}

	case DriverOneWire:
		if s.Path == "" {
			return fmt.Errorf("sensor %q: onewire requires path", s.ID)
		}

	case DriverStatic:
		if s.Value == nil {
			return fmt.Errorf("sensor %q: static requires value", s.ID)
		}

	default:
		return fmt.Errorf("sensor %q: unknown driver %q", s.ID, s.Driver)
	}

	if s.TimeoutMs < 0 {
		return fmt.Errorf("sensor %q: timeout_ms must be >= 0", s.ID)
	}
	return nil
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 0x7F {
			return false
		}
	}
	return true
}
