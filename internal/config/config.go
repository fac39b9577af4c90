// internal/config/config.go
package config

import "github.com/tamzrod/coolboard-agent/internal/boardcfg"

// Config is the agent bootstrap file. It describes the hardware wiring and
// the process surroundings; the remotely managed operating record lives in
// the state directory and starts from Defaults.
type Config struct {
	Agent     AgentConfig          `yaml:"agent"`
	Broker    BrokerConfig         `yaml:"broker"`
	Clock     ClockConfig          `yaml:"clock"`
	Sensors   []SensorConfig       `yaml:"sensors"`
	Actuators []ActuatorConfig     `yaml:"actuators"`
	Status    StatusConfig         `yaml:"status"`
	Outbox    OutboxConfig         `yaml:"outbox"`
	Metrics   MetricsConfig        `yaml:"metrics"`
	Power     PowerConfig          `yaml:"power"`
	Log       LogConfig            `yaml:"log"`
	Defaults  boardcfg.BoardConfig `yaml:"defaults"`
}

// ---- AGENT ----

type AgentConfig struct {
	BoardID   string `yaml:"board_id"`
	StateDir  string `yaml:"state_dir"`
	FWVersion string `yaml:"fw_version"`
}

// ---- BROKER ----

const (
	TransportMQTT = "mqtt"
	TransportAMQP = "amqp"
)

type BrokerConfig struct {
	Transport      string `yaml:"transport"` // mqtt | amqp
	URL            string `yaml:"url"`
	TelemetryTopic string `yaml:"telemetry_topic"`
	ConfigTopic    string `yaml:"config_topic"`
	ListenMs       int    `yaml:"listen_ms"`
	Exchange       string `yaml:"exchange"` // amqp only
	QoS            byte   `yaml:"qos"`      // mqtt only
}

// ---- CLOCK ----

type ClockConfig struct {
	Servers   []string `yaml:"servers"`
	TimeoutMs int      `yaml:"timeout_ms"`
}

// ---- SENSORS ----

const (
	DriverModbus  = "modbus"
	DriverOneWire = "onewire"
	DriverStatic  = "static"
	DriverJetpack = "jetpack"
	DriverMemory  = "memory"
)

// SensorConfig binds a BoardConfig sensor id to a hardware driver.
type SensorConfig struct {
	ID        string `yaml:"id"`
	Driver    string `yaml:"driver"` // modbus | onewire | static
	Unit      string `yaml:"unit"`
	TimeoutMs int    `yaml:"timeout_ms"`

	// modbus
	Endpoint string  `yaml:"endpoint"` // host:port, or a serial device path for RTU
	BaudRate int     `yaml:"baud_rate"`
	SlaveID  uint8   `yaml:"slave_id"`
	FC       uint8   `yaml:"fc"` // 3 or 4
	Register uint16  `yaml:"register"`
	Encoding string  `yaml:"encoding"` // uint16 | int16 | uint32 | float32
	Scale    float64 `yaml:"scale"`
	Offset   float64 `yaml:"offset"`

	// onewire
	Path string `yaml:"path"`

	// static
	Value *float64 `yaml:"value"`
}

// ---- ACTUATORS ----

type ActuatorConfig struct {
	ID         string  `yaml:"id"`
	Driver     string  `yaml:"driver"` // jetpack | memory
	Endpoint   string  `yaml:"endpoint"`
	SlaveID    uint8   `yaml:"slave_id"`
	Channel    uint16  `yaml:"channel"`     // coil 0..7
	FaultInput *uint16 `yaml:"fault_input"` // optional discrete input
	TimeoutMs  int     `yaml:"timeout_ms"`
}

// ---- STATUS ----

type StatusConfig struct {
	Console bool                `yaml:"console"`
	Modbus  *StatusModbusConfig `yaml:"modbus"` // optional, opt-in
}

type StatusModbusConfig struct {
	Endpoint   string `yaml:"endpoint"`
	UnitID     uint8  `yaml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot"`
	DeviceName string `yaml:"device_name"`
	TimeoutMs  int    `yaml:"timeout_ms"`
}

// ---- OUTBOX ----

const (
	OutboxFile  = "file"
	OutboxRedis = "redis"
	OutboxNone  = "none"
)

type OutboxConfig struct {
	Driver     string `yaml:"driver"` // file | redis | none
	Dir        string `yaml:"dir"`
	RedisAddr  string `yaml:"redis_addr"`
	MaxEntries int    `yaml:"max_entries"`
}

// ---- METRICS ----

type MetricsConfig struct {
	Addr string `yaml:"addr"` // empty disables the endpoint
}

// ---- POWER ----

// PowerConfig enables the low-battery guard when BatterySensor is set.
type PowerConfig struct {
	BatterySensor   string  `yaml:"battery_sensor"`
	ChargingSensor  string  `yaml:"charging_sensor"`
	MinVoltage      float64 `yaml:"min_voltage"`
	ChargingVoltage float64 `yaml:"charging_voltage"`
}

// ---- LOG ----

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}
