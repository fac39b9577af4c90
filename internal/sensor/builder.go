// internal/sensor/builder.go
package sensor

import (
	"fmt"
	"time"

	cfg "github.com/tamzrod/coolboard-agent/internal/config"
	"github.com/tamzrod/coolboard-agent/internal/fieldbus"
	smodbus "github.com/tamzrod/coolboard-agent/internal/sensor/modbus"
	"github.com/tamzrod/coolboard-agent/internal/sensor/onewire"
)

// Build constructs the sensor Set from the wiring section.
// Modbus links come from the shared pool and connect lazily, so an
// unreachable device shows up as invalid readings rather than a boot failure.
// Assumes config has already passed Validate and Normalize.
func Build(sensors []cfg.SensorConfig, pool *fieldbus.Pool) (*Set, error) {
	set := NewSet()

	for _, sc := range sensors {
		d, err := buildDriver(sc, pool)
		if err != nil {
			return nil, fmt.Errorf("sensor %q: %w", sc.ID, err)
		}
		set.Add(sc.ID, Binding{
			Driver:  d,
			Unit:    sc.Unit,
			Timeout: time.Duration(sc.TimeoutMs) * time.Millisecond,
		})
	}

	return set, nil
}

func buildDriver(sc cfg.SensorConfig, pool *fieldbus.Pool) (Driver, error) {
	switch sc.Driver {
	case cfg.DriverModbus:
		cli, err := pool.Client(fieldbus.Config{
			Endpoint: sc.Endpoint,
			BaudRate: sc.BaudRate,
			Timeout:  time.Duration(sc.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		return smodbus.New(smodbus.Config{
			SlaveID:  sc.SlaveID,
			FC:       sc.FC,
			Register: sc.Register,
			Encoding: sc.Encoding,
			Scale:    sc.Scale,
			Offset:   sc.Offset,
		}, cli)

	case cfg.DriverOneWire:
		return onewire.DS18B20{Path: sc.Path}, nil

	case cfg.DriverStatic:
		if sc.Value == nil {
			return nil, fmt.Errorf("static driver needs a value")
		}
		return Static(*sc.Value), nil

	default:
		return nil, fmt.Errorf("unknown driver %q", sc.Driver)
	}
}
