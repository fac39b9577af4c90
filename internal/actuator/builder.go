// internal/actuator/builder.go
package actuator

import (
	"fmt"
	"time"

	"github.com/tamzrod/coolboard-agent/internal/actuator/jetpack"
	cfg "github.com/tamzrod/coolboard-agent/internal/config"
	"github.com/tamzrod/coolboard-agent/internal/fieldbus"
)

// Build constructs the Bank from the wiring section.
// Assumes config has already passed Validate and Normalize.
func Build(actuators []cfg.ActuatorConfig, pool *fieldbus.Pool, now time.Time) (*Bank, error) {
	bank := NewBank()

	for _, ac := range actuators {
		var drv Driver

		switch ac.Driver {
		case cfg.DriverJetpack:
			cli, err := pool.Client(fieldbus.Config{
				Endpoint: ac.Endpoint,
				Timeout:  time.Duration(ac.TimeoutMs) * time.Millisecond,
			})
			if err != nil {
				return nil, fmt.Errorf("actuator %q: %w", ac.ID, err)
			}
			r, err := jetpack.New(jetpack.Config{
				SlaveID:    ac.SlaveID,
				Channel:    ac.Channel,
				FaultInput: ac.FaultInput,
			}, cli)
			if err != nil {
				return nil, fmt.Errorf("actuator %q: %w", ac.ID, err)
			}
			drv = r

		case cfg.DriverMemory:
			drv = &Memory{}

		default:
			return nil, fmt.Errorf("actuator %q: unknown driver %q", ac.ID, ac.Driver)
		}

		bank.Add(ac.ID, drv, now)
	}

	return bank, nil
}
