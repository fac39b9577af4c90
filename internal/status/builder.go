// internal/status/builder.go
package status

import (
	"io"
	"time"

	log "github.com/sirupsen/logrus"

	cfg "github.com/tamzrod/coolboard-agent/internal/config"
	"github.com/tamzrod/coolboard-agent/internal/fieldbus"
)

// Build assembles the configured indicators. With nothing enabled the
// result is a Nop.
func Build(sc cfg.StatusConfig, pool *fieldbus.Pool, console io.Writer, logger *log.Entry) (Indicator, error) {
	var out Multi

	if sc.Console {
		out = append(out, NewConsoleLED(console))
	}

	if m := sc.Modbus; m != nil {
		cli, err := pool.Client(fieldbus.Config{
			Endpoint: m.Endpoint,
			Timeout:  time.Duration(m.TimeoutMs) * time.Millisecond,
		})
		if err != nil {
			return nil, err
		}
		w := NewBlockWriter(BlockPlan{
			UnitID:     m.UnitID,
			BaseSlot:   m.BaseSlot,
			DeviceName: m.DeviceName,
		}, cli)
		out = append(out, BlockIndicator{W: w, Log: logger.WithField("endpoint", m.Endpoint)})
	}

	switch len(out) {
	case 0:
		return Nop{}, nil
	case 1:
		return out[0], nil
	default:
		return out, nil
	}
}
