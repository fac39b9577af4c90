// internal/actuator/jetpack/relay.go
package jetpack

import (
	"context"
	"errors"
	"fmt"

	"github.com/goburrow/modbus"
)

// Channels is the number of relay outputs on one Jetpack board.
const Channels = 8

// Coils abstracts the bus operations a relay needs.
type Coils interface {
	WriteCoil(unitID uint8, addr uint16, on bool) error
	ReadDiscreteInput(unitID uint8, addr uint16) (bool, error)
}

type Config struct {
	SlaveID    uint8
	Channel    uint16
	FaultInput *uint16
}

// Relay is one Jetpack output channel exposed as a Modbus coil.
type Relay struct {
	cfg Config
	bus Coils
}

func New(cfg Config, bus Coils) (*Relay, error) {
	if bus == nil {
		return nil, errors.New("jetpack: bus required")
	}
	if cfg.Channel >= Channels {
		return nil, fmt.Errorf("jetpack: channel %d out of range 0..%d", cfg.Channel, Channels-1)
	}
	return &Relay{cfg: cfg, bus: bus}, nil
}

// FaultSignal is a device-reported fault on a relay channel.
type FaultSignal struct {
	Channel uint16
	Reason  string
}

func (f *FaultSignal) Error() string {
	return fmt.Sprintf("jetpack channel %d: %s", f.Channel, f.Reason)
}

func (f *FaultSignal) Fault() bool { return true }

func (r *Relay) Set(ctx context.Context, on bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := r.bus.WriteCoil(r.cfg.SlaveID, r.cfg.Channel, on)
	if err == nil {
		return nil
	}

	var me *modbus.ModbusError
	if errors.As(err, &me) && me.ExceptionCode == modbus.ExceptionCodeServerDeviceFailure {
		return &FaultSignal{Channel: r.cfg.Channel, Reason: err.Error()}
	}
	return err
}

// Check reads the optional fault input (overcurrent/stuck contact).
func (r *Relay) Check(ctx context.Context) error {
	if r.cfg.FaultInput == nil {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	tripped, err := r.bus.ReadDiscreteInput(r.cfg.SlaveID, *r.cfg.FaultInput)
	if err != nil {
		return err
	}
	if tripped {
		return &FaultSignal{Channel: r.cfg.Channel, Reason: fmt.Sprintf("fault input %d set", *r.cfg.FaultInput)}
	}
	return nil
}
