// internal/sensor/modbus/driver.go
package modbus

import (
	"context"
	"errors"
	"fmt"
	"math"
)

// RegisterReader abstracts the register reads this driver needs.
type RegisterReader interface {
	ReadRegisters(fc uint8, unitID uint8, addr, qty uint16) ([]uint16, error)
}

type Config struct {
	SlaveID  uint8
	FC       uint8 // 3 or 4
	Register uint16
	Encoding string // uint16 | int16 | uint32 | float32
	Scale    float64
	Offset   float64
}

// Driver reads one value from a register pair or single register.
// Value = raw*Scale + Offset.
type Driver struct {
	cfg Config
	r   RegisterReader
}

func New(cfg Config, r RegisterReader) (*Driver, error) {
	if r == nil {
		return nil, errors.New("modbus sensor: reader required")
	}
	if _, err := width(cfg.Encoding); err != nil {
		return nil, err
	}
	if cfg.Scale == 0 {
		cfg.Scale = 1
	}
	return &Driver{cfg: cfg, r: r}, nil
}

func (d *Driver) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	qty, _ := width(d.cfg.Encoding)
	regs, err := d.r.ReadRegisters(d.cfg.FC, d.cfg.SlaveID, d.cfg.Register, qty)
	if err != nil {
		return 0, err
	}

	raw, err := Decode(regs, d.cfg.Encoding)
	if err != nil {
		return 0, err
	}
	return raw*d.cfg.Scale + d.cfg.Offset, nil
}

// Decode interprets big-endian registers (high word first).
func Decode(regs []uint16, encoding string) (float64, error) {
	n, err := width(encoding)
	if err != nil {
		return 0, err
	}
	if len(regs) < int(n) {
		return 0, fmt.Errorf("modbus sensor: %s needs %d registers, got %d", encoding, n, len(regs))
	}

	switch encoding {
	case "", "uint16":
		return float64(regs[0]), nil
	case "int16":
		return float64(int16(regs[0])), nil
	case "uint32":
		return float64(uint32(regs[0])<<16 | uint32(regs[1])), nil
	default: // float32
		v := float64(math.Float32frombits(uint32(regs[0])<<16 | uint32(regs[1])))
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("modbus sensor: non-finite float32")
		}
		return v, nil
	}
}

func width(encoding string) (uint16, error) {
	switch encoding {
	case "", "uint16", "int16":
		return 1, nil
	case "uint32", "float32":
		return 2, nil
	default:
		return 0, fmt.Errorf("modbus sensor: unknown encoding %q", encoding)
	}
}
