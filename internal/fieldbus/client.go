// internal/fieldbus/client.go
package fieldbus

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goburrow/modbus"
)

// EndpointClient is one Modbus link (TCP socket or RTU serial line).
// It serializes requests because it mutates SlaveId per request.
// The underlying handler connects lazily on first use and after drops.
type EndpointClient struct {
	mu       sync.Mutex
	endpoint string
	setSlave func(id byte)
	close    func() error
	client   modbus.Client
}

type Config struct {
	Endpoint string // host:port, or a serial device for RTU
	BaudRate int    // RTU only
	Timeout  time.Duration
}

// IsSerial reports whether the endpoint names a serial device.
func IsSerial(endpoint string) bool {
	return strings.HasPrefix(endpoint, "/dev/") || strings.HasPrefix(strings.ToUpper(endpoint), "COM")
}

func NewEndpointClient(cfg Config) (*EndpointClient, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("fieldbus: endpoint required")
	}

	c := &EndpointClient{endpoint: cfg.Endpoint}

	if IsSerial(cfg.Endpoint) {
		h := modbus.NewRTUClientHandler(cfg.Endpoint)
		h.BaudRate = cfg.BaudRate
		h.DataBits = 8
		h.Parity = "N"
		h.StopBits = 1
		h.Timeout = cfg.Timeout

		c.setSlave = func(id byte) { h.SlaveId = id }
		c.close = h.Close
		c.client = modbus.NewClient(h)
		return c, nil
	}

	h := modbus.NewTCPClientHandler(cfg.Endpoint)
	h.Timeout = cfg.Timeout

	c.setSlave = func(id byte) { h.SlaveId = id }
	c.close = h.Close
	c.client = modbus.NewClient(h)
	return c, nil
}

func (c *EndpointClient) Endpoint() string { return c.endpoint }

func (c *EndpointClient) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.close()
}

// ReadRegisters reads holding (fc 3) or input (fc 4) registers.
func (c *EndpointClient) ReadRegisters(fc uint8, unitID uint8, addr, qty uint16) ([]uint16, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setSlave(unitID)

	var (
		raw []byte
		err error
	)
	switch fc {
	case 3:
		raw, err = c.client.ReadHoldingRegisters(addr, qty)
	case 4:
		raw, err = c.client.ReadInputRegisters(addr, qty)
	default:
		return nil, fmt.Errorf("fieldbus: unsupported register function code %d", fc)
	}
	if err != nil {
		return nil, err
	}
	if len(raw) != int(qty)*2 {
		return nil, fmt.Errorf("fieldbus: short register payload: got=%d want=%d bytes", len(raw), qty*2)
	}
	return unpackRegisters(raw), nil
}

// ReadDiscreteInput reads one discrete input (fc 2).
func (c *EndpointClient) ReadDiscreteInput(unitID uint8, addr uint16) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setSlave(unitID)

	raw, err := c.client.ReadDiscreteInputs(addr, 1)
	if err != nil {
		return false, err
	}
	if len(raw) < 1 {
		return false, errors.New("fieldbus: short discrete input payload")
	}
	return raw[0]&1 != 0, nil
}

// WriteCoil sets one coil (fc 5).
func (c *EndpointClient) WriteCoil(unitID uint8, addr uint16, on bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setSlave(unitID)

	v := uint16(0x0000)
	if on {
		v = 0xFF00
	}
	_, err := c.client.WriteSingleCoil(addr, v)
	return err
}

func (c *EndpointClient) WriteCoils(unitID uint8, addr uint16, bits []bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setSlave(unitID)

	qty := uint16(len(bits))
	payload := packBits(bits)

	_, err := c.client.WriteMultipleCoils(addr, qty, payload)
	return err
}

func (c *EndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.setSlave(unitID)

	qty := uint16(len(regs))
	payload := packRegisters(regs)

	_, err := c.client.WriteMultipleRegisters(addr, qty, payload)
	return err
}

// ---- helpers (pure geometry) ----

func packBits(bits []bool) []byte {
	n := (len(bits) + 7) / 8
	out := make([]byte, n)
	for i, v := range bits {
		if v {
			out[i/8] |= 1 << uint(i%8)
		}
	}
	return out
}

func packRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

func unpackRegisters(data []byte) []uint16 {
	n := len(data) / 2
	out := make([]uint16, n)
	for i := 0; i < n; i++ {
		out[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return out
}
