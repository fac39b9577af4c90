// internal/sensor/modbus/driver_test.go
package modbus

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeReader struct {
	regs []uint16
	err  error

	gotFC, gotSlave uint8
	gotAddr, gotQty uint16
}

func (f *fakeReader) ReadRegisters(fc uint8, unitID uint8, addr, qty uint16) ([]uint16, error) {
	f.gotFC, f.gotSlave, f.gotAddr, f.gotQty = fc, unitID, addr, qty
	if f.err != nil {
		return nil, f.err
	}
	return f.regs, nil
}

func TestDecode(t *testing.T) {
	bits := math.Float32bits(23.5)

	cases := []struct {
		enc  string
		regs []uint16
		want float64
	}{
		{"uint16", []uint16{0xFFFF}, 65535},
		{"int16", []uint16{0xFFF6}, -10},
		{"uint32", []uint16{0x0001, 0x0002}, 65538},
		{"float32", []uint16{uint16(bits >> 16), uint16(bits)}, 23.5},
	}

	for _, tc := range cases {
		got, err := Decode(tc.regs, tc.enc)
		require.NoError(t, err, tc.enc)
		assert.Equal(t, tc.want, got, tc.enc)
	}
}

func TestDecode_ShortPayload(t *testing.T) {
	_, err := Decode([]uint16{1}, "float32")
	assert.Error(t, err)
}

func TestDriver_ScaleOffsetAndGeometry(t *testing.T) {
	r := &fakeReader{regs: []uint16{0xFF38}} // int16 -200
	d, err := New(Config{SlaveID: 7, FC: 4, Register: 30, Encoding: "int16", Scale: 0.1, Offset: 1}, r)
	require.NoError(t, err)

	v, err := d.Read(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -19.0, v, 1e-9)

	assert.Equal(t, uint8(4), r.gotFC)
	assert.Equal(t, uint8(7), r.gotSlave)
	assert.Equal(t, uint16(30), r.gotAddr)
	assert.Equal(t, uint16(1), r.gotQty)
}

func TestDriver_PropagatesTransportError(t *testing.T) {
	r := &fakeReader{err: errors.New("connection refused")}
	d, err := New(Config{FC: 3}, r)
	require.NoError(t, err)

	_, err = d.Read(context.Background())
	assert.EqualError(t, err, "connection refused")
}

func TestNew_RejectsUnknownEncoding(t *testing.T) {
	_, err := New(Config{Encoding: "bcd"}, &fakeReader{})
	assert.Error(t, err)
}
