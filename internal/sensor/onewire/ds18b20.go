// internal/sensor/onewire/ds18b20.go
package onewire

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

var (
	ErrCRC     = errors.New("onewire: crc check failed")
	ErrPowerOn = errors.New("onewire: power-on reset value")
)

// DS18B20 reads a Dallas temperature probe through the Linux w1 sysfs file.
type DS18B20 struct {
	Path string // .../w1_slave
}

func (d DS18B20) Read(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	raw, err := os.ReadFile(d.Path)
	if err != nil {
		return 0, err
	}
	return Parse(raw)
}

// Parse decodes the two-line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func Parse(raw []byte) (float64, error) {
	sc := bufio.NewScanner(bytes.NewReader(raw))

	if !sc.Scan() {
		return 0, errors.New("onewire: empty reading")
	}
	if !strings.HasSuffix(strings.TrimSpace(sc.Text()), "YES") {
		return 0, ErrCRC
	}

	if !sc.Scan() {
		return 0, errors.New("onewire: missing temperature line")
	}
	line := sc.Text()
	i := strings.LastIndex(line, "t=")
	if i < 0 {
		return 0, fmt.Errorf("onewire: no t= field in %q", line)
	}

	milli, err := strconv.Atoi(strings.TrimSpace(line[i+2:]))
	if err != nil {
		return 0, fmt.Errorf("onewire: %w", err)
	}
	// 85.000 C is what the chip reports before its first conversion
	if milli == 85000 {
		return 0, ErrPowerOn
	}
	return float64(milli) / 1000, nil
}
