// internal/sensor/sensor.go
package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Driver reads one physical value.
// Implementations should honor ctx; Set enforces the deadline either way.
type Driver interface {
	Read(ctx context.Context) (float64, error)
}

// Reading is one sensor's result for one cycle.
// Invalid readings keep their slot; Value is then meaningless.
type Reading struct {
	SensorID string    `json:"sensor_id"`
	Value    float64   `json:"value"`
	Unit     string    `json:"unit,omitempty"`
	Valid    bool      `json:"valid"`
	Error    string    `json:"error,omitempty"`
	At       time.Time `json:"at"`

	Err error `json:"-"` // *SensorError when invalid
}

// ---- ERRORS ----

type Cause string

const (
	CauseTimeout    Cause = "timeout"
	CauseDriver     Cause = "driver"
	CauseOutOfRange Cause = "out_of_range"
	CauseNoDriver   Cause = "no_driver"
)

type SensorError struct {
	SensorID string
	Cause    Cause
	Err      error
}

func (e *SensorError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("sensor %s: %s", e.SensorID, e.Cause)
	}
	return fmt.Sprintf("sensor %s: %s: %v", e.SensorID, e.Cause, e.Err)
}

func (e *SensorError) Unwrap() error { return e.Err }

// Fatal is true when the driver itself reports an unrecoverable fault.
func (e *SensorError) Fatal() bool {
	var f interface{ Fatal() bool }
	return errors.As(e.Err, &f) && f.Fatal()
}
