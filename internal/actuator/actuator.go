// internal/actuator/actuator.go
package actuator

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Mode string

const (
	ModeIdle   Mode = "idle"
	ModeActive Mode = "active"
	ModeFault  Mode = "fault"
)

type Override string

const (
	OverrideAuto Override = "auto"
	OverrideOn   Override = "on"
	OverrideOff  Override = "off"
)

// State is the externally visible actuator record.
type State struct {
	ID       string    `json:"id"`
	Mode     Mode      `json:"mode"`
	Since    time.Time `json:"since"`
	Cause    string    `json:"cause,omitempty"`
	Override Override  `json:"override"`
}

// Driver switches the physical output.
// A returned error implementing Fault() bool (true) means the device
// reported an out-of-band condition; any other error is transient.
type Driver interface {
	Set(ctx context.Context, on bool) error
}

// Checker is an optional Driver capability polled once per evaluation.
type Checker interface {
	Check(ctx context.Context) error
}

// ---- ERRORS ----

// FaultError is a device-reported fault. It latches the actuator in
// ModeFault until an explicit reset.
type FaultError struct {
	ActuatorID string
	Err        error
}

func (e *FaultError) Error() string {
	return fmt.Sprintf("actuator %s fault: %v", e.ActuatorID, e.Err)
}

func (e *FaultError) Unwrap() error { return e.Err }

func (e *FaultError) Fatal() bool {
	var f interface{ Fatal() bool }
	return errors.As(e.Err, &f) && f.Fatal()
}

// ErrRefused is returned for commands that are not allowed in the current mode.
var ErrRefused = errors.New("command refused")

func isFault(err error) bool {
	var f interface{ Fault() bool }
	return errors.As(err, &f) && f.Fault()
}
