// internal/sensor/set.go
package sensor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
)

// Binding is a configured driver plus its presentation details.
type Binding struct {
	Driver  Driver
	Unit    string
	Timeout time.Duration
}

// Set is the board's sensor collection keyed by sensor id.
// Read order always follows the BoardConfig, never registration order.
type Set struct {
	bindings map[string]Binding
}

func NewSet() *Set {
	return &Set{bindings: make(map[string]Binding)}
}

func (s *Set) Add(id string, b Binding) {
	s.bindings[id] = b
}

func (s *Set) Has(id string) bool {
	_, ok := s.bindings[id]
	return ok
}

// ReadAll produces exactly one Reading per enabled sensor, in config order.
func (s *Set) ReadAll(ctx context.Context, cfg boardcfg.BoardConfig, now time.Time) []Reading {
	out := make([]Reading, 0, len(cfg.Sensors))

	for _, sc := range cfg.Sensors {
		if !sc.Enabled {
			continue
		}

		r := Reading{SensorID: sc.ID, At: now}

		b, ok := s.bindings[sc.ID]
		if !ok {
			out = append(out, invalid(r, &SensorError{SensorID: sc.ID, Cause: CauseNoDriver}))
			continue
		}
		r.Unit = b.Unit

		v, err := s.read(ctx, sc.ID, b)
		if err != nil {
			out = append(out, invalid(r, err))
			continue
		}

		r.Value = v
		if v < sc.Range.Min || v > sc.Range.Max {
			out = append(out, invalid(r, &SensorError{
				SensorID: sc.ID,
				Cause:    CauseOutOfRange,
				Err:      fmt.Errorf("%v outside [%v, %v]", v, sc.Range.Min, sc.Range.Max),
			}))
			continue
		}

		r.Valid = true
		out = append(out, r)
	}

	return out
}

// ReadOne reads a sensor outside the cycle's config (e.g. the battery probe).
// No range check is applied.
func (s *Set) ReadOne(ctx context.Context, id string) (float64, error) {
	b, ok := s.bindings[id]
	if !ok {
		return 0, &SensorError{SensorID: id, Cause: CauseNoDriver}
	}
	return s.read(ctx, id, b)
}

func (s *Set) read(ctx context.Context, id string, b Binding) (float64, error) {
	rctx := ctx
	if b.Timeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(ctx, b.Timeout)
		defer cancel()
	}

	type result struct {
		v   float64
		err error
	}
	done := make(chan result, 1)

	go func() {
		v, err := b.Driver.Read(rctx)
		done <- result{v, err}
	}()

	select {
	case res := <-done:
		if res.err == nil {
			return res.v, nil
		}
		if errors.Is(res.err, context.DeadlineExceeded) {
			return 0, &SensorError{SensorID: id, Cause: CauseTimeout, Err: res.err}
		}
		return 0, &SensorError{SensorID: id, Cause: CauseDriver, Err: res.err}

	case <-rctx.Done():
		// the driver goroutine finishes on its own; done is buffered
		return 0, &SensorError{SensorID: id, Cause: CauseTimeout, Err: rctx.Err()}
	}
}

func invalid(r Reading, err error) Reading {
	r.Valid = false
	r.Err = err
	r.Error = err.Error()
	return r
}
