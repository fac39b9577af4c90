// internal/outbox/outbox.go
package outbox

import (
	"context"
	"errors"
)

// Outbox keeps telemetry that could not be delivered.
// Entries are replayed oldest first.
type Outbox interface {
	Push(ctx context.Context, raw []byte) error
	Len(ctx context.Context) (int, error)

	// Drain hands entries to send in order and removes each one that was
	// sent. It stops at the first send failure and keeps the remainder.
	Drain(ctx context.Context, send func(context.Context, []byte) error) (int, error)
}

// ErrDisabled is returned by Push when buffering is switched off.
var ErrDisabled = errors.New("outbox disabled")

// Nop drops everything.
type Nop struct{}

func (Nop) Push(context.Context, []byte) error { return ErrDisabled }

func (Nop) Len(context.Context) (int, error) { return 0, nil }

func (Nop) Drain(context.Context, func(context.Context, []byte) error) (int, error) {
	return 0, nil
}
