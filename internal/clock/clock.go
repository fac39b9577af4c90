// internal/clock/clock.go
package clock

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/beevik/ntp"

	"github.com/tamzrod/coolboard-agent/internal/config"
)

// Querier asks one time server for the local clock offset.
type Querier interface {
	Offset(server string, timeout time.Duration) (time.Duration, error)
}

// SyncError is returned when no server answered.
// The clock keeps its previous offset.
type SyncError struct {
	Servers []string
	Err     error
}

func (e *SyncError) Error() string {
	return fmt.Sprintf("clock sync failed (%s): %v", strings.Join(e.Servers, ","), e.Err)
}

func (e *SyncError) Unwrap() error { return e.Err }

// Clock is the board's wall clock: the local time plus the last
// offset learned from a network time server.
type Clock struct {
	servers []string
	timeout time.Duration
	q       Querier
	local   func() time.Time

	mu       sync.RWMutex
	offset   time.Duration
	synced   bool
	syncedAt time.Time
}

func New(servers []string, timeout time.Duration, q Querier) *Clock {
	return &Clock{
		servers: servers,
		timeout: timeout,
		q:       q,
		local:   time.Now,
	}
}

func Build(cfg config.ClockConfig) *Clock {
	return New(cfg.Servers, time.Duration(cfg.TimeoutMs)*time.Millisecond, ntpQuerier{})
}

// Sync tries each server in order and keeps the first valid offset.
func (c *Clock) Sync(ctx context.Context) error {
	var errs []error

	for _, server := range c.servers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		timeout := c.timeout
		if dl, ok := ctx.Deadline(); ok {
			if left := time.Until(dl); left < timeout {
				timeout = left
			}
		}

		off, err := c.q.Offset(server, timeout)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", server, err))
			continue
		}

		c.mu.Lock()
		c.offset = off
		c.synced = true
		c.syncedAt = c.local()
		c.mu.Unlock()
		return nil
	}

	if len(errs) == 0 {
		errs = append(errs, errors.New("no time servers configured"))
	}
	return &SyncError{Servers: c.servers, Err: errors.Join(errs...)}
}

func (c *Clock) Now() time.Time {
	c.mu.RLock()
	off := c.offset
	c.mu.RUnlock()
	return c.local().Add(off)
}

// Synced reports whether any sync has succeeded since start.
func (c *Clock) Synced() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.synced
}

func (c *Clock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// ---- NTP ----

type ntpQuerier struct{}

func (ntpQuerier) Offset(server string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{Timeout: timeout})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}
