// internal/messenger/messenger.go
package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
)

// Transport is one broker connection.
// Subscribe handlers run on the transport's own goroutine.
type Transport interface {
	Dial(ctx context.Context, cr Credentials) error
	Publish(ctx context.Context, topic string, payload []byte) error
	Subscribe(ctx context.Context, topic string, fn func(payload []byte)) error
	Connected() bool
	Close() error
}

// Credentials are the per-board connection parameters.
// They come from the stored BoardConfig so they can be changed remotely.
type Credentials struct {
	ClientID string
	Username string
	Password string
	Retries  int
	Backoff  time.Duration
	Timeout  time.Duration
}

// CredentialsFrom maps the connectivity record; the client id falls back
// to the board id.
func CredentialsFrom(c boardcfg.ConnectivityConfig, boardID string) Credentials {
	id := c.ClientID
	if id == "" {
		id = boardID
	}
	return Credentials{
		ClientID: id,
		Username: c.Username,
		Password: c.Password,
		Retries:  c.ConnectRetries,
		Backoff:  c.RetryBackoff(),
		Timeout:  c.Timeout(),
	}
}

// ---- ERRORS ----

var ErrNotConnected = errors.New("not connected")

// ConnectivityError marks a broker-side failure. The cycle goes offline
// on it; it is never fatal.
type ConnectivityError struct {
	Op       string
	Attempts int
	Err      error
}

func (e *ConnectivityError) Error() string {
	if e.Attempts > 0 {
		return fmt.Sprintf("%s failed after %d attempt(s): %v", e.Op, e.Attempts, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Op, e.Err)
}

func (e *ConnectivityError) Unwrap() error { return e.Err }

// ---- CLIENT ----

type Options struct {
	BoardID        string
	TelemetryTopic string
	ConfigTopic    string
	Listen         time.Duration
}

// Client publishes telemetry and collects remote config deltas.
type Client struct {
	t    Transport
	opts Options
	log  *log.Entry

	mu      sync.Mutex
	pending [][]byte
}

func New(t Transport, opts Options, logger *log.Entry) *Client {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Client{t: t, opts: opts, log: logger}
}

// Connect dials the broker with exponential backoff, at most cr.Retries
// attempts, then subscribes to the config topic.
func (c *Client) Connect(ctx context.Context, cr Credentials) error {
	if c.t.Connected() {
		return nil
	}

	retries := cr.Retries
	if retries < 1 {
		retries = 1
	}

	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = cr.Backoff
	eb.MaxElapsedTime = 0
	b := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(retries-1)), ctx)

	attempts := 0
	op := func() error {
		attempts++
		actx, cancel := context.WithTimeout(ctx, cr.Timeout)
		defer cancel()
		return c.t.Dial(actx, cr)
	}
	notify := func(err error, wait time.Duration) {
		c.log.WithFields(log.Fields{
			"attempt": attempts,
			"wait":    wait,
		}).WithError(err).Warn("broker connect failed, retrying")
	}

	if err := backoff.RetryNotify(op, b, notify); err != nil {
		return &ConnectivityError{Op: "connect", Attempts: attempts, Err: err}
	}

	if err := c.t.Subscribe(ctx, c.opts.ConfigTopic, c.receive); err != nil {
		return &ConnectivityError{Op: "subscribe", Attempts: attempts, Err: err}
	}

	c.log.WithField("attempts", attempts).Debug("broker connected")
	return nil
}

func (c *Client) Connected() bool { return c.t.Connected() }

func (c *Client) Close() error { return c.t.Close() }

func (c *Client) receive(payload []byte) {
	cp := append([]byte(nil), payload...)
	c.mu.Lock()
	c.pending = append(c.pending, cp)
	c.mu.Unlock()
}

// Publish encodes and sends one telemetry packet.
func (c *Client) Publish(ctx context.Context, p TelemetryPacket) error {
	raw, err := EncodePacket(p)
	if err != nil {
		return err
	}
	return c.Resend(ctx, raw)
}

// Resend sends an already encoded packet, as kept in the outbox.
func (c *Client) Resend(ctx context.Context, raw []byte) error {
	return c.send(ctx, "publish", raw)
}

// ReportConfig announces the applied record and clears the desired side.
func (c *Client) ReportConfig(ctx context.Context, bc boardcfg.BoardConfig) error {
	raw, err := json.Marshal(newReport(c.opts.BoardID, bc))
	if err != nil {
		return fmt.Errorf("encode config report: %w", err)
	}
	return c.send(ctx, "report", raw)
}

func (c *Client) send(ctx context.Context, op string, raw []byte) error {
	if !c.t.Connected() {
		return &ConnectivityError{Op: op, Err: ErrNotConnected}
	}
	if err := c.t.Publish(ctx, c.opts.TelemetryTopic, raw); err != nil {
		return &ConnectivityError{Op: op, Err: err}
	}
	return nil
}

// FetchConfigUpdates waits up to the listen window for late deliveries and
// returns every buffered delta merged in arrival order. Undecodable
// messages are dropped and reported in the error; the rest still apply.
func (c *Client) FetchConfigUpdates(ctx context.Context) (*boardcfg.Delta, error) {
	if !c.t.Connected() {
		return nil, &ConnectivityError{Op: "fetch", Err: ErrNotConnected}
	}

	if c.opts.Listen > 0 {
		t := time.NewTimer(c.opts.Listen)
		select {
		case <-ctx.Done():
		case <-t.C:
		}
		t.Stop()
	}

	c.mu.Lock()
	msgs := c.pending
	c.pending = nil
	c.mu.Unlock()

	var (
		merged boardcfg.Delta
		got    bool
		errs   []error
	)
	for _, raw := range msgs {
		d, err := DecodeEnvelope(raw)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		merged = merged.Merge(d)
		got = true
	}

	if !got || merged.Empty() {
		return nil, errors.Join(errs...)
	}
	return &merged, errors.Join(errs...)
}
