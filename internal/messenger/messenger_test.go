// internal/messenger/messenger_test.go
package messenger

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
	"github.com/tamzrod/coolboard-agent/internal/sensor"
)

type fakeTransport struct {
	mu        sync.Mutex
	dialErrs  []error
	dials     int
	connected bool
	published map[string][][]byte
	handler   func([]byte)
	pubErr    error
}

func (f *fakeTransport) Dial(ctx context.Context, cr Credentials) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dials++
	if len(f.dialErrs) > 0 {
		err := f.dialErrs[0]
		f.dialErrs = f.dialErrs[1:]
		if err != nil {
			return err
		}
	}
	f.connected = true
	return nil
}

func (f *fakeTransport) Publish(ctx context.Context, topic string, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pubErr != nil {
		return f.pubErr
	}
	if f.published == nil {
		f.published = map[string][][]byte{}
	}
	f.published[topic] = append(f.published[topic], payload)
	return nil
}

func (f *fakeTransport) Subscribe(ctx context.Context, topic string, fn func([]byte)) error {
	f.handler = fn
	return nil
}

func (f *fakeTransport) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

func (f *fakeTransport) Close() error {
	f.connected = false
	return nil
}

func creds(retries int) Credentials {
	return Credentials{ClientID: "b1", Retries: retries, Backoff: time.Millisecond, Timeout: time.Second}
}

func newClient(t *fakeTransport) *Client {
	return New(t, Options{
		BoardID:        "b1",
		TelemetryTopic: "coolboard/b1/telemetry",
		ConfigTopic:    "coolboard/b1/config",
	}, nil)
}

func TestConnectGivesUpAfterRetries(t *testing.T) {
	boom := errors.New("refused")
	ft := &fakeTransport{dialErrs: []error{boom, boom, boom, boom}}
	c := newClient(ft)

	err := c.Connect(context.Background(), creds(3))

	var ce *ConnectivityError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, 3, ce.Attempts)
	assert.Equal(t, 3, ft.dials)
	assert.False(t, c.Connected())
}

func TestConnectRetriesThenSubscribes(t *testing.T) {
	ft := &fakeTransport{dialErrs: []error{errors.New("refused"), nil}}
	c := newClient(ft)

	require.NoError(t, c.Connect(context.Background(), creds(3)))
	assert.Equal(t, 2, ft.dials)
	assert.NotNil(t, ft.handler)
}

func TestConnectHonorsContext(t *testing.T) {
	ft := &fakeTransport{dialErrs: []error{errors.New("refused"), errors.New("refused")}}
	c := newClient(ft)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := c.Connect(ctx, creds(5))
	var ce *ConnectivityError
	require.ErrorAs(t, err, &ce)
	assert.LessOrEqual(t, ft.dials, 1)
}

func TestPublishWhileOffline(t *testing.T) {
	c := newClient(&fakeTransport{})

	err := c.Publish(context.Background(), TelemetryPacket{BoardID: "b1"})

	var ce *ConnectivityError
	require.ErrorAs(t, err, &ce)
	assert.ErrorIs(t, err, ErrNotConnected)
}

func TestPublishEncodesPacket(t *testing.T) {
	ft := &fakeTransport{}
	c := newClient(ft)
	require.NoError(t, c.Connect(context.Background(), creds(1)))

	p := TelemetryPacket{
		BoardID:       "b1",
		CycleID:       "c-1",
		ConfigVersion: 4,
		Readings: []sensor.Reading{
			{SensorID: "t1", Value: 21.5, Valid: true},
			{SensorID: "h1", Valid: false, Error: "sensor h1: timeout"},
		},
	}
	require.NoError(t, c.Publish(context.Background(), p))

	msgs := ft.published["coolboard/b1/telemetry"]
	require.Len(t, msgs, 1)

	var got map[string]any
	require.NoError(t, json.Unmarshal(msgs[0], &got))
	assert.Equal(t, float64(PacketSchema), got["schema"])
	assert.Equal(t, "c-1", got["cycle_id"])
	readings := got["readings"].([]any)
	require.Len(t, readings, 2)
	assert.Equal(t, false, readings[1].(map[string]any)["valid"])
}

func TestReportConfigRedactsPassword(t *testing.T) {
	ft := &fakeTransport{}
	c := newClient(ft)
	require.NoError(t, c.Connect(context.Background(), creds(1)))

	bc := boardcfg.Defaults()
	bc.Connectivity.Password = "secret"
	require.NoError(t, c.ReportConfig(context.Background(), bc))

	raw := ft.published["coolboard/b1/telemetry"][0]
	assert.NotContains(t, string(raw), "secret")

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(raw, &got))
	assert.Equal(t, "null", string(got["desired"]))
	assert.Equal(t, "secret", bc.Connectivity.Password)
}

func TestFetchMergesInArrivalOrder(t *testing.T) {
	ft := &fakeTransport{}
	c := newClient(ft)
	require.NoError(t, c.Connect(context.Background(), creds(1)))

	ft.handler([]byte(`{"schema":1,"state":{"general":{"wake_interval_sec":120},"commands":{"fan":"on"}}}`))
	ft.handler([]byte(`not json`))
	ft.handler([]byte(`{"schema":1,"state":{"general":{"wake_interval_sec":90,"manual":true},"future":{"x":1}}}`))
	ft.handler([]byte(`{"schema":2,"state":{}}`))

	d, err := c.FetchConfigUpdates(context.Background())
	require.NotNil(t, d)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrMalformed)
	assert.ErrorIs(t, err, boardcfg.ErrSchema)

	assert.Equal(t, 90, *d.General.WakeIntervalSec)
	assert.True(t, *d.General.Manual)
	assert.Equal(t, boardcfg.CommandOn, d.Commands["fan"])

	// buffer drained
	d, err = c.FetchConfigUpdates(context.Background())
	assert.Nil(t, d)
	assert.NoError(t, err)
}

func TestFetchListensForWindow(t *testing.T) {
	ft := &fakeTransport{}
	c := New(ft, Options{ConfigTopic: "cfg", Listen: 30 * time.Millisecond}, nil)
	require.NoError(t, c.Connect(context.Background(), creds(1)))

	go func() {
		time.Sleep(5 * time.Millisecond)
		ft.handler([]byte(`{"state":{"commands":{"pump":"reset"}}}`))
	}()

	d, err := c.FetchConfigUpdates(context.Background())
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, boardcfg.CommandReset, d.Commands["pump"])
}

func TestDecodeRejectsUnknownCommand(t *testing.T) {
	_, err := DecodeEnvelope([]byte(`{"schema":1,"state":{"commands":{"fan":"explode"}}}`))
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "coolboard.b1.telemetry", routingKey("coolboard/b1/telemetry"))
}

func TestCredentialsFromDefaultsClientID(t *testing.T) {
	cc := boardcfg.Defaults().Connectivity
	cr := CredentialsFrom(cc, "board-7")
	assert.Equal(t, "board-7", cr.ClientID)
	assert.Equal(t, cc.ConnectRetries, cr.Retries)
}
