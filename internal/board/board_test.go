// internal/board/board_test.go
package board

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/coolboard-agent/internal/actuator"
	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
	"github.com/tamzrod/coolboard-agent/internal/config"
	"github.com/tamzrod/coolboard-agent/internal/messenger"
	"github.com/tamzrod/coolboard-agent/internal/outbox"
	"github.com/tamzrod/coolboard-agent/internal/sensor"
	"github.com/tamzrod/coolboard-agent/internal/status"
	"github.com/tamzrod/coolboard-agent/internal/store"
)

// ---- fakes ----

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct{ syncErr error }

func (c *fakeClock) Sync(context.Context) error { return c.syncErr }
func (c *fakeClock) Now() time.Time             { return t0 }
func (c *fakeClock) Synced() bool               { return c.syncErr == nil }

type fakeMessenger struct {
	connectErr error
	publishErr error
	resendFail int // fail on the nth resend (1-based), 0 never
	delta      *boardcfg.Delta
	fetchErr   error

	connected bool
	connects  int
	published []messenger.TelemetryPacket
	resent    [][]byte
	resends   int
	reports   []boardcfg.BoardConfig
	closes    int
}

func (m *fakeMessenger) Connect(ctx context.Context, cr messenger.Credentials) error {
	m.connects++
	if m.connectErr != nil {
		return &messenger.ConnectivityError{Op: "connect", Attempts: cr.Retries, Err: m.connectErr}
	}
	m.connected = true
	return nil
}

func (m *fakeMessenger) Publish(ctx context.Context, p messenger.TelemetryPacket) error {
	if m.publishErr != nil {
		return &messenger.ConnectivityError{Op: "publish", Err: m.publishErr}
	}
	m.published = append(m.published, p)
	return nil
}

func (m *fakeMessenger) Resend(ctx context.Context, raw []byte) error {
	m.resends++
	if m.resends == m.resendFail {
		return &messenger.ConnectivityError{Op: "publish", Err: errors.New("timeout")}
	}
	m.resent = append(m.resent, raw)
	return nil
}

func (m *fakeMessenger) ReportConfig(ctx context.Context, c boardcfg.BoardConfig) error {
	m.reports = append(m.reports, c)
	return nil
}

func (m *fakeMessenger) FetchConfigUpdates(context.Context) (*boardcfg.Delta, error) {
	d := m.delta
	m.delta = nil
	return d, m.fetchErr
}

func (m *fakeMessenger) Connected() bool { return m.connected }

func (m *fakeMessenger) Close() error {
	m.closes++
	m.connected = false
	return nil
}

type recorder struct{ got []status.Snapshot }

func (r *recorder) Show(s status.Snapshot) { r.got = append(r.got, s) }

func (r *recorder) last() status.Snapshot { return r.got[len(r.got)-1] }

func (r *recorder) states() []status.State {
	var out []status.State
	for _, s := range r.got {
		out = append(out, s.State)
	}
	return out
}

type failingStore struct {
	*store.FileStore
	err error
}

func (f failingStore) Persist(boardcfg.BoardConfig) error {
	return &store.StorageError{Op: "write", Path: "board.yaml", Err: f.err}
}

type fatalErr struct{}

func (fatalErr) Error() string { return "sensor bus shorted" }
func (fatalErr) Fatal() bool   { return true }

type fatalDriver struct{}

func (fatalDriver) Read(context.Context) (float64, error) { return 0, fatalErr{} }

// deadlineBank records the deadline remote commands run under.
type deadlineBank struct {
	*actuator.Bank
	deadline time.Time
	bounded  bool
}

func (b *deadlineBank) Apply(ctx context.Context, cmds map[string]boardcfg.Command, now time.Time) []error {
	b.deadline, b.bounded = ctx.Deadline()
	return b.Bank.Apply(ctx, cmds, now)
}

// stuckDriver never answers before its deadline.
type stuckDriver struct{}

func (stuckDriver) Read(ctx context.Context) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

// ---- rig ----

func greenhouse() boardcfg.BoardConfig {
	c := boardcfg.Defaults()
	c.Sensors = []boardcfg.SensorSettings{
		{ID: "temp", Enabled: true, Range: boardcfg.Range{Min: -40, Max: 85}},
	}
	c.Actuators = []boardcfg.ActuatorSettings{
		{ID: "fan", Enabled: true, Sensor: "temp", Direction: boardcfg.DirectionRising, Low: 24, High: 28},
	}
	return c
}

type rig struct {
	dir     string
	store   *store.FileStore
	sensors *sensor.Set
	fan     *actuator.Memory
	bank    *actuator.Bank
	msg     *fakeMessenger
	outbox  *outbox.File
	box     outbox.Outbox
	acts    Actuators
	status  *recorder
	clock   *fakeClock
	opts    Options
}

func newRig(t *testing.T, defaults boardcfg.BoardConfig) *rig {
	t.Helper()
	dir := t.TempDir()

	r := &rig{
		dir:     dir,
		store:   store.New(dir, defaults),
		sensors: sensor.NewSet(),
		fan:     &actuator.Memory{},
		bank:    actuator.NewBank(),
		msg:     &fakeMessenger{},
		outbox:  outbox.NewFile(filepath.Join(dir, "outbox"), 10),
		status:  &recorder{},
		clock:   &fakeClock{},
		opts: Options{
			BoardID:     "b1",
			FWVersion:   "1.2.3",
			SyncTimeout: time.Second,
			IOTimeout:   time.Second,
		},
	}
	r.sensors.Add("temp", sensor.Binding{Driver: sensor.Static(21), Unit: "C"})
	r.bank.Add("fan", r.fan, t0)
	r.box, r.acts = r.outbox, r.bank
	return r
}

func (r *rig) build(t *testing.T) *Orchestrator {
	t.Helper()
	return r.buildWith(t, r.store)
}

func (r *rig) buildWith(t *testing.T, cs ConfigStore) *Orchestrator {
	t.Helper()
	o, err := New(Deps{
		Store:     cs,
		Clock:     r.clock,
		Sensors:   r.sensors,
		Actuators: r.acts,
		Messenger: r.msg,
		Outbox:    r.box,
		Status:    r.status,
	}, r.opts)
	require.NoError(t, err)
	return o
}

func (r *rig) backlog(t *testing.T) int {
	n, err := r.outbox.Len(context.Background())
	require.NoError(t, err)
	return n
}

func hasStage(list []Stage, s Stage) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// ---- cycles ----

func TestCycle_HappyPath(t *testing.T) {
	r := newRig(t, greenhouse())
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.Empty(t, res.Errors)
	assert.False(t, res.Failed())
	assert.True(t, res.Delivered)
	assert.False(t, res.Offline)
	assert.Equal(t, 300*time.Second, res.NextWake)
	assert.Equal(t, store.SourceDefaults.String(), res.ConfigSource)
	assert.NotEmpty(t, res.CycleID)

	require.Len(t, r.msg.published, 1)
	p := r.msg.published[0]
	assert.Equal(t, res.CycleID, p.CycleID)
	assert.Equal(t, "1.2.3", p.FWVersion)
	require.Len(t, p.Readings, 1)
	assert.Equal(t, 21.0, p.Readings[0].Value)
	require.Len(t, p.Actuators, 1)
	assert.Equal(t, actuator.ModeIdle, p.Actuators[0].Mode)

	assert.Equal(t, []status.State{
		status.StateBooting,
		status.StateLoadingConfig,
		status.StateSyncing,
		status.StateConnecting,
		status.StateSensing,
		status.StateActuating,
		status.StatePublishing,
		status.StateConfiguring,
		status.StateSleeping,
	}, r.status.states())
	assert.Equal(t, status.HealthOK, r.status.last().Health)
	assert.Equal(t, 1, r.msg.closes)
}

func TestCycle_ConnectFailureGoesOffline(t *testing.T) {
	r := newRig(t, greenhouse())
	r.msg.connectErr = errors.New("connection refused")
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.True(t, res.Offline)
	assert.Less(t, res.NextWake, 300*time.Second)
	assert.Equal(t, 60*time.Second, res.NextWake)

	// local control still ran
	require.Len(t, res.Readings, 1)
	assert.True(t, res.Readings[0].Valid)
	require.Len(t, res.Actuators, 1)

	assert.True(t, res.Buffered)
	assert.Equal(t, 1, r.backlog(t))
	assert.Equal(t, 1, res.Backlog)
	assert.False(t, hasStage(res.Attempted, StageConfigure))

	require.NotEmpty(t, res.Errors)
	assert.Equal(t, KindConnectivity, res.Errors[0].Kind)
	assert.Equal(t, status.HealthStale, r.status.last().Health)

	var sawNetwork bool
	for _, s := range r.status.got {
		if s.Alert == status.AlertNetwork {
			sawNetwork = true
		}
	}
	assert.True(t, sawNetwork)
}

func TestCycle_OfflineWithoutOutboxDrops(t *testing.T) {
	r := newRig(t, greenhouse())
	r.msg.connectErr = errors.New("connection refused")
	r.box = outbox.Nop{}
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.True(t, res.Offline)
	assert.False(t, res.Buffered)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindConnectivity, res.Errors[0].Kind)
	assert.Equal(t, StageConnect, res.Errors[0].Stage)
}

func TestCycle_OfflineDropsWhenConfigured(t *testing.T) {
	cfg := greenhouse()
	cfg.General.DropOffline = true
	r := newRig(t, cfg)
	r.msg.connectErr = errors.New("no route")
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.True(t, res.Offline)
	assert.False(t, res.Buffered)
	assert.Zero(t, r.backlog(t))
}

func TestCycle_ReplaysBacklogAfterPublish(t *testing.T) {
	r := newRig(t, greenhouse())
	ctx := context.Background()
	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, r.outbox.Push(ctx, []byte(p)))
	}
	o := r.build(t)

	res := o.RunCycle(ctx)

	assert.True(t, res.Delivered)
	assert.Equal(t, 3, res.Replayed)
	assert.Zero(t, res.Backlog)
	assert.Equal(t, 3, r.msg.published[0].OfflineBacklog)
	assert.Equal(t, [][]byte{[]byte("a"), []byte("b"), []byte("c")}, r.msg.resent)
}

func TestCycle_ReplayStopsAtFirstFailure(t *testing.T) {
	r := newRig(t, greenhouse())
	ctx := context.Background()
	for _, p := range []string{"a", "b", "c"} {
		require.NoError(t, r.outbox.Push(ctx, []byte(p)))
	}
	r.msg.resendFail = 2
	o := r.build(t)

	res := o.RunCycle(ctx)

	assert.True(t, res.Delivered)
	assert.Equal(t, 1, res.Replayed)
	assert.Equal(t, 2, res.Backlog)
	assert.False(t, hasStage(res.Succeeded, StagePublish))
	assert.Equal(t, 60*time.Second, res.NextWake)
}

func TestCycle_PublishFailureBuffers(t *testing.T) {
	r := newRig(t, greenhouse())
	r.msg.publishErr = errors.New("timeout")
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.False(t, res.Delivered)
	assert.True(t, res.Buffered)
	assert.Equal(t, 1, r.backlog(t))
}

func TestCycle_PowerAbort(t *testing.T) {
	r := newRig(t, greenhouse())
	r.sensors.Add("battery", sensor.Binding{Driver: sensor.Static(3.1)})
	r.opts.Power = config.PowerConfig{BatterySensor: "battery", MinVoltage: 3.4}
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.True(t, res.PowerAbort)
	assert.Equal(t, 3600*time.Second, res.NextWake)
	assert.Zero(t, r.msg.connects)
	assert.Empty(t, r.msg.published)
	assert.Zero(t, r.backlog(t))
	assert.NoFileExists(t, r.store.PrimaryPath())
	assert.Equal(t, status.HealthDisabled, r.status.last().Health)
	assert.Equal(t, status.StateSleeping, r.status.last().State)
}

func TestCycle_ChargingSuppressesPowerAbort(t *testing.T) {
	r := newRig(t, greenhouse())
	r.sensors.Add("battery", sensor.Binding{Driver: sensor.Static(3.1)})
	r.sensors.Add("charger", sensor.Binding{Driver: sensor.Static(5.0)})
	r.opts.Power = config.PowerConfig{
		BatterySensor:   "battery",
		ChargingSensor:  "charger",
		MinVoltage:      3.4,
		ChargingVoltage: 4.5,
	}
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.False(t, res.PowerAbort)
	assert.True(t, res.Delivered)
}

func TestCycle_BatteryProbeFailureIsRecorded(t *testing.T) {
	r := newRig(t, greenhouse())
	r.opts.Power = config.PowerConfig{BatterySensor: "missing", MinVoltage: 3.4}
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.False(t, res.PowerAbort)
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, KindPower, res.Errors[0].Kind)
}

func TestCycle_AppliesDeltaAndPersists(t *testing.T) {
	r := newRig(t, greenhouse())
	r.msg.delta = &boardcfg.Delta{
		General: &boardcfg.GeneralPatch{WakeIntervalSec: ptr(120)},
	}
	o := r.build(t)

	res := o.RunCycle(context.Background())

	require.Empty(t, res.Errors)
	assert.True(t, res.ConfigApplied)
	assert.Equal(t, uint64(1), res.ConfigVersion)
	assert.Equal(t, 120*time.Second, res.NextWake)

	require.Len(t, r.msg.reports, 1)
	assert.Equal(t, 120, r.msg.reports[0].General.WakeIntervalSec)

	stored, src, err := r.store.Load()
	require.NoError(t, err)
	assert.Equal(t, store.SourcePrimary, src)
	assert.Equal(t, uint64(1), stored.Version)

	// the next cycle runs from the stored record
	res = o.RunCycle(context.Background())
	assert.Equal(t, uint64(1), res.ConfigVersion)
	assert.Equal(t, store.SourcePrimary.String(), res.ConfigSource)
}

func TestCycle_InvalidDeltaLeavesConfig(t *testing.T) {
	r := newRig(t, greenhouse())
	r.msg.delta = &boardcfg.Delta{
		General: &boardcfg.GeneralPatch{WakeIntervalSec: ptr(5)},
	}
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.False(t, res.ConfigApplied)
	assert.Equal(t, uint64(0), res.ConfigVersion)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindConfig, res.Errors[0].Kind)
	assert.Equal(t, StageConfigure, res.Errors[0].Stage)

	var ce *store.ConfigError
	assert.ErrorAs(t, res.Errors[0].Err, &ce)
	assert.ErrorIs(t, res.Errors[0].Err, boardcfg.ErrInvalid)

	cfg, _ := o.Config()
	assert.Equal(t, 300, cfg.General.WakeIntervalSec)
	assert.Empty(t, r.msg.reports)
	assert.NoFileExists(t, r.store.PrimaryPath())
}

func TestCycle_LowPowerDirective(t *testing.T) {
	r := newRig(t, greenhouse())
	r.msg.delta = &boardcfg.Delta{
		General: &boardcfg.GeneralPatch{LowPower: ptr(true)},
	}
	o := r.build(t)

	res := o.RunCycle(context.Background())

	require.True(t, res.ConfigApplied)
	assert.Equal(t, 1200*time.Second, res.NextWake)
}

func TestCycle_RemoteCommandDrivesActuator(t *testing.T) {
	r := newRig(t, greenhouse())
	r.msg.delta = &boardcfg.Delta{
		Commands: map[string]boardcfg.Command{"fan": boardcfg.CommandOn},
	}
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.Empty(t, res.Errors)
	assert.False(t, res.ConfigApplied)
	assert.True(t, r.fan.On())
	require.Len(t, res.Actuators, 1)
	assert.Equal(t, actuator.ModeActive, res.Actuators[0].Mode)
	assert.Equal(t, actuator.OverrideOn, res.Actuators[0].Override)
}

func TestCycle_RemoteCommandBoundedByIOTimeout(t *testing.T) {
	r := newRig(t, greenhouse())
	r.msg.delta = &boardcfg.Delta{
		Commands: map[string]boardcfg.Command{"fan": boardcfg.CommandOn},
	}
	bank := &deadlineBank{Bank: r.bank}
	r.acts = bank
	o := r.build(t)

	start := time.Now()
	res := o.RunCycle(context.Background())

	assert.Empty(t, res.Errors)
	require.True(t, bank.bounded)
	assert.False(t, bank.deadline.After(time.Now().Add(r.opts.IOTimeout)))
	assert.True(t, bank.deadline.After(start))
	assert.True(t, r.fan.On())
}

func TestCycle_PersistFailureKeepsMemoryAuthoritative(t *testing.T) {
	r := newRig(t, greenhouse())
	r.msg.delta = &boardcfg.Delta{
		General: &boardcfg.GeneralPatch{WakeIntervalSec: ptr(120)},
	}
	o := r.buildWith(t, failingStore{FileStore: r.store, err: errors.New("disk full")})

	res := o.RunCycle(context.Background())

	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindStorage, res.Errors[0].Kind)
	assert.True(t, res.ConfigApplied)

	res = o.RunCycle(context.Background())
	assert.Equal(t, uint64(1), res.ConfigVersion)
	assert.Equal(t, 120*time.Second, res.NextWake)
}

func TestCycle_NoFallbackSleepsEarly(t *testing.T) {
	bad := greenhouse()
	bad.General.WakeIntervalSec = 1
	r := newRig(t, bad)
	o := r.build(t)

	res := o.RunCycle(context.Background())

	require.NotEmpty(t, res.Errors)
	assert.ErrorIs(t, res.Errors[0].Err, store.ErrNoFallback)
	assert.Equal(t, time.Duration(boardcfg.DefaultRetryWakeSec)*time.Second, res.NextWake)
	assert.Zero(t, r.msg.connects)
	assert.Empty(t, res.Readings)
}

func TestCycle_InvalidSensorKeepsSlot(t *testing.T) {
	cfg := greenhouse()
	cfg.Sensors = append(cfg.Sensors, boardcfg.SensorSettings{
		ID: "hum", Enabled: true, Range: boardcfg.Range{Min: 0, Max: 100},
	})
	r := newRig(t, cfg)
	r.sensors.Add("hum", sensor.Binding{Driver: stuckDriver{}, Timeout: 20 * time.Millisecond})
	o := r.build(t)

	res := o.RunCycle(context.Background())

	require.Len(t, res.Readings, 2)
	assert.True(t, res.Readings[0].Valid)
	assert.False(t, res.Readings[1].Valid)
	assert.True(t, hasStage(res.Succeeded, StageSense))
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindSensor, res.Errors[0].Kind)

	var se *sensor.SensorError
	require.ErrorAs(t, res.Errors[0].Err, &se)
	assert.Equal(t, sensor.CauseTimeout, se.Cause)

	// the packet keeps both slots, the silent sensor flagged
	require.Len(t, r.msg.published, 1)
	sent := r.msg.published[0].Readings
	require.Len(t, sent, 2)
	assert.Equal(t, "temp", sent[0].SensorID)
	assert.True(t, sent[0].Valid)
	assert.Equal(t, "hum", sent[1].SensorID)
	assert.False(t, sent[1].Valid)
	assert.NotEmpty(t, sent[1].Error)

	assert.Equal(t, status.HealthError, r.status.last().Health)
}

func TestCycle_OutOfRangeReadingFlagged(t *testing.T) {
	cfg := greenhouse()
	cfg.Sensors = append(cfg.Sensors, boardcfg.SensorSettings{
		ID: "hum", Enabled: true, Range: boardcfg.Range{Min: 0, Max: 100},
	})
	r := newRig(t, cfg)
	r.sensors.Add("hum", sensor.Binding{Driver: sensor.Static(140)})
	o := r.build(t)

	res := o.RunCycle(context.Background())

	require.Len(t, r.msg.published, 1)
	sent := r.msg.published[0].Readings
	require.Len(t, sent, 2)
	assert.False(t, sent[1].Valid)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, KindSensor, res.Errors[0].Kind)
}

func TestCycle_ClockFailureDoesNotBlock(t *testing.T) {
	r := newRig(t, greenhouse())
	r.clock.syncErr = errors.New("no ntp")
	o := r.build(t)

	res := o.RunCycle(context.Background())

	assert.True(t, res.Delivered)
	assert.False(t, r.msg.published[0].TimeSynced)
	assert.Equal(t, 60*time.Second, res.NextWake)
}

// ---- run loop ----

type countingSleeper struct {
	cancel context.CancelFunc
	after  int
	got    []time.Duration
}

func (s *countingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.got = append(s.got, d)
	if len(s.got) >= s.after {
		s.cancel()
		return ctx.Err()
	}
	return nil
}

func TestRun_SleepsBetweenCycles(t *testing.T) {
	r := newRig(t, greenhouse())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sl := &countingSleeper{cancel: cancel, after: 2}
	o, err := New(Deps{
		Store:     r.store,
		Clock:     r.clock,
		Sensors:   r.sensors,
		Actuators: r.bank,
		Messenger: r.msg,
		Sleeper:   sl,
	}, r.opts)
	require.NoError(t, err)

	err = o.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []time.Duration{300 * time.Second, 300 * time.Second}, sl.got)
	assert.Len(t, r.msg.published, 2)
}

func TestRun_StopsOnFatalHardwareError(t *testing.T) {
	r := newRig(t, greenhouse())
	r.sensors.Add("temp", sensor.Binding{Driver: fatalDriver{}})
	sl := &countingSleeper{cancel: func() {}, after: 100}

	o, err := New(Deps{
		Store:     r.store,
		Clock:     r.clock,
		Sensors:   r.sensors,
		Actuators: r.bank,
		Messenger: r.msg,
		Sleeper:   sl,
	}, r.opts)
	require.NoError(t, err)

	err = o.Run(context.Background())
	require.Error(t, err)
	assert.True(t, isFatal(err))
	assert.Empty(t, sl.got)
	assert.Empty(t, r.msg.published)
}

// ---- sleep computation ----

func TestNextWake(t *testing.T) {
	g := boardcfg.Defaults().General

	assert.Equal(t, 300*time.Second, NextWake(g, Result{}))
	assert.Equal(t, 60*time.Second, NextWake(g, Result{Offline: true}))
	assert.Equal(t, 60*time.Second, NextWake(g, Result{Attempted: []Stage{StageSync}}))
	assert.Equal(t, 3600*time.Second, NextWake(g, Result{PowerAbort: true}))

	g.LowPower = true
	assert.Equal(t, 1200*time.Second, NextWake(g, Result{}))

	g.WakeIntervalSec = 1800
	assert.Equal(t, 3600*time.Second, NextWake(g, Result{}), "capped at max sleep")
}

func TestHealthTracksSecondsInError(t *testing.T) {
	var h health
	h.reset()

	h.settle(Result{Started: t0, Errors: []StageError{{Stage: StageSync, Err: errors.New("x")}}}, t0.Add(5*time.Second))
	assert.Equal(t, status.HealthError, h.snap.Health)
	assert.Equal(t, uint16(30), h.snap.LastErrorCode)
	assert.Equal(t, uint16(5), h.snap.SecondsInError)

	h.settle(Result{Started: t0.Add(time.Minute), Offline: true}, t0.Add(70*time.Second))
	assert.Equal(t, status.HealthStale, h.snap.Health)
	assert.Equal(t, uint16(70), h.snap.SecondsInError)

	h.settle(Result{Started: t0.Add(2 * time.Minute)}, t0.Add(2*time.Minute))
	assert.Equal(t, status.HealthOK, h.snap.Health)
	assert.Zero(t, h.snap.LastErrorCode)
	assert.Zero(t, h.snap.SecondsInError)
}

func TestNewRequiresCollaborators(t *testing.T) {
	_, err := New(Deps{}, Options{BoardID: "b1"})
	assert.Error(t, err)
}

func ptr[T any](v T) *T { return &v }
