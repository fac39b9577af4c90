// internal/board/cycle.go
package board

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
	"github.com/tamzrod/coolboard-agent/internal/messenger"
	"github.com/tamzrod/coolboard-agent/internal/outbox"
	"github.com/tamzrod/coolboard-agent/internal/status"
	"github.com/tamzrod/coolboard-agent/internal/store"
)

// RunCycle executes one duty cycle:
//
//	Booting -> LoadingConfig -> Syncing -> Connecting -> Sensing
//	-> Actuating -> Publishing -> Configuring -> Sleeping
//
// A failed stage is recorded and later independent stages still run.
// A missing config, a low battery or a fatal hardware error jump straight
// to Sleeping.
func (o *Orchestrator) RunCycle(ctx context.Context) Result {
	res := Result{
		CycleID: uuid.NewString(),
		Started: o.d.Clock.Now(),
	}
	l := o.log.WithField("cycle", res.CycleID)

	// ------------------------------------------------------------
	// Booting
	// ------------------------------------------------------------

	o.show(status.StateBooting, &res)
	res.attempt(StageBoot)
	if o.guard(ctx, StageBoot, &res) {
		return o.finish(&res, l)
	}
	res.succeed(StageBoot)

	// ------------------------------------------------------------
	// LoadingConfig
	// ------------------------------------------------------------

	o.show(status.StateLoadingConfig, &res)
	if !o.load(&res) {
		res.NextWake = time.Duration(boardcfg.DefaultRetryWakeSec) * time.Second
		return o.finish(&res, l)
	}
	cfg := o.cfg

	// ------------------------------------------------------------
	// Syncing
	// ------------------------------------------------------------

	o.show(status.StateSyncing, &res)
	res.attempt(StageSync)
	sctx, cancel := context.WithTimeout(ctx, o.opts.SyncTimeout)
	err := o.d.Clock.Sync(sctx)
	cancel()
	if err != nil {
		res.record(StageSync, err)
	} else {
		res.succeed(StageSync)
	}

	// ------------------------------------------------------------
	// Connecting
	// ------------------------------------------------------------

	o.show(status.StateConnecting, &res)
	if o.guard(ctx, StageConnect, &res) {
		return o.finish(&res, l)
	}
	res.attempt(StageConnect)
	cctx, cancel := context.WithTimeout(ctx, connectBudget(cfg.Connectivity))
	err = o.d.Messenger.Connect(cctx, messenger.CredentialsFrom(cfg.Connectivity, o.opts.BoardID))
	cancel()
	if err != nil {
		res.Offline = true
		res.record(StageConnect, err)
		l.WithError(err).Warn("broker unreachable, cycle continues offline")
	} else {
		res.succeed(StageConnect)
	}

	// ------------------------------------------------------------
	// Sensing
	// ------------------------------------------------------------

	o.show(status.StateSensing, &res)
	o.sense(ctx, cfg, &res)
	if res.Fatal {
		return o.finish(&res, l)
	}

	// ------------------------------------------------------------
	// Actuating
	// ------------------------------------------------------------

	o.show(status.StateActuating, &res)
	res.attempt(StageActuate)
	actx, cancel := context.WithTimeout(ctx, o.opts.IOTimeout)
	states, errs := o.d.Actuators.Evaluate(actx, cfg, res.Readings, o.d.Clock.Now())
	cancel()
	res.Actuators = states
	for _, e := range errs {
		res.record(StageActuate, e)
	}
	if len(errs) == 0 {
		res.succeed(StageActuate)
	}
	if res.Fatal {
		return o.finish(&res, l)
	}

	// ------------------------------------------------------------
	// Publishing
	// ------------------------------------------------------------

	o.show(status.StatePublishing, &res)
	if o.guard(ctx, StagePublish, &res) {
		return o.finish(&res, l)
	}
	res.attempt(StagePublish)
	o.publish(ctx, cfg, &res)

	// ------------------------------------------------------------
	// Configuring (online only)
	// ------------------------------------------------------------

	if !res.Offline {
		o.show(status.StateConfiguring, &res)
		res.attempt(StageConfigure)
		o.configure(ctx, cfg, &res)
	}

	return o.finish(&res, l)
}

// ---- STAGES ----

// load refreshes the record from the store. It reports false only when no
// valid record exists at all.
func (o *Orchestrator) load(r *Result) bool {
	r.attempt(StageLoad)

	c, src, err := o.d.Store.Load()
	if errors.Is(err, store.ErrNoFallback) {
		r.record(StageLoad, err)
		return false
	}
	// a *ConfigError explains a fallback; the record is still usable
	r.record(StageLoad, err)

	// an update applied by this process but not persisted stays in force
	if !o.loaded || c.Version >= o.cfg.Version {
		o.cfg, o.source = c, src
	}
	o.loaded = true

	r.ConfigVersion = o.cfg.Version
	r.ConfigSource = o.source.String()
	r.succeed(StageLoad)
	return true
}

func (o *Orchestrator) sense(ctx context.Context, cfg boardcfg.BoardConfig, r *Result) {
	r.attempt(StageSense)

	sctx, cancel := context.WithTimeout(ctx, o.opts.IOTimeout)
	defer cancel()
	r.Readings = o.d.Sensors.ReadAll(sctx, cfg, o.d.Clock.Now())

	valid := 0
	for _, rd := range r.Readings {
		if rd.Valid {
			valid++
			continue
		}
		r.record(StageSense, rd.Err)
	}

	// one bad probe does not fail the stage; losing every probe does
	if len(r.Readings) == 0 || valid > 0 {
		r.succeed(StageSense)
	}
}

func (o *Orchestrator) publish(ctx context.Context, cfg boardcfg.BoardConfig, r *Result) {
	backlog, err := o.d.Outbox.Len(ctx)
	r.record(StagePublish, err)

	p := messenger.TelemetryPacket{
		Schema:         messenger.PacketSchema,
		BoardID:        o.opts.BoardID,
		CycleID:        r.CycleID,
		FWVersion:      o.opts.FWVersion,
		ConfigVersion:  cfg.Version,
		Timestamp:      o.d.Clock.Now(),
		TimeSynced:     o.d.Clock.Synced(),
		Readings:       r.Readings,
		Actuators:      r.Actuators,
		OfflineBacklog: backlog,
	}

	defer func() {
		if n, err := o.d.Outbox.Len(ctx); err == nil {
			r.Backlog = n
		}
	}()

	if !r.Offline {
		pctx, cancel := context.WithTimeout(ctx, publishBudget(cfg.Connectivity))
		defer cancel()

		err := o.d.Messenger.Publish(pctx, p)
		if err == nil {
			r.Delivered = true

			// replay the spool oldest first; stop at the first failure
			n, derr := o.d.Outbox.Drain(pctx, o.d.Messenger.Resend)
			r.Replayed = n
			r.record(StagePublish, derr)
			if derr == nil {
				r.succeed(StagePublish)
			}
			return
		}
		r.record(StagePublish, err)
	}

	if cfg.General.DropOffline {
		o.log.WithField("cycle", r.CycleID).Info("telemetry dropped")
		return
	}

	raw, err := messenger.EncodePacket(p)
	if err != nil {
		r.record(StagePublish, err)
		return
	}
	if err := o.d.Outbox.Push(ctx, raw); err != nil {
		if errors.Is(err, outbox.ErrDisabled) {
			o.log.WithField("cycle", r.CycleID).Info("telemetry dropped, outbox disabled")
			return
		}
		r.record(StagePublish, err)
		return
	}
	r.Buffered = true
}

func (o *Orchestrator) configure(ctx context.Context, cfg boardcfg.BoardConfig, r *Result) {
	fctx, cancel := context.WithTimeout(ctx, o.opts.Listen+publishBudget(cfg.Connectivity))
	defer cancel()

	ok := true
	fail := func(err error) {
		if err != nil {
			r.record(StageConfigure, err)
			ok = false
		}
	}

	delta, err := o.d.Messenger.FetchConfigUpdates(fctx)
	fail(err)

	if delta != nil && delta.HasConfig() {
		next, changed, aerr := boardcfg.Apply(cfg, *delta)
		switch {
		case aerr != nil:
			fail(&store.ConfigError{Path: "remote delta", Fallback: o.source, Err: aerr})
		case changed:
			o.cfg, cfg = next, next
			r.ConfigApplied = true
			r.ConfigVersion = next.Version

			// in-memory record stays authoritative if the write fails
			fail(o.d.Store.Persist(next))
			fail(o.d.Messenger.ReportConfig(fctx, next))

			o.log.WithFields(log.Fields{
				"cycle":   r.CycleID,
				"version": next.Version,
			}).Info("config update applied")
		}
	}

	if delta != nil && len(delta.Commands) > 0 {
		actx, acancel := context.WithTimeout(ctx, o.opts.IOTimeout)
		for _, e := range o.d.Actuators.Apply(actx, delta.Commands, o.d.Clock.Now()) {
			fail(e)
		}
		acancel()
		r.Actuators = o.d.Actuators.States(cfg)
	}

	if ok {
		r.succeed(StageConfigure)
	}
}

// finish closes the cycle and decides the sleep.
func (o *Orchestrator) finish(r *Result, l *log.Entry) Result {
	if r.NextWake == 0 {
		r.NextWake = NextWake(o.cfg.General, *r)
	}

	if o.d.Messenger.Connected() {
		if err := o.d.Messenger.Close(); err != nil {
			l.WithError(err).Debug("broker close failed")
		}
	}

	r.Finished = o.d.Clock.Now()
	o.health.settle(*r, r.Finished)
	o.show(status.StateSleeping, r)

	if o.d.Observer != nil {
		o.d.Observer.ObserveCycle(*r)
	}

	fields := log.Fields{
		"config_version": r.ConfigVersion,
		"errors":         len(r.Errors),
		"offline":        r.Offline,
		"delivered":      r.Delivered,
		"buffered":       r.Buffered,
		"next_wake":      r.NextWake,
	}
	for _, e := range r.Errors {
		l.WithFields(log.Fields{"stage": e.Stage, "kind": e.Kind}).Warn(e.Message)
	}
	switch {
	case r.Fatal:
		l.WithFields(fields).Error("cycle aborted by fatal hardware error")
	case r.PowerAbort:
		l.WithFields(fields).Warn("cycle aborted by power guard")
	default:
		l.WithFields(fields).Info("cycle finished")
	}

	return *r
}

// ---- BUDGETS ----

// connectBudget bounds every connect attempt plus the backoff between them.
func connectBudget(c boardcfg.ConnectivityConfig) time.Duration {
	n := c.ConnectRetries
	if n < 1 {
		n = 1
	}
	total := c.Timeout() * time.Duration(n)
	wait := c.RetryBackoff()
	for i := 1; i < n; i++ {
		total += wait * 2
		wait *= 2
	}
	return total
}

func publishBudget(c boardcfg.ConnectivityConfig) time.Duration {
	return c.Timeout() * 4
}
