// internal/metrics/metrics.go
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/tamzrod/coolboard-agent/internal/actuator"
	"github.com/tamzrod/coolboard-agent/internal/board"
)

// Recorder turns cycle results into Prometheus series.
// It owns its registry so several boards can run in one test binary.
type Recorder struct {
	reg *prometheus.Registry

	cycles       *prometheus.CounterVec
	stageErrors  *prometheus.CounterVec
	duration     prometheus.Histogram
	nextWake     prometheus.Gauge
	backlog      prometheus.Gauge
	replayed     prometheus.Counter
	configVer    prometheus.Gauge
	sensorValue  *prometheus.GaugeVec
	sensorValid  *prometheus.GaugeVec
	actuatorMode *prometheus.GaugeVec
}

func New() *Recorder {
	r := &Recorder{
		reg: prometheus.NewRegistry(),
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coolboard_cycles_total",
			Help: "Duty cycles by outcome.",
		}, []string{"outcome"}),
		stageErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "coolboard_stage_errors_total",
			Help: "Errors recorded per stage and kind.",
		}, []string{"stage", "kind"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "coolboard_cycle_duration_seconds",
			Help:    "Wall time of one duty cycle.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		nextWake: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coolboard_next_wake_seconds",
			Help: "Sleep chosen at the end of the last cycle.",
		}),
		backlog: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coolboard_outbox_backlog",
			Help: "Undelivered telemetry packets waiting in the outbox.",
		}),
		replayed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "coolboard_outbox_replayed_total",
			Help: "Buffered packets delivered after reconnecting.",
		}),
		configVer: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "coolboard_config_version",
			Help: "Version of the board config in force.",
		}),
		sensorValue: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coolboard_sensor_value",
			Help: "Last valid sensor value.",
		}, []string{"sensor"}),
		sensorValid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coolboard_sensor_valid",
			Help: "1 when the last reading was valid.",
		}, []string{"sensor"}),
		actuatorMode: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "coolboard_actuator_mode",
			Help: "1 for the mode each actuator is in.",
		}, []string{"actuator", "mode"}),
	}

	r.reg.MustRegister(
		r.cycles, r.stageErrors, r.duration, r.nextWake, r.backlog,
		r.replayed, r.configVer, r.sensorValue, r.sensorValid, r.actuatorMode,
	)
	return r
}

func (r *Recorder) Registry() *prometheus.Registry { return r.reg }

func outcome(res board.Result) string {
	switch {
	case res.Fatal:
		return "fatal"
	case res.PowerAbort:
		return "power_abort"
	case res.Offline:
		return "offline"
	case res.Failed():
		return "degraded"
	}
	return "ok"
}

var modes = []actuator.Mode{actuator.ModeIdle, actuator.ModeActive, actuator.ModeFault}

// ObserveCycle implements board.Observer.
func (r *Recorder) ObserveCycle(res board.Result) {
	r.cycles.WithLabelValues(outcome(res)).Inc()
	for _, e := range res.Errors {
		r.stageErrors.WithLabelValues(string(e.Stage), string(e.Kind)).Inc()
	}
	if !res.Finished.IsZero() {
		r.duration.Observe(res.Finished.Sub(res.Started).Seconds())
	}
	r.nextWake.Set(res.NextWake.Seconds())
	r.backlog.Set(float64(res.Backlog))
	r.replayed.Add(float64(res.Replayed))
	r.configVer.Set(float64(res.ConfigVersion))

	for _, rd := range res.Readings {
		if rd.Valid {
			r.sensorValue.WithLabelValues(rd.SensorID).Set(rd.Value)
			r.sensorValid.WithLabelValues(rd.SensorID).Set(1)
		} else {
			r.sensorValid.WithLabelValues(rd.SensorID).Set(0)
		}
	}

	for _, st := range res.Actuators {
		for _, m := range modes {
			v := 0.0
			if st.Mode == m {
				v = 1
			}
			r.actuatorMode.WithLabelValues(st.ID, string(m)).Set(v)
		}
	}
}

// Serve exposes /metrics on addr until ctx ends.
func (r *Recorder) Serve(ctx context.Context, addr string, logger *log.Entry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.WithError(err).Warn("metrics server shutdown")
		}
	}()

	logger.WithField("addr", addr).Info("metrics listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
