// internal/sensor/sensor_test.go
package sensor

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
	cfg "github.com/tamzrod/coolboard-agent/internal/config"
	"github.com/tamzrod/coolboard-agent/internal/fieldbus"
)

// blockingDriver never answers until its context ends.
type blockingDriver struct{}

func (blockingDriver) Read(ctx context.Context) (float64, error) {
	<-ctx.Done()
	return 0, ctx.Err()
}

// stubbornDriver ignores its context entirely.
type stubbornDriver struct{ release chan struct{} }

func (d stubbornDriver) Read(context.Context) (float64, error) {
	<-d.release
	return 1, nil
}

type failingDriver struct{ err error }

func (d failingDriver) Read(context.Context) (float64, error) { return 0, d.err }

func boardWith(ids ...string) boardcfg.BoardConfig {
	c := boardcfg.Defaults()
	for _, id := range ids {
		c.Sensors = append(c.Sensors, boardcfg.SensorSettings{
			ID: id, Enabled: true, Range: boardcfg.Range{Min: -40, Max: 85},
		})
	}
	return c
}

func TestReadAll_OneTimesOut(t *testing.T) {
	s := NewSet()
	s.Add("temp", Binding{Driver: Static(21.5), Unit: "C", Timeout: time.Second})
	s.Add("co2", Binding{Driver: blockingDriver{}, Unit: "ppm", Timeout: 20 * time.Millisecond})

	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	got := s.ReadAll(context.Background(), boardWith("temp", "co2"), now)

	require.Len(t, got, 2)

	assert.Equal(t, "temp", got[0].SensorID)
	assert.True(t, got[0].Valid)
	assert.Equal(t, 21.5, got[0].Value)
	assert.Equal(t, now, got[0].At)

	assert.Equal(t, "co2", got[1].SensorID)
	assert.False(t, got[1].Valid)
	assert.NotEmpty(t, got[1].Error)

	var se *SensorError
	require.True(t, errors.As(got[1].Err, &se))
	assert.Equal(t, CauseTimeout, se.Cause)
}

func TestReadAll_DriverIgnoringContextStillBounded(t *testing.T) {
	release := make(chan struct{})
	defer close(release)

	s := NewSet()
	s.Add("soil", Binding{Driver: stubbornDriver{release: release}, Timeout: 20 * time.Millisecond})

	start := time.Now()
	got := s.ReadAll(context.Background(), boardWith("soil"), start)

	assert.Less(t, time.Since(start), time.Second)
	require.Len(t, got, 1)
	assert.False(t, got[0].Valid)
}

func TestReadAll_ConfigOrderNotRegistrationOrder(t *testing.T) {
	s := NewSet()
	s.Add("c", Binding{Driver: Static(3)})
	s.Add("a", Binding{Driver: Static(1)})
	s.Add("b", Binding{Driver: Static(2)})

	got := s.ReadAll(context.Background(), boardWith("b", "c", "a"), time.Now())

	ids := []string{got[0].SensorID, got[1].SensorID, got[2].SensorID}
	assert.Equal(t, []string{"b", "c", "a"}, ids)
}

func TestReadAll_SkipsDisabled(t *testing.T) {
	s := NewSet()
	s.Add("a", Binding{Driver: Static(1)})
	s.Add("b", Binding{Driver: Static(2)})

	c := boardWith("a", "b")
	c.Sensors[0].Enabled = false

	got := s.ReadAll(context.Background(), c, time.Now())
	require.Len(t, got, 1)
	assert.Equal(t, "b", got[0].SensorID)
}

func TestReadAll_InvalidCauses(t *testing.T) {
	s := NewSet()
	s.Add("hot", Binding{Driver: Static(120)})
	s.Add("broken", Binding{Driver: failingDriver{err: errors.New("crc")}})

	got := s.ReadAll(context.Background(), boardWith("hot", "broken", "ghost"), time.Now())
	require.Len(t, got, 3)

	causes := make([]Cause, 0, 3)
	for _, r := range got {
		require.False(t, r.Valid)
		var se *SensorError
		require.True(t, errors.As(r.Err, &se))
		causes = append(causes, se.Cause)
	}
	assert.Equal(t, []Cause{CauseOutOfRange, CauseDriver, CauseNoDriver}, causes)
	assert.Equal(t, 120.0, got[0].Value)
}

func TestReadOne(t *testing.T) {
	s := NewSet()
	s.Add("vbat", Binding{Driver: Static(3.7)})

	v, err := s.ReadOne(context.Background(), "vbat")
	require.NoError(t, err)
	assert.Equal(t, 3.7, v)

	_, err = s.ReadOne(context.Background(), "nope")
	assert.Error(t, err)
}

// ---- classify / gate ----

func TestClassify_BoundariesAreWithin(t *testing.T) {
	b := boardcfg.Band{Low: 10, High: 20}

	assert.Equal(t, Below, Classify(9.99, b))
	assert.Equal(t, Within, Classify(10, b))
	assert.Equal(t, Within, Classify(20, b))
	assert.Equal(t, Above, Classify(20.01, b))
}

func TestGateOpen(t *testing.T) {
	dark := 50.0
	readings := []Reading{
		{SensorID: "light", Value: 12, Valid: true},
		{SensorID: "lux2", Value: 400, Valid: false},
	}

	assert.True(t, GateOpen(readings, nil))
	assert.True(t, GateOpen(readings, &boardcfg.Gate{Sensor: "light", Below: &dark}))
	assert.False(t, GateOpen(readings, &boardcfg.Gate{Sensor: "light", Above: &dark}))
	assert.False(t, GateOpen(readings, &boardcfg.Gate{Sensor: "lux2", Below: &dark}))
	assert.False(t, GateOpen(readings, &boardcfg.Gate{Sensor: "missing", Below: &dark}))
}

// ---- build ----

func TestBuild_Drivers(t *testing.T) {
	v := 4.2
	pool := fieldbus.NewPool()
	defer pool.Close()

	set, err := Build([]cfg.SensorConfig{
		{ID: "vbat", Driver: cfg.DriverStatic, Value: &v, Unit: "V", TimeoutMs: 100},
		{ID: "temp", Driver: cfg.DriverModbus, Endpoint: "127.0.0.1:1502", FC: 3, Encoding: "int16", Scale: 0.1},
		{ID: "soil", Driver: cfg.DriverOneWire, Path: "/sys/bus/w1/devices/28-x/w1_slave"},
	}, pool)
	require.NoError(t, err)

	assert.True(t, set.Has("vbat"))
	assert.True(t, set.Has("temp"))
	assert.True(t, set.Has("soil"))

	got, err := set.ReadOne(context.Background(), "vbat")
	require.NoError(t, err)
	assert.Equal(t, 4.2, got)
}

func TestBuild_UnknownDriver(t *testing.T) {
	_, err := Build([]cfg.SensorConfig{{ID: "x", Driver: "spi"}}, fieldbus.NewPool())
	assert.Error(t, err)
}
