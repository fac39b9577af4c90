// internal/sensor/classify.go
package sensor

import "github.com/tamzrod/coolboard-agent/internal/boardcfg"

type Level int

const (
	Below Level = iota - 1
	Within
	Above
)

func (l Level) String() string {
	switch l {
	case Below:
		return "below"
	case Above:
		return "above"
	default:
		return "within"
	}
}

// Classify places a value against a {low, high} band.
// Both boundaries belong to Within.
func Classify(v float64, b boardcfg.Band) Level {
	switch {
	case v < b.Low:
		return Below
	case v > b.High:
		return Above
	default:
		return Within
	}
}

// GateOpen reports whether the gate allows automatic activation.
// A nil gate is always open; a missing or invalid gate reading keeps it closed.
func GateOpen(readings []Reading, g *boardcfg.Gate) bool {
	if g == nil {
		return true
	}

	r, ok := Find(readings, g.Sensor)
	if !ok || !r.Valid {
		return false
	}
	if g.Below != nil && !(r.Value < *g.Below) {
		return false
	}
	if g.Above != nil && !(r.Value > *g.Above) {
		return false
	}
	return true
}

func Find(readings []Reading, id string) (Reading, bool) {
	for _, r := range readings {
		if r.SensorID == id {
			return r, true
		}
	}
	return Reading{}, false
}
