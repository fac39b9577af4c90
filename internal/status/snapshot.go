// internal/status/snapshot.go
package status

// State is the duty-cycle state shown to the outside world.
type State uint16

const (
	StateBooting State = iota + 1
	StateLoadingConfig
	StateSyncing
	StateConnecting
	StateSensing
	StateActuating
	StatePublishing
	StateConfiguring
	StateSleeping
)

var stateNames = map[State]string{
	StateBooting:       "booting",
	StateLoadingConfig: "loading_config",
	StateSyncing:       "syncing",
	StateConnecting:    "connecting",
	StateSensing:       "sensing",
	StateActuating:     "actuating",
	StatePublishing:    "publishing",
	StateConfiguring:   "configuring",
	StateSleeping:      "sleeping",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Alert marks a problem worth a distinct signal.
type Alert uint8

const (
	AlertNone Alert = iota
	AlertNetwork
	AlertError
)

// Snapshot represents exactly what an indicator is allowed to show.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	State          State
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
	Alert          Alert
}

// Indicator reflects board state. Show is fire-and-forget.
type Indicator interface {
	Show(s Snapshot)
}

// Multi fans one snapshot out to several indicators.
type Multi []Indicator

func (m Multi) Show(s Snapshot) {
	for _, ind := range m {
		ind.Show(s)
	}
}

// Nop discards snapshots.
type Nop struct{}

func (Nop) Show(Snapshot) {}
