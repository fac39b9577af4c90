// internal/messenger/codec.go
package messenger

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/coolboard-agent/internal/actuator"
	"github.com/tamzrod/coolboard-agent/internal/boardcfg"
	"github.com/tamzrod/coolboard-agent/internal/sensor"
)

// PacketSchema is the telemetry wire version.
const PacketSchema = 1

// TelemetryPacket is what one cycle publishes.
// Receivers must ignore fields they do not know.
type TelemetryPacket struct {
	Schema         int              `json:"schema"`
	BoardID        string           `json:"board_id"`
	CycleID        string           `json:"cycle_id"`
	FWVersion      string           `json:"fw_version"`
	ConfigVersion  uint64           `json:"config_version"`
	Timestamp      time.Time        `json:"timestamp"`
	TimeSynced     bool             `json:"time_synced"`
	Readings       []sensor.Reading `json:"readings"`
	Actuators      []actuator.State `json:"actuators"`
	OfflineBacklog int              `json:"offline_backlog"`
}

func EncodePacket(p TelemetryPacket) ([]byte, error) {
	if p.Schema == 0 {
		p.Schema = PacketSchema
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode telemetry: %w", err)
	}
	return raw, nil
}

// ---- CONFIG MESSAGES ----

var ErrMalformed = errors.New("malformed config message")

// DecodeEnvelope parses one config topic message.
// Unknown fields are ignored; a newer schema or an unknown command is not.
func DecodeEnvelope(raw []byte) (boardcfg.Delta, error) {
	var env boardcfg.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return boardcfg.Delta{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := env.Check(); err != nil {
		return boardcfg.Delta{}, err
	}
	for id, cmd := range env.State.Commands {
		if !cmd.Valid() {
			return boardcfg.Delta{}, fmt.Errorf("%w: actuator %q: unknown command %q", ErrMalformed, id, cmd)
		}
	}
	return env.State, nil
}

// report is the answer to an applied update: the full record as reported
// and an explicit null desired side so the backend clears its pending delta.
type report struct {
	Schema   int                  `json:"schema"`
	BoardID  string               `json:"board_id"`
	Reported boardcfg.BoardConfig `json:"reported"`
	Desired  *boardcfg.Delta      `json:"desired"`
}

func newReport(boardID string, bc boardcfg.BoardConfig) report {
	bc = bc.Clone()
	if bc.Connectivity.Password != "" {
		bc.Connectivity.Password = "********"
	}
	return report{
		Schema:   boardcfg.SchemaVersion,
		BoardID:  boardID,
		Reported: bc,
	}
}
