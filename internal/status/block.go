// internal/status/block.go
package status

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
)

// RegisterWriter is the single bus operation the block writer needs.
type RegisterWriter interface {
	WriteRegisters(unitID uint8, addr uint16, regs []uint16) error
}

// BlockPlan places the board's status block on a Modbus server.
type BlockPlan struct {
	UnitID     uint8
	BaseSlot   uint16
	DeviceName string
}

// BlockWriter delivers snapshots into a holding-register status block.
// It writes only changed slots, and re-asserts the full block (identity
// included) on first use and after any failure.
type BlockWriter struct {
	plan BlockPlan
	cli  RegisterWriter

	needFull bool
	last     Snapshot
	nameRegs []uint16
}

func NewBlockWriter(plan BlockPlan, cli RegisterWriter) *BlockWriter {
	return &BlockWriter{
		plan:     plan,
		cli:      cli,
		needFull: true,
		last:     Snapshot{Health: HealthUnknown},
		nameRegs: EncodeDeviceName(plan.DeviceName),
	}
}

// WriteStatus delivers one snapshot.
// On any write failure, the next successful call will re-assert the full block.
func (w *BlockWriter) WriteStatus(s Snapshot) error {
	if w == nil || w.cli == nil {
		return errors.New("status block: disabled")
	}

	base := w.baseAddr()

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if w.needFull {
		if err := w.cli.WriteRegisters(w.plan.UnitID, base, Encode(s, w.nameRegs)); err != nil {
			return fmt.Errorf("status block: full block write failed: %w", err)
		}
		w.needFull = false
		w.last = s
		return nil
	}

	var errs []string

	slots := []struct {
		name string
		slot uint16
		old  uint16
		new  uint16
		keep func()
	}{
		{"health", SlotHealthCode, w.last.Health, s.Health, func() { w.last.Health = s.Health }},
		{"last_error", SlotLastErrorCode, w.last.LastErrorCode, s.LastErrorCode, func() { w.last.LastErrorCode = s.LastErrorCode }},
		{"seconds", SlotSecondsInError, w.last.SecondsInError, s.SecondsInError, func() { w.last.SecondsInError = s.SecondsInError }},
		{"state", SlotBoardState, uint16(w.last.State), uint16(s.State), func() { w.last.State = s.State }},
	}

	for _, sl := range slots {
		if sl.old == sl.new {
			continue
		}
		if err := w.cli.WriteRegisters(w.plan.UnitID, base+sl.slot, []uint16{sl.new}); err != nil {
			errs = append(errs, fmt.Sprintf("slot%d %s write failed: %v", sl.slot, sl.name, err))
			continue
		}
		sl.keep()
	}
	w.last.Alert = s.Alert

	if len(errs) > 0 {
		// any partial failure introduces doubt
		w.needFull = true
		return errors.New("status block: " + strings.Join(errs, " | "))
	}

	return nil
}

func (w *BlockWriter) baseAddr() uint16 {
	// each board owns a fixed SlotsPerDevice block
	return w.plan.BaseSlot * SlotsPerDevice
}

// BlockIndicator adapts a BlockWriter to the fire-and-forget Indicator.
type BlockIndicator struct {
	W   *BlockWriter
	Log *log.Entry
}

func (b BlockIndicator) Show(s Snapshot) {
	if err := b.W.WriteStatus(s); err != nil && b.Log != nil {
		b.Log.WithError(err).Warn("status block write failed")
	}
}
