// internal/status/led.go
package status

import (
	"io"
	"sync"

	"github.com/fatih/color"
)

// Colour names follow the board's LED code.
const (
	LEDOff    = "off"
	LEDYellow = "yellow"
	LEDBlue   = "blue"
	LEDGreen  = "green"
	LEDWhite  = "white"
	LEDOrange = "orange"
	LEDRed    = "red"
)

var ledColors = map[string]*color.Color{
	LEDOff:    color.New(color.FgHiBlack),
	LEDYellow: color.New(color.FgYellow),
	LEDBlue:   color.New(color.FgBlue),
	LEDGreen:  color.New(color.FgGreen),
	LEDWhite:  color.New(color.FgHiWhite),
	LEDOrange: color.RGB(255, 128, 0),
	LEDRed:    color.New(color.FgRed, color.Bold),
}

// LEDColor maps a snapshot to the board LED colour.
func LEDColor(s Snapshot) string {
	if s.State == StateSleeping {
		return LEDOff
	}
	switch s.Alert {
	case AlertNetwork:
		return LEDOrange
	case AlertError:
		return LEDRed
	}

	switch s.State {
	case StateBooting, StateLoadingConfig, StateSyncing:
		return LEDYellow
	case StateConnecting, StateConfiguring:
		return LEDBlue
	case StateSensing, StateActuating:
		return LEDGreen
	case StatePublishing:
		return LEDWhite
	default:
		return LEDOff
	}
}

// ConsoleLED renders the LED on a terminal, one line per change.
type ConsoleLED struct {
	mu   sync.Mutex
	out  io.Writer
	last string
	init bool
}

func NewConsoleLED(out io.Writer) *ConsoleLED {
	return &ConsoleLED{out: out}
}

func (l *ConsoleLED) Show(s Snapshot) {
	c := LEDColor(s)

	l.mu.Lock()
	defer l.mu.Unlock()

	key := c + "|" + s.State.String()
	if l.init && key == l.last {
		return
	}
	l.init = true
	l.last = key

	_, _ = ledColors[c].Fprintf(l.out, "● %-6s %s\n", c, s.State)
}
