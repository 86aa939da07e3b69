// Package gpiopins is the real-hardware pins.Pins backend: five periph.io
// gpio.PinIO lines looked up by name, plus a background goroutine that
// turns AT_CLK falling edges into a callback.
//
// cmd/bridge selects this backend on real hardware and pins.Simulated
// under -simulate; both satisfy pins.Pins.
package gpiopins

import (
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/vakon84/at2xt/pins"
)

// Names holds the GPIO pin names (as gpioreg.ByName understands them, e.g.
// "GPIO17" on a Raspberry Pi) for each logical line.
type Names struct {
	ATClock string
	ATData  string
	XTClock string
	XTData  string
	XTSense string
}

// Pins is the gpiopins.Pins implementation of pins.Pins.
type Pins struct {
	mu sync.Mutex

	p map[pins.Line]gpio.PinIO

	atClockIntEnabled bool
	onFallingEdge     func()

	stopWatch chan struct{}
}

// Open initializes the periph.io host drivers and binds the five logical
// lines to physical GPIO pins by name. The caller must call Close when
// done to stop the AT_CLK edge-watcher goroutine.
func Open(names Names) (*Pins, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpiopins: host.Init: %w", err)
	}

	lookup := map[pins.Line]string{
		pins.ATClock: names.ATClock,
		pins.ATData:  names.ATData,
		pins.XTClock: names.XTClock,
		pins.XTData:  names.XTData,
		pins.XTSense: names.XTSense,
	}
	p := make(map[pins.Line]gpio.PinIO, len(lookup))
	for line, name := range lookup {
		pin := gpioreg.ByName(name)
		if pin == nil {
			return nil, fmt.Errorf("gpiopins: no such GPIO pin %q for %s", name, line)
		}
		p[line] = pin
	}

	gp := &Pins{p: p, stopWatch: make(chan struct{})}
	// AT_DATA and XT_SENSE are read-mostly; AT_CLK needs edge detection;
	// XT_CLK/XT_DATA start as inputs (released) until a send switches them
	// to outputs via XtOut.
	for line, pin := range p {
		var err error
		if line == pins.ATClock {
			err = pin.In(gpio.PullUp, gpio.FallingEdge)
		} else {
			err = pin.In(gpio.PullUp, gpio.NoEdge)
		}
		if err != nil {
			return nil, fmt.Errorf("gpiopins: configuring %s: %w", line, err)
		}
	}

	go gp.watchATClock()
	return gp, nil
}

// OnATClockFallingEdge registers the callback bridge.New duck-types for;
// see pins.Simulated.OnATClockFallingEdge for the same contract.
func (g *Pins) OnATClockFallingEdge(fn func()) {
	g.mu.Lock()
	g.onFallingEdge = fn
	g.mu.Unlock()
}

// watchATClock blocks on WaitForEdge and invokes the registered callback
// on every falling edge while the interrupt is armed, standing in for the
// real MCU's AT_CLK interrupt vector.
func (g *Pins) watchATClock() {
	clk := g.p[pins.ATClock]
	for {
		select {
		case <-g.stopWatch:
			return
		default:
		}
		if !clk.WaitForEdge(100 * time.Millisecond) {
			continue
		}
		g.mu.Lock()
		enabled := g.atClockIntEnabled
		cb := g.onFallingEdge
		g.mu.Unlock()
		if enabled && cb != nil {
			cb()
		}
	}
}

// Close stops the edge-watcher goroutine.
func (g *Pins) Close() {
	close(g.stopWatch)
}

// Set implements pins.Pins.
func (g *Pins) Set(line pins.Line) {
	_ = g.p[line].In(gpio.PullUp, g.edgeFor(line))
}

// Unset implements pins.Pins.
func (g *Pins) Unset(line pins.Line) {
	_ = g.p[line].Out(gpio.Low)
}

func (g *Pins) edgeFor(line pins.Line) gpio.Edge {
	if line == pins.ATClock {
		return gpio.FallingEdge
	}
	return gpio.NoEdge
}

// IsSet implements pins.Pins.
func (g *Pins) IsSet(line pins.Line) bool {
	return g.p[line].Read() == gpio.High
}

// IsUnset implements pins.Pins.
func (g *Pins) IsUnset(line pins.Line) bool {
	return !g.IsSet(line)
}

// AtIdle implements pins.Pins.
func (g *Pins) AtIdle() {
	g.Set(pins.ATClock)
	g.Set(pins.ATData)
}

// AtInhibit implements pins.Pins.
func (g *Pins) AtInhibit() {
	g.Unset(pins.ATClock)
}

// XtOut implements pins.Pins: switch XT_CLK/XT_DATA to driven outputs,
// idle high, for the duration of a send.
func (g *Pins) XtOut() {
	_ = g.p[pins.XTClock].Out(gpio.High)
	_ = g.p[pins.XTData].Out(gpio.High)
}

// XtIn implements pins.Pins: release XT_CLK/XT_DATA back to inputs.
func (g *Pins) XtIn() {
	_ = g.p[pins.XTClock].In(gpio.PullUp, gpio.NoEdge)
	_ = g.p[pins.XTData].In(gpio.PullUp, gpio.NoEdge)
}

// MkIn implements pins.Pins.
func (g *Pins) MkIn(line pins.Line) {
	_ = g.p[line].In(gpio.PullUp, g.edgeFor(line))
}

// EnableATClockInt implements pins.Pins.
func (g *Pins) EnableATClockInt() {
	g.mu.Lock()
	g.atClockIntEnabled = true
	g.mu.Unlock()
}

// DisableATClockInt implements pins.Pins.
func (g *Pins) DisableATClockInt() {
	g.mu.Lock()
	g.atClockIntEnabled = false
	g.mu.Unlock()
}

// ClearATClockInt implements pins.Pins. Real edge-triggered GPIO has no
// separate pending-interrupt flag to acknowledge here; WaitForEdge already
// consumed the event.
func (g *Pins) ClearATClockInt() {}

var _ pins.Pins = (*Pins)(nil)
