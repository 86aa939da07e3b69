// Package timer implements the one-shot microsecond delay subsystem:
// StartTimer arms a countdown in ticks (1 tick == 10µs at a 100kHz timer),
// a timer interrupt sets a TIMEOUT flag when it elapses, and Delay spins on
// that flag.
package timer

import (
	"sync/atomic"
	"time"

	"github.com/vakon84/at2xt/csec"
)

// Timer is the interface bridge.Core delays against. Simulated is
// tick-counted for deterministic tests; RealTime is wall-clock-backed for
// cmd/bridge running against gpiopins.
type Timer interface {
	// StartTimer arms the countdown for the given number of ticks,
	// clearing TIMEOUT first.
	StartTimer(ticks uint32, tok csec.Token)
	// Timeout reports whether the countdown has elapsed.
	Timeout() bool
	// Delay arms the countdown and spins until it elapses.
	Delay(ticks uint32)
}

// TickDuration is how long one tick represents at the 100kHz timer.
const TickDuration = 10 * time.Microsecond

// Simulated is a tick-counted Timer: each call to Tick represents one
// 10µs hardware timer interrupt firing. Driven explicitly by tests and by
// pins.Simulated-based harnesses so a test can assert exactly how many
// ticks elapse before TIMEOUT is set, without sleeping real wall-clock
// time.
type Simulated struct {
	remaining uint32
	armed     bool
	timeout   atomic.Bool
}

// NewSimulated returns a Simulated timer, initially disarmed.
func NewSimulated() *Simulated {
	return &Simulated{}
}

// StartTimer implements Timer.
func (s *Simulated) StartTimer(ticks uint32, _ csec.Token) {
	s.timeout.Store(false)
	s.remaining = ticks
	s.armed = ticks > 0
	if !s.armed {
		s.timeout.Store(true)
	}
}

// Timeout implements Timer.
func (s *Simulated) Timeout() bool {
	return s.timeout.Load()
}

// Tick represents one 10µs timer-interrupt firing: decrements the
// countdown and, on reaching zero, sets TIMEOUT and disarms, matching
// what the real timer ISR does.
func (s *Simulated) Tick() {
	if !s.armed {
		return
	}
	s.remaining--
	if s.remaining == 0 {
		s.armed = false
		s.timeout.Store(true)
	}
}

// Delay implements Timer by spinning, driving its own ticks. Useful in
// tests that don't care about the tick/real-time distinction and just want
// the countdown to run to completion deterministically.
func (s *Simulated) Delay(ticks uint32) {
	var tok csec.Token
	s.StartTimer(ticks, tok)
	for !s.Timeout() {
		s.Tick()
	}
}

// RealTime is a Timer backed by time.Timer, for cmd/bridge running against
// real GPIO hardware where a tick really does take TickDuration.
type RealTime struct {
	timeout atomic.Bool
	t       *time.Timer
}

// NewRealTime returns a RealTime timer, initially disarmed.
func NewRealTime() *RealTime {
	return &RealTime{}
}

// StartTimer implements Timer.
func (r *RealTime) StartTimer(ticks uint32, _ csec.Token) {
	r.timeout.Store(false)
	if r.t != nil {
		r.t.Stop()
	}
	d := time.Duration(ticks) * TickDuration
	r.t = time.AfterFunc(d, func() { r.timeout.Store(true) })
}

// Timeout implements Timer.
func (r *RealTime) Timeout() bool {
	return r.timeout.Load()
}

// Delay implements Timer.
func (r *RealTime) Delay(ticks uint32) {
	var tok csec.Token
	r.StartTimer(ticks, tok)
	for !r.Timeout() {
		// Busy-spin on the atomic flag; a real MCU has nothing better to do
		// either.
	}
}
