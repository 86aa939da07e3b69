package pins

import "sync"

// wire models one open-collector signal with two independent drivers: the
// bridge side (this process, via Set/Unset) and a remote side (a test
// harness standing in for the keyboard or the XT host, via driveRemote).
// The wire reads high only when neither side is actively driving it low.
type wire struct {
	localLow  bool
	remoteLow bool
}

func (w *wire) level() bool {
	return !w.localLow && !w.remoteLow
}

// Simulated is an in-process open-collector bus model implementing Pins.
// It is driven on one side by the bridge core under test and on the other
// by a harness (unit tests, or cmd/simulate's scripted virtual keyboard)
// calling the DriveRemote* methods. Safe for concurrent use so cmd/simulate
// can run the harness and the bridge's edge-watcher on separate goroutines,
// the same way gpiopins does against real hardware.
type Simulated struct {
	mu sync.Mutex

	w map[Line]*wire

	atClockIntEnabled bool
	atClockIntPending bool
	prevATClockHigh   bool

	onFallingEdge func()
}

// NewSimulated returns a Simulated bus with every line idle (released,
// reading high).
func NewSimulated() *Simulated {
	s := &Simulated{
		w: map[Line]*wire{
			ATClock: {},
			ATData:  {},
			XTClock: {},
			XTData:  {},
			XTSense: {},
		},
		prevATClockHigh: true,
	}
	return s
}

// OnATClockFallingEdge registers the callback invoked (synchronously, on
// the caller's goroutine) whenever a DriveRemote* call or a local Set/Unset
// causes AT_CLK to transition high->low while the interrupt is enabled.
// cmd/bridge's gpiopins backend gets this for free from real hardware;
// here it has to be modeled explicitly.
func (s *Simulated) OnATClockFallingEdge(fn func()) {
	s.mu.Lock()
	s.onFallingEdge = fn
	s.mu.Unlock()
}

func (s *Simulated) checkATClockEdge() {
	cur := s.w[ATClock].level()
	falling := s.prevATClockHigh && !cur
	s.prevATClockHigh = cur
	if falling && s.atClockIntEnabled {
		s.atClockIntPending = true
		cb := s.onFallingEdge
		if cb != nil {
			s.mu.Unlock()
			cb()
			s.mu.Lock()
		}
	}
}

// Set implements Pins.
func (s *Simulated) Set(line Line) {
	s.mu.Lock()
	s.w[line].localLow = false
	if line == ATClock {
		s.checkATClockEdge()
	}
	s.mu.Unlock()
}

// Unset implements Pins.
func (s *Simulated) Unset(line Line) {
	s.mu.Lock()
	s.w[line].localLow = true
	if line == ATClock {
		s.checkATClockEdge()
	}
	s.mu.Unlock()
}

// IsSet implements Pins.
func (s *Simulated) IsSet(line Line) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w[line].level()
}

// IsUnset implements Pins.
func (s *Simulated) IsUnset(line Line) bool {
	return !s.IsSet(line)
}

// AtIdle implements Pins.
func (s *Simulated) AtIdle() {
	s.Set(ATClock)
	s.Set(ATData)
}

// AtInhibit implements Pins.
func (s *Simulated) AtInhibit() {
	s.Unset(ATClock)
}

// XtOut implements Pins. The simulated bus has no real direction register,
// so this is a no-op beyond documenting intent; real GPIO backends need it.
func (s *Simulated) XtOut() {}

// XtIn implements Pins; see XtOut.
func (s *Simulated) XtIn() {
	s.Set(XTClock)
	s.Set(XTData)
}

// MkIn implements Pins.
func (s *Simulated) MkIn(line Line) {
	s.Set(line)
}

// EnableATClockInt implements Pins.
func (s *Simulated) EnableATClockInt() {
	s.mu.Lock()
	s.atClockIntEnabled = true
	s.mu.Unlock()
}

// DisableATClockInt implements Pins.
func (s *Simulated) DisableATClockInt() {
	s.mu.Lock()
	s.atClockIntEnabled = false
	s.mu.Unlock()
}

// ClearATClockInt implements Pins.
func (s *Simulated) ClearATClockInt() {
	s.mu.Lock()
	s.atClockIntPending = false
	s.mu.Unlock()
}

// DriveRemoteLow drives line low from the remote side (keyboard or host
// stand-in). Used by test harnesses and cmd/simulate's virtual keyboard.
func (s *Simulated) DriveRemoteLow(line Line) {
	s.mu.Lock()
	s.w[line].remoteLow = true
	if line == ATClock {
		s.checkATClockEdge()
	}
	s.mu.Unlock()
}

// DriveRemoteRelease releases line from the remote side, letting it float
// high unless the local side is also driving it low.
func (s *Simulated) DriveRemoteRelease(line Line) {
	s.mu.Lock()
	s.w[line].remoteLow = false
	if line == ATClock {
		s.checkATClockEdge()
	}
	s.mu.Unlock()
}

// RemoteSample reads the wire level as the remote side would see it (the
// same level the local side sees, since it's one shared bus).
func (s *Simulated) RemoteSample(line Line) bool {
	return s.IsSet(line)
}
