// Package pins defines the typed line abstraction for the AT/XT bridge's
// five physical signals and the open-collector-flavored operations the
// core performs on them. A pin is "low" by switching to output-0 and
// "high" by switching to input and letting an external pull-up raise it:
// Set releases (lets float high), Unset drives low. No operation here ever
// drives a line actively high; that convention is what keeps the bridge
// from contending with the keyboard or the host on a shared bus.
package pins

// Line names one of the bridge's five physical signals.
type Line int

const (
	// ATClock is the keyboard-generated AT clock; falling edges on it
	// drive the AT bit engine.
	ATClock Line = iota
	// ATData carries AT frame bits in both directions.
	ATData
	// XTClock is driven by the bridge toward the XT host.
	XTClock
	// XTData is driven by the bridge toward the XT host.
	XTData
	// XTSense is sampled by the bridge; the host pulls it low to request
	// a reset/resync.
	XTSense
)

func (l Line) String() string {
	switch l {
	case ATClock:
		return "AT_CLK"
	case ATData:
		return "AT_DATA"
	case XTClock:
		return "XT_CLK"
	case XTData:
		return "XT_DATA"
	case XTSense:
		return "XT_SENSE"
	default:
		return "LINE_UNKNOWN"
	}
}

// Pins is the typed line abstraction the bridge core is built against.
// Implementations: pins.Simulated (in-process bus model for tests and
// cmd/simulate) and gpiopins.Pins (real GPIO via periph.io).
type Pins interface {
	// Set releases line, letting it float high under the external pull-up.
	Set(line Line)
	// Unset drives line low by switching to output-0.
	Unset(line Line)
	// IsSet reports whether line currently reads high.
	IsSet(line Line) bool
	// IsUnset reports whether line currently reads low.
	IsUnset(line Line) bool

	// AtIdle releases AT_CLK and AT_DATA, the bridge's normal resting state
	// on the AT bus (keyboard drives the clock).
	AtIdle()
	// AtInhibit drives AT_CLK low, asking the keyboard to stop sending.
	AtInhibit()

	// XtOut switches XT_CLK and XT_DATA to outputs (bridge drives the XT
	// bus for the duration of a send).
	XtOut()
	// XtIn switches XT_CLK and XT_DATA back to inputs (high-Z release).
	XtIn()

	// MkIn switches a single line to input (high-Z), for callers that need
	// finer control than AtIdle/XtIn.
	MkIn(line Line)

	// EnableATClockInt arms the falling-edge interrupt on AT_CLK.
	EnableATClockInt()
	// DisableATClockInt disarms the falling-edge interrupt on AT_CLK.
	DisableATClockInt()
	// ClearATClockInt acknowledges a pending AT_CLK edge interrupt so
	// another can be latched.
	ClearATClockInt()
}
