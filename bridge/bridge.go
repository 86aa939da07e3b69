// Package bridge is the core of the AT/XT keyboard bridge: the AT bit
// engine that runs on the AT clock's falling-edge interrupt, the AT and XT
// foreground transmitters, and (in fsm.go) the command FSM that drives
// them against asynchronous keyboard input.
package bridge

import (
	"errors"
	"sync/atomic"

	"github.com/vakon84/at2xt/csec"
	"github.com/vakon84/at2xt/keybuffer"
	"github.com/vakon84/at2xt/keyreg"
	"github.com/vakon84/at2xt/pins"
	"github.com/vakon84/at2xt/scancode"
	"github.com/vakon84/at2xt/timer"
)

// Keyboard command bytes.
const (
	CmdReset          uint8 = 0xFF
	CmdSelfTestPassed uint8 = 0xAA
	CmdSetLeds        uint8 = 0xED
)

// Timing constants expressed in timer.Timer ticks (1 tick == 10µs),
// approximating the AT/XT protocol's microsecond figures to the timer's
// resolution.
const (
	atRequestToSendTicks = 10 // ~100µs: hold AT_CLK low before asserting the start bit.
	atStartBitSetupTicks = 3  // ~30µs: hold the AT start bit before releasing AT_CLK.
	xtBitPeriodTicks     = 6  // ~60µs: XT_CLK low time per bit (the protocol calls for 55µs).
)

// ErrNoDeviceACK is returned by SendByteToKeyboard if a bounded wait for
// DEVICE_ACK is configured and it elapses. Not part of the baseline
// protocol (a real keyboard link just spins forever) but available for
// callers that opt into AckTimeoutTicks.
var ErrNoDeviceACK = errors.New("bridge: keyboard never acknowledged")

// Core wires together the shift registers, the keycode ring, a Pins
// backend and a Timer into the running bridge. The zero value is not
// usable; construct with New.
type Core struct {
	pins  pins.Pins
	timer timer.Timer
	lock  csec.Lock

	keyIn  keyreg.KeyIn
	keyOut keyreg.KeyOut
	buf    *keybuffer.KeycodeBuffer

	hostMode  atomic.Bool
	deviceAck atomic.Bool

	state FsmState
	leds  LedMask

	// AckTimeoutTicks, if nonzero, bounds how long SendByteToKeyboard will
	// spin waiting for DEVICE_ACK before returning ErrNoDeviceACK instead
	// of hanging forever. Zero (the default) reproduces the baseline
	// spec's unbounded spin.
	AckTimeoutTicks uint32

	lastXTByte uint8
}

// New returns a Core ready to Boot and Run against the given Pins and
// Timer. policy controls KeycodeBuffer's behavior on overflow.
func New(p pins.Pins, t timer.Timer, policy keybuffer.OverflowPolicy) *Core {
	c := &Core{
		pins:   p,
		timer:  t,
		keyOut: keyreg.NewKeyOut(),
		buf:    keybuffer.New(policy),
		state:  NotInReset,
	}
	if watchable, ok := p.(interface{ OnATClockFallingEdge(func()) }); ok {
		watchable.OnATClockFallingEdge(c.atClockFallingEdge)
	}
	return c
}

// State returns the FSM's current state, for diag and tests.
func (c *Core) State() FsmState { return c.state }

// Leds returns the last LED mask successfully pushed to the keyboard.
func (c *Core) Leds() LedMask { return c.leds }

// LastXTByte returns the most recent byte sent to the XT host, for diag
// and the simulator's display.
func (c *Core) LastXTByte() uint8 { return c.lastXTByte }

// HostMode reports whether the AT bit engine is currently clocking a byte
// out to the keyboard rather than receiving one. Exposed for diag.Bank.
func (c *Core) HostMode() bool { return c.hostMode.Load() }

// DeviceAck reports whether the keyboard has acknowledged the most recent
// SendByteToKeyboard. Exposed for diag.Bank.
func (c *Core) DeviceAck() bool { return c.deviceAck.Load() }

// KeyInPos returns KeyIn's current shift position. Exposed for diag.Bank;
// reading it outside a critical section is inherently racy with the AT bit
// engine, which is acceptable for a debug snapshot.
func (c *Core) KeyInPos() uint8 { return c.keyIn.Pos() }

// KeyOutPos returns KeyOut's current shift position. See KeyInPos.
func (c *Core) KeyOutPos() uint8 { return c.keyOut.Pos() }

// BufferLen returns the keycode ring buffer's current occupancy.
func (c *Core) BufferLen() int {
	var n int
	csec.Critical(&c.lock, func(tok csec.Token) {
		n = c.buf.Len(tok)
	})
	return n
}

// atClockFallingEdge is the AT bit engine, invoked with interrupts (or, on
// a hosted Go backend, the AT clock watcher) already serialized against
// the foreground.
func (c *Core) atClockFallingEdge() {
	csec.Critical(&c.lock, func(tok csec.Token) {
		if c.hostMode.Load() {
			c.atBitEngineHostMode(tok)
		} else {
			c.atBitEngineDeviceMode(tok)
		}
	})
	c.pins.ClearATClockInt()
}

func (c *Core) atBitEngineHostMode(tok csec.Token) {
	if !c.keyOut.IsEmpty() {
		if c.keyOut.ShiftOut(tok) {
			c.pins.Set(pins.ATData)
		} else {
			c.pins.Unset(pins.ATData)
		}
		if c.keyOut.IsEmpty() {
			c.pins.AtIdle()
		}
		return
	}
	// KEY_OUT already drained: this edge is the keyboard clocking the ACK
	// bit. A spurious edge before DATA goes low is tolerated (DEVICE_ACK
	// simply stays false and another edge is expected).
	if c.pins.IsUnset(pins.ATData) {
		c.deviceAck.Store(true)
		c.keyOut.Clear(tok)
	}
}

func (c *Core) atBitEngineDeviceMode(tok csec.Token) {
	var bit uint16
	if c.pins.IsSet(pins.ATData) {
		bit = 1
	}
	// ShiftIn can only fail on a programmer error: an edge arriving after
	// the frame is already full but before the inhibit below took effect.
	// Unreachable from the real call sites.
	_ = c.keyIn.ShiftIn(bit, tok)
	if c.keyIn.IsFull() {
		c.pins.AtInhibit()
		frame, ok := c.keyIn.Take(tok)
		if ok {
			c.buf.Put(frame, tok)
		}
		c.keyIn.Clear(tok)
		c.pins.AtIdle()
	}
}

// SendByteToKeyboard is the AT transmitter: queues byte, hands the bus to
// device-clocked mode, and waits for the keyboard's ACK.
func (c *Core) SendByteToKeyboard(b uint8) error {
	var putErr error
	csec.Critical(&c.lock, func(tok csec.Token) {
		putErr = c.keyOut.Put(b, tok)
	})
	if putErr != nil {
		return putErr
	}

	csec.Critical(&c.lock, func(csec.Token) {
		c.pins.DisableATClockInt()
	})

	for c.pins.IsSet(pins.ATClock) {
		// AT_CLK is still released (high); wait for it to be sampled low.
	}
	csec.Critical(&c.lock, func(csec.Token) {
		c.pins.AtInhibit()
	})

	c.timer.Delay(atRequestToSendTicks)

	csec.Critical(&c.lock, func(csec.Token) {
		c.pins.Unset(pins.ATData)
	})

	c.timer.Delay(atStartBitSetupTicks)

	csec.Critical(&c.lock, func(csec.Token) {
		c.pins.Set(pins.ATClock)
		c.pins.ClearATClockInt()
		c.pins.EnableATClockInt()
		c.hostMode.Store(true)
		c.deviceAck.Store(false)
	})

	if c.AckTimeoutTicks > 0 {
		var acked bool
		for n := uint32(0); n < c.AckTimeoutTicks; n++ {
			if c.deviceAck.Load() {
				acked = true
				break
			}
			c.timer.Delay(1)
		}
		if !acked && !c.deviceAck.Load() {
			c.hostMode.Store(false)
			return ErrNoDeviceACK
		}
	} else {
		for !c.deviceAck.Load() {
		}
	}

	c.hostMode.Store(false)
	return nil
}

// sendXTBit drives one XT bit: data setup, clock low for the bit period,
// clock released.
func (c *Core) sendXTBit(bit uint8) {
	if bit&1 == 1 {
		c.pins.Set(pins.XTData)
	} else {
		c.pins.Unset(pins.XTData)
	}
	c.pins.Unset(pins.XTClock)
	c.timer.Delay(xtBitPeriodTicks)
	c.pins.Set(pins.XTClock)
}

// SendByteToPC is the XT transmitter: two start bits then 8 data bits, LSB
// first, bit-banged at the XT bit rate.
func (c *Core) SendByteToPC(b uint8) {
	sent := b
	for c.pins.IsUnset(pins.XTClock) || c.pins.IsUnset(pins.XTData) {
		// Host is holding a line low (reset/busy); wait it out.
	}

	csec.Critical(&c.lock, func(csec.Token) {
		c.pins.XtOut()
	})

	c.sendXTBit(0)
	c.sendXTBit(1)
	for i := 0; i < 8; i++ {
		c.sendXTBit(b & 1)
		b >>= 1
	}

	csec.Critical(&c.lock, func(csec.Token) {
		c.pins.XtIn()
	})

	c.lastXTByte = sent
}

// decodeFrame turns a captured AT frame into the byte the XT host expects:
// extract the as-received data bits, bit-reverse to the conventional
// scancode byte, translate AT->XT, then bit-reverse again for LSB-first XT
// transmission.
func decodeFrame(frame uint16) uint8 {
	conventional := keyreg.DataByte(frame)
	translated := scancode.ATToXT(conventional)
	return scancode.BitReverse(translated)
}
