package bridge

import (
	"github.com/vakon84/at2xt/csec"
	"github.com/vakon84/at2xt/keyreg"
	"github.com/vakon84/at2xt/pins"
)

// FsmState is one state of the command/response FSM.
type FsmState int

const (
	// NotInReset is the state before Boot has run its initial handshake.
	NotInReset FsmState = iota
	WaitForKeyClr
	WaitForCapsClr
	WaitForNumClr
	WaitForScrollClr
	ExpectingKey
	WaitForKeyRelease
)

func (s FsmState) String() string {
	switch s {
	case NotInReset:
		return "NotInReset"
	case WaitForKeyClr:
		return "WaitForKeyClr"
	case WaitForCapsClr:
		return "WaitForCapsClr"
	case WaitForNumClr:
		return "WaitForNumClr"
	case WaitForScrollClr:
		return "WaitForScrollClr"
	case ExpectingKey:
		return "ExpectingKey"
	case WaitForKeyRelease:
		return "WaitForKeyRelease"
	default:
		return "FsmState(?)"
	}
}

// LedMask is the retained Caps/Num/Scroll lock state pushed to the
// keyboard with CmdSetLeds. Bit layout matches the standard AT/PS-2 LED
// report byte.
type LedMask uint8

const (
	LedScrollLock LedMask = 1 << iota
	LedNumLock
	LedCapsLock
)

// scanToLed maps a conventional (post-bit-reverse, pre-translation) AT
// scancode to the lock bit it toggles, for the handful of keys that do so.
// Keys absent from this map don't affect LedMask.
var scanToLed = map[uint8]LedMask{
	0x58: LedCapsLock,
	0x77: LedNumLock,
	0x7E: LedScrollLock,
}

// Boot runs the power-on handshake: reset the keyboard, flush any frames
// that arrived before we were ready to look at them, and park in
// ExpectingKey. Run calls this once before entering the FSM loop.
func (c *Core) Boot() error {
	c.pins.AtIdle()
	if err := c.SendByteToKeyboard(CmdReset); err != nil {
		return err
	}
	c.state = WaitForKeyClr
	csec.Critical(&c.lock, func(tok csec.Token) {
		c.buf.Flush(tok)
	})
	c.state = WaitForCapsClr
	// Clear all lock LEDs. Best-effort: a keyboard that never acks this
	// still gets to serve keys, since the LED chain may be entirely absent
	// from some revisions.
	_ = c.setLeds(0)
	c.state = ExpectingKey
	return nil
}

// Run boots the bridge and then services host/keyboard traffic forever:
// clear the buffer, wait for a key, send the translated byte, repeat, with
// reset preemption from any state.
func (c *Core) Run() error {
	if err := c.Boot(); err != nil {
		return err
	}
	for {
		c.step()
	}
}

// step runs one iteration of the FSM: either a full WaitForKey/SendXtKey
// round trip, or a reset preemption.
func (c *Core) step() {
	switch reply := c.waitForKey(); reply.kind {
	case replyGrabbedKey:
		c.state = WaitForKeyRelease
		c.SendByteToPC(reply.xt)
		c.applyLedForScancode(reply.conventional)
		c.state = ExpectingKey
	case replyKeyboardReset:
		c.state = WaitForKeyClr
		csec.Critical(&c.lock, func(tok csec.Token) {
			c.buf.Flush(tok)
		})
		c.state = ExpectingKey
	}
}

type fsmReplyKind int

const (
	replyGrabbedKey fsmReplyKind = iota
	replyKeyboardReset
)

type fsmReply struct {
	kind         fsmReplyKind
	xt           uint8
	conventional uint8
}

// waitForKey blocks until there's something to report: repeatedly drain
// the keycode buffer and translate whatever it yields, or notice a host
// reset request on XT_SENSE.
func (c *Core) waitForKey() fsmReply {
	for {
		var frame uint16
		var ok bool
		csec.Critical(&c.lock, func(tok csec.Token) {
			frame, ok = c.buf.Take(tok)
		})
		if ok {
			conventional := keyreg.DataByte(frame)
			xt := decodeFrame(frame)
			return fsmReply{kind: replyGrabbedKey, xt: xt, conventional: conventional}
		}
		if c.pins.IsUnset(pins.XTSense) {
			_ = c.SendByteToKeyboard(CmdReset)
			c.SendByteToPC(CmdSelfTestPassed)
			return fsmReply{kind: replyKeyboardReset}
		}
	}
}

// applyLedForScancode toggles LedMask and pushes it to the keyboard when
// the just-processed key is one of Caps/Num/Scroll lock, inlined within
// the key-send path.
func (c *Core) applyLedForScancode(conventional uint8) {
	bit, ok := scanToLed[conventional]
	if !ok {
		return
	}
	_ = c.setLeds(c.leds ^ bit)
}

func (c *Core) setLeds(mask LedMask) error {
	if err := c.SendByteToKeyboard(CmdSetLeds); err != nil {
		return err
	}
	if err := c.SendByteToKeyboard(uint8(mask)); err != nil {
		return err
	}
	c.leds = mask
	return nil
}
