// Package keyreg implements the bit-serial shift registers for one AT
// keyboard frame in each direction: KeyIn for frames arriving from the
// keyboard, KeyOut for a byte queued to be clocked out to it. Both are
// touched by the AT clock interrupt and the foreground and so every
// mutating operation requires a csec.Token.
package keyreg

import (
	"errors"
	"math/bits"

	"github.com/vakon84/at2xt/csec"
)

// ErrOverfull is returned by ShiftIn when the register already holds a
// complete 11-bit frame and hasn't been drained with Take.
var ErrOverfull = errors.New("keyreg: KeyIn already full")

// ErrNotEmpty is returned by Put when KeyOut already holds an unsent byte.
var ErrNotEmpty = errors.New("keyreg: KeyOut not empty")

// KeyIn is the receive shift register for one AT frame: start, 8 data bits
// (LSB first on the wire), odd parity, stop. Bits are appended MSB-first
// into contents as they arrive, so pos counts bits received and contents
// holds them left-shifted.
type KeyIn struct {
	pos      uint8
	contents uint16
}

// IsFull reports whether all 11 frame bits have been shifted in.
func (k *KeyIn) IsFull() bool {
	return k.pos >= 11
}

// ShiftIn appends one bit (0 or 1, any other value is masked to one bit)
// received on the wire. Fails if the register already holds a full frame.
func (k *KeyIn) ShiftIn(bit uint16, _ csec.Token) error {
	if k.pos == 11 {
		return ErrOverfull
	}
	k.contents = (k.contents << 1) | (bit & 1)
	k.pos++
	return nil
}

// Take returns the captured frame and resets pos to 0 so the register is
// ready for the next frame. Returns false if the frame isn't complete yet.
func (k *KeyIn) Take(_ csec.Token) (uint16, bool) {
	if !k.IsFull() {
		return 0, false
	}
	out := k.contents
	k.pos = 0
	return out, true
}

// Clear resets the register to empty without returning its contents.
func (k *KeyIn) Clear(_ csec.Token) {
	k.pos = 0
	k.contents = 0
}

// Pos exposes the current bit count for tests and diag.
func (k *KeyIn) Pos() uint8 { return k.pos }

// DataByte extracts the conventional (MSB-first, LSB-on-wire-reversed)
// scancode byte from a frame captured by KeyIn: mask 0x4001 (the stop bit
// at bit 0; bit 14 lies above the 11-bit frame), shift right by 2 to drop
// stop and parity and line up the 8 data bits in their as-received
// (LSB-first) order, with the start bit (bit 10, now bit 8) cut off by the
// conversion to uint8, then bit-reverse to get the byte as AT scancode
// tables expect it.
func DataByte(frame uint16) uint8 {
	raw := uint8((frame &^ 0x4001) >> 2)
	return bits.Reverse8(raw)
}

// KeyOut is the transmit shift register for a byte queued to the AT
// keyboard. The start bit is not stored here: the foreground asserts it
// directly on the bus before handing control to the AT bit engine.
type KeyOut struct {
	pos      uint8
	contents uint16
}

// NewKeyOut returns an empty KeyOut (pos starts past the empty threshold).
func NewKeyOut() KeyOut {
	return KeyOut{pos: 10}
}

// IsEmpty reports whether there is no unsent byte queued.
func (k *KeyOut) IsEmpty() bool {
	return k.pos > 9
}

// Put loads byte for transmission: 8 data bits, an odd parity bit, and a
// stop bit, LSB first. Fails if a previous byte hasn't finished sending.
func (k *KeyOut) Put(b uint8, _ csec.Token) error {
	if !k.IsEmpty() {
		return ErrNotEmpty
	}
	const stopBit = uint16(1) << 9
	var parityBit uint16
	if bits.OnesCount8(b)%2 == 0 {
		// popcount even => the parity bit must be 1 to make the total odd.
		parityBit = 1 << 8
	}
	k.contents = uint16(b) | parityBit | stopBit
	k.pos = 0
	return nil
}

// ShiftOut returns the current LSB and advances the register by one bit.
func (k *KeyOut) ShiftOut(_ csec.Token) bool {
	bit := k.contents&1 == 1
	k.contents >>= 1
	k.pos++
	return bit
}

// Clear empties the register without sending the remaining bits.
func (k *KeyOut) Clear(_ csec.Token) {
	k.pos = 10
	k.contents = 0
}

// Pos exposes the current bit count for tests and diag.
func (k *KeyOut) Pos() uint8 { return k.pos }

// Contents exposes the raw shift contents for tests.
func (k *KeyOut) Contents() uint16 { return k.contents }
