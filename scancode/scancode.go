// Package scancode supplies the two pure-function collaborators spec.md
// §1 treats as out of scope in the abstract (at_to_xt) but which a runnable
// bridge needs a concrete instance of: the AT-set-2-to-XT-set-1 scancode
// translation table, and the bit-reversal used both to decode a captured
// AT frame and to convert the result into the byte order the XT host
// expects (§6, §8 bit-reverse law).
package scancode

import "math/bits"

// BitReverse reverses the bit order of a byte: BitReverse(BitReverse(b))
// == b for all b.
func BitReverse(b uint8) uint8 {
	return bits.Reverse8(b)
}

// table maps an AT set-2 make-code byte to the matching XT
// set-1 make-code. Entries not listed here pass through unchanged, which
// is wrong for a handful of extended/multi-byte codes (arrow cluster,
// right-hand modifiers) but is a reasonable default for the common
// alphanumeric block a bridge spends most of its life translating; a real
// deployment is expected to supply its own complete table via
// SetTranslation.
var table = map[uint8]uint8{
	0x1C: 0x1E, // A
	0x32: 0x30, // B
	0x21: 0x2E, // C
	0x23: 0x20, // D
	0x24: 0x12, // E
	0x2B: 0x21, // F
	0x34: 0x22, // G
	0x33: 0x23, // H
	0x43: 0x17, // I
	0x3B: 0x24, // J
	0x42: 0x25, // K
	0x4B: 0x26, // L
	0x3A: 0x32, // M
	0x31: 0x31, // N
	0x44: 0x18, // O
	0x4D: 0x19, // P
	0x15: 0x10, // Q
	0x2D: 0x13, // R
	0x1B: 0x1F, // S
	0x2C: 0x14, // T
	0x3C: 0x16, // U
	0x2A: 0x2F, // V
	0x1D: 0x11, // W
	0x22: 0x2D, // X
	0x35: 0x15, // Y
	0x1A: 0x2C, // Z
	0x45: 0x0B, // 0
	0x16: 0x02, // 1
	0x1E: 0x03, // 2
	0x26: 0x04, // 3
	0x25: 0x05, // 4
	0x2E: 0x06, // 5
	0x36: 0x07, // 6
	0x3D: 0x08, // 7
	0x3E: 0x09, // 8
	0x46: 0x0A, // 9
	0x5A: 0x1C, // Enter
	0x29: 0x39, // Space
	0x66: 0x0E, // Backspace
	0x0D: 0x0F, // Tab
	0x76: 0x01, // Esc
	0x58: 0x3A, // Caps Lock
	0x77: 0x45, // Num Lock
	0x7E: 0x46, // Scroll Lock
}

// translation holds the active table; overridable at process start by a
// real deployment that knows its keyboard's exact layout.
var translation = table

// SetTranslation replaces the active AT->XT table. Intended to be called
// once during cmd/bridge startup before the FSM loop begins.
func SetTranslation(t map[uint8]uint8) {
	translation = t
}

// ResetTranslation restores the built-in table, undoing any SetTranslation
// call. Mainly useful for tests that need to override the table temporarily.
func ResetTranslation() {
	translation = table
}

// ATToXT translates a conventional (post-bit-reverse, as keyreg.DataByte
// returns it) AT set-2 scancode into an XT set-1 scancode. Codes outside the known table pass through
// unchanged.
func ATToXT(raw uint8) uint8 {
	if xt, ok := translation[raw]; ok {
		return xt
	}
	return raw
}
