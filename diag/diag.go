// Package diag exposes the bridge's internal state as a small read-only
// addressable register bank, the way a debugger or a test can peek at RAM
// contents without instrumenting the chip itself. Nothing here is
// load-bearing for the bridge's operation; it exists so cmd/simulate and
// tests can observe HOST_MODE, DEVICE_ACK, and the shift-register/
// ring-buffer cursors without reaching into the core's unexported fields.
// Only the buffer length is read inside a critical section; the shift
// positions and the FSM, LED and last-XT-byte registers are unsynchronized
// snapshots.
package diag

import "github.com/vakon84/at2xt/bridge"

// Register names one offset in the bank.
type Register int

const (
	RegHostMode Register = iota
	RegDeviceAck
	RegKeyInPos
	RegKeyOutPos
	RegBufferLen
	RegFsmState
	RegLeds
	RegLastXTByte
)

func (r Register) String() string {
	switch r {
	case RegHostMode:
		return "HOST_MODE"
	case RegDeviceAck:
		return "DEVICE_ACK"
	case RegKeyInPos:
		return "KEY_IN.pos"
	case RegKeyOutPos:
		return "KEY_OUT.pos"
	case RegBufferLen:
		return "BUFFER.len"
	case RegFsmState:
		return "FSM_STATE"
	case RegLeds:
		return "LEDS"
	case RegLastXTByte:
		return "LAST_XT_BYTE"
	default:
		return "REG_UNKNOWN"
	}
}

// numRegisters is the size of the bank; Read wraps addresses outside
// [0, numRegisters) back into it.
const numRegisters = 8

// Bank is a read-only snapshot view onto a bridge.Core, addressed by
// Register. There is no Write: every byte here is derived state owned by
// the Core, not storage of its own.
type Bank struct {
	core *bridge.Core
}

// NewBank returns a Bank reading through to core.
func NewBank(core *bridge.Core) *Bank {
	return &Bank{core: core}
}

// Read returns the current value of the register at addr. addr is taken
// modulo numRegisters rather than panicking on an out-of-range probe.
func (b *Bank) Read(addr uint16) uint8 {
	switch Register(int(addr) % numRegisters) {
	case RegHostMode:
		return boolToByte(b.core.HostMode())
	case RegDeviceAck:
		return boolToByte(b.core.DeviceAck())
	case RegKeyInPos:
		return b.core.KeyInPos()
	case RegKeyOutPos:
		return b.core.KeyOutPos()
	case RegBufferLen:
		return uint8(b.core.BufferLen())
	case RegFsmState:
		return uint8(b.core.State())
	case RegLeds:
		return uint8(b.core.Leds())
	case RegLastXTByte:
		return b.core.LastXTByte()
	default:
		return 0
	}
}

// Dump returns every register's current value, in Register order, for
// tests and the simulator's HUD.
func (b *Bank) Dump() [numRegisters]uint8 {
	var out [numRegisters]uint8
	for i := range out {
		out[i] = b.Read(uint16(i))
	}
	return out
}

func boolToByte(v bool) uint8 {
	if v {
		return 1
	}
	return 0
}
