package diag

import (
	"testing"

	"github.com/vakon84/at2xt/bridge"
	"github.com/vakon84/at2xt/keybuffer"
	"github.com/vakon84/at2xt/pins"
	"github.com/vakon84/at2xt/timer"
)

func TestBankReadsInitialState(t *testing.T) {
	core := bridge.New(pins.NewSimulated(), timer.NewSimulated(), keybuffer.DropNewest)
	bank := NewBank(core)

	if got := bank.Read(uint16(RegHostMode)); got != 0 {
		t.Errorf("RegHostMode = %d, want 0", got)
	}
	if got := bank.Read(uint16(RegDeviceAck)); got != 0 {
		t.Errorf("RegDeviceAck = %d, want 0", got)
	}
	if got := bank.Read(uint16(RegBufferLen)); got != 0 {
		t.Errorf("RegBufferLen = %d, want 0", got)
	}
	if got, want := bank.Read(uint16(RegFsmState)), uint8(bridge.NotInReset); got != want {
		t.Errorf("RegFsmState = %d, want %d", got, want)
	}
}

func TestBankReadWrapsOutOfRangeAddr(t *testing.T) {
	core := bridge.New(pins.NewSimulated(), timer.NewSimulated(), keybuffer.DropNewest)
	bank := NewBank(core)

	if got, want := bank.Read(uint16(numRegisters)), bank.Read(0); got != want {
		t.Errorf("Read(numRegisters) = %d, want wrap-around to Read(0) = %d", got, want)
	}
}

func TestDumpMatchesIndividualReads(t *testing.T) {
	core := bridge.New(pins.NewSimulated(), timer.NewSimulated(), keybuffer.DropNewest)
	bank := NewBank(core)

	dump := bank.Dump()
	for i := range dump {
		if got, want := dump[i], bank.Read(uint16(i)); got != want {
			t.Errorf("Dump()[%d] = %d, want %d", i, got, want)
		}
	}
}

func TestRegisterStringer(t *testing.T) {
	tests := map[Register]string{
		RegHostMode:   "HOST_MODE",
		RegDeviceAck:  "DEVICE_ACK",
		RegKeyInPos:   "KEY_IN.pos",
		RegKeyOutPos:  "KEY_OUT.pos",
		RegBufferLen:  "BUFFER.len",
		RegFsmState:   "FSM_STATE",
		RegLeds:       "LEDS",
		RegLastXTByte: "LAST_XT_BYTE",
	}
	for reg, want := range tests {
		if got := reg.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", reg, got, want)
		}
	}
}
