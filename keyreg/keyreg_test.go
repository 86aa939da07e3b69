package keyreg

import (
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/vakon84/at2xt/csec"
)

// shiftInFrame drives bits into a fresh KeyIn in wire order: start bit,
// then the 8 data bits of scan LSB-first, odd parity, stop bit (the same
// sequence atBitEngineDeviceMode feeds it one AT_CLK edge at a time).
func shiftInFrame(t *testing.T, scan uint8) uint16 {
	t.Helper()
	var k KeyIn
	var tok csec.Token

	bits := []uint16{0} // start
	ones := 0
	for i := 0; i < 8; i++ {
		b := uint16((scan >> uint(i)) & 1)
		bits = append(bits, b)
		if b == 1 {
			ones++
		}
	}
	parity := uint16(0)
	if ones%2 == 0 {
		parity = 1
	}
	bits = append(bits, parity, 1) // parity, stop

	for _, b := range bits {
		if err := k.ShiftIn(b, tok); err != nil {
			t.Fatalf("ShiftIn(%d): %v", b, err)
		}
	}
	if !k.IsFull() {
		t.Fatalf("KeyIn not full after 11 bits: %s", spew.Sdump(k))
	}
	frame, ok := k.Take(tok)
	if !ok {
		t.Fatalf("Take returned !ok after IsFull: %s", spew.Sdump(k))
	}
	return frame
}

func TestKeyInCapturesKnownFrame(t *testing.T) {
	// Worked example: scancode 0x1C arrives and the captured frame's raw
	// contents must be 225 (0xE1).
	frame := shiftInFrame(t, 0x1C)
	if got, want := frame, uint16(225); got != want {
		t.Errorf("shiftInFrame(0x1C) = %#x, want %#x", got, want)
	}
}

func TestDataByteRoundTripsScancode(t *testing.T) {
	for scan := 0; scan < 256; scan++ {
		frame := shiftInFrame(t, uint8(scan))
		if got, want := DataByte(frame), uint8(scan); got != want {
			t.Errorf("DataByte(shiftInFrame(%#x)) = %#x, want %#x", scan, got, want)
		}
	}
}

func TestKeyInShiftInOverfullErrors(t *testing.T) {
	var k KeyIn
	var tok csec.Token
	for i := 0; i < 11; i++ {
		if err := k.ShiftIn(0, tok); err != nil {
			t.Fatalf("unexpected error on bit %d: %v", i, err)
		}
	}
	if err := k.ShiftIn(0, tok); err != ErrOverfull {
		t.Errorf("ShiftIn on full register = %v, want %v", err, ErrOverfull)
	}
}

func TestKeyInClear(t *testing.T) {
	var k KeyIn
	var tok csec.Token
	for i := 0; i < 5; i++ {
		_ = k.ShiftIn(1, tok)
	}
	k.Clear(tok)
	if got, want := k.Pos(), uint8(0); got != want {
		t.Errorf("Pos() after Clear = %d, want %d", got, want)
	}
	if k.IsFull() {
		t.Error("IsFull() true after Clear")
	}
}

func TestKeyOutPutAndShiftOutSequence(t *testing.T) {
	var tok csec.Token
	k := NewKeyOut()
	if !k.IsEmpty() {
		t.Fatalf("new KeyOut not empty: %s", spew.Sdump(k))
	}

	const b = uint8(0x41) // 'A', popcount 2 (even) -> parity bit set
	if err := k.Put(b, tok); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if k.IsEmpty() {
		t.Fatal("KeyOut empty immediately after Put")
	}

	var got []bool
	for i := 0; i < 10; i++ {
		got = append(got, k.ShiftOut(tok))
	}
	if !k.IsEmpty() {
		t.Errorf("KeyOut not empty after 10 ShiftOut calls: %s", spew.Sdump(k))
	}

	// Expected bits: 8 data bits LSB-first, then odd parity, then stop.
	var expect []bool
	for i := 0; i < 8; i++ {
		expect = append(expect, (b>>uint(i))&1 == 1)
	}
	expect = append(expect, true) // parity: popcount(0x41)=2 even -> parity bit 1
	expect = append(expect, true) // stop bit

	if len(got) != len(expect) {
		t.Fatalf("got %d bits, want %d", len(got), len(expect))
	}
	for i := range expect {
		if got[i] != expect[i] {
			t.Errorf("bit %d = %v, want %v (full sequence got=%v want=%v)", i, got[i], expect[i], got, expect)
		}
	}
}

// TestKeyOutPutParityContents pins Put's parity-bit computation against
// three worked examples.
func TestKeyOutPutParityContents(t *testing.T) {
	tests := []struct {
		b    uint8
		want uint16
	}{
		{0x00, 0x0300},
		{0x01, 0x0201},
		{0xFF, 0x03FF},
	}
	for _, test := range tests {
		var tok csec.Token
		k := NewKeyOut()
		if err := k.Put(test.b, tok); err != nil {
			t.Fatalf("Put(%#x): %v", test.b, err)
		}
		if got := k.Contents(); got != test.want {
			t.Errorf("Put(%#x).Contents() = %#x, want %#x", test.b, got, test.want)
		}
	}
}

func TestKeyOutPutWhileNotEmptyErrors(t *testing.T) {
	var tok csec.Token
	k := NewKeyOut()
	if err := k.Put(0x01, tok); err != nil {
		t.Fatalf("first Put: %v", err)
	}
	if err := k.Put(0x02, tok); err != ErrNotEmpty {
		t.Errorf("second Put = %v, want %v", err, ErrNotEmpty)
	}
}

func TestKeyOutClear(t *testing.T) {
	var tok csec.Token
	k := NewKeyOut()
	_ = k.Put(0xFF, tok)
	k.Clear(tok)
	if !k.IsEmpty() {
		t.Error("KeyOut not empty after Clear")
	}
	if got, want := k.Contents(), uint16(0); got != want {
		t.Errorf("Contents() after Clear = %#x, want %#x", got, want)
	}
}
