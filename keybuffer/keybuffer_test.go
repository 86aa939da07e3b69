package keybuffer

import (
	"testing"

	"github.com/vakon84/at2xt/csec"
)

func TestPutTakeRoundTrip(t *testing.T) {
	var tok csec.Token
	b := New(DropNewest)
	if !b.IsEmpty(tok) {
		t.Fatal("new buffer not empty")
	}
	b.Put(0x1234, tok)
	if b.IsEmpty(tok) {
		t.Fatal("buffer empty after Put")
	}
	got, ok := b.Take(tok)
	if !ok {
		t.Fatal("Take reported empty after one Put")
	}
	if want := uint16(0x1234); got != want {
		t.Errorf("Take() = %#x, want %#x", got, want)
	}
	if !b.IsEmpty(tok) {
		t.Error("buffer not empty after draining the only frame")
	}
}

func TestTakeOnEmptyReturnsFalse(t *testing.T) {
	var tok csec.Token
	b := New(DropNewest)
	if _, ok := b.Take(tok); ok {
		t.Error("Take on empty buffer reported ok")
	}
}

// TestOverflowDropsNewestByDefault checks the documented overflow case
// exactly: 17 frames in, the ring (capacity 16, all 16 slots usable) keeps
// the oldest 16 and silently drops the 17th.
func TestOverflowDropsNewestByDefault(t *testing.T) {
	var tok csec.Token
	b := New(DropNewest)
	for i := uint16(0); i < 17; i++ {
		b.Put(i, tok)
	}
	var got []uint16
	for {
		v, ok := b.Take(tok)
		if !ok {
			break
		}
		got = append(got, v)
	}
	if want := capacity; len(got) != want {
		t.Fatalf("drained %d frames, want %d", len(got), want)
	}
	for i, v := range got {
		if v != uint16(i) {
			t.Errorf("frame %d = %d, want %d (oldest frames should survive, newest dropped)", i, v, i)
		}
	}
}

func TestOverflowPanicsWhenConfigured(t *testing.T) {
	var tok csec.Token
	b := New(Panic)
	defer func() {
		if r := recover(); r == nil {
			t.Error("Put on full Panic-policy buffer did not panic")
		}
	}()
	for i := uint16(0); i < capacity+1; i++ {
		b.Put(i, tok)
	}
}

func TestRingWrapsAfterManyRounds(t *testing.T) {
	var tok csec.Token
	b := New(DropNewest)
	for round := 0; round < 40; round++ {
		b.Put(uint16(round), tok)
		got, ok := b.Take(tok)
		if !ok {
			t.Fatalf("round %d: Take reported empty", round)
		}
		if got != uint16(round) {
			t.Fatalf("round %d: Take() = %d, want %d", round, got, round)
		}
		if got, want := b.Len(tok), 0; got != want {
			t.Errorf("round %d: Len() = %d, want %d", round, got, want)
		}
	}
}

func TestFlush(t *testing.T) {
	var tok csec.Token
	b := New(DropNewest)
	for i := uint16(0); i < 5; i++ {
		b.Put(i, tok)
	}
	b.Flush(tok)
	if !b.IsEmpty(tok) {
		t.Error("buffer not empty after Flush")
	}
	if got, want := b.Len(tok), 0; got != want {
		t.Errorf("Len() after Flush = %d, want %d", got, want)
	}
}

func TestLenTracksOccupancy(t *testing.T) {
	var tok csec.Token
	b := New(DropNewest)
	for i := 0; i < 5; i++ {
		b.Put(uint16(i), tok)
		if got, want := b.Len(tok), i+1; got != want {
			t.Errorf("after %d puts, Len() = %d, want %d", i+1, got, want)
		}
	}
	for i := 5; i > 0; i-- {
		if _, ok := b.Take(tok); !ok {
			t.Fatalf("Take failed with %d frames remaining", i)
		}
		if got, want := b.Len(tok), i-1; got != want {
			t.Errorf("after draining to %d remaining, Len() = %d, want %d", i-1, got, i-1)
		}
	}
}
