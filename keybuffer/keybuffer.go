// Package keybuffer implements KeycodeBuffer, the fixed 16-slot
// single-producer/single-consumer ring that decouples the AT bit engine
// (producer, runs on the clock interrupt) from the command FSM (consumer,
// runs in the foreground). The overflow policy is configurable: a deployment
// can choose to silently drop the newest frame or panic outright when the
// ring fills up.
package keybuffer

import "github.com/vakon84/at2xt/csec"

// capacity is fixed at 16 slots.
const capacity = 16

// OverflowPolicy controls what Put does when the ring is full.
type OverflowPolicy int

const (
	// DropNewest silently discards the incoming frame, matching AT/XT host
	// behavior on a full receive buffer. This is the default.
	DropNewest OverflowPolicy = iota
	// Panic stops the program on overflow, for builds that would rather
	// crash loudly (and force a watchdog reset) than lose a keystroke.
	Panic
)

// KeycodeBuffer is a fixed-capacity ring of captured AT frames. All 16
// slots are usable: fullness is tracked by count rather than by sacrificing
// a slot to disambiguate head==tail, so a 17th Put against a full buffer of
// 16 is the one that's dropped.
type KeycodeBuffer struct {
	head, count uint8
	contents    [capacity]uint16
	overflow    OverflowPolicy
}

// New returns an empty KeycodeBuffer with the given overflow policy.
func New(policy OverflowPolicy) *KeycodeBuffer {
	return &KeycodeBuffer{overflow: policy}
}

// IsEmpty reports whether there are no frames waiting.
func (b *KeycodeBuffer) IsEmpty(_ csec.Token) bool {
	return b.count == 0
}

func (b *KeycodeBuffer) isFull() bool {
	return b.count == capacity
}

// Put enqueues a captured frame. On a full ring it either drops the new
// frame or panics, per the configured OverflowPolicy; in neither case does
// it disturb the existing contents of the ring.
func (b *KeycodeBuffer) Put(frame uint16, _ csec.Token) {
	if b.isFull() {
		if b.overflow == Panic {
			panic("keybuffer: KeycodeBuffer full")
		}
		return
	}
	tail := (b.head + b.count) % capacity
	b.contents[tail] = frame
	b.count++
}

// Take dequeues the oldest frame, or reports false if the ring is empty.
func (b *KeycodeBuffer) Take(_ csec.Token) (uint16, bool) {
	if b.count == 0 {
		return 0, false
	}
	out := b.contents[b.head]
	b.head = (b.head + 1) % capacity
	b.count--
	return out, true
}

// Flush discards all pending frames.
func (b *KeycodeBuffer) Flush(_ csec.Token) {
	b.head, b.count = 0, 0
}

// Len reports the number of frames currently queued, for diag and tests.
func (b *KeycodeBuffer) Len(_ csec.Token) int {
	return int(b.count)
}
