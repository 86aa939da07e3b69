// Package csec implements the critical-section discipline the bridge uses
// to protect KeyIn, KeyOut and the keycode ring from the AT clock and timer
// interrupts. A Token is a zero-sized witness: the only way to get one is
// to go through Critical, which masks the section's Lock for the duration
// of the callback. Every mutating operation on the shared registers takes
// a Token by value so that touching them outside a critical section doesn't
// typecheck as the normal call path.
//
// On bare metal this Lock would be "mask the CPU interrupt-enable bit."
// Hosted on a real goroutine-capable backend (gpiopins) there's an actual
// second thread of control, the AT clock edge watcher, so Lock is a
// *sync.Mutex there. Either way the token discipline is identical.
package csec

import "sync"

// Token witnesses that the current goroutine holds a Lock's critical
// section. It carries no state and must not be stored past the Critical
// call that produced it.
type Token struct {
	_ [0]int
}

// Lock masks whatever interrupt source(s) a critical section must be safe
// against. The zero value is ready to use and behaves like a plain mutex,
// which is exactly right for the single-goroutine simulated core.
type Lock struct {
	mu sync.Mutex
}

// Critical masks the lock, runs fn with a Token, then unmasks. fn must not
// block or re-enter Critical on the same Lock.
func Critical(l *Lock, fn func(Token)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(Token{})
}
