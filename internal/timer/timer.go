// Package timer provides cancellation tokens for scheduled ticks.
//
// A bubbletea tick cannot be stopped once scheduled, so every scheduled tick
// carries the Token it was armed with. The owner cancels by moving its Timer
// on; a tick that arrives with a token that is no longer live is dropped.
package timer

import "sync/atomic"

// Token identifies one arming of a Timer. Tokens are unique across all
// timers in the process; the zero Token is never live.
type Token uint64

var seq atomic.Uint64

// Timer owns at most one live token at a time.
type Timer struct {
	live Token
}

// Arm cancels any pending token and returns a fresh live one.
func (t *Timer) Arm() Token {
	t.live = Token(seq.Add(1))
	return t.live
}

// Cancel invalidates the live token, if any.
func (t *Timer) Cancel() {
	t.live = 0
}

// Live reports whether tok is the timer's current token.
func (t *Timer) Live(tok Token) bool {
	return tok != 0 && tok == t.live
}

// Active reports whether a token is currently armed.
func (t *Timer) Active() bool {
	return t.live != 0
}

// Consume reports whether tok is live and, if so, cancels it. Used by
// one-shot timers that fire at most once per arming.
func (t *Timer) Consume(tok Token) bool {
	if !t.Live(tok) {
		return false
	}
	t.live = 0
	return true
}
