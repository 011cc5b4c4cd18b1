package timer

import "testing"

func TestArmAndCancel(t *testing.T) {
	var tm Timer
	if tm.Active() {
		t.Fatal("zero timer should not be active")
	}

	tok := tm.Arm()
	if !tm.Live(tok) {
		t.Error("freshly armed token should be live")
	}

	tm.Cancel()
	if tm.Live(tok) || tm.Active() {
		t.Error("cancelled token should not be live")
	}
}

func TestRearmInvalidatesOldToken(t *testing.T) {
	var tm Timer
	first := tm.Arm()
	second := tm.Arm()
	if first == second {
		t.Fatal("tokens should differ")
	}
	if tm.Live(first) {
		t.Error("old token should be stale after re-arming")
	}
	if !tm.Live(second) {
		t.Error("new token should be live")
	}
}

func TestConsumeFiresOnce(t *testing.T) {
	var tm Timer
	tok := tm.Arm()
	if !tm.Consume(tok) {
		t.Fatal("first consume should succeed")
	}
	if tm.Consume(tok) {
		t.Error("second consume should fail")
	}
	if tm.Live(0) {
		t.Error("zero token is never live")
	}
}

func TestTokensUniqueAcrossTimers(t *testing.T) {
	var a, b Timer
	ta := a.Arm()
	tb := b.Arm()
	if ta == tb {
		t.Fatal("tokens from different timers should differ")
	}
	if b.Live(ta) {
		t.Error("a token from one timer should never be live on another")
	}
}
