package room

import (
	"testing"
	"time"
)

func turnTestRoom(t *testing.T) (r *Room, one, two *Participant) {
	t.Helper()
	r, one, two = startPlayTestRoom(t)
	return r, one, two
}

func TestStartTurnLockedImmediateSendsTurnBroadcastAndArmsTimer(t *testing.T) {
	r, _, _ := turnTestRoom(t)
	r.currentTurn = RoleTwo

	out := r.startTurnLocked(false)
	if len(out) == 0 {
		t.Fatalf("expected an immediate turn start to broadcast TurnInit/TurnSecondUpdate")
	}
	if r.gameTimer == nil {
		t.Fatalf("expected a running turn timer to be armed")
	}
	cancelTimer(&r.gameTimer)
}

func TestStartTurnLockedDelayedWithholdsBroadcastUntilDelayFires(t *testing.T) {
	r, _, _ := turnTestRoom(t)
	r.currentTurn = RoleTwo

	out := r.startTurnLocked(true)
	if out != nil {
		t.Fatalf("expected a delayed turn start to withhold the broadcast, got %v", out)
	}
	if r.gameTimer == nil {
		t.Fatalf("expected the delay stage to still arm a cancellable timer")
	}
	cancelTimer(&r.gameTimer)
}

func TestBeginDelayedTurnLockedSendsBroadcastWhenStillMoversTurn(t *testing.T) {
	r, _, _ := turnTestRoom(t)
	r.currentTurn = RoleOne

	out, turnDur, proceed := r.beginDelayedTurnLocked(RoleOne)
	if !proceed {
		t.Fatalf("expected the delayed turn start to proceed")
	}
	if len(out) == 0 {
		t.Fatalf("expected a TurnInit/TurnSecondUpdate broadcast once the delay elapses")
	}
	if turnDur != time.Duration(r.settings.TurnSec)*time.Second {
		t.Fatalf("expected the plain turn duration, got %v", turnDur)
	}
}

func TestBeginDelayedTurnLockedNoopAfterTurnAlreadyMovedOn(t *testing.T) {
	r, _, _ := turnTestRoom(t)
	r.currentTurn = RoleTwo // the turn already advanced again before the delay fired

	out, _, proceed := r.beginDelayedTurnLocked(RoleOne)
	if proceed || out != nil {
		t.Fatalf("expected a stale delayed turn start to be a no-op")
	}
}

func TestBeginDelayedTurnLockedNoopAfterGameEnded(t *testing.T) {
	r, _, _ := turnTestRoom(t)
	r.currentTurn = RoleOne
	r.ended = true

	out, _, proceed := r.beginDelayedTurnLocked(RoleOne)
	if proceed || out != nil {
		t.Fatalf("expected a delayed turn start to no-op once the game has ended")
	}
}

func TestEnterBufferLockedArmsBufferWhenTimeRemains(t *testing.T) {
	r, one, _ := turnTestRoom(t)
	one.Buffer = 5 * time.Second

	out, bufDur, proceed := r.enterBufferLocked(RoleOne)
	if !proceed {
		t.Fatalf("expected to proceed into the buffer stage")
	}
	if bufDur != 5*time.Second {
		t.Fatalf("expected the full remaining buffer, got %v", bufDur)
	}
	if len(out) == 0 {
		t.Fatalf("expected a buffer-phase countdown broadcast")
	}
	if !r.inBuffer || r.lastBufferStartAt == nil {
		t.Fatalf("expected the room to record entering the buffer stage")
	}
}

func TestEnterBufferLockedEndsGameWithNoBufferLeft(t *testing.T) {
	r, one, _ := turnTestRoom(t)
	one.Buffer = 0

	out, _, proceed := r.enterBufferLocked(RoleOne)
	if proceed {
		t.Fatalf("expected the game to end rather than proceed")
	}
	if !r.ended {
		t.Fatalf("expected running out of buffer time to end the game")
	}
	if len(out) == 0 {
		t.Fatalf("expected a win broadcast")
	}
}

func TestEnterBufferLockedNoopAfterTurnAlreadyMoved(t *testing.T) {
	r, one, _ := turnTestRoom(t)
	one.Buffer = 5 * time.Second
	r.currentTurn = RoleTwo // the turn already advanced before the timer fired

	out, _, proceed := r.enterBufferLocked(RoleOne)
	if proceed || out != nil {
		t.Fatalf("expected a stale buffer timer to be a no-op")
	}
}

func TestExpireBufferLockedEndsGameOnTimeout(t *testing.T) {
	r, one, _ := turnTestRoom(t)
	one.Buffer = 5 * time.Second
	r.enterBufferLocked(RoleOne)

	out := r.expireBufferLocked(RoleOne)
	if !r.ended {
		t.Fatalf("expected the buffer timing out to end the game")
	}
	if len(out) == 0 {
		t.Fatalf("expected a win broadcast")
	}
	if one.Buffer != 0 {
		t.Fatalf("expected the timed-out mover's buffer to be zeroed")
	}
}

func TestExpireBufferLockedNoopWithoutEnteringBuffer(t *testing.T) {
	r, _, _ := turnTestRoom(t)
	if out := r.expireBufferLocked(RoleOne); out != nil {
		t.Fatalf("expected no-op when the buffer stage was never entered")
	}
}

func TestConsumeBufferLockedChargesElapsedTime(t *testing.T) {
	r, one, _ := turnTestRoom(t)
	one.Buffer = 5 * time.Second
	started := time.Now().Add(-2 * time.Second)
	r.inBuffer = true
	r.lastBufferStartAt = &started

	r.consumeBufferLocked(one)

	if r.inBuffer {
		t.Fatalf("expected consuming the buffer to clear the in-buffer flag")
	}
	if one.Buffer > 3100*time.Millisecond || one.Buffer < 2900*time.Millisecond {
		t.Fatalf("expected roughly 3s of buffer remaining, got %v", one.Buffer)
	}
}

func TestConsumeBufferLockedNoopOutsideBuffer(t *testing.T) {
	r, one, _ := turnTestRoom(t)
	one.Buffer = 5 * time.Second
	r.inBuffer = false

	r.consumeBufferLocked(one)

	if one.Buffer != 5*time.Second {
		t.Fatalf("expected buffer to be untouched outside the buffer stage")
	}
}
