package room

import (
	"context"
	"time"

	"pigwarserver/internal/wire"
)

// postAttackTurnDelay is the pause before the next turn's TurnInit is
// sent when the move that ended the previous turn was a combat move,
// giving the client time to play its attack animation.
const postAttackTurnDelay = 4 * time.Second

// startTurnLocked implements the first stage of spec.md §4.7.6: announce
// whose turn it is, broadcast the turn-phase countdown, and arm a timer
// for the plain turn duration. Caller must hold the write lock. If delay
// is set (the move that just ended was a combat move), the announcement
// itself is held back by postAttackTurnDelay instead of sent inline.
func (r *Room) startTurnLocked(delay bool) []Outbound {
	cancelTimer(&r.gameTimer)
	r.inBuffer = false
	r.lastBufferStartAt = nil

	mover := r.currentTurn
	ctx, cancel := context.WithCancel(context.Background())
	r.gameTimer = &timerTask{cancel: cancel}

	if delay {
		go r.runDelayedTurnClock(ctx, mover)
		return nil
	}

	out, turnDur := r.turnStartBroadcastLocked(mover)
	go r.runTurnClock(ctx, mover, turnDur)
	return out
}

// turnStartBroadcastLocked builds the TurnInit + TurnSecondUpdate
// broadcast for mover taking the plain turn stage, and reports how long
// that stage should run. Caller must hold the write lock.
func (r *Room) turnStartBroadcastLocked(mover Role) ([]Outbound, time.Duration) {
	out := r.toAll(wire.STurnInit, wire.TurnInit{Role: uint32(mover)}.Encode())

	turnDur := time.Duration(r.settings.TurnSec) * time.Second
	deadline := time.Now().Add(turnDur)
	out = append(out, r.toAll(wire.STurnSecondUpdate, wire.TurnSecondUpdate{
		Role: uint32(mover), DeadlineMs: uint64(deadline.UnixMilli()), ServerNowMs: nowMillis(), IsBuffer: false,
	}.Encode())...)
	return out, turnDur
}

// runTurnClock sleeps out the plain turn window, then (if the buffer
// isn't already exhausted) the buffer window, ending the game by
// timeout if neither a move nor a cancellation arrives first. It holds
// no lock while sleeping; every mutation happens inside its own
// momentary lock acquisition.
func (r *Room) runTurnClock(ctx context.Context, mover Role, turnDur time.Duration) {
	t := time.NewTimer(turnDur)
	select {
	case <-ctx.Done():
		t.Stop()
		return
	case <-t.C:
	}

	out, bufDur, proceed := r.enterBufferLocked(mover)
	r.deliver(out)
	if !proceed {
		return
	}

	bt := time.NewTimer(bufDur)
	select {
	case <-ctx.Done():
		bt.Stop()
		return
	case <-bt.C:
	}
	r.deliver(r.expireBufferLocked(mover))
}

// runDelayedTurnClock waits out postAttackTurnDelay before announcing
// the turn, then falls through to the same plain-turn/buffer clock as
// an immediate turn start. It holds no lock while sleeping.
func (r *Room) runDelayedTurnClock(ctx context.Context, mover Role) {
	t := time.NewTimer(postAttackTurnDelay)
	select {
	case <-ctx.Done():
		t.Stop()
		return
	case <-t.C:
	}

	out, turnDur, proceed := r.beginDelayedTurnLocked(mover)
	r.deliver(out)
	if !proceed {
		return
	}
	r.runTurnClock(ctx, mover, turnDur)
}

// beginDelayedTurnLocked fires once postAttackTurnDelay elapses: if the
// room is still mid-game and it's still mover's turn, it sends the held
// TurnInit/TurnSecondUpdate broadcast and reports the plain-turn
// duration the caller should now sleep.
func (r *Room) beginDelayedTurnLocked(mover Role) (out []Outbound, turnDur time.Duration, proceed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlay || r.ended || r.currentTurn != mover {
		return nil, 0, false
	}
	out, turnDur = r.turnStartBroadcastLocked(mover)
	return out, turnDur, true
}

// enterBufferLocked fires when the plain turn window elapses. If the
// mover has no buffer left the game ends immediately; otherwise it
// announces the buffer-phase countdown and reports how long the caller
// should now sleep.
func (r *Room) enterBufferLocked(mover Role) (out []Outbound, bufDur time.Duration, proceed bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlay || r.ended || r.currentTurn != mover {
		return nil, 0, false
	}
	p := r.turnParticipantLocked(mover)
	if p == nil {
		return nil, 0, false
	}
	if p.Buffer <= 0 {
		return r.winLocked(mover.Other(), WinOutOfTime, false), 0, false
	}

	now := time.Now()
	r.lastBufferStartAt = &now
	r.inBuffer = true
	deadline := now.Add(p.Buffer)
	out = r.toAll(wire.STurnSecondUpdate, wire.TurnSecondUpdate{
		Role: uint32(mover), DeadlineMs: uint64(deadline.UnixMilli()), ServerNowMs: nowMillis(), IsBuffer: true,
	}.Encode())
	return out, p.Buffer, true
}

// expireBufferLocked fires when the buffer window elapses with no move
// played: the mover loses on time.
func (r *Room) expireBufferLocked(mover Role) []Outbound {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlay || r.ended || r.currentTurn != mover || !r.inBuffer {
		return nil
	}
	p := r.turnParticipantLocked(mover)
	if p != nil {
		p.Buffer = 0
	}
	return r.winLocked(mover.Other(), WinOutOfTime, false)
}

// turnParticipantLocked resolves a role to its participant, including
// the single-player fake opponent for RoleTwo.
func (r *Room) turnParticipantLocked(role Role) *Participant {
	if p := r.participants[seatIndex(role)]; p != nil {
		return p
	}
	if role == RoleTwo {
		return r.fakeOpponent
	}
	return nil
}
