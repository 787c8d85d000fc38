package room

import (
	"context"
	"sync"
	"time"

	"pigwarserver/internal/history"
)

// Outbound is one packet a caller must deliver to a specific client.
// Handler methods return a batch of these once their critical section
// has released the room lock; timer-driven events deliver the same
// shape through the room's stored Sender instead (see armTimer).
type Outbound struct {
	ClientID uint32
	PacketID uint8
	Body     []byte
}

// Sender delivers packets asynchronously, outside any room lock. It is
// how the scheduler's timer tasks (turn clocks, lobby countdown) push
// packets without a caller polling for them, mirroring the teacher's
// table.broadcast callback (apps/server/internal/table/table.go).
type Sender func(out []Outbound)

// timerTask is a cancellable scheduled task. Cancellation is
// fire-and-forget: the canceling code is responsible for clearing the
// Room field that referenced this task under the write lock, per
// spec.md's design notes on cancellable timers.
type timerTask struct {
	cancel context.CancelFunc
}

// Room is one in-memory game session. All field access outside of
// construction must go through a method that takes mu, matching
// apps/server/internal/table/table.go's mu-guarded Table struct.
type Room struct {
	mu sync.RWMutex

	id   uint32
	code string

	participants [2]*Participant // index 0 = RoleOne, index 1 = RoleTwo
	fakeOpponent *Participant     // single-player dev mode

	phase Phase
	ended bool

	settings Settings

	currentTurn Role

	gameStartAt       *time.Time
	lastBufferStartAt *time.Time
	inBuffer          bool

	lobbyTimer *timerTask
	gameTimer  *timerTask

	lastActivityAt time.Time

	send Sender
	hist history.Service

	// singlePlayer, ignoreTurns and immediateStart mirror the CLI flags
	// -p/-t/-s; -p implies -t. They only ever take effect for rooms
	// created while the server runs with those flags, so they live
	// per-room rather than as a global to keep Room self-contained and
	// testable.
	singlePlayer   bool
	ignoreTurns    bool
	immediateStart bool
}

// newRoom constructs a room with the given id/code. It is unexported:
// only the Registry may mint rooms, since only the Registry allocates
// ids and codes.
func newRoom(id uint32, code string, send Sender, hist history.Service, singlePlayer, ignoreTurns, immediateStart bool) *Room {
	return &Room{
		id:             id,
		code:           code,
		phase:          PhaseLobby,
		currentTurn:    RoleTie,
		settings:       DefaultSettings(),
		lastActivityAt: time.Now(),
		send:           send,
		hist:           hist,
		singlePlayer:   singlePlayer,
		ignoreTurns:    ignoreTurns || singlePlayer,
		immediateStart: immediateStart,
	}
}

// ID returns the room's registry id.
func (r *Room) ID() uint32 {
	return r.id
}

// Code returns the room's join code.
func (r *Room) Code() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.code
}

// touch records activity for the idle reaper. Callers must already hold
// the write lock.
func (r *Room) touch() {
	r.lastActivityAt = time.Now()
}

// IsIdleSince reports whether the room has seen no activity since
// before cutoff and is eligible for reaping (spec.md §4.3: not in
// active Play, or ended).
func (r *Room) IsIdleSince(cutoff time.Time) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.phase == PhasePlay && !r.ended {
		return false
	}
	return r.lastActivityAt.Before(cutoff)
}

// participantByClientLocked finds a participant by client id, or nil.
func (r *Room) participantByClientLocked(clientID uint32) *Participant {
	for _, p := range r.participants {
		if p != nil && p.ClientID == clientID {
			return p
		}
	}
	return nil
}

// HasClient reports whether clientID occupies a seat in this room.
func (r *Room) HasClient(clientID uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.participantByClientLocked(clientID) != nil
}

// InGame reports whether clientID's seat currently has in-game data
// (spec.md InGameGuard).
func (r *Room) InGame(clientID uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.participantByClientLocked(clientID)
	return p != nil && p.InGame
}

// InActiveGame reports whether clientID's seat is in a live, unended
// Play-phase game (spec.md InGameStrictGuard).
func (r *Room) InActiveGame(clientID uint32) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p := r.participantByClientLocked(clientID)
	return p != nil && p.InGame && r.phase == PhasePlay && !r.ended
}

// toAll builds one Outbound per currently seated participant.
func (r *Room) toAll(packetID uint8, body []byte) []Outbound {
	var out []Outbound
	for _, p := range r.participants {
		if p != nil {
			out = append(out, Outbound{ClientID: p.ClientID, PacketID: packetID, Body: body})
		}
	}
	return out
}

func toOne(clientID uint32, packetID uint8, body []byte) []Outbound {
	return []Outbound{{ClientID: clientID, PacketID: packetID, Body: body}}
}

// seatIndex returns the participant slot index for a role (0 or 1).
func seatIndex(role Role) int {
	if role == RoleTwo {
		return 1
	}
	return 0
}

// armTimer cancels any existing task referenced by *slot, then starts a
// new one that waits d before invoking fire under a fresh write lock.
// Both slot mutation and cancellation happen under the write lock the
// caller already holds; armTimer itself must be called with mu locked.
func (r *Room) armTimer(slot **timerTask, d time.Duration, fire func(r *Room)) {
	if *slot != nil {
		(*slot).cancel()
		*slot = nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	*slot = &timerTask{cancel: cancel}
	go func() {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			fire(r)
		}
	}()
}

// cancelTimer cancels *slot if set and clears it. Caller must hold the
// write lock.
func cancelTimer(slot **timerTask) {
	if *slot != nil {
		(*slot).cancel()
		*slot = nil
	}
}

// deliver hands a batch of packets to the room's sender. It is used by
// timer tasks (which already run outside the lock by construction) and
// must never be called while mu is held.
func (r *Room) deliver(out []Outbound) {
	if r.send != nil && len(out) > 0 {
		r.send(out)
	}
}

// nowMillis is the only clock read the wire protocol cares about: the
// absolute server time attached to every deadline so clients can
// reconcile drift (spec.md §5).
func nowMillis() uint64 {
	return uint64(time.Now().UnixMilli())
}
