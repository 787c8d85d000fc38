package room

import (
	"time"

	"pigwarserver/internal/apperr"
	"pigwarserver/internal/wire"
)

const (
	soloLobbyCountdown = 1 * time.Second
	lobbyCountdown     = 5 * time.Second
)

// SetReady implements spec.md §4.7.2. Rejected once the room has left
// the lobby.
func (r *Room) SetReady(clientID uint32, ready bool) ([]Outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseLobby {
		return nil, apperr.Domain("room is not in lobby phase")
	}
	p := r.participantByClientLocked(clientID)
	if p == nil {
		return nil, apperr.ErrMissingContext
	}
	p.LobbyReady = ready
	r.touch()

	out := r.toAll(wire.SRoomPlayerUpdatedReadyState, wire.RoomPlayerUpdatedReadyState{ID: clientID, Ready: ready}.Encode())

	if !ready {
		cancelTimer(&r.lobbyTimer)
		out = append(out, r.toAll(wire.SRoomTimerUpdate, wire.RoomTimerUpdate{DeadlineMs: -1, ServerNowMs: nowMillis()}.Encode())...)
		return out, nil
	}

	if r.singlePlayer {
		r.armTimer(&r.lobbyTimer, soloLobbyCountdown, (*Room).startPlacement)
		return out, nil
	}
	if r.allReadyLocked() {
		r.armTimer(&r.lobbyTimer, lobbyCountdown, (*Room).startPlacement)
	}
	return out, nil
}

func (r *Room) allReadyLocked() bool {
	for _, p := range r.participants {
		if p == nil || !p.LobbyReady {
			return false
		}
	}
	return true
}

// startPlacement fires when the lobby countdown elapses. It runs as a
// timer callback: no lock is held on entry.
func (r *Room) startPlacement() {
	r.mu.Lock()
	r.lobbyTimer = nil
	r.phase = PhasePlacement
	for _, p := range r.participants {
		if p != nil {
			p.InGame = true
		}
	}
	if r.fakeOpponent != nil {
		r.fakeOpponent.InGame = true
	}
	r.touch()
	r.mu.Unlock()
}

// SceneLoad implements spec.md §4.7.3. scene_index is clamped to <=2 and
// otherwise trusted (spec.md Design Notes: silently tolerate >2 by
// clamping, nothing further).
func (r *Room) SceneLoad(clientID uint32, sceneIndex uint32) []Outbound {
	if sceneIndex > 2 {
		sceneIndex = 2
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.participantByClientLocked(clientID)
	if p == nil {
		return nil
	}
	p.SceneIndex = sceneIndex
	r.touch()

	var out []Outbound
	if r.allAtSceneLocked(1) {
		for _, pp := range r.participants {
			if pp == nil {
				continue
			}
			out = append(out, r.joinBroadcastLocked(pp)...)
		}
	}
	if r.allAtSceneLocked(2) {
		out = append(out, r.toAll(wire.SBothClientsLoadedGame, wire.BothClientsLoadedGame{}.Encode())...)
	}
	return out
}

func (r *Room) allAtSceneLocked(n uint32) bool {
	count := 0
	for _, p := range r.participants {
		if p == nil {
			continue
		}
		count++
		if p.SceneIndex != n {
			return false
		}
	}
	return count > 0
}
