package room

import (
	"pigwarserver/internal/apperr"
	"pigwarserver/internal/wire"
)

// Surrender implements spec.md §4.7.8: the surrendering side's opponent
// wins immediately, regardless of board state.
func (r *Room) Surrender(clientID uint32) ([]Outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlay || r.ended {
		return nil, apperr.Domain("no active game to surrender")
	}
	p := r.participantByClientLocked(clientID)
	if p == nil {
		return nil, apperr.ErrMissingContext
	}
	return r.winLocked(p.Role.Other(), WinSurrender, true), nil
}

// PlayAgain implements spec.md §4.7.8's rematch flow: each side marks
// itself willing, and once every seated participant has, the room
// resets fully back to PhaseLobby.
func (r *Room) PlayAgain(clientID uint32) ([]Outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.ended {
		return nil, apperr.Domain("game has not ended")
	}
	p := r.participantByClientLocked(clientID)
	if p == nil {
		return nil, apperr.ErrMissingContext
	}
	p.PlayAgain = true
	out := r.toAll(wire.SClientPlayAgain, wire.ClientPlayAgain{ID: clientID}.Encode())

	if !r.allPlayAgainLocked() {
		return out, nil
	}
	out = append(out, r.resetToLobbyLocked()...)
	return out, nil
}

func (r *Room) allPlayAgainLocked() bool {
	for _, p := range r.participants {
		if p == nil {
			continue
		}
		if !p.PlayAgain {
			return false
		}
	}
	return true
}

// resetToLobbyLocked clears all in-game state so the room can be played
// again with the same seated participants and settings. Caller must
// hold the write lock.
func (r *Room) resetToLobbyLocked() []Outbound {
	cancelTimer(&r.lobbyTimer)
	cancelTimer(&r.gameTimer)
	r.phase = PhaseLobby
	r.ended = false
	r.currentTurn = RoleTie
	r.gameStartAt = nil
	r.lastBufferStartAt = nil
	r.inBuffer = false

	for _, p := range r.participants {
		if p == nil {
			continue
		}
		p.LobbyReady = false
		p.GameReady = false
		p.InGame = false
		p.PlayAgain = false
		p.Board = nil
		p.InitialBoard = nil
		p.SceneIndex = 0
		p.Buffer = 0
	}
	if r.fakeOpponent != nil {
		r.fakeOpponent = nil
	}
	r.touch()
	return r.toAll(wire.SGameInfo, r.gameInfoLocked())
}

// LeaveGame implements spec.md §4.7.9's explicit leave path. It carries
// the same seat-vacating semantics as an abrupt disconnect: the client
// is expected to close its connection immediately afterward, so this is
// a thin alias rather than a separate code path (see DESIGN.md).
func (r *Room) LeaveGame(clientID uint32) ([]Outbound, bool) {
	return r.Disconnect(clientID)
}
