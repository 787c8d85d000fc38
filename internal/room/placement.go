package room

import (
	"time"

	"pigwarserver/internal/apperr"
	"pigwarserver/internal/board"
	"pigwarserver/internal/piece"
	"pigwarserver/internal/wire"
)

// SetGameReady implements spec.md §4.7.4: a client submits its placed
// board (or withdraws readiness). placements is the (kind, tile) list
// decoded from wire.GamePlayerReadyData.Board; it is ignored when ready
// is false.
func (r *Room) SetGameReady(clientID uint32, ready bool, placements []wire.KindCount) ([]Outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlacement {
		return nil, apperr.Domain("room is not in placement phase")
	}
	p := r.participantByClientLocked(clientID)
	if p == nil {
		return nil, apperr.ErrMissingContext
	}

	if !ready {
		p.GameReady = false
		p.Board = nil
		p.InitialBoard = nil
		r.touch()
		return r.toAll(wire.SGamePlayerUpdatedReadyState, wire.GamePlayerUpdatedReadyState{ID: clientID, Ready: false}.Encode()), nil
	}

	b, err := validatePlacement(placements, r.settings.PieceConfig)
	if err != nil {
		return nil, err
	}
	p.Board = b
	p.InitialBoard = make([]PieceInstance, 0, len(b))
	for _, inst := range b {
		p.InitialBoard = append(p.InitialBoard, *inst)
	}
	p.GameReady = true
	r.touch()

	out := r.toAll(wire.SGamePlayerUpdatedReadyState, wire.GamePlayerUpdatedReadyState{ID: clientID, Ready: true}.Encode())

	if r.bothGameReadyLocked() {
		out = append(out, r.beginPlayLocked()...)
	}
	return out, nil
}

// validatePlacement checks a submitted board against cfg: every tile
// must be in the host's own starting territory, no tile used twice, no
// Empty kinds, and per-kind counts must exactly match cfg.
func validatePlacement(placements []wire.KindCount, cfg piece.Config) (Board, error) {
	b := make(Board, len(placements))
	counts := make(piece.Config, len(cfg))

	for _, pl := range placements {
		k := piece.Kind(pl.Kind)
		tile := int(pl.Count)
		if !k.Valid() {
			return nil, apperr.Domain("invalid piece kind in placement")
		}
		if !board.InStartingTerritory(tile) {
			return nil, apperr.Domain("placement tile out of starting territory")
		}
		if _, dup := b[tile]; dup {
			return nil, apperr.Domain("duplicate placement tile")
		}
		b[tile] = &PieceInstance{Kind: k, Tile: tile, StableID: tile}
		counts[k]++
	}
	if !counts.Equal(cfg) {
		return nil, apperr.Domain("placement does not match the configured piece counts")
	}
	return b, nil
}

func (r *Room) bothGameReadyLocked() bool {
	if r.singlePlayer {
		return r.participants[seatIndex(RoleOne)] != nil && r.participants[seatIndex(RoleOne)].GameReady
	}
	for _, p := range r.participants {
		if p == nil || !p.GameReady {
			return false
		}
	}
	return true
}

// beginPlayLocked runs spec.md §4.7.4's play-entry sequence once both
// sides are ready: fog-of-war placement reveal, an initial stalemate
// check, the phase transition, and (if turns are enabled) the first
// turn_start. Caller must hold the write lock.
func (r *Room) beginPlayLocked() []Outbound {
	if r.singlePlayer {
		r.seedFakeOpponentLocked()
	}

	one := r.participants[seatIndex(RoleOne)]
	two := r.opponentOfLocked(RoleOne)

	var out []Outbound
	if one != nil && two != nil {
		out = append(out, toOne(one.ClientID, wire.SOpponentPigPlacement, opponentPlacementBody(two))...)
		if two.ClientID != 0 {
			out = append(out, toOne(two.ClientID, wire.SOpponentPigPlacement, opponentPlacementBody(one))...)
		}
	}

	r.phase = PhasePlay
	now := time.Now()
	r.gameStartAt = &now
	bufDur := time.Duration(r.settings.BufferSec) * time.Second
	for _, p := range r.participants {
		if p != nil {
			p.Buffer = bufDur
		}
	}

	if stalemate, winOut := r.checkStalemateLocked(); stalemate {
		out = append(out, winOut...)
		return out
	}

	r.currentTurn = RoleOne
	if !r.ignoreTurns {
		out = append(out, r.startTurnLocked(false)...)
	}
	return out
}

// opponentOfLocked returns the participant opposing role, or the fake
// opponent in single-player mode.
func (r *Room) opponentOfLocked(role Role) *Participant {
	other := role.Other()
	if p := r.participants[seatIndex(other)]; p != nil {
		return p
	}
	return r.fakeOpponent
}

func opponentPlacementBody(opp *Participant) []byte {
	tiles := make([]uint8, 0, len(opp.Board))
	for tile := range opp.Board {
		tiles = append(tiles, uint8(board.FlipTile(tile)))
	}
	return wire.OpponentPigPlacement{Locations: tiles}.Encode()
}

// seedFakeOpponentLocked gives single-player mode's simulated opponent a
// placement mirroring the room's own configured preset, so the
// stalemate detector and move engine have real pieces to react to.
func (r *Room) seedFakeOpponentLocked() {
	if r.fakeOpponent == nil {
		r.fakeOpponent = &Participant{ClientID: 0, Role: RoleTwo}
	}
	b := make(Board, r.settings.PieceConfig.Total())
	tile := 1
	for k, count := range r.settings.PieceConfig {
		for i := 0; i < count; i++ {
			for board.IsWater(tile) {
				tile++
			}
			b[tile] = &PieceInstance{Kind: k, Tile: tile, StableID: tile}
			tile++
		}
	}
	r.fakeOpponent.Board = b
	r.fakeOpponent.GameReady = true
	r.fakeOpponent.InGame = true
}
