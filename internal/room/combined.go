package room

import (
	"pigwarserver/internal/board"
	"pigwarserver/internal/piece"
)

// combined is the two-player occupancy view used by move validation and
// the stalemate detector: own pieces stay in their native frame, the
// opponent's board is read through board.FlipTile so both live in one
// coordinate space, per spec.md's "combined board" definition.
type combined struct {
	own *Participant
	opp *Participant
}

// Occupied implements board.Occupied.
func (c combined) Occupied(tile int) bool {
	if _, ok := c.own.Board[tile]; ok {
		return true
	}
	if _, ok := c.opp.Board[board.FlipTile(tile)]; ok {
		return true
	}
	return false
}

func (c combined) ownAt(tile int) (*PieceInstance, bool) {
	p, ok := c.own.Board[tile]
	return p, ok
}

func (c combined) oppAt(tile int) (*PieceInstance, bool) {
	p, ok := c.opp.Board[board.FlipTile(tile)]
	return p, ok
}

// hasAnyMove reports whether any movable piece belonging to p has at
// least one legal destination against opponent o: in bounds, not water,
// and not occupied by a friendly piece (spec.md §4.7.7). Scouts are not
// special-cased; adjacency alone is the policy the spec mandates.
func hasAnyMove(p, o *Participant) bool {
	c := combined{own: p, opp: o}
	for _, inst := range p.Board {
		if !inst.Kind.Valid() {
			continue
		}
		if !piece.Movable(inst.Kind) {
			continue
		}
		for _, dest := range board.Adjacent(inst.Tile) {
			if _, ok := c.ownAt(dest); ok {
				continue
			}
			return true
		}
	}
	return false
}
