package room

import (
	"testing"

	"pigwarserver/internal/board"
	"pigwarserver/internal/piece"
	"pigwarserver/internal/wire"
)

func hasPacket(out []Outbound, packetID uint8) bool {
	for _, o := range out {
		if o.PacketID == packetID {
			return true
		}
	}
	return false
}

// startPlayTestRoom seats two participants, puts the room directly into
// PhasePlay, and hands back both sides so tests can place pieces without
// going through the full lobby/placement handshake.
func startPlayTestRoom(t *testing.T) (r *Room, one, two *Participant) {
	t.Helper()
	r = newTestRoomFlags(t, false, false, false)
	r.Host(1, "alice", 0, nil)
	r.Join(2, "bob", 0)
	r.phase = PhasePlay
	r.currentTurn = RoleOne
	one = r.participantByClientLocked(1)
	two = r.participantByClientLocked(2)
	one.Board = Board{}
	two.Board = Board{}
	return r, one, two
}

func TestHandleMoveToEmptyTile(t *testing.T) {
	r, one, two := startPlayTestRoom(t)
	one.Board[11] = &PieceInstance{Kind: piece.Sergeant, Tile: 11, StableID: 11}
	// role two needs a movable piece, or the stalemate check ends the game
	two.Board[1] = &PieceInstance{Kind: piece.Sergeant, Tile: 1, StableID: 1}

	out, err := r.HandleMove(1, 11, 21)
	if err != nil {
		t.Fatalf("HandleMove: %v", err)
	}
	if _, stillThere := one.Board[11]; stillThere {
		t.Fatalf("expected the source tile to be vacated")
	}
	if inst, ok := one.Board[21]; !ok || inst.Kind != piece.Sergeant {
		t.Fatalf("expected the sergeant to land on tile 21")
	}
	if r.currentTurn != RoleTwo {
		t.Fatalf("expected the turn to pass to role two")
	}
	if !hasPacket(out, wire.STurnInit) {
		t.Fatalf("expected a non-attack move to announce the next turn immediately")
	}
	cancelTimer(&r.gameTimer)
}

func TestHandleMoveCombatWithholdsTurnInitForPostAttackDelay(t *testing.T) {
	r, one, two := startPlayTestRoom(t)
	one.Board[11] = &PieceInstance{Kind: piece.Sergeant, Tile: 11, StableID: 11}
	two.Board[board.FlipTile(21)] = &PieceInstance{Kind: piece.Scout, Tile: board.FlipTile(21), StableID: board.FlipTile(21)}
	// keeps role two with a movable piece once the scout falls
	two.Board[1] = &PieceInstance{Kind: piece.Sergeant, Tile: 1, StableID: 1}

	out, err := r.HandleMove(1, 11, 21)
	if err != nil {
		t.Fatalf("HandleMove: %v", err)
	}
	if hasPacket(out, wire.STurnInit) {
		t.Fatalf("expected an attack move to withhold TurnInit for the post-attack delay")
	}
	if r.gameTimer == nil {
		t.Fatalf("expected the delay stage to still arm a cancellable timer")
	}
	cancelTimer(&r.gameTimer)
}

func TestHandleMoveRejectsWrongTurn(t *testing.T) {
	r, one, _ := startPlayTestRoom(t)
	r.currentTurn = RoleTwo
	one.Board[11] = &PieceInstance{Kind: piece.Sergeant, Tile: 11, StableID: 11}

	if _, err := r.HandleMove(1, 11, 21); err == nil {
		t.Fatalf("expected an error moving out of turn")
	}
}

func TestHandleMoveRejectsImmobilePiece(t *testing.T) {
	r, one, _ := startPlayTestRoom(t)
	one.Board[11] = &PieceInstance{Kind: piece.Flag, Tile: 11, StableID: 11}

	if _, err := r.HandleMove(1, 11, 21); err == nil {
		t.Fatalf("expected an error moving a flag")
	}
}

func TestHandleMoveRejectsOntoOwnPiece(t *testing.T) {
	r, one, _ := startPlayTestRoom(t)
	one.Board[11] = &PieceInstance{Kind: piece.Sergeant, Tile: 11, StableID: 11}
	one.Board[21] = &PieceInstance{Kind: piece.Miner, Tile: 21, StableID: 21}

	if _, err := r.HandleMove(1, 11, 21); err == nil {
		t.Fatalf("expected an error moving onto a friendly piece")
	}
}

func TestHandleMoveRejectsNonAdjacentStep(t *testing.T) {
	r, one, _ := startPlayTestRoom(t)
	one.Board[11] = &PieceInstance{Kind: piece.Sergeant, Tile: 11, StableID: 11}

	if _, err := r.HandleMove(1, 11, 31); err == nil {
		t.Fatalf("expected an error for a non-scout, non-adjacent move")
	}
}

func TestHandleMoveScoutSlidesAndIsBlocked(t *testing.T) {
	r, one, _ := startPlayTestRoom(t)
	one.Board[1] = &PieceInstance{Kind: piece.Scout, Tile: 1, StableID: 1}

	if _, err := r.HandleMove(1, 1, 31); err != nil {
		t.Fatalf("expected the scout to slide three tiles along a clear column: %v", err)
	}

	r2, one2, _ := startPlayTestRoom(t)
	one2.Board[1] = &PieceInstance{Kind: piece.Scout, Tile: 1, StableID: 1}
	one2.Board[21] = &PieceInstance{Kind: piece.Miner, Tile: 21, StableID: 21}
	if _, err := r2.HandleMove(1, 1, 31); err == nil {
		t.Fatalf("expected the scout's slide to be blocked by a piece in its path")
	}
}

func TestHandleMoveCombatAttackerWins(t *testing.T) {
	r, one, two := startPlayTestRoom(t)
	one.Board[11] = &PieceInstance{Kind: piece.Sergeant, Tile: 11, StableID: 11}
	two.Board[board.FlipTile(21)] = &PieceInstance{Kind: piece.Scout, Tile: board.FlipTile(21), StableID: board.FlipTile(21)}

	if _, err := r.HandleMove(1, 11, 21); err != nil {
		t.Fatalf("HandleMove: %v", err)
	}
	if inst, ok := one.Board[21]; !ok || inst.Kind != piece.Sergeant {
		t.Fatalf("expected the attacker to occupy the contested tile after winning")
	}
	if _, stillThere := two.Board[board.FlipTile(21)]; stillThere {
		t.Fatalf("expected the defeated defender to be removed")
	}
}

func TestHandleMoveCombatAttackerLoses(t *testing.T) {
	r, one, two := startPlayTestRoom(t)
	one.Board[11] = &PieceInstance{Kind: piece.Sergeant, Tile: 11, StableID: 11}
	two.Board[board.FlipTile(21)] = &PieceInstance{Kind: piece.General, Tile: board.FlipTile(21), StableID: board.FlipTile(21)}

	if _, err := r.HandleMove(1, 11, 21); err != nil {
		t.Fatalf("HandleMove: %v", err)
	}
	if _, stillThere := one.Board[11]; stillThere {
		t.Fatalf("expected the losing attacker to be removed from its source tile")
	}
	if _, landed := one.Board[21]; landed {
		t.Fatalf("a losing attacker must not occupy the destination")
	}
	if _, survives := two.Board[board.FlipTile(21)]; !survives {
		t.Fatalf("expected the winning defender to remain")
	}
}

func TestHandleMoveCombatTieRemovesBoth(t *testing.T) {
	r, one, two := startPlayTestRoom(t)
	one.Board[11] = &PieceInstance{Kind: piece.Sergeant, Tile: 11, StableID: 11}
	two.Board[board.FlipTile(21)] = &PieceInstance{Kind: piece.Sergeant, Tile: board.FlipTile(21), StableID: board.FlipTile(21)}

	if _, err := r.HandleMove(1, 11, 21); err != nil {
		t.Fatalf("HandleMove: %v", err)
	}
	if _, stillThere := one.Board[11]; stillThere {
		t.Fatalf("expected the attacker to be removed on a tie")
	}
	if _, landed := one.Board[21]; landed {
		t.Fatalf("a tied attacker must not occupy the destination")
	}
	if _, survives := two.Board[board.FlipTile(21)]; survives {
		t.Fatalf("expected the tied defender to be removed")
	}
}

func TestHandleMoveFlagCaptureEndsGame(t *testing.T) {
	r, one, two := startPlayTestRoom(t)
	one.Board[11] = &PieceInstance{Kind: piece.Sergeant, Tile: 11, StableID: 11}
	two.Board[board.FlipTile(21)] = &PieceInstance{Kind: piece.Flag, Tile: board.FlipTile(21), StableID: board.FlipTile(21)}

	out, err := r.HandleMove(1, 11, 21)
	if err != nil {
		t.Fatalf("HandleMove: %v", err)
	}
	if !r.ended {
		t.Fatalf("expected capturing the flag to end the game")
	}
	if len(out) == 0 {
		t.Fatalf("expected a win broadcast")
	}
}
