package room

import (
	"time"

	"pigwarserver/internal/apperr"
	"pigwarserver/internal/board"
	"pigwarserver/internal/history"
	"pigwarserver/internal/piece"
	"pigwarserver/internal/wire"
)

// HandleMove implements spec.md §4.7.5: validate turn ownership, shape,
// and path, resolve combat if the destination is occupied by the
// opponent, then check for game end before flipping the turn.
func (r *Room) HandleMove(clientID uint32, from, to uint8) ([]Outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhasePlay || r.ended {
		return nil, apperr.Domain("room is not in an active game")
	}
	mover := r.participantByClientLocked(clientID)
	if mover == nil {
		return nil, apperr.ErrMissingContext
	}
	if !r.ignoreTurns && mover.Role != r.currentTurn {
		return nil, apperr.Domain("not your turn")
	}

	fromTile, toTile := int(from), int(to)
	if !board.InBounds(fromTile) || !board.InBounds(toTile) {
		return nil, apperr.Domain("move tile out of bounds")
	}
	inst, ok := mover.Board[fromTile]
	if !ok {
		return nil, apperr.Domain("no piece at the source tile")
	}
	if !piece.Movable(inst.Kind) {
		return nil, apperr.Domain("that piece cannot move")
	}

	opp := r.opponentOfLocked(mover.Role)
	if opp == nil {
		return nil, apperr.ErrMissingContext
	}
	c := combined{own: mover, opp: opp}

	if _, ok := c.ownAt(toTile); ok {
		return nil, apperr.Domain("cannot move onto your own piece")
	}
	if !legalDestination(inst.Kind, c, fromTile, toTile) {
		return nil, apperr.Domain("illegal move shape or blocked path")
	}

	var out []Outbound
	defender, hasDefender := c.oppAt(toTile)

	if !hasDefender {
		delete(mover.Board, fromTile)
		inst.Tile = toTile
		mover.Board[toTile] = inst
		out = append(out, r.toAll(wire.SMoveData, wire.MoveData{
			Role: uint32(mover.Role), From: from, To: to, BundleNull: true,
		}.Encode())...)
	} else {
		outcome := piece.Attack(inst.Kind, defender.Kind)
		flagCaptured := defender.Kind == piece.Flag && outcome == piece.Win
		out = append(out, r.toAll(wire.SMoveData, wire.MoveData{
			Role: uint32(mover.Role), From: from, To: to, BundleNull: false,
			Result: int32(outcome), Init: uint32(inst.Kind), Target: uint32(defender.Kind),
		}.Encode())...)
		applyCombat(mover, opp, inst, defender, fromTile, toTile, outcome)

		if flagCaptured {
			out = append(out, r.winLocked(mover.Role, WinFlagCapture, true)...)
			return out, nil
		}
	}

	r.consumeBufferLocked(mover)

	if stalemate, winOut := r.checkStalemateLocked(); stalemate {
		out = append(out, winOut...)
		return out, nil
	}

	if !r.ignoreTurns {
		r.currentTurn = mover.Role.Other()
		out = append(out, r.startTurnLocked(hasDefender)...)
	}
	return out, nil
}

// legalDestination reports whether to is a reachable destination for a
// piece of kind k starting at from, given the combined occupancy c.
// Scouts may slide any distance along a clear straight line; every other
// movable kind steps to one orthogonal neighbor.
func legalDestination(k piece.Kind, c combined, from, to int) bool {
	if k == piece.Scout {
		for _, dest := range board.ScoutReach(from) {
			if dest == to {
				return !board.BlockedByPiece(c, from, to)
			}
		}
		return false
	}
	for _, dest := range board.Adjacent(from) {
		if dest == to {
			return true
		}
	}
	return false
}

// applyCombat mutates both boards to reflect outcome: the losing piece
// (or both, on a Tie) is removed; a surviving attacker occupies to.
func applyCombat(mover, opp *Participant, attacker, defender *PieceInstance, from, to int, outcome piece.Outcome) {
	defenderTile := board.FlipTile(to)
	switch outcome {
	case piece.Win:
		delete(opp.Board, defenderTile)
		delete(mover.Board, from)
		attacker.Tile = to
		mover.Board[to] = attacker
	case piece.Lose:
		delete(mover.Board, from)
	case piece.Tie:
		delete(opp.Board, defenderTile)
		delete(mover.Board, from)
	}
}

// consumeBufferLocked charges elapsed buffer time against mover if its
// current turn had already eaten into the buffer stage (spec.md §4.7.6:
// a move ends the clock early, but time already spent in the buffer
// still counts against it).
func (r *Room) consumeBufferLocked(mover *Participant) {
	if !r.inBuffer || r.lastBufferStartAt == nil {
		return
	}
	elapsed := time.Since(*r.lastBufferStartAt)
	mover.Buffer -= elapsed
	if mover.Buffer < 0 {
		mover.Buffer = 0
	}
	r.inBuffer = false
	r.lastBufferStartAt = nil
}

// checkStalemateLocked implements spec.md §4.7.7: a side with no legal
// move for any piece loses immediately; if both sides are stuck at once
// the game ties. Caller must hold the write lock.
func (r *Room) checkStalemateLocked() (bool, []Outbound) {
	one := r.participants[seatIndex(RoleOne)]
	two := r.opponentOfLocked(RoleOne)
	if one == nil || two == nil {
		return false, nil
	}
	oneStuck := !hasAnyMove(one, two)
	twoStuck := !hasAnyMove(two, one)
	if !oneStuck && !twoStuck {
		return false, nil
	}
	if oneStuck && twoStuck {
		return true, r.winLocked(RoleTie, WinOutOfMoves, true)
	}
	if oneStuck {
		return true, r.winLocked(RoleTwo, WinOutOfMoves, true)
	}
	return true, r.winLocked(RoleOne, WinOutOfMoves, true)
}

// winLocked ends the game: it cancels any running turn timer, marks the
// room ended, and builds the Win + EnemyPieceData broadcast spec.md
// §4.7.8 requires for every termination path. Caller must hold the
// write lock.
func (r *Room) winLocked(winner Role, reason WinType, immediate bool) []Outbound {
	cancelTimer(&r.gameTimer)
	r.ended = true

	var elapsed uint64
	if r.gameStartAt != nil {
		elapsed = uint64(time.Since(*r.gameStartAt).Milliseconds())
	}
	out := r.toAll(wire.SWin, wire.Win{
		Role: uint32(winner), WinType: uint32(reason), ElapsedMs: elapsed, Immediate: immediate,
	}.Encode())

	one := r.participants[seatIndex(RoleOne)]
	two := r.opponentOfLocked(RoleOne)
	if one != nil {
		out = append(out, toOne(one.ClientID, wire.SEnemyPieceData, enemyPieceBody(two))...)
	}
	if two != nil && two.ClientID != 0 {
		out = append(out, toOne(two.ClientID, wire.SEnemyPieceData, enemyPieceBody(one))...)
	}
	r.recordMatchLocked(winner, reason, elapsed, one, two)
	return out
}

// recordMatchLocked fires off a best-effort history write, mirroring
// table.go's "go t.ledger.UpsertLiveHistoryWithEvents(...)" pattern of
// not blocking the game loop on a database write.
func (r *Room) recordMatchLocked(winner Role, reason WinType, elapsedMs uint64, one, two *Participant) {
	if r.hist == nil || one == nil || two == nil {
		return
	}
	winnerName, loserName := one.Username, two.Username
	if winner == RoleTwo {
		winnerName, loserName = two.Username, one.Username
	}
	rec := history.Record{
		RoomCode:       r.code,
		WinnerUsername: winnerName,
		LoserUsername:  loserName,
		WinType:        reason.String(),
		ElapsedMs:      elapsedMs,
		FinishedAt:     time.Now(),
	}
	go r.hist.RecordMatch(rec)
}

func enemyPieceBody(opp *Participant) []byte {
	if opp == nil {
		return wire.EnemyPieceData{}.Encode()
	}
	data := make([]wire.StableIDKind, 0, len(opp.InitialBoard))
	for _, inst := range opp.InitialBoard {
		data = append(data, wire.StableIDKind{StableID: uint8(inst.StableID), Kind: uint8(inst.Kind)})
	}
	return wire.EnemyPieceData{Data: data}.Encode()
}
