package room

import (
	"testing"

	"pigwarserver/internal/board"
	"pigwarserver/internal/piece"
	"pigwarserver/internal/wire"
)

// fullPlacement lays out cfg's pieces one-per-tile starting at tile 1,
// skipping water (there is none in 1..40), matching
// seedFakeOpponentLocked's own layout strategy.
func fullPlacement(cfg piece.Config) []wire.KindCount {
	var out []wire.KindCount
	tile := 1
	for k, count := range cfg {
		for i := 0; i < count; i++ {
			for board.IsWater(tile) {
				tile++
			}
			out = append(out, wire.KindCount{Kind: uint32(k), Count: uint32(tile)})
			tile++
		}
	}
	return out
}

func TestValidatePlacementAccepts(t *testing.T) {
	cfg := piece.OriginalPreset()
	b, err := validatePlacement(fullPlacement(cfg), cfg)
	if err != nil {
		t.Fatalf("validatePlacement: %v", err)
	}
	if len(b) != cfg.Total() {
		t.Fatalf("expected %d placed pieces, got %d", cfg.Total(), len(b))
	}
}

func TestValidatePlacementRejectsOutsideTerritory(t *testing.T) {
	cfg := piece.Config{piece.Flag: 1}
	placements := []wire.KindCount{{Kind: uint32(piece.Flag), Count: 41}}
	if _, err := validatePlacement(placements, cfg); err == nil {
		t.Fatalf("expected an error for a tile outside starting territory")
	}
}

func TestValidatePlacementRejectsDuplicateTile(t *testing.T) {
	cfg := piece.Config{piece.Flag: 1, piece.Bomb: 1}
	placements := []wire.KindCount{
		{Kind: uint32(piece.Flag), Count: 1},
		{Kind: uint32(piece.Bomb), Count: 1},
	}
	if _, err := validatePlacement(placements, cfg); err == nil {
		t.Fatalf("expected an error for a reused tile")
	}
}

func TestValidatePlacementRejectsMiscount(t *testing.T) {
	cfg := piece.Config{piece.Flag: 2}
	placements := []wire.KindCount{{Kind: uint32(piece.Flag), Count: 1}}
	if _, err := validatePlacement(placements, cfg); err == nil {
		t.Fatalf("expected an error when placed counts don't match the configuration")
	}
}

func TestValidatePlacementRejectsInvalidKind(t *testing.T) {
	cfg := piece.Config{piece.Flag: 1}
	placements := []wire.KindCount{{Kind: uint32(piece.Empty), Count: 1}}
	if _, err := validatePlacement(placements, cfg); err == nil {
		t.Fatalf("expected an error for the Empty sentinel kind")
	}
}

func TestSetGameReadyStartsPlayOnceBothSubmit(t *testing.T) {
	r := newTestRoomFlags(t, false, false, false)
	r.Host(1, "alice", 0, nil)
	r.Join(2, "bob", 0)
	r.phase = PhasePlacement

	cfg := r.settings.PieceConfig
	placements := fullPlacement(cfg)

	if _, err := r.SetGameReady(1, true, placements); err != nil {
		t.Fatalf("SetGameReady(1): %v", err)
	}
	if r.phase != PhasePlacement {
		t.Fatalf("phase should not advance until both players submit")
	}
	if _, err := r.SetGameReady(2, true, placements); err != nil {
		t.Fatalf("SetGameReady(2): %v", err)
	}
	if r.phase != PhasePlay {
		t.Fatalf("expected phase Play once both players are game-ready, got %v", r.phase)
	}
}

func TestSetGameReadyWithdrawClearsBoard(t *testing.T) {
	r := newTestRoomFlags(t, false, false, false)
	r.Host(1, "alice", 0, nil)
	r.phase = PhasePlacement
	cfg := r.settings.PieceConfig
	r.SetGameReady(1, true, fullPlacement(cfg))

	if _, err := r.SetGameReady(1, false, nil); err != nil {
		t.Fatalf("SetGameReady withdraw: %v", err)
	}
	p := r.participantByClientLocked(1)
	if p.GameReady || p.Board != nil {
		t.Fatalf("expected withdraw to clear readiness and the board")
	}
}

func TestSetGameReadyRejectsOutsidePlacementPhase(t *testing.T) {
	r := newTestRoomFlags(t, false, false, false)
	r.Host(1, "alice", 0, nil)
	if _, err := r.SetGameReady(1, true, nil); err == nil {
		t.Fatalf("expected an error submitting a board during the lobby phase")
	}
}

func TestSetGameReadySinglePlayerNeedsOnlyHost(t *testing.T) {
	r := newTestRoomFlags(t, true, false, false)
	r.Host(1, "alice", 0, nil)
	r.phase = PhasePlacement
	cfg := r.settings.PieceConfig

	if _, err := r.SetGameReady(1, true, fullPlacement(cfg)); err != nil {
		t.Fatalf("SetGameReady: %v", err)
	}
	if r.phase != PhasePlay {
		t.Fatalf("expected solo play to begin once the lone host is game-ready, got %v", r.phase)
	}
	if r.fakeOpponent == nil || !r.fakeOpponent.GameReady {
		t.Fatalf("expected a seeded fake opponent in single-player mode")
	}
}
