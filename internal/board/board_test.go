package board

import "sort"

import "testing"

func sortedCopy(in []int) []int {
	out := append([]int(nil), in...)
	sort.Ints(out)
	return out
}

func intsEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// TestAdjacentEdgeTile covers S1. The column-10 edge tile 10 is
// adjacent to 9 (same row, legal) and 20 (same column, legal) but never
// to 11, which would require wrapping from column 10 to column 1 of the
// row above.
func TestAdjacentEdgeTile(t *testing.T) {
	got := sortedCopy(Adjacent(10))
	want := []int{9, 20}
	if !intsEqual(got, want) {
		t.Fatalf("Adjacent(10) = %v, want %v", got, want)
	}
	for _, n := range got {
		if n == 11 {
			t.Fatalf("Adjacent(10) must not contain 11 (column wrap)")
		}
	}
}

// TestAdjacentNoWrapOrWaterOrOOB is property 1 from spec.md §8.
func TestAdjacentNoWrapOrWaterOrOOB(t *testing.T) {
	for tl := 1; tl <= MaxTile; tl++ {
		for _, n := range Adjacent(tl) {
			if !InBounds(n) {
				t.Fatalf("Adjacent(%d) contains out-of-bounds tile %d", tl, n)
			}
			if IsWater(n) {
				t.Fatalf("Adjacent(%d) contains water tile %d", tl, n)
			}
			col, ncol := Col(tl), Col(n)
			if (col == 1 && ncol == Size) || (col == Size && ncol == 1) {
				t.Fatalf("Adjacent(%d) wraps across column boundary to %d", tl, n)
			}
		}
	}
}

func TestFlipTileInvolution(t *testing.T) {
	for tl := 1; tl <= MaxTile; tl++ {
		if got := FlipTile(FlipTile(tl)); got != tl {
			t.Fatalf("FlipTile(FlipTile(%d)) = %d, want %d", tl, got, tl)
		}
	}
}

// TestScoutReachTile40 covers S2.
func TestScoutReachTile40(t *testing.T) {
	got := sortedCopy(ScoutReach(40))
	want := sortedCopy([]int{10, 20, 30, 31, 32, 33, 34, 35, 36, 37, 38, 39, 50, 60, 70, 80, 90, 100})
	if !intsEqual(got, want) {
		t.Fatalf("ScoutReach(40) = %v, want %v", got, want)
	}
}

// TestScoutReachTile46 covers S3: water at 47/48 blocks rightward, water
// at 43/44 blocks leftward after reaching 45.
func TestScoutReachTile46(t *testing.T) {
	got := sortedCopy(ScoutReach(46))
	want := sortedCopy([]int{6, 16, 26, 36, 45, 56, 66, 76, 86, 96})
	if !intsEqual(got, want) {
		t.Fatalf("ScoutReach(46) = %v, want %v", got, want)
	}
}

func TestScoutReachNeverIncludesSelfOrWater(t *testing.T) {
	for tl := 1; tl <= MaxTile; tl++ {
		if IsWater(tl) {
			continue
		}
		for _, n := range ScoutReach(tl) {
			if n == tl {
				t.Fatalf("ScoutReach(%d) contains itself", tl)
			}
			if IsWater(n) {
				t.Fatalf("ScoutReach(%d) contains water tile %d", tl, n)
			}
		}
	}
}

type fakeOccupied map[int]bool

func (f fakeOccupied) Occupied(tile int) bool { return f[tile] }

func TestBlockedByPieceStraightLine(t *testing.T) {
	occ := fakeOccupied{35: true}
	if !BlockedByPiece(occ, 31, 39) {
		t.Fatalf("expected blocked, piece sits at 35 between 31 and 39")
	}
	if BlockedByPiece(occ, 31, 34) {
		t.Fatalf("expected clear path before the blocking piece")
	}
}

func TestBlockedByPieceNonLineHasNoBetween(t *testing.T) {
	occ := fakeOccupied{}
	// 1 and 22 are neither same row nor same column.
	if BlockedByPiece(occ, 1, 22) {
		t.Fatalf("diagonal-ish pairs have no between tiles by definition")
	}
}
