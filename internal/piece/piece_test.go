package piece

import "testing"

func TestAttackBombVsMiner(t *testing.T) {
	if got := Attack(Miner, Bomb); got != Win {
		t.Fatalf("Miner vs Bomb = %v, want Win", got)
	}
	if got := Attack(General, Bomb); got != Lose {
		t.Fatalf("General vs Bomb = %v, want Lose", got)
	}
}

func TestAttackSpyVsKingo(t *testing.T) {
	if got := Attack(Spy, Kingo); got != Win {
		t.Fatalf("Spy attacks Kingo = %v, want Win", got)
	}
	if got := Attack(Kingo, Spy); got != Win {
		t.Fatalf("Kingo attacks Spy = %v, want Win (rank rule)", got)
	}
}

func TestAttackFlagAlwaysFalls(t *testing.T) {
	for k := Spy; k <= Kingo; k++ {
		if got := Attack(k, Flag); got != Win {
			t.Fatalf("%v attacks Flag = %v, want Win", k, got)
		}
	}
}

func TestAttackRankSymmetryModuloOverrides(t *testing.T) {
	// For ordinary ranked pieces (no Flag/Bomb/Spy-vs-Kingo override),
	// a attacking b is the mirror of b attacking a.
	for a := Sergeant; a <= Kingo; a++ {
		for b := Sergeant; b <= Kingo; b++ {
			ab := Attack(a, b)
			ba := Attack(b, a)
			switch {
			case a == b:
				if ab != Tie || ba != Tie {
					t.Fatalf("%v vs %v expected Tie both ways, got %v/%v", a, b, ab, ba)
				}
			case ab == Win && ba != Lose:
				t.Fatalf("%v beats %v but reverse isn't Lose: %v", a, b, ba)
			case ab == Lose && ba != Win:
				t.Fatalf("%v loses to %v but reverse isn't Win: %v", a, b, ba)
			}
		}
	}
}

func TestMovable(t *testing.T) {
	if Movable(Flag) || Movable(Bomb) {
		t.Fatalf("Flag and Bomb must be immovable")
	}
	if !Movable(Scout) || !Movable(Spy) {
		t.Fatalf("Scout and Spy must be movable")
	}
}

func TestConfigTotalAndEqual(t *testing.T) {
	orig := OriginalPreset()
	if orig.Total() != 40 {
		t.Fatalf("OriginalPreset total = %d, want 40", orig.Total())
	}
	clone := orig.Clone()
	if !orig.Equal(clone) {
		t.Fatalf("clone must equal original")
	}
	clone[Scout]--
	if orig.Equal(clone) {
		t.Fatalf("mutated clone must not equal original")
	}
}

func TestDuelPresetTotal(t *testing.T) {
	if got := DuelPreset().Total(); got != 10 {
		t.Fatalf("DuelPreset total = %d, want 10", got)
	}
}
