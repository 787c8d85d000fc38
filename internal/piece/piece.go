// Package piece defines the closed set of pig-piece kinds and the pure
// rules governing how they move and fight. Nothing here touches a board
// or a room; every function is total and side-effect free.
package piece

// Kind is one of the thirteen strategic ranks, plus Empty which is never
// a valid piece on a board and exists only as a decode-time sentinel.
type Kind byte

const (
	Empty Kind = iota
	Flag
	Bomb
	Spy
	Infiltrator
	Scout
	Miner
	Sergeant
	Lieutenant
	Chemist
	Major
	Colonel
	General
	Kingo
)

var kindNames = map[Kind]string{
	Empty:       "Empty",
	Flag:        "Flag",
	Bomb:        "Bomb",
	Spy:         "Spy",
	Infiltrator: "Infiltrator",
	Scout:       "Scout",
	Miner:       "Miner",
	Sergeant:    "Sergeant",
	Lieutenant:  "Lieutenant",
	Chemist:     "Chemist",
	Major:       "Major",
	Colonel:     "Colonel",
	General:     "General",
	Kingo:       "Kingo",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "Unknown"
}

// Valid reports whether k is one of the thirteen real piece kinds (not
// Empty, not an out-of-range byte).
func (k Kind) Valid() bool {
	return k >= Flag && k <= Kingo
}

// rankOf is the combat rank used when neither side holds an override card.
// Flag and Bomb carry rank 0 but never reach the rank-compare step
// because Attack handles them first.
var rankOf = map[Kind]int{
	Flag:        0,
	Bomb:        0,
	Spy:         1,
	Infiltrator: 1,
	Scout:       2,
	Miner:       3,
	Sergeant:    4,
	Lieutenant:  5,
	Chemist:     6,
	Major:       7,
	Colonel:     8,
	General:     9,
	Kingo:       10,
}

// Rank returns the piece's combat rank.
func Rank(k Kind) int {
	return rankOf[k]
}

// Movable reports whether a piece of kind k may ever initiate a move.
// Flag and Bomb are permanently immobile; everything else can move.
func Movable(k Kind) bool {
	return k != Flag && k != Bomb
}

// Outcome is the result of one piece attacking another.
type Outcome byte

const (
	Win Outcome = iota
	Lose
	Tie
)

// Attack resolves combat initiated by attacker against defender, per
// spec.md §4.2:
//
//  1. Flag always falls to any attacker.
//  2. Bomb destroys any attacker except Miner, who clears it.
//  3. Spy and Infiltrator beat Kingo on attack regardless of rank.
//  4. Otherwise higher rank wins, equal rank ties.
func Attack(attacker, defender Kind) Outcome {
	switch defender {
	case Flag:
		return Win
	case Bomb:
		if attacker == Miner {
			return Win
		}
		return Lose
	}
	if (attacker == Spy || attacker == Infiltrator) && defender == Kingo {
		return Win
	}
	a, d := Rank(attacker), Rank(defender)
	switch {
	case a > d:
		return Win
	case a < d:
		return Lose
	default:
		return Tie
	}
}

// Config maps each real piece kind to the count a player must place of
// it. Empty never appears as a key. Total across all kinds must be
// 1..40 when validated by the session engine.
type Config map[Kind]int

// Total sums every count in the configuration.
func (c Config) Total() int {
	n := 0
	for _, count := range c {
		n += count
	}
	return n
}

// Equal reports whether two configurations hold identical counts for
// every real kind (a missing key and a zero-valued key are equivalent).
func (c Config) Equal(other Config) bool {
	for k := Flag; k <= Kingo; k++ {
		if c[k] != other[k] {
			return false
		}
	}
	return true
}

// Clone returns an independent copy of c.
func (c Config) Clone() Config {
	out := make(Config, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// OriginalPreset is the classic piece-count distribution (spec.md §6).
func OriginalPreset() Config {
	return Config{
		Bomb:        6,
		Spy:         1,
		Infiltrator: 0,
		Flag:        1,
		Scout:       8,
		Miner:       5,
		Sergeant:    4,
		Lieutenant:  4,
		Chemist:     4,
		Major:       3,
		Colonel:     2,
		General:     1,
		Kingo:       1,
	}
}

// InfiltratorPreset is OriginalPreset with one Scout swapped for the
// Infiltrator piece.
func InfiltratorPreset() Config {
	c := OriginalPreset()
	c[Scout] = 7
	c[Infiltrator] = 1
	return c
}

// DuelPreset is a small, fast-playing distribution.
func DuelPreset() Config {
	return Config{
		Bomb:    2,
		Spy:     1,
		Flag:    1,
		Scout:   2,
		Miner:   2,
		General: 1,
		Kingo:   1,
	}
}
