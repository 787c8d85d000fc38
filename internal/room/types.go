// Package room implements the authoritative in-memory game session:
// room state (spec.md §3), the room registry with free-list id
// allocation and idle reaper (spec.md §4.3), and the session-engine
// handlers that mutate a room in response to validated client actions
// (spec.md §4.7). It is grounded on
// apps/server/internal/table/table.go (per-room mutex-guarded state with
// embedded timer bookkeeping) and apps/server/internal/lobby/lobby.go
// (the registry + idle-reaper pairing) from the teacher repository.
package room

import (
	"time"

	"pigwarserver/internal/piece"
)

// Role identifies which side of the board a participant plays.
type Role byte

const (
	RoleTie Role = iota
	RoleOne
	RoleTwo
)

// Other returns the opposing role. RoleTie maps to itself.
func (r Role) Other() Role {
	switch r {
	case RoleOne:
		return RoleTwo
	case RoleTwo:
		return RoleOne
	default:
		return RoleTie
	}
}

// Phase is the room's current lifecycle stage.
type Phase byte

const (
	PhaseLobby     Phase = 0
	PhasePlacement Phase = 1
	PhasePlay      Phase = 2
)

// Mode selects a piece-count preset, or Custom for a submitted one.
type Mode int32

const (
	ModeOriginal Mode = iota
	ModeInfiltrator
	ModeDuel
	ModeCustom
)

// WinType names the reason a game ended, carried on the wire Win
// message.
type WinType uint32

const (
	WinFlagCapture WinType = iota
	WinOutOfTime
	WinOutOfMoves
	WinSurrender
)

// String names the reason for history records and logging.
func (w WinType) String() string {
	switch w {
	case WinFlagCapture:
		return "flag_capture"
	case WinOutOfTime:
		return "out_of_time"
	case WinOutOfMoves:
		return "out_of_moves"
	case WinSurrender:
		return "surrender"
	default:
		return "unknown"
	}
}

// Settings groups used by UpdateSettingsValue (spec.md §6).
// SettingGameMode is the mode-cycling control: settings id 0 steps the
// room's Mode through Original -> Infiltrator -> Duel -> Custom and
// back, wrapping in both directions.
const (
	SettingGameMode      uint32 = 0
	SettingPlacementSecs uint32 = 1
	SettingTurnSecs      uint32 = 2
	SettingBufferSecs    uint32 = 3
)

// modeCount is the number of values Mode cycles through.
const modeCount = ModeCustom + 1

// CycleMode advances (or, if !increased, retreats) m by one step through
// the four game modes, wrapping around at either end.
func CycleMode(m Mode, increased bool) Mode {
	if increased {
		return (m + 1) % modeCount
	}
	return (m - 1 + modeCount) % modeCount
}

// SettingsVarsFor returns the turn/buffer second defaults a mode resets
// to whenever a host's mode cycle lands on it. Every mode but Duel uses
// the server-wide defaults; Duel shortens the buffer stage.
func SettingsVarsFor(m Mode) (turnSec, bufferSec uint32) {
	if m == ModeDuel {
		return Default(SettingTurnSecs), 180
	}
	return Default(SettingTurnSecs), Default(SettingBufferSecs)
}

// settingBounds describes one settings group's valid range and stepping
// behavior, grounded on holdem/config.go's "validate and clamp to a
// known-good default" shape.
type settingBounds struct {
	min, max, step, def uint32
	looping             bool
}

var settingsTable = map[uint32]settingBounds{
	SettingPlacementSecs: {min: 30, max: 600, step: 30, def: 300, looping: false},
	SettingTurnSecs:      {min: 0, max: 30, step: 1, def: 15, looping: true},
	SettingBufferSecs:    {min: 0, max: 900, step: 30, def: 300, looping: false},
}

// Sanitize returns v when it lies in [min,max] on the step grid for
// settings group id, and the group's default otherwise. An id this
// server doesn't recognize yields 0.
func Sanitize(id uint32, v uint32) uint32 {
	b, ok := settingsTable[id]
	if !ok {
		return 0
	}
	if v < b.min || v > b.max || (v-b.min)%b.step != 0 {
		return b.def
	}
	return v
}

// Default returns the configured default for settings group id.
func Default(id uint32) uint32 {
	return settingsTable[id].def
}

// Step advances (or, if !increased, retreats) the current value of
// settings group id by one step, honoring the group's looping behavior.
func Step(id uint32, current uint32, increased bool) uint32 {
	b, ok := settingsTable[id]
	if !ok {
		return current
	}
	if increased {
		next := current + b.step
		if next > b.max {
			if b.looping {
				return b.min
			}
			return b.max
		}
		return next
	}
	if current < b.step+b.min {
		if b.looping {
			return b.max
		}
		return b.min
	}
	return current - b.step
}

// MaxUsername is the largest accepted username length after trimming.
const MaxUsername = 24

// Settings is a room's negotiated ruleset.
type Settings struct {
	Mode         Mode
	PlacementSec uint32
	TurnSec      uint32
	BufferSec    uint32
	PieceConfig  piece.Config
}

// DefaultSettings is the Original preset with the default time budgets
// (spec.md §4.7.1: "If no config supplied: load default settings").
func DefaultSettings() Settings {
	return Settings{
		Mode:         ModeOriginal,
		PlacementSec: Default(SettingPlacementSecs),
		TurnSec:      Default(SettingTurnSecs),
		BufferSec:    Default(SettingBufferSecs),
		PieceConfig:  piece.OriginalPreset(),
	}
}

// PresetFor returns the fixed piece configuration for a preset mode, or
// nil for ModeCustom (the caller's submitted config applies instead).
func PresetFor(m Mode) piece.Config {
	switch m {
	case ModeOriginal:
		return piece.OriginalPreset()
	case ModeInfiltrator:
		return piece.InfiltratorPreset()
	case ModeDuel:
		return piece.DuelPreset()
	default:
		return nil
	}
}

// PieceInstance is one living piece on a participant's board.
type PieceInstance struct {
	Kind     piece.Kind
	Tile     int
	StableID int // the tile the piece was placed on; never changes.
}

// Board is a participant's live pieces, keyed by current tile. At most
// one piece occupies a tile.
type Board map[int]*PieceInstance

// Clone returns an independent deep copy of b.
func (b Board) Clone() Board {
	out := make(Board, len(b))
	for tile, p := range b {
		cp := *p
		out[tile] = &cp
	}
	return out
}

// Participant is one seated client's lobby and in-game data.
type Participant struct {
	ClientID   uint32
	Role       Role
	Username   string
	Icon       int32
	LobbyReady bool
	SceneIndex uint32

	InGame       bool
	GameReady    bool
	Board        Board
	InitialBoard []PieceInstance
	PlayAgain    bool
	Buffer       time.Duration
}
