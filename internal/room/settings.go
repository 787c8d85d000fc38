package room

import (
	"pigwarserver/internal/apperr"
	"pigwarserver/internal/piece"
	"pigwarserver/internal/wire"
)

// SetIcon implements spec.md §4.7.1's pig-icon change: cosmetic, allowed
// any time a client is seated.
func (r *Room) SetIcon(clientID uint32, icon int32) ([]Outbound, error) {
	if icon < 0 || icon > 12 {
		return nil, apperr.Domain("icon out of range")
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	p := r.participantByClientLocked(clientID)
	if p == nil {
		return nil, apperr.ErrMissingContext
	}
	p.Icon = icon
	r.touch()
	return r.toAll(wire.SUpdatedPigIcon, wire.UpdatedPigIcon{ID: clientID, Icon: icon}.Encode()), nil
}

// UpdateSettingsValue implements spec.md §4.7.1's lobby settings step
// control: settings id 0 cycles the room's game mode, ids 1-3 step the
// placement/turn/buffer seconds. Only the host may change settings, and
// only before placement starts.
func (r *Room) UpdateSettingsValue(clientID uint32, settingID uint32, increased bool) ([]Outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseLobby {
		return nil, apperr.Domain("settings are locked once the lobby ends")
	}
	p := r.participantByClientLocked(clientID)
	if p == nil || p.Role != RoleOne {
		return nil, apperr.ErrMissingContext
	}

	if settingID == SettingGameMode {
		return r.cycleGameModeLocked(increased), nil
	}

	var current *uint32
	switch settingID {
	case SettingPlacementSecs:
		current = &r.settings.PlacementSec
	case SettingTurnSecs:
		current = &r.settings.TurnSec
	case SettingBufferSecs:
		current = &r.settings.BufferSec
	default:
		return nil, apperr.Domain("unknown settings group")
	}
	*current = Step(settingID, *current, increased)
	r.touch()
	return r.toAll(wire.SSettingsValueChanged, wire.SettingsValueChanged{ID: settingID, Value: *current}.Encode()), nil
}

// cycleGameModeLocked steps the room's mode and, when the target mode
// is a preset rather than Custom, resets the turn/buffer seconds and
// piece config to that preset's defaults. Caller must hold the write
// lock.
func (r *Room) cycleGameModeLocked(increased bool) []Outbound {
	next := CycleMode(r.settings.Mode, increased)
	r.settings.Mode = next
	out := r.toAll(wire.SSettingsValueChanged, wire.SettingsValueChanged{ID: SettingGameMode, Value: uint32(next)}.Encode())

	if next != ModeCustom {
		r.settings.PieceConfig = PresetFor(next)
		r.settings.TurnSec, r.settings.BufferSec = SettingsVarsFor(next)
		out = append(out, r.toAll(wire.SPigConfigValueChanged, wire.PigConfigValueChanged{
			Turn: r.settings.TurnSec, Buffer: r.settings.BufferSec, Config: configList(r.settings.PieceConfig),
		}.Encode())...)
	}
	r.touch()
	return out
}

// UpdatePigItemValue implements spec.md §4.7.1's per-piece count editor.
// Editing a count is allowed from any current mode: it forks whatever
// preset is active into a Custom configuration as a side effect, the
// same way dragging a slider in the lobby UI implicitly means "I want
// my own config". The total piece count is capped at 40; an edit that
// would push a single kind below zero or the total past the cap is a
// silent no-op rather than an error.
func (r *Room) UpdatePigItemValue(clientID uint32, pigKind uint32, increased bool) ([]Outbound, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseLobby {
		return nil, apperr.Domain("piece counts are locked once the lobby ends")
	}
	p := r.participantByClientLocked(clientID)
	if p == nil || p.Role != RoleOne {
		return nil, apperr.ErrMissingContext
	}
	k := piece.Kind(pigKind)
	if !k.Valid() {
		return nil, apperr.Domain("invalid piece kind")
	}

	total := r.settings.PieceConfig.Total()
	count := r.settings.PieceConfig[k]
	if increased {
		if total+1 > 40 {
			return nil, nil
		}
		count++
	} else {
		if count == 0 || total == 0 {
			return nil, nil
		}
		count--
	}
	r.settings.PieceConfig[k] = count
	r.settings.Mode = ModeCustom
	r.touch()

	out := r.toAll(wire.SSettingsValueChanged, wire.SettingsValueChanged{ID: SettingGameMode, Value: uint32(ModeCustom)}.Encode())
	out = append(out, r.toAll(wire.SPigItemValueChanged, wire.PigItemValueChanged{Pig: pigKind, Amount: uint32(count)}.Encode())...)
	return out, nil
}

func configList(cfg piece.Config) []wire.KindCount {
	out := make([]wire.KindCount, 0, len(cfg))
	for k, c := range cfg {
		out = append(out, wire.KindCount{Kind: uint32(k), Count: uint32(c)})
	}
	return out
}
