// Package session bridges decoded wire messages to the room registry:
// host/join matchmaking (spec.md §4.7.1) and the per-client "which room
// is this connection in" bookkeeping the dispatcher's guards need.
// Every other session.* operation (ready, placement, move, ...) is a
// method directly on *room.Room (see internal/room); this package stays
// the thin seating layer in front of it, grounded on
// apps/server/internal/lobby/lobby.go's QuickStart/JoinTable orchestration.
package session

import (
	"sync"

	"pigwarserver/internal/apperr"
	"pigwarserver/internal/piece"
	"pigwarserver/internal/room"
	"pigwarserver/internal/wire"
)

// DevFlags mirrors the server's -p/-s/-t boolean flags, applied to
// every room the engine hosts.
type DevFlags struct {
	SinglePlayer   bool
	IgnoreTurns    bool
	ImmediateStart bool
}

// Engine tracks which room each connected client currently occupies,
// on top of the shared room registry.
type Engine struct {
	reg   *room.Registry
	flags DevFlags

	mu         sync.RWMutex
	clientRoom map[uint32]*room.Room
}

// NewEngine constructs a session engine over an existing registry.
func NewEngine(reg *room.Registry, flags DevFlags) *Engine {
	return &Engine{reg: reg, flags: flags, clientRoom: make(map[uint32]*room.Room)}
}

// RoomOf returns the room clientID currently occupies, or nil.
func (e *Engine) RoomOf(clientID uint32) *room.Room {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.clientRoom[clientID]
}

func (e *Engine) bind(clientID uint32, r *room.Room) {
	e.mu.Lock()
	e.clientRoom[clientID] = r
	e.mu.Unlock()
}

// Unbind drops clientID's room association (spec.md §4.7.9 disconnect
// path) and, if the room is now empty, removes it from the registry. It
// returns the notifications owed to any remaining participant plus the
// ClientDisconnect addressed to the departing client.
func (e *Engine) Unbind(clientID uint32) []room.Outbound {
	e.mu.Lock()
	r := e.clientRoom[clientID]
	delete(e.clientRoom, clientID)
	e.mu.Unlock()
	if r == nil {
		return nil
	}
	out, empty := r.Disconnect(clientID)
	if empty {
		e.reg.Remove(r.ID())
	}
	return out
}

// HandleGameRequest implements spec.md §4.7.1: host a fresh room or join
// an existing one by code, depending on req.IsHosting.
func (e *Engine) HandleGameRequest(clientID uint32, req wire.GameRequest) ([]room.Outbound, error) {
	if req.IsHosting {
		return e.host(clientID, req)
	}
	return e.join(clientID, req)
}

func (e *Engine) host(clientID uint32, req wire.GameRequest) ([]room.Outbound, error) {
	settings := settingsFromRequest(req)
	if settings != nil && room.PresetFor(settings.Mode) == nil {
		for k := range settings.PieceConfig {
			if !k.Valid() {
				return nil, apperr.UserFacing("invalid piece configuration")
			}
		}
		if n := settings.PieceConfig.Total(); n < 1 || n > 40 {
			return nil, apperr.UserFacing("invalid piece configuration")
		}
	}
	r, err := e.reg.CreateRoom(e.flags.SinglePlayer, e.flags.IgnoreTurns, e.flags.ImmediateStart)
	if err != nil {
		return nil, apperr.UserFacing(err.Error())
	}
	res, err := r.Host(clientID, req.Username, req.Icon, settings)
	if err != nil {
		e.reg.Remove(r.ID())
		return nil, err
	}
	e.bind(clientID, r)
	return res.Out, nil
}

func (e *Engine) join(clientID uint32, req wire.GameRequest) ([]room.Outbound, error) {
	r := e.reg.LookupByCode(req.Code)
	if r == nil {
		return nil, apperr.UserFacing("no room with that code")
	}
	res, err := r.Join(clientID, req.Username, req.Icon)
	if err != nil {
		return nil, err
	}
	e.bind(clientID, r)
	return res.Out, nil
}

// settingsFromRequest returns nil (meaning "use server defaults") unless
// the client opted into IncludeFull, matching spec.md §4.7.1's "If no
// config supplied: load default settings".
func settingsFromRequest(req wire.GameRequest) *room.Settings {
	if !req.IncludeFull {
		return nil
	}
	mode := room.Mode(req.Mode)
	cfg := room.PresetFor(mode)
	if cfg == nil {
		cfg = make(piece.Config, len(req.Config))
		for _, kc := range req.Config {
			cfg[piece.Kind(kc.Kind)] = int(kc.Count)
		}
	}
	return &room.Settings{
		Mode:         mode,
		PlacementSec: room.Sanitize(room.SettingPlacementSecs, req.PlacementSec),
		TurnSec:      room.Sanitize(room.SettingTurnSecs, req.TurnSec),
		BufferSec:    room.Sanitize(room.SettingBufferSecs, req.BufferSec),
		PieceConfig:  cfg,
	}
}
