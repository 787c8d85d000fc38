// Package dispatch is the per-connection message router: it decodes a
// raw frame body by message id, applies the guard spec.md §4.6
// prescribes for that id, calls into internal/session or internal/room,
// and hands the resulting outbound batch to the connection manager.
// Grounded on apps/server/internal/gateway/gateway.go's handleMessage
// type-switch, rewritten as a switch over the message id since spec.md
// ids are a flat byte space rather than a oneof.
package dispatch

import (
	"log"
	"strconv"

	"pigwarserver/internal/apperr"
	"pigwarserver/internal/room"
	"pigwarserver/internal/session"
	"pigwarserver/internal/wire"
)

// Sender delivers one packet to one client; satisfied by
// (*conn.Manager).Send.
type Sender func(clientID uint32, msgID uint8, body []byte)

// Dispatcher routes decoded frames to the session engine.
type Dispatcher struct {
	engine *session.Engine
	send   Sender
}

// New constructs a Dispatcher over an existing session engine.
func New(engine *session.Engine, send Sender) *Dispatcher {
	return &Dispatcher{engine: engine, send: send}
}

// Route decodes and handles one frame. Guard or decode failures are
// dropped silently, per spec.md §4.6 — the sole exception is a
// malformed frame body, which is also just dropped since the connection
// layer already enforces the length-prefixed framing invariant.
func (d *Dispatcher) Route(clientID uint32, msgID uint8, body []byte) {
	// ids 1-8 open with the sender's echoed client id; a mismatch drops
	// the packet (apperr.ErrWrongID)
	if msgID >= wire.CGameRequest && msgID <= wire.CMove {
		idStr, err := wire.NewReader(body).String()
		if err != nil {
			return
		}
		if id, err := strconv.ParseUint(idStr, 10, 32); err != nil || uint32(id) != clientID {
			return
		}
	}
	r := wire.NewReader(body)

	switch msgID {
	case wire.CGameRequest:
		req, err := wire.DecodeGameRequest(r)
		if err != nil {
			return
		}
		out, err := d.engine.HandleGameRequest(clientID, req)
		if err != nil {
			d.reportGameRequestFailure(clientID, req, err)
			return
		}
		d.deliverBatch(out)

	case wire.CUpdateReadyState:
		d.handleInRoom(clientID, func(rm *room.Room) ([]Outbound, error) {
			msg, err := wire.DecodeUpdateReadyState(r)
			if err != nil {
				return nil, err
			}
			return rm.SetReady(clientID, msg.Ready)
		})

	case wire.CUpdatePigIcon:
		d.handleInRoom(clientID, func(rm *room.Room) ([]Outbound, error) {
			msg, err := wire.DecodeUpdatePigIcon(r)
			if err != nil {
				return nil, err
			}
			return rm.SetIcon(clientID, msg.Icon)
		})

	case wire.CUpdateSettingsValue:
		d.handleInRoom(clientID, func(rm *room.Room) ([]Outbound, error) {
			msg, err := wire.DecodeUpdateSettingsValue(r)
			if err != nil {
				return nil, err
			}
			return rm.UpdateSettingsValue(clientID, msg.SettingID, msg.Increased)
		})

	case wire.CUpdatePigItemValue:
		d.handleInRoom(clientID, func(rm *room.Room) ([]Outbound, error) {
			msg, err := wire.DecodeUpdatePigItemValue(r)
			if err != nil {
				return nil, err
			}
			return rm.UpdatePigItemValue(clientID, msg.Pig, msg.Increased)
		})

	case wire.CFinishedSceneLoad:
		d.handleInRoom(clientID, func(rm *room.Room) ([]Outbound, error) {
			msg, err := wire.DecodeFinishedSceneLoad(r)
			if err != nil {
				return nil, err
			}
			return rm.SceneLoad(clientID, msg.SceneIndex), nil
		})

	case wire.CGamePlayerReadyData:
		d.handleInRoom(clientID, func(rm *room.Room) ([]Outbound, error) {
			msg, err := wire.DecodeGamePlayerReadyData(r)
			if err != nil {
				return nil, err
			}
			return rm.SetGameReady(clientID, msg.Ready, msg.Board)
		})

	case wire.CMove:
		d.handleInGameStrict(clientID, func(rm *room.Room) ([]Outbound, error) {
			msg, err := wire.DecodeMove(r)
			if err != nil {
				return nil, err
			}
			return rm.HandleMove(clientID, msg.From, msg.To)
		})

	case wire.CSurrender:
		d.handleInGame(clientID, func(rm *room.Room) ([]Outbound, error) {
			return rm.Surrender(clientID)
		})

	case wire.CPlayAgain:
		d.handleInRoom(clientID, func(rm *room.Room) ([]Outbound, error) {
			return rm.PlayAgain(clientID)
		})

	case wire.CLeaveGame:
		d.deliverBatch(d.engine.Unbind(clientID))

	default:
		log.Printf("[dispatch] client=%d unknown message id=%d", clientID, msgID)
	}
}

// Outbound is an alias so handler closures above don't need to import
// internal/room just to spell the type.
type Outbound = room.Outbound

func (d *Dispatcher) handleInRoom(clientID uint32, fn func(rm *room.Room) ([]Outbound, error)) {
	rm := d.engine.RoomOf(clientID)
	if rm == nil {
		return
	}
	out, err := fn(rm)
	if err != nil {
		return
	}
	d.deliverBatch(out)
}

func (d *Dispatcher) handleInGame(clientID uint32, fn func(rm *room.Room) ([]Outbound, error)) {
	rm := d.engine.RoomOf(clientID)
	if rm == nil || !rm.InGame(clientID) {
		return
	}
	out, err := fn(rm)
	if err != nil {
		return
	}
	d.deliverBatch(out)
}

func (d *Dispatcher) handleInGameStrict(clientID uint32, fn func(rm *room.Room) ([]Outbound, error)) {
	rm := d.engine.RoomOf(clientID)
	if rm == nil || !rm.InActiveGame(clientID) {
		return
	}
	out, err := fn(rm)
	if err != nil {
		return
	}
	d.deliverBatch(out)
}

// reportGameRequestFailure surfaces a host failure as FailCreateGame and
// a join failure as ErrJoinGame, per spec.md §6's two dedicated error
// packets; anything not a UserFacingError is dropped silently.
func (d *Dispatcher) reportGameRequestFailure(clientID uint32, req wire.GameRequest, err error) {
	if _, ok := err.(*apperr.UserFacingError); !ok {
		return
	}
	if req.IsHosting {
		d.send(clientID, wire.SFailCreateGame, wire.FailCreateGame{}.Encode())
		return
	}
	d.send(clientID, wire.SErrJoinGame, wire.ErrJoinGame{Msg: err.Error()}.Encode())
}

func (d *Dispatcher) deliverBatch(out []Outbound) {
	for _, o := range out {
		d.send(o.ClientID, o.PacketID, o.Body)
	}
}

// Disconnect is invoked by the connection manager when a socket drops.
func (d *Dispatcher) Disconnect(clientID uint32) {
	d.deliverBatch(d.engine.Unbind(clientID))
}
