package room

import (
	"strconv"
	"strings"

	"pigwarserver/internal/apperr"
	"pigwarserver/internal/wire"
)

// kickAllIdle is invoked by the registry's reaper once a room has been
// removed from the registry. It notifies every seated client and tears
// down any running timers; the room itself is already unreachable by
// id or code by the time this runs.
func (r *Room) kickAllIdle(send Sender) {
	r.mu.Lock()
	cancelTimer(&r.lobbyTimer)
	cancelTimer(&r.gameTimer)
	out := r.toAll(wire.SKicked, wire.Kicked{Msg: "room closed due to inactivity"}.Encode())
	r.mu.Unlock()
	if send != nil {
		send(out)
	}
}

// HostResult is returned by Host for the caller to translate into
// outbound packets and per-connection room association.
type HostResult struct {
	Role Role
	Out  []Outbound
}

// Host seats clientID as the host of a freshly created room (spec.md
// §4.7.1 "Hosting"). settings is nil to request server defaults.
func (r *Room) Host(clientID uint32, username string, icon int32, settings *Settings) (HostResult, error) {
	username, err := sanitizeUsername(username)
	if err != nil {
		return HostResult{}, err
	}
	if icon < 0 || icon > 12 {
		return HostResult{}, apperr.Domain("icon out of range")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if settings != nil {
		r.settings = *settings
	}
	p := &Participant{ClientID: clientID, Role: RoleOne, Username: username, Icon: icon}
	r.participants[seatIndex(RoleOne)] = p
	r.touch()

	out := r.joinBroadcastLocked(p)
	if r.immediateStart {
		p.LobbyReady = true
		out = append(out, r.toAll(wire.SRoomPlayerUpdatedReadyState, wire.RoomPlayerUpdatedReadyState{ID: clientID, Ready: true}.Encode())...)
		countdown := lobbyCountdown
		if r.singlePlayer {
			countdown = soloLobbyCountdown
		}
		r.armTimer(&r.lobbyTimer, countdown, (*Room).startPlacement)
	}
	return HostResult{Role: RoleOne, Out: out}, nil
}

// Join seats clientID into an existing room (spec.md §4.7.1 "Joining").
// Role assignment: Two if the host seat is occupied, One if it is
// empty (a late re-host) — see DESIGN.md's Open Question decision.
func (r *Room) Join(clientID uint32, username string, icon int32) (HostResult, error) {
	username, err := sanitizeUsername(username)
	if err != nil {
		return HostResult{}, err
	}
	if icon < 0 || icon > 12 {
		return HostResult{}, apperr.Domain("icon out of range")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.phase != PhaseLobby {
		return HostResult{}, apperr.UserFacing("game already started")
	}
	if r.participants[0] != nil && r.participants[1] != nil {
		return HostResult{}, apperr.UserFacing("room is full")
	}

	role := RoleTwo
	if r.participants[seatIndex(RoleOne)] == nil {
		role = RoleOne
	}
	username = r.uniqueUsernameLocked(username)
	p := &Participant{ClientID: clientID, Role: role, Username: username, Icon: icon}
	r.participants[seatIndex(role)] = p
	r.touch()

	out := r.joinBroadcastLocked(p)
	return HostResult{Role: role, Out: out}, nil
}

// uniqueUsernameLocked appends " N" for increasing N until name doesn't
// collide with an already-seated participant (spec.md §4.7.1).
func (r *Room) uniqueUsernameLocked(name string) string {
	taken := map[string]bool{}
	for _, p := range r.participants {
		if p != nil {
			taken[p.Username] = true
		}
	}
	if !taken[name] {
		return name
	}
	for n := 1; ; n++ {
		candidate := name + " " + strconv.Itoa(n)
		if !taken[candidate] {
			return candidate
		}
	}
}

func sanitizeUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", apperr.Domain("username must be non-empty")
	}
	if len(name) > MaxUsername {
		name = name[:MaxUsername]
	}
	return name, nil
}

// joinBroadcastLocked builds the ClientInfo/RoomPlayerAdd/GameInfo
// sequence spec.md §4.7.1 requires on host and on join. Caller must
// hold the write lock.
func (r *Room) joinBroadcastLocked(joined *Participant) []Outbound {
	var out []Outbound
	out = append(out, toOne(joined.ClientID, wire.SClientInfo, wire.ClientInfo{Role: uint32(joined.Role)}.Encode())...)

	count := r.participantCountLocked()
	for _, p := range r.participants {
		if p == nil {
			continue
		}
		add := wire.RoomPlayerAdd{
			ID:          joined.ClientID,
			ClientCount: int32(count),
			Username:    joined.Username,
			Ready:       joined.LobbyReady,
			Icon:        joined.Icon,
		}.Encode()
		out = append(out, toOne(p.ClientID, wire.SRoomPlayerAdd, add)...)
	}

	out = append(out, toOne(joined.ClientID, wire.SGameInfo, r.gameInfoLocked())...)
	return out
}

func (r *Room) participantCountLocked() int {
	n := 0
	for _, p := range r.participants {
		if p != nil {
			n++
		}
	}
	return n
}

func (r *Room) gameInfoLocked() []byte {
	return wire.GameInfo{
		Code:      r.code,
		Mode:      int32(r.settings.Mode),
		Placement: r.settings.PlacementSec,
		Turn:      r.settings.TurnSec,
		Buffer:    r.settings.BufferSec,
		Config:    configList(r.settings.PieceConfig),
	}.Encode()
}

// Disconnect removes clientID's seat (spec.md §4.7.9). If the
// remaining lone participant held role Two and the host (role One)
// just left, it is promoted to role One. Returns whether the room is
// now empty (caller should consider removing it from the registry).
func (r *Room) Disconnect(clientID uint32) (out []Outbound, empty bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := -1
	for i, p := range r.participants {
		if p != nil && p.ClientID == clientID {
			idx = i
			break
		}
	}
	if idx == -1 {
		return nil, r.participantCountLocked() == 0
	}
	wasRoleOne := r.participants[idx].Role == RoleOne
	r.participants[idx] = nil
	cancelTimer(&r.lobbyTimer)
	cancelTimer(&r.gameTimer)
	r.touch()

	out = append(out, toOne(clientID, wire.SClientDisconnect, wire.ClientDisconnect{ID: clientID, Timestamp: 0}.Encode())...)
	remaining := r.otherParticipantLocked(idx)
	if remaining != nil {
		out = append(out, toOne(remaining.ClientID, wire.SClientDisconnect, wire.ClientDisconnect{ID: clientID, Timestamp: 0}.Encode())...)
		if wasRoleOne && remaining.Role != RoleOne {
			remaining.Role = RoleOne
			r.participants[seatIndex(RoleOne)] = remaining
			r.participants[seatIndex(RoleTwo)] = nil
			out = append(out, toOne(remaining.ClientID, wire.SClientInfo, wire.ClientInfo{Role: uint32(RoleOne)}.Encode())...)
		}
	}
	return out, r.participantCountLocked() == 0
}

func (r *Room) otherParticipantLocked(excludeIdx int) *Participant {
	for i, p := range r.participants {
		if i != excludeIdx && p != nil {
			return p
		}
	}
	return nil
}
