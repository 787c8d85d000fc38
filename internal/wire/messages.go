package wire

import "strconv"

// Server-to-client message ids, per spec.md §6. Id 16 is intentionally
// unused; the catalog skips it in the original protocol and nothing in
// this server emits it.
const (
	SWelcome                     uint8 = 1
	SKicked                      uint8 = 2
	SClientDisconnect            uint8 = 3
	SRoomPlayerAdd               uint8 = 4
	SRoomPlayerUpdatedReadyState uint8 = 5
	SFailCreateGame              uint8 = 6
	SErrJoinGame                 uint8 = 7
	SClientInfo                  uint8 = 8
	SGameInfo                    uint8 = 9
	SUpdatedPigIcon              uint8 = 10
	SSettingsValueChanged        uint8 = 11
	SPigItemValueChanged         uint8 = 12
	SPigConfigValueChanged       uint8 = 13
	SRoomTimerUpdate             uint8 = 14
	SBothClientsLoadedGame       uint8 = 15
	SGamePlayerUpdatedReadyState uint8 = 17
	SOpponentPigPlacement        uint8 = 18
	SMoveData                    uint8 = 19
	STurnInit                    uint8 = 20
	STurnSecondUpdate            uint8 = 21
	SWin                         uint8 = 22
	SEnemyPieceData              uint8 = 23
	SClientPlayAgain             uint8 = 24
)

// Client-to-server message ids, per spec.md §6.
const (
	CGameRequest         uint8 = 1
	CUpdateReadyState    uint8 = 2
	CUpdatePigIcon       uint8 = 3
	CUpdateSettingsValue uint8 = 4
	CUpdatePigItemValue  uint8 = 5
	CFinishedSceneLoad   uint8 = 6
	CGamePlayerReadyData uint8 = 7
	CMove                uint8 = 8
	CSurrender           uint8 = 9
	CLeaveGame           uint8 = 10
	CPlayAgain           uint8 = 11
)

func idString(id uint32) string { return strconv.FormatUint(uint64(id), 10) }

// KindCount is the (kind, count) tuple used by GameInfo and
// PigConfigValueChanged to transmit a piece configuration.
type KindCount struct {
	Kind  uint32
	Count uint32
}

func writeKindCount(w *Writer, kc KindCount) {
	w.U32(kc.Kind)
	w.U32(kc.Count)
}

func readKindCount(r *Reader) (KindCount, error) {
	kind, err := r.U32()
	if err != nil {
		return KindCount{}, err
	}
	count, err := r.U32()
	if err != nil {
		return KindCount{}, err
	}
	return KindCount{Kind: kind, Count: count}, nil
}

// StableIDKind is the (stable_id, kind) tuple EnemyPieceData reveals
// once the game has ended.
type StableIDKind struct {
	StableID uint8
	Kind     uint8
}

func writeStableIDKind(w *Writer, p StableIDKind) {
	w.U8(p.StableID)
	w.U8(p.Kind)
}

// --- Server -> client bodies -------------------------------------------------

type Welcome struct {
	Version string
	MyID    uint32
}

func (m Welcome) Encode() []byte {
	w := NewWriter()
	w.String(m.Version)
	w.String(idString(m.MyID))
	return w.Bytes()
}

type Kicked struct{ Msg string }

func (m Kicked) Encode() []byte {
	w := NewWriter()
	w.String(m.Msg)
	return w.Bytes()
}

type ClientDisconnect struct {
	ID        uint32
	Timestamp uint64
}

func (m ClientDisconnect) Encode() []byte {
	w := NewWriter()
	w.String(idString(m.ID))
	w.U64(m.Timestamp)
	return w.Bytes()
}

type RoomPlayerAdd struct {
	ID          uint32
	ClientCount int32
	Username    string
	Ready       bool
	Icon        int32
}

func (m RoomPlayerAdd) Encode() []byte {
	w := NewWriter()
	w.String(idString(m.ID))
	w.I32(m.ClientCount)
	w.String(m.Username)
	w.Bool(m.Ready)
	w.I32(m.Icon)
	return w.Bytes()
}

type RoomPlayerUpdatedReadyState struct {
	ID    uint32
	Ready bool
}

func (m RoomPlayerUpdatedReadyState) Encode() []byte {
	w := NewWriter()
	w.String(idString(m.ID))
	w.Bool(m.Ready)
	return w.Bytes()
}

type FailCreateGame struct{}

func (m FailCreateGame) Encode() []byte { return nil }

type ErrJoinGame struct{ Msg string }

func (m ErrJoinGame) Encode() []byte {
	w := NewWriter()
	w.String(m.Msg)
	return w.Bytes()
}

type ClientInfo struct{ Role uint32 }

func (m ClientInfo) Encode() []byte {
	w := NewWriter()
	w.U32(m.Role)
	return w.Bytes()
}

type GameInfo struct {
	Code      string
	Mode      int32
	Placement uint32
	Turn      uint32
	Buffer    uint32
	Config    []KindCount
}

func (m GameInfo) Encode() []byte {
	w := NewWriter()
	w.String(m.Code)
	w.I32(m.Mode)
	w.U32(m.Placement)
	w.U32(m.Turn)
	w.U32(m.Buffer)
	WriteVec(w, m.Config, writeKindCount)
	return w.Bytes()
}

type UpdatedPigIcon struct {
	ID   uint32
	Icon int32
}

func (m UpdatedPigIcon) Encode() []byte {
	w := NewWriter()
	w.String(idString(m.ID))
	w.I32(m.Icon)
	return w.Bytes()
}

type SettingsValueChanged struct {
	ID    uint32
	Value uint32
}

func (m SettingsValueChanged) Encode() []byte {
	w := NewWriter()
	w.U32(m.ID)
	w.U32(m.Value)
	return w.Bytes()
}

type PigItemValueChanged struct {
	Pig    uint32
	Amount uint32
}

func (m PigItemValueChanged) Encode() []byte {
	w := NewWriter()
	w.U32(m.Pig)
	w.U32(m.Amount)
	return w.Bytes()
}

type PigConfigValueChanged struct {
	Turn   uint32
	Buffer uint32
	Config []KindCount
}

func (m PigConfigValueChanged) Encode() []byte {
	w := NewWriter()
	w.U32(m.Turn)
	w.U32(m.Buffer)
	WriteVec(w, m.Config, writeKindCount)
	return w.Bytes()
}

// RoomTimerUpdate carries DeadlineMs = -1 to tell the client to clear
// its countdown UI (spec.md §4.7.2).
type RoomTimerUpdate struct {
	DeadlineMs  int64
	ServerNowMs uint64
}

func (m RoomTimerUpdate) Encode() []byte {
	w := NewWriter()
	w.I128(m.DeadlineMs)
	w.U128(m.ServerNowMs)
	return w.Bytes()
}

type BothClientsLoadedGame struct{}

func (m BothClientsLoadedGame) Encode() []byte { return nil }

type GamePlayerUpdatedReadyState struct {
	ID    uint32
	Ready bool
}

func (m GamePlayerUpdatedReadyState) Encode() []byte {
	w := NewWriter()
	w.String(idString(m.ID))
	w.Bool(m.Ready)
	return w.Bytes()
}

// OpponentPigPlacement withholds kind information: fog of war.
type OpponentPigPlacement struct{ Locations []uint8 }

func (m OpponentPigPlacement) Encode() []byte {
	w := NewWriter()
	WriteVec(w, m.Locations, func(w *Writer, v uint8) { w.U8(v) })
	return w.Bytes()
}

// MoveData shares wire id 19 with the attack variant; BundleNull true
// means no combat fields follow. See spec.md Design Notes on this
// shared-id redesign tradeoff.
type MoveData struct {
	Role       uint32
	From       uint8
	To         uint8
	BundleNull bool
	Result     int32
	Init       uint32
	Target     uint32
}

func (m MoveData) Encode() []byte {
	w := NewWriter()
	w.U32(m.Role)
	w.U8(m.From)
	w.U8(m.To)
	w.Bool(m.BundleNull)
	if !m.BundleNull {
		w.I32(m.Result)
		w.U32(m.Init)
		w.U32(m.Target)
	}
	return w.Bytes()
}

type TurnInit struct{ Role uint32 }

func (m TurnInit) Encode() []byte {
	w := NewWriter()
	w.U32(m.Role)
	return w.Bytes()
}

type TurnSecondUpdate struct {
	Role        uint32
	DeadlineMs  uint64
	ServerNowMs uint64
	IsBuffer    bool
}

func (m TurnSecondUpdate) Encode() []byte {
	w := NewWriter()
	w.U32(m.Role)
	w.U128(m.DeadlineMs)
	w.U128(m.ServerNowMs)
	w.Bool(m.IsBuffer)
	return w.Bytes()
}

type Win struct {
	Role      uint32
	WinType   uint32
	ElapsedMs uint64
	Immediate bool
}

func (m Win) Encode() []byte {
	w := NewWriter()
	w.U32(m.Role)
	w.U32(m.WinType)
	w.U64(m.ElapsedMs)
	w.Bool(m.Immediate)
	return w.Bytes()
}

type EnemyPieceData struct{ Data []StableIDKind }

func (m EnemyPieceData) Encode() []byte {
	w := NewWriter()
	WriteVec(w, m.Data, writeStableIDKind)
	return w.Bytes()
}

type ClientPlayAgain struct{ ID uint32 }

func (m ClientPlayAgain) Encode() []byte {
	w := NewWriter()
	w.String(idString(m.ID))
	return w.Bytes()
}

// --- Client -> server bodies -------------------------------------------------

// GameRequest is decoded in one call: DecodeGameRequest reads the fixed
// prefix and, when IncludeFull is set, the settings tail after it.
type GameRequest struct {
	MyID         uint32
	IsHosting    bool
	Username     string
	Icon         int32
	Code         string
	IncludeFull  bool
	Mode         int32
	PlacementSec uint32
	TurnSec      uint32
	BufferSec    uint32
	Config       []KindCount
}

func DecodeGameRequest(r *Reader) (GameRequest, error) {
	var m GameRequest
	idStr, err := r.String()
	if err != nil {
		return m, err
	}
	id, err := parseID(idStr)
	if err != nil {
		return m, err
	}
	m.MyID = id
	if m.IsHosting, err = r.Bool(); err != nil {
		return m, err
	}
	if m.Username, err = r.String(); err != nil {
		return m, err
	}
	if m.Icon, err = r.I32(); err != nil {
		return m, err
	}
	if m.Code, err = r.String(); err != nil {
		return m, err
	}
	if m.IncludeFull, err = r.Bool(); err != nil {
		return m, err
	}
	if !m.IncludeFull {
		return m, nil
	}
	if m.Mode, err = r.I32(); err != nil {
		return m, err
	}
	if m.PlacementSec, err = r.U32(); err != nil {
		return m, err
	}
	if m.TurnSec, err = r.U32(); err != nil {
		return m, err
	}
	if m.BufferSec, err = r.U32(); err != nil {
		return m, err
	}
	if m.Config, err = ReadVec(r, readKindCount); err != nil {
		return m, err
	}
	return m, nil
}

func parseID(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	return uint32(v), nil
}

type UpdateReadyState struct {
	MyID  uint32
	Ready bool
}

func DecodeUpdateReadyState(r *Reader) (UpdateReadyState, error) {
	var m UpdateReadyState
	idStr, err := r.String()
	if err != nil {
		return m, err
	}
	if m.MyID, err = parseID(idStr); err != nil {
		return m, err
	}
	m.Ready, err = r.Bool()
	return m, err
}

type UpdatePigIcon struct {
	MyID uint32
	Icon int32
}

func DecodeUpdatePigIcon(r *Reader) (UpdatePigIcon, error) {
	var m UpdatePigIcon
	idStr, err := r.String()
	if err != nil {
		return m, err
	}
	if m.MyID, err = parseID(idStr); err != nil {
		return m, err
	}
	m.Icon, err = r.I32()
	return m, err
}

type UpdateSettingsValue struct {
	MyID      uint32
	SettingID uint32
	Increased bool
}

func DecodeUpdateSettingsValue(r *Reader) (UpdateSettingsValue, error) {
	var m UpdateSettingsValue
	idStr, err := r.String()
	if err != nil {
		return m, err
	}
	if m.MyID, err = parseID(idStr); err != nil {
		return m, err
	}
	if m.SettingID, err = r.U32(); err != nil {
		return m, err
	}
	m.Increased, err = r.Bool()
	return m, err
}

type UpdatePigItemValue struct {
	MyID      uint32
	Pig       uint32
	Increased bool
}

func DecodeUpdatePigItemValue(r *Reader) (UpdatePigItemValue, error) {
	var m UpdatePigItemValue
	idStr, err := r.String()
	if err != nil {
		return m, err
	}
	if m.MyID, err = parseID(idStr); err != nil {
		return m, err
	}
	if m.Pig, err = r.U32(); err != nil {
		return m, err
	}
	m.Increased, err = r.Bool()
	return m, err
}

type FinishedSceneLoad struct {
	MyID       uint32
	SceneIndex uint32
}

func DecodeFinishedSceneLoad(r *Reader) (FinishedSceneLoad, error) {
	var m FinishedSceneLoad
	idStr, err := r.String()
	if err != nil {
		return m, err
	}
	if m.MyID, err = parseID(idStr); err != nil {
		return m, err
	}
	m.SceneIndex, err = r.U32()
	return m, err
}

type GamePlayerReadyData struct {
	MyID  uint32
	Ready bool
	Board []KindCount // (kind, tile) pairs when Ready is true
}

func DecodeGamePlayerReadyData(r *Reader) (GamePlayerReadyData, error) {
	var m GamePlayerReadyData
	idStr, err := r.String()
	if err != nil {
		return m, err
	}
	if m.MyID, err = parseID(idStr); err != nil {
		return m, err
	}
	if m.Ready, err = r.Bool(); err != nil {
		return m, err
	}
	if !m.Ready {
		return m, nil
	}
	m.Board, err = ReadVec(r, readKindCount)
	return m, err
}

type Move struct {
	MyID uint32
	From uint8
	To   uint8
}

func DecodeMove(r *Reader) (Move, error) {
	var m Move
	idStr, err := r.String()
	if err != nil {
		return m, err
	}
	if m.MyID, err = parseID(idStr); err != nil {
		return m, err
	}
	if m.From, err = r.U8(); err != nil {
		return m, err
	}
	m.To, err = r.U8()
	return m, err
}

// Surrender, LeaveGame, and PlayAgain carry no body.
type Surrender struct{}
type LeaveGame struct{}
type PlayAgain struct{}
