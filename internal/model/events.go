package model

// Wire-level event names. Client events arrive one per frame; server
// events are pushed to a single caller, a room's subscribers, or every
// live connection.
const (
	// Client -> server
	EventRegisterPlayerID = "register_playerId"
	EventGetRooms         = "get_rooms"
	EventGetRoomPlayers   = "get_room_players"
	EventHostRoom         = "host_room"
	EventJoinRoom         = "join_room"
	EventLeaveRoom        = "leave_room"

	// Server -> client
	EventUpdateRooms     = "update_rooms"
	EventPlayersInRoom   = "players_in_room"
	EventJoinRoomSuccess = "join_room_success"
	EventPlayerJoined    = "player_joined"
	EventPlayerLeft      = "player_left"
	EventRoomError       = "room_error"
)

// ClientEvent is the closed set of client-initiated room events. Each
// transport frame decodes to exactly one variant; the presence
// coordinator dispatches over the set with a single type switch, so the
// state machine is testable without a live transport.
type ClientEvent interface {
	clientEvent()
}

// RegisterPlayerID associates the sending connection with a player
// identity. The claim is not authenticated here; that is a policy
// boundary above this layer.
type RegisterPlayerID struct {
	PlayerID PlayerID `json:"playerId"`
}

// GetRooms requests the public room list, sent back to the caller only
type GetRooms struct{}

// GetRoomPlayers requests the roster of one room, sent back to the
// caller only
type GetRoomPlayers struct {
	RoomName RoomName `json:"roomName"`
}

// HostRoom creates a new room with the sender's player as host
type HostRoom struct {
	RoomName RoomName `json:"roomName"`
	Password string   `json:"password"`
	PlayerID PlayerID `json:"playerId"`
}

// JoinRoom adds the player to an existing room
type JoinRoom struct {
	RoomName RoomName `json:"roomName"`
	Password string   `json:"password"`
	PlayerID PlayerID `json:"playerId"`
}

// LeaveRoom removes the player from a room they are a member of
type LeaveRoom struct {
	RoomName RoomName `json:"roomName"`
	PlayerID PlayerID `json:"playerId"`
}

func (RegisterPlayerID) clientEvent() {}
func (GetRooms) clientEvent()         {}
func (GetRoomPlayers) clientEvent()   {}
func (HostRoom) clientEvent()         {}
func (JoinRoom) clientEvent()         {}
func (LeaveRoom) clientEvent()        {}

// JoinSuccess is the payload of a join_room_success event
type JoinSuccess struct {
	RoomName RoomName `json:"roomName"`
}
