package storage

import (
	"context"

	"github.com/mhutchin/wordrush/internal/model"
)

// Storage defines the interface for data persistence.
//
// Room mutations are compound operations: each one updates the room
// record together with the affected indexes (the live-room set and the
// per-player membership index) atomically, so no caller can observe a
// room without its host's membership or a membership pointing at a
// deleted room.
type Storage interface {
	// Player operations
	SavePlayer(ctx context.Context, player *model.Player) error
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	DeletePlayer(ctx context.Context, id model.PlayerID) error

	// Registered player operations
	SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error
	GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error)
	GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error)

	// Room operations
	CreateRoom(ctx context.Context, room *model.Room) error
	GetRoom(ctx context.Context, name model.RoomName) (*model.Room, error)
	RoomExists(ctx context.Context, name model.RoomName) (bool, error)
	ListRooms(ctx context.Context) ([]*model.Room, error)
	UpdateRoomAddMember(ctx context.Context, room *model.Room, playerID model.PlayerID) error
	UpdateRoomRemoveMember(ctx context.Context, room *model.Room, playerID model.PlayerID) error
	DeleteRoom(ctx context.Context, room *model.Room) error

	// Membership index: which rooms a player currently belongs to
	RoomsForPlayer(ctx context.Context, playerID model.PlayerID) ([]model.RoomName, error)

	// Dictionary operations, one word set per category
	SaveDictionaryWords(ctx context.Context, category string, words []string) error
	GetDictionaryWords(ctx context.Context, category string) ([]string, error)
}
