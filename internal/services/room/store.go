package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/mhutchin/wordrush/internal/dependencies/clock"
	"github.com/mhutchin/wordrush/internal/model"
	"github.com/mhutchin/wordrush/internal/storage"
)

// Store is the consistency layer over room persistence. It owns the
// room lifecycle invariants: names are unique among live rooms, every
// live room's host is a member, and a host's departure dissolves the
// whole room.
//
// Mutations on the same room name are serialized through a per-name
// lock; operations on different rooms proceed concurrently.
type Store struct {
	storage storage.Storage
	clock   clock.Clock
	logger  *slog.Logger

	mu    sync.Mutex
	locks map[model.RoomName]*sync.Mutex
}

// NewStore creates a new room Store
func NewStore(storage storage.Storage, clock clock.Clock, logger *slog.Logger) *Store {
	return &Store{
		storage: storage,
		clock:   clock,
		logger:  logger.With(slog.String("component", "room-store")),
		locks:   make(map[model.RoomName]*sync.Mutex),
	}
}

// lockRoom returns the mutex serializing mutations on one room name.
// Lock entries are never removed; the name space is small and a stale
// entry is just an idle mutex.
func (s *Store) lockRoom(name model.RoomName) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

// Create makes a new room with the given player as host and sole
// member. Fails with model.ErrRoomExists if the name is taken.
func (s *Store) Create(ctx context.Context, name model.RoomName, password string, hostID model.PlayerID) error {
	l := s.lockRoom(name)
	l.Lock()
	defer l.Unlock()

	now := s.clock.Now()
	room := &model.Room{
		Name:     name,
		Password: password,
		HostID:   hostID,
		Members: []model.Membership{
			{PlayerID: hostID, JoinedAt: now},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}

	return s.storage.CreateRoom(ctx, room)
}

// Join adds a player to an existing room. The checks run in a fixed
// order because the order decides which error a client sees: existence,
// then password, then duplicate membership.
func (s *Store) Join(ctx context.Context, name model.RoomName, password string, playerID model.PlayerID) error {
	l := s.lockRoom(name)
	l.Lock()
	defer l.Unlock()

	room, err := s.storage.GetRoom(ctx, name)
	if err != nil {
		return err
	}

	if room.Password != password {
		return model.ErrWrongPassword
	}

	if room.GetMember(playerID) != nil {
		return model.ErrAlreadyMember
	}

	room.Members = append(room.Members, model.Membership{
		PlayerID: playerID,
		JoinedAt: s.clock.Now(),
	})
	room.UpdatedAt = s.clock.Now()

	return s.storage.UpdateRoomAddMember(ctx, room, playerID)
}

// Leave removes a player's membership. If the player is the room's
// host the whole room is dissolved, cascading removal of every
// membership record; dissolved reports which path was taken.
func (s *Store) Leave(ctx context.Context, name model.RoomName, playerID model.PlayerID) (dissolved bool, err error) {
	l := s.lockRoom(name)
	l.Lock()
	defer l.Unlock()

	room, err := s.storage.GetRoom(ctx, name)
	if err != nil {
		return false, err
	}

	if room.GetMember(playerID) == nil {
		return false, model.ErrNotInRoom
	}

	if room.HostID == playerID {
		// A room cannot outlive its host's membership
		if err := s.storage.DeleteRoom(ctx, room); err != nil {
			return false, err
		}
		s.logger.Info("room dissolved by host departure",
			slog.String("room", string(name)),
			slog.String("host_id", string(playerID)))
		return true, nil
	}

	room.RemoveMember(playerID)
	room.UpdatedAt = s.clock.Now()

	if err := s.storage.UpdateRoomRemoveMember(ctx, room, playerID); err != nil {
		return false, err
	}
	return false, nil
}

// RoomsForPlayer returns the names of every room the player is
// currently a member of
func (s *Store) RoomsForPlayer(ctx context.Context, playerID model.PlayerID) ([]model.RoomName, error) {
	return s.storage.RoomsForPlayer(ctx, playerID)
}

// ListPublicRooms returns one summary row per live room. Member counts
// come from live membership records; a room with zero members cannot
// occur because host departure already deletes the room.
func (s *Store) ListPublicRooms(ctx context.Context) ([]model.RoomSummary, error) {
	rooms, err := s.storage.ListRooms(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]model.RoomSummary, 0, len(rooms))
	for _, room := range rooms {
		summaries = append(summaries, model.RoomSummary{
			Name:        room.Name,
			MemberCount: len(room.Members),
		})
	}
	return summaries, nil
}

// ListMembers returns the roster of one room joined against player
// records. A vanished room yields an empty roster, not an error; a
// membership whose player record cannot be loaded is skipped.
func (s *Store) ListMembers(ctx context.Context, name model.RoomName) ([]model.RosterEntry, error) {
	room, err := s.storage.GetRoom(ctx, name)
	if err != nil {
		if errors.Is(err, model.ErrRoomNotFound) {
			return []model.RosterEntry{}, nil
		}
		return nil, err
	}

	roster := make([]model.RosterEntry, 0, len(room.Members))
	for _, m := range room.Members {
		player, err := s.storage.GetPlayer(ctx, m.PlayerID)
		if err != nil {
			s.logger.Warn("member has no player record",
				slog.String("room", string(name)),
				slog.String("player_id", string(m.PlayerID)))
			continue
		}
		roster = append(roster, model.RosterEntry{
			Name:  player.DisplayName,
			Score: player.TotalScore,
		})
	}
	return roster, nil
}

// Interface for dependency injection
type StoreInterface interface {
	Create(ctx context.Context, name model.RoomName, password string, hostID model.PlayerID) error
	Join(ctx context.Context, name model.RoomName, password string, playerID model.PlayerID) error
	Leave(ctx context.Context, name model.RoomName, playerID model.PlayerID) (bool, error)
	RoomsForPlayer(ctx context.Context, playerID model.PlayerID) ([]model.RoomName, error)
	ListPublicRooms(ctx context.Context) ([]model.RoomSummary, error)
	ListMembers(ctx context.Context, name model.RoomName) ([]model.RosterEntry, error)
}

var _ StoreInterface = (*Store)(nil)
