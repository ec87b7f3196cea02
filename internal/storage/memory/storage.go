package memory

import (
	"context"
	"sync"

	"github.com/mhutchin/wordrush/internal/model"
	"github.com/mhutchin/wordrush/internal/storage"
)

// Storage is an in-memory implementation of the storage interface
type Storage struct {
	mu sync.RWMutex

	players           map[model.PlayerID]*model.Player
	registeredPlayers map[model.PlayerID]*model.RegisteredPlayer
	usernameIndex     map[string]model.PlayerID
	rooms             map[model.RoomName]*model.Room
	roomsByPlayer     map[model.PlayerID]map[model.RoomName]struct{}
	dictionaries      map[string][]string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		players:           make(map[model.PlayerID]*model.Player),
		registeredPlayers: make(map[model.PlayerID]*model.RegisteredPlayer),
		usernameIndex:     make(map[string]model.PlayerID),
		rooms:             make(map[model.RoomName]*model.Room),
		roomsByPlayer:     make(map[model.PlayerID]map[model.RoomName]struct{}),
		dictionaries:      make(map[string][]string),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Player operations

func (s *Storage) SavePlayer(ctx context.Context, player *model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players[player.ID] = player
	return nil
}

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return player, nil
}

func (s *Storage) DeletePlayer(ctx context.Context, id model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.players, id)
	return nil
}

// Registered player operations

func (s *Storage) SaveRegisteredPlayer(ctx context.Context, rp *model.RegisteredPlayer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registeredPlayers[rp.PlayerID] = rp
	s.usernameIndex[rp.Username] = rp.PlayerID
	return nil
}

func (s *Storage) GetRegisteredPlayer(ctx context.Context, playerID model.PlayerID) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

func (s *Storage) GetRegisteredPlayerByUsername(ctx context.Context, username string) (*model.RegisteredPlayer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	playerID, ok := s.usernameIndex[username]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	rp, ok := s.registeredPlayers[playerID]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	return rp, nil
}

// Room operations
//
// Rooms are copied on the way in and out so callers can mutate their
// copy without racing readers of the stored record.

func (s *Storage) CreateRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Name]; ok {
		return model.ErrRoomExists
	}
	s.rooms[room.Name] = copyRoom(room)
	for _, m := range room.Members {
		s.indexAdd(m.PlayerID, room.Name)
	}
	return nil
}

func (s *Storage) GetRoom(ctx context.Context, name model.RoomName) (*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[name]
	if !ok {
		return nil, model.ErrRoomNotFound
	}
	return copyRoom(room), nil
}

func (s *Storage) RoomExists(ctx context.Context, name model.RoomName) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rooms[name]
	return ok, nil
}

func (s *Storage) ListRooms(ctx context.Context) ([]*model.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rooms := make([]*model.Room, 0, len(s.rooms))
	for _, room := range s.rooms {
		rooms = append(rooms, copyRoom(room))
	}
	return rooms, nil
}

func (s *Storage) UpdateRoomAddMember(ctx context.Context, room *model.Room, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Name]; !ok {
		return model.ErrRoomNotFound
	}
	s.rooms[room.Name] = copyRoom(room)
	s.indexAdd(playerID, room.Name)
	return nil
}

func (s *Storage) UpdateRoomRemoveMember(ctx context.Context, room *model.Room, playerID model.PlayerID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.Name]; !ok {
		return model.ErrRoomNotFound
	}
	s.rooms[room.Name] = copyRoom(room)
	s.indexRemove(playerID, room.Name)
	return nil
}

func (s *Storage) DeleteRoom(ctx context.Context, room *model.Room) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, room.Name)
	for _, m := range room.Members {
		s.indexRemove(m.PlayerID, room.Name)
	}
	return nil
}

func (s *Storage) RoomsForPlayer(ctx context.Context, playerID model.PlayerID) ([]model.RoomName, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]model.RoomName, 0, len(s.roomsByPlayer[playerID]))
	for name := range s.roomsByPlayer[playerID] {
		names = append(names, name)
	}
	return names, nil
}

// indexAdd and indexRemove maintain the player -> rooms index.
// Callers must hold the write lock.

func (s *Storage) indexAdd(playerID model.PlayerID, name model.RoomName) {
	if s.roomsByPlayer[playerID] == nil {
		s.roomsByPlayer[playerID] = make(map[model.RoomName]struct{})
	}
	s.roomsByPlayer[playerID][name] = struct{}{}
}

func (s *Storage) indexRemove(playerID model.PlayerID, name model.RoomName) {
	if rooms, ok := s.roomsByPlayer[playerID]; ok {
		delete(rooms, name)
		if len(rooms) == 0 {
			delete(s.roomsByPlayer, playerID)
		}
	}
}

func copyRoom(room *model.Room) *model.Room {
	c := *room
	c.Members = make([]model.Membership, len(room.Members))
	copy(c.Members, room.Members)
	return &c
}

// Dictionary operations

func (s *Storage) SaveDictionaryWords(ctx context.Context, category string, words []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]string, len(words))
	copy(stored, words)
	s.dictionaries[category] = stored
	return nil
}

func (s *Storage) GetDictionaryWords(ctx context.Context, category string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	words, ok := s.dictionaries[category]
	if !ok {
		return nil, model.ErrDictionaryNotLoaded
	}
	result := make([]string, len(words))
	copy(result, words)
	return result, nil
}
