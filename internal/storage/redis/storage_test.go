package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/mhutchin/wordrush/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestPlayerTTL = time.Hour
	cfg.RoomTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) room(name string, host string, members ...string) *model.Room {
	now := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	room := &model.Room{
		Name:      model.RoomName(name),
		Password:  "secret",
		HostID:    model.PlayerID(host),
		Members:   []model.Membership{{PlayerID: model.PlayerID(host), JoinedAt: now}},
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range members {
		room.Members = append(room.Members, model.Membership{PlayerID: model.PlayerID(m), JoinedAt: now})
	}
	return room
}

// Player tests

func (s *StorageSuite) TestSaveAndGetPlayer() {
	player := &model.Player{
		ID:          "player-1",
		DisplayName: "Alice",
		TotalScore:  12,
		IsGuest:     false,
		CreatedAt:   time.Now(),
	}

	err := s.storage.SavePlayer(s.ctx, player)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetPlayer(s.ctx, "player-1")
	s.Require().NoError(err)
	s.Equal(player.DisplayName, retrieved.DisplayName)
	s.Equal(12, retrieved.TotalScore)
}

func (s *StorageSuite) TestGuestPlayerHasTTL() {
	player := &model.Player{ID: "guest-1", DisplayName: "Guest", IsGuest: true}
	s.Require().NoError(s.storage.SavePlayer(s.ctx, player))

	s.Require().True(s.mini.Exists(playerKey("guest-1")))
	s.Greater(s.mini.TTL(playerKey("guest-1")), time.Duration(0))
}

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestRegisteredPlayerByUsername() {
	rp := &model.RegisteredPlayer{
		PlayerID:     "player-1",
		Username:     "alice",
		PasswordHash: "hash",
	}
	s.Require().NoError(s.storage.SaveRegisteredPlayer(s.ctx, rp))

	retrieved, err := s.storage.GetRegisteredPlayerByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("player-1"), retrieved.PlayerID)
}

// Room tests

func (s *StorageSuite) TestCreateAndGetRoom() {
	err := s.storage.CreateRoom(s.ctx, s.room("alpha", "host-1"))
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRoom(s.ctx, "alpha")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("host-1"), retrieved.HostID)
	s.Equal("secret", retrieved.Password)
}

func (s *StorageSuite) TestCreateRoomConflict() {
	s.Require().NoError(s.storage.CreateRoom(s.ctx, s.room("alpha", "host-1")))

	err := s.storage.CreateRoom(s.ctx, s.room("alpha", "host-2"))
	s.ErrorIs(err, model.ErrRoomExists)
}

func (s *StorageSuite) TestGetRoomNotFound() {
	_, err := s.storage.GetRoom(s.ctx, "nope")
	s.ErrorIs(err, model.ErrRoomNotFound)
}

func (s *StorageSuite) TestRoomExists() {
	exists, err := s.storage.RoomExists(s.ctx, "alpha")
	s.Require().NoError(err)
	s.False(exists)

	s.Require().NoError(s.storage.CreateRoom(s.ctx, s.room("alpha", "host-1")))

	exists, err = s.storage.RoomExists(s.ctx, "alpha")
	s.Require().NoError(err)
	s.True(exists)
}

func (s *StorageSuite) TestListRooms() {
	s.Require().NoError(s.storage.CreateRoom(s.ctx, s.room("alpha", "host-1")))
	s.Require().NoError(s.storage.CreateRoom(s.ctx, s.room("beta", "host-2")))

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Len(rooms, 2)
}

func (s *StorageSuite) TestListRoomsSkipsExpiredEntries() {
	s.Require().NoError(s.storage.CreateRoom(s.ctx, s.room("alpha", "host-1")))
	s.Require().NoError(s.storage.CreateRoom(s.ctx, s.room("beta", "host-2")))

	// Simulate the room value expiring ahead of its index entry
	s.mini.Del(roomKey("beta"))

	rooms, err := s.storage.ListRooms(s.ctx)
	s.Require().NoError(err)
	s.Len(rooms, 1)
	s.Equal(model.RoomName("alpha"), rooms[0].Name)
}

func (s *StorageSuite) TestMembershipIndex() {
	room := s.room("alpha", "host-1")
	s.Require().NoError(s.storage.CreateRoom(s.ctx, room))

	room.Members = append(room.Members, model.Membership{PlayerID: "player-2"})
	s.Require().NoError(s.storage.UpdateRoomAddMember(s.ctx, room, "player-2"))

	rooms, err := s.storage.RoomsForPlayer(s.ctx, "player-2")
	s.Require().NoError(err)
	s.Equal([]model.RoomName{"alpha"}, rooms)

	room.RemoveMember("player-2")
	s.Require().NoError(s.storage.UpdateRoomRemoveMember(s.ctx, room, "player-2"))

	rooms, err = s.storage.RoomsForPlayer(s.ctx, "player-2")
	s.Require().NoError(err)
	s.Empty(rooms)
}

func (s *StorageSuite) TestDeleteRoomCascades() {
	room := s.room("alpha", "host-1", "player-2")
	s.Require().NoError(s.storage.CreateRoom(s.ctx, room))

	s.Require().NoError(s.storage.DeleteRoom(s.ctx, room))

	_, err := s.storage.GetRoom(s.ctx, "alpha")
	s.ErrorIs(err, model.ErrRoomNotFound)

	rooms, _ := s.storage.ListRooms(s.ctx)
	s.Empty(rooms)

	for _, id := range []model.PlayerID{"host-1", "player-2"} {
		names, err := s.storage.RoomsForPlayer(s.ctx, id)
		s.Require().NoError(err)
		s.Empty(names)
	}
}

// Dictionary tests

func (s *StorageSuite) TestDictionaryRoundTrip() {
	err := s.storage.SaveDictionaryWords(s.ctx, "animals", []string{"cat", "dog"})
	s.Require().NoError(err)

	words, err := s.storage.GetDictionaryWords(s.ctx, "animals")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"cat", "dog"}, words)
}

func (s *StorageSuite) TestDictionaryCategoriesIndependent() {
	s.Require().NoError(s.storage.SaveDictionaryWords(s.ctx, "animals", []string{"cat"}))

	_, err := s.storage.GetDictionaryWords(s.ctx, "plants")
	s.ErrorIs(err, model.ErrDictionaryNotLoaded)
}
