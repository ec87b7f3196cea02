package presence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/mhutchin/wordrush/internal/dependencies/mocks"
	"github.com/mhutchin/wordrush/internal/model"
	"github.com/mhutchin/wordrush/internal/registry"
	"github.com/mhutchin/wordrush/internal/services/room"
	"github.com/mhutchin/wordrush/internal/storage/memory"
	"github.com/mhutchin/wordrush/internal/testutil"
)

// delivery records one fanout push for assertions
type delivery struct {
	scope   string // "send", "all" or "room"
	conn    model.ConnID
	room    model.RoomName
	event   string
	payload any
}

// fakeFanout records deliveries and subscription bookkeeping instead of
// touching a transport
type fakeFanout struct {
	deliveries []delivery
	subs       map[model.RoomName]map[model.ConnID]struct{}
}

var _ Fanout = (*fakeFanout)(nil)

func newFakeFanout() *fakeFanout {
	return &fakeFanout{subs: make(map[model.RoomName]map[model.ConnID]struct{})}
}

func (f *fakeFanout) SendTo(connID model.ConnID, event string, payload any) {
	f.deliveries = append(f.deliveries, delivery{scope: "send", conn: connID, event: event, payload: payload})
}

func (f *fakeFanout) BroadcastAll(event string, payload any) {
	f.deliveries = append(f.deliveries, delivery{scope: "all", event: event, payload: payload})
}

func (f *fakeFanout) BroadcastRoom(name model.RoomName, event string, payload any) {
	f.deliveries = append(f.deliveries, delivery{scope: "room", room: name, event: event, payload: payload})
}

func (f *fakeFanout) SubscribeRoom(connID model.ConnID, name model.RoomName) {
	if f.subs[name] == nil {
		f.subs[name] = make(map[model.ConnID]struct{})
	}
	f.subs[name][connID] = struct{}{}
}

func (f *fakeFanout) UnsubscribeRoom(connID model.ConnID, name model.RoomName) {
	delete(f.subs[name], connID)
}

func (f *fakeFanout) DropRoom(name model.RoomName) {
	delete(f.subs, name)
}

// byEvent returns all recorded deliveries with the given event name
func (f *fakeFanout) byEvent(event string) []delivery {
	var out []delivery
	for _, d := range f.deliveries {
		if d.event == event {
			out = append(out, d)
		}
	}
	return out
}

// lastRoomList returns the payload of the most recent global
// update_rooms broadcast
func (f *fakeFanout) lastRoomList() []model.RoomSummary {
	for i := len(f.deliveries) - 1; i >= 0; i-- {
		d := f.deliveries[i]
		if d.scope == "all" && d.event == model.EventUpdateRooms {
			return d.payload.([]model.RoomSummary)
		}
	}
	return nil
}

func (f *fakeFanout) reset() {
	f.deliveries = nil
}

// flakyStore wraps a room store and fails Leave for chosen rooms, for
// exercising per-room failure isolation on disconnect
type flakyStore struct {
	room.StoreInterface
	failLeave map[model.RoomName]error
}

func (s *flakyStore) Leave(ctx context.Context, name model.RoomName, playerID model.PlayerID) (bool, error) {
	if err, ok := s.failLeave[name]; ok {
		return false, err
	}
	return s.StoreInterface.Leave(ctx, name, playerID)
}

type CoordinatorSuite struct {
	suite.Suite
	storage     *memory.Storage
	registry    *registry.Registry
	rooms       *room.Store
	fanout      *fakeFanout
	coordinator *Coordinator
	ctx         context.Context
}

func TestCoordinatorSuite(t *testing.T) {
	suite.Run(t, new(CoordinatorSuite))
}

func (s *CoordinatorSuite) SetupTest() {
	s.storage = memory.New()
	s.registry = registry.New()
	clk := mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.rooms = room.NewStore(s.storage, clk, testutil.NopLogger())
	s.fanout = newFakeFanout()
	s.coordinator = NewCoordinator(s.registry, s.rooms, s.fanout, testutil.NopLogger())
	s.ctx = context.Background()

	for _, p := range []struct {
		id    string
		name  string
		score int
	}{
		{"player-a", "Alice", 5},
		{"player-b", "Bob", 3},
		{"player-c", "Carol", 0},
	} {
		_ = s.storage.SavePlayer(s.ctx, &model.Player{
			ID:          model.PlayerID(p.id),
			DisplayName: p.name,
			TotalScore:  p.score,
			IsGuest:     true,
		})
	}
}

func (s *CoordinatorSuite) dispatch(connID string, ev model.ClientEvent) {
	s.coordinator.Dispatch(s.ctx, model.ConnID(connID), ev)
}

// Registration

func (s *CoordinatorSuite) TestRegisterPlayerID() {
	s.dispatch("conn-1", model.RegisterPlayerID{PlayerID: "player-a"})

	playerID, ok := s.registry.Lookup("conn-1")
	s.True(ok)
	s.Equal(model.PlayerID("player-a"), playerID)
	s.Empty(s.fanout.deliveries)
}

// Queries

func (s *CoordinatorSuite) TestGetRoomsGoesToCallerOnly() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.fanout.reset()

	s.dispatch("conn-2", model.GetRooms{})

	deliveries := s.fanout.byEvent(model.EventUpdateRooms)
	s.Require().Len(deliveries, 1)
	s.Equal("send", deliveries[0].scope)
	s.Equal(model.ConnID("conn-2"), deliveries[0].conn)
	s.Equal([]model.RoomSummary{{Name: "alpha", MemberCount: 1}}, deliveries[0].payload)
}

func (s *CoordinatorSuite) TestGetRoomPlayers() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.fanout.reset()

	s.dispatch("conn-2", model.GetRoomPlayers{RoomName: "alpha"})

	deliveries := s.fanout.byEvent(model.EventPlayersInRoom)
	s.Require().Len(deliveries, 1)
	s.Equal("send", deliveries[0].scope)
	s.Equal([]model.RosterEntry{{Name: "Alice", Score: 5}}, deliveries[0].payload)
}

// Hosting

func (s *CoordinatorSuite) TestHostRoom() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})

	s.Equal([]model.RoomSummary{{Name: "alpha", MemberCount: 1}}, s.fanout.lastRoomList())

	joined := s.fanout.byEvent(model.EventPlayerJoined)
	s.Require().Len(joined, 1)
	s.Equal("room", joined[0].scope)
	s.Equal([]model.RosterEntry{{Name: "Alice", Score: 5}}, joined[0].payload)

	success := s.fanout.byEvent(model.EventJoinRoomSuccess)
	s.Require().Len(success, 1)
	s.Equal(model.ConnID("conn-1"), success[0].conn)
	s.Equal(model.JoinSuccess{RoomName: "alpha"}, success[0].payload)

	s.Contains(s.fanout.subs["alpha"], model.ConnID("conn-1"))
}

func (s *CoordinatorSuite) TestHostExistingRoomRejected() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.fanout.reset()

	s.dispatch("conn-2", model.HostRoom{RoomName: "alpha", Password: "y", PlayerID: "player-b"})

	errs := s.fanout.byEvent(model.EventRoomError)
	s.Require().Len(errs, 1)
	s.Equal(model.ConnID("conn-2"), errs[0].conn)
	s.Equal("Room already exists!", errs[0].payload)
	s.Empty(s.fanout.byEvent(model.EventUpdateRooms))
}

// Joining

func (s *CoordinatorSuite) TestJoinRoom() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.fanout.reset()

	s.dispatch("conn-2", model.JoinRoom{RoomName: "alpha", Password: "x", PlayerID: "player-b"})

	s.Equal([]model.RoomSummary{{Name: "alpha", MemberCount: 2}}, s.fanout.lastRoomList())

	joined := s.fanout.byEvent(model.EventPlayerJoined)
	s.Require().Len(joined, 1)
	s.Equal([]model.RosterEntry{
		{Name: "Alice", Score: 5},
		{Name: "Bob", Score: 3},
	}, joined[0].payload)

	s.Contains(s.fanout.subs["alpha"], model.ConnID("conn-2"))
}

func (s *CoordinatorSuite) TestJoinMissingRoom() {
	s.dispatch("conn-1", model.JoinRoom{RoomName: "beta", Password: "x", PlayerID: "player-a"})

	errs := s.fanout.byEvent(model.EventRoomError)
	s.Require().Len(errs, 1)
	s.Equal("Room does not exist!", errs[0].payload)

	// No room created, no broadcasts emitted
	s.Len(s.fanout.deliveries, 1)
	rooms, _ := s.rooms.ListPublicRooms(s.ctx)
	s.Empty(rooms)
}

func (s *CoordinatorSuite) TestJoinWrongPassword() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.fanout.reset()

	s.dispatch("conn-2", model.JoinRoom{RoomName: "alpha", Password: "wrong", PlayerID: "player-b"})

	errs := s.fanout.byEvent(model.EventRoomError)
	s.Require().Len(errs, 1)
	s.Equal("Incorrect password!", errs[0].payload)
}

func (s *CoordinatorSuite) TestJoinTwiceRejectedWithoutSideEffects() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.dispatch("conn-2", model.JoinRoom{RoomName: "alpha", Password: "x", PlayerID: "player-b"})
	s.fanout.reset()

	s.dispatch("conn-2", model.JoinRoom{RoomName: "alpha", Password: "x", PlayerID: "player-b"})

	errs := s.fanout.byEvent(model.EventRoomError)
	s.Require().Len(errs, 1)
	s.Equal("You are already in this room!", errs[0].payload)

	s.Len(s.fanout.deliveries, 1)
	roster, _ := s.rooms.ListMembers(s.ctx, "alpha")
	s.Len(roster, 2)
}

// Leaving

func (s *CoordinatorSuite) TestMemberLeaves() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.dispatch("conn-2", model.JoinRoom{RoomName: "alpha", Password: "x", PlayerID: "player-b"})
	s.fanout.reset()

	s.dispatch("conn-2", model.LeaveRoom{RoomName: "alpha", PlayerID: "player-b"})

	left := s.fanout.byEvent(model.EventPlayerLeft)
	s.Require().Len(left, 1)
	s.Equal("room", left[0].scope)
	s.Equal([]model.RosterEntry{{Name: "Alice", Score: 5}}, left[0].payload)

	s.Equal([]model.RoomSummary{{Name: "alpha", MemberCount: 1}}, s.fanout.lastRoomList())
	s.NotContains(s.fanout.subs["alpha"], model.ConnID("conn-2"))
}

func (s *CoordinatorSuite) TestHostLeaveDissolvesRoom() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.dispatch("conn-2", model.JoinRoom{RoomName: "alpha", Password: "x", PlayerID: "player-b"})
	s.fanout.reset()

	s.dispatch("conn-1", model.LeaveRoom{RoomName: "alpha", PlayerID: "player-a"})

	// Remaining members see an empty roster: the room is gone
	left := s.fanout.byEvent(model.EventPlayerLeft)
	s.Require().Len(left, 1)
	s.Empty(left[0].payload)

	s.Empty(s.fanout.lastRoomList())
	s.NotContains(s.fanout.subs, model.RoomName("alpha"))

	// Subsequent joins fail with not-found
	s.fanout.reset()
	s.dispatch("conn-3", model.JoinRoom{RoomName: "alpha", Password: "x", PlayerID: "player-c"})
	errs := s.fanout.byEvent(model.EventRoomError)
	s.Require().Len(errs, 1)
	s.Equal("Room does not exist!", errs[0].payload)
}

func (s *CoordinatorSuite) TestLeaveWithoutMembership() {
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.fanout.reset()

	s.dispatch("conn-2", model.LeaveRoom{RoomName: "alpha", PlayerID: "player-b"})

	errs := s.fanout.byEvent(model.EventRoomError)
	s.Require().Len(errs, 1)
	s.Equal("You are not in this room!", errs[0].payload)
}

// Disconnect cleanup

func (s *CoordinatorSuite) TestDisconnectUnregisteredConnection() {
	err := s.coordinator.Disconnect(s.ctx, "conn-1")
	s.NoError(err)
	s.Empty(s.fanout.deliveries)
}

func (s *CoordinatorSuite) TestDisconnectRemovesPlayerFromEveryRoom() {
	s.dispatch("conn-1", model.RegisterPlayerID{PlayerID: "player-a"})
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.dispatch("conn-2", model.HostRoom{RoomName: "beta", Password: "y", PlayerID: "player-b"})
	s.dispatch("conn-1", model.JoinRoom{RoomName: "beta", Password: "y", PlayerID: "player-a"})
	s.fanout.reset()

	err := s.coordinator.Disconnect(s.ctx, "conn-1")
	s.Require().NoError(err)

	// alpha was hosted by player-a and dissolved; beta lost a member
	rooms := s.fanout.lastRoomList()
	s.Equal([]model.RoomSummary{{Name: "beta", MemberCount: 1}}, rooms)

	_, ok := s.registry.Lookup("conn-1")
	s.False(ok)

	names, _ := s.rooms.RoomsForPlayer(s.ctx, "player-a")
	s.Empty(names)
}

func (s *CoordinatorSuite) TestDisconnectHostDissolvesRoomForMembers() {
	s.dispatch("conn-1", model.RegisterPlayerID{PlayerID: "player-a"})
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.dispatch("conn-2", model.JoinRoom{RoomName: "alpha", Password: "x", PlayerID: "player-b"})
	s.fanout.reset()

	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "conn-1"))

	left := s.fanout.byEvent(model.EventPlayerLeft)
	s.Require().Len(left, 1)
	s.Empty(left[0].payload)

	s.Empty(s.fanout.lastRoomList())
	s.NotContains(s.fanout.subs, model.RoomName("alpha"))
}

func (s *CoordinatorSuite) TestDisconnectFailureIsolatedPerRoom() {
	s.dispatch("conn-1", model.RegisterPlayerID{PlayerID: "player-a"})
	s.dispatch("conn-1", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.dispatch("conn-2", model.HostRoom{RoomName: "beta", Password: "y", PlayerID: "player-b"})
	s.dispatch("conn-1", model.JoinRoom{RoomName: "beta", Password: "y", PlayerID: "player-a"})

	boom := errors.New("store unavailable")
	flaky := &flakyStore{StoreInterface: s.rooms, failLeave: map[model.RoomName]error{"alpha": boom}}
	coordinator := NewCoordinator(s.registry, flaky, s.fanout, testutil.NopLogger())
	s.fanout.reset()

	err := coordinator.Disconnect(s.ctx, "conn-1")
	s.Require().ErrorIs(err, boom)

	// The failing room did not abort cleanup of the healthy one
	names, _ := s.rooms.RoomsForPlayer(s.ctx, "player-a")
	s.NotContains(names, model.RoomName("beta"))

	// Registry entry removed despite the partial failure
	_, ok := s.registry.Lookup("conn-1")
	s.False(ok)
}

// End-to-end scenario: host, join, duplicate join, host disconnect

func (s *CoordinatorSuite) TestLifecycleScenario() {
	s.dispatch("conn-a", model.RegisterPlayerID{PlayerID: "player-a"})
	s.dispatch("conn-b", model.RegisterPlayerID{PlayerID: "player-b"})

	s.dispatch("conn-a", model.HostRoom{RoomName: "alpha", Password: "x", PlayerID: "player-a"})
	s.Equal([]model.RoomSummary{{Name: "alpha", MemberCount: 1}}, s.fanout.lastRoomList())

	s.dispatch("conn-b", model.JoinRoom{RoomName: "alpha", Password: "x", PlayerID: "player-b"})
	s.Equal([]model.RoomSummary{{Name: "alpha", MemberCount: 2}}, s.fanout.lastRoomList())

	joined := s.fanout.byEvent(model.EventPlayerJoined)
	s.Require().NotEmpty(joined)
	s.Len(joined[len(joined)-1].payload.([]model.RosterEntry), 2)

	s.fanout.reset()
	s.dispatch("conn-b", model.JoinRoom{RoomName: "alpha", Password: "x", PlayerID: "player-b"})
	errs := s.fanout.byEvent(model.EventRoomError)
	s.Require().Len(errs, 1)
	s.Equal("You are already in this room!", errs[0].payload)

	s.fanout.reset()
	s.Require().NoError(s.coordinator.Disconnect(s.ctx, "conn-a"))
	s.Empty(s.fanout.lastRoomList())
	s.NotContains(s.fanout.subs, model.RoomName("alpha"))
}
