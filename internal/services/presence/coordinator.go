package presence

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mhutchin/wordrush/internal/model"
	"github.com/mhutchin/wordrush/internal/registry"
	"github.com/mhutchin/wordrush/internal/services/room"
)

// User-facing room error messages. Expected rejections (conflict,
// not-found, bad password, duplicate join) reuse these verbatim;
// infrastructure failures fall back to the generic ones.
const (
	msgRoomExists    = "Room already exists!"
	msgRoomNotFound  = "Room does not exist!"
	msgWrongPassword = "Incorrect password!"
	msgAlreadyMember = "You are already in this room!"
	msgNotInRoom     = "You are not in this room!"
	msgHostFailed    = "Failed to create room."
	msgJoinFailed    = "Failed to join room."
	msgLeaveFailed   = "Failed to leave room."
)

// Fanout delivers computed snapshots to subscriber sets. Delivery is
// fire-and-forget and at-most-once; a missed push is corrected by the
// next state change or an explicit get_rooms / get_room_players pull.
type Fanout interface {
	// SendTo delivers to a single connection
	SendTo(connID model.ConnID, event string, payload any)
	// BroadcastAll delivers to every live connection
	BroadcastAll(event string, payload any)
	// BroadcastRoom delivers to the connections subscribed to a room
	BroadcastRoom(name model.RoomName, event string, payload any)

	SubscribeRoom(connID model.ConnID, name model.RoomName)
	UnsubscribeRoom(connID model.ConnID, name model.RoomName)
	// DropRoom removes every subscription to a dissolved room
	DropRoom(name model.RoomName)
}

// Coordinator is the presence state machine. It validates membership
// events against the room store and the connection registry, applies
// them, and pushes the affected views out through the fanout.
//
// Every state mutation is followed, in the same handler, by
// recomputation and broadcast of the views it changed; that is the only
// consistency bridge between the persistent store and the in-process
// broadcast state.
type Coordinator struct {
	registry *registry.Registry
	rooms    room.StoreInterface
	fanout   Fanout
	logger   *slog.Logger
}

// NewCoordinator creates a new presence Coordinator
func NewCoordinator(reg *registry.Registry, rooms room.StoreInterface, fanout Fanout, logger *slog.Logger) *Coordinator {
	return &Coordinator{
		registry: reg,
		rooms:    rooms,
		fanout:   fanout,
		logger:   logger.With(slog.String("component", "presence")),
	}
}

// Dispatch processes one client event from one connection. It is the
// single entry point for the whole event surface, so the transition
// table lives in one place and the switch is checkable for
// exhaustiveness.
func (c *Coordinator) Dispatch(ctx context.Context, connID model.ConnID, ev model.ClientEvent) {
	switch e := ev.(type) {
	case model.RegisterPlayerID:
		c.registry.Register(connID, e.PlayerID)
		c.logger.Info("connection registered",
			slog.String("conn_id", string(connID)),
			slog.String("player_id", string(e.PlayerID)))

	case model.GetRooms:
		summaries, err := c.rooms.ListPublicRooms(ctx)
		if err != nil {
			c.logger.Error("room list query failed", slog.Any("error", err))
			return
		}
		c.fanout.SendTo(connID, model.EventUpdateRooms, summaries)

	case model.GetRoomPlayers:
		roster, err := c.rooms.ListMembers(ctx, e.RoomName)
		if err != nil {
			c.logger.Error("roster query failed",
				slog.String("room", string(e.RoomName)),
				slog.Any("error", err))
			return
		}
		c.fanout.SendTo(connID, model.EventPlayersInRoom, roster)

	case model.HostRoom:
		c.hostRoom(ctx, connID, e)

	case model.JoinRoom:
		c.joinRoom(ctx, connID, e)

	case model.LeaveRoom:
		c.leaveRoom(ctx, connID, e)
	}
}

func (c *Coordinator) hostRoom(ctx context.Context, connID model.ConnID, e model.HostRoom) {
	if err := c.rooms.Create(ctx, e.RoomName, e.Password, e.PlayerID); err != nil {
		if errors.Is(err, model.ErrRoomExists) {
			c.fanout.SendTo(connID, model.EventRoomError, msgRoomExists)
			return
		}
		c.logger.Error("room creation failed",
			slog.String("room", string(e.RoomName)),
			slog.Any("error", err))
		c.fanout.SendTo(connID, model.EventRoomError, msgHostFailed)
		return
	}

	c.logger.Info("room hosted",
		slog.String("room", string(e.RoomName)),
		slog.String("host_id", string(e.PlayerID)))

	c.fanout.SubscribeRoom(connID, e.RoomName)
	c.broadcastRoomList(ctx)
	c.broadcastRoster(ctx, e.RoomName, model.EventPlayerJoined)
	c.fanout.SendTo(connID, model.EventJoinRoomSuccess, model.JoinSuccess{RoomName: e.RoomName})
}

func (c *Coordinator) joinRoom(ctx context.Context, connID model.ConnID, e model.JoinRoom) {
	if err := c.rooms.Join(ctx, e.RoomName, e.Password, e.PlayerID); err != nil {
		switch {
		case errors.Is(err, model.ErrRoomNotFound):
			c.fanout.SendTo(connID, model.EventRoomError, msgRoomNotFound)
		case errors.Is(err, model.ErrWrongPassword):
			c.fanout.SendTo(connID, model.EventRoomError, msgWrongPassword)
		case errors.Is(err, model.ErrAlreadyMember):
			c.fanout.SendTo(connID, model.EventRoomError, msgAlreadyMember)
		default:
			c.logger.Error("room join failed",
				slog.String("room", string(e.RoomName)),
				slog.Any("error", err))
			c.fanout.SendTo(connID, model.EventRoomError, msgJoinFailed)
		}
		return
	}

	c.logger.Info("player joined room",
		slog.String("room", string(e.RoomName)),
		slog.String("player_id", string(e.PlayerID)))

	c.fanout.SubscribeRoom(connID, e.RoomName)
	c.broadcastRoster(ctx, e.RoomName, model.EventPlayerJoined)
	c.broadcastRoomList(ctx)
	c.fanout.SendTo(connID, model.EventJoinRoomSuccess, model.JoinSuccess{RoomName: e.RoomName})
}

func (c *Coordinator) leaveRoom(ctx context.Context, connID model.ConnID, e model.LeaveRoom) {
	dissolved, err := c.rooms.Leave(ctx, e.RoomName, e.PlayerID)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrRoomNotFound):
			c.fanout.SendTo(connID, model.EventRoomError, msgRoomNotFound)
		case errors.Is(err, model.ErrNotInRoom):
			c.fanout.SendTo(connID, model.EventRoomError, msgNotInRoom)
		default:
			c.logger.Error("room leave failed",
				slog.String("room", string(e.RoomName)),
				slog.Any("error", err))
			c.fanout.SendTo(connID, model.EventRoomError, msgLeaveFailed)
		}
		return
	}

	c.fanout.UnsubscribeRoom(connID, e.RoomName)
	c.broadcastRoster(ctx, e.RoomName, model.EventPlayerLeft)
	if dissolved {
		c.fanout.DropRoom(e.RoomName)
	}
	c.broadcastRoomList(ctx)
}

// Disconnect applies leave semantics to every room the disconnecting
// connection's player belongs to, then clears the registry entry. A
// failure in one room must not abort cleanup of the others; per-room
// errors are collected and reported together.
func (c *Coordinator) Disconnect(ctx context.Context, connID model.ConnID) error {
	playerID, ok := c.registry.Lookup(connID)
	if !ok {
		// Connection never registered a player; nothing to clean up
		return nil
	}
	defer c.registry.Remove(connID)

	names, err := c.rooms.RoomsForPlayer(ctx, playerID)
	if err != nil {
		c.logger.Error("disconnect cleanup query failed",
			slog.String("player_id", string(playerID)),
			slog.Any("error", err))
		return err
	}

	var errs []error
	for _, name := range names {
		dissolved, err := c.rooms.Leave(ctx, name, playerID)
		if err != nil {
			c.logger.Error("disconnect cleanup failed for room",
				slog.String("room", string(name)),
				slog.String("player_id", string(playerID)),
				slog.Any("error", err))
			errs = append(errs, fmt.Errorf("room %s: %w", name, err))
			continue
		}

		c.broadcastRoster(ctx, name, model.EventPlayerLeft)
		if dissolved {
			c.fanout.DropRoom(name)
		}
	}

	c.logger.Info("connection cleaned up",
		slog.String("conn_id", string(connID)),
		slog.String("player_id", string(playerID)),
		slog.Int("rooms", len(names)))

	c.broadcastRoomList(ctx)
	return errors.Join(errs...)
}

// broadcastRoomList recomputes the public room list and pushes it to
// every live connection
func (c *Coordinator) broadcastRoomList(ctx context.Context) {
	summaries, err := c.rooms.ListPublicRooms(ctx)
	if err != nil {
		c.logger.Error("room list recompute failed", slog.Any("error", err))
		return
	}
	c.fanout.BroadcastAll(model.EventUpdateRooms, summaries)
}

// broadcastRoster recomputes a room's roster and pushes it to the
// room's subscribers. For a dissolved room the roster is empty, which
// tells remaining subscribers the room is gone.
func (c *Coordinator) broadcastRoster(ctx context.Context, name model.RoomName, event string) {
	roster, err := c.rooms.ListMembers(ctx, name)
	if err != nil {
		c.logger.Error("roster recompute failed",
			slog.String("room", string(name)),
			slog.Any("error", err))
		return
	}
	c.fanout.BroadcastRoom(name, event, roster)
}
