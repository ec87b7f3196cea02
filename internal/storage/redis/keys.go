package redis

import (
	"fmt"

	"github.com/mhutchin/wordrush/internal/model"
)

// Key prefix for all lobby-related data
const keyPrefix = "wordrush"

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// registeredPlayerKey returns the Redis key for a RegisteredPlayer
func registeredPlayerKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:registered_player:%s", keyPrefix, playerID)
}

// usernameIndexKey returns the Redis key for the username -> player_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// roomKey returns the Redis key for a Room
func roomKey(name model.RoomName) string {
	return fmt.Sprintf("%s:room:%s", keyPrefix, name)
}

// roomsIndexKey returns the Redis key for the SET of live room names
func roomsIndexKey() string {
	return fmt.Sprintf("%s:idx:rooms", keyPrefix)
}

// roomsForPlayerIndexKey returns the Redis key for the SET of rooms a
// player is a member of
func roomsForPlayerIndexKey(playerID model.PlayerID) string {
	return fmt.Sprintf("%s:idx:rooms_for_player:%s", keyPrefix, playerID)
}

// dictionaryKey returns the Redis key for one category's word set
func dictionaryKey(category string) string {
	return fmt.Sprintf("%s:dictionary:%s", keyPrefix, category)
}
