package model

import "time"

// RoomName is the unique, human-chosen identifier for a room. It acts
// as the primary key among live rooms.
type RoomName string

// Membership records that a player has joined a room
type Membership struct {
	PlayerID PlayerID
	JoinedAt time.Time
}

// Room represents a named, password-gated group of players with one host.
// A room exists only while its host remains a member: the host leaving,
// by explicit leave or disconnect cleanup, dissolves the whole room.
type Room struct {
	Name      RoomName
	Password  string // compared verbatim
	HostID    PlayerID
	Members   []Membership
	CreatedAt time.Time
	UpdatedAt time.Time
}

// GetMember returns the membership for the given player, or nil if the
// player has not joined this room
func (r *Room) GetMember(playerID PlayerID) *Membership {
	for i := range r.Members {
		if r.Members[i].PlayerID == playerID {
			return &r.Members[i]
		}
	}
	return nil
}

// RemoveMember deletes the membership for the given player, reporting
// whether one existed
func (r *Room) RemoveMember(playerID PlayerID) bool {
	for i, m := range r.Members {
		if m.PlayerID == playerID {
			r.Members = append(r.Members[:i], r.Members[i+1:]...)
			return true
		}
	}
	return false
}

// RoomSummary is one row of the public room list
type RoomSummary struct {
	Name        RoomName `json:"name"`
	MemberCount int      `json:"player_count"`
}

// RosterEntry is one row of a room's member roster, joined against the
// player directory
type RosterEntry struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}
