package model

import "time"

// PlayerID uniquely identifies a player across the system.
// It is stable across reconnects; a client presents it again when
// registering a new connection.
type PlayerID string

// Player represents a game participant
type Player struct {
	ID          PlayerID
	DisplayName string
	TotalScore  int
	IsGuest     bool // true for unregistered players
	CreatedAt   time.Time
}

// RegisteredPlayer extends Player with authentication data
// Stored separately for security (password never in memory with session)
type RegisteredPlayer struct {
	PlayerID     PlayerID
	Username     string // login username (immutable)
	PasswordHash string // bcrypt hash
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ConnID identifies a live transport connection. Assigned at upgrade
// time, meaningless once the connection closes.
type ConnID string
