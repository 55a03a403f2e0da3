package main

import (
	"time"

	"github.com/google/uuid"
)

// Player represents a player's live state within one lobby
type Player struct {
	ID        uuid.UUID
	Name      string
	Lat       float64
	Lon       float64
	Heading   float64 // Degrees, 0-360
	ZoneKey   string  // Coarse grouping cell, derived when the client omits it
	ZoneLabel string
	LastSeen  time.Time
}

// NewPlayer creates a player at the neutral default position. Real
// coordinates arrive with the first presence update.
func NewPlayer(id uuid.UUID, name string) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		LastSeen: time.Now().UTC(),
	}
}

// Snapshot returns the wire-facing view of the player.
func (p *Player) Snapshot() PlayerState {
	return PlayerState{
		ID:        p.ID,
		Name:      p.Name,
		Lat:       p.Lat,
		Lon:       p.Lon,
		Heading:   p.Heading,
		ZoneKey:   p.ZoneKey,
		ZoneLabel: p.ZoneLabel,
		LastSeen:  p.LastSeen,
	}
}

// Stale reports whether the player's last update is older than the
// staleness window at the given instant.
func (p *Player) Stale(now time.Time) bool {
	return now.Sub(p.LastSeen) > StaleAfterSecs*time.Second
}

// Lobby represents a named, coded game session holding up to MaxPlayers
// participants. Lobbies live for the whole process; there is no expiry.
type Lobby struct {
	ID      uuid.UUID
	Code    string
	Name    string
	Mode    string
	Players map[uuid.UUID]*Player
}
