package main

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var (
	// ErrLobbyNotFound reports an unknown lobby code.
	ErrLobbyNotFound = errors.New("lobby not found")
	// ErrLobbyFull reports a join attempt against a lobby at capacity.
	ErrLobbyFull = errors.New("lobby full")
)

// LobbyStore owns all lobbies and their rosters. One mutex guards the whole
// table; every critical section is O(players in one lobby) and never
// performs I/O.
type LobbyStore struct {
	mu      sync.Mutex
	lobbies map[string]*Lobby
	log     zerolog.Logger
}

// NewLobbyStore creates an empty store.
func NewLobbyStore(log zerolog.Logger) *LobbyStore {
	return &LobbyStore{
		lobbies: make(map[string]*Lobby),
		log:     log.With().Str("component", "store").Logger(),
	}
}

// CreateLobby registers a new lobby under a freshly generated code with the
// host already enrolled at the neutral default position.
func (s *LobbyStore) CreateLobby(name, mode string, hostID uuid.UUID, hostName string) *Lobby {
	s.mu.Lock()
	defer s.mu.Unlock()

	code := s.generateCodeLocked()
	lobby := &Lobby{
		ID:      uuid.New(),
		Code:    code,
		Name:    name,
		Mode:    mode,
		Players: make(map[uuid.UUID]*Player),
	}
	lobby.Players[hostID] = NewPlayer(hostID, hostName)
	s.lobbies[code] = lobby

	s.log.Info().Str("code", code).Str("name", name).Str("mode", mode).Msg("lobby created")
	return lobby
}

// GetLobby returns the lobby for the given code, if it exists.
func (s *LobbyStore) GetLobby(code string) (*Lobby, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	lobby, ok := s.lobbies[code]
	return lobby, ok
}

// JoinLobby inserts a new participant at the neutral defaults. Position and
// heading are unknown until the first presence update.
func (s *LobbyStore) JoinLobby(code string, playerID uuid.UUID, name string) (*Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, ok := s.lobbies[code]
	if !ok {
		return nil, ErrLobbyNotFound
	}
	if len(lobby.Players) >= MaxPlayers {
		return nil, ErrLobbyFull
	}
	lobby.Players[playerID] = NewPlayer(playerID, name)

	s.log.Info().Str("code", code).Stringer("player", playerID).Str("name", name).Msg("player joined")
	return lobby, nil
}

// LeaveLobby removes the participant if present. Removing an absent
// participant is a no-op.
func (s *LobbyStore) LeaveLobby(code string, playerID uuid.UUID) (*Lobby, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, ok := s.lobbies[code]
	if !ok {
		return nil, ErrLobbyNotFound
	}
	delete(lobby.Players, playerID)
	return lobby, nil
}

// UpsertPresence unconditionally creates or replaces the participant record
// for the given identity; it does not require a prior join. Empty zone info
// is derived from the coordinates. Every call also sweeps stale players
// from the lobby.
func (s *LobbyStore) UpsertPresence(code string, playerID uuid.UUID, name string, lat, lon, heading float64, zoneKey, zoneLabel string) (*PlayerState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, ok := s.lobbies[code]
	if !ok {
		return nil, ErrLobbyNotFound
	}

	if zoneKey == "" {
		zoneKey = ZoneKey(lat, lon)
	}
	if zoneLabel == "" {
		zoneLabel = ZoneLabel(lat, lon)
	}

	player := &Player{
		ID:        playerID,
		Name:      name,
		Lat:       lat,
		Lon:       lon,
		Heading:   heading,
		ZoneKey:   zoneKey,
		ZoneLabel: zoneLabel,
		LastSeen:  time.Now().UTC(),
	}
	lobby.Players[playerID] = player
	s.pruneStaleLocked(lobby)

	snapshot := player.Snapshot()
	return &snapshot, nil
}

// ListPlayers sweeps stale players and returns a snapshot of the remaining
// roster. Unknown codes yield an empty slice, not an error.
func (s *LobbyStore) ListPlayers(code string) []PlayerState {
	s.mu.Lock()
	defer s.mu.Unlock()

	lobby, ok := s.lobbies[code]
	if !ok {
		return []PlayerState{}
	}
	s.pruneStaleLocked(lobby)

	players := make([]PlayerState, 0, len(lobby.Players))
	for _, player := range lobby.Players {
		players = append(players, player.Snapshot())
	}
	return players
}

// generateCodeLocked draws codes until one does not collide with a
// currently live lobby. Caller must hold the store lock.
func (s *LobbyStore) generateCodeLocked() string {
	for {
		code := RandomLobbyCode()
		if _, exists := s.lobbies[code]; !exists {
			return code
		}
	}
}

// pruneStaleLocked evicts every player whose last update is older than the
// staleness window. Lazy eviction only; it never touches connections.
func (s *LobbyStore) pruneStaleLocked(lobby *Lobby) {
	now := time.Now().UTC()
	for id, player := range lobby.Players {
		if player.Stale(now) {
			delete(lobby.Players, id)
			s.log.Debug().Str("code", lobby.Code).Stringer("player", id).Msg("evicted stale player")
		}
	}
}
