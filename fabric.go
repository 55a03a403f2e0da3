package main

import (
	"sync"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Transport is the minimal send surface the fabric needs from a live
// connection. Implementations must be safe for concurrent use.
type Transport interface {
	Send(data []byte) error
}

// ConnectionManager owns the live socket registry per lobby. Registrations
// live and die with the transport, independently of the store's roster; a
// connection may keep receiving broadcasts after its player went stale.
type ConnectionManager struct {
	mu    sync.Mutex
	conns map[string]map[uuid.UUID]Transport
	log   zerolog.Logger
}

// NewConnectionManager creates an empty registry.
func NewConnectionManager(log zerolog.Logger) *ConnectionManager {
	return &ConnectionManager{
		conns: make(map[string]map[uuid.UUID]Transport),
		log:   log.With().Str("component", "fabric").Logger(),
	}
}

// Connect registers a transport under (code, player), overwriting any prior
// registration for the same pair. The superseded transport is not closed.
func (m *ConnectionManager) Connect(code string, playerID uuid.UUID, t Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.conns[code]
	if !ok {
		room = make(map[uuid.UUID]Transport)
		m.conns[code] = room
	}
	room[playerID] = t
}

// Disconnect removes the registration if present. Idempotent.
func (m *ConnectionManager) Disconnect(code string, playerID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()

	room, ok := m.conns[code]
	if !ok {
		return
	}
	delete(room, playerID)
	if len(room) == 0 {
		delete(m.conns, code)
	}
}

// Broadcast delivers the event to every connection in the lobby except the
// excluded identity. Delivery is best-effort: the handle set is snapshotted
// under the lock, sends happen outside it, and per-recipient failures are
// swallowed so one dead connection never stalls the rest of the lobby.
func (m *ConnectionManager) Broadcast(code string, event ServerMessage, exclude *uuid.UUID) {
	data, err := json.Marshal(event)
	if err != nil {
		m.log.Error().Err(err).Str("type", event.Type).Msg("failed to marshal event")
		return
	}

	m.mu.Lock()
	room := m.conns[code]
	targets := make(map[uuid.UUID]Transport, len(room))
	for id, t := range room {
		targets[id] = t
	}
	m.mu.Unlock()

	for id, t := range targets {
		if exclude != nil && id == *exclude {
			continue
		}
		if err := t.Send(data); err != nil {
			m.log.Debug().Err(err).Str("code", code).Stringer("player", id).Msg("dropped broadcast")
		}
	}
}

// SendTo delivers the event to a single connection with the same
// best-effort semantics. A missing registration is a silent no-op.
func (m *ConnectionManager) SendTo(code string, playerID uuid.UUID, event ServerMessage) {
	m.mu.Lock()
	var t Transport
	if room, ok := m.conns[code]; ok {
		t = room[playerID]
	}
	m.mu.Unlock()

	if t == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		m.log.Error().Err(err).Str("type", event.Type).Msg("failed to marshal event")
		return
	}
	if err := t.Send(data); err != nil {
		m.log.Debug().Err(err).Str("code", code).Stringer("player", playerID).Msg("dropped unicast")
	}
}
