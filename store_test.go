package main

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore() *LobbyStore {
	return NewLobbyStore(zerolog.Nop())
}

func TestCreateLobbyEnrollsHost(t *testing.T) {
	store := newTestStore()
	hostID := uuid.New()

	lobby := store.CreateLobby("Alley Cats", "deathmatch", hostID, "Ann")

	assert.Len(t, lobby.Code, LobbyCodeLen)
	assert.Equal(t, "Alley Cats", lobby.Name)
	assert.Equal(t, "deathmatch", lobby.Mode)

	players := store.ListPlayers(lobby.Code)
	require.Len(t, players, 1)
	assert.Equal(t, hostID, players[0].ID)
	assert.Equal(t, "Ann", players[0].Name)
	assert.Zero(t, players[0].Lat)
	assert.Zero(t, players[0].Lon)
	assert.Zero(t, players[0].Heading)
	assert.Empty(t, players[0].ZoneKey)
	assert.Empty(t, players[0].ZoneLabel)
}

func TestLobbyCodesAreWellFormedAndUnique(t *testing.T) {
	store := newTestStore()
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		lobby := store.CreateLobby("l", "m", uuid.New(), "host")
		require.Len(t, lobby.Code, LobbyCodeLen)
		for _, c := range lobby.Code {
			assert.True(t, strings.ContainsRune(LobbyCodeChars, c), "unexpected code char %q", c)
		}
		assert.False(t, seen[lobby.Code], "duplicate live code %s", lobby.Code)
		seen[lobby.Code] = true
	}
}

func TestJoinLobbyUnknownCode(t *testing.T) {
	store := newTestStore()
	_, err := store.JoinLobby("ZZZZ", uuid.New(), "Bea")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestJoinLobbyCapacity(t *testing.T) {
	store := newTestStore()
	lobby := store.CreateLobby("l", "m", uuid.New(), "host")

	for i := 1; i < MaxPlayers; i++ {
		_, err := store.JoinLobby(lobby.Code, uuid.New(), fmt.Sprintf("p%d", i))
		require.NoError(t, err)
	}
	require.Len(t, store.ListPlayers(lobby.Code), MaxPlayers)

	// The 17th concurrent participant never gets in
	_, err := store.JoinLobby(lobby.Code, uuid.New(), "late")
	assert.ErrorIs(t, err, ErrLobbyFull)
	assert.Len(t, store.ListPlayers(lobby.Code), MaxPlayers)
}

func TestLeaveLobbyIdempotent(t *testing.T) {
	store := newTestStore()
	lobby := store.CreateLobby("l", "m", uuid.New(), "host")

	stranger := uuid.New()
	_, err := store.LeaveLobby(lobby.Code, stranger)
	assert.NoError(t, err)

	_, err = store.LeaveLobby("ZZZZ", stranger)
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestLeaveLobbyRemovesPlayer(t *testing.T) {
	store := newTestStore()
	hostID := uuid.New()
	lobby := store.CreateLobby("l", "m", hostID, "host")

	_, err := store.LeaveLobby(lobby.Code, hostID)
	require.NoError(t, err)
	assert.Empty(t, store.ListPlayers(lobby.Code))
}

func TestUpsertPresenceResurrection(t *testing.T) {
	store := newTestStore()
	lobby := store.CreateLobby("l", "m", uuid.New(), "host")

	// An identity that never joined still gets a roster entry
	ghost := uuid.New()
	snap, err := store.UpsertPresence(lobby.Code, ghost, "Gus", 51.5, -0.1, 45, "", "")
	require.NoError(t, err)
	assert.Equal(t, ghost, snap.ID)
	assert.Equal(t, 51.5, snap.Lat)
	assert.Len(t, store.ListPlayers(lobby.Code), 2)
}

func TestUpsertPresenceUnknownLobby(t *testing.T) {
	store := newTestStore()
	_, err := store.UpsertPresence("ZZZZ", uuid.New(), "Gus", 0, 0, 0, "", "")
	assert.ErrorIs(t, err, ErrLobbyNotFound)
}

func TestUpsertPresenceDerivesZoneInfo(t *testing.T) {
	store := newTestStore()
	hostID := uuid.New()
	lobby := store.CreateLobby("l", "m", hostID, "host")

	snap, err := store.UpsertPresence(lobby.Code, hostID, "host", 0.1234, 0.4567, 10, "", "")
	require.NoError(t, err)
	assert.Equal(t, ZoneKey(0.1234, 0.4567), snap.ZoneKey)
	assert.Equal(t, ZoneLabel(0.1234, 0.4567), snap.ZoneLabel)

	// Client-supplied zone info wins over derivation
	snap, err = store.UpsertPresence(lobby.Code, hostID, "host", 0.1234, 0.4567, 10, "custom", "GRID-X")
	require.NoError(t, err)
	assert.Equal(t, "custom", snap.ZoneKey)
	assert.Equal(t, "GRID-X", snap.ZoneLabel)
}

func TestUpsertPresenceAdvancesLastSeen(t *testing.T) {
	store := newTestStore()
	hostID := uuid.New()
	lobby := store.CreateLobby("l", "m", hostID, "host")

	first, err := store.UpsertPresence(lobby.Code, hostID, "host", 0, 0, 0, "", "")
	require.NoError(t, err)
	second, err := store.UpsertPresence(lobby.Code, hostID, "host", 0, 0, 0, "", "")
	require.NoError(t, err)
	assert.False(t, second.LastSeen.Before(first.LastSeen))
}

func TestStalePlayersEvictedOnRead(t *testing.T) {
	store := newTestStore()
	hostID := uuid.New()
	lobby := store.CreateLobby("l", "m", hostID, "host")

	// Back-date the host past the staleness window
	l, ok := store.GetLobby(lobby.Code)
	require.True(t, ok)
	store.mu.Lock()
	l.Players[hostID].LastSeen = time.Now().UTC().Add(-(StaleAfterSecs + 1) * time.Second)
	store.mu.Unlock()

	assert.Empty(t, store.ListPlayers(lobby.Code))
}

func TestStalePlayersEvictedOnUpsert(t *testing.T) {
	store := newTestStore()
	hostID := uuid.New()
	lobby := store.CreateLobby("l", "m", hostID, "host")

	l, ok := store.GetLobby(lobby.Code)
	require.True(t, ok)
	store.mu.Lock()
	l.Players[hostID].LastSeen = time.Now().UTC().Add(-(StaleAfterSecs + 1) * time.Second)
	store.mu.Unlock()

	fresh := uuid.New()
	_, err := store.UpsertPresence(lobby.Code, fresh, "Flo", 0, 0, 0, "", "")
	require.NoError(t, err)

	players := store.ListPlayers(lobby.Code)
	require.Len(t, players, 1)
	assert.Equal(t, fresh, players[0].ID)
}

func TestFreshPlayerSurvivesSweep(t *testing.T) {
	store := newTestStore()
	hostID := uuid.New()
	lobby := store.CreateLobby("l", "m", hostID, "host")

	l, ok := store.GetLobby(lobby.Code)
	require.True(t, ok)
	store.mu.Lock()
	l.Players[hostID].LastSeen = time.Now().UTC().Add(-(StaleAfterSecs - 1) * time.Second)
	store.mu.Unlock()

	assert.Len(t, store.ListPlayers(lobby.Code), 1)
}

func TestListPlayersUnknownCode(t *testing.T) {
	store := newTestStore()
	assert.Empty(t, store.ListPlayers("NOPE"))
}
