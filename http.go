package main

import (
	"errors"
	"net/http"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
)

// Thin request/response boundary: each handler translates one HTTP call
// into a store operation and maps the error kind to a status code. No game
// semantics live here.

type createLobbyRequest struct {
	Name     string    `json:"name"`
	Mode     string    `json:"mode"`
	HostID   uuid.UUID `json:"host_id"`
	HostName string    `json:"host_name"`
}

type lobbyResponse struct {
	LobbyID uuid.UUID `json:"lobby_id"`
	Code    string    `json:"code"`
	Name    string    `json:"name"`
	Mode    string    `json:"mode"`
}

type joinRequest struct {
	PlayerID uuid.UUID `json:"player_id"`
	Name     string    `json:"name"`
}

type leaveRequest struct {
	PlayerID uuid.UUID `json:"player_id"`
}

type lobbyStateResponse struct {
	LobbyID uuid.UUID     `json:"lobby_id"`
	Code    string        `json:"code"`
	Name    string        `json:"name"`
	Mode    string        `json:"mode"`
	Players []PlayerState `json:"players"`
}

type healthResponse struct {
	Status string    `json:"status"`
	Time   time.Time `json:"time"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// HandleHealth reports process liveness.
func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Time: time.Now().UTC()})
	}
}

// HandleCreateLobby creates a lobby with the host enrolled.
func HandleCreateLobby(store *LobbyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createLobbyRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		lobby := store.CreateLobby(req.Name, req.Mode, req.HostID, req.HostName)
		writeJSON(w, http.StatusOK, lobbyResponse{LobbyID: lobby.ID, Code: lobby.Code, Name: lobby.Name, Mode: lobby.Mode})
	}
}

// HandleJoinLobby admits a player and announces the join to connected
// clients.
func HandleJoinLobby(store *LobbyStore, fabric *ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		var req joinRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		lobby, err := store.JoinLobby(code, req.PlayerID, req.Name)
		switch {
		case errors.Is(err, ErrLobbyNotFound):
			http.Error(w, "Lobby not found", http.StatusNotFound)
			return
		case errors.Is(err, ErrLobbyFull):
			http.Error(w, "Lobby full", http.StatusConflict)
			return
		}

		fabric.Broadcast(code, ServerMessage{Type: "join", Payload: JoinPayload{PlayerID: req.PlayerID, Name: req.Name}}, nil)
		writeJSON(w, http.StatusOK, lobbyResponse{LobbyID: lobby.ID, Code: lobby.Code, Name: lobby.Name, Mode: lobby.Mode})
	}
}

// HandleLeaveLobby removes a player and announces the departure.
func HandleLeaveLobby(store *LobbyStore, fabric *ConnectionManager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		var req leaveRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if _, err := store.LeaveLobby(code, req.PlayerID); err != nil {
			http.Error(w, "Lobby not found", http.StatusNotFound)
			return
		}

		fabric.Broadcast(code, ServerMessage{Type: "leave", Payload: LeavePayload{PlayerID: req.PlayerID}}, nil)
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// HandleLobbyState returns lobby metadata and the current roster snapshot.
func HandleLobbyState(store *LobbyStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		lobby, ok := store.GetLobby(code)
		if !ok {
			http.Error(w, "Lobby not found", http.StatusNotFound)
			return
		}
		writeJSON(w, http.StatusOK, lobbyStateResponse{
			LobbyID: lobby.ID,
			Code:    lobby.Code,
			Name:    lobby.Name,
			Mode:    lobby.Mode,
			Players: store.ListPlayers(code),
		})
	}
}

// NewRouter wires every boundary endpoint plus the lobby websocket.
func NewRouter(store *LobbyStore, fabric *ConnectionManager, log zerolog.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/health", HandleHealth()).Methods(http.MethodGet)
	r.HandleFunc("/v1/lobbies", HandleCreateLobby(store)).Methods(http.MethodPost)
	r.HandleFunc("/v1/lobbies/{code}/join", HandleJoinLobby(store, fabric)).Methods(http.MethodPost)
	r.HandleFunc("/v1/lobbies/{code}/leave", HandleLeaveLobby(store, fabric)).Methods(http.MethodPost)
	r.HandleFunc("/v1/lobbies/{code}", HandleLobbyState(store)).Methods(http.MethodGet)
	r.HandleFunc("/v1/ws/{code}", HandleLobbyWebSocket(store, fabric, log))
	return r
}
