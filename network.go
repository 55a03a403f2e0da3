package main

import (
	"errors"
	"net/http"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true // Lobbies are joined from arbitrary local-network origins
	},
}

var (
	errConnClosed   = errors.New("connection closed")
	errSlowConsumer = errors.New("send buffer full")
)

// Client is one live lobby connection. It owns the websocket, translates
// inbound frames into store mutations and fabric broadcasts, and drives its
// outbound side through a buffered send channel so no caller ever blocks on
// this socket.
type Client struct {
	Code     string
	PlayerID uuid.UUID
	Name     string

	conn   *websocket.Conn
	send   chan []byte
	done   chan struct{}
	once   sync.Once
	store  *LobbyStore
	fabric *ConnectionManager
	log    zerolog.Logger
}

// NewClient wraps an upgraded connection for the given lobby and identity.
func NewClient(code string, playerID uuid.UUID, name string, conn *websocket.Conn, store *LobbyStore, fabric *ConnectionManager, log zerolog.Logger) *Client {
	return &Client{
		Code:     code,
		PlayerID: playerID,
		Name:     name,
		conn:     conn,
		send:     make(chan []byte, WriteChannelSize),
		done:     make(chan struct{}),
		store:    store,
		fabric:   fabric,
		log:      log.With().Str("code", code).Stringer("player", playerID).Logger(),
	}
}

// Send queues a frame for delivery. It never blocks: a full buffer means
// the client is too slow and the frame is dropped.
func (c *Client) Send(data []byte) error {
	select {
	case <-c.done:
		return errConnClosed
	case c.send <- data:
		return nil
	default:
		return errSlowConsumer
	}
}

// WritePump drains the send channel onto the socket and keeps the
// connection alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait * time.Second))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(WriteWait * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump processes inbound frames strictly in arrival order until the
// connection dies, then runs the appropriate cleanup path.
func (c *Client) ReadPump() {
	peerClosed := false
	defer func() {
		c.teardown(peerClosed)
	}()

	c.conn.SetReadLimit(MaxMessageBytes)
	c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			peerClosed = websocket.IsCloseError(err,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived)
			if !peerClosed && websocket.IsUnexpectedCloseError(err, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Msg("websocket read failed")
			}
			return
		}

		msg, err := ParseClientMessage(data)
		if err != nil {
			if errors.Is(err, ErrBadPayload) {
				// Fails the message, not the connection
				c.fabric.SendTo(c.Code, c.PlayerID, ErrorEvent("bad_payload"))
				continue
			}
			// Malformed transport frame; terminate without a protocol error
			c.log.Warn().Err(err).Msg("malformed frame")
			return
		}

		c.handleMessage(msg)
	}
}

// handleMessage dispatches one decoded inbound message.
func (c *Client) handleMessage(msg InboundMessage) {
	switch m := msg.(type) {
	case PresenceMessage:
		updated, err := c.store.UpsertPresence(c.Code, m.PlayerID, m.Name, m.Lat, m.Lon, m.Heading, m.ZoneKey, m.ZoneLabel)
		if err != nil {
			// Lobby vanished mid-flight; drop silently
			return
		}
		// No exclusion: the sender receives the canonical echo too
		c.fabric.Broadcast(c.Code, ServerMessage{Type: "presence", Payload: *updated}, nil)

	case ShotMessage:
		roster := c.store.ListPlayers(c.Code)
		var shooter *PlayerState
		for i := range roster {
			if roster[i].ID == m.FromID {
				shooter = &roster[i]
				break
			}
		}
		if shooter == nil {
			c.fabric.SendTo(c.Code, c.PlayerID, ErrorEvent("shooter_not_found"))
			return
		}

		hit := ResolveHit(*shooter, roster, m.Heading, m.RangeM, m.TargetID)
		c.fabric.Broadcast(c.Code, ServerMessage{Type: "shot", Payload: ShotEventPayload{
			FromID:  m.FromID,
			Heading: m.Heading,
			RangeM:  m.RangeM,
			Ts:      m.Ts,
		}}, nil)
		if hit != nil {
			c.fabric.Broadcast(c.Code, ServerMessage{Type: "hit", Payload: HitPayload{
				FromID:    m.FromID,
				ToID:      hit.TargetID,
				DistanceM: hit.DistanceM,
				Ts:        time.Now().UTC(),
			}}, nil)
		}

	case PingMessage:
		c.fabric.SendTo(c.Code, c.PlayerID, ServerMessage{Type: "pong", Payload: PongPayload{Ts: time.Now().UTC()}})

	case UnknownMessage:
		c.log.Debug().Str("type", m.Type).Msg("unknown message type")
		c.fabric.SendTo(c.Code, c.PlayerID, ErrorEvent("unknown_message_type"))
	}
}

// teardown runs exactly once when the read loop exits. An explicit peer
// close removes the participant and announces the departure; any other
// fault only unregisters the transport, leaving the roster entry to the
// staleness sweep.
func (c *Client) teardown(peerClosed bool) {
	c.once.Do(func() {
		c.fabric.Disconnect(c.Code, c.PlayerID)
		if peerClosed {
			if _, err := c.store.LeaveLobby(c.Code, c.PlayerID); err == nil {
				c.fabric.Broadcast(c.Code, ServerMessage{Type: "leave", Payload: LeavePayload{PlayerID: c.PlayerID}}, nil)
			}
			c.log.Info().Msg("client left")
		} else {
			c.log.Info().Msg("client dropped")
		}
		close(c.done)
		c.conn.Close()
	})
}

// HandleLobbyWebSocket admits a connection into a lobby: validate identity,
// check the lobby exists, register with the fabric, announce the join, send
// the roster snapshot, then hand off to the pumps.
func HandleLobbyWebSocket(store *LobbyStore, fabric *ConnectionManager, log zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := mux.Vars(r)["code"]
		rawID := r.URL.Query().Get("player_id")
		name := r.URL.Query().Get("name")

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}

		playerID, err := uuid.Parse(rawID)
		if err != nil {
			rejectHandshake(conn, "bad_player_id")
			return
		}

		if _, ok := store.GetLobby(code); !ok {
			rejectHandshake(conn, "lobby_not_found")
			return
		}

		client := NewClient(code, playerID, name, conn, store, fabric, log)
		go client.WritePump()

		fabric.Connect(code, playerID, client)
		fabric.Broadcast(code, ServerMessage{Type: "join", Payload: JoinPayload{PlayerID: playerID, Name: name}}, &playerID)
		fabric.SendTo(code, playerID, ServerMessage{Type: "state", Payload: StatePayload{Players: store.ListPlayers(code)}})

		client.ReadPump()
	}
}

// rejectHandshake emits a single error event and closes with a policy
// violation before the connection ever reaches the fabric.
func rejectHandshake(conn *websocket.Conn, reason string) {
	deadline := time.Now().Add(WriteWait * time.Second)
	conn.SetWriteDeadline(deadline)
	if data, err := json.Marshal(ErrorEvent(reason)); err == nil {
		conn.WriteMessage(websocket.TextMessage, data)
	}
	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), deadline)
	conn.Close()
}
