package main

import (
	"errors"
	"time"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
)

// ClientMessage is the envelope for incoming messages from clients
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// ServerMessage is the envelope for outgoing messages to clients
type ServerMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

// PlayerState is the wire representation of a participant
type PlayerState struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Heading   float64   `json:"heading"`
	ZoneKey   string    `json:"zone_key,omitempty"`
	ZoneLabel string    `json:"zone_label,omitempty"`
	LastSeen  time.Time `json:"last_seen"`
}

// PresencePayload is a client location/heading update
type PresencePayload struct {
	PlayerID  uuid.UUID `json:"player_id"`
	Name      string    `json:"name"`
	Lat       float64   `json:"lat"`
	Lon       float64   `json:"lon"`
	Heading   float64   `json:"heading"`
	ZoneKey   string    `json:"zone_key,omitempty"`
	ZoneLabel string    `json:"zone_label,omitempty"`
	Ts        time.Time `json:"ts"`
}

// ShotPayload is a client shot attempt
type ShotPayload struct {
	FromID   uuid.UUID  `json:"from_id"`
	Heading  float64    `json:"heading"`
	RangeM   float64    `json:"range_m"`
	TargetID *uuid.UUID `json:"target_id,omitempty"`
	Ts       time.Time  `json:"ts"`
}

// StatePayload carries the full roster snapshot sent on connect
type StatePayload struct {
	Players []PlayerState `json:"players"`
}

// JoinPayload announces a player joining the lobby
type JoinPayload struct {
	PlayerID uuid.UUID `json:"player_id"`
	Name     string    `json:"name"`
}

// LeavePayload announces a player leaving the lobby
type LeavePayload struct {
	PlayerID uuid.UUID `json:"player_id"`
}

// ShotEventPayload describes a shot attempt to the whole lobby
type ShotEventPayload struct {
	FromID  uuid.UUID `json:"from_id"`
	Heading float64   `json:"heading"`
	RangeM  float64   `json:"range_m"`
	Ts      time.Time `json:"ts"`
}

// HitPayload names the target of a resolved hit
type HitPayload struct {
	FromID    uuid.UUID `json:"from_id"`
	ToID      uuid.UUID `json:"to_id"`
	DistanceM float64   `json:"distance_m"`
	Ts        time.Time `json:"ts"`
}

// ErrorPayload carries a protocol-level error to one client
type ErrorPayload struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// PongPayload answers a client ping with the server clock
type PongPayload struct {
	Ts time.Time `json:"ts"`
}

// InboundMessage is the closed set of recognized client messages. Parsing
// produces exactly one variant per frame.
type InboundMessage interface {
	isInbound()
}

// PresenceMessage is a decoded presence update.
type PresenceMessage struct{ PresencePayload }

// ShotMessage is a decoded shot attempt.
type ShotMessage struct{ ShotPayload }

// PingMessage is a decoded keepalive probe.
type PingMessage struct{}

// UnknownMessage is produced for any unrecognized type tag.
type UnknownMessage struct{ Type string }

func (PresenceMessage) isInbound() {}
func (ShotMessage) isInbound()     {}
func (PingMessage) isInbound()     {}
func (UnknownMessage) isInbound()  {}

// ErrBadPayload marks a frame whose envelope was valid but whose payload
// did not match the shape its type tag requires. It fails the message, not
// the connection.
var ErrBadPayload = errors.New("bad payload")

// ParseClientMessage decodes a raw frame into a typed inbound message.
// A frame that is not a valid envelope is a transport fault and returns the
// unmarshal error; a recognized type with a malformed payload returns
// ErrBadPayload; an unrecognized type decodes to UnknownMessage.
func ParseClientMessage(data []byte) (InboundMessage, error) {
	var msg ClientMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}

	switch msg.Type {
	case "presence":
		var payload PresencePayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, ErrBadPayload
		}
		if payload.PlayerID == uuid.Nil {
			return nil, ErrBadPayload
		}
		return PresenceMessage{payload}, nil

	case "shot":
		var payload ShotPayload
		if err := json.Unmarshal(msg.Payload, &payload); err != nil {
			return nil, ErrBadPayload
		}
		if payload.FromID == uuid.Nil {
			return nil, ErrBadPayload
		}
		if payload.RangeM <= 0 {
			payload.RangeM = DefaultRangeM
		}
		return ShotMessage{payload}, nil

	case "ping":
		return PingMessage{}, nil

	default:
		return UnknownMessage{Type: msg.Type}, nil
	}
}

// ErrorEvent builds an error envelope with the default code.
func ErrorEvent(message string) ServerMessage {
	return ServerMessage{Type: "error", Payload: ErrorPayload{Message: message, Code: "bad_request"}}
}
