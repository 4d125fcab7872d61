// Package protocol defines the JSON wire format shared by the relay and the
// game sessions: the event envelope, its payloads, the full-state snapshot
// and the replay deduper.
//
// Everything on the wire is one Envelope shape. The relay interprets only
// the room lifecycle types and fans every other type out to the whole room,
// sender included, so every participant must treat incoming events as
// at-least-once delivery and suppress replays.
package protocol

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents a wire event type with type safety
type EventType string

// Wire event type constants
const (
	// Gameplay events, fanned out within a room
	EventGameStarted     EventType = "game_started"
	EventBidPlaced       EventType = "bid_placed"
	EventPassAuction     EventType = "pass_auction"
	EventLuxuryDiscarded EventType = "luxury_discarded"
	EventAuctionComplete EventType = "auction_complete"
	EventStateSync       EventType = "state_sync"
	EventTurnTimeout     EventType = "turn_timeout"

	// Room lifecycle, handled by the relay itself
	EventRoomCreate  EventType = "room_create"
	EventRoomJoin    EventType = "room_join"
	EventRoomRejoin  EventType = "room_rejoin"
	EventRoomLeave   EventType = "room_leave"
	EventRoomInfo    EventType = "room_info"
	EventRoomWelcome EventType = "room_welcome"
	EventRoomUpdate  EventType = "room_update"
	EventError       EventType = "error"
)

// String returns the string representation of the event type
func (t EventType) String() string {
	return string(t)
}

// Valid reports whether t belongs to the wire enumeration. Receivers drop
// unknown types with a debug log rather than failing.
func (t EventType) Valid() bool {
	switch t {
	case EventGameStarted, EventBidPlaced, EventPassAuction, EventLuxuryDiscarded,
		EventAuctionComplete, EventStateSync, EventTurnTimeout,
		EventRoomCreate, EventRoomJoin, EventRoomRejoin, EventRoomLeave,
		EventRoomInfo, EventRoomWelcome, EventRoomUpdate, EventError:
		return true
	}
	return false
}

// IsRoomRequest reports whether the relay handles this type itself instead
// of fanning it out.
func (t EventType) IsRoomRequest() bool {
	switch t {
	case EventRoomCreate, EventRoomJoin, EventRoomRejoin, EventRoomLeave, EventRoomInfo:
		return true
	}
	return false
}

// Envelope is the single message shape on the wire.
type Envelope struct {
	Type      EventType       `json:"type"`
	RoomID    string          `json:"roomId,omitempty"`
	Timestamp int64           `json:"timestamp"` // unix milliseconds
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope wraps a payload. The timestamp comes from the caller's clock;
// together with the type it forms the event's dedup identity, so senders
// must never reuse a (type, timestamp) pair.
func NewEnvelope(t EventType, roomID string, ts time.Time, payload any) (*Envelope, error) {
	var raw json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("protocol: marshal %s payload: %w", t, err)
		}
		raw = b
	}
	return &Envelope{
		Type:      t,
		RoomID:    roomID,
		Timestamp: ts.UnixMilli(),
		Data:      raw,
	}, nil
}

// Decode unmarshals the payload into v.
func (e *Envelope) Decode(v any) error {
	if len(e.Data) == 0 {
		return fmt.Errorf("protocol: %s envelope has no data", e.Type)
	}
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("protocol: decode %s payload: %w", e.Type, err)
	}
	return nil
}

// DedupKey returns the composite identity used for replay suppression.
func (e *Envelope) DedupKey() string {
	return fmt.Sprintf("%s:%d", e.Type, e.Timestamp)
}
