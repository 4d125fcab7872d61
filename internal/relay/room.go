package relay

import (
	"errors"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/grandsalon/hautemonde/internal/protocol"
)

// MaxRoomSize is the most participants a room can seat.
const MaxRoomSize = 5

var (
	ErrRoomNotFound       = errors.New("relay: room not found")
	ErrRoomFull           = errors.New("relay: room is full")
	ErrNotInRoom          = errors.New("relay: not in a room")
	ErrUnknownParticipant = errors.New("relay: unknown participant")
)

// Participant is one seat in a room. The seat survives disconnects; conn is
// nil while its owner is away.
type Participant struct {
	ID   string
	Name string
	Seat int
	conn *Connection
}

// Room groups participants and fans relayed envelopes out to every connected
// member, the sender included. The relay never inspects what it forwards.
type Room struct {
	id               string
	hostID           string
	size             int
	turnTimerSeconds int
	nextSeat         int
	participants     []*Participant
	logger           *log.Logger
	mu               sync.RWMutex
}

// NewRoom creates an empty room seating at most size participants.
func NewRoom(id string, size, turnTimerSeconds int, logger *log.Logger) *Room {
	if size < 1 || size > MaxRoomSize {
		size = MaxRoomSize
	}
	return &Room{
		id:               id,
		size:             size,
		turnTimerSeconds: turnTimerSeconds,
		logger:           logger.WithPrefix("room").With("room", id),
	}
}

// ID returns the room's identifier.
func (r *Room) ID() string {
	return r.id
}

// HostID returns the participant ID of the room's host. The first
// participant to be seated hosts for the room's whole life.
func (r *Room) HostID() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.hostID
}

// TurnTimerSeconds returns the room's turn timer, zero for none.
func (r *Room) TurnTimerSeconds() int {
	return r.turnTimerSeconds
}

// Join seats a new participant.
func (r *Room) Join(name string, conn *Connection) (*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.participants) >= r.size {
		return nil, ErrRoomFull
	}

	p := &Participant{
		ID:   uuid.New().String(),
		Name: name,
		Seat: r.nextSeat,
		conn: conn,
	}
	r.nextSeat++
	r.participants = append(r.participants, p)
	if r.hostID == "" {
		r.hostID = p.ID
	}

	r.logger.Info("Participant joined", "participant", p.ID, "name", name, "seat", p.Seat)
	return p, nil
}

// Rejoin hands a seat back to a returning participant.
func (r *Room) Rejoin(participantID string, conn *Connection) (*Participant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.participants {
		if p.ID != participantID {
			continue
		}
		if p.conn != nil {
			// A stale connection still holds the seat; evict it.
			_ = p.conn.Close()
		}
		p.conn = conn
		r.logger.Info("Participant rejoined", "participant", p.ID, "seat", p.Seat)
		return p, nil
	}

	return nil, ErrUnknownParticipant
}

// Disconnect clears the seat's connection without giving the seat away, so
// its owner can rejoin later.
func (r *Room) Disconnect(conn *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, p := range r.participants {
		if p.conn == conn {
			p.conn = nil
			r.logger.Info("Participant disconnected", "participant", p.ID, "seat", p.Seat)
			return
		}
	}
}

// Leave frees the seat for good. It reports whether the participant was
// seated.
func (r *Room) Leave(participantID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, p := range r.participants {
		if p.ID != participantID {
			continue
		}
		r.participants = append(r.participants[:i], r.participants[i+1:]...)
		r.logger.Info("Participant left", "participant", p.ID, "seat", p.Seat)
		return true
	}

	return false
}

// Broadcast queues the envelope on every connected participant, the sender
// included, and returns the number of successful deliveries.
func (r *Room) Broadcast(env *protocol.Envelope) int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, p := range r.participants {
		if p.conn == nil {
			continue
		}
		if err := p.conn.Send(env); err != nil {
			r.logger.Error("Failed to relay envelope", "error", err, "participant", p.ID)
			continue
		}
		count++
	}
	return count
}

// Participants returns the room's seating in seat order.
func (r *Room) Participants() []protocol.ParticipantInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]protocol.ParticipantInfo, len(r.participants))
	for i, p := range r.participants {
		infos[i] = protocol.ParticipantInfo{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			Connected: p.conn != nil,
		}
	}
	return infos
}

// IsEmpty reports whether every seat has been given up.
func (r *Room) IsEmpty() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.participants) == 0
}
