package session

import (
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/grandsalon/hautemonde/internal/game"
	"github.com/grandsalon/hautemonde/internal/protocol"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// memoryRoom wires transports together with the relay's delivery rule:
// every sent envelope is fanned out to all members, the sender included.
type memoryRoom struct {
	mu      sync.Mutex
	members []*memoryTransport
}

func newMemoryRoom() *memoryRoom {
	return &memoryRoom{}
}

// Join adds a member transport to the room.
func (m *memoryRoom) Join() *memoryTransport {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &memoryTransport{
		room:  m,
		inbox: make(chan *protocol.Envelope, 1024),
		done:  make(chan struct{}),
	}
	m.members = append(m.members, t)
	return t
}

func (m *memoryRoom) broadcast(env *protocol.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.members {
		select {
		case <-t.done:
		case t.inbox <- env:
		}
	}
}

// memoryTransport is an in-process Transport for session tests.
type memoryTransport struct {
	room      *memoryRoom
	inbox     chan *protocol.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func (t *memoryTransport) Send(env *protocol.Envelope) error {
	select {
	case <-t.done:
		return ErrTransportClosed
	default:
	}
	t.room.broadcast(env)
	return nil
}

func (t *memoryTransport) Receive() (*protocol.Envelope, error) {
	select {
	case env := <-t.inbox:
		return env, nil
	case <-t.done:
		return nil, ErrTransportClosed
	}
}

func (t *memoryTransport) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

// recordingListener captures every callback for later assertions.
type recordingListener struct {
	mu        sync.Mutex
	started   []protocol.GameStartedData
	snapshots []*protocol.Snapshot
	results   []protocol.AuctionCompleteData
	rooms     []protocol.RoomUpdateData
	errors    []protocol.ErrorData
}

func (l *recordingListener) OnGameStarted(data protocol.GameStartedData) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.started = append(l.started, data)
}

func (l *recordingListener) OnSnapshot(snap *protocol.Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.snapshots = append(l.snapshots, snap)
}

func (l *recordingListener) OnAuctionComplete(data protocol.AuctionCompleteData) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.results = append(l.results, data)
}

func (l *recordingListener) OnRoomUpdate(data protocol.RoomUpdateData) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rooms = append(l.rooms, data)
}

func (l *recordingListener) OnError(data protocol.ErrorData) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.errors = append(l.errors, data)
}

func (l *recordingListener) snapshotCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.snapshots)
}

func (l *recordingListener) lastSnapshot() *protocol.Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.snapshots) == 0 {
		return nil
	}
	return l.snapshots[len(l.snapshots)-1]
}

func (l *recordingListener) errorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.errors)
}

func (l *recordingListener) lastError() *protocol.ErrorData {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.errors) == 0 {
		return nil
	}
	return &l.errors[len(l.errors)-1]
}

func (l *recordingListener) resultCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.results)
}

// waitFor polls cond until it holds or the deadline lapses. Session loops
// run on their own goroutines, so cross-goroutine assertions poll.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// testSeats builds n seats named a, b, c, ...
func testSeats(n int) []game.Seat {
	seats := make([]game.Seat, n)
	for i := range seats {
		id := string(rune('a' + i))
		seats[i] = game.Seat{ID: id, Name: "Player " + id}
	}
	return seats
}

// newTestHost builds a host session over a fresh room with three seats and
// a recording listener. The host plays seat "a".
func newTestHost(t *testing.T, room *memoryRoom, seats []game.Seat, seed int64) (*Host, *recordingListener) {
	t.Helper()

	listener := &recordingListener{}
	h, err := NewHost(HostConfig{
		Config: Config{
			Transport: room.Join(),
			Listener:  listener,
			Logger:    testLogger(),
			RoomID:    "ROOM1",
			PlayerID:  seats[0].ID,
		},
		Seats: seats,
		Seed:  seed,
	})
	require.NoError(t, err)
	return h, listener
}

// envelopeFrom fakes a remote participant's envelope as the relay would
// deliver it. Timestamps are distinct per call.
var envelopeStamp int64 = time.Now().UnixMilli()

func envelopeFrom(t *testing.T, et protocol.EventType, payload any) *protocol.Envelope {
	t.Helper()
	envelopeStamp++
	env, err := protocol.NewEnvelope(et, "ROOM1", time.UnixMilli(envelopeStamp), payload)
	require.NoError(t, err)
	return env
}

// heldIDs returns card IDs from the player's held money matching the given
// denominations.
func heldIDs(t *testing.T, snap *protocol.Snapshot, playerID string, values ...int) []string {
	t.Helper()
	p := snap.Player(playerID)
	require.NotNil(t, p, "player %s not in snapshot", playerID)

	ids := make([]string, 0, len(values))
	for _, v := range values {
		found := false
		for _, c := range p.HeldMoney {
			if c.Value == v {
				ids = append(ids, c.ID)
				found = true
				break
			}
		}
		require.True(t, found, "player %s holds no %d card", playerID, v)
	}
	return ids
}
