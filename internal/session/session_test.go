package session

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandsalon/hautemonde/internal/protocol"
	"github.com/grandsalon/hautemonde/internal/relay"
)

// tableActor is one seat's handle on the game, host or replica alike.
type tableActor struct {
	id      string
	view    func() *protocol.Snapshot
	bid     func(cardIDs []string) error
	pass    func() error
	discard func(cardID string) error
}

func hostActor(h *Host, id string) tableActor {
	return tableActor{id: id, view: h.Snapshot, bid: h.PlaceBid, pass: h.Pass, discard: h.DiscardLuxury}
}

func replicaActor(r *Replica, id string) tableActor {
	return tableActor{id: id, view: r.View, bid: r.PlaceBid, pass: r.Pass, discard: r.DiscardLuxury}
}

// playUntilFinished drives every seat with the simplest money-moving policy:
// discharge an owed luxury discard, open the bidding with the smallest held
// card, otherwise pass. Intent errors are expected while a view lags behind
// the host and are retried against the next snapshot.
func playUntilFinished(t *testing.T, actors []tableActor) {
	t.Helper()

	deadline := time.Now().Add(30 * time.Second)
	for time.Now().Before(deadline) {
		done := true
		for _, a := range actors {
			view := a.view()
			if view == nil {
				done = false
				continue
			}
			if view.Finished() {
				continue
			}
			done = false

			me := view.Player(a.id)
			if me == nil {
				continue
			}
			if me.PendingDiscard {
				if lux := firstLuxuryID(me); lux != "" {
					_ = a.discard(lux)
					continue
				}
			}
			if view.Auction == nil {
				continue
			}
			if current := view.CurrentPlayer(); current == nil || current.ID != a.id {
				continue
			}
			if view.Auction.HighestBid == 0 && !view.Auction.Disgrace {
				if id := smallestHeldID(me); id != "" {
					_ = a.bid([]string{id})
					continue
				}
			}
			_ = a.pass()
		}
		if done {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("game did not finish in time")
}

func firstLuxuryID(p *protocol.PlayerSnapshot) string {
	for _, c := range p.StatusCards {
		if c.Kind == "luxury" {
			return c.ID
		}
	}
	return ""
}

func smallestHeldID(p *protocol.PlayerSnapshot) string {
	id, best := "", 0
	for _, c := range p.HeldMoney {
		if id == "" || c.Value < best {
			id, best = c.ID, c.Value
		}
	}
	return id
}

func TestFullGameOverMemoryRoom(t *testing.T) {
	room := newMemoryRoom()
	h, hostL := newTestHost(t, room, testSeats(3), 1234)
	rb, listB := newTestReplica(t, room, "b")
	rc, listC := newTestReplica(t, room, "c")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()
	go func() { _ = rb.Run(ctx) }()
	go func() { _ = rc.Run(ctx) }()

	require.NoError(t, h.StartGame())

	playUntilFinished(t, []tableActor{
		hostActor(h, "a"),
		replicaActor(rb, "b"),
		replicaActor(rc, "c"),
	})

	final := h.Snapshot()
	require.True(t, final.Finished())
	require.Len(t, final.Ranking, 3)
	assert.Equal(t, 4, final.EndTriggerCount)
	assert.GreaterOrEqual(t, len(final.Revealed), 4)
	assert.LessOrEqual(t, len(final.Revealed), 16)

	// Both replicas converge on the identical final standings.
	assert.Equal(t, final.Ranking, rb.View().Ranking)
	assert.Equal(t, final.Ranking, rc.View().Ranking)

	// Every settled auction reached every participant exactly once.
	rounds := len(final.Revealed)
	assert.Equal(t, rounds, hostL.resultCount())
	waitFor(t, func() bool { return listB.resultCount() == rounds }, "replica b results")
	waitFor(t, func() bool { return listC.resultCount() == rounds }, "replica c results")

	// The game start reached the replicas too.
	started := rb.Started()
	require.NotNil(t, started)
	assert.Equal(t, int64(1234), started.Seed)
}

func TestFullGameOverRelay(t *testing.T) {
	logger := testLogger()

	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	srv := relay.NewServer(relay.DefaultConfig(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-served:
		case <-time.After(5 * time.Second):
			t.Error("relay did not shut down")
		}
	})

	wsURL := "ws://" + ln.Addr().String() + "/ws"

	// The host creates the room, friends join with the shared room code.
	hostT, err := Dial(wsURL, logger)
	require.NoError(t, err)
	welcome, err := CreateRoom(hostT, "Anna", 0)
	require.NoError(t, err)
	require.NotEmpty(t, welcome.RoomID)
	assert.Equal(t, welcome.ParticipantID, welcome.HostID)
	assert.Equal(t, relay.DefaultTurnTimerSeconds, welcome.TurnTimerSeconds)

	transportB, err := Dial(wsURL, logger)
	require.NoError(t, err)
	welcomeB, err := JoinRoom(transportB, welcome.RoomID, "Bruno")
	require.NoError(t, err)

	transportC, err := Dial(wsURL, logger)
	require.NoError(t, err)
	welcomeC, err := JoinRoom(transportC, welcome.RoomID, "Chloé")
	require.NoError(t, err)

	// The host waits for a full table before dealing.
	update, err := AwaitRoomUpdate(hostT, func(u protocol.RoomUpdateData) bool {
		return len(u.Participants) == 3
	})
	require.NoError(t, err)

	hostL := &recordingListener{}
	h, err := NewHost(HostConfig{
		Config: Config{
			Transport: hostT,
			Listener:  hostL,
			Logger:    logger,
			RoomID:    welcome.RoomID,
			PlayerID:  welcome.ParticipantID,
		},
		Seed: 7,
	})
	require.NoError(t, err)
	h.SeatRoster(update.Participants)

	listB := &recordingListener{}
	rb, err := NewReplica(Config{
		Transport: transportB,
		Listener:  listB,
		Logger:    logger,
		RoomID:    welcome.RoomID,
		PlayerID:  welcomeB.ParticipantID,
	})
	require.NoError(t, err)

	listC := &recordingListener{}
	rc, err := NewReplica(Config{
		Transport: transportC,
		Listener:  listC,
		Logger:    logger,
		RoomID:    welcome.RoomID,
		PlayerID:  welcomeC.ParticipantID,
	})
	require.NoError(t, err)

	go func() { _ = h.Run(ctx) }()
	go func() { _ = rb.Run(ctx) }()
	go func() { _ = rc.Run(ctx) }()

	require.NoError(t, h.StartGame())

	playUntilFinished(t, []tableActor{
		hostActor(h, welcome.ParticipantID),
		replicaActor(rb, welcomeB.ParticipantID),
		replicaActor(rc, welcomeC.ParticipantID),
	})

	final := h.Snapshot()
	require.True(t, final.Finished())
	require.Len(t, final.Ranking, 3)
	assert.Equal(t, 4, final.EndTriggerCount)

	assert.Equal(t, final.Ranking, rb.View().Ranking)
	assert.Equal(t, final.Ranking, rc.View().Ranking)

	rounds := len(final.Revealed)
	waitFor(t, func() bool { return listB.resultCount() == rounds }, "replica b results")
	waitFor(t, func() bool { return listC.resultCount() == rounds }, "replica c results")
}

func TestRejoinReclaimsSeat(t *testing.T) {
	logger := testLogger()

	ln, err := net.Listen("tcp", "localhost:0")
	require.NoError(t, err)
	srv := relay.NewServer(relay.DefaultConfig(), logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, ln) }()
	t.Cleanup(func() {
		cancel()
		select {
		case <-served:
		case <-time.After(5 * time.Second):
			t.Error("relay did not shut down")
		}
	})

	wsURL := "ws://" + ln.Addr().String() + "/ws"

	hostT, err := Dial(wsURL, logger)
	require.NoError(t, err)
	welcome, err := CreateRoom(hostT, "Anna", 0)
	require.NoError(t, err)

	transportB, err := Dial(wsURL, logger)
	require.NoError(t, err)
	welcomeB, err := JoinRoom(transportB, welcome.RoomID, "Bruno")
	require.NoError(t, err)

	// Bruno's connection drops; the seat stays his.
	require.NoError(t, transportB.Close())
	_, err = AwaitRoomUpdate(hostT, func(u protocol.RoomUpdateData) bool {
		for _, p := range u.Participants {
			if p.ID == welcomeB.ParticipantID {
				return !p.Connected
			}
		}
		return false
	})
	require.NoError(t, err)

	transportB2, err := Dial(wsURL, logger)
	require.NoError(t, err)
	rejoined, err := RejoinRoom(transportB2, welcome.RoomID, welcomeB.ParticipantID)
	require.NoError(t, err)
	assert.Equal(t, welcomeB.ParticipantID, rejoined.ParticipantID)
	assert.Equal(t, welcomeB.Seat, rejoined.Seat)
	assert.Equal(t, welcome.RoomID, rejoined.RoomID)

	// Leaving gives the seat up for good.
	require.NoError(t, LeaveRoom(transportB2))
	_, err = AwaitRoomUpdate(hostT, func(u protocol.RoomUpdateData) bool {
		return len(u.Participants) == 1
	})
	require.NoError(t, err)

	transportB3, err := Dial(wsURL, logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = transportB3.Close() })
	_, err = RejoinRoom(transportB3, welcome.RoomID, welcomeB.ParticipantID)
	assert.ErrorContains(t, err, protocol.CodeUnknownParticipant)
}
