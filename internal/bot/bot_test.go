package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/grandsalon/hautemonde/internal/deck"
	"github.com/grandsalon/hautemonde/internal/game"
	"github.com/grandsalon/hautemonde/internal/protocol"
	"github.com/grandsalon/hautemonde/internal/randutil"
	"github.com/grandsalon/hautemonde/internal/session"
)

// fakeActor records the intents a bot submits.
type fakeActor struct {
	bids     [][]string
	passes   int
	discards []string
	err      error
}

func (f *fakeActor) PlaceBid(cardIDs []string) error {
	f.bids = append(f.bids, cardIDs)
	return f.err
}

func (f *fakeActor) Pass() error {
	f.passes++
	return f.err
}

func (f *fakeActor) DiscardLuxury(cardID string) error {
	f.discards = append(f.discards, cardID)
	return f.err
}

// scriptedDecider returns fixed decisions and counts consultations.
type scriptedDecider struct {
	move         Decision
	discard      Decision
	moveCalls    int
	discardCalls int
}

func (d *scriptedDecider) BidOrPass(view *protocol.Snapshot, seat *protocol.PlayerSnapshot) Decision {
	d.moveCalls++
	return d.move
}

func (d *scriptedDecider) PickDiscard(view *protocol.Snapshot, seat *protocol.PlayerSnapshot) Decision {
	d.discardCalls++
	return d.discard
}

func cashHand(values ...int) []protocol.CardInfo {
	cards := make([]protocol.CardInfo, len(values))
	for i, v := range values {
		cards[i] = protocol.CardInfo{ID: fmt.Sprintf("cash-%d", v), Kind: "money", Value: v}
	}
	return cards
}

func luxCard(id string, value int) protocol.CardInfo {
	return protocol.CardInfo{ID: id, Kind: "luxury", Value: value}
}

// auctionView builds an open-auction snapshot over the given seats, with
// every seat active and the turn on seats[turn].
func auctionView(turn int, card protocol.CardInfo, highest int, leaderID string, seats ...protocol.PlayerSnapshot) *protocol.Snapshot {
	ids := make([]string, len(seats))
	for i := range seats {
		ids[i] = seats[i].ID
	}
	return &protocol.Snapshot{
		Players:   seats,
		Phase:     game.PhaseAuction.String(),
		TurnIndex: turn,
		Auction: &protocol.AuctionSnapshot{
			Card:            card,
			ActivePlayerIDs: ids,
			HighestBid:      highest,
			LeaderID:        leaderID,
			Disgrace:        card.Kind == deck.FauxPas.String() || card.Kind == deck.Scandale.String(),
		},
	}
}

func TestBotActsOnlyOnItsTurn(t *testing.T) {
	dec := &scriptedDecider{move: Decision{Action: Pass, Reasoning: "scripted"}}
	actor := &fakeActor{}
	b := New("b", dec, nil)
	b.Drive(actor)

	seatA := protocol.PlayerSnapshot{ID: "a"}
	seatB := protocol.PlayerSnapshot{ID: "b", HeldMoney: cashHand(1000)}

	b.OnSnapshot(auctionView(0, luxCard("lux-05", 5), 0, "", seatA, seatB))
	assert.Zero(t, dec.moveCalls, "bot consulted the decider off turn")
	assert.Zero(t, actor.passes)

	b.OnSnapshot(auctionView(1, luxCard("lux-05", 5), 0, "", seatA, seatB))
	assert.Equal(t, 1, dec.moveCalls)
	assert.Equal(t, 1, actor.passes)
}

func TestBotAppliesBidDecision(t *testing.T) {
	dec := &scriptedDecider{move: Decision{Action: Bid, CardIDs: []string{"cash-2000"}, Reasoning: "scripted"}}
	actor := &fakeActor{}
	b := New("b", dec, nil)
	b.Drive(actor)

	seatA := protocol.PlayerSnapshot{ID: "a"}
	seatB := protocol.PlayerSnapshot{ID: "b", HeldMoney: cashHand(2000)}
	b.OnSnapshot(auctionView(1, luxCard("lux-05", 5), 0, "", seatA, seatB))

	require.Len(t, actor.bids, 1)
	assert.Equal(t, []string{"cash-2000"}, actor.bids[0])
}

func TestBotSettlesLuxuryDebtFirst(t *testing.T) {
	dec := &scriptedDecider{discard: Decision{Action: Discard, CardIDs: []string{"lux-02"}, Reasoning: "scripted"}}
	actor := &fakeActor{}
	b := New("b", dec, nil)
	b.Drive(actor)

	view := &protocol.Snapshot{
		Players: []protocol.PlayerSnapshot{
			{ID: "a"},
			{ID: "b", PendingDiscard: true, StatusCards: []protocol.CardInfo{
				{ID: "faux-pas", Kind: "faux-pas"},
				luxCard("lux-02", 2),
			}},
		},
		Phase: game.PhaseAuction.String(),
	}
	b.OnSnapshot(view)

	assert.Equal(t, 1, dec.discardCalls)
	assert.Zero(t, dec.moveCalls)
	assert.Equal(t, []string{"lux-02"}, actor.discards)
}

func TestBotWaitsOutUndischargeableDebt(t *testing.T) {
	dec := &scriptedDecider{}
	actor := &fakeActor{}
	b := New("b", dec, nil)
	b.Drive(actor)

	// Pending discard with no luxury to give: the obligation is dormant and
	// the round goes on without it.
	view := &protocol.Snapshot{
		Players: []protocol.PlayerSnapshot{
			{ID: "a"},
			{ID: "b", PendingDiscard: true, StatusCards: []protocol.CardInfo{{ID: "faux-pas", Kind: "faux-pas"}}},
		},
		Phase: game.PhaseAuction.String(),
	}
	b.OnSnapshot(view)

	assert.Zero(t, dec.discardCalls)
	assert.Empty(t, actor.discards)
}

func TestBotWithoutActorStaysQuiet(t *testing.T) {
	dec := &scriptedDecider{move: Decision{Action: Pass}}
	b := New("b", dec, nil)

	seatA := protocol.PlayerSnapshot{ID: "a"}
	seatB := protocol.PlayerSnapshot{ID: "b"}
	b.OnSnapshot(auctionView(1, luxCard("lux-05", 5), 0, "", seatA, seatB))
	// No actor bound, nothing to assert beyond not panicking.
}

func TestBotClosesDoneOnFinish(t *testing.T) {
	dec := &scriptedDecider{}
	actor := &fakeActor{}
	b := New("b", dec, nil)
	b.Drive(actor)

	select {
	case <-b.Done():
		t.Fatal("done closed before the game finished")
	default:
	}

	final := &protocol.Snapshot{
		Phase:   game.PhaseFinished.String(),
		Ranking: []protocol.RankingEntry{{PlayerID: "b", Score: 9}},
	}
	b.OnSnapshot(final)

	select {
	case <-b.Done():
	default:
		t.Fatal("done not closed on the finished snapshot")
	}
	require.Same(t, final, b.Final())

	// A second finished snapshot changes nothing.
	b.OnSnapshot(&protocol.Snapshot{Phase: game.PhaseFinished.String()})
	assert.Same(t, final, b.Final())
	assert.Zero(t, dec.moveCalls)
	assert.Zero(t, actor.passes)
}

func TestBotSurvivesRejectedIntent(t *testing.T) {
	dec := &scriptedDecider{move: Decision{Action: Pass, Reasoning: "scripted"}}
	actor := &fakeActor{err: errors.New("not your turn")}
	b := New("b", dec, nil)
	b.Drive(actor)

	seatA := protocol.PlayerSnapshot{ID: "a"}
	seatB := protocol.PlayerSnapshot{ID: "b"}
	view := auctionView(1, luxCard("lux-05", 5), 0, "", seatA, seatB)

	b.OnSnapshot(view)
	b.OnSnapshot(view)
	assert.Equal(t, 2, actor.passes, "a rejection must not stop later decisions")
}

// botRoom fans envelopes out to every member, the sender included, the way
// the relay does.
type botRoom struct {
	mu      sync.Mutex
	members []*botTransport
}

func (m *botRoom) Join() *botTransport {
	m.mu.Lock()
	defer m.mu.Unlock()

	tr := &botTransport{
		room:  m,
		inbox: make(chan *protocol.Envelope, 1024),
		done:  make(chan struct{}),
	}
	m.members = append(m.members, tr)
	return tr
}

func (m *botRoom) broadcast(env *protocol.Envelope) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, tr := range m.members {
		select {
		case <-tr.done:
		case tr.inbox <- env:
		}
	}
}

type botTransport struct {
	room      *botRoom
	inbox     chan *protocol.Envelope
	done      chan struct{}
	closeOnce sync.Once
}

func (t *botTransport) Send(env *protocol.Envelope) error {
	select {
	case <-t.done:
		return session.ErrTransportClosed
	default:
	}
	t.room.broadcast(env)
	return nil
}

func (t *botTransport) Receive() (*protocol.Envelope, error) {
	select {
	case env := <-t.inbox:
		return env, nil
	case <-t.done:
		return nil, session.ErrTransportClosed
	}
}

func (t *botTransport) Close() error {
	t.closeOnce.Do(func() { close(t.done) })
	return nil
}

// TestBotsPlayFullGame seats a value bot as host, a second value bot and a
// timid bot as replicas, and lets them play a whole game unattended.
func TestBotsPlayFullGame(t *testing.T) {
	room := &botRoom{}
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	seats := []game.Seat{
		{ID: "anna", Name: "Anna"},
		{ID: "bruno", Name: "Bruno"},
		{ID: "chloe", Name: "Chloé"},
	}

	rng := randutil.New(7)
	hostBot := New("anna", NewValueBot(rng), logger)
	h, err := session.NewHost(session.HostConfig{
		Config: session.Config{
			Transport: room.Join(),
			Listener:  hostBot,
			Logger:    logger,
			RoomID:    "BOTS",
			PlayerID:  "anna",
		},
		Seats: seats,
		Seed:  2024,
	})
	require.NoError(t, err)
	hostBot.Drive(h)

	newReplicaBot := func(id string, dec Decider) (*Bot, *session.Replica) {
		rb := New(id, dec, logger)
		r, err := session.NewReplica(session.Config{
			Transport: room.Join(),
			Listener:  rb,
			Logger:    logger,
			RoomID:    "BOTS",
			PlayerID:  id,
		})
		require.NoError(t, err)
		rb.Drive(r)
		return rb, r
	}
	brunoBot, brunoSession := newReplicaBot("bruno", NewValueBot(rng))
	chloeBot, chloeSession := newReplicaBot("chloe", NewTimidBot())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = h.Run(ctx) }()
	go func() { _ = brunoSession.Run(ctx) }()
	go func() { _ = chloeSession.Run(ctx) }()

	require.NoError(t, h.StartGame())

	for _, b := range []*Bot{hostBot, brunoBot, chloeBot} {
		select {
		case <-b.Done():
		case <-time.After(10 * time.Second):
			t.Fatal("bots did not finish the game")
		}
	}

	final := hostBot.Final()
	require.NotNil(t, final)
	require.True(t, final.Finished())
	require.Len(t, final.Ranking, 3)

	// Every seat converged on the same standings.
	assert.Equal(t, final.Ranking, brunoBot.Final().Ranking)
	assert.Equal(t, final.Ranking, chloeBot.Final().Ranking)

	// The timid bot never spends, so its allotment survives intact.
	chloe := chloeBot.Final().Player("chloe")
	require.NotNil(t, chloe)
	assert.Equal(t, deck.AllotmentTotal, sumValues(chloe.HeldMoney))
}
