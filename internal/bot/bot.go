package bot

import (
	"cmp"
	"io"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/grandsalon/hautemonde/internal/deck"
	"github.com/grandsalon/hautemonde/internal/protocol"
)

// Actor is the session surface a bot drives. Both the host and the replica
// session satisfy it.
type Actor interface {
	PlaceBid(cardIDs []string) error
	Pass() error
	DiscardLuxury(cardID string) error
}

// Action is what a bot does with its turn.
type Action int

const (
	Pass Action = iota
	Bid
	Discard
)

// String returns a readable token for logs
func (a Action) String() string {
	switch a {
	case Pass:
		return "pass"
	case Bid:
		return "bid"
	case Discard:
		return "discard"
	default:
		return "?"
	}
}

// Decision is one resolved move: the action, the cards it plays and the
// strategy's stated reason, which goes to the log.
type Decision struct {
	Action    Action
	CardIDs   []string // money cards for Bid, the one luxury for Discard
	Reasoning string
}

// Decider picks moves from the authoritative view. Implementations hold
// strategy only; the Bot decides when a move is owed.
type Decider interface {
	// BidOrPass is consulted when the seat is up in an open auction.
	BidOrPass(view *protocol.Snapshot, seat *protocol.PlayerSnapshot) Decision
	// PickDiscard is consulted when the seat owes a luxury discard and holds
	// at least one luxury.
	PickDiscard(view *protocol.Snapshot, seat *protocol.PlayerSnapshot) Decision
}

// Bot plays one seat without a human. Plugged into a session as its
// listener, it answers every adopted snapshot with at most one intent.
// Rejected intents are never retried here: a rejection means the decision
// raced a newer state, and the snapshot carrying that state re-triggers the
// bot anyway.
type Bot struct {
	playerID string
	decider  Decider
	logger   *log.Logger

	mu    sync.Mutex
	actor Actor
	final *protocol.Snapshot
	done  chan struct{}
}

// New creates a bot for a seat. Drive must be called with the seat's session
// before that session runs.
func New(playerID string, decider Decider, logger *log.Logger) *Bot {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Bot{
		playerID: playerID,
		decider:  decider,
		logger:   logger.WithPrefix("bot").With("player", playerID),
		done:     make(chan struct{}),
	}
}

// Drive binds the session the bot submits intents to. The bind comes after
// construction because the session is itself constructed with the bot as its
// listener.
func (b *Bot) Drive(actor Actor) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actor = actor
}

// Done is closed once a finished game has been observed.
func (b *Bot) Done() <-chan struct{} { return b.done }

// Final returns the finished snapshot, nil while the game still runs.
func (b *Bot) Final() *protocol.Snapshot {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.final
}

// OnGameStarted logs the table; play begins with the first snapshot.
func (b *Bot) OnGameStarted(data protocol.GameStartedData) {
	b.logger.Info("Game started", "seed", data.Seed, "players", len(data.Players))
}

// OnSnapshot reacts to the new authoritative state. A dischargeable luxury
// debt is settled before anything else; otherwise the bot moves only when
// the snapshot says it is up in an open auction.
func (b *Bot) OnSnapshot(snap *protocol.Snapshot) {
	if snap.Finished() {
		b.finish(snap)
		return
	}
	me := snap.Player(b.playerID)
	if me == nil {
		return
	}

	if me.PendingDiscard && len(luxuries(me)) > 0 {
		b.apply(b.decider.PickDiscard(snap, me))
		return
	}

	if snap.Auction == nil {
		return
	}
	if current := snap.CurrentPlayer(); current == nil || current.ID != b.playerID {
		return
	}
	b.apply(b.decider.BidOrPass(snap, me))
}

func (b *Bot) OnAuctionComplete(data protocol.AuctionCompleteData) {
	b.logger.Debug("Auction complete",
		"card", data.Card.ID, "winner", data.WinnerID, "bid", data.WinningBid)
}

func (b *Bot) OnRoomUpdate(data protocol.RoomUpdateData) {}

// OnError logs host rejections at debug; losing a race to a timeout or a
// faster seat is normal play.
func (b *Bot) OnError(data protocol.ErrorData) {
	b.logger.Debug("Intent rejected", "code", data.Code, "message", data.Message)
}

func (b *Bot) apply(d Decision) {
	b.mu.Lock()
	actor := b.actor
	b.mu.Unlock()
	if actor == nil {
		return
	}

	b.logger.Info("Decision", "action", d.Action, "cards", d.CardIDs, "reasoning", d.Reasoning)

	var err error
	switch d.Action {
	case Bid:
		err = actor.PlaceBid(d.CardIDs)
	case Discard:
		if len(d.CardIDs) != 1 {
			b.logger.Error("Discard decision needs exactly one card", "cards", d.CardIDs)
			return
		}
		err = actor.DiscardLuxury(d.CardIDs[0])
	default:
		err = actor.Pass()
	}
	if err != nil {
		b.logger.Debug("Intent not accepted", "action", d.Action, "error", err)
	}
}

func (b *Bot) finish(snap *protocol.Snapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.final != nil {
		return
	}
	b.final = snap
	close(b.done)

	for _, entry := range snap.Ranking {
		if entry.PlayerID == b.playerID {
			b.logger.Info("Game finished",
				"score", entry.Score, "remaining", entry.RemainingMoney, "castOut", entry.CastOut)
			return
		}
	}
}

// luxuries returns the seat's luxury cards, cheapest first.
func luxuries(seat *protocol.PlayerSnapshot) []protocol.CardInfo {
	lux := make([]protocol.CardInfo, 0, len(seat.StatusCards))
	for _, c := range seat.StatusCards {
		if c.Kind == deck.Luxury.String() {
			lux = append(lux, c)
		}
	}
	slices.SortFunc(lux, func(a, b protocol.CardInfo) int { return cmp.Compare(a.Value, b.Value) })
	return lux
}

// committed returns the seat's played-money total, which is its standing bid
// while an auction is open.
func committed(seat *protocol.PlayerSnapshot) int {
	return sumValues(seat.PlayedMoney)
}

func sumValues(cards []protocol.CardInfo) int {
	total := 0
	for _, c := range cards {
		total += c.Value
	}
	return total
}

func cardIDs(cards []protocol.CardInfo) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}
