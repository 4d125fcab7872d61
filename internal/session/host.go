package session

import (
	"context"
	"errors"
	"sync"

	"github.com/grandsalon/hautemonde/internal/game"
	"github.com/grandsalon/hautemonde/internal/protocol"
)

// HostConfig configures the authoritative session.
type HostConfig struct {
	Config
	// Seats lists the players in seat order. Leave it empty to seat whoever
	// is connected to the room when StartGame is called.
	Seats []game.Seat
	// Seed determines the deck order. It is broadcast at game start so the
	// shuffle can be audited afterwards.
	Seed int64
}

// Host owns the room's only live game engine. It validates every intent
// against the current turn, applies the accepted ones, and broadcasts the
// resulting state as full snapshots.
type Host struct {
	*core
	seats []game.Seat
	seed  int64

	mu      sync.Mutex
	roster  []game.Seat // connected participants, tracked from room updates
	game    *game.Game
	ranking []game.Ranking
	outbox  []queuedEvent
}

// queuedEvent is an envelope decided under the state lock and emitted after
// it is released, so listener callbacks can call back into the Host.
type queuedEvent struct {
	et      protocol.EventType
	payload any
}

// NewHost creates the authoritative session for a room. The game itself
// starts when StartGame is called.
func NewHost(cfg HostConfig) (*Host, error) {
	c, err := newCore(cfg.Config, "host")
	if err != nil {
		return nil, err
	}
	return &Host{core: c, seats: cfg.Seats, seed: cfg.Seed}, nil
}

// Run processes inbound envelopes until the transport closes or ctx is done.
func (h *Host) Run(ctx context.Context) error {
	return h.run(ctx, h.handleEnvelope)
}

// StartGame deals the game and broadcasts the opening state. It fails if the
// seats do not form a valid table or a game already runs.
func (h *Host) StartGame() error {
	h.mu.Lock()
	if h.game != nil {
		h.mu.Unlock()
		return ErrGameAlreadyStarted
	}

	seats := h.seats
	if len(seats) == 0 {
		seats = h.roster
	}
	g, err := game.New(game.Config{Players: seats, Seed: h.seed, Logger: h.logger})
	if err != nil {
		h.mu.Unlock()
		return err
	}
	h.game = g

	players := make([]protocol.PlayerInfo, 0, len(seats))
	for _, p := range g.Players() {
		players = append(players, protocol.PlayerInfo{ID: p.ID, Name: p.Name, Color: p.Color})
	}
	h.queue(protocol.EventGameStarted, protocol.GameStartedData{
		Seed:             h.seed,
		TurnTimerSeconds: h.turnTimerSeconds,
		Players:          players,
	})

	if err := g.StartNewRound(); err != nil {
		h.mu.Unlock()
		return err
	}
	h.queueState()
	out := h.takeOutbox()
	h.mu.Unlock()

	h.flush(out)
	return nil
}

// PlaceBid plays the host's own bid for the current turn.
func (h *Host) PlaceBid(cardIDs []string) error {
	return h.act(func() error {
		if h.game.CurrentPlayer().ID != h.playerID {
			return ErrNotYourTurn
		}
		return h.game.PlaceBid(h.game.TurnIndex(), cardIDs)
	})
}

// Pass withdraws the host from the current auction.
func (h *Host) Pass() error {
	return h.act(func() error {
		if h.game.CurrentPlayer().ID != h.playerID {
			return ErrNotYourTurn
		}
		return h.game.Pass(h.game.TurnIndex())
	})
}

// DiscardLuxury satisfies the host's own faux pas obligation.
func (h *Host) DiscardLuxury(cardID string) error {
	return h.act(func() error {
		return h.game.DiscardLuxury(h.playerID, cardID)
	})
}

// Snapshot returns the current authoritative view, nil before StartGame.
func (h *Host) Snapshot() *protocol.Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.game == nil {
		return nil
	}
	return h.snapshotLocked()
}

// act applies one of the host's own intents. Engine rejections surface as
// the returned error rather than an error envelope.
func (h *Host) act(fn func() error) error {
	h.mu.Lock()
	if h.game == nil {
		h.mu.Unlock()
		return ErrGameNotStarted
	}

	err := fn()
	if err == nil {
		h.settleLocked()
		h.queueState()
	}
	out := h.takeOutbox()
	h.mu.Unlock()

	h.flush(out)
	return err
}

func (h *Host) handleEnvelope(env *protocol.Envelope) {
	switch env.Type {
	case protocol.EventBidPlaced:
		var data protocol.BidPlacedData
		if err := env.Decode(&data); err != nil {
			h.logger.Debug("Dropped malformed bid", "error", err)
			return
		}
		h.applyIntent(data.PlayerID, data.TurnIndex, func() error {
			return h.game.PlaceBid(data.TurnIndex, data.CardIDs)
		})

	case protocol.EventPassAuction:
		var data protocol.PassAuctionData
		if err := env.Decode(&data); err != nil {
			h.logger.Debug("Dropped malformed pass", "error", err)
			return
		}
		h.applyIntent(data.PlayerID, data.TurnIndex, func() error {
			return h.game.Pass(data.TurnIndex)
		})

	case protocol.EventTurnTimeout:
		var data protocol.TurnTimeoutData
		if err := env.Decode(&data); err != nil {
			h.logger.Debug("Dropped malformed timeout report", "error", err)
			return
		}
		// Several participants may report the same stalled turn; the first
		// valid report passes it, the rest arrive stale and are dropped.
		h.applyIntent(data.PlayerID, data.TurnIndex, func() error {
			return h.game.Pass(data.TurnIndex)
		})

	case protocol.EventLuxuryDiscarded:
		var data protocol.LuxuryDiscardedData
		if err := env.Decode(&data); err != nil {
			h.logger.Debug("Dropped malformed discard", "error", err)
			return
		}
		h.applyDiscard(data)

	case protocol.EventRoomUpdate:
		var data protocol.RoomUpdateData
		if err := env.Decode(&data); err != nil {
			return
		}
		h.mu.Lock()
		h.roster = seatsFromRoster(data)
		h.mu.Unlock()
		h.listener.OnRoomUpdate(data)

	case protocol.EventError:
		var data protocol.ErrorData
		if err := env.Decode(&data); err != nil {
			return
		}
		if data.PlayerID == "" || data.PlayerID == h.playerID {
			h.listener.OnError(data)
		}
	}
}

// applyIntent validates a remote intent against the live turn and applies
// it. A stale or forged turn index is dropped without a reply; the sender
// converges on the next state sync. Engine rejections are answered with an
// error envelope addressed to the sender.
func (h *Host) applyIntent(playerID string, turnIndex int, fn func() error) {
	h.mu.Lock()
	if h.game == nil {
		h.mu.Unlock()
		return
	}
	if turnIndex != h.game.TurnIndex() || h.game.CurrentPlayer().ID != playerID {
		h.logger.Debug("Dropped stale intent",
			"player", playerID, "turnIndex", turnIndex, "currentTurn", h.game.TurnIndex())
		h.mu.Unlock()
		return
	}

	if err := fn(); err != nil {
		h.queueError(playerID, err)
	} else {
		h.settleLocked()
		h.queueState()
	}
	out := h.takeOutbox()
	h.mu.Unlock()

	h.flush(out)
}

func (h *Host) applyDiscard(data protocol.LuxuryDiscardedData) {
	h.mu.Lock()
	if h.game == nil {
		h.mu.Unlock()
		return
	}
	ower := h.game.NeedsLuxuryDiscard()
	if ower == nil || ower.ID != data.PlayerID {
		h.logger.Debug("Dropped discard from a player who owes none", "player", data.PlayerID)
		h.mu.Unlock()
		return
	}

	if err := h.game.DiscardLuxury(data.PlayerID, data.CardID); err != nil {
		h.queueError(data.PlayerID, err)
	} else {
		h.settleLocked()
		h.queueState()
	}
	out := h.takeOutbox()
	h.mu.Unlock()

	h.flush(out)
}

// timerFired handles the host's own turn timer; no envelope is needed, the
// stalled turn is passed directly through the same validation as remote
// timeout reports.
func (h *Host) timerFired(playerID string, turnIndex int) {
	h.logger.Info("Turn timed out", "player", playerID, "turnIndex", turnIndex)
	h.applyIntent(playerID, turnIndex, func() error {
		return h.game.Pass(turnIndex)
	})
}

// settleLocked completes a finished auction and, once no luxury discard is
// owed, advances to the next round or to scoring.
func (h *Host) settleLocked() {
	if a := h.game.Auction(); a != nil && a.IsComplete() {
		result, err := h.game.CompleteAuction()
		if err != nil {
			h.logger.Error("Failed to settle auction", "error", err)
			return
		}
		h.queue(protocol.EventAuctionComplete, auctionCompleteData(result))
	}

	if h.game.Auction() == nil && h.game.NeedsLuxuryDiscard() == nil && h.game.Phase() != game.PhaseFinished {
		h.advanceLocked()
	}
}

func (h *Host) advanceLocked() {
	if err := h.game.StartNewRound(); err != nil {
		h.logger.Error("Failed to start round", "error", err)
		return
	}
	if h.game.Phase() != game.PhaseScoring {
		return
	}

	ranking, err := h.game.Finish()
	if err != nil {
		h.logger.Error("Failed to finish game", "error", err)
		return
	}
	h.ranking = ranking
	h.logger.Info("Game finished", "winner", winnerID(ranking))
}

func (h *Host) queue(et protocol.EventType, payload any) {
	h.outbox = append(h.outbox, queuedEvent{et: et, payload: payload})
}

func (h *Host) queueState() {
	h.queue(protocol.EventStateSync, h.snapshotLocked())
}

func (h *Host) queueError(playerID string, err error) {
	h.queue(protocol.EventError, protocol.ErrorData{
		PlayerID: playerID,
		Code:     wireCode(err),
		Message:  err.Error(),
	})
}

func (h *Host) takeOutbox() []queuedEvent {
	out := h.outbox
	h.outbox = nil
	return out
}

// flush emits queued events outside the state lock: each is broadcast to the
// room and, where a listener cares, delivered locally. The host never waits
// for its own envelopes to echo back.
func (h *Host) flush(events []queuedEvent) {
	for _, ev := range events {
		if err := h.send(ev.et, ev.payload); err != nil {
			h.logger.Error("Failed to broadcast event", "type", ev.et, "error", err)
		}

		switch ev.et {
		case protocol.EventGameStarted:
			h.listener.OnGameStarted(ev.payload.(protocol.GameStartedData))
		case protocol.EventStateSync:
			snap := ev.payload.(*protocol.Snapshot)
			h.armTimer(snap, h.timerFired)
			h.listener.OnSnapshot(snap)
		case protocol.EventAuctionComplete:
			h.listener.OnAuctionComplete(ev.payload.(protocol.AuctionCompleteData))
		}
	}
}

func (h *Host) snapshotLocked() *protocol.Snapshot {
	snap := protocol.SnapshotFromGame(h.game)
	if h.game.Phase() == game.PhaseFinished {
		snap.Ranking = protocol.RankingEntries(h.ranking)
	}
	return snap
}

func auctionCompleteData(result *game.AuctionResult) protocol.AuctionCompleteData {
	data := protocol.AuctionCompleteData{
		Card:       protocol.CardInfoFrom(result.Card),
		WinningBid: result.WinningBid,
		Disgrace:   result.Disgrace,
	}
	if result.Winner != nil {
		data.WinnerID = result.Winner.ID
	}
	for _, lb := range result.LosingBids {
		data.LosingBids = append(data.LosingBids, protocol.LosingBid{PlayerID: lb.PlayerID, Amount: lb.Amount})
	}
	return data
}

func wireCode(err error) string {
	switch {
	case errors.Is(err, game.ErrBidTooLow):
		return protocol.CodeBidTooLow
	case errors.Is(err, game.ErrCardNotInHand):
		return protocol.CodeCardNotInHand
	case errors.Is(err, game.ErrPlayerNotActive):
		return protocol.CodePlayerNotActive
	case errors.Is(err, game.ErrNoActiveAuction):
		return protocol.CodeNoActiveAuction
	case errors.Is(err, game.ErrNoPendingDiscard):
		return protocol.CodeNoPendingDiscard
	default:
		return protocol.CodeBadRequest
	}
}

func winnerID(ranking []game.Ranking) string {
	if len(ranking) == 0 {
		return ""
	}
	return ranking[0].Player.ID
}

// seatsFromRoster turns a room roster into game seats. Disconnected seats
// are skipped; a vacated seat before the deal should not be dealt in.
func seatsFromRoster(data protocol.RoomUpdateData) []game.Seat {
	seats := make([]game.Seat, 0, len(data.Participants))
	for _, p := range data.Participants {
		if !p.Connected {
			continue
		}
		seats = append(seats, game.Seat{ID: p.ID, Name: p.Name})
	}
	return seats
}

// SeatRoster seeds the connected-participant roster before Run begins, from
// the room welcome. Later room updates replace it.
func (h *Host) SeatRoster(participants []protocol.ParticipantInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.game != nil {
		return
	}
	h.roster = seatsFromRoster(protocol.RoomUpdateData{Participants: participants})
}
