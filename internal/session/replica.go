package session

import (
	"context"
	"sync"

	"github.com/grandsalon/hautemonde/internal/protocol"
)

// Replica is the non-authoritative session. It holds no rules: every intent
// is sent to the host, and the local view is replaced wholesale whenever an
// authoritative snapshot arrives. The view pointer is never mutated in
// place, so callers may keep a snapshot only as long as they treat the next
// one as a full replacement.
type Replica struct {
	*core

	mu      sync.Mutex
	view    *protocol.Snapshot
	started *protocol.GameStartedData
}

// NewReplica creates a replica session for a joined room.
func NewReplica(cfg Config) (*Replica, error) {
	c, err := newCore(cfg, "replica")
	if err != nil {
		return nil, err
	}
	return &Replica{core: c}, nil
}

// Run processes inbound envelopes until the transport closes or ctx is done.
func (r *Replica) Run(ctx context.Context) error {
	return r.run(ctx, r.handleEnvelope)
}

// View returns the latest adopted snapshot, nil before the first state sync.
func (r *Replica) View() *protocol.Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.view
}

// Started returns the game configuration broadcast at start, nil before it
// arrives. The seed in it exists for audit; the replica never derives deck
// state from it.
func (r *Replica) Started() *protocol.GameStartedData {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.started
}

// PlaceBid submits a bid intent for this participant's seat, addressed by
// the view's turn index. The view does not change until the host's snapshot
// comes back; there is no local speculation.
func (r *Replica) PlaceBid(cardIDs []string) error {
	turnIdx, err := r.myTurn()
	if err != nil {
		return err
	}
	return r.send(protocol.EventBidPlaced, protocol.BidPlacedData{
		PlayerID:  r.playerID,
		TurnIndex: turnIdx,
		CardIDs:   cardIDs,
	})
}

// Pass submits a pass intent for this participant's seat.
func (r *Replica) Pass() error {
	turnIdx, err := r.myTurn()
	if err != nil {
		return err
	}
	return r.send(protocol.EventPassAuction, protocol.PassAuctionData{
		PlayerID:  r.playerID,
		TurnIndex: turnIdx,
	})
}

// DiscardLuxury submits the luxury discard that satisfies this participant's
// faux pas obligation.
func (r *Replica) DiscardLuxury(cardID string) error {
	r.mu.Lock()
	view := r.view
	r.mu.Unlock()

	if view == nil {
		return ErrGameNotStarted
	}
	me := view.Player(r.playerID)
	if me == nil || !me.PendingDiscard {
		return ErrNothingToDiscard
	}
	return r.send(protocol.EventLuxuryDiscarded, protocol.LuxuryDiscardedData{
		PlayerID: r.playerID,
		CardID:   cardID,
	})
}

// myTurn reads the turn index out of the current view, rejecting intents the
// host would certainly drop. The host still revalidates; the view can be
// behind by an in-flight snapshot.
func (r *Replica) myTurn() (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.view == nil {
		return 0, ErrGameNotStarted
	}
	if r.view.Auction == nil {
		return 0, ErrNoOpenAuction
	}
	current := r.view.CurrentPlayer()
	if current == nil || current.ID != r.playerID {
		return 0, ErrNotYourTurn
	}
	return r.view.TurnIndex, nil
}

func (r *Replica) handleEnvelope(env *protocol.Envelope) {
	switch env.Type {
	case protocol.EventGameStarted:
		var data protocol.GameStartedData
		if err := env.Decode(&data); err != nil {
			r.logger.Debug("Dropped malformed game start", "error", err)
			return
		}
		r.mu.Lock()
		r.started = &data
		r.mu.Unlock()
		r.listener.OnGameStarted(data)

	case protocol.EventStateSync:
		snap := new(protocol.Snapshot)
		if err := env.Decode(snap); err != nil {
			r.logger.Debug("Dropped malformed snapshot", "error", err)
			return
		}
		r.mu.Lock()
		r.view = snap
		r.mu.Unlock()
		r.armTimer(snap, r.timerFired)
		r.listener.OnSnapshot(snap)

	case protocol.EventAuctionComplete:
		var data protocol.AuctionCompleteData
		if err := env.Decode(&data); err != nil {
			r.logger.Debug("Dropped malformed auction result", "error", err)
			return
		}
		r.listener.OnAuctionComplete(data)

	case protocol.EventRoomUpdate:
		var data protocol.RoomUpdateData
		if err := env.Decode(&data); err != nil {
			return
		}
		r.listener.OnRoomUpdate(data)

	case protocol.EventError:
		var data protocol.ErrorData
		if err := env.Decode(&data); err != nil {
			return
		}
		if data.PlayerID == "" || data.PlayerID == r.playerID {
			r.listener.OnError(data)
		}

	default:
		// Peer intents (bids, passes, timeout reports) are the host's to
		// interpret; replicas converge on the snapshots they produce.
		r.logger.Debug("Ignored envelope", "type", env.Type)
	}
}

// timerFired reports a stalled turn on behalf of the inactive player. Every
// participant reports; the host keeps the first valid one and drops the
// rest as stale.
func (r *Replica) timerFired(playerID string, turnIndex int) {
	r.logger.Info("Turn timed out", "player", playerID, "turnIndex", turnIndex)
	err := r.send(protocol.EventTurnTimeout, protocol.TurnTimeoutData{
		PlayerID:  playerID,
		TurnIndex: turnIndex,
	})
	if err != nil {
		r.logger.Error("Failed to report timeout", "error", err)
	}
}
