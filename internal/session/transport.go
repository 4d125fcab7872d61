package session

import (
	"errors"

	"github.com/grandsalon/hautemonde/internal/protocol"
)

var (
	ErrTransportClosed    = errors.New("session: transport closed")
	ErrGameAlreadyStarted = errors.New("session: game already started")
	ErrGameNotStarted     = errors.New("session: game has not started")
	ErrNotYourTurn        = errors.New("session: not your turn")
	ErrNoOpenAuction      = errors.New("session: no open auction")
	ErrNothingToDiscard   = errors.New("session: no luxury discard owed")
)

// Transport moves envelopes between a participant and its room. Send must be
// safe for concurrent use; Receive blocks until an envelope arrives and
// returns ErrTransportClosed once the transport shuts down.
type Transport interface {
	Send(env *protocol.Envelope) error
	Receive() (*protocol.Envelope, error)
	Close() error
}

// Listener observes session progress. UIs and bots implement it; callbacks
// run on the session's loop goroutine and may call back into the session's
// intent methods. A finished game is observed as a snapshot whose Finished
// method reports true and whose Ranking is populated.
type Listener interface {
	// OnGameStarted delivers the one-time table configuration.
	OnGameStarted(data protocol.GameStartedData)
	// OnSnapshot delivers every adopted authoritative state.
	OnSnapshot(snap *protocol.Snapshot)
	// OnAuctionComplete delivers each settled auction with its money trail.
	OnAuctionComplete(data protocol.AuctionCompleteData)
	// OnRoomUpdate delivers seating changes.
	OnRoomUpdate(data protocol.RoomUpdateData)
	// OnError delivers host rejections addressed to this participant.
	OnError(data protocol.ErrorData)
}

// NopListener ignores everything. Embed it to implement only part of
// Listener.
type NopListener struct{}

func (NopListener) OnGameStarted(protocol.GameStartedData)         {}
func (NopListener) OnSnapshot(*protocol.Snapshot)                  {}
func (NopListener) OnAuctionComplete(protocol.AuctionCompleteData) {}
func (NopListener) OnRoomUpdate(protocol.RoomUpdateData)           {}
func (NopListener) OnError(protocol.ErrorData)                     {}
