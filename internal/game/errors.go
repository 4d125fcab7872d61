package game

import "errors"

var (
	// ErrBidTooLow indicates the played total does not strictly exceed the
	// current highest bid.
	ErrBidTooLow = errors.New("game: bid too low")

	// ErrCardNotInHand indicates a referenced card id is unknown to the player.
	ErrCardNotInHand = errors.New("game: card not in hand")

	// ErrPlayerNotActive indicates the player already withdrew from the
	// auction. Replication treats this as a stale event, not a fault.
	ErrPlayerNotActive = errors.New("game: player not active in auction")

	// ErrNoActiveAuction indicates a bid, pass or completion with no open
	// auction.
	ErrNoActiveAuction = errors.New("game: no active auction")

	// ErrInvalidPlayerCount indicates a setup outside 2..5 players.
	ErrInvalidPlayerCount = errors.New("game: invalid player count")

	// ErrNoMoreStatusCards indicates a draw from an empty deck. Unreachable
	// while the end-trigger rule is intact, still defended.
	ErrNoMoreStatusCards = errors.New("game: no more status cards")

	// ErrMoneyAlreadyDealt indicates a second money deal to the same player.
	ErrMoneyAlreadyDealt = errors.New("game: money already dealt")

	// ErrNoPendingDiscard indicates a luxury discard with no outstanding
	// faux pas obligation.
	ErrNoPendingDiscard = errors.New("game: no pending luxury discard")

	// ErrWrongPhase indicates an operation issued in a phase that does not
	// permit it.
	ErrWrongPhase = errors.New("game: operation not valid in current phase")
)
