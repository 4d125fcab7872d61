package game

import (
	"fmt"

	"github.com/grandsalon/hautemonde/internal/deck"
)

// Variant selects the bidding rules for one auction.
type Variant int

const (
	// Ascending auctions sell luxury, prestige and passé cards: the last
	// player still in wins the card and forfeits their committed money.
	Ascending Variant = iota
	// FirstToPass auctions push the faux pas and scandale cards onto the
	// first player to withdraw, who keeps their money while everyone else
	// forfeits theirs.
	FirstToPass
)

// String returns the string representation of a variant
func (v Variant) String() string {
	switch v {
	case Ascending:
		return "ascending"
	case FirstToPass:
		return "first-to-pass"
	default:
		return "?"
	}
}

// VariantFor returns the auction variant a status card is sold under.
func VariantFor(card deck.Card) Variant {
	if card.Kind == deck.FauxPas || card.Kind == deck.Scandale {
		return FirstToPass
	}
	return Ascending
}

// Auction runs the bidding over one revealed status card. It starts with
// every player active; the active set only shrinks and the highest bid only
// grows. Money settlement happens at completion, in Game.CompleteAuction.
type Auction struct {
	card     deck.Card
	variant  Variant
	players  []*Player
	active   map[string]bool
	highest  int
	leader   *Player
	complete bool
	winner   *Player
}

// NewAuction opens bidding on a card with all players active. The variant
// follows from the card kind.
func NewAuction(card deck.Card, players []*Player) *Auction {
	active := make(map[string]bool, len(players))
	for _, p := range players {
		active[p.ID] = true
	}
	return &Auction{
		card:    card,
		variant: VariantFor(card),
		players: players,
		active:  active,
	}
}

// ProcessBid commits the identified money cards for the player. The player's
// new committed total must strictly exceed the current highest bid; otherwise
// the play is rolled back and ErrBidTooLow returned. On success the player
// becomes the leader. Bids escalate identically in both variants; only what
// they buy differs.
func (a *Auction) ProcessBid(p *Player, cardIDs []string) error {
	if a.complete {
		return ErrNoActiveAuction
	}
	if !a.active[p.ID] {
		return fmt.Errorf("%w: %s", ErrPlayerNotActive, p.ID)
	}
	if err := p.PlayMoneyCards(cardIDs); err != nil {
		return err
	}
	total := p.CurrentBidAmount()
	if total <= a.highest {
		p.takeBackMoneyCards(cardIDs)
		return fmt.Errorf("%w: %d does not exceed %d", ErrBidTooLow, total, a.highest)
	}
	a.highest = total
	a.leader = p
	return nil
}

// ProcessPass withdraws the player from the auction.
//
// Ascending: the passer takes their played money back. When exactly one
// active player remains the auction completes with that player as winner,
// possibly for nothing if they never bid. If the active set empties because
// the sole remaining player passed, the auction completes with no winner.
//
// FirstToPass: the first pass ends the auction immediately with the passer
// as receiver of the card.
func (a *Auction) ProcessPass(p *Player) error {
	if a.complete {
		return ErrNoActiveAuction
	}
	if !a.active[p.ID] {
		return fmt.Errorf("%w: %s", ErrPlayerNotActive, p.ID)
	}

	if a.variant == FirstToPass {
		delete(a.active, p.ID)
		a.complete = true
		a.winner = p
		return nil
	}

	p.ReturnPlayedMoney()
	delete(a.active, p.ID)
	switch len(a.active) {
	case 1:
		a.complete = true
		a.winner = a.remainingPlayer()
	case 0:
		a.complete = true
		a.winner = nil
	}
	return nil
}

func (a *Auction) remainingPlayer() *Player {
	for _, p := range a.players {
		if a.active[p.ID] {
			return p
		}
	}
	return nil
}

// Card returns the card under auction.
func (a *Auction) Card() deck.Card { return a.card }

// Variant returns the bidding variant.
func (a *Auction) Variant() Variant { return a.variant }

// IsComplete reports whether bidding has ended.
func (a *Auction) IsComplete() bool { return a.complete }

// Winner returns the player who takes the card, nil while the auction is
// open and in the no-winner edge case.
func (a *Auction) Winner() *Player { return a.winner }

// HighestBid returns the standing bid, 0 if nobody has bid.
func (a *Auction) HighestBid() int { return a.highest }

// Leader returns the current highest bidder, nil if nobody has bid.
func (a *Auction) Leader() *Player { return a.leader }

// IsActive reports whether the player is still in the auction.
func (a *Auction) IsActive(playerID string) bool { return a.active[playerID] }

// ActiveIDs returns the active players in seat order.
func (a *Auction) ActiveIDs() []string {
	ids := make([]string, 0, len(a.active))
	for _, p := range a.players {
		if a.active[p.ID] {
			ids = append(ids, p.ID)
		}
	}
	return ids
}

// ActiveCount returns the number of players still in the auction.
func (a *Auction) ActiveCount() int { return len(a.active) }
