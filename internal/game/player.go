package game

import (
	"fmt"
	"slices"

	"github.com/grandsalon/hautemonde/internal/deck"
)

// Player tracks one seat's money and status holdings. Money cards only ever
// move between held, played and discarded; the union of the three is always
// the original allotment.
type Player struct {
	ID    string
	Name  string
	Color string // display color assigned at setup

	held           []deck.Card
	played         []deck.Card
	discarded      []deck.Card
	status         []deck.Card
	pendingDiscard bool
	dealt          bool
}

// NewPlayer creates an empty seat. Money arrives via DealMoneyCards.
func NewPlayer(id, name, color string) *Player {
	return &Player{ID: id, Name: name, Color: color}
}

// DealMoneyCards hands the player their money allotment. A second deal is
// rejected with ErrMoneyAlreadyDealt.
func (p *Player) DealMoneyCards(cards []deck.Card) error {
	if p.dealt {
		return fmt.Errorf("%w: player %s", ErrMoneyAlreadyDealt, p.ID)
	}
	p.held = slices.Clone(cards)
	p.dealt = true
	return nil
}

// PlayMoneyCards moves the identified cards from held to played. The call is
// all-or-nothing: any unknown (or doubly requested) id fails with
// ErrCardNotInHand and moves nothing.
func (p *Player) PlayMoneyCards(ids []string) error {
	remaining := slices.Clone(p.held)
	picked := make([]deck.Card, 0, len(ids))
	for _, id := range ids {
		i := cardIndex(remaining, id)
		if i < 0 {
			return fmt.Errorf("%w: %s", ErrCardNotInHand, id)
		}
		picked = append(picked, remaining[i])
		remaining = slices.Delete(remaining, i, i+1)
	}
	p.held = remaining
	p.played = append(p.played, picked...)
	return nil
}

// takeBackMoneyCards undoes a specific play, restoring the identified cards
// from played to held. Used for bid rollback.
func (p *Player) takeBackMoneyCards(ids []string) {
	for _, id := range ids {
		if i := cardIndex(p.played, id); i >= 0 {
			p.held = append(p.held, p.played[i])
			p.played = slices.Delete(p.played, i, i+1)
		}
	}
}

// ReturnPlayedMoney moves all played money back to held. This happens when a
// player passes out of an ascending auction, and for the receiver of a
// disgrace card.
func (p *Player) ReturnPlayedMoney() {
	p.held = append(p.held, p.played...)
	p.played = nil
}

// DiscardPlayedMoney permanently discards all played money. This happens to
// the winner of an ascending auction, and to everyone but the receiver in a
// disgrace auction.
func (p *Player) DiscardPlayedMoney() {
	p.discarded = append(p.discarded, p.played...)
	p.played = nil
}

// AddStatusCard appends an acquired status card. Acquiring the faux pas
// obliges the player to discard a luxury card; the obligation stays pending
// until a luxury is actually discarded, even if the player owns none yet.
func (p *Player) AddStatusCard(c deck.Card) {
	p.status = append(p.status, c)
	if c.Kind == deck.FauxPas {
		p.pendingDiscard = true
	}
}

// DiscardLuxury removes a held luxury status card, satisfying the faux pas
// obligation.
func (p *Player) DiscardLuxury(id string) error {
	if !p.pendingDiscard {
		return fmt.Errorf("%w: player %s", ErrNoPendingDiscard, p.ID)
	}
	i := cardIndex(p.status, id)
	if i < 0 || p.status[i].Kind != deck.Luxury {
		return fmt.Errorf("%w: %s", ErrCardNotInHand, id)
	}
	p.status = slices.Delete(p.status, i, i+1)
	p.pendingDiscard = false
	return nil
}

// CurrentBidAmount returns the total currently committed to the open auction.
func (p *Player) CurrentBidAmount() int {
	return sumValues(p.played)
}

// TotalRemainingMoney returns held plus played money, the player's worth for
// the cast-out comparison.
func (p *Player) TotalRemainingMoney() int {
	return sumValues(p.held) + sumValues(p.played)
}

// HeldMoney returns a copy of the held money cards.
func (p *Player) HeldMoney() []deck.Card { return slices.Clone(p.held) }

// PlayedMoney returns a copy of the money committed to the open auction.
func (p *Player) PlayedMoney() []deck.Card { return slices.Clone(p.played) }

// DiscardedMoney returns a copy of the permanently lost money cards.
func (p *Player) DiscardedMoney() []deck.Card { return slices.Clone(p.discarded) }

// StatusCards returns a copy of the acquired status cards.
func (p *Player) StatusCards() []deck.Card { return slices.Clone(p.status) }

// PendingDiscard reports an unsatisfied faux pas obligation.
func (p *Player) PendingDiscard() bool { return p.pendingDiscard }

// HasLuxury reports whether the player holds at least one luxury card.
func (p *Player) HasLuxury() bool {
	return slices.ContainsFunc(p.status, func(c deck.Card) bool {
		return c.Kind == deck.Luxury
	})
}

// HighestLuxuryValue returns the largest luxury face value held, 0 if none.
// Used as the final ranking tiebreak.
func (p *Player) HighestLuxuryValue() int {
	best := 0
	for _, c := range p.status {
		if c.Kind == deck.Luxury && c.Value > best {
			best = c.Value
		}
	}
	return best
}

// NeedsLuxuryDiscard reports whether the game must wait for this player to
// discard before the next round: the obligation is pending and dischargeable.
func (p *Player) NeedsLuxuryDiscard() bool {
	return p.pendingDiscard && p.HasLuxury()
}

func cardIndex(cards []deck.Card, id string) int {
	return slices.IndexFunc(cards, func(c deck.Card) bool { return c.ID == id })
}

func sumValues(cards []deck.Card) int {
	total := 0
	for _, c := range cards {
		total += c.Value
	}
	return total
}
