// Package deck defines the cards of the game: the sixteen status cards that
// come up for auction and the fixed money hand every player bids with.
//
// Card IDs are stable across processes, so two decks built from the same
// seed agree card-for-card on every machine. Shuffling is a pure function of
// the injected RNG; nothing in this package reads a global random source.
package deck

import (
	"fmt"
	rand "math/rand/v2"
)

// StatusDeckSize is the number of status cards in a fresh deck:
// ten luxuries, three prestiges, three disgraces.
const StatusDeckSize = 16

// Deck holds the undrawn status cards, top first.
type Deck struct {
	cards []Card
}

// StatusCards returns the full status card set in canonical (unshuffled)
// order: luxuries 1-10, the prestige cards, then the disgrace cards.
func StatusCards() []Card {
	cards := make([]Card, 0, StatusDeckSize)
	for v := 1; v <= 10; v++ {
		cards = append(cards, Card{
			ID:    fmt.Sprintf("lux-%02d", v),
			Kind:  Luxury,
			Value: v,
			Name:  fmt.Sprintf("Luxe %d", v),
		})
	}
	for i, name := range [...]string{"Avant-garde", "Bon Vivant", "Joie de Vivre"} {
		cards = append(cards, Card{
			ID:   fmt.Sprintf("prestige-%d", i+1),
			Kind: Prestige,
			Name: name,
		})
	}
	cards = append(cards,
		Card{ID: "faux-pas", Kind: FauxPas, Name: "Faux Pas"},
		Card{ID: "passe", Kind: Passe, Name: "Passé"},
		Card{ID: "scandale", Kind: Scandale, Name: "Scandale"},
	)
	return cards
}

// NewStatusDeck builds the status deck shuffled by the provided RNG.
func NewStatusDeck(rng *rand.Rand) *Deck {
	d := &Deck{cards: StatusCards()}
	rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
	return d
}

// Draw removes and returns the top card from the deck
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// Remaining returns the number of undrawn cards
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// IsEmpty returns true if the deck has no cards left
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}
