package game

import (
	"fmt"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/require"

	"github.com/grandsalon/hautemonde/internal/deck"
)

func testLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
}

// newTestGame builds a game with n players seated a, b, c, ...
func newTestGame(t *testing.T, n int, seed int64) *Game {
	t.Helper()
	seats := make([]Seat, n)
	for i := range seats {
		id := string(rune('a' + i))
		seats[i] = Seat{ID: id, Name: "Player " + id}
	}
	g, err := New(Config{Players: seats, Seed: seed, Logger: testLogger()})
	require.NoError(t, err)
	return g
}

// cash returns the money card id for a seat and denomination.
func cash(seat, value int) string {
	return fmt.Sprintf("cash-%d-%d", seat, value)
}

// rigAuction replaces the open auction so tests control which card is sold.
func rigAuction(g *Game, card deck.Card) {
	g.auction = NewAuction(card, g.players)
	if g.auction.Variant() == FirstToPass {
		g.phase = PhaseDisgraceAuction
	} else {
		g.phase = PhaseAuction
	}
	g.turnIdx = 0
}

// passUntilComplete has every player pass in turn order.
func passUntilComplete(t *testing.T, g *Game) {
	t.Helper()
	for !g.Auction().IsComplete() {
		require.NoError(t, g.Pass(g.TurnIndex()))
	}
}

func luxury(v int) deck.Card {
	return deck.Card{ID: fmt.Sprintf("lux-%02d", v), Kind: deck.Luxury, Value: v, Name: fmt.Sprintf("Luxe %d", v)}
}

func prestige(n int) deck.Card {
	return deck.Card{ID: fmt.Sprintf("prestige-%d", n), Kind: deck.Prestige}
}

func fauxPas() deck.Card {
	return deck.Card{ID: "faux-pas", Kind: deck.FauxPas, Name: "Faux Pas"}
}

func passe() deck.Card {
	return deck.Card{ID: "passe", Kind: deck.Passe, Name: "Passé"}
}

func scandale() deck.Card {
	return deck.Card{ID: "scandale", Kind: deck.Scandale, Name: "Scandale"}
}
