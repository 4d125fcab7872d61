package bot

import (
	"cmp"
	"fmt"
	"math/rand/v2"
	"slices"

	"github.com/grandsalon/hautemonde/internal/deck"
	"github.com/grandsalon/hautemonde/internal/protocol"
)

// ValueBot prices every card and bids while the total stays under budget.
// Luxuries are worth a rate per status point, prestige a flat budget, and
// the faux pas and scandale a dodging budget it will spend to push them onto
// someone else. Passé is worth nothing: winning it costs money and five
// points.
type ValueBot struct {
	perPoint       int
	prestigeBudget int
	dodgeBudget    int
}

// NewValueBot draws the bot's budgets from rng once, so a table of value
// bots does not bid in lockstep and bots built from the same seed replay the
// same game.
func NewValueBot(rng *rand.Rand) *ValueBot {
	return &ValueBot{
		perPoint:       900 + rng.IntN(300),
		prestigeBudget: 18000 + rng.IntN(8000),
		dodgeBudget:    9000 + rng.IntN(6000),
	}
}

// BidOrPass raises by the cheapest held combination that takes the lead, as
// long as the new total stays inside the card's budget.
func (v *ValueBot) BidOrPass(view *protocol.Snapshot, seat *protocol.PlayerSnapshot) Decision {
	a := view.Auction
	if a.LeaderID == seat.ID {
		return Decision{Action: Pass, Reasoning: "value-bot already leads"}
	}

	budget := v.budgetFor(a.Card)
	if budget <= 0 {
		return Decision{Action: Pass, Reasoning: "value-bot never buys " + a.Card.Kind}
	}

	raise := cheapestRaise(seat.HeldMoney, a.HighestBid-committed(seat))
	if raise == nil {
		return Decision{Action: Pass, Reasoning: "value-bot cannot raise"}
	}
	total := committed(seat) + sumValues(raise)
	if total > budget {
		return Decision{Action: Pass, Reasoning: fmt.Sprintf("value-bot stops: %d over budget %d", total, budget)}
	}
	return Decision{
		Action:    Bid,
		CardIDs:   cardIDs(raise),
		Reasoning: fmt.Sprintf("value-bot raises to %d under budget %d", total, budget),
	}
}

// PickDiscard gives up the cheapest luxury.
func (v *ValueBot) PickDiscard(view *protocol.Snapshot, seat *protocol.PlayerSnapshot) Decision {
	lux := luxuries(seat)
	return Decision{
		Action:    Discard,
		CardIDs:   []string{lux[0].ID},
		Reasoning: "value-bot discards its cheapest luxury",
	}
}

func (v *ValueBot) budgetFor(card protocol.CardInfo) int {
	switch card.Kind {
	case deck.Luxury.String():
		return card.Value * v.perPoint
	case deck.Prestige.String():
		return v.prestigeBudget
	case deck.FauxPas.String(), deck.Scandale.String():
		return v.dodgeBudget
	default:
		return 0
	}
}

// cheapestRaise picks held money summing to strictly more than gap: the
// cheapest single card that clears it, else small cards accumulated until
// they do. Nil means the hand cannot raise at all.
func cheapestRaise(held []protocol.CardInfo, gap int) []protocol.CardInfo {
	cards := slices.Clone(held)
	slices.SortFunc(cards, func(a, b protocol.CardInfo) int { return cmp.Compare(a.Value, b.Value) })

	for _, c := range cards {
		if c.Value > gap {
			return []protocol.CardInfo{c}
		}
	}

	total := 0
	for i, c := range cards {
		total += c.Value
		if total > gap {
			return cards[:i+1]
		}
	}
	return nil
}
