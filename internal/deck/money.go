package deck

import "fmt"

// Denominations is the fixed franc value of each money card in a player's
// hand. Every player receives exactly one card of each denomination.
var Denominations = [...]int{1000, 2000, 3000, 4000, 6000, 8000, 10000, 12000, 15000, 20000, 25000}

// AllotmentTotal is the sum of one full money hand. Conservation checks
// compare against players × AllotmentTotal.
const AllotmentTotal = 106000

// AllotmentSize is the number of money cards dealt to each player.
const AllotmentSize = len(Denominations)

// MoneyAllotment returns the 11 money cards for a seat. IDs embed the seat
// so money cards are unique across the whole table.
func MoneyAllotment(seat int) []Card {
	cards := make([]Card, 0, AllotmentSize)
	for _, v := range Denominations {
		cards = append(cards, Card{
			ID:    fmt.Sprintf("cash-%d-%d", seat, v),
			Kind:  Money,
			Value: v,
			Name:  fmt.Sprintf("%d F", v),
		})
	}
	return cards
}
