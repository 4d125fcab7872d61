package bot

import "github.com/grandsalon/hautemonde/internal/protocol"

// TimidBot never spends a franc: it passes every auction, eating whatever
// disgrace comes around first, and settles a faux pas with its cheapest
// luxury. It is the floor other strategies are measured against.
type TimidBot struct{}

// NewTimidBot creates a new TimidBot instance
func NewTimidBot() *TimidBot { return &TimidBot{} }

func (*TimidBot) BidOrPass(view *protocol.Snapshot, seat *protocol.PlayerSnapshot) Decision {
	return Decision{Action: Pass, Reasoning: "timid-bot never bids"}
}

func (*TimidBot) PickDiscard(view *protocol.Snapshot, seat *protocol.PlayerSnapshot) Decision {
	lux := luxuries(seat)
	return Decision{
		Action:    Discard,
		CardIDs:   []string{lux[0].ID},
		Reasoning: "timid-bot discards its cheapest luxury",
	}
}
