// Package game implements the rules engine for the status auction game.
//
// The main type is Game, which manages a full match: player money and status
// holdings, the per-round auction state machine, the end-trigger counter and
// final scoring. The engine is deterministic and synchronous; it performs no
// I/O and owns no goroutines, so a single dispatcher can drive it without
// locks and tests can replay exact sequences.
//
// # Basic Usage
//
// Create a game and run rounds until scoring:
//
//	g, err := game.New(game.Config{
//	    Players: []game.Seat{{ID: "a", Name: "Anouk"}, {ID: "b", Name: "Blaise"}},
//	    Seed:    42,
//	})
//	g.StartNewRound()
//	g.PlaceBid(g.TurnIndex(), []string{"cash-0-2000"})
//	g.Pass(g.TurnIndex())
//	if g.Auction().IsComplete() {
//	    result, _ := g.CompleteAuction()
//	    _ = result
//	}
//
// # Determinism
//
// The deck order is a pure function of Config.Seed, so a host that
// broadcasts its seed lets any other process rebuild the identical game.
//
// # Architecture
//
// Game delegates to specialized components:
//   - Player: money hand management and status card holdings
//   - Auction: one revealed card's bidding, in one of two variants
//   - Score / Rank: the pure scoring and cast-out functions
//   - deck.Deck: the shuffled status deck
package game
