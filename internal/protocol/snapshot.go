package protocol

import (
	"github.com/grandsalon/hautemonde/internal/deck"
	"github.com/grandsalon/hautemonde/internal/game"
)

// CardInfo is a card as it appears on the wire.
type CardInfo struct {
	ID      string `json:"id"`
	Kind    string `json:"kind"`
	Value   int    `json:"value,omitempty"`
	Name    string `json:"name,omitempty"`
	Display string `json:"display"`
}

// CardInfoFrom converts an engine card for broadcast.
func CardInfoFrom(c deck.Card) CardInfo {
	return CardInfo{
		ID:      c.ID,
		Kind:    c.Kind.String(),
		Value:   c.Value,
		Name:    c.Name,
		Display: c.DisplayValue(),
	}
}

// CardInfos converts a list of engine cards.
func CardInfos(cards []deck.Card) []CardInfo {
	infos := make([]CardInfo, len(cards))
	for i, c := range cards {
		infos[i] = CardInfoFrom(c)
	}
	return infos
}

// PlayerSnapshot is one seat's full visible state.
type PlayerSnapshot struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Color          string     `json:"color"`
	HeldMoney      []CardInfo `json:"heldMoney"`
	PlayedMoney    []CardInfo `json:"playedMoney"`
	StatusCards    []CardInfo `json:"statusCards"`
	PendingDiscard bool       `json:"pendingDiscard"`
}

// AuctionSnapshot is the open auction's visible state.
type AuctionSnapshot struct {
	Card            CardInfo `json:"card"`
	ActivePlayerIDs []string `json:"activePlayerIds"`
	HighestBid      int      `json:"highestBid"`
	LeaderID        string   `json:"leaderId,omitempty"`
	Disgrace        bool     `json:"disgrace"`
}

// RankingEntry is one row of the final standings, attached by the host once
// the game finishes.
type RankingEntry struct {
	PlayerID       string `json:"playerId"`
	Score          int    `json:"score"`
	RemainingMoney int    `json:"remainingMoney"`
	CastOut        bool   `json:"castOut"`
}

// Snapshot is the full authoritative view broadcast after every accepted
// mutation. Replicas replace their entire view with it; they never merge.
// The undrawn deck is deliberately absent.
type Snapshot struct {
	Players         []PlayerSnapshot `json:"players"`
	Revealed        []CardInfo       `json:"revealed"`
	EndTriggerCount int              `json:"endTriggerCount"`
	Phase           string           `json:"phase"`
	TurnIndex       int              `json:"turnIndex"`
	Auction         *AuctionSnapshot `json:"auction,omitempty"`
	Ranking         []RankingEntry   `json:"ranking,omitempty"`
}

// SnapshotFromGame captures the host engine's visible state.
func SnapshotFromGame(g *game.Game) *Snapshot {
	players := g.Players()
	snap := &Snapshot{
		Players:         make([]PlayerSnapshot, len(players)),
		Revealed:        CardInfos(g.Revealed()),
		EndTriggerCount: g.EndTriggerCount(),
		Phase:           g.Phase().String(),
		TurnIndex:       g.TurnIndex(),
	}
	for i, p := range players {
		snap.Players[i] = PlayerSnapshot{
			ID:             p.ID,
			Name:           p.Name,
			Color:          p.Color,
			HeldMoney:      CardInfos(p.HeldMoney()),
			PlayedMoney:    CardInfos(p.PlayedMoney()),
			StatusCards:    CardInfos(p.StatusCards()),
			PendingDiscard: p.PendingDiscard(),
		}
	}
	if a := g.Auction(); a != nil {
		as := &AuctionSnapshot{
			Card:            CardInfoFrom(a.Card()),
			ActivePlayerIDs: a.ActiveIDs(),
			HighestBid:      a.HighestBid(),
			Disgrace:        a.Variant() == game.FirstToPass,
		}
		if l := a.Leader(); l != nil {
			as.LeaderID = l.ID
		}
		snap.Auction = as
	}
	return snap
}

// RankingEntries converts the engine's final standings for broadcast.
func RankingEntries(ranking []game.Ranking) []RankingEntry {
	entries := make([]RankingEntry, len(ranking))
	for i, r := range ranking {
		entries[i] = RankingEntry{
			PlayerID:       r.Player.ID,
			Score:          r.Score,
			RemainingMoney: r.RemainingMoney,
			CastOut:        r.CastOut,
		}
	}
	return entries
}

// Player finds a seat by id, nil if unknown.
func (s *Snapshot) Player(id string) *PlayerSnapshot {
	for i := range s.Players {
		if s.Players[i].ID == id {
			return &s.Players[i]
		}
	}
	return nil
}

// CurrentPlayer returns the seat whose turn it is, nil on a malformed index.
func (s *Snapshot) CurrentPlayer() *PlayerSnapshot {
	if s.TurnIndex < 0 || s.TurnIndex >= len(s.Players) {
		return nil
	}
	return &s.Players[s.TurnIndex]
}

// Finished reports whether the snapshot shows a completed game.
func (s *Snapshot) Finished() bool {
	return s.Phase == game.PhaseFinished.String()
}
