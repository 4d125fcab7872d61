package game

import (
	"fmt"
	"io"
	"slices"

	"github.com/charmbracelet/log"

	"github.com/grandsalon/hautemonde/internal/deck"
	"github.com/grandsalon/hautemonde/internal/randutil"
)

// Phase identifies where the game is in its lifecycle.
type Phase int

const (
	PhaseSetup Phase = iota
	PhaseAuction
	PhaseDisgraceAuction
	PhaseScoring
	PhaseFinished
)

// String returns the wire token for a phase
func (p Phase) String() string {
	switch p {
	case PhaseSetup:
		return "setup"
	case PhaseAuction:
		return "auction"
	case PhaseDisgraceAuction:
		return "disgrace_auction"
	case PhaseScoring:
		return "scoring"
	case PhaseFinished:
		return "finished"
	default:
		return "?"
	}
}

// Player count bounds for a table.
const (
	MinPlayers = 2
	MaxPlayers = 5
)

// endTriggerLimit is how many end-trigger cards close the game. The fourth
// trigger's own round still plays out; the transition happens on the next
// round start.
const endTriggerLimit = 4

// defaultColors are assigned to seats whose Config entry has none.
var defaultColors = [...]string{"#e63946", "#2a9d8f", "#457b9d", "#e9c46a", "#9b5de5"}

// Seat describes one player at setup.
type Seat struct {
	ID    string
	Name  string
	Color string
}

// Config assembles a new game.
type Config struct {
	Players []Seat
	Seed    int64
	Logger  *log.Logger
}

// Game orchestrates a full match: rounds, auctions, the end-trigger counter
// and final scoring. All methods are synchronous; callers serialise access.
type Game struct {
	players     []*Player
	deck        *deck.Deck
	revealed    []deck.Card
	auction     *Auction
	phase       Phase
	endTriggers int
	turnIdx     int
	nextLeadIdx int
	seed        int64
	logger      *log.Logger
}

// New creates a game with shuffled deck and dealt money. The deck order is a
// pure function of cfg.Seed.
func New(cfg Config) (*Game, error) {
	n := len(cfg.Players)
	if n < MinPlayers || n > MaxPlayers {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayerCount, n)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	g := &Game{
		deck:   deck.NewStatusDeck(randutil.New(cfg.Seed)),
		phase:  PhaseSetup,
		seed:   cfg.Seed,
		logger: logger,
	}
	for i, s := range cfg.Players {
		color := s.Color
		if color == "" {
			color = defaultColors[i]
		}
		p := NewPlayer(s.ID, s.Name, color)
		if err := p.DealMoneyCards(deck.MoneyAllotment(i)); err != nil {
			return nil, err
		}
		g.players = append(g.players, p)
	}
	return g, nil
}

// StartNewRound draws the next status card and opens its auction. When the
// end-trigger counter has reached its limit the game moves to scoring
// instead, without drawing. The previous round's winner leads the bidding.
func (g *Game) StartNewRound() error {
	switch g.phase {
	case PhaseScoring, PhaseFinished:
		return fmt.Errorf("%w: game is over", ErrWrongPhase)
	}
	if g.auction != nil {
		return fmt.Errorf("%w: auction still open", ErrWrongPhase)
	}
	if p := g.NeedsLuxuryDiscard(); p != nil {
		return fmt.Errorf("%w: waiting for %s to discard a luxury", ErrWrongPhase, p.ID)
	}

	if g.endTriggers >= endTriggerLimit {
		g.phase = PhaseScoring
		g.logger.Debug("all end triggers drawn, scoring", "triggers", g.endTriggers)
		return nil
	}

	card, ok := g.deck.Draw()
	if !ok {
		return ErrNoMoreStatusCards
	}
	g.revealed = append(g.revealed, card)
	if card.IsEndTrigger() {
		g.endTriggers++
	}

	g.turnIdx = g.nextLeadIdx
	g.auction = NewAuction(card, g.players)
	if g.auction.Variant() == FirstToPass {
		g.phase = PhaseDisgraceAuction
	} else {
		g.phase = PhaseAuction
	}
	g.logger.Debug("round started",
		"card", card.ID,
		"variant", g.auction.Variant().String(),
		"triggers", g.endTriggers,
		"lead", g.players[g.turnIdx].ID)
	return nil
}

// PlaceBid executes a bid for the seat at turnIdx, which must be the current
// turn, then advances the turn to the next active seat.
func (g *Game) PlaceBid(turnIdx int, cardIDs []string) error {
	if g.auction == nil {
		return ErrNoActiveAuction
	}
	p, err := g.playerAt(turnIdx)
	if err != nil {
		return err
	}
	if turnIdx != g.turnIdx {
		return fmt.Errorf("%w: %s acted out of turn", ErrPlayerNotActive, p.ID)
	}
	if err := g.auction.ProcessBid(p, cardIDs); err != nil {
		return err
	}
	g.advanceTurn()
	return nil
}

// Pass withdraws the seat at turnIdx, which must be the current turn, from
// the auction. The auction may complete as a result; the caller checks
// Auction().IsComplete() and follows with CompleteAuction.
func (g *Game) Pass(turnIdx int) error {
	if g.auction == nil {
		return ErrNoActiveAuction
	}
	p, err := g.playerAt(turnIdx)
	if err != nil {
		return err
	}
	if turnIdx != g.turnIdx {
		return fmt.Errorf("%w: %s acted out of turn", ErrPlayerNotActive, p.ID)
	}
	if err := g.auction.ProcessPass(p); err != nil {
		return err
	}
	if !g.auction.IsComplete() {
		g.advanceTurn()
	}
	return nil
}

// LosingBid records money forfeited by a non-receiver in a disgrace auction.
type LosingBid struct {
	PlayerID string
	Amount   int
}

// AuctionResult summarises a completed auction for broadcast.
type AuctionResult struct {
	Winner     *Player // nil if the auction ended with no winner
	Card       deck.Card
	WinningBid int
	Disgrace   bool
	LosingBids []LosingBid
}

// CompleteAuction settles a completed auction: the card is awarded, money is
// discarded or returned per the variant, and the winner leads the next
// round. It does not start that round; the caller first resolves any luxury
// discard the faux pas forces.
func (g *Game) CompleteAuction() (*AuctionResult, error) {
	if g.auction == nil {
		return nil, ErrNoActiveAuction
	}
	if !g.auction.IsComplete() {
		return nil, fmt.Errorf("%w: auction still open", ErrWrongPhase)
	}

	a := g.auction
	winner := a.Winner()
	result := &AuctionResult{
		Card:     a.Card(),
		Disgrace: a.Variant() == FirstToPass,
	}

	if result.Disgrace {
		// The receiver keeps their money; everyone else forfeits theirs.
		result.WinningBid = winner.CurrentBidAmount()
		for _, p := range g.players {
			if p == winner {
				continue
			}
			if amt := p.CurrentBidAmount(); amt > 0 {
				result.LosingBids = append(result.LosingBids, LosingBid{PlayerID: p.ID, Amount: amt})
			}
			p.DiscardPlayedMoney()
		}
		winner.ReturnPlayedMoney()
		winner.AddStatusCard(a.Card())
	} else {
		if winner != nil {
			result.WinningBid = winner.CurrentBidAmount()
			winner.DiscardPlayedMoney()
			winner.AddStatusCard(a.Card())
		}
		// Passers already took their money back; this only matters in the
		// no-winner edge where the card stays on the revealed pile.
		for _, p := range g.players {
			if p != winner {
				p.ReturnPlayedMoney()
			}
		}
	}

	if winner != nil {
		result.Winner = winner
		g.nextLeadIdx = g.seatOf(winner)
	} else {
		g.nextLeadIdx = (g.turnIdx + 1) % len(g.players)
	}
	g.auction = nil

	g.logger.Debug("auction complete",
		"card", result.Card.ID,
		"winner", playerIDOrNone(result.Winner),
		"bid", result.WinningBid,
		"disgrace", result.Disgrace)
	return result, nil
}

// DiscardLuxury resolves the faux pas obligation for a player.
func (g *Game) DiscardLuxury(playerID, cardID string) error {
	p := g.PlayerByID(playerID)
	if p == nil {
		return fmt.Errorf("%w: unknown player %s", ErrPlayerNotActive, playerID)
	}
	if err := p.DiscardLuxury(cardID); err != nil {
		return err
	}
	g.logger.Debug("luxury discarded", "player", playerID, "card", cardID)
	return nil
}

// NeedsLuxuryDiscard returns the player the game is waiting on before the
// next round can start, nil if none.
func (g *Game) NeedsLuxuryDiscard() *Player {
	for _, p := range g.players {
		if p.NeedsLuxuryDiscard() {
			return p
		}
	}
	return nil
}

// Finish computes the final standings and closes the game.
func (g *Game) Finish() ([]Ranking, error) {
	if g.phase != PhaseScoring {
		return nil, fmt.Errorf("%w: finish requires the scoring phase", ErrWrongPhase)
	}
	g.phase = PhaseFinished
	ranking := Rank(g.players)
	if len(ranking) > 0 && !ranking[0].CastOut {
		g.logger.Debug("game finished", "winner", ranking[0].Player.ID, "score", ranking[0].Score)
	}
	return ranking, nil
}

// ValidateMoneyConservation checks that every player's money cards are fully
// accounted for across held, played and discarded.
func (g *Game) ValidateMoneyConservation() error {
	for _, p := range g.players {
		total := sumValues(p.held) + sumValues(p.played) + sumValues(p.discarded)
		if total != deck.AllotmentTotal {
			return fmt.Errorf("game: money conservation violated for %s: %d != %d",
				p.ID, total, deck.AllotmentTotal)
		}
	}
	return nil
}

// Phase returns the current lifecycle phase.
func (g *Game) Phase() Phase { return g.phase }

// Players returns the seats in order.
func (g *Game) Players() []*Player { return slices.Clone(g.players) }

// PlayerByID finds a player, nil if unknown.
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// TurnIndex returns the seat whose turn it is.
func (g *Game) TurnIndex() int { return g.turnIdx }

// CurrentPlayer returns the player whose turn it is.
func (g *Game) CurrentPlayer() *Player { return g.players[g.turnIdx] }

// EndTriggerCount returns how many end-trigger cards have been drawn.
func (g *Game) EndTriggerCount() int { return g.endTriggers }

// Revealed returns all status cards drawn so far, in draw order.
func (g *Game) Revealed() []deck.Card { return slices.Clone(g.revealed) }

// Auction returns the open auction, nil between rounds.
func (g *Game) Auction() *Auction { return g.auction }

// Seed returns the shuffle seed the deck was built from.
func (g *Game) Seed() int64 { return g.seed }

// DeckRemaining returns the number of undrawn status cards.
func (g *Game) DeckRemaining() int { return g.deck.Remaining() }

func (g *Game) playerAt(idx int) (*Player, error) {
	if idx < 0 || idx >= len(g.players) {
		return nil, fmt.Errorf("%w: seat %d out of range", ErrPlayerNotActive, idx)
	}
	return g.players[idx], nil
}

func (g *Game) seatOf(p *Player) int {
	return slices.Index(g.players, p)
}

// advanceTurn moves the pointer to the next seat still active in the open
// auction.
func (g *Game) advanceTurn() {
	if g.auction == nil || g.auction.ActiveCount() == 0 {
		return
	}
	for i := 1; i <= len(g.players); i++ {
		idx := (g.turnIdx + i) % len(g.players)
		if g.auction.IsActive(g.players[idx].ID) {
			g.turnIdx = idx
			return
		}
	}
}

func playerIDOrNone(p *Player) string {
	if p == nil {
		return "none"
	}
	return p.ID
}
