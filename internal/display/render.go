package display

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/grandsalon/hautemonde/internal/deck"
	"github.com/grandsalon/hautemonde/internal/protocol"
)

// Renderer builds terminal views of game snapshots. It keeps no game state:
// every method is a pure function of its arguments, so the interactive
// client and plain CLI output share one implementation.
type Renderer struct {
	styles *Styles
}

// NewRenderer creates a renderer with the default styles.
func NewRenderer() *Renderer {
	return &Renderer{styles: NewStyles()}
}

// Francs formats a money amount with thousands grouping.
func Francs(amount int) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	s := strconv.Itoa(amount)

	var b strings.Builder
	b.WriteString(sign)
	lead := len(s) % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < len(s); i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	b.WriteString(" F")
	return b.String()
}

// Card renders a card face colored by kind.
func (r *Renderer) Card(c protocol.CardInfo) string {
	label := "[" + c.Display + "]"
	switch c.Kind {
	case deck.Luxury.String():
		return r.styles.Luxury.Render(label)
	case deck.Prestige.String():
		return r.styles.Prestige.Render(label)
	case deck.Money.String():
		return r.styles.Money.Render(label)
	default:
		return r.styles.Disgrace.Render(label)
	}
}

// Cards renders a card list separated by spaces.
func (r *Renderer) Cards(cards []protocol.CardInfo) string {
	faces := make([]string, len(cards))
	for i, c := range cards {
		faces[i] = r.Card(c)
	}
	return strings.Join(faces, " ")
}

// AuctionBanner renders the card on the block with the standing bid and
// whose turn it is.
func (r *Renderer) AuctionBanner(snap *protocol.Snapshot) string {
	a := snap.Auction
	if a == nil {
		if snap.Finished() {
			return r.styles.Banner.Render(" GAME OVER ")
		}
		return r.styles.Label.Render("between rounds")
	}

	var b strings.Builder
	b.WriteString(r.styles.Banner.Render(" ON THE BLOCK "))
	b.WriteString(" " + r.Card(a.Card) + " " + a.Card.Name)
	if a.Disgrace {
		b.WriteString(" " + r.styles.Disgrace.Render("(first pass takes it)"))
	}
	b.WriteString("\n")

	if a.HighestBid > 0 {
		b.WriteString(fmt.Sprintf("highest bid %s by %s", Francs(a.HighestBid), r.name(snap, a.LeaderID)))
	} else {
		b.WriteString("no bids yet")
	}
	if current := snap.CurrentPlayer(); current != nil {
		b.WriteString(r.styles.Turn.Render("  > " + current.Name + " to act"))
	}
	return b.String()
}

// SeatPanel renders one seat's holdings in a bordered box.
func (r *Renderer) SeatPanel(snap *protocol.Snapshot, idx int) string {
	p := snap.Players[idx]

	title := lipgloss.NewStyle().Foreground(lipgloss.Color(p.Color)).Bold(true).Render(p.Name)
	if snap.Auction != nil {
		if idx == snap.TurnIndex {
			title += " " + r.styles.Turn.Render("to act")
		}
		if snap.Auction.LeaderID == p.ID {
			title += " " + r.styles.SubHeader.Render("leads")
		}
	}

	lines := []string{
		title,
		fmt.Sprintf("%s %s (%d cards)",
			r.styles.Label.Render("cash"), Francs(sumValues(p.HeldMoney)), len(p.HeldMoney)),
	}
	if bid := sumValues(p.PlayedMoney); bid > 0 {
		lines = append(lines, r.styles.Label.Render("bid")+" "+Francs(bid))
	}
	if len(p.StatusCards) > 0 {
		lines = append(lines, r.styles.Label.Render("status")+" "+r.Cards(p.StatusCards))
	}
	if p.PendingDiscard {
		lines = append(lines, r.styles.Alert.Render("owes a luxury"))
	}
	return r.styles.Panel.Render(strings.Join(lines, "\n"))
}

// Table renders the whole table: banner, seat panels side by side and the
// game progress line. A finished snapshot gets the standings appended.
func (r *Renderer) Table(snap *protocol.Snapshot) string {
	panels := make([]string, len(snap.Players))
	for i := range snap.Players {
		panels[i] = r.SeatPanel(snap, i)
	}

	sections := []string{
		r.AuctionBanner(snap),
		lipgloss.JoinHorizontal(lipgloss.Top, panels...),
		r.progress(snap),
	}
	if snap.Finished() {
		sections = append(sections, r.Ranking(snap))
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// AuctionResult renders a one-line settlement summary. The snapshot is only
// consulted for player names.
func (r *Renderer) AuctionResult(snap *protocol.Snapshot, data protocol.AuctionCompleteData) string {
	card := r.Card(data.Card) + " " + data.Card.Name
	if data.WinnerID == "" {
		return "nobody takes " + card
	}

	winner := r.styles.Winner.Render(r.name(snap, data.WinnerID))
	if data.Disgrace {
		line := card + " lands on " + winner
		if len(data.LosingBids) > 0 {
			forfeits := make([]string, len(data.LosingBids))
			for i, lb := range data.LosingBids {
				forfeits[i] = fmt.Sprintf("%s forfeits %s", r.name(snap, lb.PlayerID), Francs(lb.Amount))
			}
			line += "; " + strings.Join(forfeits, ", ")
		}
		return line
	}

	if data.WinningBid == 0 {
		return fmt.Sprintf("%s takes %s for nothing", winner, card)
	}
	return fmt.Sprintf("%s takes %s for %s", winner, card, Francs(data.WinningBid))
}

// Ranking renders the final standings. Cast-out seats keep their rows but no
// placing number; the engine already sorted them to the bottom.
func (r *Renderer) Ranking(snap *protocol.Snapshot) string {
	if len(snap.Ranking) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(r.styles.Banner.Render(" FINAL STANDINGS "))
	b.WriteString("\n")

	place := 0
	for _, entry := range snap.Ranking {
		name := r.name(snap, entry.PlayerID)
		if entry.CastOut {
			row := fmt.Sprintf("   %-12s cast out with %s", name, Francs(entry.RemainingMoney))
			b.WriteString(r.styles.CastOut.Render(row))
		} else {
			place++
			row := fmt.Sprintf("%d. %-12s %3d points, %s left", place, name, entry.Score, Francs(entry.RemainingMoney))
			if place == 1 {
				row = r.styles.Winner.Render(row)
			}
			b.WriteString(row)
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (r *Renderer) progress(snap *protocol.Snapshot) string {
	return r.styles.Label.Render(fmt.Sprintf("card %d of %d drawn, %d of 4 end triggers",
		len(snap.Revealed), deck.StatusDeckSize, snap.EndTriggerCount))
}

func (r *Renderer) name(snap *protocol.Snapshot, id string) string {
	if p := snap.Player(id); p != nil {
		return p.Name
	}
	return id
}

func sumValues(cards []protocol.CardInfo) int {
	total := 0
	for _, c := range cards {
		total += c.Value
	}
	return total
}
