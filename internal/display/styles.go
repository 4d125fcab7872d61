package display

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// Styles contains the styling for rendered game state.
type Styles struct {
	Banner    lipgloss.Style
	SubHeader lipgloss.Style
	Panel     lipgloss.Style
	Label     lipgloss.Style
	Luxury    lipgloss.Style
	Prestige  lipgloss.Style
	Disgrace  lipgloss.Style
	Money     lipgloss.Style
	Turn      lipgloss.Style
	Alert     lipgloss.Style
	Winner    lipgloss.Style
	CastOut   lipgloss.Style
}

// NewStyles creates the default style set.
func NewStyles() *Styles {
	return &Styles{
		Banner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 2).
			Bold(true),
		SubHeader: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Panel: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1),
		Label: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Luxury: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true),
		Prestige: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Disgrace: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Money: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#74B9FF")),
		Turn: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		Alert: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")),
		Winner: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		CastOut: lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262")).
			Strikethrough(true),
	}
}

// ForcePlainOutput disables color and text attributes globally, for output
// piped to files and for byte-stable test assertions.
func ForcePlainOutput() {
	lipgloss.SetColorProfile(termenv.Ascii)
}
