package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/grandsalon/hautemonde/internal/deck"
	"github.com/grandsalon/hautemonde/internal/display"
	"github.com/grandsalon/hautemonde/internal/protocol"
)

// Table is the slice of a session the client drives. Both *session.Host and
// *session.Replica satisfy it.
type Table interface {
	PlaceBid(cardIDs []string) error
	Pass() error
	DiscardLuxury(cardID string) error
}

// Starter is the extra capability the host's seat has.
type Starter interface {
	StartGame() error
}

// Feed adapts session callbacks into program messages. Callbacks arrive on
// the session's read loop; send hands them to the update loop, which owns all
// model state.
type Feed struct {
	send func(tea.Msg)
}

// NewFeed wraps a message sink, usually (*tea.Program).Send.
func NewFeed(send func(tea.Msg)) *Feed {
	return &Feed{send: send}
}

func (f *Feed) OnGameStarted(data protocol.GameStartedData) { f.send(GameStartedMsg{Data: data}) }

func (f *Feed) OnSnapshot(snap *protocol.Snapshot) { f.send(SnapshotMsg{Snap: snap}) }

func (f *Feed) OnAuctionComplete(data protocol.AuctionCompleteData) {
	f.send(AuctionCompleteMsg{Data: data})
}

func (f *Feed) OnRoomUpdate(data protocol.RoomUpdateData) { f.send(RoomUpdateMsg{Data: data}) }

func (f *Feed) OnError(data protocol.ErrorData) { f.send(GameErrorMsg{Data: data}) }

// GameStartedMsg announces the deal.
type GameStartedMsg struct{ Data protocol.GameStartedData }

// SnapshotMsg carries a fresh authoritative view.
type SnapshotMsg struct{ Snap *protocol.Snapshot }

// AuctionCompleteMsg announces a settled auction.
type AuctionCompleteMsg struct{ Data protocol.AuctionCompleteData }

// RoomUpdateMsg carries a roster change.
type RoomUpdateMsg struct{ Data protocol.RoomUpdateData }

// GameErrorMsg carries a rejection from the host or relay.
type GameErrorMsg struct{ Data protocol.ErrorData }

// QuitMsg asks the program to shut down from outside the update loop, e.g.
// when the relay connection drops.
type QuitMsg struct{}

// intentDoneMsg reports the outcome of a submitted action.
type intentDoneMsg struct {
	verb string
	err  error
}

// Config wires a model to its seat.
type Config struct {
	PlayerID string
	Table    Table
	Starter  Starter // nil for guests
	Logger   *log.Logger
}

// Model is the Bubble Tea model for a seated player.
type Model struct {
	logger   *log.Logger
	renderer *display.Renderer

	playerID string
	table    Table
	starter  Starter

	// UI components
	logViewport  viewport.Model
	commandInput textinput.Model

	// State
	view     *protocol.Snapshot
	roster   string
	eventLog []string
	quitting bool
	focused  int // 0 = log, 1 = input

	// Dimensions
	width       int
	height      int
	initialized bool
}

// New creates a model for one seat.
func New(cfg Config) *Model {
	// Will be properly sized when WindowSizeMsg arrives
	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "bid 2000 4000 | pass | discard 5 | help"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	return &Model{
		logger:       cfg.Logger.WithPrefix("tui"),
		renderer:     display.NewRenderer(),
		playerID:     cfg.PlayerID,
		table:        cfg.Table,
		starter:      cfg.Starter,
		logViewport:  vp,
		commandInput: ti,
		eventLog:     []string{},
		focused:      1, // Start with input focused
	}
}

// Init initializes the model.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case QuitMsg:
		m.quitting = true
		return m, tea.Sequence(tea.ClearScreen, tea.Quit)

	case tea.WindowSizeMsg:
		m.logger.Debug("updating dimensions", "width", msg.Width, "height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

	case GameStartedMsg:
		m.addEntry(SuccessStyle.Render(gameOnLine(msg.Data)))

	case SnapshotMsg:
		m.adopt(msg.Snap)

	case AuctionCompleteMsg:
		if m.view != nil {
			m.addEntry(m.renderer.AuctionResult(m.view, msg.Data))
		}

	case RoomUpdateMsg:
		m.roster = rosterLine(msg.Data)
		m.addEntry(InfoStyle.Render(m.roster))

	case GameErrorMsg:
		// Rejections are addressed; other seats' mistakes are not ours.
		if msg.Data.PlayerID == "" || msg.Data.PlayerID == m.playerID {
			m.addEntry(ErrorStyle.Render("rejected: " + msg.Data.Message))
		}

	case intentDoneMsg:
		if msg.err != nil {
			m.addEntry(ErrorStyle.Render(fmt.Sprintf("%s failed: %v", msg.verb, msg.err)))
		}

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "tab":
			// Switch focus between log and input
			if m.focused == 0 {
				m.focused = 1
				m.commandInput.Focus()
			} else {
				m.focused = 0
				m.commandInput.Blur()
			}
		case "enter":
			if m.focused == 1 {
				input := m.commandInput.Value()
				m.commandInput.SetValue("")
				if cmd := m.Submit(input); cmd != nil {
					cmds = append(cmds, cmd)
				}
			}
		case "up", "k":
			if m.focused == 0 {
				m.logViewport.ScrollUp(1)
			}
		case "down", "j":
			if m.focused == 0 {
				m.logViewport.ScrollDown(1)
			}
		case "pgup":
			if m.focused == 0 {
				m.logViewport.HalfPageUp()
			}
		case "pgdown":
			if m.focused == 0 {
				m.logViewport.HalfPageDown()
			}
		case "home":
			if m.focused == 0 {
				m.logViewport.GotoTop()
			}
		case "end":
			if m.focused == 0 {
				m.logViewport.GotoBottom()
			}
		}
	}

	var cmd tea.Cmd

	// Only update input if it's focused
	if m.focused == 1 {
		m.commandInput, cmd = m.commandInput.Update(msg)
		cmds = append(cmds, cmd)
	}

	// Always update viewport (for scrolling)
	m.logViewport, cmd = m.logViewport.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// View renders the table pane, the event log and the command pane stacked
// top to bottom.
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	paneWidth := clamp(m.width - 2)

	tablePane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(blurredBorder).
		Width(paneWidth).
		Render(m.renderTablePane())

	commandPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderFor(1)).
		Width(paneWidth).
		Render(m.renderCommandPane())

	logHeight := clamp(m.height - lipgloss.Height(tablePane) - lipgloss.Height(commandPane) - 2)
	m.logViewport.Width = paneWidth
	m.logViewport.Height = logHeight
	m.logViewport.SetContent(strings.Join(m.eventLog, "\n"))

	// On first proper sizing, jump to the most recent events
	if !m.initialized && logHeight > 1 {
		m.logViewport.GotoBottom()
		m.initialized = true
	}

	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(m.borderFor(0)).
		Width(paneWidth).
		Height(logHeight).
		Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Top, tablePane, logPane, commandPane)
}

func (m *Model) borderFor(pane int) lipgloss.Color {
	if m.focused == pane {
		return focusedBorder
	}
	return blurredBorder
}

func (m *Model) renderTablePane() string {
	if m.view == nil {
		waiting := "Waiting for the host to start the game."
		if m.starter != nil {
			waiting = "No game yet. Type 'start' when everyone is seated."
		}
		if m.roster != "" {
			waiting += "\n" + InfoStyle.Render(m.roster)
		}
		return waiting
	}
	return m.renderer.Table(m.view)
}

func (m *Model) renderCommandPane() string {
	var content strings.Builder

	m.commandInput.Placeholder = m.placeholder()
	content.WriteString(m.commandInput.View())
	content.WriteString("\n")

	if m.focused == 0 {
		content.WriteString(InfoStyle.Render("Log focused: ↑↓ scroll, PgUp/PgDn half page, Home/End, Tab to input"))
	} else {
		content.WriteString(InfoStyle.Render("Tab to scroll log • Enter to submit • Ctrl+C to quit"))
	}

	return content.String()
}

// placeholder suggests the command the state calls for.
func (m *Model) placeholder() string {
	if m.view == nil {
		if m.starter != nil {
			return "start | quit"
		}
		return "waiting for the host | quit"
	}
	me := m.view.Player(m.playerID)
	if me == nil {
		return "spectating | quit"
	}
	if me.PendingDiscard && hasLuxury(me) {
		return "discard <value>, e.g. discard 5"
	}
	cur := m.view.CurrentPlayer()
	if m.view.Auction != nil && cur != nil {
		if cur.ID == m.playerID {
			return "bid 2000 4000 | pass"
		}
		return "waiting for " + cur.Name
	}
	return "between rounds"
}

// adopt replaces the model's view and narrates what changed.
func (m *Model) adopt(snap *protocol.Snapshot) {
	prev := m.view
	m.view = snap

	if a := snap.Auction; a != nil {
		if prev == nil || prev.Auction == nil || prev.Auction.Card.ID != a.Card.ID {
			line := "Up for auction: " + m.renderer.Card(a.Card)
			if a.Disgrace {
				line += WarningStyle.Render("  first pass takes it, everyone else forfeits")
			}
			m.addEntry(line)
		}
	}

	if me := snap.Player(m.playerID); me != nil && me.PendingDiscard && hasLuxury(me) {
		if prevMe := seatIn(prev, m.playerID); prevMe == nil || !prevMe.PendingDiscard || !hasLuxury(prevMe) {
			m.addEntry(WarningStyle.Render("You owe a luxury: discard <value>"))
		}
	}

	if snap.Finished() && (prev == nil || !prev.Finished()) {
		m.addEntry(m.renderer.Ranking(snap))
	}
}

// Submit parses one line of input and returns the command that carries the
// action out. Session calls run off the update loop so that a host seat's own
// broadcast fan-out can never block it.
func (m *Model) Submit(input string) tea.Cmd {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(input)))
	if len(fields) == 0 {
		return nil
	}
	verb, args := fields[0], fields[1:]

	switch verb {
	case "start":
		if m.starter == nil {
			m.addEntry(ErrorStyle.Render("only the host can start the game"))
			return nil
		}
		return m.intent("start", m.starter.StartGame)

	case "bid", "b":
		ids, err := resolveBid(m.me(), args)
		if err != nil {
			m.addEntry(ErrorStyle.Render(err.Error()))
			return nil
		}
		return m.intent("bid", func() error { return m.table.PlaceBid(ids) })

	case "pass", "p":
		return m.intent("pass", m.table.Pass)

	case "discard", "d":
		id, err := resolveDiscard(m.me(), args)
		if err != nil {
			m.addEntry(ErrorStyle.Render(err.Error()))
			return nil
		}
		return m.intent("discard", func() error { return m.table.DiscardLuxury(id) })

	case "help", "?":
		m.addHelp()
		return nil

	case "quit", "q", "exit":
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)

	default:
		m.addEntry(ErrorStyle.Render(fmt.Sprintf("unknown command %q, try 'help'", verb)))
		return nil
	}
}

func (m *Model) intent(verb string, fn func() error) tea.Cmd {
	return func() tea.Msg {
		return intentDoneMsg{verb: verb, err: fn()}
	}
}

func (m *Model) me() *protocol.PlayerSnapshot {
	return seatIn(m.view, m.playerID)
}

// addEntry appends to the event log and keeps the viewport pinned to the
// newest entry.
func (m *Model) addEntry(entry string) {
	m.eventLog = append(m.eventLog, entry)
	m.logViewport.SetContent(strings.Join(m.eventLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

func (m *Model) addHelp() {
	for _, line := range []string{
		"commands:",
		"  bid <amount> [amount...]  play money cards, e.g. bid 2000 4000",
		"  pass                      stop bidding; the first pass takes a disgrace",
		"  discard <value|id>        give up a luxury after a faux pas",
		"  start                     begin the game (host only)",
		"  quit                      leave the table",
	} {
		m.addEntry(InfoStyle.Render(line))
	}
}

// Entries returns a copy of the event log.
func (m *Model) Entries() []string {
	entries := make([]string, len(m.eventLog))
	copy(entries, m.eventLog)
	return entries
}

// Latest returns the most recent adopted view, nil before the deal.
func (m *Model) Latest() *protocol.Snapshot {
	return m.view
}

// resolveBid maps bid amounts to held money card IDs. Repeated amounts
// resolve to distinct cards.
func resolveBid(me *protocol.PlayerSnapshot, args []string) ([]string, error) {
	if me == nil {
		return nil, fmt.Errorf("you are not seated at this table")
	}
	if len(args) == 0 {
		return nil, fmt.Errorf("bid needs amounts, e.g. bid 2000 4000")
	}
	used := make(map[string]bool)
	ids := make([]string, 0, len(args))
	for _, arg := range args {
		amount, err := strconv.Atoi(strings.ReplaceAll(arg, ",", ""))
		if err != nil {
			return nil, fmt.Errorf("%q is not an amount", arg)
		}
		id := ""
		for _, c := range me.HeldMoney {
			if c.Value == amount && !used[c.ID] {
				id = c.ID
				break
			}
		}
		if id == "" {
			return nil, fmt.Errorf("no unplayed %d franc card in hand", amount)
		}
		used[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// resolveDiscard accepts a luxury value or a card ID.
func resolveDiscard(me *protocol.PlayerSnapshot, args []string) (string, error) {
	if me == nil {
		return "", fmt.Errorf("you are not seated at this table")
	}
	if len(args) != 1 {
		return "", fmt.Errorf("discard takes one card, e.g. discard 5")
	}
	arg := args[0]
	value, valueErr := strconv.Atoi(arg)
	for _, c := range me.StatusCards {
		if c.Kind != deck.Luxury.String() {
			continue
		}
		if c.ID == arg || (valueErr == nil && c.Value == value) {
			return c.ID, nil
		}
	}
	return "", fmt.Errorf("no luxury %q to discard", arg)
}

func seatIn(snap *protocol.Snapshot, id string) *protocol.PlayerSnapshot {
	if snap == nil {
		return nil
	}
	return snap.Player(id)
}

func hasLuxury(seat *protocol.PlayerSnapshot) bool {
	for _, c := range seat.StatusCards {
		if c.Kind == deck.Luxury.String() {
			return true
		}
	}
	return false
}

func gameOnLine(data protocol.GameStartedData) string {
	if data.TurnTimerSeconds > 0 {
		return fmt.Sprintf("Game on: %d players, %ds turn timer", len(data.Players), data.TurnTimerSeconds)
	}
	return fmt.Sprintf("Game on: %d players, no turn timer", len(data.Players))
}

func rosterLine(data protocol.RoomUpdateData) string {
	names := make([]string, len(data.Participants))
	for i, p := range data.Participants {
		name := p.Name
		if p.ID == data.HostID {
			name += " (host)"
		}
		if !p.Connected {
			name += " (away)"
		}
		names[i] = name
	}
	return fmt.Sprintf("room %s, seated %d: %s", data.RoomID, len(names), strings.Join(names, ", "))
}

func clamp(n int) int {
	if n < 1 {
		return 1
	}
	return n
}
