// Package tui is a terminal client for a local game against three bots. All
// input goes through a session host, the same way networked rooms do.
package tui

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"

	"github.com/lox/nomercy/internal/deck"
	"github.com/lox/nomercy/internal/game"
	"github.com/lox/nomercy/internal/host"
)

// Config configures a local game
type Config struct {
	// NewGame deals a fresh session; called at start and for "new"
	NewGame func() *game.Game
	Host    host.Config
	Logger  *log.Logger
}

// Model is the Bubble Tea model for a local game
type Model struct {
	ctx     context.Context
	host    *host.Host
	newGame func() *game.Game
	logger  *log.Logger
	updates chan game.Snapshot

	// UI components
	logViewport viewport.Model
	actionInput textinput.Model

	// State
	snap      game.Snapshot
	ready     bool
	gameLog   []string
	lastTurn  int
	status    string
	quitting  bool
	announced bool

	// Dimensions
	width  int
	height int
}

type snapshotMsg game.Snapshot

type resultMsg struct {
	err error
}

// NewModel creates the model and its session host. The host is not running
// until Start is called.
func NewModel(ctx context.Context, cfg Config) *Model {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}

	vp := viewport.New(10, 5)
	vp.SetContent("")

	ti := textinput.New()
	ti.Placeholder = "play <n> [color], draw, color <c>, swap <player>, take, stack, new, quit"
	ti.Focus()
	ti.CharLimit = 100
	ti.Width = 100
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575")).Bold(true)
	ti.TextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FAFAFA"))
	ti.Prompt = "> "

	m := &Model{
		ctx:         ctx,
		newGame:     cfg.NewGame,
		logger:      cfg.Logger.WithPrefix("tui"),
		updates:     make(chan game.Snapshot, 64),
		logViewport: vp,
		actionInput: ti,
		lastTurn:    -1,
	}

	hostCfg := cfg.Host
	hostCfg.Logger = cfg.Logger
	hostCfg.OnChange = m.publish
	m.host = host.New(hostCfg, cfg.NewGame())
	return m
}

// Start runs the session host until the model's context is cancelled
func (m *Model) Start() {
	go func() {
		if err := m.host.Run(m.ctx); err != nil {
			m.logger.Error("Session host stopped", "error", err)
		}
	}()
}

// Run plays a local game in the terminal until the player quits
func Run(ctx context.Context, cfg Config) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := NewModel(ctx, cfg)
	m.Start()

	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

// publish hands a snapshot to the UI. It runs on the host goroutine and
// never blocks; if the UI falls behind the oldest snapshot is dropped.
func (m *Model) publish(snap game.Snapshot) {
	for {
		select {
		case m.updates <- snap:
			return
		default:
		}
		select {
		case <-m.updates:
		default:
		}
	}
}

// waitForSnapshot returns a command that delivers the next snapshot
func (m *Model) waitForSnapshot() tea.Cmd {
	return func() tea.Msg {
		select {
		case snap := <-m.updates:
			return snapshotMsg(snap)
		case <-m.ctx.Done():
			return nil
		}
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.waitForSnapshot())
}

// Update handles messages in the TUI
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case snapshotMsg:
		m.apply(game.Snapshot(msg))
		cmds = append(cmds, m.waitForSnapshot())

	case resultMsg:
		m.status = describe(msg.err)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Sequence(tea.ClearScreen, tea.Quit)
		case "enter":
			line := m.actionInput.Value()
			m.actionInput.SetValue("")
			if cmd := m.submit(line); cmd != nil {
				return m, cmd
			}
		case "pgup":
			m.logViewport.HalfPageUp()
		case "pgdown":
			m.logViewport.HalfPageDown()
		}
	}

	var cmd tea.Cmd
	m.actionInput, cmd = m.actionInput.Update(msg)
	cmds = append(cmds, cmd)

	return m, tea.Batch(cmds...)
}

// apply records a new snapshot and logs what changed
func (m *Model) apply(snap game.Snapshot) {
	if snap.Turn < m.lastTurn {
		// A new session was dealt
		m.gameLog = nil
		m.announced = false
	}
	if snap.LastAction != "" && (snap.Turn != m.lastTurn || len(m.gameLog) == 0 || m.gameLog[len(m.gameLog)-1] != snap.LastAction) {
		m.addLogEntry(snap.LastAction)
	}
	if snap.Finished() && !m.announced {
		m.addLogEntry(outcome(snap))
		m.announced = true
	}

	m.lastTurn = snap.Turn
	m.snap = snap
	m.ready = true
}

func (m *Model) addLogEntry(entry string) {
	m.gameLog = append(m.gameLog, entry)
	m.logViewport.SetContent(strings.Join(m.gameLog, "\n"))
	if m.logViewport.Height > 0 && m.logViewport.Width > 0 {
		m.logViewport.GotoBottom()
	}
}

// submit parses a prompt line and turns it into a host call
func (m *Model) submit(line string) tea.Cmd {
	cmd, err := ParseCommand(line)
	if errors.Is(err, ErrEmptyCommand) {
		return nil
	}
	if err != nil {
		m.status = err.Error()
		return nil
	}
	m.status = ""

	switch cmd.Action {
	case ActionQuit:
		m.quitting = true
		return tea.Sequence(tea.ClearScreen, tea.Quit)

	case ActionNew:
		return m.run(func(ctx context.Context) error {
			return m.host.Replace(ctx, m.newGame())
		})

	case ActionPlay:
		card, ok := m.cardAt(cmd.Index)
		if !ok {
			m.status = fmt.Sprintf("You have no card %d", cmd.Index)
			return nil
		}
		return m.run(func(ctx context.Context) error {
			if cmd.Color != "" {
				return m.host.PlayWithColor(ctx, game.UserID, card.ID, cmd.Color)
			}
			return m.host.Play(ctx, game.UserID, card.ID)
		})

	case ActionDraw:
		return m.run(func(ctx context.Context) error {
			return m.host.Draw(ctx, game.UserID)
		})

	case ActionColor:
		return m.run(func(ctx context.Context) error {
			return m.host.ConfirmColor(ctx, game.UserID, cmd.Color)
		})

	case ActionSwap:
		target := cmd.Target
		if len(target) == 1 && target >= "1" && target <= "9" {
			target = "bot" + target
		}
		return m.run(func(ctx context.Context) error {
			return m.host.Swap(ctx, game.UserID, target)
		})

	case ActionTake, ActionStack:
		choice := game.TakeStack
		if cmd.Action == ActionStack {
			choice = game.PlayStack
		}
		return m.run(func(ctx context.Context) error {
			return m.host.ResolveStack(ctx, game.UserID, choice)
		})
	}

	return nil
}

func (m *Model) run(fn func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		return resultMsg{err: fn(m.ctx)}
	}
}

// cardAt returns the n-th card (1-based) of the player's hand
func (m *Model) cardAt(n int) (deck.Card, bool) {
	me, ok := m.snap.Player(game.UserID)
	if !ok || n < 1 || n > len(me.Hand) {
		return deck.Card{}, false
	}
	return me.Hand[n-1], true
}

// describe turns a host error into a message for the status line
func describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, game.ErrIllegalPlay):
		return game.IllegalPlayMessage
	case errors.Is(err, game.ErrNotYourTurn):
		return "Wait for your turn"
	case errors.Is(err, game.ErrChoicePending):
		return "Finish choosing a color or swap target first"
	case errors.Is(err, game.ErrNoPendingChoice):
		return "Nothing to choose right now"
	case errors.Is(err, game.ErrGameOver):
		return "The game is over, type 'new' to deal again"
	default:
		return err.Error()
	}
}

// outcome describes how a finished game ended
func outcome(snap game.Snapshot) string {
	switch snap.Winner {
	case game.MercyEliminated:
		return "You hit the mercy limit. Game over!"
	case game.UserID:
		return "You win!"
	}
	if p, ok := snap.Player(snap.Winner); ok {
		return fmt.Sprintf("%s wins", p.Name)
	}
	return fmt.Sprintf("%s wins", snap.Winner)
}

// seated returns the players clockwise from the bottom seat
func seated(snap game.Snapshot) []game.PlayerState {
	players := slices.Clone(snap.Players)
	slices.SortStableFunc(players, func(a, b game.PlayerState) int {
		return slices.Index(game.TableOrder, a.Position) - slices.Index(game.TableOrder, b.Position)
	})
	return players
}

// View renders the TUI
func (m *Model) View() string {
	if m.quitting {
		return ""
	}

	// Don't render until we have valid dimensions
	if m.width == 0 || m.height == 0 || !m.ready {
		return "Loading..."
	}

	table := m.renderTable()
	action := m.renderActionPane()

	tableStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Width(max(m.width-2, 1))
	actionStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#04B575")).
		Width(max(m.width-2, 1))

	tablePane := tableStyle.Render(table)
	actionPane := actionStyle.Render(action)

	m.logViewport.Width = max(m.width-2, 1)
	m.logViewport.Height = max(m.height-lipgloss.Height(tablePane)-lipgloss.Height(actionPane)-2, 1)
	logPane := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#626262")).
		Render(m.logViewport.View())

	return lipgloss.JoinVertical(lipgloss.Left, tablePane, logPane, actionPane)
}

// renderTable renders the discard pile, the opponents and the player's hand
func (m *Model) renderTable() string {
	snap := m.snap
	var b strings.Builder

	direction := "clockwise"
	if snap.Direction == game.CounterClockwise {
		direction = "counter-clockwise"
	}
	b.WriteString(HeaderStyle.Render(strings.ToUpper(string(snap.Mode))))
	fmt.Fprintf(&b, "  Deck: %d  Direction: %s", snap.DeckCount, direction)
	if snap.StackAccumulation > 0 {
		b.WriteString("  ")
		b.WriteString(WarningStyle.Render(fmt.Sprintf("Stack: +%d", snap.StackAccumulation)))
	}
	b.WriteString("\n\n")

	top := snap.TopCard()
	fmt.Fprintf(&b, "Top card: %s  Color: %s\n\n",
		formatCard(top), CardStyle(snap.ActiveColor).Render(snap.ActiveColor.String()))

	for _, p := range seated(snap) {
		if p.ID == game.UserID {
			continue
		}
		line := fmt.Sprintf("%-6s %-10s %2d cards", p.ID, p.Name, p.CardCount)
		if p.ID == snap.CurrentPlayerID {
			b.WriteString(CurrentStyle.Render("▶ " + line))
		} else {
			b.WriteString(PlayerInfoStyle.Render("  " + line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")

	if me, ok := snap.Player(game.UserID); ok {
		b.WriteString("Your hand: ")
		b.WriteString(formatHand(me.Hand))
	} else {
		b.WriteString(InfoStyle.Render("You are out of this game"))
	}

	return b.String()
}

// renderActionPane renders the prompt for what the player can do now
func (m *Model) renderActionPane() string {
	var b strings.Builder

	b.WriteString(m.prompt())
	b.WriteString("\n")
	if m.status != "" {
		b.WriteString(ErrorStyle.Render(m.status))
		b.WriteString("\n")
	}
	b.WriteString(m.actionInput.View())
	b.WriteString("\n")
	b.WriteString(InfoStyle.Render("PgUp/PgDn scroll log • Enter to submit • Ctrl+C to quit"))

	return b.String()
}

// prompt says what the game is waiting for
func (m *Model) prompt() string {
	snap := m.snap

	switch {
	case snap.Finished():
		return SuccessStyle.Render(outcome(snap) + " Type 'new' to play again.")
	case snap.CurrentPlayerID != game.UserID:
		name := snap.CurrentPlayerID
		if p, ok := snap.Player(name); ok {
			name = p.Name
		}
		return InfoStyle.Render(fmt.Sprintf("Waiting for %s...", name))
	case snap.IsChoosingColor:
		return WarningStyle.Render("Choose a color: color <red|yellow|green|blue>")
	case snap.IsSwapping:
		return WarningStyle.Render("Swap hands: swap <bot1|bot2|bot3>")
	case snap.IsStackingChoice:
		return WarningStyle.Render(fmt.Sprintf("+%d coming your way: 'stack' to counter or 'take' to draw", snap.StackAccumulation))
	default:
		return SuccessStyle.Render("Your turn: play <n> [color] or draw")
	}
}

// formatCard renders one card in its color
func formatCard(c deck.Card) string {
	return CardStyle(c.Color).Render("[" + c.String() + "]")
}

// formatHand renders a hand with 1-based indices
func formatHand(hand []deck.Card) string {
	parts := make([]string, len(hand))
	for i, c := range hand {
		parts[i] = fmt.Sprintf("%d:%s", i+1, formatCard(c))
	}
	return strings.Join(parts, " ")
}
