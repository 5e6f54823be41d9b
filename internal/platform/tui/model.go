package tui

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/gamegen/internal/config"
	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/editor"
	"github.com/vovakirdan/gamegen/internal/registry"
)

// panelWidth is the width of the settings panel, borders included.
const panelWidth = 34

// ScoreSaver persists a finished round's score.
type ScoreSaver interface {
	SaveScore(gameID, scoreKey string, score int) (int64, error)
}

// targetGrid is implemented by games whose cells can be picked with the
// number keys.
type targetGrid interface {
	TargetGrid() (cols, rows int)
}

// Model is the Bubble Tea model for previewing one game with its editor
// settings alongside.
type Model struct {
	game       registry.Game
	session    *editor.Session
	screen     *core.Screen
	scores     ScoreSaver
	config     core.RuntimeConfig
	keys       KeyMap
	help       help.Model
	inputFrame core.InputFrame
	gameState  core.GameState
	selected   int // Index of the highlighted parameter
	status     string
	width      int
	height     int
	quitting   bool
	backToMenu bool
	quitOnBack bool // No menu to return to
	scoreSaved bool // Whether score has been saved for current game over
}

// NewModel creates a preview of game. The session is attached to the game
// and synced, so the game starts with the session's settings and assets.
// scores may be nil.
func NewModel(game registry.Game, session *editor.Session, scores ScoreSaver, cfg core.RuntimeConfig) Model {
	// Use time-based seed if not specified
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	m := Model{
		game:       game,
		session:    session,
		scores:     scores,
		config:     cfg,
		keys:       DefaultKeyMap(),
		help:       help.New(),
		inputFrame: core.NewInputFrame(),
		width:      cfg.ScreenW,
		height:     cfg.ScreenH,
	}
	m.config.ScreenW, m.config.ScreenH = m.gameSize()
	m.screen = core.NewScreen(m.config.ScreenW, m.config.ScreenH)

	game.Reset(m.config)
	session.Attach(game)
	session.Sync()
	m.gameState = game.State()
	return m
}

// gameSize is the part of the terminal left for the game.
func (m Model) gameSize() (int, int) {
	w := m.width - panelWidth
	h := m.height - 2
	if w < 20 {
		w = 20
	}
	if h < 10 {
		h = 10
	}
	return w, h
}

// Init starts the tick loop.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.config.Tick())
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick()
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.backToMenu = true
		if m.quitOnBack {
			return m, tea.Quit
		}
		return m, nil
	case key.Matches(msg, m.keys.Screenshot):
		m.saveScreenshot()
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.NextParam):
		m.moveSelection(1)
		return m, nil
	case key.Matches(msg, m.keys.PrevParam):
		m.moveSelection(-1)
		return m, nil
	case key.Matches(msg, m.keys.Increase):
		m.nudge(1)
		return m, nil
	case key.Matches(msg, m.keys.Decrease):
		m.nudge(-1)
		return m, nil
	}

	if preset, ok := m.keys.Preset(msg); ok {
		m.applyPreset(preset)
		return m, nil
	}

	if g, ok := m.game.(targetGrid); ok {
		cols, rows := g.TargetGrid()
		if p, ok := m.keys.Hole(msg, cols, rows); ok {
			m.inputFrame.SetTarget(p.X, p.Y)
			return m, nil
		}
	}

	if action := m.keys.Action(msg); action != core.ActionNone {
		m.inputFrame.Set(action)
	}
	return m, nil
}

// moveSelection moves the parameter highlight by delta, wrapping around.
func (m *Model) moveSelection(delta int) {
	n := len(m.session.Game().Parameters)
	if n == 0 {
		return
	}
	m.selected = (m.selected + delta + n) % n
}

// nudge moves the highlighted parameter by dir steps.
func (m *Model) nudge(dir float64) {
	params := m.session.Game().Parameters
	if len(params) == 0 {
		return
	}
	p := params[m.selected]
	step := p.Step
	if step <= 0 {
		step = 1
	}
	cur := m.session.Settings()[p.Key]
	v, err := m.session.SetParam(p.Key, cur+dir*step)
	if err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("%s = %s", p.Name, formatValue(v))
}

func (m *Model) applyPreset(p config.Preset) {
	if err := m.session.ApplyPreset(string(p)); err != nil {
		m.status = err.Error()
		return
	}
	m.status = fmt.Sprintf("difficulty: %s", p)
}

// handleResize processes window resize events.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height
	m.help.Width = msg.Width
	m.config.ScreenW, m.config.ScreenH = m.gameSize()
	m.screen.Resize(m.config.ScreenW, m.config.ScreenH)
	return m, nil
}

// handleTick processes simulation ticks.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	wasOver := m.gameState.GameOver

	result := m.game.Step(m.inputFrame)
	m.gameState = result.State

	if !m.gameState.GameOver {
		m.scoreSaved = false
	}

	// Save score on game over (once)
	if m.gameState.GameOver && !wasOver && !m.scoreSaved && m.gameState.Score > 0 {
		if m.scores != nil {
			if _, err := m.scores.SaveScore(m.game.ID(), m.game.ScoreKey(), m.gameState.Score); err != nil {
				m.status = "score not saved: " + err.Error()
			}
		}
		m.scoreSaved = true
	}

	// Clear input for next frame
	m.inputFrame.Clear()

	return m, tickCmd(m.config.Tick())
}

// saveScreenshot saves the current screen to a file.
func (m *Model) saveScreenshot() {
	m.screen.Clear()
	m.game.Render(m.screen)

	home, err := os.UserHomeDir()
	if err != nil {
		m.status = "screenshot failed: " + err.Error()
		return
	}
	dir := filepath.Join(home, ".gamegen", "screenshots")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		m.status = "screenshot failed: " + err.Error()
		return
	}

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", m.game.ID(), timestamp))
	if err := os.WriteFile(path, []byte(m.screen.String()), 0o600); err != nil {
		m.status = "screenshot failed: " + err.Error()
		return
	}
	m.status = "saved " + path
}

// View renders the game, the settings panel and the key help.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	m.screen.Clear()
	m.game.Render(m.screen)

	body := lipgloss.JoinHorizontal(lipgloss.Top, RenderScreen(m.screen), m.panel())
	return lipgloss.JoinVertical(lipgloss.Left, body, m.help.View(m.keys))
}

// panel renders the editor settings and round status.
func (m Model) panel() string {
	cfg := m.session.Game()
	settings := m.session.Settings()

	var b strings.Builder
	b.WriteString(titleStyle.Render(cfg.Title))
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("difficulty: " + string(m.session.Difficulty())))
	b.WriteString("\n\n")

	for i, p := range cfg.Parameters {
		line := fmt.Sprintf("%-16s %8s", truncate(p.Name, 16), formatValue(settings[p.Key]))
		if i == m.selected {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("score %d  best %d\n", m.gameState.Score, m.gameState.Best))
	if m.gameState.TimeLeft > 0 {
		b.WriteString(fmt.Sprintf("time  %s\n", m.gameState.TimeLeft.Round(time.Second)))
	}
	switch {
	case m.gameState.GameOver:
		b.WriteString(dimStyle.Render("game over, enter to restart"))
		b.WriteString("\n")
	case m.gameState.Paused:
		b.WriteString(dimStyle.Render("paused"))
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(truncate(m.status, panelWidth-4)))
	}

	return panelStyle.Width(panelWidth - 2).Render(b.String())
}

// formatValue prints whole numbers without decimals.
func formatValue(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.2f", v)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 1 {
		return s[:n]
	}
	return s[:n-1] + "…"
}

// IsQuitting returns true if user requested to quit entirely.
func (m Model) IsQuitting() bool {
	return m.quitting
}

// BackToMenu returns true if user requested to go back to menu.
func (m Model) BackToMenu() bool {
	return m.backToMenu
}

// Run previews game in the local terminal.
func Run(game registry.Game, session *editor.Session, scores ScoreSaver, cfg core.RuntimeConfig) error {
	model := NewModel(game, session, scores, cfg)
	model.quitOnBack = true

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	session.Detach()
	return err
}
