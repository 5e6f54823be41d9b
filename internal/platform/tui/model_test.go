package tui

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/config"
	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/editor"
	"github.com/vovakirdan/gamegen/internal/games/flappy"
	_ "github.com/vovakirdan/gamegen/internal/games/whackamole"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// stubGame ends its round with a fixed score after overAfter steps.
type stubGame struct {
	steps     int
	overAfter int
	score     int
	msgs      []protocol.Message
	last      core.InputFrame
}

func (g *stubGame) ID() string                   { return "stub" }
func (g *stubGame) Title() string                { return "Stub" }
func (g *stubGame) ScoreKey() string             { return "stubBest" }
func (g *stubGame) Reset(cfg core.RuntimeConfig) { g.steps = 0 }
func (g *stubGame) Render(dst *core.Screen)      { dst.DrawText(0, 0, "stub") }
func (g *stubGame) TargetGrid() (int, int)       { return 3, 3 }

func (g *stubGame) Step(in core.InputFrame) core.StepResult {
	g.steps++
	g.last = core.InputFrame{Target: in.Target, Targeted: in.Targeted}
	return core.StepResult{State: g.State()}
}

func (g *stubGame) State() core.GameState {
	over := g.overAfter > 0 && g.steps >= g.overAfter
	return core.GameState{Score: g.score, GameOver: over}
}

func (g *stubGame) HandleMessage(m protocol.Message) error {
	g.msgs = append(g.msgs, m)
	return nil
}

type recordedScore struct {
	gameID, key string
	score       int
}

type scoreLog []recordedScore

func (l *scoreLog) SaveScore(gameID, scoreKey string, score int) (int64, error) {
	*l = append(*l, recordedScore{gameID, scoreKey, score})
	return int64(len(*l)), nil
}

func gameConfig(t *testing.T, id string) catalog.GameConfig {
	t.Helper()
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog.Default() failed: %v", err)
	}
	g, err := cat.MustGame(id)
	if err != nil {
		t.Fatalf("MustGame(%q) failed: %v", id, err)
	}
	return g
}

func testConfig() core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 100, ScreenH: 30, TickMs: core.DefaultTickMs, Seed: 1}
}

func TestKeyMapAction(t *testing.T) {
	keys := DefaultKeyMap()
	tests := []struct {
		msg  tea.KeyMsg
		want core.Action
	}{
		{tea.KeyMsg{Type: tea.KeyUp}, core.ActionUp},
		{runes("s"), core.ActionDown},
		{tea.KeyMsg{Type: tea.KeyLeft}, core.ActionLeft},
		{runes("d"), core.ActionRight},
		{tea.KeyMsg{Type: tea.KeySpace}, core.ActionTap},
		{runes("p"), core.ActionPause},
		{tea.KeyMsg{Type: tea.KeyEnter}, core.ActionRestart},
		{runes("q"), core.ActionQuit},
		{runes("]"), core.ActionNone},
	}
	for _, tt := range tests {
		if got := keys.Action(tt.msg); got != tt.want {
			t.Errorf("Action(%q) = %v, want %v", tt.msg.String(), got, tt.want)
		}
	}
}

func TestKeyMapHole(t *testing.T) {
	keys := DefaultKeyMap()
	tests := []struct {
		key        string
		cols, rows int
		want       core.Point
		ok         bool
	}{
		{"1", 3, 3, core.Point{X: 0, Y: 0}, true},
		{"5", 3, 3, core.Point{X: 1, Y: 1}, true},
		{"9", 3, 3, core.Point{X: 2, Y: 2}, true},
		{"5", 2, 2, core.Point{}, false},
		{"a", 3, 3, core.Point{}, false},
		{"1", 0, 0, core.Point{}, false},
	}
	for _, tt := range tests {
		got, ok := keys.Hole(runes(tt.key), tt.cols, tt.rows)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Hole(%q, %d, %d) = %v, %v; want %v, %v", tt.key, tt.cols, tt.rows, got, ok, tt.want, tt.ok)
		}
	}
}

func TestKeyMapPreset(t *testing.T) {
	keys := DefaultKeyMap()
	if p, ok := keys.Preset(runes("c")); !ok || p != config.PresetHard {
		t.Errorf("Preset(c) = %q, %v", p, ok)
	}
	if _, ok := keys.Preset(runes("w")); ok {
		t.Error("Preset(w) should not select a preset")
	}
}

func TestNewModelSyncsSession(t *testing.T) {
	game := &stubGame{}
	session := editor.NewSession(gameConfig(t, "flappy-bird"), nil)
	NewModel(game, session, nil, testConfig())

	// Three settings and three default assets.
	if len(game.msgs) != 6 {
		t.Fatalf("game received %d messages, want 6", len(game.msgs))
	}
	if game.msgs[0].Type != protocol.TypeUpdateParam {
		t.Errorf("first message = %s, want %s", game.msgs[0].Type, protocol.TypeUpdateParam)
	}
}

func TestModelNudgeReachesGame(t *testing.T) {
	game := flappy.New()
	session := editor.NewSession(gameConfig(t, "flappy-bird"), nil)
	var m tea.Model = NewModel(game, session, nil, testConfig())

	// Gravity is the first parameter: 0.4 + 0.1.
	m, _ = m.Update(runes("]"))
	if got := session.Settings()["gravity"]; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("session gravity = %v, want 0.5", got)
	}
	if got := game.Settings().Gravity; math.Abs(got-0.5) > 1e-9 {
		t.Errorf("game gravity = %v, want 0.5", got)
	}

	// Next parameter is the pipe gap; clamped at its maximum.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	for i := 0; i < 20; i++ {
		m, _ = m.Update(runes("]"))
	}
	if got := game.Settings().PipeGap; got != 500 {
		t.Errorf("game pipe gap = %v, want 500", got)
	}

	// Shift+tab wraps back to gravity.
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyShiftTab})
	m.Update(runes("["))
	if got := game.Settings().Gravity; math.Abs(got-0.4) > 1e-9 {
		t.Errorf("game gravity after decrease = %v, want 0.4", got)
	}
}

func TestModelPresetKey(t *testing.T) {
	game := flappy.New()
	session := editor.NewSession(gameConfig(t, "flappy-bird"), nil)
	var m tea.Model = NewModel(game, session, nil, testConfig())

	m.Update(runes("c"))
	if session.Difficulty() != config.PresetHard {
		t.Errorf("difficulty = %q, want hard", session.Difficulty())
	}
	if got := game.Settings().PipeGap; got != 300 {
		t.Errorf("game pipe gap = %v, want 300", got)
	}
}

func TestModelHoleKeyTargets(t *testing.T) {
	game := &stubGame{}
	session := editor.NewSession(gameConfig(t, "Whack-A-Mole"), nil)
	var m tea.Model = NewModel(game, session, nil, testConfig())

	m, _ = m.Update(runes("6"))
	m.Update(TickMsg{})
	if !game.last.Targeted || game.last.Target != (core.Point{X: 2, Y: 1}) {
		t.Errorf("step input = %+v, want target {2 1}", game.last)
	}
}

func TestModelSavesScoreOnce(t *testing.T) {
	game := &stubGame{overAfter: 2, score: 7}
	session := editor.NewSession(gameConfig(t, "flappy-bird"), nil)
	var scores scoreLog
	var m tea.Model = NewModel(game, session, &scores, testConfig())

	for i := 0; i < 5; i++ {
		m, _ = m.Update(TickMsg{})
	}
	if len(scores) != 1 {
		t.Fatalf("saved %d scores, want 1", len(scores))
	}
	if scores[0] != (recordedScore{"stub", "stubBest", 7}) {
		t.Errorf("saved %+v", scores[0])
	}
}

func TestModelSkipsZeroScore(t *testing.T) {
	game := &stubGame{overAfter: 1}
	session := editor.NewSession(gameConfig(t, "flappy-bird"), nil)
	var scores scoreLog
	var m tea.Model = NewModel(game, session, &scores, testConfig())

	for i := 0; i < 3; i++ {
		m, _ = m.Update(TickMsg{})
	}
	if len(scores) != 0 {
		t.Errorf("saved %d scores, want 0", len(scores))
	}
}

func TestModelViewShowsPanel(t *testing.T) {
	session := editor.NewSession(gameConfig(t, "flappy-bird"), nil)
	m := NewModel(&stubGame{}, session, nil, testConfig())
	view := m.View()
	for _, want := range []string{"Flappy Bird", "Gravity", "Pipe Gap", "stub"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestMenuSelectsRegisteredGames(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	var m tea.Model = NewMenuModel(cat, testConfig())
	menu := m.(MenuModel)

	ids := make(map[string]bool)
	for _, item := range menu.items {
		ids[item.GameID] = true
	}
	if !ids["flappy-bird"] || !ids["Whack-A-Mole"] {
		t.Fatalf("menu items = %v", menu.items)
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	sel := m.(MenuModel).Selected()
	if sel == nil || sel.GameID != menu.items[1].GameID {
		t.Errorf("Selected() = %+v, want %s", sel, menu.items[1].GameID)
	}
}

func TestSessionModelMenuToPreview(t *testing.T) {
	cat, err := catalog.Default()
	if err != nil {
		t.Fatal(err)
	}
	var m tea.Model = NewSessionModel(cat, nil, testConfig(), nil)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if m.(SessionModel).preview == nil {
		t.Fatal("enter on the menu should start a preview")
	}

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if m.(SessionModel).preview != nil {
		t.Fatal("esc should return to the menu")
	}

	_, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("q on the menu should quit")
	}
}

func TestFormatValue(t *testing.T) {
	tests := map[float64]string{400: "400", 0.4: "0.40", 2.5: "2.50", -1: "-1"}
	for in, want := range tests {
		if got := formatValue(in); got != want {
			t.Errorf("formatValue(%v) = %q, want %q", in, got, want)
		}
	}
}
