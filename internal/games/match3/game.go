// Package match3 implements the Simple Match-3 runtime. Runs of three
// equal candies are crushed on a fixed loop, the columns settle and the
// top row refills, all against a countdown.
package match3

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"time"

	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/protocol"
	"github.com/vovakirdan/gamegen/internal/registry"
)

// Loop timing in milliseconds.
const (
	LoopMs   = 150
	SecondMs = 1000
)

// Editor defaults.
const (
	DefaultRows          = 9
	DefaultColumns       = 9
	DefaultScorePerMatch = 30
	DefaultGameDuration  = 60
	DefaultBackground    = "./background.jpg"
)

// DefaultCandies are the built-in gem images.
var DefaultCandies = []string{
	"./images/Blue.png",
	"./images/Orange.png",
	"./images/Green.png",
	"./images/Yellow.png",
	"./images/Red.png",
	"./images/Purple.png",
}

// ErrRejectedAsset is returned for an asset the game refuses to load.
var ErrRejectedAsset = errors.New("asset rejected")

// Visual characters for rendering
const (
	GemChar    = '●'
	CursorChar = '>'
)

// Settings are the editor-controlled parameters.
type Settings struct {
	Rows          int
	Columns       int
	ScorePerMatch int
	GameDuration  int // Seconds
}

// Assets are the images currently in use.
type Assets struct {
	Background string
	Candies    []string
}

// Game implements the Match-3 game logic.
type Game struct {
	rng    *rand.Rand
	config core.RuntimeConfig

	settings Settings
	assets   Assets
	board    *Board

	score    int
	best     int
	timeLeft int // Seconds
	loopMs   float64
	secondMs float64
	resets   int64

	cursor   core.Point
	selected *core.Point
	paused   bool
}

// New creates a new Match-3 game instance.
func New() *Game {
	g := &Game{
		settings: Settings{
			Rows:          DefaultRows,
			Columns:       DefaultColumns,
			ScorePerMatch: DefaultScorePerMatch,
			GameDuration:  DefaultGameDuration,
		},
		assets: Assets{
			Background: DefaultBackground,
			Candies:    append([]string(nil), DefaultCandies...),
		},
	}
	g.Reset(core.DefaultConfig())
	return g
}

// ID returns the catalog id.
func (g *Game) ID() string { return "simple-match-3" }

// Title returns the display name for this game.
func (g *Game) Title() string { return "Simple Match-3" }

// ScoreKey returns the best-score key.
func (g *Game) ScoreKey() string { return "match3HighScore" }

// Reset starts a new round with the given runtime config.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	g.config = cfg
	g.resets = 0
	g.paused = false
	g.restart()
}

// restart rebuilds the board and timer and clears the score.
func (g *Game) restart() {
	g.rng = rand.New(rand.NewSource(g.config.Seed + g.resets))
	g.resets++

	g.board = NewBoard(g.settings.Rows, g.settings.Columns)
	g.board.Fill(g.rng, g.kinds())
	g.score = 0
	g.timeLeft = g.settings.GameDuration
	g.loopMs = 0
	g.secondMs = 0
	g.selected = nil
	g.cursor = core.Point{
		X: core.Clamp(g.cursor.X, 0, g.settings.Columns-1),
		Y: core.Clamp(g.cursor.Y, 0, g.settings.Rows-1),
	}
}

func (g *Game) kinds() int {
	return len(g.assets.Candies)
}

func (g *Game) over() bool { return g.timeLeft <= 0 }

// Step advances the game by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if in.Has(core.ActionPause) && !g.over() {
		g.paused = !g.paused
	}
	if g.paused {
		return core.StepResult{State: g.State()}
	}
	if g.over() {
		if in.Has(core.ActionRestart) {
			g.restart()
		}
		return core.StepResult{State: g.State()}
	}

	g.handleInput(in)

	dt := g.config.TickMillis()

	g.loopMs += dt
	for g.loopMs >= LoopMs {
		g.loopMs -= LoopMs
		g.cycle()
	}

	g.secondMs += dt
	for g.secondMs >= SecondMs && !g.over() {
		g.secondMs -= SecondMs
		g.timeLeft--
	}
	if g.over() {
		g.selected = nil
		if g.score > g.best {
			g.best = g.score
		}
	}

	return core.StepResult{State: g.State()}
}

// cycle runs one crush, slide and refill pass.
func (g *Game) cycle() {
	runs := g.board.Crush()
	g.score += runs * g.settings.ScorePerMatch
	g.board.Slide()
	g.board.Generate(g.rng, g.kinds())
}

// handleInput moves the cursor and turns two selections into a swap.
func (g *Game) handleInput(in core.InputFrame) {
	switch {
	case in.Has(core.ActionUp):
		g.cursor.Y--
	case in.Has(core.ActionDown):
		g.cursor.Y++
	case in.Has(core.ActionLeft):
		g.cursor.X--
	case in.Has(core.ActionRight):
		g.cursor.X++
	}
	g.cursor.X = core.Clamp(g.cursor.X, 0, g.settings.Columns-1)
	g.cursor.Y = core.Clamp(g.cursor.Y, 0, g.settings.Rows-1)

	var pick *core.Point
	if in.Targeted {
		p := in.Target
		pick = &p
	} else if in.Has(core.ActionTap) {
		p := g.cursor
		pick = &p
	}
	if pick == nil {
		return
	}
	if pick.X < 0 || pick.X >= g.settings.Columns || pick.Y < 0 || pick.Y >= g.settings.Rows {
		return
	}

	if g.selected == nil {
		g.selected = pick
		return
	}
	from := *g.selected
	g.selected = nil
	g.board.Swap(from.Y, from.X, pick.Y, pick.X)
}

// HandleMessage applies an editor message. Changing the board size or the
// round length restarts the round; the score per match applies at once.
func (g *Game) HandleMessage(m protocol.Message) error {
	switch m.Type {
	case protocol.TypeUpdateParam:
		v := int(math.Round(m.Number()))
		switch m.Key {
		case "rows":
			if v < 3 {
				return fmt.Errorf("match3: %w: rows %d", protocol.ErrMalformed, v)
			}
			if v != g.settings.Rows {
				g.settings.Rows = v
				g.restart()
			}
		case "columns":
			if v < 3 {
				return fmt.Errorf("match3: %w: columns %d", protocol.ErrMalformed, v)
			}
			if v != g.settings.Columns {
				g.settings.Columns = v
				g.restart()
			}
		case "scorePerMatch":
			g.settings.ScorePerMatch = v
		case "gameDuration":
			if v != g.settings.GameDuration {
				g.settings.GameDuration = v
				g.restart()
			}
		default:
			return fmt.Errorf("match3: %w %q", protocol.ErrUnknownKey, m.Key)
		}
		return nil

	case protocol.TypeUpdateAsset:
		switch m.AssetType {
		case "background":
			url := m.Resolve(protocol.FromURL, protocol.FromImageURL)
			if !strings.HasPrefix(url, "data:image/") {
				return fmt.Errorf("match3: %w: background must be an inline data:image URL", ErrRejectedAsset)
			}
			g.assets.Background = url
		case "gemSet":
			urls := m.URLs()
			if len(urls) == 0 {
				return fmt.Errorf("match3: %w: gem set without urls", ErrRejectedAsset)
			}
			g.assets.Candies = append([]string(nil), urls...)
			g.restart()
		default:
			return fmt.Errorf("match3: %w %q", protocol.ErrUnknownAsset, m.AssetType)
		}
		return nil
	}
	return fmt.Errorf("match3: %w %q", protocol.ErrUnknownType, m.Type)
}

// Settings returns the current parameters.
func (g *Game) Settings() Settings { return g.settings }

// Assets returns the images currently in use.
func (g *Game) Assets() Assets {
	a := g.assets
	a.Candies = append([]string(nil), a.Candies...)
	return a
}

// Board returns a copy of the board.
func (g *Game) Board() *Board { return g.board.Clone() }

// Render draws the current game state to the screen.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()

	const cellW = 3
	boardW := g.settings.Columns*cellW + 1
	ox := (dst.Width() - boardW) / 2
	if ox < 0 {
		ox = 0
	}
	oy := 2

	dst.DrawBox(ox, oy-1, boardW+1, g.settings.Rows+2)
	for r := 0; r < g.board.Rows; r++ {
		for c := 0; c < g.board.Cols; c++ {
			x := ox + 1 + c*cellW
			if k := g.board.At(r, c); k != Blank {
				dst.SetColored(x+1, oy+r, GemChar, core.GemColors[k%len(core.GemColors)])
			}
			if g.cursor.X == c && g.cursor.Y == r {
				dst.SetColored(x, oy+r, CursorChar, core.ColorWhite)
			}
			if g.selected != nil && g.selected.X == c && g.selected.Y == r {
				dst.SetColored(x+2, oy+r, '<', core.ColorYellow)
			}
		}
	}

	dst.DrawText(2, 0, fmt.Sprintf(" Score: %d  Best: %d  Time: %d ", g.score, g.best, g.timeLeft))

	switch {
	case g.paused:
		dst.DrawMessage("PAUSED", "Press Esc to resume")
	case g.over():
		dst.DrawMessage("TIME UP", fmt.Sprintf("Score: %d  |  R to restart", g.score))
	}
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	left := g.timeLeft
	if left < 0 {
		left = 0
	}
	return core.GameState{
		Score:    g.score,
		Best:     g.best,
		GameOver: g.over(),
		Paused:   g.paused,
		TimeLeft: time.Duration(left) * time.Second,
	}
}

// Snapshot captures everything that evolves during play.
type Snapshot struct {
	Cells    [][]int
	Score    int
	TimeLeft int
	Settings Settings
	Candies  []string
	Selected *core.Point
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	s := Snapshot{
		Cells:    g.board.Clone().Cells,
		Score:    g.score,
		TimeLeft: g.timeLeft,
		Settings: g.settings,
		Candies:  append([]string(nil), g.assets.Candies...),
	}
	if g.selected != nil {
		p := *g.selected
		s.Selected = &p
	}
	return s
}

func init() {
	registry.Register("simple-match-3", func() registry.Game {
		return New()
	})
}
