// Package whackamole implements the Whack-A-Mole runtime: moles pop out of
// nine holes for a random time and the player scores by hitting them
// before the countdown ends.
package whackamole

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/vovakirdan/gamegen/internal/config"
	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/protocol"
	"github.com/vovakirdan/gamegen/internal/registry"
)

// Holes are laid out in a 3x3 grid, indexed row by row.
const (
	Cols  = 3
	Rows  = 3
	Holes = Cols * Rows
)

// Slider thresholds that pick a level.
const (
	spawnEasyAt      = 2000
	spawnNormalAt    = 1000
	durationEasyAt   = 90
	durationNormalAt = 45
)

// Default asset URLs.
const (
	DefaultMole   = "/games/Whack-A-Mole/css/mole.png"
	DefaultGround = "/games/Whack-A-Mole/css/background.jpg"
	DefaultHammer = "/games/Whack-A-Mole/assets/hammer.png"
)

// assetOrder is the image fallback for this game: the first image of a
// set wins over a single image URL.
var assetOrder = []protocol.Source{protocol.FromFirstURL, protocol.FromImageURL, protocol.FromURL}

// Assets are the image URLs currently in use.
type Assets struct {
	Mole   string
	Ground string
	Hammer string
}

// Game implements the Whack-A-Mole game logic.
type Game struct {
	rng    *rand.Rand
	config core.RuntimeConfig

	velocityLevel config.Level
	timeLevel     config.Level

	up        int     // Hole with the mole out, or -1
	lastHole  int     // Hole of the previous peep, or -1
	peepLeft  float64 // ms until the current peep ends
	elapsedMs float64 // ms into the current countdown second
	seconds   int     // Whole seconds elapsed
	count     int
	best      int
	started   bool
	timeUp    bool
	paused    bool

	assets Assets
}

// New creates a new Whack-A-Mole game instance.
func New() *Game {
	g := &Game{
		velocityLevel: config.LevelNormal,
		timeLevel:     config.LevelNormal,
		assets:        Assets{Mole: DefaultMole, Ground: DefaultGround, Hammer: DefaultHammer},
	}
	g.Reset(core.DefaultConfig())
	return g
}

// ID returns the catalog id.
func (g *Game) ID() string { return "Whack-A-Mole" }

// Title returns the display name for this game.
func (g *Game) Title() string { return "Whack-A-Mole" }

// ScoreKey returns the best-score key.
func (g *Game) ScoreKey() string { return "whackAMoleBestScore" }

// Reset stops any round in progress. Levels, assets and best are kept.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	g.config = cfg
	g.rng = rand.New(rand.NewSource(cfg.Seed))
	g.resetRound()
}

func (g *Game) resetRound() {
	g.up = -1
	g.lastHole = -1
	g.peepLeft = 0
	g.elapsedMs = 0
	g.seconds = 0
	g.count = 0
	g.started = false
	g.timeUp = false
	g.paused = false
}

// Duration is the round length for the current time level.
func (g *Game) Duration() time.Duration {
	return config.DurationFor(g.timeLevel)
}

// Step advances the game by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if g.started && in.Has(core.ActionPause) {
		g.paused = !g.paused
	}
	if g.paused {
		return core.StepResult{State: g.State()}
	}

	if !g.started {
		if in.Has(core.ActionTap) || in.Has(core.ActionRestart) {
			g.start()
		}
		return core.StepResult{State: g.State()}
	}

	if in.Targeted {
		g.whack(in.Target.Y*Cols + in.Target.X)
	}

	dt := g.config.TickMillis()
	g.peepLeft -= dt
	if g.peepLeft <= 0 {
		g.up = -1
		if !g.timeUp {
			g.peep()
		}
	}

	g.elapsedMs += dt
	for g.elapsedMs >= 1000 && g.started {
		g.elapsedMs -= 1000
		g.seconds++
		if time.Duration(g.seconds)*time.Second >= g.Duration() {
			g.finish()
		}
	}

	return core.StepResult{State: g.State()}
}

func (g *Game) start() {
	g.resetRound()
	g.started = true
	g.peep()
}

// peep shows a mole in a random hole other than the previous one.
func (g *Game) peep() {
	hole := g.rng.Intn(Holes)
	for hole == g.lastHole {
		hole = g.rng.Intn(Holes)
	}
	g.lastHole = hole
	g.up = hole

	r := config.SpawnRange(g.velocityLevel)
	g.peepLeft = math.Round(g.rng.Float64()*r.Span() + r.Min)
}

func (g *Game) whack(hole int) {
	if hole < 0 || hole >= Holes || hole != g.up {
		return
	}
	g.up = -1
	g.count++
}

func (g *Game) finish() {
	g.timeUp = true
	g.started = false
	g.up = -1
	if g.count > g.best {
		g.best = g.count
	}
}

// HandleMessage applies an editor message.
func (g *Game) HandleMessage(m protocol.Message) error {
	switch m.Type {
	case protocol.TypeUpdateParam:
		v := m.Number()
		switch m.Key {
		case "moleSpawnRate":
			g.velocityLevel = config.LevelFor(v, spawnEasyAt, spawnNormalAt)
		case "gameDuration":
			level := config.LevelFor(v, durationEasyAt, durationNormalAt)
			if level == g.timeLevel {
				return nil
			}
			g.timeLevel = level
			if g.started {
				g.seconds = 0
				g.elapsedMs = 0
			}
		default:
			return fmt.Errorf("whackamole: %w %q", protocol.ErrUnknownKey, m.Key)
		}
		return nil

	case protocol.TypeUpdateAsset:
		url := m.Resolve(assetOrder...)
		if url == "" {
			return fmt.Errorf("whackamole: %w: %s without image", protocol.ErrMalformed, m.AssetType)
		}
		switch m.AssetType {
		case "moleCharacter":
			g.assets.Mole = url
		case "ground":
			g.assets.Ground = url
		case "hammer":
			g.assets.Hammer = url
		default:
			return fmt.Errorf("whackamole: %w %q", protocol.ErrUnknownAsset, m.AssetType)
		}
		return nil
	}
	return fmt.Errorf("whackamole: %w %q", protocol.ErrUnknownType, m.Type)
}

// Levels returns the velocity and time levels.
func (g *Game) Levels() (velocity, duration config.Level) {
	return g.velocityLevel, g.timeLevel
}

// Assets returns the images currently in use.
func (g *Game) Assets() Assets { return g.assets }

// TargetGrid is the layout number keys address in the terminal preview.
func (g *Game) TargetGrid() (cols, rows int) { return Cols, Rows }

// UpHole returns the hole with a mole out, or -1.
func (g *Game) UpHole() int { return g.up }

// Render draws the holes as a 3x3 grid of boxes.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()

	cellW := dst.Width() / Cols
	cellH := (dst.Height() - 2) / Rows
	for i := 0; i < Holes; i++ {
		x := (i % Cols) * cellW
		y := 2 + (i/Cols)*cellH
		dst.DrawBox(x+1, y, cellW-2, cellH)
		cx, cy := x+cellW/2, y+cellH/2
		if i == g.up {
			dst.SetColored(cx-1, cy, '(', core.ColorBrown)
			dst.SetColored(cx, cy, 'M', core.ColorBrown)
			dst.SetColored(cx+1, cy, ')', core.ColorBrown)
		} else {
			dst.SetColored(cx, cy, '○', core.ColorGray)
		}
	}

	left := g.Duration() - time.Duration(g.seconds)*time.Second
	dst.DrawText(2, 0, fmt.Sprintf(" Score: %d  Time: %d  Best: %d ", g.count, int(left.Seconds()), g.best))

	switch {
	case g.timeUp:
		dst.DrawMessage("TIME UP", fmt.Sprintf("Score: %d  |  Space to retry", g.count))
	case !g.started:
		dst.DrawMessage("WHACK-A-MOLE", "Press Space to start")
	case g.paused:
		dst.DrawMessage("PAUSED", "Press P to resume")
	}
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	left := g.Duration() - time.Duration(g.seconds)*time.Second
	if left < 0 || g.timeUp {
		left = 0
	}
	return core.GameState{
		Score:    g.count,
		Best:     g.best,
		GameOver: g.timeUp,
		Paused:   g.paused,
		TimeLeft: left,
	}
}

// Snapshot captures everything that evolves during play.
type Snapshot struct {
	Up            int
	LastHole      int
	PeepLeft      float64
	Seconds       int
	ElapsedMs     float64
	Count         int
	Started       bool
	TimeUp        bool
	VelocityLevel config.Level
	TimeLevel     config.Level
	Assets        Assets
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Up:            g.up,
		LastHole:      g.lastHole,
		PeepLeft:      g.peepLeft,
		Seconds:       g.seconds,
		ElapsedMs:     g.elapsedMs,
		Count:         g.count,
		Started:       g.started,
		TimeUp:        g.timeUp,
		VelocityLevel: g.velocityLevel,
		TimeLevel:     g.timeLevel,
		Assets:        g.assets,
	}
}

func init() {
	registry.Register("Whack-A-Mole", func() registry.Game {
		return New()
	})
}
