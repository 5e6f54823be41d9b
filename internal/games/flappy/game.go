// Package flappy implements the Flappy Bird runtime.
// The player keeps a bird in the air and steers it through gaps in pipes
// that scroll in from the right.
package flappy

import (
	"fmt"

	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/protocol"
	"github.com/vovakirdan/gamegen/internal/registry"
)

// World constants in pixels and milliseconds. The world is 500x600 with y
// growing upward from the ground.
const (
	WorldW = 500
	WorldH = 600

	BirdStartX = 220
	BirdStartY = 120
	Lift       = -5
	JumpHeight = 15
	MaxHeight  = 540
	FlapMs     = 100

	PipeGenMs     = 2000
	PipeStartX    = 500
	PipeBaseY     = -200
	PipeScreenEnd = -60
)

// Editor defaults.
const (
	DefaultGravity    = 0.4
	DefaultPipeGap    = 400
	DefaultSpeed      = 3
	DefaultCharacter  = "assets/images/yellowbird-midflap.png"
	DefaultObstacle   = "/games/flappy-bird/assets/images/pipe.png"
	DefaultBackground = "/games/flappy-bird/assets/images/background.png"
)

// Visual characters for rendering
const (
	BirdChar   = '●'
	PipeChar   = '█'
	GroundChar = '═'
)

type screen int

const (
	screenStart screen = iota
	screenPlay
	screenOver
)

// Settings are the editor-controlled parameters.
type Settings struct {
	Gravity float64
	PipeGap float64
	Speed   float64 // Speed of newly spawned pipes
}

// Assets are the image URLs currently in use.
type Assets struct {
	Character  string
	Animated   bool
	Obstacle   string
	Background string
}

// Game implements the Flappy Bird game logic.
type Game struct {
	bird      Bird
	pipes     *PipeManager
	settings  Settings
	obstacle  string
	bg        string
	screen    screen
	score     int
	best      int
	paused    bool
	sinceJump int // Ticks since the last jump
	tickCount int
	config    core.RuntimeConfig
}

// New creates a new Flappy Bird game instance.
func New() *Game {
	g := &Game{
		settings: Settings{Gravity: DefaultGravity, PipeGap: DefaultPipeGap, Speed: DefaultSpeed},
		obstacle: DefaultObstacle,
		bg:       DefaultBackground,
	}
	g.bird = newBird(g.settings.Gravity)
	g.pipes = NewPipeManager(0)
	return g
}

// ID returns the catalog id.
func (g *Game) ID() string { return "flappy-bird" }

// Title returns the display name for this game.
func (g *Game) Title() string { return "Flappy Bird" }

// ScoreKey returns the best-score key.
func (g *Game) ScoreKey() string { return "highScore" }

// Reset returns to the start screen. Settings and assets are kept.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	g.config = cfg
	g.screen = screenStart
	g.score = 0
	g.paused = false
	g.sinceJump = 0
	g.tickCount = 0
	g.bird.reset()
	g.pipes.Reset(cfg.Seed)
}

// Step advances the game by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if g.screen == screenPlay && in.Has(core.ActionPause) {
		g.paused = !g.paused
	}
	if g.paused {
		return core.StepResult{State: g.State()}
	}

	dt := g.config.TickMillis()
	g.tickCount++

	switch g.screen {
	case screenStart:
		g.bird.animate(dt)
		if in.Has(core.ActionTap) {
			g.start()
		}
	case screenOver:
		if in.Has(core.ActionTap) || in.Has(core.ActionRestart) {
			g.score = 0
			g.pipes.Reset(g.config.Seed + int64(g.tickCount))
			g.start()
		}
	case screenPlay:
		g.play(in, dt)
	}

	return core.StepResult{State: g.State()}
}

func (g *Game) start() {
	g.bird.reset()
	g.sinceJump = 0
	g.bird.jump()
	g.screen = screenPlay
}

func (g *Game) play(in core.InputFrame, dt float64) {
	if in.Has(core.ActionTap) {
		g.sinceJump = 0
		g.bird.jump()
	}

	g.sinceJump++
	g.bird.update(g.sinceJump)
	g.bird.animate(dt)

	g.pipes.Tick(dt, g.settings.PipeGap, g.settings.Speed)
	g.score += g.pipes.Move()

	if g.pipes.Collides(g.bird.Rect()) || g.bird.Y <= 0 {
		g.gameOver()
	}
}

func (g *Game) gameOver() {
	g.screen = screenOver
	if g.score > g.best {
		g.best = g.score
	}
}

// HandleMessage applies an editor message.
func (g *Game) HandleMessage(m protocol.Message) error {
	switch m.Type {
	case protocol.TypeUpdateParam:
		v := m.Number()
		switch m.Key {
		case "gravity":
			g.settings.Gravity = v
			g.bird.Gravity = v
		case "pipeGap":
			g.settings.PipeGap = v
		case "speed":
			g.settings.Speed = v
		default:
			return fmt.Errorf("flappy: %w %q", protocol.ErrUnknownKey, m.Key)
		}
		return nil

	case protocol.TypeUpdateAsset:
		switch m.AssetType {
		case "character":
			if sheet, ok := m.Sheet(); ok {
				g.bird.setSheet(sheet)
			} else {
				url := m.Resolve(protocol.FromImageURL, protocol.FromURL, protocol.FromFirstURL)
				if url == "" {
					return fmt.Errorf("flappy: %w: character without image", protocol.ErrMalformed)
				}
				g.bird.setImage(url)
			}
			g.bird.reset()
		case "obstacle":
			if url := m.Resolve(protocol.FromImageURL, protocol.FromURL); url != "" {
				g.obstacle = url
			}
		case "background":
			if url := m.Resolve(protocol.FromImageURL, protocol.FromURL); url != "" {
				g.bg = url
			}
		default:
			return fmt.Errorf("flappy: %w %q", protocol.ErrUnknownAsset, m.AssetType)
		}
		return nil
	}
	return fmt.Errorf("flappy: %w %q", protocol.ErrUnknownType, m.Type)
}

// Settings returns the current parameters.
func (g *Game) Settings() Settings { return g.settings }

// Assets returns the images currently in use.
func (g *Game) Assets() Assets {
	return Assets{
		Character:  g.bird.Image(),
		Animated:   g.bird.sheet != nil,
		Obstacle:   g.obstacle,
		Background: g.bg,
	}
}

// Render draws the current game state to the screen.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()
	vp := core.Viewport{Screen: dst, WorldW: WorldW, WorldH: WorldH, FlipY: true}

	for _, p := range g.pipes.Pipes() {
		vp.FillRect(p.BottomRect(), PipeChar, core.ColorGreen)
		vp.FillRect(p.TopRect(), PipeChar, core.ColorGreen)
	}

	vp.FillRect(g.bird.Rect(), BirdChar, core.ColorYellow)
	dst.DrawHLine(0, dst.Height()-1, dst.Width(), GroundChar, core.ColorBrown)

	dst.DrawText(2, 0, fmt.Sprintf(" Score: %d  Best: %d ", g.score, g.best))

	switch {
	case g.screen == screenStart:
		dst.DrawMessage("FLAPPY BIRD", "Press Space to flap")
	case g.screen == screenOver:
		dst.DrawMessage("GAME OVER", fmt.Sprintf("Score: %d  |  Space to restart", g.score))
	case g.paused:
		dst.DrawMessage("PAUSED", "Press P to resume")
	}
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	return core.GameState{
		Score:    g.score,
		Best:     g.best,
		GameOver: g.screen == screenOver,
		Paused:   g.paused,
	}
}

// Snapshot captures everything that evolves during play.
type Snapshot struct {
	BirdY     float64
	BirdVert  float64
	SinceJump int
	Pipes     []Pipe
	Score     int
	GameOver  bool
	Settings  Settings
	Assets    Assets
	Ticks     int
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		BirdY:     g.bird.Y,
		BirdVert:  g.bird.Vert,
		SinceJump: g.sinceJump,
		Pipes:     append([]Pipe(nil), g.pipes.Pipes()...),
		Score:     g.score,
		GameOver:  g.screen == screenOver,
		Settings:  g.settings,
		Assets:    g.Assets(),
		Ticks:     g.tickCount,
	}
}

// Register the game with the registry
func init() {
	registry.Register("flappy-bird", func() registry.Game {
		return New()
	})
}
