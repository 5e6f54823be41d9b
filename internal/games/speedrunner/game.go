// Package speedrunner implements the Speed Runner lane dodger: the player
// switches between three lanes while blocks of random width rush in from
// the right, a little faster with every spawn.
package speedrunner

import (
	"fmt"
	"math"

	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/protocol"
	"github.com/vovakirdan/gamegen/internal/registry"
)

// World constants in pixels and milliseconds.
const (
	WorldW = 1280
	WorldH = 560

	PlayerX = 100
	PlayerW = 60
	PlayerH = 80

	TopLane    = 60
	MiddleLane = 260
	BottomLane = 460
	laneStep   = 200

	scoreEveryMs = 100
	scoreGain    = 0.5
)

// Editor defaults.
const (
	DefaultBlockSpeed   = 10
	DefaultSpawnDelayMs = 1000
	DefaultCharacter    = "./assets/images/ships/ship1.png"
	DefaultBackground   = "./assets/background.png"
	fallbackCharacter   = "./assets/player.png"
)

// Visual characters for rendering
const (
	PlayerChar = '▶'
	BlockChar  = '▓'
)

type gameState int

const (
	stateActive gameState = iota
	statePaused
	stateOver
)

// Settings are the editor-controlled parameters.
type Settings struct {
	BlockSpeed   float64 // Initial block speed per 20ms move
	SpawnDelayMs float64
}

// Assets are the images currently in use.
type Assets struct {
	Character  []string
	Background string
	Obstacles  []string // Empty means the default blobs
}

// Game implements the Speed Runner game logic.
type Game struct {
	settings  Settings
	assets    Assets
	obstacles *ObstacleManager
	state     gameState
	playerY   float64
	score     float64
	best      int
	spawnMs   float64
	scoreMs   float64
	restarts  int64
	tickCount int
	config    core.RuntimeConfig
}

// New creates a new Speed Runner game instance.
func New() *Game {
	g := &Game{
		settings: Settings{BlockSpeed: DefaultBlockSpeed, SpawnDelayMs: DefaultSpawnDelayMs},
		assets:   Assets{Character: []string{DefaultCharacter}, Background: DefaultBackground},
	}
	g.obstacles = NewObstacleManager(0, g.settings.BlockSpeed)
	g.Reset(core.DefaultConfig())
	return g
}

// ID returns the catalog id.
func (g *Game) ID() string { return "speed-runner" }

// Title returns the display name for this game.
func (g *Game) Title() string { return "Speed Runner" }

// ScoreKey returns the best-score key.
func (g *Game) ScoreKey() string { return "blockstacleHighScore" }

// Reset starts a new run. The game is active right away.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	g.config = cfg
	g.restarts = 0
	g.tickCount = 0
	g.start()
}

func (g *Game) start() {
	g.state = stateActive
	g.playerY = MiddleLane
	g.score = 1
	g.spawnMs = 0
	g.scoreMs = 0
	// Every restart draws a fresh block sequence from the same seed chain.
	g.obstacles.Reset(g.config.Seed+g.restarts, g.settings.BlockSpeed)
	g.restarts++
}

// Step advances the game by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if in.Has(core.ActionPause) && g.state != stateOver {
		if g.state == statePaused {
			g.state = stateActive
		} else {
			g.state = statePaused
		}
	}

	switch g.state {
	case statePaused:
		return core.StepResult{State: g.State()}
	case stateOver:
		if in.Has(core.ActionRestart) || in.Has(core.ActionTap) {
			g.start()
		}
		return core.StepResult{State: g.State()}
	}

	g.tickCount++

	if in.Has(core.ActionUp) && g.playerY != TopLane {
		g.playerY -= laneStep
	}
	if in.Has(core.ActionDown) && g.playerY != BottomLane {
		g.playerY += laneStep
	}

	dt := g.config.TickMillis()

	if g.settings.SpawnDelayMs > 0 {
		g.spawnMs += dt
		for g.spawnMs >= g.settings.SpawnDelayMs {
			g.spawnMs -= g.settings.SpawnDelayMs
			g.obstacles.Spawn(WorldW, g.assets.Obstacles)
		}
	}

	g.scoreMs += dt
	for g.scoreMs >= scoreEveryMs {
		g.scoreMs -= scoreEveryMs
		g.score += scoreGain
	}

	if g.obstacles.Move(PlayerX, g.playerY) {
		g.crash()
	}

	return core.StepResult{State: g.State()}
}

func (g *Game) crash() {
	g.state = stateOver
	if s := g.displayScore(); s > g.best {
		g.best = s
	}
}

func (g *Game) displayScore() int {
	return int(math.Floor(g.score))
}

// HandleMessage applies an editor message. A changed parameter restarts an
// active run so the new speed and spawn delay take effect; resending the
// current value does nothing.
func (g *Game) HandleMessage(m protocol.Message) error {
	switch m.Type {
	case protocol.TypeUpdateParam:
		v := m.Number()
		var field *float64
		switch m.Key {
		case "playerSpeedX":
			field = &g.settings.BlockSpeed
		case "obstacleSpawnDelay":
			field = &g.settings.SpawnDelayMs
		default:
			return fmt.Errorf("speedrunner: %w %q", protocol.ErrUnknownKey, m.Key)
		}
		if *field == v {
			return nil
		}
		*field = v
		if g.state == stateActive {
			g.start()
		}
		return nil

	case protocol.TypeUpdateAsset:
		switch m.AssetType {
		case "character":
			urls := imageList(m)
			if len(urls) == 0 {
				urls = []string{fallbackCharacter}
			}
			g.assets.Character = urls
		case "background":
			url := m.Resolve(protocol.FromImageURL, protocol.FromURL, protocol.FromFirstURL)
			if url == "" {
				return fmt.Errorf("speedrunner: %w: background without image", protocol.ErrMalformed)
			}
			g.assets.Background = url
		case "obstacle":
			// No usable image falls back to the built-in blobs.
			g.assets.Obstacles = imageList(m)
		default:
			return fmt.Errorf("speedrunner: %w %q", protocol.ErrUnknownAsset, m.AssetType)
		}
		return nil
	}
	return fmt.Errorf("speedrunner: %w %q", protocol.ErrUnknownType, m.Type)
}

// imageList resolves urls, then imageUrl, then url. Animated sheets only
// contribute their explicit preview image.
func imageList(m protocol.Message) []string {
	if urls := m.URLs(); len(urls) > 0 {
		return append([]string(nil), urls...)
	}
	if m.Data != nil && m.Data.ImageURL != "" {
		return []string{m.Data.ImageURL}
	}
	if m.URL != "" {
		return []string{m.URL}
	}
	return nil
}

// Settings returns the current parameters.
func (g *Game) Settings() Settings { return g.settings }

// Assets returns the images currently in use.
func (g *Game) Assets() Assets { return g.assets }

// Lane returns the player's top edge.
func (g *Game) Lane() float64 { return g.playerY }

// Render draws the current game state to the screen.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()
	vp := core.Viewport{Screen: dst, WorldW: WorldW, WorldH: WorldH}

	for _, b := range g.obstacles.Blocks() {
		vp.FillRect(b.Rect(), BlockChar, core.ColorMagenta)
	}
	if g.state != stateOver {
		vp.FillRect(core.NewRect(PlayerX, g.playerY, PlayerW, PlayerH), PlayerChar, core.ColorCyan)
	}

	dst.DrawText(2, 0, fmt.Sprintf(" Score: %d  Best: %d ", g.displayScore(), g.best))

	switch g.state {
	case statePaused:
		dst.DrawMessage("PAUSED", "Press Esc to resume")
	case stateOver:
		dst.DrawMessage("GAME OVER", fmt.Sprintf("Score: %d  |  Enter to restart", g.displayScore()))
	}
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	return core.GameState{
		Score:    g.displayScore(),
		Best:     g.best,
		GameOver: g.state == stateOver,
		Paused:   g.state == statePaused,
	}
}

// Snapshot captures everything that evolves during play.
type Snapshot struct {
	PlayerY  float64
	Score    float64
	Speed    float64
	Blocks   []Block
	GameOver bool
	Settings Settings
	Ticks    int
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		PlayerY:  g.playerY,
		Score:    g.score,
		Speed:    g.obstacles.Speed(),
		Blocks:   append([]Block(nil), g.obstacles.Blocks()...),
		GameOver: g.state == stateOver,
		Settings: g.settings,
		Ticks:    g.tickCount,
	}
}

func init() {
	registry.Register("speed-runner", func() registry.Game {
		return New()
	})
}
