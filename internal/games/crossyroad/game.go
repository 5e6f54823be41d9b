// Package crossyroad implements the Crossy Road runtime: the player hops
// across a road of bugs to reach the water, and every crossing adds one
// more bug up to a density cap.
package crossyroad

import (
	"fmt"
	"time"

	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/protocol"
	"github.com/vovakirdan/gamegen/internal/registry"
)

// Canvas and movement constants in pixels.
const (
	WorldW = 505
	WorldH = 606

	StartX = 202.5
	StartY = 383
	MinX   = 2.5
	MaxX   = 402.5
	MaxY   = 383

	StepX = 50
	StepY = 30

	RowH      = 83
	goalEdge  = -63 // y at or above which a crossing counts
	playerW   = 66
	playerH   = 80
	secondMs  = 1000
	tileRows  = 6
	waterRow  = 0
	grassFrom = 4
)

// Editor defaults.
const (
	DefaultObstacleSpeed   = 2
	DefaultTrafficDensity  = 0.5
	DefaultPlayerMoveDelay = 100
	DefaultGameDuration    = 180
	DefaultCharacter       = "images/char-boy.png"
	DefaultObstacle        = "images/enemy-bug.png"
	DefaultRoadTexture     = "images/stone-block.png"
)

// assetOrder is the image fallback for this game.
var assetOrder = []protocol.Source{protocol.FromURL, protocol.FromImageURL, protocol.FromFirstURL}

// Visual characters for rendering
const (
	PlayerChar = '@'
	EnemyChar  = 'B'
	WaterChar  = '~'
	RoadChar   = '░'
	GrassChar  = '"'
)

// Settings are the editor-controlled parameters.
type Settings struct {
	ObstacleSpeed   float64
	TrafficDensity  float64
	PlayerMoveDelay float64 // ms between moves
	GameDuration    int     // Seconds
}

// Assets are the images currently in use.
type Assets struct {
	Character   string
	Obstacle    string
	RoadTexture string
}

// Game implements the Crossy Road game logic.
type Game struct {
	config   core.RuntimeConfig
	settings Settings
	assets   Assets
	traffic  *Traffic

	x, y      float64
	sinceMove float64
	score     int
	level     int
	best      int
	last      int // Score of the round that just ended
	timeLeft  int
	secondMs  float64

	started  bool
	paused   bool
	finished bool
	ticks    int
}

// New creates a new Crossy Road game instance.
func New() *Game {
	g := &Game{
		settings: Settings{
			ObstacleSpeed:   DefaultObstacleSpeed,
			TrafficDensity:  DefaultTrafficDensity,
			PlayerMoveDelay: DefaultPlayerMoveDelay,
			GameDuration:    DefaultGameDuration,
		},
		assets: Assets{Character: DefaultCharacter, Obstacle: DefaultObstacle, RoadTexture: DefaultRoadTexture},
	}
	g.traffic = NewTraffic(0)
	g.Reset(core.DefaultConfig())
	return g
}

// ID returns the catalog id.
func (g *Game) ID() string { return "crossy-road" }

// Title returns the display name for this game.
func (g *Game) Title() string { return "Crossy Road" }

// ScoreKey returns the best-score key.
func (g *Game) ScoreKey() string { return "crossyRoadHighScore" }

// Reset prepares a fresh round that waits for a tap to start.
func (g *Game) Reset(cfg core.RuntimeConfig) {
	g.config = cfg
	g.traffic.Reset(cfg.Seed)
	g.started = false
	g.paused = false
	g.finished = false
	g.ticks = 0
	g.initRound()
}

// initRound puts the player at the start with a single enemy and a full
// timer.
func (g *Game) initRound() {
	g.score = 0
	g.level = 1
	g.respawn()
	g.sinceMove = g.settings.PlayerMoveDelay
	g.traffic.Populate(0, g.settings.TrafficDensity, g.settings.ObstacleSpeed)
	g.timeLeft = g.settings.GameDuration
	g.secondMs = 0
}

func (g *Game) respawn() {
	g.x, g.y = StartX, StartY
}

// Step advances the game by one tick.
func (g *Game) Step(in core.InputFrame) core.StepResult {
	if g.started && in.Has(core.ActionPause) {
		g.paused = !g.paused
	}
	if g.paused {
		return core.StepResult{State: g.State()}
	}

	if !g.started && (in.Has(core.ActionTap) || in.Has(core.ActionRestart)) {
		g.started = true
		g.finished = false
		g.initRound()
	}

	g.ticks++
	dt := g.config.TickMillis()

	if g.started {
		g.sinceMove += dt
		if g.sinceMove >= g.settings.PlayerMoveDelay && g.move(in) {
			g.sinceMove = 0
		}
	}

	g.traffic.Move(dt/1000, g.settings.ObstacleSpeed, func(e Enemy) bool {
		if !g.started || !g.collides(e) {
			return false
		}
		g.respawn()
		g.score = 0
		g.level = 1
		g.traffic.Populate(0, g.settings.TrafficDensity, g.settings.ObstacleSpeed)
		return true
	})

	if g.started {
		g.checkGoal()
		g.tickTimer(dt)
	}

	return core.StepResult{State: g.State()}
}

// move applies one arrow key and reports whether the player moved.
func (g *Game) move(in core.InputFrame) bool {
	switch {
	case in.Has(core.ActionLeft):
		g.x -= StepX
	case in.Has(core.ActionRight):
		g.x += StepX
	case in.Has(core.ActionUp):
		g.y -= StepY
	case in.Has(core.ActionDown):
		g.y += StepY
	default:
		return false
	}
	return true
}

// collides uses the sprite-relative hitboxes of the 101x171 tiles.
func (g *Game) collides(e Enemy) bool {
	return g.y+131 >= e.Y+90 &&
		g.x+25 <= e.X+88 &&
		g.y+73 <= e.Y+135 &&
		g.x+76 >= e.X+11
}

// checkGoal scores a crossing and keeps the player on the canvas.
func (g *Game) checkGoal() {
	if g.y <= goalEdge {
		g.respawn()
		g.score++
		g.level++
		if g.score > g.best {
			g.best = g.score
		}
		g.traffic.Populate(g.score, g.settings.TrafficDensity, g.settings.ObstacleSpeed)
	}
	g.x = core.ClampF(g.x, MinX, MaxX)
	if g.y > MaxY {
		g.y = MaxY
	}
}

func (g *Game) tickTimer(dt float64) {
	g.secondMs += dt
	for g.secondMs >= secondMs && g.started {
		g.secondMs -= secondMs
		g.timeLeft--
		if g.timeLeft <= 0 {
			g.finish()
		}
	}
}

// finish ends the round and resets the board for the next one.
func (g *Game) finish() {
	g.last = g.score
	if g.score > g.best {
		g.best = g.score
	}
	g.started = false
	g.finished = true
	g.initRound()
}

// HandleMessage applies an editor message.
func (g *Game) HandleMessage(m protocol.Message) error {
	switch m.Type {
	case protocol.TypeUpdateParam:
		v := m.Number()
		switch m.Key {
		case "obstacleSpeed":
			g.settings.ObstacleSpeed = v
			g.traffic.SetSpeed(v)
		case "trafficDensity":
			g.settings.TrafficDensity = v
			if g.started {
				g.traffic.Populate(g.score, v, g.settings.ObstacleSpeed)
			}
		case "playerMoveDelay":
			g.settings.PlayerMoveDelay = v
		case "gameDuration":
			// A running round keeps counting from the new value.
			g.settings.GameDuration = int(v)
			g.timeLeft = g.settings.GameDuration
		default:
			return fmt.Errorf("crossyroad: %w %q", protocol.ErrUnknownKey, m.Key)
		}
		return nil

	case protocol.TypeUpdateAsset:
		var slot *string
		switch m.AssetType {
		case "character":
			slot = &g.assets.Character
		case "obstacle":
			slot = &g.assets.Obstacle
		case "roadTexture":
			slot = &g.assets.RoadTexture
		default:
			return fmt.Errorf("crossyroad: %w %q", protocol.ErrUnknownAsset, m.AssetType)
		}
		url := m.Resolve(assetOrder...)
		if url == "" {
			return fmt.Errorf("crossyroad: %w: %s without image", protocol.ErrMalformed, m.AssetType)
		}
		*slot = url
		return nil
	}
	return fmt.Errorf("crossyroad: %w %q", protocol.ErrUnknownType, m.Type)
}

// Settings returns the current parameters.
func (g *Game) Settings() Settings { return g.settings }

// Assets returns the images currently in use.
func (g *Game) Assets() Assets { return g.assets }

// Position returns the player's position.
func (g *Game) Position() (float64, float64) { return g.x, g.y }

// Render draws the current game state to the screen.
func (g *Game) Render(dst *core.Screen) {
	dst.Clear()
	vp := core.Viewport{Screen: dst, WorldW: WorldW, WorldH: WorldH}

	for row := 0; row < tileRows; row++ {
		band := core.NewRect(0, float64(row*RowH), WorldW, RowH)
		switch {
		case row == waterRow:
			vp.FillRect(band, WaterChar, core.ColorBlue)
		case row >= grassFrom:
			vp.FillRect(band, GrassChar, core.ColorGreen)
		default:
			vp.FillRect(band, RoadChar, core.ColorGray)
		}
	}
	for _, e := range g.traffic.Enemies() {
		vp.FillRect(core.NewRect(e.X, e.Y+RowH/2, EnemyW, EnemyH/2), EnemyChar, core.ColorRed)
	}
	vp.FillRect(core.NewRect(g.x-playerW/2+50, g.y-playerH/2+RowH, playerW, playerH/2), PlayerChar, core.ColorYellow)

	dst.DrawText(1, 0, fmt.Sprintf(" Score: %d / Level: %d / Time: %ds ", g.score, g.level, g.timeLeft))

	switch {
	case g.paused:
		dst.DrawMessage("PAUSED", "Press Esc to resume")
	case g.finished:
		dst.DrawMessage("TIME UP", fmt.Sprintf("Score: %d  |  Space to play again", g.last))
	case !g.started:
		dst.DrawMessage("CROSSY ROAD", "Press Space to start")
	}
}

// State returns the current game state.
func (g *Game) State() core.GameState {
	score := g.score
	if g.finished {
		score = g.last
	}
	return core.GameState{
		Score:    score,
		Best:     g.best,
		GameOver: g.finished,
		Paused:   g.paused,
		TimeLeft: time.Duration(g.timeLeft) * time.Second,
	}
}

// Snapshot captures everything that evolves during play.
type Snapshot struct {
	X, Y     float64
	Score    int
	Level    int
	TimeLeft int
	Enemies  []Enemy
	Started  bool
	Settings Settings
	Assets   Assets
	Ticks    int
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		X:        g.x,
		Y:        g.y,
		Score:    g.score,
		Level:    g.level,
		TimeLeft: g.timeLeft,
		Enemies:  append([]Enemy(nil), g.traffic.Enemies()...),
		Started:  g.started,
		Settings: g.settings,
		Assets:   g.assets,
		Ticks:    g.ticks,
	}
}

func init() {
	registry.Register("crossy-road", func() registry.Game {
		return New()
	})
}
