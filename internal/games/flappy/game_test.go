package flappy

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

func testConfig(seed int64) core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 80, ScreenH: 24, TickMs: core.DefaultTickMs, Seed: seed}
}

func tap() core.InputFrame {
	in := core.NewInputFrame()
	in.Set(core.ActionTap)
	return in
}

func TestGameDeterminism(t *testing.T) {
	// Flap every 12 ticks so the bird survives long enough for pipes to spawn.
	inputs := make([]core.InputFrame, 400)
	for i := range inputs {
		inputs[i] = core.NewInputFrame()
		if i%12 == 0 {
			inputs[i].Set(core.ActionTap)
		}
	}

	run := func() Snapshot {
		g := New()
		g.Reset(testConfig(12345))
		for _, in := range inputs {
			if g.Step(in).State.GameOver {
				break
			}
		}
		return g.Snapshot()
	}

	s1, s2 := run(), run()
	if !reflect.DeepEqual(s1, s2) {
		t.Errorf("Determinism failed:\nrun1=%+v\nrun2=%+v", s1, s2)
	}
}

func TestStartJumpsBird(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))

	g.Step(tap())

	if g.screen != screenPlay {
		t.Fatal("tap on the start screen should start the game")
	}
	if g.bird.Y != BirdStartY+JumpHeight {
		t.Errorf("bird Y = %v, expected %v", g.bird.Y, BirdStartY+JumpHeight)
	}
	if g.bird.Vert != Lift {
		t.Errorf("bird Vert = %v, expected %v", g.bird.Vert, Lift)
	}
}

func TestGravity(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.Step(tap())

	g.Step(core.NewInputFrame())

	// vert = round2(-5 + 0.4 + 0.4*1/1000) = -4.6
	if math.Abs(g.bird.Vert-(-4.6)) > 1e-9 {
		t.Errorf("Vert = %v, expected -4.6", g.bird.Vert)
	}
	if math.Abs(g.bird.Y-139.6) > 1e-9 {
		t.Errorf("Y = %v, expected 139.6", g.bird.Y)
	}
}

func TestJumpCapsAtMaxHeight(t *testing.T) {
	b := newBird(DefaultGravity)
	b.Y = MaxHeight - 1
	b.jump()
	if b.Y != MaxHeight {
		t.Errorf("Y = %v, expected %v", b.Y, MaxHeight)
	}
}

func TestGroundEndsGame(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.Step(tap())

	g.bird.Y = 1
	g.bird.Vert = 5
	result := g.Step(core.NewInputFrame())

	if !result.State.GameOver {
		t.Error("Game should be over when the bird hits the ground")
	}
	if g.bird.Y != 0 {
		t.Errorf("bird Y = %v, expected clamp to 0", g.bird.Y)
	}
}

func TestPipeCollision(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.Step(tap())

	// Lower segment reaches y=100; the bird sits at y=50 inside it.
	g.pipes.pipes = append(g.pipes.pipes, Pipe{X: 200, Y: -200, Gap: 400, Speed: 3})
	g.bird.Y = 50
	g.bird.Vert = 0

	if !g.Step(core.NewInputFrame()).State.GameOver {
		t.Error("Game should be over when the bird hits a pipe")
	}
}

func TestBirdInGapIsSafe(t *testing.T) {
	p := Pipe{X: 200, Y: -200, Gap: 400}
	// Safe band is (95, 380) for the bird's bottom and top.
	if p.Collides(core.NewRect(BirdStartX, 200, DefaultBirdW, DefaultBirdH)) {
		t.Error("bird in the gap should not collide")
	}
	if !p.Collides(core.NewRect(BirdStartX, 360, DefaultBirdW, DefaultBirdH)) {
		t.Error("bird reaching into the top pipe hitbox should collide")
	}
	if p.Collides(core.NewRect(0, 0, DefaultBirdW, DefaultBirdH)) {
		t.Error("no x overlap should never collide")
	}
}

func TestPassingPipeScores(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.Step(tap())

	g.pipes.pipes = append(g.pipes.pipes, Pipe{X: 160, Y: -200, Gap: 400, Speed: 3})
	g.Step(core.NewInputFrame())

	if g.score != 1 {
		t.Errorf("score = %d, expected 1", g.score)
	}
	g.Step(core.NewInputFrame())
	if g.score != 1 {
		t.Errorf("a pipe must only score once, got %d", g.score)
	}
}

func TestPipeManagerSpawnAndRemoval(t *testing.T) {
	pm := NewPipeManager(7)

	pm.Tick(1980, 400, 5)
	if len(pm.Pipes()) != 0 {
		t.Fatal("pipe spawned before the interval elapsed")
	}
	pm.Tick(20, 350, 5)
	if len(pm.Pipes()) != 1 {
		t.Fatalf("expected 1 pipe, got %d", len(pm.Pipes()))
	}

	p := pm.Pipes()[0]
	if p.X != PipeStartX || p.Gap != 350 || p.Speed != 5 {
		t.Errorf("spawned pipe = %+v", p)
	}
	if p.Y < PipeBaseY || p.Y >= PipeBaseY+200 {
		t.Errorf("pipe Y = %v outside [-200, 0)", p.Y)
	}

	pm.pipes[0].X = PipeScreenEnd + 5
	pm.Move()
	if len(pm.Pipes()) != 0 {
		t.Error("pipe at the screen end should be removed")
	}
}

func TestSpeedAppliesToNewPipesOnly(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.pipes.pipes = append(g.pipes.pipes, Pipe{X: 400, Speed: 3})

	if err := g.HandleMessage(protocol.NewParam("speed", 8)); err != nil {
		t.Fatal(err)
	}
	g.pipes.Tick(PipeGenMs, g.settings.PipeGap, g.settings.Speed)

	pipes := g.pipes.Pipes()
	if pipes[0].Speed != 3 || pipes[1].Speed != 8 {
		t.Errorf("speeds = %v, %v; expected 3, 8", pipes[0].Speed, pipes[1].Speed)
	}
}

func TestUpdateParamIdempotent(t *testing.T) {
	g := New()
	g.Reset(testConfig(3))

	msg := protocol.NewParam("gravity", 0.7)
	if err := g.HandleMessage(msg); err != nil {
		t.Fatal(err)
	}
	first := g.Snapshot()
	if err := g.HandleMessage(msg); err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(first, g.Snapshot()) {
		t.Error("applying the same UPDATE_PARAM twice changed state")
	}
	if g.bird.Gravity != 0.7 {
		t.Errorf("bird gravity = %v", g.bird.Gravity)
	}
}

func TestUnknownMessagesIgnored(t *testing.T) {
	g := New()
	g.Reset(testConfig(3))
	before := g.Snapshot()

	if err := g.HandleMessage(protocol.NewParam("wind", 3)); !errors.Is(err, protocol.ErrUnknownKey) {
		t.Errorf("unknown key error = %v", err)
	}
	if err := g.HandleMessage(protocol.NewAsset("hammer", protocol.URLAsset("/h.png"))); !errors.Is(err, protocol.ErrUnknownAsset) {
		t.Errorf("unknown asset error = %v", err)
	}
	if !reflect.DeepEqual(before, g.Snapshot()) {
		t.Error("unknown messages changed state")
	}
}

func TestCharacterAnimation(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))

	sheet := protocol.SpriteSheet{Prefix: "/ai/red bird/flying/frame-", Count: 2, FrameWidth: 50, FrameHeight: 40}
	if err := g.HandleMessage(protocol.NewAsset("character", protocol.SpriteAsset(sheet))); err != nil {
		t.Fatal(err)
	}

	a := g.Assets()
	if !a.Animated || a.Character != "/ai/red bird/flying/frame-1.png" {
		t.Errorf("Assets() = %+v", a)
	}
	if g.bird.W != 50 || g.bird.H != 40 {
		t.Errorf("bird size = %vx%v, expected 50x40", g.bird.W, g.bird.H)
	}

	// Five ticks of 20ms reach the 100ms flap interval.
	for i := 0; i < 5; i++ {
		g.Step(core.NewInputFrame())
	}
	if got := g.Assets().Character; got != "/ai/red bird/flying/frame-2.png" {
		t.Errorf("after one flap interval character = %q", got)
	}
}

func TestObstaclePrefersDataImageURL(t *testing.T) {
	g := New()
	msg := protocol.Message{
		Type:      protocol.TypeUpdateAsset,
		AssetType: "obstacle",
		URL:       "/url.png",
		Data:      &protocol.AssetData{ImageURL: "/data.png"},
	}
	if err := g.HandleMessage(msg); err != nil {
		t.Fatal(err)
	}
	if g.Assets().Obstacle != "/data.png" {
		t.Errorf("obstacle = %q, expected /data.png", g.Assets().Obstacle)
	}
}

func TestResetKeepsSettings(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	_ = g.HandleMessage(protocol.NewParam("pipeGap", 250))
	g.Step(tap())
	g.score = 4

	g.Reset(testConfig(1))

	if g.score != 0 || g.screen != screenStart {
		t.Error("Reset should clear score and return to the start screen")
	}
	if g.settings.PipeGap != 250 {
		t.Errorf("Reset dropped settings: pipeGap = %v", g.settings.PipeGap)
	}
}

func TestGamePause(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.Step(tap())

	pause := core.NewInputFrame()
	pause.Set(core.ActionPause)
	g.Step(pause)
	if !g.paused {
		t.Fatal("Game should be paused")
	}

	y := g.bird.Y
	g.Step(core.NewInputFrame())
	if g.bird.Y != y {
		t.Errorf("bird moved while paused: %v -> %v", y, g.bird.Y)
	}

	g.Step(pause)
	if g.paused {
		t.Error("Game should be unpaused")
	}
}

func TestBestScoreKept(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.Step(tap())
	g.score = 6
	g.bird.Y = 0.5
	g.bird.Vert = 3
	g.Step(core.NewInputFrame())

	if s := g.State(); !s.GameOver || s.Best != 6 {
		t.Errorf("State() = %+v, expected game over with best 6", s)
	}
}

func TestGameRender(t *testing.T) {
	cfg := testConfig(1)
	g := New()
	g.Reset(cfg)
	g.Step(tap())

	screen := core.NewScreen(cfg.ScreenW, cfg.ScreenH)
	g.Render(screen)

	groundY := cfg.ScreenH - 1
	if screen.Get(0, groundY) != GroundChar {
		t.Errorf("Ground should be drawn at bottom, got %q", screen.Get(0, groundY))
	}

	found := false
	for y := 0; y < cfg.ScreenH && !found; y++ {
		for x := 0; x < cfg.ScreenW; x++ {
			if screen.Get(x, y) == BirdChar {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("bird not drawn")
	}
}
