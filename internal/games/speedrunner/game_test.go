package speedrunner

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

func press(a core.Action) core.InputFrame {
	in := core.NewInputFrame()
	in.Set(a)
	return in
}

func TestGameDeterminism(t *testing.T) {
	run := func() Snapshot {
		g := New()
		g.Reset(testConfig(2024))
		for i := 0; i < 600; i++ {
			in := core.NewInputFrame()
			switch i % 40 {
			case 0:
				in.Set(core.ActionUp)
			case 20:
				in.Set(core.ActionDown)
			}
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

func TestLaneMovesStayInBounds(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))

	g.Step(press(core.ActionUp))
	if g.Lane() != TopLane {
		t.Errorf("lane = %v, expected top", g.Lane())
	}
	g.Step(press(core.ActionUp))
	if g.Lane() != TopLane {
		t.Errorf("moved above the top lane: %v", g.Lane())
	}

	g.Step(press(core.ActionDown))
	g.Step(press(core.ActionDown))
	g.Step(press(core.ActionDown))
	if g.Lane() != BottomLane {
		t.Errorf("lane = %v, expected bottom", g.Lane())
	}
}

func TestScoreGrowsHalfPointPer100ms(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	_ = g.HandleMessage(protocol.NewParam("obstacleSpawnDelay", 100000))

	// 1s = 50 ticks = 10 score intervals.
	for i := 0; i < 50; i++ {
		g.Step(core.NewInputFrame())
	}
	if g.score != 6 {
		t.Errorf("score = %v, expected 6", g.score)
	}
	if g.State().Score != 6 {
		t.Errorf("State().Score = %d", g.State().Score)
	}
}

func TestSpawnAcceleratesAndPlacesBlocks(t *testing.T) {
	om := NewObstacleManager(5, 10)
	for i := 0; i < 3; i++ {
		om.Spawn(WorldW, nil)
	}

	if math.Abs(om.Speed()-10.3) > 1e-9 {
		t.Errorf("speed = %v, expected 10.3", om.Speed())
	}
	for _, b := range om.Blocks() {
		if b.X < WorldW+spawnOffset || b.X >= WorldW+spawnOffset+3*spawnPushMax {
			t.Errorf("block x = %v outside spawn band", b.X)
		}
		if b.Y != 10 && b.Y != 210 && b.Y != 410 {
			t.Errorf("block y = %v not a row", b.Y)
		}
		if b.W != 180 && b.W != 280 && b.W != 380 {
			t.Errorf("block width = %v", b.W)
		}
		found := false
		for _, blob := range DefaultBlobs {
			if b.Image == blob {
				found = true
			}
		}
		if !found {
			t.Errorf("block image %q is not a default blob", b.Image)
		}
	}
}

func TestSpawnUsesObstacleSet(t *testing.T) {
	om := NewObstacleManager(5, 10)
	om.Spawn(WorldW, []string{"/ai/box.png"})
	if om.Blocks()[0].Image != "/ai/box.png" {
		t.Errorf("image = %q", om.Blocks()[0].Image)
	}
}

func TestMoveDropsOffscreenBlocks(t *testing.T) {
	om := NewObstacleManager(1, 10)
	om.blocks = append(om.blocks, Block{X: -180, W: 180, Y: 410}, Block{X: 500, W: 180, Y: 410})

	om.Move(PlayerX, MiddleLane)

	if len(om.Blocks()) != 1 || om.Blocks()[0].X != 490 {
		t.Errorf("blocks = %+v", om.Blocks())
	}
}

func TestCollisionEndsGame(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	// Block in the middle row spanning the player's x after one move.
	g.obstacles.blocks = append(g.obstacles.blocks, Block{X: 95, Y: 210, W: 180})

	if !g.Step(core.NewInputFrame()).State.GameOver {
		t.Fatal("collision should end the game")
	}

	g.Step(press(core.ActionRestart))
	if g.State().GameOver || g.score != 1 || len(g.obstacles.Blocks()) != 0 {
		t.Error("restart should clear the run")
	}
}

func TestParamChangeRestartsActiveRun(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	for i := 0; i < 100; i++ {
		g.Step(core.NewInputFrame())
	}

	if err := g.HandleMessage(protocol.NewParam("playerSpeedX", 15)); err != nil {
		t.Fatal(err)
	}
	if g.score != 1 || g.obstacles.Speed() != 15 {
		t.Errorf("after param change score = %v, speed = %v", g.score, g.obstacles.Speed())
	}
}

func TestSameParamKeepsActiveRun(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	for i := 0; i < 100; i++ {
		g.Step(core.NewInputFrame())
	}
	before := g.Snapshot()

	for _, msg := range []protocol.Message{
		protocol.NewParam("playerSpeedX", DefaultBlockSpeed),
		protocol.NewParam("obstacleSpawnDelay", DefaultSpawnDelayMs),
	} {
		if err := g.HandleMessage(msg); err != nil {
			t.Fatal(err)
		}
	}
	if !reflect.DeepEqual(before, g.Snapshot()) {
		t.Error("resending unchanged settings restarted the run")
	}
	if g.score <= 1 {
		t.Errorf("score = %v, expected the run to continue", g.score)
	}
}

func TestUnknownMessagesIgnored(t *testing.T) {
	g := New()
	g.Reset(testConfig(3))
	before := g.Snapshot()

	if err := g.HandleMessage(protocol.NewParam("gravity", 3)); !errors.Is(err, protocol.ErrUnknownKey) {
		t.Errorf("unknown key error = %v", err)
	}
	if err := g.HandleMessage(protocol.NewAsset("gemSet", protocol.URLAsset("/x.png"))); !errors.Is(err, protocol.ErrUnknownAsset) {
		t.Errorf("unknown asset error = %v", err)
	}
	if !reflect.DeepEqual(before, g.Snapshot()) {
		t.Error("unknown messages changed state")
	}
}

func TestCharacterFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		msg      protocol.Message
		expected []string
	}{
		{"urls", protocol.NewAsset("character", protocol.ImageSetAsset([]string{"/a.png", "/b.png"})), []string{"/a.png", "/b.png"}},
		{"url", protocol.NewAsset("character", protocol.URLAsset("/c.png")), []string{"/c.png"}},
		{"sheet without preview", protocol.NewAsset("character", protocol.SpriteAsset(protocol.SpriteSheet{Prefix: "/p/frame-", Count: 2})), []string{fallbackCharacter}},
	}
	for _, tc := range tests {
		g := New()
		if err := g.HandleMessage(tc.msg); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if !reflect.DeepEqual(g.Assets().Character, tc.expected) {
			t.Errorf("%s: character = %v, expected %v", tc.name, g.Assets().Character, tc.expected)
		}
	}
}

func TestPauseFreezes(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.Step(press(core.ActionPause))
	before := g.Snapshot()
	g.Step(core.NewInputFrame())
	if !reflect.DeepEqual(before, g.Snapshot()) {
		t.Error("state changed while paused")
	}
	if !g.State().Paused {
		t.Error("State().Paused should be set")
	}
}
