package crossyroad

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

func testConfig(seed int64) core.RuntimeConfig {
	return core.RuntimeConfig{ScreenW: 60, ScreenH: 30, TickMs: core.DefaultTickMs, Seed: seed}
}

func press(a core.Action) core.InputFrame {
	in := core.NewInputFrame()
	in.Set(a)
	return in
}

// emptyRoad returns a started game with no enemies on the road.
func emptyRoad(t *testing.T) *Game {
	t.Helper()
	g := New()
	g.Reset(testConfig(1))
	g.Step(press(core.ActionTap))
	if !g.started {
		t.Fatal("tap should start the round")
	}
	g.traffic.enemies = nil
	return g
}

func TestEnemyCount(t *testing.T) {
	tests := []struct {
		score    int
		density  float64
		expected int
	}{
		{0, 0.5, 1},
		{2, 0.5, 3},
		{10, 0.5, 5},
		{10, 1.0, 2},
		{10, 0.1, 7},
	}
	for _, tc := range tests {
		if got := EnemyCount(tc.score, tc.density); got != tc.expected {
			t.Errorf("EnemyCount(%d, %v) = %d, expected %d", tc.score, tc.density, got, tc.expected)
		}
	}
}

func TestMovesAreThrottled(t *testing.T) {
	g := emptyRoad(t)

	g.Step(press(core.ActionUp))
	if _, y := g.Position(); y != StartY-StepY {
		t.Fatalf("y = %v, expected %v", y, StartY-StepY)
	}

	// Four more ticks is 80ms, still inside the 100ms delay.
	for i := 0; i < 4; i++ {
		g.Step(press(core.ActionUp))
	}
	if _, y := g.Position(); y != StartY-StepY {
		t.Errorf("moved during the delay: y = %v", y)
	}

	g.Step(press(core.ActionUp))
	if _, y := g.Position(); y != StartY-2*StepY {
		t.Errorf("y = %v after the delay", y)
	}
}

func TestPositionClamped(t *testing.T) {
	g := emptyRoad(t)
	_ = g.HandleMessage(protocol.NewParam("playerMoveDelay", 0))

	g.Step(press(core.ActionDown))
	if _, y := g.Position(); y != MaxY {
		t.Errorf("y = %v, expected clamp to %v", y, MaxY)
	}
	for i := 0; i < 6; i++ {
		g.Step(press(core.ActionLeft))
	}
	if x, _ := g.Position(); x != MinX {
		t.Errorf("x = %v, expected clamp to %v", x, MinX)
	}
	for i := 0; i < 12; i++ {
		g.Step(press(core.ActionRight))
	}
	if x, _ := g.Position(); x != MaxX {
		t.Errorf("x = %v, expected clamp to %v", x, MaxX)
	}
}

func TestCrossingScoresAndAddsTraffic(t *testing.T) {
	g := emptyRoad(t)
	g.y = goalEdge + StepY
	g.sinceMove = DefaultPlayerMoveDelay

	g.Step(press(core.ActionUp))

	s := g.Snapshot()
	if s.Score != 1 || s.Level != 2 {
		t.Errorf("score = %d, level = %d, expected 1 and 2", s.Score, s.Level)
	}
	if s.X != StartX || s.Y != StartY {
		t.Errorf("player not respawned: (%v, %v)", s.X, s.Y)
	}
	if len(s.Enemies) != EnemyCount(1, DefaultTrafficDensity) {
		t.Errorf("enemies = %d", len(s.Enemies))
	}
	if g.State().Best != 1 {
		t.Errorf("best = %d", g.State().Best)
	}
}

func TestCollisionResetsScore(t *testing.T) {
	g := emptyRoad(t)
	g.score, g.level = 3, 4
	g.traffic.enemies = []Enemy{{X: 200, Y: 350}}

	g.Step(core.NewInputFrame())

	s := g.Snapshot()
	if s.Score != 0 || s.Level != 1 {
		t.Errorf("score = %d, level = %d after collision", s.Score, s.Level)
	}
	if len(s.Enemies) != 1 {
		t.Errorf("enemies = %d, expected a fresh single enemy", len(s.Enemies))
	}
}

func TestEnemyWraps(t *testing.T) {
	tr := NewTraffic(3)
	tr.enemies = []Enemy{{X: 500, Y: 100, Base: 50, Speed: 100}}

	tr.Move(0.1, 3, nil)

	e := tr.Enemies()[0]
	if e.X != enemyWrapX {
		t.Errorf("x = %v, expected %v", e.X, enemyWrapX)
	}
	if e.Y < enemyMinY || e.Y > enemyMinY+enemySpanY {
		t.Errorf("y = %v outside the road", e.Y)
	}
	if e.Speed != 150 {
		t.Errorf("speed = %v, expected base times obstacleSpeed", e.Speed)
	}
}

func TestTimerEndsRound(t *testing.T) {
	g := emptyRoad(t)
	if err := g.HandleMessage(protocol.NewParam("gameDuration", 2)); err != nil {
		t.Fatal(err)
	}
	g.score = 4

	for i := 0; i < 100; i++ {
		g.Step(core.NewInputFrame())
		g.traffic.enemies = nil
	}

	s := g.State()
	if !s.GameOver || s.Score != 4 || s.Best != 4 {
		t.Errorf("state = %+v, expected a finished round scoring 4", s)
	}
	if g.started {
		t.Error("round should wait for a new start")
	}
	if s.TimeLeft != 2*time.Second {
		t.Errorf("TimeLeft = %v, expected the timer refilled", s.TimeLeft)
	}
}

func TestParamChanges(t *testing.T) {
	g := New()
	g.Reset(testConfig(5))

	if err := g.HandleMessage(protocol.NewParam("obstacleSpeed", 4)); err != nil {
		t.Fatal(err)
	}
	for _, e := range g.traffic.Enemies() {
		if e.Speed != e.Base*4 {
			t.Errorf("speed = %v, expected %v", e.Speed, e.Base*4)
		}
	}

	before := len(g.traffic.Enemies())
	g.score = 10
	_ = g.HandleMessage(protocol.NewParam("trafficDensity", 0.1))
	if len(g.traffic.Enemies()) != before {
		t.Error("density change before start should not repopulate")
	}

	g.started = true
	_ = g.HandleMessage(protocol.NewParam("trafficDensity", 0.1))
	if len(g.traffic.Enemies()) != EnemyCount(10, 0.1) {
		t.Errorf("enemies = %d after density change", len(g.traffic.Enemies()))
	}
}

func TestUpdateParamIdempotent(t *testing.T) {
	g := emptyRoad(t)
	msg := protocol.NewParam("gameDuration", 90)
	_ = g.HandleMessage(msg)
	first := g.Snapshot()
	_ = g.HandleMessage(msg)
	if !reflect.DeepEqual(first, g.Snapshot()) {
		t.Error("applying the same UPDATE_PARAM twice changed state")
	}
}

func TestAssetFallbackOrder(t *testing.T) {
	tests := []struct {
		name     string
		msg      protocol.Message
		expected string
	}{
		{
			name: "url wins",
			msg: protocol.Message{Type: protocol.TypeUpdateAsset, AssetType: "character", URL: "/url.png",
				Data: &protocol.AssetData{ImageURL: "/img.png", URLs: []string{"/first.png"}}},
			expected: "/url.png",
		},
		{
			name: "image url next",
			msg: protocol.Message{Type: protocol.TypeUpdateAsset, AssetType: "character",
				Data: &protocol.AssetData{ImageURL: "/img.png", URLs: []string{"/first.png"}}},
			expected: "/img.png",
		},
		{
			name:     "first of set last",
			msg:      protocol.NewAsset("character", protocol.ImageSetAsset([]string{"/first.png", "/second.png"})),
			expected: "/first.png",
		},
	}
	for _, tc := range tests {
		g := New()
		if err := g.HandleMessage(tc.msg); err != nil {
			t.Fatalf("%s: %v", tc.name, err)
		}
		if g.Assets().Character != tc.expected {
			t.Errorf("%s: character = %q, expected %q", tc.name, g.Assets().Character, tc.expected)
		}
	}
}

func TestSameAssetTwiceIsNoop(t *testing.T) {
	g := emptyRoad(t)
	msg := protocol.NewAsset("roadTexture", protocol.URLAsset("/road.png"))
	_ = g.HandleMessage(msg)
	first := g.Snapshot()
	_ = g.HandleMessage(msg)
	if !reflect.DeepEqual(first, g.Snapshot()) {
		t.Error("re-sending the same asset changed state")
	}
	if first.Assets.RoadTexture != "/road.png" {
		t.Errorf("road texture = %q", first.Assets.RoadTexture)
	}
}

func TestUnknownMessagesIgnored(t *testing.T) {
	g := New()
	g.Reset(testConfig(2))
	before := g.Snapshot()

	if err := g.HandleMessage(protocol.NewParam("gravity", 3)); !errors.Is(err, protocol.ErrUnknownKey) {
		t.Errorf("unknown key error = %v", err)
	}
	if err := g.HandleMessage(protocol.NewAsset("background", protocol.URLAsset("/x.png"))); !errors.Is(err, protocol.ErrUnknownAsset) {
		t.Errorf("unknown asset error = %v", err)
	}
	if !reflect.DeepEqual(before, g.Snapshot()) {
		t.Error("unknown messages changed state")
	}
}

func TestPauseFreezes(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.Step(press(core.ActionTap))
	g.Step(press(core.ActionPause))
	before := g.Snapshot()
	g.Step(press(core.ActionUp))
	if !reflect.DeepEqual(before, g.Snapshot()) {
		t.Error("state changed while paused")
	}
}

func TestGameDeterminism(t *testing.T) {
	run := func() Snapshot {
		g := New()
		g.Reset(testConfig(42))
		g.Step(press(core.ActionTap))
		keys := []core.Action{core.ActionUp, core.ActionUp, core.ActionLeft, core.ActionUp, core.ActionRight}
		for i := 0; i < 1000; i++ {
			in := core.NewInputFrame()
			if i%6 == 0 {
				in.Set(keys[(i/6)%len(keys)])
			}
			g.Step(in)
		}
		return g.Snapshot()
	}

	s1, s2 := run(), run()
	if !reflect.DeepEqual(s1, s2) {
		t.Errorf("Determinism failed:\nrun1=%+v\nrun2=%+v", s1, s2)
	}
}

func TestRender(t *testing.T) {
	g := New()
	g.Reset(testConfig(1))
	g.Step(press(core.ActionTap))
	screen := core.NewScreen(60, 30)
	g.Render(screen)

	found := false
	for y := 0; y < 30 && !found; y++ {
		for x := 0; x < 60; x++ {
			if screen.Get(x, y) == PlayerChar {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("player not drawn")
	}
}
