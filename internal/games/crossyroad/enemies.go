package crossyroad

import (
	"math"
	"math/rand"
)

// Enemy geometry and speeds in pixels and pixels per second.
const (
	EnemyW = 101
	EnemyH = 83

	enemyMinBase = 50
	enemyMaxBase = 200
	enemyMinY    = 50
	enemySpanY   = 184
	enemyWrapX   = -100
)

// Enemy is one bug crossing the road.
type Enemy struct {
	X, Y  float64
	Base  float64 // Speed factor before obstacleSpeed scaling
	Speed float64
}

// Traffic owns the enemies and their random source.
type Traffic struct {
	enemies []Enemy
	rng     *rand.Rand
}

// NewTraffic creates an empty road.
func NewTraffic(seed int64) *Traffic {
	t := &Traffic{}
	t.Reset(seed)
	return t
}

// Reset clears the road and reseeds the RNG.
func (t *Traffic) Reset(seed int64) {
	t.enemies = t.enemies[:0]
	t.rng = rand.New(rand.NewSource(seed))
}

// EnemyCount is how many enemies a score earns at the given density. A
// denser road allows fewer enemies.
func EnemyCount(score int, density float64) int {
	capped := int(math.Round(5*(1-density)+1)) + 1
	return min(score+1, capped)
}

// Populate replaces every enemy with a fresh set sized for score.
func (t *Traffic) Populate(score int, density, speed float64) {
	t.enemies = t.enemies[:0]
	n := EnemyCount(score, density)
	for i := 0; i < n; i++ {
		base := t.rng.Float64()*(enemyMaxBase-enemyMinBase) + enemyMinBase
		t.enemies = append(t.enemies, Enemy{
			X:     t.rng.Float64() * WorldW,
			Y:     t.rng.Float64()*enemySpanY + enemyMinY,
			Base:  base,
			Speed: base * speed,
		})
	}
}

// SetSpeed rescales every enemy to a new obstacleSpeed.
func (t *Traffic) SetSpeed(speed float64) {
	for i := range t.enemies {
		t.enemies[i].Speed = t.enemies[i].Base * speed
	}
}

// Move advances every enemy by dt seconds, wrapping those past the right
// edge back to the left on a new random row. hit is called after each
// enemy moves and stops the pass when it returns true.
func (t *Traffic) Move(dt, speed float64, hit func(Enemy) bool) {
	for i := range t.enemies {
		e := &t.enemies[i]
		e.X += e.Speed * dt
		if e.X >= WorldW {
			e.X = enemyWrapX
			e.Y = t.rng.Float64()*enemySpanY + enemyMinY
			e.Speed = e.Base * speed
		}
		if hit != nil && hit(*e) {
			return
		}
	}
}

// Enemies returns the current enemies.
func (t *Traffic) Enemies() []Enemy {
	return t.enemies
}
