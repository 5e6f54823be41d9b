package flappy

import (
	"math/rand"

	"github.com/vovakirdan/gamegen/internal/core"
)

// Pipe geometry in world pixels.
const (
	PipeWidth         = 60
	PipeSegmentHeight = 300

	// The bottom pipe's hitbox reaches 5px above its drawn top edge, and the
	// top pipe's hitbox starts 120px below its drawn bottom edge.
	bottomPipeOffset = -5
	topPipeOffset    = -20
	topPipeAfter     = 100
)

// Pipe is a pair of vertical segments with a gap between them.
// Y is the bottom of the lower segment, measured up from the ground.
type Pipe struct {
	X      float64
	Y      float64
	Gap    float64
	Speed  float64
	Passed bool
}

// BottomRect is the drawn lower segment.
func (p Pipe) BottomRect() core.Rect {
	return core.NewRect(p.X, p.Y, PipeWidth, PipeSegmentHeight)
}

// TopRect is the drawn upper segment.
func (p Pipe) TopRect() core.Rect {
	return core.NewRect(p.X, p.Y+PipeSegmentHeight+p.Gap, PipeWidth, PipeSegmentHeight)
}

// Collides reports whether the bird box (x, y is its bottom-left corner)
// touches this pipe.
func (p Pipe) Collides(bird core.Rect) bool {
	xOverlap := bird.Right() > p.X && bird.X < p.X+PipeWidth
	if !xOverlap {
		return false
	}
	safeBottom := p.Y + PipeSegmentHeight + bottomPipeOffset
	safeTop := p.Y + PipeSegmentHeight + p.Gap + topPipeOffset - topPipeAfter
	inGap := bird.Y > safeBottom && bird.Y+bird.H < safeTop
	return !inGap
}

// PipeManager handles spawning, movement, and removal of pipes.
type PipeManager struct {
	pipes   []Pipe
	rng     *rand.Rand
	sinceMs float64 // Time since the last spawn
}

// NewPipeManager creates a pipe manager with the given RNG seed.
func NewPipeManager(seed int64) *PipeManager {
	pm := &PipeManager{pipes: make([]Pipe, 0, 8)}
	pm.Reset(seed)
	return pm
}

// Reset clears all pipes and reseeds the RNG.
func (pm *PipeManager) Reset(seed int64) {
	pm.pipes = pm.pipes[:0]
	pm.rng = rand.New(rand.NewSource(seed))
	pm.sinceMs = 0
}

// Tick advances the spawn clock by dtMs and spawns a pipe with the given
// gap and speed when the spawn interval has elapsed.
func (pm *PipeManager) Tick(dtMs, gap, speed float64) {
	pm.sinceMs += dtMs
	if pm.sinceMs < PipeGenMs {
		return
	}
	pm.sinceMs -= PipeGenMs
	pm.pipes = append(pm.pipes, Pipe{
		X:     PipeStartX,
		Y:     PipeBaseY + pm.rng.Float64()*200,
		Gap:   gap,
		Speed: speed,
	})
}

// Move shifts every pipe by its own speed, drops pipes that left the
// screen and returns how many pipes the bird passed this tick.
func (pm *PipeManager) Move() int {
	passed := 0
	kept := pm.pipes[:0]
	for _, p := range pm.pipes {
		p.X -= p.Speed
		if !p.Passed && p.X+PipeWidth < BirdStartX {
			p.Passed = true
			passed++
		}
		if p.X > PipeScreenEnd {
			kept = append(kept, p)
		}
	}
	pm.pipes = kept
	return passed
}

// Collides reports whether the bird touches any pipe.
func (pm *PipeManager) Collides(bird core.Rect) bool {
	for _, p := range pm.pipes {
		if p.Collides(bird) {
			return true
		}
	}
	return false
}

// Pipes returns the current list of pipes.
func (pm *PipeManager) Pipes() []Pipe {
	return pm.pipes
}
