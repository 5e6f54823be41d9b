package speedrunner

import (
	"math"
	"math/rand"

	"github.com/vovakirdan/gamegen/internal/core"
)

// Block geometry in world pixels.
var (
	blockWidths = [...]float64{180, 280, 380}
	blockRows   = [...]float64{10, 210, 410}
)

const (
	BlockHeight  = 100
	spawnOffset  = 300 // New blocks start this far right of the screen edge
	spawnCrowd   = 200 // A block ending closer than this pushes the spawn point
	spawnPushMax = 400
	blockAccel   = 0.1
)

// DefaultBlobs are the obstacle images used when no obstacle set is loaded.
var DefaultBlobs = []string{
	"./assets/images/blobs/blob1.png",
	"./assets/images/blobs/blob2.png",
	"./assets/images/blobs/blob3.png",
	"./assets/images/blobs/blob4.png",
	"./assets/images/blobs/blob5.png",
}

// Block is one obstacle.
type Block struct {
	X, Y  float64
	W     float64
	Image string
}

// Rect returns the block's box.
func (b Block) Rect() core.Rect {
	return core.NewRect(b.X, b.Y, b.W, BlockHeight)
}

// ObstacleManager handles spawning, movement, and removal of blocks.
type ObstacleManager struct {
	blocks []Block
	rng    *rand.Rand
	speed  float64
}

// NewObstacleManager creates an obstacle manager with the given RNG seed.
func NewObstacleManager(seed int64, speed float64) *ObstacleManager {
	om := &ObstacleManager{blocks: make([]Block, 0, 16)}
	om.Reset(seed, speed)
	return om
}

// Reset clears all blocks, reseeds the RNG and sets the block speed.
func (om *ObstacleManager) Reset(seed int64, speed float64) {
	om.blocks = om.blocks[:0]
	om.rng = rand.New(rand.NewSource(seed))
	om.speed = speed
}

// Speed returns the current block speed in pixels per move.
func (om *ObstacleManager) Speed() float64 { return om.speed }

// Spawn adds a block at the right edge and speeds the blocks up.
// images is the obstacle set to pick from; empty means DefaultBlobs.
func (om *ObstacleManager) Spawn(worldW float64, images []string) {
	w := blockWidths[om.rng.Intn(len(blockWidths))]

	x := worldW + spawnOffset
	for _, b := range om.blocks {
		if math.Abs(x-(b.X+b.W)) < spawnCrowd {
			x += math.Floor(om.rng.Float64() * spawnPushMax)
		}
	}

	y := blockRows[om.rng.Intn(len(blockRows))]

	if len(images) == 0 {
		images = DefaultBlobs
	}
	img := images[om.rng.Intn(len(images))]

	om.blocks = append(om.blocks, Block{X: x, Y: y, W: w, Image: img})
	om.speed += blockAccel
}

// Move shifts blocks left by the current speed and drops those fully off
// screen. It reports whether any block touches the player's top-left
// corner (px, py).
func (om *ObstacleManager) Move(px, py float64) bool {
	hit := false
	kept := om.blocks[:0]
	for _, b := range om.blocks {
		if b.X <= -b.W {
			continue
		}
		b.X -= om.speed
		if b.Rect().ContainsInclusive(px, py) {
			hit = true
		}
		kept = append(kept, b)
	}
	om.blocks = kept
	return hit
}

// Blocks returns the current list of blocks.
func (om *ObstacleManager) Blocks() []Block {
	return om.blocks
}
