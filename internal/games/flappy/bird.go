package flappy

import (
	"math"

	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

// Default bird box when the character image does not carry a size.
const (
	DefaultBirdW = 43
	DefaultBirdH = 30
)

// Bird is the player. Y is the bottom edge measured up from the ground.
type Bird struct {
	X, Y    float64
	Vert    float64 // Downward speed; negative while rising
	Gravity float64
	W, H    float64

	// Sprite animation state for animated characters.
	image  string
	sheet  *protocol.SpriteSheet
	frame  int
	flapMs float64
}

func newBird(gravity float64) Bird {
	b := Bird{Gravity: gravity, W: DefaultBirdW, H: DefaultBirdH, image: DefaultCharacter}
	b.reset()
	return b
}

func (b *Bird) reset() {
	b.X = BirdStartX
	b.Y = BirdStartY
	b.Vert = 0
}

// update applies one tick of gravity. sinceJump is the number of ticks
// since the last jump and makes the fall accelerate.
func (b *Bird) update(sinceJump int) {
	b.Vert = round2(b.Vert + b.Gravity + b.Gravity*float64(sinceJump)/1000)
	b.Y -= b.Vert
	if b.Y <= 0 {
		b.Y = 0
	}
}

func (b *Bird) jump() {
	b.Vert = Lift
	b.Y += JumpHeight
	if b.Y >= MaxHeight {
		b.Y = MaxHeight
	}
}

// animate advances the sprite frame every FlapMs.
func (b *Bird) animate(dtMs float64) {
	if b.sheet == nil || b.sheet.Count <= 0 {
		return
	}
	b.flapMs += dtMs
	for b.flapMs >= FlapMs {
		b.flapMs -= FlapMs
		b.frame = (b.frame + 1) % b.sheet.Count
	}
}

// setImage switches to a static image, sized to the default box.
func (b *Bird) setImage(url string) {
	b.image = url
	b.sheet = nil
	b.frame = 0
	b.flapMs = 0
	b.W, b.H = DefaultBirdW, DefaultBirdH
}

// setSheet switches to an animation and takes the frame size from it.
func (b *Bird) setSheet(s protocol.SpriteSheet) {
	b.sheet = &s
	b.image = s.Preview()
	b.frame = 0
	b.flapMs = 0
	b.W, b.H = DefaultBirdW, DefaultBirdH
	if s.FrameWidth > 0 {
		b.W = float64(s.FrameWidth)
	}
	if s.FrameHeight > 0 {
		b.H = float64(s.FrameHeight)
	}
}

// Image returns the image currently shown for the bird.
func (b Bird) Image() string {
	if b.sheet != nil && b.frame > 0 {
		return b.sheet.Frame(b.frame)
	}
	return b.image
}

// Rect returns the bird's collision box.
func (b Bird) Rect() core.Rect {
	return core.NewRect(b.X, b.Y, b.W, b.H)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
