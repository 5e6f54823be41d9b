package core

import "time"

// DefaultTickMs is the simulation step used by the browser games' motor
// intervals.
const DefaultTickMs = 20

// RuntimeConfig is handed to a game on Reset.
type RuntimeConfig struct {
	ScreenW int   // Preview width in terminal cells
	ScreenH int   // Preview height in terminal cells
	TickMs  int   // Milliseconds of game time per Step
	Seed    int64 // RNG seed; runs with equal seeds and inputs are identical
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		ScreenW: 80,
		ScreenH: 24,
		TickMs:  DefaultTickMs,
		Seed:    0, // 0 means the platform layer picks a time based seed
	}
}

// Tick returns the step duration, falling back to DefaultTickMs.
func (c RuntimeConfig) Tick() time.Duration {
	ms := c.TickMs
	if ms <= 0 {
		ms = DefaultTickMs
	}
	return time.Duration(ms) * time.Millisecond
}

// TickMillis returns the step length in milliseconds as a float.
func (c RuntimeConfig) TickMillis() float64 {
	return float64(c.Tick()) / float64(time.Millisecond)
}

// GameState is the externally visible status of a game.
type GameState struct {
	Score    int
	Best     int // Best score seen by this instance
	GameOver bool
	Paused   bool
	TimeLeft time.Duration // Zero for games without a countdown
}

// StepResult is returned by Game.Step after each tick.
type StepResult struct {
	State GameState
}
