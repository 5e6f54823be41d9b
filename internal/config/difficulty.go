package config

import (
	"fmt"
	"time"
)

// Preset names a difficulty bundle in the game catalog.
type Preset string

const (
	PresetSimple Preset = "simple"
	PresetMedium Preset = "medium"
	PresetHard   Preset = "hard"
)

// Presets lists the presets in the order the editor shows them.
var Presets = []Preset{PresetSimple, PresetMedium, PresetHard}

// ParsePreset maps a preset name to a Preset. The LLM sometimes answers
// with "easy" or "normal", so those are accepted as aliases.
func ParsePreset(name string) (Preset, error) {
	switch name {
	case "simple", "easy":
		return PresetSimple, nil
	case "medium", "normal":
		return PresetMedium, nil
	case "hard":
		return PresetHard, nil
	default:
		return "", fmt.Errorf("config: unknown difficulty preset %q", name)
	}
}

// Level is a discrete difficulty level used inside the game runtimes.
type Level int

const (
	LevelEasy   Level = 0
	LevelNormal Level = 1
	LevelHard   Level = 2
)

// LevelFor maps a slider value to a level where larger values are easier:
// value >= easyAt is easy, value >= normalAt is normal, anything below is hard.
func LevelFor(value, easyAt, normalAt float64) Level {
	switch {
	case value >= easyAt:
		return LevelEasy
	case value >= normalAt:
		return LevelNormal
	default:
		return LevelHard
	}
}

// Range is an inclusive numeric interval.
type Range struct {
	Min, Max float64
}

// Span returns Max - Min.
func (r Range) Span() float64 {
	return r.Max - r.Min
}

// LevelTable maps each level to a range.
type LevelTable [3]Range

// At returns the range for a level. Out-of-range levels clamp to the
// nearest defined one.
func (t LevelTable) At(l Level) Range {
	switch {
	case l < LevelEasy:
		return t[LevelEasy]
	case l > LevelHard:
		return t[LevelHard]
	default:
		return t[l]
	}
}

// SpawnTable holds the Whack-A-Mole pop-up durations in milliseconds per
// velocity level.
var SpawnTable = LevelTable{
	{Min: 1500, Max: 2500},
	{Min: 700, Max: 1500},
	{Min: 300, Max: 700},
}

// SpawnRange returns the pop-up duration range for a velocity level.
func SpawnRange(l Level) Range {
	return SpawnTable.At(l)
}

// DurationFor returns the round length for a time level.
func DurationFor(l Level) time.Duration {
	switch {
	case l <= LevelEasy:
		return 90 * time.Second
	case l == LevelNormal:
		return 60 * time.Second
	default:
		return 30 * time.Second
	}
}
