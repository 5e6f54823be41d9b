// Package registry provides a global registry for headless game runtimes.
// Games register themselves in init() functions, so the editor, the API
// and the terminal preview can create them by catalog id.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/vovakirdan/gamegen/internal/core"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

// Game is the interface every game runtime implements.
// Games hold all of their state in the instance and have no external
// dependencies. The platform handles input mapping, timing and drawing.
type Game interface {
	// ID returns the catalog id (e.g. "flappy-bird", "Whack-A-Mole").
	ID() string

	// Title returns a human-readable name.
	Title() string

	// ScoreKey is the key the best score is persisted under.
	ScoreKey() string

	// Reset starts a new round. Settings received through HandleMessage
	// survive a reset; the RuntimeConfig provides tick length and RNG seed.
	Reset(cfg core.RuntimeConfig)

	// Step advances the simulation by one fixed tick.
	Step(in core.InputFrame) core.StepResult

	// Render draws the current state into a pre-cleared screen.
	Render(dst *core.Screen)

	// State returns score, best, timer and game-over flags.
	State() core.GameState

	// HandleMessage applies an editor message. Unknown keys and asset
	// types return wrapped protocol.ErrUnknownKey / ErrUnknownAsset and
	// leave the game untouched.
	HandleMessage(m protocol.Message) error
}

// GameInfo contains metadata about a registered game.
type GameInfo struct {
	ID       string
	Title    string
	ScoreKey string
}

// Factory creates a new game instance.
type Factory func() Game

var (
	factories = make(map[string]Factory)
	infos     = make(map[string]GameInfo)
	mu        sync.RWMutex
)

// Register adds a game factory to the registry.
// Panics if a game with the same ID is already registered.
func Register(id string, f Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[id]; exists {
		panic(fmt.Sprintf("registry: game %q already registered", id))
	}

	factories[id] = f

	g := f()
	infos[id] = GameInfo{ID: id, Title: g.Title(), ScoreKey: g.ScoreKey()}
}

// List returns all registered games sorted by ID.
func List() []GameInfo {
	mu.RLock()
	defer mu.RUnlock()

	result := make([]GameInfo, 0, len(infos))
	for _, info := range infos {
		result = append(result, info)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result
}

// Create instantiates a new game by its ID.
func Create(id string) (Game, error) {
	mu.RLock()
	defer mu.RUnlock()

	f, ok := factories[id]
	if !ok {
		return nil, fmt.Errorf("registry: unknown game %q", id)
	}

	return f(), nil
}

// Exists checks if a game with the given ID is registered.
func Exists(id string) bool {
	mu.RLock()
	defer mu.RUnlock()

	_, ok := factories[id]
	return ok
}
