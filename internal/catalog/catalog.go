// Package catalog holds the static description of every editable game:
// its parameters, replaceable assets, difficulty presets and the metadata
// the export pipeline needs to customize an exported copy.
package catalog

import (
	"errors"
	"fmt"
	"sort"

	"github.com/vovakirdan/gamegen/internal/config"
)

// ErrUnknownGame is returned for a game id missing from the catalog.
var ErrUnknownGame = errors.New("catalog: unknown game")

// Parameter is one numeric slider.
type Parameter struct {
	Name    string  `yaml:"name" json:"name"`
	Key     string  `yaml:"key" json:"key"`
	Min     float64 `yaml:"min" json:"min"`
	Max     float64 `yaml:"max" json:"max"`
	Step    float64 `yaml:"step" json:"step"`
	Default float64 `yaml:"default" json:"defaultValue"`
}

// Clamp restricts v to the parameter's range.
func (p Parameter) Clamp(v float64) float64 {
	if v < p.Min {
		return p.Min
	}
	if v > p.Max {
		return p.Max
	}
	return v
}

// AIAsset is one replaceable visual slot.
type AIAsset struct {
	Type        string `yaml:"type" json:"type"`
	Label       string `yaml:"label" json:"label"`
	Placeholder string `yaml:"placeholder" json:"promptPlaceholder"`
	DefaultPath string `yaml:"default_path" json:"defaultAssetPath"`
}

// Variable names the JavaScript binding a setting is written to when an
// export rewrites the main script in place.
type Variable struct {
	Name string `yaml:"name"`
	// Property targets an object literal key (`name: value,`) instead of a
	// declaration.
	Property bool `yaml:"property,omitempty"`
	// Levels converts the slider value to a 0/1/2 level before writing:
	// [easyAt, normalAt].
	Levels []float64 `yaml:"levels,omitempty"`
	// BirdLiteral marks Flappy Bird's inline setImage literal.
	BirdLiteral bool `yaml:"bird_literal,omitempty"`
}

// ExportSpec is the per-game metadata used by the export pipeline.
type ExportSpec struct {
	// MainScripts are candidate main JS files, relative to the game
	// directory, in priority order.
	MainScripts []string `yaml:"main_scripts"`
	// Variables maps a parameter key or asset type to its JS binding.
	Variables map[string]Variable `yaml:"variables"`
	// AssetDirs maps an asset type to the ZIP directory its files go to.
	// The "*" entry is the game wide default.
	AssetDirs map[string]string `yaml:"asset_dirs"`
}

// GameConfig is the static description of one game.
type GameConfig struct {
	ID           string                        `yaml:"id" json:"id"`
	Title        string                        `yaml:"title" json:"title"`
	TemplatePath string                        `yaml:"template_path" json:"templatePath"`
	IsLandscape  bool                          `yaml:"landscape" json:"isLandscape"`
	ScoreKey     string                        `yaml:"score_key" json:"scoreKey"`
	Parameters   []Parameter                   `yaml:"parameters" json:"parameters"`
	AIAssets     []AIAsset                     `yaml:"assets" json:"aiAssets"`
	Presets      map[string]map[string]float64 `yaml:"presets" json:"difficultyPresets"`
	Export       ExportSpec                    `yaml:"export" json:"-"`
}

// Parameter looks up a parameter by key.
func (g GameConfig) Parameter(key string) (Parameter, bool) {
	for _, p := range g.Parameters {
		if p.Key == key {
			return p, true
		}
	}
	return Parameter{}, false
}

// Asset looks up an asset slot by type.
func (g GameConfig) Asset(assetType string) (AIAsset, bool) {
	for _, a := range g.AIAssets {
		if a.Type == assetType {
			return a, true
		}
	}
	return AIAsset{}, false
}

// Preset returns a copy of the named preset's values.
func (g GameConfig) Preset(p config.Preset) (map[string]float64, error) {
	values, ok := g.Presets[string(p)]
	if !ok {
		return nil, fmt.Errorf("catalog: game %q has no preset %q", g.ID, p)
	}
	out := make(map[string]float64, len(values))
	for k, v := range values {
		out[k] = v
	}
	return out, nil
}

// InitialSettings returns the medium preset, or every parameter's default
// when the game has no medium preset.
func (g GameConfig) InitialSettings() map[string]float64 {
	if medium, err := g.Preset(config.PresetMedium); err == nil {
		return medium
	}
	out := make(map[string]float64, len(g.Parameters))
	for _, p := range g.Parameters {
		out[p.Key] = p.Default
	}
	return out
}

// ClampParam clamps v to the range of parameter key.
func (g GameConfig) ClampParam(key string, v float64) (float64, error) {
	p, ok := g.Parameter(key)
	if !ok {
		return 0, fmt.Errorf("catalog: game %q has no parameter %q", g.ID, key)
	}
	return p.Clamp(v), nil
}

// AssetDir returns the ZIP directory for an asset type ("" for the root).
func (g GameConfig) AssetDir(assetType string) string {
	if dir, ok := g.Export.AssetDirs[assetType]; ok {
		return dir
	}
	if dir, ok := g.Export.AssetDirs["*"]; ok {
		return dir
	}
	return "assets/images"
}

// Catalog is the set of editable games keyed by id.
type Catalog struct {
	Games []GameConfig `yaml:"games"`
}

// Game returns the config for id.
func (c Catalog) Game(id string) (GameConfig, bool) {
	for _, g := range c.Games {
		if g.ID == id {
			return g, true
		}
	}
	return GameConfig{}, false
}

// MustGame is Game with an ErrUnknownGame error instead of a bool.
func (c Catalog) MustGame(id string) (GameConfig, error) {
	g, ok := c.Game(id)
	if !ok {
		return GameConfig{}, fmt.Errorf("%w %q", ErrUnknownGame, id)
	}
	return g, nil
}

// IDs returns all game ids sorted.
func (c Catalog) IDs() []string {
	ids := make([]string, 0, len(c.Games))
	for _, g := range c.Games {
		ids = append(ids, g.ID)
	}
	sort.Strings(ids)
	return ids
}

// Validate checks the invariants the editor and exporter rely on.
func (c Catalog) Validate() error {
	if len(c.Games) == 0 {
		return errors.New("catalog: no games")
	}
	seen := make(map[string]bool, len(c.Games))
	for _, g := range c.Games {
		if g.ID == "" {
			return errors.New("catalog: game without id")
		}
		if seen[g.ID] {
			return fmt.Errorf("catalog: duplicate game %q", g.ID)
		}
		seen[g.ID] = true

		for _, p := range g.Parameters {
			if p.Min > p.Max {
				return fmt.Errorf("catalog: %s.%s: min %v > max %v", g.ID, p.Key, p.Min, p.Max)
			}
			if p.Default < p.Min || p.Default > p.Max {
				return fmt.Errorf("catalog: %s.%s: default %v outside [%v, %v]", g.ID, p.Key, p.Default, p.Min, p.Max)
			}
		}
		for name, values := range g.Presets {
			for key := range values {
				if _, ok := g.Parameter(key); !ok {
					return fmt.Errorf("catalog: %s preset %q sets unknown parameter %q", g.ID, name, key)
				}
			}
		}
	}
	return nil
}
