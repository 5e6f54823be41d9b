// Package assets holds the pre-generated asset library and the cache for
// generated images.
package assets

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/gamegen/internal/config"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

//go:embed defaults/pregen.yaml
var defaultLibraryYAML []byte

// LibraryFileName is the library override looked up in the config
// directories.
const LibraryFileName = "pregen.yaml"

// DefaultPrompt is the entry used when no prompt matches.
const DefaultPrompt = "_default"

// ErrNotFound is returned when the library has nothing for a request.
var ErrNotFound = errors.New("assets: not found")

// entry is one library value as written in YAML: a scalar path or a
// mapping with urls or an animation.
type entry struct {
	value protocol.AssetValue
}

func (e *entry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		var path string
		if err := n.Decode(&path); err != nil {
			return err
		}
		e.value = protocol.URLAsset(path)
		return nil
	}

	var raw struct {
		URLs        []string `yaml:"urls"`
		ImageURL    string   `yaml:"image_url"`
		Prefix      string   `yaml:"prefix"`
		Count       int      `yaml:"count"`
		FrameWidth  int      `yaml:"frame_width"`
		FrameHeight int      `yaml:"frame_height"`
	}
	if err := n.Decode(&raw); err != nil {
		return err
	}
	switch {
	case raw.Prefix != "" && raw.Count > 0:
		e.value = protocol.SpriteAsset(protocol.SpriteSheet{
			Prefix:      raw.Prefix,
			Count:       raw.Count,
			FrameWidth:  raw.FrameWidth,
			FrameHeight: raw.FrameHeight,
			ImageURL:    raw.ImageURL,
		})
	case len(raw.URLs) > 0:
		e.value = protocol.ImageSetAsset(raw.URLs)
	case raw.ImageURL != "":
		e.value = protocol.URLAsset(raw.ImageURL)
	default:
		return fmt.Errorf("line %d: entry has no path, urls or prefix", n.Line)
	}
	return nil
}

// Library maps game id, asset type and prompt to a pre-generated asset.
type Library struct {
	Games map[string]map[string]map[string]entry `yaml:"games"`
}

// LoadLibrary loads the asset library.
// Search order: customPath -> ~/.gamegen/configs/pregen.yaml -> ./configs/pregen.yaml -> embedded default
func LoadLibrary(customPath string) (*Library, error) {
	if customPath != "" {
		return LoadLibraryFile(customPath)
	}
	if userPath := config.UserConfigPath(LibraryFileName); userPath != "" {
		if lib, err := LoadLibraryFile(userPath); err == nil {
			return lib, nil
		}
	}
	if lib, err := LoadLibraryFile(filepath.Join("configs", LibraryFileName)); err == nil {
		return lib, nil
	}
	return DefaultLibrary()
}

// LoadLibraryFile reads one library file.
func LoadLibraryFile(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("assets: failed to read %s: %w", path, err)
	}
	lib, err := ParseLibrary(data)
	if err != nil {
		return nil, fmt.Errorf("assets: %s: %w", path, err)
	}
	return lib, nil
}

// ParseLibrary decodes library YAML.
func ParseLibrary(data []byte) (*Library, error) {
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("failed to parse asset library: %w", err)
	}
	return &lib, nil
}

// DefaultLibrary returns the embedded library.
func DefaultLibrary() (*Library, error) {
	return ParseLibrary(defaultLibraryYAML)
}

// Lookup finds the asset for a prompt, falling back to the type's default.
func (l *Library) Lookup(gameID, assetType, prompt string) (protocol.AssetValue, error) {
	game, ok := l.Games[gameID]
	if !ok {
		return protocol.AssetValue{}, fmt.Errorf("%w: no assets configured for game %s", ErrNotFound, gameID)
	}
	entries, ok := game[assetType]
	if !ok {
		return protocol.AssetValue{}, fmt.Errorf("%w: no assets of type %s configured for game %s", ErrNotFound, assetType, gameID)
	}

	if e, ok := entries[strings.ToLower(strings.TrimSpace(prompt))]; ok {
		return e.value, nil
	}
	if e, ok := entries[DefaultPrompt]; ok {
		return e.value, nil
	}
	return protocol.AssetValue{}, fmt.Errorf("%w: no asset for prompt %q or default for %s", ErrNotFound, prompt, assetType)
}

// Prompts lists the prompts known for an asset type, sorted, without the
// default entry.
func (l *Library) Prompts(gameID, assetType string) []string {
	entries := l.Games[gameID][assetType]
	out := make([]string, 0, len(entries))
	for p := range entries {
		if p != DefaultPrompt {
			out = append(out, p)
		}
	}
	sort.Strings(out)
	return out
}
