package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vovakirdan/gamegen/internal/config"
)

//go:embed defaults/catalog.yaml
var defaultCatalogYAML []byte

// FileName is the catalog override looked up in the config directories.
const FileName = "catalog.yaml"

// Load loads the game catalog.
// Search order: customPath -> ~/.gamegen/configs/catalog.yaml -> ./configs/catalog.yaml -> embedded default
func Load(customPath string) (Catalog, error) {
	if customPath != "" {
		return LoadFile(customPath)
	}

	if userPath := config.UserConfigPath(FileName); userPath != "" {
		if cat, err := LoadFile(userPath); err == nil {
			return cat, nil
		}
	}

	if cat, err := LoadFile(filepath.Join("configs", FileName)); err == nil {
		return cat, nil
	}

	return Default()
}

// LoadFile reads and validates a catalog file.
func LoadFile(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: failed to read %s: %w", path, err)
	}
	cat, err := Parse(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog: %s: %w", path, err)
	}
	return cat, nil
}

// Parse decodes and validates catalog YAML.
func Parse(data []byte) (Catalog, error) {
	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return Catalog{}, fmt.Errorf("failed to parse catalog: %w", err)
	}
	if err := cat.Validate(); err != nil {
		return Catalog{}, err
	}
	return cat, nil
}

// Default returns the embedded catalog.
func Default() (Catalog, error) {
	return Parse(defaultCatalogYAML)
}
