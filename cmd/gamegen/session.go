package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/editor"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

// sessionFlags are the editing flags shared by preview and export.
type sessionFlags struct {
	difficulty string
	sets       []string
	assets     []string
}

// newEditorSession builds an editor session for game and applies the
// difficulty preset first, then every key=value setting and every
// type=url asset in order.
func newEditorSession(game catalog.GameConfig, f sessionFlags, logger *log.Logger) (*editor.Session, error) {
	session := editor.NewSession(game, logger)

	if f.difficulty != "" {
		if err := session.ApplyPreset(f.difficulty); err != nil {
			return nil, err
		}
	}

	for _, kv := range f.sets {
		key, raw, ok := strings.Cut(kv, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --set %q: want key=value", kv)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid --set %q: %w", kv, err)
		}
		if _, err := session.SetParam(strings.TrimSpace(key), v); err != nil {
			return nil, err
		}
	}

	for _, kv := range f.assets {
		assetType, url, ok := strings.Cut(kv, "=")
		if !ok || url == "" {
			return nil, fmt.Errorf("invalid --asset %q: want type=url", kv)
		}
		if err := session.SetAsset(strings.TrimSpace(assetType), protocol.URLAsset(url)); err != nil {
			return nil, err
		}
	}

	return session, nil
}
