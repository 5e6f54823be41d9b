package export

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vovakirdan/gamegen/internal/protocol"
)

var (
	// ErrInvalidRequest is returned for a request missing a required field.
	ErrInvalidRequest = errors.New("export: invalid request")
	// ErrTemplateNotFound is returned when the game's template tree or main
	// script is missing on disk.
	ErrTemplateNotFound = errors.New("export: template not found")
	// ErrAssetNotFound is returned when an asset path names no file.
	ErrAssetNotFound = errors.New("export: asset not found")
)

// Strategy selects how settings reach the exported game.
type Strategy string

const (
	// StrategyPrelude prepends EXPORTED_GAME_PARAMETERS and
	// EXPORTED_CURRENT_ASSETS to the main script.
	StrategyPrelude Strategy = "prelude"
	// StrategyRewrite edits variable declarations in place.
	StrategyRewrite Strategy = "rewrite"
)

// ParseStrategy accepts "prelude" or "rewrite". Empty means prelude.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyPrelude:
		return StrategyPrelude, nil
	case StrategyRewrite:
		return StrategyRewrite, nil
	default:
		return "", fmt.Errorf("%w: unknown strategy %q", ErrInvalidRequest, s)
	}
}

// Request is one export job. The JSON shape matches the editor's export
// call; gameId usually comes from the URL instead.
type Request struct {
	GameID         string                         `json:"gameId"`
	GameParameters map[string]float64             `json:"gameParameters"`
	AIAssetPaths   map[string]protocol.AssetValue `json:"aiAssetPaths"`
	UserSessionID  string                         `json:"userSessionId"`
	Strategy       Strategy                       `json:"strategy,omitempty"`
}

// Validate reports the first missing field. Empty maps are allowed; absent
// ones are not.
func (r Request) Validate() error {
	switch {
	case r.GameID == "":
		return fmt.Errorf("%w: missing gameId", ErrInvalidRequest)
	case r.GameParameters == nil:
		return fmt.Errorf("%w: missing gameParameters", ErrInvalidRequest)
	case r.AIAssetPaths == nil:
		return fmt.Errorf("%w: missing aiAssetPaths", ErrInvalidRequest)
	case r.UserSessionID == "":
		return fmt.Errorf("%w: missing userSessionId", ErrInvalidRequest)
	}
	if r.Strategy != "" {
		if _, err := ParseStrategy(string(r.Strategy)); err != nil {
			return err
		}
	}
	for assetType, v := range r.AIAssetPaths {
		if sheet, ok := v.Sprite(); ok && (sheet.Count < 1 || sheet.Count > protocol.MaxFrames) {
			return fmt.Errorf("%w: %s has %d frames (max %d)", ErrInvalidRequest, assetType, sheet.Count, protocol.MaxFrames)
		}
	}
	return nil
}

// FileName is the name of the ZIP download.
func (r Request) FileName() string {
	return FileName(r.GameID)
}

// FileName returns "<gameId>_custom_game.zip".
func FileName(gameID string) string {
	return gameID + "_custom_game.zip"
}
