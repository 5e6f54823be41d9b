// Package editor is the controller behind the game editor. A Session owns
// the current settings and assets of one game and is the only sender of
// protocol messages to the running game.
package editor

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/config"
	"github.com/vovakirdan/gamegen/internal/export"
	"github.com/vovakirdan/gamegen/internal/llm"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

var (
	// ErrUnknownParam is returned for a key the game does not define.
	ErrUnknownParam = errors.New("editor: unknown parameter")
	// ErrUnknownAsset is returned for an asset type the game does not define.
	ErrUnknownAsset = errors.New("editor: unknown asset type")
)

// promptKinds maps each game's asset types to the prompt kind that fills
// them when a combined description is parsed.
var promptKinds = map[string]map[string]string{
	"Whack-A-Mole": {
		"moleCharacter": llm.KindCharacter,
		"ground":        llm.KindBackground,
	},
	"flappy-bird": {
		"character":  llm.KindCharacter,
		"background": llm.KindBackground,
		"obstacle":   llm.KindObstacle,
	},
	"speed-runner": {
		"character":  llm.KindCharacter,
		"background": llm.KindBackground,
		"obstacle":   llm.KindObstacle,
	},
	"simple-match-3": {
		"background": llm.KindBackground,
		"gemSet":     llm.KindGemSet,
	},
	"crossy-road": {
		"character": llm.KindCharacter,
		"obstacle":  llm.KindObstacle,
	},
}

// Session is the editing state of one game.
type Session struct {
	mu         sync.Mutex
	game       catalog.GameConfig
	settings   map[string]float64
	assets     map[string]protocol.AssetValue
	difficulty config.Preset
	receiver   protocol.Receiver
	logger     *log.Logger
}

// NewSession starts editing game with its medium preset and default
// assets. A nil logger discards output.
func NewSession(game catalog.GameConfig, logger *log.Logger) *Session {
	if logger == nil {
		logger = protocol.Discard()
	}
	s := &Session{
		game:       game,
		settings:   game.InitialSettings(),
		assets:     make(map[string]protocol.AssetValue, len(game.AIAssets)),
		difficulty: config.PresetMedium,
		logger:     logger.With("game", game.ID),
	}
	for _, a := range game.AIAssets {
		if a.DefaultPath != "" {
			s.assets[a.Type] = protocol.URLAsset(a.DefaultPath)
		}
	}
	return s
}

// Game returns the game being edited.
func (s *Session) Game() catalog.GameConfig { return s.game }

// Attach routes every later message to r. Call Sync to bring r up to date.
func (s *Session) Attach(r protocol.Receiver) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.receiver = r
}

// Detach stops delivering messages.
func (s *Session) Detach() {
	s.Attach(nil)
}

// emit delivers m to the attached receiver. The caller holds s.mu.
// Receiver errors are logged; the editor state is already updated.
func (s *Session) emit(m protocol.Message) {
	if s.receiver == nil {
		return
	}
	_ = protocol.Deliver(s.receiver, m, s.logger)
}

// SetParam clamps v to the parameter's range, stores it and sends it. It
// returns the stored value.
func (s *Session) SetParam(key string, v float64) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.setParam(key, v)
}

func (s *Session) setParam(key string, v float64) (float64, error) {
	p, ok := s.game.Parameter(key)
	if !ok {
		return 0, fmt.Errorf("%w %q for %s", ErrUnknownParam, key, s.game.ID)
	}
	v = p.Clamp(v)
	s.settings[key] = v
	s.emit(protocol.NewParam(key, v))
	return v, nil
}

// ApplyPreset replaces every setting the named preset defines and sends
// one message per key in key order.
func (s *Session) ApplyPreset(name string) error {
	preset, err := config.ParsePreset(name)
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}
	values, err := s.game.Preset(preset)
	if err != nil {
		return fmt.Errorf("editor: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range sortedKeys(values) {
		if _, err := s.setParam(key, values[key]); err != nil {
			return err
		}
	}
	s.difficulty = preset
	s.logger.Debug("preset applied", "preset", preset)
	return nil
}

// SetAsset stores a new image for assetType and sends it.
func (s *Session) SetAsset(assetType string, a protocol.AssetValue) error {
	if _, ok := s.game.Asset(assetType); !ok {
		return fmt.Errorf("%w %q for %s", ErrUnknownAsset, assetType, s.game.ID)
	}
	if a.IsZero() {
		return fmt.Errorf("editor: empty asset for %q", assetType)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.assets[assetType] = a
	s.emit(protocol.NewAsset(assetType, a))
	return nil
}

// Sync sends every setting, then every asset, in key order, and returns
// the messages sent. It is what a freshly loaded game needs.
func (s *Session) Sync() []protocol.Message {
	s.mu.Lock()
	defer s.mu.Unlock()

	msgs := make([]protocol.Message, 0, len(s.settings)+len(s.assets))
	for _, key := range sortedKeys(s.settings) {
		msgs = append(msgs, protocol.NewParam(key, s.settings[key]))
	}
	types := make([]string, 0, len(s.assets))
	for t := range s.assets {
		types = append(types, t)
	}
	sort.Strings(types)
	for _, t := range types {
		msgs = append(msgs, protocol.NewAsset(t, s.assets[t]))
	}

	for _, m := range msgs {
		s.emit(m)
	}
	return msgs
}

// Settings returns a copy of the current settings.
func (s *Session) Settings() map[string]float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]float64, len(s.settings))
	for k, v := range s.settings {
		out[k] = v
	}
	return out
}

// Assets returns a copy of the current assets.
func (s *Session) Assets() map[string]protocol.AssetValue {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]protocol.AssetValue, len(s.assets))
	for k, v := range s.assets {
		out[k] = v
	}
	return out
}

// Difficulty returns the last applied preset.
func (s *Session) Difficulty() config.Preset {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.difficulty
}

// ApplyPrompt applies a parsed description. A difficulty the game has a
// preset for wins; otherwise the explicit numeric settings are applied.
// Every setting is then resent. The returned map holds the image prompt
// for each of the game's asset types the description covers.
func (s *Session) ApplyPrompt(r llm.Result) map[string]string {
	applied := false
	if r.Difficulty != "" {
		if err := s.ApplyPreset(r.Difficulty); err == nil {
			applied = true
		} else {
			s.logger.Warn("difficulty ignored", "difficulty", r.Difficulty, "error", err)
		}
	}

	s.mu.Lock()
	if !applied {
		for _, key := range sortedKeys(r.OtherSettings) {
			if _, err := s.setParam(key, r.OtherSettings[key]); err != nil {
				s.logger.Warn("setting ignored", "key", key)
			}
		}
	}
	for _, key := range sortedKeys(s.settings) {
		s.emit(protocol.NewParam(key, s.settings[key]))
	}
	s.mu.Unlock()

	prompts := make(map[string]string)
	kinds := promptKinds[s.game.ID]
	for _, a := range s.game.AIAssets {
		kind, ok := kinds[a.Type]
		if !ok {
			continue
		}
		if p := r.PromptFor(kind); p != "" {
			prompts[a.Type] = p
		}
	}
	return prompts
}

// ExportRequest captures the session as an export request.
func (s *Session) ExportRequest(userSessionID string) export.Request {
	return export.Request{
		GameID:         s.game.ID,
		GameParameters: s.Settings(),
		AIAssetPaths:   s.Assets(),
		UserSessionID:  userSessionID,
	}
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
