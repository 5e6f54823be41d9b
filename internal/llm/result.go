package llm

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrNoJSON is returned when a model reply holds no JSON object.
var ErrNoJSON = errors.New("llm: no JSON object in reply")

// Prompt kinds returned by the model.
const (
	KindCharacter  = "character"
	KindBackground = "background"
	KindObstacle   = "obstacle"
	KindGemSet     = "gemset"
)

// Result is the structured breakdown of a free-form game prompt.
type Result struct {
	CharacterPrompt  string             `json:"character_prompt"`
	BackgroundPrompt string             `json:"background_prompt"`
	ObstaclePrompt   string             `json:"obstacle_prompt"`
	GemSetPrompt     string             `json:"gemset_prompt"`
	Difficulty       string             `json:"difficulty"`
	OtherSettings    map[string]float64 `json:"other_settings,omitempty"`
}

// PromptFor returns the prompt of one kind, trimmed.
func (r Result) PromptFor(kind string) string {
	var p string
	switch kind {
	case KindCharacter:
		p = r.CharacterPrompt
	case KindBackground:
		p = r.BackgroundPrompt
	case KindObstacle:
		p = r.ObstaclePrompt
	case KindGemSet:
		p = r.GemSetPrompt
	}
	return strings.TrimSpace(p)
}

// Extract pulls the first JSON object out of a model reply. Replies are
// often wrapped in a ```json fence or in a sentence of prose.
func Extract(reply string) (Result, error) {
	text := strings.TrimSpace(reply)
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		rest = strings.TrimPrefix(rest, "json")
		if j := strings.Index(rest, "```"); j >= 0 {
			text = strings.TrimSpace(rest[:j])
		}
	}

	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Result{}, ErrNoJSON
	}

	var raw struct {
		Result
		Other map[string]any `json:"other_settings"`
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &raw); err != nil {
		return Result{}, fmt.Errorf("llm: decode reply: %w", err)
	}

	r := raw.Result
	r.Difficulty = strings.ToLower(strings.TrimSpace(r.Difficulty))
	r.OtherSettings = numbers(raw.Other)
	return r, nil
}

// numbers keeps the numeric entries of m. Numeric strings count.
func numbers(m map[string]any) map[string]float64 {
	out := make(map[string]float64, len(m))
	for k, v := range m {
		switch n := v.(type) {
		case float64:
			out[k] = n
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
				out[k] = f
			}
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
