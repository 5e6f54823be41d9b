package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/config"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

// birdImage is Flappy Bird's inline sprite literal.
var birdImage = regexp.MustCompile(`this\.#bird\.setImage\(\{\s*url:\s*['"]assets/images/yellowbird-midflap\.png['"],`)

// writePrelude prepends the settings and assets as two constants.
func writePrelude(script string, params map[string]float64, assets map[string]protocol.AssetValue) error {
	src, err := os.ReadFile(script)
	if err != nil {
		return fmt.Errorf("export: read main script: %w", err)
	}
	prelude, err := Prelude(params, assets)
	if err != nil {
		return err
	}
	if err := os.WriteFile(script, append([]byte(prelude), src...), 0o644); err != nil {
		return fmt.Errorf("export: write main script: %w", err)
	}
	return nil
}

// Prelude renders the constants a prelude export prepends.
func Prelude(params map[string]float64, assets map[string]protocol.AssetValue) (string, error) {
	if params == nil {
		params = map[string]float64{}
	}
	if assets == nil {
		assets = map[string]protocol.AssetValue{}
	}
	p, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("export: encode parameters: %w", err)
	}
	a, err := json.Marshal(assets)
	if err != nil {
		return "", fmt.Errorf("export: encode assets: %w", err)
	}
	return fmt.Sprintf("const EXPORTED_GAME_PARAMETERS = %s;\nconst EXPORTED_CURRENT_ASSETS = %s;\n\n", p, a), nil
}

// rewriteScripts applies every mapped variable to the main scripts and
// returns the keys no script contained.
func rewriteScripts(dir string, scripts []string, spec catalog.ExportSpec, params map[string]float64, assets map[string]protocol.AssetValue) ([]string, error) {
	sources := make([]string, len(scripts))
	for i, rel := range scripts {
		b, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(rel)))
		if err != nil {
			return nil, fmt.Errorf("export: read %s: %w", rel, err)
		}
		sources[i] = string(b)
	}

	keys := make([]string, 0, len(spec.Variables))
	for k := range spec.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var unmatched []string
	for _, key := range keys {
		v := spec.Variables[key]
		lit, ok := literalFor(key, v, params, assets)
		if !ok {
			continue
		}
		found := false
		for i := range sources {
			var hit bool
			sources[i], hit = Rewrite(sources[i], v, lit)
			found = found || hit
		}
		if !found {
			unmatched = append(unmatched, key)
		}
	}

	for i, rel := range scripts {
		if err := os.WriteFile(filepath.Join(dir, filepath.FromSlash(rel)), []byte(sources[i]), 0o644); err != nil {
			return nil, fmt.Errorf("export: write %s: %w", rel, err)
		}
	}
	return unmatched, nil
}

// literalFor renders the JS value for key, if the request carries one.
func literalFor(key string, v catalog.Variable, params map[string]float64, assets map[string]protocol.AssetValue) (string, bool) {
	if n, ok := params[key]; ok {
		if len(v.Levels) == 2 {
			return strconv.Itoa(int(config.LevelFor(n, v.Levels[0], v.Levels[1]))), true
		}
		return strconv.FormatFloat(n, 'f', -1, 64), true
	}
	a, ok := assets[key]
	if !ok || a.IsZero() {
		return "", false
	}
	if v.BirdLiteral {
		return jsString(a.Preview()), true
	}
	return AssetLiteral(a), true
}

// Rewrite replaces the first binding of v in src with lit. It reports
// whether a binding was found.
func Rewrite(src string, v catalog.Variable, lit string) (string, bool) {
	var re *regexp.Regexp
	var build func(groups []string) string

	name := regexp.QuoteMeta(v.Name)
	switch {
	case v.BirdLiteral:
		re = birdImage
		build = func([]string) string { return "this.#bird.setImage({ url: " + lit + "," }
	case v.Property:
		re = regexp.MustCompile(`(?m)^([ \t]*` + name + `[ \t]*:)[^\n]*?(,?)[ \t]*$`)
		build = func(g []string) string { return g[1] + " " + lit + g[2] }
	default:
		re = regexp.MustCompile(`((?:const|let|var)\s+` + name + `\s*=|this\.#` + name + `\s*=)[^\n]*`)
		build = func(g []string) string { return g[1] + " " + lit + ";" }
	}

	loc := re.FindStringSubmatchIndex(src)
	if loc == nil {
		return src, false
	}
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = src[loc[2*i]:loc[2*i+1]]
		}
	}
	return src[:loc[0]] + build(groups) + src[loc[1]:], true
}

// AssetLiteral renders an asset as a JS literal: a string, an array of
// strings, or a sprite descriptor.
func AssetLiteral(a protocol.AssetValue) string {
	switch a.Kind() {
	case protocol.KindURL:
		u, _ := a.URL()
		return jsString(u)
	case protocol.KindImageSet:
		urls, _ := a.ImageSet()
		parts := make([]string, len(urls))
		for i, u := range urls {
			parts[i] = jsString(u)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case protocol.KindSprite:
		s, _ := a.Sprite()
		return fmt.Sprintf("{ prefix: %s, frameCount: %d, frameWidth: %s, frameHeight: %s }",
			jsString(s.Prefix), s.Count, jsDimension(s.FrameWidth), jsDimension(s.FrameHeight))
	}
	return "null"
}

func jsDimension(n int) string {
	if n <= 0 {
		return "null"
	}
	return strconv.Itoa(n)
}

func jsString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `'`, `\'`)
	s = strings.ReplaceAll(s, "\n", `\n`)
	return "'" + s + "'"
}
