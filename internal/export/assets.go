package export

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/gamegen/internal/catalog"
	"github.com/vovakirdan/gamegen/internal/protocol"
)

// mimeExt maps image MIME types to file extensions.
var mimeExt = map[string]string{
	"image/png":     "png",
	"image/jpeg":    "jpg",
	"image/jpg":     "jpg",
	"image/gif":     "gif",
	"image/webp":    "webp",
	"image/svg+xml": "svg",
}

// materializer writes asset files into an export tree and reports the
// ZIP path of each.
type materializer struct {
	dir       string
	publicDir string
	game      catalog.GameConfig
	logger    *log.Logger
}

// place writes every file of v and returns v with ZIP-relative paths.
func (m materializer) place(assetType string, v protocol.AssetValue) (protocol.AssetValue, error) {
	dirRel := m.game.AssetDir(assetType)

	switch v.Kind() {
	case protocol.KindURL:
		u, _ := v.URL()
		p, err := m.file(u, dirRel, assetType)
		if err != nil {
			return protocol.AssetValue{}, err
		}
		return protocol.URLAsset(p), nil

	case protocol.KindImageSet:
		urls, _ := v.ImageSet()
		out := make([]string, len(urls))
		for i, u := range urls {
			p, err := m.file(u, dirRel, assetType+"_"+strconv.Itoa(i))
			if err != nil {
				return protocol.AssetValue{}, err
			}
			out[i] = p
		}
		return protocol.ImageSetAsset(out), nil

	case protocol.KindSprite:
		sheet, _ := v.Sprite()
		for i, frame := range sheet.Frames() {
			if _, err := m.file(frame, dirRel, assetType+"_"+strconv.Itoa(i)); err != nil {
				return protocol.AssetValue{}, err
			}
		}
		placed := sheet
		placed.Prefix = m.target(sheet.Prefix, dirRel)
		if sheet.ImageURL != "" {
			p, err := m.file(sheet.ImageURL, dirRel, assetType+"_preview")
			if err != nil {
				return protocol.AssetValue{}, err
			}
			placed.ImageURL = p
		}
		return protocol.SpriteAsset(placed), nil
	}
	return v, nil
}

// target is the ZIP path a copied public file lands at.
func (m materializer) target(src, dirRel string) string {
	if rel, ok := m.gamePath(src); ok {
		return rel
	}
	return path.Join(dirRel, path.Base(src))
}

// gamePath reports whether src points inside the game's own template and
// returns it relative to the template root.
func (m materializer) gamePath(src string) (string, bool) {
	prefix := "/games/" + m.game.ID + "/"
	clean := path.Clean(src)
	if !strings.HasPrefix(clean, prefix) {
		return "", false
	}
	return strings.TrimPrefix(clean, prefix), true
}

// file materializes one image and returns its ZIP path. name is the base
// name used for data URLs; public files keep their own name.
func (m materializer) file(src, dirRel, name string) (string, error) {
	switch {
	case strings.HasPrefix(src, "data:"):
		data, ext, err := decodeDataURL(src)
		if err != nil {
			return "", fmt.Errorf("export: asset %s: %w", name, err)
		}
		rel := path.Join(dirRel, name+"."+ext)
		if err := m.write(rel, data); err != nil {
			return "", err
		}
		return rel, nil

	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"):
		m.logger.Warn("remote asset left as a URL", "url", src)
		return src, nil
	}

	if rel, ok := m.gamePath(src); ok {
		if _, err := os.Stat(filepath.Join(m.dir, filepath.FromSlash(rel))); err != nil {
			return "", fmt.Errorf("%w: %s", ErrAssetNotFound, src)
		}
		return rel, nil
	}

	clean := strings.TrimPrefix(path.Clean("/"+src), "/")
	from := filepath.Join(m.publicDir, filepath.FromSlash(clean))
	data, err := os.ReadFile(from)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrAssetNotFound, src)
	}
	rel := path.Join(dirRel, path.Base(clean))
	if err := m.write(rel, data); err != nil {
		return "", err
	}
	return rel, nil
}

// write stores data at rel inside the export tree. Paths that leave the
// tree are refused.
func (m materializer) write(rel string, data []byte) error {
	if !filepath.IsLocal(filepath.FromSlash(rel)) {
		return fmt.Errorf("%w: asset path %q leaves the export tree", ErrInvalidRequest, rel)
	}
	dst := filepath.Join(m.dir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("export: create asset dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return fmt.Errorf("export: write asset %s: %w", rel, err)
	}
	return nil
}

// decodeDataURL returns the payload of a data: URL and the file extension
// of its media type.
func decodeDataURL(s string) ([]byte, string, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(s, "data:"), ",")
	if !ok {
		return nil, "", fmt.Errorf("malformed data URL")
	}
	mime, isBase64 := strings.CutSuffix(header, ";base64")
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = mime[:i]
	}
	ext, ok := mimeExt[strings.ToLower(mime)]
	if !ok {
		ext = "png"
	}

	if !isBase64 {
		data, err := url.PathUnescape(payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode data URL: %w", err)
		}
		return []byte(data), ext, nil
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	if err != nil {
		return nil, "", fmt.Errorf("decode data URL: %w", err)
	}
	return data, ext, nil
}

// copyTree copies the regular files and directories under src into dst.
func copyTree(ctx context.Context, src, dst string) error {
	err := filepath.WalkDir(src, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		if !d.Type().IsRegular() {
			return nil
		}
		return copyFile(p, target)
	})
	if err != nil {
		return fmt.Errorf("export: copy template: %w", err)
	}
	return nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
