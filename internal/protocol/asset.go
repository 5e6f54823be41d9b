package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// AssetData is the data payload of UPDATE_ASSET.
type AssetData struct {
	ImageURL    string   `json:"imageUrl,omitempty"`
	URLs        []string `json:"urls,omitempty"`
	IsAnimated  bool     `json:"isAnimated"`
	Prefix      string   `json:"prefix,omitempty"`
	Count       int      `json:"count,omitempty"`
	FrameWidth  int      `json:"frameWidth,omitempty"`
	FrameHeight int      `json:"frameHeight,omitempty"`
}

// UnmarshalJSON accepts frameCount as an alias for count; export
// requests use that spelling.
func (d *AssetData) UnmarshalJSON(b []byte) error {
	type plain AssetData
	var aux struct {
		plain
		FrameCount int `json:"frameCount"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*d = AssetData(aux.plain)
	if d.Count == 0 {
		d.Count = aux.FrameCount
	}
	return nil
}

// MaxFrames bounds the frame count of a sprite sheet.
const MaxFrames = 512

// ErrTooManyFrames is returned for a sprite sheet above MaxFrames.
var ErrTooManyFrames = fmt.Errorf("protocol: sprite sheet has more than %d frames", MaxFrames)

// SpriteSheet is an animation stored as numbered frame files.
type SpriteSheet struct {
	Prefix      string `json:"prefix"`
	Count       int    `json:"count"`
	FrameWidth  int    `json:"frameWidth,omitempty"`
	FrameHeight int    `json:"frameHeight,omitempty"`
	// ImageURL is an optional preview image.
	ImageURL string `json:"imageUrl,omitempty"`
}

// Frame returns the file of frame i. The asset library uses a few naming
// schemes, recognized from the prefix:
//
//	.../skeleton-animation_  -> skeleton-animation_07.png
//	.../man00                -> man003.png (three digits)
//	.../frame-               -> frame-1.png (1-based)
//	anything else            -> <prefix><i>.png
func (s SpriteSheet) Frame(i int) string {
	base := s.Prefix[strings.LastIndex(s.Prefix, "/")+1:]
	switch {
	case strings.Contains(base, "skeleton-animation_"):
		return fmt.Sprintf("%s%02d.png", s.Prefix, i)
	case strings.Contains(base, "man"):
		// Digits already in the prefix count toward the three.
		width := 3 - (len(base) - len(strings.TrimRight(base, "0123456789")))
		if width < 1 {
			width = 1
		}
		return fmt.Sprintf("%s%0*d.png", s.Prefix, width, i)
	case strings.Contains(base, "frame-"):
		return s.Prefix + strconv.Itoa(i+1) + ".png"
	default:
		return s.Prefix + strconv.Itoa(i) + ".png"
	}
}

// Frames lists every frame file, at most MaxFrames.
func (s SpriteSheet) Frames() []string {
	n := min(max(s.Count, 0), MaxFrames)
	out := make([]string, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, s.Frame(i))
	}
	return out
}

// Preview is the explicit preview image or the first frame.
func (s SpriteSheet) Preview() string {
	if s.ImageURL != "" {
		return s.ImageURL
	}
	return s.Frame(0)
}

// Kind tells which representation an AssetValue holds.
type Kind int

const (
	KindNone Kind = iota
	KindURL
	KindImageSet
	KindSprite
)

func (k Kind) String() string {
	switch k {
	case KindURL:
		return "url"
	case KindImageSet:
		return "imageSet"
	case KindSprite:
		return "sprite"
	default:
		return "none"
	}
}

// AssetValue is the editor's value for one asset slot. It holds exactly
// one of a URL (public path or data URL), an image set, or a sprite sheet.
type AssetValue struct {
	url   string
	set   []string
	sheet *SpriteSheet
}

// URLAsset is a single image.
func URLAsset(u string) AssetValue {
	return AssetValue{url: u}
}

// ImageSetAsset is an ordered list of images.
func ImageSetAsset(urls []string) AssetValue {
	return AssetValue{set: append([]string(nil), urls...)}
}

// SpriteAsset is an animation.
func SpriteAsset(s SpriteSheet) AssetValue {
	return AssetValue{sheet: &s}
}

// Kind returns the held representation.
func (a AssetValue) Kind() Kind {
	switch {
	case a.sheet != nil:
		return KindSprite
	case a.set != nil:
		return KindImageSet
	case a.url != "":
		return KindURL
	default:
		return KindNone
	}
}

// IsZero reports whether no representation is set.
func (a AssetValue) IsZero() bool { return a.Kind() == KindNone }

// URL returns the single image.
func (a AssetValue) URL() (string, bool) {
	return a.url, a.Kind() == KindURL
}

// ImageSet returns a copy of the image list.
func (a AssetValue) ImageSet() ([]string, bool) {
	if a.Kind() != KindImageSet {
		return nil, false
	}
	return append([]string(nil), a.set...), true
}

// Sprite returns the animation.
func (a AssetValue) Sprite() (SpriteSheet, bool) {
	if a.sheet == nil {
		return SpriteSheet{}, false
	}
	return *a.sheet, true
}

// Preview returns one image that stands for the whole value.
func (a AssetValue) Preview() string {
	switch a.Kind() {
	case KindURL:
		return a.url
	case KindImageSet:
		if len(a.set) > 0 {
			return a.set[0]
		}
	case KindSprite:
		return a.sheet.Preview()
	}
	return ""
}

// Equal compares two values by content.
func (a AssetValue) Equal(b AssetValue) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	switch a.Kind() {
	case KindURL:
		return a.url == b.url
	case KindImageSet:
		if len(a.set) != len(b.set) {
			return false
		}
		for i := range a.set {
			if a.set[i] != b.set[i] {
				return false
			}
		}
		return true
	case KindSprite:
		return *a.sheet == *b.sheet
	}
	return true
}

type assetJSON struct {
	IsAnimated  bool     `json:"isAnimated"`
	URLs        []string `json:"urls,omitempty"`
	ImageURL    string   `json:"imageUrl,omitempty"`
	Prefix      string   `json:"prefix,omitempty"`
	FrameCount  int      `json:"frameCount,omitempty"`
	FrameWidth  int      `json:"frameWidth,omitempty"`
	FrameHeight int      `json:"frameHeight,omitempty"`
}

// MarshalJSON writes a URL as a JSON string and the other kinds as objects.
func (a AssetValue) MarshalJSON() ([]byte, error) {
	switch a.Kind() {
	case KindURL:
		return json.Marshal(a.url)
	case KindImageSet:
		return json.Marshal(assetJSON{URLs: a.set})
	case KindSprite:
		s := a.sheet
		return json.Marshal(assetJSON{
			IsAnimated:  true,
			ImageURL:    s.ImageURL,
			Prefix:      s.Prefix,
			FrameCount:  s.Count,
			FrameWidth:  s.FrameWidth,
			FrameHeight: s.FrameHeight,
		})
	default:
		return []byte("null"), nil
	}
}

var errEmptyAsset = errors.New("protocol: asset value has no url, urls or prefix")

// UnmarshalJSON accepts a string, {urls}, {prefix, frameCount|count} or
// {imageUrl}.
func (a *AssetValue) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = AssetValue{}
		return nil
	}

	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*a = URLAsset(s)
		return nil
	}

	var d AssetData
	if err := json.Unmarshal(b, &d); err != nil {
		return fmt.Errorf("protocol: asset value: %w", err)
	}
	if d.Count > MaxFrames {
		return fmt.Errorf("%w: %d", ErrTooManyFrames, d.Count)
	}
	switch {
	case d.Prefix != "" && d.Count > 0:
		*a = SpriteAsset(SpriteSheet{
			Prefix:      d.Prefix,
			Count:       d.Count,
			FrameWidth:  d.FrameWidth,
			FrameHeight: d.FrameHeight,
			ImageURL:    d.ImageURL,
		})
	case len(d.URLs) > 0:
		*a = ImageSetAsset(d.URLs)
	case d.ImageURL != "":
		*a = URLAsset(d.ImageURL)
	default:
		return errEmptyAsset
	}
	return nil
}
