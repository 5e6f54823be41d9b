// Package protocol defines the messages the editor sends to a running game.
//
// There are two message types. UPDATE_PARAM changes one numeric setting and
// UPDATE_ASSET replaces one visual asset. Messages are validated when they
// are decoded; a game only ever sees well-formed messages.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

// Version is the newest message schema this package understands.
// Messages without a version are treated as version 1.
const Version = 1

// Type is the message discriminator.
type Type string

const (
	TypeUpdateParam Type = "UPDATE_PARAM"
	TypeUpdateAsset Type = "UPDATE_ASSET"
)

var (
	ErrUnknownType        = errors.New("protocol: unknown message type")
	ErrMalformed          = errors.New("protocol: malformed message")
	ErrUnsupportedVersion = errors.New("protocol: unsupported version")

	// ErrUnknownKey and ErrUnknownAsset are returned by receivers for
	// well-formed messages they do not handle.
	ErrUnknownKey   = errors.New("protocol: unknown parameter key")
	ErrUnknownAsset = errors.New("protocol: unknown asset type")
)

// Message is one editor to game message.
type Message struct {
	V         int        `json:"v,omitempty"`
	Type      Type       `json:"type"`
	Key       string     `json:"key,omitempty"`
	Value     *float64   `json:"value,omitempty"`
	AssetType string     `json:"assetType,omitempty"`
	URL       string     `json:"url,omitempty"`
	Data      *AssetData `json:"data,omitempty"`
}

// NewParam builds an UPDATE_PARAM message.
func NewParam(key string, v float64) Message {
	return Message{V: Version, Type: TypeUpdateParam, Key: key, Value: &v}
}

// NewAsset builds an UPDATE_ASSET message for an asset value.
// A plain URL is sent both as url and data.imageUrl so receivers with
// either preference find it.
func NewAsset(assetType string, a AssetValue) Message {
	m := Message{V: Version, Type: TypeUpdateAsset, AssetType: assetType}
	switch a.Kind() {
	case KindURL:
		m.URL = a.url
		m.Data = &AssetData{ImageURL: a.url}
	case KindImageSet:
		m.Data = &AssetData{URLs: append([]string(nil), a.set...)}
	case KindSprite:
		s := *a.sheet
		m.Data = &AssetData{
			ImageURL:    s.ImageURL,
			IsAnimated:  true,
			Prefix:      s.Prefix,
			Count:       s.Count,
			FrameWidth:  s.FrameWidth,
			FrameHeight: s.FrameHeight,
		}
	}
	return m
}

// Number returns the UPDATE_PARAM value, or 0 when absent.
func (m Message) Number() float64 {
	if m.Value == nil {
		return 0
	}
	return *m.Value
}

// Validate checks the fields required by the message type.
func (m Message) Validate() error {
	if m.V > Version {
		return fmt.Errorf("%w: v%d (supported v%d)", ErrUnsupportedVersion, m.V, Version)
	}
	if m.V < 0 {
		return fmt.Errorf("%w: negative version", ErrMalformed)
	}

	switch m.Type {
	case TypeUpdateParam:
		if m.Key == "" {
			return fmt.Errorf("%w: UPDATE_PARAM without key", ErrMalformed)
		}
		if m.Value == nil {
			return fmt.Errorf("%w: UPDATE_PARAM %q without value", ErrMalformed, m.Key)
		}
		if math.IsNaN(*m.Value) || math.IsInf(*m.Value, 0) {
			return fmt.Errorf("%w: UPDATE_PARAM %q value is not finite", ErrMalformed, m.Key)
		}
	case TypeUpdateAsset:
		if m.AssetType == "" {
			return fmt.Errorf("%w: UPDATE_ASSET without assetType", ErrMalformed)
		}
		if m.URL == "" && m.Data == nil {
			return fmt.Errorf("%w: UPDATE_ASSET %q without url or data", ErrMalformed, m.AssetType)
		}
		if m.Data != nil && (m.Data.Count < 0 || m.Data.Count > MaxFrames) {
			return fmt.Errorf("%w: UPDATE_ASSET %q frame count %d", ErrMalformed, m.AssetType, m.Data.Count)
		}
	case "":
		return fmt.Errorf("%w: missing type", ErrMalformed)
	default:
		return fmt.Errorf("%w %q", ErrUnknownType, m.Type)
	}
	return nil
}

// Decode parses and validates a wire message.
func Decode(raw []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(raw, &m); err != nil {
		return Message{}, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if err := m.Validate(); err != nil {
		return Message{}, err
	}
	if m.V == 0 {
		m.V = 1
	}
	return m, nil
}

// Encode validates m and returns its wire form.
func Encode(m Message) ([]byte, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return json.Marshal(m)
}

// Source is one step of an asset fallback chain.
type Source int

const (
	FromURL        Source = iota // message url
	FromImageURL                 // data.imageUrl
	FromFirstURL                 // data.urls[0]
	FromFirstFrame               // first frame of an animated sheet
)

// DefaultOrder is the shared asset fallback chain.
var DefaultOrder = []Source{FromURL, FromImageURL, FromFirstURL, FromFirstFrame}

// ImageURL resolves the message to a single image using DefaultOrder.
func (m Message) ImageURL() string {
	return m.Resolve(DefaultOrder...)
}

// Resolve returns the first non-empty image in the given order.
func (m Message) Resolve(order ...Source) string {
	for _, src := range order {
		if u := m.source(src); u != "" {
			return u
		}
	}
	return ""
}

func (m Message) source(src Source) string {
	switch src {
	case FromURL:
		return m.URL
	case FromImageURL:
		if m.Data != nil {
			return m.Data.ImageURL
		}
	case FromFirstURL:
		if m.Data != nil && len(m.Data.URLs) > 0 {
			return m.Data.URLs[0]
		}
	case FromFirstFrame:
		if s, ok := m.Sheet(); ok {
			return s.Frame(0)
		}
	}
	return ""
}

// URLs returns data.urls.
func (m Message) URLs() []string {
	if m.Data == nil {
		return nil
	}
	return m.Data.URLs
}

// Sheet returns the animated sprite sheet carried in data, if any.
func (m Message) Sheet() (SpriteSheet, bool) {
	if m.Data == nil || !m.Data.IsAnimated || m.Data.Prefix == "" {
		return SpriteSheet{}, false
	}
	return SpriteSheet{
		Prefix:      m.Data.Prefix,
		Count:       m.Data.Count,
		FrameWidth:  m.Data.FrameWidth,
		FrameHeight: m.Data.FrameHeight,
		ImageURL:    m.Data.ImageURL,
	}, true
}

// Asset converts the message payload back to an AssetValue.
func (m Message) Asset() AssetValue {
	if s, ok := m.Sheet(); ok {
		return SpriteAsset(s)
	}
	if urls := m.URLs(); len(urls) > 0 && m.URL == "" {
		return ImageSetAsset(urls)
	}
	return URLAsset(m.ImageURL())
}
