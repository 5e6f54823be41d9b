package protocol

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
)

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr error
	}{
		{"param", `{"type":"UPDATE_PARAM","key":"gravity","value":0.5}`, nil},
		{"param zero value", `{"type":"UPDATE_PARAM","key":"gravity","value":0}`, nil},
		{"asset url", `{"type":"UPDATE_ASSET","assetType":"character","url":"/a.png"}`, nil},
		{"asset data", `{"type":"UPDATE_ASSET","assetType":"gemSet","data":{"urls":["a","b"],"isAnimated":false}}`, nil},
		{"versioned", `{"v":1,"type":"UPDATE_PARAM","key":"k","value":1}`, nil},
		{"future version", `{"v":2,"type":"UPDATE_PARAM","key":"k","value":1}`, ErrUnsupportedVersion},
		{"unknown type", `{"type":"RESET"}`, ErrUnknownType},
		{"missing type", `{"key":"k"}`, ErrMalformed},
		{"param without key", `{"type":"UPDATE_PARAM","value":1}`, ErrMalformed},
		{"param without value", `{"type":"UPDATE_PARAM","key":"k"}`, ErrMalformed},
		{"param string value", `{"type":"UPDATE_PARAM","key":"k","value":"fast"}`, ErrMalformed},
		{"asset without type", `{"type":"UPDATE_ASSET","url":"/a.png"}`, ErrMalformed},
		{"asset without payload", `{"type":"UPDATE_ASSET","assetType":"character"}`, ErrMalformed},
		{"not json", `hello`, ErrMalformed},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m, err := Decode([]byte(tc.raw))
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("Decode() error = %v", err)
				}
				if m.V != Version {
					t.Errorf("V = %d, expected %d", m.V, Version)
				}
				return
			}
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("Decode() error = %v, expected %v", err, tc.wantErr)
			}
		})
	}
}

func TestValidateRejectsNonFinite(t *testing.T) {
	for _, v := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		if err := NewParam("k", v).Validate(); !errors.Is(err, ErrMalformed) {
			t.Errorf("Validate(%v) = %v, expected ErrMalformed", v, err)
		}
	}
}

func TestImageURLFallbackChain(t *testing.T) {
	tests := []struct {
		name     string
		msg      Message
		expected string
	}{
		{"url wins", Message{URL: "u", Data: &AssetData{ImageURL: "i", URLs: []string{"s"}}}, "u"},
		{"image url", Message{Data: &AssetData{ImageURL: "i", URLs: []string{"s"}}}, "i"},
		{"first of set", Message{Data: &AssetData{URLs: []string{"s", "t"}}}, "s"},
		{"first frame", Message{Data: &AssetData{IsAnimated: true, Prefix: "/x/frame-", Count: 2}}, "/x/frame-1.png"},
		{"nothing", Message{}, ""},
	}
	for _, tc := range tests {
		if got := tc.msg.ImageURL(); got != tc.expected {
			t.Errorf("%s: ImageURL() = %q, expected %q", tc.name, got, tc.expected)
		}
	}
}

func TestResolveCustomOrder(t *testing.T) {
	m := Message{URL: "u", Data: &AssetData{ImageURL: "i"}}
	if got := m.Resolve(FromImageURL, FromURL); got != "i" {
		t.Errorf("Resolve(imageUrl, url) = %q, expected i", got)
	}
	if got := m.Resolve(FromFirstURL); got != "" {
		t.Errorf("Resolve(firstUrl) = %q, expected empty", got)
	}
}

func TestFrameNaming(t *testing.T) {
	tests := []struct {
		prefix   string
		i        int
		expected string
	}{
		{"/a/box bird/skeleton-animation_", 7, "/a/box bird/skeleton-animation_07.png"},
		{"/a/man/man", 3, "/a/man/man003.png"},
		{"/a/man/man00", 3, "/a/man/man003.png"},
		{"/a/man/man0", 12, "/a/man/man012.png"},
		{"/a/red bird/flying/frame-", 0, "/a/red bird/flying/frame-1.png"},
		{"/a/eagle/eagle", 4, "/a/eagle/eagle4.png"},
		{"/a/human/walk_", 2, "/a/human/walk_2.png"},
	}
	for _, tc := range tests {
		s := SpriteSheet{Prefix: tc.prefix, Count: 10}
		if got := s.Frame(tc.i); got != tc.expected {
			t.Errorf("Frame(%q, %d) = %q, expected %q", tc.prefix, tc.i, got, tc.expected)
		}
	}
}

func TestNewAssetRoundTrip(t *testing.T) {
	sheet := SpriteSheet{Prefix: "/a/frame-", Count: 2, FrameWidth: 43, FrameHeight: 30}
	tests := []AssetValue{
		URLAsset("data:image/png;base64,AAAA"),
		ImageSetAsset([]string{"/g/1.png", "/g/2.png"}),
		SpriteAsset(sheet),
	}
	for _, a := range tests {
		m := NewAsset("character", a)
		raw, err := Encode(m)
		if err != nil {
			t.Fatalf("Encode(%s) error: %v", a.Kind(), err)
		}
		back, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%s) error: %v", a.Kind(), err)
		}
		if got := back.Asset(); !got.Equal(a) {
			t.Errorf("%s: Asset() = %+v, expected %+v", a.Kind(), got, a)
		}
	}
}

func TestNewAssetURLSetsBothFields(t *testing.T) {
	m := NewAsset("background", URLAsset("/bg.png"))
	if m.URL != "/bg.png" || m.Data == nil || m.Data.ImageURL != "/bg.png" {
		t.Errorf("NewAsset(url) = %+v", m)
	}
}

func TestAssetValueJSON(t *testing.T) {
	tests := []struct {
		raw  string
		kind Kind
	}{
		{`"/ai_assets/x.png"`, KindURL},
		{`{"urls":["a","b"]}`, KindImageSet},
		{`{"isAnimated":true,"prefix":"/p/frame-","frameCount":2}`, KindSprite},
		{`{"isAnimated":true,"prefix":"/p/frame-","count":2,"frameWidth":43}`, KindSprite},
		{`{"imageUrl":"/i.png"}`, KindURL},
	}
	for _, tc := range tests {
		var a AssetValue
		if err := json.Unmarshal([]byte(tc.raw), &a); err != nil {
			t.Fatalf("Unmarshal(%s) error: %v", tc.raw, err)
		}
		if a.Kind() != tc.kind {
			t.Errorf("Unmarshal(%s) kind = %s, expected %s", tc.raw, a.Kind(), tc.kind)
		}
	}

	var a AssetValue
	if err := json.Unmarshal([]byte(`{"isAnimated":false}`), &a); err == nil {
		t.Error("expected error for empty asset object")
	}
}

func TestSpriteFrameCountBounded(t *testing.T) {
	var a AssetValue
	err := json.Unmarshal([]byte(`{"isAnimated":true,"prefix":"/p/frame-","frameCount":4611686018427387904}`), &a)
	if !errors.Is(err, ErrTooManyFrames) {
		t.Errorf("Unmarshal(huge frameCount) error = %v, expected ErrTooManyFrames", err)
	}

	_, err = Decode([]byte(`{"type":"UPDATE_ASSET","assetType":"character","data":{"isAnimated":true,"prefix":"/p/man00","count":100000}}`))
	if !errors.Is(err, ErrMalformed) {
		t.Errorf("Decode(huge count) error = %v, expected ErrMalformed", err)
	}

	sheet := SpriteSheet{Prefix: "/p/frame-", Count: 1 << 30}
	if n := len(sheet.Frames()); n != MaxFrames {
		t.Errorf("len(Frames()) = %d, expected %d", n, MaxFrames)
	}
}

func TestAssetValueMarshalShapes(t *testing.T) {
	raw, err := json.Marshal(map[string]AssetValue{
		"bg":   URLAsset("/bg.png"),
		"gems": ImageSetAsset([]string{"a"}),
	})
	if err != nil {
		t.Fatal(err)
	}
	expected := `{"bg":"/bg.png","gems":{"isAnimated":false,"urls":["a"]}}`
	if string(raw) != expected {
		t.Errorf("Marshal = %s, expected %s", raw, expected)
	}
}

func TestImageSetIsCopied(t *testing.T) {
	src := []string{"a", "b"}
	a := ImageSetAsset(src)
	src[0] = "z"
	got, _ := a.ImageSet()
	if got[0] != "a" {
		t.Errorf("ImageSetAsset aliased its input: %v", got)
	}
	got[1] = "y"
	again, _ := a.ImageSet()
	if again[1] != "b" {
		t.Errorf("ImageSet() returned internal slice: %v", again)
	}
}

type recorder struct {
	got []Message
	err error
}

func (r *recorder) HandleMessage(m Message) error {
	r.got = append(r.got, m)
	return r.err
}

func TestDispatch(t *testing.T) {
	r := &recorder{}

	if err := Dispatch(r, []byte(`{"type":"UPDATE_PARAM","key":"speed","value":4}`), nil); err != nil {
		t.Fatalf("Dispatch(valid) error: %v", err)
	}
	if err := Dispatch(r, []byte(`{"type":"BOGUS"}`), nil); !errors.Is(err, ErrUnknownType) {
		t.Errorf("Dispatch(bogus) error = %v", err)
	}
	if err := Dispatch(r, []byte(`{`), nil); !errors.Is(err, ErrMalformed) {
		t.Errorf("Dispatch(truncated) error = %v", err)
	}

	if len(r.got) != 1 {
		t.Fatalf("receiver got %d messages, expected 1", len(r.got))
	}
	if r.got[0].Key != "speed" || r.got[0].Number() != 4 {
		t.Errorf("delivered %+v", r.got[0])
	}
}

func TestDeliverPassesReceiverError(t *testing.T) {
	r := &recorder{err: ErrUnknownKey}
	err := Deliver(r, NewParam("ghost", 1), nil)
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("Deliver error = %v, expected ErrUnknownKey", err)
	}

	f := ReceiverFunc(func(Message) error { return nil })
	if err := Deliver(f, NewParam("k", 1), nil); err != nil {
		t.Errorf("Deliver(func) error = %v", err)
	}
}
