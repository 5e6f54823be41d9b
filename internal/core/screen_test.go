package core

import (
	"strings"
	"testing"
)

func TestNewScreen(t *testing.T) {
	s := NewScreen(80, 24)

	if s.Width() != 80 || s.Height() != 24 {
		t.Fatalf("size = %dx%d, expected 80x24", s.Width(), s.Height())
	}

	for y := 0; y < s.Height(); y++ {
		for x := 0; x < s.Width(); x++ {
			if s.Get(x, y) != ' ' {
				t.Fatalf("new screen should be blank, got %q at (%d, %d)", s.Get(x, y), x, y)
			}
		}
	}
}

func TestScreenSetGet(t *testing.T) {
	s := NewScreen(10, 10)

	s.SetColored(5, 5, 'X', ColorRed)
	if c := s.GetCell(5, 5); c.Rune != 'X' || c.Color != ColorRed {
		t.Errorf("GetCell(5, 5) = %+v", c)
	}

	// Out of bounds is silent
	s.Set(-1, 0, 'A')
	s.Set(100, 0, 'A')
	s.Set(0, -1, 'A')
	s.Set(0, 100, 'A')

	if s.Get(-1, 0) != ' ' || s.Get(100, 0) != ' ' {
		t.Error("out of bounds Get should return space")
	}
}

func TestScreenResizeKeepsContent(t *testing.T) {
	s := NewScreen(4, 4)
	s.Set(1, 1, '#')
	s.Resize(8, 2)

	if s.Get(1, 1) != '#' {
		t.Errorf("content lost on resize, got %q", s.Get(1, 1))
	}
	if s.Width() != 8 || s.Height() != 2 {
		t.Errorf("size = %dx%d, expected 8x2", s.Width(), s.Height())
	}
}

func TestScreenString(t *testing.T) {
	s := NewScreen(3, 2)
	s.DrawText(0, 0, "abcd")
	s.DrawText(1, 1, "z")

	if got := s.String(); got != "abc\n z " {
		t.Errorf("String() = %q", got)
	}
	if got := s.Row(1); got != " z " {
		t.Errorf("Row(1) = %q", got)
	}
}

func TestScreenDrawMessage(t *testing.T) {
	s := NewScreen(40, 11)
	s.DrawMessage("GAME OVER", "Score: 3")

	if !strings.Contains(s.String(), "GAME OVER") {
		t.Error("message title not drawn")
	}
	if !strings.Contains(s.String(), "Score: 3") {
		t.Error("message subtitle not drawn")
	}
}

func TestViewportFillRect(t *testing.T) {
	s := NewScreen(10, 10)
	v := Viewport{Screen: s, WorldW: 100, WorldH: 100}
	v.FillRect(NewRect(0, 0, 20, 20), '#', ColorGreen)

	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			if s.Get(x, y) != '#' {
				t.Errorf("expected fill at (%d, %d)", x, y)
			}
		}
	}
	if s.Get(2, 2) != ' ' {
		t.Error("fill leaked outside the box")
	}
}

func TestViewportFlipY(t *testing.T) {
	s := NewScreen(10, 10)
	v := Viewport{Screen: s, WorldW: 100, WorldH: 100, FlipY: true}

	// A box resting on the ground lands on the bottom rows.
	v.FillRect(NewRect(0, 0, 10, 10), '@', ColorYellow)
	if s.Get(0, 9) != '@' {
		t.Errorf("expected ground box on the last row, screen:\n%s", s.String())
	}
	if s.Get(0, 0) != ' ' {
		t.Error("flipped box drawn at the top")
	}
}

func TestViewportTinyRectVisible(t *testing.T) {
	s := NewScreen(10, 10)
	v := Viewport{Screen: s, WorldW: 1000, WorldH: 1000}
	v.FillRect(NewRect(500, 500, 1, 1), '*', ColorDefault)

	if s.Get(5, 5) != '*' {
		t.Error("sub-cell box should still cover one cell")
	}
}
