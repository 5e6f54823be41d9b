package match3

import "math/rand"

// Blank marks an empty cell.
const Blank = -1

// maxFillAttempts bounds the search for a match-free starting board.
const maxFillAttempts = 100

// Board is a rows x columns grid of candy kinds. A kind indexes the game's
// candy image list.
type Board struct {
	Rows, Cols int
	Cells      [][]int
}

// NewBoard allocates an empty board.
func NewBoard(rows, cols int) *Board {
	b := &Board{Rows: rows, Cols: cols, Cells: make([][]int, rows)}
	for r := range b.Cells {
		b.Cells[r] = make([]int, cols)
		for c := range b.Cells[r] {
			b.Cells[r][c] = Blank
		}
	}
	return b
}

// Clone returns a deep copy.
func (b *Board) Clone() *Board {
	out := &Board{Rows: b.Rows, Cols: b.Cols, Cells: make([][]int, b.Rows)}
	for r := range b.Cells {
		out.Cells[r] = append([]int(nil), b.Cells[r]...)
	}
	return out
}

// At returns the kind at (r, c).
func (b *Board) At(r, c int) int { return b.Cells[r][c] }

// Fill populates every cell from kinds candies so that no run of three
// exists, giving up after maxFillAttempts passes.
func (b *Board) Fill(rng *rand.Rand, kinds int) {
	for attempt := 0; attempt < maxFillAttempts; attempt++ {
		for r := 0; r < b.Rows; r++ {
			for c := 0; c < b.Cols; c++ {
				b.Cells[r][c] = rng.Intn(kinds)
				// A one or two candy set cannot avoid every run.
				for tries := 0; tries < 32 && b.matchAt(r, c); tries++ {
					b.Cells[r][c] = rng.Intn(kinds)
				}
			}
		}
		if !b.HasMatch() {
			return
		}
	}
}

func (b *Board) same(r1, c1, r2, c2 int) bool {
	return b.Cells[r1][c1] == b.Cells[r2][c2]
}

// matchAt reports whether (r, c) is part of a run of three in any
// direction, considering cells on both sides.
func (b *Board) matchAt(r, c int) bool {
	switch {
	case c >= 2 && b.same(r, c, r, c-1) && b.same(r, c, r, c-2):
		return true
	case c >= 1 && c < b.Cols-1 && b.same(r, c, r, c-1) && b.same(r, c, r, c+1):
		return true
	case c < b.Cols-2 && b.same(r, c, r, c+1) && b.same(r, c, r, c+2):
		return true
	case r >= 2 && b.same(r, c, r-1, c) && b.same(r, c, r-2, c):
		return true
	case r >= 1 && r < b.Rows-1 && b.same(r, c, r-1, c) && b.same(r, c, r+1, c):
		return true
	case r < b.Rows-2 && b.same(r, c, r+1, c) && b.same(r, c, r+2, c):
		return true
	}
	return false
}

// HasMatch reports whether any non-blank run of three exists.
func (b *Board) HasMatch() bool {
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols-2; c++ {
			if v := b.Cells[r][c]; v != Blank && v == b.Cells[r][c+1] && v == b.Cells[r][c+2] {
				return true
			}
		}
	}
	for c := 0; c < b.Cols; c++ {
		for r := 0; r < b.Rows-2; r++ {
			if v := b.Cells[r][c]; v != Blank && v == b.Cells[r+1][c] && v == b.Cells[r+2][c] {
				return true
			}
		}
	}
	return false
}

// Crush blanks every run of three, scanning rows then columns, and
// returns how many runs it found. A longer run is crushed three cells at a
// time from its start.
func (b *Board) Crush() int {
	runs := 0
	for r := 0; r < b.Rows; r++ {
		for c := 0; c < b.Cols-2; c++ {
			if v := b.Cells[r][c]; v != Blank && v == b.Cells[r][c+1] && v == b.Cells[r][c+2] {
				b.Cells[r][c], b.Cells[r][c+1], b.Cells[r][c+2] = Blank, Blank, Blank
				runs++
			}
		}
	}
	for c := 0; c < b.Cols; c++ {
		for r := 0; r < b.Rows-2; r++ {
			if v := b.Cells[r][c]; v != Blank && v == b.Cells[r+1][c] && v == b.Cells[r+2][c] {
				b.Cells[r][c], b.Cells[r+1][c], b.Cells[r+2][c] = Blank, Blank, Blank
				runs++
			}
		}
	}
	return runs
}

// Slide drops candies down into blank cells, column by column.
func (b *Board) Slide() {
	for c := 0; c < b.Cols; c++ {
		ind := b.Rows - 1
		for r := b.Rows - 1; r >= 0; r-- {
			if b.Cells[r][c] != Blank {
				b.Cells[ind][c] = b.Cells[r][c]
				if r != ind {
					b.Cells[r][c] = Blank
				}
				ind--
			}
		}
		for r := ind; r >= 0; r-- {
			b.Cells[r][c] = Blank
		}
	}
}

// Generate fills blank cells of the top row.
func (b *Board) Generate(rng *rand.Rand, kinds int) {
	for c := 0; c < b.Cols; c++ {
		if b.Cells[0][c] == Blank {
			b.Cells[0][c] = rng.Intn(kinds)
		}
	}
}

// Swap exchanges two orthogonally adjacent cells and keeps the swap only
// if it creates a match. It reports whether the swap was kept.
func (b *Board) Swap(r1, c1, r2, c2 int) bool {
	if !b.inside(r1, c1) || !b.inside(r2, c2) {
		return false
	}
	dr, dc := r2-r1, c2-c1
	adjacent := (dr == 0 && (dc == 1 || dc == -1)) || (dc == 0 && (dr == 1 || dr == -1))
	if !adjacent || b.Cells[r1][c1] == Blank || b.Cells[r2][c2] == Blank {
		return false
	}

	b.Cells[r1][c1], b.Cells[r2][c2] = b.Cells[r2][c2], b.Cells[r1][c1]
	if b.HasMatch() {
		return true
	}
	b.Cells[r1][c1], b.Cells[r2][c2] = b.Cells[r2][c2], b.Cells[r1][c1]
	return false
}

func (b *Board) inside(r, c int) bool {
	return r >= 0 && r < b.Rows && c >= 0 && c < b.Cols
}
