// Package board implements the 10x20 playfield as a 200-bit value
// packed into four 64-bit lanes. A set bit means the cell is EMPTY, so
// a fresh board is all ones and piece placement clears bits. Keeping
// the board a small comparable value makes copies, equality and map
// keys free, and lets the move search test piece fits with a handful
// of word operations.
package board

import (
	"encoding/binary"
	"math/bits"
	"strings"

	"github.com/cespare/xxhash"

	"github.com/BetaTetris/betatetris-tablebase/rules"
)

const (
	NumRows = 20
	NumCols = 10

	rowsPerLane = 5
	rowMask     = uint64(1)<<NumCols - 1
	laneMask    = uint64(1)<<(rowsPerLane*NumCols) - 1
)

// Board is the playfield value. Row 0 is the top, column 0 the left.
// Lane i holds rows 5i..5i+4, ten bits per row, LSB = column 0.
type Board struct {
	lanes [4]uint64
}

// Ones is the empty playfield (every cell free).
var Ones = Board{lanes: [4]uint64{laneMask, laneMask, laneMask, laneMask}}

// Zeros is the fully occupied playfield.
var Zeros = Board{}

// New parses an ASCII mask, '.' for empty and anything else for
// occupied. Rows are newline-separated; when fewer than twenty rows
// are given they describe the BOTTOM of the field and the rows above
// are empty.
func New(s string) Board {
	rows := strings.Split(strings.TrimRight(s, "\n"), "\n")
	b := Ones
	base := NumRows - len(rows)
	for i, row := range rows {
		for j := 0; j < len(row) && j < NumCols; j++ {
			if row[j] != '.' {
				b.clearBit(base+i, j)
			}
		}
	}
	return b
}

// NewFromGrid builds a board from a dense 20x10 byte grid where a
// nonzero byte means the cell is empty.
func NewFromGrid(g *[NumRows][NumCols]uint8) Board {
	var b Board
	for i := 0; i < NumRows; i++ {
		for j := 0; j < NumCols; j++ {
			if g[i][j] != 0 {
				b.setBit(i, j)
			}
		}
	}
	return b
}

func (b *Board) setBit(x, y int) {
	b.lanes[x/rowsPerLane] |= uint64(1) << (uint(x%rowsPerLane)*NumCols + uint(y))
}

func (b *Board) clearBit(x, y int) {
	b.lanes[x/rowsPerLane] &^= uint64(1) << (uint(x%rowsPerLane)*NumCols + uint(y))
}

// Cell reports whether the cell at row x, column y is empty. Rows
// above the field (x < 0) count as empty; anything else out of range
// is occupied.
func (b Board) Cell(x, y int) bool {
	if y < 0 || y >= NumCols || x >= NumRows {
		return false
	}
	if x < 0 {
		return true
	}
	return b.lanes[x/rowsPerLane]>>(uint(x%rowsPerLane)*NumCols+uint(y))&1 != 0
}

// Row returns the ten-bit empty mask of a row.
func (b Board) Row(x int) uint16 {
	return uint16(b.lanes[x/rowsPerLane] >> (uint(x%rowsPerLane) * NumCols) & rowMask)
}

func (b *Board) setRow(x int, row uint16) {
	shift := uint(x%rowsPerLane) * NumCols
	lane := &b.lanes[x/rowsPerLane]
	*lane = *lane&^(rowMask<<shift) | uint64(row&uint16(rowMask))<<shift
}

// Count returns the number of OCCUPIED cells. The piece-count
// invariant lines*10+Count ≡ 0 (mod 4) is stated in these terms.
func (b Board) Count() int {
	empty := 0
	for _, l := range b.lanes {
		empty += bits.OnesCount64(l)
	}
	return NumRows*NumCols - empty
}

// Place returns a copy of the board with the piece stamped in at
// placement (r, x, y). Cells that fall outside the field are dropped
// by mask truncation, exactly like the hardware would cut them off;
// callers that care compare Count before and after.
func (b Board) Place(piece, r, x, y int) Board {
	nb := b
	for _, o := range rules.PieceShapes[piece][r] {
		nx, ny := x+o.DX, y+o.DY
		if nx < 0 || nx >= NumRows || ny < 0 || ny >= NumCols {
			continue
		}
		nb.clearBit(nx, ny)
	}
	return nb
}

// ClearLines removes full rows, scanning bottom-up and preserving the
// order of surviving rows. New rows appear at the top: empty ones by
// default, fully occupied ones when fillTop is set (the no-rotation
// rule-set keeps cleared garbage at the top). Returns the number of
// rows cleared and the new board.
func (b Board) ClearLines(fillTop bool) (int, Board) {
	nb := b
	j := NumRows - 1
	for i := NumRows - 1; i >= 0; i-- {
		if b.Row(i) == 0 { // all ten cells occupied
			continue
		}
		nb.setRow(j, b.Row(i))
		j--
	}
	cleared := j + 1
	top := uint16(rowMask)
	if fillTop {
		top = 0
	}
	for ; j >= 0; j-- {
		nb.setRow(j, top)
	}
	return cleared, nb
}

// Hash returns a 64-bit value hash of the board.
func (b Board) Hash() uint64 {
	var buf [32]byte
	for i, l := range b.lanes {
		binary.LittleEndian.PutUint64(buf[i*8:], l)
	}
	return xxhash.Sum64(buf[:])
}

// ToGrid expands the board into a dense byte grid, 1 = empty.
func (b Board) ToGrid() [NumRows][NumCols]uint8 {
	var g [NumRows][NumCols]uint8
	for i := 0; i < NumRows; i++ {
		row := b.Row(i)
		for j := 0; j < NumCols; j++ {
			g[i][j] = uint8(row >> uint(j) & 1)
		}
	}
	return g
}

func (b Board) String() string {
	var sb strings.Builder
	for i := 0; i < NumRows; i++ {
		row := b.Row(i)
		for j := 0; j < NumCols; j++ {
			if row>>uint(j)&1 != 0 {
				sb.WriteByte('.')
			} else {
				sb.WriteByte('X')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
