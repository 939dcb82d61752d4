package board

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/require"

	"github.com/BetaTetris/betatetris-tablebase/rules"
)

func TestConstruction(t *testing.T) {
	is := is.New(t)
	is.Equal(Ones.Count(), 0)
	is.Equal(Zeros.Count(), 200)

	b := New("....X.....\n.....X....")
	is.Equal(b.Count(), 2)
	is.True(!b.Cell(18, 4))
	is.True(!b.Cell(19, 5))
	is.True(b.Cell(19, 4))
	is.True(b.Cell(0, 0))

	g := b.ToGrid()
	is.Equal(g[18][4], uint8(0))
	is.Equal(g[19][5], uint8(0))
	is.Equal(g[0][0], uint8(1))
	is.Equal(NewFromGrid(&g), b)
}

func TestCellBounds(t *testing.T) {
	is := is.New(t)
	is.True(Ones.Cell(-1, 3))  // above the field counts as empty
	is.True(!Ones.Cell(20, 3)) // below does not
	is.True(!Ones.Cell(5, -1))
	is.True(!Ones.Cell(5, 10))
}

func TestPlace(t *testing.T) {
	is := is.New(t)
	// I piece horizontal at (0, 19, 4): columns 2..5 of the bottom row.
	b := Ones.Place(rules.PieceI, 0, 19, 4)
	is.Equal(b.Count(), 4)
	for y := 2; y <= 5; y++ {
		is.True(!b.Cell(19, y))
	}
	is.True(b.Cell(19, 6))

	// Truncation: a placement hanging off the left edge drops cells.
	cut := Ones.Place(rules.PieceI, 0, 19, 1)
	is.Equal(cut.Count(), 3)
}

func TestClearLines(t *testing.T) {
	is := is.New(t)
	// Fill the bottom row and part of the row above it.
	b := Ones
	for y := 0; y < NumCols; y++ {
		b.clearBit(19, y)
	}
	b.clearBit(18, 0)
	b.clearBit(18, 2)

	n, nb := b.ClearLines(false)
	is.Equal(n, 1)
	is.Equal(nb.Count(), 2)
	// surviving row shifted down by one, order preserved
	is.True(!nb.Cell(19, 0))
	is.True(!nb.Cell(19, 2))
	is.True(nb.Cell(19, 1))
	for y := 0; y < NumCols; y++ {
		is.True(nb.Cell(0, y))
	}

	// fillTop variant leaves an occupied row on top
	n, nb = b.ClearLines(true)
	is.Equal(n, 1)
	for y := 0; y < NumCols; y++ {
		is.True(!nb.Cell(0, y))
	}
}

func TestClearLinesKeepsOrder(t *testing.T) {
	require := require.New(t)
	b := Ones
	// occupy three distinct partial rows and two full rows between them
	b.clearBit(15, 7)
	for y := 0; y < NumCols; y++ {
		b.clearBit(16, y)
	}
	b.clearBit(17, 1)
	for y := 0; y < NumCols; y++ {
		b.clearBit(18, y)
	}
	b.clearBit(19, 3)

	n, nb := b.ClearLines(false)
	require.Equal(2, n)
	require.False(nb.Cell(17, 7))
	require.False(nb.Cell(18, 1))
	require.False(nb.Cell(19, 3))
	require.Equal(3, nb.Count())
}

func TestPieceMapEmptyBoard(t *testing.T) {
	is := is.New(t)
	pm := Ones.PieceMap(rules.PieceO)
	is.Equal(len(pm), 1)
	// O occupies (0,-1),(0,0),(1,-1),(1,0): origin needs y in 1..9 and x in 0..18.
	is.True(pm[0].Cell(0, 1))
	is.True(pm[0].Cell(18, 9))
	is.True(!pm[0].Cell(19, 5)) // would poke below the floor
	is.True(!pm[0].Cell(5, 0))  // off the left edge

	pmI := Ones.PieceMap(rules.PieceI)
	is.Equal(len(pmI), 2)
	// vertical I reaches the bottom row: offsets (-2..1, 0)
	is.True(pmI[1].Cell(18, 0))
	is.True(!pmI[1].Cell(19, 0))
	// horizontal I: y in 2..8
	is.True(pmI[0].Cell(19, 2))
	is.True(pmI[0].Cell(19, 8))
	is.True(!pmI[0].Cell(19, 1))
	is.True(!pmI[0].Cell(19, 9))
}

func TestPieceMapObstruction(t *testing.T) {
	is := is.New(t)
	b := New("....X.....")
	pm := b.PieceMap(rules.PieceT)
	// T rotation 2 occupies (0,-1),(0,0),(0,1),(-1,0); any origin whose
	// bottom row covers the occupied (19,4) cell does not fit.
	is.True(!pm[2].Cell(19, 3))
	is.True(!pm[2].Cell(19, 4))
	is.True(!pm[2].Cell(19, 5))
	is.True(pm[2].Cell(19, 2))
	is.True(pm[2].Cell(19, 6))
}

func TestHashAndEquality(t *testing.T) {
	is := is.New(t)
	a := New("X.........")
	b := New("X.........")
	c := New(".X........")
	is.Equal(a, b)
	is.Equal(a.Hash(), b.Hash())
	is.True(a != c)
	is.True(a.Hash() != c.Hash())
}
