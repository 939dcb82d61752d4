package game

import (
	"testing"

	"github.com/matryer/is"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/movegen"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

func newNoro(t *testing.T) *TetrisNoro {
	g := NewTetrisNoro()
	if err := g.Reset(board.Ones, 0, 18, true, rules.PieceO, rules.PieceI); err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNoroBasicStep(t *testing.T) {
	is := is.New(t)
	g := newNoro(t)
	is.Equal(g.Level(), 18)
	is.Equal(g.InputsPerRow(), 1)
	is.True(g.MoveMap().Cell(18, 5)) // O locks on the floor mid-board

	score, lines, err := g.InputPlacement(movegen.Position{R: 0, X: 18, Y: 5}, rules.PieceT)
	is.NoErr(err)
	is.Equal(score, 0)
	is.Equal(lines, 0)
	is.Equal(g.Pieces(), 1)
	is.Equal(g.NowPiece(), rules.PieceI)
	is.Equal(g.Board().Count(), 4)
}

func TestNoroRotationRejected(t *testing.T) {
	is := is.New(t)
	g := newNoro(t)
	_, _, err := g.InputPlacement(movegen.Position{R: 1, X: 18, Y: 5}, rules.PieceT)
	is.True(err != nil)
}

func TestNoroInvalidPlacement(t *testing.T) {
	is := is.New(t)
	g := newNoro(t)
	score, _, err := g.InputPlacement(movegen.Position{R: 0, X: 0, Y: 0}, rules.PieceT)
	is.NoErr(err)
	is.Equal(score, -1)
	is.True(g.IsOver())
}

func TestNoroLenientReset(t *testing.T) {
	is := is.New(t)
	g := NewTetrisNoro()
	// odd cell count: the standard engine would reject this
	b := board.New("X.........")
	is.NoErr(g.Reset(b, 0, 18, true, rules.PieceO, rules.PieceI))
}

func TestNoroTopOutAtReset(t *testing.T) {
	is := is.New(t)
	g := NewTetrisNoro()
	is.NoErr(g.Reset(board.Zeros, 0, 18, true, rules.PieceO, rules.PieceI))
	is.True(g.IsOver())
}

func TestNoroSetLinesParity(t *testing.T) {
	is := is.New(t)
	g := newNoro(t)
	is.NoErr(g.SetLines(10))
	is.Equal(g.Lines(), 10)
	is.True(g.SetLines(3) != nil)
}

func TestNoroLinesToNextSpeed(t *testing.T) {
	is := is.New(t)
	g := newNoro(t)
	// start 18: the input budget drops from 1 to 0 at level 29 (230
	// lines); the scan starts at lines+9 and steps by tens, so it
	// reports the first probe at or past the transition
	is.Equal(g.LinesToNextSpeed(), 239)

	g2 := NewTetrisNoro()
	is.NoErr(g2.Reset(board.Ones, 0, 29, true, rules.PieceO, rules.PieceI))
	is.Equal(g2.LinesToNextSpeed(), -1) // already at the last speed class
}

func TestNoroClearKeepsGarbageTop(t *testing.T) {
	is := is.New(t)
	g := NewTetrisNoro()
	// bottom two rows missing only columns 4 and 5: an O fills them
	b := board.New("XXXX..XXXX\nXXXX..XXXX")
	is.NoErr(g.Reset(b, 0, 18, true, rules.PieceO, rules.PieceI))
	score, lines, err := g.InputPlacement(movegen.Position{R: 0, X: 18, Y: 5}, rules.PieceT)
	is.NoErr(err)
	is.Equal(lines, 2)
	is.True(score > 0)
	// cleared rows re-appear occupied at the top
	for y := 0; y < board.NumCols; y++ {
		is.True(!g.Board().Cell(0, y))
		is.True(!g.Board().Cell(1, y))
	}
}
