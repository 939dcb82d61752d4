package game

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/require"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/config"
	"github.com/BetaTetris/betatetris-tablebase/movegen"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

func newGame(t *testing.T) *Tetris {
	g := NewTetris(config.DefaultConfig())
	err := g.Reset(board.Ones, 0, rules.PieceT, rules.PieceI, rules.Tap30Hz(), 18)
	require.NoError(t, err)
	return g
}

func TestResetValidation(t *testing.T) {
	is := is.New(t)
	g := NewTetris(config.DefaultConfig())
	is.True(g.Reset(board.Ones, 0, 7, 0, rules.Tap30Hz(), 18) != nil)  // bad piece
	is.True(g.Reset(board.Ones, 1, 0, 0, rules.Tap30Hz(), 18) != nil)  // inconsistent lines
	is.NoErr(g.Reset(board.Ones, 0, 0, 0, rules.Tap30Hz(), 18))
	bad := rules.TapSequence{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	is.True(g.Reset(board.Ones, 0, 0, 0, bad, 18) != nil)
}

func TestAdjustingLifecycle(t *testing.T) {
	is := is.New(t)
	g := newGame(t)
	is.True(!g.IsAdj())
	initial := movegen.Position{R: 2, X: 6, Y: 4}
	is.True(g.IsAdjMove(initial))
	is.True(!g.IsNoAdjMove(initial))

	score, lines, err := g.InputPlacement(initial, rules.PieceO)
	is.NoErr(err)
	is.Equal(score, 0)
	is.Equal(lines, 0)
	is.True(g.IsAdj())
	is.Equal(g.InitialMove(), initial)

	// the move map now holds the finals of that initial
	final := movegen.Position{R: 2, X: 19, Y: 3}
	is.True(g.IsNoAdjMove(final))
	score, lines, err = g.InputPlacement(final, rules.PieceO)
	is.NoErr(err)
	is.Equal(score, 0)
	is.Equal(lines, 0)
	is.True(!g.IsAdj())
	is.Equal(g.Pieces(), 1)
	is.Equal(g.NowPiece(), rules.PieceI)
	is.Equal(g.NextPiece(), rules.PieceO)
	is.Equal(g.Board().Count(), 4)
}

func TestInvalidPlacementEndsGame(t *testing.T) {
	is := is.New(t)
	g := newGame(t)
	score, _, err := g.InputPlacement(movegen.Position{R: 0, X: 0, Y: 0}, rules.PieceO)
	is.NoErr(err)
	is.Equal(score, -1)
	is.True(g.IsOver())
}

func TestStepAfterOverPanics(t *testing.T) {
	g := newGame(t)
	g.ForceOver()
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	g.InputPlacement(movegen.Position{R: 2, X: 19, Y: 3}, rules.PieceO)
}

func TestInitialMovePanicsOutsideAdj(t *testing.T) {
	g := newGame(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	g.InitialMove()
}

func TestDirectPlacement(t *testing.T) {
	is := is.New(t)
	g := newGame(t)
	score, lines, err := g.DirectPlacement(movegen.Position{R: 2, X: 19, Y: 3}, rules.PieceO)
	is.NoErr(err)
	is.Equal(score, 0)
	is.Equal(lines, 0)
	is.True(!g.IsAdj())
	is.Equal(g.Pieces(), 1)

	// a placement reachable by nothing ends the game
	_, _, err = g.DirectPlacement(movegen.Position{R: 0, X: 0, Y: 0}, rules.PieceO)
	is.NoErr(err)
	is.True(g.IsOver())
}

func TestSetLinesGuard(t *testing.T) {
	is := is.New(t)
	g := newGame(t)
	is.NoErr(g.SetLines(100)) // still level 18
	is.Equal(g.Lines(), 100)
	is.Equal(g.Pieces(), 250)
	is.True(g.SetLines(200) != nil) // would change speed bucket
}

func TestPieceCellInvariant(t *testing.T) {
	require := require.New(t)
	g := newGame(t)
	for step := 0; step < 8 && !g.IsOver(); step++ {
		require.Zero((g.Lines()*10 + g.Board().Count()) % 4)
		pos, ok := anyMove(g)
		require.True(ok)
		_, _, err := g.InputPlacement(pos, rules.PieceT)
		require.NoError(err)
	}
	require.Zero((g.Lines()*10 + g.Board().Count()) % 4)
}

func anyMove(g *Tetris) (movegen.Position, bool) {
	mm := g.MoveMap()
	for r := 0; r < 4; r++ {
		for x := 0; x < board.NumRows; x++ {
			for y := 0; y < board.NumCols; y++ {
				if mm[r][x][y] != MoveUnreachable {
					return movegen.Position{R: r, X: x, Y: y}, true
				}
			}
		}
	}
	return movegen.Position{}, false
}

// Re-applying the subset reduction to the surviving initials must not
// shrink the mask further.
func TestInitialMaskIdempotent(t *testing.T) {
	require := require.New(t)
	g := NewTetris(config.DefaultConfig())
	for _, tc := range []struct {
		b     board.Board
		lines int
	}{
		{board.Ones, 0},
		// two occupied cells: one cleared line keeps lines*10+count a multiple of 4
		{board.New("....X.....\n.....X...."), 1},
		{board.New("XXXX......\nXXXXX.....\nXXXXXX...X"), 0},
	} {
		require.NoError(g.Reset(tc.b, tc.lines, rules.PieceT, rules.PieceI, rules.Tap30Hz(), 18))
		moves := g.Moves()
		mask := g.InitialMask()
		require.NotZero(mask)
		for i := range moves.Adj {
			if mask>>uint(i)&1 == 0 {
				continue
			}
			for j := range moves.Adj {
				if i == j || mask>>uint(j)&1 == 0 {
					continue
				}
				if len(moves.Adj[i].Final) < len(moves.Adj[j].Final) {
					continue
				}
				if isSubset(moves.Adj[j].Final, moves.Adj[i].Final) {
					require.Failf("mask not idempotent", "surviving initial %d contains %d", i, j)
				}
			}
		}
	}
}

func isSubset(sub, super []movegen.Position) bool {
	set := make(map[movegen.Position]struct{}, len(super))
	for _, p := range super {
		set[p] = struct{}{}
	}
	for _, p := range sub {
		if _, ok := set[p]; !ok {
			return false
		}
	}
	return true
}

func TestTetrisOnlyBurnEndsGame(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.TetrisOnly = true
	g := NewTetris(cfg)
	// bottom row missing columns 2..5; a horizontal I completes it
	b := board.New("XX....XXXX")
	is.NoErr(g.Reset(b, 1, rules.PieceI, rules.PieceI, rules.Tap30Hz(), 18))
	score, lines, err := g.DirectPlacement(movegen.Position{R: 0, X: 19, Y: 4}, rules.PieceO)
	is.NoErr(err)
	is.Equal(lines, 1)
	is.True(score > 0)
	is.True(g.IsOver())
}

func TestLineCap(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.LineCap = 1
	g := NewTetris(cfg)
	b := board.New("XX....XXXX")
	is.NoErr(g.Reset(b, 1, rules.PieceI, rules.PieceI, rules.Tap30Hz(), 18))
	_, lines, err := g.DirectPlacement(movegen.Position{R: 0, X: 19, Y: 4}, rules.PieceO)
	is.NoErr(err)
	is.Equal(lines, 1)
	is.True(g.IsOver())
}

func TestClone(t *testing.T) {
	is := is.New(t)
	g := newGame(t)
	c := g.Clone()
	_, _, err := c.InputPlacement(movegen.Position{R: 2, X: 6, Y: 4}, rules.PieceO)
	is.NoErr(err)
	is.True(c.IsAdj())
	is.True(!g.IsAdj())
	is.Equal(g.Pieces(), 0)
}
