package env

import (
	"testing"

	"github.com/matryer/is"
	"github.com/stretchr/testify/require"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/config"
	"github.com/BetaTetris/betatetris-tablebase/game"
	"github.com/BetaTetris/betatetris-tablebase/movegen"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

func anyAction(e *Env) (movegen.Position, bool) {
	if e.IsNoro() {
		moves := e.Noro().MoveMap()
		for x := 0; x < board.NumRows; x++ {
			for y := 0; y < board.NumCols; y++ {
				if moves.Cell(x, y) {
					pos := movegen.Position{R: 0, X: x, Y: y}
					if e.IsMirror() {
						pos.Y = rules.MirrorCols[e.Noro().NowPiece()] - y
					}
					return pos, true
				}
			}
		}
		return movegen.Position{}, false
	}
	mm := e.Rot().MoveMap()
	for r := 0; r < 4; r++ {
		for x := 0; x < board.NumRows; x++ {
			for y := 0; y < board.NumCols; y++ {
				if mm[r][x][y] != game.MoveUnreachable {
					return movegen.Position{R: r, X: x, Y: y}, true
				}
			}
		}
	}
	return movegen.Position{}, false
}

func TestRewardDeterminism(t *testing.T) {
	require := require.New(t)
	run := func() []Reward {
		e := New(config.DefaultConfig(), 12345)
		var rewards []Reward
		for steps := 0; steps < 30 && !e.IsOver(); steps++ {
			pos, ok := anyAction(e)
			require.True(ok)
			r, err := e.InputPlacement(pos)
			require.NoError(err)
			rewards = append(rewards, r)
		}
		return rewards
	}
	a, b := run(), run()
	require.Equal(a, b)
}

func TestInvalidPlacementReward(t *testing.T) {
	is := is.New(t)
	e := New(config.DefaultConfig(), 1)
	r, err := e.InputPlacement(movegen.Position{R: 0, X: 0, Y: 0})
	is.NoErr(err)
	is.Equal(r.Shaped, -0.3)
	is.Equal(r.Raw, 0.0)
	is.True(e.IsOver())
}

func TestNoroLineRewardExpScenario(t *testing.T) {
	is := is.New(t)
	// line 30 on a no-tuck no-next-box level-18 start saturates at 6
	is.Equal(NoroLineRewardExp(30, 18, false, true), 6.0)
	// below the offset the exponent bottoms out at the minimum
	is.Equal(NoroLineRewardExp(0, 18, false, true), -2.8)
	is.Equal(NoroLineRewardExp(0, 0, true, false), -3.6)
}

func TestStateShapes(t *testing.T) {
	is := is.New(t)
	e := New(config.DefaultConfig(), 1)
	shapes := e.StateShapes()
	is.Equal(shapes[0], []int{6, 20, 10})
	is.Equal(shapes[2], []int{18, 20, 10})
	is.Equal(shapes[3], []int{28})
	s := e.GetState(0)
	is.Equal(len(s.Board), 6)
	is.Equal(len(s.Moves), 18)
	is.Equal(len(s.MoveMeta), 28)
	is.Equal(e.StateTypes()[4], "int32")

	is.NoErr(e.ResetNoro(board.Ones, 0, 18, true, false, false, -1, -1))
	shapes = e.StateShapes()
	is.Equal(shapes[0], []int{2, 20, 10})
	is.Equal(shapes[2], []int{3, 20, 10})
	is.Equal(shapes[3], []int{31})
	s = e.GetState(0)
	is.Equal(len(s.Board), 2)
	is.Equal(len(s.Moves), 3)
	is.Equal(len(s.MoveMeta), 31)
}

func TestRotStateEncoding(t *testing.T) {
	is := is.New(t)
	e := New(config.DefaultConfig(), 7)
	is.NoErr(e.ResetRot(board.Ones, 0, rules.Tap30Hz(), 18, rules.PieceT, rules.PieceI, false))
	s := e.GetState(0)
	is.Equal(s.Meta[rules.PieceT], float32(1)) // now-piece one-hot
	is.Equal(s.Meta[14], float32(0))           // not adjusting
	is.Equal(s.Meta[15], float32(1))           // 30 Hz bucket
	is.Equal(s.Meta[23], float32(1))           // 18-frame adj bucket
	is.Equal(s.Meta[28], float32(1))           // aggression 0
	is.Equal(s.MoveMeta[0], float32(1))        // speed 18 one-hot
	is.Equal(s.MetaInt[1], int32(rules.PieceT))
	// all cells empty on plane 0
	is.Equal(s.Board[0][0][0], float32(1))
	is.Equal(s.Board[0][19][9], float32(1))

	// commit to an adjustment initial and re-encode
	_, err := e.InputPlacement(movegen.Position{R: 2, X: 6, Y: 4})
	is.NoErr(err)
	s = e.GetState(0)
	is.Equal(s.Meta[14], float32(1))
	is.Equal(s.Board[2+2][6][4], float32(1)) // initial one-hot plane
}

func TestGetAdjStates(t *testing.T) {
	is := is.New(t)
	e := New(config.DefaultConfig(), 7)
	is.NoErr(e.ResetRot(board.Ones, 0, rules.Tap30Hz(), 18, rules.PieceT, rules.PieceI, false))
	states := e.GetAdjStates(movegen.Position{R: 2, X: 6, Y: 4})
	for i := 0; i < rules.NumPieces; i++ {
		is.Equal(states[i].Meta[14], float32(1))         // adjusting
		is.Equal(states[i].Meta[7+i], float32(1))        // forced next piece
		is.Equal(states[i].Meta[rules.PieceT], float32(1))
	}
	// the live environment is untouched
	is.True(!e.Rot().IsAdj())
}

func TestMirrorSymmetry(t *testing.T) {
	require := require.New(t)
	cfg := config.DefaultConfig()

	plain := New(cfg, 99)
	mirrored := New(cfg, 99)
	require.NoError(plain.ResetNoro(board.Ones, 0, 18, true, false, false, rules.PieceJ, rules.PieceL))
	require.NoError(mirrored.ResetNoro(board.Ones, 0, 18, true, false, true, rules.PieceJ, rules.PieceL))

	pos, ok := anyAction(plain)
	require.True(ok)
	mirrorPos := pos
	mirrorPos.Y = rules.MirrorCols[rules.PieceJ] - pos.Y

	r1, err := plain.InputPlacement(pos)
	require.NoError(err)
	r2, err := mirrored.InputPlacement(mirrorPos)
	require.NoError(err)
	require.Equal(r1, r2)
	// engine-side boards are identical: the mirror lives at the boundary
	require.Equal(plain.Board(), mirrored.Board())

	s1 := plain.GetState(0)
	s2 := mirrored.GetState(0)
	for i := 0; i < board.NumRows; i++ {
		for j := 0; j < board.NumCols; j++ {
			require.Equal(s1.Board[0][i][j], s2.Board[0][i][board.NumCols-1-j])
		}
	}
	// piece labels are remapped in the mirrored observation
	require.Equal(float32(1), s2.Meta[5+rules.MirrorPiece[plain.NowPiece()]])
}

func TestTetrisOnlyOverrides(t *testing.T) {
	is := is.New(t)
	cfg := config.DefaultConfig()
	cfg.TetrisOnly = true
	e := New(cfg, 3)
	b := board.New("XX....XXXX")
	is.NoErr(e.ResetRot(b, 1, rules.Tap30Hz(), 18, rules.PieceI, rules.PieceI, false))
	r, err := e.DirectPlacement(movegen.Position{R: 0, X: 19, Y: 4})
	is.NoErr(err)
	is.True(e.IsOver())
	is.Equal(r.Over, -1.0)
	is.True(r.Shaped < 0)
	is.True(r.Raw > 0)
}

func TestBurnPenaltyAndLiveProb(t *testing.T) {
	is := is.New(t)
	e := New(config.DefaultConfig(), 3)
	b := board.New("XX....XXXX")
	is.NoErr(e.ResetRot(b, 1, rules.Tap30Hz(), 18, rules.PieceI, rules.PieceI, false))
	r, err := e.DirectPlacement(movegen.Position{R: 0, X: 19, Y: 4})
	is.NoErr(err)
	// a single burn at 30 Hz / delay 18: survival probability for one line
	is.Equal(r.LiveProb, 1-0.042)
	is.True(r.Raw > 0)
	is.True(r.Shaped < r.Raw) // burn discount plus survival penalty
}

func TestResetRandomDeterminism(t *testing.T) {
	require := require.New(t)
	run := func() (int, int, int) {
		e := New(config.DefaultConfig(), 4242)
		require.NoError(e.ResetRandom(board.Ones))
		return e.Lines(), e.NowPiece(), e.NextPiece()
	}
	l1, n1, x1 := run()
	l2, n2, x2 := run()
	require.Equal(l1, l2)
	require.Equal(n1, n2)
	require.Equal(x1, x2)
	require.Zero(l1 % 2)
}

func TestGenericResetDispatch(t *testing.T) {
	is := is.New(t)
	e := New(config.DefaultConfig(), 5)
	start := 18
	is.NoErr(e.Reset(ResetOptions{NowPiece: -1, NextPiece: -1, StartLevel: &start}))
	is.True(e.IsNoro())

	taps := rules.Tap20Hz()
	is.NoErr(e.Reset(ResetOptions{NowPiece: -1, NextPiece: -1, TapSequence: taps[:]}))
	is.True(!e.IsNoro())

	err := e.Reset(ResetOptions{NowPiece: -1, NextPiece: -1, TapSequence: taps[:], StartLevel: &start})
	is.True(err != nil)
}

func TestSequenceThroughEnv(t *testing.T) {
	is := is.New(t)
	e := New(config.DefaultConfig(), 6)
	is.NoErr(e.ResetRot(board.Ones, 0, rules.Tap30Hz(), 61, rules.PieceT, rules.PieceI, false))
	pos, ok := anyAction(e)
	is.True(ok)
	seq := e.GetSequence(pos)
	is.True(len(seq) > 0)
}
