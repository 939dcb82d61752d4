// Package env wraps the game engines into the environment a learner
// steps: it owns the piece RNG, turns raw score deltas into shaped
// rewards, and serializes the observation tensors. One Env runs either
// the standard rule-set or the no-rotation one, decided at reset time;
// the operations common to both dispatch on the active engine.
package env

import (
	"errors"
	"math/bits"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/config"
	"github.com/BetaTetris/betatetris-tablebase/game"
	"github.com/BetaTetris/betatetris-tablebase/movegen"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

// Reward is the per-step scalar record handed to the learner.
type Reward struct {
	Shaped   float64
	Raw      float64
	LiveProb float64
	Over     float64
}

func noReward() Reward { return Reward{LiveProb: 1} }

// ErrWrongMode is returned for operations that do not exist in the
// active rule-set.
var ErrWrongMode = errors.New("env: operation not available in this mode")

// Env is the learner-facing environment.
type Env struct {
	cfg config.Config
	rng *rng

	rot  *game.Tetris
	noro *game.TetrisNoro

	nextPiece  int
	pieceCount int

	// standard rule-set shaping state
	stepReward         float64
	stepRewardLevel    int
	burnOverMultiplier float64
	skipUniqueInitial  bool

	// no-rotation shaping state
	noroStepReward float64
	nnb            bool
	isMirror       bool
}

// New creates an environment with a deterministic seed, reset onto an
// empty board under the standard rule-set defaults.
func New(cfg config.Config, seed uint64) *Env {
	e := &Env{cfg: cfg, rng: newRNG(seed)}
	if err := e.ResetRot(board.Ones, 0, rules.Tap30Hz(), 18, -1, -1, false); err != nil {
		panic(err) // the empty-board default reset cannot fail
	}
	return e
}

// IsNoro reports whether the active rule-set disables rotation.
func (e *Env) IsNoro() bool { return e.noro != nil }

// IsMirror reports whether the no-rotation mirror transform is active.
func (e *Env) IsMirror() bool { return e.noro != nil && e.isMirror }

// Rot exposes the underlying standard engine (nil in no-rotation mode).
func (e *Env) Rot() *game.Tetris { return e.rot }

// Noro exposes the underlying no-rotation engine (nil otherwise).
func (e *Env) Noro() *game.TetrisNoro { return e.noro }

func (e *Env) genNextPiece(piece int) int {
	if e.rot != nil && e.cfg.TetrisOnly {
		// generate more I pieces when training tetris only
		thresh := [4]int{28, 24, 16, 8}
		add := [4]float64{0.035, 0.046, 0.06, 0.09}
		li := int(e.rot.LevelSpeed())
		if rl := e.rot.RunLines(); rl >= thresh[li] {
			over := float64(rl-thresh[li]) / (float64(thresh[li]) * 0.5)
			if over > 1 {
				over = 1
			}
			prob := add[li]*0.3 + add[li]*0.7*over
			if e.rng.Float64() < prob {
				return rules.PieceI
			}
		}
	}
	e.pieceCount = (e.pieceCount + 1) & 7
	if e.cfg.RealisticRNG {
		return e.rng.weighted(rules.TransitionRealisticProb[e.pieceCount][piece][:])
	}
	return e.rng.weighted(rules.TransitionProb[piece][:])
}

// ResetRot switches the environment to the standard rule-set. A piece
// of -1 is drawn from the generator.
func (e *Env) ResetRot(b board.Board, lines int, taps rules.TapSequence, adjDelay, nowPiece, nextPiece int, skipUniqueInitial bool) error {
	if nowPiece == -1 || nextPiece == -1 {
		e.pieceCount = e.rng.uniform(0, 8)
		if nowPiece == -1 {
			nowPiece = e.rng.uniform(0, rules.NumPieces-1)
		}
		nextPiece = e.genNextPiece(nowPiece)
	}
	rot := game.NewTetris(e.cfg)
	if err := rot.Reset(b, lines, nowPiece, nextPiece, taps, adjDelay); err != nil {
		return err
	}
	e.rot, e.noro = rot, nil
	e.nextPiece = e.genNextPiece(nextPiece)
	e.skipUniqueInitial = skipUniqueInitial
	if e.cfg.TetrisOnly {
		e.stepReward = 5e-3
	} else {
		e.stepReward = 5e-4
	}
	e.stepRewardLevel = 0
	e.burnOverMultiplier = 0
	e.checkReducibleInitial()
	return nil
}

// ResetNoro switches the environment to the no-rotation rule-set.
func (e *Env) ResetNoro(b board.Board, lines, startLevel int, doTuck, nnb, isMirror bool, nowPiece, nextPiece int) error {
	if nowPiece == -1 || nextPiece == -1 {
		e.pieceCount = e.rng.uniform(0, 8)
		if nowPiece == -1 {
			nowPiece = e.rng.uniform(0, rules.NumPieces-1)
		}
		nextPiece = e.genNextPiece(nowPiece)
	}
	noro := game.NewTetrisNoro()
	if err := noro.Reset(b, lines, startLevel, doTuck, nowPiece, nextPiece); err != nil {
		return err
	}
	e.rot, e.noro = nil, noro
	e.nnb = nnb
	e.isMirror = isMirror
	e.nextPiece = e.genNextPiece(nextPiece)
	e.noroStepReward = 2e-3
	return nil
}

// ResetRandom re-rolls a seed-driven configuration in the active mode:
// the no-rotation variant samples start level, tuck, no-next-box and
// mirror flags; the standard variant samples a line count under the
// cap, even when the board's cell count is a multiple of four and odd
// otherwise.
func (e *Env) ResetRandom(b board.Board) error {
	if e.noro != nil {
		startLevel := e.rng.weighted([]int{
			15, 1, 1, 1, 2, 2, 2, 2, 4, 6, // 0-9
			4, 0, 0, 4, 0, 0, 4, 0, 0, // 10-18
			4, 0, 0, 0, 0, 0, 0, 0, 0, 0, // 19-28
			8}) // 29
		doTuck := e.rng.weighted([]int{1, 1}) == 1
		var nnb bool
		if doTuck {
			nnb = e.rng.weighted([]int{2, 1}) == 1
		} else {
			nnb = e.rng.weighted([]int{1, 1}) == 1
		}
		isMirror := e.rng.weighted([]int{1, 1}) == 1
		return e.ResetNoro(b, 0, startLevel, doTuck, nnb, isMirror, -1, -1)
	}
	lines := 0
	if b.Count()%4 != 0 {
		lines = 1
	}
	lines += e.rng.uniform(0, e.cfg.LineCap/2-1) * 2
	return e.ResetRot(b, lines, e.rot.TapSequence(), e.rot.AdjDelay(), -1, -1, true)
}

// GetRealPosition maps a learner-side position to the engine side,
// undoing the mirror transform when active.
func (e *Env) GetRealPosition(pos movegen.Position) movegen.Position {
	if e.noro != nil && e.isMirror {
		pos.Y = rules.MirrorCols[e.noro.NowPiece()] - pos.Y
	}
	return pos
}

// checkReducibleInitial auto-plays the only choice left when every
// placement funnels through a single non-reduced adjustment initial,
// so the policy is never asked a question with one answer.
func (e *Env) checkReducibleInitial() Reward {
	if !e.skipUniqueInitial || e.rot == nil || e.rot.IsAdj() || e.rot.IsOver() {
		return noReward()
	}
	moves := e.rot.Moves()
	mask := e.rot.InitialMask()
	if len(moves.NonAdj) != 0 || bits.OnesCount64(mask) != 1 {
		return noReward()
	}
	pos := moves.Adj[bits.TrailingZeros64(mask)].Initial
	score, lines, err := e.rot.InputPlacement(pos, e.nextPiece)
	if err != nil {
		return noReward()
	}
	return e.shapeReward(pos, score, lines)
}

// InputPlacement plays one action and returns the shaped reward. An
// action outside the move map scores the invalid-placement penalty.
func (e *Env) InputPlacement(pos movegen.Position) (Reward, error) {
	npos := e.GetRealPosition(pos)
	var score, lines int
	var err error
	if e.noro != nil {
		score, lines, err = e.noro.InputPlacement(npos, e.nextPiece)
	} else {
		score, lines, err = e.rot.InputPlacement(npos, e.nextPiece)
	}
	if err != nil {
		return noReward(), err
	}
	reward := e.shapeReward(npos, score, lines)
	if e.noro != nil || !e.skipUniqueInitial {
		return reward, nil
	}
	extra := e.checkReducibleInitial()
	reward.Shaped += extra.Shaped
	reward.Raw += extra.Raw
	reward.LiveProb *= extra.LiveProb
	reward.Over += extra.Over
	return reward, nil
}

// DirectPlacement plays a final placement immediately, skipping the
// adjusting state. Standard rule-set only.
func (e *Env) DirectPlacement(pos movegen.Position) (Reward, error) {
	if e.rot == nil {
		return noReward(), ErrWrongMode
	}
	npos := e.GetRealPosition(pos)
	score, lines, err := e.rot.DirectPlacement(npos, e.nextPiece)
	if err != nil {
		return noReward(), err
	}
	return e.shapeReward(npos, score, lines), nil
}

// IsAdjMove reports whether pos is an adjustment initial. Standard
// rule-set only.
func (e *Env) IsAdjMove(pos movegen.Position) bool {
	return e.rot != nil && e.rot.IsAdjMove(pos)
}

// IsNoAdjMove reports whether pos locks without adjustment. Standard
// rule-set only.
func (e *Env) IsNoAdjMove(pos movegen.Position) bool {
	return e.rot != nil && e.rot.IsNoAdjMove(pos)
}

// SetAggression switches the reward shaping mode: 0 is the
// survival-penalty schedule, 1 and 2 add step rewards of 800 and 2400
// score-equivalents.
func (e *Env) SetAggression(level int) error {
	if e.rot == nil || e.cfg.TetrisOnly {
		return ErrWrongMode
	}
	if level < 0 || level > 2 {
		return errors.New("env: aggression must be 0, 1 or 2")
	}
	score := 0
	switch level {
	case 1:
		score = 800
	case 2:
		score = 2400
	}
	e.stepReward = float64(score) * e.rewardMultiplier()
	e.stepRewardLevel = level
	return nil
}

// SetBurnOverMultiplier scales the simulated-topout probability on
// burns.
func (e *Env) SetBurnOverMultiplier(m float64) error {
	if e.rot == nil {
		return ErrWrongMode
	}
	e.burnOverMultiplier = m
	return nil
}

// SetNextPiece overrides the piece after the next one.
func (e *Env) SetNextPiece(piece int) error {
	if e.noro != nil {
		return e.noro.SetNextPiece(piece)
	}
	return e.rot.SetNextPiece(piece)
}

// SetNextPieceSymbol is SetNextPiece for a one-letter piece symbol.
func (e *Env) SetNextPieceSymbol(s string) error {
	piece, err := rules.ParsePiece(s)
	if err != nil {
		return err
	}
	return e.SetNextPiece(piece)
}

// SetLines rewrites the line counter on the active engine.
func (e *Env) SetLines(lines int) error {
	if e.noro != nil {
		return e.noro.SetLines(lines)
	}
	return e.rot.SetLines(lines)
}

// GetSequence returns the input sequence realizing pos.
func (e *Env) GetSequence(pos movegen.Position) movegen.FrameSequence {
	npos := e.GetRealPosition(pos)
	if e.noro != nil {
		return e.noro.GetSequence(npos)
	}
	return e.rot.GetSequence(npos)
}

// FinishAdjSequence extends a pre-adjustment sequence to a final
// placement. Standard rule-set only.
func (e *Env) FinishAdjSequence(seq movegen.FrameSequence, intermediate, final movegen.Position) (movegen.FrameSequence, error) {
	if e.rot == nil {
		return nil, ErrWrongMode
	}
	return e.rot.FinishAdjSequence(seq, intermediate, final), nil
}

// GetAdjPremove picks the best adjustment initial for the per-piece
// targets. Standard rule-set only.
func (e *Env) GetAdjPremove(targets *[rules.NumPieces]movegen.Position) (movegen.Position, movegen.FrameSequence, error) {
	if e.rot == nil {
		return movegen.Position{}, nil, ErrWrongMode
	}
	pos, seq := e.rot.GetAdjPremove(targets)
	return pos, seq, nil
}

// Status getters dispatching on the active engine.

func (e *Env) IsOver() bool {
	if e.noro != nil {
		return e.noro.IsOver()
	}
	return e.rot.IsOver()
}

func (e *Env) Board() board.Board {
	if e.noro != nil {
		return e.noro.Board()
	}
	return e.rot.Board()
}

func (e *Env) Lines() int {
	if e.noro != nil {
		return e.noro.Lines()
	}
	return e.rot.Lines()
}

func (e *Env) Pieces() int {
	if e.noro != nil {
		return e.noro.Pieces()
	}
	return e.rot.Pieces()
}

func (e *Env) NowPiece() int {
	if e.noro != nil {
		return e.noro.NowPiece()
	}
	return e.rot.NowPiece()
}

func (e *Env) NextPiece() int {
	if e.noro != nil {
		return e.noro.NextPiece()
	}
	return e.rot.NextPiece()
}

func (e *Env) RunScore() int {
	if e.noro != nil {
		return e.noro.RunScore()
	}
	return e.rot.RunScore()
}

func (e *Env) RunLines() int {
	if e.noro != nil {
		return e.noro.RunLines()
	}
	return e.rot.RunLines()
}

func (e *Env) RunPieces() int {
	if e.noro != nil {
		return e.noro.RunPieces()
	}
	return e.rot.RunPieces()
}

// LineCap returns the configured forced-over line count.
func (e *Env) LineCap() int { return e.cfg.LineCap }

// IsTetrisOnly reports the tetris-only training flag.
func (e *Env) IsTetrisOnly() bool { return e.cfg.TetrisOnly }
