// Package game implements the NES Tetris engines driven by landing
// positions rather than raw controller input: the caller picks a
// placement out of the current move map, the engine applies it, clears
// lines, advances the counters and re-runs the move search for the
// next piece. Two concrete engines exist: Tetris for the standard
// rule-set with rotations and adjustments, and TetrisNoro for the
// no-rotation variant.
package game

import (
	"errors"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/config"
	"github.com/BetaTetris/betatetris-tablebase/movegen"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

// Move map tags.
const (
	MoveUnreachable uint8 = iota
	MoveNoAdj
	MoveAdjReduced
	MoveAdjNonReduced
)

// MoveMap tags every placement (rotation, row, column) of the current
// piece.
type MoveMap [4][board.NumRows][board.NumCols]uint8

// ErrInvalidPiece is returned for piece ids outside 0..6.
var ErrInvalidPiece = errors.New("game: invalid piece")

// Tetris is the standard rule-set engine.
type Tetris struct {
	cfg config.Config

	board           board.Board
	lines           int
	pieces          int
	isAdj           bool
	initialMove     int
	nowPiece        int
	nextPiece       int
	gameOver        bool
	moves           movegen.PossibleMoves
	moveMap         MoveMap
	consecutiveFail int
	initialMask     uint64

	taps     rules.TapSequence
	adjDelay int
	tables   *movegen.TableSet

	runScore  int
	runLines  int
	runPieces int
}

// NewTetris returns an engine with the default cadence (30 Hz taps,
// 18-frame adjustment delay). Reset must be called before stepping.
func NewTetris(cfg config.Config) *Tetris {
	return &Tetris{cfg: cfg, taps: rules.Tap30Hz(), adjDelay: 18}
}

// Reset configures the engine onto a board. The line count must be
// consistent with the cell count: every dealt piece accounts for four
// cells, cleared or not.
func (t *Tetris) Reset(b board.Board, lines, nowPiece, nextPiece int, taps rules.TapSequence, adjDelay int) error {
	if err := rules.ValidateTapSequence(taps[:]); err != nil {
		return err
	}
	if nowPiece < 0 || nowPiece >= rules.NumPieces || nextPiece < 0 || nextPiece >= rules.NumPieces {
		return ErrInvalidPiece
	}
	pieces := (lines*10 + b.Count()) / 4
	if pieces*4 != lines*10+b.Count() {
		return fmt.Errorf("game: line count %d inconsistent with board", lines)
	}
	t.taps = taps
	t.adjDelay = adjDelay
	t.tables = movegen.GetTables(taps, adjDelay)
	t.board = b
	t.lines = lines
	t.pieces = pieces
	t.isAdj = false
	t.initialMove = 0
	t.nowPiece = nowPiece
	t.nextPiece = nextPiece
	t.gameOver = false
	t.calculateMoves(true)
	t.consecutiveFail = 0
	t.runScore = 0
	t.runLines = 0
	t.runPieces = 0
	return nil
}

// calculateInitialMask sorts the adjustment initials (largest
// reachable set first, center-most on ties) and clears the bit of
// every initial whose reachable set is contained in a larger-or-equal
// one.
func (t *Tetris) calculateInitialMask() {
	n := len(t.moves.Adj)
	if n > 64 {
		panic("game: unexpected many initial placements")
	}
	t.initialMask = uint64(1)<<uint(n) - 1
	if n <= 1 {
		return
	}
	sort.SliceStable(t.moves.Adj, func(i, j int) bool {
		a, b := &t.moves.Adj[i], &t.moves.Adj[j]
		if len(a.Final) != len(b.Final) {
			return len(a.Final) > len(b.Final)
		}
		return abs(a.Initial.Y-5) < abs(b.Initial.Y-5)
	})
	posIdx := make(map[movegen.Position]int)
	for _, adj := range t.moves.Adj {
		for _, p := range adj.Final {
			if _, ok := posIdx[p]; !ok {
				posIdx[p] = len(posIdx)
			}
		}
	}
	words := (len(posIdx) + 63) / 64
	sets := make([][]uint64, n)
	for i, adj := range t.moves.Adj {
		sets[i] = make([]uint64, words)
		for _, p := range adj.Final {
			idx := posIdx[p]
			sets[i][idx/64] |= uint64(1) << uint(idx%64)
		}
	}
	subset := func(sub, super []uint64) bool {
		for w := range sub {
			if sub[w]&^super[w] != 0 {
				return false
			}
		}
		return true
	}
	for i := 0; i < n; i++ {
		if t.initialMask>>uint(i)&1 == 0 {
			continue
		}
		for j := 0; j < n; j++ {
			if i == j || t.initialMask>>uint(j)&1 == 0 ||
				len(t.moves.Adj[i].Final) < len(t.moves.Adj[j].Final) {
				continue
			}
			if subset(sets[j], sets[i]) {
				t.initialMask &^= uint64(1) << uint(j)
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

func (t *Tetris) calculateMoves(regenerate bool) {
	if regenerate {
		t.moves = movegen.Search(t.tables, t.LevelSpeed(), t.board, t.nowPiece)
		if t.moves.Empty() {
			log.Debug().Int("lines", t.lines).Msg("top-out: no reachable placement")
			t.gameOver = true
			return
		}
		t.calculateInitialMask()
	}
	t.moveMap = MoveMap{}
	if !t.isAdj {
		for _, p := range t.moves.NonAdj {
			t.moveMap[p.R][p.X][p.Y] = MoveNoAdj
		}
		for idx, adj := range t.moves.Adj {
			tag := MoveAdjReduced
			if t.initialMask>>uint(idx)&1 != 0 {
				tag = MoveAdjNonReduced
			}
			t.moveMap[adj.Initial.R][adj.Initial.X][adj.Initial.Y] = tag
		}
	} else {
		for _, p := range t.moves.Adj[t.initialMove].Final {
			t.moveMap[p.R][p.X][p.Y] = MoveNoAdj
		}
	}
}

func inRange(pos movegen.Position) bool {
	return pos.R >= 0 && pos.R < 4 &&
		pos.X >= 0 && pos.X < board.NumRows &&
		pos.Y >= 0 && pos.Y < board.NumCols
}

func (t *Tetris) stepGame(pos movegen.Position, nextPiece int) (int, int) {
	beforeClear := t.board.Place(t.nowPiece, pos.R, pos.X, pos.Y)
	// do not allow placing pieces to be cut off from the board
	if t.board.Count()+4 != beforeClear.Count() {
		t.consecutiveFail++
		return -1, 0
	}

	lines, newBoard := beforeClear.ClearLines(false)
	deltaScore := rules.GameScore(t.lines, lines)
	t.lines += lines
	t.board = newBoard
	t.pieces++
	t.isAdj = false
	t.initialMove = 0
	t.nowPiece = t.nextPiece
	t.nextPiece = nextPiece
	if t.lines >= t.cfg.LineCap || (t.cfg.TetrisOnly && lines != 0 && lines != 4) {
		t.gameOver = true
	} else {
		t.calculateMoves(true)
	}
	t.consecutiveFail = 0
	t.runScore += deltaScore
	t.runLines += lines
	t.runPieces++
	return deltaScore, lines
}

// InputPlacement plays one placement from the current move map. The
// return values are the score delta and lines cleared; a score of -1
// marks an illegal placement (which also counts toward game over). An
// adjustment initial switches the engine into the adjusting state and
// scores zero. Stepping a finished game is a logic fault and panics.
func (t *Tetris) InputPlacement(pos movegen.Position, nextPiece int) (int, int, error) {
	if t.gameOver {
		panic("game: already game over")
	}
	if nextPiece < 0 || nextPiece >= rules.NumPieces {
		return 0, 0, ErrInvalidPiece
	}
	if !inRange(pos) {
		t.consecutiveFail++
		return -1, 0, nil
	}
	tag := t.moveMap[pos.R][pos.X][pos.Y]
	if tag == MoveUnreachable {
		t.consecutiveFail++
		return -1, 0, nil
	}
	if tag == MoveNoAdj {
		score, lines := t.stepGame(pos, nextPiece)
		return score, lines, nil
	}
	for i, adj := range t.moves.Adj {
		if adj.Initial == pos {
			t.initialMove = i
			break
		}
	}
	t.isAdj = true
	t.calculateMoves(false)
	t.consecutiveFail = 0
	return 0, 0, nil
}

// DirectPlacement applies a placement immediately, accepting anything
// reachable either without adjustment or inside any adjustment entry.
// Unreachable placements end the game.
func (t *Tetris) DirectPlacement(pos movegen.Position, nextPiece int) (int, int, error) {
	if t.gameOver {
		panic("game: already game over")
	}
	if nextPiece < 0 || nextPiece >= rules.NumPieces {
		return 0, 0, ErrInvalidPiece
	}
	ok := inRange(pos) && t.moveMap[pos.R][pos.X][pos.Y] == MoveNoAdj
	if !ok {
		for _, adj := range t.moves.Adj {
			for _, p := range adj.Final {
				if p == pos {
					ok = true
					break
				}
			}
			if ok {
				break
			}
		}
	}
	if !ok {
		t.gameOver = true
		return -1, 0, nil
	}
	score, lines := t.stepGame(pos, nextPiece)
	if score == -1 {
		t.gameOver = true
	}
	return score, lines, nil
}

// IsNoAdjMove reports whether pos locks without adjustment.
func (t *Tetris) IsNoAdjMove(pos movegen.Position) bool {
	return inRange(pos) && t.moveMap[pos.R][pos.X][pos.Y] == MoveNoAdj
}

// IsAdjMove reports whether pos is an adjustment initial.
func (t *Tetris) IsAdjMove(pos movegen.Position) bool {
	return inRange(pos) && t.moveMap[pos.R][pos.X][pos.Y] >= MoveAdjReduced
}

// GetSequence returns the frame-accurate input sequence for pos.
func (t *Tetris) GetSequence(pos movegen.Position) movegen.FrameSequence {
	return movegen.GetFrameSequenceStart(t.tables, t.LevelSpeed(), t.board, t.nowPiece, t.adjDelay, pos)
}

// GetAdjPremove picks the adjustment initial best covering the given
// per-piece targets and returns it with its pre-adjustment sequence.
func (t *Tetris) GetAdjPremove(targets *[rules.NumPieces]movegen.Position) (movegen.Position, movegen.FrameSequence) {
	idx, seq := movegen.GetBestAdj(t.tables, t.LevelSpeed(), t.board, t.nowPiece, &t.moves, t.adjDelay, targets)
	return t.moves.Adj[idx].Initial, seq
}

// FinishAdjSequence extends a pre-adjustment sequence to the final
// placement.
func (t *Tetris) FinishAdjSequence(seq movegen.FrameSequence, intermediate, final movegen.Position) movegen.FrameSequence {
	return movegen.FinishAdjSequence(t.tables, t.LevelSpeed(), seq, t.board, t.nowPiece, intermediate, final, t.adjDelay)
}

// SetNextPiece overrides the next piece.
func (t *Tetris) SetNextPiece(piece int) error {
	if piece < 0 || piece >= rules.NumPieces {
		return ErrInvalidPiece
	}
	t.nextPiece = piece
	return nil
}

// SetLines rewrites the line counter; the resulting gravity bucket
// must not change.
func (t *Tetris) SetLines(lines int) error {
	if rules.GetLevelSpeed(rules.GetLevelByLines(lines)) != t.LevelSpeed() {
		return fmt.Errorf("game: cannot set lines to different speed")
	}
	t.pieces += (lines - t.lines) * 10 / 4
	t.lines = lines
	return nil
}

// ForceOver ends the game immediately.
func (t *Tetris) ForceOver() { t.gameOver = true }

// Clone returns an independent deep copy of the engine.
func (t *Tetris) Clone() *Tetris {
	n := *t
	n.moves.NonAdj = append([]movegen.Position(nil), t.moves.NonAdj...)
	n.moves.Adj = make([]movegen.AdjPlacement, len(t.moves.Adj))
	for i, adj := range t.moves.Adj {
		n.moves.Adj[i] = adj
		n.moves.Adj[i].Final = append([]movegen.Position(nil), adj.Final...)
	}
	return &n
}

// Getters mirror the engine state; all are cheap.

func (t *Tetris) MoveMap() *MoveMap                      { return &t.moveMap }
func (t *Tetris) Moves() *movegen.PossibleMoves          { return &t.moves }
func (t *Tetris) InitialMask() uint64                    { return t.initialMask }
func (t *Tetris) Board() board.Board                     { return t.board }
func (t *Tetris) TapSequence() rules.TapSequence         { return t.taps }
func (t *Tetris) AdjDelay() int                          { return t.adjDelay }
func (t *Tetris) Level() int                             { return rules.GetLevelByLines(t.lines) }
func (t *Tetris) LevelSpeed() rules.LevelSpeed           { return rules.GetLevelSpeed(t.Level()) }
func (t *Tetris) IsAdj() bool                            { return t.isAdj }
func (t *Tetris) Pieces() int                            { return t.pieces }
func (t *Tetris) Lines() int                             { return t.lines }
func (t *Tetris) NowPiece() int                          { return t.nowPiece }
func (t *Tetris) NextPiece() int                         { return t.nextPiece }
func (t *Tetris) IsOver() bool                           { return t.gameOver || t.consecutiveFail >= 1 }
func (t *Tetris) RunPieces() int                         { return t.runPieces }
func (t *Tetris) RunLines() int                          { return t.runLines }
func (t *Tetris) RunScore() int                          { return t.runScore }

// InitialMove returns the recorded adjustment initial; calling it
// outside the adjusting state is a logic fault.
func (t *Tetris) InitialMove() movegen.Position {
	if !t.isAdj {
		panic("game: no initial move")
	}
	return t.moves.Adj[t.initialMove].Initial
}
