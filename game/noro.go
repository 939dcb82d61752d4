package game

import (
	"fmt"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/movegen"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

// TetrisNoro is the no-rotation engine. The piece always locks in
// rotation 0; the move map is a single board of lockable cells.
type TetrisNoro struct {
	board           board.Board
	lines           int
	startLevel      int
	pieces          int
	nowPiece        int
	nextPiece       int
	gameOver        bool
	moves           board.Board
	consecutiveFail int

	doTuck       bool
	inputsPerRow [15]int

	runScore  int
	runLines  int
	runPieces int
}

// NewTetrisNoro returns an engine with the default per-speed input
// budget. Reset must be called before stepping.
func NewTetrisNoro() *TetrisNoro {
	return &TetrisNoro{inputsPerRow: rules.NoroInputsPerRow}
}

// Reset configures the engine. The line/board consistency check is
// deliberately lenient here: boards produced by position generators
// routinely carry odd cell counts.
func (t *TetrisNoro) Reset(b board.Board, lines, startLevel int, doTuck bool, nowPiece, nextPiece int) error {
	if nowPiece < 0 || nowPiece >= rules.NumPieces || nextPiece < 0 || nextPiece >= rules.NumPieces {
		return ErrInvalidPiece
	}
	t.board = b
	t.lines = lines
	t.startLevel = startLevel
	t.pieces = (lines*10 + b.Count()) / 4
	t.doTuck = doTuck
	t.nowPiece = nowPiece
	t.nextPiece = nextPiece
	t.gameOver = false
	t.calculateMoves()
	t.consecutiveFail = 0
	t.runScore = 0
	t.runLines = 0
	t.runPieces = 0
	return nil
}

func (t *TetrisNoro) calculateMoves() {
	t.moves = movegen.MoveSearchNoro(t.board, t.nowPiece, t.InputsPerRow(), t.doTuck)
	if t.moves == board.Zeros {
		t.gameOver = true
	}
}

func (t *TetrisNoro) stepGame(pos movegen.Position, nextPiece int) (int, int) {
	beforeClear := t.board.Place(t.nowPiece, 0, pos.X, pos.Y)
	lines, newBoard := beforeClear.ClearLines(true)
	t.lines += lines
	deltaScore := rules.ScoreFromLevel(t.Level(), lines)
	t.board = newBoard
	t.pieces++
	t.nowPiece = t.nextPiece
	t.nextPiece = nextPiece
	t.calculateMoves()
	t.consecutiveFail = 0
	t.runScore += deltaScore
	t.runLines += lines
	t.runPieces++
	return deltaScore, lines
}

// InputPlacement plays one placement. pos.R must be zero; a score of
// -1 marks an illegal placement.
func (t *TetrisNoro) InputPlacement(pos movegen.Position, nextPiece int) (int, int, error) {
	if t.gameOver {
		panic("game: already game over")
	}
	if nextPiece < 0 || nextPiece >= rules.NumPieces {
		return 0, 0, ErrInvalidPiece
	}
	if pos.R != 0 {
		return 0, 0, fmt.Errorf("game: rotation %d in no-rotation game", pos.R)
	}
	if pos.X < 0 || pos.X >= board.NumRows || pos.Y < 0 || pos.Y >= board.NumCols || !t.moves.Cell(pos.X, pos.Y) {
		t.consecutiveFail++
		return -1, 0, nil
	}
	score, lines := t.stepGame(pos, nextPiece)
	return score, lines, nil
}

// SetNextPiece overrides the next piece.
func (t *TetrisNoro) SetNextPiece(piece int) error {
	if piece < 0 || piece >= rules.NumPieces {
		return ErrInvalidPiece
	}
	t.nextPiece = piece
	return nil
}

// SetLines rewrites the line counter, preserving parity.
func (t *TetrisNoro) SetLines(lines int) error {
	if lines%2 != t.lines%2 {
		return fmt.Errorf("game: invalid lines %d", lines)
	}
	t.pieces += (lines - t.lines) * 10 / 4
	t.lines = lines
	return nil
}

// LinesToNextSpeed returns the number of lines until the input budget
// changes, or -1 when it never does. The scan probes lines+9,
// lines+19, ... and returns the first probe at or past the change, so
// the result is always 9 mod 10 rather than the exact distance.
func (t *TetrisNoro) LinesToNextSpeed() int {
	speed := t.LevelSpeed()
	nextSpeed := speed
	for nextSpeed < len(t.inputsPerRow) && t.inputsPerRow[speed] == t.inputsPerRow[nextSpeed] {
		nextSpeed++
	}
	if nextSpeed >= len(t.inputsPerRow) {
		return -1
	}
	nlines := t.lines + 9
	for rules.NoroLevelSpeed(rules.NoroLevelByLines(nlines, t.startLevel)) != nextSpeed {
		nlines += 10
	}
	return nlines - t.lines
}

// GetSequence returns the canonical input sequence for pos.
func (t *TetrisNoro) GetSequence(pos movegen.Position) movegen.FrameSequence {
	return movegen.GetFrameSequenceNoro(t.board, t.nowPiece, t.InputsPerRow(), t.doTuck,
		rules.NoroFramesPerRow(t.Level()), pos)
}

// InputsPerRow returns the current lateral input budget.
func (t *TetrisNoro) InputsPerRow() int {
	return t.inputsPerRowAt(t.LevelSpeed())
}

// InputsPerRowAt returns the budget at an arbitrary level.
func (t *TetrisNoro) InputsPerRowAt(level int) int {
	return t.inputsPerRowAt(rules.NoroLevelSpeed(level))
}

func (t *TetrisNoro) inputsPerRowAt(speed int) int {
	if speed >= len(t.inputsPerRow) {
		return t.inputsPerRow[len(t.inputsPerRow)-1]
	}
	return t.inputsPerRow[speed]
}

func (t *TetrisNoro) MoveMap() board.Board  { return t.moves }
func (t *TetrisNoro) Board() board.Board    { return t.board }
func (t *TetrisNoro) DoTuck() bool          { return t.doTuck }
func (t *TetrisNoro) Level() int            { return rules.NoroLevelByLines(t.lines, t.startLevel) }
func (t *TetrisNoro) LevelSpeed() int       { return rules.NoroLevelSpeed(t.Level()) }
func (t *TetrisNoro) Pieces() int           { return t.pieces }
func (t *TetrisNoro) Lines() int            { return t.lines }
func (t *TetrisNoro) StartLevel() int       { return t.startLevel }
func (t *TetrisNoro) NowPiece() int         { return t.nowPiece }
func (t *TetrisNoro) NextPiece() int        { return t.nextPiece }
func (t *TetrisNoro) IsOver() bool          { return t.gameOver || t.consecutiveFail >= 1 }
func (t *TetrisNoro) RunPieces() int        { return t.runPieces }
func (t *TetrisNoro) RunLines() int         { return t.runLines }
func (t *TetrisNoro) RunScore() int         { return t.runScore }
