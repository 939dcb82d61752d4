package env

import (
	"math"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/game"
	"github.com/BetaTetris/betatetris-tablebase/movegen"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

// State is the observation handed to the network. Plane counts differ
// between rule-sets; StateShapes gives the active layout.
//
// Standard: board (6,20,10), meta (32), moves (18,20,10),
// move_meta (28), meta_int (2).
// No-rotation: board (2,20,10), meta (32), moves (3,20,10),
// move_meta (31), meta_int (2).
type State struct {
	Board    [][board.NumRows][board.NumCols]float32
	Meta     [32]float32
	Moves    [][board.NumRows][board.NumCols]float32
	MoveMeta []float32
	MetaInt  [2]int32
}

// StateShapes returns the five tensor shapes of the active mode.
func (e *Env) StateShapes() [5][]int {
	if e.noro != nil {
		return [5][]int{{2, 20, 10}, {32}, {3, 20, 10}, {31}, {2}}
	}
	return [5][]int{{6, 20, 10}, {32}, {18, 20, 10}, {28}, {2}}
}

// StateTypes returns the element types of the five tensors.
func (e *Env) StateTypes() [5]string {
	return [5]string{"float32", "float32", "float32", "float32", "int32"}
}

// GetState serializes the current observation. lineReduce shifts the
// line counter the network sees without touching the game.
func (e *Env) GetState(lineReduce int) State {
	if e.noro != nil {
		return encodeNoro(e.noro, e.nnb, e.isMirror, lineReduce)
	}
	return encodeRot(e.rot, lineReduce, e.stepRewardLevel)
}

// GetAdjStates returns, for every possible next piece, the observation
// that would follow committing to the given adjustment initial.
// Calling it while already adjusting is a logic fault.
func (e *Env) GetAdjStates(pos movegen.Position) [rules.NumPieces]State {
	if e.rot == nil {
		panic("env: adjustment states only exist in the standard rule-set")
	}
	if e.rot.IsAdj() {
		panic("env: should only be called in the non-adjusting phase")
	}
	clone := e.rot.Clone()
	if _, _, err := clone.InputPlacement(pos, 0); err != nil {
		panic(err)
	}
	if !clone.IsAdj() {
		panic("env: not an adjustment placement")
	}
	var out [rules.NumPieces]State
	for i := 0; i < rules.NumPieces; i++ {
		if err := clone.SetNextPiece(i); err != nil {
			panic(err)
		}
		out[i] = encodeRot(clone, 0, e.stepRewardLevel)
	}
	return out
}

func encodeRot(t *game.Tetris, lineReduce, stepRewardLevel int) State {
	s := State{
		Board:    make([][board.NumRows][board.NumCols]float32, 6),
		Moves:    make([][board.NumRows][board.NumCols]float32, 18),
		MoveMeta: make([]float32, 28),
	}
	grid := t.Board().ToGrid()
	for i := 0; i < board.NumRows; i++ {
		for j := 0; j < board.NumCols; j++ {
			v := float32(grid[i][j])
			s.Board[0][i][j] = v
			s.Board[1][i][j] = 1
			s.Moves[0][i][j] = v
			s.Moves[1][i][j] = 1
		}
	}
	moveMap := t.MoveMap()
	for r := 0; r < 4; r++ {
		for i := 0; i < board.NumRows; i++ {
			for j := 0; j < board.NumCols; j++ {
				tag := moveMap[r][i][j]
				if tag >= 1 {
					s.Moves[2+r][i][j] = 1
				}
				if tag >= 2 {
					s.Moves[6+r][i][j] = 1
				}
				if tag != 0 && tag != 2 {
					s.Moves[14+r][i][j] = 1
				}
			}
		}
	}
	if t.IsAdj() {
		pos := t.InitialMove()
		s.Board[2+pos.R][pos.X][pos.Y] = 1
		s.Moves[10+pos.R][pos.X][pos.Y] = 1
	}

	s.Meta[t.NowPiece()] = 1
	if t.IsAdj() {
		s.Meta[7+t.NextPiece()] = 1
		s.Meta[14] = 1
	}

	stateLines := t.Lines() - lineReduce
	stateLevel := rules.GetLevelByLines(stateLines)
	stateSpeed := int(rules.GetLevelSpeed(stateLevel))

	taps := t.TapSequence()
	tap4, tap5 := taps[3], taps[4]
	adjDelay := t.AdjDelay()
	if stateSpeed == 2 && adjDelay >= 20 {
		adjDelay = 61
	}
	if stateSpeed == 3 && adjDelay >= 10 {
		adjDelay = 61
	}
	switch {
	case tap5 <= 8: // 30 Hz
		s.Meta[15] = 1
	case tap5 <= 11: // 24 Hz
		s.Meta[16] = 1
	case tap5 <= 13: // 20 Hz
		s.Meta[17] = 1
	case tap5 <= 16: // 15 Hz
		s.Meta[18] = 1
	case tap4 <= 9: // slow 5-tap
		s.Meta[19] = 1
	case tap5 <= 21: // 12 Hz
		s.Meta[20] = 1
	default: // 10 Hz
		s.Meta[21] = 1
	}
	switch {
	case adjDelay <= 4:
		s.Meta[22] = 1
	case adjDelay <= 19:
		s.Meta[23] = 1
	case adjDelay <= 22:
		s.Meta[24] = 1
	case adjDelay <= 25:
		s.Meta[25] = 1
	case adjDelay <= 32:
		s.Meta[26] = 1
	default:
		s.Meta[27] = 1
	}
	s.Meta[28+stepRewardLevel] = 1

	s.MetaInt[0] = int32(stateLines / 2)
	s.MetaInt[1] = int32(t.NowPiece())

	s.MoveMeta[stateSpeed] = 1
	toTransition := rules.LevelSpeedLines[stateSpeed+1] - stateLines
	if toTransition < 1 {
		toTransition = 1
	}
	switch {
	case toTransition <= 10: // 4..13
		s.MoveMeta[4+(toTransition-1)] = 1
	case toTransition <= 22: // 14..17
		s.MoveMeta[14+(toTransition-11)/3] = 1
	case toTransition <= 40: // 18..21
		s.MoveMeta[18+(toTransition-22)/6] = 1
	case toTransition <= 60: // 21..23
		s.MoveMeta[21+(toTransition-40)/10] = 1
	default:
		s.MoveMeta[23] = 1
	}
	s.MoveMeta[24] = float32(toTransition) * 0.01
	s.MoveMeta[25] = float32(stateLevel-18) * 0.1
	s.MoveMeta[26] = float32(stateLines) * 0.01
	s.MoveMeta[27] = float32(t.Pieces()+lineReduce*10/4) * 0.004
	return s
}

func encodeNoro(t *game.TetrisNoro, nnb, isMirror bool, lineReduce int) State {
	s := State{
		Board:    make([][board.NumRows][board.NumCols]float32, 2),
		Moves:    make([][board.NumRows][board.NumCols]float32, 3),
		MoveMeta: make([]float32, 31),
	}
	grid := t.Board().ToGrid()
	for i := 0; i < board.NumRows; i++ {
		for j := 0; j < board.NumCols; j++ {
			v := float32(grid[i][j])
			if isMirror {
				v = float32(grid[i][board.NumCols-1-j])
			}
			s.Board[0][i][j] = v
			s.Moves[0][i][j] = v
			s.Board[1][i][j] = 1
			s.Moves[1][i][j] = 1
		}
	}
	moveMap := t.MoveMap().ToGrid()
	for i := 0; i < board.NumRows; i++ {
		for j := 0; j < board.NumCols; j++ {
			if isMirror {
				ncol := rules.MirrorCols[t.NowPiece()] - j
				if ncol < board.NumCols {
					s.Moves[2][i][j] = float32(moveMap[i][ncol])
				}
			} else {
				s.Moves[2][i][j] = float32(moveMap[i][j])
			}
		}
	}

	startLevel := t.StartLevel()
	startSpeed := t.InputsPerRowAt(startLevel)
	nowPiece, nextPiece := t.NowPiece(), t.NextPiece()
	if isMirror {
		nowPiece = rules.MirrorPiece[nowPiece]
		nextPiece = rules.MirrorPiece[nextPiece]
	}
	s.Meta[t.Board().Count()/2%5] = 1
	s.Meta[5+nowPiece] = 1
	if nnb {
		s.Meta[19] = 1
	} else {
		s.Meta[12+nextPiece] = 1
	}
	if t.DoTuck() {
		s.Meta[20] = 1
	}
	if isMirror {
		s.Meta[21] = 1
	}
	s.Meta[22+startSpeed] = 1

	stateLines := t.Lines() - lineReduce
	stateLevel := rules.NoroLevelByLines(stateLines, startLevel)
	s.MetaInt[0] = int32(stateLines / 2)
	s.MetaInt[1] = int32(t.NowPiece())

	s.MoveMeta[t.InputsPerRow()] = 1
	toTransition := t.LinesToNextSpeed()
	if toTransition == -1 {
		toTransition = 1000
	}
	switch {
	case toTransition <= 10: // 10..19
		s.MoveMeta[10+(toTransition-1)] = 1
	case toTransition <= 22: // 20..23
		s.MoveMeta[20+(toTransition-11)/3] = 1
	default:
		s.MoveMeta[24] = 1
	}
	s.MoveMeta[25] = float32(toTransition) * 0.01
	s.MoveMeta[26] = float32(stateLevel) * 0.1
	s.MoveMeta[27] = float32(stateLines) * 0.01
	s.MoveMeta[28] = float32(startLevel) * 0.1
	s.MoveMeta[29] = float32(t.Pieces()+lineReduce*10/4) * 0.004
	s.MoveMeta[30] = float32(math.Max(-0.5, NoroLineRewardExp(stateLines+5, startLevel, t.DoTuck(), nnb)))
	return s
}
