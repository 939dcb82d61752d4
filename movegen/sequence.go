package movegen

import (
	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

// FrameSequence is one controller byte per frame, indexed from piece
// spawn. A zero byte is a frame with nothing pressed.
type FrameSequence []byte

// NES controller bits.
const (
	ButtonA      byte = 0x01
	ButtonB      byte = 0x02
	ButtonSelect byte = 0x04
	ButtonStart  byte = 0x08
	ButtonUp     byte = 0x10
	ButtonDown   byte = 0x20
	ButtonLeft   byte = 0x40
	ButtonRight  byte = 0x80
)

// inputsOf expands a run into absolute-frame controller presses.
func (c *searchContext) inputsOf(info runInfo) []Input {
	totTaps := info.numLR
	if info.numAB > totTaps {
		totTaps = info.numAB
	}
	out := make([]Input, 0, totTaps+len(info.tuck))
	for k := 0; k < totTaps; k++ {
		var b byte
		if k < info.numLR {
			if info.isL {
				b |= ButtonLeft
			} else {
				b |= ButtonRight
			}
		}
		if k < info.numAB {
			if info.isA {
				b |= ButtonA
			} else {
				b |= ButtonB
			}
		}
		out = append(out, Input{Frame: info.startFrame + c.taps[k], Buttons: b})
	}
	return append(out, info.tuck...)
}

func emit(seq FrameSequence, inputs []Input, minLen int) FrameSequence {
	n := minLen
	for _, in := range inputs {
		if in.Frame+1 > n {
			n = in.Frame + 1
		}
	}
	for len(seq) < n {
		seq = append(seq, 0)
	}
	for _, in := range inputs {
		seq[in.Frame] |= in.Buttons
	}
	return seq
}

// findLocked looks for a run locking exactly at target, preferring
// paths without tucks and with fewer taps.
func (c *searchContext) findLocked(maxLR, maxAB, startRot, startCol, startFrame, endFrame int, target Position) (runInfo, bool) {
	var best runInfo
	found := false
	take := func(p Position, info runInfo) {
		if p != target {
			return
		}
		if !found || info.inputs() < best.inputs() {
			best, found = info, true
		}
	}
	c.searchRuns(maxLR, maxAB, startRot, startCol, startFrame, endFrame, false, nil, take, nil)
	if found {
		return best, true
	}
	c.searchRuns(maxLR, maxAB, startRot, startCol, startFrame, endFrame, true, map[Position]struct{}{}, take, nil)
	return best, found
}

// findContinue looks for a run that leaves the piece falling at target
// when the adjustment boundary arrives. Returns the run and the
// continuation start frame.
func (c *searchContext) findContinue(maxLR, maxAB, startFrame, endFrame int, target Position) (runInfo, int, bool) {
	var best runInfo
	bestFrame := 0
	found := false
	c.searchRuns(maxLR, maxAB, PosStart.R, PosStart.Y, startFrame, endFrame, false, nil,
		func(Position, runInfo) {},
		func(p Position, frame int, info runInfo) {
			if p != target {
				return
			}
			if !found || frame < bestFrame || (frame == bestFrame && info.inputs() < best.inputs()) {
				best, bestFrame, found = info, frame, true
			}
		})
	return best, bestFrame, found
}

// minInputs maps every placement reachable from the given state to the
// smallest number of controller inputs that realizes it.
func (c *searchContext) minInputs(startRot, startCol, startFrame int) map[Position]int {
	m := make(map[Position]int)
	c.searchRuns(9, 2, startRot, startCol, startFrame, kFinish, true, map[Position]struct{}{},
		func(p Position, info runInfo) {
			n := info.inputs()
			if old, ok := m[p]; !ok || n < old {
				m[p] = n
			}
		}, nil)
	return m
}

// GetFrameSequenceStart builds the input sequence that realizes pos
// from spawn: the full sequence for a placement that locks before the
// adjustment boundary, or the pre-adjustment sequence (padded to the
// boundary) when pos is an adjustment initial. An empty sequence means
// pos is not reachable.
func GetFrameSequenceStart(tbl *TableSet, speed rules.LevelSpeed, b board.Board, piece, adjDelay int, pos Position) FrameSequence {
	c := &searchContext{pm: b.PieceMap(piece), speed: speed, taps: tbl.Key.Taps, lt: tbl.Level(speed)}
	maxLR, maxAB := 9, 2
	if adjDelay == 0 {
		maxLR, maxAB = 0, 0
	}
	if info, ok := c.findLocked(maxLR, maxAB, PosStart.R, PosStart.Y, 0, adjDelay, pos); ok {
		return emit(nil, c.inputsOf(info), c.lt.LockFrame(pos.X))
	}
	if info, _, ok := c.findContinue(maxLR, maxAB, 0, adjDelay, pos); ok {
		return emit(nil, c.inputsOf(info), adjDelay)
	}
	return nil
}

// FinishAdjSequence extends a pre-adjustment sequence with the inputs
// that steer the falling piece from the intermediate placement to the
// final one. The sequence is returned unchanged when the final
// placement is not reachable from the intermediate one.
func FinishAdjSequence(tbl *TableSet, speed rules.LevelSpeed, seq FrameSequence, b board.Board, piece int, intermediate, final Position, adjDelay int) FrameSequence {
	c := &searchContext{pm: b.PieceMap(piece), speed: speed, taps: tbl.Key.Taps, lt: tbl.Level(speed)}
	maxLR, maxAB := 9, 2
	if adjDelay == 0 {
		maxLR, maxAB = 0, 0
	}
	_, frame, ok := c.findContinue(maxLR, maxAB, 0, adjDelay, intermediate)
	if !ok {
		return seq
	}
	info, ok := c.findLocked(9, 2, intermediate.R, intermediate.Y, frame, kFinish, final)
	if !ok {
		return seq
	}
	return emit(seq, c.inputsOf(info), c.lt.LockFrame(final.X))
}

// GetBestAdj chooses the adjustment initial best positioned to realize
// the per-piece target placements: every target is costed by the
// minimum number of continuation button presses that reaches it (with
// a large penalty when unreachable) and the initial minimizing the sum
// of squared costs wins. Returns the index into moves.Adj and the
// pre-adjustment input sequence.
func GetBestAdj(tbl *TableSet, speed rules.LevelSpeed, b board.Board, piece int, moves *PossibleMoves, adjDelay int, targets *[rules.NumPieces]Position) (int, FrameSequence) {
	const unreachable = 1 << 10
	if len(moves.Adj) == 0 {
		panic("movegen: best-adj requested with no adjustment initials")
	}
	c := &searchContext{pm: b.PieceMap(piece), speed: speed, taps: tbl.Key.Taps, lt: tbl.Level(speed)}
	bestIdx, bestScore := 0, int(^uint(0)>>1)
	for i, adj := range moves.Adj {
		costs := c.minInputs(adj.Initial.R, adj.Initial.Y, adj.Frame)
		score := 0
		for _, target := range targets {
			cost, ok := costs[target]
			if !ok {
				cost = unreachable
			}
			score += cost * cost
		}
		if score < bestScore {
			bestIdx, bestScore = i, score
		}
	}
	maxLR, maxAB := 9, 2
	if adjDelay == 0 {
		maxLR, maxAB = 0, 0
	}
	var seq FrameSequence
	if info, _, ok := c.findContinue(maxLR, maxAB, 0, adjDelay, moves.Adj[bestIdx].Initial); ok {
		seq = emit(nil, c.inputsOf(info), adjDelay)
	}
	return bestIdx, seq
}
