// Package movegen enumerates every landing position a piece can reach
// under NES input rules: gravity by level speed, a fixed autotapper
// cadence, rotations, tucks, and an optional adjustment boundary that
// splits play into a committed pre-move and a steerable continuation.
//
// The search walks tap runs (a run is up to nine same-direction shifts
// and up to two same-direction rotations applied on the tap cadence)
// and then scans the remaining fall for single-input tucks. This is
// frame-accurate by construction; the per-(cadence, delay) tables in
// tables.go carry the precomputed per-level gravity schedules the
// enumerator reads and are shared process-wide.
package movegen

import (
	"math/bits"
	"sort"

	"github.com/samber/lo"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

// Position is a piece placement: rotation index, row of the piece
// origin (0 = top) and column.
type Position struct {
	R, X, Y int
}

// PosStart is the spawn placement.
var PosStart = Position{R: 0, X: 0, Y: 5}

// Less orders positions lexicographically.
func (p Position) Less(q Position) bool {
	if p.R != q.R {
		return p.R < q.R
	}
	if p.X != q.X {
		return p.X < q.X
	}
	return p.Y < q.Y
}

// AdjPlacement is an adjustment initial: the placement the piece holds
// at the adjustment boundary, the frame its continuation starts on,
// and every final placement reachable from there.
type AdjPlacement struct {
	Initial Position
	Frame   int
	Final   []Position
}

// PossibleMoves is the full search result for one piece on one board.
type PossibleMoves struct {
	NonAdj []Position
	Adj    []AdjPlacement
}

// kFinish is an effectively-infinite end frame.
const kFinish = 1000

// doubleTuck enables a second lateral input inside the same fall after
// the first tuck.
const doubleTuck = false

// runInfo describes how a placement was realized: the tap run that was
// played and any tuck inputs appended to it.
type runInfo struct {
	numLR, numAB int
	isL, isA     bool
	startFrame   int
	tuck         []Input
}

// inputs counts button presses: a tap that shifts and rotates on the
// same frame is two presses, and so is a combined tuck.
func (r runInfo) inputs() int {
	n := r.numLR + r.numAB
	for _, in := range r.tuck {
		n += bits.OnesCount8(in.Buttons)
	}
	return n
}

// Input is one controller press at an absolute frame.
type Input struct {
	Frame   int
	Buttons byte
}

type searchContext struct {
	pm    []board.Board
	speed rules.LevelSpeed
	taps  rules.TapSequence
	lt    *LevelTable
}

func (c *searchContext) cell(rot, row, col int) bool {
	return c.pm[rot].Cell(row, col)
}

// freeDropTo drops the piece while the gravity schedule allows,
// stopping at the row held at maxFrame. Returns the resting row and
// whether the piece is still falling there.
func (c *searchContext) freeDropTo(rot, row, col, maxFrame int) (int, bool) {
	maxRow := c.lt.RowAt(maxFrame)
	for row < maxRow && row < board.NumRows-1 && c.cell(rot, row+1, col) {
		row++
	}
	return row, row >= maxRow
}

// freeDrop drops the piece all the way to rest.
func (c *searchContext) freeDrop(rot, row, col int) int {
	for row < board.NumRows-1 && c.cell(rot, row+1, col) {
		row++
	}
	return row
}

// simulateRun plays one tap run from the given state: numLR lateral
// taps (left when isL) and numAB rotations (clockwise when isA)
// applied on the cadence, then free fall, then — when checkTuck is on
// — a scan of the remaining descent for tuck inputs. Placements the
// run locks are reported through onLocked; placements still falling at
// endFrame through onContinue.
func (c *searchContext) simulateRun(
	startRot, startCol, startFrame, endFrame, numLR, numAB int, isL, isA bool,
	checkTuck bool, nonTuck map[Position]struct{},
	onLocked func(Position, runInfo), onContinue func(Position, int, runInfo),
) {
	rots := len(c.pm)
	if isL && numLR > startCol {
		return
	}
	if !isL && numLR > board.NumCols-1-startCol {
		return
	}
	if isA && numAB > rots/2 {
		return
	}
	if !isA && numAB > (rots-1)/2 {
		return
	}
	if (isL && numLR == 0) || (isA && numAB == 0) {
		return
	}

	info := runInfo{numLR: numLR, numAB: numAB, isL: isL, isA: isA, startFrame: startFrame}
	rot, col, frame := startRot, startCol, startFrame
	totTaps := numLR
	if numAB > totTaps {
		totTaps = numAB
	}
	for tap := 0; tap < totTaps; frame++ {
		row := c.lt.RowAt(frame)
		if row >= board.NumRows || !c.cell(rot, row, col) {
			return
		}
		if frame == c.taps[tap]+startFrame {
			tap++
			if tap <= numLR {
				if isL {
					col--
				} else {
					col++
				}
				if !c.cell(rot, row, col) {
					return
				}
			}
			if tap <= numAB {
				if isA {
					rot = (rot + 1) % rots
				} else {
					rot = (rot + rots - 1) % rots
				}
				if !c.cell(rot, row, col) {
					return
				}
			}
			if tap == totTaps {
				break
			}
		}
		if c.lt.DropAt(frame) {
			row++
			if row >= board.NumRows || !c.cell(rot, row, col) {
				return
			}
			if c.speed == rules.Level39 {
				row++
				if row >= board.NumRows || !c.cell(rot, row, col) {
					return
				}
			}
		}
	}

	// forward to where tucks become available
	row, falling := c.freeDropTo(rot, c.lt.RowAt(frame), col, startFrame+c.taps[totTaps])
	if !falling {
		onLocked(Position{rot, row, col}, info)
		return
	}
	frame = startFrame + c.taps[totTaps]

	row, falling = c.freeDropTo(rot, c.lt.RowAt(frame), col, endFrame)
	if falling {
		cont := endFrame
		if frame > cont {
			cont = frame
		}
		if onContinue != nil {
			onContinue(Position{rot, row, col}, cont, info)
		}
	} else {
		onLocked(Position{rot, row, col}, info)
	}

	if !checkTuck {
		return
	}
	c.scanTucks(rot, col, frame, endFrame, info, nonTuck, onLocked)
}

// scanTucks walks the remaining descent frame by frame and reports
// every placement reachable by one more input (or an input plus a
// rotation on the following frame). Placements already reachable
// without a tuck are skipped.
func (c *searchContext) scanTucks(
	rot, col, frame, endFrame int, base runInfo,
	nonTuck map[Position]struct{}, onLocked func(Position, runInfo),
) {
	rots := len(c.pm)
	seen := make(map[Position]struct{})
	insert := func(pos Position, tuck ...Input) {
		if _, ok := nonTuck[pos]; ok {
			return
		}
		if _, ok := seen[pos]; ok {
			return
		}
		seen[pos] = struct{}{}
		info := base
		info.tuck = append(append([]Input(nil), base.tuck...), tuck...)
		onLocked(pos, info)
	}
	arot := (rot + 1) % rots
	brot := (rot + rots - 1) % rots
	const left, right, btnA, btnB = ButtonLeft, ButtonRight, ButtonA, ButtonB

	for ; frame < endFrame; frame++ {
		row := c.lt.RowAt(frame)
		if row >= board.NumRows || !c.cell(rot, row, col) {
			break
		}
		nrow := c.lt.RowAt(frame + 1)
		mrow := nrow
		if nrow-row == 2 {
			mrow = nrow - 1
		}
		if col < board.NumCols-1 && c.cell(rot, row, col+1) {
			insert(Position{rot, c.freeDrop(rot, row, col+1), col + 1}, Input{frame, right})
			if rots >= 2 && c.cell(arot, row, col+1) {
				insert(Position{arot, c.freeDrop(arot, row, col+1), col + 1}, Input{frame, right | btnA})
			}
			if rots >= 4 && c.cell(brot, row, col+1) {
				insert(Position{brot, c.freeDrop(brot, row, col+1), col + 1}, Input{frame, right | btnB})
			}
			if nrow < board.NumRows && c.cell(rot, mrow, col+1) && c.cell(rot, nrow, col+1) {
				if rots >= 2 && c.cell(arot, nrow, col+1) {
					insert(Position{arot, c.freeDrop(arot, nrow, col+1), col + 1},
						Input{frame, right}, Input{frame + 1, btnA})
				}
				if rots >= 4 && c.cell(brot, nrow, col+1) {
					insert(Position{brot, c.freeDrop(brot, nrow, col+1), col + 1},
						Input{frame, right}, Input{frame + 1, btnB})
				}
			}
			if doubleTuck {
				n2row := c.lt.RowAt(frame + 2)
				m2row := n2row
				if n2row-nrow == 2 {
					m2row = n2row - 1
				}
				if n2row < board.NumRows && col < board.NumCols-2 &&
					c.cell(rot, mrow, col+1) && c.cell(rot, nrow, col+1) &&
					c.cell(rot, m2row, col+1) && c.cell(rot, n2row, col+1) && c.cell(rot, n2row, col+2) {
					insert(Position{rot, c.freeDrop(rot, n2row, col+2), col + 2},
						Input{frame, right}, Input{frame + 2, right})
				}
			}
		}
		if col > 0 && c.cell(rot, row, col-1) {
			insert(Position{rot, c.freeDrop(rot, row, col-1), col - 1}, Input{frame, left})
			if rots >= 2 && c.cell(arot, row, col-1) {
				insert(Position{arot, c.freeDrop(arot, row, col-1), col - 1}, Input{frame, left | btnA})
			}
			if rots >= 4 && c.cell(brot, row, col-1) {
				insert(Position{brot, c.freeDrop(brot, row, col-1), col - 1}, Input{frame, left | btnB})
			}
			if nrow < board.NumRows && c.cell(rot, mrow, col-1) && c.cell(rot, nrow, col-1) {
				if rots >= 2 && c.cell(arot, nrow, col-1) {
					insert(Position{arot, c.freeDrop(arot, nrow, col-1), col - 1},
						Input{frame, left}, Input{frame + 1, btnA})
				}
				if rots >= 4 && c.cell(brot, nrow, col-1) {
					insert(Position{brot, c.freeDrop(brot, nrow, col-1), col - 1},
						Input{frame, left}, Input{frame + 1, btnB})
				}
			}
			if doubleTuck {
				n2row := c.lt.RowAt(frame + 2)
				m2row := n2row
				if n2row-nrow == 2 {
					m2row = n2row - 1
				}
				if n2row < board.NumRows && col > 1 &&
					c.cell(rot, mrow, col-1) && c.cell(rot, nrow, col-1) &&
					c.cell(rot, m2row, col-1) && c.cell(rot, n2row, col-1) && c.cell(rot, n2row, col-2) {
					insert(Position{rot, c.freeDrop(rot, n2row, col-2), col - 2},
						Input{frame, left}, Input{frame + 2, left})
				}
			}
		}
		if rots >= 2 && c.cell(arot, row, col) {
			insert(Position{arot, c.freeDrop(arot, row, col), col}, Input{frame, btnA})
			if nrow < board.NumRows && c.cell(arot, mrow, col) && c.cell(arot, nrow, col) {
				if col < board.NumCols-1 && c.cell(arot, nrow, col+1) {
					insert(Position{arot, c.freeDrop(arot, nrow, col+1), col + 1},
						Input{frame, btnA}, Input{frame + 1, right})
				}
				if col > 0 && c.cell(arot, nrow, col-1) {
					insert(Position{arot, c.freeDrop(arot, nrow, col-1), col - 1},
						Input{frame, btnA}, Input{frame + 1, left})
				}
			}
		}
		if rots >= 4 && c.cell(brot, row, col) {
			insert(Position{brot, c.freeDrop(brot, row, col), col}, Input{frame, btnB})
			if nrow < board.NumRows && c.cell(brot, mrow, col) && c.cell(brot, nrow, col) {
				if col < board.NumCols-1 && c.cell(brot, nrow, col+1) {
					insert(Position{brot, c.freeDrop(brot, nrow, col+1), col + 1},
						Input{frame, btnB}, Input{frame + 1, right})
				}
				if col > 0 && c.cell(brot, nrow, col-1) {
					insert(Position{brot, c.freeDrop(brot, nrow, col-1), col - 1},
						Input{frame, btnB}, Input{frame + 1, left})
				}
			}
		}

		if c.lt.DropAt(frame) {
			row++
			if row >= board.NumRows || !c.cell(rot, row, col) {
				break
			}
			if c.speed == rules.Level39 {
				row++
				if row >= board.NumRows || !c.cell(rot, row, col) {
					break
				}
			}
		}
	}
}

// searchRuns enumerates every tap-run shape from the given state.
func (c *searchContext) searchRuns(
	maxLR, maxAB, startRot, startCol, startFrame, endFrame int,
	checkTuck bool, nonTuck map[Position]struct{},
	onLocked func(Position, runInfo), onContinue func(Position, int, runInfo),
) {
	if !c.cell(startRot, c.lt.RowAt(startFrame), startCol) {
		return
	}
	for lr := 0; lr <= maxLR; lr++ {
		for ab := 0; ab <= maxAB; ab++ {
			c.simulateRun(startRot, startCol, startFrame, endFrame, lr, ab, false, false, checkTuck, nonTuck, onLocked, onContinue)
			c.simulateRun(startRot, startCol, startFrame, endFrame, lr, ab, true, false, checkTuck, nonTuck, onLocked, onContinue)
			c.simulateRun(startRot, startCol, startFrame, endFrame, lr, ab, false, true, checkTuck, nonTuck, onLocked, onContinue)
			c.simulateRun(startRot, startCol, startFrame, endFrame, lr, ab, true, true, checkTuck, nonTuck, onLocked, onContinue)
		}
	}
}

// collectFrom runs the two-pass search (tapped placements first, then
// the tuck pass using the first pass as the non-tuck baseline) from an
// arbitrary state and returns the locked placements plus continuation
// starts when cont is non-nil.
func (c *searchContext) collectFrom(
	maxLR, maxAB, startRot, startCol, startFrame, endFrame int,
	cont *[]contStart,
) []Position {
	var nonTuckList []Position
	c.searchRuns(maxLR, maxAB, startRot, startCol, startFrame, kFinish, false, nil,
		func(p Position, _ runInfo) { nonTuckList = append(nonTuckList, p) }, nil)
	nonTuck := make(map[Position]struct{}, len(nonTuckList))
	for _, p := range nonTuckList {
		nonTuck[p] = struct{}{}
	}
	var locked []Position
	var onCont func(Position, int, runInfo)
	if cont != nil {
		onCont = func(p Position, frame int, _ runInfo) {
			*cont = append(*cont, contStart{p, frame})
		}
	}
	c.searchRuns(maxLR, maxAB, startRot, startCol, startFrame, endFrame, true, nonTuck,
		func(p Position, _ runInfo) { locked = append(locked, p) }, onCont)
	return locked
}

type contStart struct {
	pos   Position
	frame int
}

// Search enumerates the possible moves for a piece on a board. The
// TableSet fixes the tap cadence and adjustment delay; speed selects
// the gravity bucket.
func Search(tbl *TableSet, speed rules.LevelSpeed, b board.Board, piece int) PossibleMoves {
	c := &searchContext{pm: b.PieceMap(piece), speed: speed, taps: tbl.Key.Taps, lt: tbl.Level(speed)}
	adjFrame := tbl.Key.AdjDelay

	maxLR, maxAB := 9, 2
	if adjFrame == 0 {
		maxLR, maxAB = 0, 0
	}

	var conts []contStart
	nonAdj := c.collectFrom(maxLR, maxAB, PosStart.R, PosStart.Y, 0, adjFrame, &conts)

	// merge continuation starts by position, keeping the earliest frame
	sort.Slice(conts, func(i, j int) bool {
		if conts[i].pos != conts[j].pos {
			return conts[i].pos.Less(conts[j].pos)
		}
		return conts[i].frame < conts[j].frame
	})
	conts = lo.UniqBy(conts, func(s contStart) Position { return s.pos })

	moves := PossibleMoves{NonAdj: normalize(nonAdj)}
	for _, s := range conts {
		finals := c.collectFrom(9, 2, s.pos.R, s.pos.Y, s.frame, kFinish, nil)
		moves.Adj = append(moves.Adj, AdjPlacement{Initial: s.pos, Frame: s.frame, Final: normalize(finals)})
	}
	return moves
}

func normalize(ps []Position) []Position {
	ps = lo.Uniq(ps)
	sort.Slice(ps, func(i, j int) bool { return ps[i].Less(ps[j]) })
	return ps
}

// Empty reports whether the search found no placement at all (top-out).
func (m *PossibleMoves) Empty() bool {
	return len(m.NonAdj) == 0 && len(m.Adj) == 0
}
