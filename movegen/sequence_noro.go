package movegen

import (
	"github.com/BetaTetris/betatetris-tablebase/board"
)

// noroState is a node of the no-rotation input graph: layer encodes
// the direction/tap bookkeeping of the two search modes, g the taps
// already used in the current row.
type noroState struct {
	layer, g, x, y int
}

type noroEdge struct {
	prev noroState
	btn  byte // 0 for a gravity drop
}

// GetFrameSequenceNoro emits the canonical input sequence realizing
// target under no-rotation rules: taps are played as early as possible
// within each row, two frames apart. The returned sequence covers the
// descent to the target row; it is nil when the target is unreachable.
func GetFrameSequenceNoro(b board.Board, piece, inputsPerRow int, doTuck bool, framesPerRow int, target Position) FrameSequence {
	pm := b.PieceMap(piece)[0]
	parents := make(map[noroState]noroEdge)
	var queue []noroState

	push := func(s noroState, from noroState, btn byte) {
		if s.x < 0 || s.x >= board.NumRows || s.y < 0 || s.y >= board.NumCols {
			return
		}
		if !pm.Cell(s.x, s.y) {
			return
		}
		if _, ok := parents[s]; ok {
			return
		}
		parents[s] = noroEdge{prev: from, btn: btn}
		queue = append(queue, s)
	}

	sentinel := noroState{layer: -1}
	if doTuck {
		push(noroState{0, 0, 0, 5}, sentinel, 0)
		push(noroState{0, 1, 0, 4}, sentinel, ButtonLeft)
		push(noroState{0, 1, 0, 6}, sentinel, ButtonRight)
	} else {
		push(noroState{1, 0, 0, 5}, sentinel, 0)
		push(noroState{2, 0, 0, 5}, sentinel, 0)
		push(noroState{1, 1, 0, 4}, sentinel, ButtonLeft)
		push(noroState{2, 1, 0, 6}, sentinel, ButtonRight)
	}

	var hit *noroState
	for len(queue) > 0 && hit == nil {
		s := queue[0]
		queue = queue[1:]
		if s.x == target.X && s.y == target.Y {
			hit = &s
			break
		}
		if doTuck {
			if inputsPerRow > 0 {
				if s.g < inputsPerRow {
					push(noroState{0, s.g + 1, s.x, s.y - 1}, s, ButtonLeft)
					push(noroState{0, s.g + 1, s.x, s.y + 1}, s, ButtonRight)
				}
				push(noroState{0, 0, s.x + 1, s.y}, s, 0)
			} else {
				// g counts a two-row cooldown after a tap
				switch s.g {
				case 0:
					push(noroState{0, 1, s.x, s.y - 1}, s, ButtonLeft)
					push(noroState{0, 1, s.x, s.y + 1}, s, ButtonRight)
					push(noroState{0, 0, s.x + 1, s.y}, s, 0)
				case 1:
					push(noroState{0, 2, s.x + 1, s.y}, s, 0)
				default:
					push(noroState{0, 0, s.x + 1, s.y}, s, 0)
				}
			}
			continue
		}
		rowTaps := inputsPerRow
		if inputsPerRow == 0 {
			rowTaps = 0
			if s.x%2 == 0 {
				rowTaps = 1
			}
		}
		switch s.layer {
		case 1:
			if s.g < rowTaps {
				push(noroState{1, s.g + 1, s.x, s.y - 1}, s, ButtonLeft)
			}
		case 2:
			if s.g < rowTaps {
				push(noroState{2, s.g + 1, s.x, s.y + 1}, s, ButtonRight)
			}
		}
		if s.layer != 0 && s.g == rowTaps {
			push(noroState{s.layer, 0, s.x + 1, s.y}, s, 0)
		}
		push(noroState{0, 0, s.x + 1, s.y}, s, 0)
	}
	if hit == nil {
		return nil
	}

	var inputs []Input
	for s := *hit; s.layer != -1; {
		e := parents[s]
		if e.btn != 0 {
			// the tap that produced this state is tap (g-1) of its row
			inputs = append(inputs, Input{Frame: s.x*framesPerRow + 2*(s.g-1), Buttons: e.btn})
		}
		s = e.prev
	}
	return emit(nil, inputs, (target.X+1)*framesPerRow)
}
