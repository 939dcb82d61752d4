package movegen

import (
	"github.com/BetaTetris/betatetris-tablebase/board"
)

// MoveSearchNoro enumerates lockable cells for the no-rotation
// rule-set. The piece stays in rotation 0 and spawns at column 5; each
// row of descent allows up to inputsPerRow lateral taps (an
// inputsPerRow of zero means one tap every other row). When doTuck is
// off, a piece may only ever tap in one direction, and taps must be
// played as early as possible; the left-only and right-only passes are
// merged. The result is a board with a bit set on every cell the piece
// origin can lock on.
func MoveSearchNoro(b board.Board, piece, inputsPerRow int, doTuck bool) board.Board {
	pm := b.PieceMap(piece)[0]
	var reach [board.NumRows][board.NumCols]bool
	if doTuck {
		states := 3
		if inputsPerRow > 0 {
			states = inputsPerRow + 1
		}
		vis := makeVis(states)
		dfsNoroTuck(0, 0, 5, inputsPerRow, pm, vis)
		dfsNoroTuck(1, 0, 4, inputsPerRow, pm, vis)
		dfsNoroTuck(1, 0, 6, inputsPerRow, pm, vis)
		mergeVis(vis, &reach)
	} else {
		ipr := inputsPerRow
		if ipr < 1 {
			ipr = 1
		}
		vis := makeVis(ipr*2 + 3)
		dfsNoroNoTuck(1, 0, 0, 5, inputsPerRow, pm, vis)
		dfsNoroNoTuck(2, 0, 0, 5, inputsPerRow, pm, vis)
		dfsNoroNoTuck(1, 1, 0, 4, inputsPerRow, pm, vis)
		dfsNoroNoTuck(2, 1, 0, 6, inputsPerRow, pm, vis)
		mergeVis(vis, &reach)
	}

	var grid [board.NumRows][board.NumCols]uint8
	for x := 0; x < board.NumRows; x++ {
		for y := 0; y < board.NumCols; y++ {
			if reach[x][y] && (x == board.NumRows-1 || !reach[x+1][y]) {
				grid[x][y] = 1
			}
		}
	}
	return board.NewFromGrid(&grid)
}

func makeVis(states int) [][board.NumRows][board.NumCols]bool {
	return make([][board.NumRows][board.NumCols]bool, states)
}

func mergeVis(vis [][board.NumRows][board.NumCols]bool, out *[board.NumRows][board.NumCols]bool) {
	for _, layer := range vis {
		for x := 0; x < board.NumRows; x++ {
			for y := 0; y < board.NumCols; y++ {
				if layer[x][y] {
					out[x][y] = true
				}
			}
		}
	}
}

// dfsNoroTuck explores (taps-used-this-row, row, col) states. With a
// zero tap budget the states track a two-row cooldown after each tap.
func dfsNoroTuck(g, x, y, tapsPerRow int, pm board.Board, vis [][board.NumRows][board.NumCols]bool) {
	states := 3
	if tapsPerRow > 0 {
		states = tapsPerRow + 1
	}
	if x < 0 || x >= board.NumRows || y < 0 || y >= board.NumCols || g >= states {
		return
	}
	if !pm.Cell(x, y) || vis[g][x][y] {
		return
	}
	vis[g][x][y] = true
	if tapsPerRow > 0 {
		dfsNoroTuck(g+1, x, y-1, tapsPerRow, pm, vis)
		dfsNoroTuck(g+1, x, y+1, tapsPerRow, pm, vis)
		dfsNoroTuck(0, x+1, y, tapsPerRow, pm, vis)
		return
	}
	if g == 1 {
		dfsNoroTuck(2, x+1, y, tapsPerRow, pm, vis)
		return
	}
	if g == 0 {
		dfsNoroTuck(1, x, y-1, tapsPerRow, pm, vis)
		dfsNoroTuck(1, x, y+1, tapsPerRow, pm, vis)
	}
	dfsNoroTuck(0, x+1, y, tapsPerRow, pm, vis)
}

// dfsNoroNoTuck explores single-direction play: s is the committed
// direction (1 = left, 2 = right, 0 = done tapping), g the taps used
// in the current row. A row's taps must be exhausted before the piece
// may drop while still in its direction state.
func dfsNoroNoTuck(s, g, x, y, tapsPerRow int, pm board.Board, vis [][board.NumRows][board.NumCols]bool) {
	rowTaps := tapsPerRow
	if tapsPerRow == 0 {
		rowTaps = 0
		if x%2 == 0 {
			rowTaps = 1
		}
	}
	if x < 0 || x >= board.NumRows || y < 0 || y >= board.NumCols || g > rowTaps {
		return
	}
	maxTPR := tapsPerRow
	if maxTPR < 1 {
		maxTPR = 1
	}
	id := 0
	switch s {
	case 1:
		id = g + 1
	case 2:
		id = g + 2 + maxTPR
	}
	if !pm.Cell(x, y) || vis[id][x][y] {
		return
	}
	vis[id][x][y] = true
	switch s {
	case 1:
		dfsNoroNoTuck(s, g+1, x, y-1, tapsPerRow, pm, vis)
	case 2:
		dfsNoroNoTuck(s, g+1, x, y+1, tapsPerRow, pm, vis)
	}
	if g == rowTaps {
		dfsNoroNoTuck(s, 0, x+1, y, tapsPerRow, pm, vis)
	}
	dfsNoroNoTuck(0, 0, x+1, y, tapsPerRow, pm, vis)
}
