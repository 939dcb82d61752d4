package board

import "github.com/BetaTetris/betatetris-tablebase/rules"

// PieceMap computes, for every rotation of a piece, the set of origins
// (x, y) at which the piece fits entirely into empty cells. Origins
// whose cells poke above the top of the field are allowed (rows above
// the field count as empty); origins whose cells leave the field left,
// right or below do not fit.
//
// The returned boards are the search's working representation: bit set
// at (x, y) means "this placement is collision-free".
func (b Board) PieceMap(piece int) []Board {
	shapes := rules.PieceShapes[piece]
	out := make([]Board, len(shapes))
	for r, shape := range shapes {
		m := Ones
		for x := 0; x < NumRows; x++ {
			var row uint16
			for y := 0; y < NumCols; y++ {
				if b.fits(shape, x, y) {
					row |= 1 << uint(y)
				}
			}
			m.setRow(x, row)
		}
		out[r] = m
	}
	return out
}

func (b Board) fits(shape [4]rules.Offset, x, y int) bool {
	for _, o := range shape {
		nx, ny := x+o.DX, y+o.DY
		if ny < 0 || ny >= NumCols || nx >= NumRows {
			return false
		}
		if nx >= 0 && !b.Cell(nx, ny) {
			return false
		}
	}
	return true
}
