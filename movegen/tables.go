package movegen

import (
	"golang.org/x/sync/errgroup"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

// TableKey identifies a precomputed table set: the tap cadence and the
// adjustment delay. Everything else the search needs is per-call.
type TableKey struct {
	Taps     rules.TapSequence
	AdjDelay int
}

// tableFrames covers every frame a piece can still be in flight at any
// speed; later frames fall back to the arithmetic schedule.
const tableFrames = 128

// LevelTable is the per-gravity-bucket schedule, expanded once per
// cache entry: the row a freely falling piece holds at each frame,
// whether gravity advances after it, and the frame free fall passes
// each row (the lock deadline of a placement resting there). The
// search and the sequence generators read rows from here instead of
// re-deriving the division ladder per frame.
type LevelTable struct {
	Speed rules.LevelSpeed

	rows [tableFrames]int16
	drop [tableFrames]bool
	lock [board.NumRows]int
}

// RowAt gives the free-fall row at a frame.
func (t *LevelTable) RowAt(frame int) int {
	if frame < tableFrames {
		return int(t.rows[frame])
	}
	return rules.RowAtFrame(t.Speed, frame)
}

// DropAt reports whether gravity advances after the frame's input
// window.
func (t *LevelTable) DropAt(frame int) bool {
	if frame < tableFrames {
		return t.drop[frame]
	}
	return rules.IsDropFrame(t.Speed, frame)
}

// LockFrame is the first frame at which free fall has passed the given
// row; a placement resting on that row locks by then.
func (t *LevelTable) LockFrame(row int) int {
	return t.lock[row]
}

// TableSet is one cache entry: immutable after construction, shared by
// every game using the same cadence and delay.
type TableSet struct {
	Key    TableKey
	Levels [rules.NumLevelSpeeds]LevelTable
}

func newTableSet(key TableKey) *TableSet {
	t := &TableSet{Key: key}
	var g errgroup.Group
	for i := 0; i < rules.NumLevelSpeeds; i++ {
		i := i
		g.Go(func() error {
			speed := rules.LevelSpeed(i)
			lt := &t.Levels[i]
			lt.Speed = speed
			for f := 0; f < tableFrames; f++ {
				lt.rows[f] = int16(rules.RowAtFrame(speed, f))
				lt.drop[f] = rules.IsDropFrame(speed, f)
			}
			for row := 0; row < board.NumRows; row++ {
				f := 0
				for rules.RowAtFrame(speed, f) <= row {
					f++
				}
				lt.lock[row] = f
			}
			return nil
		})
	}
	g.Wait() // builders cannot fail; the group is for the fan-out
	return t
}

// Level returns the table for a gravity bucket.
func (t *TableSet) Level(speed rules.LevelSpeed) *LevelTable {
	return &t.Levels[speed]
}
