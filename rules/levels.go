package rules

// LevelSpeed is the gravity bucket of a level in the standard
// rule-set. Only four speeds matter to the search: 3, 2 and 1 frames
// per row, and the double-speed bucket at level 39+ where the piece
// falls two rows every frame.
type LevelSpeed int

const (
	Level18 LevelSpeed = iota
	Level19
	Level29
	Level39

	NumLevelSpeeds = 4
)

func (l LevelSpeed) String() string {
	switch l {
	case Level18:
		return "18"
	case Level19:
		return "19"
	case Level29:
		return "29"
	case Level39:
		return "39"
	}
	return "?"
}

// LevelSpeedLines[i] is the line count at which speed bucket i begins;
// the final entry is the default line cap.
var LevelSpeedLines = [NumLevelSpeeds + 1]int{0, 130, 230, 330, 430}

// GetLevelByLines implements the NES level curve for a level-18 start:
// the first transition happens at 130 lines, then one level per ten.
func GetLevelByLines(lines int) int {
	if lines < 130 {
		return 18
	}
	return 19 + (lines-130)/10
}

// GetLevelSpeed maps a level to its gravity bucket.
func GetLevelSpeed(level int) LevelSpeed {
	switch {
	case level < 19:
		return Level18
	case level < 29:
		return Level19
	case level < 39:
		return Level29
	}
	return Level39
}

// RowAtFrame gives the row a freely falling piece occupies at the
// given frame, counting from row 0 at frame 0.
func RowAtFrame(speed LevelSpeed, frame int) int {
	switch speed {
	case Level18:
		return frame / 3
	case Level19:
		return frame / 2
	case Level29:
		return frame
	}
	return frame * 2
}

// IsDropFrame reports whether gravity advances the piece after the
// given frame's input window.
func IsDropFrame(speed LevelSpeed, frame int) bool {
	switch speed {
	case Level18:
		return frame%3 == 2
	case Level19:
		return frame%2 == 1
	}
	return true
}

// ---- no-rotation variant curves ----

// NoroLevelByLines implements the NES level curve with a configurable
// start level: the first transition comes at
// min(start*10+10, max(100, start*10-50)) lines, then one level per
// ten lines.
func NoroLevelByLines(lines, startLevel int) int {
	transition := startLevel*10 + 10
	if alt := max(100, startLevel*10-50); alt < transition {
		transition = alt
	}
	if lines < transition {
		return startLevel
	}
	return startLevel + (lines-transition)/10 + 1
}

// NoroLevelSpeed maps a level to the 15-class speed index used by the
// no-rotation tables: levels 0-9 are their own class, then 10-12,
// 13-15, 16-18, 19-28 and 29+.
func NoroLevelSpeed(level int) int {
	switch {
	case level < 0:
		return 0
	case level <= 9:
		return level
	case level <= 12:
		return 10
	case level <= 15:
		return 11
	case level <= 18:
		return 12
	case level <= 28:
		return 13
	}
	return 14
}

// noroFramesPerRow is the NES gravity table collapsed to speed classes.
var noroFramesPerRow = [15]int{48, 43, 38, 33, 28, 23, 18, 13, 8, 6, 5, 4, 3, 2, 1}

// NoroFramesPerRow returns the gravity delay, in frames per row, at
// the given level.
func NoroFramesPerRow(level int) int {
	return noroFramesPerRow[NoroLevelSpeed(level)]
}

// NoroInputsPerRow is the default lateral-input budget per row,
// indexed by speed class.
var NoroInputsPerRow = [15]int{9, 9, 9, 9, 8, 7, 6, 5, 4, 3, 2, 2, 1, 1, 0}
