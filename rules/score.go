package rules

// lineScores holds the NES base score per simultaneous line clear.
var lineScores = [5]int{0, 40, 100, 300, 1200}

// ScoreFromLevel returns the score awarded for clearing the given
// number of lines at the given (post-clear) level.
func ScoreFromLevel(level, lines int) int {
	return lineScores[lines] * (level + 1)
}

// GameScore returns the NES score delta for clearing `cleared` lines
// when `priorLines` lines were already cleared. The level used is the
// one in effect after the clear, as on the console.
func GameScore(priorLines, cleared int) int {
	return ScoreFromLevel(GetLevelByLines(priorLines+cleared), cleared)
}
