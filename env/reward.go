package env

import (
	"fmt"
	"math"

	"github.com/BetaTetris/betatetris-tablebase/movegen"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

const (
	invalidReward      = -0.3
	noroRawMultiplier  = 0.2
	bottomMultiplier   = 1.1
	gameOverMultiplier = 1.0 / 16
	gameOverReward     = -1.0
)

// rewardMultiplier converts NES score units into reward units: ten
// reward per maxout normally, twenty under tetris-only training.
func (e *Env) rewardMultiplier() float64 {
	if e.cfg.TetrisOnly {
		return 2e-5
	}
	return 1e-5
}

// overProb is the empirical per-line death rate, indexed by phase
// (pre-19, pre-29, post-29), tap mode and adjustment-delay mode. At the
// lowest rate (0.007) the survival chance over 100 lines is about half.
var overProb = [3][7][6]float64{
	{{0.032, 0.029, 0.029, 0.027, 0.027, 0.023},
		{0.039, 0.036, 0.035, 0.036, 0.034, 0.026},
		{0.044, 0.039, 0.038, 0.039, 0.038, 0.028},
		{0.046, 0.041, 0.038, 0.037, 0.038, 0.032},
		{0.044, 0.043, 0.04, 0.04, 0.037, 0.031},
		{0.047, 0.042, 0.044, 0.041, 0.039, 0.029},
		{0.042, 0.038, 0.038, 0.037, 0.037, 0.027}},
	{{0.021, 0.018, 0.018, 0.017, 0.016, 0.016},
		{0.029, 0.026, 0.024, 0.023, 0.021, 0.02},
		{0.035, 0.03, 0.028, 0.029, 0.024, 0.023},
		{0.045, 0.036, 0.032, 0.033, 0.029, 0.028},
		{0.045, 0.036, 0.035, 0.032, 0.03, 0.032},
		{0.046, 0.037, 0.04, 0.036, 0.032, 0.031},
		{0.038, 0.032, 0.029, 0.029, 0.025, 0.023}},
	{{0.007, 0.007, 0.007, 0.007, 0.007, 0.007},
		{0.007, 0.007, 0.007, 0.007, 0.007, 0.007},
		{0.01, 0.009, 0.009, 0.009, 0.009, 0.009},
		{0.02, 0.015, 0.016, 0.016, 0.016, 0.015},
		{0.027, 0.02, 0.02, 0.019, 0.019, 0.019},
		{0.036, 0.024, 0.023, 0.022, 0.024, 0.024},
		{0.014, 0.012, 0.011, 0.011, 0.012, 0.012}},
}

// tapModeOf classifies a cadence by its fourth and fifth tap frames.
// Only the canonical cadences are classifiable.
func tapModeOf(taps rules.TapSequence) int {
	switch taps[3] {
	case 6:
		if taps[4] <= 10 {
			return 5
		}
		return 6
	case 8:
		return 4
	case 9:
		return 3
	case 12:
		return 2
	case 15:
		return 1
	case 18:
		return 0
	}
	panic(fmt.Sprintf("env: unexpected tap sequence %v", taps))
}

func adjModeOf(adjDelay int) int {
	switch adjDelay {
	case 0:
		return 0
	case 18:
		return 1
	case 21:
		return 2
	case 24:
		return 3
	case 30:
		return 4
	case 61:
		return 5
	}
	panic(fmt.Sprintf("env: unexpected adjustment delay %d", adjDelay))
}

// shapeReward turns a raw step outcome into the learner's reward
// record. The standard path mirrors the training schedule: at
// aggression 0 burns are discounted and charged with the expected
// survival cost from overProb, with a simulated topout under
// skip-unique-initial; at higher aggression the step reward is scaled
// per phase instead. Tetris-only overrides stack on top.
func (e *Env) shapeReward(pos movegen.Position, score, lines int) Reward {
	if score == -1 {
		return Reward{Shaped: invalidReward, LiveProb: 1}
	}
	if e.noro != nil {
		return e.shapeNoroReward(lines)
	}

	t := e.rot
	km := e.rewardMultiplier()
	reward := float64(score) * km
	nReward := reward
	nStepReward := e.stepReward
	bottomMul := bottomMultiplier
	liveProb := 1.0
	overReward := 0.0
	taps := t.TapSequence()
	tap4 := taps[3]

	if e.stepRewardLevel == 0 {
		nowLines := t.Lines()
		tapMode := tapModeOf(taps)
		adjMode := adjModeOf(t.AdjDelay())
		// aggressive: reduce burn reward for levels capable of consistent tetris
		if lines != 4 && !(t.LevelSpeed() == rules.Level39 ||
			(t.LevelSpeed() == rules.Level29 && tap4 >= 12)) {
			nReward *= 0.1
		}
		penalty18 := int(math.Max(overProb[0][tapMode][adjMode]-0.01, 0) * 60000)
		penalty19 := int(math.Max(overProb[1][tapMode][adjMode]-0.01, 0) * 30000)
		penalty29 := int(math.Max(overProb[2][tapMode][adjMode]-0.01, 0) * 15000)
		// give negative reward and random topouts for burning
		penalty := 0
		if lines != 0 && lines != 4 {
			for i := nowLines - lines; i < nowLines; i++ {
				switch {
				case i <= 124:
					liveProb *= 1 - overProb[0][tapMode][adjMode]
					penalty += penalty18
				case i <= 224:
					liveProb *= 1 - overProb[1][tapMode][adjMode]
					penalty += penalty19
				case i <= 320:
					liveProb *= 1 - overProb[2][tapMode][adjMode]
					penalty += penalty29
				}
			}
			adjustedOverProb := 1 - math.Pow(liveProb, e.burnOverMultiplier)
			if e.skipUniqueInitial && e.rng.Float64() < adjustedOverProb {
				t.ForceOver()
			}
		}
		// prevent intentional topout by providing game over penalty
		if t.IsOver() {
			burnPenalty := penalty
			penalty += penalty18 * (124 - min(124, nowLines))
			penalty += penalty19 * (224 - min(224, max(124, nowLines)))
			penalty += penalty29 * (320 - min(320, max(224, nowLines)))
			penalty = int(float64(penalty) * 1.05)
			overReward = -float64(penalty-burnPenalty) * km
		}
		nReward -= float64(penalty) * km
		nStepReward = 0
	} else {
		multiplier18, multiplier19, multiplier29, multiplier39 := 1.0, 1.0, 1.0, 1.0
		noScale29, noScale39 := false, false
		nowPieces := t.Pieces()
		strong := e.stepRewardLevel == 2
		switch {
		case tap4 <= 6: // 30 Hz
			multiplier18 = pick(strong, 0.2, 0.0)
			multiplier19 = pick(strong, 0.2, 0.0)
			if taps[4] <= 10 {
				multiplier29 = pick(strong, 1.0, 0.2)
			} else {
				multiplier29 = pick(strong, 1.0, 0.4)
			}
			noScale39 = strong
			if nowPieces <= 330*10/4 {
				multiplier39 = pick(strong, 1.5, 2.5)
			}
		case tap4 <= 8: // 24 Hz
			multiplier18 = pick(strong, 0.2, 0.0)
			multiplier19 = pick(strong, 0.2, 0.0)
			multiplier29 = pick(strong, 1.0, 0.3)
			noScale39 = strong
		case tap4 <= 10: // 20 Hz
			multiplier18 = pick(strong, 0.2, 0.0)
			multiplier19 = pick(strong, 0.2, 0.0)
			multiplier29 = pick(strong, 1.0, 0.5)
		case tap4 <= 12: // 15 Hz
			multiplier18 = pick(strong, 0.25, 0.0)
			multiplier19 = pick(strong, 0.3, 0.0)
			noScale29 = strong
			if nowPieces <= 230*10/4 {
				multiplier29 = pick(strong, 1.5, 2.5)
			}
		case tap4 <= 16: // 12 Hz
			multiplier18 = pick(strong, 0.35, 0.0)
			multiplier19 = pick(strong, 0.5, 0.1)
			noScale29 = strong
		default:
			multiplier18 = pick(strong, 0.4, 0.0)
			multiplier19 = pick(strong, 0.7, 0.2)
		}
		switch {
		case nowPieces <= 120*10/4:
			nStepReward *= multiplier18
		case nowPieces <= 220*10/4:
			nStepReward *= multiplier19
		case nowPieces <= 314*10/4:
			nStepReward *= multiplier29
		default:
			nStepReward *= multiplier39
		}
		// scale reward to avoid large step reward get higher
		if (noScale39 && t.LevelSpeed() == rules.Level39) ||
			(noScale29 && (t.LevelSpeed() == rules.Level29 || t.LevelSpeed() == rules.Level39)) {
			nReward = float64(rules.ScoreFromLevel(t.Level(), 1)*lines) * km
			bottomMul = 1.0
		}
		nReward *= (2800 * km) / (2800*km + nStepReward)
	}

	if lines == 4 && pos.X >= 18 {
		nReward *= bottomMul
	}
	if !t.IsAdj() {
		e.nextPiece = e.genNextPiece(e.nextPiece)
		// scale step reward
		nReward += nStepReward * float64(t.Level()+1) / 30
	}
	if e.cfg.TetrisOnly {
		if lines != 0 && lines != 4 {
			nReward *= gameOverMultiplier
		}
		if t.IsOver() {
			nReward += gameOverReward
			overReward = gameOverReward
		}
	}
	return Reward{Shaped: nReward, Raw: reward, LiveProb: liveProb, Over: overReward}
}

func (e *Env) shapeNoroReward(lines int) Reward {
	t := e.noro
	preLines := t.Lines() - lines
	nReward := e.noroStepReward
	for i := preLines; i < preLines+lines; i++ {
		nReward += math.Exp(NoroLineRewardExp(i, t.StartLevel(), t.DoTuck(), e.nnb))
	}
	e.nextPiece = e.genNextPiece(e.nextPiece)
	return Reward{Shaped: nReward, Raw: float64(lines) * noroRawMultiplier, LiveProb: 1}
}

func pick(cond bool, a, b float64) float64 {
	if cond {
		return a
	}
	return b
}

// The no-rotation per-line reward exponent tables, indexed by
// [doTuck][nnb][speed class].
var (
	noroOffset = [2][2][15]int{
		{ // 0,1,2,3,4,5,6, 7,8, 9, 10-12,13-15, 16-18,19, 29
			{14, 14, 14, 14, 14, 14, 14, 14, 14, 13, 13, 13, 12, 12, 10}, // notuck
			{12, 12, 12, 12, 12, 12, 12, 12, 12, 12, 10, 10, 9, 9, 6},    // notuck, nnb
		}, {
			{21, 21, 21, 21, 21, 21, 21, 19, 19, 19, 19, 19, 12, 12, 11}, // tuck
			{17, 17, 17, 17, 17, 17, 17, 17, 17, 16, 15, 15, 12, 12, 9},  // tuck, nnb
		},
	}
	noroExpMultiplier = [2][2][15]float64{
		{
			{0.33, 0.33, 0.33, 0.33, 0.33, 0.33, 0.33, 0.33, 0.33, 0.35, 0.38, 0.38, 0.38, 0.38, 0.4},
			{0.50, 0.50, 0.50, 0.50, 0.50, 0.50, 0.50, 0.50, 0.50, 0.50, 0.50, 0.50, 0.50, 0.50, 0.50},
		}, {
			{0.16, 0.16, 0.16, 0.16, 0.16, 0.16, 0.16, 0.16, 0.16, 0.18, 0.19, 0.19, 0.24, 0.24, 0.33},
			{0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.20, 0.21, 0.22, 0.22, 0.40, 0.40, 0.45},
		},
	}
	noroMinExp = [2][2][15]float64{
		{
			{-3.0, -3.0, -3.0, -3.0, -3.0, -3.0, -3.0, -3.0, -3.0, -3.0, -3.0, -3.0, -3.0, -3.0, -2.8},
			{-2.8, -2.8, -2.8, -2.8, -2.8, -2.8, -2.8, -2.8, -2.8, -2.8, -2.8, -2.8, -2.8, -2.8, -2.8},
		}, {
			{-3.6, -3.6, -3.6, -3.6, -3.6, -3.6, -3.6, -3.6, -3.6, -3.6, -3.5, -3.5, -3.2, -3.2, -3.0},
			{-3.5, -3.5, -3.5, -3.5, -3.5, -3.5, -3.5, -3.5, -3.5, -3.5, -3.2, -3.2, -2.8, -2.8, -2.2},
		},
	}
)

// NoroLineRewardExp returns the reward exponent of clearing absolute
// line number `lines` in a no-rotation game.
func NoroLineRewardExp(lines, startLevel int, doTuck, nnb bool) float64 {
	speed := rules.NoroLevelSpeed(startLevel)
	ti, ni := boolIdx(doTuck), boolIdx(nnb)
	v := float64(max(0, lines-noroOffset[ti][ni][speed]))*noroExpMultiplier[ti][ni][speed] + noroMinExp[ti][ni][speed]
	return math.Min(6.0, v)
}

func boolIdx(b bool) int {
	if b {
		return 1
	}
	return 0
}
