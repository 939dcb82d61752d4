package env

import (
	"errors"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/rules"
)

// ResetOptions is the boundary-level reset request. The rule-set is
// chosen by which fields are present: a tap sequence selects the
// standard rules, a start level the no-rotation ones; setting both is
// an error, setting neither keeps the current mode with its defaults.
type ResetOptions struct {
	Board *board.Board
	Lines int
	// -1 draws from the generator.
	NowPiece  int
	NextPiece int

	// standard rule-set
	TapSequence        []int
	AdjDelay           *int
	BurnOverMultiplier *float64
	Aggression         *int
	SkipUniqueInitial  bool

	// no-rotation rule-set
	StartLevel *int
	DoTuck     *bool
	NNB        *bool
	Mirror     *bool
}

// Reset applies a boundary reset request.
func (e *Env) Reset(opts ResetOptions) error {
	if opts.TapSequence != nil && opts.StartLevel != nil {
		return errors.New("env: tap sequence and start level are mutually exclusive")
	}
	b := board.Ones
	if opts.Board != nil {
		b = *opts.Board
	}
	if opts.StartLevel != nil || (opts.TapSequence == nil && e.noro != nil) {
		startLevel := 0
		if opts.StartLevel != nil {
			startLevel = *opts.StartLevel
		}
		doTuck := true
		if opts.DoTuck != nil {
			doTuck = *opts.DoTuck
		}
		nnb := false
		if opts.NNB != nil {
			nnb = *opts.NNB
		}
		mirror := false
		if opts.Mirror != nil {
			mirror = *opts.Mirror
		}
		return e.ResetNoro(b, opts.Lines, startLevel, doTuck, nnb, mirror, opts.NowPiece, opts.NextPiece)
	}

	taps := rules.Tap30Hz()
	if opts.TapSequence != nil {
		if err := rules.ValidateTapSequence(opts.TapSequence); err != nil {
			return err
		}
		copy(taps[:], opts.TapSequence)
	}
	adjDelay := 18
	if opts.AdjDelay != nil {
		adjDelay = *opts.AdjDelay
	}
	if err := e.ResetRot(b, opts.Lines, taps, adjDelay, opts.NowPiece, opts.NextPiece, opts.SkipUniqueInitial); err != nil {
		return err
	}
	if opts.Aggression != nil && !e.cfg.TetrisOnly {
		if err := e.SetAggression(*opts.Aggression); err != nil {
			return err
		}
	}
	if opts.BurnOverMultiplier != nil {
		if err := e.SetBurnOverMultiplier(*opts.BurnOverMultiplier); err != nil {
			return err
		}
	}
	return nil
}
