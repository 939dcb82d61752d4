package rules

import "fmt"

// A TapSequence is the autotapper cadence: the frame index of each of
// ten consecutive taps, relative to piece spawn. Successive taps must
// be at least two frames apart (press, release).
type TapSequence [10]int

// Named cadences. The reward shaper and the observation encoder key
// off taps[3] and taps[4], so these literals are load-bearing.
func Tap30Hz() TapSequence { return TapSequence{0, 2, 4, 6, 8, 10, 12, 14, 16, 18} }
func Tap24Hz() TapSequence { return TapSequence{0, 3, 5, 8, 10, 13, 15, 18, 20, 23} }
func Tap20Hz() TapSequence { return TapSequence{0, 3, 6, 9, 12, 15, 18, 21, 24, 27} }
func Tap15Hz() TapSequence { return TapSequence{0, 4, 8, 12, 16, 20, 24, 28, 32, 36} }
func Tap12Hz() TapSequence { return TapSequence{0, 5, 10, 15, 20, 25, 30, 35, 40, 45} }
func Tap10Hz() TapSequence { return TapSequence{0, 6, 12, 18, 24, 30, 36, 42, 48, 54} }

// Tap30HzSlow is the "slow 5-tap" cadence: four fast taps, then the
// tapper falls back to slow single taps.
func Tap30HzSlow() TapSequence { return TapSequence{0, 2, 4, 6, 30, 34, 38, 42, 46, 50} }

// ValidateTapSequence checks the gap invariant on a caller-supplied
// cadence.
func ValidateTapSequence(taps []int) error {
	if len(taps) != 10 {
		return fmt.Errorf("rules: tap sequence length should be 10, got %d", len(taps))
	}
	if taps[0] < 0 {
		return fmt.Errorf("rules: tap sequence starts before spawn: %d", taps[0])
	}
	for i := 1; i < len(taps); i++ {
		if taps[i]-taps[i-1] < 2 {
			return fmt.Errorf("rules: invalid tap sequence: gap %d at index %d", taps[i]-taps[i-1], i)
		}
	}
	return nil
}
