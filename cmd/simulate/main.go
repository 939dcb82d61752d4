// Command simulate runs random-policy rollouts against the simulator,
// reports aggregate score statistics, and optionally records every run
// into a SQLite database. It doubles as a smoke test of the whole
// pipeline: search, game lifecycle and reward shaping. It does not
// build observation tensors.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gonum.org/v1/gonum/stat"
	"lukechampine.com/frand"

	"github.com/BetaTetris/betatetris-tablebase/board"
	"github.com/BetaTetris/betatetris-tablebase/config"
	"github.com/BetaTetris/betatetris-tablebase/env"
	"github.com/BetaTetris/betatetris-tablebase/game"
	"github.com/BetaTetris/betatetris-tablebase/movegen"
	"github.com/BetaTetris/betatetris-tablebase/rules"
	"github.com/BetaTetris/betatetris-tablebase/storage"
)

var (
	games      = flag.Int("games", 10, "number of games to play")
	seed       = flag.Uint64("seed", 1, "base RNG seed; game i uses seed+i")
	noro       = flag.Bool("noro", false, "play the no-rotation rule-set")
	startLevel = flag.Int("start-level", 18, "start level (no-rotation only)")
	adjDelay   = flag.Int("adj-delay", 18, "adjustment delay in frames")
	maxPieces  = flag.Int("max-pieces", 2000, "hard piece cap per game")
	dbPath     = flag.String("db", "", "record runs into this SQLite database")
)

func main() {
	flag.Parse()
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var store *storage.Store
	if *dbPath != "" {
		store, err = storage.Open(*dbPath)
		if err != nil {
			log.Fatal().Err(err).Msg("opening run store")
		}
		defer store.Close()
	}

	scores := make([]float64, 0, *games)
	lines := make([]float64, 0, *games)
	for i := 0; i < *games; i++ {
		gameSeed := *seed + uint64(i)
		score, lineCount := playOne(cfg, gameSeed)
		scores = append(scores, float64(score))
		lines = append(lines, float64(lineCount))
		log.Info().Uint64("seed", gameSeed).Int("score", score).Int("lines", lineCount).Msg("game over")
		if store != nil {
			mode := "rot"
			if *noro {
				mode = "noro"
			}
			if _, err := store.InsertRun(storage.RunRecord{
				Mode: mode, Seed: gameSeed, Score: score, Lines: lineCount,
			}); err != nil {
				log.Error().Err(err).Msg("recording run")
			}
		}
	}

	mean, std := stat.MeanStdDev(scores, nil)
	lineMean, _ := stat.MeanStdDev(lines, nil)
	fmt.Printf("games=%d score mean=%.1f std=%.1f lines mean=%.1f\n", *games, mean, std, lineMean)
}

func playOne(cfg config.Config, gameSeed uint64) (int, int) {
	e := env.New(cfg, gameSeed)
	if *noro {
		if err := e.ResetNoro(board.Ones, 0, *startLevel, true, false, false, -1, -1); err != nil {
			log.Fatal().Err(err).Msg("reset")
		}
	} else {
		if err := e.ResetRot(board.Ones, 0, rules.Tap30Hz(), *adjDelay, -1, -1, false); err != nil {
			log.Fatal().Err(err).Msg("reset")
		}
	}
	policy := frand.NewCustom(seedKey(gameSeed), 1024, 12)
	for steps := 0; !e.IsOver() && steps < *maxPieces; steps++ {
		pos, ok := pickAction(e, policy)
		if !ok {
			break
		}
		if _, err := e.InputPlacement(pos); err != nil {
			log.Fatal().Err(err).Msg("stepping")
		}
	}
	return e.RunScore(), e.RunLines()
}

func seedKey(seed uint64) []byte {
	key := make([]byte, 32)
	for i := 0; i < 8; i++ {
		key[i] = byte(seed >> (8 * i))
	}
	return key
}

// pickAction samples a uniformly random legal action in learner
// coordinates.
func pickAction(e *env.Env, policy *frand.RNG) (movegen.Position, bool) {
	var actions []movegen.Position
	if e.IsNoro() {
		moves := e.Noro().MoveMap()
		piece := e.Noro().NowPiece()
		for x := 0; x < board.NumRows; x++ {
			for y := 0; y < board.NumCols; y++ {
				if moves.Cell(x, y) {
					pos := movegen.Position{R: 0, X: x, Y: y}
					// present engine cells in learner coordinates
					if e.IsMirror() {
						pos.Y = rules.MirrorCols[piece] - y
					}
					actions = append(actions, pos)
				}
			}
		}
	} else {
		moveMap := e.Rot().MoveMap()
		for r := 0; r < 4; r++ {
			for x := 0; x < board.NumRows; x++ {
				for y := 0; y < board.NumCols; y++ {
					if moveMap[r][x][y] != game.MoveUnreachable {
						actions = append(actions, movegen.Position{R: r, X: x, Y: y})
					}
				}
			}
		}
	}
	if len(actions) == 0 {
		return movegen.Position{}, false
	}
	return actions[policy.Intn(len(actions))], true
}
