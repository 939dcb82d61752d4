// Package config carries the process-wide knobs of the simulator. The
// values are plain data threaded into game construction; Load reads
// overrides from TETRIS_-prefixed environment variables.
package config

import "github.com/spf13/viper"

// Config is the simulator configuration.
type Config struct {
	// LineCap forces game over once this many lines are cleared.
	LineCap int
	// TetrisOnly ends the game on any non-tetris line clear and
	// switches the reward shaper to the tetris-only schedule.
	TetrisOnly bool
	// RealisticRNG selects the counter-indexed piece transition table
	// instead of the default one.
	RealisticRNG bool
	// Debug enables debug-level logging.
	Debug bool
}

// DefaultConfig returns the standard training configuration.
func DefaultConfig() Config {
	return Config{LineCap: 430}
}

// Load builds a Config from defaults and the environment.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("tetris")
	v.AutomaticEnv()
	v.SetDefault("line_cap", 430)
	v.SetDefault("tetris_only", false)
	v.SetDefault("realistic_rng", false)
	v.SetDefault("debug", false)
	for _, key := range []string{"line_cap", "tetris_only", "realistic_rng", "debug"} {
		if err := v.BindEnv(key); err != nil {
			return Config{}, err
		}
	}
	return Config{
		LineCap:      v.GetInt("line_cap"),
		TetrisOnly:   v.GetBool("tetris_only"),
		RealisticRNG: v.GetBool("realistic_rng"),
		Debug:        v.GetBool("debug"),
	}, nil
}
