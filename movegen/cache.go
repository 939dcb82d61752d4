package movegen

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/BetaTetris/betatetris-tablebase/rules"
)

// The table cache is the only process-wide state in the core. Entries
// are built on first request, never evicted and never mutated after
// insertion, so concurrent games share the returned pointers freely.
var tableCache = struct {
	sync.Mutex
	entries map[TableKey]*TableSet
}{entries: make(map[TableKey]*TableSet)}

// GetTables returns the shared table set for a cadence and adjustment
// delay, building it on first use.
func GetTables(taps rules.TapSequence, adjDelay int) *TableSet {
	key := TableKey{Taps: taps, AdjDelay: adjDelay}
	tableCache.Lock()
	defer tableCache.Unlock()
	if t, ok := tableCache.entries[key]; ok {
		return t
	}
	log.Debug().Ints("taps", taps[:]).Int("adj_delay", adjDelay).Msg("building search tables")
	t := newTableSet(key)
	tableCache.entries[key] = t
	return t
}
