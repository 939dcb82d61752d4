package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	require := require.New(t)
	s, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(err)
	defer s.Close()

	_, err = s.InsertRun(RunRecord{Mode: "rot", Seed: 1, Score: 1200, Lines: 4, Pieces: 55, BoardHash: 42})
	require.NoError(err)
	_, err = s.InsertRun(RunRecord{Mode: "rot", Seed: 2, Score: 999999, Lines: 230, Pieces: 600, BoardHash: 7})
	require.NoError(err)
	_, err = s.InsertRun(RunRecord{Mode: "noro", Seed: 3, Score: 40, Lines: 1, Pieces: 10, BoardHash: 9})
	require.NoError(err)

	runs, err := s.TopRuns("rot", 10)
	require.NoError(err)
	require.Len(runs, 2)
	require.Equal(999999, runs[0].Score)
	require.Equal(uint64(2), runs[0].Seed)
	require.Equal(1200, runs[1].Score)

	runs, err = s.TopRuns("noro", 10)
	require.NoError(err)
	require.Len(runs, 1)
	require.Equal(uint64(9), runs[0].BoardHash)
}
