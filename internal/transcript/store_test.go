package transcript

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAbsentFileStartsEmpty(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "missing.json"))
	require.Equal(t, 0, s.Len())
}

func TestLoadCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := Load(path)
	require.Equal(t, 0, s.Len())
}

func TestAppendRewritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.json")

	s := Load(path)
	require.NoError(t, s.Append("q1", "r1"))
	require.NoError(t, s.Append("q2", "r2"))

	reloaded := Load(path)
	entries := reloaded.Entries()
	require.Len(t, entries, 2)
	require.Equal(t, Entry{Question: "q1", Response: "r1"}, entries[0])
	require.Equal(t, Entry{Question: "q2", Response: "r2"}, entries[1])
}

func TestAppendToUnwritablePathFails(t *testing.T) {
	s := Load(filepath.Join(t.TempDir(), "no", "such", "dir", "history.json"))
	err := s.Append("q", "r")
	require.Error(t, err)

	// The exchange is still kept in memory for this run.
	require.Equal(t, 1, s.Len())
}
