package seen

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemoryAddAndSeen(t *testing.T) {
	t.Parallel()

	m := NewMemory(10)

	ok, err := m.Seen("a")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, m.Add("a"))
	require.NoError(t, m.Add("a")) // idempotent

	ok, err = m.Seen("a")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestMemoryEvictsOldestBeyondLimit(t *testing.T) {
	t.Parallel()

	m := NewMemory(3)
	for i := 0; i < 5; i++ {
		require.NoError(t, m.Add(fmt.Sprintf("id%d", i)))
	}

	for i, want := range []bool{false, false, true, true, true} {
		ok, err := m.Seen(fmt.Sprintf("id%d", i))
		require.NoError(t, err)
		require.Equal(t, want, ok, "id%d", i)
	}
}

func TestSQLiteRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "seen.db")
	s, err := Open(path, 100)
	require.NoError(t, err)

	ok, err := s.Seen("abc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, s.Add("abc"))
	require.NoError(t, s.Add("abc"))

	ok, err = s.Seen("abc")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, s.Close())

	// State survives reopening.
	s2, err := Open(path, 100)
	require.NoError(t, err)
	defer s2.Close()

	ok, err = s2.Seen("abc")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestSQLitePrunesToLimit(t *testing.T) {
	t.Parallel()

	s, err := Open(filepath.Join(t.TempDir(), "seen.db"), 3)
	require.NoError(t, err)
	defer s.Close()

	for i := 0; i < 6; i++ {
		require.NoError(t, s.Add(fmt.Sprintf("id%d", i)))
	}

	ok, err := s.Seen("id0")
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = s.Seen("id5")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open("  ", 10)
	require.Error(t, err)
}
