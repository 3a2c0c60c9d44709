package cache

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// exerciseStore runs the Store contract against any implementation.
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	// Absent key.
	_, ok, err := s.Get("missing")
	require.NoError(t, err)
	assert.False(t, ok)

	// Put then Get.
	require.NoError(t, s.Put("a_1", []byte("one")))
	require.NoError(t, s.Put("a_2", []byte("two")))
	require.NoError(t, s.Put("b_1", []byte("three")))

	v, ok, err := s.Get("a_1")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), v)

	// Overwrite.
	require.NoError(t, s.Put("a_1", []byte("uno")))
	v, _, err = s.Get("a_1")
	require.NoError(t, err)
	assert.Equal(t, []byte("uno"), v)

	// Delete, including an absent key.
	require.NoError(t, s.Delete("a_1"))
	require.NoError(t, s.Delete("a_1"))
	_, ok, err = s.Get("a_1")
	require.NoError(t, err)
	assert.False(t, ok)

	// DeletePrefix removes only matching keys.
	require.NoError(t, s.Put("a_1", []byte("back")))
	require.NoError(t, s.DeletePrefix("a_"))
	_, ok, _ = s.Get("a_2")
	assert.False(t, ok)
	_, ok, _ = s.Get("b_1")
	assert.True(t, ok)

	// Clear removes everything.
	require.NoError(t, s.Clear())
	_, ok, _ = s.Get("b_1")
	assert.False(t, ok)
}

func TestMemoryStore_Contract(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close() //nolint:errcheck

	exerciseStore(t, s)
}

func TestMemoryStore_GetReturnsCopy(t *testing.T) {
	s := NewMemoryStore()
	require.NoError(t, s.Put("k", []byte("abc")))

	v, _, err := s.Get("k")
	require.NoError(t, err)
	v[0] = 'x'

	again, _, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), again)
}

func TestBoltStore_Contract(t *testing.T) {
	s, err := OpenBoltStore(filepath.Join(t.TempDir(), "cache", "test.db"))
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	exerciseStore(t, s)
}

func TestBoltStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.Put("k", []byte("survives")))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close() //nolint:errcheck

	v, ok, err := s.Get("k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("survives"), v)
}
