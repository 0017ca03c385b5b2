package store

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestSQLite(t *testing.T) *SQLite {
	t.Helper()

	s, err := OpenSQLite(filepath.Join(t.TempDir(), "blobs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testStores(t *testing.T) map[string]BlobStore {
	return map[string]BlobStore{
		"memory": NewMemory(),
		"sqlite": newTestSQLite(t),
	}
}

func TestBlobStoreRoundTrip(t *testing.T) {
	t.Parallel()

	for name, bs := range testStores(t) {
		bs := bs
		t.Run(name, func(t *testing.T) {
			_, ok, err := bs.Load("missing")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, bs.Save("k", []byte("one")))
			require.NoError(t, bs.Save("k", []byte("two")))

			got, ok, err := bs.Load("k")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "two", string(got))

			require.NoError(t, bs.Remove("k"))
			_, ok, err = bs.Load("k")
			require.NoError(t, err)
			assert.False(t, ok)

			// removing again is fine
			assert.NoError(t, bs.Remove("k"))
		})
	}
}

func TestSQLiteKeys(t *testing.T) {
	t.Parallel()

	s := newTestSQLite(t)
	require.NoError(t, s.Save("b", []byte("1")))
	require.NoError(t, s.Save("a", []byte("2")))

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, keys)
}

func TestJSONHelpers(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	type payload struct {
		N int    `json:"n"`
		S string `json:"s"`
	}

	require.NoError(t, SaveJSON(m, "p", payload{N: 3, S: "x"}))

	var got payload
	ok, err := LoadJSON(m, "p", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, payload{N: 3, S: "x"}, got)

	require.NoError(t, m.Save("bad", []byte("{")))
	ok, err = LoadJSON(m, "bad", &got)
	assert.True(t, ok)
	assert.Error(t, err)
}

func TestMemoryCopiesValues(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	buf := []byte("abc")
	require.NoError(t, m.Save("k", buf))
	buf[0] = 'z'

	got, _, _ := m.Load("k")
	assert.Equal(t, "abc", string(got))
}

type failingStore struct{}

func (failingStore) Load(string) ([]byte, bool, error) { return nil, false, errors.New("boom") }
func (failingStore) Save(string, []byte) error         { return errors.New("boom") }
func (failingStore) Remove(string) error               { return errors.New("boom") }

func TestPreferences(t *testing.T) {
	t.Parallel()

	m := NewMemory()

	p, err := LoadPreferences(m)
	require.NoError(t, err)
	assert.Equal(t, DefaultPreferences(), p)

	require.NoError(t, p.Set("asset", "gbp_usd"))
	require.NoError(t, p.Set("method", "ATR"))
	require.NoError(t, p.Set("stop", "1.5"))
	require.NoError(t, SavePreferences(m, p))

	got, err := LoadPreferences(m)
	require.NoError(t, err)
	assert.Equal(t, "GBP_USD", got.Asset)
	assert.Equal(t, "atr", got.Method)
	assert.Equal(t, 1.5, got.Stop)

	assert.Error(t, p.Set("method", "fib"))
	assert.Error(t, p.Set("units", "-1"))
	assert.Error(t, p.Set("colour", "red"))
}

func TestPreferencesDegradeOnFailure(t *testing.T) {
	t.Parallel()

	p, err := LoadPreferences(failingStore{})
	assert.Error(t, err)
	assert.Equal(t, DefaultPreferences(), p)
}
