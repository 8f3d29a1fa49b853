package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(b Backend) ([]string, map[string]int) {
	var keys []string
	values := map[string]int{}
	b.ForEach(func(uri string, score int) {
		keys = append(keys, uri)
		values[uri] = score
	})
	return keys, values
}

func TestBackends(t *testing.T) {
	for _, driver := range []string{"json", "sqlite"} {
		t.Run(driver, func(t *testing.T) {
			location := filepath.Join(t.TempDir(), "beatspoints")
			b, err := Open(driver, location)
			require.NoError(t, err)

			_, ok := b.Get("spotify:track:a")
			assert.False(t, ok)

			require.NoError(t, b.Set("spotify:track:b", 2))
			require.NoError(t, b.Set("spotify:track:a", -1))
			require.NoError(t, b.Set("spotify:track:b", 4))

			got, ok := b.Get("spotify:track:b")
			assert.True(t, ok)
			assert.Equal(t, 4, got)

			keys, values := collect(b)
			assert.Equal(t, []string{"spotify:track:b", "spotify:track:a"}, keys)
			assert.Equal(t, map[string]int{"spotify:track:b": 4, "spotify:track:a": -1}, values)
			require.NoError(t, b.Close())

			reopened, err := Open(driver, location)
			require.NoError(t, err)
			defer reopened.Close()
			keys, _ = collect(reopened)
			assert.Equal(t, []string{"spotify:track:b", "spotify:track:a"}, keys)
		})
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open("redis", "x")
	assert.Error(t, err)
}

func TestJSONLenientValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "beatspoints.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"int": 3,
		"str": "7",
		"float": 2.9,
		"prefix": "12abc",
		"junk": "abc",
		"obj": {"score": 1}
	}`), 0644))

	s, err := New(path)
	require.NoError(t, err)
	defer s.Close()

	for uri, want := range map[string]int{"int": 3, "str": 7, "float": 2, "prefix": 12, "junk": 0, "obj": 0} {
		got, ok := s.Get(uri)
		assert.True(t, ok, uri)
		assert.Equal(t, want, got, uri)
	}

	keys, _ := collect(s)
	assert.Equal(t, []string{"int", "str", "float", "prefix", "junk", "obj"}, keys)
}

func TestCorruptFileIsMovedAside(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "beatspoints.json")
	require.NoError(t, os.WriteFile(location, []byte(`{"spotify:track:a": 3,`), 0644))

	b, err := Open("json", location)
	require.NoError(t, err)
	defer b.Close()

	keys, _ := collect(b)
	assert.Empty(t, keys)
	require.NoError(t, b.Set("spotify:track:b", 1))

	aside, err := filepath.Glob(location + ".corrupt.*")
	require.NoError(t, err)
	require.Len(t, aside, 1)
	kept, err := os.ReadFile(aside[0])
	require.NoError(t, err)
	assert.Equal(t, `{"spotify:track:a": 3,`, string(kept))
}
