package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type blobStore interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
	Keys(ctx context.Context) ([]string, error)
	Close() error
}

func backends(t *testing.T) map[string]func(t *testing.T) blobStore {
	return map[string]func(t *testing.T) blobStore{
		"memory": func(t *testing.T) blobStore { return NewMemoryStore() },
		"sqlite": func(t *testing.T) blobStore {
			s, err := OpenSQLite(filepath.Join(t.TempDir(), "board.db"), "", nil)
			require.NoError(t, err)
			return s
		},
		"badger": func(t *testing.T) blobStore {
			s, err := OpenBadger(InMemoryBadgerConfig())
			require.NoError(t, err)
			return s
		},
	}
}

func TestBlobStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for name, open := range backends(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			defer s.Close()

			_, ok, err := s.Load(ctx, "questions")
			require.NoError(t, err)
			assert.False(t, ok, "absent key must report not found")

			require.NoError(t, s.Save(ctx, "questions", `[{"id":"1"}]`))
			require.NoError(t, s.Save(ctx, "likedQuestions", `{}`))
			v, ok, err := s.Load(ctx, "questions")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, `[{"id":"1"}]`, v)

			require.NoError(t, s.Save(ctx, "questions", `[]`))
			v, _, err = s.Load(ctx, "questions")
			require.NoError(t, err)
			assert.Equal(t, `[]`, v, "save must overwrite")

			keys, err := s.Keys(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"likedQuestions", "questions"}, keys)
		})
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "board.db")

	s, err := OpenSQLite(path, "", nil)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "users:a@example.com", `{"id":"u1"}`))
	require.NoError(t, s.Close())

	s2, err := OpenSQLite(path, "", nil)
	require.NoError(t, err, "reopening must skip applied migrations")
	defer s2.Close()
	v, ok, err := s2.Load(ctx, "users:a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"id":"u1"}`, v)
}

func TestBadgerStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := DefaultBadgerConfig(t.TempDir())
	cfg.GCInterval = 0

	s, err := OpenBadger(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "questions", "[]"))
	require.NoError(t, s.Close())

	s2, err := OpenBadger(cfg)
	require.NoError(t, err)
	defer s2.Close()
	v, ok, err := s2.Load(ctx, "questions")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "[]", v)
}

func TestBadgerConfigValidation(t *testing.T) {
	_, err := OpenBadger(BadgerConfig{})
	assert.Error(t, err, "persistent config without path")

	cfg := DefaultBadgerConfig(t.TempDir())
	cfg.GCDiscardRatio = 2
	_, err = OpenBadger(cfg)
	assert.Error(t, err)
}

func TestBadgerStoreStopsGC(t *testing.T) {
	cfg := DefaultBadgerConfig(t.TempDir())
	s, err := OpenBadger(cfg)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s, err := OpenBadger(InMemoryBadgerConfig())
	require.NoError(t, err)
	defer s.Close()
	assert.Error(t, s.Save(ctx, "k", "v"))
}
