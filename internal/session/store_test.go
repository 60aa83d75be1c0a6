package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/stmt2tally/internal/model"
)

func txns(narrations ...string) []model.Transaction {
	out := make([]model.Transaction, len(narrations))
	for i, n := range narrations {
		out[i] = model.Transaction{Date: "01-01-2024", Narration: n}
	}
	return out
}

func begin(s *Store) uint64 {
	gen, _ := s.Begin(context.Background())
	return gen
}

func TestStore_NewerUploadCancelsOlder(t *testing.T) {
	s := NewStore()
	older, olderCtx := s.Begin(context.Background())
	assert.NoError(t, olderCtx.Err())

	newer, newerCtx := s.Begin(context.Background())
	assert.ErrorIs(t, olderCtx.Err(), context.Canceled)
	assert.NoError(t, newerCtx.Err())

	_, err := s.Commit(older, "old.pdf", 1, txns("old"))
	assert.ErrorIs(t, err, ErrStale)

	_, err = s.Commit(newer, "new.pdf", 1, txns("new"))
	require.NoError(t, err)
	assert.Error(t, newerCtx.Err(), "context released once committed")
}

func TestStore_AbortReleasesContext(t *testing.T) {
	s := NewStore()
	gen, ctx := s.Begin(context.Background())
	s.Abort(gen)
	assert.Error(t, ctx.Err())
	assert.Nil(t, s.Current())
}

func TestStore_CommitReplacesSnapshot(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Current())

	gen := begin(s)
	first, err := s.Commit(gen, "march.pdf", 120, txns("a", "b"))
	require.NoError(t, err)
	assert.Equal(t, uint64(1), first.Generation)
	assert.NotEmpty(t, first.ID)
	assert.Same(t, first, s.Current())

	gen = begin(s)
	second, err := s.Commit(gen, "april.pdf", 80, txns("c"))
	require.NoError(t, err)
	assert.Same(t, second, s.Current())
	assert.Len(t, s.Current().Transactions, 1, "snapshots are replaced, never merged")
	assert.NotEqual(t, first.ID, second.ID)
}

func TestStore_StaleUploadIgnored(t *testing.T) {
	s := NewStore()
	older := begin(s)
	newer := begin(s)

	_, err := s.Commit(newer, "new.pdf", 1, txns("new"))
	require.NoError(t, err)

	_, err = s.Commit(older, "old.pdf", 1, txns("old"))
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, "new.pdf", s.Current().Source)
}

func TestStore_OlderUploadFinishingFirstIsStale(t *testing.T) {
	s := NewStore()
	older := begin(s)
	newer := begin(s)

	_, err := s.Commit(older, "old.pdf", 1, txns("old"))
	assert.ErrorIs(t, err, ErrStale)
	assert.Nil(t, s.Current())

	_, err = s.Commit(newer, "new.pdf", 1, txns("new"))
	require.NoError(t, err)
	assert.Equal(t, "new.pdf", s.Current().Source)
}

func TestStore_FailedNewerUploadKeepsPreviousSnapshot(t *testing.T) {
	s := NewStore()
	_, err := s.Commit(begin(s), "march.pdf", 1, txns("march"))
	require.NoError(t, err)

	older := begin(s)
	newer := begin(s)
	s.Abort(newer)

	_, err = s.Commit(older, "april.pdf", 1, txns("april"))
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, "march.pdf", s.Current().Source)
}

func TestStore_CommitTwiceIsStale(t *testing.T) {
	s := NewStore()
	gen := begin(s)
	_, err := s.Commit(gen, "a.pdf", 1, txns("a"))
	require.NoError(t, err)

	_, err = s.Commit(gen, "b.pdf", 1, txns("b"))
	assert.ErrorIs(t, err, ErrStale)
	assert.Equal(t, "a.pdf", s.Current().Source)
}

func TestStore_CommitCopiesTransactions(t *testing.T) {
	s := NewStore()
	in := txns("a")
	stmt, err := s.Commit(begin(s), "x.pdf", 1, in)
	require.NoError(t, err)

	in[0].Narration = "changed"
	assert.Equal(t, "a", stmt.Transactions[0].Narration)
}

func TestStore_ConcurrentUploads(t *testing.T) {
	s := NewStore()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			gen := begin(s)
			_, _ = s.Commit(gen, "f.pdf", 1, txns("x"))
		}()
	}
	wg.Wait()

	cur := s.Current()
	require.NotNil(t, cur)
	assert.Equal(t, uint64(20), cur.Generation, "the newest generation always wins")
}

func TestManager_GetCreatesAndReuses(t *testing.T) {
	m := NewManager(0)

	id, s := m.Get("")
	require.NotEmpty(t, id)
	require.NotNil(t, s)

	id2, s2 := m.Get(id)
	assert.Equal(t, id, id2)
	assert.Same(t, s, s2)

	id3, s3 := m.Get("unknown")
	assert.NotEqual(t, "unknown", id3)
	assert.NotSame(t, s, s3)
	assert.Equal(t, 2, m.Len())
}

func TestManager_ExpiresIdleSessions(t *testing.T) {
	now := time.Date(2024, 4, 1, 9, 0, 0, 0, time.UTC)
	m := NewManager(time.Hour)
	m.now = func() time.Time { return now }

	id, _ := m.Get("")
	now = now.Add(30 * time.Minute)
	id2, _ := m.Get(id)
	assert.Equal(t, id, id2)

	now = now.Add(2 * time.Hour)
	id3, _ := m.Get(id)
	assert.NotEqual(t, id, id3)
	assert.Equal(t, 1, m.Len(), "expired session swept")
}
