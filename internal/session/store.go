// Package session holds the parsed statement for each caller as an immutable
// snapshot that a new upload replaces wholesale.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/cleared-dev/stmt2tally/internal/model"
)

// ErrStale is returned when an upload finishes after a newer one was committed.
var ErrStale = errors.New("a newer upload has already been committed")

// Store tracks upload generations and the last committed snapshot.
// Snapshots handed out by Current must be treated as read-only.
type Store struct {
	mu        sync.Mutex
	issued    uint64
	committed uint64
	current   *model.Statement
	cancel    context.CancelFunc
	lastUsed  time.Time
	now       func() time.Time
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return newStore(time.Now)
}

func newStore(now func() time.Time) *Store {
	return &Store{lastUsed: now(), now: now}
}

// Begin tags a new upload with the next generation and returns a context
// derived from ctx that is cancelled as soon as a newer upload begins.
func (s *Store) Begin(ctx context.Context) (uint64, context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.issued++
	s.lastUsed = s.now()
	return s.issued, ctx
}

// Abort releases the context of upload gen if it is still the newest.
func (s *Store) Abort(gen uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.release(gen)
}

func (s *Store) release(gen uint64) {
	if gen == s.issued && s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Commit publishes a snapshot built from txns for upload gen. Only the most
// recently begun upload may commit; any other gets ErrStale and the current
// snapshot is left alone, even if the newer upload later fails.
func (s *Store) Commit(gen uint64, source string, textBytes int, txns []model.Transaction) (*model.Statement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.issued || gen <= s.committed {
		return nil, ErrStale
	}
	s.release(gen)

	stmt := &model.Statement{
		ID:           uuid.NewString(),
		Generation:   gen,
		Source:       source,
		TextBytes:    textBytes,
		Transactions: append([]model.Transaction(nil), txns...),
		ParsedAt:     s.now().UTC(),
	}
	s.committed = gen
	s.current = stmt
	s.lastUsed = s.now()
	return stmt, nil
}

// Current returns the last committed snapshot, or nil.
func (s *Store) Current() *model.Statement {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = s.now()
	return s.current
}

func (s *Store) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}
