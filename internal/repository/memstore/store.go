// Package memstore is an in-process entity store for development and tests
// (STORAGE_DRIVER=memory). It is not a production store.
//
// Transactions are serialised: WithTx holds the store-wide write lock while
// fn runs against a private copy of the state, and swaps the copy in when fn
// succeeds. Concurrent transactions therefore never race on the
// compare-and-set updates; only the postgres store exercises them under real
// concurrency. Autocommit calls lock per call.
package memstore

import (
	"bytes"
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"campusdrop/internal/domain"
	"campusdrop/internal/ports/storetx"
)

type state struct {
	users         map[uuid.UUID]domain.User
	requests      map[uuid.UUID]domain.Request
	bids          map[uuid.UUID]domain.Bid
	notifications map[uuid.UUID]domain.Notification
	payments      map[uuid.UUID]domain.Payment // keyed by request id
	reviews       map[uuid.UUID]domain.Review
}

func newState() *state {
	return &state{
		users:         make(map[uuid.UUID]domain.User),
		requests:      make(map[uuid.UUID]domain.Request),
		bids:          make(map[uuid.UUID]domain.Bid),
		notifications: make(map[uuid.UUID]domain.Notification),
		payments:      make(map[uuid.UUID]domain.Payment),
		reviews:       make(map[uuid.UUID]domain.Review),
	}
}

func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		requests:      maps.Clone(s.requests),
		bids:          maps.Clone(s.bids),
		notifications: maps.Clone(s.notifications),
		payments:      maps.Clone(s.payments),
		reviews:       maps.Clone(s.reviews),
	}
}

// Store is an in-memory storetx.Store.
type Store struct {
	*queries

	mu  sync.RWMutex
	st  *state
	now func() time.Time
}

var _ storetx.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for updated_at stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New returns an empty Store.
func New(opts ...Option) *Store {
	s := &Store{st: newState(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	s.queries = &queries{store: s}
	return s
}

// newestFirst orders by at descending, then by id, matching
// "ORDER BY created_at DESC, id".
func newestFirst(aAt, bAt time.Time, aID, bID uuid.UUID) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	return bytes.Compare(aID[:], bID[:])
}

// WithTx runs fn on a private copy of the state and publishes it when fn
// returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(q storetx.Queries) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &queries{store: s, tx: s.st.clone()}
	if err := fn(tx); err != nil {
		return err
	}
	s.st = tx.tx
	return nil
}

// queries runs against the transaction copy when tx is set and against the
// shared state under lock otherwise.
type queries struct {
	store *Store
	tx    *state
}

func (q *queries) view(ctx context.Context, fn func(st *state)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.tx != nil {
		fn(q.tx)
		return nil
	}
	q.store.mu.RLock()
	defer q.store.mu.RUnlock()
	fn(q.store.st)
	return nil
}

// update must validate before it mutates since autocommit writes go
// straight to the shared state.
func (q *queries) update(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if q.tx != nil {
		return fn(q.tx)
	}
	q.store.mu.Lock()
	defer q.store.mu.Unlock()
	return fn(q.store.st)
}

func ptr[T any](v T) *T { return &v }
