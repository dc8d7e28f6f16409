package service

import (
	"sync"
	"time"

	"github.com/peykeuangan/rekap-pengeluaran-go/internal/domain"
)

// snapshot is the outcome applied for one owner+month.
type snapshot struct {
	gen       uint64
	state     domain.RecapState
	records   []domain.ExpenseRecord
	fetchedAt time.Time
	stale     bool
	err       error
}

type snapshotEntry struct {
	issued   uint64 // last generation handed out by begin
	inflight int
	current  *snapshot
	lastGood *snapshot
}

// snapshotStore keeps the latest applied outcome per key. Every fetch takes
// a generation when it starts; an outcome older than the one already applied
// is dropped, so a slow earlier response cannot overwrite newer state.
type snapshotStore struct {
	mu      sync.Mutex
	entries map[string]*snapshotEntry
}

func newSnapshotStore() *snapshotStore {
	return &snapshotStore{entries: make(map[string]*snapshotEntry)}
}

func (s *snapshotStore) entry(key string) *snapshotEntry {
	e, ok := s.entries[key]
	if !ok {
		e = &snapshotEntry{}
		s.entries[key] = e
	}
	return e
}

// begin registers a fetch for key and returns its generation.
func (s *snapshotStore) begin(key string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	e.issued++
	e.inflight++
	return e.issued
}

// commit applies a successful fetch. The returned snapshot is the one now
// current for key; applied is false when the result was discarded.
// publish, if non-nil, runs with the applied snapshot before the lock is
// released, so anything it writes follows generation order.
func (s *snapshotStore) commit(key string, gen uint64, records []domain.ExpenseRecord, at time.Time, publish func(snapshot)) (snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	e.inflight--
	if e.current != nil && gen < e.current.gen {
		return *e.current, false
	}

	state := domain.RecapLoaded
	if len(records) == 0 {
		state = domain.RecapEmpty
	}
	snap := &snapshot{gen: gen, state: state, records: records, fetchedAt: at}
	e.current = snap
	e.lastGood = snap
	if publish != nil {
		publish(*snap)
	}
	return *snap, true
}

// fail applies a failed fetch. The current snapshot becomes failed and
// carries the last good records of the same key, if any, marked stale.
// publish behaves as in commit.
func (s *snapshotStore) fail(key string, gen uint64, err error, publish func(snapshot)) (snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(key)
	e.inflight--
	if e.current != nil && gen < e.current.gen {
		return *e.current, false
	}

	snap := &snapshot{gen: gen, state: domain.RecapFailed, records: []domain.ExpenseRecord{}, err: err}
	if e.lastGood != nil {
		snap.records = e.lastGood.records
		snap.fetchedAt = e.lastGood.fetchedAt
		snap.stale = true
	}
	e.current = snap
	if publish != nil {
		publish(*snap)
	}
	return *snap, true
}

// state reports loading while a fetch is in flight, otherwise the state of
// the applied outcome. ok is false for keys never fetched.
func (s *snapshotStore) state(key string) (domain.RecapState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return "", false
	}
	if e.inflight > 0 {
		return domain.RecapLoading, true
	}
	if e.current == nil {
		return "", false
	}
	return e.current.state, true
}
