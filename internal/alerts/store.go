package alerts

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"weatherdash/internal/ops"
)

// State is the alerts store's observable state.
type State struct {
	Alerts []Alert `json:"alerts"`

	IsLoading        bool          `json:"isLoading"`
	Error            string        `json:"error,omitempty"`
	CurrentOperation ops.Operation `json:"currentOperation,omitempty"`
	DeletingIDs      []string      `json:"deletingIds,omitempty"`

	LastUpdate time.Time `json:"lastUpdate"`
}

// Store owns the client-side copy of the alert list. The list mutates
// optimistically: create appends the returned alert and delete removes by
// id, without refetching.
type Store struct {
	api        API
	staleAfter time.Duration
	now        func() time.Time

	mu       sync.Mutex
	alerts   []Alert
	loading  bool
	errMsg   string
	op       ops.Operation
	deleting map[string]bool
	lastUpd  time.Time
	creating bool

	flights singleflight.Group
}

// NewStore creates an alerts store. staleAfter bounds how long a fetched
// list is considered fresh.
func NewStore(api API, staleAfter time.Duration) *Store {
	return &Store{
		api:        api,
		staleAfter: staleAfter,
		now:        time.Now,
		deleting:   make(map[string]bool),
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]Alert, len(s.alerts))
	copy(list, s.alerts)

	var deleting []string
	for id := range s.deleting {
		deleting = append(deleting, id)
	}

	return State{
		Alerts:           list,
		IsLoading:        s.loading,
		Error:            s.errMsg,
		CurrentOperation: s.op,
		DeletingIDs:      deleting,
		LastUpdate:       s.lastUpd,
	}
}

// StaleAfter reports the store's freshness threshold.
func (s *Store) StaleAfter() time.Duration {
	return s.staleAfter
}

// ShouldRefresh reports whether the list has gone stale.
func (s *Store) ShouldRefresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loading {
		return false
	}
	return ops.IsStale(s.lastUpd, s.staleAfter, s.now())
}

// Fetch loads the alert list. Fresh data short-circuits without network
// I/O; concurrent calls share one request. On failure the prior list stays
// untouched.
func (s *Store) Fetch(ctx context.Context) error {
	s.mu.Lock()
	if s.alerts != nil && !ops.IsStale(s.lastUpd, s.staleAfter, s.now()) {
		s.mu.Unlock()
		return nil
	}
	s.loading = true
	s.errMsg = ""
	s.op = ops.OpAlerts
	s.mu.Unlock()

	_, err, _ := s.flights.Do(string(ops.OpAlerts), func() (interface{}, error) {
		list, err := s.api.List(ctx)

		s.mu.Lock()
		defer s.mu.Unlock()
		s.loading = false
		s.op = ops.OpNone
		if err != nil {
			s.errMsg = err.Error()
			return nil, err
		}
		if list == nil {
			list = []Alert{}
		}
		s.alerts = list
		s.lastUpd = s.now()
		return list, nil
	})
	return err
}

// Create validates the request locally, posts it, and on success appends
// the server's alert to the list without refetching. Validation failures
// touch no state and issue no network call.
func (s *Store) Create(ctx context.Context, req CreateAlertRequest) (Alert, error) {
	if err := req.Validate(); err != nil {
		return Alert{}, err
	}

	s.mu.Lock()
	if s.creating {
		s.mu.Unlock()
		return Alert{}, ops.ErrAlreadyInProgress
	}
	s.creating = true
	s.loading = true
	s.errMsg = ""
	s.op = ops.OpCreate
	s.mu.Unlock()

	created, err := s.api.Create(ctx, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.creating = false
	s.loading = false
	s.op = ops.OpNone
	if err != nil {
		s.errMsg = err.Error()
		return Alert{}, err
	}
	s.alerts = append(s.alerts, created)
	s.lastUpd = s.now()
	return created, nil
}

// Delete removes the alert by id. Only one deletion may be in flight per
// id: a second call for the same id is rejected locally. On failure the
// entry stays and the marker clears so the action can be retried.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if s.deleting[id] {
		s.mu.Unlock()
		return ops.ErrAlreadyInProgress
	}
	s.deleting[id] = true
	s.loading = true
	s.errMsg = ""
	s.op = ops.OpDelete
	s.mu.Unlock()

	err := s.api.Delete(ctx, id)

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.deleting, id)
	s.loading = false
	s.op = ops.OpNone
	if err != nil {
		s.errMsg = err.Error()
		return err
	}
	// Stamp freshness only when the list actually changed; a delete the
	// local list never held leaves the fetched state as-is.
	for i, a := range s.alerts {
		if a.ID == id {
			s.alerts = append(s.alerts[:i], s.alerts[i+1:]...)
			s.lastUpd = s.now()
			break
		}
	}
	return nil
}

// ClearError drops the last recorded failure.
func (s *Store) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errMsg = ""
}

// Invalidate clears the freshness stamp so the next Fetch hits the network.
func (s *Store) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUpd = time.Time{}
}
