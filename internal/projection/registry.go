package projection

import (
	"sync"
	"time"

	"church-attendance-backend/internal/store"
)

// Set bundles the church-scoped projections one signed-in church works
// against.
type Set struct {
	Roster *Roster
	Teams  *Teams
}

// Registry lazily starts and caches projections per church. The attendance
// ledger is global and shared by every church; rosters and team directories
// are scoped and started on first use.
type Registry struct {
	store   store.Store
	timeout time.Duration
	ledger  *Ledger

	mu   sync.Mutex
	sets map[string]*Set
}

// NewRegistry creates a registry over the given store. The timeout bounds
// every projection's wait for its first feed snapshot. Start must be called
// before use.
func NewRegistry(st store.Store, timeout time.Duration) *Registry {
	return &Registry{
		store:   st,
		timeout: timeout,
		ledger:  NewLedger(st, timeout),
		sets:    make(map[string]*Set),
	}
}

// Start begins the shared attendance subscription
func (r *Registry) Start() error {
	return r.ledger.Start()
}

// Ledger returns the shared attendance ledger
func (r *Registry) Ledger() *Ledger {
	return r.ledger
}

// ForChurch returns the projection set for a church, starting its
// subscriptions on first access.
func (r *Registry) ForChurch(church string) (*Set, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if set, ok := r.sets[church]; ok {
		return set, nil
	}

	roster := NewRoster(r.store, church, r.timeout)
	if err := roster.Start(); err != nil {
		return nil, err
	}
	teams := NewTeams(r.store, church, r.timeout)
	if err := teams.Start(); err != nil {
		roster.Stop()
		return nil, err
	}

	set := &Set{Roster: roster, Teams: teams}
	r.sets[church] = set
	return set, nil
}

// Close stops every subscription the registry owns
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.ledger.Stop()
	for _, set := range r.sets {
		set.Roster.Stop()
		set.Teams.Stop()
	}
	r.sets = make(map[string]*Set)
}
