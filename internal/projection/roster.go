// Package projection holds the in-memory read models synchronized from the
// external store's push feed: the member roster, the team directory and the
// attendance ledger. Each projection owns its subscription lifecycle and
// exposes pull-based snapshots; derived statistics are recomputed from these
// snapshots on demand, never cached.
package projection

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	apperrors "church-attendance-backend/internal/errors"
	"church-attendance-backend/internal/logger"
	"church-attendance-backend/internal/models"
	"church-attendance-backend/internal/store"
)

// Roster is the projection of member records for one church. Every feed
// update replaces the snapshot wholesale; there is no incremental merge.
type Roster struct {
	store   store.Store
	church  string
	timeout time.Duration
	log     *logger.Logger

	mu      sync.RWMutex
	ordered []*models.Member
	byID    map[string]*models.Member

	sub  store.Subscription
	done chan struct{}
}

// NewRoster creates a roster projection scoped to the given church
func NewRoster(st store.Store, church string, timeout time.Duration) *Roster {
	return &Roster{
		store:   st,
		church:  church,
		timeout: timeout,
		log:     logger.New().WithField("projection", "roster").WithField("church", church),
		byID:    make(map[string]*models.Member),
	}
}

// Start subscribes to the member feed. The initial snapshot is applied
// before Start returns, so the projection is warm immediately. The wait for
// that snapshot is bounded by the configured store timeout.
func (r *Roster) Start() error {
	sub, err := r.store.Subscribe(store.MembersPath)
	if err != nil {
		return err
	}

	select {
	case raw, ok := <-sub.Snapshots():
		if ok {
			r.apply(raw)
		}
	case <-time.After(r.timeout):
		sub.Close()
		return apperrors.NewTimeoutError("subscribe " + store.MembersPath)
	}

	r.sub = sub
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)
		for raw := range sub.Snapshots() {
			r.apply(raw)
		}
	}()
	return nil
}

// Stop cancels the subscription and waits for the feed loop to exit
func (r *Roster) Stop() {
	if r.sub == nil {
		return
	}
	r.sub.Close()
	<-r.done
}

// Resync replaces the snapshot from a direct read, bypassing the feed.
// Mutations that must see the full, current roster (attendance saves, team
// cascades) use this rather than trusting the eventually-consistent feed.
func (r *Roster) Resync(ctx context.Context) error {
	raw, err := r.store.Get(ctx, store.MembersPath)
	if err != nil {
		return err
	}
	r.apply(raw)
	return nil
}

func (r *Roster) apply(raw json.RawMessage) {
	nodes := make(map[string]*models.Member)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &nodes); err != nil {
			r.log.Warnf("discarding malformed member feed snapshot: %v", err)
			return
		}
	}

	ordered := make([]*models.Member, 0, len(nodes))
	byID := make(map[string]*models.Member, len(nodes))
	for id, m := range nodes {
		if m == nil || m.Church != r.church {
			continue
		}
		m.ID = id
		ordered = append(ordered, m)
		byID[id] = m
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	r.mu.Lock()
	r.ordered = ordered
	r.byID = byID
	r.mu.Unlock()
}

// All returns the current members in feed order
func (r *Roster) All() []*models.Member {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.Member, len(r.ordered))
	copy(out, r.ordered)
	return out
}

// ByID looks up a member by id
func (r *Roster) ByID(id string) (*models.Member, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.byID[id]
	return m, ok
}

// Size returns the number of members currently in the roster
func (r *Roster) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// FilterByName returns members whose display name contains the query,
// case-insensitively. An empty query matches everyone.
func (r *Roster) FilterByName(query string) []*models.Member {
	q := strings.ToLower(strings.TrimSpace(query))
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*models.Member, 0, len(r.ordered))
	for _, m := range r.ordered {
		if q == "" || strings.Contains(strings.ToLower(m.Name()), q) {
			out = append(out, m)
		}
	}
	return out
}
