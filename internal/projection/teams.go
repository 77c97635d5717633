package projection

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	apperrors "church-attendance-backend/internal/errors"
	"church-attendance-backend/internal/logger"
	"church-attendance-backend/internal/models"
	"church-attendance-backend/internal/store"
)

// Teams is the projection of team (department/ministry) records for one
// church. Team names are not unique; ByName is ambiguous under duplicates
// and exists only for resolving legacy single-team-name member records.
type Teams struct {
	store   store.Store
	church  string
	timeout time.Duration
	log     *logger.Logger

	mu      sync.RWMutex
	ordered []*models.Team
	byID    map[string]*models.Team

	sub  store.Subscription
	done chan struct{}
}

// NewTeams creates a team directory projection scoped to the given church
func NewTeams(st store.Store, church string, timeout time.Duration) *Teams {
	return &Teams{
		store:   st,
		church:  church,
		timeout: timeout,
		log:     logger.New().WithField("projection", "teams").WithField("church", church),
		byID:    make(map[string]*models.Team),
	}
}

// Start subscribes to the team feed, applying the initial snapshot before
// returning. The wait for that snapshot is bounded by the configured store
// timeout.
func (t *Teams) Start() error {
	sub, err := t.store.Subscribe(store.TeamsPath)
	if err != nil {
		return err
	}

	select {
	case raw, ok := <-sub.Snapshots():
		if ok {
			t.apply(raw)
		}
	case <-time.After(t.timeout):
		sub.Close()
		return apperrors.NewTimeoutError("subscribe " + store.TeamsPath)
	}

	t.sub = sub
	t.done = make(chan struct{})

	go func() {
		defer close(t.done)
		for raw := range sub.Snapshots() {
			t.apply(raw)
		}
	}()
	return nil
}

// Stop cancels the subscription and waits for the feed loop to exit
func (t *Teams) Stop() {
	if t.sub == nil {
		return
	}
	t.sub.Close()
	<-t.done
}

// Resync replaces the snapshot from a direct read, bypassing the feed
func (t *Teams) Resync(ctx context.Context) error {
	raw, err := t.store.Get(ctx, store.TeamsPath)
	if err != nil {
		return err
	}
	t.apply(raw)
	return nil
}

func (t *Teams) apply(raw json.RawMessage) {
	nodes := make(map[string]*models.Team)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &nodes); err != nil {
			t.log.Warnf("discarding malformed team feed snapshot: %v", err)
			return
		}
	}

	ordered := make([]*models.Team, 0, len(nodes))
	byID := make(map[string]*models.Team, len(nodes))
	for id, team := range nodes {
		if team == nil || team.Church != t.church {
			continue
		}
		team.ID = id
		ordered = append(ordered, team)
		byID[id] = team
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })

	t.mu.Lock()
	t.ordered = ordered
	t.byID = byID
	t.mu.Unlock()
}

// All returns the current teams in feed order
func (t *Teams) All() []*models.Team {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*models.Team, len(t.ordered))
	copy(out, t.ordered)
	return out
}

// ByID looks up a team by id
func (t *Teams) ByID(id string) (*models.Team, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	team, ok := t.byID[id]
	return team, ok
}

// ByName returns the first team with the given name. Duplicate names are
// permitted, so the result is ambiguous when they exist; callers that care
// about identity must use ids.
func (t *Teams) ByName(name string) (*models.Team, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, team := range t.ordered {
		if team.Name == name {
			return team, true
		}
	}
	return nil, false
}
