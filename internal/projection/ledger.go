package projection

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"church-attendance-backend/internal/datekey"
	apperrors "church-attendance-backend/internal/errors"
	"church-attendance-backend/internal/logger"
	"church-attendance-backend/internal/models"
	"church-attendance-backend/internal/store"
)

// Ledger is the projection of the entire attendance tree: one presence map
// per saved date. The tree is global, not church-scoped; member ids from
// other churches or deleted members are simply never looked up.
type Ledger struct {
	store   store.Store
	timeout time.Duration
	log     *logger.Logger

	// nowFn returns the current date key; swapped out in tests
	nowFn func() string

	mu   sync.RWMutex
	days map[string]models.PresenceMap

	sub  store.Subscription
	done chan struct{}
}

// NewLedger creates an attendance ledger projection
func NewLedger(st store.Store, timeout time.Duration) *Ledger {
	return &Ledger{
		store:   st,
		timeout: timeout,
		log:     logger.New().WithField("projection", "ledger"),
		nowFn:   datekey.Today,
		days:    make(map[string]models.PresenceMap),
	}
}

// Start subscribes to the attendance feed, applying the initial snapshot
// before returning. The wait for that snapshot is bounded by the configured
// store timeout.
func (l *Ledger) Start() error {
	sub, err := l.store.Subscribe(store.AttendancePath)
	if err != nil {
		return err
	}

	select {
	case raw, ok := <-sub.Snapshots():
		if ok {
			l.apply(raw)
		}
	case <-time.After(l.timeout):
		sub.Close()
		return apperrors.NewTimeoutError("subscribe " + store.AttendancePath)
	}

	l.sub = sub
	l.done = make(chan struct{})

	go func() {
		defer close(l.done)
		for raw := range sub.Snapshots() {
			l.apply(raw)
		}
	}()
	return nil
}

// Stop cancels the subscription and waits for the feed loop to exit
func (l *Ledger) Stop() {
	if l.sub == nil {
		return
	}
	l.sub.Close()
	<-l.done
}

// Resync replaces the snapshot from a direct read, bypassing the feed
func (l *Ledger) Resync(ctx context.Context) error {
	raw, err := l.store.Get(ctx, store.AttendancePath)
	if err != nil {
		return err
	}
	l.apply(raw)
	return nil
}

func (l *Ledger) apply(raw json.RawMessage) {
	days := make(map[string]models.PresenceMap)
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &days); err != nil {
			l.log.Warnf("discarding malformed attendance feed snapshot: %v", err)
			return
		}
	}

	l.mu.Lock()
	l.days = days
	l.mu.Unlock()
}

// DatesKnown returns every saved date key in ascending order, with today's
// key placed first when no attendance has been saved for it yet. Today is
// always a valid candidate date and never appears twice.
func (l *Ledger) DatesKnown() []string {
	today := l.nowFn()

	l.mu.RLock()
	keys := make([]string, 0, len(l.days)+1)
	todaySaved := false
	for key := range l.days {
		keys = append(keys, key)
		if key == today {
			todaySaved = true
		}
	}
	l.mu.RUnlock()

	sort.Strings(keys)
	if !todaySaved {
		keys = append([]string{today}, keys...)
	}
	return keys
}

// SavedDates returns only the dates with a recorded presence map, in
// ascending order
func (l *Ledger) SavedDates() []string {
	l.mu.RLock()
	keys := make([]string, 0, len(l.days))
	for key := range l.days {
		keys = append(keys, key)
	}
	l.mu.RUnlock()

	sort.Strings(keys)
	return keys
}

// PresenceFor returns the presence map for a date, empty if never saved.
// The returned map is a copy; callers may mutate it freely.
func (l *Ledger) PresenceFor(dateKey string) models.PresenceMap {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if day, ok := l.days[dateKey]; ok {
		return day.Clone()
	}
	return models.PresenceMap{}
}

// IsPresent reports whether the member was marked present on the date.
// Unknown dates and unlisted members are absent, not errors.
func (l *Ledger) IsPresent(dateKey, memberID string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.days[dateKey][memberID]
}

// HasSaved reports whether any attendance was recorded for the date
func (l *Ledger) HasSaved(dateKey string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	day, ok := l.days[dateKey]
	return ok && len(day) > 0
}

// SetNowFunc overrides the clock used to derive today's date key. Tests
// use this to pin the calendar day.
func (l *Ledger) SetNowFunc(fn func() string) {
	l.nowFn = fn
}
