package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"church-attendance-backend/internal/datekey"
	apperrors "church-attendance-backend/internal/errors"
	"church-attendance-backend/internal/logger"
	"church-attendance-backend/internal/projection"
	"church-attendance-backend/internal/stats"
	"church-attendance-backend/internal/store"
)

// AttendanceService manages the marking sheet and derived attendance views.
//
// The sheet is a per-church draft over the saved state: presence for a
// member is the unsaved override when one exists, otherwise the saved flag
// for the selected date. Switching dates discards the draft. Save writes the
// full presence map for the date in one set, built from every roster member
// and keeping previously saved entries whose ids have since left the roster.
type AttendanceService struct {
	store    store.Store
	registry *projection.Registry
	timeout  time.Duration
	nowFn    func() string
	log      *logger.Logger

	mu     sync.Mutex
	sheets map[string]*sheet
}

// sheet is the unsaved marking state for one church.
type sheet struct {
	dateKey   string
	overrides map[string]bool
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(st store.Store, registry *projection.Registry, timeout time.Duration) *AttendanceService {
	return &AttendanceService{
		store:    st,
		registry: registry,
		timeout:  timeout,
		nowFn:    datekey.Today,
		log:      logger.New().WithField("service", "attendance"),
		sheets:   make(map[string]*sheet),
	}
}

// SheetRow represents one member's line on the marking sheet
type SheetRow struct {
	MemberID string `json:"member_id"`
	Name     string `json:"name"`
	Present  bool   `json:"present"`
}

// SheetResponse represents the marking sheet for the selected date
type SheetResponse struct {
	DateKey      string     `json:"date_key"`
	DateLabel    string     `json:"date_label"`
	Saved        bool       `json:"saved"`
	Dirty        bool       `json:"dirty"`
	Rows         []SheetRow `json:"rows"`
	PresentCount int        `json:"present_count"`
	AbsentCount  int        `json:"absent_count"`
	Dates        []string   `json:"dates"`
}

// HistoryEntry represents one saved date with its counts
type HistoryEntry struct {
	DateKey        string `json:"date_key"`
	DateLabel      string `json:"date_label"`
	PresentCount   int    `json:"present_count"`
	AbsentCount    int    `json:"absent_count"`
	PercentPresent int    `json:"percent_present"`
}

// DayDetailResponse lists who was present and absent on one saved date
type DayDetailResponse struct {
	DateKey   string   `json:"date_key"`
	DateLabel string   `json:"date_label"`
	Present   []string `json:"present"`
	Absent    []string `json:"absent"`
}

// DashboardResponse represents the manage-view summary figures
type DashboardResponse struct {
	MemberCount       int `json:"member_count"`
	TeamCount         int `json:"team_count"`
	PresentToday      int `json:"present_today"`
	AverageAttendance int `json:"average_attendance"`
}

// Sheet returns the marking sheet for the church's selected date. On first
// use the sheet opens on today.
func (s *AttendanceService) Sheet(ctx context.Context, church string) (*SheetResponse, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.sheetLocked(church)
	return s.buildSheetLocked(sh, set), nil
}

// SelectDate moves the church's sheet to another known date, discarding any
// unsaved toggles
func (s *AttendanceService) SelectDate(ctx context.Context, church, dateKey string) (*SheetResponse, error) {
	if _, err := datekey.Parse(dateKey); err != nil {
		return nil, apperrors.ErrUnknownDateKey
	}
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	if !s.knownDate(dateKey) {
		return nil, apperrors.ErrUnknownDateKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.sheetLocked(church)
	sh.dateKey = dateKey
	sh.overrides = make(map[string]bool)
	return s.buildSheetLocked(sh, set), nil
}

// Toggle flips one member's presence on the sheet without writing anything
// durable
func (s *AttendanceService) Toggle(ctx context.Context, church, memberID string) (*SheetResponse, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	if _, ok := set.Roster.ByID(memberID); !ok {
		return nil, apperrors.ErrMemberNotFound
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.sheetLocked(church)
	sh.overrides[memberID] = !s.effectiveLocked(sh, memberID)
	return s.buildSheetLocked(sh, set), nil
}

// MarkAll marks every roster member present on the sheet
func (s *AttendanceService) MarkAll(ctx context.Context, church string) (*SheetResponse, error) {
	return s.markEveryone(ctx, church, true)
}

// ClearAll marks every roster member absent on the sheet
func (s *AttendanceService) ClearAll(ctx context.Context, church string) (*SheetResponse, error) {
	return s.markEveryone(ctx, church, false)
}

func (s *AttendanceService) markEveryone(ctx context.Context, church string, present bool) (*SheetResponse, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	sh := s.sheetLocked(church)
	for _, m := range set.Roster.All() {
		sh.overrides[m.ID] = present
	}
	return s.buildSheetLocked(sh, set), nil
}

// Save writes the full presence map for the selected date in one set. The
// map covers every member of the current roster plus previously saved
// entries whose ids are no longer on it, so saving from any view never
// drops history.
func (s *AttendanceService) Save(ctx context.Context, church string) (*SheetResponse, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	sh := s.sheetLocked(church)
	dateKey := sh.dateKey

	day := s.registry.Ledger().PresenceFor(dateKey)
	for _, m := range set.Roster.All() {
		day[m.ID] = s.effectiveLocked(sh, m.ID)
	}
	s.mu.Unlock()

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if err := s.store.Set(callCtx, store.DayPath(dateKey), day); err != nil {
		return nil, wrapStoreError("save attendance", err)
	}
	if err := s.registry.Ledger().Resync(callCtx); err != nil {
		s.log.Warnf("ledger resync after save failed: %v", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// The mutex was released during the store call; only discard the draft
	// if the sheet still shows the date that was saved.
	if sh.dateKey == dateKey {
		sh.overrides = make(map[string]bool)
	}
	s.log.WithField("date", dateKey).Infof("attendance saved, %d present", day.CountPresent())
	return s.buildSheetLocked(sh, set), nil
}

// History returns every saved date with its counts, newest first
func (s *AttendanceService) History(ctx context.Context, church string) ([]HistoryEntry, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	ledger := s.registry.Ledger()

	saved := ledger.SavedDates()
	out := make([]HistoryEntry, 0, len(saved))
	for i := len(saved) - 1; i >= 0; i-- {
		d := saved[i]
		present := stats.PresentCount(d, set.Roster, ledger)
		out = append(out, HistoryEntry{
			DateKey:        d,
			DateLabel:      datekey.FormatLabel(d),
			PresentCount:   present,
			AbsentCount:    stats.AbsentCount(d, set.Roster, ledger),
			PercentPresent: stats.PercentPresent(d, set.Roster, ledger),
		})
	}
	return out, nil
}

// DayDetail lists the names of who was present and absent on one saved date
func (s *AttendanceService) DayDetail(ctx context.Context, church, dateKey string) (*DayDetailResponse, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	ledger := s.registry.Ledger()
	if !ledger.HasSaved(dateKey) {
		return nil, apperrors.ErrUnknownDateKey
	}

	resp := &DayDetailResponse{
		DateKey:   dateKey,
		DateLabel: datekey.FormatLabel(dateKey),
		Present:   []string{},
		Absent:    []string{},
	}
	for _, m := range set.Roster.All() {
		if ledger.IsPresent(dateKey, m.ID) {
			resp.Present = append(resp.Present, m.Name())
		} else {
			resp.Absent = append(resp.Absent, m.Name())
		}
	}
	sort.Strings(resp.Present)
	sort.Strings(resp.Absent)
	return resp, nil
}

// Dashboard returns the church's summary figures
func (s *AttendanceService) Dashboard(ctx context.Context, church string) (*DashboardResponse, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	ledger := s.registry.Ledger()

	return &DashboardResponse{
		MemberCount:       set.Roster.Size(),
		TeamCount:         len(set.Teams.All()),
		PresentToday:      stats.PresentCount(s.nowFn(), set.Roster, ledger),
		AverageAttendance: stats.AverageAttendance(ledger.SavedDates(), set.Roster, ledger),
	}, nil
}

// MarkEnrolled flips the draft flag for a member when their enrollment date
// is the sheet's selected date, so a member added mid-marking shows present
// without a save round-trip
func (s *AttendanceService) MarkEnrolled(church, memberID, dateKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sh, ok := s.sheets[church]
	if !ok || sh.dateKey != dateKey {
		return
	}
	sh.overrides[memberID] = true
}

func (s *AttendanceService) sheetLocked(church string) *sheet {
	sh, ok := s.sheets[church]
	if !ok {
		sh = &sheet{dateKey: s.nowFn(), overrides: make(map[string]bool)}
		s.sheets[church] = sh
	}
	return sh
}

// effectiveLocked resolves one member's sheet flag: override first, saved
// flag second
func (s *AttendanceService) effectiveLocked(sh *sheet, memberID string) bool {
	if v, ok := sh.overrides[memberID]; ok {
		return v
	}
	return s.registry.Ledger().IsPresent(sh.dateKey, memberID)
}

func (s *AttendanceService) buildSheetLocked(sh *sheet, set *projection.Set) *SheetResponse {
	ledger := s.registry.Ledger()
	members := set.Roster.All()
	sort.Slice(members, func(i, j int) bool {
		return members[i].Name() < members[j].Name()
	})

	rows := make([]SheetRow, 0, len(members))
	present := 0
	for _, m := range members {
		p := s.effectiveLocked(sh, m.ID)
		if p {
			present++
		}
		rows = append(rows, SheetRow{MemberID: m.ID, Name: m.Name(), Present: p})
	}

	return &SheetResponse{
		DateKey:      sh.dateKey,
		DateLabel:    datekey.FormatLabel(sh.dateKey),
		Saved:        ledger.HasSaved(sh.dateKey),
		Dirty:        len(sh.overrides) > 0,
		Rows:         rows,
		PresentCount: present,
		AbsentCount:  len(rows) - present,
		Dates:        ledger.DatesKnown(),
	}
}

func (s *AttendanceService) knownDate(dateKey string) bool {
	for _, d := range s.registry.Ledger().DatesKnown() {
		if d == dateKey {
			return true
		}
	}
	return false
}

func (s *AttendanceService) projections(church string) (*projection.Set, error) {
	set, err := s.registry.ForChurch(church)
	if err != nil {
		return nil, wrapStoreError("open projections", err)
	}
	return set, nil
}
