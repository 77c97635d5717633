package service

import (
	"context"
	"strings"
	"time"

	"church-attendance-backend/internal/datekey"
	apperrors "church-attendance-backend/internal/errors"
	"church-attendance-backend/internal/logger"
	"church-attendance-backend/internal/models"
	"church-attendance-backend/internal/projection"
	"church-attendance-backend/internal/stats"
	"church-attendance-backend/internal/store"

	"github.com/go-playground/validator/v10"
)

// MemberService handles business logic for members
type MemberService struct {
	store     store.Store
	registry  *projection.Registry
	validator *validator.Validate
	timeout   time.Duration
	nowFn     func() string
	log       *logger.Logger

	// enrolledFn, when set, tells the attendance sheet a member was just
	// enrolled and marked present for the given date
	enrolledFn func(church, memberID, dateKey string)
}

// OnEnrolled registers a callback invoked after a member is created and
// marked present
func (s *MemberService) OnEnrolled(fn func(church, memberID, dateKey string)) {
	s.enrolledFn = fn
}

// NewMemberService creates a new member service
func NewMemberService(st store.Store, registry *projection.Registry, validator *validator.Validate, timeout time.Duration) *MemberService {
	return &MemberService{
		store:     st,
		registry:  registry,
		validator: validator,
		timeout:   timeout,
		nowFn:     datekey.Today,
		log:       logger.New().WithField("service", "member"),
	}
}

// CreateMemberRequest represents the request to create a member
type CreateMemberRequest struct {
	FirstName string `json:"first_name" validate:"max=100"`
	LastName  string `json:"last_name" validate:"max=100"`
}

// UpdateMemberRequest represents a full profile edit. Every field is
// written; omitted fields clear their stored value, matching the profile
// edit form which always submits the complete field set.
type UpdateMemberRequest struct {
	FirstName           string `json:"first_name" validate:"max=100"`
	LastName            string `json:"last_name" validate:"max=100"`
	Title               string `json:"title" validate:"max=50"`
	Office              string `json:"office" validate:"max=100"`
	Birthday            string `json:"birthday" validate:"max=50"`
	Age                 string `json:"age" validate:"max=10"`
	Address             string `json:"address" validate:"max=300"`
	Phone               string `json:"phone" validate:"max=30"`
	Email               string `json:"email" validate:"omitempty,email,max=255"`
	Role                string `json:"role" validate:"max=50"`
	Gender              string `json:"gender" validate:"max=20"`
	BornAgain           bool   `json:"born_again"`
	BaptisedByImmersion bool   `json:"baptised_by_immersion"`
	ReceivedHolyGhost   bool   `json:"received_holy_ghost"`
}

// MemberResponse represents a member with their derived attendance figures
type MemberResponse struct {
	ID                  string   `json:"id"`
	FirstName           string   `json:"first_name"`
	LastName            string   `json:"last_name"`
	Name                string   `json:"name"`
	Church              string   `json:"church"`
	Joined              string   `json:"joined,omitempty"`
	TeamIDs             []string `json:"team_ids"`
	TeamNames           []string `json:"team_names"`
	Title               string   `json:"title,omitempty"`
	Office              string   `json:"office,omitempty"`
	Birthday            string   `json:"birthday,omitempty"`
	Age                 string   `json:"age,omitempty"`
	Address             string   `json:"address,omitempty"`
	Phone               string   `json:"phone,omitempty"`
	Email               string   `json:"email,omitempty"`
	Role                string   `json:"role,omitempty"`
	Gender              string   `json:"gender,omitempty"`
	BornAgain           bool     `json:"born_again"`
	BaptisedByImmersion bool     `json:"baptised_by_immersion"`
	ReceivedHolyGhost   bool     `json:"received_holy_ghost"`
	AttendanceRate      int      `json:"attendance_rate"`
	LastAttended        string   `json:"last_attended"`
}

// MemberListResponse represents a paginated list of members
type MemberListResponse struct {
	Members  []MemberResponse `json:"members"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"page_size"`
}

// CreateMember registers a new member for the church. The member is
// stamped with today's join date and immediately marked present for today:
// someone being enrolled is standing in the room.
func (s *MemberService) CreateMember(ctx context.Context, church string, req *CreateMemberRequest) (*MemberResponse, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" {
		return nil, apperrors.ErrFirstNameRequired
	}
	if last == "" {
		return nil, apperrors.ErrLastNameRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.NewValidationError("", err.Error())
	}

	today := s.nowFn()
	member := &models.Member{
		FirstName: first,
		LastName:  last,
		Church:    church,
		Joined:    today,
		Teams:     models.TeamSet{},
	}

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	id, err := s.store.Push(callCtx, store.MembersPath, member)
	if err != nil {
		return nil, wrapStoreError("add member", err)
	}
	member.ID = id

	if err := s.store.Set(callCtx, store.DayEntryPath(today, id), true); err != nil {
		return nil, wrapStoreError("mark new member present", err)
	}
	if s.enrolledFn != nil {
		s.enrolledFn(church, id, today)
	}

	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	if err := set.Roster.Resync(callCtx); err != nil {
		s.log.Warnf("roster resync after create failed: %v", err)
	}
	if err := s.registry.Ledger().Resync(callCtx); err != nil {
		s.log.Warnf("ledger resync after create failed: %v", err)
	}

	s.log.WithField("member_id", id).Infof("member %s added and marked present", member.Name())
	return s.respond(member, set), nil
}

// GetMember retrieves one member with derived statistics
func (s *MemberService) GetMember(ctx context.Context, church, id string) (*MemberResponse, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	member, ok := set.Roster.ByID(id)
	if !ok {
		return nil, apperrors.ErrMemberNotFound
	}
	return s.respond(member, set), nil
}

// ListMembers returns the church roster, filtered by a case-insensitive
// name query and paginated
func (s *MemberService) ListMembers(ctx context.Context, church, query string, page, pageSize int) (*MemberListResponse, error) {
	if page < 1 || pageSize < 1 || pageSize > 100 {
		return nil, apperrors.ErrInvalidPaginationParams
	}

	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}

	matches := set.Roster.FilterByName(query)
	total := len(matches)

	start := (page - 1) * pageSize
	if start > total {
		start = total
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	members := make([]MemberResponse, 0, end-start)
	for _, m := range matches[start:end] {
		members = append(members, *s.respond(m, set))
	}

	return &MemberListResponse{
		Members:  members,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	}, nil
}

// UpdateMember writes the full profile field set for a member
func (s *MemberService) UpdateMember(ctx context.Context, church, id string, req *UpdateMemberRequest) (*MemberResponse, error) {
	first := strings.TrimSpace(req.FirstName)
	last := strings.TrimSpace(req.LastName)
	if first == "" {
		return nil, apperrors.ErrFirstNameRequired
	}
	if last == "" {
		return nil, apperrors.ErrLastNameRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.NewValidationError("", err.Error())
	}

	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	if _, ok := set.Roster.ByID(id); !ok {
		return nil, apperrors.ErrMemberNotFound
	}

	updates := map[string]interface{}{
		store.MemberPath(id) + "/firstName":           first,
		store.MemberPath(id) + "/lastName":            last,
		store.MemberPath(id) + "/Title":               req.Title,
		store.MemberPath(id) + "/Office":              req.Office,
		store.MemberPath(id) + "/Birthday":            req.Birthday,
		store.MemberPath(id) + "/Age":                 req.Age,
		store.MemberPath(id) + "/Address":             req.Address,
		store.MemberPath(id) + "/PhoneNumber":         req.Phone,
		store.MemberPath(id) + "/Email":               req.Email,
		store.MemberPath(id) + "/Role":                req.Role,
		store.MemberPath(id) + "/Gender":              req.Gender,
		store.MemberPath(id) + "/BornAgain":           req.BornAgain,
		store.MemberPath(id) + "/BaptisedByImmersion": req.BaptisedByImmersion,
		store.MemberPath(id) + "/ReceivedHolyGhost":   req.ReceivedHolyGhost,
	}

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if err := s.store.Update(callCtx, updates); err != nil {
		return nil, wrapStoreError("update member", err)
	}
	if err := set.Roster.Resync(callCtx); err != nil {
		s.log.Warnf("roster resync after update failed: %v", err)
	}

	member, ok := set.Roster.ByID(id)
	if !ok {
		return nil, apperrors.ErrMemberNotFound
	}
	return s.respond(member, set), nil
}

// DeleteMember removes the member record. Historical attendance rows are
// left untouched: the ledger keeps orphaned ids and downstream readers
// skip them.
func (s *MemberService) DeleteMember(ctx context.Context, church, id string) error {
	set, err := s.projections(church)
	if err != nil {
		return err
	}
	if _, ok := set.Roster.ByID(id); !ok {
		return apperrors.ErrMemberNotFound
	}

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if err := s.store.Remove(callCtx, store.MemberPath(id)); err != nil {
		return wrapStoreError("delete member", err)
	}
	if err := set.Roster.Resync(callCtx); err != nil {
		s.log.Warnf("roster resync after delete failed: %v", err)
	}

	s.log.WithField("member_id", id).Info("member deleted")
	return nil
}

// AssignTeam adds the member to a team. Adding twice is a no-op: the
// membership set cannot hold duplicates.
func (s *MemberService) AssignTeam(ctx context.Context, church, memberID, teamID string) error {
	set, err := s.projections(church)
	if err != nil {
		return err
	}
	if _, ok := set.Roster.ByID(memberID); !ok {
		return apperrors.ErrMemberNotFound
	}
	if _, ok := set.Teams.ByID(teamID); !ok {
		return apperrors.ErrTeamNotFound
	}

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if err := s.store.Set(callCtx, store.MemberTeamPath(memberID, teamID), true); err != nil {
		return wrapStoreError("assign team", err)
	}
	if err := set.Roster.Resync(callCtx); err != nil {
		s.log.Warnf("roster resync after assign failed: %v", err)
	}
	return nil
}

// UnassignTeam removes the member from a team; removing a membership that
// does not exist is a no-op
func (s *MemberService) UnassignTeam(ctx context.Context, church, memberID, teamID string) error {
	set, err := s.projections(church)
	if err != nil {
		return err
	}
	if _, ok := set.Roster.ByID(memberID); !ok {
		return apperrors.ErrMemberNotFound
	}

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if err := s.store.Remove(callCtx, store.MemberTeamPath(memberID, teamID)); err != nil {
		return wrapStoreError("unassign team", err)
	}
	if err := set.Roster.Resync(callCtx); err != nil {
		s.log.Warnf("roster resync after unassign failed: %v", err)
	}
	return nil
}

func (s *MemberService) projections(church string) (*projection.Set, error) {
	set, err := s.registry.ForChurch(church)
	if err != nil {
		return nil, wrapStoreError("open projections", err)
	}
	return set, nil
}

// respond builds the API view of a member, resolving team names and
// recomputing derived statistics from the current projections
func (s *MemberService) respond(m *models.Member, set *projection.Set) *MemberResponse {
	ledger := s.registry.Ledger()
	datesKnown := ledger.DatesKnown()

	teamIDs := m.TeamIDs()
	teamNames := make([]string, 0, len(teamIDs))
	for _, id := range teamIDs {
		if team, ok := set.Teams.ByID(id); ok {
			teamNames = append(teamNames, team.Name)
		}
	}
	// Records predating multi-team membership carry a single team name
	if len(teamNames) == 0 && strings.TrimSpace(m.LegacyTeam) != "" {
		teamNames = append(teamNames, m.LegacyTeam)
	}

	lastAttended := "never"
	if last, ok := stats.LastAttendedDate(m.ID, datesKnown, ledger); ok {
		lastAttended = last
	}

	return &MemberResponse{
		ID:                  m.ID,
		FirstName:           m.FirstName,
		LastName:            m.LastName,
		Name:                m.Name(),
		Church:              m.Church,
		Joined:              m.Joined,
		TeamIDs:             teamIDs,
		TeamNames:           teamNames,
		Title:               m.Title,
		Office:              m.Office,
		Birthday:            m.Birthday,
		Age:                 m.Age,
		Address:             m.Address,
		Phone:               m.Phone,
		Email:               m.Email,
		Role:                m.Role,
		Gender:              m.Gender,
		BornAgain:           m.BornAgain,
		BaptisedByImmersion: m.BaptisedByImmersion,
		ReceivedHolyGhost:   m.ReceivedHolyGhost,
		AttendanceRate:      stats.AttendanceRate(m.ID, m.Joined, datesKnown, ledger),
		LastAttended:        lastAttended,
	}
}
