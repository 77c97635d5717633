package service

import (
	"context"
	"strings"
	"time"

	apperrors "church-attendance-backend/internal/errors"
	"church-attendance-backend/internal/logger"
	"church-attendance-backend/internal/models"
	"church-attendance-backend/internal/projection"
	"church-attendance-backend/internal/store"

	"github.com/go-playground/validator/v10"
)

// TeamService handles business logic for ministry teams
type TeamService struct {
	store     store.Store
	registry  *projection.Registry
	validator *validator.Validate
	timeout   time.Duration
	log       *logger.Logger
}

// NewTeamService creates a new team service
func NewTeamService(st store.Store, registry *projection.Registry, validator *validator.Validate, timeout time.Duration) *TeamService {
	return &TeamService{
		store:     st,
		registry:  registry,
		validator: validator,
		timeout:   timeout,
		log:       logger.New().WithField("service", "team"),
	}
}

// CreateTeamRequest represents the request to create a team
type CreateTeamRequest struct {
	Name string `json:"name" validate:"max=100"`
}

// RenameTeamRequest represents the request to rename a team
type RenameTeamRequest struct {
	Name string `json:"name" validate:"max=100"`
}

// TeamResponse represents a team with its current member count
type TeamResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MemberCount int    `json:"member_count"`
}

// TeamDetailResponse represents a team with its full member list
type TeamDetailResponse struct {
	ID      string           `json:"id"`
	Name    string           `json:"name"`
	Members []MemberResponse `json:"members"`
}

// ListTeams returns the church's teams with member counts, sorted by name
func (s *TeamService) ListTeams(ctx context.Context, church string) ([]TeamResponse, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}

	teams := set.Teams.All()
	out := make([]TeamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, TeamResponse{
			ID:          t.ID,
			Name:        t.Name,
			MemberCount: s.memberCount(set, t.ID),
		})
	}
	return out, nil
}

// GetTeam returns one team with its member roster
func (s *TeamService) GetTeam(ctx context.Context, church, id string, members *MemberService) (*TeamDetailResponse, error) {
	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	team, ok := set.Teams.ByID(id)
	if !ok {
		return nil, apperrors.ErrTeamNotFound
	}

	resp := &TeamDetailResponse{ID: team.ID, Name: team.Name}
	for _, m := range set.Roster.All() {
		if m.InTeam(id) {
			resp.Members = append(resp.Members, *members.respond(m, set))
		}
	}
	return resp, nil
}

// CreateTeam creates a new team for the church
func (s *TeamService) CreateTeam(ctx context.Context, church string, req *CreateTeamRequest) (*TeamResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.ErrTeamNameRequired
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, apperrors.NewValidationError("name", err.Error())
	}

	team := &models.Team{Name: name, Church: church}

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	id, err := s.store.Push(callCtx, store.TeamsPath, team)
	if err != nil {
		return nil, wrapStoreError("create team", err)
	}
	team.ID = id

	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	if err := set.Teams.Resync(callCtx); err != nil {
		s.log.Warnf("team resync after create failed: %v", err)
	}

	s.log.WithField("team_id", id).Infof("team %q created", name)
	return &TeamResponse{ID: id, Name: name}, nil
}

// RenameTeam changes a team's display name; memberships are keyed by id
// and are unaffected
func (s *TeamService) RenameTeam(ctx context.Context, church, id string, req *RenameTeamRequest) (*TeamResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, apperrors.ErrTeamNameRequired
	}

	set, err := s.projections(church)
	if err != nil {
		return nil, err
	}
	if _, ok := set.Teams.ByID(id); !ok {
		return nil, apperrors.ErrTeamNotFound
	}

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	if err := s.store.Set(callCtx, store.TeamPath(id)+"/name", name); err != nil {
		return nil, wrapStoreError("rename team", err)
	}
	if err := set.Teams.Resync(callCtx); err != nil {
		s.log.Warnf("team resync after rename failed: %v", err)
	}

	return &TeamResponse{ID: id, Name: name, MemberCount: s.memberCount(set, id)}, nil
}

// DeleteTeam removes a team and strips its membership entry from every
// member of the church in one batched write, so a crash between steps
// cannot leave members pointing at a deleted team
func (s *TeamService) DeleteTeam(ctx context.Context, church, id string) error {
	set, err := s.projections(church)
	if err != nil {
		return err
	}
	if _, ok := set.Teams.ByID(id); !ok {
		return apperrors.ErrTeamNotFound
	}

	callCtx, cancel := storeContext(ctx, s.timeout)
	defer cancel()

	// Read the roster fresh rather than trusting the projection: a stale
	// cache here would leave dangling membership entries behind.
	if err := set.Roster.Resync(callCtx); err != nil {
		return wrapStoreError("refresh roster before team delete", err)
	}

	updates := make(map[string]interface{})
	for _, m := range set.Roster.All() {
		if m.InTeam(id) {
			updates[store.MemberTeamPath(m.ID, id)] = nil
		}
	}
	if len(updates) > 0 {
		if err := s.store.Update(callCtx, updates); err != nil {
			return wrapStoreError("clear team memberships", err)
		}
	}

	if err := s.store.Remove(callCtx, store.TeamPath(id)); err != nil {
		return wrapStoreError("delete team", err)
	}

	if err := set.Teams.Resync(callCtx); err != nil {
		s.log.Warnf("team resync after delete failed: %v", err)
	}
	if err := set.Roster.Resync(callCtx); err != nil {
		s.log.Warnf("roster resync after delete failed: %v", err)
	}

	s.log.WithField("team_id", id).Info("team deleted")
	return nil
}

func (s *TeamService) memberCount(set *projection.Set, teamID string) int {
	count := 0
	for _, m := range set.Roster.All() {
		if m.InTeam(teamID) {
			count++
		}
	}
	return count
}

func (s *TeamService) projections(church string) (*projection.Set, error) {
	set, err := s.registry.ForChurch(church)
	if err != nil {
		return nil, wrapStoreError("open projections", err)
	}
	return set, nil
}
