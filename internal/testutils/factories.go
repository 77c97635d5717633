// Package testutils provides shared helpers for tests: data factories and
// HTTP request utilities.
package testutils

import (
	"church-attendance-backend/internal/models"

	"github.com/google/uuid"
)

// MemberFactory provides methods to create test Member data
type MemberFactory struct{}

// NewMemberFactory creates a new MemberFactory
func NewMemberFactory() *MemberFactory {
	return &MemberFactory{}
}

// Create creates a test Member with default values
func (f *MemberFactory) Create() *models.Member {
	return &models.Member{
		ID:        uuid.NewString(),
		FirstName: "Ama",
		LastName:  "Mensah",
		Church:    "Test Chapel",
		Joined:    "2025-01-01",
		Teams:     models.TeamSet{},
	}
}

// WithName sets custom names for the member
func (f *MemberFactory) WithName(first, last string) *models.Member {
	m := f.Create()
	m.FirstName = first
	m.LastName = last
	return m
}

// WithChurch sets a custom church for the member
func (f *MemberFactory) WithChurch(church string) *models.Member {
	m := f.Create()
	m.Church = church
	return m
}

// WithTeams sets team memberships for the member
func (f *MemberFactory) WithTeams(teamIDs ...string) *models.Member {
	m := f.Create()
	for _, id := range teamIDs {
		m.Teams[id] = true
	}
	return m
}

// TeamFactory provides methods to create test Team data
type TeamFactory struct{}

// NewTeamFactory creates a new TeamFactory
func NewTeamFactory() *TeamFactory {
	return &TeamFactory{}
}

// Create creates a test Team with default values
func (f *TeamFactory) Create() *models.Team {
	return &models.Team{
		ID:     uuid.NewString(),
		Name:   "Test Team",
		Church: "Test Chapel",
	}
}

// WithName sets a custom name for the team
func (f *TeamFactory) WithName(name string) *models.Team {
	t := f.Create()
	t.Name = name
	return t
}
