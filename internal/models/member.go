package models

import (
	"sort"
	"strings"
)

// Member represents a registered church member. The struct mirrors the node
// stored at members/{id} in the external tree store; the node key itself is
// carried in ID and never written into the node.
type Member struct {
	ID        string  `json:"-"`
	FirstName string  `json:"firstName"`
	LastName  string  `json:"lastName"`
	Church    string  `json:"church"`
	Joined    string  `json:"Joined,omitempty"`
	Teams     TeamSet `json:"Teams,omitempty"`

	// Optional profile fields, free-form with no cross-field invariants
	Title               string `json:"Title,omitempty"`
	Office              string `json:"Office,omitempty"`
	Birthday            string `json:"Birthday,omitempty"`
	Age                 string `json:"Age,omitempty"`
	Address             string `json:"Address,omitempty"`
	Phone               string `json:"PhoneNumber,omitempty"`
	Email               string `json:"Email,omitempty"`
	Role                string `json:"Role,omitempty"`
	Gender              string `json:"Gender,omitempty"`
	BornAgain           bool   `json:"BornAgain,omitempty"`
	BaptisedByImmersion bool   `json:"BaptisedByImmersion,omitempty"`
	ReceivedHolyGhost   bool   `json:"ReceivedHolyGhost,omitempty"`

	// LegacyTeam carries the old single-team-name field found on records
	// created before multi-team membership existed. Resolved by name via
	// the team directory when present.
	LegacyTeam string `json:"Team,omitempty"`
}

// Name returns the display name, the concatenation of first and last name.
func (m *Member) Name() string {
	parts := make([]string, 0, 2)
	if m.FirstName != "" {
		parts = append(parts, m.FirstName)
	}
	if m.LastName != "" {
		parts = append(parts, m.LastName)
	}
	return strings.Join(parts, " ")
}

// TeamIDs returns the ids of the teams the member belongs to, sorted for
// deterministic iteration.
func (m *Member) TeamIDs() []string {
	ids := make([]string, 0, len(m.Teams))
	for id, in := range m.Teams {
		if in {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// InTeam reports whether the member belongs to the given team.
func (m *Member) InTeam(teamID string) bool {
	return m.Teams[teamID]
}
