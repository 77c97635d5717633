package models

// Team represents a department or ministry within a church. Stored at
// teams/{id}; the node key is carried in ID. Membership is owned by
// Member.Teams, a team node holds no back-references.
type Team struct {
	ID     string `json:"-"`
	Name   string `json:"name"`
	Church string `json:"church"`
}
