package models

import "encoding/json"

// TeamSet is the set of team ids a member belongs to, stored as a map of
// id to true. Old records carry the set as a plain array of ids; both
// forms decode, only the map form is ever written back.
type TeamSet map[string]bool

// UnmarshalJSON accepts either {"t1": true} or ["t1"].
func (t *TeamSet) UnmarshalJSON(data []byte) error {
	var asMap map[string]bool
	if err := json.Unmarshal(data, &asMap); err == nil {
		*t = asMap
		return nil
	}

	var asList []string
	if err := json.Unmarshal(data, &asList); err != nil {
		return err
	}
	set := make(TeamSet, len(asList))
	for _, id := range asList {
		set[id] = true
	}
	*t = set
	return nil
}
