package models

// PresenceMap maps a member id to a present/absent flag for a single date.
// A missing id is absent, not unknown: the zero value of the lookup is the
// correct answer.
type PresenceMap map[string]bool

// Clone returns an independent copy of the map.
func (p PresenceMap) Clone() PresenceMap {
	out := make(PresenceMap, len(p))
	for id, present := range p {
		out[id] = present
	}
	return out
}

// CountPresent returns the number of ids marked present.
func (p PresenceMap) CountPresent() int {
	n := 0
	for _, present := range p {
		if present {
			n++
		}
	}
	return n
}
