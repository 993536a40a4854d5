package domain

import "sort"

// Roster is the set of display names currently present in one room,
// humans and responders alike. It is process-local state, rebuilt from
// live join/leave events, and is not safe for concurrent use; the room
// coordinator serializes all access.
type Roster map[string]struct{}

func NewRoster() Roster {
	return make(Roster)
}

func (r Roster) Add(name string) {
	r[name] = struct{}{}
}

func (r Roster) Remove(name string) {
	delete(r, name)
}

func (r Roster) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Snapshot returns the roster as a sorted slice. Ordering carries no
// protocol meaning but a stable wire representation keeps clients and
// tests simple.
func (r Roster) Snapshot() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
