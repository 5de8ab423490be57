package models

import "sort"

// Family groups people. A family may have any number of people; a person
// belongs to at most one family.
type Family struct {
	// ID is the stable identity assigned by the context (UUID format).
	ID string

	// Name is the display name (e.g., "Abc Family"). Nil means unset.
	Name *string

	people map[*Person]struct{}
}

// AddToPeople adds p to the family and points p's family reference here.
// If p belonged to another family it is removed from that family first.
func (f *Family) AddToPeople(p *Person) {
	if p.family == f {
		return
	}
	if p.family != nil {
		p.family.RemoveFromPeople(p)
	}
	if f.people == nil {
		f.people = make(map[*Person]struct{})
	}
	f.people[p] = struct{}{}
	p.family = f
}

// RemoveFromPeople removes p from the family and clears its family reference.
// It is a no-op if p is not a member.
func (f *Family) RemoveFromPeople(p *Person) {
	if _, ok := f.people[p]; !ok {
		return
	}
	delete(f.people, p)
	if p.family == f {
		p.family = nil
	}
}

// Contains reports whether p is a member.
func (f *Family) Contains(p *Person) bool {
	_, ok := f.people[p]
	return ok
}

// Count returns the number of members.
func (f *Family) Count() int {
	return len(f.people)
}

// People returns the members ordered by name, then ID.
// The set itself is unordered; sorting keeps output deterministic.
func (f *Family) People() []*Person {
	people := make([]*Person, 0, len(f.people))
	for p := range f.people {
		people = append(people, p)
	}
	sort.Slice(people, func(i, j int) bool {
		ni, nj := people[i].DisplayName(), people[j].DisplayName()
		if ni != nj {
			return ni < nj
		}
		return people[i].ID < people[j].ID
	})
	return people
}

// Detach removes every member from the family, clearing their references.
// Used when the family itself is deleted.
func (f *Family) Detach() {
	for p := range f.people {
		if p.family == f {
			p.family = nil
		}
	}
	f.people = nil
}
