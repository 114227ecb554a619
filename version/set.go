package version

import "slices"

// Set is an unordered collection of versions. Versions that differ only in
// trailing zero components occupy the same slot; the most recently added
// spelling wins.
type Set struct {
	items map[[maxSegments]int]Version
}

func NewSet(versions ...Version) *Set {
	s := &Set{items: make(map[[maxSegments]int]Version, len(versions))}
	for _, v := range versions {
		s.Add(v)
	}
	return s
}

func (s *Set) Add(v Version) {
	if s.items == nil {
		s.items = make(map[[maxSegments]int]Version)
	}
	s.items[v.key()] = v
}

func (s *Set) Contains(v Version) bool {
	if s == nil {
		return false
	}
	_, ok := s.items[v.key()]
	return ok
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Union adds every member of o to s.
func (s *Set) Union(o *Set) {
	if o == nil {
		return
	}
	for _, v := range o.items {
		s.Add(v)
	}
}

// Sorted returns the members in ascending order.
func (s *Set) Sorted() []Version {
	if s == nil {
		return nil
	}
	out := make([]Version, 0, len(s.items))
	for _, v := range s.items {
		out = append(out, v)
	}
	slices.SortFunc(out, Compare)
	return out
}

// Max returns the highest member, or false when the set is empty.
func (s *Set) Max() (Version, bool) {
	if s.Len() == 0 {
		return Version{}, false
	}
	var highest Version
	first := true
	for _, v := range s.items {
		if first || v.GreaterThan(highest) {
			highest = v
			first = false
		}
	}
	return highest, true
}
