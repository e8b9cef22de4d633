package skills

import "sort"

// Set is a set of canonical skill names.
type Set map[string]struct{}

// NewSet returns a set holding items.
func NewSet(items ...string) Set {
	s := make(Set, len(items))
	for _, item := range items {
		s.Add(item)
	}
	return s
}

func (s Set) Add(item string) {
	s[item] = struct{}{}
}

func (s Set) Has(item string) bool {
	_, ok := s[item]
	return ok
}

func (s Set) Len() int {
	return len(s)
}

// Sorted returns the members in lexicographic order. The result is never nil.
func (s Set) Sorted() []string {
	out := make([]string, 0, len(s))
	for item := range s {
		out = append(out, item)
	}
	sort.Strings(out)
	return out
}

// Intersect returns the members present in both sets.
func (s Set) Intersect(other Set) Set {
	out := make(Set)
	for item := range s {
		if other.Has(item) {
			out.Add(item)
		}
	}
	return out
}

// Difference returns the members of s missing from other.
func (s Set) Difference(other Set) Set {
	out := make(Set)
	for item := range s {
		if !other.Has(item) {
			out.Add(item)
		}
	}
	return out
}
