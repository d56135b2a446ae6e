package model

import "slices"

// MemberSet holds the author handles that are in scope for an analysis.
// Membership is exact string equality.
type MemberSet map[string]struct{}

// NewMemberSet builds a set from the given handles, dropping duplicates.
func NewMemberSet(handles ...string) MemberSet {
	s := make(MemberSet, len(handles))
	s.Add(handles...)
	return s
}

// Add inserts handles into the set.
func (s MemberSet) Add(handles ...string) {
	for _, h := range handles {
		s[h] = struct{}{}
	}
}

// Has reports whether handle is a member.
func (s MemberSet) Has(handle string) bool {
	_, ok := s[handle]
	return ok
}

// Sorted returns the members in ascending order.
func (s MemberSet) Sorted() []string {
	out := make([]string, 0, len(s))
	for h := range s {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}
