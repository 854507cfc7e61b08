// Package match resolves scraped names against stored council members.
package match

import (
	"strings"

	"github.com/civiclens/council-scraper/internal/civic"
)

// Matcher resolves free-text names against a fixed member list.
// Matching is tiered: exact, then bidirectional substring, then any
// shared name part. The first hit in tier order wins.
type Matcher struct {
	members []civic.MemberRef
}

// New builds a Matcher over the given members.
func New(members []civic.MemberRef) *Matcher {
	return &Matcher{members: members}
}

// Find returns the member matching name, or false when no member
// matches. Names shorter than two characters never match.
func (m *Matcher) Find(name string) (civic.MemberRef, bool) {
	name = strings.TrimSpace(name)
	if len(name) < 2 {
		return civic.MemberRef{}, false
	}
	lower := strings.ToLower(name)

	for _, member := range m.members {
		if strings.ToLower(member.Name) == lower {
			return member, true
		}
	}

	for _, member := range m.members {
		memberLower := strings.ToLower(member.Name)
		if strings.Contains(memberLower, lower) || strings.Contains(lower, memberLower) {
			return member, true
		}
	}

	parts := strings.Fields(lower)
	for _, member := range m.members {
		memberParts := strings.Fields(strings.ToLower(member.Name))
		for _, part := range parts {
			for _, mp := range memberParts {
				if part == mp {
					return member, true
				}
			}
		}
	}

	return civic.MemberRef{}, false
}

// Len reports how many members the matcher knows about.
func (m *Matcher) Len() int {
	return len(m.members)
}
