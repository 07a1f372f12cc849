package role

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownRole is returned for role names outside the catalog
var ErrUnknownRole = errors.New("unknown role")

// Role represents a forum role (matches users.role column)
type Role string

const (
	User       Role = "user"
	Helper     Role = "helper"
	Moderator  Role = "moderator"
	Admin      Role = "admin"
	Management Role = "management"
)

// catalog is ordered by rank: the index of a role is its rank.
var catalog = []Role{User, Helper, Moderator, Admin, Management}

// hierarchy maps role to rank (higher = more privileges)
var hierarchy = func() map[Role]int {
	m := make(map[Role]int, len(catalog))
	for i, r := range catalog {
		m[r] = i
	}
	return m
}()

// Rank returns the role level, or -1 for a role outside the catalog.
// Callers must reject unknown roles with Parse or IsKnown first.
func (r Role) Rank() int {
	if rank, ok := hierarchy[r]; ok {
		return rank
	}
	return -1
}

// IsKnown checks if role is part of the catalog
func (r Role) IsKnown() bool {
	_, ok := hierarchy[r]
	return ok
}

// IsStaff returns true for every role from helper upwards
func (r Role) IsStaff() bool {
	return r.Rank() >= Helper.Rank()
}

// Outranks reports whether r is strictly above other
func (r Role) Outranks(other Role) bool {
	return r.IsKnown() && r.Rank() > other.Rank()
}

func (r Role) String() string {
	return string(r)
}

// Parse converts a raw role name into a Role
func Parse(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.IsKnown() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
	return r, nil
}

// All returns every role in ascending rank order
func All() []Role {
	out := make([]Role, len(catalog))
	copy(out, catalog)
	return out
}

// Below returns the roles with rank strictly less than rank, ascending
func Below(rank int) []Role {
	out := make([]Role, 0, len(catalog))
	for _, r := range catalog {
		if r.Rank() < rank {
			out = append(out, r)
		}
	}
	return out
}

// Top returns the highest role in the catalog
func Top() Role {
	return catalog[len(catalog)-1]
}
