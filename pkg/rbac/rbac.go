// Package rbac defines the role model and the role-to-permitted-roles policy
// that scopes every retrieval. The policy is a plain lookup table so the
// enforcement point stays auditable and testable in isolation.
package rbac

import (
	"errors"
	"fmt"
	"strings"
)

// Role identifies a document partition and, for callers, the partition set
// they may retrieve from.
type Role string

const (
	RoleEngineering Role = "engineering"
	RoleFinance     Role = "finance"
	RoleHR          Role = "hr"
	RoleMarketing   Role = "marketing"
	RoleGeneral     Role = "general"
	RoleCLevel      Role = "c-level"

	// RoleAdmin is a principal-only role for index administration. It owns
	// no documents and never appears as a chunk role.
	RoleAdmin Role = "admin"
)

// ErrUnknownRole is returned when a role is not part of the enumerated set.
var ErrUnknownRole = errors.New("unknown role")

// ErrUnauthorized is returned when a caller's permitted-role set resolves
// empty. Retrieval fails closed on it, never open.
var ErrUnauthorized = errors.New("role not authorized for retrieval")

// DocumentRoles is the fixed set of roles a document may belong to.
// Ordering matters only for deterministic stats output.
var DocumentRoles = []Role{
	RoleEngineering,
	RoleFinance,
	RoleHR,
	RoleMarketing,
	RoleGeneral,
	RoleCLevel,
}

// ParseRole validates s against the enumerated role set (principal roles
// included).
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	switch r {
	case RoleEngineering, RoleFinance, RoleHR, RoleMarketing, RoleGeneral, RoleCLevel, RoleAdmin:
		return r, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
}

// ParseDocumentRole validates s as a document-owning role. Principal-only
// roles are rejected so no chunk can ever be tagged with them.
func ParseDocumentRole(s string) (Role, error) {
	r, err := ParseRole(s)
	if err != nil {
		return "", err
	}
	if r == RoleAdmin {
		return "", fmt.Errorf("%w: %q is not a document role", ErrUnknownRole, s)
	}
	return r, nil
}

// Policy maps a caller role to the set of document roles it may retrieve
// from. c-level sees everything; every other document role sees itself plus
// general unless extended with explicit grants.
type Policy struct {
	grants map[Role][]Role
}

// NewPolicy builds the default policy table. Extra grants extend (never
// replace) a role's default permitted set.
func NewPolicy(extra map[Role][]Role) *Policy {
	grants := make(map[Role][]Role, len(DocumentRoles))
	for _, r := range DocumentRoles {
		if r == RoleCLevel {
			grants[r] = append([]Role(nil), DocumentRoles...)
			continue
		}
		if r == RoleGeneral {
			grants[r] = []Role{RoleGeneral}
			continue
		}
		grants[r] = []Role{r, RoleGeneral}
	}

	for caller, extras := range extra {
		for _, g := range extras {
			if !contains(grants[caller], g) {
				grants[caller] = append(grants[caller], g)
			}
		}
	}

	return &Policy{grants: grants}
}

// PermittedRoles resolves the document roles the caller may retrieve from.
// An unknown caller role resolves to ErrUnauthorized: retrieval must fail
// closed rather than return unfiltered results.
func (p *Policy) PermittedRoles(caller Role) ([]Role, error) {
	permitted, ok := p.grants[caller]
	if !ok || len(permitted) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrUnauthorized, caller)
	}
	return append([]Role(nil), permitted...), nil
}

// Permits reports whether the caller may retrieve chunks owned by doc.
func (p *Policy) Permits(caller, doc Role) bool {
	permitted, err := p.PermittedRoles(caller)
	if err != nil {
		return false
	}
	return contains(permitted, doc)
}

func contains(roles []Role, r Role) bool {
	for _, have := range roles {
		if have == r {
			return true
		}
	}
	return false
}

// Strings converts a role slice to its string form, for vector store
// filters and log fields.
func Strings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
