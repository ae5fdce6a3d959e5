// Package authz resolves what an authenticated caller may do with a matrix.
package authz

import (
	"context"
	"fmt"
	"sort"
)

// Permission names an action on a curriculum matrix.
type Permission string

const (
	PermMatrixRead    Permission = "matrix:read"
	PermImportPreview Permission = "matrix:import:preview"
	PermImportApply   Permission = "matrix:import:apply"
	PermImportForce   Permission = "matrix:import:force"
)

var known = map[Permission]bool{
	PermMatrixRead:    true,
	PermImportPreview: true,
	PermImportApply:   true,
	PermImportForce:   true,
}

// Caller is the identity attached to a request.
type Caller struct {
	UserID   string
	TenantID string
	Role     string
}

// RoleAuthority grants permissions from a static role table.
type RoleAuthority struct {
	grants map[string]map[Permission]bool
}

// NewRoleAuthority validates the role table. Unknown permission names are
// rejected so a typo in configuration fails at startup.
func NewRoleAuthority(roles map[string][]string) (*RoleAuthority, error) {
	a := &RoleAuthority{grants: make(map[string]map[Permission]bool, len(roles))}
	for role, perms := range roles {
		set := make(map[Permission]bool, len(perms))
		for _, p := range perms {
			perm := Permission(p)
			if !known[perm] {
				return nil, fmt.Errorf("authz: role %q: unknown permission %q", role, p)
			}
			set[perm] = true
		}
		a.grants[role] = set
	}
	return a, nil
}

// Allow reports whether the caller holds every listed permission.
func (a *RoleAuthority) Allow(_ context.Context, caller Caller, perms ...Permission) (bool, error) {
	if caller.UserID == "" || caller.TenantID == "" {
		return false, nil
	}
	set, ok := a.grants[caller.Role]
	if !ok {
		return false, nil
	}
	for _, p := range perms {
		if !set[p] {
			return false, nil
		}
	}
	return true, nil
}

// Roles lists the configured role names.
func (a *RoleAuthority) Roles() []string {
	out := make([]string, 0, len(a.grants))
	for r := range a.grants {
		out = append(out, r)
	}
	sort.Strings(out)
	return out
}
