package claims

import (
	"context"
	"errors"
)

// Role is the closed set of platform roles. A user may hold several; the
// highest-priority one is the effective role shown to clients.
type Role string

const (
	RoleStudent    Role = "student"
	RoleInstructor Role = "instructor"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "super_admin"
)

var priority = map[Role]int{
	RoleStudent:    1,
	RoleInstructor: 2,
	RoleAdmin:      3,
	RoleSuperAdmin: 4,
}

func Valid(r Role) bool {
	_, ok := priority[r]
	return ok
}

// Level returns the role's priority rank; unknown roles rank below student.
func Level(r Role) int {
	return priority[r]
}

// Effective reduces a role set to the single highest-priority role. An empty
// or unrecognized set resolves to student.
func Effective(roles []Role) Role {
	eff := RoleStudent
	for _, r := range roles {
		if Level(r) > Level(eff) {
			eff = r
		}
	}
	return eff
}

type Claims struct {
	UserID string
	Roles  []Role
}

// HasAdmin reports whether the claims carry admin or super_admin.
func (c Claims) HasAdmin() bool {
	return Level(Effective(c.Roles)) >= Level(RoleAdmin)
}

func (c Claims) HasRole(role Role) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

type ctxKey int

const claimsKey ctxKey = 1

func Set(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func Get(ctx context.Context) (Claims, error) {
	v, ok := ctx.Value(claimsKey).(Claims)
	if !ok {
		return Claims{}, errors.New("claim value missing from context")
	}
	return v, nil
}

func IsAdmin(ctx context.Context) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.HasAdmin()
}

func IsUser(ctx context.Context, id string) bool {
	c, err := Get(ctx)
	if err != nil {
		return false
	}

	return c.UserID == id
}
