package user

import (
	"time"

	"github.com/dugsiiye/barasho/core/claims"
	"github.com/lib/pq"
)

type User struct {
	ID           string         `json:"id" db:"user_id"`
	Email        string         `json:"email" db:"email"`
	Name         string         `json:"name" db:"name"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Roles        pq.StringArray `json:"roles" db:"roles"`
	Active       bool           `json:"active" db:"active"`
	CreatedAt    time.Time      `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time      `json:"updatedAt" db:"updated_at"`
}

// RoleSet converts the stored roles into the claims type.
func (u User) RoleSet() []claims.Role {
	rs := make([]claims.Role, 0, len(u.Roles))
	for _, r := range u.Roles {
		rs = append(rs, claims.Role(r))
	}
	return rs
}

// EffectiveRole is the single highest-priority role, used by clients to pick
// which dashboard to show.
func (u User) EffectiveRole() claims.Role {
	return claims.Effective(u.RoleSet())
}

type UserSignup struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Password string `json:"password" validate:"required,gte=8,lte=50"`
}

type UserLogin struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RolesUp struct {
	Roles []string `json:"roles" validate:"required,min=1,dive,oneof=student instructor admin super_admin"`
}
