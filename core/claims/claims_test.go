package claims

import (
	"context"
	"testing"
)

func TestEffective(t *testing.T) {
	tests := []struct {
		name  string
		roles []Role
		want  Role
	}{
		{"empty set defaults to student", nil, RoleStudent},
		{"single student", []Role{RoleStudent}, RoleStudent},
		{"instructor beats student", []Role{RoleStudent, RoleInstructor}, RoleInstructor},
		{"admin beats instructor", []Role{RoleInstructor, RoleAdmin, RoleStudent}, RoleAdmin},
		{"super_admin beats all", []Role{RoleAdmin, RoleSuperAdmin, RoleInstructor}, RoleSuperAdmin},
		{"order does not matter", []Role{RoleSuperAdmin, RoleStudent}, RoleSuperAdmin},
		{"unknown roles rank below student", []Role{"moderator"}, RoleStudent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Effective(tt.roles); got != tt.want {
				t.Fatalf("Effective(%v) = %q, want %q", tt.roles, got, tt.want)
			}
		})
	}
}

func TestHasAdmin(t *testing.T) {
	if (Claims{Roles: []Role{RoleInstructor}}).HasAdmin() {
		t.Fatal("instructor must not count as admin")
	}
	if !(Claims{Roles: []Role{RoleAdmin}}).HasAdmin() {
		t.Fatal("admin must count as admin")
	}
	if !(Claims{Roles: []Role{RoleStudent, RoleSuperAdmin}}).HasAdmin() {
		t.Fatal("super_admin must count as admin")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := context.Background()

	if _, err := Get(ctx); err == nil {
		t.Fatal("expected an error on a context without claims")
	}

	clm := Claims{UserID: "u-1", Roles: []Role{RoleAdmin}}
	ctx = Set(ctx, clm)

	got, err := Get(ctx)
	if err != nil {
		t.Fatalf("getting claims: %v", err)
	}
	if got.UserID != clm.UserID {
		t.Fatalf("got user %q, want %q", got.UserID, clm.UserID)
	}
	if !IsAdmin(ctx) {
		t.Fatal("IsAdmin should be true for admin claims")
	}
	if !IsUser(ctx, "u-1") || IsUser(ctx, "u-2") {
		t.Fatal("IsUser must match only the claimed user id")
	}
}
