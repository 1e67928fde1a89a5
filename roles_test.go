package flashdeck_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/flashdeck/flashdeck"
)

func TestUserRoleIsValid(t *testing.T) {
	assert.True(t, flashdeck.RoleUser.IsValid())
	assert.True(t, flashdeck.RoleAdmin.IsValid())
	assert.False(t, flashdeck.UserRole("").IsValid())
	assert.False(t, flashdeck.UserRole("superuser").IsValid())
}

func TestUserRoleIsAdmin(t *testing.T) {
	assert.True(t, flashdeck.RoleAdmin.IsAdmin())
	assert.False(t, flashdeck.RoleUser.IsAdmin())
	assert.False(t, flashdeck.UserRole("").IsAdmin())
}

func TestUserRoleIsAtLeast(t *testing.T) {
	tests := []struct {
		name string
		role flashdeck.UserRole
		min  flashdeck.UserRole
		want bool
	}{
		{"admin satisfies admin", flashdeck.RoleAdmin, flashdeck.RoleAdmin, true},
		{"admin satisfies user", flashdeck.RoleAdmin, flashdeck.RoleUser, true},
		{"user satisfies user", flashdeck.RoleUser, flashdeck.RoleUser, true},
		{"user does not satisfy admin", flashdeck.RoleUser, flashdeck.RoleAdmin, false},
		{"unknown satisfies nothing", flashdeck.UserRole("guest"), flashdeck.RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.role.IsAtLeast(tt.min))
		})
	}
}

func TestParseRole(t *testing.T) {
	tests := []struct {
		input string
		want  flashdeck.UserRole
		ok    bool
	}{
		{"User", flashdeck.RoleUser, true},
		{"user", flashdeck.RoleUser, true},
		{"ADMIN", flashdeck.RoleAdmin, true},
		{"  admin  ", flashdeck.RoleAdmin, true},
		{"moderator", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := flashdeck.ParseRole(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleForAdminFlag(t *testing.T) {
	assert.Equal(t, flashdeck.RoleAdmin, flashdeck.RoleForAdminFlag(true))
	assert.Equal(t, flashdeck.RoleUser, flashdeck.RoleForAdminFlag(false))
}
