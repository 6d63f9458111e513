package constants

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAllowedRole(t *testing.T) {
	assert.True(t, AllowedRole(CreateProject, Creator))
	assert.False(t, AllowedRole(CreateProject, Investor))
	assert.True(t, AllowedRole(SettleInvestment, Investor))
	assert.False(t, AllowedRole(SettleInvestment, Creator))
	assert.True(t, AllowedRole(Negotiate, Creator))
	assert.True(t, AllowedRole(Negotiate, Investor))
	assert.False(t, AllowedRole("unknown_permission", Creator))
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, IsValidRole("creator"))
	assert.True(t, IsValidRole("investor"))
	assert.False(t, IsValidRole("admin"))
	assert.False(t, IsValidRole(""))
}
