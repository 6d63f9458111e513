package validation

import (
	"testing"

	"ideanest-backend/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type profileRequest struct {
	Email    string  `json:"email" validate:"required,email"`
	Password string  `json:"password" validate:"required,password"`
	Fullname string  `json:"fullname" validate:"required,fullname"`
	Role     string  `json:"role" validate:"required,oneof=creator investor"`
	Wallet   *string `json:"wallet_address" validate:"omitempty,ethaddr"`
}

func TestStruct(t *testing.T) {
	wallet := "0xcB693B3Fe7FB2C44921B3D43779f8040B2f53AbD"
	ok := profileRequest{Email: "a@b.co", Password: "Passw0rd!", Fullname: "Ada Lovelace", Role: "creator", Wallet: &wallet}
	require.NoError(t, Struct(ok))

	missing := ok
	missing.Email = ""
	err := Struct(missing)
	assert.ErrorIs(t, err, domain.ErrValidation)
	assert.Equal(t, "email is required", err.Error())

	badRole := ok
	badRole.Role = "admin"
	assert.Equal(t, "role must be one of: creator investor", Struct(badRole).Error())

	badWallet := ok
	w := "cB693B3Fe7FB2C44921B3D43779f8040B2f53AbD"
	badWallet.Wallet = &w
	assert.Equal(t, "wallet_address must be a 0x-prefixed 20-byte hex address", Struct(badWallet).Error())

	weak := ok
	weak.Password = "password"
	assert.Equal(t, "Invalid password format", Struct(weak).Error())
}

func TestIsValidPassword(t *testing.T) {
	assert.True(t, IsValidPassword("Passw0rd!"))
	assert.False(t, IsValidPassword("short1!"))
	assert.False(t, IsValidPassword("NoDigits!!"))
	assert.False(t, IsValidPassword("NoSymbol123"))
}

func TestIsValidFullname(t *testing.T) {
	assert.True(t, IsValidFullname("Mary-Jane O'Neil"))
	assert.False(t, IsValidFullname(""))
	assert.False(t, IsValidFullname("R2D2"))
}
