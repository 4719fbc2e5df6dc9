package core

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTeamActivationIsGuarded(t *testing.T) {
	team, err := NewTeam("Under 12", "", testNow)
	require.NoError(t, err)

	assert.ErrorIs(t, team.Activate(testNow), ErrAlreadyActive)
	require.NoError(t, team.Deactivate(testNow))
	assert.ErrorIs(t, team.Deactivate(testNow), ErrAlreadyInactive)
	require.NoError(t, team.Activate(testNow))
}

func TestNewUser(t *testing.T) {
	u, err := NewUser(" Anna@Example.org ", "Anna", "hash", testNow)
	require.NoError(t, err)
	assert.Equal(t, "anna@example.org", u.Email)

	_, err = NewUser("not-an-email", "Anna", "hash", testNow)
	assert.ErrorIs(t, err, ErrInvalidEmail)
}

func TestNewTeamUserDefaultsToMember(t *testing.T) {
	tu, err := NewTeamUser(uuid.New(), uuid.New(), nil, testNow)
	require.NoError(t, err)
	assert.True(t, tu.HasRole(RoleMember))
	assert.False(t, tu.HasRole(RoleAdmin))

	_, err = NewTeamUser(uuid.New(), uuid.New(), []Role{"coach"}, testNow)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod("Bank_Transfer")
	require.NoError(t, err)
	assert.Equal(t, PaymentBankTransfer, m)

	_, err = ParsePaymentMethod("cheque")
	assert.ErrorIs(t, err, ErrInvalidMethod)
}
