package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager() *JWTManager {
	return NewJWTManager("test-secret-at-least-32-chars-long!", 15*time.Minute, 7*24*time.Hour)
}

func TestAccessToken_RoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateAccessToken("acc-1", "buyer@example.com", "user")
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-1", claims.AccountID)
	assert.Equal(t, "buyer@example.com", claims.Email)
	assert.Equal(t, "user", claims.Role)
	assert.Equal(t, "acc-1", claims.Subject)
}

func TestAccessToken_Expired(t *testing.T) {
	m := NewJWTManager("test-secret-at-least-32-chars-long!", -time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("acc-1", "buyer@example.com", "user")
	require.NoError(t, err)

	_, err = m.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	m := newTestManager()
	other := NewJWTManager("a-completely-different-secret-value!", 15*time.Minute, time.Hour)

	token, err := m.GenerateAccessToken("acc-1", "buyer@example.com", "user")
	require.NoError(t, err)

	_, err = other.ValidateAccessToken(token)
	assert.Error(t, err)
}

func TestRefreshToken_RoundTrip(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("acc-7")
	require.NoError(t, err)

	claims, err := m.ValidateRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "acc-7", claims.AccountID)
}

func TestRefreshToken_NotValidAsAccessTokenCarrier(t *testing.T) {
	m := newTestManager()

	token, err := m.GenerateRefreshToken("acc-7")
	require.NoError(t, err)

	// Refresh tokens carry no email/role; parsing as access claims yields
	// empty identity fields.
	claims, err := m.ValidateAccessToken(token)
	require.NoError(t, err)
	assert.Empty(t, claims.Email)
	assert.Empty(t, claims.Role)
}
