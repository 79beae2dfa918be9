package utils

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	token, err := GenerateJWT(userID, "buyer@example.com", true, 1)
	require.NoError(t, err)

	claims, err := ValidateJWT(token)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), claims.UserID)
	assert.Equal(t, "buyer@example.com", claims.Email)
	assert.True(t, claims.EmailVerified)
}

func TestExpiredAccessToken(t *testing.T) {
	SetJWTSecret("test-secret")

	token, err := GenerateJWT(uuid.New(), "buyer@example.com", false, -1)
	require.NoError(t, err)

	_, err = ValidateJWT(token)
	assert.Error(t, err)
}

func TestTokensAreNotInterchangeable(t *testing.T) {
	SetJWTSecret("test-secret")
	userID := uuid.New()

	refresh, err := GenerateRefreshToken(userID, 1)
	require.NoError(t, err)
	_, err = ValidateJWT(refresh)
	assert.Error(t, err, "refresh token must not authenticate requests")

	subject, err := ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, userID.String(), subject)

	access, err := GenerateJWT(userID, "buyer@example.com", false, 1)
	require.NoError(t, err)
	_, err = ValidateRefreshToken(access)
	assert.Error(t, err, "access token must not refresh")
}

func TestTokenSignedWithOtherSecret(t *testing.T) {
	SetJWTSecret("first")
	token, err := GenerateJWT(uuid.New(), "buyer@example.com", false, 1)
	require.NoError(t, err)

	SetJWTSecret("second")
	_, err = ValidateJWT(token)
	assert.Error(t, err)
}
