package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := GenerateAccessToken(42, "ada@example.com", time.Hour, "s3cret")
	require.NoError(t, err)

	claims, err := VerifyAccessToken(token, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, uint(42), claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "42", claims.Subject)
}

func TestAccessTokenRejects(t *testing.T) {
	valid, err := GenerateAccessToken(1, "a@b.c", time.Hour, "s3cret")
	require.NoError(t, err)

	_, err = VerifyAccessToken(valid, "other")
	assert.ErrorIs(t, err, ErrInvalidToken)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{
		UserID: 1,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = VerifyAccessToken(expired, "s3cret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, AccessTokenClaims{UserID: 1}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	_, err = VerifyAccessToken(noExpiry, "s3cret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = VerifyAccessToken("garbage", "s3cret")
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = GenerateAccessToken(1, "a@b.c", time.Hour, "")
	assert.Error(t, err)
}
