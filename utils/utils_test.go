package utils

import (
	"strings"
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ray-remotestate/smartmenu/config"
	"github.com/ray-remotestate/smartmenu/middlewares"
)

func TestGenerateAccessTokenRoundTrip(t *testing.T) {
	config.SecretKey = []byte("test-secret")

	userID := uuid.New()
	sessionID := uuid.New()

	tokenStr, err := GenerateAccessToken(userID, sessionID, []string{"admin"})
	require.NoError(t, err)
	require.NotEmpty(t, tokenStr)

	claims := &middlewares.Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(config.SecretKey), nil
	})
	require.NoError(t, err)
	require.True(t, token.Valid)

	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, []string{"admin"}, claims.Roles)
	assert.Equal(t, sessionID.String(), claims.ID)

	parsedSession, err := claims.SessionID()
	require.NoError(t, err)
	assert.Equal(t, sessionID, parsedSession)
}

func TestGenerateAccessTokenRejectsWrongKey(t *testing.T) {
	config.SecretKey = []byte("test-secret")

	tokenStr, err := GenerateAccessToken(uuid.New(), uuid.New(), []string{"user"})
	require.NoError(t, err)

	claims := &middlewares.Claims{}
	_, err = jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte("other-secret"), nil
	})
	assert.Error(t, err)
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("secret123")))
	assert.Error(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("wrong")))
}

func TestNewOrderNumber(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := NewOrderNumber()
		assert.True(t, strings.HasPrefix(n, "#ORD-"), "unexpected prefix: %s", n)
		assert.Len(t, n, len("#ORD-")+12)
		assert.Equal(t, strings.ToUpper(n), n)
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}

func TestGenerateOTP(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := GenerateOTP()
		require.NoError(t, err)
		require.Len(t, code, 6)
		assert.GreaterOrEqual(t, code, "100000")
		assert.LessOrEqual(t, code, "999999")
	}
}
