package services

import (
	"testing"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return token
}

func TestTokenProvider_Token(t *testing.T) {
	tokens := NewTokenProvider()

	assert.Equal(t, "header-token", tokens.Token("Bearer header-token", "cookie-token"))
	assert.Equal(t, "header-token", tokens.Token("bearer header-token", ""))
	assert.Equal(t, "cookie-token", tokens.Token("", " cookie-token "))
	assert.Equal(t, "cookie-token", tokens.Token("Basic abc", "cookie-token"))
	assert.Empty(t, tokens.Token("", ""))
}

func TestTokenProvider_Identity(t *testing.T) {
	tokens := NewTokenProvider()

	t.Run("anonymous", func(t *testing.T) {
		assert.Equal(t, Identity{}, tokens.Identity(""))
	})

	t.Run("first name claim", func(t *testing.T) {
		identity := tokens.Identity(signedToken(t, jwt.MapClaims{"sub": "user_1", "first_name": "Ada", "email": "ada@example.com"}))

		assert.True(t, identity.SignedIn)
		assert.Equal(t, "user_1", identity.Subject)
		assert.Equal(t, "Ada", identity.DisplayName)
	})

	t.Run("falls back to subject", func(t *testing.T) {
		identity := tokens.Identity(signedToken(t, jwt.MapClaims{"sub": "user_2"}))

		assert.Equal(t, "user_2", identity.DisplayName)
	})

	t.Run("opaque token", func(t *testing.T) {
		identity := tokens.Identity("not-a-jwt")

		assert.True(t, identity.SignedIn)
		assert.Empty(t, identity.DisplayName)
	})
}
