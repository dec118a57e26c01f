package services

import (
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// SessionCookieName is the cookie the authentication provider keeps its
// session token in.
const SessionCookieName = "__session"

// Identity is what the navigation header shows for a signed-in user.
// Claims are read without verification: the backend verifies the token.
type Identity struct {
	SignedIn    bool
	Subject     string
	DisplayName string
}

// TokenProvider supplies the bearer credential of the current request.
type TokenProvider interface {
	Token(authorizationHeader string, sessionCookie string) string
	Identity(token string) Identity
}

type tokenProvider struct {
	parser *jwt.Parser
}

func NewTokenProvider() TokenProvider {
	return &tokenProvider{parser: jwt.NewParser()}
}

// Token prefers an explicit bearer header over the session cookie.
func (p *tokenProvider) Token(authorizationHeader string, sessionCookie string) string {
	parts := strings.Fields(authorizationHeader)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return strings.TrimSpace(sessionCookie)
}

func (p *tokenProvider) Identity(token string) Identity {
	if token == "" {
		return Identity{}
	}

	claims := jwt.MapClaims{}
	if _, _, err := p.parser.ParseUnverified(token, claims); err != nil {
		// Opaque tokens still count as a signed-in session.
		return Identity{SignedIn: true}
	}

	identity := Identity{SignedIn: true}
	if sub, err := claims.GetSubject(); err == nil {
		identity.Subject = sub
	}
	for _, key := range []string{"first_name", "given_name", "name", "email"} {
		if value, ok := claims[key].(string); ok && value != "" {
			identity.DisplayName = value
			break
		}
	}
	if identity.DisplayName == "" {
		identity.DisplayName = identity.Subject
	}
	return identity
}
