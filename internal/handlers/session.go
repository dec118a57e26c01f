package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"

	"alfredoptarigan/cv-analyzer-web/internal/services"
)

const sessionLocalKey = "session_id"

// SessionMiddleware ties every browser to a session ID kept in a cookie
// without expiry, so the session ends with the browser session.
func SessionMiddleware(cookieName string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// The ID outlives the request as a registry key, so it must not
		// alias the pooled request buffer.
		id := utils.CopyString(c.Cookies(cookieName))
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
			c.Cookie(&fiber.Cookie{
				Name:     cookieName,
				Value:    id,
				Path:     "/",
				HTTPOnly: true,
				SameSite: fiber.CookieSameSiteLaxMode,
			})
		}

		c.Locals(sessionLocalKey, id)
		return c.Next()
	}
}

// SessionID returns the ID set by SessionMiddleware.
func SessionID(c *fiber.Ctx) string {
	id, _ := c.Locals(sessionLocalKey).(string)
	return id
}

func bearerToken(c *fiber.Ctx, tokens services.TokenProvider) string {
	return tokens.Token(c.Get(fiber.HeaderAuthorization), c.Cookies(services.SessionCookieName))
}
