package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/woodchat/woodchat-backend/internal/api/response"
	"github.com/woodchat/woodchat-backend/internal/auth"
	"github.com/woodchat/woodchat-backend/internal/models"
)

// userContextKey is the locals key holding the authenticated caller.
const userContextKey = "user"

// RequireAuth validates the Bearer token and stores a UserContext in locals.
func RequireAuth(authService *auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := auth.ExtractTokenFromBearer(c.Get(fiber.HeaderAuthorization))
		if token == "" {
			return response.Error(c, fiber.StatusUnauthorized, "missing or malformed authorization header")
		}

		user, _, err := authService.ValidateAccessToken(c.Context(), token)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrExpiredToken), errors.Is(err, auth.ErrSessionExpired):
				return response.Error(c, fiber.StatusUnauthorized, "token expired")
			case errors.Is(err, auth.ErrUserInactive):
				return response.Error(c, fiber.StatusForbidden, "account is inactive")
			default:
				return response.Error(c, fiber.StatusUnauthorized, "invalid token")
			}
		}

		c.Locals(userContextKey, &models.UserContext{
			UserID:   user.ID,
			Username: user.Username,
			Email:    user.Email,
		})
		return c.Next()
	}
}

// UserFromContext returns the authenticated caller set by RequireAuth.
func UserFromContext(c *fiber.Ctx) (*models.UserContext, bool) {
	user, ok := c.Locals(userContextKey).(*models.UserContext)
	return user, ok
}
