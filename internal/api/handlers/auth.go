package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/woodchat/woodchat-backend/internal/api/middleware"
	"github.com/woodchat/woodchat-backend/internal/api/response"
	"github.com/woodchat/woodchat-backend/internal/auth"
	"github.com/woodchat/woodchat-backend/internal/verification"
)

// AuthHandler serves the account endpoints.
type AuthHandler struct {
	auth   *auth.Service
	verify *verification.Service
}

// NewAuthHandler creates an auth handler
func NewAuthHandler(authService *auth.Service, verifyService *verification.Service) *AuthHandler {
	return &AuthHandler{auth: authService, verify: verifyService}
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return response.Error(c, fiber.StatusBadRequest, "username, email and password are required")
	}

	user, err := h.auth.Register(c.Context(), req.Username, req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrEmailAlreadyExists), errors.Is(err, auth.ErrUsernameAlreadyExists):
			return response.Error(c, fiber.StatusConflict, err.Error())
		case errors.Is(err, auth.ErrPasswordLength), errors.Is(err, auth.ErrPasswordComplexity):
			return response.Error(c, fiber.StatusBadRequest, err.Error())
		default:
			return response.Error(c, fiber.StatusInternalServerError, "failed to register")
		}
	}

	return response.Created(c, user)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	ExpiresIn    int         `json:"expires_in"`
	User         interface{} `json:"user,omitempty"`
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req loginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "invalid request body")
	}

	user, accessToken, refreshToken, err := h.auth.Login(c.Context(), req.Username, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return response.Error(c, fiber.StatusUnauthorized, "invalid username or password")
		case errors.Is(err, auth.ErrUserInactive):
			return response.Error(c, fiber.StatusForbidden, "account is inactive")
		default:
			return response.Error(c, fiber.StatusInternalServerError, "failed to log in")
		}
	}

	return response.Success(c, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(auth.AccessTokenTTL.Seconds()),
		User:         user,
	})
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh handles POST /auth/refresh
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req refreshRequest
	if err := c.BodyParser(&req); err != nil || req.RefreshToken == "" {
		return response.Error(c, fiber.StatusBadRequest, "refresh_token is required")
	}

	accessToken, refreshToken, err := h.auth.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return response.Error(c, fiber.StatusUnauthorized, "invalid refresh token")
	}

	return response.Success(c, tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int(auth.AccessTokenTTL.Seconds()),
	})
}

// Me handles GET /auth/me
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	user, err := h.auth.GetUser(c.Context(), userCtx.UserID)
	if err != nil {
		return response.Error(c, fiber.StatusNotFound, "user not found")
	}
	return response.Success(c, user)
}

type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword handles PATCH /auth/password
func (h *AuthHandler) ChangePassword(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var req changePasswordRequest
	if err := c.BodyParser(&req); err != nil || req.OldPassword == "" || req.NewPassword == "" {
		return response.Error(c, fiber.StatusBadRequest, "old_password and new_password are required")
	}

	if err := h.auth.ChangePassword(c.Context(), userCtx.UserID, req.OldPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return response.Error(c, fiber.StatusUnauthorized, "old password is incorrect")
		case errors.Is(err, auth.ErrPasswordLength), errors.Is(err, auth.ErrPasswordComplexity):
			return response.Error(c, fiber.StatusBadRequest, err.Error())
		default:
			return response.Error(c, fiber.StatusInternalServerError, "failed to change password")
		}
	}

	return response.Message(c, "password changed")
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

// ResetPassword handles POST /auth/password/reset. The caller proves control
// of the account with a mailed verification code.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req resetPasswordRequest
	if err := c.BodyParser(&req); err != nil || req.Email == "" || req.Code == "" || req.NewPassword == "" {
		return response.Error(c, fiber.StatusBadRequest, "email, code and new_password are required")
	}

	if err := h.verify.VerifyCode(c.Context(), req.Email, req.Code); err != nil {
		switch {
		case errors.Is(err, verification.ErrCodeNotFound), errors.Is(err, verification.ErrCodeMismatch):
			return response.Error(c, fiber.StatusBadRequest, err.Error())
		default:
			return response.Error(c, fiber.StatusInternalServerError, "failed to verify code")
		}
	}

	if err := h.auth.ResetPassword(c.Context(), req.Email, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, auth.ErrUserNotFound):
			return response.Error(c, fiber.StatusNotFound, "no account for this email")
		case errors.Is(err, auth.ErrPasswordLength), errors.Is(err, auth.ErrPasswordComplexity):
			return response.Error(c, fiber.StatusBadRequest, err.Error())
		default:
			return response.Error(c, fiber.StatusInternalServerError, "failed to reset password")
		}
	}

	return response.Message(c, "password reset")
}

type updateProfileRequest struct {
	Name      *string `json:"name"`
	Gender    *int    `json:"gender"`
	AvatarURL *string `json:"avatar_url"`
}

// UpdateProfile handles PUT /auth/profile
func (h *AuthHandler) UpdateProfile(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	var req updateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return response.Error(c, fiber.StatusBadRequest, "invalid request body")
	}
	if req.Gender != nil && (*req.Gender < 0 || *req.Gender > 2) {
		return response.Error(c, fiber.StatusBadRequest, "gender must be 0, 1 or 2")
	}

	user, err := h.auth.UpdateProfile(c.Context(), userCtx.UserID, auth.ProfileUpdate{
		Name:      req.Name,
		Gender:    req.Gender,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		return response.Error(c, fiber.StatusInternalServerError, "failed to update profile")
	}
	return response.Success(c, user)
}

// Logout handles POST /auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	token := auth.ExtractTokenFromBearer(c.Get(fiber.HeaderAuthorization))
	if token == "" {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	if err := h.auth.Logout(c.Context(), token); err != nil && !errors.Is(err, auth.ErrSessionNotFound) {
		return response.Error(c, fiber.StatusInternalServerError, "failed to log out")
	}
	return response.Message(c, "logged out")
}

// Deactivate handles DELETE /auth/me as a soft delete.
func (h *AuthHandler) Deactivate(c *fiber.Ctx) error {
	userCtx, ok := middleware.UserFromContext(c)
	if !ok {
		return response.Error(c, fiber.StatusUnauthorized, "not authenticated")
	}

	if err := h.auth.Deactivate(c.Context(), userCtx.UserID); err != nil {
		return response.Error(c, fiber.StatusInternalServerError, "failed to deactivate account")
	}
	return response.Message(c, "account deactivated")
}
