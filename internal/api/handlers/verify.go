package handlers

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/woodchat/woodchat-backend/internal/api/response"
	"github.com/woodchat/woodchat-backend/internal/verification"
)

// VerifyHandler serves the email verification endpoints.
type VerifyHandler struct {
	verify *verification.Service
}

// NewVerifyHandler creates a verify handler
func NewVerifyHandler(verifyService *verification.Service) *VerifyHandler {
	return &VerifyHandler{verify: verifyService}
}

// SendCode handles GET /verify/email_code?email=&changePwd=
func (h *VerifyHandler) SendCode(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	if email == "" {
		return response.Error(c, fiber.StatusBadRequest, "email is required")
	}
	changePwd := c.QueryBool("changePwd")

	if err := h.verify.SendCode(c.Context(), email, changePwd); err != nil {
		if errors.Is(err, verification.ErrUserNotFound) {
			return response.Error(c, fiber.StatusNotFound, "no account for this email")
		}
		return response.Error(c, fiber.StatusInternalServerError, "failed to send verification code")
	}

	return response.Message(c, "verification code sent")
}

// VerifyEmail handles GET /verify/email_verify?code=&email=
func (h *VerifyHandler) VerifyEmail(c *fiber.Ctx) error {
	email := strings.TrimSpace(c.Query("email"))
	code := strings.TrimSpace(c.Query("code"))
	if email == "" || code == "" {
		return response.Error(c, fiber.StatusBadRequest, "email and code are required")
	}

	if err := h.verify.VerifyCode(c.Context(), email, code); err != nil {
		switch {
		case errors.Is(err, verification.ErrCodeNotFound):
			return response.Error(c, fiber.StatusBadRequest, "verification code not found or expired")
		case errors.Is(err, verification.ErrCodeMismatch):
			return response.Error(c, fiber.StatusBadRequest, "verification code does not match")
		default:
			return response.Error(c, fiber.StatusInternalServerError, "failed to verify email")
		}
	}

	return response.Message(c, "email verified")
}
