package response

import (
	"time"

	"github.com/gofiber/fiber/v2"
)

// Body is the envelope for every non-streaming response.
type Body struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp"`
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// Success writes a 200 envelope around data.
func Success(c *fiber.Ctx, data interface{}) error {
	return c.JSON(Body{Status: "success", Data: data, Timestamp: now()})
}

// Created writes a 201 envelope around data.
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(Body{Status: "success", Data: data, Timestamp: now()})
}

// Message writes a 200 envelope with a human-readable message and no data.
func Message(c *fiber.Ctx, message string) error {
	return c.JSON(Body{Status: "success", Message: message, Timestamp: now()})
}

// Error writes an error envelope with the given status code.
func Error(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(Body{Status: "error", Message: message, Timestamp: now()})
}
