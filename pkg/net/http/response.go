package http

import (
	commonsHTTP "github.com/LerianStudio/lib-commons/v2/commons/net/http"
	"github.com/gofiber/fiber/v2"
)

// OK sends an HTTP 200 with the given body.
// Delegates to lib-commons commonsHTTP.OK for consistency.
func OK(c *fiber.Ctx, s any) error {
	return commonsHTTP.OK(c, s)
}

// Created sends an HTTP 201 with the given body.
// Delegates to lib-commons commonsHTTP.Created for consistency.
func Created(c *fiber.Ctx, s any) error {
	return commonsHTTP.Created(c, s)
}

// NoContent sends an HTTP 204 with no body.
// Delegates to lib-commons commonsHTTP.NoContent for consistency.
func NoContent(c *fiber.Ctx) error {
	return commonsHTTP.NoContent(c)
}

// BadRequest sends an HTTP 400 Bad Request response with a custom body.
// Delegates to lib-commons commonsHTTP.BadRequest for consistency.
func BadRequest(c *fiber.Ctx, s any) error {
	return commonsHTTP.BadRequest(c, s)
}

// NotFound sends an HTTP 404 Not Found response with a custom code, title and message.
// Delegates to lib-commons commonsHTTP.NotFound for consistency.
func NotFound(c *fiber.Ctx, code, title, message string) error {
	return commonsHTTP.NotFound(c, code, title, message)
}

// UnprocessableEntity sends an HTTP 422 Unprocessable Entity response with a custom code, title and message.
// Delegates to lib-commons commonsHTTP.UnprocessableEntity for consistency.
func UnprocessableEntity(c *fiber.Ctx, code, title, message string) error {
	return commonsHTTP.UnprocessableEntity(c, code, title, message)
}

// InternalServerError sends an HTTP 500 Internal Server Error response.
// Delegates to lib-commons commonsHTTP.InternalServerError for consistency.
func InternalServerError(c *fiber.Ctx, code, title, message string) error {
	return commonsHTTP.InternalServerError(c, code, title, message)
}
