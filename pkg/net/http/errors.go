package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/labelforge/labelforge/pkg"
)

// validationErrorResponse is the 400 body for payload rejections. Errors lists
// the individual rule messages when more than one rule failed.
type validationErrorResponse struct {
	Code    string   `json:"code"`
	Title   string   `json:"title"`
	Message string   `json:"message"`
	Errors  []string `json:"errors,omitempty"`
}

// WithError maps a business error to its HTTP response.
func WithError(c *fiber.Ctx, err error) error {
	switch e := err.(type) {
	case pkg.EntityNotFoundError:
		return NotFound(c, e.Code, e.Title, e.Message)
	case pkg.ValidationError:
		return BadRequest(c, validationErrorResponse{
			Code:    e.Code,
			Title:   e.Title,
			Message: e.Message,
			Errors:  e.Errors,
		})
	case pkg.UnprocessableOperationError:
		return UnprocessableEntity(c, e.Code, e.Title, e.Message)
	case pkg.InternalServerError:
		return InternalServerError(c, e.Code, e.Title, e.Message)
	default:
		var iErr pkg.InternalServerError

		_ = errors.As(pkg.ValidateInternalError(err, ""), &iErr)

		return InternalServerError(c, iErr.Code, iErr.Title, iErr.Message)
	}
}
