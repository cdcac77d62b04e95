package in

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/net/http"
)

// ParseTemplateIDPathParameter validates the :id path parameter. Template ids
// are either the built_in: prefixed compiled-in ids or the UUIDs the store
// assigns to user templates.
func ParseTemplateIDPathParameter(c *fiber.Ctx) error {
	id := c.Params("id")

	if strings.HasPrefix(id, constant.BuiltInTemplatePrefix) {
		return c.Next()
	}

	if _, err := uuid.Parse(id); err != nil {
		return http.WithError(c, pkg.ValidateBusinessError(constant.ErrInvalidPathParameter, "Template", "id"))
	}

	return c.Next()
}
