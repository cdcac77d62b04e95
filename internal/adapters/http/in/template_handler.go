package in

import (
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/gofiber/fiber/v2"

	"github.com/labelforge/labelforge/internal/services"
	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/model"
	"github.com/labelforge/labelforge/pkg/net/http"
)

type TemplateHandler struct {
	Service *services.UseCase
}

// GetAllTemplates is a method that returns the full template catalog.
//
//	@Summary		List all Templates
//	@Description	List built-in and user-created label templates
//	@Tags			Template
//	@Produce		json
//	@Success		200	{array}	model.Template
//	@Router			/v1/templates [get]
func (th *TemplateHandler) GetAllTemplates(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_all_templates")
	defer span.End()

	c.SetUserContext(ctx)

	logger.Info("Request to list templates")

	return http.OK(c, th.Service.Templates.GetAllTemplates(ctx))
}

// GetTemplateByID is a method that returns one template.
//
//	@Summary		Get a Template
//	@Description	Get a label template by its ID
//	@Tags			Template
//	@Produce		json
//	@Param			id	path		string	true	"Template ID"
//	@Success		200	{object}	model.Template
//	@Router			/v1/templates/{id} [get]
func (th *TemplateHandler) GetTemplateByID(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_template_by_id")
	defer span.End()

	c.SetUserContext(ctx)

	id := c.Params("id")

	logger.Infof("Request to get template %s", id)

	tpl := th.Service.Templates.GetTemplate(ctx, id)
	if tpl == nil {
		err := pkg.ValidateBusinessError(constant.ErrTemplateNotFound, "Template", id)

		libOpentelemetry.HandleSpanError(&span, "Template not found", err)

		return http.WithError(c, err)
	}

	return http.OK(c, tpl)
}

// CreateTemplate is a method that creates a template.
//
//	@Summary		Create a Template
//	@Description	Create a user label template with the input payload
//	@Tags			Template
//	@Accept			json
//	@Produce		json
//	@Param			template	body		model.CreateTemplateInput	true	"Template Input"
//	@Success		201			{object}	model.Template
//	@Router			/v1/templates [post]
func (th *TemplateHandler) CreateTemplate(t any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.create_template")
	defer span.End()

	c.SetUserContext(ctx)

	payload := t.(*model.CreateTemplateInput)
	logger.Infof("Request to create template with details: %#v", payload)

	err := libOpentelemetry.SetSpanAttributesFromStruct(&span, "payload", payload)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to convert payload to JSON string", err)

		return http.WithError(c, err)
	}

	tpl, err := th.Service.Templates.CreateTemplate(ctx, payload)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to create template", err)

		return http.WithError(c, err)
	}

	logger.Infof("Successfully created template %s", tpl.ID)

	return http.Created(c, tpl)
}

// UpdateTemplateByID is a method that updates a user template.
//
//	@Summary		Update a Template
//	@Description	Update a user label template by its ID
//	@Tags			Template
//	@Accept			json
//	@Produce		json
//	@Param			id			path		string						true	"Template ID"
//	@Param			template	body		model.UpdateTemplateInput	true	"Template Input"
//	@Success		200			{object}	model.Template
//	@Router			/v1/templates/{id} [patch]
func (th *TemplateHandler) UpdateTemplateByID(t any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.update_template_by_id")
	defer span.End()

	c.SetUserContext(ctx)

	id := c.Params("id")
	payload := t.(*model.UpdateTemplateInput)

	logger.Infof("Request to update template %s", id)

	tpl, err := th.Service.Templates.UpdateTemplate(ctx, id, payload)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to update template", err)

		return http.WithError(c, err)
	}

	logger.Infof("Successfully updated template %s", id)

	return http.OK(c, tpl)
}

// DeleteTemplateByID is a method that deletes a user template.
//
//	@Summary		Delete a Template
//	@Description	Delete a user label template by its ID
//	@Tags			Template
//	@Param			id	path	string	true	"Template ID"
//	@Success		204
//	@Router			/v1/templates/{id} [delete]
func (th *TemplateHandler) DeleteTemplateByID(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.delete_template_by_id")
	defer span.End()

	c.SetUserContext(ctx)

	id := c.Params("id")

	logger.Infof("Request to delete template %s", id)

	if err := th.Service.Templates.DeleteTemplate(ctx, id); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to delete template", err)

		return http.WithError(c, err)
	}

	logger.Infof("Successfully deleted template %s", id)

	return http.NoContent(c)
}

// ClearTemplates is a method that deletes every user template.
//
//	@Summary		Clear user Templates
//	@Description	Delete all user-created label templates; built-ins are kept
//	@Tags			Template
//	@Produce		json
//	@Success		200	{object}	map[string]int
//	@Router			/v1/templates [delete]
func (th *TemplateHandler) ClearTemplates(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.clear_templates")
	defer span.End()

	c.SetUserContext(ctx)

	logger.Info("Request to clear user templates")

	removed, err := th.Service.Templates.ClearUserTemplates(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to clear user templates", err)

		return http.WithError(c, err)
	}

	logger.Infof("Successfully cleared %d user template(s)", removed)

	return http.OK(c, fiber.Map{"removed": removed})
}
