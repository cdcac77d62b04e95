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

type SettingsHandler struct {
	Service *services.UseCase
}

// SelectTemplateInput is the payload to switch the active template.
type SelectTemplateInput struct {
	TemplateID string `json:"templateId" validate:"required"`
} // @name SelectTemplateInput

// GetSettings is a method that returns the current settings.
//
//	@Summary		Get Settings
//	@Description	Get the current settings, including the selected template and global overrides
//	@Tags			Settings
//	@Produce		json
//	@Success		200	{object}	model.Settings
//	@Router			/v1/settings [get]
func (sh *SettingsHandler) GetSettings(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.get_settings")
	defer span.End()

	c.SetUserContext(ctx)

	logger.Info("Request to get settings")

	return http.OK(c, sh.Service.Settings.GetSettings())
}

// UpdateGlobalSettings is a method that patches the global settings.
//
//	@Summary		Update Global Settings
//	@Description	Patch global settings; unchanged keys are ignored and do not trigger a save
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Param			settings	body		model.GlobalSettingsUpdate	true	"Settings Patch"
//	@Success		200			{object}	model.Settings
//	@Router			/v1/settings [patch]
func (sh *SettingsHandler) UpdateGlobalSettings(t any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.update_global_settings")
	defer span.End()

	c.SetUserContext(ctx)

	payload := t.(*model.GlobalSettingsUpdate)
	logger.Infof("Request to update global settings: %#v", payload)

	err := libOpentelemetry.SetSpanAttributesFromStruct(&span, "payload", payload)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to convert payload to JSON string", err)

		return http.WithError(c, err)
	}

	sh.Service.Settings.UpdateGlobalSettings(ctx, *payload)

	return http.OK(c, sh.Service.Settings.GetSettings())
}

// SelectTemplate is a method that switches the active template.
//
//	@Summary		Select a Template
//	@Description	Set the selected template; selecting the current one is a no-op
//	@Tags			Settings
//	@Accept			json
//	@Produce		json
//	@Param			selection	body		SelectTemplateInput	true	"Template Selection"
//	@Success		200			{object}	model.Settings
//	@Router			/v1/settings/selected-template [put]
func (sh *SettingsHandler) SelectTemplate(t any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.select_template")
	defer span.End()

	c.SetUserContext(ctx)

	payload := t.(*SelectTemplateInput)

	logger.Infof("Request to select template %s", payload.TemplateID)

	if tpl := sh.Service.Templates.GetTemplate(ctx, payload.TemplateID); tpl == nil {
		err := pkg.ValidateBusinessError(constant.ErrTemplateNotFound, "Template", payload.TemplateID)

		libOpentelemetry.HandleSpanError(&span, "Template not found", err)

		return http.WithError(c, err)
	}

	sh.Service.Settings.SetSelectedTemplateID(ctx, payload.TemplateID)

	return http.OK(c, sh.Service.Settings.GetSettings())
}

// ResetSettings is a method that restores the compiled-in defaults.
//
//	@Summary		Reset Settings
//	@Description	Restore the default settings and persist immediately
//	@Tags			Settings
//	@Produce		json
//	@Success		200	{object}	model.Settings
//	@Router			/v1/settings/reset [post]
func (sh *SettingsHandler) ResetSettings(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.reset_settings")
	defer span.End()

	c.SetUserContext(ctx)

	logger.Info("Request to reset settings")

	if err := sh.Service.Settings.ResetSettings(ctx); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to reset settings", err)

		return http.WithError(c, err)
	}

	return http.OK(c, sh.Service.Settings.GetSettings())
}

// FlushSettings is a method that forces a pending save to disk.
//
//	@Summary		Flush Settings
//	@Description	Persist any pending debounced settings write immediately
//	@Tags			Settings
//	@Produce		json
//	@Success		200	{object}	map[string]bool
//	@Router			/v1/settings/flush [post]
func (sh *SettingsHandler) FlushSettings(c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.flush_settings")
	defer span.End()

	c.SetUserContext(ctx)

	logger.Info("Request to flush settings")

	if err := sh.Service.Settings.ForceSave(ctx); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to flush settings", err)

		return http.WithError(c, err)
	}

	return http.OK(c, fiber.Map{"saving": sh.Service.Settings.IsSaving()})
}
