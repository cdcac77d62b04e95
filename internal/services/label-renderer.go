package services

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"go.opentelemetry.io/otel/attribute"

	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/barcode"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/imageloader"
	"github.com/labelforge/labelforge/pkg/model"
)

// LabelRenderer composes draw instructions for a data record against a
// template and the effective settings. It is stateless; all state lives in
// the stores it reads from.
type LabelRenderer struct {
	templates *TemplateStore
	settings  *SettingsStore
	encoder   barcode.Encoder
	images    imageloader.Loader
}

// NewLabelRenderer wires the renderer to its collaborators.
func NewLabelRenderer(templates *TemplateStore, settings *SettingsStore, encoder barcode.Encoder, images imageloader.Loader) *LabelRenderer {
	return &LabelRenderer{
		templates: templates,
		settings:  settings,
		encoder:   encoder,
		images:    images,
	}
}

// defaultFontSizes are the fallback sizes used when neither an operator
// override nor the template element specifies one.
var defaultFontSizes = map[string]float64{
	model.FieldFnsku:     constant.DefaultFontSizeFnsku,
	model.FieldSku:       constant.DefaultFontSizeSku,
	model.FieldTitle:     constant.DefaultFontSizeTitle,
	model.FieldCondition: constant.DefaultFontSizeCondition,
}

// GenerateLabel builds quantity identical pages for the record and returns
// them with the template they were composed against. The override, when
// present, is layered on a copy of the stored settings for this call only;
// the stored settings are never mutated. The barcode is encoded once and the
// record image fetched once, then shared by reference across pages.
//
// An empty templateID means "use the selected template". Image fetch failures
// are logged and skipped; every other failure aborts the render.
func (r *LabelRenderer) GenerateLabel(ctx context.Context, record model.DataRecord, templateID string, quantity int, override *model.GlobalSettingsUpdate) ([]model.Page, *model.Template, error) {
	logger, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.generate_label")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.Int("app.request.quantity", quantity),
	)

	if quantity < 1 {
		return nil, nil, pkg.ValidateBusinessError(constant.ErrInvalidQuantity, "Label", quantity)
	}

	if record.FNSKU == "" {
		return nil, nil, pkg.ValidateBusinessError(constant.ErrMissingRequiredField, "Label", model.FieldFnsku)
	}

	effective := r.settings.GetSettings().GlobalSettings
	if override != nil {
		effective.Apply(*override)
	}

	resolvedID := templateID
	if resolvedID == "" {
		resolvedID = r.settings.SelectedTemplateID()
	}

	if resolvedID == "" {
		resolvedID = constant.BuiltInStandardTemplateID
	}

	tpl := r.templates.GetTemplate(ctx, resolvedID)
	if tpl == nil {
		return nil, nil, pkg.ValidateBusinessError(constant.ErrTemplateNotFound, "Template", resolvedID)
	}

	page, err := r.composePage(ctx, record, tpl, effective)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to compose label page", err)

		return nil, nil, err
	}

	logger.Infof("Composed label for %s on template %s, %d page(s)", record.FNSKU, tpl.ID, quantity)

	pages := make([]model.Page, quantity)
	for i := range pages {
		pages[i] = page
	}

	return pages, tpl, nil
}

// composePage emits the instruction list for one label instance. Emission
// order is fixed: barcode, fnsku, sku, title, condition, image.
func (r *LabelRenderer) composePage(ctx context.Context, record model.DataRecord, tpl *model.Template, effective model.GlobalSettings) (model.Page, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	var page model.Page

	if spec, ok := r.element(tpl, model.FieldBarcode, model.FieldBarcode); ok {
		raster, err := r.encoder.Encode(ctx, record.FNSKU, effective.BarcodeFormat)
		if err != nil {
			return nil, pkg.ValidateBusinessError(constant.ErrBarcodeEncoding, "Label", record.FNSKU, effective.BarcodeFormat)
		}

		page = append(page, model.DrawInstruction{
			Kind:   model.InstructionImage,
			X:      spec.X,
			Y:      spec.Y,
			Width:  spec.Width,
			Height: spec.Height,
			Raster: raster,
		})
	}

	if spec, ok := r.element(tpl, model.FieldFnsku, model.FieldFnsku); ok {
		page = append(page, r.textInstruction(record.FNSKU, model.FieldFnsku, spec, effective))
	}

	if spec, ok := r.element(tpl, model.FieldSku, model.FieldSku); ok && record.SKU != "" {
		page = append(page, r.textInstruction("SKU: "+record.SKU, model.FieldSku, spec, effective))
	}

	condition := effectiveCondition(tpl, effective)

	if spec, ok := r.element(tpl, model.FieldTitle, model.FieldTitle); ok && record.Title != "" {
		title := record.Title
		if condition.Enabled && condition.Position == model.ConditionPositionTitlePrefix {
			title = conditionText(record, condition) + " - " + title
		}

		maxLen := spec.MaxLen
		if maxLen <= 0 {
			maxLen = constant.DefaultTitleMaxLength
		}

		page = append(page, r.textInstruction(truncate(title, maxLen), model.FieldTitle, spec, effective))
	}

	if condition.Enabled && condition.Position != model.ConditionPositionTitlePrefix {
		if spec, ok := r.element(tpl, model.FieldCondition, model.FieldCondition); ok {
			instr := r.textInstruction(conditionText(record, condition), model.FieldCondition, spec, effective)

			if condition.Position == model.ConditionPositionBottomRight {
				instr.Align = model.AlignRight
				instr.X = tpl.Width - constant.ConditionTrailingMargin
			}

			page = append(page, instr)
		}
	}

	if spec, ok := r.element(tpl, model.FieldImage, model.InclusionImages); ok && record.Image != "" {
		raster, err := r.images.Load(ctx, record.Image)
		if err != nil {
			logger.Warnf("Skipping record image: %v", err)
		} else {
			page = append(page, model.DrawInstruction{
				Kind:   model.InstructionImage,
				X:      spec.X,
				Y:      spec.Y,
				Width:  spec.Width,
				Height: spec.Height,
				Raster: raster,
			})
		}
	}

	return page, nil
}

// element resolves one field's placement, honoring the template's content
// inclusion toggles. A field absent from the mask does not render; the
// inclusion key differs from the element key only for the image field.
func (r *LabelRenderer) element(tpl *model.Template, field, inclusionKey string) (model.ElementSpec, bool) {
	if !tpl.ContentInclusion[inclusionKey] {
		return model.ElementSpec{}, false
	}

	spec, ok := tpl.Elements[field]

	return spec, ok
}

// textInstruction builds a text primitive with the three-level font size
// precedence: operator override, template element, compiled-in default. The
// resolved size is then auto-fit against the element's text box.
func (r *LabelRenderer) textInstruction(value, field string, spec model.ElementSpec, effective model.GlobalSettings) model.DrawInstruction {
	size := defaultFontSizes[field]
	if spec.FontSize > 0 {
		size = spec.FontSize
	}

	if o, ok := effective.FontSizeOverrides[field]; ok && o != nil && *o > 0 {
		size = *o
	}

	align := spec.Align
	if align == "" {
		align = model.AlignLeft
	}

	return model.DrawInstruction{
		Kind:     model.InstructionText,
		Value:    value,
		X:        spec.X,
		Y:        spec.Y,
		FontSize: fitFontSize(value, size, spec.MaxWidth),
		Align:    align,
		Bold:     spec.Bold,
	}
}

// effectiveCondition resolves the condition badge configuration: operator
// settings win over the template's; with neither present the badge is an
// enabled "NEW" at bottom-left.
func effectiveCondition(tpl *model.Template, effective model.GlobalSettings) model.ConditionSettings {
	var out model.ConditionSettings

	switch {
	case effective.ConditionSettings != nil:
		out = *effective.ConditionSettings
	case tpl.ConditionSettings != nil:
		out = *tpl.ConditionSettings
	default:
		out = model.ConditionSettings{Enabled: true, Text: constant.DefaultConditionText}
	}

	if out.Position == "" {
		out.Position = constant.DefaultConditionPosition
	}

	return out
}

// conditionText prefers the record's own condition over the configured badge
// text, landing on the compiled-in default when both are empty.
func conditionText(record model.DataRecord, condition model.ConditionSettings) string {
	if record.Condition != "" {
		return record.Condition
	}

	if condition.Text != "" {
		return condition.Text
	}

	return constant.DefaultConditionText
}

// truncate shortens s to maxLen runes, appending the ellipsis when anything
// was cut.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}

	return string(runes[:maxLen]) + constant.TitleEllipsis
}

// fitFontSize scales the font down when the measured line exceeds the text
// box. The measure is a glyph-aspect estimate, not a real shaping pass; it
// matches what the document renderer assumes.
func fitFontSize(value string, fontSize, maxWidth float64) float64 {
	if maxWidth <= 0 {
		maxWidth = constant.DefaultTextMaxWidth
	}

	measured := fontSize * constant.TextGlyphAspect * float64(len([]rune(value)))
	if measured <= maxWidth {
		return fontSize
	}

	return fontSize * maxWidth / measured
}
