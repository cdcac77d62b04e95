package in

import (
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/gofiber/fiber/v2"

	"github.com/labelforge/labelforge/internal/services"
	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/model"
	"github.com/labelforge/labelforge/pkg/net/http"
	"github.com/labelforge/labelforge/pkg/pdf"
)

// Output kinds for label generation.
const (
	OutputInstructions = "instructions"
	OutputPDF          = "pdf"
)

type LabelHandler struct {
	Service *services.UseCase
	Layout  *pdf.LayoutRenderer
	PDF     pdf.PDFGenerator
}

// GenerateLabelInput is the payload to compose labels for one record.
type GenerateLabelInput struct {
	Record     model.DataRecord            `json:"record" validate:"required"`
	TemplateID string                      `json:"templateId,omitempty"`
	Quantity   int                         `json:"quantity,omitempty"`
	Output     string                      `json:"output,omitempty" validate:"omitempty,oneof=instructions pdf"`
	Override   *model.GlobalSettingsUpdate `json:"override,omitempty"`
} // @name GenerateLabelInput

// GenerateLabel is a method that composes labels for a record.
//
//	@Summary		Generate Labels
//	@Description	Compose draw instructions or a printable PDF for a data record
//	@Tags			Label
//	@Accept			json
//	@Produce		json
//	@Param			request	body	GenerateLabelInput	true	"Label Request"
//	@Success		200
//	@Router			/v1/labels [post]
func (lh *LabelHandler) GenerateLabel(t any, c *fiber.Ctx) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)
	tracer := pkg.NewTracerFromContext(ctx)

	ctx, span := tracer.Start(ctx, "handler.generate_label")
	defer span.End()

	c.SetUserContext(ctx)

	payload := t.(*GenerateLabelInput)

	logger.Infof("Request to generate %d label(s) for %s", payload.Quantity, payload.Record.FNSKU)

	// The quantity is clamped here, at the boundary; the renderer trusts it.
	quantity := payload.Quantity
	if quantity < 1 {
		quantity = 1
	}

	if quantity > constant.MaxLabelQuantity {
		quantity = constant.MaxLabelQuantity
	}

	output := payload.Output
	if output == "" {
		output = OutputInstructions
	}

	pages, tpl, err := lh.Service.Renderer.GenerateLabel(ctx, payload.Record, payload.TemplateID, quantity, payload.Override)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to generate label", err)

		return http.WithError(c, err)
	}

	switch output {
	case OutputInstructions:
		return http.OK(c, fiber.Map{
			"templateId": tpl.ID,
			"pages":      pages,
		})
	case OutputPDF:
		return lh.respondPDF(c, pages, tpl)
	default:
		err := pkg.ValidateBusinessError(constant.ErrInvalidOutputKind, "Label", output)

		libOpentelemetry.HandleSpanError(&span, "Invalid output kind", err)

		return http.WithError(c, err)
	}
}

// respondPDF prints the composed pages through the Chrome pool and streams
// the document back.
func (lh *LabelHandler) respondPDF(c *fiber.Ctx, pages []model.Page, tpl *model.Template) error {
	ctx := c.UserContext()

	logger := pkg.NewLoggerFromContext(ctx)

	html, err := lh.Layout.RenderHTML(ctx, pages, tpl)
	if err != nil {
		logger.Errorf("Failed to render label document: %v", err)

		return http.WithError(c, pkg.ValidateBusinessError(constant.ErrDocumentRender, "Label"))
	}

	widthIn, heightIn := pdf.PaperSize(tpl)

	doc, err := lh.PDF.Submit(html, widthIn, heightIn)
	if err != nil {
		logger.Errorf("Failed to print label document: %v", err)

		return http.WithError(c, pkg.ValidateBusinessError(constant.ErrDocumentRender, "Label"))
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="labels.pdf"`)

	return c.Status(fiber.StatusOK).Send(doc)
}
