package pdf

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/png"
	"strings"

	"github.com/flosch/pongo2/v6"

	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/model"
)

// labelDocument is the print layout. One .page per label, sized exactly to
// the template, with absolutely positioned items. The @page rule keeps Chrome
// from adding its own margins.
const labelDocument = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<style>
@page { size: {{ pageWidth }} {{ pageHeight }}; margin: 0; }
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: Helvetica, Arial, sans-serif; }
.page { position: relative; width: {{ pageWidth }}; height: {{ pageHeight }}; overflow: hidden; page-break-after: always; }
.page:last-child { page-break-after: avoid; }
.item { position: absolute; white-space: nowrap; line-height: 1; }
.item img { width: 100%; height: 100%; object-fit: contain; }
</style>
</head>
<body>
{% for page in pages %}<div class="page">
{% for item in page %}{% if item.kind == "image" %}<div class="item" style="{{ item.style }}"><img src="{{ item.src }}" alt=""></div>
{% else %}<div class="item" style="{{ item.style }}">{{ item.value }}</div>
{% endif %}{% endfor %}</div>
{% endfor %}</body>
</html>`

// LayoutRenderer turns composed pages into the HTML document the PDF pool
// prints. The pongo2 template is compiled once at construction.
type LayoutRenderer struct {
	tpl *pongo2.Template
}

// NewLayoutRenderer compiles the embedded layout template.
func NewLayoutRenderer() (*LayoutRenderer, error) {
	tpl, err := pongo2.FromString(labelDocument)
	if err != nil {
		return nil, fmt.Errorf("parsing label layout template: %w", err)
	}

	return &LayoutRenderer{tpl: tpl}, nil
}

// RenderHTML builds the document for the given pages against their template.
// Rasters shared across pages are encoded to a data URI once and reused.
func (r *LayoutRenderer) RenderHTML(ctx context.Context, pages []model.Page, tpl *model.Template) (string, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	unit := tpl.Units
	encoded := map[image.Image]string{}

	pageViews := make([]any, 0, len(pages))

	for _, page := range pages {
		items := make([]map[string]any, 0, len(page))

		for _, instr := range page {
			item, err := r.itemView(instr, tpl, unit, encoded)
			if err != nil {
				logger.Errorf("Failed to encode raster for layout: %v", err)
				return "", err
			}

			items = append(items, item)
		}

		pageViews = append(pageViews, items)
	}

	out, err := r.tpl.Execute(pongo2.Context{
		"pageWidth":  dim(tpl.Width, unit),
		"pageHeight": dim(tpl.Height, unit),
		"pages":      pageViews,
	})
	if err != nil {
		logger.Errorf("Failed to execute label layout template: %v", err)
		return "", err
	}

	return out, nil
}

// itemView maps one draw instruction to the template's item shape, computing
// the CSS placement here so the layout template stays a dumb loop.
func (r *LayoutRenderer) itemView(instr model.DrawInstruction, tpl *model.Template, unit string, encoded map[image.Image]string) (map[string]any, error) {
	var style strings.Builder

	fmt.Fprintf(&style, "top:%s;", dim(instr.Y, unit))

	switch instr.Align {
	case model.AlignRight:
		fmt.Fprintf(&style, "right:%s;", dim(tpl.Width-instr.X, unit))
	case model.AlignCenter:
		fmt.Fprintf(&style, "left:%s;transform:translateX(-50%%);", dim(instr.X, unit))
	default:
		fmt.Fprintf(&style, "left:%s;", dim(instr.X, unit))
	}

	if instr.Kind == model.InstructionImage {
		fmt.Fprintf(&style, "width:%s;height:%s;", dim(instr.Width, unit), dim(instr.Height, unit))

		src, ok := encoded[instr.Raster]
		if !ok {
			uri, err := rasterDataURI(instr.Raster)
			if err != nil {
				return nil, err
			}

			encoded[instr.Raster] = uri
			src = uri
		}

		return map[string]any{
			"kind":  model.InstructionImage,
			"style": style.String(),
			"src":   src,
		}, nil
	}

	fmt.Fprintf(&style, "font-size:%.2fpt;", instr.FontSize)

	if instr.Bold {
		style.WriteString("font-weight:bold;")
	}

	return map[string]any{
		"kind":  model.InstructionText,
		"style": style.String(),
		"value": instr.Value,
	}, nil
}

// dim formats a value with the template's unit suffix, trimmed the way the
// display name trims dimensions.
func dim(v float64, unit string) string {
	s := fmt.Sprintf("%.3f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")

	return s + unit
}

// rasterDataURI encodes a raster as an inline PNG. The print document must be
// self-contained; Chrome loads it from a file URL with no network access.
func rasterDataURI(raster image.Image) (string, error) {
	if raster == nil {
		return "", fmt.Errorf("draw instruction carries no raster")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, raster); err != nil {
		return "", fmt.Errorf("encoding raster png: %w", err)
	}

	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// PaperSize converts the template dimensions to the inches Chrome's print
// API expects.
func PaperSize(tpl *model.Template) (widthIn, heightIn float64) {
	if tpl.Units == model.UnitsIn {
		return tpl.Width, tpl.Height
	}

	return tpl.Width / constant.MMPerInch, tpl.Height / constant.MMPerInch
}
