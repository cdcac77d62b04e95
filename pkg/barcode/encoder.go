package barcode

import (
	"context"
	"fmt"
	"image"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"github.com/boombuler/barcode/code39"
	"github.com/boombuler/barcode/ean"

	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/model"
)

// Raster dimensions for the scaled 1D code, in pixels. The document renderer
// fits the raster into the element box, so only the aspect matters here.
const (
	rasterWidth  = 600
	rasterHeight = 160
)

// Encoder turns a payload string into a scannable raster.
//
//go:generate mockgen --destination=encoder.mock.go --package=barcode . Encoder
type Encoder interface {
	Encode(ctx context.Context, data, format string) (image.Image, error)
}

// SymbologyEncoder is the production Encoder backed by boombuler/barcode.
type SymbologyEncoder struct{}

// Compile-time interface satisfaction check.
var _ Encoder = (*SymbologyEncoder)(nil)

// NewSymbologyEncoder creates an Encoder supporting CODE128, CODE39 and EAN13.
func NewSymbologyEncoder() *SymbologyEncoder {
	return &SymbologyEncoder{}
}

// Encode encodes data with the given symbology and scales it to the shared
// raster size. Unknown formats and payloads the symbology rejects both map to
// the encoding sentinel.
func (e *SymbologyEncoder) Encode(_ context.Context, data, format string) (image.Image, error) {
	if data == "" {
		return nil, fmt.Errorf("empty barcode payload: %w", constant.ErrBarcodeEncoding)
	}

	var (
		bc  barcode.Barcode
		err error
	)

	switch format {
	case model.BarcodeFormatCode128:
		bc, err = code128.Encode(data)
	case model.BarcodeFormatCode39:
		bc, err = code39.Encode(data, true, true)
	case model.BarcodeFormatEAN13:
		bc, err = ean.Encode(data)
	default:
		return nil, fmt.Errorf("unsupported symbology %q: %w", format, constant.ErrBarcodeEncoding)
	}

	if err != nil {
		return nil, fmt.Errorf("encode %s: %v: %w", format, err, constant.ErrBarcodeEncoding)
	}

	scaled, err := barcode.Scale(bc, rasterWidth, rasterHeight)
	if err != nil {
		return nil, fmt.Errorf("scale %s: %v: %w", format, err, constant.ErrBarcodeEncoding)
	}

	return scaled, nil
}
