package model

// DataRecord is the product data extracted from a host page. Every field but
// FNSKU is optional; FNSKU is the one mandatory field across all templates.
//
// swagger:model DataRecord
// @Description DataRecord is the product data to be printed on a label.
type DataRecord struct {
	SKU       string `json:"sku,omitempty" example:"WIDGET-BLUE-L"`
	FNSKU     string `json:"fnsku" example:"X0012ABCDE"`
	ASIN      string `json:"asin,omitempty" example:"B0093ABCDE"`
	Title     string `json:"title,omitempty" example:"Blue Widget, Large"`
	Image     string `json:"image,omitempty" example:"https://images.example.com/widget.jpg"`
	Condition string `json:"condition,omitempty" example:"NEW"`
} // @name DataRecord
