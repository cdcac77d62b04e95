package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/labelforge/labelforge/pkg/constant"
)

// Label units.
const (
	UnitsMM = "mm"
	UnitsIn = "in"
)

// Label orientations.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Element field names. ContentInclusion uses the same keys except for images,
// which is pluralized; the asymmetry is kept for storage compatibility with a
// future multi-image layout.
const (
	FieldBarcode   = "barcode"
	FieldFnsku     = "fnsku"
	FieldSku       = "sku"
	FieldTitle     = "title"
	FieldImage     = "image"
	FieldCondition = "condition"

	InclusionImages = "images"
)

// Condition badge positions.
const (
	ConditionPositionBottomLeft  = "bottom-left"
	ConditionPositionBottomRight = "bottom-right"
	ConditionPositionTitlePrefix = "title-prefix"
)

// ElementSpec places one field on the label, in template units. Width and
// Height apply to barcode and image elements; the font attributes apply to the
// text elements.
type ElementSpec struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width,omitempty"`
	Height   float64 `json:"height,omitempty"`
	FontSize float64 `json:"fontSize,omitempty"`
	Align    string  `json:"align,omitempty"`
	Bold     bool    `json:"bold,omitempty"`
	MaxLen   int     `json:"maxLength,omitempty"`
	MaxWidth float64 `json:"maxWidth,omitempty"`
}

// ConditionSettings configures the condition badge ("NEW", "USED", ...).
type ConditionSettings struct {
	Enabled  bool   `json:"enabled"`
	Text     string `json:"text"`
	Position string `json:"position"`
}

// Template represents the entity model for a label layout.
type Template struct {
	ID       string `json:"id" example:"built_in:standard"`
	BaseName string `json:"baseName" example:"FBA Standard"`

	// Name is derived from BaseName and the dimensions by the store; it is
	// never accepted from callers.
	Name string `json:"name,omitempty" example:"FBA Standard 66.7x25.4mm"`

	UserCreated       bool                   `json:"userCreated"`
	Width             float64                `json:"width" example:"66.7"`
	Height            float64                `json:"height" example:"25.4"`
	Units             string                 `json:"units" example:"mm"`
	Orientation       string                 `json:"orientation" example:"landscape"`
	Elements          map[string]ElementSpec `json:"elements"`
	ContentInclusion  map[string]bool        `json:"contentInclusion"`
	ConditionSettings *ConditionSettings     `json:"conditionSettings,omitempty"`
	CreatedAt         time.Time              `json:"createdAt" example:"2021-01-01T00:00:00Z"`
	UpdatedAt         time.Time              `json:"updatedAt" example:"2021-01-01T00:00:00Z"`
}

// textFields are the element names that carry font attributes.
var textFields = map[string]bool{
	FieldFnsku:     true,
	FieldSku:       true,
	FieldTitle:     true,
	FieldCondition: true,
}

// boxFields are the element names that require an explicit box.
var boxFields = map[string]bool{
	FieldBarcode: true,
	FieldImage:   true,
}

// DisplayName derives the list label from the base name and the dimensions.
func (t *Template) DisplayName() string {
	return fmt.Sprintf("%s %sx%s%s", t.BaseName, trimFloat(t.Width), trimFloat(t.Height), t.Units)
}

// IsBuiltIn reports whether the template id belongs to a compiled-in template.
func (t *Template) IsBuiltIn() bool {
	return strings.HasPrefix(t.ID, constant.BuiltInTemplatePrefix)
}

// Validate checks the template invariant and returns one message per violated
// rule. An empty slice means the template is valid.
func (t *Template) Validate() []string {
	var errs []string

	if strings.TrimSpace(t.BaseName) == "" {
		errs = append(errs, "name must not be empty")
	}

	if t.Width <= 0 {
		errs = append(errs, "width must be greater than zero")
	}

	if t.Height <= 0 {
		errs = append(errs, "height must be greater than zero")
	}

	if t.Units != UnitsMM && t.Units != UnitsIn {
		errs = append(errs, fmt.Sprintf("units must be %q or %q", UnitsMM, UnitsIn))
	}

	if t.Orientation != OrientationPortrait && t.Orientation != OrientationLandscape {
		errs = append(errs, fmt.Sprintf("orientation must be %q or %q", OrientationPortrait, OrientationLandscape))
	}

	if len(t.Elements) == 0 {
		errs = append(errs, "elements must not be empty")
	} else {
		if _, hasBarcode := t.Elements[FieldBarcode]; !hasBarcode {
			if _, hasFnsku := t.Elements[FieldFnsku]; !hasFnsku {
				errs = append(errs, "elements must contain at least one of barcode or fnsku")
			}
		}

		for name, el := range t.Elements {
			errs = append(errs, validateElement(name, el)...)
		}
	}

	if t.ContentInclusion == nil {
		errs = append(errs, "contentInclusion must be present")
	}

	return errs
}

func validateElement(name string, el ElementSpec) []string {
	var errs []string

	if el.X < 0 || el.Y < 0 {
		errs = append(errs, fmt.Sprintf("element %s: x and y must not be negative", name))
	}

	if boxFields[name] && (el.Width <= 0 || el.Height <= 0) {
		errs = append(errs, fmt.Sprintf("element %s: width and height must be greater than zero", name))
	}

	if textFields[name] && el.FontSize <= 0 {
		errs = append(errs, fmt.Sprintf("element %s: fontSize must be greater than zero", name))
	}

	return errs
}

// Clone returns a deep copy suitable for handing to callers without exposing
// the store's internal maps.
func (t *Template) Clone() *Template {
	if t == nil {
		return nil
	}

	out := *t

	if t.Elements != nil {
		out.Elements = make(map[string]ElementSpec, len(t.Elements))
		for k, v := range t.Elements {
			out.Elements[k] = v
		}
	}

	if t.ContentInclusion != nil {
		out.ContentInclusion = make(map[string]bool, len(t.ContentInclusion))
		for k, v := range t.ContentInclusion {
			out.ContentInclusion[k] = v
		}
	}

	if t.ConditionSettings != nil {
		cs := *t.ConditionSettings
		out.ConditionSettings = &cs
	}

	return &out
}

func trimFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// CreateTemplateInput is a struct designed to encapsulate request create payload data.
//
// swagger:model CreateTemplateInput
// @Description CreateTemplateInput is the input payload to create a template.
type CreateTemplateInput struct {
	BaseName          string                 `json:"baseName" validate:"required" example:"My 2x1 labels"`
	Width             float64                `json:"width" validate:"required,gt=0" example:"50.8"`
	Height            float64                `json:"height" validate:"required,gt=0" example:"25.4"`
	Units             string                 `json:"units" validate:"required,oneof=mm in" example:"mm"`
	Orientation       string                 `json:"orientation" validate:"required,oneof=portrait landscape" example:"landscape"`
	Elements          map[string]ElementSpec `json:"elements" validate:"required"`
	ContentInclusion  map[string]bool        `json:"contentInclusion" validate:"required"`
	ConditionSettings *ConditionSettings     `json:"conditionSettings,omitempty"`
} // @name CreateTemplateInput

// UpdateTemplateInput is the partial payload accepted by the update operation.
// Nil fields keep the stored value.
//
// swagger:model UpdateTemplateInput
// @Description UpdateTemplateInput is the input payload to update a template.
type UpdateTemplateInput struct {
	BaseName          *string                `json:"baseName,omitempty"`
	Width             *float64               `json:"width,omitempty"`
	Height            *float64               `json:"height,omitempty"`
	Units             *string                `json:"units,omitempty"`
	Orientation       *string                `json:"orientation,omitempty"`
	Elements          map[string]ElementSpec `json:"elements,omitempty"`
	ContentInclusion  map[string]bool        `json:"contentInclusion,omitempty"`
	ConditionSettings *ConditionSettings     `json:"conditionSettings,omitempty"`
} // @name UpdateTemplateInput

// ToTemplate materializes the create payload into an unstamped Template.
func (in *CreateTemplateInput) ToTemplate() *Template {
	return &Template{
		BaseName:          in.BaseName,
		Width:             in.Width,
		Height:            in.Height,
		Units:             in.Units,
		Orientation:       in.Orientation,
		Elements:          in.Elements,
		ContentInclusion:  in.ContentInclusion,
		ConditionSettings: in.ConditionSettings,
	}
}

// ApplyTo merges the update payload onto a copy of the stored template and
// returns the merged result for re-validation.
func (in *UpdateTemplateInput) ApplyTo(t *Template) *Template {
	merged := t.Clone()

	if in.BaseName != nil {
		merged.BaseName = *in.BaseName
	}

	if in.Width != nil {
		merged.Width = *in.Width
	}

	if in.Height != nil {
		merged.Height = *in.Height
	}

	if in.Units != nil {
		merged.Units = *in.Units
	}

	if in.Orientation != nil {
		merged.Orientation = *in.Orientation
	}

	if in.Elements != nil {
		merged.Elements = in.Elements
	}

	if in.ContentInclusion != nil {
		merged.ContentInclusion = in.ContentInclusion
	}

	if in.ConditionSettings != nil {
		cs := *in.ConditionSettings
		merged.ConditionSettings = &cs
	}

	return merged
}
