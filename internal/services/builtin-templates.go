package services

import (
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/model"
)

// builtInTemplates re-derives the compiled-in layouts. They are constants by
// construction: never persisted as mutable state, so a bad migration or a
// failed write can never corrupt them, and there is always at least one valid
// renderable template even on a cold or corrupt store.
func builtInTemplates() map[string]*model.Template {
	return map[string]*model.Template{
		constant.BuiltInStandardTemplateID: {
			ID:          constant.BuiltInStandardTemplateID,
			BaseName:    "FBA Standard",
			UserCreated: false,
			Width:       66.7,
			Height:      25.4,
			Units:       model.UnitsMM,
			Orientation: model.OrientationLandscape,
			Elements: map[string]model.ElementSpec{
				model.FieldBarcode: {X: 3, Y: 2, Width: 60.7, Height: 12},
				model.FieldFnsku:   {X: 3, Y: 15.5, FontSize: 8},
				model.FieldSku:     {X: 3, Y: 18.5, FontSize: 11, MaxWidth: 60.7},
				model.FieldTitle:   {X: 3, Y: 21.5, FontSize: 6, MaxLen: 50, MaxWidth: 60.7},
				model.FieldCondition: {
					X: 3, Y: 24, FontSize: 5,
				},
			},
			ContentInclusion: map[string]bool{
				model.FieldBarcode:    true,
				model.FieldFnsku:      true,
				model.FieldSku:        true,
				model.FieldTitle:      true,
				model.InclusionImages: false,
				model.FieldCondition:  true,
			},
		},
		constant.BuiltInSmallTemplateID: {
			ID:          constant.BuiltInSmallTemplateID,
			BaseName:    "FBA Small",
			UserCreated: false,
			Width:       50.8,
			Height:      25.4,
			Units:       model.UnitsMM,
			Orientation: model.OrientationLandscape,
			Elements: map[string]model.ElementSpec{
				model.FieldBarcode: {X: 2, Y: 2, Width: 46.8, Height: 11},
				model.FieldFnsku:   {X: 2, Y: 14.5, FontSize: 8},
				model.FieldSku:     {X: 2, Y: 17.5, FontSize: 11, MaxWidth: 46.8},
				model.FieldCondition: {
					X: 2, Y: 23.5, FontSize: 5,
				},
			},
			ContentInclusion: map[string]bool{
				model.FieldBarcode:    true,
				model.FieldFnsku:      true,
				model.FieldSku:        true,
				model.FieldTitle:      false,
				model.InclusionImages: false,
				model.FieldCondition:  true,
			},
		},
	}
}
