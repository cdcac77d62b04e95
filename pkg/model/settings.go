package model

import (
	"time"

	"github.com/labelforge/labelforge/pkg/constant"
)

// Barcode symbologies accepted by the encoder.
const (
	BarcodeFormatCode128 = "CODE128"
	BarcodeFormatCode39  = "CODE39"
	BarcodeFormatEAN13   = "EAN13"
)

// ValidBarcodeFormat reports whether f names a supported symbology.
func ValidBarcodeFormat(f string) bool {
	switch f {
	case BarcodeFormatCode128, BarcodeFormatCode39, BarcodeFormatEAN13:
		return true
	}

	return false
}

// GlobalSettings are the operator-wide overrides layered on top of the active
// template. A nil entry in FontSizeOverrides means "no override, use template".
type GlobalSettings struct {
	BarcodeFormat     string              `json:"barcodeFormat" example:"CODE128"`
	AutoExtract       bool                `json:"autoExtract"`
	AutoOpenTabs      bool                `json:"autoOpenTabs"`
	DebugMode         bool                `json:"debugMode"`
	FontSizeOverrides map[string]*float64 `json:"fontSizeOverrides"`
	ConditionSettings *ConditionSettings  `json:"conditionSettings,omitempty"`
	LastSelectedTab   string              `json:"lastSelectedTab"`
}

// Settings is the singleton per-installation configuration.
type Settings struct {
	SelectedTemplateID string         `json:"selectedTemplateId" example:"built_in:standard"`
	GlobalSettings     GlobalSettings `json:"globalSettings"`
	LastUpdated        time.Time      `json:"lastUpdated" example:"2021-01-01T00:00:00Z"`
}

// DefaultSettings returns the compiled-in defaults used on first run and by reset.
func DefaultSettings() *Settings {
	return &Settings{
		SelectedTemplateID: constant.BuiltInStandardTemplateID,
		GlobalSettings: GlobalSettings{
			BarcodeFormat:     BarcodeFormatCode128,
			AutoExtract:       true,
			AutoOpenTabs:      false,
			DebugMode:         false,
			FontSizeOverrides: map[string]*float64{},
			LastSelectedTab:   "",
		},
	}
}

// Clone returns a defensive deep copy.
func (s *Settings) Clone() *Settings {
	if s == nil {
		return nil
	}

	out := *s
	out.GlobalSettings = s.GlobalSettings.clone()

	return &out
}

func (g GlobalSettings) clone() GlobalSettings {
	out := g

	if g.FontSizeOverrides != nil {
		out.FontSizeOverrides = make(map[string]*float64, len(g.FontSizeOverrides))

		for k, v := range g.FontSizeOverrides {
			if v != nil {
				f := *v
				out.FontSizeOverrides[k] = &f
			} else {
				out.FontSizeOverrides[k] = nil
			}
		}
	}

	if g.ConditionSettings != nil {
		cs := *g.ConditionSettings
		out.ConditionSettings = &cs
	}

	return out
}

// GlobalSettingsUpdate is the partial payload for updating global settings.
// Nil fields are "not provided"; a provided FontSizeOverrides map replaces the
// stored map wholesale, which is how per-key null overrides are cleared.
//
// swagger:model GlobalSettingsUpdate
// @Description GlobalSettingsUpdate is the partial payload to patch global settings.
type GlobalSettingsUpdate struct {
	BarcodeFormat     *string             `json:"barcodeFormat,omitempty" validate:"omitempty,oneof=CODE128 CODE39 EAN13"`
	AutoExtract       *bool               `json:"autoExtract,omitempty"`
	AutoOpenTabs      *bool               `json:"autoOpenTabs,omitempty"`
	DebugMode         *bool               `json:"debugMode,omitempty"`
	FontSizeOverrides map[string]*float64 `json:"fontSizeOverrides,omitempty"`
	ConditionSettings *ConditionSettings  `json:"conditionSettings,omitempty"`
	LastSelectedTab   *string             `json:"lastSelectedTab,omitempty"`
} // @name GlobalSettingsUpdate

// Diff performs the shallow comparison between the stored settings and the
// incoming partial. It returns the set of keys whose value actually differs,
// mapped to the incoming value. An empty map means the update is a no-op.
func (g GlobalSettings) Diff(u GlobalSettingsUpdate) map[string]any {
	changed := map[string]any{}

	if u.BarcodeFormat != nil && *u.BarcodeFormat != g.BarcodeFormat {
		changed["barcodeFormat"] = *u.BarcodeFormat
	}

	if u.AutoExtract != nil && *u.AutoExtract != g.AutoExtract {
		changed["autoExtract"] = *u.AutoExtract
	}

	if u.AutoOpenTabs != nil && *u.AutoOpenTabs != g.AutoOpenTabs {
		changed["autoOpenTabs"] = *u.AutoOpenTabs
	}

	if u.DebugMode != nil && *u.DebugMode != g.DebugMode {
		changed["debugMode"] = *u.DebugMode
	}

	if u.FontSizeOverrides != nil && !fontSizesEqual(g.FontSizeOverrides, u.FontSizeOverrides) {
		changed["fontSizeOverrides"] = u.FontSizeOverrides
	}

	if u.ConditionSettings != nil && !conditionEqual(g.ConditionSettings, u.ConditionSettings) {
		changed["conditionSettings"] = u.ConditionSettings
	}

	if u.LastSelectedTab != nil && *u.LastSelectedTab != g.LastSelectedTab {
		changed["lastSelectedTab"] = *u.LastSelectedTab
	}

	return changed
}

// Apply merges the partial onto the settings in place. Only call after Diff
// reported at least one changed key.
func (g *GlobalSettings) Apply(u GlobalSettingsUpdate) {
	if u.BarcodeFormat != nil {
		g.BarcodeFormat = *u.BarcodeFormat
	}

	if u.AutoExtract != nil {
		g.AutoExtract = *u.AutoExtract
	}

	if u.AutoOpenTabs != nil {
		g.AutoOpenTabs = *u.AutoOpenTabs
	}

	if u.DebugMode != nil {
		g.DebugMode = *u.DebugMode
	}

	if u.FontSizeOverrides != nil {
		g.FontSizeOverrides = u.FontSizeOverrides
	}

	if u.ConditionSettings != nil {
		cs := *u.ConditionSettings
		g.ConditionSettings = &cs
	}

	if u.LastSelectedTab != nil {
		g.LastSelectedTab = *u.LastSelectedTab
	}
}

// fontSizesEqual compares override maps key-set first, then nil-aware values.
func fontSizesEqual(a, b map[string]*float64) bool {
	if len(a) != len(b) {
		return false
	}

	for k, av := range a {
		bv, ok := b[k]
		if !ok {
			return false
		}

		switch {
		case av == nil && bv == nil:
		case av == nil || bv == nil:
			return false
		case *av != *bv:
			return false
		}
	}

	return true
}

func conditionEqual(a, b *ConditionSettings) bool {
	if a == nil || b == nil {
		return a == b
	}

	return *a == *b
}
