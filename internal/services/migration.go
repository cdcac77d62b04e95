package services

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"

	"github.com/labelforge/labelforge/internal/adapters/redis"
	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/model"
)

// MigrationAdapter rewrites legacy-shaped persisted settings into the current
// unified schema. It runs once, at SettingsStore initialization, before any
// read returns to callers. Failures are swallowed and logged: initialization
// must never fail solely due to migration.
type MigrationAdapter struct {
	kv redis.KVRepository
}

// NewMigrationAdapter wires the adapter to the persistence port.
func NewMigrationAdapter(kv redis.KVRepository) *MigrationAdapter {
	return &MigrationAdapter{kv: kv}
}

// Run resolves the settings to boot with. Precedence: the unified key as-is,
// else whatever can be migrated out of the known legacy keys, else the
// compiled-in defaults. When anything was migrated the unified object is
// persisted and the legacy keys are deleted.
func (m *MigrationAdapter) Run(ctx context.Context) *model.Settings {
	logger := pkg.NewLoggerFromContext(ctx)

	raw, err := m.kv.Get(ctx, constant.KeyUnifiedSettings)

	switch {
	case err == nil:
		var settings model.Settings

		jsonErr := json.Unmarshal([]byte(raw), &settings)
		if jsonErr == nil {
			return &settings
		}

		logger.Errorf("Unified settings document is corrupt, probing legacy keys: %v", jsonErr)
	case !errors.Is(err, constant.ErrKeyNotFound):
		logger.Errorf("Failed to read unified settings, proceeding with defaults: %v", err)

		return model.DefaultSettings()
	}

	settings := model.DefaultSettings()

	var (
		migrated   bool
		legacyKeys []string
	)

	if m.migrateLegacyV1(ctx, settings) {
		migrated = true

		legacyKeys = append(legacyKeys, constant.KeyLegacySettingsV1)
	}

	if m.migrateLegacyPrefs(ctx, settings) {
		migrated = true

		legacyKeys = append(legacyKeys, constant.KeyLegacyPrefs)
	}

	if !migrated {
		return settings
	}

	doc, err := json.Marshal(settings)
	if err != nil {
		logger.Errorf("Failed to marshal migrated settings: %v", err)

		return settings
	}

	if err := m.kv.Set(ctx, constant.KeyUnifiedSettings, string(doc)); err != nil {
		logger.Errorf("Failed to persist migrated settings, keeping legacy keys: %v", err)

		return settings
	}

	if err := m.kv.Del(ctx, legacyKeys...); err != nil {
		logger.Errorf("Failed to delete legacy settings keys %v: %v", legacyKeys, err)
	}

	logger.Infof("Migrated legacy settings keys %v into %s", legacyKeys, constant.KeyUnifiedSettings)

	return settings
}

// migrateLegacyV1 maps the flat first-release shape onto the unified schema.
//
//	template       -> selectedTemplateId
//	barcode_format -> globalSettings.barcodeFormat
//	auto_extract   -> globalSettings.autoExtract
//	debug          -> globalSettings.debugMode
func (m *MigrationAdapter) migrateLegacyV1(ctx context.Context, settings *model.Settings) bool {
	logger := pkg.NewLoggerFromContext(ctx)

	raw, err := m.kv.Get(ctx, constant.KeyLegacySettingsV1)
	if err != nil {
		if !errors.Is(err, constant.ErrKeyNotFound) {
			logger.Errorf("Failed to read legacy key %s: %v", constant.KeyLegacySettingsV1, err)
		}

		return false
	}

	var doc map[string]any
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		logger.Errorf("Legacy key %s is corrupt, ignoring: %v", constant.KeyLegacySettingsV1, err)

		return false
	}

	migrated := false

	if v, ok := coerceString(doc["template"]); ok && v != "" {
		settings.SelectedTemplateID = v
		migrated = true
	}

	if v, ok := coerceString(doc["barcode_format"]); ok && model.ValidBarcodeFormat(v) {
		settings.GlobalSettings.BarcodeFormat = v
		migrated = true
	}

	if v, ok := coerceBool(doc["auto_extract"]); ok {
		settings.GlobalSettings.AutoExtract = v
		migrated = true
	}

	if v, ok := coerceBool(doc["debug"]); ok {
		settings.GlobalSettings.DebugMode = v
		migrated = true
	}

	return migrated
}

// migrateLegacyPrefs maps the nested interim shape onto the unified schema.
//
//	selected_template -> selectedTemplateId
//	global.barcodeFormat -> globalSettings.barcodeFormat
//	global.autoOpenTabs  -> globalSettings.autoOpenTabs
//	global.fontSizes     -> globalSettings.fontSizeOverrides
//	global.condition     -> globalSettings.conditionSettings
//	global.lastTab       -> globalSettings.lastSelectedTab
func (m *MigrationAdapter) migrateLegacyPrefs(ctx context.Context, settings *model.Settings) bool {
	logger := pkg.NewLoggerFromContext(ctx)

	raw, err := m.kv.Get(ctx, constant.KeyLegacyPrefs)
	if err != nil {
		if !errors.Is(err, constant.ErrKeyNotFound) {
			logger.Errorf("Failed to read legacy key %s: %v", constant.KeyLegacyPrefs, err)
		}

		return false
	}

	var doc struct {
		SelectedTemplate string         `json:"selected_template"`
		Global           map[string]any `json:"global"`
	}

	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		logger.Errorf("Legacy key %s is corrupt, ignoring: %v", constant.KeyLegacyPrefs, err)

		return false
	}

	migrated := false

	if doc.SelectedTemplate != "" {
		settings.SelectedTemplateID = doc.SelectedTemplate
		migrated = true
	}

	if v, ok := coerceString(doc.Global["barcodeFormat"]); ok && model.ValidBarcodeFormat(v) {
		settings.GlobalSettings.BarcodeFormat = v
		migrated = true
	}

	if v, ok := coerceBool(doc.Global["autoOpenTabs"]); ok {
		settings.GlobalSettings.AutoOpenTabs = v
		migrated = true
	}

	if sizes, ok := doc.Global["fontSizes"].(map[string]any); ok {
		overrides := map[string]*float64{}

		for field, val := range sizes {
			if f, ok := coerceFloat(val); ok {
				size := f
				overrides[field] = &size
			} else {
				overrides[field] = nil
			}
		}

		if len(overrides) > 0 {
			settings.GlobalSettings.FontSizeOverrides = overrides
			migrated = true
		}
	}

	if cond, ok := doc.Global["condition"].(map[string]any); ok {
		cs := &model.ConditionSettings{}

		if v, ok := coerceBool(cond["enabled"]); ok {
			cs.Enabled = v
		}

		if v, ok := coerceString(cond["text"]); ok {
			cs.Text = v
		}

		if v, ok := coerceString(cond["position"]); ok {
			cs.Position = v
		}

		settings.GlobalSettings.ConditionSettings = cs
		migrated = true
	}

	if v, ok := coerceString(doc.Global["lastTab"]); ok && v != "" {
		settings.GlobalSettings.LastSelectedTab = v
		migrated = true
	}

	return migrated
}

// Legacy values were written by loosely typed clients, so booleans and numbers
// may arrive as strings.

func coerceString(v any) (string, bool) {
	s, ok := v.(string)

	return s, ok
}

func coerceBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case string:
		b, err := strconv.ParseBool(t)

		return b, err == nil
	}

	return false, false
}

func coerceFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case string:
		f, err := strconv.ParseFloat(t, 64)

		return f, err == nil
	}

	return 0, false
}
