package constant

// Keys used on the key-value persistence backend. The backend is treated as an
// eventually consistent store; the in-memory caches of the stores remain the
// authoritative read path within one process.
const (
	// KeyUnifiedSettings holds the current unified Settings document as JSON.
	KeyUnifiedSettings = "labelforge:settings"

	// KeyUserTemplates is a hash of template id -> Template JSON. Built-in
	// templates are never written here; they are compiled in.
	KeyUserTemplates = "labelforge:templates"

	// KeyLegacySettingsV1 is the flat settings shape written by the first
	// released version. Read once at startup, deleted after migration.
	KeyLegacySettingsV1 = "fnsku_settings_v1"

	// KeyLegacyPrefs is the nested preferences shape from the interim
	// release line. Read once at startup, deleted after migration.
	KeyLegacyPrefs = "labelgen:prefs"
)
