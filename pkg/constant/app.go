package constant

const ApplicationName = "labelforge"

// BuiltInTemplatePrefix marks template ids that are compiled in and immutable.
const BuiltInTemplatePrefix = "built_in:"

const (
	BuiltInStandardTemplateID = "built_in:standard"
	BuiltInSmallTemplateID    = "built_in:small"
)

// DefaultDebounceWindowMS is how long the settings store waits after the last
// mutation before flushing to the key-value backend.
const DefaultDebounceWindowMS = 500
