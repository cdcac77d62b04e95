package services

// UseCase is the service facade the transport layers depend on. It groups the
// template store, the settings store and the label renderer behind one value.
type UseCase struct {
	// Templates owns the template catalog, built-in and user-created.
	Templates *TemplateStore

	// Settings owns the singleton settings object and its debounced saver.
	Settings *SettingsStore

	// Renderer composes draw instructions for label requests.
	Renderer *LabelRenderer
}
