package event

import (
	"sync"
	"time"
)

// Name identifies one of the notification topics the stores expose.
type Name string

// Notification topics. Payload shapes are documented next to the publisher.
const (
	TemplateCreated       Name = "templateCreated"
	TemplateUpdated       Name = "templateUpdated"
	TemplateDeleted       Name = "templateDeleted"
	TemplatesCleared      Name = "templatesCleared"
	SettingsChanged       Name = "settingsChanged"
	GlobalSettingsChanged Name = "globalSettingsChanged"
	SettingChanged        Name = "settingChanged"
	SettingsSaving        Name = "settingsSaving"
	SettingsSaved         Name = "settingsSaved"
	SettingsSaveError     Name = "settingsSaveError"
	SettingsReset         Name = "settingsReset"
	TemplateSelected      Name = "templateSelected"
	Initialized           Name = "initialized"
)

// Event is one published notification.
type Event struct {
	Name       Name
	Payload    any
	OccurredAt time.Time
}

// KeyValue is the payload of SettingChanged events.
type KeyValue struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

// Handler receives published events. Handlers run synchronously on the
// publisher's goroutine; a slow handler delays the mutating call that
// triggered it.
type Handler func(Event)

// Bus is an in-process typed publish/subscribe channel. The stores publish,
// any number of subscribers (UI surfaces, cache invalidation, the broker
// fan-out) listen.
type Bus struct {
	mu   sync.RWMutex
	subs map[Name][]Handler
	all  []Handler
	now  func() time.Time
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{
		subs: map[Name][]Handler{},
		now:  time.Now,
	}
}

// Subscribe registers a handler for one topic and returns its unsubscribe func.
func (b *Bus) Subscribe(n Name, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.subs[n] = append(b.subs[n], h)
	idx := len(b.subs[n]) - 1

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		handlers := b.subs[n]
		if idx < len(handlers) && handlers[idx] != nil {
			handlers[idx] = nil
		}
	}
}

// SubscribeAll registers a handler for every topic.
func (b *Bus) SubscribeAll(h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.all = append(b.all, h)
	idx := len(b.all) - 1

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		if idx < len(b.all) && b.all[idx] != nil {
			b.all[idx] = nil
		}
	}
}

// Publish delivers the event to topic subscribers first, then to catch-all
// subscribers, in registration order.
func (b *Bus) Publish(n Name, payload any) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[n])+len(b.all))

	for _, h := range b.subs[n] {
		if h != nil {
			handlers = append(handlers, h)
		}
	}

	for _, h := range b.all {
		if h != nil {
			handlers = append(handlers, h)
		}
	}

	evt := Event{Name: n, Payload: payload, OccurredAt: b.now()}
	b.mu.RUnlock()

	for _, h := range handlers {
		h(evt)
	}
}
