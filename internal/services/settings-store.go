package services

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	pkgErrors "github.com/pkg/errors"
	"go.opentelemetry.io/otel/attribute"

	"github.com/labelforge/labelforge/internal/adapters/redis"
	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/event"
	"github.com/labelforge/labelforge/pkg/model"
)

// saveState is the pending-write state machine of the debounced saver.
// Transitions: mutate -> pending, timer-fire -> writing -> idle,
// force-flush -> writing -> idle.
type saveState int

const (
	saveIdle saveState = iota
	savePending
	saveWriting
)

// SettingsStore owns the singleton Settings object. Mutations apply to the
// in-memory object synchronously and are flushed to the key-value backend
// through a single debounce timer, so a burst of edits collapses into one
// write. The in-memory object is always read-after-write consistent within
// the process regardless of persistence timing.
type SettingsStore struct {
	kv     redis.KVRepository
	bus    *event.Bus
	clock  Clock
	window time.Duration

	mu       sync.Mutex
	settings *model.Settings
	state    saveState
	timer    Timer
	writers  int
	seq      uint64

	// writeMu serializes backend writes; written is the mutation sequence the
	// last successful write carried.
	writeMu sync.Mutex
	written uint64
}

// NewSettingsStore runs the migration adapter, loads or derives the settings
// and publishes initialized. Migration failures never block construction.
func NewSettingsStore(ctx context.Context, kv redis.KVRepository, bus *event.Bus, clock Clock, window time.Duration) *SettingsStore {
	if window <= 0 {
		window = constant.DefaultDebounceWindowMS * time.Millisecond
	}

	s := &SettingsStore{
		kv:       kv,
		bus:      bus,
		clock:    clock,
		window:   window,
		settings: NewMigrationAdapter(kv).Run(ctx),
	}

	bus.Publish(event.Initialized, s.GetSettings())

	return s
}

// GetSettings returns a defensive copy of the current settings.
func (s *SettingsStore) GetSettings() *model.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.Clone()
}

// SelectedTemplateID exposes the active template id.
func (s *SettingsStore) SelectedTemplateID() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.settings.SelectedTemplateID
}

// IsSaving reports whether a write is in flight or a debounce timer is pending.
func (s *SettingsStore) IsSaving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state != saveIdle
}

// SetSelectedTemplateID switches the active template. Selecting the already
// active id is a no-op: no event, no write.
func (s *SettingsStore) SetSelectedTemplateID(ctx context.Context, id string) {
	logger, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	_, span := tracer.Start(ctx, "service.set_selected_template")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.template_id", id),
	)

	s.mu.Lock()

	if s.settings.SelectedTemplateID == id {
		s.mu.Unlock()

		return
	}

	s.settings.SelectedTemplateID = id
	s.settings.LastUpdated = s.clock.Now()
	s.seq++
	snapshot := s.settings.Clone()
	s.schedule()
	s.mu.Unlock()

	logger.Infof("Selected template %s", id)

	s.bus.Publish(event.TemplateSelected, id)
	s.bus.Publish(event.SettingsChanged, snapshot)
}

// UpdateGlobalSettings applies a partial update after a shallow diff against
// the stored values. When no key actually differs the call is a true no-op:
// no event, no write. This is what absorbs redundant writes from multiple UI
// surfaces polling the same state.
func (s *SettingsStore) UpdateGlobalSettings(ctx context.Context, u model.GlobalSettingsUpdate) {
	logger, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	_, span := tracer.Start(ctx, "service.update_global_settings")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
	)

	s.mu.Lock()

	changed := s.settings.GlobalSettings.Diff(u)
	if len(changed) == 0 {
		s.mu.Unlock()

		return
	}

	s.settings.GlobalSettings.Apply(u)
	s.settings.LastUpdated = s.clock.Now()
	s.seq++
	snapshot := s.settings.Clone()
	s.schedule()
	s.mu.Unlock()

	logger.Infof("Global settings changed: %d key(s)", len(changed))

	for key, value := range changed {
		s.bus.Publish(event.SettingChanged, event.KeyValue{Key: key, Value: value})
	}

	s.bus.Publish(event.GlobalSettingsChanged, snapshot.GlobalSettings)
	s.bus.Publish(event.SettingsChanged, snapshot)
}

// ResetSettings replaces the settings with the compiled-in defaults and
// persists immediately, pre-empting any pending debounce.
func (s *SettingsStore) ResetSettings(ctx context.Context) error {
	logger := pkg.NewLoggerFromContext(ctx)

	s.mu.Lock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	s.settings = model.DefaultSettings()
	s.settings.LastUpdated = s.clock.Now()
	s.seq++
	seq := s.seq
	snapshot := s.settings.Clone()
	s.writers++
	s.state = saveWriting
	s.mu.Unlock()

	logger.Info("Settings reset to defaults")

	err := s.persist(ctx, snapshot, seq)

	s.finishWrite()

	s.bus.Publish(event.SettingsReset, snapshot)
	s.bus.Publish(event.SettingsChanged, snapshot)

	return err
}

// ForceSave cancels any pending debounce timer and persists synchronously.
// Required before contexts that may be torn down, where a pending debounced
// write would otherwise be lost. A write already on the wire is waited out,
// never overlapped; an unchanged state that is already persisted is not
// written again.
func (s *SettingsStore) ForceSave(ctx context.Context) error {
	s.mu.Lock()

	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	seq := s.seq
	snapshot := s.settings.Clone()
	s.writers++
	s.state = saveWriting
	s.mu.Unlock()

	err := s.persist(ctx, snapshot, seq)

	s.finishWrite()

	return err
}

// schedule resets the single debounce timer. Callers hold s.mu.
func (s *SettingsStore) schedule() {
	if s.timer != nil {
		s.timer.Stop()
	}

	s.state = savePending
	s.timer = s.clock.AfterFunc(s.window, s.flush)
}

// flush is the timer-fire transition. The snapshot rides the mutation
// sequence it was taken at, so persist can drop it when an overlapping force
// save has already written a newer state.
func (s *SettingsStore) flush() {
	s.mu.Lock()
	s.timer = nil
	seq := s.seq
	snapshot := s.settings.Clone()
	s.writers++
	s.state = saveWriting
	s.mu.Unlock()

	_ = s.persist(context.Background(), snapshot, seq)

	s.finishWrite()
}

// persist serializes backend writes. Concurrent savers queue on writeMu; a
// snapshot whose sequence an earlier write has already covered is dropped, so
// a stale snapshot can never land after a newer one.
func (s *SettingsStore) persist(ctx context.Context, snapshot *model.Settings, seq uint64) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	if s.written > 0 && seq <= s.written {
		return nil
	}

	if err := s.write(ctx, snapshot); err != nil {
		return err
	}

	s.written = seq

	return nil
}

// finishWrite recomputes the save state after a write attempt. A timer armed
// while the write was on the wire keeps the store in the pending state.
func (s *SettingsStore) finishWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writers--

	switch {
	case s.writers > 0:
		s.state = saveWriting
	case s.timer != nil:
		s.state = savePending
	default:
		s.state = saveIdle
	}
}

// write performs one backend write, bracketed by the saving events. A failed
// write is logged and surfaced as settingsSaveError; the in-memory state
// remains authoritative and a later save attempt may succeed.
func (s *SettingsStore) write(ctx context.Context, snapshot *model.Settings) error {
	logger := pkg.NewLoggerFromContext(ctx)

	s.bus.Publish(event.SettingsSaving, nil)

	doc, err := json.Marshal(snapshot)
	if err != nil {
		wrapped := pkgErrors.Wrap(err, "marshaling unified settings")

		logger.Errorf("Failed to marshal settings: %v", wrapped)
		s.bus.Publish(event.SettingsSaveError, wrapped.Error())

		return pkg.ValidateInternalError(wrapped, "Settings")
	}

	if err := s.kv.Set(ctx, constant.KeyUnifiedSettings, string(doc)); err != nil {
		wrapped := pkgErrors.Wrap(err, "persisting unified settings")

		logger.Errorf("Failed to persist settings, in-memory state remains authoritative: %v", wrapped)
		s.bus.Publish(event.SettingsSaveError, wrapped.Error())

		return pkg.ValidateBusinessError(constant.ErrPersistence, "Settings")
	}

	s.bus.Publish(event.SettingsSaved, snapshot.LastUpdated)

	return nil
}
