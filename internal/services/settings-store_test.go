package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/labelforge/labelforge/internal/adapters/redis"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/event"
	"github.com/labelforge/labelforge/pkg/model"
)

// expectFreshStart makes the migration adapter see an empty backend so the
// store boots on defaults.
func expectFreshStart(kv *redis.MockKVRepository) {
	kv.EXPECT().Get(gomock.Any(), constant.KeyUnifiedSettings).Return("", constant.ErrKeyNotFound)
	kv.EXPECT().Get(gomock.Any(), constant.KeyLegacySettingsV1).Return("", constant.ErrKeyNotFound)
	kv.EXPECT().Get(gomock.Any(), constant.KeyLegacyPrefs).Return("", constant.ErrKeyNotFound)
}

func newSettingsStore(t *testing.T, kv *redis.MockKVRepository, bus *event.Bus, clock Clock) *SettingsStore {
	t.Helper()

	expectFreshStart(kv)

	return NewSettingsStore(context.Background(), kv, bus, clock, 500*time.Millisecond)
}

func TestSettingsStore_InitializedWithDefaults(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	var initialized bool

	bus.Subscribe(event.Initialized, func(event.Event) { initialized = true })

	store := newSettingsStore(t, kv, bus, newFakeClock())

	assert.True(t, initialized)
	assert.False(t, store.IsSaving())

	settings := store.GetSettings()
	assert.Equal(t, constant.BuiltInStandardTemplateID, settings.SelectedTemplateID)
	assert.Equal(t, model.BarcodeFormatCode128, settings.GlobalSettings.BarcodeFormat)
	assert.True(t, settings.GlobalSettings.AutoExtract)
}

func TestSettingsStore_DebounceCollapsesBurstIntoOneWrite(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	clock := newFakeClock()
	store := newSettingsStore(t, kv, event.NewBus(), clock)

	format39 := model.BarcodeFormatCode39
	formatEAN := model.BarcodeFormatEAN13
	debug := true

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{BarcodeFormat: &format39})
	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{BarcodeFormat: &formatEAN})
	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{DebugMode: &debug})

	assert.True(t, store.IsSaving())

	// Exactly one write for the whole burst, carrying the final state.
	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).DoAndReturn(
		func(_ context.Context, _, doc string) error {
			var persisted model.Settings

			require.NoError(t, json.Unmarshal([]byte(doc), &persisted))
			assert.Equal(t, model.BarcodeFormatEAN13, persisted.GlobalSettings.BarcodeFormat)
			assert.True(t, persisted.GlobalSettings.DebugMode)

			return nil
		})

	clock.fireLast()

	assert.False(t, store.IsSaving())
	assert.Equal(t, 3, clock.scheduled())
}

func TestSettingsStore_ShallowDiffSuppressesNoOpWrites(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	var changed int

	bus.Subscribe(event.SettingsChanged, func(event.Event) { changed++ })

	clock := newFakeClock()
	store := newSettingsStore(t, kv, bus, clock)

	sameFormat := model.BarcodeFormatCode128
	autoExtract := true

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{
		BarcodeFormat: &sameFormat,
		AutoExtract:   &autoExtract,
	})

	assert.Equal(t, 0, changed)
	assert.Equal(t, 0, clock.scheduled())
	assert.False(t, store.IsSaving())
}

func TestSettingsStore_UpdatePublishesPerKeyEvents(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	perKey := map[string]any{}

	var globalChanged, changed int

	bus.Subscribe(event.SettingChanged, func(e event.Event) {
		kvPayload := e.Payload.(event.KeyValue)
		perKey[kvPayload.Key] = kvPayload.Value
	})
	bus.Subscribe(event.GlobalSettingsChanged, func(event.Event) { globalChanged++ })
	bus.Subscribe(event.SettingsChanged, func(event.Event) { changed++ })

	store := newSettingsStore(t, kv, bus, newFakeClock())

	format := model.BarcodeFormatEAN13
	tabs := true

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{
		BarcodeFormat: &format,
		AutoOpenTabs:  &tabs,
	})

	assert.Equal(t, map[string]any{
		"barcodeFormat": model.BarcodeFormatEAN13,
		"autoOpenTabs":  true,
	}, perKey)
	assert.Equal(t, 1, globalChanged)
	assert.Equal(t, 1, changed)
}

func TestSettingsStore_SetSelectedTemplateID(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	var selected []string

	bus.Subscribe(event.TemplateSelected, func(e event.Event) {
		selected = append(selected, e.Payload.(string))
	})

	clock := newFakeClock()
	store := newSettingsStore(t, kv, bus, clock)

	store.SetSelectedTemplateID(context.Background(), constant.BuiltInSmallTemplateID)

	// Re-selecting the active template is a complete no-op.
	store.SetSelectedTemplateID(context.Background(), constant.BuiltInSmallTemplateID)

	assert.Equal(t, []string{constant.BuiltInSmallTemplateID}, selected)
	assert.Equal(t, constant.BuiltInSmallTemplateID, store.SelectedTemplateID())
	assert.Equal(t, 1, clock.scheduled())

	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).Return(nil)
	clock.fireLast()
}

func TestSettingsStore_ForceSaveCancelsPendingTimer(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	clock := newFakeClock()
	store := newSettingsStore(t, kv, event.NewBus(), clock)

	debug := true

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{DebugMode: &debug})

	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).Return(nil)

	require.NoError(t, store.ForceSave(context.Background()))
	assert.False(t, store.IsSaving())

	// The debounce timer was stopped; firing it must not write again.
	clock.fireLast()
}

func TestSettingsStore_ResetRestoresDefaultsAndPersistsImmediately(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	var reset int

	bus.Subscribe(event.SettingsReset, func(event.Event) { reset++ })

	clock := newFakeClock()
	store := newSettingsStore(t, kv, bus, clock)

	format := model.BarcodeFormatEAN13

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{BarcodeFormat: &format})

	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).Return(nil)

	require.NoError(t, store.ResetSettings(context.Background()))

	assert.Equal(t, 1, reset)
	assert.Equal(t, model.BarcodeFormatCode128, store.GetSettings().GlobalSettings.BarcodeFormat)
	assert.False(t, store.IsSaving())

	// The pending debounced write was pre-empted by the reset.
	clock.fireLast()
}

func TestSettingsStore_WriteFailureEmitsSaveErrorAndKeepsMemoryState(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	var sequence []event.Name

	bus.Subscribe(event.SettingsSaving, func(e event.Event) { sequence = append(sequence, e.Name) })
	bus.Subscribe(event.SettingsSaved, func(e event.Event) { sequence = append(sequence, e.Name) })
	bus.Subscribe(event.SettingsSaveError, func(e event.Event) { sequence = append(sequence, e.Name) })

	clock := newFakeClock()
	store := newSettingsStore(t, kv, bus, clock)

	debug := true

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{DebugMode: &debug})

	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).Return(errors.New("connection refused"))
	clock.fireLast()

	assert.Equal(t, []event.Name{event.SettingsSaving, event.SettingsSaveError}, sequence)
	assert.True(t, store.GetSettings().GlobalSettings.DebugMode)
	assert.False(t, store.IsSaving())

	// A later explicit save retries and succeeds.
	sequence = nil

	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).Return(nil)
	require.NoError(t, store.ForceSave(context.Background()))

	assert.Equal(t, []event.Name{event.SettingsSaving, event.SettingsSaved}, sequence)
}

func TestSettingsStore_OverlappingSavesAreSerializedNewestWins(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	clock := newFakeClock()
	store := newSettingsStore(t, kv, event.NewBus(), clock)

	entered := make(chan struct{})
	release := make(chan struct{})

	var (
		orderMu sync.Mutex
		order   []string
	)

	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).DoAndReturn(
		func(_ context.Context, _, _ string) error {
			close(entered)
			<-release

			orderMu.Lock()
			order = append(order, "debounced write done")
			orderMu.Unlock()

			return nil
		})
	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).DoAndReturn(
		func(_ context.Context, _, doc string) error {
			orderMu.Lock()
			order = append(order, "forced write started")
			orderMu.Unlock()

			var persisted model.Settings

			require.NoError(t, json.Unmarshal([]byte(doc), &persisted))
			assert.Equal(t, model.BarcodeFormatEAN13, persisted.GlobalSettings.BarcodeFormat)
			assert.True(t, persisted.GlobalSettings.DebugMode)

			return nil
		})

	format := model.BarcodeFormatEAN13

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{BarcodeFormat: &format})

	go clock.fireLast()
	<-entered

	// Mutate while the debounced write is on the wire, then force a save.
	// The forced write must queue behind the in-flight one and carry the
	// full latest state.
	debug := true

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{DebugMode: &debug})

	done := make(chan error, 1)

	go func() { done <- store.ForceSave(context.Background()) }()

	time.Sleep(50 * time.Millisecond)
	close(release)

	require.NoError(t, <-done)

	orderMu.Lock()
	assert.Equal(t, []string{"debounced write done", "forced write started"}, order)
	orderMu.Unlock()

	assert.Eventually(t, func() bool { return !store.IsSaving() }, time.Second, 10*time.Millisecond)
}

func TestSettingsStore_ForceSaveAlreadyPersistedStateSkipsWrite(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	clock := newFakeClock()
	store := newSettingsStore(t, kv, event.NewBus(), clock)

	debug := true

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{DebugMode: &debug})

	// One write for the mutation; the second force save has nothing the
	// backend lacks and issues none.
	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).Return(nil)

	require.NoError(t, store.ForceSave(context.Background()))
	require.NoError(t, store.ForceSave(context.Background()))
	assert.False(t, store.IsSaving())
}

func TestSettingsStore_SaveStateTransitions(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	clock := newFakeClock()
	store := newSettingsStore(t, kv, event.NewBus(), clock)

	assert.False(t, store.IsSaving())

	debug := true

	store.UpdateGlobalSettings(context.Background(), model.GlobalSettingsUpdate{DebugMode: &debug})
	assert.True(t, store.IsSaving())

	kv.EXPECT().Set(gomock.Any(), constant.KeyUnifiedSettings, gomock.Any()).Return(nil)
	clock.fireLast()

	assert.False(t, store.IsSaving())
}
