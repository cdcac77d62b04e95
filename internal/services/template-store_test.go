package services

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/labelforge/labelforge/internal/adapters/redis"
	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/event"
	"github.com/labelforge/labelforge/pkg/model"
)

func validCreateInput() *model.CreateTemplateInput {
	return &model.CreateTemplateInput{
		BaseName:    "My Labels",
		Width:       50.8,
		Height:      25.4,
		Units:       model.UnitsMM,
		Orientation: model.OrientationLandscape,
		Elements: map[string]model.ElementSpec{
			model.FieldBarcode: {X: 5, Y: 2, Width: 40, Height: 12},
			model.FieldFnsku:   {X: 5, Y: 15, FontSize: 8},
		},
		ContentInclusion: map[string]bool{
			model.FieldBarcode: true,
			model.FieldFnsku:   true,
		},
	}
}

func newTemplateStore(t *testing.T, kv *redis.MockKVRepository, bus *event.Bus) *TemplateStore {
	t.Helper()

	kv.EXPECT().HGetAll(gomock.Any(), constant.KeyUserTemplates).Return(map[string]string{}, nil)

	return NewTemplateStore(context.Background(), kv, bus, newFakeClock())
}

func TestTemplateStore_BuiltInsAlwaysPresent(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	store := newTemplateStore(t, kv, event.NewBus())

	all := store.GetAllTemplates(context.Background())
	require.Len(t, all, 2)

	assert.Equal(t, constant.BuiltInSmallTemplateID, all[0].ID)
	assert.Equal(t, constant.BuiltInStandardTemplateID, all[1].ID)

	for _, tpl := range all {
		assert.False(t, tpl.UserCreated)
		assert.NotEmpty(t, tpl.Name)
		assert.Empty(t, tpl.Validate())
	}
}

func TestTemplateStore_WarmsCacheFromBackend(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	stored := validCreateInput().ToTemplate()
	stored.ID = "0198c0de-0000-7000-8000-000000000001"
	stored.UserCreated = true

	doc, err := json.Marshal(stored)
	require.NoError(t, err)

	kv := redis.NewMockKVRepository(ctrl)
	kv.EXPECT().HGetAll(gomock.Any(), constant.KeyUserTemplates).Return(map[string]string{
		stored.ID: string(doc),
		"corrupt": "{not json",
	}, nil)

	store := NewTemplateStore(context.Background(), kv, event.NewBus(), newFakeClock())

	// Corrupt entries are skipped, valid ones are served.
	assert.Len(t, store.GetAllTemplates(context.Background()), 3)
	assert.NotNil(t, store.GetTemplate(context.Background(), stored.ID))
}

func TestTemplateStore_LoadFailureStartsWithBuiltIns(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	kv.EXPECT().HGetAll(gomock.Any(), constant.KeyUserTemplates).Return(nil, errors.New("connection refused"))

	store := NewTemplateStore(context.Background(), kv, event.NewBus(), newFakeClock())

	assert.Len(t, store.GetAllTemplates(context.Background()), 2)
}

func TestTemplateStore_CreateTemplate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	var published []event.Event

	bus.Subscribe(event.TemplateCreated, func(e event.Event) {
		published = append(published, e)
	})

	store := newTemplateStore(t, kv, bus)

	kv.EXPECT().HSet(gomock.Any(), constant.KeyUserTemplates, gomock.Any(), gomock.Any()).Return(nil)

	created, err := store.CreateTemplate(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.NotEmpty(t, created.ID)
	assert.True(t, created.UserCreated)
	assert.False(t, created.CreatedAt.IsZero())
	assert.Equal(t, created.CreatedAt, created.UpdatedAt)
	assert.Equal(t, "My Labels 50.8x25.4mm", created.Name)

	require.Len(t, published, 1)
	assert.Equal(t, created, published[0].Payload)

	assert.NotNil(t, store.GetTemplate(context.Background(), created.ID))
}

func TestTemplateStore_CreateTemplate_ValidationFailureWritesNothing(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	store := newTemplateStore(t, kv, event.NewBus())

	input := validCreateInput()
	input.Width = -1

	created, err := store.CreateTemplate(context.Background(), input)

	require.Error(t, err)
	assert.Nil(t, created)

	var vErr pkg.ValidationError

	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, constant.ErrTemplateValidation.Error(), vErr.Code)
	assert.NotEmpty(t, vErr.Errors)

	// No HSet expectation was registered; gomock fails the test on any write.
	assert.Len(t, store.GetAllTemplates(context.Background()), 2)
}

func TestTemplateStore_UpdateTemplate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	var updatedEvents int

	bus.Subscribe(event.TemplateUpdated, func(event.Event) { updatedEvents++ })

	store := newTemplateStore(t, kv, bus)

	kv.EXPECT().HSet(gomock.Any(), constant.KeyUserTemplates, gomock.Any(), gomock.Any()).Return(nil).Times(2)

	created, err := store.CreateTemplate(context.Background(), validCreateInput())
	require.NoError(t, err)

	name := "Renamed"

	updated, err := store.UpdateTemplate(context.Background(), created.ID, &model.UpdateTemplateInput{BaseName: &name})
	require.NoError(t, err)

	assert.Equal(t, "Renamed", updated.BaseName)
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))
	assert.Equal(t, 1, updatedEvents)
}

func TestTemplateStore_UpdateTemplate_InvalidMergeKeepsStored(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	store := newTemplateStore(t, kv, event.NewBus())

	kv.EXPECT().HSet(gomock.Any(), constant.KeyUserTemplates, gomock.Any(), gomock.Any()).Return(nil)

	created, err := store.CreateTemplate(context.Background(), validCreateInput())
	require.NoError(t, err)

	badWidth := -5.0

	_, err = store.UpdateTemplate(context.Background(), created.ID, &model.UpdateTemplateInput{Width: &badWidth})
	require.Error(t, err)

	stored := store.GetTemplate(context.Background(), created.ID)
	assert.Equal(t, 50.8, stored.Width)
}

func TestTemplateStore_BuiltInsAreImmutable(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	store := newTemplateStore(t, kv, event.NewBus())

	name := "Hijack"

	_, err := store.UpdateTemplate(context.Background(), constant.BuiltInStandardTemplateID, &model.UpdateTemplateInput{BaseName: &name})
	require.Error(t, err)

	var uErr pkg.UnprocessableOperationError

	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, constant.ErrTemplateImmutable.Error(), uErr.Code)

	err = store.DeleteTemplate(context.Background(), constant.BuiltInSmallTemplateID)
	require.Error(t, err)
	require.ErrorAs(t, err, &uErr)
	assert.Equal(t, constant.ErrTemplateImmutable.Error(), uErr.Code)
}

func TestTemplateStore_UnknownIDIsNotFound(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	store := newTemplateStore(t, kv, event.NewBus())

	name := "Nope"

	_, err := store.UpdateTemplate(context.Background(), "0198c0de-0000-7000-8000-00000000dead", &model.UpdateTemplateInput{BaseName: &name})
	assert.True(t, pkg.IsNotFound(err))

	err = store.DeleteTemplate(context.Background(), "0198c0de-0000-7000-8000-00000000dead")
	assert.True(t, pkg.IsNotFound(err))
}

func TestTemplateStore_DeleteTemplate(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	var deletedID string

	bus.Subscribe(event.TemplateDeleted, func(e event.Event) {
		deletedID = e.Payload.(string)
	})

	store := newTemplateStore(t, kv, bus)

	kv.EXPECT().HSet(gomock.Any(), constant.KeyUserTemplates, gomock.Any(), gomock.Any()).Return(nil)

	created, err := store.CreateTemplate(context.Background(), validCreateInput())
	require.NoError(t, err)

	kv.EXPECT().HDel(gomock.Any(), constant.KeyUserTemplates, created.ID).Return(nil)

	require.NoError(t, store.DeleteTemplate(context.Background(), created.ID))

	assert.Equal(t, created.ID, deletedID)
	assert.Nil(t, store.GetTemplate(context.Background(), created.ID))
}

func TestTemplateStore_ClearUserTemplates(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	bus := event.NewBus()

	var clearedCount int

	bus.Subscribe(event.TemplatesCleared, func(e event.Event) {
		clearedCount = e.Payload.(int)
	})

	store := newTemplateStore(t, kv, bus)

	kv.EXPECT().HSet(gomock.Any(), constant.KeyUserTemplates, gomock.Any(), gomock.Any()).Return(nil).Times(2)

	_, err := store.CreateTemplate(context.Background(), validCreateInput())
	require.NoError(t, err)

	second := validCreateInput()
	second.BaseName = "Second"

	_, err = store.CreateTemplate(context.Background(), second)
	require.NoError(t, err)

	kv.EXPECT().HDel(gomock.Any(), constant.KeyUserTemplates, gomock.Any(), gomock.Any()).Return(nil)

	removed, err := store.ClearUserTemplates(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, removed)
	assert.Equal(t, 2, clearedCount)
	assert.Len(t, store.GetAllTemplates(context.Background()), 2)
}

func TestTemplateStore_PersistFailureKeepsCacheAuthoritative(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	kv := redis.NewMockKVRepository(ctrl)
	store := newTemplateStore(t, kv, event.NewBus())

	kv.EXPECT().HSet(gomock.Any(), constant.KeyUserTemplates, gomock.Any(), gomock.Any()).Return(errors.New("connection refused"))

	created, err := store.CreateTemplate(context.Background(), validCreateInput())
	require.NoError(t, err)

	assert.NotNil(t, store.GetTemplate(context.Background(), created.ID))
}
