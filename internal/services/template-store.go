package services

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"go.opentelemetry.io/otel/attribute"

	"github.com/labelforge/labelforge/internal/adapters/redis"
	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/event"
	"github.com/labelforge/labelforge/pkg/model"
)

// TemplateStore owns the set of label templates: the compiled-in built-ins,
// which are immutable, and the user-created ones, which are validated,
// persisted on the key-value backend and announced on the bus.
type TemplateStore struct {
	kv    redis.KVRepository
	bus   *event.Bus
	clock Clock

	mu      sync.RWMutex
	user    map[string]*model.Template
	builtIn map[string]*model.Template
}

// NewTemplateStore builds the store and warms the user-template cache from the
// backend. A backend read failure is logged and the store starts with the
// built-ins only; the backend is eventually consistent and the in-memory cache
// is the authoritative read path afterwards.
func NewTemplateStore(ctx context.Context, kv redis.KVRepository, bus *event.Bus, clock Clock) *TemplateStore {
	logger := pkg.NewLoggerFromContext(ctx)

	ts := &TemplateStore{
		kv:      kv,
		bus:     bus,
		clock:   clock,
		user:    map[string]*model.Template{},
		builtIn: builtInTemplates(),
	}

	raw, err := kv.HGetAll(ctx, constant.KeyUserTemplates)
	if err != nil {
		logger.Errorf("Failed to load user templates, starting with built-ins only: %v", err)

		return ts
	}

	for id, doc := range raw {
		var tpl model.Template
		if err := json.Unmarshal([]byte(doc), &tpl); err != nil {
			logger.Errorf("Skipping corrupt template %s: %v", id, err)

			continue
		}

		ts.user[id] = &tpl
	}

	return ts
}

// GetAllTemplates returns the built-ins followed by the user templates, each
// annotated with its computed display name.
func (ts *TemplateStore) GetAllTemplates(ctx context.Context) []*model.Template {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	out := make([]*model.Template, 0, len(ts.builtIn)+len(ts.user))

	for _, tpl := range ts.builtIn {
		out = append(out, ts.annotated(tpl))
	}
	// Built-ins first, then user templates, both in stable order.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })

	userList := make([]*model.Template, 0, len(ts.user))
	for _, tpl := range ts.user {
		userList = append(userList, ts.annotated(tpl))
	}

	sort.Slice(userList, func(i, j int) bool {
		if !userList[i].CreatedAt.Equal(userList[j].CreatedAt) {
			return userList[i].CreatedAt.Before(userList[j].CreatedAt)
		}

		return userList[i].ID < userList[j].ID
	})

	return append(out, userList...)
}

// GetTemplate resolves one template by id, or nil when it does not exist.
func (ts *TemplateStore) GetTemplate(ctx context.Context, id string) *model.Template {
	ts.mu.RLock()
	defer ts.mu.RUnlock()

	if tpl, ok := ts.builtIn[id]; ok {
		return ts.annotated(tpl)
	}

	if tpl, ok := ts.user[id]; ok {
		return ts.annotated(tpl)
	}

	return nil
}

// IsBuiltInTemplate reports whether id names a compiled-in template.
func (ts *TemplateStore) IsBuiltInTemplate(id string) bool {
	return strings.HasPrefix(id, constant.BuiltInTemplatePrefix)
}

// CreateTemplate validates the payload and, on success, assigns a fresh id,
// stamps the timestamps, persists and emits templateCreated. On validation
// failure nothing is written.
func (ts *TemplateStore) CreateTemplate(ctx context.Context, input *model.CreateTemplateInput) (*model.Template, error) {
	logger, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.create_template")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.template_name", input.BaseName),
	)

	tpl := input.ToTemplate()

	if errs := tpl.Validate(); len(errs) > 0 {
		logger.Errorf("Template payload rejected: %v", errs)

		return nil, pkg.ValidationErrorWithMessages("Template", errs)
	}

	now := ts.clock.Now()
	tpl.ID = libCommons.GenerateUUIDv7().String()
	tpl.UserCreated = true
	tpl.CreatedAt = now
	tpl.UpdatedAt = now

	ts.mu.Lock()
	ts.user[tpl.ID] = tpl
	ts.mu.Unlock()

	ts.persist(ctx, tpl)

	created := ts.annotated(tpl)
	ts.bus.Publish(event.TemplateCreated, created)

	return created, nil
}

// UpdateTemplate merges the partial payload onto an existing user template,
// re-validates the result, persists and emits templateUpdated. Built-in and
// unknown ids are rejected.
func (ts *TemplateStore) UpdateTemplate(ctx context.Context, id string, input *model.UpdateTemplateInput) (*model.Template, error) {
	logger, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.update_template")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.template_id", id),
	)

	if ts.IsBuiltInTemplate(id) {
		return nil, pkg.ValidateBusinessError(constant.ErrTemplateImmutable, "Template")
	}

	ts.mu.Lock()

	existing, ok := ts.user[id]
	if !ok {
		ts.mu.Unlock()

		return nil, pkg.ValidateBusinessError(constant.ErrTemplateNotFound, "Template", id)
	}

	merged := input.ApplyTo(existing)

	if errs := merged.Validate(); len(errs) > 0 {
		ts.mu.Unlock()

		logger.Errorf("Template update rejected: %v", errs)

		return nil, pkg.ValidationErrorWithMessages("Template", errs)
	}

	merged.UpdatedAt = ts.clock.Now()
	ts.user[id] = merged
	ts.mu.Unlock()

	ts.persist(ctx, merged)

	updated := ts.annotated(merged)
	ts.bus.Publish(event.TemplateUpdated, updated)

	return updated, nil
}

// DeleteTemplate removes a user template and emits templateDeleted. Built-in
// and unknown ids are rejected.
func (ts *TemplateStore) DeleteTemplate(ctx context.Context, id string) error {
	logger, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "service.delete_template")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.template_id", id),
	)

	if ts.IsBuiltInTemplate(id) {
		return pkg.ValidateBusinessError(constant.ErrTemplateImmutable, "Template")
	}

	ts.mu.Lock()

	if _, ok := ts.user[id]; !ok {
		ts.mu.Unlock()

		return pkg.ValidateBusinessError(constant.ErrTemplateNotFound, "Template", id)
	}

	delete(ts.user, id)
	ts.mu.Unlock()

	if err := ts.kv.HDel(ctx, constant.KeyUserTemplates, id); err != nil {
		logger.Errorf("Failed to delete template %s from backend, cache already updated: %v", id, err)
	}

	ts.bus.Publish(event.TemplateDeleted, id)

	return nil
}

// ClearUserTemplates drops every user template, for a factory reset. Built-ins
// are untouched.
func (ts *TemplateStore) ClearUserTemplates(ctx context.Context) (int, error) {
	logger := pkg.NewLoggerFromContext(ctx)

	ts.mu.Lock()

	ids := make([]string, 0, len(ts.user))
	for id := range ts.user {
		ids = append(ids, id)
	}

	ts.user = map[string]*model.Template{}
	ts.mu.Unlock()

	if len(ids) > 0 {
		if err := ts.kv.HDel(ctx, constant.KeyUserTemplates, ids...); err != nil {
			logger.Errorf("Failed to clear user templates from backend, cache already cleared: %v", err)
		}
	}

	ts.bus.Publish(event.TemplatesCleared, len(ids))

	return len(ids), nil
}

// persist writes one template to the backend. Write failures are logged, not
// surfaced: the in-memory cache stays authoritative and the next mutation of
// the same template retries the write.
func (ts *TemplateStore) persist(ctx context.Context, tpl *model.Template) {
	logger := pkg.NewLoggerFromContext(ctx)

	doc, err := json.Marshal(tpl)
	if err != nil {
		logger.Errorf("Failed to marshal template %s: %v", tpl.ID, err)

		return
	}

	if err := ts.kv.HSet(ctx, constant.KeyUserTemplates, tpl.ID, string(doc)); err != nil {
		logger.Errorf("Failed to persist template %s, cache remains authoritative: %v", tpl.ID, err)
	}
}

// annotated clones a template and stamps the derived display name.
func (ts *TemplateStore) annotated(tpl *model.Template) *model.Template {
	out := tpl.Clone()
	out.Name = out.DisplayName()

	return out
}
