package redis

import (
	"context"
	"fmt"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	libRedis "github.com/LerianStudio/lib-commons/v2/commons/redis"
	goredis "github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"

	"github.com/labelforge/labelforge/pkg/constant"
)

// KVRepository is the asynchronous key-value persistence port used by the
// stores. The backend may batch or delay writes; callers never assume strong
// consistency across reads shortly after a write.
//
//go:generate mockgen --destination=kv.redis.mock.go --package=redis . KVRepository
type KVRepository interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Del(ctx context.Context, keys ...string) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HSet(ctx context.Context, key, field, value string) error
	HDel(ctx context.Context, key string, fields ...string) error
}

// RedisKVRepository is a Redis implementation of the key-value port.
type RedisKVRepository struct {
	conn *libRedis.RedisConnection
}

// Compile-time interface satisfaction check.
var _ KVRepository = (*RedisKVRepository)(nil)

// NewRedisKVRepository returns a new instance of RedisKVRepository using the given Redis connection.
func NewRedisKVRepository(rc *libRedis.RedisConnection) (*RedisKVRepository, error) {
	r := &RedisKVRepository{
		conn: rc,
	}
	if _, err := r.conn.GetClient(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return r, nil
}

// Get reads a plain key. A missing key maps to the key-not-found sentinel so
// callers can distinguish absence from transport failure.
func (r *RedisKVRepository) Get(ctx context.Context, key string) (string, error) {
	_, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.get")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.key", key),
	)

	rds, err := r.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return "", err
	}

	val, err := rds.Get(ctx, key).Result()
	if err != nil {
		if err == goredis.Nil {
			return "", constant.ErrKeyNotFound
		}

		libOpentelemetry.HandleSpanError(&span, "Failed to get key on redis", err)

		return "", err
	}

	return val, nil
}

// Set writes a plain key without expiry.
func (r *RedisKVRepository) Set(ctx context.Context, key, value string) error {
	_, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.set")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.key", key),
	)

	rds, err := r.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return err
	}

	if err := rds.Set(ctx, key, value, 0).Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to set on redis", err)

		return err
	}

	return nil
}

// Del removes keys. Deleting a missing key is not an error.
func (r *RedisKVRepository) Del(ctx context.Context, keys ...string) error {
	_, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.del")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
	)

	rds, err := r.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return err
	}

	if err := rds.Del(ctx, keys...).Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to del on redis", err)

		return err
	}

	return nil
}

// HGetAll reads a whole hash. A missing hash yields an empty map.
func (r *RedisKVRepository) HGetAll(ctx context.Context, key string) (map[string]string, error) {
	_, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.hgetall")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.key", key),
	)

	rds, err := r.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return nil, err
	}

	val, err := rds.HGetAll(ctx, key).Result()
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to hgetall on redis", err)

		return nil, err
	}

	return val, nil
}

// HSet writes one hash field.
func (r *RedisKVRepository) HSet(ctx context.Context, key, field, value string) error {
	_, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.hset")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.key", key),
		attribute.String("app.request.field", field),
	)

	rds, err := r.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return err
	}

	if err := rds.HSet(ctx, key, field, value).Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to hset on redis", err)

		return err
	}

	return nil
}

// HDel removes hash fields.
func (r *RedisKVRepository) HDel(ctx context.Context, key string, fields ...string) error {
	_, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, span := tracer.Start(ctx, "repository.redis.hdel")
	defer span.End()

	span.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.key", key),
	)

	rds, err := r.conn.GetClient(ctx)
	if err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to get redis", err)

		return err
	}

	if err := rds.HDel(ctx, key, fields...).Err(); err != nil {
		libOpentelemetry.HandleSpanError(&span, "Failed to hdel on redis", err)

		return err
	}

	return nil
}
