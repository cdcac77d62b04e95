package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOpentelemetry "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	libRabbitmq "github.com/LerianStudio/lib-commons/v2/commons/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel/attribute"

	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/event"
)

// sleepFunc is the function used for sleeping between retries.
// Overridable in tests for deterministic behavior.
var sleepFunc = time.Sleep

// EventEnvelope is the wire shape of a store notification fanned out to
// sibling surfaces through the broker.
type EventEnvelope struct {
	Event      string    `json:"event"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// ProducerRepository provides an abstraction on top of the producer rabbitmq.
//
//go:generate mockgen --destination=producer.rabbitmq.mock.go --package=rabbitmq . ProducerRepository
type ProducerRepository interface {
	PublishEvent(ctx context.Context, exchange, key string, envelope EventEnvelope) error
}

// ProducerRabbitMQRepository is a rabbitmq implementation of the producer
type ProducerRabbitMQRepository struct {
	conn *libRabbitmq.RabbitMQConnection
}

// Compile-time interface satisfaction check.
var _ ProducerRepository = (*ProducerRabbitMQRepository)(nil)

// NewProducerRabbitMQ returns a new instance of ProducerRabbitMQRepository using the given rabbitmq connection.
// Connection is established lazily on first use to avoid panic during initialization.
func NewProducerRabbitMQ(c *libRabbitmq.RabbitMQConnection) *ProducerRabbitMQRepository {
	prmq := &ProducerRabbitMQRepository{
		conn: c,
	}

	// Try to connect but don't panic if it fails
	// Connection will be retried on first use via EnsureChannel
	_, err := c.GetNewConnect()
	if err != nil {
		c.Logger.Errorf("Failed to connect to RabbitMQ during initialization: %v", err)
		c.Logger.Warn("RabbitMQ connection will be retried on first event publish")
	} else {
		c.Logger.Info("RabbitMQ producer connected successfully")
	}

	return prmq
}

// PublishEvent publishes an event envelope with retry logic. On each attempt it
// calls EnsureChannel() to restore the channel if the connection dropped, then
// publishes. Retries up to ProducerMaxRetries with exponential backoff and full
// jitter to prevent thundering herd after a broker restart.
func (prmq *ProducerRabbitMQRepository) PublishEvent(ctx context.Context, exchange, key string, envelope EventEnvelope) error {
	logger, tracer, reqId, _ := libCommons.NewTrackingFromContext(ctx)

	ctx, spanProducer := tracer.Start(ctx, "repository.rabbitmq.publish_event")
	defer spanProducer.End()

	spanProducer.SetAttributes(
		attribute.String("app.request.request_id", reqId),
		attribute.String("app.request.exchange", exchange),
		attribute.String("app.request.key", key),
		attribute.String("app.request.event", envelope.Event),
	)

	message, err := json.Marshal(envelope)
	if err != nil {
		libOpentelemetry.HandleSpanError(&spanProducer, "Failed to marshal event envelope", err)

		logger.Errorf("Failed to marshal event envelope")

		return err
	}

	headers := amqp.Table{
		"x-request-id": reqId,
	}

	backoff := constant.ProducerInitialBackoff

	var publishErr error

	for attempt := 0; attempt <= constant.ProducerMaxRetries; attempt++ {
		// Ensure channel is available (reconnects if connection dropped)
		if chanErr := prmq.conn.EnsureChannel(); chanErr != nil {
			logger.Errorf("EnsureChannel failed (attempt %d/%d): %v", attempt+1, constant.ProducerMaxRetries+1, chanErr)

			spanProducer.SetAttributes(
				attribute.Int("app.request.rabbitmq.retry_attempt", attempt),
			)

			if attempt == constant.ProducerMaxRetries {
				libOpentelemetry.HandleSpanError(&spanProducer, "Failed to ensure RabbitMQ channel after all retries", chanErr)

				return chanErr
			}

			sleepFunc(pkg.FullJitter(backoff))

			backoff = pkg.NextBackoff(backoff)

			continue
		}

		publishErr = prmq.conn.Channel.Publish(
			exchange,
			key,
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent,
				Headers:      headers,
				Body:         message,
			})

		if publishErr == nil {
			logger.Infof("Event %s published", envelope.Event)

			return nil
		}

		logger.Errorf("Publish failed (attempt %d/%d): %v", attempt+1, constant.ProducerMaxRetries+1, publishErr)

		spanProducer.SetAttributes(
			attribute.Int("app.request.rabbitmq.retry_attempt", attempt),
		)

		if attempt == constant.ProducerMaxRetries {
			libOpentelemetry.HandleSpanError(&spanProducer, "Failed to publish event after all retries", publishErr)

			return publishErr
		}

		sleepFunc(pkg.FullJitter(backoff))

		backoff = pkg.NextBackoff(backoff)
	}

	return publishErr
}

// forwardedEvents are the topics fanned out to the broker. Saving-state and
// per-key notifications stay process local.
var forwardedEvents = map[event.Name]bool{
	event.TemplateCreated:       true,
	event.TemplateUpdated:       true,
	event.TemplateDeleted:       true,
	event.TemplatesCleared:      true,
	event.SettingsChanged:       true,
	event.SettingsReset:         true,
	event.TemplateSelected:      true,
	event.GlobalSettingsChanged: true,
}

// AttachForwarder subscribes to the bus and republishes selected events to the
// given exchange so that other surfaces can invalidate their caches. Publish
// failures are logged by the producer and dropped; the in-process bus remains
// the authoritative channel.
func AttachForwarder(bus *event.Bus, producer ProducerRepository, exchange, routingKey string) func() {
	return bus.SubscribeAll(func(evt event.Event) {
		if !forwardedEvents[evt.Name] {
			return
		}

		_ = producer.PublishEvent(context.Background(), exchange, routingKey, EventEnvelope{
			Event:      string(evt.Name),
			Payload:    evt.Payload,
			OccurredAt: evt.OccurredAt,
		})
	})
}
