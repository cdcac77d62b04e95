package in

import (
	"context"
	"time"

	"github.com/LerianStudio/lib-commons/v2/commons/log"
	commonsHttp "github.com/LerianStudio/lib-commons/v2/commons/net/http"
	"github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	libRabbitmq "github.com/LerianStudio/lib-commons/v2/commons/rabbitmq"
	libRedis "github.com/LerianStudio/lib-commons/v2/commons/redis"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/labelforge/labelforge/pkg/model"
	"github.com/labelforge/labelforge/pkg/net/http"
)

const readinessCheckTimeout = 2 * time.Second

// ReadinessDeps holds the dependency connections needed for the /ready endpoint.
type ReadinessDeps struct {
	RedisConnection    *libRedis.RedisConnection
	RabbitMQConnection *libRabbitmq.RabbitMQConnection
}

// NewRoutes creates a new fiber router with the specified handlers and middleware.
func NewRoutes(lg log.Logger, tl *opentelemetry.Telemetry, templateHandler *TemplateHandler, settingsHandler *SettingsHandler, labelHandler *LabelHandler, deps *ReadinessDeps) *fiber.App {
	f := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(ctx *fiber.Ctx, err error) error {
			return commonsHttp.HandleFiberError(ctx, err)
		},
	})
	tlMid := commonsHttp.NewTelemetryMiddleware(tl)

	f.Use(tlMid.WithTelemetry(tl))
	f.Use(cors.New())
	f.Use(commonsHttp.WithHTTPLogging(commonsHttp.WithCustomLogger(lg)))

	// Template routes
	f.Get("/v1/templates", templateHandler.GetAllTemplates)
	f.Post("/v1/templates", http.WithBody(new(model.CreateTemplateInput), templateHandler.CreateTemplate))
	f.Delete("/v1/templates", templateHandler.ClearTemplates)
	f.Get("/v1/templates/:id", ParseTemplateIDPathParameter, templateHandler.GetTemplateByID)
	f.Patch("/v1/templates/:id", ParseTemplateIDPathParameter, http.WithBody(new(model.UpdateTemplateInput), templateHandler.UpdateTemplateByID))
	f.Delete("/v1/templates/:id", ParseTemplateIDPathParameter, templateHandler.DeleteTemplateByID)

	// Settings routes
	f.Get("/v1/settings", settingsHandler.GetSettings)
	f.Patch("/v1/settings", http.WithBody(new(model.GlobalSettingsUpdate), settingsHandler.UpdateGlobalSettings))
	f.Put("/v1/settings/selected-template", http.WithBody(new(SelectTemplateInput), settingsHandler.SelectTemplate))
	f.Post("/v1/settings/reset", settingsHandler.ResetSettings)
	f.Post("/v1/settings/flush", settingsHandler.FlushSettings)

	// Label routes
	f.Post("/v1/labels", http.WithBody(new(GenerateLabelInput), labelHandler.GenerateLabel))

	// Health
	f.Get("/health", commonsHttp.Ping)

	// Readiness - checks all dependency connections
	f.Get("/ready", readinessHandler(deps))

	// Version
	f.Get("/version", commonsHttp.Version)

	f.Use(tlMid.EndTracingSpans)

	return f
}

// dependencyResult represents the health status of a single dependency in the readiness check.
type dependencyResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// readinessHandler returns a Fiber handler that checks all dependency connections.
// Each dependency is checked with a 2-second timeout. Returns 200 if all healthy, 503 otherwise.
func readinessHandler(deps *ReadinessDeps) fiber.Handler {
	return func(c *fiber.Ctx) error {
		httpStatus := fiber.StatusOK
		results := make(map[string]*dependencyResult)

		results["redis"] = checkRedis(deps.RedisConnection)
		results["rabbitmq"] = checkRabbitMQ(deps.RabbitMQConnection)

		for _, result := range results {
			if result.Status != "ready" {
				httpStatus = fiber.StatusServiceUnavailable

				break
			}
		}

		overallStatus := "ready"
		if httpStatus == fiber.StatusServiceUnavailable {
			overallStatus = "not_ready"
		}

		return commonsHttp.JSONResponse(c, httpStatus, fiber.Map{
			"status":       overallStatus,
			"dependencies": results,
		})
	}
}

// checkRedis pings the Redis/Valkey connection with a timeout.
func checkRedis(conn *libRedis.RedisConnection) *dependencyResult {
	if conn == nil {
		return &dependencyResult{Status: "not_ready", Message: "connection not configured"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), readinessCheckTimeout)
	defer cancel()

	client, err := conn.GetClient(ctx)
	if err != nil {
		return &dependencyResult{Status: "not_ready", Message: "failed to get client"}
	}

	if _, err = client.Ping(ctx).Result(); err != nil {
		return &dependencyResult{Status: "not_ready", Message: "ping failed"}
	}

	return &dependencyResult{Status: "ready"}
}

// checkRabbitMQ verifies the RabbitMQ connection is alive.
func checkRabbitMQ(conn *libRabbitmq.RabbitMQConnection) *dependencyResult {
	if conn == nil {
		return &dependencyResult{Status: "not_ready", Message: "connection not configured"}
	}

	if !conn.Connected || conn.Connection == nil || conn.Connection.IsClosed() {
		return &dependencyResult{Status: "not_ready", Message: "connection is closed"}
	}

	if !conn.HealthCheck() {
		return &dependencyResult{Status: "not_ready", Message: "health check failed"}
	}

	return &dependencyResult{Status: "ready"}
}
