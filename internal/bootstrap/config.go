package bootstrap

import (
	"context"
	"fmt"
	"time"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	libOtel "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	libRabbitMQ "github.com/LerianStudio/lib-commons/v2/commons/rabbitmq"
	libRedis "github.com/LerianStudio/lib-commons/v2/commons/redis"
	libZap "github.com/LerianStudio/lib-commons/v2/commons/zap"

	httpin "github.com/labelforge/labelforge/internal/adapters/http/in"
	"github.com/labelforge/labelforge/internal/adapters/rabbitmq"
	"github.com/labelforge/labelforge/internal/adapters/redis"
	"github.com/labelforge/labelforge/internal/services"
	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/barcode"
	"github.com/labelforge/labelforge/pkg/constant"
	"github.com/labelforge/labelforge/pkg/event"
	"github.com/labelforge/labelforge/pkg/imageloader"
	"github.com/labelforge/labelforge/pkg/pdf"
)

// Config holds the application's configurable parameters read from environment variables.
type Config struct {
	EnvName                 string `env:"ENV_NAME"`
	ServerAddress           string `env:"SERVER_ADDRESS"`
	LogLevel                string `env:"LOG_LEVEL"`
	OtelServiceName         string `env:"OTEL_RESOURCE_SERVICE_NAME"`
	OtelLibraryName         string `env:"OTEL_LIBRARY_NAME"`
	OtelServiceVersion      string `env:"OTEL_RESOURCE_SERVICE_VERSION"`
	OtelDeploymentEnv       string `env:"OTEL_RESOURCE_DEPLOYMENT_ENVIRONMENT"`
	OtelColExporterEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	EnableTelemetry         bool   `env:"ENABLE_TELEMETRY"`
	// Redis configuration envs
	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     string `env:"REDIS_PORT"`
	RedisUser     string `env:"REDIS_USER"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	// RabbitMQ configuration envs
	RabbitURI              string `env:"RABBITMQ_URI"`
	RabbitMQHost           string `env:"RABBITMQ_HOST"`
	RabbitMQPortHost       string `env:"RABBITMQ_PORT_HOST"`
	RabbitMQPortAMQP       string `env:"RABBITMQ_PORT_AMQP"`
	RabbitMQUser           string `env:"RABBITMQ_DEFAULT_USER"`
	RabbitMQPass           string `env:"RABBITMQ_DEFAULT_PASS"`
	RabbitMQExchange       string `env:"RABBITMQ_EXCHANGE" default:"labelforge.events"`
	RabbitMQRoutingKey     string `env:"RABBITMQ_ROUTING_KEY" default:"labelforge.notifications"`
	RabbitMQHealthCheckURL string `env:"RABBITMQ_HEALTH_CHECK_URL"`
	// Settings debounce window in milliseconds
	SettingsDebounceMS int `env:"SETTINGS_DEBOUNCE_MS"`
	// PDF Pool configuration envs
	PdfPoolWorkers        int `env:"PDF_POOL_WORKERS" default:"2"`
	PdfPoolTimeoutSeconds int `env:"PDF_TIMEOUT_SECONDS" default:"90"`
}

// InitServers initializes and wires every component, returning the Service
// ready to run.
func InitServers() *Service {
	cfg := &Config{}
	if err := libCommons.SetConfigFromEnvVars(cfg); err != nil {
		panic(err)
	}

	logger := libZap.InitializeLogger()

	telemetry := libOtel.InitializeTelemetry(&libOtel.TelemetryConfig{
		LibraryName:               cfg.OtelLibraryName,
		ServiceName:               cfg.OtelServiceName,
		ServiceVersion:            cfg.OtelServiceVersion,
		DeploymentEnv:             cfg.OtelDeploymentEnv,
		CollectorExporterEndpoint: cfg.OtelColExporterEndpoint,
		EnableTelemetry:           cfg.EnableTelemetry,
		Logger:                    logger,
	})

	// Init Redis connection
	redisSource := fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort)

	redisConnection := &libRedis.RedisConnection{
		Address:  []string{redisSource},
		Password: cfg.RedisPassword,
		Logger:   logger,
	}

	// Init RabbitMQ connection
	rabbitSource := fmt.Sprintf("%s://%s:%s@%s:%s",
		cfg.RabbitURI, cfg.RabbitMQUser, cfg.RabbitMQPass, cfg.RabbitMQHost, cfg.RabbitMQPortAMQP)

	rabbitMQConnection := &libRabbitMQ.RabbitMQConnection{
		ConnectionStringSource: rabbitSource,
		HealthCheckURL:         cfg.RabbitMQHealthCheckURL,
		Host:                   cfg.RabbitMQHost,
		Port:                   cfg.RabbitMQPortHost,
		User:                   cfg.RabbitMQUser,
		Pass:                   cfg.RabbitMQPass,
		Logger:                 logger,
	}

	kvRepository, err := redis.NewRedisKVRepository(redisConnection)
	if err != nil {
		panic(err)
	}

	producerRepository := rabbitmq.NewProducerRabbitMQ(rabbitMQConnection)

	bus := event.NewBus()
	clock := services.NewClock()

	ctx := pkg.ContextWithLogger(context.Background(), logger)

	debounce := time.Duration(cfg.SettingsDebounceMS) * time.Millisecond
	if cfg.SettingsDebounceMS <= 0 {
		debounce = constant.DefaultDebounceWindowMS * time.Millisecond
	}

	templateStore := services.NewTemplateStore(ctx, kvRepository, bus, clock)
	settingsStore := services.NewSettingsStore(ctx, kvRepository, bus, clock, debounce)

	renderer := services.NewLabelRenderer(templateStore, settingsStore, barcode.NewSymbologyEncoder(), imageloader.NewHTTPLoader())

	useCase := &services.UseCase{
		Templates: templateStore,
		Settings:  settingsStore,
		Renderer:  renderer,
	}

	// Fan selected store notifications out to the broker
	rabbitmq.AttachForwarder(bus, producerRepository, cfg.RabbitMQExchange, cfg.RabbitMQRoutingKey)

	layoutRenderer, layoutErr := pdf.NewLayoutRenderer()
	if layoutErr != nil {
		panic(layoutErr)
	}

	pdfPool := pdf.NewWorkerPool(cfg.PdfPoolWorkers, time.Duration(cfg.PdfPoolTimeoutSeconds)*time.Second, logger)

	templateHandler := &httpin.TemplateHandler{Service: useCase}
	settingsHandler := &httpin.SettingsHandler{Service: useCase}
	labelHandler := &httpin.LabelHandler{Service: useCase, Layout: layoutRenderer, PDF: pdfPool}

	readinessDeps := &httpin.ReadinessDeps{
		RedisConnection:    redisConnection,
		RabbitMQConnection: rabbitMQConnection,
	}

	httpApp := httpin.NewRoutes(logger, telemetry, templateHandler, settingsHandler, labelHandler, readinessDeps)
	serverAPI := NewServer(cfg, httpApp, logger, telemetry, settingsStore, pdfPool)

	return &Service{
		Server: serverAPI,
		Logger: logger,
	}
}
