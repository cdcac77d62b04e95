package bootstrap

import (
	"context"

	libCommons "github.com/LerianStudio/lib-commons/v2/commons"
	"github.com/LerianStudio/lib-commons/v2/commons/log"
	libOtel "github.com/LerianStudio/lib-commons/v2/commons/opentelemetry"
	"github.com/gofiber/fiber/v2"
	"github.com/pkg/errors"

	"github.com/labelforge/labelforge/internal/services"
	"github.com/labelforge/labelforge/pkg"
	"github.com/labelforge/labelforge/pkg/pdf"
)

// Server represents the http server for the label service.
type Server struct {
	app           *fiber.App
	serverAddress string
	settings      *services.SettingsStore
	pdfPool       *pdf.WorkerPool
	log.Logger
	libOtel.Telemetry
}

// ServerAddress returns is a convenience method to return the server address.
func (s *Server) ServerAddress() string {
	return s.serverAddress
}

// NewServer creates an instance of Server.
func NewServer(cfg *Config, app *fiber.App, logger log.Logger, telemetry *libOtel.Telemetry, settings *services.SettingsStore, pdfPool *pdf.WorkerPool) *Server {
	return &Server{
		app:           app,
		serverAddress: cfg.ServerAddress,
		settings:      settings,
		pdfPool:       pdfPool,
		Logger:        logger,
		Telemetry:     *telemetry,
	}
}

// Run runs the server. On the way out it flushes any pending settings write
// and drains the PDF pool before letting the process die.
func (s *Server) Run(l *libCommons.Launcher) error {
	defer func() {
		ctx := pkg.ContextWithLogger(context.Background(), s.Logger)

		if err := s.settings.ForceSave(ctx); err != nil {
			s.Logger.Errorf("Failed to flush settings on shutdown: %v", err)
		}

		s.pdfPool.Close()
		s.ShutdownTelemetry()
	}()

	err := s.app.Listen(s.ServerAddress())
	if err != nil {
		return errors.Wrap(err, "failed to run the server")
	}

	return nil
}
