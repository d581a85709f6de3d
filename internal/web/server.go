package web

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"recruitflow/internal/candidates"
	"recruitflow/internal/catalog"
	"recruitflow/internal/session"
)

// API wires the HTTP routes to a session store.
type API struct {
	log      *slog.Logger
	store    *session.Store
	registry *catalog.Registry
	importer *candidates.Importer
	validate *validator.Validate
}

const shutdownTimeout = 5 * time.Second

func NewAPI(
	log *slog.Logger,
	store *session.Store,
	registry *catalog.Registry,
	importer *candidates.Importer,
) *API {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &API{
		log:      log,
		store:    store,
		registry: registry,
		importer: importer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// App builds the fiber application with middleware and routes.
func (a *API) App() *fiber.App {
	handlers := NewAPIHandlers(a.store, a.registry, a.importer, a.validate, a.log)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	Routes(app, handlers)

	return app
}

// Routes registers the API routes on router.
func Routes(router fiber.Router, handlers *APIHandlers) {
	w := router.Group("/workflows")
	w.Get("/", handlers.GetWorkflows)
	w.Get("/:name", handlers.GetWorkflow)

	s := router.Group("/sessions")
	s.Get("/", handlers.ListSessions)
	s.Post("/", handlers.CreateSession)
	s.Get("/:id", handlers.GetSession)
	s.Delete("/:id", handlers.DeleteSession)
	s.Post("/:id/reset", handlers.ResetSession)
	s.Patch("/:id/sections/:section", handlers.UpdateSection)
	s.Post("/:id/candidates", handlers.ImportCandidates)
	s.Post("/:id/advance", handlers.Advance)
	s.Post("/:id/retreat", handlers.Retreat)
	s.Post("/:id/skip", handlers.Skip)
	s.Post("/:id/branch/:event", handlers.RaiseBranch)
	s.Post("/:id/submit", handlers.Submit)
}

// Serve listens on addr until ctx is cancelled, then shuts the server down.
func (a *API) Serve(ctx context.Context, addr string) error {
	app := a.App()

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true})
	}()
	a.log.Info("api listening", "addr", addr)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.log.Info("api shutting down")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
