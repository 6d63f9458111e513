package bootstrap

import (
	"context"

	"ideanest-backend/internal/app"
	"ideanest-backend/internal/config"
	"ideanest-backend/internal/interfaces/router"
	"ideanest-backend/internal/pkg/logging"

	"github.com/gofiber/fiber/v2"
)

// New creates the Fiber app for Vercel serverless (api handler imports this package, not internal).
// The document sweeper is not started here; run `ops sweep-documents` on a schedule instead.
func New() (*fiber.App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Setup(cfg.Env)
	c, err := app.Build(context.Background(), cfg)
	if err != nil {
		return nil, err
	}
	return router.CreateApp(c), nil
}
