// Package webapi exposes the banking services over HTTP using Fiber.
package webapi

import (
	"github.com/amirasaad/banking/pkg/account"
	"github.com/amirasaad/banking/pkg/config"
	"github.com/amirasaad/banking/pkg/engine"
	"github.com/amirasaad/banking/pkg/reconcile"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
)

// Services bundles everything the HTTP layer exposes.
type Services struct {
	Accounts *account.Service
	Engine   *engine.Service
	Recovery *reconcile.Service
}

// NewApp builds the Fiber application with all routes registered.
func NewApp(svcs Services, cfg *config.App) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "banking",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			status := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			}
			return ErrorResponseJSON(c, status, "Internal Server Error", err.Error())
		},
	})

	app.Use(requestid.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	AccountRoutes(app, svcs.Accounts)
	TransactionRoutes(app, svcs.Engine)
	RecoveryRoutes(app, svcs.Recovery)

	return app
}
