package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/lubritrack/lubritrack/internal/pkg/middleware"
)

type HttpRouter struct {
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	// Apply StaffContext middleware globally as first middleware
	app.Use(middleware.StaffContextMiddleware)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}
