package router

import (
	"github.com/gofiber/fiber/v2"
)

// Router installs a set of routes on the application.
type Router interface {
	InstallRouter(app *fiber.App)
}

func InstallRouter(app *fiber.App) {
	// Install HttpRouter first so the staff context middleware runs before
	// any API route. Then register API routes which depend on it.
	setup(app, NewHttpRouter(), NewApiRouter())
}

func setup(app *fiber.App, router ...Router) {
	for _, r := range router {
		r.InstallRouter(app)
	}
}
