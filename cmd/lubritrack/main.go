package main

import (
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/lubritrack/lubritrack/app/repository"
	"github.com/lubritrack/lubritrack/internal/pkg/cache"
	"github.com/lubritrack/lubritrack/internal/pkg/database"
	"github.com/lubritrack/lubritrack/internal/pkg/env"
	"github.com/lubritrack/lubritrack/internal/pkg/metrics/counter"
	"github.com/lubritrack/lubritrack/internal/pkg/router"
	"github.com/lubritrack/lubritrack/internal/pkg/sweeper"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()

	repository.InitializeFactory(database.GetDB())

	app := fiber.New(fiber.Config{
		AppName:   "lubritrack",
		BodyLimit: 1 * 1024 * 1024,
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			"admin": env.GetEnv("METRICS_PASSWORD", "test"),
		},
	}), monitor.New())

	// ROUTER
	router.InstallRouter(app)

	// expire overdue trials in the background
	sweeper.StartTrialSweeper(repository.GetGlobalRepositories().Tenant, time.Hour)

	// flush buffered ticket lookup counters
	counter.StartFlusher(5 * time.Minute)

	return app
}
