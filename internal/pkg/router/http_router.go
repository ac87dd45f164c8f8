package router

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/subsync/subsync/app/controllers"
	"github.com/subsync/subsync/internal/pkg/env"
	"github.com/subsync/subsync/internal/pkg/middleware"
)

type HttpRouter struct {
}

func NewHttpRouter() *HttpRouter {
	return &HttpRouter{}
}

func (h HttpRouter) InstallRouter(app *fiber.App) {
	port, _ := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	// Limiter state lives in the shared Redis so the limit holds across
	// instances, same as the resync lock.
	storage := redisstorage.New(redisstorage.Config{
		Host: env.GetEnv("CACHE_HOST", "localhost"),
		Port: port,
	})

	app.Post("/webhooks/billing", limiter.New(limiter.Config{
		Max:     120,
		Storage: storage,
	}), controllers.HandleBillingWebhook)

	userFacing := app.Group("/billing", middleware.UserHeaderMiddleware())
	userFacing.Post("/checkout", controllers.HandleCheckoutStart)
	userFacing.Get("/return", controllers.HandleBillingReturn)
	userFacing.Get("/state", controllers.HandleBillingState)

	app.Get("/metrics/billing", controllers.HandleBillingMetrics)
}
