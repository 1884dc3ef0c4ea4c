package router

import (
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"

	"github.com/lubritrack/lubritrack/app/controllers"
	"github.com/lubritrack/lubritrack/internal/pkg/middleware"
	"github.com/lubritrack/lubritrack/internal/pkg/ratelimit"
	"github.com/lubritrack/lubritrack/internal/pkg/usercontext"
)

type ApiRouter struct {
}

func (h ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Storage:    ratelimit.NewStorage(),
		KeyGenerator: func(c *fiber.Ctx) string {
			// Limit per tenant where known so one busy shop cannot starve
			// another behind the same proxy
			if tenantID := usercontext.GetTenantID(c); tenantID != 0 {
				return "tenant:" + strconv.FormatUint(uint64(tenantID), 10)
			}
			return c.IP()
		},
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "lubritrack api",
		})
	})

	v1 := api.Group("/v1", middleware.RequireStaff)

	// Service lifecycle
	v1.Post("/services", controllers.HandleCreateService)
	v1.Get("/services", controllers.HandleListServices)
	v1.Get("/services/pending", controllers.HandleListPendingServices)
	v1.Get("/services/stats/month", controllers.HandleMonthlyServiceStats)
	v1.Get("/services/ticket/:ticket", controllers.HandleGetServiceByTicket)
	v1.Get("/services/:id", controllers.HandleGetService)
	v1.Patch("/services/:id", controllers.HandleUpdateServiceDetail)
	v1.Post("/services/:id/complete", controllers.HandleCompleteService)
	v1.Post("/services/:id/deliver", controllers.HandleDeliverService)

	// Quota ledger
	v1.Get("/quota", controllers.HandleGetQuotaStatus)

	// Billing
	v1.Get("/billing/plans", controllers.HandleListPlans)
	v1.Post("/billing/checkout", controllers.HandleCreateCheckout)
	v1.Post("/billing/reconcile", controllers.HandleReconcilePayment)
	v1.Post("/billing/transfers", controllers.HandleSubmitTransfer)

	// Transfer review is restricted to shop admins
	review := v1.Group("/billing/transfers", middleware.RequireAdmin)
	review.Get("/pending", controllers.HandleListPendingTransfers)
	review.Post("/:id/approve", controllers.HandleApproveTransfer)
	review.Post("/:id/reject", controllers.HandleRejectTransfer)
}

func NewApiRouter() *ApiRouter {
	return &ApiRouter{}
}
