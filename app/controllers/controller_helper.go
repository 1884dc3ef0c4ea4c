package controllers

import (
	"errors"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/lubritrack/lubritrack/app/repository"
	"github.com/lubritrack/lubritrack/internal/pkg/lifecycle"
	"github.com/lubritrack/lubritrack/internal/pkg/payments"
)

var (
	lifecycleOnce sync.Once
	lifecycleSvc  *lifecycle.Service

	reconcilerOnce sync.Once
	reconcilerSvc  *payments.Reconciler

	gatewayOnce   sync.Once
	gatewayClient *payments.Client
)

func getLifecycleService() *lifecycle.Service {
	lifecycleOnce.Do(func() {
		repos := repository.GetGlobalRepositories()
		lifecycleSvc = lifecycle.NewService(repos.Tenant, repos.Service, repos.LedgerAudit)
	})
	return lifecycleSvc
}

func getGatewayClient() *payments.Client {
	gatewayOnce.Do(func() {
		gatewayClient = payments.NewClientFromEnv()
	})
	return gatewayClient
}

func getReconciler() *payments.Reconciler {
	reconcilerOnce.Do(func() {
		repos := repository.GetGlobalRepositories()
		reconcilerSvc = payments.NewReconciler(repos.Payment, repos.Tenant, repos.Plan, repos.LedgerAudit, getGatewayClient())
	})
	return reconcilerSvc
}

// parseIDParam reads a positive numeric route parameter.
func parseIDParam(c *fiber.Ctx, name string) (uint, bool) {
	raw := c.Params(name)
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// serviceErrorStatus maps lifecycle errors to an HTTP status and JSON body.
// Quota and inactive-tenant denials carry enough context for the frontend to
// direct the tenant toward a renewal action; they are not retryable.
func serviceErrorStatus(err error) (int, fiber.Map) {
	if qe, ok := lifecycle.AsQuotaError(err); ok {
		return fiber.StatusPaymentRequired, fiber.Map{
			"error":     "quota_exceeded",
			"message":   "No services available under the current plan",
			"remaining": qe.Availability.Remaining,
			"reason":    qe.Availability.Reason,
		}
	}
	var validationErrs validator.ValidationErrors
	switch {
	case errors.As(err, &validationErrs):
		return fiber.StatusUnprocessableEntity, fiber.Map{
			"error":   "validation_failed",
			"message": validationErrs.Error(),
		}
	case errors.Is(err, lifecycle.ErrTenantInactive):
		return fiber.StatusForbidden, fiber.Map{
			"error":   "tenant_inactive",
			"message": "The account is disabled; renew the subscription to continue",
		}
	case errors.Is(err, lifecycle.ErrInvalidStateTransition):
		return fiber.StatusConflict, fiber.Map{
			"error":   "invalid_state_transition",
			"message": "The service record does not allow this transition; reload and retry",
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fiber.StatusNotFound, fiber.Map{
			"error":   "not_found",
			"message": "Record not found",
		}
	default:
		return fiber.StatusInternalServerError, fiber.Map{
			"error":   "internal_server_error",
			"message": "Unexpected error",
		}
	}
}
