package controllers

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/lubritrack/lubritrack/app/repository"
	"github.com/lubritrack/lubritrack/internal/pkg/cache"
	"github.com/lubritrack/lubritrack/internal/pkg/lifecycle"
	"github.com/lubritrack/lubritrack/internal/pkg/metrics/counter"
	"github.com/lubritrack/lubritrack/internal/pkg/usercontext"
)

const defaultPageSize = 25
const maxPageSize = 100

// CreateServiceRequest is the payload for recording a new service.
// as_completed records intake and work in one step; precharge creates a
// pending record that consumes quota immediately (quick-intake flow).
type CreateServiceRequest struct {
	lifecycle.ServiceDetail
	AsCompleted bool `json:"as_completed"`
	Precharge   bool `json:"precharge"`
}

// HandleCreateService records a new oil-change service for the tenant.
func HandleCreateService(c *fiber.Ctx) error {
	sc := usercontext.Get(c)

	var req CreateServiceRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if err := validator.New().Struct(&req); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	record, err := getLifecycleService().Create(c.Context(), sc.TenantID, sc.UserID, req.ServiceDetail, lifecycle.CreateOptions{
		AsCompleted: req.AsCompleted,
		Precharge:   req.Precharge,
	})
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}

	if record.QuotaCharged {
		cache.InvalidateQuotaStatus(sc.TenantID)
	}
	return c.Status(fiber.StatusCreated).JSON(record)
}

// ownedServiceID validates the :id param and that the record belongs to the
// caller's tenant. Records of other tenants are reported as not found.
func ownedServiceID(c *fiber.Ctx) (uint, int, fiber.Map) {
	sc := usercontext.Get(c)
	serviceID, ok := parseIDParam(c, "id")
	if !ok {
		return 0, fiber.StatusBadRequest, fiber.Map{"error": "bad_request", "message": "Invalid service id"}
	}
	record, err := repository.GetGlobalFactory().GetServiceRepository().GetByID(serviceID)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return 0, status, body
	}
	if record.TenantID != sc.TenantID {
		return 0, fiber.StatusNotFound, fiber.Map{"error": "not_found", "message": "Record not found"}
	}
	return serviceID, 0, nil
}

// HandleCompleteService moves a pending service to completed with the
// mechanic's service detail.
func HandleCompleteService(c *fiber.Ctx) error {
	var detail lifecycle.ServiceDetail
	if err := c.BodyParser(&detail); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if err := validator.New().Struct(&detail); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	serviceID, status, body := ownedServiceID(c)
	if status != 0 {
		return c.Status(status).JSON(body)
	}

	record, err := getLifecycleService().Complete(c.Context(), serviceID, usercontext.GetUserID(c), detail)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}

	cache.InvalidateQuotaStatus(usercontext.GetTenantID(c))
	return c.JSON(record)
}

// HandleDeliverService hands a completed service over to the client.
func HandleDeliverService(c *fiber.Ctx) error {
	serviceID, status, body := ownedServiceID(c)
	if status != 0 {
		return c.Status(status).JSON(body)
	}

	record, err := getLifecycleService().Deliver(c.Context(), serviceID, usercontext.GetUserID(c))
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}
	return c.JSON(record)
}

// HandleUpdateServiceDetail corrects free-form fields without changing state.
func HandleUpdateServiceDetail(c *fiber.Ctx) error {
	var detail lifecycle.ServiceDetail
	if err := c.BodyParser(&detail); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid JSON body"})
	}
	if err := validator.New().Struct(&detail); err != nil {
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "validation_failed", "message": err.Error()})
	}

	serviceID, status, body := ownedServiceID(c)
	if status != 0 {
		return c.Status(status).JSON(body)
	}

	record, err := getLifecycleService().UpdateDetail(c.Context(), serviceID, detail)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}
	return c.JSON(record)
}

// HandleGetService returns one service record of the tenant.
func HandleGetService(c *fiber.Ctx) error {
	sc := usercontext.Get(c)
	serviceID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid service id"})
	}

	record, err := repository.GetGlobalFactory().GetServiceRepository().GetByID(serviceID)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}
	if record.TenantID != sc.TenantID {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Record not found"})
	}

	// best effort, lookup stats must never fail the request
	_ = counter.AddServiceLookup(record.ID)

	return c.JSON(record)
}

// HandleGetServiceByTicket returns one service record by its printed ticket
// number, the lookup a client at the counter actually has in hand.
func HandleGetServiceByTicket(c *fiber.Ctx) error {
	ticketNumber := strings.ToUpper(strings.TrimSpace(c.Params("ticket")))
	if ticketNumber == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid ticket number"})
	}

	record, err := repository.GetGlobalFactory().GetServiceRepository().GetByTicket(usercontext.GetTenantID(c), ticketNumber)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}

	// best effort, lookup stats must never fail the request
	_ = counter.AddServiceLookup(record.ID)

	return c.JSON(record)
}

// HandleListServices returns the tenant's service records, newest first.
func HandleListServices(c *fiber.Ctx) error {
	sc := usercontext.Get(c)

	page := c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	limit := c.QueryInt("limit", defaultPageSize)
	if limit < 1 || limit > maxPageSize {
		limit = defaultPageSize
	}

	repo := repository.GetGlobalFactory().GetServiceRepository()
	records, err := repo.ListByTenant(sc.TenantID, (page-1)*limit, limit)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}
	total, err := repo.CountByTenant(sc.TenantID)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}

	return c.JSON(fiber.Map{
		"services": records,
		"page":     page,
		"limit":    limit,
		"total":    total,
	})
}

// HandleListPendingServices returns the mechanic work queue, oldest first.
func HandleListPendingServices(c *fiber.Ctx) error {
	sc := usercontext.Get(c)

	records, err := repository.GetGlobalFactory().GetServiceRepository().ListPendingByTenant(sc.TenantID)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}
	return c.JSON(fiber.Map{"services": records})
}

// HandleMonthlyServiceStats returns completed-service counts for the
// dashboard, one row per month.
func HandleMonthlyServiceStats(c *fiber.Ctx) error {
	sc := usercontext.Get(c)

	months := c.QueryInt("months", 6)
	if months < 1 || months > 24 {
		months = 6
	}
	stats, err := repository.GetGlobalFactory().GetServiceRepository().MonthlyCompletedStats(sc.TenantID, months)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}
	return c.JSON(fiber.Map{"months": stats})
}

// HandleGetQuotaStatus reports whether the tenant may record one more service.
// Served from a short-lived cache; any ledger change invalidates it.
func HandleGetQuotaStatus(c *fiber.Ctx) error {
	sc := usercontext.Get(c)

	if avail, ok := cache.GetQuotaStatus(sc.TenantID); ok {
		return c.JSON(avail)
	}

	avail, err := getLifecycleService().QuotaStatus(c.Context(), sc.TenantID)
	if err != nil {
		status, body := serviceErrorStatus(err)
		return c.Status(status).JSON(body)
	}
	cache.SetQuotaStatus(sc.TenantID, avail)
	return c.JSON(avail)
}
