package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/lubritrack/lubritrack/app/repository"
	"github.com/lubritrack/lubritrack/internal/pkg/cache"
	"github.com/lubritrack/lubritrack/internal/pkg/payments"
	"github.com/lubritrack/lubritrack/internal/pkg/usercontext"
)

// HandleListPlans returns the purchasable plans.
func HandleListPlans(c *fiber.Ctx) error {
	plans, err := repository.GetGlobalFactory().GetPlanRepository().ListActive()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plans"})
	}
	return c.JSON(fiber.Map{"plans": plans})
}

// CheckoutRequest selects the plan a tenant wants to purchase.
type CheckoutRequest struct {
	PlanID uint `json:"plan_id"`
}

// HandleCreateCheckout opens a gateway checkout session for a plan purchase.
// Thin proxy; the quota effect happens later through reconciliation.
func HandleCreateCheckout(c *fiber.Ctx) error {
	sc := usercontext.Get(c)

	var req CheckoutRequest
	if err := c.BodyParser(&req); err != nil || req.PlanID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "plan_id is required"})
	}

	plan, err := repository.GetGlobalFactory().GetPlanRepository().GetByID(req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load plan"})
	}

	session, err := getGatewayClient().CreateCheckout(c.Context(), sc.TenantID, plan.Code, plan.Price)
	if err != nil {
		fiberlog.Errorf("checkout creation failed: tenant=%d plan=%d: %v", sc.TenantID, plan.ID, err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "gateway_error", "message": "Payment gateway is unavailable"})
	}
	return c.JSON(session)
}

// ReconcileRequest confirms an external payment for a plan.
type ReconcileRequest struct {
	ExternalPaymentID string `json:"external_payment_id"`
	PlanID            uint   `json:"plan_id"`
}

// HandleReconcilePayment applies a confirmed gateway payment to the tenant's
// plan and quota, exactly once per external payment id. Duplicate
// confirmations are a normal outcome, not an error.
func HandleReconcilePayment(c *fiber.Ctx) error {
	sc := usercontext.Get(c)

	var req ReconcileRequest
	if err := c.BodyParser(&req); err != nil || req.ExternalPaymentID == "" || req.PlanID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "external_payment_id and plan_id are required"})
	}

	result, err := getReconciler().Reconcile(c.Context(), req.ExternalPaymentID, sc.TenantID, req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Reconciliation failed"})
	}

	if result.Status == payments.StatusApplied {
		cache.InvalidateQuotaStatus(sc.TenantID)
	}
	return c.JSON(result)
}

// TransferRequestPayload submits a bank-transfer for staff review.
type TransferRequestPayload struct {
	PlanID uint `json:"plan_id"`
}

// HandleSubmitTransfer records a bank-transfer payment request.
func HandleSubmitTransfer(c *fiber.Ctx) error {
	sc := usercontext.Get(c)

	var req TransferRequestPayload
	if err := c.BodyParser(&req); err != nil || req.PlanID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "plan_id is required"})
	}

	transfer, err := getReconciler().SubmitTransfer(c.Context(), sc.TenantID, req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Plan not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to submit transfer"})
	}
	return c.Status(fiber.StatusCreated).JSON(transfer)
}

// HandleListPendingTransfers returns transfer requests awaiting review.
func HandleListPendingTransfers(c *fiber.Ctx) error {
	requests, err := repository.GetGlobalFactory().GetPaymentRepository().ListPendingTransferRequests()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load transfer requests"})
	}
	return c.JSON(fiber.Map{"transfers": requests})
}

// HandleApproveTransfer approves a pending transfer and applies it through
// payment reconciliation.
func HandleApproveTransfer(c *fiber.Ctx) error {
	sc := usercontext.Get(c)
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid transfer id"})
	}

	result, err := getReconciler().ApproveTransfer(c.Context(), requestID, sc.UserID)
	if err != nil {
		switch {
		case errors.Is(err, payments.ErrTransferAlreadyReviewed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_reviewed", "message": "Transfer request was already reviewed"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Transfer request not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Approval failed"})
		}
	}

	if result.Payment != nil {
		cache.InvalidateQuotaStatus(result.Payment.TenantID)
	}
	return c.JSON(result)
}

// HandleRejectTransfer rejects a pending transfer request.
func HandleRejectTransfer(c *fiber.Ctx) error {
	sc := usercontext.Get(c)
	requestID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid transfer id"})
	}

	if err := getReconciler().RejectTransfer(c.Context(), requestID, sc.UserID); err != nil {
		switch {
		case errors.Is(err, payments.ErrTransferAlreadyReviewed):
			return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "already_reviewed", "message": "Transfer request was already reviewed"})
		case errors.Is(err, gorm.ErrRecordNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Transfer request not found"})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Rejection failed"})
		}
	}
	return c.JSON(fiber.Map{"status": "rejected"})
}
