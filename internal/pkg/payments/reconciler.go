package payments

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/lubritrack/lubritrack/app/models"
	"github.com/lubritrack/lubritrack/app/repository"
)

// Reconciliation outcomes. already_used is a normal idempotent result, not an
// error: retried confirmations are expected.
const (
	StatusApplied     = "applied"
	StatusAlreadyUsed = "already_used"
	StatusRejected    = "rejected"
)

// ErrTransferAlreadyReviewed is returned when a transfer request was approved
// or rejected by another staff member in the meantime.
var ErrTransferAlreadyReviewed = errors.New("transfer request already reviewed")

// Result is the outcome of one reconciliation attempt.
type Result struct {
	Status  string          `json:"status"`
	Payment *models.Payment `json:"payment,omitempty"`
}

// Reconciler applies confirmed payments to a tenant's plan and quota ledger.
type Reconciler struct {
	payments repository.PaymentRepository
	tenants  repository.TenantRepository
	plans    repository.PlanRepository
	audits   repository.LedgerAuditRepository
	verifier Verifier
}

// NewReconciler creates a payment reconciler from injected collaborators.
func NewReconciler(
	payments repository.PaymentRepository,
	tenants repository.TenantRepository,
	plans repository.PlanRepository,
	audits repository.LedgerAuditRepository,
	verifier Verifier,
) *Reconciler {
	return &Reconciler{
		payments: payments,
		tenants:  tenants,
		plans:    plans,
		audits:   audits,
		verifier: verifier,
	}
}

// Reconcile applies an externally confirmed gateway payment exactly once.
// The payment id is verified against the gateway before anything is written;
// a gateway failure or decline yields rejected without side effects.
func (r *Reconciler) Reconcile(ctx context.Context, externalPaymentID string, tenantID, planID uint) (Result, error) {
	id := strings.TrimSpace(externalPaymentID)
	if id == "" {
		return Result{}, errors.New("external_payment_id is required")
	}

	// Fast path: a payment we already applied. The authoritative duplicate
	// gate is still the conditional insert below; this only avoids a
	// needless gateway round trip on obvious retries.
	if existing, err := r.payments.GetByExternalID(id); err == nil {
		return Result{Status: StatusAlreadyUsed, Payment: existing}, nil
	}

	verification, err := r.verifier.VerifyPayment(ctx, id)
	if err != nil {
		fiberlog.Warnf("payment verification failed: id=%s tenant=%d: %v", id, tenantID, err)
		return Result{Status: StatusRejected}, nil
	}
	if !verification.Approved {
		return Result{Status: StatusRejected}, nil
	}

	return r.apply(id, tenantID, planID, models.PaymentSourceGateway, verification.Amount)
}

// apply inserts the payment row and tops up the tenant. The insert is the
// idempotency gate: concurrent attempts with the same id resolve to exactly
// one applied and already_used for everyone else.
func (r *Reconciler) apply(externalPaymentID string, tenantID, planID uint, source string, amount decimal.Decimal) (Result, error) {
	plan, err := r.plans.GetByID(planID)
	if err != nil {
		return Result{}, fmt.Errorf("load plan %d: %w", planID, err)
	}
	if amount.IsZero() {
		amount = plan.Price
	}

	payment := &models.Payment{
		ExternalPaymentID: externalPaymentID,
		TenantID:          tenantID,
		PlanID:            planID,
		Amount:            amount,
		Source:            source,
	}
	created, stored, err := r.payments.CreateIfAbsent(payment)
	if err != nil {
		return Result{}, fmt.Errorf("record payment %s: %w", externalPaymentID, err)
	}
	if !created {
		return Result{Status: StatusAlreadyUsed, Payment: stored}, nil
	}

	// The payment row is durable from here on. A failed top-up is captured
	// for reconciliation instead of losing the recorded payment.
	if err := r.tenants.ApplyTopUp(tenantID, plan); err != nil {
		fiberlog.Errorf("ledger update degraded: tenant=%d payment=%s delta=+%d: %v", tenantID, externalPaymentID, plan.ServiceCount, err)
		entry := &models.LedgerAudit{
			TenantID: tenantID,
			Delta:    plan.ServiceCount,
			Reason:   fmt.Sprintf("apply top-up for payment %s failed: %v", externalPaymentID, err),
		}
		if auditErr := r.audits.Create(entry); auditErr != nil {
			fiberlog.Errorf("ledger audit write failed: tenant=%d payment=%s: %v", tenantID, externalPaymentID, auditErr)
		}
	}
	return Result{Status: StatusApplied, Payment: stored}, nil
}

// SubmitTransfer records a bank-transfer request awaiting staff review.
func (r *Reconciler) SubmitTransfer(ctx context.Context, tenantID, planID uint) (*models.TransferRequest, error) {
	_ = ctx
	if _, err := r.plans.GetByID(planID); err != nil {
		return nil, fmt.Errorf("load plan %d: %w", planID, err)
	}
	req := &models.TransferRequest{
		Reference: uuid.NewString(),
		TenantID:  tenantID,
		PlanID:    planID,
		Status:    models.TransferStatusPending,
	}
	if err := r.payments.CreateTransferRequest(req); err != nil {
		return nil, fmt.Errorf("create transfer request: %w", err)
	}
	return req, nil
}

// ApproveTransfer approves a pending transfer request and applies it through
// the same reconciliation contract as gateway payments. The staff approval
// substitutes for gateway verification.
func (r *Reconciler) ApproveTransfer(ctx context.Context, requestID, reviewerID uint) (Result, error) {
	_ = ctx
	req, err := r.payments.GetTransferRequest(requestID)
	if err != nil {
		return Result{}, err
	}

	ok, err := r.payments.ReviewTransferRequest(requestID, models.TransferStatusApproved, reviewerID, time.Now())
	if err != nil {
		return Result{}, fmt.Errorf("approve transfer %d: %w", requestID, err)
	}
	if !ok {
		return Result{}, ErrTransferAlreadyReviewed
	}

	return r.apply(req.ExternalPaymentID(), req.TenantID, req.PlanID, models.PaymentSourceTransfer, decimal.Zero)
}

// RejectTransfer rejects a pending transfer request. No ledger effect.
func (r *Reconciler) RejectTransfer(ctx context.Context, requestID, reviewerID uint) error {
	_ = ctx
	ok, err := r.payments.ReviewTransferRequest(requestID, models.TransferStatusRejected, reviewerID, time.Now())
	if err != nil {
		return fmt.Errorf("reject transfer %d: %w", requestID, err)
	}
	if !ok {
		return ErrTransferAlreadyReviewed
	}
	return nil
}
