package payments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/lubritrack/lubritrack/app/models"
)

type fakePaymentRepo struct {
	mu        sync.Mutex
	byExtID   map[string]*models.Payment
	transfers map[uint]*models.TransferRequest
	nextID    uint
}

func newFakePaymentRepo() *fakePaymentRepo {
	return &fakePaymentRepo{byExtID: map[string]*models.Payment{}, transfers: map[uint]*models.TransferRequest{}}
}

func (f *fakePaymentRepo) CreateIfAbsent(payment *models.Payment) (bool, *models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if existing, ok := f.byExtID[payment.ExternalPaymentID]; ok {
		cp := *existing
		return false, &cp, nil
	}
	f.nextID++
	payment.ID = f.nextID
	payment.AppliedAt = time.Now()
	cp := *payment
	f.byExtID[payment.ExternalPaymentID] = &cp
	out := cp
	return true, &out, nil
}

func (f *fakePaymentRepo) GetByExternalID(externalPaymentID string) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byExtID[externalPaymentID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePaymentRepo) ListByTenant(tenantID uint) ([]models.Payment, error) { return nil, nil }

func (f *fakePaymentRepo) CreateTransferRequest(req *models.TransferRequest) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	req.ID = f.nextID
	cp := *req
	f.transfers[req.ID] = &cp
	return nil
}

func (f *fakePaymentRepo) GetTransferRequest(id uint) (*models.TransferRequest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.transfers[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *req
	return &cp, nil
}

func (f *fakePaymentRepo) ReviewTransferRequest(id uint, status string, reviewerID uint, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	req, ok := f.transfers[id]
	if !ok || req.Status != models.TransferStatusPending {
		return false, nil
	}
	req.Status = status
	req.ReviewedByUserID = &reviewerID
	req.ReviewedAt = &at
	return true, nil
}

func (f *fakePaymentRepo) ListPendingTransferRequests() ([]models.TransferRequest, error) {
	return nil, nil
}

type fakeTenantRepo struct {
	mu        sync.Mutex
	tenants   map[uint]*models.Tenant
	failTopUp bool
}

func (f *fakeTenantRepo) Create(t *models.Tenant) error { return nil }

func (f *fakeTenantRepo) Update(t *models.Tenant) error { return nil }

func (f *fakeTenantRepo) List(o, l int) ([]models.Tenant, error) { return nil, nil }

func (f *fakeTenantRepo) Count() (int64, error) { return 0, nil }

func (f *fakeTenantRepo) ApplyCompletion(id uint) error { return nil }

func (f *fakeTenantRepo) DeactivateExpiredTrials(t time.Time) (int64, error) { return 0, nil }

func (f *fakeTenantRepo) GetByID(id uint) (*models.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tenants[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTenantRepo) GetWithPlan(id uint) (*models.Tenant, *models.Plan, error) {
	t, err := f.GetByID(id)
	return t, nil, err
}

func (f *fakeTenantRepo) ApplyTopUp(tenantID uint, plan *models.Plan) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTopUp {
		return errors.New("ledger store unavailable")
	}
	t, ok := f.tenants[tenantID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	t.PlanID = &plan.ID
	t.AccountStatus = models.AccountStatusActive
	if plan.Type == models.PlanTypeServiceCount {
		n := plan.ServiceCount
		if t.ServicesRemaining != nil {
			n += *t.ServicesRemaining
		}
		t.ServicesRemaining = &n
	} else {
		t.ServicesRemaining = nil
	}
	return nil
}

type fakePlanRepo struct {
	plans map[uint]*models.Plan
}

func (f *fakePlanRepo) GetByID(id uint) (*models.Plan, error) {
	p, ok := f.plans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return p, nil
}

func (f *fakePlanRepo) GetByCode(code string) (*models.Plan, error) { return nil, gorm.ErrRecordNotFound }
func (f *fakePlanRepo) ListActive() ([]models.Plan, error)          { return nil, nil }

type fakeAuditRepo struct {
	entries []models.LedgerAudit
}

func (f *fakeAuditRepo) Create(entry *models.LedgerAudit) error {
	f.entries = append(f.entries, *entry)
	return nil
}
func (f *fakeAuditRepo) ListUnresolved(limit int) ([]models.LedgerAudit, error) { return nil, nil }
func (f *fakeAuditRepo) MarkResolved(id uint, at time.Time) error               { return nil }

type fakeVerifier struct {
	approved bool
	err      error
	calls    int
}

func (f *fakeVerifier) VerifyPayment(ctx context.Context, externalPaymentID string) (*Verification, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &Verification{Approved: f.approved, Amount: decimal.NewFromInt(25000)}, nil
}

func intPtr(n int) *int { return &n }

func newTestReconciler(approved bool) (*Reconciler, *fakePaymentRepo, *fakeTenantRepo, *fakeAuditRepo, *fakeVerifier) {
	paymentsRepo := newFakePaymentRepo()
	tenants := &fakeTenantRepo{tenants: map[uint]*models.Tenant{
		1: {ID: 1, AccountStatus: models.AccountStatusTrial, ServicesRemaining: intPtr(5)},
	}}
	plans := &fakePlanRepo{plans: map[uint]*models.Plan{
		3: {ID: 3, Code: "pack-20", Type: models.PlanTypeServiceCount, ServiceCount: 20, Price: decimal.NewFromInt(25000)},
	}}
	audits := &fakeAuditRepo{}
	verifier := &fakeVerifier{approved: approved}
	return NewReconciler(paymentsRepo, tenants, plans, audits, verifier), paymentsRepo, tenants, audits, verifier
}

func TestReconcileAppliesTopUp(t *testing.T) {
	r, _, tenants, _, _ := newTestReconciler(true)

	result, err := r.Reconcile(context.Background(), "mp-1001", 1, 3)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Status != StatusApplied {
		t.Fatalf("status = %q, want %q", result.Status, StatusApplied)
	}
	if result.Payment == nil || result.Payment.ExternalPaymentID != "mp-1001" {
		t.Fatalf("applied result must carry the payment, got %+v", result.Payment)
	}

	tenant, _ := tenants.GetByID(1)
	if tenant.ServicesRemaining == nil || *tenant.ServicesRemaining != 25 {
		t.Fatalf("expected 5+20=25 services remaining, got %v", tenant.ServicesRemaining)
	}
	if tenant.AccountStatus != models.AccountStatusActive {
		t.Fatalf("trial tenant must become active after top-up, got %q", tenant.AccountStatus)
	}
}

func TestReconcileIsIdempotent(t *testing.T) {
	r, _, tenants, _, verifier := newTestReconciler(true)

	first, err := r.Reconcile(context.Background(), "mp-1001", 1, 3)
	if err != nil || first.Status != StatusApplied {
		t.Fatalf("first reconcile = (%+v, %v), want applied", first, err)
	}

	for i := 0; i < 3; i++ {
		again, err := r.Reconcile(context.Background(), "mp-1001", 1, 3)
		if err != nil {
			t.Fatalf("repeat reconcile: %v", err)
		}
		if again.Status != StatusAlreadyUsed {
			t.Fatalf("repeat reconcile status = %q, want %q", again.Status, StatusAlreadyUsed)
		}
	}

	tenant, _ := tenants.GetByID(1)
	if *tenant.ServicesRemaining != 25 {
		t.Fatalf("top-up applied more than once: remaining=%d", *tenant.ServicesRemaining)
	}
	if verifier.calls != 1 {
		t.Fatalf("duplicate confirmations must not re-verify, calls=%d", verifier.calls)
	}
}

func TestReconcileRejectsUnapprovedPayment(t *testing.T) {
	r, paymentsRepo, tenants, _, _ := newTestReconciler(false)

	result, err := r.Reconcile(context.Background(), "mp-2002", 1, 3)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Status != StatusRejected {
		t.Fatalf("status = %q, want %q", result.Status, StatusRejected)
	}
	if _, err := paymentsRepo.GetByExternalID("mp-2002"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("rejected payment must leave no record")
	}
	tenant, _ := tenants.GetByID(1)
	if *tenant.ServicesRemaining != 5 {
		t.Fatalf("rejected payment must not touch the ledger, remaining=%d", *tenant.ServicesRemaining)
	}
}

func TestReconcileRejectsOnGatewayFailure(t *testing.T) {
	r, _, _, _, verifier := newTestReconciler(true)
	verifier.err = errors.New("gateway timeout")

	result, err := r.Reconcile(context.Background(), "mp-3003", 1, 3)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Status != StatusRejected {
		t.Fatalf("gateway failure must reject, got %q", result.Status)
	}
}

func TestTransferApprovalAppliesOnce(t *testing.T) {
	r, _, tenants, _, verifier := newTestReconciler(true)

	req, err := r.SubmitTransfer(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("SubmitTransfer: %v", err)
	}
	if req.Status != models.TransferStatusPending || req.Reference == "" {
		t.Fatalf("unexpected transfer request: %+v", req)
	}

	result, err := r.ApproveTransfer(context.Background(), req.ID, 42)
	if err != nil {
		t.Fatalf("ApproveTransfer: %v", err)
	}
	if result.Status != StatusApplied {
		t.Fatalf("status = %q, want %q", result.Status, StatusApplied)
	}
	if verifier.calls != 0 {
		t.Fatalf("staff approval substitutes for gateway verification, calls=%d", verifier.calls)
	}
	if result.Payment.Source != models.PaymentSourceTransfer {
		t.Fatalf("payment source = %q, want transfer", result.Payment.Source)
	}

	tenant, _ := tenants.GetByID(1)
	if *tenant.ServicesRemaining != 25 {
		t.Fatalf("transfer top-up not applied, remaining=%d", *tenant.ServicesRemaining)
	}

	// A second approval attempt must not double-apply.
	if _, err := r.ApproveTransfer(context.Background(), req.ID, 43); !errors.Is(err, ErrTransferAlreadyReviewed) {
		t.Fatalf("expected ErrTransferAlreadyReviewed, got %v", err)
	}
	tenant, _ = tenants.GetByID(1)
	if *tenant.ServicesRemaining != 25 {
		t.Fatalf("transfer applied twice, remaining=%d", *tenant.ServicesRemaining)
	}
}

func TestRejectTransferHasNoLedgerEffect(t *testing.T) {
	r, _, tenants, _, _ := newTestReconciler(true)

	req, err := r.SubmitTransfer(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("SubmitTransfer: %v", err)
	}
	if err := r.RejectTransfer(context.Background(), req.ID, 42); err != nil {
		t.Fatalf("RejectTransfer: %v", err)
	}

	tenant, _ := tenants.GetByID(1)
	if *tenant.ServicesRemaining != 5 || tenant.AccountStatus != models.AccountStatusTrial {
		t.Fatalf("rejection must not touch the tenant, got %+v", tenant)
	}

	if err := r.RejectTransfer(context.Background(), req.ID, 42); !errors.Is(err, ErrTransferAlreadyReviewed) {
		t.Fatalf("expected ErrTransferAlreadyReviewed, got %v", err)
	}
}

func TestDegradedTopUpKeepsPayment(t *testing.T) {
	r, paymentsRepo, tenants, audits, _ := newTestReconciler(true)
	tenants.failTopUp = true

	result, err := r.Reconcile(context.Background(), "mp-9009", 1, 3)
	if err != nil {
		t.Fatalf("Reconcile: %v", err)
	}
	if result.Status != StatusApplied {
		t.Fatalf("payment row is durable, status = %q", result.Status)
	}
	if _, err := paymentsRepo.GetByExternalID("mp-9009"); err != nil {
		t.Fatalf("payment record missing after degraded top-up: %v", err)
	}
	if len(audits.entries) != 1 || audits.entries[0].Delta != 20 {
		t.Fatalf("expected one audit entry with delta +20, got %+v", audits.entries)
	}
}
