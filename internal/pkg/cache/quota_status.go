package cache

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/lubritrack/lubritrack/internal/pkg/quota"
)

// quotaStatusTTL keeps dashboard polling off the database without letting a
// stale allowance survive long after a completion or top-up.
const quotaStatusTTL = 30 * time.Second

func quotaStatusKey(tenantID uint) string {
	return fmt.Sprintf("quota:status:%d", tenantID)
}

// GetQuotaStatus returns the cached availability for a tenant, if present.
func GetQuotaStatus(tenantID uint) (*quota.Availability, bool) {
	raw, err := Get(quotaStatusKey(tenantID))
	if err != nil {
		return nil, false
	}
	var avail quota.Availability
	if err := json.Unmarshal([]byte(raw), &avail); err != nil {
		return nil, false
	}
	return &avail, true
}

// SetQuotaStatus caches a tenant's availability for a short period.
func SetQuotaStatus(tenantID uint, avail quota.Availability) {
	raw, err := json.Marshal(avail)
	if err != nil {
		return
	}
	_ = Set(quotaStatusKey(tenantID), string(raw), quotaStatusTTL)
}

// InvalidateQuotaStatus drops the cached availability after any ledger change.
func InvalidateQuotaStatus(tenantID uint) {
	_ = Delete(quotaStatusKey(tenantID))
}
