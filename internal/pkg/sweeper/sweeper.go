// Package sweeper runs the periodic trial-expiry pass. Expired trials are
// flipped to inactive so the quota check denies them even if no request
// touched the tenant since the trial window closed.
package sweeper

import (
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"github.com/lubritrack/lubritrack/app/repository"
)

// StartTrialSweeper deactivates expired trial tenants on a fixed interval.
// One pass runs immediately so restarts do not delay expiry by a full tick.
func StartTrialSweeper(tenants repository.TenantRepository, interval time.Duration) {
	go func() {
		sweep(tenants)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for range ticker.C {
			sweep(tenants)
		}
	}()
}

func sweep(tenants repository.TenantRepository) {
	n, err := tenants.DeactivateExpiredTrials(time.Now())
	if err != nil {
		fiberlog.Errorf("trial expiry sweep failed: %v", err)
		return
	}
	if n > 0 {
		fiberlog.Infof("trial expiry sweep deactivated %d tenant(s)", n)
	}
}
