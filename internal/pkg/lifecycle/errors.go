package lifecycle

import (
	"errors"
	"fmt"

	"github.com/lubritrack/lubritrack/internal/pkg/quota"
)

// ErrInvalidStateTransition is returned when a transition is attempted from a
// state that does not allow it. The caller must re-fetch the record; retrying
// without doing so cannot succeed.
var ErrInvalidStateTransition = errors.New("invalid state transition")

// ErrTenantInactive is returned when a disabled account attempts a
// quota-consuming action. Recoverable through payment reconciliation.
var ErrTenantInactive = errors.New("tenant account is inactive")

// QuotaError is returned when the availability check denies recording one
// more service. It carries the remaining count and denial reason so the
// calling layer can direct the tenant toward a renewal action.
type QuotaError struct {
	Availability quota.Availability
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("quota exceeded: %s (remaining=%d)", e.Availability.Reason, e.Availability.Remaining)
}

// AsQuotaError unwraps err into a QuotaError if it is one.
func AsQuotaError(err error) (*QuotaError, bool) {
	var qe *QuotaError
	if errors.As(err, &qe) {
		return qe, true
	}
	return nil, false
}
