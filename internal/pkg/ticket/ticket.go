// Package ticket implements the tenant-scoped ticket numbering scheme used on
// service receipts: "<PREFIX>-00001", zero-padded, strictly increasing per
// tenant. Allocation itself happens inside a tenant-locked transaction in the
// service repository; this package holds the pure numbering logic.
package ticket

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SuffixDigits is the zero-padded width of sequential ticket suffixes.
const SuffixDigits = 5

// FallbackFloor separates sequential suffixes from time-derived fallback
// suffixes. Sequential allocation never reaches it (the scan ignores anything
// at or above it), so a fallback ticket can never collide with or derail the
// sequence.
const FallbackFloor = 100000

// Format renders a ticket number for a prefix and numeric suffix.
func Format(prefix string, n int) string {
	if n >= FallbackFloor {
		return fmt.Sprintf("%s-%d", prefix, n)
	}
	return fmt.Sprintf("%s-%0*d", prefix, SuffixDigits, n)
}

// ParseSuffix extracts the numeric suffix from a ticket number belonging to
// the given prefix. It returns false for tickets of other prefixes or with a
// malformed suffix.
func ParseSuffix(ticketNumber, prefix string) (int, bool) {
	rest, ok := strings.CutPrefix(ticketNumber, prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Next computes the next ticket number from the existing ticket numbers of a
// tenant. Malformed tickets never derail the sequence: as long as one parsable
// sequential suffix exists, allocation keeps advancing from the highest one.
// The second result reports degraded mode, reached only when tickets carry the
// prefix but none yields a usable sequence position; the result is then a
// time-derived fallback. Callers must log degraded allocations, not swallow
// them.
func Next(existing []string, prefix string, now time.Time) (string, bool) {
	maxSeq := 0
	maxFallback := 0
	malformed := false
	for _, tn := range existing {
		if !strings.HasPrefix(tn, prefix+"-") {
			continue
		}
		n, ok := ParseSuffix(tn, prefix)
		if !ok {
			malformed = true
			continue
		}
		if n >= FallbackFloor {
			// Fallback ticket from an earlier degraded allocation; it lives in
			// a disjoint range and does not advance the sequence.
			if n > maxFallback {
				maxFallback = n
			}
			continue
		}
		if n > maxSeq {
			maxSeq = n
		}
	}
	if maxSeq > 0 || !malformed {
		return Format(prefix, maxSeq+1), false
	}
	fb := fallbackSuffix(now)
	if fb <= maxFallback {
		// Never reissue a fallback suffix, even within the same millisecond.
		fb = maxFallback + 1
	}
	return Format(prefix, fb), true
}

// fallbackSuffix derives a suffix from the current time. Millisecond
// resolution keeps two allocations in the same instant apart in practice;
// Next additionally bumps past any earlier fallback ticket.
func fallbackSuffix(now time.Time) int {
	secOfDay := now.Hour()*3600 + now.Minute()*60 + now.Second()
	return FallbackFloor + secOfDay*1000 + now.Nanosecond()/1000000
}
