// Package recurrence computes the next notification time for recurring
// calendar events.
package recurrence

import (
	"time"

	"homeboard/internal/models"
)

// NextTrigger advances anchor by exactly one period and subtracts the lead
// offset. It returns false when the recurrence is not a repeating one, or when
// the candidate already lies before now — the caller finalizes the item in
// that case instead of re-arming it. There is no catching up: a schedule that
// fell more than one period behind retires rather than skipping forward.
//
// Monthly arithmetic uses native calendar normalization: Jan 31 + 1 month
// lands in early March, same as the platform Date semantics the stored data
// was written against.
func NextTrigger(anchor time.Time, freq models.Recurrence, lead models.LeadTime, now time.Time) (time.Time, bool) {
	var next time.Time
	switch freq {
	case models.RecurDaily:
		next = anchor.AddDate(0, 0, 1)
	case models.RecurWeekly:
		next = anchor.AddDate(0, 0, 7)
	case models.RecurMonthly:
		next = anchor.AddDate(0, 1, 0)
	default:
		return time.Time{}, false
	}

	candidate := next.Add(-lead.Offset())
	if candidate.Before(now) {
		return time.Time{}, false
	}
	return candidate, true
}
