/*
workdays.go - Working-day calculator

PURPOSE:
  Counts business days in an inclusive date range using the holiday
  calendar resolver. This is the single source of truth for
  Request.NumberOfDays.

EDGE CASES:
  - start > end is ErrInvalidDateRange
  - A range of only weekends/holidays legitimately returns 0; the caller
    (service.Apply) turns that into ErrNoWorkingDays

SEE ALSO:
  - calendar.go: The resolver this iterates with
  - service.go: The only production caller
*/
package leave

import "context"

// WorkingDays counts the working days in the inclusive range [start, end]
// for the given country. Returns ErrInvalidDateRange when the range is
// malformed. A result of 0 is valid and means the range contains no
// working days.
func WorkingDays(ctx context.Context, cal *Calendar, start, end Date, countryCode string) (int, error) {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return 0, ErrInvalidDateRange
	}

	count := 0
	for d := start; d.BeforeOrEqual(end); d = d.AddDays(1) {
		off, err := cal.IsNonWorkingDay(ctx, d, countryCode)
		if err != nil {
			return 0, err
		}
		if !off {
			count++
		}
	}
	return count, nil
}
