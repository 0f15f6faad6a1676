/*
calendar.go - Holiday calendar resolver

PURPOSE:
  Answers one question: is a given date a non-working day for a country?
  A date is non-working if it falls on a configured weekend day or matches
  a holiday entry for the country.

DEGRADATION:
  An unknown country code is NOT an error. The resolver degrades to
  "weekends only" so employees in unconfigured countries can still use
  the system.

CACHING:
  Holiday lookups hit the store once per (country, year) and are cached
  behind a RWMutex. Invalidate() clears the cache after holiday writes.

SEE ALSO:
  - workdays.go: Counts working days using this resolver
  - store/sqlite: Holiday persistence
*/
package leave

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// =============================================================================
// CALENDAR - Weekend config + country holiday lookup
// =============================================================================

// HolidaySource loads holiday entries for a country and year.
// Implemented by the stores.
type HolidaySource interface {
	HolidaysForYear(ctx context.Context, countryCode string, year int) ([]Holiday, error)
}

// Calendar resolves non-working days from a weekend configuration and a
// holiday source.
type Calendar struct {
	source  HolidaySource
	weekend map[time.Weekday]bool

	mu    sync.RWMutex
	cache map[string]map[string]bool // country:year -> date string -> true
}

// NewCalendar creates a resolver with the given weekend days.
// A nil or empty weekend set defaults to Saturday and Sunday.
func NewCalendar(source HolidaySource, weekendDays []time.Weekday) *Calendar {
	weekend := make(map[time.Weekday]bool)
	if len(weekendDays) == 0 {
		weekendDays = []time.Weekday{time.Saturday, time.Sunday}
	}
	for _, d := range weekendDays {
		weekend[d] = true
	}
	return &Calendar{
		source:  source,
		weekend: weekend,
		cache:   make(map[string]map[string]bool),
	}
}

// IsNonWorkingDay reports whether date is a weekend day or a holiday for
// countryCode. A country with no configured holidays degrades to
// weekends only.
func (c *Calendar) IsNonWorkingDay(ctx context.Context, date Date, countryCode string) (bool, error) {
	if c.weekend[date.Weekday()] {
		return true, nil
	}
	holidays, err := c.holidaysFor(ctx, countryCode, date.Year())
	if err != nil {
		return false, err
	}
	return holidays[date.String()], nil
}

// Invalidate drops the holiday cache. Call after holiday writes.
func (c *Calendar) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache = make(map[string]map[string]bool)
}

func (c *Calendar) holidaysFor(ctx context.Context, countryCode string, year int) (map[string]bool, error) {
	key := fmt.Sprintf("%s:%d", countryCode, year)

	c.mu.RLock()
	cached, ok := c.cache[key]
	c.mu.RUnlock()
	if ok {
		return cached, nil
	}

	entries, err := c.source.HolidaysForYear(ctx, countryCode, year)
	if err != nil {
		return nil, fmt.Errorf("failed to load holidays for %s: %w", countryCode, err)
	}

	byDate := make(map[string]bool, len(entries))
	for _, h := range entries {
		byDate[h.Date.String()] = true
	}

	c.mu.Lock()
	c.cache[key] = byDate
	c.mu.Unlock()

	return byDate, nil
}
