package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestCalendar(t *testing.T, holidays ...leave.Holiday) *leave.Calendar {
	mem := store.NewMemory()
	ctx := context.Background()
	for _, h := range holidays {
		require.NoError(t, mem.AddHoliday(ctx, h))
	}
	return leave.NewCalendar(mem, nil)
}

func holiday(country string, d leave.Date, name string) leave.Holiday {
	return leave.Holiday{
		ID:          "holiday-" + country + "-" + d.String(),
		CountryCode: country,
		Date:        d,
		Name:        name,
	}
}

// =============================================================================
// WORKING DAY CALCULATOR
// =============================================================================

func TestWorkingDays_FullWeek_ExcludesWeekend(t *testing.T) {
	// GIVEN: A full calendar week with no holidays
	// WHEN: Counting working days Monday through Sunday
	// THEN: Exactly 5 days count

	cal := newTestCalendar(t)
	ctx := context.Background()

	mon := leave.NewDate(2026, time.March, 2)
	sun := leave.NewDate(2026, time.March, 8)

	days, err := leave.WorkingDays(ctx, cal, mon, sun, "IN")
	require.NoError(t, err)
	assert.Equal(t, 5, days)
}

func TestWorkingDays_HolidayInRange_Excluded(t *testing.T) {
	// GIVEN: A holiday on Wednesday March 4
	// WHEN: Counting Monday through Friday
	// THEN: 4 days count, not 5

	wed := leave.NewDate(2026, time.March, 4)
	cal := newTestCalendar(t, holiday("IN", wed, "Holi"))
	ctx := context.Background()

	days, err := leave.WorkingDays(ctx, cal,
		leave.NewDate(2026, time.March, 2), leave.NewDate(2026, time.March, 6), "IN")
	require.NoError(t, err)
	assert.Equal(t, 4, days)
}

func TestWorkingDays_HolidayOtherCountry_NotExcluded(t *testing.T) {
	// GIVEN: A holiday registered for US only
	// WHEN: Counting working days for IN over the same range
	// THEN: The US holiday does not reduce the count

	wed := leave.NewDate(2026, time.March, 4)
	cal := newTestCalendar(t, holiday("US", wed, "Some US Holiday"))
	ctx := context.Background()

	days, err := leave.WorkingDays(ctx, cal,
		leave.NewDate(2026, time.March, 2), leave.NewDate(2026, time.March, 6), "IN")
	require.NoError(t, err)
	assert.Equal(t, 5, days)
}

func TestWorkingDays_UnknownCountry_DegradesToWeekendsOnly(t *testing.T) {
	// GIVEN: No holidays configured for country "ZZ"
	// WHEN: Counting a Monday-Friday range
	// THEN: No error; all weekdays count

	cal := newTestCalendar(t)
	ctx := context.Background()

	days, err := leave.WorkingDays(ctx, cal,
		leave.NewDate(2026, time.March, 2), leave.NewDate(2026, time.March, 6), "ZZ")
	require.NoError(t, err)
	assert.Equal(t, 5, days)
}

func TestWorkingDays_WeekendOnlyRange_ReturnsZero(t *testing.T) {
	// GIVEN: A Saturday-Sunday range
	// WHEN: Counting working days
	// THEN: Zero, with no error

	cal := newTestCalendar(t)
	ctx := context.Background()

	days, err := leave.WorkingDays(ctx, cal,
		leave.NewDate(2026, time.March, 7), leave.NewDate(2026, time.March, 8), "IN")
	require.NoError(t, err)
	assert.Equal(t, 0, days)
}

func TestWorkingDays_SingleDay_CountsOne(t *testing.T) {
	cal := newTestCalendar(t)
	ctx := context.Background()

	mon := leave.NewDate(2026, time.March, 2)
	days, err := leave.WorkingDays(ctx, cal, mon, mon, "IN")
	require.NoError(t, err)
	assert.Equal(t, 1, days)
}

func TestWorkingDays_StartAfterEnd_Invalid(t *testing.T) {
	cal := newTestCalendar(t)
	ctx := context.Background()

	_, err := leave.WorkingDays(ctx, cal,
		leave.NewDate(2026, time.March, 6), leave.NewDate(2026, time.March, 2), "IN")
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestWorkingDays_ZeroDates_Invalid(t *testing.T) {
	cal := newTestCalendar(t)
	ctx := context.Background()

	_, err := leave.WorkingDays(ctx, cal, leave.Date{}, leave.NewDate(2026, time.March, 2), "IN")
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

// =============================================================================
// CALENDAR RESOLVER
// =============================================================================

func TestCalendar_CustomWeekend(t *testing.T) {
	// GIVEN: A calendar configured with Friday-Saturday weekends
	// WHEN: Checking Friday and Sunday
	// THEN: Friday is off, Sunday is a working day

	mem := store.NewMemory()
	cal := leave.NewCalendar(mem, []time.Weekday{time.Friday, time.Saturday})
	ctx := context.Background()

	fri := leave.NewDate(2026, time.March, 6)
	off, err := cal.IsNonWorkingDay(ctx, fri, "AE")
	require.NoError(t, err)
	assert.True(t, off)

	sun := leave.NewDate(2026, time.March, 8)
	off, err = cal.IsNonWorkingDay(ctx, sun, "AE")
	require.NoError(t, err)
	assert.False(t, off)
}

func TestCalendar_Invalidate_PicksUpNewHolidays(t *testing.T) {
	// GIVEN: A calendar that has already cached a country's year
	// WHEN: A holiday is added and the cache invalidated
	// THEN: The new holiday is visible

	mem := store.NewMemory()
	cal := leave.NewCalendar(mem, nil)
	ctx := context.Background()

	wed := leave.NewDate(2026, time.March, 4)
	off, err := cal.IsNonWorkingDay(ctx, wed, "IN")
	require.NoError(t, err)
	assert.False(t, off, "no holidays yet")

	require.NoError(t, mem.AddHoliday(ctx, holiday("IN", wed, "Holi")))

	// Cache still holds the old answer until invalidated.
	off, err = cal.IsNonWorkingDay(ctx, wed, "IN")
	require.NoError(t, err)
	assert.False(t, off, "cached lookup should not see the new holiday")

	cal.Invalidate()
	off, err = cal.IsNonWorkingDay(ctx, wed, "IN")
	require.NoError(t, err)
	assert.True(t, off, "invalidated cache should reload")
}
