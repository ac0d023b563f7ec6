package antenatal

import (
	"fmt"
	"time"
)

// gestationDays is the standard pregnancy term counted from the last
// menstrual period.
const gestationDays = 280

// ExpectedDueDate returns LMP + 280 days using calendar arithmetic.
func ExpectedDueDate(lmp time.Time) (time.Time, error) {
	if lmp.IsZero() {
		return time.Time{}, fmt.Errorf("last menstrual period is required")
	}
	return lmp.AddDate(0, 0, gestationDays), nil
}

// GestationalAge returns the completed gestational weeks at now, derived
// from the due date: floor((280 - days_until_due) / 7). Past the due date
// the result exceeds 40.
func GestationalAge(edd, now time.Time) (int, error) {
	if edd.IsZero() {
		return 0, fmt.Errorf("due date is required")
	}
	if now.IsZero() {
		return 0, fmt.Errorf("reference time is required")
	}

	daysUntilDue := daysBetween(now, edd)
	elapsed := gestationDays - daysUntilDue
	if elapsed < 0 {
		return 0, fmt.Errorf("due date %s is more than %d days away", edd.Format("2006-01-02"), gestationDays)
	}
	return elapsed / 7, nil
}

// daysBetween counts whole calendar days from a to b, ignoring time of day.
func daysBetween(a, b time.Time) int {
	ad := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	bd := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(bd.Sub(ad).Hours() / 24)
}
