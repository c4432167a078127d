package scheduler

import "time"

// NextServiceDate computes the day the follow-up visit should land on:
// months after the close date, day-of-month clamped to the target month's
// length (Jan 31 plus one month is Feb 28, or Feb 29 in a leap year).
// Targets already behind today are moved up to today, since the booking
// system rejects past dates.
func NextServiceDate(closeDate time.Time, months int, today time.Time) time.Time {
	target := addMonthsClamped(closeDate, months)
	today = midnight(today)
	if target.Before(today) {
		return today
	}
	return target
}

func addMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	firstOfTarget := time.Date(y, m, 1, 0, 0, 0, 0, t.Location()).AddDate(0, months, 0)
	if last := daysInMonth(firstOfTarget); d > last {
		d = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), d, 0, 0, 0, 0, t.Location())
}

func daysInMonth(firstOfMonth time.Time) int {
	return firstOfMonth.AddDate(0, 1, -1).Day()
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
