package transaction

import "time"

// NextRecurringDate returns the date of the next occurrence. Monthly and yearly steps clamp to the
// last day of the target month, so Jan 31 is followed by the end of February.
func NextRecurringDate(date time.Time, interval RecurringInterval) time.Time {
	switch interval {
	case Daily:
		return date.AddDate(0, 0, 1)
	case Weekly:
		return date.AddDate(0, 0, 7)
	case Monthly:
		return addMonthsClamped(date, 1)
	case Yearly:
		return addMonthsClamped(date, 12)
	}
	return date
}

func addMonthsClamped(date time.Time, months int) time.Time {
	year, month, day := date.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, date.Location())
	lastDay := firstOfTarget.AddDate(0, 1, -1).Day()
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day,
		date.Hour(), date.Minute(), date.Second(), date.Nanosecond(), date.Location())
}
