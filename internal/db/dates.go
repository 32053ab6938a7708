package db

import "time"

// ISODate is the calendar-day layout used for aggregate keys and query
// parameters.
const ISODate = "2006-01-02"

// ParseISODate validates a YYYY-MM-DD string. Malformed input is a
// ValidationError.
func ParseISODate(s string) (time.Time, error) {
	t, err := time.Parse(ISODate, s)
	if err != nil {
		return time.Time{}, validationErrorf("invalid date %q, want YYYY-MM-DD", s)
	}
	return t, nil
}

// parseDateRange validates an inclusive [start, end] day range.
func parseDateRange(startDate, endDate string) (time.Time, time.Time, error) {
	start, err := ParseISODate(startDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end, err := ParseISODate(endDate)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, validationErrorf("start_date %s is after end_date %s", startDate, endDate)
	}
	return start, end, nil
}

// dayStart and dayEnd bound a calendar day inclusively on both ends,
// matching the aggregation window [00:00:00, 23:59:59]. Days are taken in
// server-local time, the same clock that stamps incoming points.
func dayStart(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local)
}

func dayEnd(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 0, time.Local)
}

// Yesterday returns the calendar day before now, the default aggregation
// target: the scheduled run processes each day one day in arrears.
func Yesterday(now time.Time) string {
	return now.AddDate(0, 0, -1).Format(ISODate)
}
