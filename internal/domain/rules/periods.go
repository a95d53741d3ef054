package rules

import "time"

const keyLayout = "2006-01-02"

// DayKey is the UTC calendar day of now.
func DayKey(now time.Time) string {
	return now.UTC().Format(keyLayout)
}

// WeekKey is the UTC date of the Monday that starts the ISO week of now.
func WeekKey(now time.Time) string {
	return weekStart(now).Format(keyLayout)
}

func NextDayReset(now time.Time) time.Time {
	utc := now.UTC()
	return time.Date(utc.Year(), utc.Month(), utc.Day()+1, 0, 0, 0, 0, time.UTC)
}

func NextWeekReset(now time.Time) time.Time {
	return weekStart(now).AddDate(0, 0, 7)
}

func weekStart(now time.Time) time.Time {
	utc := now.UTC()
	offset := (int(utc.Weekday()) + 6) % 7
	return time.Date(utc.Year(), utc.Month(), utc.Day()-offset, 0, 0, 0, 0, time.UTC)
}
