package slot

import "time"

// AvailabilityEntry is one (weekday, slot) pair of a doctor's weekly schedule.
// A schedule may carry duplicate pairs; membership checks are idempotent so
// duplicates are harmless.
type AvailabilityEntry struct {
	Day      string
	TimeSlot string
}

// Weekdays is the canonical English weekday name set used by schedules.
var Weekdays = []string{
	"Sunday",
	"Monday",
	"Tuesday",
	"Wednesday",
	"Thursday",
	"Friday",
	"Saturday",
}

// IsValidWeekday reports whether day is one of the seven canonical names.
func IsValidWeekday(day string) bool {
	for _, d := range Weekdays {
		if d == day {
			return true
		}
	}
	return false
}

// WeekdayName derives the English weekday name for a calendar date.
// time.Weekday.String is locale-independent, matching the schedule's
// canonical label set.
func WeekdayName(date time.Time) string {
	return date.Weekday().String()
}

// IsAvailable reports whether the schedule admits the given slot label on the
// weekday derived from date. A weekday with no entries means the doctor is
// unavailable that day, not an error.
func IsAvailable(schedule []AvailabilityEntry, date time.Time, label string) bool {
	day := WeekdayName(date)
	for _, entry := range schedule {
		if entry.Day == day && entry.TimeSlot == label {
			return true
		}
	}
	return false
}
