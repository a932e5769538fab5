package slot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrInvalidLabel = errors.New("invalid time slot label, use HH:MM-HH:MM")

// Interval is a half-open time-of-day range in minutes from midnight.
type Interval struct {
	Start int
	End   int
}

// ParseLabel decomposes a "HH:MM-HH:MM" slot label into its interval.
func ParseLabel(label string) (Interval, error) {
	parts := strings.Split(label, "-")
	if len(parts) != 2 {
		return Interval{}, ErrInvalidLabel
	}

	start, err := parseClock(parts[0])
	if err != nil {
		return Interval{}, err
	}
	end, err := parseClock(parts[1])
	if err != nil {
		return Interval{}, err
	}
	if start >= end {
		return Interval{}, ErrInvalidLabel
	}

	return Interval{Start: start, End: end}, nil
}

func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return 0, ErrInvalidLabel
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, ErrInvalidLabel
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, ErrInvalidLabel
	}
	return hour*60 + minute, nil
}

// Overlaps reports whether two intervals share any time. Adjacent intervals
// (a.End == b.Start) do not overlap.
func Overlaps(a, b Interval) bool {
	return a.Start < b.End && b.Start < a.End
}

// String formats the interval back into its HH:MM-HH:MM label form.
func (iv Interval) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", iv.Start/60, iv.Start%60, iv.End/60, iv.End%60)
}
