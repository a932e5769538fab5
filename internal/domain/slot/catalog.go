package slot

// Catalog is the fixed set of bookable half-hour slots. Two shifts:
// 09:00-13:00 and 14:00-20:00. The catalog is static configuration and
// is never mutated at runtime.
var Catalog = []string{
	"09:00-09:30",
	"09:30-10:00",
	"10:00-10:30",
	"10:30-11:00",
	"11:00-11:30",
	"11:30-12:00",
	"12:00-12:30",
	"12:30-13:00",
	"14:00-14:30",
	"14:30-15:00",
	"15:00-15:30",
	"15:30-16:00",
	"16:00-16:30",
	"16:30-17:00",
	"17:00-17:30",
	"17:30-18:00",
	"18:00-18:30",
	"18:30-19:00",
	"19:00-19:30",
	"19:30-20:00",
}

// IsValid reports whether label is a member of the slot catalog.
func IsValid(label string) bool {
	for _, s := range Catalog {
		if s == label {
			return true
		}
	}
	return false
}

// ConflictingLabels returns the catalog labels whose interval overlaps the
// given label's interval, including the label itself. With the current
// catalog of pairwise non-overlapping slots this is always a single-element
// slice, but the capacity rule is defined per distinct overlapping interval,
// so callers go through this instead of assuming label equality.
func ConflictingLabels(label string) ([]string, error) {
	iv, err := ParseLabel(label)
	if err != nil {
		return nil, err
	}

	var conflicts []string
	for _, s := range Catalog {
		other, err := ParseLabel(s)
		if err != nil {
			return nil, err
		}
		if Overlaps(iv, other) {
			conflicts = append(conflicts, s)
		}
	}
	return conflicts, nil
}
