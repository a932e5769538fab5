package slot

import (
	"sort"
	"sync"
	"testing"
	"time"
)

func TestCatalogHas20NonOverlappingSlots(t *testing.T) {
	if len(Catalog) != 20 {
		t.Fatalf("expected 20 catalog slots, got %d", len(Catalog))
	}

	intervals := make([]Interval, len(Catalog))
	for i, label := range Catalog {
		iv, err := ParseLabel(label)
		if err != nil {
			t.Fatalf("catalog label %q failed to parse: %v", label, err)
		}
		intervals[i] = iv
	}

	for i := range intervals {
		for j := range intervals {
			if i != j && Overlaps(intervals[i], intervals[j]) {
				t.Errorf("catalog slots %q and %q overlap", Catalog[i], Catalog[j])
			}
		}
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		label string
		want  bool
	}{
		{"09:00-09:30", true},
		{"19:30-20:00", true},
		{"12:30-13:00", true},
		{"13:00-13:30", false},
		{"99:00-99:30", false},
		{"09:00", false},
		{"", false},
	}

	for _, tt := range tests {
		if got := IsValid(tt.label); got != tt.want {
			t.Errorf("IsValid(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestParseLabel(t *testing.T) {
	iv, err := ParseLabel("14:00-14:30")
	if err != nil {
		t.Fatalf("ParseLabel failed: %v", err)
	}
	if iv.Start != 14*60 || iv.End != 14*60+30 {
		t.Errorf("expected interval 840-870, got %d-%d", iv.Start, iv.End)
	}
	if iv.String() != "14:00-14:30" {
		t.Errorf("expected round-trip label, got %q", iv.String())
	}

	invalid := []string{"", "09:00", "09:00-08:00", "09:00-09:00", "25:00-26:00", "09:0a-10:00"}
	for _, label := range invalid {
		if _, err := ParseLabel(label); err == nil {
			t.Errorf("ParseLabel(%q) should fail", label)
		}
	}
}

func TestOverlapsSymmetry(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"09:00-09:30", "09:00-09:30", true},
		{"09:00-09:30", "09:30-10:00", false},
		{"09:00-10:00", "09:30-10:30", true},
		{"09:00-13:00", "10:00-10:30", true},
		{"12:30-13:00", "14:00-14:30", false},
	}

	for _, tt := range tests {
		a, err := ParseLabel(tt.a)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.a, err)
		}
		b, err := ParseLabel(tt.b)
		if err != nil {
			t.Fatalf("parse %q: %v", tt.b, err)
		}
		if got := Overlaps(a, b); got != tt.want {
			t.Errorf("Overlaps(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
		if Overlaps(a, b) != Overlaps(b, a) {
			t.Errorf("Overlaps(%q, %q) is not symmetric", tt.a, tt.b)
		}
	}
}

func TestConflictingLabels(t *testing.T) {
	conflicts, err := ConflictingLabels("10:00-10:30")
	if err != nil {
		t.Fatalf("ConflictingLabels failed: %v", err)
	}
	if len(conflicts) != 1 || conflicts[0] != "10:00-10:30" {
		t.Errorf("expected only the slot itself to conflict, got %v", conflicts)
	}

	if _, err := ConflictingLabels("not-a-slot"); err == nil {
		t.Error("ConflictingLabels should fail for malformed label")
	}
}

func TestIsAvailable(t *testing.T) {
	schedule := []AvailabilityEntry{
		{Day: "Monday", TimeSlot: "09:00-09:30"},
		{Day: "Monday", TimeSlot: "10:00-10:30"},
		{Day: "Wednesday", TimeSlot: "14:00-14:30"},
		// Duplicate entry: must stay harmless.
		{Day: "Monday", TimeSlot: "09:00-09:30"},
	}

	monday := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	tuesday := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	wednesday := time.Date(2025, 3, 12, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		date  time.Time
		label string
		want  bool
	}{
		{"scheduled day and slot", monday, "09:00-09:30", true},
		{"duplicate entry still matches", monday, "09:00-09:30", true},
		{"scheduled day, other slot", monday, "14:00-14:30", false},
		{"day absent from schedule", tuesday, "09:00-09:30", false},
		{"second scheduled day", wednesday, "14:00-14:30", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAvailable(schedule, tt.date, tt.label); got != tt.want {
				t.Errorf("IsAvailable(%s, %q) = %v, want %v", tt.date.Format("2006-01-02"), tt.label, got, tt.want)
			}
		})
	}

	if IsAvailable(nil, monday, "09:00-09:30") {
		t.Error("empty schedule should never be available")
	}
}

func TestWeekdayName(t *testing.T) {
	// 2025-03-10 is a Monday.
	if got := WeekdayName(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)); got != "Monday" {
		t.Errorf("WeekdayName = %q, want Monday", got)
	}
	if got := WeekdayName(time.Date(2025, 3, 16, 0, 0, 0, 0, time.UTC)); got != "Sunday" {
		t.Errorf("WeekdayName = %q, want Sunday", got)
	}
}

func TestAllocate(t *testing.T) {
	tests := []struct {
		existing int
		capacity int
		want     int
		wantErr  bool
	}{
		{0, 5, 1, false},
		{4, 5, 5, false},
		{5, 5, 0, true},
		{2, 2, 0, true},
		{1, 2, 2, false},
	}

	for _, tt := range tests {
		token, err := Allocate(tt.existing, tt.capacity)
		if tt.wantErr {
			if err != ErrSlotFull {
				t.Errorf("Allocate(%d, %d) error = %v, want ErrSlotFull", tt.existing, tt.capacity, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("Allocate(%d, %d) failed: %v", tt.existing, tt.capacity, err)
			continue
		}
		if token != tt.want {
			t.Errorf("Allocate(%d, %d) = %d, want %d", tt.existing, tt.capacity, token, tt.want)
		}
	}
}

func TestAllocateTokensAreMonotonic(t *testing.T) {
	capacity := 5
	count := 0
	for i := 1; i <= capacity; i++ {
		token, err := Allocate(count, capacity)
		if err != nil {
			t.Fatalf("allocation %d failed: %v", i, err)
		}
		if token != i {
			t.Errorf("allocation %d got token %d", i, token)
		}
		count++
	}
	if _, err := Allocate(count, capacity); err != ErrSlotFull {
		t.Errorf("allocation past capacity error = %v, want ErrSlotFull", err)
	}
}

func TestAllocateUnderContention(t *testing.T) {
	const capacity = 5
	const attempts = 50

	var mu sync.Mutex
	count := 0

	var admitted []int
	var rejected int

	var wg sync.WaitGroup
	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()

			mu.Lock()
			defer mu.Unlock()
			token, err := Allocate(count, capacity)
			if err != nil {
				rejected++
				return
			}
			count++
			admitted = append(admitted, token)
		}()
	}
	wg.Wait()

	if len(admitted) != capacity {
		t.Fatalf("admitted %d bookings, want %d", len(admitted), capacity)
	}
	if rejected != attempts-capacity {
		t.Errorf("rejected %d bookings, want %d", rejected, attempts-capacity)
	}

	sort.Ints(admitted)
	for i, token := range admitted {
		if token != i+1 {
			t.Errorf("admitted tokens = %v, want 1..%d with no gaps or repeats", admitted, capacity)
			break
		}
	}
}
