package slot

import "errors"

// ErrSlotFull is returned when a bucket already holds capacity bookings.
var ErrSlotFull = errors.New("time slot is full")

// Allocate decides whether a new booking may join a bucket that currently
// holds existing bookings, and assigns its 1-based token number. Callers must
// evaluate this against a count taken atomically with the insert; the Redis
// reservation script in internal/service enforces the same rule in a single
// atomic step.
func Allocate(existing, capacity int) (int, error) {
	if existing >= capacity {
		return 0, ErrSlotFull
	}
	return existing + 1, nil
}
