package service

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func newTestReservationService() *SlotReservationService {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return NewSlotReservationService(nil, nil, log, 5)
}

func TestBucketKeys(t *testing.T) {
	svc := newTestReservationService()
	defer svc.Stop()

	doctorID := uuid.MustParse("f47ac10b-58cc-4372-a567-0e02b2c3d479")
	bucket := Bucket{
		DoctorID: doctorID,
		Date:     time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		TimeSlot: "09:00-09:30",
	}

	bookedKey, tokenKey := svc.bucketKeys(bucket)

	wantBooked := "slot:booked:f47ac10b-58cc-4372-a567-0e02b2c3d479:2025-03-10:09:00-09:30"
	wantToken := "slot:token:f47ac10b-58cc-4372-a567-0e02b2c3d479:2025-03-10:09:00-09:30"
	if bookedKey != wantBooked {
		t.Errorf("booked key = %q, want %q", bookedKey, wantBooked)
	}
	if tokenKey != wantToken {
		t.Errorf("token key = %q, want %q", tokenKey, wantToken)
	}
}

func TestBucketKeysDistinctPerBucket(t *testing.T) {
	svc := newTestReservationService()
	defer svc.Stop()

	date := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	a, _ := svc.bucketKeys(Bucket{DoctorID: uuid.New(), Date: date, TimeSlot: "09:00-09:30"})
	b, _ := svc.bucketKeys(Bucket{DoctorID: uuid.New(), Date: date, TimeSlot: "09:00-09:30"})
	if a == b {
		t.Error("different doctors must map to different bucket keys")
	}
}

func TestCalculateTTL(t *testing.T) {
	svc := newTestReservationService()
	defer svc.Stop()

	future := time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 7)
	ttl := svc.calculateTTL(future)
	if ttl < 7*24*time.Hour || ttl > 8*24*time.Hour {
		t.Errorf("future TTL = %v, want between 7 and 8 days", ttl)
	}

	past := time.Now().UTC().AddDate(0, 0, -3)
	if got := svc.calculateTTL(past); got != time.Minute {
		t.Errorf("past-date TTL = %v, want 1m", got)
	}
}

func TestStaleMutexCleanup(t *testing.T) {
	svc := newTestReservationService()
	defer svc.Stop()

	bucket := Bucket{DoctorID: uuid.New(), Date: time.Now(), TimeSlot: "09:00-09:30"}
	mt := svc.getBucketMutex(bucket)

	// Age the mutex past the stale threshold, then sweep.
	mt.lastUsed.Store(time.Now().Add(-2 * mutexStaleThreshold).Unix())
	svc.cleanupStaleMutexes()

	count := 0
	svc.bucketMu.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != 0 {
		t.Errorf("expected stale mutex to be cleaned up, %d remain", count)
	}
}

func TestHeldMutexSurvivesCleanup(t *testing.T) {
	svc := newTestReservationService()
	defer svc.Stop()

	bucket := Bucket{DoctorID: uuid.New(), Date: time.Now(), TimeSlot: "09:00-09:30"}
	mt := svc.getBucketMutex(bucket)
	mt.lastUsed.Store(time.Now().Add(-2 * mutexStaleThreshold).Unix())

	mt.mu.Lock()
	svc.cleanupStaleMutexes()
	mt.mu.Unlock()

	count := 0
	svc.bucketMu.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count != 1 {
		t.Errorf("held mutex must survive cleanup, found %d entries", count)
	}
}
