package service

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"hospital-management-backend/internal/domain/entity"
	"hospital-management-backend/internal/domain/slot"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Bucket identifies the unit of capacity enforcement: one doctor, one
// calendar date, one catalog slot.
type Bucket struct {
	DoctorID uuid.UUID
	Date     time.Time
	TimeSlot string
}

// SlotReserver is the atomicity contract required by the booking path: the
// count check, the admit decision and the token assignment happen as one
// serialized step per bucket. The booking usecase compensates with Release
// when the subsequent DB insert fails.
type SlotReserver interface {
	Reserve(ctx context.Context, bucket Bucket) (int, error)
	Release(ctx context.Context, bucket Bucket) error
	SyncBucket(ctx context.Context, bucket Bucket) error
}

// reserveScript runs the whole admit decision inside Redis. Two keys per
// bucket: KEYS[1] counts active bookings and is bounded by the capacity in
// ARGV[1]; KEYS[2] is the monotonic token counter, incremented only on admit
// and never decremented, so token numbers are never reused after a
// cancellation. Returns -1 when the bucket is full, else the token number.
// The Redis client switches to EVALSHA after the first call.
var reserveScript = redis.NewScript(`
	local booked = redis.call('INCR', KEYS[1])
	if booked > tonumber(ARGV[1]) then
		redis.call('DECR', KEYS[1])
		return -1
	end
	local token = redis.call('INCR', KEYS[2])
	if tonumber(ARGV[2]) > 0 then
		redis.call('EXPIRE', KEYS[1], ARGV[2])
		redis.call('EXPIRE', KEYS[2], ARGV[2])
	end
	return token
`)

// releaseScript frees one admitted booking without ever driving the counter
// negative. The token counter is left untouched.
var releaseScript = redis.NewScript(`
	local booked = redis.call('GET', KEYS[1])
	if booked and tonumber(booked) > 0 then
		return redis.call('DECR', KEYS[1])
	end
	return 0
`)

const (
	redisBookedKeyPrefix = "slot:booked:"
	redisTokenKeyPrefix  = "slot:token:"

	// Batch size for startup sync, pipeline executed per batch
	syncBatchSize = 500

	// Interval for cleaning up stale bucket mutexes
	mutexCleanupInterval = 10 * time.Minute

	// How long a mutex must be unused before cleanup
	mutexStaleThreshold = 10 * time.Minute
)

// SlotReservationService enforces the per-bucket capacity invariant with
// Redis as the serialization point, and re-seeds the counters from Postgres
// on startup so a Redis restart cannot over-admit.
type SlotReservationService struct {
	db          *gorm.DB
	redisClient *redis.Client
	log         *logrus.Logger
	capacity    int

	// Per-bucket mutex guarding non-atomic maintenance paths (sync, release)
	bucketMu sync.Map // map[string]*mutexWithTimestamp

	stopChan chan struct{}
	wg       sync.WaitGroup
	stopped  atomic.Bool
}

type mutexWithTimestamp struct {
	mu       sync.Mutex
	lastUsed atomic.Int64 // Unix timestamp
}

// bucketCounts holds one bucket's sync data from the database
type bucketCounts struct {
	DoctorID        uuid.UUID
	AppointmentDate time.Time
	TimeSlot        string
	BookedCount     int
	MaxTokenNumber  int
}

// NewSlotReservationService creates the service and starts the background
// mutex cleanup goroutine. Call Stop during graceful shutdown.
func NewSlotReservationService(db *gorm.DB, redisClient *redis.Client, log *logrus.Logger, capacity int) *SlotReservationService {
	svc := &SlotReservationService{
		db:          db,
		redisClient: redisClient,
		log:         log,
		capacity:    capacity,
		stopChan:    make(chan struct{}),
	}

	svc.wg.Add(1)
	go svc.cleanupMutexMapLoop()

	return svc
}

// Stop gracefully shuts down the service. Safe to call multiple times.
func (s *SlotReservationService) Stop() {
	if s.stopped.CompareAndSwap(false, true) {
		close(s.stopChan)
		s.wg.Wait()
		s.log.Info("SlotReservationService stopped")
	}
}

// Reserve atomically admits one booking into the bucket and returns its
// token number, or slot.ErrSlotFull when the bucket is at capacity.
func (s *SlotReservationService) Reserve(ctx context.Context, bucket Bucket) (int, error) {
	bookedKey, tokenKey := s.bucketKeys(bucket)
	ttl := int(s.calculateTTL(bucket.Date).Seconds())

	result, err := reserveScript.Run(ctx, s.redisClient, []string{bookedKey, tokenKey}, s.capacity, ttl).Int()
	if err != nil {
		s.log.Warnf("Failed reserve script for bucket %s: %+v", bookedKey, err)
		return 0, fmt.Errorf("reserve slot %s: %w", bookedKey, err)
	}

	if result == -1 {
		return 0, slot.ErrSlotFull
	}

	s.log.Debugf("Reserved bucket %s: token_number=%d", bookedKey, result)
	return result, nil
}

// Release frees one admitted booking after a cancellation, deletion or a
// compensated DB failure. Token numbers are not reclaimed.
func (s *SlotReservationService) Release(ctx context.Context, bucket Bucket) error {
	mt := s.getBucketMutex(bucket)
	mt.mu.Lock()
	defer mt.mu.Unlock()

	bookedKey, _ := s.bucketKeys(bucket)
	if _, err := releaseScript.Run(ctx, s.redisClient, []string{bookedKey}).Result(); err != nil {
		s.log.Warnf("Failed to release bucket %s: %+v", bookedKey, err)
		return fmt.Errorf("release slot %s: %w", bookedKey, err)
	}

	s.log.Debugf("Released one booking in bucket %s", bookedKey)
	return nil
}

// SyncOnStartup re-seeds the booked and token counters for all future
// buckets from the appointments table. Should run before the server accepts
// traffic; the token counter is restored to MAX(token_number) so reused
// numbers are impossible across restarts.
func (s *SlotReservationService) SyncOnStartup(ctx context.Context) error {
	s.log.Info("Starting slot counter re-sync from database...")
	startTime := time.Now()

	if err := s.redisClient.Ping(ctx).Err(); err != nil {
		s.log.Warnf("Redis is not available, skipping sync: %+v", err)
		return fmt.Errorf("redis ping failed: %w", err)
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	offset := 0
	totalSynced := 0

	for {
		var results []bucketCounts

		err := s.db.WithContext(ctx).Model(&entity.Appointment{}).
			Select(`
				doctor_id,
				appointment_date,
				time_slot,
				COUNT(CASE WHEN status != ? THEN 1 END) as booked_count,
				COALESCE(MAX(token_number), 0) as max_token_number
			`, string(entity.AppointmentStatusCancelled)).
			Where("appointment_date >= ?", today).
			Group("doctor_id, appointment_date, time_slot").
			Order("doctor_id, appointment_date, time_slot").
			Limit(syncBatchSize).
			Offset(offset).
			Scan(&results).Error

		if err != nil {
			s.log.Errorf("Failed to query buckets at offset %d: %+v", offset, err)
			return fmt.Errorf("query buckets at offset %d: %w", offset, err)
		}

		if len(results) == 0 {
			if offset == 0 {
				s.log.Info("No future appointment buckets found for sync")
			}
			break
		}

		// New pipeline per batch so memory stays bounded
		pipe := s.redisClient.TxPipeline()

		for _, result := range results {
			bucket := Bucket{DoctorID: result.DoctorID, Date: result.AppointmentDate, TimeSlot: result.TimeSlot}
			bookedKey, tokenKey := s.bucketKeys(bucket)
			ttl := s.calculateTTL(result.AppointmentDate)

			pipe.Set(ctx, bookedKey, result.BookedCount, ttl)
			pipe.Set(ctx, tokenKey, result.MaxTokenNumber, ttl)
		}

		if _, err := pipe.Exec(ctx); err != nil {
			s.log.Errorf("Failed to execute pipeline for batch at offset %d: %+v", offset, err)
			return fmt.Errorf("pipeline exec at offset %d: %w", offset, err)
		}

		totalSynced += len(results)

		if len(results) < syncBatchSize {
			break
		}
		offset += syncBatchSize

		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
	}

	s.log.Infof("Slot counter re-sync completed: %d buckets synced in %v", totalSynced, time.Since(startTime))
	return nil
}

// SyncBucket re-seeds a single bucket from the database. Called when the
// unique token index rejects an insert, meaning the Redis counters have
// drifted from the store; overwriting both counters with the committed
// counts is the recovery. Not used on ordinary release paths, where a
// bounded DECR preserves concurrent in-flight reservations.
func (s *SlotReservationService) SyncBucket(ctx context.Context, bucket Bucket) error {
	mt := s.getBucketMutex(bucket)
	mt.mu.Lock()
	defer mt.mu.Unlock()

	var data struct {
		BookedCount    int64
		MaxTokenNumber int
	}

	err := s.db.WithContext(ctx).Model(&entity.Appointment{}).
		Select("COUNT(CASE WHEN status != ? THEN 1 END) as booked_count, COALESCE(MAX(token_number), 0) as max_token_number",
			string(entity.AppointmentStatusCancelled)).
		Where("doctor_id = ? AND appointment_date = ? AND time_slot = ?",
			bucket.DoctorID, bucket.Date, bucket.TimeSlot).
		Scan(&data).Error
	if err != nil {
		s.log.Warnf("Failed to query bucket counts: %+v", err)
		return fmt.Errorf("query bucket counts: %w", err)
	}

	bookedKey, tokenKey := s.bucketKeys(bucket)
	ttl := s.calculateTTL(bucket.Date)

	pipe := s.redisClient.TxPipeline()
	pipe.Set(ctx, bookedKey, data.BookedCount, ttl)
	pipe.Set(ctx, tokenKey, data.MaxTokenNumber, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Warnf("Failed to sync bucket %s: %+v", bookedKey, err)
		return fmt.Errorf("sync bucket %s: %w", bookedKey, err)
	}

	s.log.Debugf("Synced bucket %s: booked=%d, token=%d", bookedKey, data.BookedCount, data.MaxTokenNumber)
	return nil
}

func (s *SlotReservationService) bucketKeys(bucket Bucket) (string, string) {
	suffix := fmt.Sprintf("%s:%s:%s", bucket.DoctorID, bucket.Date.Format("2006-01-02"), bucket.TimeSlot)
	return redisBookedKeyPrefix + suffix, redisTokenKeyPrefix + suffix
}

func (s *SlotReservationService) getBucketMutex(bucket Bucket) *mutexWithTimestamp {
	bookedKey, _ := s.bucketKeys(bucket)
	mt, _ := s.bucketMu.LoadOrStore(bookedKey, &mutexWithTimestamp{})
	result := mt.(*mutexWithTimestamp)
	result.lastUsed.Store(time.Now().Unix())
	return result
}

func (s *SlotReservationService) cleanupMutexMapLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(mutexCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanupStaleMutexes()
		}
	}
}

func (s *SlotReservationService) cleanupStaleMutexes() {
	cutoffTime := time.Now().Add(-mutexStaleThreshold).Unix()
	var cleaned int

	s.bucketMu.Range(func(key, value any) bool {
		mt, ok := value.(*mutexWithTimestamp)
		if !ok {
			return true
		}

		// TryLock first; if someone holds it the mutex is in use.
		// lastUsed is checked inside the lock so a concurrent touch
		// cannot race the delete.
		if mt.mu.TryLock() {
			if mt.lastUsed.Load() < cutoffTime {
				s.bucketMu.Delete(key)
				cleaned++
			}
			mt.mu.Unlock()
		}
		return true
	})

	if cleaned > 0 {
		s.log.Debugf("Cleaned up %d stale bucket mutexes", cleaned)
	}
}

// calculateTTL returns TTL: 24 hours after the appointment date
func (s *SlotReservationService) calculateTTL(date time.Time) time.Duration {
	expireAt := date.AddDate(0, 0, 1)
	ttl := time.Until(expireAt)

	if ttl <= 0 {
		// Past date, short TTL for cleanup
		return 1 * time.Minute
	}
	return ttl
}
