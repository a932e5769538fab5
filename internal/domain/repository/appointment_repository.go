package repository

import (
	"time"

	"hospital-management-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AppointmentRepository is the store contract behind the slot allocator. The
// capacity decision itself is made against the atomic Redis counter; the
// count and find queries here back the startup re-sync and the conflict
// check, and Create carries the unique (doctor, date, slot, token) index as
// the database-level backstop.
type AppointmentRepository interface {
	Create(db *gorm.DB, appointment *entity.Appointment) error
	FindByID(db *gorm.DB, id uuid.UUID) (*entity.Appointment, error)
	FindAll(db *gorm.DB) ([]entity.Appointment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorID(db *gorm.DB, doctorID uuid.UUID) ([]entity.Appointment, error)
	FindByDoctorAndDate(db *gorm.DB, doctorID uuid.UUID, date time.Time) ([]entity.Appointment, error)
	FindByPatientAndRequestID(db *gorm.DB, patientID uuid.UUID, requestID string) (*entity.Appointment, error)
	CountInBucket(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeSlot string) (int64, error)
	MaxTokenInBucket(db *gorm.DB, doctorID uuid.UUID, date time.Time, timeSlot string) (int, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.AppointmentStatus) (int64, error)
	Update(db *gorm.DB, appointment *entity.Appointment) error
	Delete(db *gorm.DB, id uuid.UUID) error
}
