package repository

import (
	"hospital-management-backend/internal/domain/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(db *gorm.DB, payment *entity.Payment) error
	FindByAppointmentID(db *gorm.DB, appointmentID uuid.UUID) (*entity.Payment, error)
	FindByPatientID(db *gorm.DB, patientID uuid.UUID) ([]entity.Payment, error)
	UpdateStatus(db *gorm.DB, id uuid.UUID, status entity.PaymentStatus) error
}
