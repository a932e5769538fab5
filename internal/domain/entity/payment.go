package entity

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus represents the status of a payment record
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "Pending"
	PaymentStatusCompleted PaymentStatus = "Completed"
	PaymentStatusFailed    PaymentStatus = "Failed"
)

// PaymentMode distinguishes gateway payments from pay-at-desk
type PaymentMode string

const (
	PaymentModeOnline  PaymentMode = "Online"
	PaymentModeOffline PaymentMode = "Offline"
)

// Payment represents a reconciled payment against an appointment. Gateway
// order and payment IDs are only present for Online mode.
type Payment struct {
	ID               uuid.UUID     `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	PatientID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"patient_id"`
	DoctorID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"doctor_id"`
	AppointmentID    uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"appointment_id"`
	Amount           int64         `gorm:"not null" json:"amount"`
	Status           PaymentStatus `gorm:"type:varchar(20);not null;default:'Pending'" json:"status"`
	PaymentMode      PaymentMode   `gorm:"type:varchar(10);not null" json:"payment_mode"`
	GatewayOrderID   string        `gorm:"type:varchar(100)" json:"gateway_order_id,omitempty"`
	GatewayPaymentID string        `gorm:"type:varchar(100)" json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time     `gorm:"autoCreateTime" json:"created_at"`

	// Relationships
	Appointment Appointment `gorm:"foreignKey:AppointmentID" json:"appointment,omitempty"`
}

func (Payment) TableName() string {
	return "payments"
}
