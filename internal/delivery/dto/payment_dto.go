package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type VerifyPaymentRequest struct {
	AppointmentID    uuid.UUID `json:"appointment_id" validate:"required"`
	Amount           int64     `json:"amount" validate:"required,min=1"`
	GatewayOrderID   string    `json:"gateway_order_id" validate:"required"`
	GatewayPaymentID string    `json:"gateway_payment_id" validate:"required"`
	GatewaySignature string    `json:"gateway_signature" validate:"required"`
}

// Response DTOs

type PaymentResponse struct {
	ID               uuid.UUID `json:"id"`
	PatientID        uuid.UUID `json:"patient_id"`
	DoctorID         uuid.UUID `json:"doctor_id"`
	AppointmentID    uuid.UUID `json:"appointment_id"`
	Amount           int64     `json:"amount"`
	Status           string    `json:"status"`
	PaymentMode      string    `json:"payment_mode"`
	GatewayOrderID   string    `json:"gateway_order_id,omitempty"`
	GatewayPaymentID string    `json:"gateway_payment_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}
