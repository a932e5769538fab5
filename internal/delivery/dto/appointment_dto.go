package dto

import (
	"time"

	"github.com/google/uuid"
)

// Request DTOs

type BookAppointmentRequest struct {
	DoctorID        uuid.UUID `json:"doctor_id" validate:"required"`
	Department      string    `json:"department" validate:"required"`
	AppointmentDate string    `json:"appointment_date" validate:"required"` // Format: YYYY-MM-DD
	TimeSlot        string    `json:"time_slot" validate:"required"`
	FirstName       string    `json:"first_name" validate:"required,min=3"`
	LastName        string    `json:"last_name" validate:"required,min=3"`
	Email           string    `json:"email" validate:"required,email"`
	Phone           string    `json:"phone" validate:"required,min=10,max=20"`
	DOB             string    `json:"dob" validate:"required"` // Format: YYYY-MM-DD
	Gender          string    `json:"gender" validate:"required,oneof=Male Female"`
	Address         string    `json:"address" validate:"required"`
	HasVisited      bool      `json:"has_visited"`

	// Client-generated idempotency key; retries with the same key return the
	// original record instead of double-booking.
	RequestID string `json:"request_id" validate:"omitempty,max=64"`

	PaymentMethod    string `json:"payment_method" validate:"required,oneof=Online Offline"`
	GatewayOrderID   string `json:"gateway_order_id" validate:"omitempty"`
	GatewayPaymentID string `json:"gateway_payment_id" validate:"omitempty"`
	GatewaySignature string `json:"gateway_signature" validate:"omitempty"`
}

type UpdateAppointmentStatusRequest struct {
	Status string `json:"status" validate:"required"`
}

type RescheduleAppointmentRequest struct {
	AppointmentDate string `json:"appointment_date" validate:"required"` // Format: YYYY-MM-DD
	TimeSlot        string `json:"time_slot" validate:"required"`
}

// Response DTOs

type AppointmentResponse struct {
	ID              uuid.UUID `json:"id"`
	DoctorID        uuid.UUID `json:"doctor_id"`
	PatientID       uuid.UUID `json:"patient_id"`
	Department      string    `json:"department"`
	AppointmentDate string    `json:"appointment_date"`
	TimeSlot        string    `json:"time_slot"`
	TokenNumber     int       `json:"token_number"`
	Status          string    `json:"status"`
	HasVisited      bool      `json:"has_visited"`
	FirstName       string    `json:"first_name"`
	LastName        string    `json:"last_name"`
	DoctorFirstName string    `json:"doctor_first_name"`
	DoctorLastName  string    `json:"doctor_last_name"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

type AppointmentListResponse struct {
	Appointments []AppointmentResponse `json:"appointments"`
	Total        int                   `json:"total"`
}
