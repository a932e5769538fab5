package dto

import (
	"github.com/google/uuid"
)

// Request DTOs

type AvailabilityEntryRequest struct {
	Day      string `json:"day" validate:"required"`
	TimeSlot string `json:"time_slot" validate:"required"`
}

type CreateDoctorRequest struct {
	Email           string                     `json:"email" validate:"required,email"`
	Password        string                     `json:"password" validate:"required,min=8"`
	FirstName       string                     `json:"first_name" validate:"required,min=3"`
	LastName        string                     `json:"last_name" validate:"required,min=3"`
	Department      string                     `json:"department" validate:"required"`
	Fees            int64                      `json:"fees" validate:"required,min=1"`
	JoiningDate     string                     `json:"joining_date" validate:"required"` // Format: YYYY-MM-DD
	ResignationDate string                     `json:"resignation_date" validate:"omitempty"`
	AvatarURL       string                     `json:"avatar_url" validate:"omitempty,url"`
	AvatarPublicID  string                     `json:"avatar_public_id" validate:"omitempty"`
	Availability    []AvailabilityEntryRequest `json:"availability" validate:"required,min=1,dive"`
}

type UpdateDoctorRequest struct {
	Email        string                     `json:"email" validate:"omitempty,email"`
	FirstName    string                     `json:"first_name" validate:"omitempty,min=3"`
	LastName     string                     `json:"last_name" validate:"omitempty,min=3"`
	Department   string                     `json:"department" validate:"omitempty"`
	Fees         *int64                     `json:"fees" validate:"omitempty,min=1"`
	Availability []AvailabilityEntryRequest `json:"availability" validate:"omitempty,dive"`
	IsActive     *bool                      `json:"is_active" validate:"omitempty"`
}

// Response DTOs

type AvailabilityEntryResponse struct {
	Day      string `json:"day"`
	TimeSlot string `json:"time_slot"`
}

type DoctorResponse struct {
	ID              uuid.UUID                   `json:"id"`
	Email           string                      `json:"email"`
	FirstName       string                      `json:"first_name"`
	LastName        string                      `json:"last_name"`
	Department      string                      `json:"department"`
	Fees            int64                       `json:"fees"`
	JoiningDate     string                      `json:"joining_date"`
	ResignationDate string                      `json:"resignation_date,omitempty"`
	AvatarURL       string                      `json:"avatar_url,omitempty"`
	Availability    []AvailabilityEntryResponse `json:"availability,omitempty"`
	IsActive        bool                        `json:"is_active"`
}

type DoctorListResponse struct {
	Doctors []DoctorResponse `json:"doctors"`
	Total   int              `json:"total"`
}
