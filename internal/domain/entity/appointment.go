package entity

import (
	"time"

	"github.com/google/uuid"
)

// AppointmentStatus represents the lifecycle state of an appointment
type AppointmentStatus string

const (
	AppointmentStatusPending   AppointmentStatus = "Pending"
	AppointmentStatusPaid      AppointmentStatus = "Paid"
	AppointmentStatusConfirmed AppointmentStatus = "Confirmed"
	AppointmentStatusCancelled AppointmentStatus = "Cancelled"
	AppointmentStatusCompleted AppointmentStatus = "Completed"
)

// IsValidAppointmentStatus reports whether status is a known lifecycle state.
func IsValidAppointmentStatus(status AppointmentStatus) bool {
	switch status {
	case AppointmentStatusPending, AppointmentStatusPaid, AppointmentStatusConfirmed,
		AppointmentStatusCancelled, AppointmentStatusCompleted:
		return true
	}
	return false
}

// Appointment represents a booked visit. TokenNumber is the 1-based position
// assigned within the (doctor, date, slot) bucket at creation time and is
// never reassigned, even when earlier siblings are cancelled.
type Appointment struct {
	ID              uuid.UUID         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	DoctorID        uuid.UUID         `gorm:"type:uuid;not null;index;uniqueIndex:idx_slot_token" json:"doctor_id"`
	PatientID       uuid.UUID         `gorm:"type:uuid;not null;index" json:"patient_id"`
	Department      string            `gorm:"type:varchar(100);not null" json:"department"`
	AppointmentDate time.Time         `gorm:"type:date;not null;index;uniqueIndex:idx_slot_token" json:"appointment_date"`
	TimeSlot        string            `gorm:"type:varchar(12);not null;uniqueIndex:idx_slot_token" json:"time_slot"`
	TokenNumber     int               `gorm:"not null;uniqueIndex:idx_slot_token" json:"token_number"`
	Status          AppointmentStatus `gorm:"type:varchar(20);not null;default:'Pending';index" json:"status"`
	HasVisited      bool              `gorm:"not null;default:false" json:"has_visited"`
	RequestID       string            `gorm:"type:varchar(64);index" json:"request_id,omitempty"`

	// Patient contact fields carried through to the record; irrelevant to the
	// allocation decision but used by the notification emails.
	FirstName string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName  string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Email     string    `gorm:"type:varchar(255);not null" json:"email"`
	Phone     string    `gorm:"type:varchar(20);not null" json:"phone"`
	DOB       time.Time `gorm:"type:date;not null" json:"dob"`
	Gender    string    `gorm:"type:varchar(10);not null" json:"gender"`
	Address   string    `gorm:"type:text;not null" json:"address"`

	// Denormalized doctor name snapshot for the email templates.
	DoctorFirstName string `gorm:"type:varchar(100);not null" json:"doctor_first_name"`
	DoctorLastName  string `gorm:"type:varchar(100);not null" json:"doctor_last_name"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	Doctor  DoctorProfile  `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
	Patient PatientProfile `gorm:"foreignKey:PatientID" json:"patient,omitempty"`
	Payment *Payment       `gorm:"foreignKey:AppointmentID" json:"payment,omitempty"`
}

func (Appointment) TableName() string {
	return "appointments"
}

// IsTerminal reports whether the appointment has reached a final state.
func (a *Appointment) IsTerminal() bool {
	return a.Status == AppointmentStatusCancelled || a.Status == AppointmentStatusCompleted
}

// IsCancelled checks if the appointment is cancelled
func (a *Appointment) IsCancelled() bool {
	return a.Status == AppointmentStatusCancelled
}

// DoctorName returns the "Dr. First Last" form used in patient emails.
func (a *Appointment) DoctorName() string {
	return "Dr. " + a.DoctorFirstName + " " + a.DoctorLastName
}

// PatientName returns the patient display name snapshot.
func (a *Appointment) PatientName() string {
	return a.FirstName + " " + a.LastName
}
