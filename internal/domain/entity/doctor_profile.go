package entity

import (
	"time"

	"github.com/google/uuid"
)

// Department names a doctor may belong to. Fixed catalog, mirrored by the
// department CHECK constraint in the doctors migration.
var Departments = []string{
	"Pediatrics",
	"Orthopedics",
	"Cardiology",
	"Neurology",
	"Oncology",
	"Radiology",
	"Physical Therapy",
	"Dermatology",
	"ENT",
}

// IsValidDepartment reports whether department is part of the fixed catalog.
func IsValidDepartment(department string) bool {
	for _, d := range Departments {
		if d == department {
			return true
		}
	}
	return false
}

// DoctorProfile represents doctor-specific profile data
type DoctorProfile struct {
	UserID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	Department      string     `gorm:"type:varchar(100);not null;index" json:"department"`
	Fees            int64      `gorm:"not null" json:"fees"`
	JoiningDate     time.Time  `gorm:"type:date;not null" json:"joining_date"`
	ResignationDate *time.Time `gorm:"type:date" json:"resignation_date,omitempty"`
	AvatarPublicID  string     `gorm:"type:varchar(255)" json:"avatar_public_id,omitempty"`
	AvatarURL       string     `gorm:"type:text" json:"avatar_url,omitempty"`

	// Relationships
	User         User                 `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Availability []DoctorAvailability `gorm:"foreignKey:DoctorID" json:"availability,omitempty"`
	Appointments []Appointment        `gorm:"foreignKey:DoctorID" json:"appointments,omitempty"`
}

func (DoctorProfile) TableName() string {
	return "doctor_profiles"
}
