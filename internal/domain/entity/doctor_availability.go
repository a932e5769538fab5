package entity

import "github.com/google/uuid"

// DoctorAvailability is one (weekday, slot) row of a doctor's weekly
// schedule. A doctor may list the same day several times with different
// slots; duplicate (day, slot) rows are tolerated by the availability check.
type DoctorAvailability struct {
	ID       int       `gorm:"primaryKey;autoIncrement" json:"id"`
	DoctorID uuid.UUID `gorm:"type:uuid;not null;index" json:"doctor_id"`
	Day      string    `gorm:"type:varchar(10);not null" json:"day"`
	TimeSlot string    `gorm:"type:varchar(12);not null" json:"time_slot"`

	// Relationships
	Doctor DoctorProfile `gorm:"foreignKey:DoctorID" json:"doctor,omitempty"`
}

func (DoctorAvailability) TableName() string {
	return "doctor_availabilities"
}
