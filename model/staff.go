package model

import "gorm.io/gorm"

// Staff roles for the reception console.
const (
	RoleReceptionist = "receptionist"
	RoleDoctor       = "doctor"
)

// Staff represents a clinic staff account (receptionist or doctor) used by
// the reception console login. Patients do not have accounts; their identity
// is carried by explicit ids on the booking API.
type Staff struct {
	gorm.Model
	Name         string `json:"name" gorm:"column:name;not null" example:"Jane Front Desk"`
	Email        string `json:"email" gorm:"column:email;size:191;uniqueIndex;not null" example:"frontdesk@clinic.com"`
	Password     string `json:"-" gorm:"column:password;not null"`
	PasswordSalt string `json:"-" gorm:"column:password_salt"`
	Role         string `json:"role" gorm:"column:role;size:32;not null" example:"receptionist"`
	DoctorID     uint   `json:"doctor_id,omitempty" gorm:"column:doctor_id" example:"1"`
}

// TableName pins the table to "staff" so raw joins do not depend on the
// pluralizer's handling of the word.
func (Staff) TableName() string {
	return "staff"
}
