package model

import "gorm.io/gorm"

// Patient represents a registered patient
// @Description Patient information
type Patient struct {
	gorm.Model
	FullName    string `json:"full_name" gorm:"column:full_name;not null" example:"John Doe"`
	Email       string `json:"email" gorm:"column:email;size:191;uniqueIndex" example:"john.doe@email.com"`
	Phone       string `json:"phone" gorm:"column:phone;size:20" example:"+1 (555) 123-4567"`
	DateOfBirth string `json:"date_of_birth" gorm:"column:date_of_birth;size:50" example:"1988-03-15"`
	Address     string `json:"address" gorm:"column:address;type:text" example:"123 Main St"`
}

// UpdatePatientRequest carries the editable profile fields. Empty fields are
// left untouched by the merge in the patient endpoint.
type UpdatePatientRequest struct {
	FullName    string `json:"full_name" example:"John Doe"`
	Email       string `json:"email" example:"john.doe@email.com"`
	Phone       string `json:"phone" example:"+1 (555) 123-4567"`
	DateOfBirth string `json:"date_of_birth,omitempty" example:"1988-03-15"`
	Address     string `json:"address,omitempty" example:"123 Main St"`
}
