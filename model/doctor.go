package model

import "gorm.io/gorm"

// Doctor represents a clinic doctor
// @Description Doctor information
type Doctor struct {
	gorm.Model
	Name      string `json:"name" gorm:"column:name;not null" example:"Dr. Sarah Smith"`
	Specialty string `json:"specialty" gorm:"column:specialty;not null" example:"General Medicine"`
	Email     string `json:"email" gorm:"column:email;size:191;uniqueIndex" example:"sarah.smith@clinic.com"`
	Phone     string `json:"phone" gorm:"column:phone;size:20" example:"+1 (555) 100-0001"`
}

// DoctorStats aggregates workload counters shown on the doctor dashboard.
type DoctorStats struct {
	Doctor
	TodayAppointments   int64 `json:"today_appointments" example:"3"`
	PendingAppointments int64 `json:"pending_appointments" example:"2"`
	TotalPatients       int64 `json:"total_patients" example:"27"`
}
