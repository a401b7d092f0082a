package model

import (
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Appointment status values. Transitions are pending -> confirmed,
// pending|confirmed -> cancelled; a reschedule rewrites date/time and
// drops the appointment back to pending.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

// TimeSlotCatalog is the fixed list of bookable times in a clinic day:
// hourly slots, mornings 08-12 and afternoons 14-18.
var TimeSlotCatalog = []string{
	"08:00", "09:00", "10:00", "11:00",
	"14:00", "15:00", "16:00", "17:00",
}

// Appointment represents a booked clinic visit
// @Description Appointment information
type Appointment struct {
	gorm.Model
	PatientID uint   `json:"patient_id" gorm:"column:patient_id;not null;index" example:"1"`
	DoctorID  uint   `json:"doctor_id" gorm:"column:doctor_id;not null;index:idx_doctor_slot,priority:1" example:"1"`
	Date      string `json:"date" gorm:"column:date;size:50;not null;index:idx_doctor_slot,priority:2" example:"2025-07-10"`
	Time      string `json:"time" gorm:"column:time;size:50;not null;index:idx_doctor_slot,priority:3" example:"09:00"`
	Type      string `json:"type" gorm:"column:type;size:100;not null" example:"General Consultation"`
	Status    string `json:"status" gorm:"column:status;size:100;not null;default:pending" example:"pending"`
	Reason    string `json:"reason" gorm:"column:reason;type:text" example:"Routine check-up"`
	Notes     string `json:"notes" gorm:"column:notes;type:text" example:""`
}

// AppointmentWithDetails is an appointment row joined with the referenced
// patient and doctor for display.
type AppointmentWithDetails struct {
	Appointment
	PatientName  string `json:"patient_name" gorm:"column:patient_name" example:"John Doe"`
	PatientEmail string `json:"patient_email" gorm:"column:patient_email" example:"john.doe@email.com"`
	PatientPhone string `json:"patient_phone" gorm:"column:patient_phone" example:"+1 (555) 123-4567"`
	DoctorName   string `json:"doctor_name" gorm:"column:doctor_name" example:"Dr. Sarah Smith"`
	Specialty    string `json:"specialty" gorm:"column:specialty" example:"General Medicine"`
	DoctorEmail  string `json:"doctor_email" gorm:"column:doctor_email" example:"sarah.smith@clinic.com"`
}

// ValidStatus reports whether s is one of the three appointment statuses.
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusConfirmed || s == StatusCancelled
}

// SlotTaken reports whether a non-cancelled appointment already occupies the
// (doctorID, date, timeSlot) slot. excludeID skips a row, so a reschedule does
// not collide with the appointment being moved.
func SlotTaken(db *gorm.DB, doctorID uint, date, timeSlot string, excludeID uint) (bool, error) {
	var count int64
	query := db.Model(&Appointment{}).
		Where("doctor_id = ? AND date = ? AND time = ? AND status <> ?",
			doctorID, date, timeSlot, StatusCancelled)
	if db.Dialector.Name() == "mysql" {
		// Inside a transaction the next-key locks on idx_doctor_slot block a
		// concurrent insert into the same slot until commit. SQLite has no
		// FOR UPDATE and serializes writers anyway.
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// AvailableSlots returns the catalog slots not occupied by a non-cancelled
// appointment for the doctor on the given date, in catalog order. An unknown
// doctor yields an empty sequence rather than an error.
func AvailableSlots(db *gorm.DB, doctorID uint, date string) ([]string, error) {
	var doctorCount int64
	if err := db.Model(&Doctor{}).Where("id = ?", doctorID).Count(&doctorCount).Error; err != nil {
		return nil, err
	}
	if doctorCount == 0 {
		return []string{}, nil
	}

	var bookedTimes []string
	err := db.Model(&Appointment{}).
		Where("doctor_id = ? AND date = ? AND status <> ?", doctorID, date, StatusCancelled).
		Pluck("time", &bookedTimes).Error
	if err != nil {
		return nil, err
	}

	booked := make(map[string]struct{}, len(bookedTimes))
	for _, t := range bookedTimes {
		booked[t] = struct{}{}
	}

	available := make([]string, 0, len(TimeSlotCatalog))
	for _, slot := range TimeSlotCatalog {
		if _, taken := booked[slot]; !taken {
			available = append(available, slot)
		}
	}
	return available, nil
}
