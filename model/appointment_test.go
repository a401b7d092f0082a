package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func setupAppointmentTestDB(t *testing.T) *gorm.DB {
	return setupTestDB(t, "appointment", &Appointment{}, &Doctor{}, &Patient{})
}

func mustCreateDoctor(db *gorm.DB, t *testing.T) Doctor {
	t.Helper()
	doctor := Doctor{Name: "Dr. Test", Specialty: "General"}
	if err := db.Create(&doctor).Error; err != nil {
		t.Fatalf("failed to create doctor: %v", err)
	}
	return doctor
}

func TestValidStatus(t *testing.T) {
	assert.True(t, ValidStatus(StatusPending))
	assert.True(t, ValidStatus(StatusConfirmed))
	assert.True(t, ValidStatus(StatusCancelled))
	assert.False(t, ValidStatus("done"))
	assert.False(t, ValidStatus(""))
	assert.False(t, ValidStatus("Pending"))
}

func TestSlotTaken(t *testing.T) {
	db := setupAppointmentTestDB(t)
	doctor := mustCreateDoctor(db, t)

	booked := Appointment{PatientID: 1, DoctorID: doctor.ID, Date: "2026-09-15", Time: "09:00", Type: "visit", Status: StatusPending}
	assert.NoError(t, db.Create(&booked).Error)

	taken, err := SlotTaken(db, doctor.ID, "2026-09-15", "09:00", 0)
	assert.NoError(t, err)
	assert.True(t, taken)

	// Other time, other date, other doctor: all free.
	taken, err = SlotTaken(db, doctor.ID, "2026-09-15", "10:00", 0)
	assert.NoError(t, err)
	assert.False(t, taken)

	taken, err = SlotTaken(db, doctor.ID, "2026-09-16", "09:00", 0)
	assert.NoError(t, err)
	assert.False(t, taken)

	taken, err = SlotTaken(db, doctor.ID+1, "2026-09-15", "09:00", 0)
	assert.NoError(t, err)
	assert.False(t, taken)

	// Excluding the row itself frees the slot for reschedules.
	taken, err = SlotTaken(db, doctor.ID, "2026-09-15", "09:00", booked.ID)
	assert.NoError(t, err)
	assert.False(t, taken)
}

func TestSlotTakenIgnoresCancelled(t *testing.T) {
	db := setupAppointmentTestDB(t)
	doctor := mustCreateDoctor(db, t)

	cancelled := Appointment{PatientID: 1, DoctorID: doctor.ID, Date: "2026-09-15", Time: "09:00", Type: "visit", Status: StatusCancelled}
	assert.NoError(t, db.Create(&cancelled).Error)

	taken, err := SlotTaken(db, doctor.ID, "2026-09-15", "09:00", 0)
	assert.NoError(t, err)
	assert.False(t, taken)
}

func TestAvailableSlotsCatalogOrder(t *testing.T) {
	db := setupAppointmentTestDB(t)
	doctor := mustCreateDoctor(db, t)

	// Book in reverse order; results must still follow the catalog.
	for _, slot := range []string{"17:00", "08:00", "11:00"} {
		a := Appointment{PatientID: 1, DoctorID: doctor.ID, Date: "2026-09-15", Time: slot, Type: "visit", Status: StatusConfirmed}
		assert.NoError(t, db.Create(&a).Error)
	}

	slots, err := AvailableSlots(db, doctor.ID, "2026-09-15")
	assert.NoError(t, err)
	assert.Equal(t, []string{"09:00", "10:00", "14:00", "15:00", "16:00"}, slots)
}

func TestAvailableSlotsUnknownDoctor(t *testing.T) {
	db := setupAppointmentTestDB(t)

	slots, err := AvailableSlots(db, 9999, "2026-09-15")
	assert.NoError(t, err)
	assert.Empty(t, slots)
}

func TestAvailableSlotsFullyBooked(t *testing.T) {
	db := setupAppointmentTestDB(t)
	doctor := mustCreateDoctor(db, t)

	for _, slot := range TimeSlotCatalog {
		a := Appointment{PatientID: 1, DoctorID: doctor.ID, Date: "2026-09-15", Time: slot, Type: "visit", Status: StatusPending}
		assert.NoError(t, db.Create(&a).Error)
	}

	slots, err := AvailableSlots(db, doctor.ID, "2026-09-15")
	assert.NoError(t, err)
	assert.Empty(t, slots)
}
