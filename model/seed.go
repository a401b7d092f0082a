package model

import (
	"fmt"

	"gorm.io/gorm"
)

// SeedDoctors inserts the clinic roster when the doctors table is empty of
// the listed entries. Existing rows (matched by unique email) are left alone.
func SeedDoctors(db *gorm.DB) error {
	doctors := []Doctor{
		{Name: "Dr. Nguyễn Văn An", Specialty: "Tim mạch", Email: "vana@example.com", Phone: "0123456789"},
		{Name: "Dr. Nguyên Thị Mai", Specialty: "Tim mạch", Email: "thimai@example.com", Phone: "0987654321"},
		{Name: "Dr. Trần Thị Binh", Specialty: "Nội khoa", Email: "thib@example.com", Phone: "0987654321"},
		{Name: "Dr. Cao An", Specialty: "Răng Hàm Mặt", Email: "an@example.com", Phone: "0353940610"},
		{Name: "Dr. Cao Thị Hằng", Specialty: "Răng Hàm Mặt", Email: "hangb@example.com", Phone: "0123456789"},
	}

	for _, doctor := range doctors {
		var existing Doctor
		err := db.Where("email = ?", doctor.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&doctor).Error; err != nil {
			return fmt.Errorf("failed to seed doctor %s: %w", doctor.Name, err)
		}
	}
	return nil
}

// SeedPatients inserts the sample patient records used by the demo clinic.
func SeedPatients(db *gorm.DB) error {
	patients := []Patient{
		{FullName: "Ngô Thị Hạnh", Email: "hanhngo@example.com", Phone: "0909090909", DateOfBirth: "1995-05-10", Address: "Hà Nội"},
		{FullName: "Phạm Văn Long", Email: "longpham@example.com", Phone: "0988989898", DateOfBirth: "1990-11-20", Address: "TP.HCM"},
		{FullName: "Trần Văn Bình", Email: "binh@example.com", Phone: "0388989898", DateOfBirth: "2003-08-16", Address: "TP.DNẵng"},
		{FullName: "Huỳnh Thị Mai", Email: "hinhh@example.com", Phone: "0188989898", DateOfBirth: "2001-08-16", Address: "TP.DNẵng"},
		{FullName: "Nguyễn Văn Dũng", Email: "dung@example.com", Phone: "0388989898", DateOfBirth: "2000-08-12", Address: "TP.HCM"},
	}

	for _, patient := range patients {
		var existing Patient
		err := db.Where("email = ?", patient.Email).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		if err := db.Create(&patient).Error; err != nil {
			return fmt.Errorf("failed to seed patient %s: %w", patient.FullName, err)
		}
	}
	return nil
}

// SeedNotificationSettings creates default preference rows for every seeded
// patient that does not have one yet.
func SeedNotificationSettings(db *gorm.DB) error {
	var patients []Patient
	if err := db.Find(&patients).Error; err != nil {
		return err
	}

	for _, patient := range patients {
		var existing NotificationSettings
		err := db.Where("patient_id = ?", patient.ID).First(&existing).Error
		if err == nil {
			continue
		}
		if err != gorm.ErrRecordNotFound {
			return err
		}
		settings := DefaultNotificationSettings(patient.ID)
		if err := db.Create(&settings).Error; err != nil {
			return fmt.Errorf("failed to seed notification settings for patient %d: %w", patient.ID, err)
		}
	}
	return nil
}
