package model

import "gorm.io/gorm"

// NotificationSettings holds a patient's notification preferences. The row is
// created lazily on the first preference update with the defaults below.
// @Description Notification preference flags for a patient
type NotificationSettings struct {
	gorm.Model
	PatientID    uint `json:"patient_id" gorm:"column:patient_id;not null;uniqueIndex" example:"1"`
	EmailEnabled bool `json:"email_enabled" gorm:"column:email_enabled;default:true" example:"true"`
	SMSEnabled   bool `json:"sms_enabled" gorm:"column:sms_enabled;default:false" example:"false"`
	PushEnabled  bool `json:"push_enabled" gorm:"column:push_enabled;default:true" example:"true"`
}

// DefaultNotificationSettings returns the settings applied when a patient has
// never touched their preferences.
func DefaultNotificationSettings(patientID uint) NotificationSettings {
	return NotificationSettings{
		PatientID:    patientID,
		EmailEnabled: true,
		SMSEnabled:   false,
		PushEnabled:  true,
	}
}

// EmailEnabledForPatient reports whether confirmation/cancellation emails may
// be sent to the patient. Absent settings fall back to the default (enabled).
func EmailEnabledForPatient(db *gorm.DB, patientID uint) (bool, error) {
	var settings NotificationSettings
	err := db.Where("patient_id = ?", patientID).First(&settings).Error
	if err == gorm.ErrRecordNotFound {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return settings.EmailEnabled, nil
}
