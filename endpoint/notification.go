package endpoint

import (
	"github.com/clinicconnect/clinic-api/model"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetNotificationSettings godoc
// @Summary      Get a patient's notification settings
// @Description  Get the stored notification preferences for a patient
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Param        patientId path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.NotificationSettings} "Settings retrieved"
// @Failure      404 {object} util.APIResponse "No settings stored for this patient"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /notification-settings/{patientId} [get]
func GetNotificationSettings(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	patientID, ok := parseIDParam(c, "patientId")
	if !ok {
		return
	}

	var settings model.NotificationSettings
	if err := db.Where("patient_id = ?", patientID).First(&settings).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Notification settings not found",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve notification settings",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Notification settings retrieved",
		Data: settings,
	})
}

type updateNotificationSettingsRequest struct {
	EmailEnabled *bool `json:"email_enabled,omitempty"`
	SMSEnabled   *bool `json:"sms_enabled,omitempty"`
	PushEnabled  *bool `json:"push_enabled,omitempty"`
}

// UpdateNotificationSettings godoc
// @Summary      Update a patient's notification settings
// @Description  Upsert notification preferences; omitted fields keep their current value
// @Tags         Notification
// @Accept       json
// @Produce      json
// @Param        patientId path int true "Patient ID"
// @Param        request body updateNotificationSettingsRequest true "Preference changes"
// @Success      200 {object} util.APIResponse{data=model.NotificationSettings} "Settings updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /notification-settings/{patientId} [patch]
func UpdateNotificationSettings(c *gin.Context) {
	var req updateNotificationSettingsRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	patientID, ok := parseIDParam(c, "patientId")
	if !ok {
		return
	}

	// Upsert: missing rows start from the clinic defaults before the patch
	// is applied.
	settings := model.DefaultNotificationSettings(patientID)
	err := db.Where("patient_id = ?", patientID).First(&settings).Error
	if err != nil && err != gorm.ErrRecordNotFound {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve notification settings",
			Err: err,
		})
		return
	}

	if req.EmailEnabled != nil {
		settings.EmailEnabled = *req.EmailEnabled
	}
	if req.SMSEnabled != nil {
		settings.SMSEnabled = *req.SMSEnabled
	}
	if req.PushEnabled != nil {
		settings.PushEnabled = *req.PushEnabled
	}

	if err := db.Save(&settings).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update notification settings",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Notification settings updated",
		Data: settings,
	})
}
