package endpoint

import (
	"time"

	"github.com/clinicconnect/clinic-api/model"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ListDoctors godoc
// @Summary      List all doctors
// @Description  Get the clinic's doctor roster
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Success      200 {object} util.APIResponse{data=object} "Doctors retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctors [get]
func ListDoctors(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var doctors []model.Doctor
	if err := db.Order("doctors.id ASC").Find(&doctors).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve doctors",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctors retrieved",
		Data: map[string]interface{}{"total": len(doctors), "doctors": doctors},
	})
}

func getDoctorByID(c *gin.Context, db *gorm.DB) (model.Doctor, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return model.Doctor{}, false
	}

	var doctor model.Doctor
	if err := db.First(&doctor, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Doctor not found",
				Err: err,
			})
			return model.Doctor{}, false
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve doctor",
			Err: err,
		})
		return model.Doctor{}, false
	}
	return doctor, true
}

// GetDoctorInfo godoc
// @Summary      Get doctor information
// @Description  Get detailed information about a specific doctor
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=model.Doctor} "Doctor retrieved"
// @Failure      400 {object} util.APIResponse "Invalid doctor ID"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctors/{id} [get]
func GetDoctorInfo(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctor, ok := getDoctorByID(c, db)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor retrieved",
		Data: doctor,
	})
}

// GetDoctorStats godoc
// @Summary      Get doctor workload statistics
// @Description  Today's appointment count, pending confirmations, and distinct patients seen
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=model.DoctorStats} "Stats retrieved"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctors/{id}/stats [get]
func GetDoctorStats(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctor, ok := getDoctorByID(c, db)
	if !ok {
		return
	}

	today := time.Now().Format("2006-01-02")
	stats := model.DoctorStats{Doctor: doctor}

	if err := db.Model(&model.Appointment{}).
		Where("doctor_id = ? AND date = ? AND status <> ?", doctor.ID, today, model.StatusCancelled).
		Count(&stats.TodayAppointments).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to compute stats", Err: err})
		return
	}
	if err := db.Model(&model.Appointment{}).
		Where("doctor_id = ? AND status = ?", doctor.ID, model.StatusPending).
		Count(&stats.PendingAppointments).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to compute stats", Err: err})
		return
	}
	if err := db.Model(&model.Appointment{}).
		Where("doctor_id = ?", doctor.ID).
		Distinct("patient_id").
		Count(&stats.TotalPatients).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to compute stats", Err: err})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Doctor stats retrieved",
		Data: stats,
	})
}

// ListDoctorPatients godoc
// @Summary      List a doctor's patients
// @Description  Distinct patients who have an appointment with the doctor
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctors/{id}/patients [get]
func ListDoctorPatients(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctor, ok := getDoctorByID(c, db)
	if !ok {
		return
	}

	var patients []model.Patient
	err := db.Table("patients").
		Joins("JOIN appointments ON appointments.patient_id = patients.id").
		Where("appointments.doctor_id = ? AND patients.deleted_at IS NULL", doctor.ID).
		Distinct("patients.*").
		Find(&patients).Error
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve doctor's patients",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": len(patients), "patients": patients},
	})
}

// ListPendingConfirmations godoc
// @Summary      List pending confirmations for a doctor
// @Description  Appointments awaiting the doctor's confirmation
// @Tags         Doctor
// @Accept       json
// @Produce      json
// @Param        id path int true "Doctor ID"
// @Success      200 {object} util.APIResponse{data=object} "Pending appointments retrieved"
// @Failure      404 {object} util.APIResponse "Doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /doctors/{id}/pending-confirmations [get]
func ListPendingConfirmations(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctor, ok := getDoctorByID(c, db)
	if !ok {
		return
	}

	appointments, err := fetchAppointmentsWithDetails(db, appointmentFilter{
		DoctorID: doctor.ID,
		Status:   model.StatusPending,
	})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve pending confirmations",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Pending confirmations retrieved",
		Data: map[string]interface{}{"total": len(appointments), "appointments": appointments},
	})
}
