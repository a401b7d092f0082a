package endpoint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clinicconnect/clinic-api/model"
	"github.com/clinicconnect/clinic-api/notify"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrSlotTaken aborts a booking or reschedule transaction when another
// non-cancelled appointment holds the target slot.
var ErrSlotTaken = errors.New("slot already taken")

// appointmentFilter narrows the appointment listing queries. Zero values are
// ignored, so callers only set the dimensions they actually filter on.
type appointmentFilter struct {
	DoctorID  uint
	PatientID uint
	Date      string
	StartDate string
	EndDate   string
	Status    string
	Keyword   string
}

func fetchAppointmentsWithDetails(db *gorm.DB, filter appointmentFilter) ([]model.AppointmentWithDetails, error) {
	query := db.Table("appointments").
		Select(`appointments.*,
			patients.full_name AS patient_name,
			patients.email AS patient_email,
			patients.phone AS patient_phone,
			doctors.name AS doctor_name,
			doctors.specialty AS specialty,
			doctors.email AS doctor_email`).
		Joins("LEFT JOIN patients ON patients.id = appointments.patient_id").
		Joins("LEFT JOIN doctors ON doctors.id = appointments.doctor_id").
		Where("appointments.deleted_at IS NULL")

	if filter.DoctorID != 0 {
		query = query.Where("appointments.doctor_id = ?", filter.DoctorID)
	}
	if filter.PatientID != 0 {
		query = query.Where("appointments.patient_id = ?", filter.PatientID)
	}
	if filter.Date != "" {
		query = query.Where("appointments.date = ?", filter.Date)
	}
	if filter.StartDate != "" && filter.EndDate != "" {
		query = query.Where("appointments.date BETWEEN ? AND ?", filter.StartDate, filter.EndDate)
	}
	if filter.Status != "" {
		query = query.Where("appointments.status = ?", filter.Status)
	}
	if filter.Keyword != "" {
		kw := "%" + filter.Keyword + "%"
		query = query.Where("patients.full_name LIKE ? OR doctors.name LIKE ? OR appointments.type LIKE ?", kw, kw, kw)
	}

	var appointments []model.AppointmentWithDetails
	err := query.Order("appointments.date ASC, appointments.time ASC").Scan(&appointments).Error
	return appointments, err
}

func listAppointmentsResponse(c *gin.Context, appointments []model.AppointmentWithDetails) {
	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointments retrieved",
		Data: map[string]interface{}{"total": len(appointments), "appointments": appointments},
	})
}

// ListAppointments godoc
// @Summary      List appointments
// @Description  Get appointments with optional date, date range, status, and keyword filters
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        date query string false "Exact date filter (YYYY-MM-DD)"
// @Param        startDate query string false "Range start (YYYY-MM-DD), requires endDate"
// @Param        endDate query string false "Range end (YYYY-MM-DD), requires startDate"
// @Param        week query string false "Reference date whose Sunday-Saturday week is used as a range"
// @Param        status query string false "Status filter: pending, confirmed, or cancelled"
// @Param        keyword query string false "Search keyword for patient name, doctor name, or appointment type"
// @Success      200 {object} util.APIResponse{data=object} "Appointments retrieved"
// @Failure      400 {object} util.APIResponse "Invalid filter"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments [get]
func ListAppointments(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	filter, ok := buildListFilter(c)
	if !ok {
		return
	}

	appointments, err := fetchAppointmentsWithDetails(db, filter)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve appointments",
			Err: err,
		})
		return
	}
	listAppointmentsResponse(c, appointments)
}

func buildListFilter(c *gin.Context) (appointmentFilter, bool) {
	filter := appointmentFilter{
		Status:  c.Query("status"),
		Keyword: c.Query("keyword"),
	}

	if filter.Status != "" && !model.ValidStatus(filter.Status) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid status filter",
			Err: fmt.Errorf("unknown status %q", filter.Status),
		})
		return filter, false
	}

	if date := c.Query("date"); date != "" {
		if !util.ValidDate(date) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid date filter, expected YYYY-MM-DD",
				Err: fmt.Errorf("bad date %q", date),
			})
			return filter, false
		}
		filter.Date = date
		return filter, true
	}

	if week := c.Query("week"); week != "" {
		start, end, err := util.WeekRange(week)
		if err != nil {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid week filter, expected YYYY-MM-DD",
				Err: err,
			})
			return filter, false
		}
		filter.StartDate = start
		filter.EndDate = end
		return filter, true
	}

	startDate, endDate := c.Query("startDate"), c.Query("endDate")
	if startDate != "" || endDate != "" {
		if !util.ValidDate(startDate) || !util.ValidDate(endDate) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Invalid date range, expected startDate and endDate as YYYY-MM-DD",
				Err: fmt.Errorf("bad range %q..%q", startDate, endDate),
			})
			return filter, false
		}
		filter.StartDate = startDate
		filter.EndDate = endDate
	}
	return filter, true
}

// ListAppointmentsByDoctor godoc
// @Summary      List a doctor's appointments
// @Description  Get appointments for a specific doctor, optionally filtered by date or range
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        doctorId path int true "Doctor ID"
// @Param        date query string false "Exact date filter (YYYY-MM-DD)"
// @Param        startDate query string false "Range start (YYYY-MM-DD)"
// @Param        endDate query string false "Range end (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=object} "Appointments retrieved"
// @Failure      400 {object} util.APIResponse "Invalid filter"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments/doctor/{doctorId} [get]
func ListAppointmentsByDoctor(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctorID, ok := parseIDParam(c, "doctorId")
	if !ok {
		return
	}

	filter, ok := buildListFilter(c)
	if !ok {
		return
	}
	filter.DoctorID = doctorID

	appointments, err := fetchAppointmentsWithDetails(db, filter)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve appointments",
			Err: err,
		})
		return
	}
	listAppointmentsResponse(c, appointments)
}

// ListAppointmentsByPatient godoc
// @Summary      List a patient's appointments
// @Description  Get all appointments booked for a specific patient
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        patientId path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=object} "Appointments retrieved"
// @Failure      400 {object} util.APIResponse "Invalid patient ID"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments/patient/{patientId} [get]
func ListAppointmentsByPatient(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	patientID, ok := parseIDParam(c, "patientId")
	if !ok {
		return
	}

	appointments, err := fetchAppointmentsWithDetails(db, appointmentFilter{PatientID: patientID})
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve appointments",
			Err: err,
		})
		return
	}
	listAppointmentsResponse(c, appointments)
}

type createAppointmentRequest struct {
	PatientID uint   `json:"patient_id" example:"1"`
	DoctorID  uint   `json:"doctor_id" example:"1"`
	Date      string `json:"date" example:"2026-09-15"`
	Time      string `json:"time" example:"09:00"`
	Type      string `json:"type" example:"Khám tổng quát"`
	Reason    string `json:"reason,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

func validateCreateAppointment(req createAppointmentRequest) map[string]string {
	fields := map[string]string{}
	if req.PatientID == 0 {
		fields["patient_id"] = "patient_id is required"
	}
	if req.DoctorID == 0 {
		fields["doctor_id"] = "doctor_id is required"
	}
	if !util.ValidDate(req.Date) {
		fields["date"] = "date must be YYYY-MM-DD"
	}
	if !slotInCatalog(req.Time) {
		fields["time"] = "time must be one of the clinic's appointment slots"
	}
	if strings.TrimSpace(req.Type) == "" {
		fields["type"] = "type is required"
	}
	return fields
}

func slotInCatalog(slot string) bool {
	for _, s := range model.TimeSlotCatalog {
		if s == slot {
			return true
		}
	}
	return false
}

// CreateAppointment godoc
// @Summary      Book an appointment
// @Description  Book a pending appointment for a patient with a doctor on a valid time slot
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        request body createAppointmentRequest true "Appointment details"
// @Success      201 {object} util.APIResponse{data=model.Appointment} "Appointment booked"
// @Failure      400 {object} util.APIResponse "Invalid request or slot already taken"
// @Failure      404 {object} util.APIResponse "Patient or doctor not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments [post]
func CreateAppointment(c *gin.Context) {
	var req createAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	if fields := validateCreateAppointment(req); len(fields) > 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg:    "Appointment payload is invalid",
			Err:    fmt.Errorf("invalid payload"),
			Fields: fields,
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, req.PatientID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Patient not found",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to verify patient", Err: err})
		return
	}

	var doctor model.Doctor
	if err := db.First(&doctor, req.DoctorID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Doctor not found",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{Msg: "Failed to verify doctor", Err: err})
		return
	}

	appointment := model.Appointment{
		PatientID: req.PatientID,
		DoctorID:  req.DoctorID,
		Date:      req.Date,
		Time:      req.Time,
		Type:      strings.TrimSpace(req.Type),
		Status:    model.StatusPending,
		Reason:    req.Reason,
		Notes:     req.Notes,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Re-check the slot inside the transaction so two concurrent bookings
		// cannot both pass the availability check.
		taken, err := model.SlotTaken(tx, req.DoctorID, req.Date, req.Time, 0)
		if err != nil {
			return err
		}
		if taken {
			return ErrSlotTaken
		}
		return tx.Create(&appointment).Error
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "This time slot is already booked for the selected doctor",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to book appointment",
			Err: err,
		})
		return
	}

	util.LogAppointmentEvent(util.EventAppointmentBooked, appointment.ID, appointment.PatientID, appointment.DoctorID, c.ClientIP(),
		fmt.Sprintf("appointment booked for %s %s", appointment.Date, appointment.Time))

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Appointment booked",
		Data: appointment,
	})
}

func getAppointmentByID(c *gin.Context, db *gorm.DB) (model.Appointment, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return model.Appointment{}, false
	}

	var appointment model.Appointment
	if err := db.First(&appointment, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Appointment not found",
				Err: err,
			})
			return model.Appointment{}, false
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve appointment",
			Err: err,
		})
		return model.Appointment{}, false
	}
	return appointment, true
}

// enqueueConfirmationEmail sends the confirmation email for an appointment if
// the patient has email notifications enabled and a usable address.
func enqueueConfirmationEmail(db *gorm.DB, appointment model.Appointment) {
	if notifier == nil {
		return
	}

	enabled, err := model.EmailEnabledForPatient(db, appointment.PatientID)
	if err != nil || !enabled {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, appointment.PatientID).Error; err != nil || patient.Email == "" {
		return
	}
	var doctor model.Doctor
	if err := db.First(&doctor, appointment.DoctorID).Error; err != nil {
		return
	}

	notifier.EnqueueConfirmation(appointment.ID, notify.ConfirmationEmail{
		To:          patient.Email,
		PatientName: patient.FullName,
		DoctorName:  doctor.Name,
		Date:        appointment.Date,
		Time:        appointment.Time,
	})
}

func enqueueCancellationEmail(db *gorm.DB, appointment model.Appointment) {
	if notifier == nil {
		return
	}

	enabled, err := model.EmailEnabledForPatient(db, appointment.PatientID)
	if err != nil || !enabled {
		return
	}

	var patient model.Patient
	if err := db.First(&patient, appointment.PatientID).Error; err != nil || patient.Email == "" {
		return
	}
	var doctor model.Doctor
	if err := db.First(&doctor, appointment.DoctorID).Error; err != nil {
		return
	}

	notifier.EnqueueCancellation(appointment.ID, notify.CancellationEmail{
		To:          patient.Email,
		PatientName: patient.FullName,
		DoctorName:  doctor.Name,
		Date:        appointment.Date,
		Time:        appointment.Time,
		Reason:      appointment.Reason,
		Notes:       appointment.Notes,
	})
}

// ConfirmAppointment godoc
// @Summary      Confirm a pending appointment
// @Description  Transition an appointment from pending to confirmed and notify the patient
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment confirmed"
// @Failure      400 {object} util.APIResponse "Appointment is cancelled"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments/{id}/confirm [put]
func ConfirmAppointment(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appointment, ok := getAppointmentByID(c, db)
	if !ok {
		return
	}

	if appointment.Status == model.StatusCancelled {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Cancelled appointments cannot be confirmed",
			Err: fmt.Errorf("appointment %d is cancelled", appointment.ID),
		})
		return
	}

	// Re-confirming an already confirmed appointment is a no-op and must not
	// send another email.
	if appointment.Status == model.StatusConfirmed {
		util.CallSuccessOK(c, util.APISuccessParams{
			Msg:  "Appointment already confirmed",
			Data: appointment,
		})
		return
	}

	appointment.Status = model.StatusConfirmed
	if err := db.Save(&appointment).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to confirm appointment",
			Err: err,
		})
		return
	}

	util.LogAppointmentEvent(util.EventAppointmentConfirmed, appointment.ID, appointment.PatientID, appointment.DoctorID, c.ClientIP(),
		"appointment confirmed")
	enqueueConfirmationEmail(db, appointment)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment confirmed",
		Data: appointment,
	})
}

type updateAppointmentRequest struct {
	Date   string `json:"date,omitempty" example:"2026-09-16"`
	Time   string `json:"time,omitempty" example:"10:00"`
	Type   string `json:"type,omitempty"`
	Status string `json:"status,omitempty" example:"confirmed"`
	Reason string `json:"reason,omitempty"`
	Notes  string `json:"notes,omitempty"`
}

// UpdateAppointment godoc
// @Summary      Update or reschedule an appointment
// @Description  Patch appointment fields; changing date or time reschedules it back to pending after a slot check
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        id path int true "Appointment ID"
// @Param        request body updateAppointmentRequest true "Fields to update"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment updated"
// @Failure      400 {object} util.APIResponse "Invalid request or slot already taken"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments/{id} [patch]
func UpdateAppointment(c *gin.Context) {
	var req updateAppointmentRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	fields := map[string]string{}
	if req.Date != "" && !util.ValidDate(req.Date) {
		fields["date"] = "date must be YYYY-MM-DD"
	}
	if req.Time != "" && !slotInCatalog(req.Time) {
		fields["time"] = "time must be one of the clinic's appointment slots"
	}
	if req.Status != "" && !model.ValidStatus(req.Status) {
		fields["status"] = "status must be pending, confirmed, or cancelled"
	}
	if len(fields) > 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg:    "Appointment update is invalid",
			Err:    fmt.Errorf("invalid payload"),
			Fields: fields,
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appointment, ok := getAppointmentByID(c, db)
	if !ok {
		return
	}

	rescheduled := (req.Date != "" && req.Date != appointment.Date) ||
		(req.Time != "" && req.Time != appointment.Time)

	if req.Date != "" {
		appointment.Date = req.Date
	}
	if req.Time != "" {
		appointment.Time = req.Time
	}
	if req.Type != "" {
		appointment.Type = strings.TrimSpace(req.Type)
	}
	if req.Reason != "" {
		appointment.Reason = req.Reason
	}
	if req.Notes != "" {
		appointment.Notes = req.Notes
	}
	if req.Status != "" {
		appointment.Status = req.Status
	}

	// A reschedule moves the appointment back to pending unless the request
	// explicitly sets a status alongside the new slot.
	if rescheduled && req.Status == "" {
		appointment.Status = model.StatusPending
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		if rescheduled {
			taken, err := model.SlotTaken(tx, appointment.DoctorID, appointment.Date, appointment.Time, appointment.ID)
			if err != nil {
				return err
			}
			if taken {
				return ErrSlotTaken
			}
		}
		return tx.Save(&appointment).Error
	})
	if err != nil {
		if errors.Is(err, ErrSlotTaken) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "This time slot is already booked for the selected doctor",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update appointment",
			Err: err,
		})
		return
	}

	if rescheduled {
		util.LogAppointmentEvent(util.EventAppointmentRescheduled, appointment.ID, appointment.PatientID, appointment.DoctorID, c.ClientIP(),
			fmt.Sprintf("appointment rescheduled to %s %s", appointment.Date, appointment.Time))
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Appointment updated",
		Data: appointment,
	})
}

type cancelAppointmentRequest struct {
	Reason string `json:"reason,omitempty" example:"Bác sĩ ốm"`
	Notes  string `json:"notes,omitempty"`
}

func cancelAppointment(c *gin.Context, successMsg string) {
	var req cancelAppointmentRequest
	// The cancel body is optional; ignore bind errors from an empty body.
	_ = c.ShouldBindJSON(&req)

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	appointment, ok := getAppointmentByID(c, db)
	if !ok {
		return
	}

	alreadyCancelled := appointment.Status == model.StatusCancelled

	appointment.Status = model.StatusCancelled
	if req.Reason != "" {
		appointment.Reason = req.Reason
	}
	if req.Notes != "" {
		appointment.Notes = req.Notes
	}

	if err := db.Save(&appointment).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to cancel appointment",
			Err: err,
		})
		return
	}

	if !alreadyCancelled {
		util.LogAppointmentEvent(util.EventAppointmentCancelled, appointment.ID, appointment.PatientID, appointment.DoctorID, c.ClientIP(),
			"appointment cancelled")
		enqueueCancellationEmail(db, appointment)
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  successMsg,
		Data: appointment,
	})
}

// CancelAppointment godoc
// @Summary      Cancel an appointment
// @Description  Mark an appointment as cancelled, record the reason, and notify the patient
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        id path int true "Appointment ID"
// @Param        request body cancelAppointmentRequest false "Cancellation reason"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment cancelled"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments/{id}/cancel [post]
func CancelAppointment(c *gin.Context) {
	cancelAppointment(c, "Appointment cancelled")
}

// DeleteAppointment godoc
// @Summary      Delete an appointment
// @Description  Soft-cancel an appointment; history is preserved for reporting
// @Tags         Appointment
// @Accept       json
// @Produce      json
// @Param        id path int true "Appointment ID"
// @Success      200 {object} util.APIResponse{data=model.Appointment} "Appointment cancelled"
// @Failure      404 {object} util.APIResponse "Appointment not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments/{id} [delete]
func DeleteAppointment(c *gin.Context) {
	cancelAppointment(c, "Appointment cancelled")
}
