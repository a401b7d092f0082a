package endpoint

import (
	"errors"
	"fmt"
	"strings"

	"github.com/clinicconnect/clinic-api/model"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrPatientEmailExists aborts a create transaction when the email is
// already registered to another patient.
var ErrPatientEmailExists = errors.New("email already registered")

// ListPatients godoc
// @Summary      List all patients
// @Description  Get registered patients with optional keyword filtering
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        keyword query string false "Search keyword for patient name, email, or phone"
// @Success      200 {object} util.APIResponse{data=object} "Patients retrieved"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients [get]
func ListPatients(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	query := db.Order("patients.created_at DESC")
	if keyword := c.Query("keyword"); keyword != "" {
		kw := "%" + keyword + "%"
		query = query.Where("full_name LIKE ? OR email LIKE ? OR phone LIKE ?", kw, kw, kw)
	}

	var patients []model.Patient
	if err := query.Find(&patients).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patients",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patients retrieved",
		Data: map[string]interface{}{"total": len(patients), "patients": patients},
	})
}

type createPatientRequest struct {
	FullName    string `json:"full_name" example:"John Doe"`
	Email       string `json:"email" example:"john.doe@email.com"`
	Phone       string `json:"phone" example:"+1 (555) 123-4567"`
	DateOfBirth string `json:"date_of_birth,omitempty" example:"1988-03-15"`
	Address     string `json:"address,omitempty" example:"123 Main St"`
}

func validateCreatePatient(req createPatientRequest) map[string]string {
	fields := map[string]string{}
	if util.NormalizeName(req.FullName) == "" {
		fields["full_name"] = "full_name is required"
	}
	if strings.TrimSpace(req.Email) == "" {
		fields["email"] = "email is required"
	}
	if strings.TrimSpace(req.Phone) == "" {
		fields["phone"] = "phone is required"
	}
	if req.DateOfBirth != "" && !util.ValidDate(req.DateOfBirth) {
		fields["date_of_birth"] = "date_of_birth must be YYYY-MM-DD"
	}
	return fields
}

// CreatePatient godoc
// @Summary      Register a new patient
// @Description  Create a patient record; email must be unique
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        request body createPatientRequest true "Patient information"
// @Success      201 {object} util.APIResponse{data=model.Patient} "Patient created"
// @Failure      400 {object} util.APIResponse "Invalid request or email already registered"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients [post]
func CreatePatient(c *gin.Context) {
	var req createPatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	if fields := validateCreatePatient(req); len(fields) > 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg:    "Patient payload is missing required fields",
			Err:    fmt.Errorf("invalid payload"),
			Fields: fields,
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	patient := model.Patient{
		FullName:    util.NormalizeName(req.FullName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		DateOfBirth: req.DateOfBirth,
		Address:     req.Address,
	}

	err := db.Transaction(func(tx *gorm.DB) error {
		// Re-check email uniqueness inside the transaction to avoid race conditions.
		var existing model.Patient
		if err := tx.Where("email = ?", patient.Email).First(&existing).Error; err == nil {
			return ErrPatientEmailExists
		} else if err != gorm.ErrRecordNotFound {
			return err
		}
		return tx.Create(&patient).Error
	})
	if err != nil {
		if errors.Is(err, ErrPatientEmailExists) {
			util.CallUserError(c, util.APIErrorParams{
				Msg: "Patient already exists with this email",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to create patient",
			Err: err,
		})
		return
	}

	util.CallSuccessCreated(c, util.APISuccessParams{
		Msg:  "Patient created",
		Data: patient,
	})
}

func getPatientByID(c *gin.Context, db *gorm.DB) (model.Patient, bool) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return model.Patient{}, false
	}

	var patient model.Patient
	if err := db.First(&patient, id).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Patient not found",
				Err: err,
			})
			return model.Patient{}, false
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patient",
			Err: err,
		})
		return model.Patient{}, false
	}
	return patient, true
}

// GetPatientInfo godoc
// @Summary      Get patient information
// @Description  Get detailed information about a specific patient
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path int true "Patient ID"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient retrieved"
// @Failure      400 {object} util.APIResponse "Invalid patient ID"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/{id} [get]
func GetPatientInfo(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	patient, ok := getPatientByID(c, db)
	if !ok {
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: patient,
	})
}

// GetPatientByEmail godoc
// @Summary      Find a patient by email
// @Description  Look up a patient using their unique email address
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        email path string true "Patient email"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient retrieved"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/by-email/{email} [get]
func GetPatientByEmail(c *gin.Context) {
	email := c.Param("email")
	if email == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Missing patient email",
			Err: fmt.Errorf("email is required"),
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var patient model.Patient
	if err := db.Where("email = ?", email).First(&patient).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.CallErrorNotFound(c, util.APIErrorParams{
				Msg: "Patient not found",
				Err: err,
			})
			return
		}
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve patient",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient retrieved",
		Data: patient,
	})
}

// UpdatePatient godoc
// @Summary      Update patient information
// @Description  Update an existing patient's profile
// @Tags         Patient
// @Accept       json
// @Produce      json
// @Param        id path int true "Patient ID"
// @Param        request body model.UpdatePatientRequest true "Updated patient information"
// @Success      200 {object} util.APIResponse{data=model.Patient} "Patient updated"
// @Failure      400 {object} util.APIResponse "Invalid request"
// @Failure      404 {object} util.APIResponse "Patient not found"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /patients/{id} [put]
func UpdatePatient(c *gin.Context) {
	var req model.UpdatePatientRequest
	if !bindJSONOrRespond(c, &req, "Invalid request body") {
		return
	}

	if req.DateOfBirth != "" && !util.ValidDate(req.DateOfBirth) {
		util.CallUserError(c, util.APIErrorParams{
			Msg:    "Invalid patient data",
			Err:    fmt.Errorf("invalid date_of_birth"),
			Fields: map[string]string{"date_of_birth": "date_of_birth must be YYYY-MM-DD"},
		})
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	existingPatient, ok := getPatientByID(c, db)
	if !ok {
		return
	}

	// Merge provided fields into the stored record.
	if req.FullName != "" {
		existingPatient.FullName = util.NormalizeName(req.FullName)
	}
	if req.Email != "" {
		existingPatient.Email = strings.TrimSpace(req.Email)
	}
	if req.Phone != "" {
		existingPatient.Phone = strings.TrimSpace(req.Phone)
	}
	if req.DateOfBirth != "" {
		existingPatient.DateOfBirth = req.DateOfBirth
	}
	if req.Address != "" {
		existingPatient.Address = req.Address
	}

	if err := db.Save(&existingPatient).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to update patient",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Patient updated",
		Data: existingPatient,
	})
}
