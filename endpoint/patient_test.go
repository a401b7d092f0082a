package endpoint

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/clinicconnect/clinic-api/model"
	"github.com/stretchr/testify/assert"
)

func TestCreatePatient(t *testing.T) {
	r, db := setupEndpointTest(t)

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodPost,
		registerPath: "/patients",
		requestPath:  "/patients",
		handler:      CreatePatient,
		body: map[string]interface{}{
			"full_name": "  Nguyen   Van A ",
			"email":     "nguyenvana@email.com",
			"phone":     "0901234567",
		},
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusCreated)
	assert.True(t, response["success"].(bool))

	var stored model.Patient
	assert.NoError(t, db.Where("email = ?", "nguyenvana@email.com").First(&stored).Error)
	// Name whitespace is normalized on the way in.
	assert.Equal(t, "Nguyen Van A", stored.FullName)
}

func TestCreatePatientDuplicateEmail(t *testing.T) {
	r, db := setupEndpointTest(t)
	patient := createTestPatient(t, db)

	w, _, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodPost,
		registerPath: "/patients",
		requestPath:  "/patients",
		handler:      CreatePatient,
		body: map[string]interface{}{
			"full_name": "Someone Else",
			"email":     patient.Email,
			"phone":     "0907654321",
		},
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusBadRequest)
}

func TestCreatePatientMissingFields(t *testing.T) {
	r, _ := setupEndpointTest(t)

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodPost,
		registerPath: "/patients",
		requestPath:  "/patients",
		handler:      CreatePatient,
		body:         map[string]interface{}{"full_name": "No Contact"},
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusBadRequest)

	data := response["data"].(map[string]interface{})
	fields := data["fields"].(map[string]interface{})
	assert.Contains(t, fields, "email")
	assert.Contains(t, fields, "phone")
}

func TestGetPatientByEmail(t *testing.T) {
	r, db := setupEndpointTest(t)
	patient := createTestPatient(t, db)

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/patients/by-email/:email",
		requestPath:  fmt.Sprintf("/patients/by-email/%s", patient.Email),
		handler:      GetPatientByEmail,
	})
	assert.NoError(t, err)
	assertSuccessResponse(t, w, response)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, patient.FullName, data["full_name"])
}

func TestGetPatientNotFound(t *testing.T) {
	r, _ := setupEndpointTest(t)

	w, _, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/patients/:id",
		requestPath:  "/patients/9999",
		handler:      GetPatientInfo,
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusNotFound)
}

func TestUpdatePatientMergesFields(t *testing.T) {
	r, db := setupEndpointTest(t)
	patient := createTestPatient(t, db)

	w, _, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodPut,
		registerPath: "/patients/:id",
		requestPath:  fmt.Sprintf("/patients/%d", patient.ID),
		handler:      UpdatePatient,
		body:         map[string]interface{}{"address": "12 Le Loi, Da Nang"},
	})
	assert.NoError(t, err)
	assertStatus(t, w, http.StatusOK)

	var stored model.Patient
	assert.NoError(t, db.First(&stored, patient.ID).Error)
	assert.Equal(t, "12 Le Loi, Da Nang", stored.Address)
	// Omitted fields keep their stored values.
	assert.Equal(t, patient.FullName, stored.FullName)
	assert.Equal(t, patient.Phone, stored.Phone)
}

func TestListPatientsKeywordFilter(t *testing.T) {
	r, db := setupEndpointTest(t)
	assert.NoError(t, db.Create(&model.Patient{FullName: "Tran Thi B", Email: "tranthib@email.com", Phone: "0912"}).Error)
	assert.NoError(t, db.Create(&model.Patient{FullName: "Le Van C", Email: "levanc@email.com", Phone: "0913"}).Error)

	w, response, err := doRequestWithHandler(r, requestSpec{
		method:       http.MethodGet,
		registerPath: "/patients",
		requestPath:  "/patients?keyword=Tran",
		handler:      ListPatients,
	})
	assert.NoError(t, err)
	assertSuccessResponse(t, w, response)

	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["total"])
}
