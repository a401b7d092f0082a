package endpoint

import (
	"fmt"

	"github.com/clinicconnect/clinic-api/model"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
)

// GetAvailableSlots godoc
// @Summary      List available time slots
// @Description  Get the open appointment slots for a doctor on a given date
// @Tags         Availability
// @Accept       json
// @Produce      json
// @Param        doctorId path int true "Doctor ID"
// @Param        date path string true "Date (YYYY-MM-DD)"
// @Success      200 {object} util.APIResponse{data=object} "Available slots retrieved"
// @Failure      400 {object} util.APIResponse "Invalid doctor ID or date"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /appointments/available-slots/{doctorId}/{date} [get]
func GetAvailableSlots(c *gin.Context) {
	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	doctorID, ok := parseIDParam(c, "doctorId")
	if !ok {
		return
	}

	date := c.Param("date")
	if !util.ValidDate(date) {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Invalid date, expected YYYY-MM-DD",
			Err: fmt.Errorf("bad date %q", date),
		})
		return
	}

	slots, err := model.AvailableSlots(db, doctorID, date)
	if err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to retrieve available slots",
			Err: err,
		})
		return
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Available slots retrieved",
		Data: map[string]interface{}{
			"doctor_id":       doctorID,
			"date":            date,
			"available_slots": slots,
		},
	})
}
