package endpoint

import (
	"fmt"
	"strconv"

	"github.com/clinicconnect/clinic-api/middleware"
	"github.com/clinicconnect/clinic-api/notify"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// notifier is the queue appointment lifecycle handlers enqueue emails on.
// Wired from main at startup; tests install a recording dispatcher.
var notifier *notify.Queue

// SetNotifier installs the notification queue used after lifecycle commits.
func SetNotifier(q *notify.Queue) {
	notifier = q
}

func bindJSONOrRespond(c *gin.Context, dst interface{}, msg string) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		util.CallUserError(c, util.APIErrorParams{Msg: msg, Err: err})
		return false
	}
	return true
}

func getDBOrRespond(c *gin.Context) (*gorm.DB, bool) {
	db := middleware.GetDB(c)
	if db == nil {
		util.CallServerError(c, util.APIErrorParams{Msg: "Database connection not available", Err: fmt.Errorf("db is nil")})
		return nil, false
	}
	return db, true
}

// parseIDParam reads a positive integer path parameter, responding 400 when
// it is missing or malformed.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	if raw == "" {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Missing %s", name),
			Err: fmt.Errorf("%s is required", name),
		})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		util.CallUserError(c, util.APIErrorParams{
			Msg: fmt.Sprintf("Invalid %s", name),
			Err: fmt.Errorf("%s must be a positive integer", name),
		})
		return 0, false
	}
	return uint(id), true
}
