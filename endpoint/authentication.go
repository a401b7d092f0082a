package endpoint

import (
	"context"
	"fmt"
	"time"

	"github.com/clinicconnect/clinic-api/config"
	"github.com/clinicconnect/clinic-api/middleware"
	"github.com/clinicconnect/clinic-api/model"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"frontdesk@clinic.com"`
	Password string `json:"password" binding:"required" example:"password123"`
}

type LoginResponse struct {
	Token   string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	Role    string `json:"role" example:"receptionist"`
	StaffID uint   `json:"staff_id" example:"1"`
}

// Login godoc
// @Summary      Staff login
// @Description  Authenticate a staff account with email and password
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Param        request body LoginRequest true "Login credentials"
// @Success      200 {object} util.APIResponse{data=LoginResponse} "Login successful"
// @Failure      400 {object} util.APIResponse "Invalid email or password"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /login [post]
func Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSONOrRespond(c, &req, "Invalid request payload") {
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	ci := clientInfo{IP: c.ClientIP(), Agent: c.Request.UserAgent()}
	ctx := loginContext{C: c, DB: db, Email: req.Email, CI: ci}

	staff, ok := loadStaffForLogin(ctx)
	if !ok {
		return
	}

	if !verifyPasswordOrRespond(ctx, &staff, req.Password) {
		return
	}

	finalizeLogin(ctx, &staff)
}

// helper types and functions to simplify Login flow
type clientInfo struct {
	IP    string
	Agent string
}

type loginContext struct {
	C     *gin.Context
	DB    *gorm.DB
	Email string
	CI    clientInfo
}

func loadStaffForLogin(ctx loginContext) (model.Staff, bool) {
	var staff model.Staff
	err := ctx.DB.Where("email = ?", ctx.Email).First(&staff).Error
	if err == gorm.ErrRecordNotFound {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "staff account not found")
		util.CallUserError(ctx.C, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("staff not found")})
		return model.Staff{}, false
	}
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "database error")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Database error", Err: err})
		return model.Staff{}, false
	}
	return staff, true
}

func verifyPasswordOrRespond(ctx loginContext, staff *model.Staff, plain string) bool {
	match, err := util.VerifyPassword(plain, staff.Password, staff.PasswordSalt)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "password verification error")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Password verification failed", Err: err})
		return false
	}
	if !match {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "invalid password")
		util.CallUserError(ctx.C, util.APIErrorParams{Msg: "Invalid email or password", Err: fmt.Errorf("invalid password")})
		return false
	}
	return true
}

func createJWTToken(staff model.Staff) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"email": staff.Email,
		"exp":   time.Now().Add(time.Hour * 8).Unix(),
		"role":  staff.Role,
	})
	return token.SignedString(util.GetJWTSecretByte())
}

func recordSession(db *gorm.DB, staff model.Staff, token string, ci clientInfo, expires time.Time) (model.Session, error) {
	session := model.Session{
		StaffID:      staff.ID,
		SessionToken: token,
		ExpiresAt:    expires,
		IP:           ci.IP,
		UserAgent:    ci.Agent,
	}
	err := db.Create(&session).Error
	return session, err
}

func finalizeLogin(ctx loginContext, staff *model.Staff) {
	tokenString, err := createJWTToken(*staff)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "token generation failed")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Could not generate token", Err: err})
		return
	}

	expires := time.Now().Add(time.Hour * 8)
	session, err := recordSession(ctx.DB, *staff, tokenString, ctx.CI, expires)
	if err != nil {
		util.LogLoginFailure(ctx.Email, ctx.CI.IP, ctx.CI.Agent, "session creation failed")
		util.CallServerError(ctx.C, util.APIErrorParams{Msg: "Failed to record session", Err: err})
		return
	}

	// Mirror the session into Redis so the identity middleware can resolve
	// tokens without a DB round trip (best-effort).
	if rdb := config.GetRedisClient(); rdb != nil {
		exp := time.Until(session.ExpiresAt)
		val := fmt.Sprintf("%d:%s", staff.ID, staff.Role)
		_ = rdb.Set(context.Background(), fmt.Sprintf("session:%s", tokenString), val, exp).Err()
		_ = util.AddSessionToStaffSet(staff.ID, tokenString)
	}

	util.LogLoginSuccess(staff.ID, staff.Email, ctx.CI.IP, ctx.CI.Agent)
	util.CallSuccessOK(ctx.C, util.APISuccessParams{
		Msg:  "Login successful",
		Data: LoginResponse{Token: tokenString, Role: staff.Role, StaffID: staff.ID},
	})
}

// Logout godoc
// @Summary      Staff logout
// @Description  Invalidate the staff session token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse "Logout successful"
// @Failure      400 {object} util.APIResponse "Session not found"
// @Failure      401 {object} util.APIResponse "Session token not provided"
// @Failure      500 {object} util.APIResponse "Server error"
// @Router       /logout [delete]
func Logout(c *gin.Context) {
	sessionToken := c.GetHeader("session-token")
	if sessionToken == "" {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Session token not provided",
			Err: fmt.Errorf("session token not provided"),
		})
		c.Abort()
		return
	}

	db, ok := getDBOrRespond(c)
	if !ok {
		return
	}

	var session model.Session
	if err := db.Where("session_token = ?", sessionToken).First(&session).Error; err != nil {
		util.CallUserError(c, util.APIErrorParams{
			Msg: "Session not found",
			Err: err,
		})
		return
	}

	var staff model.Staff
	if err := db.First(&staff, session.StaffID).Error; err == nil {
		util.LogSecurityEvent(util.SecurityEvent{
			EventType: util.EventLogout,
			UserID:    fmt.Sprintf("%d", staff.ID),
			Email:     staff.Email,
			IP:        c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
			Message:   "Staff logged out",
		})
	}

	if err := db.Where("session_token = ?", sessionToken).Delete(&session).Error; err != nil {
		util.CallServerError(c, util.APIErrorParams{
			Msg: "Failed to delete session",
			Err: err,
		})
		return
	}

	if rdb := config.GetRedisClient(); rdb != nil {
		_ = rdb.Del(context.Background(), fmt.Sprintf("session:%s", sessionToken)).Err()
		_ = util.RemoveSessionTokenFromStaffSet(session.StaffID, sessionToken)
	}

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg: "Logout successful",
	})
}

// WhoAmI godoc
// @Summary      Current staff identity
// @Description  Return the staff id and role resolved from the session token
// @Tags         Authentication
// @Accept       json
// @Produce      json
// @Security     SessionToken
// @Success      200 {object} util.APIResponse{data=object} "Identity resolved"
// @Failure      401 {object} util.APIResponse "Not authenticated"
// @Router       /whoami [get]
func WhoAmI(c *gin.Context) {
	staffID, ok := middleware.GetStaffID(c)
	if !ok {
		util.CallUserNotAuthorized(c, util.APIErrorParams{
			Msg: "Not authenticated",
			Err: fmt.Errorf("staff id not found in context"),
		})
		return
	}
	role, _ := middleware.GetStaffRole(c)

	util.CallSuccessOK(c, util.APISuccessParams{
		Msg:  "Identity resolved",
		Data: map[string]interface{}{"staff_id": staffID, "role": role},
	})
}
