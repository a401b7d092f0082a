package middleware

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/clinicconnect/clinic-api/config"
	"github.com/clinicconnect/clinic-api/util"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Context keys set by the identity middleware.
const (
	DBKey      = "db"
	StaffIDKey = "staff_id"
	RoleKey    = "staff_role"
)

func setCorsHeaders(c *gin.Context) {
	c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
	c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE, PATCH, PUT")
	c.Writer.Header().Set("Access-Control-Allow-Headers", "X-Requested-With, Content-Type, Authorization, session-token")
	c.Writer.Header().Set("Access-Control-Max-Age", "86400")
	c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
	c.Writer.Header().Set("Content-Type", "application/json")
}

// CORSMiddleware configures CORS headers for incoming requests.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		setCorsHeaders(c)

		// For preflight requests, respond with 204 and abort further processing.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// DatabaseMiddleware stores the shared *gorm.DB in the request context so
// handlers retrieve it via GetDB instead of opening their own connections.
func DatabaseMiddleware(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(DBKey, db)
		c.Next()
	}
}

// GetDB returns the *gorm.DB injected by DatabaseMiddleware, or nil.
func GetDB(c *gin.Context) *gorm.DB {
	val, exists := c.Get(DBKey)
	if !exists {
		return nil
	}
	db, ok := val.(*gorm.DB)
	if !ok {
		return nil
	}
	return db
}

// tokenValidator checks the Authorization header against the expected API
// token. OPTIONS requests bypass validation. On mismatch it writes a 401 and
// returns false.
func tokenValidator(c *gin.Context, expected string) bool {
	if c.Request.Method == http.MethodOptions {
		return true
	}
	if c.GetHeader("Authorization") == expected {
		return true
	}
	util.CallUserNotAuthorized(c, util.APIErrorParams{
		Msg: "Invalid API token",
		Err: fmt.Errorf("authorization header mismatch"),
	})
	c.Abort()
	return false
}

// APITokenRequired gates routes behind the static APITOKEN env value.
// When APITOKEN is unset the middleware is a no-op.
func APITokenRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := os.Getenv("APITOKEN")
		if token == "" {
			c.Next()
			return
		}
		if !tokenValidator(c, "Bearer "+token) {
			return
		}
		c.Next()
	}
}

// resolveSessionFromRedis looks up "session:<token>" in Redis where the value
// is stored as "<staffID>:<role>". Returns (0, "", false) when unavailable.
func resolveSessionFromRedis(token string) (uint, string, bool) {
	rdb := config.GetRedisClient()
	if rdb == nil {
		return 0, "", false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	val, err := rdb.Get(ctx, fmt.Sprintf("session:%s", token)).Result()
	if err != nil {
		return 0, "", false
	}
	parts := strings.SplitN(val, ":", 2)
	if len(parts) != 2 {
		return 0, "", false
	}
	staffID, err := strconv.ParseUint(parts[0], 10, 64)
	if err != nil || staffID == 0 {
		return 0, "", false
	}
	return uint(staffID), parts[1], true
}

// resolveSessionFromDB falls back to the sessions table when Redis is not
// available or has no entry for the token.
func resolveSessionFromDB(db *gorm.DB, token string) (uint, string, error) {
	var result struct {
		StaffID uint
		Role    string
	}
	err := db.Table("sessions").
		Select("sessions.staff_id, staff.role").
		Joins("JOIN staff ON staff.id = sessions.staff_id").
		Where("sessions.session_token = ? AND sessions.expires_at > ? AND sessions.deleted_at IS NULL", token, time.Now()).
		Scan(&result).Error
	if err != nil {
		return 0, "", err
	}
	if result.StaffID == 0 {
		return 0, "", gorm.ErrRecordNotFound
	}
	return result.StaffID, result.Role, nil
}

// ValidateLoginToken requires a valid staff session token on the request.
// Identity is resolved from Redis first, then the sessions table, and stored
// in the context under StaffIDKey/RoleKey.
func ValidateLoginToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("session-token")
		if token == "" {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Session token is missing in 'session-token' header",
				Err: fmt.Errorf("session token is empty"),
			})
			c.Abort()
			return
		}

		if staffID, role, ok := resolveSessionFromRedis(token); ok {
			c.Set(StaffIDKey, staffID)
			c.Set(RoleKey, role)
			c.Next()
			return
		}

		db := GetDB(c)
		if db == nil {
			util.CallServerError(c, util.APIErrorParams{
				Msg: "Database connection not available",
				Err: fmt.Errorf("db is nil"),
			})
			c.Abort()
			return
		}

		staffID, role, err := resolveSessionFromDB(db, token)
		if err != nil {
			util.CallUserNotAuthorized(c, util.APIErrorParams{
				Msg: "Session not found or has expired",
				Err: fmt.Errorf("invalid session token"),
			})
			c.Abort()
			return
		}

		c.Set(StaffIDKey, staffID)
		c.Set(RoleKey, role)
		c.Next()
	}
}

// AttachIdentity resolves the session token when present but never aborts.
// It exists so open booking endpoints still carry actor identity into the
// audit log when the caller is a logged-in staff member.
func AttachIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("session-token")
		if token == "" {
			c.Next()
			return
		}
		if staffID, role, ok := resolveSessionFromRedis(token); ok {
			c.Set(StaffIDKey, staffID)
			c.Set(RoleKey, role)
			c.Next()
			return
		}
		if db := GetDB(c); db != nil {
			if staffID, role, err := resolveSessionFromDB(db, token); err == nil {
				c.Set(StaffIDKey, staffID)
				c.Set(RoleKey, role)
			}
		}
		c.Next()
	}
}

// GetStaffID returns the staff id resolved by the identity middleware.
func GetStaffID(c *gin.Context) (uint, bool) {
	val, exists := c.Get(StaffIDKey)
	if !exists {
		return 0, false
	}
	id, ok := val.(uint)
	return id, ok
}

// GetStaffRole returns the staff role resolved by the identity middleware.
func GetStaffRole(c *gin.Context) (string, bool) {
	val, exists := c.Get(RoleKey)
	if !exists {
		return "", false
	}
	role, ok := val.(string)
	return role, ok
}
