package util

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/clinicconnect/clinic-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SecurityEventType represents different types of audited events
type SecurityEventType string

const (
	EventLoginSuccess           SecurityEventType = "LOGIN_SUCCESS"
	EventLoginFailure           SecurityEventType = "LOGIN_FAILURE"
	EventLogout                 SecurityEventType = "LOGOUT"
	EventAppointmentBooked      SecurityEventType = "APPOINTMENT_BOOKED"
	EventAppointmentConfirmed   SecurityEventType = "APPOINTMENT_CONFIRMED"
	EventAppointmentRescheduled SecurityEventType = "APPOINTMENT_RESCHEDULED"
	EventAppointmentCancelled   SecurityEventType = "APPOINTMENT_CANCELLED"
	EventEmailDispatched        SecurityEventType = "EMAIL_DISPATCHED"
	EventEmailFailed            SecurityEventType = "EMAIL_FAILED"
	EventRateLimitExceeded      SecurityEventType = "RATE_LIMIT_EXCEEDED"
	EventSuspiciousActivity     SecurityEventType = "SUSPICIOUS_ACTIVITY"
	EventEndpointCall           SecurityEventType = "ENDPOINT_CALL"
)

// SecurityEvent represents an audit event to be logged
type SecurityEvent struct {
	EventType SecurityEventType
	UserID    string
	Email     string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var securityLogger *log.Logger
var securityDB *gorm.DB

// SetSecurityLoggerDB sets a gorm DB instance used by the security logger.
// Call this during application startup (e.g. in main) after DB initialization.
func SetSecurityLoggerDB(db *gorm.DB) {
	securityDB = db
}

func init() {
	// Initialize security logger - in production, this could write to a separate file
	securityLogger = log.New(os.Stdout, "[SECURITY] ", log.LstdFlags|log.Lmsgprefix)
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	// Replace newlines, carriage returns, and tabs with spaces
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	// Truncate very long values to prevent log flooding
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogSecurityEvent logs an audit event
func LogSecurityEvent(event SecurityEvent) {
	// Sanitize all string fields to prevent log injection
	msg := fmt.Sprintf("Event=%s UserID=%s Email=%s IP=%s UserAgent=%s Message=%s",
		sanitizeLogValue(string(event.EventType)),
		sanitizeLogValue(event.UserID),
		sanitizeLogValue(event.Email),
		sanitizeLogValue(event.IP),
		sanitizeLogValue(event.UserAgent),
		sanitizeLogValue(event.Message),
	)

	if len(event.Details) > 0 {
		// Don't log Details map directly to avoid injection
		// Instead, log the count of details
		msg = fmt.Sprintf("%s DetailsCount=%d", msg, len(event.Details))
	}

	securityLogger.Println(msg)

	// Persist to DB if available (best-effort, do not fail operation)
	if securityDB != nil {
		var details datatypes.JSON
		if event.Details != nil {
			if b, err := json.Marshal(event.Details); err == nil {
				details = datatypes.JSON(b)
			}
		}

		// Attempt to resolve city/country for the IP (best-effort, local DB then cache)
		city, country := GetIPLocation(event.IP)
		var location string
		if city != "" && country != "" {
			location = fmt.Sprintf("%s/%s", city, country)
		} else if country != "" {
			location = country
		} else if city != "" {
			location = city
		}

		entry := model.SecurityLog{
			EventType: string(event.EventType),
			UserID:    event.UserID,
			Email:     sanitizeLogValue(event.Email),
			IP:        sanitizeLogValue(event.IP),
			Location:  sanitizeLogValue(location),
			UserAgent: sanitizeLogValue(event.UserAgent),
			Message:   sanitizeLogValue(event.Message),
			Details:   details,
		}

		// best-effort write; ignore errors but log them to stderr
		if err := securityDB.Create(&entry).Error; err != nil {
			securityLogger.Printf("Failed to persist security event: %v", err)
		}
	}
}

// LogLoginSuccess logs a successful staff login event
func LogLoginSuccess(staffID uint, email, ip, userAgent string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginSuccess,
		UserID:    fmt.Sprintf("%d", staffID),
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   "Staff logged in successfully",
	})
}

// LogLoginFailure logs a failed staff login attempt
func LogLoginFailure(email, ip, userAgent, reason string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventLoginFailure,
		Email:     email,
		IP:        ip,
		UserAgent: userAgent,
		Message:   fmt.Sprintf("Login failed: %s", reason),
	})
}

// LogAppointmentEvent logs a lifecycle transition of an appointment.
func LogAppointmentEvent(eventType SecurityEventType, appointmentID, patientID, doctorID uint, ip, message string) {
	LogSecurityEvent(SecurityEvent{
		EventType: eventType,
		UserID:    fmt.Sprintf("%d", patientID),
		IP:        ip,
		Message:   message,
		Details: map[string]interface{}{
			"appointment_id": appointmentID,
			"patient_id":     patientID,
			"doctor_id":      doctorID,
		},
	})
}

// LogEmailDispatched logs a successful notification email send
func LogEmailDispatched(recipient, kind string, appointmentID uint) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventEmailDispatched,
		Email:     recipient,
		Message:   fmt.Sprintf("%s email dispatched", kind),
		Details:   map[string]interface{}{"appointment_id": appointmentID},
	})
}

// LogEmailFailed logs a failed notification email send. Dispatch failures
// never fail the operation that triggered them.
func LogEmailFailed(recipient, kind string, appointmentID uint, err error) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventEmailFailed,
		Email:     recipient,
		Message:   fmt.Sprintf("%s email failed: %v", kind, err),
		Details:   map[string]interface{}{"appointment_id": appointmentID},
	})
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(email, ip, endpoint string) {
	LogSecurityEvent(SecurityEvent{
		EventType: EventRateLimitExceeded,
		Email:     email,
		IP:        ip,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", endpoint),
	})
}

// GetSecurityLoggerForTest returns the current security logger for testing purposes
func GetSecurityLoggerForTest() *log.Logger {
	return securityLogger
}

// SetSecurityLoggerForTest replaces the security logger for testing purposes
func SetSecurityLoggerForTest(logger *log.Logger) {
	securityLogger = logger
}
