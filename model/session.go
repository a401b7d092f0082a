package model

import (
	"time"

	"gorm.io/gorm"
)

// Session records an issued session token for a staff account. The identity
// middleware resolves the session-token header against this table so handlers
// never assume a fixed actor id.
type Session struct {
	gorm.Model
	StaffID      uint      `json:"staff_id" gorm:"column:staff_id;not null;index" example:"1"`
	SessionToken string    `json:"session_token" gorm:"column:session_token;size:512;uniqueIndex" example:"eyJhbGciOiJIUzI1NiJ9..."`
	ExpiresAt    time.Time `json:"expires_at" gorm:"column:expires_at;not null"`
	IP           string    `json:"ip" gorm:"column:ip;size:45"`
	UserAgent    string    `json:"user_agent" gorm:"column:user_agent;size:512"`
}
