package models

import (
	"time"
)

// StaffToken is a dashboard credential issued to one staff email.
type StaffToken struct {
	Token           string    `json:"token"`
	Email           string    `json:"email"`
	RequestCount    int       `json:"request_count"`
	LastRequestTime time.Time `json:"last_request_dttm_utc"`
	CreatedTime     time.Time `json:"created_dttm_utc"`
}
