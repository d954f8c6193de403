package entities

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Access log action tags written by this module
const (
	AccessLogin        = "LOGIN"
	AccessLoginFailed  = "LOGIN_FAILED"
	AccessUserCreated  = "USER_CREATED"
	AccessStockUpdated = "STOCK_UPDATED"
	AccessExport       = "EXPORT"
)

// AccessLogEntry is an append-only audit record
type AccessLogEntry struct {
	LogID      string
	Timestamp  time.Time
	EmployeeID string
	Action     string
	IP         string
	Details    string
}

// NewAccessLogEntry creates an entry with a fresh id
func NewAccessLogEntry(ts time.Time, employeeID, action, ip, details string) *AccessLogEntry {
	return &AccessLogEntry{
		LogID:      uuid.NewString(),
		Timestamp:  ts.UTC(),
		EmployeeID: employeeID,
		Action:     action,
		IP:         ip,
		Details:    details,
	}
}

// Validate checks the entry invariants
func (e *AccessLogEntry) Validate() error {
	switch {
	case strings.TrimSpace(e.LogID) == "":
		return invalid("log_id", "", "cannot be empty")
	case e.Timestamp.IsZero():
		return invalid("timestamp", "", "cannot be empty")
	case strings.TrimSpace(e.EmployeeID) == "":
		return invalid("employee_id", "", "cannot be empty")
	case strings.TrimSpace(e.Action) == "":
		return invalid("action", "", "cannot be empty")
	}
	return nil
}
