package domain

import "time"

// Auth audit actions.
const (
	AuditActionRegister = "register"
	AuditActionLogin    = "login"
	AuditActionRefresh  = "refresh"
	AuditActionDelete   = "account_delete"
)

// AuthEvent is an audit record of an authentication-related outcome. Events
// are written asynchronously; losing one is acceptable, blocking a request
// on one is not.
type AuthEvent struct {
	Username  string
	Action    string
	Success   bool
	Detail    string // failure reason, empty on success
	Timestamp time.Time
}
