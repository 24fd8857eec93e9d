package domain

import "time"

// Audit event names recorded for every authentication-relevant action.
const (
	AuditLoginSuccess   = "login_success"
	AuditLoginFailure   = "login_failure"
	AuditLogout         = "logout"
	AuditUserRegistered = "user_registered"
)

// AuditEntry is a single append-only record of an authentication event.
type AuditEntry struct {
	Event    string    `json:"event"`
	Username string    `json:"username"`
	UserID   string    `json:"user_id,omitempty"`
	ActorID  string    `json:"actor_id,omitempty"`
	At       time.Time `json:"at"`
}
