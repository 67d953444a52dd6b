package domain

import "time"

// AuthAction identifies which auth operation produced an event.
type AuthAction string

const (
	ActionSignup AuthAction = "signup"
	ActionLogin  AuthAction = "login"
)

// AuthEvent is a single entry in the authentication audit trail.
type AuthEvent struct {
	Action     AuthAction
	Email      string
	Role       Role
	Succeeded  bool
	Reason     string // short failure reason, empty on success
	OccurredAt time.Time
}
