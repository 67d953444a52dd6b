package ports

import (
	"context"
	"time"

	"github.com/ecobazaar/auth-service/internal/core/domain"
)

// AuthEventInput is the DTO carried from the auth service through the
// dispatcher to the audit recorder.
type AuthEventInput struct {
	Action     domain.AuthAction
	Email      string
	Role       domain.Role
	Succeeded  bool
	Reason     string
	OccurredAt time.Time
}

// AuditService records authentication events. Recording is best-effort:
// a failure is logged, never surfaced to the caller of the auth operation.
type AuditService interface {
	Record(ctx context.Context, event AuthEventInput) error
}

// AuthEventRepository persists audit trail entries.
type AuthEventRepository interface {
	Insert(ctx context.Context, event *domain.AuthEvent) error
}
