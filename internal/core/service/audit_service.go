package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/ecobazaar/auth-service/internal/core/domain"
	"github.com/ecobazaar/auth-service/internal/core/ports"
	"github.com/ecobazaar/auth-service/internal/pkg/metrics"
)

type auditService struct {
	repo ports.AuthEventRepository
	log  zerolog.Logger
}

// NewAuditService returns an AuditService implementation backed by the given
// event repository.
func NewAuditService(repo ports.AuthEventRepository, log zerolog.Logger) ports.AuditService {
	return &auditService{repo: repo, log: log}
}

// Record persists a single auth event to the audit trail.
func (s *auditService) Record(ctx context.Context, in ports.AuthEventInput) error {
	event := &domain.AuthEvent{
		Action:     in.Action,
		Email:      in.Email,
		Role:       in.Role,
		Succeeded:  in.Succeeded,
		Reason:     in.Reason,
		OccurredAt: in.OccurredAt,
	}

	if err := s.repo.Insert(ctx, event); err != nil {
		metrics.AuditEventsRecordedTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("record auth event: %w", err)
	}

	metrics.AuditEventsRecordedTotal.WithLabelValues("ok").Inc()
	s.log.Debug().
		Str("action", string(in.Action)).
		Bool("succeeded", in.Succeeded).
		Msg("auth event recorded")

	return nil
}
