package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecobazaar/auth-service/internal/core/domain"
	"github.com/ecobazaar/auth-service/internal/core/ports"
	"github.com/ecobazaar/auth-service/internal/pkg/metrics"
)

// IdentityCache abstracts the registered-identity cache (Redis). It is a
// fast-path optimisation only: the uniqueness authority is the store's
// constraint-enforced insert.
type IdentityCache interface {
	IsTaken(ctx context.Context, email string) (bool, error)
	MarkTaken(ctx context.Context, email string) error
}

// AuditSink is where the auth service hands off audit events. Enqueueing
// never blocks the auth call on audit persistence.
type AuditSink interface {
	Enqueue(event ports.AuthEventInput)
}

// dummyHash is compared against when a login identity does not resolve, so
// the not-found path costs roughly one bcrypt verification like the found
// path does. Trivial timing-based identity enumeration gets nothing.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ecobazaar.dummy"), bcrypt.DefaultCost)

// AuthService implements registration and login.
type AuthService struct {
	repo  ports.AccountRepository
	cache IdentityCache
	audit AuditSink
	cost  int
	log   zerolog.Logger
}

func NewAuthService(repo ports.AccountRepository, cache IdentityCache, audit AuditSink, cost int, log zerolog.Logger) *AuthService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{repo: repo, cache: cache, audit: audit, cost: cost, log: log}
}

// Register creates a new account with a hashed secret. On success exactly one
// durable record exists; on any failure path, none.
func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.Account, error) {
	if name == "" || email == "" || password == "" || !role.IsValid() {
		metrics.SignupsTotal.WithLabelValues(roleLabel(role), "invalid").Inc()
		return nil, domain.ErrMissingFields
	}

	// Cheap negative check before paying for bcrypt. A cache miss or a cache
	// error falls through to the atomic insert, which remains the authority.
	if s.cache != nil {
		taken, err := s.cache.IsTaken(ctx, email)
		if err != nil {
			s.log.Warn().Err(err).Msg("identity cache check failed, continuing")
		} else if taken {
			metrics.SignupsTotal.WithLabelValues(roleLabel(role), "duplicate").Inc()
			s.recordAuth(domain.ActionSignup, email, role, false, "duplicate")
			return nil, domain.ErrEmailExists
		}
	}

	start := time.Now()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	metrics.PasswordHashDuration.WithLabelValues("hash").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.SignupsTotal.WithLabelValues(roleLabel(role), "error").Inc()
		return nil, err
	}

	account := &domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	created, err := s.repo.Create(ctx, account)
	if err != nil {
		if errors.Is(err, domain.ErrEmailExists) {
			metrics.SignupsTotal.WithLabelValues(roleLabel(role), "duplicate").Inc()
			s.recordAuth(domain.ActionSignup, email, role, false, "duplicate")
			return nil, domain.ErrEmailExists
		}
		metrics.SignupsTotal.WithLabelValues(roleLabel(role), "error").Inc()
		s.log.Error().Err(err).Msg("failed to create account")
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.MarkTaken(ctx, email); err != nil {
			s.log.Warn().Err(err).Msg("failed to mark identity in cache")
		}
	}

	metrics.SignupsTotal.WithLabelValues(roleLabel(role), "success").Inc()
	s.recordAuth(domain.ActionSignup, email, role, true, "")
	s.log.Info().Str("role", string(role)).Msg("account registered")

	return created, nil
}

// Login verifies a secret against the account matching both email and role.
// A role mismatch is indistinguishable from an unknown email.
func (s *AuthService) Login(ctx context.Context, email, password string, role domain.Role) (*domain.AccountRef, error) {
	if email == "" || password == "" {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		return nil, domain.ErrInvalidCredentials
	}

	account, err := s.repo.FindByEmailAndRole(ctx, email, role)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// Burn a comparable amount of work on the miss path.
			start := time.Now()
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			metrics.PasswordHashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())

			metrics.LoginsTotal.WithLabelValues("not_found").Inc()
			s.recordAuth(domain.ActionLogin, email, role, false, "not_found")
			return nil, domain.ErrAccountNotFound
		}
		metrics.LoginsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	start := time.Now()
	err = bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password))
	metrics.PasswordHashDuration.WithLabelValues("verify").Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("invalid_credentials").Inc()
		s.recordAuth(domain.ActionLogin, email, role, false, "invalid_credentials")
		return nil, domain.ErrInvalidCredentials
	}

	metrics.LoginsTotal.WithLabelValues("success").Inc()
	s.recordAuth(domain.ActionLogin, email, account.Role, true, "")

	return &domain.AccountRef{ID: account.ID, Role: account.Role}, nil
}

func (s *AuthService) recordAuth(action domain.AuthAction, email string, role domain.Role, succeeded bool, reason string) {
	if s.audit == nil {
		return
	}
	s.audit.Enqueue(ports.AuthEventInput{
		Action:     action,
		Email:      email,
		Role:       role,
		Succeeded:  succeeded,
		Reason:     reason,
		OccurredAt: time.Now().UTC(),
	})
}

func roleLabel(role domain.Role) string {
	if !role.IsValid() {
		return "unknown"
	}
	return string(role)
}
