package ports

import (
	"context"

	"github.com/ecobazaar/auth-service/internal/core/domain"
)

// AccountRepository defines persistence operations for accounts.
//
// Create must be atomic with respect to concurrent inserts sharing the same
// email: at most one may succeed, the rest must fail with
// domain.ErrEmailExists. Implementations enforce this with a uniqueness
// constraint on the email key, never with a prior existence check.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	// FindByEmailAndRole resolves an account only when both the email and
	// the role match. It must not fall back to matching email alone: a role
	// mismatch surfaces as domain.ErrAccountNotFound, indistinguishable
	// from an unknown email.
	FindByEmailAndRole(ctx context.Context, email string, role domain.Role) (*domain.Account, error)
	Create(ctx context.Context, account *domain.Account) (*domain.Account, error)
}
