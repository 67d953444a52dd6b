package ports

import (
	"context"

	"github.com/ecobazaar/auth-service/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string, role domain.Role) (*domain.Account, error)
	Login(ctx context.Context, email, password string, role domain.Role) (*domain.AccountRef, error)
}
