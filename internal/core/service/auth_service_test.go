package service

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ecobazaar/auth-service/internal/core/domain"
	"github.com/ecobazaar/auth-service/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

// stubAccountRepo models the store contract: Create is atomic under the
// mutex, so concurrent inserts for one email admit exactly one winner.
type stubAccountRepo struct {
	mu       sync.Mutex
	accounts map[string]*domain.Account
	nextID   int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{accounts: make(map[string]*domain.Account)}
}

func cloneAccount(a *domain.Account) *domain.Account {
	if a == nil {
		return nil
	}
	clone := *a
	return &clone
}

func (r *stubAccountRepo) Create(_ context.Context, account *domain.Account) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.accounts[account.Email]; exists {
		return nil, domain.ErrEmailExists
	}
	created := cloneAccount(account)
	r.nextID++
	created.ID = "acc_" + strconv.Itoa(r.nextID)
	r.accounts[created.Email] = cloneAccount(created)
	return created, nil
}

func (r *stubAccountRepo) FindByEmail(_ context.Context, email string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.accounts[email]; ok {
		return cloneAccount(a), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) FindByEmailAndRole(_ context.Context, email string, role domain.Role) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if a, ok := r.accounts[email]; ok && a.Role == role {
		return cloneAccount(a), nil
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.accounts)
}

func (r *stubAccountRepo) storedHash(email string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a, ok := r.accounts[email]; ok {
		return a.PasswordHash
	}
	return ""
}

type stubAuditSink struct {
	mu     sync.Mutex
	events []ports.AuthEventInput
}

func (s *stubAuditSink) Enqueue(event ports.AuthEventInput) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
}

type stubIdentityCache struct {
	taken   map[string]bool
	isErr   error
	markErr error
}

func newStubIdentityCache() *stubIdentityCache {
	return &stubIdentityCache{taken: make(map[string]bool)}
}

func (c *stubIdentityCache) IsTaken(_ context.Context, email string) (bool, error) {
	if c.isErr != nil {
		return false, c.isErr
	}
	return c.taken[email], nil
}

func (c *stubIdentityCache) MarkTaken(_ context.Context, email string) error {
	if c.markErr != nil {
		return c.markErr
	}
	c.taken[email] = true
	return nil
}

// newTestService uses bcrypt.MinCost so tests stay fast; production cost
// comes from configuration.
func newTestService(repo ports.AccountRepository, cache IdentityCache, audit AuditSink) *AuthService {
	return NewAuthService(repo, cache, audit, bcrypt.MinCost, zerolog.Nop())
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)

	account, err := svc.Register(context.Background(), "Alice", "a@x.com", "hunter2", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if account == nil {
		t.Fatalf("expected account, got nil")
	}
	if account.PasswordHash == "hunter2" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte("hunter2")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if account.Role != domain.RoleCustomer {
		t.Fatalf("unexpected role: %s", account.Role)
	}
	if account.ID == "" {
		t.Fatalf("expected an assigned identifier")
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)

	cases := []struct {
		name, displayName, email, password string
		role                               domain.Role
	}{
		{"missing name", "", "a@x.com", "pw", domain.RoleCustomer},
		{"missing email", "Alice", "", "pw", domain.RoleCustomer},
		{"missing password", "Alice", "a@x.com", "", domain.RoleCustomer},
		{"missing role", "Alice", "a@x.com", "pw", ""},
		{"unknown role", "Alice", "a@x.com", "pw", "superuser"},
	}

	for _, tc := range cases {
		if _, err := svc.Register(context.Background(), tc.displayName, tc.email, tc.password, tc.role); !errors.Is(err, domain.ErrMissingFields) {
			t.Fatalf("%s: expected ErrMissingFields, got %v", tc.name, err)
		}
	}
	if repo.count() != 0 {
		t.Fatalf("expected no records after rejected registrations, got %d", repo.count())
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)

	if _, err := svc.Register(context.Background(), "Bob", "b@x.com", "pw1", domain.RoleCustomer); err != nil {
		t.Fatalf("first registration failed: %v", err)
	}

	// Same identity under a different role still collides.
	if _, err := svc.Register(context.Background(), "Bobby", "b@x.com", "pw2", domain.RoleSeller); !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists, got %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("expected exactly one record, got %d", repo.count())
	}
}

func TestAuthService_Register_CacheFastPath(t *testing.T) {
	repo := newStubAccountRepo()
	cache := newStubIdentityCache()
	svc := newTestService(repo, cache, nil)

	if _, err := svc.Register(context.Background(), "Carol", "c@x.com", "pw", domain.RoleSeller); err != nil {
		t.Fatalf("registration failed: %v", err)
	}
	if !cache.taken["c@x.com"] {
		t.Fatalf("expected identity marked in cache")
	}

	if _, err := svc.Register(context.Background(), "Carol", "c@x.com", "pw", domain.RoleSeller); !errors.Is(err, domain.ErrEmailExists) {
		t.Fatalf("expected ErrEmailExists from cache hit, got %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("expected one record, got %d", repo.count())
	}
}

func TestAuthService_Register_CacheErrorIsNonFatal(t *testing.T) {
	repo := newStubAccountRepo()
	cache := newStubIdentityCache()
	cache.isErr = errors.New("redis down")
	cache.markErr = errors.New("redis down")
	svc := newTestService(repo, cache, nil)

	if _, err := svc.Register(context.Background(), "Dave", "d@x.com", "pw", domain.RoleAdmin); err != nil {
		t.Fatalf("expected registration to succeed despite cache errors, got %v", err)
	}
	if repo.count() != 1 {
		t.Fatalf("expected one record, got %d", repo.count())
	}
}

func TestAuthService_Register_Concurrent(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)

	const n = 16
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Register(context.Background(), "Eve", "e@x.com", "pw", domain.RoleCustomer)
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes, duplicates int
	for err := range results {
		switch {
		case err == nil:
			successes++
		case errors.Is(err, domain.ErrEmailExists):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Fatalf("expected exactly one successful registration, got %d", successes)
	}
	if duplicates != n-1 {
		t.Fatalf("expected %d duplicate failures, got %d", n-1, duplicates)
	}
	if repo.count() != 1 {
		t.Fatalf("expected exactly one record, got %d", repo.count())
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)

	created, err := svc.Register(context.Background(), "Alice", "a@x.com", "hunter2", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	ref, err := svc.Login(context.Background(), "a@x.com", "hunter2", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if ref.Role != domain.RoleCustomer {
		t.Fatalf("expected role customer, got %s", ref.Role)
	}
	if ref.ID != created.ID {
		t.Fatalf("expected stable identifier %q, got %q", created.ID, ref.ID)
	}

	// The identifier is stable across logins.
	again, err := svc.Login(context.Background(), "a@x.com", "hunter2", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("second login failed: %v", err)
	}
	if again.ID != ref.ID {
		t.Fatalf("identifier changed between logins: %q vs %q", ref.ID, again.ID)
	}
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)

	if _, err := svc.Register(context.Background(), "Alice", "a@x.com", "hunter2", domain.RoleCustomer); err != nil {
		t.Fatalf("register failed: %v", err)
	}
	before := repo.storedHash("a@x.com")

	if _, err := svc.Login(context.Background(), "a@x.com", "wrong", domain.RoleCustomer); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
	if after := repo.storedHash("a@x.com"); after != before {
		t.Fatalf("stored hash changed on a failed login")
	}
}

func TestAuthService_Login_RoleMismatch(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)

	if _, err := svc.Register(context.Background(), "Alice", "a@x.com", "hunter2", domain.RoleCustomer); err != nil {
		t.Fatalf("register failed: %v", err)
	}

	// Correct secret, wrong declared role: must read exactly like an
	// unknown email.
	if _, err := svc.Login(context.Background(), "a@x.com", "hunter2", domain.RoleSeller); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)

	if _, err := svc.Login(context.Background(), "ghost@x.com", "pw", domain.RoleCustomer); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestAuthService_Login_EmptyInput(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)

	if _, err := svc.Login(context.Background(), "", "pw", domain.RoleCustomer); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty email, got %v", err)
	}
	if _, err := svc.Login(context.Background(), "a@x.com", "", domain.RoleCustomer); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for empty password, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Audit trail
// ---------------------------------------------------------------------------

func TestAuthService_AuditEvents(t *testing.T) {
	repo := newStubAccountRepo()
	audit := &stubAuditSink{}
	svc := newTestService(repo, nil, audit)

	_, _ = svc.Register(context.Background(), "Alice", "a@x.com", "hunter2", domain.RoleCustomer)
	_, _ = svc.Login(context.Background(), "a@x.com", "hunter2", domain.RoleCustomer)
	_, _ = svc.Login(context.Background(), "a@x.com", "wrong", domain.RoleCustomer)
	_, _ = svc.Login(context.Background(), "a@x.com", "hunter2", domain.RoleSeller)

	audit.mu.Lock()
	defer audit.mu.Unlock()

	if len(audit.events) != 4 {
		t.Fatalf("expected 4 audit events, got %d", len(audit.events))
	}

	expected := []struct {
		action    domain.AuthAction
		succeeded bool
		reason    string
	}{
		{domain.ActionSignup, true, ""},
		{domain.ActionLogin, true, ""},
		{domain.ActionLogin, false, "invalid_credentials"},
		{domain.ActionLogin, false, "not_found"},
	}
	for i, want := range expected {
		got := audit.events[i]
		if got.Action != want.action || got.Succeeded != want.succeeded || got.Reason != want.reason {
			t.Fatalf("event %d: got %+v, want %+v", i, got, want)
		}
	}
}

// ---------------------------------------------------------------------------
// End-to-end scenario
// ---------------------------------------------------------------------------

func TestAuthService_AliceScenario(t *testing.T) {
	repo := newStubAccountRepo()
	svc := newTestService(repo, nil, nil)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "Alice", "a@x.com", "hunter2", domain.RoleCustomer); err != nil {
		t.Fatalf("register: %v", err)
	}

	ref, err := svc.Login(ctx, "a@x.com", "hunter2", domain.RoleCustomer)
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if ref.Role != domain.RoleCustomer || ref.ID == "" {
		t.Fatalf("unexpected ref: %+v", ref)
	}

	if _, err := svc.Login(ctx, "a@x.com", "wrong", domain.RoleCustomer); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := svc.Login(ctx, "a@x.com", "hunter2", domain.RoleSeller); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("wrong role: expected ErrAccountNotFound, got %v", err)
	}
}
