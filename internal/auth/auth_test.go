package auth

import (
	"context"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/muniworks/land-office/internal/domain"
	"github.com/muniworks/land-office/internal/transport"
)

type fakeUserRepo struct {
	getByID           func(ctx context.Context, id string) (*domain.User, error)
	getByIDs          func(ctx context.Context, ids []string) (map[string]domain.User, error)
	listActiveByRoles func(ctx context.Context, roles []domain.Role) ([]domain.User, error)
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return f.getByID(ctx, id)
}

func (f *fakeUserRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.User, error) {
	return f.getByIDs(ctx, ids)
}

func (f *fakeUserRepo) ListActiveByRoles(ctx context.Context, roles []domain.Role) ([]domain.User, error) {
	return f.listActiveByRoles(ctx, roles)
}

func TestTokenVerifierRoundTrip(t *testing.T) {
	t.Parallel()

	verifier, err := NewTokenVerifier("test-secret")
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}

	token, err := verifier.GenerateToken("user-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	subject, err := verifier.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if subject != "user-1" {
		t.Fatalf("subject = %q, want %q", subject, "user-1")
	}
}

func TestTokenVerifierRejectsBadTokens(t *testing.T) {
	t.Parallel()

	verifier, err := NewTokenVerifier("test-secret")
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}

	other, err := NewTokenVerifier("another-secret")
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}

	forged, err := other.GenerateToken("user-1", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	expired, err := verifier.GenerateToken("user-1", time.Nanosecond)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	time.Sleep(5 * time.Millisecond)

	testCases := []struct {
		name  string
		token string
	}{
		{name: "empty token", token: ""},
		{name: "garbage token", token: "not.a.jwt"},
		{name: "wrong secret", token: forged},
		{name: "expired token", token: expired},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if _, err := verifier.Verify(tc.token); err == nil {
				t.Fatal("Verify() expected error, got nil")
			}
		})
	}
}

func newAuthTestApp(t *testing.T, users *fakeUserRepo, verifier *TokenVerifier) *fiber.App {
	t.Helper()

	app := fiber.New(fiber.Config{ErrorHandler: transport.NewErrorHandler(nil)})
	app.Get("/whoami", Middleware(verifier, users), func(c *fiber.Ctx) error {
		actor, err := ActorFromContext(c)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{"id": actor.ID, "role": actor.Role.String()})
	})
	return app
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	verifier, err := NewTokenVerifier("test-secret")
	if err != nil {
		t.Fatalf("NewTokenVerifier() error = %v", err)
	}

	users := &fakeUserRepo{
		getByID: func(ctx context.Context, id string) (*domain.User, error) {
			switch id {
			case "user-active":
				return &domain.User{ID: id, DisplayName: "Dana Reyes", Role: domain.RoleApprover, IsActive: true}, nil
			case "user-inactive":
				return &domain.User{ID: id, DisplayName: "Lee Okafor", Role: domain.RoleInputter, IsActive: false}, nil
			default:
				return nil, domain.ErrNotFound
			}
		},
	}

	activeToken, err := verifier.GenerateToken("user-active", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	inactiveToken, err := verifier.GenerateToken("user-inactive", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	unknownToken, err := verifier.GenerateToken("user-missing", time.Hour)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}

	testCases := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{name: "active user passes", authHeader: "Bearer " + activeToken, wantStatus: fiber.StatusOK},
		{name: "missing header rejected", authHeader: "", wantStatus: fiber.StatusUnauthorized},
		{name: "non-bearer header rejected", authHeader: "Basic abc", wantStatus: fiber.StatusUnauthorized},
		{name: "inactive user rejected", authHeader: "Bearer " + inactiveToken, wantStatus: fiber.StatusUnauthorized},
		{name: "unknown user rejected", authHeader: "Bearer " + unknownToken, wantStatus: fiber.StatusUnauthorized},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			app := newAuthTestApp(t, users, verifier)

			req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
			if tc.authHeader != "" {
				req.Header.Set(fiber.HeaderAuthorization, tc.authHeader)
			}

			resp, err := app.Test(req)
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}

type fakeLimiter struct {
	allow func(ctx context.Context, actorID string) (bool, error)
}

func (f *fakeLimiter) Allow(ctx context.Context, actorID string) (bool, error) {
	return f.allow(ctx, actorID)
}

func (f *fakeLimiter) Wait(ctx context.Context, actorID string) error {
	allowed, err := f.allow(ctx, actorID)
	if err != nil {
		return err
	}
	if !allowed {
		return context.DeadlineExceeded
	}
	return nil
}

func TestRateLimitMiddleware(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name       string
		allowed    bool
		wantStatus int
	}{
		{name: "under limit passes", allowed: true, wantStatus: fiber.StatusOK},
		{name: "over limit rejected", allowed: false, wantStatus: fiber.StatusTooManyRequests},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			limiter := &fakeLimiter{
				allow: func(ctx context.Context, actorID string) (bool, error) {
					return tc.allowed, nil
				},
			}

			app := fiber.New(fiber.Config{ErrorHandler: transport.NewErrorHandler(nil)})
			app.Post("/op", func(c *fiber.Ctx) error {
				c.Locals(actorLocalsKey, domain.Actor{ID: "user-1", Role: domain.RoleInputter})
				return c.Next()
			}, RateLimitMiddleware(limiter), func(c *fiber.Ctx) error {
				return c.SendStatus(fiber.StatusOK)
			})

			resp, err := app.Test(httptest.NewRequest(fiber.MethodPost, "/op", nil))
			if err != nil {
				t.Fatalf("app.Test() error = %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tc.wantStatus {
				t.Fatalf("status = %d, want %d", resp.StatusCode, tc.wantStatus)
			}
		})
	}
}
