package v1_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/gosuda/hq/internal/api/v1"
	"github.com/gosuda/hq/internal/auth"
	"github.com/gosuda/hq/internal/domain"
)

func acmeTenant() *domain.Tenant {
	now := time.Now()
	return &domain.Tenant{
		ID:        uuid.MustParse("11111111-2222-3333-4444-555555555555"),
		Name:      "Acme",
		Slug:      "acme",
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func tenantsBySlug(tenant *domain.Tenant) *mockTenantRepo {
	return &mockTenantRepo{
		getBySlugFunc: func(_ context.Context, slug string) (*domain.Tenant, error) {
			if slug != tenant.Slug {
				return nil, fmt.Errorf("repo.GetBySlug: %w", domain.ErrNotFound)
			}
			return tenant, nil
		},
	}
}

func TestRegister(t *testing.T) {
	t.Parallel()

	tenant := acmeTenant()
	user := &domain.User{
		ID:       uuid.New(),
		TenantID: tenant.ID,
		Email:    "alice@acme.io",
		Name:     "Alice",
		Role:     "admin",
	}
	okTokens := func(_ context.Context, _ uuid.UUID, _, _ string) (*auth.TokenPair, error) {
		return &auth.TokenPair{AccessToken: "access-tok", RefreshToken: "refresh-tok"}, nil
	}

	tests := []struct {
		name       string
		slug       string
		register   func(ctx context.Context, tenantID uuid.UUID, email, password, name string) (*domain.User, error)
		login      func(ctx context.Context, tenantID uuid.UUID, email, password string) (*auth.TokenPair, error)
		wantStatus int
	}{
		{
			name: "registers and issues tokens",
			slug: "acme",
			register: func(_ context.Context, tid uuid.UUID, email, _, name string) (*domain.User, error) {
				assert.Equal(t, tenant.ID, tid)
				assert.Equal(t, "alice@acme.io", email)
				assert.Equal(t, "Alice", name)
				return user, nil
			},
			login:      okTokens,
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown tenant",
			slug:       "no-such-tenant",
			wantStatus: http.StatusNotFound,
		},
		{
			name: "duplicate user",
			slug: "acme",
			register: func(_ context.Context, _ uuid.UUID, _, _, _ string) (*domain.User, error) {
				return nil, fmt.Errorf("auth.Register: %w", auth.ErrUserAlreadyExists)
			},
			wantStatus: http.StatusConflict,
		},
		{
			name: "token issuance fails",
			slug: "acme",
			register: func(_ context.Context, _ uuid.UUID, _, _, _ string) (*domain.User, error) {
				return user, nil
			},
			login: func(_ context.Context, _ uuid.UUID, _, _ string) (*auth.TokenPair, error) {
				return nil, errors.New("auth.Login: token issuance failed")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			store := &mockDataStore{tenants: tenantsBySlug(tenant)}
			authSvc := &mockAuthService{registerFunc: tt.register, loginFunc: tt.login}
			v1.RegisterAuthRoutes(api, store, authSvc)

			resp := api.Post("/auth/register", map[string]any{
				"tenant_slug": tt.slug,
				"email":       "alice@acme.io",
				"password":    "password123",
				"name":        "Alice",
			})
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())

			if tt.wantStatus != http.StatusOK {
				var problem map[string]any
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&problem))
				assert.EqualValues(t, tt.wantStatus, problem["status"])
				return
			}

			var body struct {
				User         *domain.User `json:"user"`
				AccessToken  string       `json:"access_token"`
				RefreshToken string       `json:"refresh_token"`
			}
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, user.Email, body.User.Email)
			assert.Equal(t, "admin", body.User.Role)
			assert.Empty(t, body.User.PasswordHash)
			assert.Equal(t, "access-tok", body.AccessToken)
			assert.Equal(t, "refresh-tok", body.RefreshToken)
		})
	}
}

func TestLogin(t *testing.T) {
	t.Parallel()

	tenant := acmeTenant()

	tests := []struct {
		name       string
		slug       string
		login      func(ctx context.Context, tenantID uuid.UUID, email, password string) (*auth.TokenPair, error)
		wantStatus int
	}{
		{
			name: "valid credentials",
			slug: "acme",
			login: func(_ context.Context, tid uuid.UUID, email, password string) (*auth.TokenPair, error) {
				assert.Equal(t, tenant.ID, tid)
				assert.Equal(t, "alice@acme.io", email)
				assert.Equal(t, "secretpw1", password)
				return &auth.TokenPair{AccessToken: "access-tok", RefreshToken: "refresh-tok"}, nil
			},
			wantStatus: http.StatusOK,
		},
		{
			name:       "unknown tenant",
			slug:       "ghost",
			wantStatus: http.StatusNotFound,
		},
		{
			name: "wrong password",
			slug: "acme",
			login: func(_ context.Context, _ uuid.UUID, _, _ string) (*auth.TokenPair, error) {
				return nil, fmt.Errorf("auth.Login: %w", auth.ErrInvalidCredentials)
			},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "backend failure",
			slug: "acme",
			login: func(_ context.Context, _ uuid.UUID, _, _ string) (*auth.TokenPair, error) {
				return nil, errors.New("auth.Login: connection reset")
			},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			store := &mockDataStore{tenants: tenantsBySlug(tenant)}
			v1.RegisterAuthRoutes(api, store, &mockAuthService{loginFunc: tt.login})

			resp := api.Post("/auth/login", map[string]any{
				"tenant_slug": tt.slug,
				"email":       "alice@acme.io",
				"password":    "secretpw1",
			})
			require.Equal(t, tt.wantStatus, resp.Code, resp.Body.String())

			if tt.wantStatus == http.StatusOK {
				var tokens auth.TokenPair
				require.NoError(t, json.NewDecoder(resp.Body).Decode(&tokens))
				assert.Equal(t, "access-tok", tokens.AccessToken)
				assert.Equal(t, "refresh-tok", tokens.RefreshToken)
			}
		})
	}
}

func TestRefreshToken(t *testing.T) {
	t.Parallel()

	t.Run("issues a new access token", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			refreshTokenFunc: func(_ context.Context, rt string) (string, error) {
				assert.Equal(t, "valid-refresh-tok", rt)
				return "new-access-tok", nil
			},
		}
		v1.RegisterAuthRoutes(api, &mockDataStore{}, authSvc)

		resp := api.Post("/auth/refresh", map[string]any{"refresh_token": "valid-refresh-tok"})
		require.Equal(t, http.StatusOK, resp.Code)

		var body struct {
			AccessToken string `json:"access_token"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		assert.Equal(t, "new-access-tok", body.AccessToken)
	})

	t.Run("rejects an expired token", func(t *testing.T) {
		t.Parallel()

		_, api := humatest.New(t)
		authSvc := &mockAuthService{
			refreshTokenFunc: func(_ context.Context, _ string) (string, error) {
				return "", errors.New("auth.RefreshToken: token expired")
			},
		}
		v1.RegisterAuthRoutes(api, &mockDataStore{}, authSvc)

		resp := api.Post("/auth/refresh", map[string]any{"refresh_token": "expired-tok"})
		assert.Equal(t, http.StatusUnauthorized, resp.Code)
	})
}
