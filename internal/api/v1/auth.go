package v1

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/gosuda/hq/internal/auth"
	"github.com/gosuda/hq/internal/domain"
)

// credentials identify a user within a tenant.
type credentials struct {
	TenantSlug string `json:"tenant_slug" minLength:"1" maxLength:"63" doc:"Tenant slug"`
	Email      string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
	Password   string `json:"password" minLength:"1" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
}

type RegisterInput struct {
	Body struct {
		TenantSlug string `json:"tenant_slug" minLength:"1" maxLength:"63" doc:"Tenant slug"`
		Email      string `json:"email" minLength:"3" maxLength:"255" doc:"User email"`
		Password   string `json:"password" minLength:"8" maxLength:"128" doc:"Password"` //nolint:gosec // G117: login credential DTO
		Name       string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
	}
}

type RegisterOutput struct {
	Body struct {
		User *domain.User `json:"user"`
		auth.TokenPair
	}
}

type LoginInput struct {
	Body credentials
}

type LoginOutput struct {
	Body *auth.TokenPair
}

type RefreshInput struct {
	Body struct {
		RefreshToken string `json:"refresh_token" minLength:"1" doc:"Refresh token"` //nolint:gosec // G117: token refresh DTO
	}
}

type RefreshOutput struct {
	Body struct {
		AccessToken string `json:"access_token"` //nolint:gosec // G117: auth response DTO
	}
}

// RegisterAuthRoutes mounts the unauthenticated token endpoints. The first
// user registered in a tenant becomes its admin.
func RegisterAuthRoutes(api huma.API, store DataStore, authSvc AuthService) {
	huma.Register(api, huma.Operation{
		OperationID: "register",
		Method:      http.MethodPost,
		Path:        "/auth/register",
		Summary:     "Create a user in a tenant and sign in",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RegisterInput) (*RegisterOutput, error) {
		tenant, err := tenantBySlug(ctx, store, input.Body.TenantSlug)
		if err != nil {
			return nil, err
		}

		user, err := authSvc.Register(ctx, tenant.ID, input.Body.Email, input.Body.Password, input.Body.Name)
		switch {
		case errors.Is(err, auth.ErrUserAlreadyExists):
			return nil, huma.Error409Conflict("user already exists")
		case err != nil:
			return nil, huma.Error500InternalServerError("failed to register user", err)
		}

		tokens, err := authSvc.Login(ctx, tenant.ID, input.Body.Email, input.Body.Password)
		if err != nil {
			return nil, huma.Error500InternalServerError("registered but failed to issue tokens", err)
		}

		out := &RegisterOutput{}
		out.Body.User = user
		out.Body.TokenPair = *tokens
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/auth/login",
		Summary:     "Exchange email and password for a token pair",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		tenant, err := tenantBySlug(ctx, store, input.Body.TenantSlug)
		if err != nil {
			return nil, err
		}

		tokens, err := authSvc.Login(ctx, tenant.ID, input.Body.Email, input.Body.Password)
		switch {
		case errors.Is(err, auth.ErrInvalidCredentials):
			return nil, huma.Error401Unauthorized("invalid email or password")
		case err != nil:
			return nil, huma.Error500InternalServerError("login failed", err)
		}
		return &LoginOutput{Body: tokens}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-token",
		Method:      http.MethodPost,
		Path:        "/auth/refresh",
		Summary:     "Issue a new access token from a refresh token",
		Tags:        []string{"Auth"},
	}, func(ctx context.Context, input *RefreshInput) (*RefreshOutput, error) {
		accessToken, err := authSvc.RefreshToken(ctx, input.Body.RefreshToken)
		if err != nil {
			return nil, huma.Error401Unauthorized("invalid or expired refresh token")
		}

		out := &RefreshOutput{}
		out.Body.AccessToken = accessToken
		return out, nil
	})
}

// tenantBySlug resolves the tenant named in an auth request, mapping a miss
// to 404.
func tenantBySlug(ctx context.Context, store DataStore, slug string) (*domain.Tenant, error) {
	tenant, err := store.Tenants().GetBySlug(ctx, slug)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return nil, huma.Error404NotFound("tenant not found")
	case err != nil:
		return nil, huma.Error500InternalServerError("failed to look up tenant", err)
	}
	return tenant, nil
}
