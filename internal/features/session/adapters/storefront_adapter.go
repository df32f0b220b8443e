package adapters

import (
	"context"
	"fmt"
	"net/http"

	"storefront-checkout/internal/core/storefront"
	"storefront-checkout/internal/features/session/domain"
)

// StorefrontAuthAdapter implements ports.AuthProvider against the storefront backend.
type StorefrontAuthAdapter struct {
	client *storefront.Client
}

// NewStorefrontAuthAdapter creates a new StorefrontAuthAdapter.
func NewStorefrontAuthAdapter(client *storefront.Client) *StorefrontAuthAdapter {
	return &StorefrontAuthAdapter{client: client}
}

type tokenResponse struct {
	Token   string `json:"token"`
	Message string `json:"message"`
}

// Login exchanges credentials for a token via POST /login.
func (a *StorefrontAuthAdapter) Login(ctx context.Context, creds domain.Credentials) (string, error) {
	return a.issue(ctx, "login", "/login", creds)
}

// Register creates an account via POST /register and returns its token.
func (a *StorefrontAuthAdapter) Register(ctx context.Context, reg domain.Registration) (string, error) {
	return a.issue(ctx, "register", "/register", reg)
}

func (a *StorefrontAuthAdapter) issue(ctx context.Context, op, path string, body any) (string, error) {
	var resp tokenResponse
	err := a.client.Do(ctx, storefront.Request{
		Op:     op,
		Method: http.MethodPost,
		Path:   path,
		Public: true,
		Body:   body,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", fmt.Errorf("%s: backend returned no token", op)
	}
	return resp.Token, nil
}

// FetchRole reads the role bound to token via GET /auth/role.
func (a *StorefrontAuthAdapter) FetchRole(ctx context.Context, token string) (string, error) {
	var resp struct {
		Role string `json:"role"`
	}
	err := a.client.Do(ctx, storefront.Request{
		Op:     "fetch role",
		Method: http.MethodGet,
		Path:   "/auth/role",
		Token:  token,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.Role, nil
}
