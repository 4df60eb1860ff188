package gateway

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openclass/lms-client/internal/core/domain"
	"github.com/openclass/lms-client/internal/core/ports"
)

type authResponse struct {
	Access  string           `json:"access"`
	Refresh string           `json:"refresh"`
	User    *domain.Identity `json:"user"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username        string `json:"username"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
}

func (c *Client) Login(ctx context.Context, username, password string) (*ports.AuthPayload, error) {
	var resp authResponse
	req := loginRequest{Username: username, Password: password}
	if err := c.do(ctx, http.MethodPost, "/users/login/", req, false, &resp); err != nil {
		// 401 here means rejected credentials, not an expired session.
		var apiErr *domain.APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCredentials, apiErr)
		}
		return nil, err
	}
	return &ports.AuthPayload{Access: resp.Access, Refresh: resp.Refresh, User: resp.User}, nil
}

func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (*ports.AuthPayload, error) {
	var resp authResponse
	req := registerRequest{
		Username:        in.Username,
		Password:        in.Password,
		PasswordConfirm: in.Password,
		FirstName:       in.FirstName,
		LastName:        in.LastName,
	}
	if err := c.do(ctx, http.MethodPost, "/users/register/", req, false, &resp); err != nil {
		return nil, err
	}
	return &ports.AuthPayload{Access: resp.Access, Refresh: resp.Refresh, User: resp.User}, nil
}

// Me returns the gateway's current view of the authenticated user; the
// session store treats this as the only valid origin for an identity.
func (c *Client) Me(ctx context.Context) (*domain.Identity, error) {
	var ident domain.Identity
	if err := c.do(ctx, http.MethodGet, "/users/me/", nil, true, &ident); err != nil {
		return nil, err
	}
	return &ident, nil
}
