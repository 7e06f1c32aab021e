package client

import (
	"context"
	"errors"
	"net/http"
)

// Register creates an account and stores the issued tokens.
func (c *Client) Register(ctx context.Context, name, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
}

// Login exchanges credentials for tokens and stores them.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	return c.authenticate(ctx, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	})
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*Session, error) {
	var resp authResponse
	if err := c.do(ctx, http.MethodPost, path, "", body, &resp); err != nil {
		return nil, err
	}
	c.setTokens(resp.Tokens)
	if c.idle != nil {
		c.idle.Touch()
	}
	return &Session{User: resp.User, Tokens: resp.Tokens}, nil
}

// Refresh trades the stored refresh token for a new pair. A rejected refresh
// token clears the stored credentials.
func (c *Client) Refresh(ctx context.Context) (Tokens, error) {
	current := c.Tokens()
	if current.RefreshToken == "" {
		return Tokens{}, ErrNotLoggedIn
	}

	var next Tokens
	err := c.do(ctx, http.MethodPost, "/api/auth/refresh", "",
		map[string]string{"refresh_token": current.RefreshToken}, &next)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
			c.setTokens(Tokens{})
		}
		return Tokens{}, err
	}

	c.setTokens(next)
	return next, nil
}

// Logout revokes the server session and forgets the tokens. The local tokens
// are dropped even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	tokens := c.Tokens()
	if tokens.AccessToken == "" {
		return nil
	}
	err := c.do(ctx, http.MethodPost, "/api/auth/logout", tokens.AccessToken, nil, nil)
	c.setTokens(Tokens{})

	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.IsUnauthorized() {
		return nil
	}
	return err
}

// Me returns the logged-in user.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var resp userEnvelope
	if err := c.get(ctx, "/api/auth/me", &resp); err != nil {
		return nil, err
	}
	return &resp.User, nil
}
