package authsvc

import (
	"context"
	"errors"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/client"
)

const (
	APIPrefix     = "/api"
	LoginPath     = APIPrefix + "/auth/login/"
	CheckAuthPath = APIPrefix + "/check-auth/"
)

// Service calls the remote authentication endpoints
type Service struct {
	client *client.Client
}

// New creates a service on top of an API client
func New(c *client.Client) *Service {
	return &Service{client: c}
}

// Login posts the credentials and, when the payload carries a token, makes
// it the default bearer token of the client's session. Transport and HTTP
// errors are returned unchanged. A 2xx body that is not JSON is a payload
// with no user, role or token.
func (s *Service) Login(ctx context.Context, creds Credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.Post(ctx, LoginPath, creds, &resp); err != nil {
		var decodeErr *client.DecodeError
		if !errors.As(err, &decodeErr) {
			return nil, err
		}
		resp = AuthResponse{}
	}

	if resp.Token != "" {
		s.client.Session().SetToken(resp.Token)
	}

	return &resp, nil
}

// Logout drops the default bearer token. No request is made.
func (s *Service) Logout() {
	s.client.Session().Clear()
}

// CheckAuth asks the server who the current bearer token belongs to
func (s *Service) CheckAuth(ctx context.Context) (*AuthResponse, error) {
	var resp AuthResponse
	if err := s.client.Get(ctx, CheckAuthPath, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
