package auth

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

const (
	service = "chitai-admin"
)

// ErrNotAuthenticated is returned when no token is stored for a server
var ErrNotAuthenticated = errors.New("not authenticated. Please run 'chitai-admin login' first")

// TokenStore defines the interface for token storage operations
// This allows us to mock the keyring in tests
type TokenStore interface {
	SaveToken(server, token string) error
	LoadToken(server string) (string, error)
	DeleteToken(server string) error
}

// keyringStore implements TokenStore using the OS keyring
type keyringStore struct{}

// Default is the OS keychain/credential manager store
var Default TokenStore = keyringStore{}

// getKeyringKey returns the authToken key of a server
func getKeyringKey(server string) string {
	return fmt.Sprintf("authToken-%s", server)
}

// SaveToken persists the token in the OS keychain/credential manager
func (keyringStore) SaveToken(server, token string) error {
	if err := keyring.Set(service, getKeyringKey(server), token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}
	return nil
}

// LoadToken retrieves the token from the OS keychain/credential manager
func (keyringStore) LoadToken(server string) (string, error) {
	token, err := keyring.Get(service, getKeyringKey(server))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotAuthenticated
		}
		return "", fmt.Errorf("failed to load token: %w", err)
	}
	return token, nil
}

// DeleteToken removes the token from the OS keychain/credential manager
func (keyringStore) DeleteToken(server string) error {
	if err := keyring.Delete(service, getKeyringKey(server)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return nil // Already deleted
		}
		return fmt.Errorf("failed to delete token: %w", err)
	}
	return nil
}

// ServerToken binds a TokenStore to one server. It satisfies the client's
// token source and the form's remember store.
type ServerToken struct {
	Store  TokenStore
	Server string
}

// Token returns the stored token, or "" when none is stored
func (s ServerToken) Token() (string, error) {
	token, err := s.Store.LoadToken(s.Server)
	if errors.Is(err, ErrNotAuthenticated) {
		return "", nil
	}
	return token, err
}

// SaveToken stores token for the bound server
func (s ServerToken) SaveToken(token string) error {
	return s.Store.SaveToken(s.Server, token)
}

// DeleteToken removes the bound server's token
func (s ServerToken) DeleteToken() error {
	return s.Store.DeleteToken(s.Server)
}
