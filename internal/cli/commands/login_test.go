package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/auth"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/authsvc"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/config"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/form"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/store"
)

// mockTokenStore is a simple in-memory token store for testing
type mockTokenStore struct {
	tokens map[string]string
}

func newMockTokenStore() *mockTokenStore {
	return &mockTokenStore{
		tokens: make(map[string]string),
	}
}

func (m *mockTokenStore) SaveToken(server, token string) error {
	m.tokens[server] = token
	return nil
}

func (m *mockTokenStore) LoadToken(server string) (string, error) {
	token, exists := m.tokens[server]
	if !exists {
		return "", auth.ErrNotAuthenticated
	}
	return token, nil
}

func (m *mockTokenStore) DeleteToken(server string) error {
	delete(m.tokens, server)
	return nil
}

// memoryPersister keeps the persisted credential in memory
type memoryPersister struct {
	mu   sync.Mutex
	cred store.Credential
}

func (m *memoryPersister) LoadCredential() (store.Credential, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cred, nil
}

func (m *memoryPersister) SaveCredential(c store.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = c
	return nil
}

// mockAPIServer serves the login and check-auth endpoints. Users maps
// email to role; every user's password is "password123".
type mockAPIServer struct {
	*httptest.Server
	mu         sync.Mutex
	loginCalls int
}

func newMockAPIServer(t *testing.T, users map[string]string) *mockAPIServer {
	t.Helper()

	m := &mockAPIServer{}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case authsvc.LoginPath:
			m.mu.Lock()
			m.loginCalls++
			m.mu.Unlock()

			var creds authsvc.Credentials
			if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
				t.Errorf("failed to decode request: %v", err)
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			role, ok := users[creds.Email]
			if !ok || creds.Password != "password123" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message": "Invalid email or password"}`))
				return
			}

			json.NewEncoder(w).Encode(authsvc.AuthResponse{
				User:  authsvc.User{ID: "user-123", Email: creds.Email, Name: "Test User", Role: role},
				Name:  "Test User",
				Role:  role,
				Token: "token-" + role,
			})
		case authsvc.CheckAuthPath:
			if r.Header.Get("Authorization") != "Bearer token-admin" {
				w.WriteHeader(http.StatusUnauthorized)
				w.Write([]byte(`{"message": "Invalid or expired token"}`))
				return
			}
			json.NewEncoder(w).Encode(authsvc.AuthResponse{
				User: authsvc.User{ID: "user-123", Email: "admin@example.com", Name: "Test User", Role: "admin"},
				Role: "admin",
			})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(m.Close)
	return m
}

func (m *mockAPIServer) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}

type testDeps struct {
	server    *config.Server
	tokens    *mockTokenStore
	persister *memoryPersister
	out       *bytes.Buffer
}

func newTestDeps(api *mockAPIServer) *testDeps {
	return &testDeps{
		server:    &config.Server{Alias: "test-server", URL: api.URL},
		tokens:    newMockTokenStore(),
		persister: &memoryPersister{},
		out:       &bytes.Buffer{},
	}
}

func (d *testDeps) options() []Option {
	return []Option{
		WithServer(d.server),
		WithTokenStore(d.tokens),
		WithPersister(d.persister),
		WithOutput(d.out),
	}
}

func TestLoginCommand_Flags(t *testing.T) {
	cmd := NewLoginCmd()

	assert.Equal(t, "login", cmd.Use)
	for _, name := range []string{"email", "password", "remember", "server"} {
		assert.NotNil(t, cmd.Flags().Lookup(name), "expected --%s flag to exist", name)
	}
}

func TestRunLogin_Success(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"admin@example.com": "admin"})
	deps := newTestDeps(api)

	err := runLogin(context.Background(), "admin@example.com", "password123", false, deps.options()...)
	require.NoError(t, err)

	assert.Equal(t, "token-admin", deps.persister.cred.Token)
	assert.Equal(t, "Test User", deps.persister.cred.Name)
	assert.Empty(t, deps.tokens.tokens, "token is only remembered on request")

	out := deps.out.String()
	assert.Contains(t, out, "Вход выполнен успешно!")
	assert.Contains(t, out, "User: Test User (admin@example.com)")
}

func TestRunLogin_RememberSavesToken(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"admin@example.com": "admin"})
	deps := newTestDeps(api)

	err := runLogin(context.Background(), "admin@example.com", "password123", true, deps.options()...)
	require.NoError(t, err)

	assert.Equal(t, "token-admin", deps.tokens.tokens[api.URL])
	assert.Contains(t, deps.out.String(), "system keychain")
}

func TestRunLogin_NonAdminRejected(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"user@example.com": "user"})
	deps := newTestDeps(api)

	err := runLogin(context.Background(), "user@example.com", "password123", true, deps.options()...)

	require.Error(t, err)
	assert.True(t, errors.Is(err, store.ErrAdminRequired))
	assert.Equal(t, store.Credential{}, deps.persister.cred)
	assert.Empty(t, deps.tokens.tokens)
	assert.Contains(t, deps.out.String(), "Требуются права администратора")
	assert.Contains(t, deps.out.String(), "Reason: Access denied. Admin role required.")
}

func TestRunLogin_WrongPassword(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"admin@example.com": "admin"})
	deps := newTestDeps(api)
	deps.tokens.tokens[api.URL] = "stale-token"

	err := runLogin(context.Background(), "admin@example.com", "wrong-password", false, deps.options()...)

	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "login failed"))
	assert.Contains(t, deps.out.String(), "Ошибка входа")
	assert.Contains(t, deps.out.String(), "Reason: Invalid email or password")
	assert.Empty(t, deps.tokens.tokens, "401 drops the remembered token")
}

func TestRunLogin_InvalidFormDoesNotCallServer(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"admin@example.com": "admin"})
	deps := newTestDeps(api)

	err := runLogin(context.Background(), "not-an-email", "short", false, deps.options()...)

	assert.ErrorIs(t, err, form.ErrInvalidForm)
	assert.Equal(t, 0, api.calls())
	assert.Contains(t, deps.out.String(), form.MsgEmailInvalid)
	assert.Contains(t, deps.out.String(), form.MsgPasswordTooShort)
}

func TestRunLogin_EnvVarCredentials(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"env@example.com": "admin"})
	deps := newTestDeps(api)

	t.Setenv("CHITAI_EMAIL", "env@example.com")
	t.Setenv("CHITAI_PASSWORD", "password123")

	err := runLogin(context.Background(), "", "", false, deps.options()...)
	require.NoError(t, err)
	assert.Equal(t, 1, api.calls())
}

func TestRunLogin_NoConfigFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	chdir(t, t.TempDir())

	err := runLogin(context.Background(), "admin@example.com", "password123", false, WithOutput(&bytes.Buffer{}))
	require.Error(t, err)
	assert.True(t, strings.HasPrefix(err.Error(), "failed to load config:"), err.Error())
}

func TestRunLogin_ServerFromConfigFile(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"admin@example.com": "admin"})
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	chdir(t, dir)

	cfg := &config.Config{Servers: []config.Server{{Alias: "local", URL: api.URL}}}
	require.NoError(t, config.Save(config.ConfigFileName, cfg))

	persister := &memoryPersister{}
	err := runLogin(context.Background(), "admin@example.com", "password123", false,
		WithTokenStore(newMockTokenStore()), WithPersister(persister), WithOutput(&bytes.Buffer{}))
	require.NoError(t, err)
	assert.Equal(t, "token-admin", persister.cred.Token)
}

func TestRunLogin_EmptyServerURL(t *testing.T) {
	err := runLogin(context.Background(), "admin@example.com", "password123", false,
		WithServer(&config.Server{Alias: "broken"}), WithOutput(&bytes.Buffer{}))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "server URL is empty")
}

func TestRunLogout(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"admin@example.com": "admin"})
	deps := newTestDeps(api)

	require.NoError(t, runLogin(context.Background(), "admin@example.com", "password123", true, deps.options()...))
	require.NotEmpty(t, deps.persister.cred.Token)

	require.NoError(t, runLogout(deps.options()...))

	assert.Equal(t, store.Credential{}, deps.persister.cred)
	assert.Empty(t, deps.tokens.tokens)
	assert.Contains(t, deps.out.String(), "Logged out from test-server")
}

func TestRunCheckAuth(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"admin@example.com": "admin"})

	t.Run("not authenticated", func(t *testing.T) {
		deps := newTestDeps(api)
		err := runCheckAuth(context.Background(), deps.options()...)
		assert.ErrorIs(t, err, auth.ErrNotAuthenticated)
	})

	t.Run("rehydrated token", func(t *testing.T) {
		deps := newTestDeps(api)
		require.NoError(t, runLogin(context.Background(), "admin@example.com", "password123", false, deps.options()...))
		deps.out.Reset()

		// a new run only has the persisted credential to go on
		require.NoError(t, runCheckAuth(context.Background(), deps.options()...))
		assert.Contains(t, deps.out.String(), "Role: admin")
	})

	t.Run("rejected token", func(t *testing.T) {
		deps := newTestDeps(api)
		deps.tokens.tokens[api.URL] = "expired"

		err := runCheckAuth(context.Background(), deps.options()...)
		require.Error(t, err)
		assert.Empty(t, deps.tokens.tokens)
	})
}

func TestRunStatus(t *testing.T) {
	api := newMockAPIServer(t, map[string]string{"admin@example.com": "admin"})
	deps := newTestDeps(api)

	require.NoError(t, runStatus(deps.options()...))
	assert.Contains(t, deps.out.String(), "Not signed in.")

	require.NoError(t, runLogin(context.Background(), "admin@example.com", "password123", true, deps.options()...))
	deps.out.Reset()

	require.NoError(t, runStatus(deps.options()...))
	assert.Contains(t, deps.out.String(), "User:  Test User (admin@example.com)")
	assert.Contains(t, deps.out.String(), "system keychain")
}

func TestMain(m *testing.M) {
	// keep tests away from the real user config
	home, err := os.MkdirTemp("", "chitai-admin-home-*")
	if err != nil {
		panic(err)
	}
	os.Setenv("HOME", home)
	code := m.Run()
	os.RemoveAll(home)
	os.Exit(code)
}
