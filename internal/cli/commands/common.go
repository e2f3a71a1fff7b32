package commands

import (
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/auth"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/authsvc"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/client"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/config"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/serverselect"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/store"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/userconfig"
	"github.com/e9g9o9r9/chitai-admin/internal/logger"
)

// Options carries the dependencies of a command run. Tests inject fakes
// through the With* functions.
type Options struct {
	server      *config.Server
	serverAlias string
	tokens      auth.TokenStore
	persister   store.Persister
	httpClient  *http.Client
	out         io.Writer
}

// Option configures a command run
type Option func(*Options)

// WithServer skips config lookup and uses server directly
func WithServer(server *config.Server) Option {
	return func(o *Options) { o.server = server }
}

// WithServerAlias selects a server from chitai.json by alias
func WithServerAlias(alias string) Option {
	return func(o *Options) { o.serverAlias = alias }
}

// WithTokenStore replaces the OS keyring token store
func WithTokenStore(tokens auth.TokenStore) Option {
	return func(o *Options) { o.tokens = tokens }
}

// WithPersister replaces the user config credential persistence
func WithPersister(p store.Persister) Option {
	return func(o *Options) { o.persister = p }
}

// WithHTTPClient sets the HTTP client used for API calls
func WithHTTPClient(hc *http.Client) Option {
	return func(o *Options) { o.httpClient = hc }
}

// WithOutput redirects command output
func WithOutput(w io.Writer) Option {
	return func(o *Options) { o.out = w }
}

func buildOptions(opts []Option) *Options {
	o := &Options{
		tokens: auth.Default,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// getSelectedServer loads the config and returns the selected server.
// This is common logic used by most commands.
func getSelectedServer(serverAlias string) (*config.Server, error) {
	cfg, err := config.LoadFromCurrentDir()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w\nRun 'chitai-admin init <url>' to create a configuration file", err)
	}

	server, err := serverselect.ResolveServer(cfg, serverAlias)
	if err != nil {
		return nil, err
	}

	return server, nil
}

// authEnv is the per-run wiring of client, service and store for one server
type authEnv struct {
	server  *config.Server
	tokens  auth.ServerToken
	client  *client.Client
	service *authsvc.Service
	store   *store.Store
	out     io.Writer
}

func newAuthEnv(o *Options) (*authEnv, error) {
	server := o.server
	if server == nil {
		var err error
		server, err = getSelectedServer(o.serverAlias)
		if err != nil {
			return nil, err
		}
	}

	if err := server.Validate(); err != nil {
		return nil, err
	}

	log := logger.GetLogger().With().Str("server", server.URL).Logger()
	tokens := auth.ServerToken{Store: o.tokens, Server: server.URL}

	persister := o.persister
	if persister == nil {
		persister = userconfig.CredentialStore{Server: server.URL}
	}

	apiClient := client.New(server.URL,
		client.WithTokenSource(tokens),
		client.WithRedirector(unauthorizedRedirect(tokens)),
		client.WithLogger(log),
	)
	if o.httpClient != nil {
		apiClient.SetHTTPClient(o.httpClient)
	}

	service := authsvc.New(apiClient)

	st, err := store.New(service, persister, log)
	if err != nil {
		return nil, err
	}

	// The rehydrated token becomes the session default, as after a fresh login
	apiClient.Session().SetToken(st.State().Token)

	return &authEnv{
		server:  server,
		tokens:  tokens,
		client:  apiClient,
		service: service,
		store:   st,
		out:     o.out,
	}, nil
}

// unauthorizedRedirect handles the 401 navigation to the login route. A CLI
// cannot navigate, so the remembered token is dropped and the next command
// has to log in again.
func unauthorizedRedirect(tokens auth.ServerToken) client.RedirectFunc {
	return func(target string) {
		log := logger.GetLogger()
		if err := tokens.DeleteToken(); err != nil {
			log.Warn().Err(err).Msg("Failed to drop rejected token")
		}
		log.Warn().Str("target", target).Msg("Server rejected the credentials, run 'chitai-admin login'")
	}
}
