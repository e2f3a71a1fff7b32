package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultTimeout bounds every request made through the client
	DefaultTimeout = 10 * time.Second

	// LoginRoute is where the user is sent when the server answers 401
	LoginRoute = "/login"
)

// TokenSource provides the persisted bearer token, if any.
// An empty token with a nil error means no token is stored.
type TokenSource interface {
	Token() (string, error)
}

// Redirector receives the navigation target produced by a 401 response
type Redirector interface {
	Redirect(target string)
}

// RedirectFunc adapts a plain function to Redirector
type RedirectFunc func(target string)

func (f RedirectFunc) Redirect(target string) { f(target) }

// Client represents an HTTP client for the Chitai admin API
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	tokens     TokenSource
	redirector Redirector
	logger     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client. A client without a timeout
// gets DefaultTimeout.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.SetHTTPClient(httpClient)
	}
}

// WithSession shares an existing session with the client
func WithSession(session *Session) Option {
	return func(c *Client) {
		c.session = session
	}
}

// WithTokenSource sets where the persisted authToken is read from
func WithTokenSource(tokens TokenSource) Option {
	return func(c *Client) {
		c.tokens = tokens
	}
}

// WithRedirector sets the 401 handler
func WithRedirector(r Redirector) Option {
	return func(c *Client) {
		c.redirector = r
	}
}

// WithLogger sets the logger used for response side effects
func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// New creates a new API client bound to baseURL
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		session: NewSession(),
		logger:  zerolog.Nop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// SetHTTPClient sets a custom HTTP client
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	hc := *httpClient
	if hc.Timeout == 0 {
		hc.Timeout = DefaultTimeout
	}
	c.httpClient = &hc
}

// BaseURL returns the address every request path is resolved against
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Session returns the session holding the default bearer token
func (c *Client) Session() *Session {
	return c.session
}

// Get issues a GET request and decodes the JSON response into out
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.Do(ctx, http.MethodGet, path, nil, out)
}

// Post issues a POST request with a JSON body and decodes the response into out
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, body, out)
}

// Do sends a request and decodes a 2xx JSON response into out (if non-nil).
// Failures come back as *RequestError, *NoResponseError, *ResponseError or
// *DecodeError after the matching side effect has run.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return c.handleError(&RequestError{Err: err})
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return c.handleError(&NoResponseError{Err: err})
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.handleError(&NoResponseError{Err: err})
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.handleError(newResponseError(resp.StatusCode, data))
	}

	if out == nil || len(data) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		return c.handleError(&DecodeError{StatusCode: resp.StatusCode, Body: data, Err: err})
	}

	return nil
}

// newRequest builds the request and runs the outgoing hook: the session's
// default bearer token first, then the persisted authToken which wins when set.
func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	if token := c.session.Token(); token != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}

	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return nil, err
		}
		if token != "" {
			req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
		}
	}

	return req, nil
}

// handleError runs the response side effects and hands the error back
func (c *Client) handleError(err error) error {
	switch e := err.(type) {
	case *ResponseError:
		switch e.StatusCode {
		case http.StatusUnauthorized:
			c.logger.Warn().Str("target", LoginRoute).Msg("Unauthorized, redirecting to login")
			if c.redirector != nil {
				c.redirector.Redirect(LoginRoute)
			}
		case http.StatusForbidden:
			c.logger.Error().Int("status", e.StatusCode).Msg("Доступ запрещен")
		case http.StatusNotFound:
			c.logger.Error().Int("status", e.StatusCode).Msg("Ресурс не найден")
		case http.StatusInternalServerError:
			c.logger.Error().Int("status", e.StatusCode).Msg("Ошибка сервера")
		default:
			c.logger.Error().Int("status", e.StatusCode).Msg("Произошла ошибка")
		}
	case *NoResponseError:
		c.logger.Error().Err(e.Err).Msg("Нет ответа от сервера")
	case *DecodeError:
		c.logger.Warn().Int("status", e.StatusCode).Err(e.Err).Msg("Response body is not JSON")
	case *RequestError:
		c.logger.Error().Str("error", e.Error()).Msg("Ошибка при настройке запроса")
	}

	return err
}
