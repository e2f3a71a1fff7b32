package client

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticTokens struct {
	token string
	err   error
}

func (s staticTokens) Token() (string, error) { return s.token, s.err }

func TestNew_DefaultTimeout(t *testing.T) {
	c := New("http://localhost:3001/")

	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.Equal(t, 10*time.Second, c.httpClient.Timeout)
	assert.Equal(t, "http://localhost:3001", c.BaseURL())
}

func TestSetHTTPClient_KeepsTimeoutBound(t *testing.T) {
	c := New("http://localhost", WithHTTPClient(&http.Client{}))
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)

	c.SetHTTPClient(&http.Client{Timeout: time.Second})
	assert.Equal(t, time.Second, c.httpClient.Timeout)
}

func TestDo_AuthorizationHeader(t *testing.T) {
	tests := []struct {
		name         string
		sessionToken string
		stored       string
		expected     string
	}{
		{name: "no token", expected: ""},
		{name: "session token", sessionToken: "sess", expected: "Bearer sess"},
		{name: "stored token", stored: "stored", expected: "Bearer stored"},
		{name: "stored token wins", sessionToken: "sess", stored: "stored", expected: "Bearer stored"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				got = r.Header.Get("Authorization")
				w.Write([]byte(`{}`))
			}))
			defer srv.Close()

			c := New(srv.URL, WithTokenSource(staticTokens{token: tt.stored}))
			c.Session().SetToken(tt.sessionToken)

			require.NoError(t, c.Get(context.Background(), "/api/ping", nil))
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestPost_EncodesAndDecodesJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/echo/", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var buf bytes.Buffer
		buf.ReadFrom(r.Body)
		assert.JSONEq(t, `{"email":"a@b.com"}`, buf.String())

		w.Write([]byte(`{"token":"tok"}`))
	}))
	defer srv.Close()

	var out struct {
		Token string `json:"token"`
	}
	err := New(srv.URL).Post(context.Background(), "/api/echo/", map[string]string{"email": "a@b.com"}, &out)

	require.NoError(t, err)
	assert.Equal(t, "tok", out.Token)
}

func TestDo_ResponseErrors(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		redirected bool
		logged     string
		message    string
	}{
		{name: "unauthorized redirects", status: 401, body: `{"message":"Invalid email or password"}`, redirected: true, message: "Invalid email or password"},
		{name: "forbidden", status: 403, logged: "Доступ запрещен"},
		{name: "not found", status: 404, logged: "Ресурс не найден"},
		{name: "server error", status: 500, logged: "Ошибка сервера"},
		{name: "other status", status: 418, body: `not json`, logged: "Произошла ошибка"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			var logs bytes.Buffer
			var target string
			c := New(srv.URL,
				WithLogger(zerolog.New(&logs)),
				WithRedirector(RedirectFunc(func(to string) { target = to })),
			)

			err := c.Get(context.Background(), "/api/thing", nil)
			require.Error(t, err)

			var respErr *ResponseError
			require.True(t, errors.As(err, &respErr))
			assert.Equal(t, tt.status, respErr.StatusCode)
			assert.Equal(t, tt.message, respErr.Message())

			if tt.redirected {
				assert.Equal(t, LoginRoute, target)
			} else {
				assert.Empty(t, target)
				assert.Contains(t, logs.String(), tt.logged)
			}
		})
	}
}

func TestDo_NoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	var logs bytes.Buffer
	err := New(url, WithLogger(zerolog.New(&logs))).Get(context.Background(), "/api/thing", nil)

	var noResp *NoResponseError
	require.True(t, errors.As(err, &noResp))
	assert.Equal(t, noResp.Err.Error(), err.Error())
	assert.Contains(t, logs.String(), "Нет ответа от сервера")
}

func TestDo_TokenSourceFailureIsReturnedUnchanged(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	storeErr := errors.New("keyring locked")
	var logs bytes.Buffer
	c := New(srv.URL, WithTokenSource(staticTokens{err: storeErr}), WithLogger(zerolog.New(&logs)))

	err := c.Get(context.Background(), "/api/thing", nil)

	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.ErrorIs(t, err, storeErr)
	assert.Equal(t, "keyring locked", err.Error())
	assert.False(t, called)
	assert.True(t, strings.Contains(logs.String(), "Ошибка при настройке запроса"))
}

func TestDo_MalformedRequest(t *testing.T) {
	err := New("http://bad host").Get(context.Background(), "/x", nil)

	var reqErr *RequestError
	assert.True(t, errors.As(err, &reqErr))
}

func TestSession(t *testing.T) {
	s := NewSession()
	assert.Empty(t, s.Token())

	s.SetToken("abc")
	assert.Equal(t, "abc", s.Token())

	s.Clear()
	assert.Empty(t, s.Token())
}

func TestDo_NonJSONSuccessBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	var logs bytes.Buffer
	var out map[string]any
	err := New(srv.URL, WithLogger(zerolog.New(&logs))).Get(context.Background(), "/api/thing", &out)

	var decodeErr *DecodeError
	require.True(t, errors.As(err, &decodeErr))
	assert.Equal(t, http.StatusOK, decodeErr.StatusCode)
	assert.Equal(t, "<html>maintenance</html>", string(decodeErr.Body))
	assert.Contains(t, logs.String(), "Response body is not JSON")
}
