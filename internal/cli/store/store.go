package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/authsvc"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/client"
)

const (
	RoleAdmin = "admin"

	MsgLoginSuccessful = "Login successful"
	MsgAdminRequired   = "Access denied. Admin role required."
)

// ErrAdminRequired rejects a successful login whose role is not admin
var ErrAdminRequired = errors.New(MsgAdminRequired)

// State is the authentication state. Name and Token are "" when absent.
type State struct {
	User      *authsvc.User `json:"user"`
	Name      string        `json:"name"`
	Token     string        `json:"token"`
	IsError   bool          `json:"isError"`
	IsSuccess bool          `json:"isSuccess"`
	IsLoading bool          `json:"isLoading"`
	Message   string        `json:"message"`
}

// Credential is the part of State that survives restarts
type Credential struct {
	User  *authsvc.User `json:"user,omitempty"`
	Token string        `json:"token,omitempty"`
	Name  string        `json:"name,omitempty"`
}

// Persister loads and saves the persisted credential
type Persister interface {
	LoadCredential() (Credential, error)
	SaveCredential(Credential) error
}

// AuthService is what the store needs from the auth service
type AuthService interface {
	Login(ctx context.Context, creds authsvc.Credentials) (*authsvc.AuthResponse, error)
	Logout()
}

// Store holds the authentication state of one client process. It is safe
// for concurrent use; concurrent logins are not serialized and the last one
// to resolve decides the final state.
type Store struct {
	mu        sync.Mutex
	state     State
	svc       AuthService
	persister Persister
	logger    zerolog.Logger

	subs    map[int]func(State)
	nextSub int
}

// New creates a store, rehydrating user, token and name from persister
// (which may be nil).
func New(svc AuthService, persister Persister, logger zerolog.Logger) (*Store, error) {
	s := &Store{
		svc:       svc,
		persister: persister,
		logger:    logger,
		subs:      make(map[int]func(State)),
	}

	if persister != nil {
		cred, err := persister.LoadCredential()
		if err != nil {
			return nil, fmt.Errorf("failed to rehydrate auth state: %w", err)
		}
		s.state.User = cloneUser(cred.User)
		s.state.Token = cred.Token
		s.state.Name = cred.Name
	}

	return s, nil
}

// State returns a snapshot of the current state
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

// Subscribe registers fn to be called with every new state. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(State)) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// Login runs the login action: pending, then fulfilled when the service
// resolves with the admin role, rejected otherwise. The returned error is
// the rejection reason; the state carries its message.
func (s *Store) Login(ctx context.Context, creds authsvc.Credentials) (State, error) {
	s.apply(func(st *State) {
		st.IsLoading = true
		st.IsError = false
		st.IsSuccess = false
		st.Message = ""
	})

	resp, err := s.svc.Login(ctx, creds)
	if err == nil && resp.Role != RoleAdmin {
		s.logger.Warn().Str("email", creds.Email).Str("role", resp.Role).Msg("Login rejected by role gate")
		err = ErrAdminRequired
	}

	if err != nil {
		message := ErrorMessage(err)
		st := s.apply(func(st *State) {
			st.IsLoading = false
			st.IsError = true
			st.Message = message
			st.User = nil
			st.Token = ""
			st.Name = ""
		})
		s.persist(st)
		return st, err
	}

	user := resp.User
	st := s.apply(func(st *State) {
		st.IsLoading = false
		st.IsSuccess = true
		st.User = &user
		st.Token = resp.Token
		st.Name = resp.Name
		st.Message = MsgLoginSuccessful
	})
	s.persist(st)

	s.logger.Debug().Str("user_id", user.ID).Msg("Login fulfilled")
	return st, nil
}

// Reset clears the loading, error and success flags and the message.
// User and token are kept.
func (s *Store) Reset() {
	s.apply(func(st *State) {
		st.IsLoading = false
		st.IsError = false
		st.IsSuccess = false
		st.Message = ""
	})
}

// Logout clears the credential and the success flag and drops the service's
// default bearer token.
func (s *Store) Logout() {
	st := s.apply(func(st *State) {
		st.User = nil
		st.Token = ""
		st.Name = ""
		st.IsSuccess = false
	})
	s.svc.Logout()
	s.persist(st)
}

// ErrorMessage extracts the text shown for a failed login: the server's
// error body message, then the error's own message, then its Go syntax
// representation.
func ErrorMessage(err error) string {
	var respErr *client.ResponseError
	if errors.As(err, &respErr) && respErr.Message() != "" {
		return respErr.Message()
	}
	if msg := err.Error(); msg != "" {
		return msg
	}
	return fmt.Sprintf("%#v", err)
}

// apply mutates the state under the lock and notifies subscribers
func (s *Store) apply(mutate func(*State)) State {
	s.mu.Lock()
	mutate(&s.state)
	st := s.snapshot()
	subs := make([]func(State), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(st)
	}
	return st
}

func (s *Store) snapshot() State {
	st := s.state
	st.User = cloneUser(s.state.User)
	return st
}

func (s *Store) persist(st State) {
	if s.persister == nil {
		return
	}
	cred := Credential{User: st.User, Token: st.Token, Name: st.Name}
	if err := s.persister.SaveCredential(cred); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to persist auth state")
	}
}

func cloneUser(u *authsvc.User) *authsvc.User {
	if u == nil {
		return nil
	}
	c := *u
	return &c
}
