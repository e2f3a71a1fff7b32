package form

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/authsvc"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/store"
)

// ErrInvalidForm is returned by Submit when validation blocks the dispatch
var ErrInvalidForm = errors.New("login form has invalid fields")

// Field identifies a form input
type Field int

const (
	FieldEmail Field = iota
	FieldPassword
	FieldRememberMe
)

// Update is a single field edit
type Update struct {
	Field   Field
	Text    string
	Checked bool
}

// EmailChanged returns the update for an edit of the email input
func EmailChanged(v string) Update { return Update{Field: FieldEmail, Text: v} }

// PasswordChanged returns the update for an edit of the password input
func PasswordChanged(v string) Update { return Update{Field: FieldPassword, Text: v} }

// RememberMeToggled returns the update for the remember-me checkbox
func RememberMeToggled(v bool) Update { return Update{Field: FieldRememberMe, Checked: v} }

// Draft is the local, never persisted, form input
type Draft struct {
	Email      string
	Password   string
	RememberMe bool
}

// Dispatcher is the part of the auth store the form drives
type Dispatcher interface {
	Login(ctx context.Context, creds authsvc.Credentials) (store.State, error)
	State() store.State
	Subscribe(fn func(store.State)) func()
	Reset()
}

// TokenSaver stores the token of a remembered login
type TokenSaver interface {
	SaveToken(token string) error
}

// Option configures a Form
type Option func(*Form)

// WithRememberStore sets where the token goes when remember-me is checked
func WithRememberStore(saver TokenSaver) Option {
	return func(f *Form) {
		f.remember = saver
	}
}

// Form is the login form: draft input, field errors and the submit action
type Form struct {
	mu       sync.Mutex
	draft    Draft
	errors   Errors
	store    Dispatcher
	remember TokenSaver
	validate *validator.Validate
	logger   zerolog.Logger

	lastError   bool
	lastSuccess bool
	unsubscribe func()
}

// New mounts a form on the store
func New(st Dispatcher, logger zerolog.Logger, opts ...Option) *Form {
	f := &Form{
		store:    st,
		validate: newValidator(),
		logger:   logger,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.unsubscribe = st.Subscribe(f.observe)
	return f
}

// Apply edits one field. An existing error on that field is cleared; the
// field is not re-validated until the next submit.
func (f *Form) Apply(u Update) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch u.Field {
	case FieldEmail:
		f.draft.Email = u.Text
		f.errors.Email = ""
	case FieldPassword:
		f.draft.Password = u.Text
		f.errors.Password = ""
	case FieldRememberMe:
		f.draft.RememberMe = u.Checked
	}
}

// Draft returns the current input
func (f *Form) Draft() Draft {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.draft
}

// Errors returns the current field errors
func (f *Form) Errors() Errors {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errors
}

// Validate checks the draft, stores the resulting field errors and reports
// whether the form may be submitted.
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.errors = validateDraft(f.validate, f.draft)
	return f.errors.Empty()
}

// Submit validates the draft and, if valid, dispatches the login action and
// waits for it. Invalid input returns ErrInvalidForm without dispatching.
func (f *Form) Submit(ctx context.Context) (store.State, error) {
	if !f.Validate() {
		return f.store.State(), ErrInvalidForm
	}

	draft := f.Draft()
	st, err := f.store.Login(ctx, authsvc.Credentials{
		Email:    draft.Email,
		Password: draft.Password,
	})
	if err != nil {
		return st, err
	}

	if draft.RememberMe && f.remember != nil {
		if err := f.remember.SaveToken(st.Token); err != nil {
			f.logger.Warn().Err(err).Msg("Failed to remember token")
		}
	}

	return st, nil
}

// Render writes the form's current view
func (f *Form) Render(w io.Writer) error {
	st := f.store.State()
	errs := f.Errors()

	if st.IsError {
		if st.Message == store.MsgAdminRequired {
			fmt.Fprintln(w, "✗ Доступ запрещен. Требуются права администратора.")
		} else {
			fmt.Fprintln(w, "✗ Ошибка входа. Проверьте правильность данных.")
		}
	}

	if st.IsSuccess {
		fmt.Fprintln(w, "✓ Вход выполнен успешно!")
	}

	if errs.Email != "" {
		fmt.Fprintf(w, "  Email: %s\n", errs.Email)
	}
	if errs.Password != "" {
		fmt.Fprintf(w, "  Пароль: %s\n", errs.Password)
	}

	label := "Войти"
	if st.IsLoading {
		label = "Вход..."
	}
	_, err := fmt.Fprintf(w, "[%s]\n", label)
	return err
}

// Close unmounts the form and resets the store so the next form starts
// without a stale outcome.
func (f *Form) Close() {
	f.mu.Lock()
	unsubscribe := f.unsubscribe
	f.unsubscribe = nil
	f.mu.Unlock()

	if unsubscribe == nil {
		return
	}
	unsubscribe()
	f.store.Reset()
}

// observe logs error and success transitions of the store
func (f *Form) observe(st store.State) {
	f.mu.Lock()
	newError := st.IsError && !f.lastError
	newSuccess := st.IsSuccess && !f.lastSuccess
	f.lastError = st.IsError
	f.lastSuccess = st.IsSuccess
	f.mu.Unlock()

	if newError {
		f.logger.Error().Str("reason", st.Message).Msg("Login error")
	}
	if newSuccess {
		f.logger.Info().Msg("Login successful")
	}
}
