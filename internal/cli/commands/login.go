package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/form"
	"github.com/e9g9o9r9/chitai-admin/internal/logger"
)

// NewLoginCmd creates the login command
func NewLoginCmd() *cobra.Command {
	var email, password, serverAlias string
	var remember bool

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the Chitai admin panel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context(), email, password, remember, WithServerAlias(serverAlias))
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email address (or set CHITAI_EMAIL)")
	cmd.Flags().StringVar(&password, "password", "", "Password (or set CHITAI_PASSWORD, will prompt if not provided)")
	cmd.Flags().BoolVar(&remember, "remember", false, "Remember the token in the system keychain")
	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from chitai.json")

	return cmd
}

func runLogin(ctx context.Context, email, password string, remember bool, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	o := buildOptions(opts)

	// Check for environment variables (useful for CI/CD)
	if email == "" {
		email = os.Getenv("CHITAI_EMAIL")
	}
	if password == "" {
		password = os.Getenv("CHITAI_PASSWORD")
	}

	env, err := newAuthEnv(o)
	if err != nil {
		return err
	}

	// Prompt for password if not provided via flag or env var. Without a
	// terminal the empty password is left to the form's validation.
	if password == "" && term.IsTerminal(int(syscall.Stdin)) {
		fmt.Fprint(o.out, "Password: ")
		bytePassword, err := term.ReadPassword(int(syscall.Stdin))
		if err != nil {
			return fmt.Errorf("failed to read password: %w", err)
		}
		password = string(bytePassword)
		fmt.Fprintln(o.out)
	}

	fmt.Fprintf(o.out, "Logging in to %s (%s)...\n", env.server.Alias, env.server.URL)

	f := form.New(env.store, logger.GetLogger(), form.WithRememberStore(env.tokens))
	defer f.Close()

	f.Apply(form.EmailChanged(email))
	f.Apply(form.PasswordChanged(password))
	f.Apply(form.RememberMeToggled(remember))

	st, err := f.Submit(ctx)
	if rerr := f.Render(o.out); rerr != nil {
		return fmt.Errorf("failed to write output: %w", rerr)
	}

	if errors.Is(err, form.ErrInvalidForm) {
		return err
	}
	if err != nil {
		fmt.Fprintf(o.out, "  Reason: %s\n", st.Message)
		return fmt.Errorf("login failed: %w", err)
	}

	if st.User != nil {
		fmt.Fprintf(o.out, "  User: %s (%s)\n", st.Name, st.User.Email)
		fmt.Fprintf(o.out, "  Role: %s\n", st.User.Role)
	}
	if remember {
		fmt.Fprintln(o.out, "  Token saved to the system keychain")
	}

	return nil
}
