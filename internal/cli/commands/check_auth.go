package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/auth"
	"github.com/e9g9o9r9/chitai-admin/internal/cli/store"
)

// NewCheckAuthCmd creates the check-auth command
func NewCheckAuthCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "check-auth",
		Short: "Ask the server who the stored credential belongs to",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheckAuth(cmd.Context(), WithServerAlias(serverAlias))
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from chitai.json")

	return cmd
}

func runCheckAuth(ctx context.Context, opts ...Option) error {
	if ctx == nil {
		ctx = context.Background()
	}
	o := buildOptions(opts)

	env, err := newAuthEnv(o)
	if err != nil {
		return err
	}

	remembered, err := env.tokens.Token()
	if err != nil {
		return err
	}
	if remembered == "" && env.client.Session().Token() == "" {
		return auth.ErrNotAuthenticated
	}

	resp, err := env.service.CheckAuth(ctx)
	if err != nil {
		return fmt.Errorf("check-auth failed: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Authenticated on %s (%s)\n", env.server.Alias, env.server.URL)
	fmt.Fprintf(o.out, "  User: %s (%s)\n", resp.User.Name, resp.User.Email)
	fmt.Fprintf(o.out, "  Role: %s\n", resp.Role)
	if resp.Role != store.RoleAdmin {
		fmt.Fprintln(o.out, "  Warning: this account has no admin access")
	}

	return nil
}
