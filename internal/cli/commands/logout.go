package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewLogoutCmd creates the logout command
func NewLogoutCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored credential for a server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogout(WithServerAlias(serverAlias))
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from chitai.json")

	return cmd
}

func runLogout(opts ...Option) error {
	o := buildOptions(opts)

	env, err := newAuthEnv(o)
	if err != nil {
		return err
	}

	env.store.Logout()

	if err := env.tokens.DeleteToken(); err != nil {
		return fmt.Errorf("failed to delete authentication token: %w", err)
	}

	fmt.Fprintf(o.out, "✓ Logged out from %s (%s)\n", env.server.Alias, env.server.URL)
	return nil
}
