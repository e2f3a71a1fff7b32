package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewStatusCmd creates the status command
func NewStatusCmd() *cobra.Command {
	var serverAlias string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the locally stored sign-in state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(WithServerAlias(serverAlias))
		},
	}

	cmd.Flags().StringVar(&serverAlias, "server", "", "Server alias from chitai.json")

	return cmd
}

func runStatus(opts ...Option) error {
	o := buildOptions(opts)

	env, err := newAuthEnv(o)
	if err != nil {
		return err
	}

	st := env.store.State()

	fmt.Fprintf(o.out, "Server: %s (%s)\n", env.server.Alias, env.server.URL)
	if st.User == nil || st.Token == "" {
		fmt.Fprintln(o.out, "Not signed in.")
		fmt.Fprintln(o.out, "\nSign in with: chitai-admin login")
		return nil
	}

	fmt.Fprintf(o.out, "User:  %s (%s)\n", st.Name, st.User.Email)
	fmt.Fprintf(o.out, "Role:  %s\n", st.User.Role)

	remembered, err := env.tokens.Token()
	if err != nil {
		return err
	}
	if remembered != "" {
		fmt.Fprintln(o.out, "Token: stored in the system keychain")
	} else {
		fmt.Fprintln(o.out, "Token: stored in the user config")
	}

	return nil
}
