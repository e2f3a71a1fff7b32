package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/e9g9o9r9/chitai-admin/internal/cli/commands"
	"github.com/e9g9o9r9/chitai-admin/internal/logger"
)

var version = "dev" // Will be set during build

var (
	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "chitai-admin",
	Short: "Chitai admin panel sign-in",
	Long: `chitai-admin signs administrators in to the Chitai admin panel.

Credentials are validated locally, sent to the server's login endpoint and
accepted only for accounts with the admin role.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.InitWithWriter(logLevel, logFormat, os.Stderr)
	},
}

func init() {
	defaultLevel := os.Getenv("CHITAI_LOG_LEVEL")
	if defaultLevel == "" {
		defaultLevel = "warn"
	}

	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", defaultLevel, "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format (console, json)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("chitai-admin version %s\n", version)
		},
	})

	rootCmd.AddCommand(commands.NewInitCmd())
	rootCmd.AddCommand(commands.NewSelectServerCmd())
	rootCmd.AddCommand(commands.NewLoginCmd())
	rootCmd.AddCommand(commands.NewLogoutCmd())
	rootCmd.AddCommand(commands.NewCheckAuthCmd())
	rootCmd.AddCommand(commands.NewStatusCmd())
}

// Execute runs the root command
func Execute() error {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}
