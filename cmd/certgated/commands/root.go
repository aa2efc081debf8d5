// Package commands implements the CLI commands for certgate server
// management.
package commands

import (
	"os"

	"github.com/spf13/cobra"
)

// defaultConfigPath is where packaging installs the server configuration.
const defaultConfigPath = "/etc/certgate/config.yaml"

var (
	// Version information injected at build time.
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"

	// Global flags.
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "certgated",
	Short: "certgate - pluggable request authentication gateway",
	Long: `certgate authenticates and authorizes HTTP requests against the
identity infrastructure the host is already joined to: Kerberos/SPNEGO,
LDAP simple bind, or the local PAM stack, with account enrichment from
POSIX accounts or the directory.

Use "certgated [command] --help" for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		rootCmd.PrintErrf("Error: %v\n", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: /etc/certgate/config.yaml)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// GetConfigFile returns the config file path from the global flag, falling
// back to the system default when a file exists there. An empty return
// means environment variables and built-in defaults only.
func GetConfigFile() string {
	if cfgFile != "" {
		return cfgFile
	}
	if _, err := os.Stat(defaultConfigPath); err == nil {
		return defaultConfigPath
	}
	return ""
}
