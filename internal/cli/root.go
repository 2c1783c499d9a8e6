package cli

import (
	"github.com/spf13/cobra"
)

// GlobalOptions holds flags shared by every subcommand.
type GlobalOptions struct {
	ConfigPath string
	DataDir    string
	Store      string
	LogLevel   string
}

// NewRootCommand creates the root command.
func NewRootCommand(version string) *cobra.Command {
	opts := &GlobalOptions{}

	cmd := &cobra.Command{
		Use:          "impit",
		Short:        "Impit - a cookie-aware HTTP client",
		Long:         "Impit keeps a persistent cookie jar and sends HTTP and WebSocket requests with it.",
		Version:      version,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "Config file (default: ~/.impit/config.yaml)")
	cmd.PersistentFlags().StringVar(&opts.DataDir, "data-dir", "", "Data directory (default: ~/.impit)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", "", "Cookie store backend: sqlite or yaml")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "Log level: debug, info, warn, error")

	// Add subcommands
	cmd.AddCommand(NewCookiesCommand(opts))
	cmd.AddCommand(NewSendCommand(opts))
	cmd.AddCommand(NewWSCommand(opts))

	return cmd
}
