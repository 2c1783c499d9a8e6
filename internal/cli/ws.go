package cli

import (
	"fmt"

	"github.com/artpar/impit/internal/cookies"
	"github.com/artpar/impit/internal/logging"
	httpclient "github.com/artpar/impit/internal/protocol/http"
	"github.com/artpar/impit/internal/protocol/websocket"
	"github.com/spf13/cobra"
)

// WSOptions holds options for the ws command.
type WSOptions struct {
	Headers  []string
	Message  string
	Insecure bool
	NoSave   bool
}

// NewWSCommand creates the ws command.
func NewWSCommand(g *GlobalOptions) *cobra.Command {
	opts := &WSOptions{}

	cmd := &cobra.Command{
		Use:   "ws URL",
		Short: "Send one WebSocket message and print the reply",
		Long: `Open a WebSocket connection with the jar's cookies on the handshake,
send a message, print the first reply and close. Cookies set by the
handshake response are saved back to the jar.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWS(cmd, g, args[0], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Handshake headers (format: Key:Value)")
	cmd.Flags().StringVarP(&opts.Message, "message", "m", "", "Text message to send")
	cmd.Flags().BoolVarP(&opts.Insecure, "insecure", "k", false, "Skip TLS verification")
	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "Do not save received cookies")

	return cmd
}

func runWS(cmd *cobra.Command, g *GlobalOptions, endpoint string, opts *WSOptions) error {
	s, err := g.open(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	jar, err := s.load(ctx)
	if err != nil {
		return err
	}

	cookieJar := httpclient.NewCookieJar(jar)
	config := websocket.DefaultConfig()
	config.ConnectTimeout = s.config.Timeout
	config.CookieJar = cookieJar
	config.TLSInsecure = opts.Insecure

	logger := logging.WithURL(s.logger, endpoint)
	logger.Info("connecting")

	reply, hs, err := websocket.NewClient(config).Exchange(ctx, endpoint, parseHeaders(opts.Headers), opts.Message)
	if err != nil {
		return err
	}
	logger.Info("handshake complete", "status", hs.StatusCode)

	if !opts.NoSave {
		err := cookieJar.With(func(jar *cookies.Jar) error {
			return s.save(ctx, jar)
		})
		if err != nil {
			return fmt.Errorf("failed to save cookies: %w", err)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), reply)
	return nil
}
