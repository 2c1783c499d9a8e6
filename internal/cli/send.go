package cli

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/artpar/impit/internal/cookies"
	"github.com/artpar/impit/internal/logging"
	httpclient "github.com/artpar/impit/internal/protocol/http"
	"github.com/spf13/cobra"
)

// SendOptions holds options for the send command.
type SendOptions struct {
	Headers     []string
	Body        string
	Cookies     []string
	JSON        bool
	Timeout     time.Duration
	NoRedirects bool
	NoSave      bool
}

// NewSendCommand creates the send command.
func NewSendCommand(g *GlobalOptions) *cobra.Command {
	opts := &SendOptions{}

	cmd := &cobra.Command{
		Use:   "send METHOD URL",
		Short: "Send an HTTP request",
		Long: `Send an HTTP request to the specified URL with the given method.
Cookies from the jar are sent and cookies set by the response, including
redirects, are saved back to the jar.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method := strings.ToUpper(args[0])
			return runSend(cmd, g, method, args[1], opts)
		},
	}

	cmd.Flags().StringArrayVarP(&opts.Headers, "header", "H", nil, "Request headers (format: Key:Value)")
	cmd.Flags().StringVarP(&opts.Body, "body", "d", "", "Request body")
	cmd.Flags().StringArrayVar(&opts.Cookies, "cookie", nil, `Extra cookies for this request only, not saved (format: "a=1; b=2")`)
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "Output response as JSON")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "Request timeout (default from config)")
	cmd.Flags().BoolVar(&opts.NoRedirects, "no-redirects", false, "Do not follow redirects")
	cmd.Flags().BoolVar(&opts.NoSave, "no-save", false, "Do not save received cookies")

	return cmd
}

func runSend(cmd *cobra.Command, g *GlobalOptions, method, rawURL string, opts *SendOptions) error {
	if _, err := url.Parse(rawURL); err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	extra, err := cookieFlagHeader(opts.Cookies)
	if err != nil {
		return err
	}

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

	timeout := opts.Timeout
	if timeout == 0 {
		timeout = s.config.Timeout
	}

	cookieJar := httpclient.NewCookieJar(jar)
	clientOpts := []httpclient.Option{
		httpclient.WithTimeout(timeout),
		httpclient.WithCookieJar(cookieJar),
	}
	if opts.NoRedirects {
		clientOpts = append(clientOpts, httpclient.WithNoRedirects())
	}
	client := httpclient.NewClient(clientOpts...)

	// Create request
	req := &httpclient.Request{
		Method: method,
		URL:    rawURL,
		Header: parseHeaders(opts.Headers),
	}
	if extra != "" {
		// The client appends the jar's cookies after these.
		req.Header.Set("Cookie", extra)
	}
	if opts.Body != "" {
		if req.Header.Get("Content-Type") == "" {
			req.Header.Set("Content-Type", "text/plain")
		}
		req.Body = []byte(opts.Body)
	}

	logger := logging.WithURL(s.logger, rawURL)
	logger.Info("sending request", "method", method)

	resp, err := client.Send(ctx, req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	logger.Info("received response", "status", resp.StatusCode, "duration", resp.Timing.Total)

	if !opts.NoSave {
		err := cookieJar.With(func(jar *cookies.Jar) error {
			return s.save(ctx, jar)
		})
		if err != nil {
			return fmt.Errorf("failed to save cookies: %w", err)
		}
	}

	// Output response
	if opts.JSON {
		return outputJSON(cmd, resp)
	}
	return outputHuman(cmd, resp)
}

// cookieFlagHeader joins --cookie values into one Cookie header value.
func cookieFlagHeader(values []string) (string, error) {
	var parts []string
	for _, v := range values {
		pairs, err := httpclient.ParseCookieHeader(v)
		if err != nil {
			return "", err
		}
		for _, p := range pairs {
			parts = append(parts, p.Name+"="+p.Value)
		}
	}
	return strings.Join(parts, "; "), nil
}

func outputJSON(cmd *cobra.Command, resp *httpclient.Response) error {
	headers := make(map[string]string, len(resp.Header))
	for key, values := range resp.Header {
		headers[key] = strings.Join(values, ", ")
	}

	result := map[string]any{
		"status":      resp.StatusCode,
		"status_text": http.StatusText(resp.StatusCode),
		"headers":     headers,
		"body":        string(resp.Body),
		"timing_ms":   resp.Timing.Total.Milliseconds(),
	}

	return writeJSON(cmd.OutOrStdout(), result)
}

func outputHuman(cmd *cobra.Command, resp *httpclient.Response) error {
	out := cmd.OutOrStdout()

	// Status line
	fmt.Fprintf(out, "HTTP %d %s\n", resp.StatusCode, http.StatusText(resp.StatusCode))
	fmt.Fprintf(out, "Time: %dms\n", resp.Timing.Total.Milliseconds())
	fmt.Fprintln(out)

	// Headers
	fmt.Fprintln(out, "Headers:")
	keys := make([]string, 0, len(resp.Header))
	for key := range resp.Header {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		for _, value := range resp.Header[key] {
			fmt.Fprintf(out, "  %s: %s\n", key, value)
		}
	}
	fmt.Fprintln(out)

	// Body
	if len(resp.Body) > 0 {
		fmt.Fprintln(out, "Body:")
		fmt.Fprintln(out, string(resp.Body))
	}

	return nil
}

// parseHeaders converts header strings to an http.Header.
func parseHeaders(headerStrs []string) http.Header {
	headers := make(http.Header)
	for _, h := range headerStrs {
		idx := strings.Index(h, ":")
		if idx == -1 {
			continue
		}
		key := strings.TrimSpace(h[:idx])
		value := strings.TrimSpace(h[idx+1:])
		headers.Add(key, value)
	}
	return headers
}
